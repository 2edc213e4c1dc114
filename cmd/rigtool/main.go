// rigtool is a CLI utility for inspecting, playing and exporting rigged
// model assets.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/rigkit/internal/assets"
	"github.com/Faultbox/rigkit/internal/config"
	"github.com/Faultbox/rigkit/internal/export"
	"github.com/Faultbox/rigkit/internal/logger"
	"github.com/Faultbox/rigkit/pkg/anim"
	"github.com/Faultbox/rigkit/pkg/model"
)

var cfg *config.Config

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	command := args[0]
	args = args[1:]

	switch command {
	case "info":
		cmdInfo(args)
	case "skeleton", "skel":
		cmdSkeleton(args)
	case "anim":
		cmdAnim(args)
	case "play":
		cmdPlay(args)
	case "export":
		cmdExport(args)
	case "watch":
		cmdWatch(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`rigtool - rigged model asset utility

Usage:
  rigtool [flags] <command> [options]

Flags:
  -config <file>   Config file (.yaml or .toml)
  -root <dir>      Asset root directory
  -workers <n>     Decode workers for batch loads
  -glb             Export binary glTF by default
  -debug           Enable debug logging

Commands:
  info <model.tmdl>...                     Show model contents
  skeleton <model.tmdl>                    Print the bone hierarchy
  anim <motion.tanm> [visibility.tacn]     Show clip tracks
  play <model.tmdl> <clip> [seconds] [fps] Play a clip and print the pose
  export <model.tmdl> <out.gltf|out.glb>   Export to glTF
  watch [dir]                              Report changed asset files

Examples:
  rigtool -root ./assets info chars/hero/hero.tmdl
  rigtool play chars/hero/hero.tmdl wave 2 30
  rigtool -glb export chars/hero/hero.tmdl hero`)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func newManager(root string) *assets.Manager {
	return assets.NewManager(assets.Options{
		Root:          root,
		Workers:       cfg.Assets.Workers,
		NoCache:       !cfg.Assets.Cache,
		FrameRate:     cfg.Playback.FrameRate,
		WatchDebounce: time.Duration(cfg.Assets.WatchDebounceMS) * time.Millisecond,
		Logger:        logger.Named("assets"),
	})
}

func loadModel(name string) *model.ModelAsset {
	asset, err := newManager(cfg.Assets.Root).LoadModel(name)
	if err != nil {
		fail(err)
	}
	return asset
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rigtool info <model.tmdl>...")
		os.Exit(1)
	}

	failed := false
	for i, r := range newManager(cfg.Assets.Root).LoadModels(args) {
		if i > 0 {
			fmt.Println()
		}
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", r.Descriptor, r.Err)
			failed = true
			continue
		}
		printModel(r.Descriptor, r.Model)
	}
	if failed {
		os.Exit(1)
	}
}

func printModel(path string, a *model.ModelAsset) {
	fmt.Printf("Model:  %s (%s)\n", a.Name, path)
	fmt.Printf("ID:     %s\n", a.ID)

	fmt.Printf("Meshes: %d\n", len(a.Meshes))
	for _, m := range a.Meshes {
		width := 16
		if m.Indices.Wide() {
			width = 32
		}
		fmt.Printf("  %-20s %6d verts %7d idx (u%d) skinned=%v bounds=%v..%v\n",
			m.Name, m.VertexCount, m.IndexCount(), width, m.Skinned(), m.Bounds.Min, m.Bounds.Max)
		for _, g := range m.Groups {
			fmt.Printf("    [%d:%d] %s\n", g.Start, g.Start+g.Count, g.MaterialName)
		}
	}

	fmt.Printf("Materials: %d\n", len(a.Materials))
	for _, m := range a.Materials {
		alpha := "opaque"
		if m.Transparent() {
			alpha = m.AlphaType
		}
		fmt.Printf("  %-20s shader=%s alpha=%s\n", m.Name, m.ShaderID, alpha)
		for _, t := range m.Textures {
			fmt.Printf("    %-10s %s (%s/%s)\n", t.Type, t.File, t.Sampler.WrapU, t.Sampler.WrapV)
		}
	}

	if a.Skeleton != nil {
		fmt.Printf("Bones:  %d\n", len(a.Skeleton.Bones))
	} else {
		fmt.Println("Bones:  none")
	}

	fmt.Printf("Clips:  %d\n", len(a.Clips))
	for _, c := range a.Clips {
		fmt.Printf("  %-20s %.2fs %d frames @ %g fps loop=%v\n",
			c.Name, c.Duration, c.FrameCount, c.FrameRate, c.Loop)
	}

	if len(a.Errors) > 0 {
		fmt.Printf("Skipped: %d\n", len(a.Errors))
		for _, e := range a.Errors {
			fmt.Printf("  %v\n", e)
		}
	}
}

func cmdSkeleton(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rigtool skeleton <model.tmdl>")
		os.Exit(1)
	}

	skel := loadModel(args[0]).Skeleton
	if skel == nil {
		fmt.Println("(no skeleton)")
		return
	}

	var walk func(bone, depth int)
	walk = func(bone, depth int) {
		b := skel.Bones[bone]
		fmt.Printf("%s%-*s #%-3d pos=%v\n", strings.Repeat("  ", depth), 24-2*depth, b.Name, b.Index, b.Position.Array())
		for _, c := range skel.Children(bone) {
			walk(c, depth+1)
		}
	}
	for _, r := range skel.Roots() {
		walk(r, 0)
	}
}

func cmdAnim(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: rigtool anim <motion.tanm> [visibility.tacn]")
		os.Exit(1)
	}

	motion, vis := args[0], ""
	if len(args) > 1 {
		vis = args[1]
	}
	// A lone visibility file is accepted too
	if strings.EqualFold(filepath.Ext(motion), ".tacn") && vis == "" {
		motion, vis = "", motion
	}

	clip, err := newManager(cfg.Assets.Root).LoadAnimation(motion, vis)
	if err != nil {
		fail(err)
	}

	fmt.Printf("Clip:     %s\n", clip.Name)
	fmt.Printf("Duration: %.3fs (%d frames @ %g fps)\n", clip.Duration, clip.FrameCount, clip.FrameRate)
	fmt.Printf("Loop:     %v\n", clip.Loop)
	fmt.Printf("Bones:    %d\n", len(clip.Bones))
	for _, name := range clip.BoneNames() {
		t := clip.Bones[name]
		fmt.Printf("  %-24s pos=%-9s rot=%-9s scale=%s\n",
			name, encoding(t.Position), encoding(t.Rotation), encoding(t.Scale))
	}
	fmt.Printf("Nodes:    %d\n", len(clip.Visibility))
	for _, name := range clip.NodeNames() {
		fmt.Printf("  %-24s %s\n", name, encoding(clip.Visibility[name].Visible))
	}
}

// encoding names a track's storage, or "-" when the channel is absent.
func encoding[T any](t anim.Track[T]) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%s/%d", t.Encoding(), t.Len())
}

func cmdPlay(args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	loop := fs.Bool("loop", false, "Force looping")
	verbose := fs.Bool("v", false, "Print every bone at every step")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: rigtool play [-loop] [-v] <model.tmdl> <clip|motion.tanm> [seconds] [fps]")
		os.Exit(1)
	}
	seconds, fps := 1.0, 30.0
	if fs.NArg() > 2 {
		v, err := strconv.ParseFloat(fs.Arg(2), 64)
		if err != nil || v <= 0 {
			fail(fmt.Errorf("invalid seconds %q", fs.Arg(2)))
		}
		seconds = v
	}
	if fs.NArg() > 3 {
		v, err := strconv.ParseFloat(fs.Arg(3), 64)
		if err != nil || v <= 0 {
			fail(fmt.Errorf("invalid fps %q", fs.Arg(3)))
		}
		fps = v
	}

	mgr := newManager(cfg.Assets.Root)
	asset, err := mgr.LoadModel(fs.Arg(0))
	if err != nil {
		fail(err)
	}
	clip, ok := asset.Clip(fs.Arg(1))
	if !ok {
		if clip, err = mgr.LoadAnimation(fs.Arg(1), ""); err != nil {
			fail(fmt.Errorf("clip %q: %w", fs.Arg(1), err))
		}
	}

	mixer, pose, nodes := asset.NewMixer(anim.MixerOptions{
		Logger:           logger.Named("mixer"),
		IgnoreScale:      cfg.Playback.IgnoreScale,
		IgnoreScaleBones: cfg.Playback.IgnoreScaleBones,
	})
	defer mixer.Dispose()

	mixer.LoadClip(clip)
	if *loop {
		mixer.SetLoop(true)
	}
	mixer.Play()
	logger.Debug("playing", zap.Stringer("mixer", mixer.ID), zap.String("clip", clip.Name))

	dt := 1 / fps
	steps := int(seconds*fps + 0.5)
	for i := 0; i < steps; i++ {
		mixer.Update(dt)
		fmt.Printf("t=%7.3f frame=%4d %s\n", mixer.Time(), mixer.Frame(), mixer.State())
		if *verbose {
			printPose(pose, nodes)
		}
		if mixer.State() != anim.StatePlaying {
			break
		}
	}
	if !*verbose {
		printPose(pose, nodes)
	}
}

func printPose(pose *model.Pose, nodes *model.NodeSet) {
	if pose != nil {
		for i := 0; i < pose.Len(); i++ {
			b := pose.Bone(i)
			fmt.Printf("  %-24s pos=%v rot=%v scale=%v\n",
				b.Name(), b.Position().Array(), b.Rotation().Array(), b.Scale().Array())
		}
	}
	for _, name := range nodes.Names() {
		fmt.Printf("  %-24s visible=%v\n", name, nodes.Visible(name))
	}
}

func cmdExport(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: rigtool export <model.tmdl> <out.gltf|out.glb>")
		os.Exit(1)
	}

	asset := loadModel(args[0])
	path, err := export.Save(asset, args[1], export.Options{
		Logger: logger.Named("export"),
		Binary: cfg.Export.Binary,
	})
	if err != nil {
		fail(err)
	}
	fmt.Printf("Exported %s -> %s (%d meshes, %d materials)\n", asset.Name, path, len(asset.Meshes), len(asset.Materials))
}

func cmdWatch(args []string) {
	root := cfg.Assets.Root
	if len(args) > 0 {
		root = args[0]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := newManager(root).Watch(ctx, func(name string) {
		fmt.Printf("%s changed: %s\n", time.Now().Format("15:04:05"), name)
	})
	if err != nil {
		fail(err)
	}
	defer w.Close()

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", root)
	<-ctx.Done()
}
