// Package assets resolves model files under a root directory, caches their
// bytes and decodes them into model assets.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"

	"github.com/Faultbox/rigkit/pkg/anim"
	"github.com/Faultbox/rigkit/pkg/formats"
	"github.com/Faultbox/rigkit/pkg/model"
)

// ErrOutsideRoot is returned for paths that escape the asset root.
var ErrOutsideRoot = errors.New("path outside asset root")

// Options configures a Manager.
type Options struct {
	Root          string
	Workers       int  // batch decode workers, at least 1
	NoCache       bool // read files from disk on every load
	FrameRate     float64
	WatchDebounce time.Duration
	Logger        *zap.Logger
}

// Manager loads model files relative to a root directory.
type Manager struct {
	root      string
	cache     *Cache // nil when caching is off
	pool      worker.DynamicWorkerPool
	frameRate float64
	debounce  time.Duration
	log       *zap.Logger

	mu     sync.Mutex
	taskID int
}

// NewManager creates a new asset manager.
func NewManager(opts Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	root := opts.Root
	if root == "" {
		root = "."
	}

	m := &Manager{
		root:      filepath.Clean(root),
		pool:      worker.NewDynamicWorkerPool(workers, 256, time.Second),
		frameRate: opts.FrameRate,
		debounce:  opts.WatchDebounce,
		log:       log,
	}
	if !opts.NoCache {
		m.cache = NewCache()
	}
	return m
}

// Root returns the asset root directory.
func (m *Manager) Root() string {
	return m.root
}

// Cache returns the file cache, or nil when caching is off.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// key normalizes a root-relative name into a cache key.
func key(name string) string {
	return filepath.ToSlash(filepath.Clean(name))
}

// resolve turns a root-relative name into a file system path.
func (m *Manager) resolve(name string) (string, error) {
	k := key(name)
	if filepath.IsAbs(name) || k == ".." || strings.HasPrefix(k, "../") {
		return "", fmt.Errorf("%s: %w", name, ErrOutsideRoot)
	}
	return filepath.Join(m.root, filepath.FromSlash(k)), nil
}

// Load reads a file relative to the root, through the cache.
func (m *Manager) Load(name string) ([]byte, error) {
	k := key(name)
	if m.cache != nil {
		if data, ok := m.cache.Get(k); ok {
			return data, nil
		}
	}

	path, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	if m.cache != nil {
		m.cache.Set(k, data)
	}
	return data, nil
}

// Invalidate drops a root-relative name from the cache.
func (m *Manager) Invalidate(name string) bool {
	if m.cache == nil {
		return false
	}
	return m.cache.Delete(key(name))
}

// Sources reads a model descriptor and every file it names. Files that
// cannot be read are returned as item errors instead of failing the call.
func (m *Manager) Sources(descriptor string) (*model.Sources, []model.ItemError, error) {
	data, err := m.Load(descriptor)
	if err != nil {
		return nil, nil, err
	}
	md, err := formats.ParseModelDescriptor(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", descriptor, err)
	}

	dir := filepath.Dir(descriptor)
	sibling := func(name string) string {
		return filepath.ToSlash(filepath.Join(dir, name))
	}

	name := md.Name
	if name == "" {
		name = baseName(descriptor)
	}
	src := &model.Sources{Name: name}
	var missing []model.ItemError
	fail := func(kind, file string, err error) {
		missing = append(missing, model.ItemError{Kind: kind, Source: file, Index: -1, Err: err})
	}

	for i, shapes := range md.Meshes {
		if i >= len(md.Buffers) {
			fail(model.ItemMesh, shapes, formats.NewStructuralError(shapes, "buffers", model.ErrNoBuffer))
			continue
		}
		shapeData, err := m.Load(sibling(shapes))
		if err != nil {
			fail(model.ItemMesh, shapes, err)
			continue
		}
		bufData, err := m.Load(sibling(md.Buffers[i]))
		if err != nil {
			fail(model.ItemMesh, md.Buffers[i], err)
			continue
		}
		src.Meshes = append(src.Meshes, model.MeshSource{Name: shapes, Shapes: shapeData, Buffers: bufData})
	}

	for _, file := range md.Materials {
		data, err := m.Load(sibling(file))
		if err != nil {
			fail(model.ItemMaterial, file, err)
			continue
		}
		src.Materials = append(src.Materials, model.FileSource{Name: file, Data: data})
	}

	if md.Skeleton != "" {
		data, err := m.Load(sibling(md.Skeleton))
		if err != nil {
			fail(model.ItemSkeleton, md.Skeleton, err)
		} else {
			src.Skeleton = &model.FileSource{Name: md.Skeleton, Data: data}
		}
	}

	// Motions pair with visibilities by position; extra visibilities stand alone.
	count := max(len(md.Motions), len(md.Visibilities))
	for i := 0; i < count; i++ {
		var as model.AnimationSource
		if i < len(md.Motions) {
			as.Name = baseName(md.Motions[i])
			if as.Motion, err = m.Load(sibling(md.Motions[i])); err != nil {
				fail(model.ItemAnimation, md.Motions[i], err)
				continue
			}
		}
		if i < len(md.Visibilities) {
			if as.Name == "" {
				as.Name = baseName(md.Visibilities[i])
			}
			if as.Visibility, err = m.Load(sibling(md.Visibilities[i])); err != nil {
				m.log.Warn("visibility file unreadable",
					zap.String("file", md.Visibilities[i]), zap.Error(err))
				if as.Motion == nil {
					fail(model.ItemAnimation, md.Visibilities[i], err)
					continue
				}
			}
		}
		src.Animations = append(src.Animations, as)
	}

	return src, missing, nil
}

// LoadModel loads and assembles the model described by a descriptor file.
func (m *Manager) LoadModel(descriptor string) (*model.ModelAsset, error) {
	start := time.Now()
	src, missing, err := m.Sources(descriptor)
	if err != nil {
		return nil, err
	}

	asset, err := model.Assemble(src, model.AssembleOptions{
		Logger:    m.log,
		FrameRate: m.frameRate,
	})
	if err != nil {
		return nil, fmt.Errorf("assembling %s: %w", descriptor, err)
	}
	asset.Errors = append(missing, asset.Errors...)

	m.log.Info("model loaded",
		zap.String("descriptor", descriptor),
		zap.Stringer("id", asset.ID),
		zap.Int("skipped", len(asset.Errors)),
		zap.Duration("elapsed", time.Since(start)))
	return asset, nil
}

// LoadAnimation decodes a motion file and an optional visibility file.
// Either name may be empty, but not both.
func (m *Manager) LoadAnimation(motion, visibility string) (*anim.Clip, error) {
	var motionData, visData []byte
	var err error
	if motion != "" {
		if motionData, err = m.Load(motion); err != nil {
			return nil, err
		}
	}
	if visibility != "" {
		if visData, err = m.Load(visibility); err != nil {
			return nil, err
		}
	}

	clip, err := anim.DecodeAnimation(motionData, visData, anim.BuildOptions{
		Logger:    m.log,
		FrameRate: m.frameRate,
	})
	if err != nil {
		return nil, err
	}
	if clip.Name == "" {
		if motion != "" {
			clip.Name = baseName(motion)
		} else {
			clip.Name = baseName(visibility)
		}
	}
	return clip, nil
}

// Result is the outcome of one model in a batch load.
type Result struct {
	Descriptor string
	Model      *model.ModelAsset
	Err        error
}

// LoadModels loads many models on the worker pool. Results keep the order
// of descriptors; one failing model does not affect the others.
func (m *Manager) LoadModels(descriptors []string) []Result {
	results := make([]Result, len(descriptors))
	var wg sync.WaitGroup

	for i, d := range descriptors {
		wg.Add(1)
		idx, name := i, d // capture for closure
		m.pool.SubmitTask(worker.Task{
			ID: m.nextTaskID(),
			Do: func() (any, error) {
				defer wg.Done()
				asset, err := m.LoadModel(name)
				results[idx] = Result{Descriptor: name, Model: asset, Err: err}
				return asset, err
			},
		})
	}
	wg.Wait()

	return results
}

func (m *Manager) nextTaskID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.taskID++
	return m.taskID
}

// baseName strips directory and extension from a file name.
func baseName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
