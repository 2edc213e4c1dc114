package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/rigkit/pkg/anim"
	"github.com/Faultbox/rigkit/pkg/formats"
)

// ErrNoMeshes is returned when none of a model's meshes could be decoded.
var ErrNoMeshes = errors.New("no decodable mesh")

// Item kinds reported in ItemError.
const (
	ItemMesh      = "mesh"
	ItemMaterial  = "material"
	ItemSkeleton  = "skeleton"
	ItemAnimation = "animation"
)

// ItemError reports one item of a batch that was skipped.
type ItemError struct {
	Kind   string // ItemMesh, ItemMaterial, ...
	Source string // file name
	Index  int    // record index inside the file, -1 for the whole file
	Err    error
}

func (e ItemError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Source, e.Err)
	}
	return fmt.Sprintf("%s %s[%d]: %v", e.Kind, e.Source, e.Index, e.Err)
}

func (e ItemError) Unwrap() error {
	return e.Err
}

// MeshSource is a mesh shape file with its paired buffer file.
type MeshSource struct {
	Name    string
	Shapes  []byte
	Buffers []byte
}

// FileSource is a named file.
type FileSource struct {
	Name string
	Data []byte
}

// AnimationSource is a bone-motion file with an optional visibility file.
type AnimationSource struct {
	Name       string
	Motion     []byte
	Visibility []byte
}

// Sources holds the raw files of one model.
type Sources struct {
	Name       string
	Meshes     []MeshSource
	Materials  []FileSource
	Skeleton   *FileSource // optional
	Animations []AnimationSource
}

// AssembleOptions configures Assemble.
type AssembleOptions struct {
	Logger    *zap.Logger
	FrameRate float64 // fallback clip frame rate
}

// ModelAsset is a fully decoded model.
type ModelAsset struct {
	ID        uuid.UUID
	Name      string
	Meshes    []*MeshAsset
	Materials []*MaterialAsset
	Skeleton  *SkeletonAsset // nil when the model has none
	Clips     []*anim.Clip

	// Errors lists the items that were skipped while assembling.
	Errors []ItemError
}

// Assemble decodes every file of a model. Items that fail to decode are
// skipped and listed in Errors; the call only fails when no mesh survives.
func Assemble(src *Sources, opts AssembleOptions) (*ModelAsset, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("model", src.Name))

	asset := &ModelAsset{ID: uuid.New(), Name: src.Name}
	skip := func(kind, source string, index int, err error) {
		log.Warn("item skipped",
			zap.String("kind", kind), zap.String("source", source),
			zap.Int("index", index), zap.Error(err))
		asset.Errors = append(asset.Errors, ItemError{Kind: kind, Source: source, Index: index, Err: err})
	}

	for _, file := range src.Materials {
		f, err := formats.ParseMaterials(file.Data)
		if err != nil {
			skip(ItemMaterial, file.Name, -1, err)
			continue
		}
		for _, rec := range f.Skipped {
			skip(ItemMaterial, file.Name, rec.Index, rec.Err)
		}
		for i := range f.Materials {
			asset.Materials = append(asset.Materials, DecodeMaterial(&f.Materials[i], log))
		}
	}
	materialNames := make([]string, len(asset.Materials))
	for i, m := range asset.Materials {
		materialNames[i] = m.Name
	}

	for _, ms := range src.Meshes {
		asset.decodeMeshes(ms, materialNames, log, skip)
	}
	if len(asset.Meshes) == 0 {
		return nil, formats.NewStructuralError(src.Name, "meshes", ErrNoMeshes)
	}

	if src.Skeleton != nil {
		skel, err := DecodeSkeleton(src.Skeleton.Data, log)
		if err != nil {
			skip(ItemSkeleton, src.Skeleton.Name, -1, err)
		} else {
			asset.Skeleton = skel
		}
	}

	for _, as := range src.Animations {
		clip, err := anim.DecodeAnimation(as.Motion, as.Visibility, anim.BuildOptions{
			Logger:    log,
			FrameRate: opts.FrameRate,
		})
		if err != nil {
			skip(ItemAnimation, as.Name, -1, err)
			continue
		}
		if clip.Name == "" {
			clip.Name = as.Name
		}
		asset.Clips = append(asset.Clips, clip)
	}

	log.Debug("model assembled",
		zap.Stringer("id", asset.ID),
		zap.Int("meshes", len(asset.Meshes)),
		zap.Int("materials", len(asset.Materials)),
		zap.Int("clips", len(asset.Clips)),
		zap.Int("skipped", len(asset.Errors)))
	return asset, nil
}

func (a *ModelAsset) decodeMeshes(ms MeshSource, materials []string, log *zap.Logger, skip func(string, string, int, error)) {
	shapes, err := formats.ParseMeshShapes(ms.Shapes)
	if err != nil {
		skip(ItemMesh, ms.Name, -1, err)
		return
	}
	buffers, err := formats.ParseMeshBuffers(ms.Buffers)
	if err != nil {
		skip(ItemMesh, ms.Name, -1, err)
		return
	}
	for _, rec := range shapes.Skipped {
		skip(ItemMesh, ms.Name, rec.Index, rec.Err)
	}

	for i := range shapes.Shapes {
		shape := &shapes.Shapes[i]
		if int(shape.BufferIndex) >= len(buffers.Buffers) {
			skip(ItemMesh, ms.Name, i, formats.NewStructuralError(shape.Name, "buffer", ErrNoBuffer))
			continue
		}
		mesh, err := DecodeMesh(shape, &buffers.Buffers[shape.BufferIndex], materials, log)
		if err != nil {
			skip(ItemMesh, ms.Name, i, err)
			continue
		}
		a.Meshes = append(a.Meshes, mesh)
	}
}

// Material returns the material with the given name.
func (a *ModelAsset) Material(name string) (*MaterialAsset, bool) {
	for _, m := range a.Materials {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Clip returns the clip with the given name.
func (a *ModelAsset) Clip(name string) (*anim.Clip, bool) {
	for _, c := range a.Clips {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// NewPose returns a fresh bind pose, or nil when the model has no skeleton.
func (a *ModelAsset) NewPose() *Pose {
	if a.Skeleton == nil {
		return nil
	}
	return NewPose(a.Skeleton)
}

// NewNodeSet returns one visible node per mesh.
func (a *ModelAsset) NewNodeSet() *NodeSet {
	names := make([]string, len(a.Meshes))
	for i, m := range a.Meshes {
		names[i] = m.Name
	}
	return NewNodeSet(names...)
}

// NewMixer binds a mixer to a fresh pose and node set of the model.
func (a *ModelAsset) NewMixer(opts anim.MixerOptions) (*anim.Mixer, *Pose, *NodeSet) {
	pose := a.NewPose()
	nodes := a.NewNodeSet()
	var skel anim.Skeleton
	if pose != nil {
		skel = pose
	}
	return anim.NewMixer(skel, nodes, opts), pose, nodes
}
