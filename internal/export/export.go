// Package export converts decoded models to glTF 2.0.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/rigkit/pkg/model"
)

// ErrUnknownExtension is returned by Save for output paths that are
// neither .gltf nor .glb.
var ErrUnknownExtension = errors.New("output must end in .gltf or .glb")

// Options configures the exporter.
type Options struct {
	Logger *zap.Logger
	Binary bool // write .glb when the output path has no extension
}

type exporter struct {
	*gltf.Document
	log       *zap.Logger
	boneNodes []int // rig slot -> node index
	skin      *int
}

// Document builds a glTF document holding the model's meshes, materials
// and skeleton. Animation clips are not exported.
func Document(asset *model.ModelAsset, opts Options) (*gltf.Document, error) {
	if asset == nil {
		return nil, errors.New("nil model")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	e := &exporter{
		Document: gltf.NewDocument(),
		log:      log.With(zap.String("model", asset.Name)),
	}
	e.Asset.Generator = "rigkit"

	for _, mat := range asset.Materials {
		e.Materials = append(e.Materials, e.material(mat))
	}
	if asset.Skeleton != nil && len(asset.Skeleton.Bones) > 0 {
		e.addSkeleton(asset.Skeleton)
	}
	for _, mesh := range asset.Meshes {
		e.addMesh(mesh, len(asset.Materials))
	}
	return e.Document, nil
}

// Save exports the model to path and returns the path written. The
// format follows the extension; a path without one gets .glb or .gltf
// depending on opts.Binary.
func Save(asset *model.ModelAsset, path string, opts Options) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		if opts.Binary {
			ext = ".glb"
		} else {
			ext = ".gltf"
		}
		path += ext
	}
	if ext != ".gltf" && ext != ".glb" {
		return "", fmt.Errorf("%s: %w", path, ErrUnknownExtension)
	}

	doc, err := Document(asset, opts)
	if err != nil {
		return "", err
	}

	if ext == ".glb" {
		err = gltf.SaveBinary(doc, path)
	} else {
		if len(doc.Buffers) > 0 {
			doc.Buffers[0].EmbeddedResource()
		}
		err = gltf.Save(doc, path)
	}
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func (e *exporter) material(mat *model.MaterialAsset) *gltf.Material {
	metallic, roughness := 0.0, 1.0
	pbr := &gltf.PBRMetallicRoughness{
		MetallicFactor:  &metallic,
		RoughnessFactor: &roughness,
	}
	if c, ok := baseColor(mat); ok {
		pbr.BaseColorFactor = &[4]float64{float64(c[0]), float64(c[1]), float64(c[2]), float64(c[3])}
	}

	gm := &gltf.Material{
		Name:                 mat.Name,
		PBRMetallicRoughness: pbr,
	}
	switch strings.ToLower(mat.AlphaType) {
	case "":
		gm.AlphaMode = gltf.AlphaOpaque
	case "mask", "cutout", "test", "alphatest":
		gm.AlphaMode = gltf.AlphaMask
		cutoff := 0.5
		gm.AlphaCutoff = &cutoff
	default:
		gm.AlphaMode = gltf.AlphaBlend
	}

	if tex, ok := mat.Texture(model.TextureBaseColor); ok && tex.File != "" {
		pbr.BaseColorTexture = &gltf.TextureInfo{Index: e.texture(tex)}
	}
	return gm
}

// baseColor picks the first color parameter that reads as a base color.
func baseColor(mat *model.MaterialAsset) ([4]float32, bool) {
	for _, key := range []string{"basecolor", "diffuse", "albedo", "color"} {
		for name, c := range mat.Colors {
			if strings.EqualFold(name, key) {
				return c, true
			}
		}
	}
	return [4]float32{}, false
}

// texture adds an external image reference and returns its texture index.
func (e *exporter) texture(tex model.Texture) int {
	e.Samplers = append(e.Samplers, &gltf.Sampler{
		WrapS: wrapMode(tex.Sampler.WrapU),
		WrapT: wrapMode(tex.Sampler.WrapV),
	})
	e.Images = append(e.Images, &gltf.Image{Name: tex.Name, URI: filepath.ToSlash(tex.File)})
	e.Textures = append(e.Textures, &gltf.Texture{
		Sampler: gltf.Index(len(e.Samplers) - 1),
		Source:  gltf.Index(len(e.Images) - 1),
	})
	return len(e.Textures) - 1
}

func wrapMode(w model.WrapMode) gltf.WrappingMode {
	switch w {
	case model.WrapClamp:
		return gltf.WrapClampToEdge
	case model.WrapMirror:
		return gltf.WrapMirroredRepeat
	default:
		return gltf.WrapRepeat
	}
}

func (e *exporter) addSkeleton(skel *model.SkeletonAsset) {
	e.boneNodes = make([]int, len(skel.Bones))
	for i, b := range skel.Bones {
		e.boneNodes[i] = len(e.Nodes)
		e.Nodes = append(e.Nodes, &gltf.Node{
			Name:        b.Name,
			Translation: f64x3(b.Position.Array()),
			Rotation:    f64x4(b.Rotation.Array()),
			Scale:       f64x3(b.Scale.Array()),
		})
	}
	for i := range skel.Bones {
		node := e.Nodes[e.boneNodes[i]]
		for _, c := range skel.Children(i) {
			node.Children = append(node.Children, e.boneNodes[c])
		}
	}
	for _, r := range skel.Roots() {
		e.Scenes[0].Nodes = append(e.Scenes[0].Nodes, e.boneNodes[r])
	}

	e.Skins = append(e.Skins, &gltf.Skin{
		Name:                "skeleton",
		Joints:              append([]int(nil), e.boneNodes...),
		InverseBindMatrices: gltf.Index(e.addMatrices(skel.InverseBindMatrices())),
	})
	if len(skel.Roots()) > 0 {
		e.Skins[0].Skeleton = gltf.Index(e.boneNodes[skel.Roots()[0]])
	}
	e.skin = gltf.Index(len(e.Skins) - 1)
}

// addMatrices writes column-major 4x4 matrices as a MAT4 accessor.
func (e *exporter) addMatrices(mats []mgl32.Mat4) int {
	cols := make([][4]float32, 0, len(mats)*4)
	for _, m := range mats {
		for c := 0; c < 4; c++ {
			v := m.Col(c)
			cols = append(cols, [4]float32{v[0], v[1], v[2], v[3]})
		}
	}
	acc := modeler.WriteTangent(e.Document, cols)
	e.Accessors[acc].Type = gltf.AccessorMat4
	e.Accessors[acc].Count /= 4
	e.BufferViews[*e.Accessors[acc].BufferView].ByteStride *= 4
	return acc
}

func (e *exporter) addMesh(mesh *model.MeshAsset, materials int) {
	n := mesh.VertexCount
	attrs := map[string]int{
		gltf.POSITION: modeler.WritePosition(e.Document, vec3s(mesh.Positions, n)),
	}
	if mesh.Normals != nil {
		attrs[gltf.NORMAL] = modeler.WriteNormal(e.Document, vec3s(mesh.Normals, n))
	}
	if mesh.Tangents != nil {
		attrs[gltf.TANGENT] = modeler.WriteTangent(e.Document, vec4s(mesh.Tangents, n))
	}
	if mesh.UV != nil {
		attrs[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(e.Document, vec2s(mesh.UV, n))
	}
	if mesh.UV2 != nil {
		attrs[gltf.TEXCOORD_1] = modeler.WriteTextureCoord(e.Document, vec2s(mesh.UV2, n))
	}
	if mesh.Colors != nil {
		attrs[gltf.COLOR_0] = modeler.WriteColor(e.Document, vec4s(mesh.Colors, n))
	}

	skinned := mesh.Skinned() && e.skin != nil
	if mesh.Skinned() && e.skin == nil {
		e.log.Warn("skinned mesh exported without skeleton", zap.String("mesh", mesh.Name))
	}
	if skinned {
		attrs[gltf.JOINTS_0] = modeler.WriteJoints(e.Document, e.joints(mesh))
		attrs[gltf.WEIGHTS_0] = modeler.WriteWeights(e.Document, vec4s(mesh.SkinWeights, n))
	}

	groups := mesh.Groups
	if len(groups) == 0 {
		groups = []model.Group{{Start: 0, Count: mesh.IndexCount(), MaterialIndex: -1}}
	}

	gm := &gltf.Mesh{Name: mesh.Name}
	for _, g := range groups {
		start := min(g.Start, mesh.IndexCount())
		end := min(g.Start+g.Count, mesh.IndexCount())
		if start >= end {
			continue
		}
		prim := &gltf.Primitive{
			Attributes: attrs,
			Indices:    gltf.Index(e.indices(mesh.Indices, start, end)),
			Mode:       gltf.PrimitiveTriangles,
		}
		if g.MaterialIndex >= 0 && g.MaterialIndex < materials {
			prim.Material = gltf.Index(g.MaterialIndex)
		}
		gm.Primitives = append(gm.Primitives, prim)
	}
	e.Meshes = append(e.Meshes, gm)

	node := &gltf.Node{Name: mesh.Name, Mesh: gltf.Index(len(e.Meshes) - 1)}
	if skinned {
		node.Skin = e.skin
	}
	e.Nodes = append(e.Nodes, node)
	e.Scenes[0].Nodes = append(e.Scenes[0].Nodes, len(e.Nodes)-1)
}

// joints converts skin indices to joint indices, clamping slots the
// skeleton does not have to joint 0.
func (e *exporter) joints(mesh *model.MeshAsset) [][4]uint16 {
	out := make([][4]uint16, mesh.VertexCount)
	clamped := 0
	for v := range out {
		for k := 0; k < 4; k++ {
			j := int(mesh.SkinIndices[v*4+k])
			if j < 0 || j >= len(e.boneNodes) {
				j = 0
				clamped++
			}
			out[v][k] = uint16(j)
		}
	}
	if clamped > 0 {
		e.log.Warn("skin indices outside skeleton", zap.String("mesh", mesh.Name), zap.Int("count", clamped))
	}
	return out
}

func (e *exporter) indices(ix model.Indices, start, end int) int {
	if ix.Wide() {
		return modeler.WriteIndices(e.Document, ix.U32[start:end])
	}
	return modeler.WriteIndices(e.Document, ix.U16[start:end])
}

func vec2s(data []float32, n int) [][2]float32 {
	out := make([][2]float32, n)
	for i := range out {
		copy(out[i][:], data[i*2:])
	}
	return out
}

func vec3s(data []float32, n int) [][3]float32 {
	out := make([][3]float32, n)
	for i := range out {
		copy(out[i][:], data[i*3:])
	}
	return out
}

func vec4s(data []float32, n int) [][4]float32 {
	out := make([][4]float32, n)
	for i := range out {
		copy(out[i][:], data[i*4:])
	}
	return out
}

func f64x3(a [3]float32) [3]float64 {
	return [3]float64{float64(a[0]), float64(a[1]), float64(a[2])}
}

func f64x4(a [4]float32) [4]float64 {
	return [4]float64{float64(a[0]), float64(a[1]), float64(a[2]), float64(a[3])}
}
