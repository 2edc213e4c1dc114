// Package model builds immutable meshes, materials and skeletons from parsed
// model files and assembles them into a ModelAsset.
package model

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/rigkit/pkg/formats"
	"github.com/Faultbox/rigkit/pkg/vertex"
)

// Mesh errors.
var (
	ErrNoPositions = errors.New("mesh has no position attribute")
	ErrNoStream    = errors.New("attribute group has no vertex stream")
	ErrNoIndices   = errors.New("mesh has no index buffer")
	ErrNoBuffer    = errors.New("buffer index out of range")
)

// Bounds holds an axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Group is a run of indices drawn with one material.
type Group struct {
	Start         int
	Count         int
	MaterialIndex int // -1 when the material is unknown
	MaterialName  string
}

// Indices holds either 16-bit or 32-bit triangle indices.
type Indices struct {
	U16 []uint16
	U32 []uint32
}

// Len returns the number of indices.
func (ix Indices) Len() int {
	if ix.U32 != nil {
		return len(ix.U32)
	}
	return len(ix.U16)
}

// At returns index i widened to 32 bits.
func (ix Indices) At(i int) uint32 {
	if ix.U32 != nil {
		return ix.U32[i]
	}
	return uint32(ix.U16[i])
}

// Wide reports whether the indices are 32-bit.
func (ix Indices) Wide() bool {
	return ix.U32 != nil
}

// MeshAsset is a decoded submesh. Optional attribute arrays are nil when
// absent and otherwise hold VertexCount x components values. SkinIndices
// and SkinWeights are either both set or both nil.
type MeshAsset struct {
	Name        string
	VertexCount int

	Positions   []float32 // 3 per vertex
	Normals     []float32 // 3 per vertex
	UV          []float32 // 2 per vertex
	UV2         []float32 // 2 per vertex
	Tangents    []float32 // 4 per vertex
	Colors      []float32 // 4 per vertex
	SkinIndices []float32 // 4 per vertex
	SkinWeights []float32 // 4 per vertex

	Indices Indices
	Groups  []Group
	Bounds  Bounds
}

// IndexCount returns the number of indices.
func (m *MeshAsset) IndexCount() int {
	return m.Indices.Len()
}

// Skinned reports whether the mesh carries skinning data.
func (m *MeshAsset) Skinned() bool {
	return m.SkinIndices != nil && m.SkinWeights != nil
}

// semanticComponents returns the number of values stored per vertex for a
// semantic, or 0 for semantics the mesh does not keep.
func semanticComponents(s formats.Semantic) int {
	switch s {
	case formats.SemanticPosition, formats.SemanticNormal:
		return 3
	case formats.SemanticTexCoord:
		return 2
	case formats.SemanticTangent, formats.SemanticColor,
		formats.SemanticBlendIndices, formats.SemanticBlendWeights:
		return 4
	default:
		return 0
	}
}

// DecodeMesh decodes one submesh from its shape and buffer. materials maps
// material names to group material indices. A missing position attribute,
// vertex stream or index buffer is a StructuralError.
func DecodeMesh(shape *formats.MeshShape, buf *formats.MeshBuffer, materials []string, log *zap.Logger) (*MeshAsset, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("mesh", shape.Name))

	mesh := &MeshAsset{
		Name:        shape.Name,
		VertexCount: int(shape.VertexCount),
	}

	for g, group := range shape.Groups {
		if g >= len(buf.Streams) {
			return nil, formats.NewStructuralError(shape.Name, fmt.Sprintf("group %d", g), ErrNoStream)
		}
		stream := buf.Streams[g]
		for _, attr := range group.Attributes {
			mesh.decodeAttribute(stream, int(group.Stride), attr, log)
		}
	}

	if mesh.Positions == nil {
		return nil, formats.NewStructuralError(shape.Name, "position", ErrNoPositions)
	}
	if (mesh.SkinIndices == nil) != (mesh.SkinWeights == nil) {
		log.Warn("mesh has only one of blend indices and blend weights, skinning dropped")
		mesh.SkinIndices, mesh.SkinWeights = nil, nil
	}

	if len(buf.IndexBuffers) == 0 {
		return nil, formats.NewStructuralError(shape.Name, "indices", ErrNoIndices)
	}
	indices, err := decodeIndices(buf.IndexBuffers[0], int(shape.IndexWidth))
	if err != nil {
		return nil, formats.NewStructuralError(shape.Name, "indices", err)
	}
	mesh.Indices = indices

	mesh.Groups = make([]Group, len(shape.Ranges))
	for i, rg := range shape.Ranges {
		mesh.Groups[i] = Group{
			Start:         int(rg.Start),
			Count:         int(rg.Count),
			MaterialIndex: slices.Index(materials, rg.Material),
			MaterialName:  rg.Material,
		}
		if mesh.Groups[i].MaterialIndex < 0 {
			log.Warn("group references unknown material", zap.String("material", rg.Material))
		}
	}

	if shape.HasBounds {
		mesh.Bounds = Bounds{Min: shape.BoundsMin, Max: shape.BoundsMax}
	} else {
		mesh.Bounds = computeBounds(mesh.Positions)
	}
	return mesh, nil
}

// decodeAttribute decodes one attribute and stores it in the slot for its
// semantic. Unknown element types become zeros of the semantic's size.
func (m *MeshAsset) decodeAttribute(stream []byte, stride int, attr formats.VertexAttribute, log *zap.Logger) {
	comps := semanticComponents(attr.Semantic)
	if comps == 0 {
		log.Warn("vertex attribute skipped",
			zap.Stringer("semantic", attr.Semantic),
			zap.Uint32("layer", attr.Layer))
		return
	}

	typ := vertex.AttributeType(attr.Type)
	values, ok := vertex.DecodeAttribute(stream, typ, int(attr.Offset), stride, m.VertexCount)
	if !ok {
		log.Warn("unknown vertex attribute type, using zeros",
			zap.Stringer("semantic", attr.Semantic),
			zap.Stringer("type", typ))
		values = make([]float32, m.VertexCount*comps)
	} else {
		values = reshape(values, typ.Components(), comps, m.VertexCount)
	}

	switch attr.Semantic {
	case formats.SemanticPosition:
		m.Positions = values
	case formats.SemanticNormal:
		m.Normals = values
	case formats.SemanticTangent:
		m.Tangents = values
	case formats.SemanticColor:
		m.Colors = values
	case formats.SemanticBlendIndices:
		m.SkinIndices = values
	case formats.SemanticBlendWeights:
		m.SkinWeights = values
	case formats.SemanticTexCoord:
		switch attr.Layer {
		case 0:
			m.UV = values
		case 1:
			m.UV2 = values
		default:
			log.Debug("extra texcoord layer ignored", zap.Uint32("layer", attr.Layer))
		}
	}
}

// reshape converts count elements of from components into elements of to
// components, truncating or zero-padding each element.
func reshape(values []float32, from, to, count int) []float32 {
	if from == to {
		return values
	}
	out := make([]float32, count*to)
	n := min(from, to)
	for i := 0; i < count; i++ {
		copy(out[i*to:i*to+n], values[i*from:i*from+n])
	}
	return out
}

func decodeIndices(buf []byte, width int) (Indices, error) {
	switch width {
	case 1, 2:
		u16, err := vertex.DecodeIndices16(buf, width)
		return Indices{U16: u16}, err
	default:
		u32, err := vertex.DecodeIndices(buf, width)
		return Indices{U32: u32}, err
	}
}

func computeBounds(positions []float32) Bounds {
	if len(positions) < 3 {
		return Bounds{}
	}
	b := Bounds{
		Min: [3]float32{positions[0], positions[1], positions[2]},
		Max: [3]float32{positions[0], positions[1], positions[2]},
	}
	for i := 3; i+2 < len(positions); i += 3 {
		updateBounds(&b, [3]float32{positions[i], positions[i+1], positions[i+2]})
	}
	return b
}

func updateBounds(b *Bounds, p [3]float32) {
	for i := range 3 {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}
