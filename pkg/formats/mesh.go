package formats

import "fmt"

// Semantic identifies what a vertex attribute holds.
type Semantic uint32

const (
	SemanticPosition     Semantic = 1
	SemanticNormal       Semantic = 2
	SemanticTangent      Semantic = 3
	SemanticBinormal     Semantic = 4
	SemanticColor        Semantic = 5
	SemanticTexCoord     Semantic = 6
	SemanticBlendIndices Semantic = 7
	SemanticBlendWeights Semantic = 8
)

// String returns a human-readable semantic name.
func (s Semantic) String() string {
	switch s {
	case SemanticPosition:
		return "Position"
	case SemanticNormal:
		return "Normal"
	case SemanticTangent:
		return "Tangent"
	case SemanticBinormal:
		return "Binormal"
	case SemanticColor:
		return "Color"
	case SemanticTexCoord:
		return "TexCoord"
	case SemanticBlendIndices:
		return "BlendIndices"
	case SemanticBlendWeights:
		return "BlendWeights"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// VertexAttribute describes one attribute inside an attribute group.
type VertexAttribute struct {
	Semantic Semantic
	Layer    uint32 // texcoord/color set index
	Type     uint32 // element type tag, see package vertex
	Offset   uint32 // byte offset inside the vertex
}

// AttributeGroup is one interleaved vertex stream.
type AttributeGroup struct {
	Stride     uint32
	Attributes []VertexAttribute
}

// MaterialRange is a run of indices drawn with one material.
type MaterialRange struct {
	Start    uint32
	Count    uint32
	Material string
}

// MeshShape describes the layout of one submesh.
type MeshShape struct {
	Name        string
	VertexCount uint32
	BufferIndex uint32 // entry in the paired buffer file
	Groups      []AttributeGroup
	IndexWidth  uint32 // bytes per index: 1, 2, 4 or 8
	Ranges      []MaterialRange

	// Bounds (v1.1+)
	HasBounds bool
	BoundsMin [3]float32
	BoundsMax [3]float32
}

// MeshShapeFile is a parsed mesh shape file.
type MeshShapeFile struct {
	Version Version
	Shapes  []MeshShape
	Skipped []RecordError // shapes that failed to parse
}

// ParseMeshShapes parses a mesh shape file. A malformed shape record is
// skipped and reported in Skipped; the remaining shapes are kept.
func ParseMeshShapes(data []byte) (*MeshShapeFile, error) {
	r := newReader(data)
	version, err := r.header(MagicMeshShape)
	if err != nil {
		return nil, err
	}

	f := &MeshShapeFile{Version: version}
	n := r.count("shapes", 4)
	for i := 0; i < n; i++ {
		var shape MeshShape
		err := r.record(func(sub *reader) error {
			shape = parseMeshShape(sub, version)
			return nil
		})
		if r.err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, r.err)
		}
		if err != nil {
			f.Skipped = append(f.Skipped, RecordError{Index: i, Err: err})
			continue
		}
		f.Shapes = append(f.Shapes, shape)
	}
	if r.err != nil {
		return nil, r.err
	}
	return f, nil
}

func parseMeshShape(r *reader, version Version) MeshShape {
	shape := MeshShape{
		Name:        r.str(),
		VertexCount: r.u32(),
		BufferIndex: r.u32(),
	}

	groupCount := r.count("groups", 8)
	shape.Groups = make([]AttributeGroup, groupCount)
	for g := range shape.Groups {
		group := &shape.Groups[g]
		group.Stride = r.u32()
		attrCount := r.count("attributes", 16)
		group.Attributes = make([]VertexAttribute, attrCount)
		for a := range group.Attributes {
			attr := &group.Attributes[a]
			attr.Semantic = Semantic(r.u32())
			attr.Layer = r.u32()
			attr.Type = r.u32()
			attr.Offset = r.u32()
		}
	}

	shape.IndexWidth = r.u32()

	rangeCount := r.count("ranges", 12)
	shape.Ranges = make([]MaterialRange, rangeCount)
	for i := range shape.Ranges {
		shape.Ranges[i] = MaterialRange{
			Start:    r.u32(),
			Count:    r.u32(),
			Material: r.str(),
		}
	}

	// Bounds (v1.1+)
	if version.AtLeast(1, 1) {
		shape.HasBounds = true
		shape.BoundsMin = r.vec3()
		shape.BoundsMax = r.vec3()
	}
	return shape
}

// MarshalBinary encodes the shape file.
func (f *MeshShapeFile) MarshalBinary() ([]byte, error) {
	version := versionOr(f.Version)

	var w writer
	w.header(MagicMeshShape, version)
	w.u32(uint32(len(f.Shapes)))
	for i := range f.Shapes {
		shape := &f.Shapes[i]
		w.record(func(sub *writer) {
			sub.str(shape.Name)
			sub.u32(shape.VertexCount)
			sub.u32(shape.BufferIndex)
			sub.u32(uint32(len(shape.Groups)))
			for _, g := range shape.Groups {
				sub.u32(g.Stride)
				sub.u32(uint32(len(g.Attributes)))
				for _, a := range g.Attributes {
					sub.u32(uint32(a.Semantic))
					sub.u32(a.Layer)
					sub.u32(a.Type)
					sub.u32(a.Offset)
				}
			}
			sub.u32(shape.IndexWidth)
			sub.u32(uint32(len(shape.Ranges)))
			for _, rg := range shape.Ranges {
				sub.u32(rg.Start)
				sub.u32(rg.Count)
				sub.str(rg.Material)
			}
			if version.AtLeast(1, 1) {
				sub.vec3(shape.BoundsMin)
				sub.vec3(shape.BoundsMax)
			}
		})
	}
	return w.bytes(), nil
}
