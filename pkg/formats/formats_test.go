package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// makeHeader builds a bare file header.
func makeHeader(magic string, major, minor uint8) []byte {
	var buf bytes.Buffer
	buf.WriteString(magic)
	buf.WriteByte(major)
	buf.WriteByte(minor)
	return buf.Bytes()
}

// appendU32 appends a little-endian u32.
func appendU32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

func mustMarshal(t *testing.T, m interface{ MarshalBinary() ([]byte, error) }) []byte {
	t.Helper()
	data, err := m.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	return data
}

func TestParseHeader_MagicValidation(t *testing.T) {
	emptyDescriptor := func(magic string, major, minor uint8) []byte {
		data := makeHeader(magic, major, minor)
		data = appendU32(data, 0) // name
		for i := 0; i < 3; i++ {
			data = appendU32(data, 0)
		}
		data = appendU32(data, 0) // skeleton
		data = appendU32(data, 0)
		data = appendU32(data, 0)
		return data
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"valid magic", emptyDescriptor(MagicModel, 1, 1), nil},
		{"invalid magic", emptyDescriptor("XXXX", 1, 1), ErrInvalidMagic},
		{"wrong file kind", emptyDescriptor(MagicMotion, 1, 1), ErrInvalidMagic},
		{"empty data", []byte{}, ErrTruncated},
		{"truncated header", []byte{'T', 'M', 'D'}, ErrTruncated},
		{"v0.9 unsupported", emptyDescriptor(MagicModel, 0, 9), ErrUnsupportedVersion},
		{"v2.0 unsupported", emptyDescriptor(MagicModel, 2, 0), ErrUnsupportedVersion},
		{"truncated body", makeHeader(MagicModel, 1, 0), ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseModelDescriptor(tt.data)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestVersion_String(t *testing.T) {
	tests := []struct {
		version Version
		want    string
	}{
		{Version{1, 0}, "1.0"},
		{Version{1, 1}, "1.1"},
		{Version{2, 3}, "2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.version.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVersion_AtLeast(t *testing.T) {
	tests := []struct {
		version Version
		major   uint8
		minor   uint8
		want    bool
	}{
		{Version{1, 1}, 1, 1, true},
		{Version{1, 1}, 1, 0, true},
		{Version{1, 1}, 1, 2, false},
		{Version{1, 0}, 1, 1, false},
		{Version{2, 0}, 1, 9, true},
	}

	for _, tt := range tests {
		t.Run(tt.version.String(), func(t *testing.T) {
			if got := tt.version.AtLeast(tt.major, tt.minor); got != tt.want {
				t.Errorf("AtLeast(%d, %d) = %v, want %v", tt.major, tt.minor, got, tt.want)
			}
		})
	}
}

func TestParseModelDescriptor(t *testing.T) {
	in := &ModelDescriptor{
		Name:         "pm0001",
		Meshes:       []string{"pm0001.tmsh"},
		Buffers:      []string{"pm0001.tmbf"},
		Materials:    []string{"pm0001.tmtr", "pm0001_rare.tmtr"},
		Skeleton:     "pm0001.tskl",
		Motions:      []string{"idle.tanm"},
		Visibilities: []string{"idle.tacn"},
	}

	md, err := ParseModelDescriptor(mustMarshal(t, in))
	if err != nil {
		t.Fatalf("ParseModelDescriptor failed: %v", err)
	}

	if md.Version != CurrentVersion {
		t.Errorf("expected version %s, got %s", CurrentVersion, md.Version)
	}
	if md.Name != "pm0001" {
		t.Errorf("expected name pm0001, got %q", md.Name)
	}
	if len(md.Materials) != 2 || md.Materials[1] != "pm0001_rare.tmtr" {
		t.Errorf("unexpected materials %v", md.Materials)
	}
	if md.Skeleton != "pm0001.tskl" {
		t.Errorf("unexpected skeleton %q", md.Skeleton)
	}
	if len(md.Motions) != 1 || len(md.Visibilities) != 1 {
		t.Errorf("unexpected animation lists %v %v", md.Motions, md.Visibilities)
	}
}

func sampleShape() MeshShape {
	return MeshShape{
		Name:        "body",
		VertexCount: 3,
		BufferIndex: 0,
		Groups: []AttributeGroup{{
			Stride: 20,
			Attributes: []VertexAttribute{
				{Semantic: SemanticPosition, Type: 51, Offset: 0},
				{Semantic: SemanticTexCoord, Layer: 0, Type: 48, Offset: 12},
			},
		}},
		IndexWidth: 2,
		Ranges:     []MaterialRange{{Start: 0, Count: 3, Material: "skin"}},
		BoundsMin:  [3]float32{-1, 0, -1},
		BoundsMax:  [3]float32{1, 2, 1},
	}
}

func TestParseMeshShapes_V11(t *testing.T) {
	in := &MeshShapeFile{Version: Version{1, 1}, Shapes: []MeshShape{sampleShape()}}

	f, err := ParseMeshShapes(mustMarshal(t, in))
	if err != nil {
		t.Fatalf("ParseMeshShapes failed: %v", err)
	}
	if len(f.Shapes) != 1 {
		t.Fatalf("expected 1 shape, got %d", len(f.Shapes))
	}

	shape := f.Shapes[0]
	if shape.Name != "body" || shape.VertexCount != 3 {
		t.Errorf("unexpected shape header %q/%d", shape.Name, shape.VertexCount)
	}
	if len(shape.Groups) != 1 || len(shape.Groups[0].Attributes) != 2 {
		t.Fatalf("unexpected groups %+v", shape.Groups)
	}
	if shape.Groups[0].Stride != 20 {
		t.Errorf("expected stride 20, got %d", shape.Groups[0].Stride)
	}
	uv := shape.Groups[0].Attributes[1]
	if uv.Semantic != SemanticTexCoord || uv.Type != 48 || uv.Offset != 12 {
		t.Errorf("unexpected uv attribute %+v", uv)
	}
	if shape.IndexWidth != 2 {
		t.Errorf("expected index width 2, got %d", shape.IndexWidth)
	}
	if len(shape.Ranges) != 1 || shape.Ranges[0].Material != "skin" {
		t.Errorf("unexpected ranges %+v", shape.Ranges)
	}
	if !shape.HasBounds || shape.BoundsMax != [3]float32{1, 2, 1} {
		t.Errorf("expected bounds, got %v %v", shape.HasBounds, shape.BoundsMax)
	}
}

func TestParseMeshShapes_V10HasNoBounds(t *testing.T) {
	in := &MeshShapeFile{Version: Version{1, 0}, Shapes: []MeshShape{sampleShape()}}

	f, err := ParseMeshShapes(mustMarshal(t, in))
	if err != nil {
		t.Fatalf("ParseMeshShapes failed: %v", err)
	}
	if f.Shapes[0].HasBounds {
		t.Error("v1.0 shapes should not carry bounds")
	}
}

func TestParseMeshShapes_SkipsMalformedRecord(t *testing.T) {
	good := mustMarshal(t, &MeshShapeFile{Shapes: []MeshShape{sampleShape()}})
	goodRecord := good[10:] // header (6) + count (4)

	data := makeHeader(MagicMeshShape, 1, 1)
	data = appendU32(data, 2)
	data = appendU32(data, 3) // record length
	data = append(data, 0xFF, 0xFF, 0xFF)
	data = append(data, goodRecord...)

	f, err := ParseMeshShapes(data)
	if err != nil {
		t.Fatalf("ParseMeshShapes failed: %v", err)
	}
	if len(f.Shapes) != 1 || f.Shapes[0].Name != "body" {
		t.Errorf("expected the valid shape to survive, got %+v", f.Shapes)
	}
	if len(f.Skipped) != 1 || f.Skipped[0].Index != 0 {
		t.Errorf("expected record 0 to be skipped, got %+v", f.Skipped)
	}
}

func TestParseMeshShapes_InvalidCount(t *testing.T) {
	data := makeHeader(MagicMeshShape, 1, 1)
	data = appendU32(data, 0xFFFFFFFF)

	_, err := ParseMeshShapes(data)
	if !errors.Is(err, ErrInvalidCount) {
		t.Errorf("expected ErrInvalidCount, got %v", err)
	}
}

func TestParseMeshBuffers(t *testing.T) {
	in := &MeshBufferFile{Buffers: []MeshBuffer{{
		Streams:      [][]byte{{1, 2, 3, 4}, {5, 6}},
		IndexBuffers: [][]byte{{0, 0, 1, 0, 2, 0}},
	}}}

	f, err := ParseMeshBuffers(mustMarshal(t, in))
	if err != nil {
		t.Fatalf("ParseMeshBuffers failed: %v", err)
	}
	if len(f.Buffers) != 1 {
		t.Fatalf("expected 1 buffer, got %d", len(f.Buffers))
	}
	buf := f.Buffers[0]
	if len(buf.Streams) != 2 || !bytes.Equal(buf.Streams[1], []byte{5, 6}) {
		t.Errorf("unexpected streams %v", buf.Streams)
	}
	if len(buf.IndexBuffers) != 1 || len(buf.IndexBuffers[0]) != 6 {
		t.Errorf("unexpected index buffers %v", buf.IndexBuffers)
	}
}

func TestParseMaterials(t *testing.T) {
	in := &MaterialFile{Materials: []Material{{
		Name: "eye",
		Shaders: []Shader{{
			Name:   "Eye",
			Params: []ShaderParam{{Key: "EnableLerpBaseColorEmission", Value: "True"}},
		}},
		Textures: []TextureRef{
			{Name: "BaseColorMap", File: "eye_col.bntx", Slot: 0},
			{Name: "NormalMap", File: "eye_nrm.bntx", Slot: 1},
		},
		Floats:    []FloatParam{{Name: "Metallic", Value: 0.25}},
		Colors:    []ColorParam{{Name: "BaseColor", Value: [4]float32{1, 0.5, 0.25, 1}}},
		AlphaType: "Blend",
		Samplers:  []Sampler{{WrapU: 0, WrapV: 1}, {WrapU: 2, WrapV: 2}},
	}}}

	f, err := ParseMaterials(mustMarshal(t, in))
	if err != nil {
		t.Fatalf("ParseMaterials failed: %v", err)
	}
	if len(f.Materials) != 1 {
		t.Fatalf("expected 1 material, got %d", len(f.Materials))
	}

	mat := f.Materials[0]
	if mat.Name != "eye" {
		t.Errorf("expected name eye, got %q", mat.Name)
	}
	if len(mat.Shaders) != 1 || mat.Shaders[0].Params[0].Value != "True" {
		t.Errorf("unexpected shaders %+v", mat.Shaders)
	}
	if len(mat.Textures) != 2 || mat.Textures[1].Slot != 1 {
		t.Errorf("unexpected textures %+v", mat.Textures)
	}
	if mat.Floats[0].Value != 0.25 {
		t.Errorf("unexpected float %v", mat.Floats[0].Value)
	}
	if mat.Colors[0].Value != [4]float32{1, 0.5, 0.25, 1} {
		t.Errorf("unexpected color %v", mat.Colors[0].Value)
	}
	if mat.AlphaType != "Blend" {
		t.Errorf("unexpected alpha type %q", mat.AlphaType)
	}
	if len(mat.Samplers) != 2 || mat.Samplers[1].WrapU != 2 {
		t.Errorf("unexpected samplers %+v", mat.Samplers)
	}
}

func TestParseSkeleton(t *testing.T) {
	in := &SkeletonFile{
		Nodes: []SkeletonNode{
			{Name: "origin", Scale: [3]float32{1, 1, 1}, ParentNode: -1, RigSlot: -1},
			{Name: "waist", Scale: [3]float32{1, 1, 1}, Translation: [3]float32{0, 1, 0}, ParentNode: 0, RigSlot: 0},
		},
		Bones: []BoneSlot{{InheritPosition: true, InheritScale: false}},
	}

	f, err := ParseSkeleton(mustMarshal(t, in))
	if err != nil {
		t.Fatalf("ParseSkeleton failed: %v", err)
	}
	if len(f.Nodes) != 2 || len(f.Bones) != 1 {
		t.Fatalf("unexpected table sizes %d/%d", len(f.Nodes), len(f.Bones))
	}
	if f.Nodes[0].ParentNode != -1 || f.Nodes[0].RigSlot != -1 {
		t.Errorf("unexpected root links %+v", f.Nodes[0])
	}
	if f.Nodes[1].Translation != [3]float32{0, 1, 0} || f.Nodes[1].RigSlot != 0 {
		t.Errorf("unexpected waist node %+v", f.Nodes[1])
	}
	if !f.Bones[0].InheritPosition || f.Bones[0].InheritScale {
		t.Errorf("unexpected bone slot %+v", f.Bones[0])
	}
}

func TestParseMotion_AllEncodings(t *testing.T) {
	in := &Motion{
		Name:       "idle",
		FrameCount: 60,
		FrameRate:  30,
		Loop:       true,
		Bones: []BoneMotion{
			{
				Name:        "waist",
				Scale:       TrackPayload{Tag: TrackConstant, Vectors: [][3]float32{{1, 1, 1}}},
				Rotation:    TrackPayload{Tag: TrackDense, Rotations: [][3]uint16{{1, 2, 3}, {4, 5, 6}}},
				Translation: TrackPayload{Tag: TrackSparse16, Frames16: []uint16{0, 59}, Vectors: [][3]float32{{0, 0, 0}, {0, 1, 0}}},
			},
			{
				Name:        "head",
				Rotation:    TrackPayload{Tag: TrackSparse8, Frames8: []uint8{0, 10, 20}, Rotations: [][3]uint16{{1, 1, 1}, {2, 2, 2}, {3, 3, 3}}},
				Translation: TrackPayload{Tag: TrackTag(9), Raw: []byte{1, 2, 3, 4, 5}},
			},
			{
				Name:  "tail",
				Scale: TrackPayload{Tag: TrackConstant, Vectors: [][3]float32{{2, 2, 2}}},
			},
		},
	}

	m, err := ParseMotion(mustMarshal(t, in))
	if err != nil {
		t.Fatalf("ParseMotion failed: %v", err)
	}

	if m.Name != "idle" || m.FrameCount != 60 || m.FrameRate != 30 || !m.Loop {
		t.Errorf("unexpected header %+v", m)
	}
	if len(m.Bones) != 3 {
		t.Fatalf("expected 3 bones, got %d", len(m.Bones))
	}

	waist := m.Bones[0]
	if waist.Scale.Tag != TrackConstant || waist.Scale.Vectors[0] != [3]float32{1, 1, 1} {
		t.Errorf("unexpected scale %+v", waist.Scale)
	}
	if waist.Rotation.Tag != TrackDense || len(waist.Rotation.Rotations) != 2 || waist.Rotation.Rotations[1] != [3]uint16{4, 5, 6} {
		t.Errorf("unexpected rotation %+v", waist.Rotation)
	}
	if waist.Translation.Tag != TrackSparse16 || waist.Translation.Frames16[1] != 59 {
		t.Errorf("unexpected translation %+v", waist.Translation)
	}

	head := m.Bones[1]
	if head.Scale.Tag != TrackNone {
		t.Errorf("expected missing scale, got %s", head.Scale.Tag)
	}
	if head.Rotation.Tag != TrackSparse8 || len(head.Rotation.Frames8) != 3 || head.Rotation.Frames8[2] != 20 {
		t.Errorf("unexpected sparse8 rotation %+v", head.Rotation)
	}
	if head.Translation.Tag.Known() || !bytes.Equal(head.Translation.Raw, []byte{1, 2, 3, 4, 5}) {
		t.Errorf("unknown channel should keep its raw payload, got %+v", head.Translation)
	}

	// The bone after an unknown channel must still be readable.
	if m.Bones[2].Name != "tail" || m.Bones[2].Scale.Vectors[0] != [3]float32{2, 2, 2} {
		t.Errorf("unexpected tail bone %+v", m.Bones[2])
	}
}

func TestParseMotion_TruncatedChannel(t *testing.T) {
	data := makeHeader(MagicMotion, 1, 1)
	data = appendU32(data, 0)  // name
	data = appendU32(data, 10) // frame count
	data = appendU32(data, 30) // frame rate
	data = append(data, 0)     // loop
	data = appendU32(data, 1)  // bones
	data = appendU32(data, 0)  // bone name
	data = append(data, byte(TrackDense))
	data = appendU32(data, 4)
	data = appendU32(data, 5) // five vectors declared, none present
	data = append(data, 0)
	data = appendU32(data, 0)
	data = append(data, 0)
	data = appendU32(data, 0)

	_, err := ParseMotion(data)
	if err == nil {
		t.Fatal("expected an error for a channel declaring more keys than it holds")
	}
}

func TestParseVisibility(t *testing.T) {
	in := &Visibility{
		Name:       "blink",
		FrameCount: 4,
		FrameRate:  30,
		Targets: []VisibilityTarget{
			{Path: "eye_open", Track: TrackPayload{Tag: TrackDense, Bools: []bool{true, false, false, true}}},
			{Path: "eye_closed", Track: TrackPayload{Tag: TrackSparse8, Frames8: []uint8{0, 1, 3}, Bools: []bool{false, true, false}}},
		},
	}

	v, err := ParseVisibility(mustMarshal(t, in))
	if err != nil {
		t.Fatalf("ParseVisibility failed: %v", err)
	}
	if v.Name != "blink" || v.FrameCount != 4 || v.FrameRate != 30 {
		t.Errorf("unexpected header %+v", v)
	}
	if len(v.Targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(v.Targets))
	}
	open := v.Targets[0].Track
	if len(open.Bools) != 4 || open.Bools[1] || !open.Bools[3] {
		t.Errorf("unexpected dense bools %v", open.Bools)
	}
	closed := v.Targets[1].Track
	if closed.Tag != TrackSparse8 || closed.Frames8[2] != 3 || !closed.Bools[1] {
		t.Errorf("unexpected sparse bools %+v", closed)
	}
}

func TestTrackTag_String(t *testing.T) {
	tests := []struct {
		tag  TrackTag
		want string
	}{
		{TrackNone, "None"},
		{TrackConstant, "Constant"},
		{TrackDense, "Dense"},
		{TrackSparse16, "Sparse16"},
		{TrackSparse8, "Sparse8"},
		{TrackTag(42), "Unknown(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.tag.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStructuralError(t *testing.T) {
	err := NewStructuralError("pm0001.tmsh", "shape 2", ErrTruncated)
	if !errors.Is(err, ErrTruncated) {
		t.Error("StructuralError should unwrap to its cause")
	}
	want := `asset "pm0001.tmsh": shape 2: truncated data`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
