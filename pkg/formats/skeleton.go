package formats

// SkeletonNode is one entry of the node table. Hierarchy is stored between
// nodes; RigSlot points back at the bone slot the node drives.
type SkeletonNode struct {
	Name        string
	Scale       [3]float32
	Rotation    [3]float32 // Euler XYZ, radians
	Translation [3]float32
	ParentNode  int32 // index into the node table, -1 for none
	RigSlot     int32 // index into the bone slot list, -1 for none
}

// BoneSlot is one entry of the ordered bone slot list.
type BoneSlot struct {
	InheritPosition bool
	InheritScale    bool
}

// SkeletonFile is a parsed skeleton file.
type SkeletonFile struct {
	Version Version
	Nodes   []SkeletonNode
	Bones   []BoneSlot
}

// ParseSkeleton parses a skeleton file.
func ParseSkeleton(data []byte) (*SkeletonFile, error) {
	r := newReader(data)
	version, err := r.header(MagicSkeleton)
	if err != nil {
		return nil, err
	}

	f := &SkeletonFile{Version: version}
	f.Nodes = make([]SkeletonNode, r.count("nodes", 48))
	for i := range f.Nodes {
		node := &f.Nodes[i]
		node.Name = r.str()
		node.Scale = r.vec3()
		node.Rotation = r.vec3()
		node.Translation = r.vec3()
		node.ParentNode = r.i32()
		node.RigSlot = r.i32()
	}

	f.Bones = make([]BoneSlot, r.count("bones", 2))
	for i := range f.Bones {
		f.Bones[i] = BoneSlot{InheritPosition: r.boolean(), InheritScale: r.boolean()}
	}
	if r.err != nil {
		return nil, r.err
	}
	return f, nil
}

// MarshalBinary encodes the skeleton file.
func (f *SkeletonFile) MarshalBinary() ([]byte, error) {
	var w writer
	w.header(MagicSkeleton, versionOr(f.Version))
	w.u32(uint32(len(f.Nodes)))
	for _, node := range f.Nodes {
		w.str(node.Name)
		w.vec3(node.Scale)
		w.vec3(node.Rotation)
		w.vec3(node.Translation)
		w.i32(node.ParentNode)
		w.i32(node.RigSlot)
	}
	w.u32(uint32(len(f.Bones)))
	for _, b := range f.Bones {
		w.boolean(b.InheritPosition)
		w.boolean(b.InheritScale)
	}
	return w.bytes(), nil
}
