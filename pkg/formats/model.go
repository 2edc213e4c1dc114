package formats

// ModelDescriptor lists the files that make up one model. Names are
// relative to the descriptor's directory.
type ModelDescriptor struct {
	Version      Version
	Name         string
	Meshes       []string // mesh shape files, each paired with a buffer file
	Buffers      []string // vertex/index buffer files, parallel to Meshes
	Materials    []string // material files
	Skeleton     string   // optional skeleton file
	Motions      []string // bone-motion animation files
	Visibilities []string // visibility animation files
}

// ParseModelDescriptor parses a model descriptor file.
func ParseModelDescriptor(data []byte) (*ModelDescriptor, error) {
	r := newReader(data)
	version, err := r.header(MagicModel)
	if err != nil {
		return nil, err
	}

	md := &ModelDescriptor{Version: version}
	md.Name = r.str()
	md.Meshes = r.strs("meshes")
	md.Buffers = r.strs("buffers")
	md.Materials = r.strs("materials")
	md.Skeleton = r.str()
	md.Motions = r.strs("motions")
	md.Visibilities = r.strs("visibilities")
	if r.err != nil {
		return nil, r.err
	}
	return md, nil
}

// MarshalBinary encodes the descriptor.
func (md *ModelDescriptor) MarshalBinary() ([]byte, error) {
	var w writer
	w.header(MagicModel, versionOr(md.Version))
	w.str(md.Name)
	w.strs(md.Meshes)
	w.strs(md.Buffers)
	w.strs(md.Materials)
	w.str(md.Skeleton)
	w.strs(md.Motions)
	w.strs(md.Visibilities)
	return w.bytes(), nil
}
