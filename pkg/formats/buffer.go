package formats

// MeshBuffer holds the raw vertex streams and index buffers of one submesh.
// Streams are parallel to the shape's attribute groups. Index buffers are
// ordered by level of detail, the first being the full-detail one.
type MeshBuffer struct {
	Streams      [][]byte
	IndexBuffers [][]byte
}

// MeshBufferFile is a parsed vertex/index buffer file.
type MeshBufferFile struct {
	Version Version
	Buffers []MeshBuffer
}

// ParseMeshBuffers parses a vertex/index buffer file.
func ParseMeshBuffers(data []byte) (*MeshBufferFile, error) {
	r := newReader(data)
	version, err := r.header(MagicMeshBuffer)
	if err != nil {
		return nil, err
	}

	f := &MeshBufferFile{Version: version}
	f.Buffers = make([]MeshBuffer, r.count("buffers", 8))
	for i := range f.Buffers {
		buf := &f.Buffers[i]
		buf.Streams = make([][]byte, r.count("streams", 4))
		for s := range buf.Streams {
			buf.Streams[s] = r.blob("stream")
		}
		buf.IndexBuffers = make([][]byte, r.count("index buffers", 4))
		for s := range buf.IndexBuffers {
			buf.IndexBuffers[s] = r.blob("index buffer")
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return f, nil
}

// MarshalBinary encodes the buffer file.
func (f *MeshBufferFile) MarshalBinary() ([]byte, error) {
	var w writer
	w.header(MagicMeshBuffer, versionOr(f.Version))
	w.u32(uint32(len(f.Buffers)))
	for _, buf := range f.Buffers {
		w.u32(uint32(len(buf.Streams)))
		for _, s := range buf.Streams {
			w.blob(s)
		}
		w.u32(uint32(len(buf.IndexBuffers)))
		for _, s := range buf.IndexBuffers {
			w.blob(s)
		}
	}
	return w.bytes(), nil
}
