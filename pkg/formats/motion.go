package formats

import "fmt"

// BoneMotion holds the three channels authored for one bone.
type BoneMotion struct {
	Name        string
	Scale       TrackPayload // KindVector
	Rotation    TrackPayload // KindRotation
	Translation TrackPayload // KindVector
}

// Motion is a parsed bone-motion animation file.
type Motion struct {
	Version    Version
	Name       string
	FrameCount uint32
	FrameRate  uint32
	Loop       bool
	Bones      []BoneMotion
}

// ParseMotion parses a bone-motion animation file.
func ParseMotion(data []byte) (*Motion, error) {
	r := newReader(data)
	version, err := r.header(MagicMotion)
	if err != nil {
		return nil, err
	}

	m := &Motion{Version: version}
	m.Name = r.str()
	m.FrameCount = r.u32()
	m.FrameRate = r.u32()
	m.Loop = r.boolean()

	m.Bones = make([]BoneMotion, r.count("bones", 19))
	for i := range m.Bones {
		b := &m.Bones[i]
		b.Name = r.str()
		b.Scale = r.channel(KindVector)
		b.Rotation = r.channel(KindRotation)
		b.Translation = r.channel(KindVector)
		if r.err != nil {
			return nil, fmt.Errorf("bone %d (%s): %w", i, b.Name, r.err)
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return m, nil
}

// MarshalBinary encodes the motion file.
func (m *Motion) MarshalBinary() ([]byte, error) {
	var w writer
	w.header(MagicMotion, versionOr(m.Version))
	w.str(m.Name)
	w.u32(m.FrameCount)
	w.u32(m.FrameRate)
	w.boolean(m.Loop)
	w.u32(uint32(len(m.Bones)))
	for _, b := range m.Bones {
		w.str(b.Name)
		w.channel(KindVector, b.Scale)
		w.channel(KindRotation, b.Rotation)
		w.channel(KindVector, b.Translation)
	}
	return w.bytes(), nil
}
