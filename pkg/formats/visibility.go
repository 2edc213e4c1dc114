package formats

import "fmt"

// VisibilityTarget is one boolean channel addressed by node path.
type VisibilityTarget struct {
	Path  string
	Track TrackPayload // KindBool
}

// Visibility is a parsed visibility animation file.
type Visibility struct {
	Version    Version
	Name       string
	FrameCount uint32
	FrameRate  uint32
	Targets    []VisibilityTarget
}

// ParseVisibility parses a visibility animation file.
func ParseVisibility(data []byte) (*Visibility, error) {
	r := newReader(data)
	version, err := r.header(MagicVisibility)
	if err != nil {
		return nil, err
	}

	v := &Visibility{Version: version}
	v.Name = r.str()
	v.FrameCount = r.u32()
	v.FrameRate = r.u32()

	v.Targets = make([]VisibilityTarget, r.count("targets", 9))
	for i := range v.Targets {
		t := &v.Targets[i]
		t.Path = r.str()
		t.Track = r.channel(KindBool)
		if r.err != nil {
			return nil, fmt.Errorf("target %d (%s): %w", i, t.Path, r.err)
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return v, nil
}

// MarshalBinary encodes the visibility file.
func (v *Visibility) MarshalBinary() ([]byte, error) {
	var w writer
	w.header(MagicVisibility, versionOr(v.Version))
	w.str(v.Name)
	w.u32(v.FrameCount)
	w.u32(v.FrameRate)
	w.u32(uint32(len(v.Targets)))
	for _, t := range v.Targets {
		w.str(t.Path)
		w.channel(KindBool, t.Track)
	}
	return w.bytes(), nil
}
