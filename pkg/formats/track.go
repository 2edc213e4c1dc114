package formats

import "fmt"

// TrackTag identifies how a channel's keyframes are stored.
type TrackTag uint8

const (
	TrackNone     TrackTag = 0 // Channel not authored
	TrackConstant TrackTag = 1 // One value for every frame
	TrackDense    TrackTag = 2 // One value per frame
	TrackSparse16 TrackTag = 3 // u16 keyframe indices + values
	TrackSparse8  TrackTag = 4 // u8 keyframe indices + values
)

// String returns a human-readable tag name.
func (t TrackTag) String() string {
	switch t {
	case TrackNone:
		return "None"
	case TrackConstant:
		return "Constant"
	case TrackDense:
		return "Dense"
	case TrackSparse16:
		return "Sparse16"
	case TrackSparse8:
		return "Sparse8"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// Known reports whether the tag is one of the defined encodings.
func (t TrackTag) Known() bool {
	return t <= TrackSparse8
}

// ValueKind is the value type a channel carries.
type ValueKind uint8

const (
	KindVector   ValueKind = iota // 3 x float32
	KindRotation                  // 3 x u16 packed quaternion
	KindBool                      // u8
)

// String returns a human-readable kind name.
func (k ValueKind) String() string {
	switch k {
	case KindVector:
		return "Vector"
	case KindRotation:
		return "Rotation"
	case KindBool:
		return "Bool"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// TrackPayload is a decoded channel. Which value slice is filled depends
// on the channel kind; which frame slice is filled depends on the tag.
type TrackPayload struct {
	Tag       TrackTag
	Frames16  []uint16     // TrackSparse16 keyframe indices
	Frames8   []uint8      // TrackSparse8 keyframe indices
	Vectors   [][3]float32 // KindVector values
	Rotations [][3]uint16  // KindRotation packed values
	Bools     []bool       // KindBool values
	Raw       []byte       // payload of an unknown tag, kept verbatim
}

// Len returns the number of values stored in the payload.
func (p *TrackPayload) Len() int {
	return max(len(p.Vectors), len(p.Rotations), len(p.Bools))
}

// valueSize returns the encoded size of one value of kind k.
func valueSize(k ValueKind) int {
	switch k {
	case KindVector:
		return 12
	case KindRotation:
		return 6
	default:
		return 1
	}
}

// channel reads a tagged, length-prefixed channel.
func (r *reader) channel(kind ValueKind) TrackPayload {
	p := TrackPayload{Tag: TrackTag(r.u8())}
	data := r.blob("channel")
	if r.err != nil || p.Tag == TrackNone {
		return p
	}
	if !p.Tag.Known() {
		p.Raw = data
		return p
	}

	sub := newReader(data)
	n := 1
	if p.Tag != TrackConstant {
		n = sub.count("keys", valueSize(kind))
	}
	switch p.Tag {
	case TrackSparse16:
		p.Frames16 = make([]uint16, n)
		sub.read(p.Frames16)
	case TrackSparse8:
		p.Frames8 = make([]uint8, n)
		sub.read(p.Frames8)
	}
	switch kind {
	case KindVector:
		p.Vectors = make([][3]float32, n)
		sub.read(p.Vectors)
	case KindRotation:
		p.Rotations = make([][3]uint16, n)
		sub.read(p.Rotations)
	case KindBool:
		raw := sub.bytes(n)
		p.Bools = make([]bool, n)
		for i, b := range raw {
			p.Bools[i] = b != 0
		}
	}
	if sub.err != nil {
		r.fail(fmt.Errorf("%s %s channel: %w", p.Tag, kind, sub.err))
	}
	return p
}

// channel writes p as a tagged, length-prefixed channel.
func (w *writer) channel(kind ValueKind, p TrackPayload) {
	w.u8(uint8(p.Tag))
	if !p.Tag.Known() {
		w.blob(p.Raw)
		return
	}
	if p.Tag == TrackNone {
		w.blob(nil)
		return
	}

	w.record(func(sub *writer) {
		if p.Tag != TrackConstant {
			sub.u32(uint32(p.Len()))
		}
		switch p.Tag {
		case TrackSparse16:
			sub.write(p.Frames16)
		case TrackSparse8:
			sub.write(p.Frames8)
		}
		switch kind {
		case KindVector:
			sub.write(p.Vectors)
		case KindRotation:
			sub.write(p.Rotations)
		case KindBool:
			for _, b := range p.Bools {
				sub.boolean(b)
			}
		}
	})
}
