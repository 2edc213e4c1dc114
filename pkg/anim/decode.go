package anim

import (
	"go.uber.org/zap"

	"github.com/Faultbox/rigkit/pkg/formats"
	gomath "github.com/Faultbox/rigkit/pkg/math"
)

// TrackDecoder turns parsed channel payloads into tracks. Channels that are
// absent, empty or use an unknown encoding decode to nil; unknown encodings
// are logged as warnings.
type TrackDecoder struct {
	log *zap.Logger
}

// NewTrackDecoder creates a decoder logging to log. A nil logger discards
// warnings.
func NewTrackDecoder(log *zap.Logger) *TrackDecoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &TrackDecoder{log: log}
}

// With returns a decoder whose warnings carry the given fields.
func (d *TrackDecoder) With(fields ...zap.Field) *TrackDecoder {
	return &TrackDecoder{log: d.log.With(fields...)}
}

// Vector decodes a vector channel.
func (d *TrackDecoder) Vector(p formats.TrackPayload) VectorTrack {
	if !d.usable(p, formats.KindVector) {
		return nil
	}
	values := make([]gomath.Vec3, len(p.Vectors))
	for i, v := range p.Vectors {
		values[i] = gomath.Vec3FromArray(v)
	}

	switch p.Tag {
	case formats.TrackConstant:
		return &VectorConstant{Value: values[0]}
	case formats.TrackDense:
		return &VectorDense{Values: values}
	case formats.TrackSparse16:
		return &VectorSparse16{Frames: p.Frames16, Values: values}
	default:
		return &VectorSparse8{Frames: p.Frames8, Values: values}
	}
}

// Rotation decodes a packed rotation channel.
func (d *TrackDecoder) Rotation(p formats.TrackPayload) RotationTrack {
	if !d.usable(p, formats.KindRotation) {
		return nil
	}
	values := make([]gomath.Quat, len(p.Rotations))
	for i, r := range p.Rotations {
		values[i] = gomath.UnpackQuat48(r[0], r[1], r[2])
	}

	switch p.Tag {
	case formats.TrackConstant:
		return &RotationConstant{Value: values[0]}
	case formats.TrackDense:
		return &RotationDense{Values: values}
	case formats.TrackSparse16:
		return &RotationSparse16{Frames: p.Frames16, Values: values}
	default:
		return &RotationSparse8{Frames: p.Frames8, Values: values}
	}
}

// Bool decodes a boolean channel.
func (d *TrackDecoder) Bool(p formats.TrackPayload) BoolTrack {
	if !d.usable(p, formats.KindBool) {
		return nil
	}

	switch p.Tag {
	case formats.TrackConstant:
		return &BoolConstant{Value: p.Bools[0]}
	case formats.TrackDense:
		return &BoolDense{Values: p.Bools}
	case formats.TrackSparse16:
		return &BoolSparse16{Frames: p.Frames16, Values: p.Bools}
	default:
		return &BoolSparse8{Frames: p.Frames8, Values: p.Bools}
	}
}

// usable reports whether p holds a decodable channel of the given kind.
func (d *TrackDecoder) usable(p formats.TrackPayload, kind formats.ValueKind) bool {
	if p.Tag == formats.TrackNone {
		return false
	}
	if !p.Tag.Known() {
		d.log.Warn("unknown track encoding, channel skipped",
			zap.Stringer("tag", p.Tag),
			zap.Stringer("kind", kind),
			zap.Int("bytes", len(p.Raw)))
		return false
	}
	n := valueCount(p, kind)
	if n == 0 {
		return false
	}

	var frames int
	switch p.Tag {
	case formats.TrackSparse16:
		frames = len(p.Frames16)
	case formats.TrackSparse8:
		frames = len(p.Frames8)
	default:
		return true
	}
	if frames != n {
		d.log.Warn("sparse track frame/value count mismatch",
			zap.Stringer("tag", p.Tag),
			zap.Stringer("kind", kind),
			zap.Int("frames", frames),
			zap.Int("values", n))
	}
	return frames > 0
}

func valueCount(p formats.TrackPayload, kind formats.ValueKind) int {
	switch kind {
	case formats.KindVector:
		return len(p.Vectors)
	case formats.KindRotation:
		return len(p.Rotations)
	default:
		return len(p.Bools)
	}
}
