package anim

import (
	"go.uber.org/zap"

	"github.com/Faultbox/rigkit/pkg/formats"
)

// DefaultFrameRate is used when a file does not declare a frame rate.
const DefaultFrameRate = 30

// BuildOptions configures clip construction.
type BuildOptions struct {
	Logger    *zap.Logger
	FrameRate float64 // fallback frame rate, DefaultFrameRate when zero
}

func (o BuildOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o BuildOptions) frameRate(declared uint32) float64 {
	switch {
	case declared > 0:
		return float64(declared)
	case o.FrameRate > 0:
		return o.FrameRate
	default:
		return DefaultFrameRate
	}
}

// FromMotion builds a clip from a parsed bone-motion file. Bones whose
// channels all fail to decode are left out.
func FromMotion(m *formats.Motion, opts BuildOptions) *Clip {
	log := opts.logger().With(zap.String("clip", m.Name))
	dec := NewTrackDecoder(log)

	clip := newClip(m.Name, m.FrameCount, opts.frameRate(m.FrameRate))
	clip.Loop = m.Loop
	for _, bm := range m.Bones {
		d := dec.With(zap.String("bone", bm.Name))
		bt := &BoneTrack{
			Bone:     bm.Name,
			Position: d.Vector(bm.Translation),
			Rotation: d.Rotation(bm.Rotation),
			Scale:    d.Vector(bm.Scale),
		}
		if bt.Empty() {
			log.Debug("bone has no decodable channel", zap.String("bone", bm.Name))
			continue
		}
		clip.Bones[bm.Name] = bt
	}
	return clip
}

// FromVisibility builds a clip from a parsed visibility file.
func FromVisibility(v *formats.Visibility, opts BuildOptions) *Clip {
	log := opts.logger().With(zap.String("clip", v.Name))
	dec := NewTrackDecoder(log)

	clip := newClip(v.Name, v.FrameCount, opts.frameRate(v.FrameRate))
	for _, target := range v.Targets {
		track := dec.With(zap.String("node", target.Path)).Bool(target.Track)
		if track == nil {
			continue
		}
		clip.Visibility[target.Path] = &VisibilityTrack{Node: target.Path, Visible: track}
	}
	return clip
}

func newClip(name string, frameCount uint32, frameRate float64) *Clip {
	return &Clip{
		Name:       name,
		FrameRate:  frameRate,
		FrameCount: int(frameCount),
		Duration:   float64(frameCount) / frameRate,
		Bones:      make(map[string]*BoneTrack),
		Visibility: make(map[string]*VisibilityTrack),
	}
}

// DecodeAnimation parses a bone-motion file and an optional visibility file
// and merges them into one clip. Either input may be nil, but not both.
// A malformed motion file is a StructuralError; a malformed visibility file
// is logged and ignored.
func DecodeAnimation(motion, visibility []byte, opts BuildOptions) (*Clip, error) {
	log := opts.logger()
	if motion == nil && visibility == nil {
		return nil, formats.NewStructuralError("animation", "motion", formats.ErrTruncated)
	}

	var body, vis *Clip
	if motion != nil {
		m, err := formats.ParseMotion(motion)
		if err != nil {
			return nil, formats.NewStructuralError("animation", "motion", err)
		}
		body = FromMotion(m, opts)
	}

	if visibility != nil {
		v, err := formats.ParseVisibility(visibility)
		if err != nil {
			if body == nil {
				return nil, formats.NewStructuralError("animation", "visibility", err)
			}
			log.Warn("visibility file ignored", zap.String("clip", body.Name), zap.Error(err))
		} else {
			vis = FromVisibility(v, opts)
		}
	}

	switch {
	case vis == nil:
		return body, nil
	case body == nil:
		return vis, nil
	default:
		return Merge(body, vis, body.Name), nil
	}
}
