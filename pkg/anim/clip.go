package anim

import (
	"maps"
	"slices"

	gomath "github.com/Faultbox/rigkit/pkg/math"
)

// BoneTrack holds the animated channels of one bone. Any channel may be nil.
type BoneTrack struct {
	Bone     string
	Position VectorTrack
	Rotation RotationTrack
	Scale    VectorTrack
}

// Sample evaluates the bone's channels at frame. Missing channels yield
// the origin, identity rotation and unit scale.
func (b *BoneTrack) Sample(frame float64) (pos gomath.Vec3, rot gomath.Quat, scale gomath.Vec3) {
	pos, rot, scale = gomath.Vec3Zero(), gomath.QuatIdentity(), gomath.Vec3One()
	if b.Position != nil {
		pos = b.Position.Evaluate(frame)
	}
	if b.Rotation != nil {
		rot = b.Rotation.Evaluate(frame)
	}
	if b.Scale != nil {
		scale = b.Scale.Evaluate(frame)
	}
	return pos, rot, scale
}

// Empty reports whether the bone has no channel at all.
func (b *BoneTrack) Empty() bool {
	return b.Position == nil && b.Rotation == nil && b.Scale == nil
}

// VisibilityTrack toggles one node on and off.
type VisibilityTrack struct {
	Node    string
	Visible BoolTrack
}

// Clip is an immutable animation clip. Duration is in seconds.
type Clip struct {
	Name       string
	Duration   float64
	FrameRate  float64
	FrameCount int
	Loop       bool
	Bones      map[string]*BoneTrack
	Visibility map[string]*VisibilityTrack
}

// BoneNames returns the animated bone names in sorted order.
func (c *Clip) BoneNames() []string {
	return slices.Sorted(maps.Keys(c.Bones))
}

// NodeNames returns the animated node names in sorted order.
func (c *Clip) NodeNames() []string {
	return slices.Sorted(maps.Keys(c.Visibility))
}

// Merge combines two clips into a new one. Duration and frame count are the
// larger of the two, the clip loops if either does, and track maps are
// unioned with b's entries winning on collisions. The frame rate is the
// first non-zero of a then b. An empty name keeps a's name.
func Merge(a, b *Clip, name string) *Clip {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		a = &Clip{}
	case b == nil:
		b = &Clip{}
	}

	out := &Clip{
		Name:       a.Name,
		Duration:   max(a.Duration, b.Duration),
		FrameRate:  a.FrameRate,
		FrameCount: max(a.FrameCount, b.FrameCount),
		Loop:       a.Loop || b.Loop,
		Bones:      make(map[string]*BoneTrack, len(a.Bones)+len(b.Bones)),
		Visibility: make(map[string]*VisibilityTrack, len(a.Visibility)+len(b.Visibility)),
	}
	if name != "" {
		out.Name = name
	}
	if out.FrameRate == 0 {
		out.FrameRate = b.FrameRate
	}
	maps.Copy(out.Bones, a.Bones)
	maps.Copy(out.Bones, b.Bones)
	maps.Copy(out.Visibility, a.Visibility)
	maps.Copy(out.Visibility, b.Visibility)
	return out
}
