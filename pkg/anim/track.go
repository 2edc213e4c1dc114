// Package anim evaluates keyframe tracks and plays animation clips on a
// skeleton and a set of visibility nodes.
package anim

import (
	"math"
	"sort"

	"github.com/Faultbox/rigkit/pkg/formats"
	gomath "github.com/Faultbox/rigkit/pkg/math"
)

// Track is a keyframed channel producing values of type T. The set of
// implementations is closed: Constant, Dense, Sparse16 and Sparse8 for each
// of the vector, rotation and boolean kinds.
type Track[T any] interface {
	// Evaluate samples the track at a fractional frame index.
	Evaluate(frame float64) T
	// Encoding returns the storage encoding of the track.
	Encoding() formats.TrackTag
	// Len returns the number of stored keys.
	Len() int

	sealed()
}

// Track kinds.
type (
	VectorTrack   = Track[gomath.Vec3]
	RotationTrack = Track[gomath.Quat]
	BoolTrack     = Track[bool]
)

// EvaluateAt samples track at time seconds for a clip running at frameRate.
func EvaluateAt[T any](track Track[T], time, frameRate float64) T {
	return track.Evaluate(time * frameRate)
}

// Vector tracks

// VectorConstant holds one value for every frame.
type VectorConstant struct{ Value gomath.Vec3 }

// VectorDense holds one value per frame.
type VectorDense struct{ Values []gomath.Vec3 }

// VectorSparse16 holds values at u16 keyframe indices.
type VectorSparse16 struct {
	Frames []uint16
	Values []gomath.Vec3
}

// VectorSparse8 holds values at u8 keyframe indices.
type VectorSparse8 struct {
	Frames []uint8
	Values []gomath.Vec3
}

func (t *VectorConstant) Evaluate(float64) gomath.Vec3 { return t.Value }

func (t *VectorDense) Evaluate(frame float64) gomath.Vec3 {
	if len(t.Values) == 0 {
		return gomath.Vec3Zero()
	}
	i, j, f := denseKeys(frame, len(t.Values))
	return t.Values[i].Lerp(t.Values[j], f)
}

func (t *VectorSparse16) Evaluate(frame float64) gomath.Vec3 {
	return sparseVector(t.Frames, t.Values, frame)
}

func (t *VectorSparse8) Evaluate(frame float64) gomath.Vec3 {
	return sparseVector(t.Frames, t.Values, frame)
}

func sparseVector[F uint8 | uint16](frames []F, values []gomath.Vec3, frame float64) gomath.Vec3 {
	n := min(len(frames), len(values))
	if n == 0 {
		return gomath.Vec3Zero()
	}
	i, j, f := sparseKeys(frames[:n], frame)
	return values[i].Lerp(values[j], f)
}

// Rotation tracks

// RotationConstant holds one rotation for every frame.
type RotationConstant struct{ Value gomath.Quat }

// RotationDense holds one rotation per frame.
type RotationDense struct{ Values []gomath.Quat }

// RotationSparse16 holds rotations at u16 keyframe indices.
type RotationSparse16 struct {
	Frames []uint16
	Values []gomath.Quat
}

// RotationSparse8 holds rotations at u8 keyframe indices.
type RotationSparse8 struct {
	Frames []uint8
	Values []gomath.Quat
}

func (t *RotationConstant) Evaluate(float64) gomath.Quat { return t.Value }

func (t *RotationDense) Evaluate(frame float64) gomath.Quat {
	if len(t.Values) == 0 {
		return gomath.QuatIdentity()
	}
	i, j, f := denseKeys(frame, len(t.Values))
	return t.Values[i].Slerp(t.Values[j], f)
}

func (t *RotationSparse16) Evaluate(frame float64) gomath.Quat {
	return sparseRotation(t.Frames, t.Values, frame)
}

func (t *RotationSparse8) Evaluate(frame float64) gomath.Quat {
	return sparseRotation(t.Frames, t.Values, frame)
}

func sparseRotation[F uint8 | uint16](frames []F, values []gomath.Quat, frame float64) gomath.Quat {
	n := min(len(frames), len(values))
	if n == 0 {
		return gomath.QuatIdentity()
	}
	i, j, f := sparseKeys(frames[:n], frame)
	return values[i].Slerp(values[j], f)
}

// Bool tracks

// BoolConstant holds one flag for every frame.
type BoolConstant struct{ Value bool }

// BoolDense holds one flag per frame. Frames outside the stored range wrap
// around instead of clamping.
type BoolDense struct{ Values []bool }

// BoolSparse16 holds flags at u16 keyframe indices.
type BoolSparse16 struct {
	Frames []uint16
	Values []bool
}

// BoolSparse8 holds flags at u8 keyframe indices.
type BoolSparse8 struct {
	Frames []uint8
	Values []bool
}

func (t *BoolConstant) Evaluate(float64) bool { return t.Value }

func (t *BoolDense) Evaluate(frame float64) bool {
	n := len(t.Values)
	if n == 0 {
		return true
	}
	i := floorFrame(frame) % n
	if i < 0 {
		i += n
	}
	return t.Values[i]
}

func (t *BoolSparse16) Evaluate(frame float64) bool {
	return sparseBool(t.Frames, t.Values, frame)
}

func (t *BoolSparse8) Evaluate(frame float64) bool {
	return sparseBool(t.Frames, t.Values, frame)
}

func sparseBool[F uint8 | uint16](frames []F, values []bool, frame float64) bool {
	n := min(len(frames), len(values))
	if n == 0 {
		return true
	}
	i, _, _ := sparseKeys(frames[:n], frame)
	return values[i]
}

// Encodings

func (*VectorConstant) Encoding() formats.TrackTag   { return formats.TrackConstant }
func (*VectorDense) Encoding() formats.TrackTag      { return formats.TrackDense }
func (*VectorSparse16) Encoding() formats.TrackTag   { return formats.TrackSparse16 }
func (*VectorSparse8) Encoding() formats.TrackTag    { return formats.TrackSparse8 }
func (*RotationConstant) Encoding() formats.TrackTag { return formats.TrackConstant }
func (*RotationDense) Encoding() formats.TrackTag    { return formats.TrackDense }
func (*RotationSparse16) Encoding() formats.TrackTag { return formats.TrackSparse16 }
func (*RotationSparse8) Encoding() formats.TrackTag  { return formats.TrackSparse8 }
func (*BoolConstant) Encoding() formats.TrackTag     { return formats.TrackConstant }
func (*BoolDense) Encoding() formats.TrackTag        { return formats.TrackDense }
func (*BoolSparse16) Encoding() formats.TrackTag     { return formats.TrackSparse16 }
func (*BoolSparse8) Encoding() formats.TrackTag      { return formats.TrackSparse8 }

func (*VectorConstant) Len() int     { return 1 }
func (t *VectorDense) Len() int      { return len(t.Values) }
func (t *VectorSparse16) Len() int   { return min(len(t.Frames), len(t.Values)) }
func (t *VectorSparse8) Len() int    { return min(len(t.Frames), len(t.Values)) }
func (*RotationConstant) Len() int   { return 1 }
func (t *RotationDense) Len() int    { return len(t.Values) }
func (t *RotationSparse16) Len() int { return min(len(t.Frames), len(t.Values)) }
func (t *RotationSparse8) Len() int  { return min(len(t.Frames), len(t.Values)) }
func (*BoolConstant) Len() int       { return 1 }
func (t *BoolDense) Len() int        { return len(t.Values) }
func (t *BoolSparse16) Len() int     { return min(len(t.Frames), len(t.Values)) }
func (t *BoolSparse8) Len() int      { return min(len(t.Frames), len(t.Values)) }

func (*VectorConstant) sealed()   {}
func (*VectorDense) sealed()      {}
func (*VectorSparse16) sealed()   {}
func (*VectorSparse8) sealed()    {}
func (*RotationConstant) sealed() {}
func (*RotationDense) sealed()    {}
func (*RotationSparse16) sealed() {}
func (*RotationSparse8) sealed()  {}
func (*BoolConstant) sealed()     {}
func (*BoolDense) sealed()        {}
func (*BoolSparse16) sealed()     {}
func (*BoolSparse8) sealed()      {}

// Key lookup

// floorFrame returns floor(frame) as an int. NaN maps to frame 0.
func floorFrame(frame float64) int {
	if math.IsNaN(frame) {
		return 0
	}
	return int(math.Floor(frame))
}

// denseKeys returns the bracketing keys and blend factor for a dense track
// of n > 0 values. The frame is clamped into [0, n-1].
func denseKeys(frame float64, n int) (i, j int, t float32) {
	if math.IsNaN(frame) {
		frame = 0
	}
	frame = gomath.Clamp(frame, 0, float64(n-1))
	i = int(math.Floor(frame))
	j = min(i+1, n-1)
	return i, j, float32(frame - float64(i))
}

// sparseKeys returns the bracketing keys and blend factor for a sparse track.
// Frames are assumed non-decreasing. Before the first key the first key is
// returned; at or after the last key the last key is returned. Among keys
// sharing a frame number the later one wins.
func sparseKeys[F uint8 | uint16](frames []F, frame float64) (i, j int, t float32) {
	n := len(frames)
	if math.IsNaN(frame) || frame < float64(frames[0]) {
		return 0, 0, 0
	}
	if frame >= float64(frames[n-1]) {
		return n - 1, n - 1, 0
	}

	// First key strictly after frame; the key before it is at or before.
	j = sort.Search(n, func(k int) bool { return float64(frames[k]) > frame })
	i = j - 1
	span := float64(frames[j]) - float64(frames[i])
	if span <= 0 {
		return j, j, 0
	}
	return i, j, float32((frame - float64(frames[i])) / span)
}
