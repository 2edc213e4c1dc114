package anim

import (
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	gomath "github.com/Faultbox/rigkit/pkg/math"
)

// Bone is a mutable joint the mixer writes local transforms to.
type Bone interface {
	Name() string
	Position() gomath.Vec3
	Rotation() gomath.Quat
	Scale() gomath.Vec3
	SetPosition(gomath.Vec3)
	SetRotation(gomath.Quat)
	SetScale(gomath.Vec3)
}

// Skeleton exposes the bones a mixer animates.
type Skeleton interface {
	Bones() []Bone
}

// Node is a visibility target.
type Node interface {
	SetVisible(visible bool)
}

// NodeSet resolves visibility targets by name.
type NodeSet interface {
	FindNode(name string) (Node, bool)
}

// State is the playback state of a mixer.
type State int

const (
	StateUnbound State = iota // no clip loaded
	StateStopped
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnbound:
		return "Unbound"
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// MixerOptions configures a mixer.
type MixerOptions struct {
	Logger           *zap.Logger
	IgnoreScale      bool     // never write scale
	IgnoreScaleBones []string // never write scale on these bones
}

type bindTransform struct {
	bone  Bone
	pos   gomath.Vec3
	rot   gomath.Quat
	scale gomath.Vec3
}

// Mixer plays one clip on one skeleton and node set. It is not safe for
// concurrent use and never owns the skeleton or nodes it writes to.
type Mixer struct {
	ID uuid.UUID

	log         *zap.Logger
	ignoreScale bool
	scaleLocked map[string]bool

	skeleton Skeleton
	nodes    NodeSet

	clip  *Clip
	state State
	loop  bool
	time  float64
	frame int

	boneCache map[string]Bone // nil value: known missing
	nodeCache map[string]Node // nil value: known missing
	bindPose  []bindTransform
}

// NewMixer creates a mixer bound to skeleton and nodes. Either may be nil.
func NewMixer(skeleton Skeleton, nodes NodeSet, opts MixerOptions) *Mixer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := &Mixer{
		ID:          uuid.New(),
		ignoreScale: opts.IgnoreScale,
		scaleLocked: make(map[string]bool, len(opts.IgnoreScaleBones)),
	}
	m.log = log.With(zap.Stringer("mixer", m.ID))
	for _, name := range opts.IgnoreScaleBones {
		m.scaleLocked[name] = true
	}
	m.Bind(skeleton, nodes)
	return m
}

// Bind points the mixer at a new skeleton and node set, clearing the name
// caches and snapshotting the current transforms as the bind pose. It may
// be called in any state; bind a skeleton that is in its rest pose, or use
// Rebind to keep the pose captured earlier.
func (m *Mixer) Bind(skeleton Skeleton, nodes NodeSet) {
	m.skeleton = skeleton
	m.nodes = nodes
	m.boneCache = nil
	m.nodeCache = make(map[string]Node)
	m.bindPose = nil

	if skeleton == nil {
		return
	}
	for _, b := range skeleton.Bones() {
		m.bindPose = append(m.bindPose, bindTransform{
			bone:  b,
			pos:   b.Position(),
			rot:   b.Rotation(),
			scale: b.Scale(),
		})
	}
}

// Rebind is Bind with the current skeleton and nodes. Call it after the
// bound skeleton's bone list changed. Bones already known by name keep
// their captured bind pose, so rebinding mid-playback does not record an
// animated pose as the rest pose.
func (m *Mixer) Rebind() {
	prev := make(map[string]bindTransform, len(m.bindPose))
	for _, t := range m.bindPose {
		if _, dup := prev[t.bone.Name()]; !dup {
			prev[t.bone.Name()] = t
		}
	}

	m.Bind(m.skeleton, m.nodes)
	for i, t := range m.bindPose {
		if old, ok := prev[t.bone.Name()]; ok {
			m.bindPose[i].pos, m.bindPose[i].rot, m.bindPose[i].scale = old.pos, old.rot, old.scale
		}
	}
}

// LoadClip makes clip current and stops at time 0, adopting its loop flag.
// A nil clip unloads the mixer.
func (m *Mixer) LoadClip(clip *Clip) {
	m.clip = clip
	m.time, m.frame = 0, 0
	if clip == nil {
		m.state = StateUnbound
		m.loop = false
		return
	}
	m.state = StateStopped
	m.loop = clip.Loop
	m.log.Debug("clip loaded",
		zap.String("clip", clip.Name),
		zap.Float64("duration", clip.Duration),
		zap.Int("bones", len(clip.Bones)),
		zap.Int("nodes", len(clip.Visibility)))
}

// Play starts or resumes playback. It does nothing without a clip.
func (m *Mixer) Play() {
	if m.clip == nil {
		return
	}
	if m.state == StateStopped || m.state == StatePaused {
		m.state = StatePlaying
	}
}

// Pause halts playback, keeping the current time.
func (m *Mixer) Pause() {
	if m.state == StatePlaying {
		m.state = StatePaused
	}
}

// Stop rewinds to time 0, restores the bind pose and makes every animated
// node visible.
func (m *Mixer) Stop() {
	m.time, m.frame = 0, 0
	if m.clip != nil {
		m.state = StateStopped
	}

	for _, t := range m.bindPose {
		t.bone.SetPosition(t.pos)
		t.bone.SetRotation(t.rot)
		t.bone.SetScale(t.scale)
	}
	if m.clip == nil {
		return
	}
	for name := range m.clip.Visibility {
		if node := m.node(name); node != nil {
			node.SetVisible(true)
		}
	}
}

// SetTime seeks to t seconds, clamped into [0, duration], and applies the
// pose. The state is left unchanged.
func (m *Mixer) SetTime(t float64) {
	if m.clip == nil {
		return
	}
	if math.IsNaN(t) {
		t = 0
	}
	m.time = gomath.Clamp(t, 0, m.clip.Duration)
	m.frame = m.frameAt(m.time)
	m.apply()
}

// Update advances playback by dt seconds and applies the pose. It does
// nothing unless playing. A looping clip that reaches its end restarts one
// frame in; a non-looping clip holds its last frame and pauses.
func (m *Mixer) Update(dt float64) {
	if m.state != StatePlaying || m.clip == nil {
		return
	}

	clip := m.clip
	m.time += dt
	if m.time >= clip.Duration {
		if m.loop && clip.Duration > 0 {
			m.time = 1 / m.frameRate()
			m.frame = 1
		} else {
			m.time = clip.Duration
			m.frame = max(clip.FrameCount-1, 0)
			m.state = StatePaused
		}
	} else {
		m.frame = m.frameAt(m.time)
	}
	m.apply()
}

// Dispose drops every reference held by the mixer.
func (m *Mixer) Dispose() {
	m.clip = nil
	m.skeleton = nil
	m.nodes = nil
	m.boneCache = nil
	m.nodeCache = nil
	m.bindPose = nil
	m.state = StateUnbound
	m.time, m.frame = 0, 0
}

// SetLoop overrides the loop flag of the current clip.
func (m *Mixer) SetLoop(loop bool) { m.loop = loop }

// Loop reports whether playback loops.
func (m *Mixer) Loop() bool { return m.loop }

// State returns the playback state.
func (m *Mixer) State() State { return m.state }

// Time returns the playback time in seconds.
func (m *Mixer) Time() float64 { return m.time }

// Frame returns the current whole frame.
func (m *Mixer) Frame() int { return m.frame }

// Clip returns the current clip, or nil.
func (m *Mixer) Clip() *Clip { return m.clip }

// frameRate returns the clip's frame rate, DefaultFrameRate when unset.
func (m *Mixer) frameRate() float64 {
	if m.clip.FrameRate > 0 {
		return m.clip.FrameRate
	}
	return DefaultFrameRate
}

func (m *Mixer) frameAt(t float64) int {
	f := int(math.Floor(t * m.frameRate()))
	return gomath.Clamp(f, 0, max(m.clip.FrameCount-1, 0))
}

// sampleFrame returns the fractional frame tracks are evaluated at. It never
// passes the last frame, so the end of a clip samples frameCount-1.
func (m *Mixer) sampleFrame() float64 {
	return min(m.time*m.frameRate(), float64(max(m.clip.FrameCount-1, 0)))
}

// apply writes the clip's pose at the current time.
func (m *Mixer) apply() {
	frame := m.sampleFrame()

	for name, track := range m.clip.Bones {
		bone := m.bone(name)
		if bone == nil {
			continue
		}
		pos, rot, scale := track.Sample(frame)
		bone.SetPosition(pos)
		bone.SetRotation(rot)
		if !m.ignoreScale && !m.scaleLocked[name] {
			bone.SetScale(scale)
		}
	}

	for name, track := range m.clip.Visibility {
		node := m.node(name)
		if node == nil {
			continue
		}
		node.SetVisible(track.Visible.Evaluate(frame))
	}
}

func (m *Mixer) bone(name string) Bone {
	if m.boneCache == nil {
		m.boneCache = make(map[string]Bone)
		if m.skeleton != nil {
			for _, b := range m.skeleton.Bones() {
				if _, dup := m.boneCache[b.Name()]; !dup {
					m.boneCache[b.Name()] = b
				}
			}
		}
	}
	b, ok := m.boneCache[name]
	if !ok {
		m.log.Debug("animated bone not in skeleton", zap.String("bone", name))
		m.boneCache[name] = nil
	}
	return b
}

func (m *Mixer) node(name string) Node {
	if m.nodeCache == nil {
		m.nodeCache = make(map[string]Node)
	}
	if n, ok := m.nodeCache[name]; ok {
		return n
	}
	var n Node
	if m.nodes != nil {
		if found, ok := m.nodes.FindNode(name); ok {
			n = found
		}
	}
	if n == nil {
		m.log.Debug("visibility target not found", zap.String("node", name))
	}
	m.nodeCache[name] = n
	return n
}
