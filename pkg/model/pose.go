package model

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rigkit/pkg/anim"
	gomath "github.com/Faultbox/rigkit/pkg/math"
)

// PoseBone is the mutable local transform of one bone.
type PoseBone struct {
	index int
	name  string
	pos   gomath.Vec3
	rot   gomath.Quat
	scale gomath.Vec3
}

func (b *PoseBone) Index() int                { return b.index }
func (b *PoseBone) Name() string              { return b.name }
func (b *PoseBone) Position() gomath.Vec3     { return b.pos }
func (b *PoseBone) Rotation() gomath.Quat     { return b.rot }
func (b *PoseBone) Scale() gomath.Vec3        { return b.scale }
func (b *PoseBone) SetPosition(v gomath.Vec3) { b.pos = v }
func (b *PoseBone) SetRotation(q gomath.Quat) { b.rot = q }
func (b *PoseBone) SetScale(v gomath.Vec3)    { b.scale = v }
func (b *PoseBone) Matrix() mgl32.Mat4        { return composeTRS(b.pos, b.rot, b.scale) }

func (b *PoseBone) reset(d *BoneDescriptor) {
	b.pos, b.rot, b.scale = d.Position, d.Rotation, d.Scale
}

// Pose is a per-instance copy of a skeleton's bone transforms that a mixer
// can animate. The skeleton itself is never modified.
type Pose struct {
	skeleton *SkeletonAsset
	bones    []*PoseBone
}

// NewPose creates a pose in the skeleton's bind pose.
func NewPose(skeleton *SkeletonAsset) *Pose {
	p := &Pose{skeleton: skeleton, bones: make([]*PoseBone, len(skeleton.Bones))}
	for i := range skeleton.Bones {
		d := &skeleton.Bones[i]
		p.bones[i] = &PoseBone{index: d.Index, name: d.Name}
		p.bones[i].reset(d)
	}
	return p
}

// Bones implements anim.Skeleton.
func (p *Pose) Bones() []anim.Bone {
	out := make([]anim.Bone, len(p.bones))
	for i, b := range p.bones {
		out[i] = b
	}
	return out
}

// Bone returns the bone in rig slot i.
func (p *Pose) Bone(i int) *PoseBone {
	return p.bones[i]
}

// Len returns the number of bones.
func (p *Pose) Len() int {
	return len(p.bones)
}

// Reset returns every bone to the bind pose.
func (p *Pose) Reset() {
	for i, b := range p.bones {
		b.reset(&p.skeleton.Bones[i])
	}
}

// ModelMatrices returns the model-space matrix of every bone.
func (p *Pose) ModelMatrices() []mgl32.Mat4 {
	local := make([]mgl32.Mat4, len(p.bones))
	for i, b := range p.bones {
		local[i] = b.Matrix()
	}
	return p.skeleton.modelMatrices(local)
}

// SkinMatrices returns model * inverse bind for every bone.
func (p *Pose) SkinMatrices() []mgl32.Mat4 {
	model := p.ModelMatrices()
	inv := p.skeleton.InverseBindMatrices()
	for i := range model {
		model[i] = model[i].Mul4(inv[i])
	}
	return model
}

// VisibilityNode is a named on/off switch, usually one per mesh.
type VisibilityNode struct {
	Name    string
	Visible bool
}

// SetVisible implements anim.Node.
func (n *VisibilityNode) SetVisible(visible bool) {
	n.Visible = visible
}

// NodeSet holds visibility nodes by name.
type NodeSet struct {
	nodes map[string]*VisibilityNode
}

// NewNodeSet creates a set with one visible node per name.
func NewNodeSet(names ...string) *NodeSet {
	s := &NodeSet{nodes: make(map[string]*VisibilityNode, len(names))}
	for _, name := range names {
		s.nodes[name] = &VisibilityNode{Name: name, Visible: true}
	}
	return s
}

// FindNode implements anim.NodeSet.
func (s *NodeSet) FindNode(name string) (anim.Node, bool) {
	n, ok := s.nodes[name]
	if !ok {
		return nil, false
	}
	return n, true
}

// Visible reports whether the named node is visible. Unknown nodes are
// visible.
func (s *NodeSet) Visible(name string) bool {
	n, ok := s.nodes[name]
	return !ok || n.Visible
}

// Names returns the node names in sorted order.
func (s *NodeSet) Names() []string {
	names := make([]string, 0, len(s.nodes))
	for name := range s.nodes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
