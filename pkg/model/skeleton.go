package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/rigkit/pkg/formats"
	gomath "github.com/Faultbox/rigkit/pkg/math"
)

// BoneDescriptor is one bone of a skeleton in its bind pose.
type BoneDescriptor struct {
	Index    int // rig slot
	Name     string
	Parent   int // rig slot of the parent, -1 for roots
	Position gomath.Vec3
	Rotation gomath.Quat
	Scale    gomath.Vec3

	InheritPosition bool
	InheritScale    bool
}

// SkeletonAsset is an ordered bone list indexed by rig slot. Parent links
// always point at another bone of the list and never form a cycle.
type SkeletonAsset struct {
	Bones []BoneDescriptor
}

// DecodeSkeleton parses a skeleton file and builds the skeleton.
func DecodeSkeleton(data []byte, log *zap.Logger) (*SkeletonAsset, error) {
	f, err := formats.ParseSkeleton(data)
	if err != nil {
		return nil, formats.NewStructuralError("skeleton", "nodes", err)
	}
	return BuildSkeleton(f.Bones, f.Nodes, log), nil
}

// BuildSkeleton builds the bone list from the ordered rig slots and the node
// table. Hierarchy is stored between nodes, so a bone's parent is found by
// going slot -> node -> parent node -> that node's slot. Slots without a
// node get a synthesized name and an identity transform. A parent that
// cannot be resolved makes the bone a root and logs a warning.
func BuildSkeleton(slots []formats.BoneSlot, nodes []formats.SkeletonNode, log *zap.Logger) *SkeletonAsset {
	if log == nil {
		log = zap.NewNop()
	}

	// rig slot -> node index
	slotNode := make([]int, len(slots))
	for i := range slotNode {
		slotNode[i] = -1
	}
	for i, node := range nodes {
		slot := int(node.RigSlot)
		switch {
		case slot < 0:
			continue
		case slot >= len(slots):
			log.Warn("node rig slot out of range",
				zap.String("node", node.Name), zap.Int("slot", slot), zap.Int("slots", len(slots)))
		case slotNode[slot] >= 0:
			log.Warn("rig slot driven by more than one node, keeping the first",
				zap.String("node", node.Name), zap.Int("slot", slot))
		default:
			slotNode[slot] = i
		}
	}

	bones := make([]BoneDescriptor, len(slots))
	for s := range bones {
		bone := &bones[s]
		bone.Index = s
		bone.Parent = -1
		bone.InheritPosition = slots[s].InheritPosition
		bone.InheritScale = slots[s].InheritScale

		n := slotNode[s]
		if n < 0 {
			bone.Name = fmt.Sprintf("bone_%d", s)
			bone.Rotation = gomath.QuatIdentity()
			bone.Scale = gomath.Vec3One()
			continue
		}

		node := &nodes[n]
		bone.Name = node.Name
		bone.Position = gomath.Vec3FromArray(node.Translation)
		bone.Rotation = gomath.QuatFromEuler(node.Rotation[0], node.Rotation[1], node.Rotation[2])
		bone.Scale = gomath.Vec3FromArray(node.Scale)
		bone.Parent = resolveParent(s, n, nodes, slotNode, log)
	}

	breakCycles(bones, log)
	return &SkeletonAsset{Bones: bones}
}

// resolveParent maps node n's parent node to its rig slot.
func resolveParent(slot, n int, nodes []formats.SkeletonNode, slotNode []int, log *zap.Logger) int {
	node := &nodes[n]
	p := int(node.ParentNode)
	if p < 0 {
		return -1
	}

	fields := []zap.Field{zap.String("bone", node.Name), zap.Int("slot", slot), zap.Int("parent_node", p)}
	if p >= len(nodes) {
		log.Warn("parent node out of range, bone made root", fields...)
		return -1
	}
	if p == n {
		log.Warn("node is its own parent, bone made root", fields...)
		return -1
	}

	ps := int(nodes[p].RigSlot)
	if ps < 0 || ps >= len(slotNode) || slotNode[ps] != p {
		log.Warn("parent node has no rig slot, bone made root",
			append(fields, zap.String("parent", nodes[p].Name))...)
		return -1
	}
	if ps == slot {
		log.Warn("bone resolves to itself as parent, bone made root", fields...)
		return -1
	}
	return ps
}

// breakCycles detaches the bone that closes each parent cycle.
func breakCycles(bones []BoneDescriptor, log *zap.Logger) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]uint8, len(bones))

	for start := range bones {
		var path []int
		for b := start; b >= 0 && state[b] != done; b = bones[b].Parent {
			if state[b] == visiting {
				last := path[len(path)-1]
				log.Warn("bone hierarchy cycle, bone made root",
					zap.String("bone", bones[last].Name), zap.Int("slot", last))
				bones[last].Parent = -1
				break
			}
			state[b] = visiting
			path = append(path, b)
		}
		for _, b := range path {
			state[b] = done
		}
	}
}

// BoneByName returns the first bone with the given name.
func (s *SkeletonAsset) BoneByName(name string) (*BoneDescriptor, bool) {
	for i := range s.Bones {
		if s.Bones[i].Name == name {
			return &s.Bones[i], true
		}
	}
	return nil, false
}

// Children returns the rig slots whose parent is bone.
func (s *SkeletonAsset) Children(bone int) []int {
	var out []int
	for i := range s.Bones {
		if s.Bones[i].Parent == bone {
			out = append(out, i)
		}
	}
	return out
}

// Roots returns the rig slots of bones without a parent.
func (s *SkeletonAsset) Roots() []int {
	return s.Children(-1)
}

// LocalMatrix returns bone's bind transform as translate * rotate * scale.
func (s *SkeletonAsset) LocalMatrix(bone int) mgl32.Mat4 {
	b := &s.Bones[bone]
	return composeTRS(b.Position, b.Rotation, b.Scale)
}

// BindMatrices returns the model-space bind matrix of every bone.
func (s *SkeletonAsset) BindMatrices() []mgl32.Mat4 {
	local := make([]mgl32.Mat4, len(s.Bones))
	for i := range s.Bones {
		local[i] = s.LocalMatrix(i)
	}
	return s.modelMatrices(local)
}

// InverseBindMatrices returns the inverse of every bind matrix.
func (s *SkeletonAsset) InverseBindMatrices() []mgl32.Mat4 {
	out := s.BindMatrices()
	for i := range out {
		out[i] = out[i].Inv()
	}
	return out
}

// modelMatrices concatenates local matrices down the hierarchy.
func (s *SkeletonAsset) modelMatrices(local []mgl32.Mat4) []mgl32.Mat4 {
	world := make([]mgl32.Mat4, len(local))
	solved := make([]bool, len(local))

	var solve func(i int) mgl32.Mat4
	solve = func(i int) mgl32.Mat4 {
		if solved[i] {
			return world[i]
		}
		m := local[i]
		if p := s.Bones[i].Parent; p >= 0 {
			m = solve(p).Mul4(m)
		}
		world[i], solved[i] = m, true
		return m
	}
	for i := range local {
		solve(i)
	}
	return world
}

func composeTRS(pos gomath.Vec3, rot gomath.Quat, scale gomath.Vec3) mgl32.Mat4 {
	q := mgl32.Quat{W: rot.W, V: mgl32.Vec3{rot.X, rot.Y, rot.Z}}
	return mgl32.Translate3D(pos.X, pos.Y, pos.Z).
		Mul4(q.Mat4()).
		Mul4(mgl32.Scale3D(scale.X, scale.Y, scale.Z))
}
