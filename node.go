package grove

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Node is a spatial element of the scene hierarchy. It owns a local
// position, a uniform scale and a rotation in degrees, and inherits its
// parent's world transform. World values can be read and written directly;
// writing them computes the equivalent local values.
//
// The world matrix is cached. Mutating local values or re-parenting marks the
// node and its subtree dirty, and the next world read recomputes it from the
// parent chain, so reads are always exact.
type Node struct {
	Name string

	parent   *Node
	children []*Node

	pos      Vec2
	rotation float64 // degrees, [0, 360)
	scale    float64

	world    [6]float64
	dirty    bool
	disposed bool
}

// NewNode creates a root node at the origin with scale 1 and rotation 0.
func NewNode(name string) *Node {
	return &Node{
		Name:  name,
		scale: 1,
		world: identityTransform,
	}
}

// --- Local space ---

// LocalPosition returns the position relative to the parent.
func (n *Node) LocalPosition() Vec2 { return n.pos }

// LocalRotation returns the rotation relative to the parent, in degrees.
func (n *Node) LocalRotation() float64 { return n.rotation }

// LocalScale returns the scale relative to the parent.
func (n *Node) LocalScale() float64 { return n.scale }

// SetLocal sets all local values at once.
func (n *Node) SetLocal(pos Vec2, rotation, scale float64) {
	n.pos = pos
	n.rotation = wrapDegrees(rotation)
	n.scale = scale
	n.markDirty()
}

// SetLocalPosition sets the position relative to the parent.
func (n *Node) SetLocalPosition(pos Vec2) {
	n.pos = pos
	n.markDirty()
}

// SetLocalRotation sets the rotation relative to the parent, in degrees.
func (n *Node) SetLocalRotation(deg float64) {
	n.rotation = wrapDegrees(deg)
	n.markDirty()
}

// SetLocalScale sets the scale relative to the parent.
func (n *Node) SetLocalScale(s float64) {
	n.scale = s
	n.markDirty()
}

// --- World space ---

// WorldTransform returns the cached world affine matrix [a, b, c, d, tx, ty],
// recomputing it first if any local value in the ancestry changed.
func (n *Node) WorldTransform() [6]float64 {
	if n.dirty {
		local := composeTransform(n.pos, n.rotation, n.scale)
		if n.parent != nil {
			n.world = multiplyAffine(n.parent.WorldTransform(), local)
		} else {
			n.world = local
		}
		n.dirty = false
	}
	return n.world
}

// parentTransform returns the parent's world matrix, or identity for roots.
func (n *Node) parentTransform() [6]float64 {
	if n.parent == nil {
		return identityTransform
	}
	return n.parent.WorldTransform()
}

// WorldPosition returns the position in world space.
func (n *Node) WorldPosition() Vec2 {
	return matrixPosition(n.WorldTransform())
}

// WorldRotation returns the world rotation in degrees, in [0, 360).
func (n *Node) WorldRotation() float64 {
	return matrixRotation(n.WorldTransform())
}

// WorldScale returns the world scale.
func (n *Node) WorldScale() float64 {
	return matrixScale(n.WorldTransform())
}

// SetWorldPosition moves the node so its world position is p. No-op under a
// parent with zero scale.
func (n *Node) SetWorldPosition(p Vec2) {
	pt := n.parentTransform()
	if isSingular(pt) {
		return
	}
	x, y := transformPoint(invertAffine(pt), p.X, p.Y)
	n.SetLocalPosition(Vec2{x, y})
}

// SetWorldRotation rotates the node so its world rotation is deg.
func (n *Node) SetWorldRotation(deg float64) {
	n.SetLocalRotation(deg - matrixRotation(n.parentTransform()))
}

// SetWorldScale scales the node so its world scale is s. No-op under a
// parent with zero scale.
func (n *Node) SetWorldScale(s float64) {
	ps := matrixScale(n.parentTransform())
	if ps < 1e-12 {
		return
	}
	n.SetLocalScale(s / ps)
}

// SetWorld sets world position, rotation and scale at once.
func (n *Node) SetWorld(pos Vec2, rotation, scale float64) {
	pt := n.parentTransform()
	if isSingular(pt) {
		n.SetLocalRotation(rotation - matrixRotation(pt))
		return
	}
	inv := invertAffine(pt)
	x, y := transformPoint(inv, pos.X, pos.Y)
	n.SetLocal(Vec2{x, y}, rotation-matrixRotation(pt), scale/matrixScale(pt))
}

// LocalToWorld converts a point in this node's local space to world space.
func (n *Node) LocalToWorld(p Vec2) Vec2 {
	x, y := transformPoint(n.WorldTransform(), p.X, p.Y)
	return Vec2{x, y}
}

// WorldToLocal converts a world-space point to this node's local space.
func (n *Node) WorldToLocal(p Vec2) Vec2 {
	x, y := transformPoint(invertAffine(n.WorldTransform()), p.X, p.Y)
	return Vec2{x, y}
}

// Direction returns the unit vector the node faces in world space.
func (n *Node) Direction() Vec2 {
	sin, cos := math.Sincos(mgl64.DegToRad(n.WorldRotation()))
	return Vec2{cos, sin}
}

// SetDirection rotates the node to face along v in world space. The zero
// vector is ignored.
func (n *Node) SetDirection(v Vec2) {
	if v.X == 0 && v.Y == 0 {
		return
	}
	n.SetWorldRotation(mgl64.RadToDeg(math.Atan2(v.Y, v.X)))
}

// --- Hierarchy ---

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node { return n.children }

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

// Root returns the topmost ancestor. A node without a parent is its own root.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// SetParent moves the node under p (nil detaches it) while keeping its world
// position, rotation and scale. Setting the current parent is a no-op.
// Returns ErrCycle if p is the node itself or one of its descendants.
func (n *Node) SetParent(p *Node) error {
	if p == n.parent {
		return nil
	}
	if p != nil && isAncestor(n, p) {
		return fmt.Errorf("grove: set parent of %q to %q: %w", n.Name, p.Name, ErrCycle)
	}
	if globalDebug && p != nil {
		debugCheckDisposed(p, "SetParent")
	}

	pos := n.WorldPosition()
	rot := n.WorldRotation()
	scale := n.WorldScale()

	if n.parent != nil {
		n.parent.removeChildByPtr(n)
	}
	n.parent = p
	if p != nil {
		p.children = append(p.children, n)
	}
	n.markDirty()
	n.SetWorld(pos, rot, scale)

	if globalDebug && p != nil {
		debugCheckTreeDepth(n)
		debugCheckChildCount(p)
	}
	return nil
}

// AddChild parents child to this node. See SetParent.
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		return nil
	}
	return child.SetParent(n)
}

// RemoveFromParent detaches this node, keeping its world pose.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	_ = n.SetParent(nil)
}

// --- Disposal ---

// Dispose detaches the node from its parent and releases its children, which
// become roots that keep their world pose.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	for len(n.children) > 0 {
		n.children[len(n.children)-1].RemoveFromParent()
	}
	n.children = nil
	n.disposed = true
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is node or an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// markDirty flags the node and its subtree for recomputation. A dirty node
// never has a clean descendant, so the walk stops at the first dirty node.
func (n *Node) markDirty() {
	if n.dirty {
		return
	}
	n.dirty = true
	for _, child := range n.children {
		child.markDirty()
	}
}
