package grove

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 4 values of a Node's local transform (or a color
// bound to it) simultaneously. Create one via the convenience constructors and
// either call Update(dt) each frame or hand it to Engine.AddTween. If the
// target node is disposed, the group stops immediately.
type TweenGroup struct {
	tweens [4]*gween.Tween
	count  int
	values [4]float64
	apply  func(v []float64)
	target *Node
	Done   bool
}

// Update advances all tweens by dt seconds and writes the values to the
// target. If the target node has been disposed, Done is set to true and no
// writes occur.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}

	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}

	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		g.values[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
	g.apply(g.values[:g.count])
}

// TweenPosition animates the node's local position to to.
func TweenPosition(node *Node, to Vec2, duration float32, fn ease.TweenFunc) *TweenGroup {
	from := node.LocalPosition()
	g := &TweenGroup{count: 2, target: node}
	g.tweens[0] = gween.New(float32(from.X), float32(to.X), duration, fn)
	g.tweens[1] = gween.New(float32(from.Y), float32(to.Y), duration, fn)
	g.apply = func(v []float64) { node.SetLocalPosition(Vec2{v[0], v[1]}) }
	return g
}

// TweenScale animates the node's local uniform scale to to.
func TweenScale(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1, target: node}
	g.tweens[0] = gween.New(float32(node.LocalScale()), float32(to), duration, fn)
	g.apply = func(v []float64) { node.SetLocalScale(v[0]) }
	return g
}

// TweenRotation animates the node's local rotation by delta degrees. A
// positive delta turns clockwise on screen. The stored rotation stays wrapped
// to [0, 360) throughout.
func TweenRotation(node *Node, delta float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	from := node.LocalRotation()
	g := &TweenGroup{count: 1, target: node}
	g.tweens[0] = gween.New(float32(from), float32(from+delta), duration, fn)
	g.apply = func(v []float64) { node.SetLocalRotation(v[0]) }
	return g
}

// TweenColor animates all four components of *c to the target color. node
// bounds the tween's lifetime; pass the node of the entity owning c.
func TweenColor(node *Node, c *Color, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 4, target: node}
	g.tweens[0] = gween.New(float32(c.R), float32(to.R), duration, fn)
	g.tweens[1] = gween.New(float32(c.G), float32(to.G), duration, fn)
	g.tweens[2] = gween.New(float32(c.B), float32(to.B), duration, fn)
	g.tweens[3] = gween.New(float32(c.A), float32(to.A), duration, fn)
	g.apply = func(v []float64) { *c = Color{v[0], v[1], v[2], v[3]} }
	return g
}
