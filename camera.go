package grove

import (
	"fmt"
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera is an entity that renders the world into its own offscreen target.
// The camera's node positions the view: its world position is the center of
// the target, its world rotation rotates the view, and its world scale is
// the inverse zoom (scale 2 shows twice as much of the world).
//
// Visuals pick the cameras that render them by tag: a visual with camera-tag
// "ui" is drawn into every camera carrying the "ui" tag.
type Camera struct {
	Thing

	width, height int
	target        RenderTarget
	factory       TargetFactory
	primary       bool

	followTarget *Node
	followOffset Vec2
	followLerp   float64

	// BoundsEnabled clamps the camera position so the visible area stays
	// within Bounds.
	BoundsEnabled bool
	// Bounds is the world-space rectangle the camera is clamped to when
	// BoundsEnabled is true.
	Bounds Rect

	scrollTween *scrollAnim
}

// newCamera creates a camera with a target of w x h pixels.
func newCamera(id string, w, h int, factory TargetFactory, tags []string) (*Camera, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("grove: camera %q %dx%d: %w", id, w, h, ErrInvalidResolution)
	}
	if factory == nil {
		factory = newRenderTextureTarget
	}
	return &Camera{
		Thing:   MakeThing(id, tags...),
		width:   w,
		height:  h,
		target:  factory(w, h),
		factory: factory,
	}, nil
}

// Resolution returns the target size in pixels.
func (c *Camera) Resolution() (w, h int) {
	return c.width, c.height
}

// Target returns the camera's offscreen render target.
func (c *Camera) Target() RenderTarget {
	return c.target
}

// IsPrimary reports whether this camera is presented to the output surface.
func (c *Camera) IsPrimary() bool {
	return c.primary
}

// Resize reallocates the offscreen target. Anything derived from the
// target's pixel size must be recomputed from the camera afterwards.
func (c *Camera) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("grove: resize camera %q to %dx%d: %w", c.id, w, h, ErrInvalidResolution)
	}
	if w == c.width && h == c.height {
		return nil
	}
	disposeTarget(c.target)
	c.width, c.height = w, h
	c.target = c.factory(w, h)
	return nil
}

// ViewTransform returns the world-to-pixel affine matrix:
// Translate(w/2, h/2) * inverse(camera world transform).
func (c *Camera) ViewTransform() [6]float64 {
	inv := invertAffine(c.node.WorldTransform())
	inv[4] += float64(c.width) / 2
	inv[5] += float64(c.height) / 2
	return inv
}

// WorldToPixel maps a world point into the target's pixel space.
func (c *Camera) WorldToPixel(p Vec2) Vec2 {
	x, y := transformPoint(c.ViewTransform(), p.X, p.Y)
	return Vec2{x, y}
}

// PixelToWorld maps a pixel of the target back into world space.
func (c *Camera) PixelToWorld(p Vec2) Vec2 {
	x, y := transformPoint(invertAffine(c.ViewTransform()), p.X, p.Y)
	return Vec2{x, y}
}

// VisibleBounds returns the axis-aligned bounding rect of the camera's visible
// area in world space.
func (c *Camera) VisibleBounds() Rect {
	inv := invertAffine(c.ViewTransform())
	w, h := float64(c.width), float64(c.height)

	// Transform the four target corners to world space.
	x0, y0 := transformPoint(inv, 0, 0)
	x1, y1 := transformPoint(inv, w, 0)
	x2, y2 := transformPoint(inv, w, h)
	x3, y3 := transformPoint(inv, 0, h)

	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Follow makes the camera track a target node with the given offset and lerp factor.
// A lerp of 1.0 snaps immediately; lower values give smoother following.
func (c *Camera) Follow(node *Node, offset Vec2, lerp float64) {
	c.followTarget = node
	c.followOffset = offset
	c.followLerp = lerp
}

// Unfollow stops tracking the current target node.
func (c *Camera) Unfollow() {
	c.followTarget = nil
}

// ScrollTo animates the camera to the given world position over duration seconds.
func (c *Camera) ScrollTo(to Vec2, duration float32, easeFn ease.TweenFunc) {
	from := c.node.WorldPosition()
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(from.X), float32(to.X), duration, easeFn),
		tweenY: gween.New(float32(from.Y), float32(to.Y), duration, easeFn),
	}
}

// Scrolling reports whether a ScrollTo animation is in progress.
func (c *Camera) Scrolling() bool {
	return c.scrollTween != nil
}

// SetBounds enables camera bounds clamping.
func (c *Camera) SetBounds(bounds Rect) {
	c.BoundsEnabled = true
	c.Bounds = bounds
}

// ClearBounds disables camera bounds clamping.
func (c *Camera) ClearBounds() {
	c.BoundsEnabled = false
}

// update advances follow, scroll, and bounds clamping. Called once per frame
// by the engine.
func (c *Camera) update(dt float32) {
	pos := c.node.WorldPosition()
	start := pos

	if c.followTarget != nil && !c.followTarget.IsDisposed() {
		target := c.followTarget.WorldPosition().Add(c.followOffset)
		pos.X += (target.X - pos.X) * c.followLerp
		pos.Y += (target.Y - pos.Y) * c.followLerp
	}

	if c.scrollTween != nil {
		if !c.scrollTween.doneX {
			val, done := c.scrollTween.tweenX.Update(dt)
			pos.X = float64(val)
			c.scrollTween.doneX = done
		}
		if !c.scrollTween.doneY {
			val, done := c.scrollTween.tweenY.Update(dt)
			pos.Y = float64(val)
			c.scrollTween.doneY = done
		}
		if c.scrollTween.doneX && c.scrollTween.doneY {
			c.scrollTween = nil
		}
	}

	if c.BoundsEnabled {
		pos = c.clampToBounds(pos)
	}

	if pos != start {
		c.node.SetWorldPosition(pos)
	}
}

// clampToBounds restricts a camera position so the visible area stays within Bounds.
func (c *Camera) clampToBounds(pos Vec2) Vec2 {
	zoom := c.node.WorldScale()
	halfW := float64(c.width) * zoom / 2
	halfH := float64(c.height) * zoom / 2

	minX := c.Bounds.X + halfW
	maxX := c.Bounds.X + c.Bounds.Width - halfW
	minY := c.Bounds.Y + halfH
	maxY := c.Bounds.Y + c.Bounds.Height - halfH

	// If bounds are smaller than visible area, center the camera.
	if minX > maxX {
		pos.X = c.Bounds.X + c.Bounds.Width/2
	} else {
		pos.X = math.Max(minX, math.Min(pos.X, maxX))
	}
	if minY > maxY {
		pos.Y = c.Bounds.Y + c.Bounds.Height/2
	} else {
		pos.Y = math.Max(minY, math.Min(pos.Y, maxY))
	}
	return pos
}

// OnDestroy releases the offscreen target.
func (c *Camera) OnDestroy() {
	disposeTarget(c.target)
	c.target = nil
	c.followTarget = nil
	c.scrollTween = nil
}

func (c *Camera) vetoDestroy() error {
	if c.primary {
		return ErrPrimaryCamera
	}
	return nil
}

// disposeTarget releases targets that own GPU memory.
func disposeTarget(t RenderTarget) {
	if d, ok := t.(interface{ Dispose() }); ok {
		d.Dispose()
	}
}
