package grove

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// InputSource supplies the pointer and keyboard state for a frame. Cursor is
// in output-surface pixels.
type InputSource interface {
	Cursor() Vec2
	ButtonPressed(b MouseButton) bool
	KeyPressed(k ebiten.Key) bool
}

// Poller is implemented by input sources that latch their state once per
// frame. The engine calls Poll before reading anything else.
type Poller interface {
	Poll()
}

// EbitenInput reads the live ebiten input state.
type EbitenInput struct{}

// Cursor returns the mouse position in window pixels.
func (EbitenInput) Cursor() Vec2 {
	x, y := ebiten.CursorPosition()
	return Vec2{float64(x), float64(y)}
}

// ButtonPressed reports whether b is held.
func (EbitenInput) ButtonPressed(b MouseButton) bool {
	switch b {
	case MouseButtonRight:
		return ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	case MouseButtonMiddle:
		return ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)
	default:
		return ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	}
}

// KeyPressed reports whether k is held.
func (EbitenInput) KeyPressed(k ebiten.Key) bool {
	return ebiten.IsKeyPressed(k)
}

// --- Hit shapes ---

// HitRegion is an entity that can be hit by the pointer. p is in world space.
type HitRegion interface {
	Entity
	HitTest(p Vec2) bool
}

// HitShape is a hit area in node-local coordinates.
type HitShape interface {
	Contains(x, y float64) bool
}

// HitRect is an axis-aligned rectangular hit area in local coordinates.
type HitRect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) lies inside the rectangle.
func (r HitRect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// HitCircle is a circular hit area in local coordinates.
type HitCircle struct {
	CenterX, CenterY, Radius float64
}

// Contains reports whether (x, y) lies inside or on the circle.
func (c HitCircle) Contains(x, y float64) bool {
	dx := x - c.CenterX
	dy := y - c.CenterY
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// HitPolygon is a convex polygon hit area in local coordinates.
// Points must define a convex polygon in either winding order.
type HitPolygon struct {
	Points []Vec2
}

// Contains reports whether (x, y) lies inside a convex polygon using cross-product sign test.
func (p HitPolygon) Contains(x, y float64) bool {
	n := len(p.Points)
	if n < 3 {
		return false
	}

	// Same side of every edge.
	var positive, negative bool
	for i := 0; i < n; i++ {
		a := p.Points[i]
		b := p.Points[(i+1)%n]
		cross := (b.X-a.X)*(y-a.Y) - (b.Y-a.Y)*(x-a.X)
		if cross > 0 {
			positive = true
		} else if cross < 0 {
			negative = true
		}
		if positive && negative {
			return false
		}
	}
	return true
}

// --- Pointer routing ---

// PointerEvent is delivered to pointer observers.
type PointerEvent struct {
	Type EventType
	// Target is the entity under the pointer, nil over empty space.
	Target Entity
	// World is the cursor in the world space of the primary camera, or in
	// output pixels for overlays.
	World  Vec2
	Button MouseButton
}

type pointerState struct {
	hover   Entity
	down    bool
	button  MouseButton
	pressed Entity
}

// pointerRouter runs the mouse state machine and fans events out to
// per-entity and scene-level observers.
type pointerRouter struct {
	byEntity map[string]map[EventType]*observers[PointerEvent]
	any      map[EventType]*observers[PointerEvent]
	state    pointerState
}

func newPointerRouter() *pointerRouter {
	return &pointerRouter{
		byEntity: make(map[string]map[EventType]*observers[PointerEvent]),
		any:      make(map[EventType]*observers[PointerEvent]),
	}
}

// observe registers fn for events of type t on the entity id. An empty id
// receives the events of every target, including empty space.
func (r *pointerRouter) observe(id string, t EventType, fn func(PointerEvent)) CallbackHandle {
	set := r.any
	if id != "" {
		set = r.byEntity[id]
		if set == nil {
			set = make(map[EventType]*observers[PointerEvent])
			r.byEntity[id] = set
		}
	}
	obs := set[t]
	if obs == nil {
		obs = &observers[PointerEvent]{}
		set[t] = obs
	}
	return obs.add(fn)
}

// forget drops the observers and pointer state referring to id.
func (r *pointerRouter) forget(id string) {
	delete(r.byEntity, id)
	if r.state.hover != nil && r.state.hover.ID() == id {
		r.state.hover = nil
	}
	if r.state.pressed != nil && r.state.pressed.ID() == id {
		r.state.pressed = nil
	}
}

// process advances the state machine with this frame's hit target and
// button state. emit receives every event for forwarding to the entity store.
func (r *pointerRouter) process(target Entity, world Vec2, pressed bool, button MouseButton, emit func(EntityEvent)) {
	ps := &r.state
	if !sameEntity(target, ps.hover) {
		prev := ps.hover
		ps.hover = target
		if prev != nil {
			r.fire(EventPointerLeave, prev, world, button, emit)
		}
		if target != nil {
			r.fire(EventPointerEnter, target, world, button, emit)
		}
	}

	switch {
	case pressed && !ps.down:
		ps.down = true
		ps.button = button
		ps.pressed = target
		r.fire(EventPointerDown, target, world, button, emit)
	case !pressed && ps.down:
		if ps.pressed != nil && sameEntity(ps.pressed, target) {
			r.fire(EventClick, target, world, ps.button, emit)
		}
		r.fire(EventPointerUp, target, world, ps.button, emit)
		ps.down = false
		ps.pressed = nil
	}
}

func (r *pointerRouter) fire(t EventType, target Entity, world Vec2, button MouseButton, emit func(EntityEvent)) {
	ev := PointerEvent{Type: t, Target: target, World: world, Button: button}
	if target != nil {
		if obs := r.byEntity[target.ID()][t]; obs != nil {
			obs.emit(ev)
		}
		if emit != nil {
			emit(EntityEvent{Type: t, ID: target.ID(), X: world.X, Y: world.Y, Button: button})
		}
	}
	if obs := r.any[t]; obs != nil {
		obs.emit(ev)
	}
}

func sameEntity(a, b Entity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID() == b.ID()
}

// pressedButton returns the held button, preferring left, then right, then
// middle.
func pressedButton(in InputSource) (MouseButton, bool) {
	for _, b := range [...]MouseButton{MouseButtonLeft, MouseButtonRight, MouseButtonMiddle} {
		if in.ButtonPressed(b) {
			return b, true
		}
	}
	return MouseButtonLeft, false
}
