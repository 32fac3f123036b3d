package grove

import "testing"

func TestHitRectContains(t *testing.T) {
	r := HitRect{X: 10, Y: 20, Width: 100, Height: 50}
	tests := []struct {
		x, y float64
		want bool
	}{
		{50, 40, true},
		{10, 20, true},   // top-left corner
		{110, 70, true},  // bottom-right corner
		{9, 40, false},   // left of rect
		{111, 40, false}, // right of rect
		{50, 19, false},  // above rect
		{50, 71, false},  // below rect
	}
	for _, tt := range tests {
		if got := r.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("HitRect.Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestHitCircleContains(t *testing.T) {
	c := HitCircle{CenterX: 50, CenterY: 50, Radius: 25}
	tests := []struct {
		x, y float64
		want bool
	}{
		{50, 50, true},
		{75, 50, true}, // on edge
		{76, 50, false},
		{50, 24, false},
	}
	for _, tt := range tests {
		if got := c.Contains(tt.x, tt.y); got != tt.want {
			t.Errorf("HitCircle.Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestHitPolygonContains(t *testing.T) {
	tri := HitPolygon{Points: []Vec2{{0, 0}, {100, 0}, {50, 100}}}
	if !tri.Contains(50, 30) {
		t.Error("center of triangle should be inside")
	}
	if tri.Contains(0, 100) {
		t.Error("(0,100) should be outside")
	}
	// Reverse winding gives the same answer.
	rev := HitPolygon{Points: []Vec2{{50, 100}, {100, 0}, {0, 0}}}
	if !rev.Contains(50, 30) {
		t.Error("winding should not matter")
	}
	if (HitPolygon{Points: []Vec2{{0, 0}, {1, 1}}}).Contains(0, 0) {
		t.Error("degenerate polygon should contain nothing")
	}
}

func TestVisualHitboxOverride(t *testing.T) {
	v := NewVisual("v")
	v.Size = Vec2{100, 100}
	v.Node().SetLocal(Vec2{200, 200}, 0, 2)
	if !v.HitTest(Vec2{290, 290}) {
		t.Error("quad scaled by 2 should reach (290, 290)")
	}
	v.Hitbox = HitCircle{Radius: 10}
	if v.HitTest(Vec2{290, 290}) {
		t.Error("hitbox should replace the quad")
	}
	if !v.HitTest(Vec2{215, 200}) {
		t.Error("(215, 200) is 7.5 local units from the center")
	}
}

type routed struct {
	t  EventType
	id string
}

func TestPointerRouterStateMachine(t *testing.T) {
	r := newPointerRouter()
	a := NewThing("a")
	b := NewThing("b")

	var seen []routed
	var forwarded []EntityEvent
	record := func(ev PointerEvent) {
		id := ""
		if ev.Target != nil {
			id = ev.Target.ID()
		}
		seen = append(seen, routed{ev.Type, id})
	}
	for _, et := range []EventType{EventPointerEnter, EventPointerLeave, EventPointerDown, EventPointerUp, EventClick} {
		r.observe("", et, record)
	}
	emit := func(ev EntityEvent) { forwarded = append(forwarded, ev) }

	r.process(a, Vec2{}, false, MouseButtonLeft, emit)
	r.process(a, Vec2{}, true, MouseButtonLeft, emit)
	r.process(b, Vec2{}, true, MouseButtonLeft, emit)
	r.process(b, Vec2{}, false, MouseButtonLeft, emit)
	r.process(nil, Vec2{}, true, MouseButtonRight, emit)
	r.process(nil, Vec2{}, false, MouseButtonRight, emit)

	want := []routed{
		{EventPointerEnter, "a"},
		{EventPointerDown, "a"},
		{EventPointerLeave, "a"},
		{EventPointerEnter, "b"},
		{EventPointerUp, "b"}, // pressed on a, released on b: no click
		{EventPointerLeave, "b"},
		{EventPointerDown, ""},
		{EventPointerUp, ""}, // empty space is never clicked
	}
	if len(seen) != len(want) {
		t.Fatalf("events = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, seen[i], want[i])
		}
	}
	// Only events with a target reach the entity store.
	if len(forwarded) != 6 {
		t.Errorf("forwarded %d events, want 6", len(forwarded))
	}
}

func TestPointerRouterForget(t *testing.T) {
	r := newPointerRouter()
	a := NewThing("a")
	n := 0
	r.observe("a", EventPointerLeave, func(PointerEvent) { n++ })
	r.process(a, Vec2{}, false, MouseButtonLeft, nil)
	r.forget("a")
	r.process(nil, Vec2{}, false, MouseButtonLeft, nil)
	if n != 0 {
		t.Errorf("leave fired %d times for a forgotten entity", n)
	}
}

func TestPressedButtonPriority(t *testing.T) {
	in := newFakeInput()
	if _, ok := pressedButton(in); ok {
		t.Error("nothing pressed")
	}
	in.buttons[MouseButtonMiddle] = true
	in.buttons[MouseButtonRight] = true
	if b, ok := pressedButton(in); !ok || b != MouseButtonRight {
		t.Errorf("pressedButton = %v, %v; want right", b, ok)
	}
}
