package grove

import (
	"errors"
	"math"
	"testing"

	"github.com/tanema/gween/ease"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func testCamera(t *testing.T, w, h int) *Camera {
	t.Helper()
	ff := &fakeFactory{}
	cam, err := newCamera("cam", w, h, ff.make, []string{"main"})
	if err != nil {
		t.Fatal(err)
	}
	return cam
}

func TestCameraInvalidResolution(t *testing.T) {
	for _, size := range [][2]int{{0, 10}, {10, 0}, {-1, -1}} {
		_, err := newCamera("bad", size[0], size[1], nil, nil)
		if !errors.Is(err, ErrInvalidResolution) {
			t.Errorf("newCamera(%v) = %v, want ErrInvalidResolution", size, err)
		}
	}
}

func TestCameraIdentityView(t *testing.T) {
	cam := testCamera(t, 800, 600)
	p := cam.WorldToPixel(Vec2{})
	if !approxEqual(p.X, 400, epsilon) || !approxEqual(p.Y, 300, epsilon) {
		t.Errorf("WorldToPixel(0,0) = %v, want (400,300)", p)
	}
}

func TestCameraTranslation(t *testing.T) {
	cam := testCamera(t, 800, 600)
	cam.Node().SetLocalPosition(Vec2{100, 50})
	assertVec(t, "center", cam.WorldToPixel(Vec2{100, 50}), Vec2{400, 300})
	assertVec(t, "offset", cam.WorldToPixel(Vec2{110, 50}), Vec2{410, 300})
}

func TestCameraZoomOut(t *testing.T) {
	cam := testCamera(t, 800, 600)
	cam.Node().SetLocalScale(2)
	assertVec(t, "zoomed", cam.WorldToPixel(Vec2{100, 0}), Vec2{450, 300})
}

func TestCameraRotation(t *testing.T) {
	cam := testCamera(t, 800, 600)
	cam.Node().SetLocalRotation(90)
	// A camera turned 90° sees the world turned -90°: +Y world maps to +X pixels.
	assertVec(t, "rotated", cam.WorldToPixel(Vec2{0, 10}), Vec2{410, 300})
}

func TestCameraPixelToWorldRoundTrip(t *testing.T) {
	cam := testCamera(t, 640, 480)
	cam.Node().SetLocal(Vec2{-30, 75}, 33, 1.7)
	w := Vec2{12.5, -8}
	assertVec(t, "round trip", cam.PixelToWorld(cam.WorldToPixel(w)), w)
}

func TestCameraVisibleBounds(t *testing.T) {
	cam := testCamera(t, 800, 600)
	cam.Node().SetLocal(Vec2{100, 100}, 0, 0.5)
	b := cam.VisibleBounds()
	assertNear(t, "x", b.X, -100)
	assertNear(t, "y", b.Y, -50)
	assertNear(t, "w", b.Width, 400)
	assertNear(t, "h", b.Height, 300)
}

func TestCameraResizeUsesFactory(t *testing.T) {
	ff := &fakeFactory{}
	cam, err := newCamera("cam", 100, 100, ff.make, nil)
	if err != nil {
		t.Fatal(err)
	}
	old := cam.Target().(*fakeTarget)

	if err := cam.Resize(320, 240); err != nil {
		t.Fatal(err)
	}
	if !old.disposed {
		t.Error("old target should be disposed")
	}
	if len(ff.targets) != 2 {
		t.Fatalf("factory calls = %d, want 2", len(ff.targets))
	}
	if w, h := cam.Target().Size(); w != 320 || h != 240 {
		t.Errorf("target size = %dx%d, want 320x240", w, h)
	}
	assertVec(t, "center", cam.WorldToPixel(Vec2{}), Vec2{160, 120})

	if err := cam.Resize(0, 240); !errors.Is(err, ErrInvalidResolution) {
		t.Errorf("Resize(0, 240) = %v", err)
	}
	if err := cam.Resize(320, 240); err != nil || len(ff.targets) != 2 {
		t.Error("same-size Resize should not reallocate")
	}
}

func TestCameraFollow(t *testing.T) {
	cam := testCamera(t, 800, 600)
	target := NewNode("target")
	target.SetLocalPosition(Vec2{100, 40})

	cam.Follow(target, Vec2{10, 0}, 0.5)
	cam.update(1.0 / 60)
	assertVec(t, "half way", cam.Node().WorldPosition(), Vec2{55, 20})

	cam.Follow(target, Vec2{}, 1)
	cam.update(1.0 / 60)
	assertVec(t, "snapped", cam.Node().WorldPosition(), Vec2{100, 40})

	cam.Unfollow()
	target.SetLocalPosition(Vec2{0, 0})
	cam.update(1.0 / 60)
	assertVec(t, "stays", cam.Node().WorldPosition(), Vec2{100, 40})
}

func TestCameraScrollTo(t *testing.T) {
	cam := testCamera(t, 800, 600)
	cam.ScrollTo(Vec2{200, 100}, 1, ease.Linear)
	if !cam.Scrolling() {
		t.Fatal("Scrolling = false")
	}
	cam.update(0.5)
	p := cam.Node().WorldPosition()
	if !approxEqual(p.X, 100, 1e-3) || !approxEqual(p.Y, 50, 1e-3) {
		t.Errorf("half way = %v, want (100,50)", p)
	}
	cam.update(0.6)
	if cam.Scrolling() {
		t.Error("scroll should be finished")
	}
	p = cam.Node().WorldPosition()
	if !approxEqual(p.X, 200, 1e-3) || !approxEqual(p.Y, 100, 1e-3) {
		t.Errorf("end = %v, want (200,100)", p)
	}
}

func TestCameraBoundsClamp(t *testing.T) {
	cam := testCamera(t, 100, 100)
	cam.SetBounds(Rect{X: 0, Y: 0, Width: 1000, Height: 1000})
	cam.Node().SetLocalPosition(Vec2{-500, 2000})
	cam.update(0)
	assertVec(t, "clamped", cam.Node().WorldPosition(), Vec2{50, 950})

	cam.ClearBounds()
	cam.Node().SetLocalPosition(Vec2{-500, 0})
	cam.update(0)
	assertVec(t, "free", cam.Node().WorldPosition(), Vec2{-500, 0})
}

func TestCameraFollowsParent(t *testing.T) {
	cam := testCamera(t, 200, 200)
	rig := NewNode("rig")
	if err := cam.Node().SetParent(rig); err != nil {
		t.Fatal(err)
	}
	rig.SetLocalPosition(Vec2{30, 0})
	assertVec(t, "view follows rig", cam.WorldToPixel(Vec2{30, 0}), Vec2{100, 100})
}

func TestCameraDestroyReleasesTarget(t *testing.T) {
	cam := testCamera(t, 64, 64)
	tgt := cam.Target().(*fakeTarget)
	cam.OnDestroy()
	if !tgt.disposed || cam.Target() != nil {
		t.Error("OnDestroy should dispose and drop the target")
	}
}
