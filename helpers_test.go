package grove

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertVec(t *testing.T, name string, got, want Vec2) {
	t.Helper()
	if math.Abs(got.X-want.X) > 1e-6 || math.Abs(got.Y-want.Y) > 1e-6 {
		t.Errorf("%s = (%v, %v), want (%v, %v)", name, got.X, got.Y, want.X, want.Y)
	}
}

func assertMatrix(t *testing.T, name string, got, want [6]float64) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

// angleNear compares angles in degrees modulo 360.
func angleNear(a, b float64) bool {
	d := math.Mod(math.Abs(a-b), 360)
	return d < 1e-6 || 360-d < 1e-6
}

// --- Recording render target ---

type recorder struct {
	calls []string
}

func (r *recorder) add(s string) {
	if r != nil {
		r.calls = append(r.calls, s)
	}
}

type fakeDraw struct {
	verts []Vertex
	kind  Primitive
	mat   Material
	// uniforms holds the float32 uniform values as they were at draw time.
	uniforms map[string][]float32
}

type fakeTarget struct {
	name     string
	w, h     int
	img      *ebiten.Image
	rec      *recorder
	clears   []Color
	draws    []fakeDraw
	displays int
	disposed bool
}

func newFakeTarget(name string, w, h int, rec *recorder) *fakeTarget {
	return &fakeTarget{name: name, w: w, h: h, img: ebiten.NewImage(w, h), rec: rec}
}

func (f *fakeTarget) Clear(c Color) {
	f.clears = append(f.clears, c)
	f.draws = f.draws[:0]
	f.rec.add(f.name + ":clear")
}

func (f *fakeTarget) Draw(v []Vertex, kind Primitive, mat Material) {
	cp := make([]Vertex, len(v))
	copy(cp, v)
	var uniforms map[string][]float32
	if mat.Uniforms != nil {
		uniforms = make(map[string][]float32, len(mat.Uniforms))
		for k, u := range mat.Uniforms {
			if fs, ok := u.([]float32); ok {
				uniforms[k] = append([]float32(nil), fs...)
			}
		}
	}
	f.draws = append(f.draws, fakeDraw{verts: cp, kind: kind, mat: mat, uniforms: uniforms})
	f.rec.add(f.name + ":draw")
}

func (f *fakeTarget) Display() {
	f.displays++
	f.rec.add(f.name + ":display")
}

func (f *fakeTarget) Size() (int, int)     { return f.w, f.h }
func (f *fakeTarget) Image() *ebiten.Image { return f.img }
func (f *fakeTarget) Dispose()             { f.disposed = true }

// fakeFactory hands out recording targets named target0, target1, ...
type fakeFactory struct {
	rec     *recorder
	targets []*fakeTarget
}

func (ff *fakeFactory) make(w, h int) RenderTarget {
	t := newFakeTarget(fmt.Sprintf("target%d", len(ff.targets)), w, h, ff.rec)
	ff.targets = append(ff.targets, t)
	return t
}

// --- Input ---

type fakeInput struct {
	cursor  Vec2
	buttons map[MouseButton]bool
	keys    map[ebiten.Key]bool
	polls   int
	rec     *recorder
}

func newFakeInput() *fakeInput {
	return &fakeInput{buttons: map[MouseButton]bool{}, keys: map[ebiten.Key]bool{}}
}

func (in *fakeInput) Poll() {
	in.polls++
	in.rec.add("input:poll")
}

func (in *fakeInput) Cursor() Vec2                     { return in.cursor }
func (in *fakeInput) ButtonPressed(b MouseButton) bool { return in.buttons[b] }
func (in *fakeInput) KeyPressed(k ebiten.Key) bool     { return in.keys[k] }

// --- Logger ---

type logEntry struct {
	level string
	msg   string
}

type testLogger struct {
	mu      sync.Mutex
	debug   bool
	entries []logEntry
}

func (l *testLogger) DebugEnabled() bool { return l.debug }
func (l *testLogger) SetDebug(b bool)    { l.debug = b }

func (l *testLogger) log(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: fmt.Sprintf(format, args...)})
}

func (l *testLogger) Debugf(format string, args ...any) {
	if l.debug {
		l.log("debug", format, args...)
	}
}
func (l *testLogger) Infof(format string, args ...any)  { l.log("info", format, args...) }
func (l *testLogger) Warnf(format string, args ...any)  { l.log("warn", format, args...) }
func (l *testLogger) Errorf(format string, args ...any) { l.log("error", format, args...) }

func (l *testLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level {
			n++
		}
	}
	return n
}

// --- Engine harness ---

type harness struct {
	e       *Engine
	rec     *recorder
	factory *fakeFactory
	input   *fakeInput
	log     *testLogger
	out     *fakeTarget
}

func newHarness(t *testing.T, w, h int) *harness {
	t.Helper()
	rec := &recorder{}
	ff := &fakeFactory{rec: rec}
	in := newFakeInput()
	lg := &testLogger{}
	cfg := DefaultConfig()
	cfg.PrimaryWidth, cfg.PrimaryHeight = w, h
	cfg.TargetFactory = ff.make
	cfg.Input = in
	cfg.Logger = lg
	cfg.Clock = NewFixedClock(time.Second / 60)
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	ff.targets[0].name = "main"
	return &harness{
		e:       e,
		rec:     rec,
		factory: ff,
		input:   in,
		log:     lg,
		out:     newFakeTarget("out", w, h, rec),
	}
}

func (h *harness) mainTarget() *fakeTarget {
	return h.e.PrimaryCamera().Target().(*fakeTarget)
}

func (h *harness) frame() {
	h.e.Frame(h.out)
}
