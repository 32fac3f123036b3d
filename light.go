package grove

import (
	"fmt"
	"math"
	"slices"
)

const (
	// MaxLights is the number of slots in the light arrays. The lit shader
	// declares its uniform arrays with this length.
	MaxLights = 50

	// LightSize is the diameter in world units of a light at scale 1.
	LightSize = 100.0
)

// DefaultLightColor is white at roughly 20% intensity.
var DefaultLightColor = RGB8(255, 255, 255, 50)

// Light is a point light entity. Its world position and world scale come from
// its node; Color.A is the intensity. Lights are created through
// Engine.NewLight, which also claims an aggregator slot.
type Light struct {
	Thing

	// Color is the light tint. Alpha scales the intensity.
	Color Color

	agg *LightAggregator
}

// Slot returns the light's index in the aggregator arrays, or -1 if the
// light is not registered.
func (l *Light) Slot() int {
	if l.agg == nil {
		return -1
	}
	return l.agg.Slot(l)
}

// OnDestroy frees the light's slot.
func (l *Light) OnDestroy() {
	if l.agg != nil {
		l.agg.Release(l)
	}
}

// HitTest reports whether p lies inside the light's square footprint.
func (l *Light) HitTest(p Vec2) bool {
	local := l.node.WorldToLocal(p)
	const half = LightSize / 2
	return local.X >= -half && local.X <= half && local.Y >= -half && local.Y <= half
}

// ShaderSink accepts named uniform uploads for a shader.
type ShaderSink interface {
	SetColor(name string, c Color)
	SetColorArray(name string, cs []Color)
	SetVec2Array(name string, vs []Vec2)
	SetFloatArray(name string, fs []float64)
}

// Uniform names pushed by LightAggregator.Upload.
const (
	UniformAmbientColor = "AmbientColor"
	UniformColors       = "Colors"
	UniformPositions    = "Positions"
	UniformScales       = "Scales"
)

// LightAggregator packs up to MaxLights lights into parallel arrays of
// position, color and scale for the lit shader. Slots follow registration
// order and are compacted when a light is released; unused slots are always
// zero so the shader never reads a removed light.
type LightAggregator struct {
	// Ambient is the base light color applied everywhere.
	Ambient Color
	// FlipY mirrors uploaded positions vertically, for shaders whose pixel
	// origin is the bottom-left corner of the target.
	FlipY bool

	lights    []*Light
	positions [MaxLights]Vec2
	colors    [MaxLights]Color
	scales    [MaxLights]float64

	// Upload scratch, kept to avoid per-frame allocation.
	pixelPos   [MaxLights]Vec2
	pixelScale [MaxLights]float64

	log Logger
}

// NewLightAggregator creates an empty aggregator. Capacity violations are
// reported to log.
func NewLightAggregator(log Logger) *LightAggregator {
	if log == nil {
		log = NewNopLogger()
	}
	return &LightAggregator{
		Ambient: RGB8(50, 50, 50, 255),
		log:     log,
	}
}

// Register claims the next slot for l. When all MaxLights slots are taken
// the light is refused with ErrCapacityExceeded and the arrays are untouched.
func (a *LightAggregator) Register(l *Light) error {
	if slices.Contains(a.lights, l) {
		return nil
	}
	if len(a.lights) >= MaxLights {
		a.log.Errorf("cannot create light %q: only up to %d lights are allowed", l.id, MaxLights)
		return fmt.Errorf("grove: register light %q: %w", l.id, ErrCapacityExceeded)
	}
	l.agg = a
	a.lights = append(a.lights, l)
	a.write(len(a.lights)-1, l)
	return nil
}

// Release removes l, shifts later lights down one slot and zeroes the freed
// tail slot. No-op for lights that are not registered.
func (a *LightAggregator) Release(l *Light) {
	i := slices.Index(a.lights, l)
	if i < 0 {
		return
	}
	a.lights = slices.Delete(a.lights, i, i+1)
	copy(a.positions[i:], a.positions[i+1:])
	copy(a.colors[i:], a.colors[i+1:])
	copy(a.scales[i:], a.scales[i+1:])
	last := len(a.lights)
	a.positions[last] = Vec2{}
	a.colors[last] = Color{}
	a.scales[last] = 0
	l.agg = nil
}

// Slot returns l's array index, or -1.
func (a *LightAggregator) Slot(l *Light) int {
	return slices.Index(a.lights, l)
}

// Len returns the number of registered lights.
func (a *LightAggregator) Len() int {
	return len(a.lights)
}

// Lights returns the registered lights in slot order. The returned slice
// MUST NOT be mutated.
func (a *LightAggregator) Lights() []*Light {
	return a.lights
}

// Refresh recomputes every slot from the lights' live transforms.
func (a *LightAggregator) Refresh() {
	for i, l := range a.lights {
		a.write(i, l)
	}
}

func (a *LightAggregator) write(i int, l *Light) {
	a.positions[i] = l.node.WorldPosition()
	a.colors[i] = l.Color
	a.scales[i] = l.node.WorldScale()
}

// Upload refreshes the arrays, maps positions into cam's pixel space and
// pushes ambient color, colors, positions and scales to sink. Scales are
// divided by the camera's world scale so falloff follows zoom. The mapping
// is derived from the camera on every call, never cached.
func (a *LightAggregator) Upload(sink ShaderSink, cam *Camera) {
	view := identityTransform
	zoom := 1.0
	h := 0.0
	if cam != nil {
		view = cam.ViewTransform()
		if z := cam.node.WorldScale(); z > 1e-12 {
			zoom = z
		}
		_, th := cam.Resolution()
		h = float64(th)
	}
	a.upload(sink, view, zoom, h)
}

// UploadOutput is Upload for a w×h surface that shows cam's target stretched
// to fit, as the output surface shows the primary camera. Lights drawn there
// land where cam puts them on screen.
func (a *LightAggregator) UploadOutput(sink ShaderSink, cam *Camera, w, h int) {
	if cam == nil {
		a.Upload(sink, nil)
		return
	}
	pw, ph := cam.Resolution()
	sx, sy := float64(w)/float64(pw), float64(h)/float64(ph)
	view := multiplyAffine([6]float64{sx, 0, 0, sy, 0, 0}, cam.ViewTransform())
	zoom := 1.0
	if z := cam.node.WorldScale(); z > 1e-12 {
		zoom = z
	}
	if s := math.Sqrt(sx * sy); s > 1e-12 {
		zoom /= s
	}
	a.upload(sink, view, zoom, float64(h))
}

func (a *LightAggregator) upload(sink ShaderSink, view [6]float64, zoom, h float64) {
	a.Refresh()

	n := len(a.lights)
	for i := 0; i < MaxLights; i++ {
		if i >= n {
			a.pixelPos[i] = Vec2{}
			a.pixelScale[i] = 0
			continue
		}
		x, y := transformPoint(view, a.positions[i].X, a.positions[i].Y)
		if a.FlipY {
			y = h - y
		}
		a.pixelPos[i] = Vec2{x, y}
		a.pixelScale[i] = a.scales[i] / zoom
	}

	sink.SetColor(UniformAmbientColor, a.Ambient)
	sink.SetColorArray(UniformColors, a.colors[:])
	sink.SetVec2Array(UniformPositions, a.pixelPos[:])
	sink.SetFloatArray(UniformScales, a.pixelScale[:])
}

// Positions returns a copy of the world-space position array.
func (a *LightAggregator) Positions() [MaxLights]Vec2 { return a.positions }

// Colors returns a copy of the color array.
func (a *LightAggregator) Colors() [MaxLights]Color { return a.colors }

// Scales returns a copy of the scale array.
func (a *LightAggregator) Scales() [MaxLights]float64 { return a.scales }
