package grove

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sinkRecorder captures uploads.
type sinkRecorder struct {
	colors    map[string]Color
	colorArr  map[string][]Color
	vecArr    map[string][]Vec2
	floatArr  map[string][]float64
	callCount int
}

func newSinkRecorder() *sinkRecorder {
	return &sinkRecorder{
		colors:   map[string]Color{},
		colorArr: map[string][]Color{},
		vecArr:   map[string][]Vec2{},
		floatArr: map[string][]float64{},
	}
}

func (s *sinkRecorder) SetColor(name string, c Color) { s.colors[name] = c; s.callCount++ }
func (s *sinkRecorder) SetColorArray(name string, cs []Color) {
	s.colorArr[name] = append([]Color(nil), cs...)
	s.callCount++
}
func (s *sinkRecorder) SetVec2Array(name string, vs []Vec2) {
	s.vecArr[name] = append([]Vec2(nil), vs...)
	s.callCount++
}
func (s *sinkRecorder) SetFloatArray(name string, fs []float64) {
	s.floatArr[name] = append([]float64(nil), fs...)
	s.callCount++
}

func newTestLight(id string, pos Vec2, c Color) *Light {
	l := &Light{Thing: MakeThing(id), Color: c}
	l.node.SetLocalPosition(pos)
	return l
}

func TestLightAggregatorCapacity(t *testing.T) {
	lg := &testLogger{}
	agg := NewLightAggregator(lg)
	for i := 0; i < MaxLights; i++ {
		l := newTestLight(fmt.Sprintf("l%d", i), Vec2{float64(i), 0}, DefaultLightColor)
		require.NoError(t, agg.Register(l))
	}
	before := agg.Positions()

	extra := newTestLight("extra", Vec2{999, 999}, ColorWhite)
	err := agg.Register(extra)
	require.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 1, lg.count("error"))
	assert.Equal(t, MaxLights, agg.Len())
	assert.Equal(t, -1, extra.Slot())
	assert.Equal(t, before, agg.Positions())

	agg.Refresh()
	for i, p := range agg.Positions() {
		assert.Equal(t, Vec2{float64(i), 0}, p)
	}
}

func TestLightAggregatorSlotsFollowRegistration(t *testing.T) {
	agg := NewLightAggregator(nil)
	a := newTestLight("a", Vec2{1, 1}, ColorWhite)
	b := newTestLight("b", Vec2{2, 2}, ColorWhite)
	require.NoError(t, agg.Register(a))
	require.NoError(t, agg.Register(b))
	require.NoError(t, agg.Register(a), "registering twice is a no-op")

	assert.Equal(t, 0, a.Slot())
	assert.Equal(t, 1, b.Slot())
	assert.Equal(t, 2, agg.Len())
}

func TestLightReleaseClearsSlot(t *testing.T) {
	agg := NewLightAggregator(nil)
	a := newTestLight("a", Vec2{10, 0}, RGB8(255, 0, 0, 255))
	b := newTestLight("b", Vec2{20, 0}, RGB8(0, 255, 0, 255))
	c := newTestLight("c", Vec2{30, 0}, RGB8(0, 0, 255, 255))
	for _, l := range []*Light{a, b, c} {
		require.NoError(t, agg.Register(l))
	}

	// Release the last: its slot is zeroed.
	c.OnDestroy()
	agg.Refresh()
	assert.Equal(t, Vec2{}, agg.Positions()[2])
	assert.Equal(t, Color{}, agg.Colors()[2])
	assert.Zero(t, agg.Scales()[2])

	// Release the first: b moves down and the tail is zeroed.
	agg.Release(a)
	agg.Refresh()
	assert.Equal(t, 0, b.Slot())
	assert.Equal(t, Vec2{20, 0}, agg.Positions()[0])
	assert.Equal(t, Vec2{}, agg.Positions()[1])
	assert.Equal(t, Color{}, agg.Colors()[1])
	assert.Zero(t, agg.Scales()[1])
	assert.Equal(t, 1, agg.Len())
}

func TestLightRefreshTracksTransforms(t *testing.T) {
	agg := NewLightAggregator(nil)
	parent := NewNode("parent")
	l := newTestLight("l", Vec2{5, 0}, ColorWhite)
	require.NoError(t, l.Node().SetParent(parent))
	require.NoError(t, agg.Register(l))

	parent.SetLocal(Vec2{100, 0}, 0, 3)
	l.Color = DefaultLightColor
	agg.Refresh()

	assert.InDelta(t, 105, agg.Positions()[0].X, 1e-9)
	assert.InDelta(t, 3, agg.Scales()[0], 1e-9)
	assert.Equal(t, DefaultLightColor, agg.Colors()[0])
}

func TestLightUploadMapsIntoCamera(t *testing.T) {
	cam, err := newCamera("cam", 200, 100, nil, nil)
	require.NoError(t, err)
	cam.node.SetLocal(Vec2{50, 50}, 0, 2)

	agg := NewLightAggregator(nil)
	agg.Ambient = RGB8(10, 20, 30, 255)
	l := newTestLight("l", Vec2{70, 50}, ColorWhite)
	l.node.SetLocalScale(4)
	require.NoError(t, agg.Register(l))

	sink := newSinkRecorder()
	agg.Upload(sink, cam)

	assert.Equal(t, 4, sink.callCount)
	assert.Equal(t, agg.Ambient, sink.colors[UniformAmbientColor])
	require.Len(t, sink.vecArr[UniformPositions], MaxLights)
	require.Len(t, sink.colorArr[UniformColors], MaxLights)
	require.Len(t, sink.floatArr[UniformScales], MaxLights)

	// 20 world units right of a camera zoomed out 2x → 10 pixels right of center.
	assert.InDelta(t, 110, sink.vecArr[UniformPositions][0].X, 1e-9)
	assert.InDelta(t, 50, sink.vecArr[UniformPositions][0].Y, 1e-9)
	assert.InDelta(t, 2, sink.floatArr[UniformScales][0], 1e-9)
	for i := 1; i < MaxLights; i++ {
		assert.Equal(t, Vec2{}, sink.vecArr[UniformPositions][i])
		assert.Zero(t, sink.floatArr[UniformScales][i])
	}

	agg.FlipY = true
	l.node.SetLocalPosition(Vec2{50, 40})
	agg.Upload(sink, cam)
	// 10 units up → 5 pixels above center → y=45, flipped → 55.
	assert.InDelta(t, 55, sink.vecArr[UniformPositions][0].Y, 1e-9)
}

func TestLightUploadFollowsCameraResize(t *testing.T) {
	cam, err := newCamera("cam", 100, 100, nil, nil)
	require.NoError(t, err)
	agg := NewLightAggregator(nil)
	require.NoError(t, agg.Register(newTestLight("l", Vec2{}, ColorWhite)))

	sink := newSinkRecorder()
	agg.Upload(sink, cam)
	assert.Equal(t, Vec2{50, 50}, sink.vecArr[UniformPositions][0])

	require.NoError(t, cam.Resize(300, 200))
	agg.Upload(sink, cam)
	assert.Equal(t, Vec2{150, 100}, sink.vecArr[UniformPositions][0])
}

func TestLightHitTest(t *testing.T) {
	l := newTestLight("l", Vec2{100, 100}, ColorWhite)
	assert.True(t, l.HitTest(Vec2{140, 60}))
	assert.False(t, l.HitTest(Vec2{160, 100}))
}

func TestLitMaterialFlattensUniforms(t *testing.T) {
	m := newLitMaterial(nil)
	agg := NewLightAggregator(nil)
	agg.Ambient = Color{0.1, 0.2, 0.3, 1}
	require.NoError(t, agg.Register(newTestLight("l", Vec2{3, 4}, Color{1, 0.5, 0.25, 0.5})))
	agg.Upload(m, nil)

	assert.Equal(t, []float32{0.1, 0.2, 0.3, 1}, m.Uniform(UniformAmbientColor))
	colors := m.Uniform(UniformColors).([]float32)
	require.Len(t, colors, MaxLights*4)
	assert.Equal(t, []float32{1, 0.5, 0.25, 0.5}, colors[:4])
	assert.Equal(t, []float32{0, 0, 0, 0}, colors[4:8])
	positions := m.Uniform(UniformPositions).([]float32)
	require.Len(t, positions, MaxLights*2)
	assert.Equal(t, []float32{3, 4}, positions[:2])
	scales := m.Uniform(UniformScales).([]float32)
	assert.Equal(t, float32(1), scales[0])

	mat := m.Material(nil, BlendAdd)
	assert.Equal(t, BlendAdd, mat.Blend)
	assert.NotNil(t, mat.Uniforms)
}
