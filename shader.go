package grove

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// LitShaderSource is the Kage program behind LitMaterial. Each fragment is
// the texture sample times the vertex color, modulated by the ambient color
// plus the sum of every light whose radius covers it. Empty slots have a
// zero scale and contribute nothing.
//
// Uniforms: AmbientColor vec4, Colors [50]vec4, Positions [50]vec2 (target
// pixels), Scales [50]float.
const LitShaderSource = `//kage:unit pixels
package main

var AmbientColor vec4
var Colors [50]vec4
var Positions [50]vec2
var Scales [50]float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src) * color
	if c.a == 0 {
		return vec4(0)
	}
	light := AmbientColor.rgb * AmbientColor.a
	for i := 0; i < 50; i++ {
		radius := Scales[i] * 50.0
		if radius > 0 {
			d := distance(dst.xy, Positions[i])
			f := clamp(1.0-d/radius, 0.0, 1.0)
			light += Colors[i].rgb * Colors[i].a * f * f
		}
	}
	light = clamp(light, vec3(0), vec3(1))
	// c is premultiplied, scaling rgb keeps it so.
	return vec4(c.rgb*light, c.a)
}
`

var litShader *ebiten.Shader

func ensureLitShader() (*ebiten.Shader, error) {
	if litShader == nil {
		s, err := ebiten.NewShader([]byte(LitShaderSource))
		if err != nil {
			return nil, fmt.Errorf("grove: compile lit shader: %w", err)
		}
		litShader = s
	}
	return litShader, nil
}

// LitMaterial binds the lit shader to a uniform map. It implements
// ShaderSink, so a LightAggregator uploads straight into it.
type LitMaterial struct {
	shader   *ebiten.Shader
	uniforms map[string]any

	// persistent buffers to avoid per-frame slice escape
	ambient   [4]float32
	colors    [MaxLights * 4]float32
	positions [MaxLights * 2]float32
	scales    [MaxLights]float32
}

// NewLitMaterial compiles the lit shader on first use and returns a material
// with every light slot zeroed.
func NewLitMaterial() (*LitMaterial, error) {
	s, err := ensureLitShader()
	if err != nil {
		return nil, err
	}
	return newLitMaterial(s), nil
}

func newLitMaterial(s *ebiten.Shader) *LitMaterial {
	m := &LitMaterial{
		shader:   s,
		uniforms: make(map[string]any, 4),
	}
	m.uniforms[UniformAmbientColor] = m.ambient[:]
	m.uniforms[UniformColors] = m.colors[:]
	m.uniforms[UniformPositions] = m.positions[:]
	m.uniforms[UniformScales] = m.scales[:]
	return m
}

// SetColor stores a vec4 uniform.
func (m *LitMaterial) SetColor(name string, c Color) {
	if name == UniformAmbientColor {
		putColor(m.ambient[:], c)
		return
	}
	buf := make([]float32, 4)
	putColor(buf, c)
	m.uniforms[name] = buf
}

// SetColorArray stores a vec4 array uniform.
func (m *LitMaterial) SetColorArray(name string, cs []Color) {
	buf := m.colors[:]
	if name != UniformColors || len(cs) > MaxLights {
		buf = make([]float32, len(cs)*4)
	}
	clear(buf)
	for i, c := range cs {
		putColor(buf[i*4:], c)
	}
	m.uniforms[name] = buf
}

// SetVec2Array stores a vec2 array uniform.
func (m *LitMaterial) SetVec2Array(name string, vs []Vec2) {
	buf := m.positions[:]
	if name != UniformPositions || len(vs) > MaxLights {
		buf = make([]float32, len(vs)*2)
	}
	clear(buf)
	for i, v := range vs {
		buf[i*2] = float32(v.X)
		buf[i*2+1] = float32(v.Y)
	}
	m.uniforms[name] = buf
}

// SetFloatArray stores a float array uniform.
func (m *LitMaterial) SetFloatArray(name string, fs []float64) {
	buf := m.scales[:]
	if name != UniformScales || len(fs) > MaxLights {
		buf = make([]float32, len(fs))
	}
	clear(buf)
	for i, f := range fs {
		buf[i] = float32(f)
	}
	m.uniforms[name] = buf
}

// Uniform returns the stored value for name, or nil.
func (m *LitMaterial) Uniform(name string) any {
	return m.uniforms[name]
}

// Material returns a Material drawing tex through the lit shader.
func (m *LitMaterial) Material(tex *ebiten.Image, blend BlendMode) Material {
	return Material{Texture: tex, Shader: m.shader, Uniforms: m.uniforms, Blend: blend}
}

func putColor(dst []float32, c Color) {
	dst[0] = float32(c.R)
	dst[1] = float32(c.G)
	dst[2] = float32(c.B)
	dst[3] = float32(c.A)
}
