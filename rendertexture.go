package grove

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// Primitive selects how a vertex list is assembled into triangles.
type Primitive uint8

const (
	PrimitiveTriangles   Primitive = iota // every 3 vertices form a triangle
	PrimitiveQuads                        // every 4 vertices (TL, TR, BR, BL) form a quad
	PrimitiveTriangleFan                  // vertex 0 is shared by every triangle
)

// Vertex is a single drawable point. TexCoord is in texture pixels.
type Vertex struct {
	Position Vec2
	Color    Color
	TexCoord Vec2
}

// Material describes how vertices are shaded. A nil Texture draws solid
// vertex colors. A non-nil Shader draws with DrawTrianglesShader using
// Uniforms; Texture is bound as image 0.
type Material struct {
	Texture  *ebiten.Image
	Shader   *ebiten.Shader
	Uniforms map[string]any
	Blend    BlendMode
}

// RenderTarget is a surface visuals draw into. Camera targets and the output
// window both satisfy it.
type RenderTarget interface {
	Clear(c Color)
	Draw(vertices []Vertex, kind Primitive, mat Material)
	// Display finalizes the frame's content so it can be sampled or shown.
	Display()
	Size() (w, h int)
	// Image returns the backing image for use as a texture, or nil if the
	// target cannot be sampled.
	Image() *ebiten.Image
}

// TargetFactory allocates an offscreen render target of the given size.
type TargetFactory func(w, h int) RenderTarget

// RenderTexture is an ebiten-backed RenderTarget. Offscreen textures are
// owned and deallocated by Dispose; wrapped screens are not.
type RenderTexture struct {
	image *ebiten.Image
	w, h  int
	owned bool

	presents int

	verts []ebiten.Vertex // reused scratch buffers
	inds  []uint16
}

// NewRenderTexture creates a persistent offscreen canvas of the given size.
func NewRenderTexture(w, h int) *RenderTexture {
	return &RenderTexture{
		image: ebiten.NewImage(w, h),
		w:     w,
		h:     h,
		owned: true,
	}
}

// newRenderTextureTarget is the default TargetFactory.
func newRenderTextureTarget(w, h int) RenderTarget {
	return NewRenderTexture(w, h)
}

// WrapScreen adapts the image ebiten passes to Draw as a RenderTarget.
func WrapScreen(screen *ebiten.Image) *RenderTexture {
	b := screen.Bounds()
	return &RenderTexture{image: screen, w: b.Dx(), h: b.Dy()}
}

// Image returns the underlying *ebiten.Image for direct manipulation.
func (rt *RenderTexture) Image() *ebiten.Image {
	return rt.image
}

// Size returns the texture size in pixels.
func (rt *RenderTexture) Size() (int, int) {
	return rt.w, rt.h
}

// Clear fills the texture with c. Transparent clears are cheaper.
func (rt *RenderTexture) Clear(c Color) {
	if rt.image == nil {
		return
	}
	if c.A <= 0 {
		rt.image.Clear()
		return
	}
	rt.image.Fill(c.toRGBA())
}

// Display marks the content as final for this frame. Ebiten resolves pending
// draws on read, so this only counts presents.
func (rt *RenderTexture) Display() {
	rt.presents++
}

// Presents returns how many times Display has been called.
func (rt *RenderTexture) Presents() int {
	return rt.presents
}

// Draw assembles vertices into triangles and draws them.
func (rt *RenderTexture) Draw(vertices []Vertex, kind Primitive, mat Material) {
	if rt.image == nil || len(vertices) < 3 {
		return
	}
	rt.inds = appendIndices(rt.inds[:0], len(vertices), kind)
	if len(rt.inds) == 0 {
		return
	}

	tex := mat.Texture
	untextured := tex == nil
	if untextured {
		tex = ensureWhitePixel()
	}

	rt.verts = rt.verts[:0]
	for _, v := range vertices {
		r, g, b, a := v.Color.premultiplied()
		sx, sy := float32(v.TexCoord.X), float32(v.TexCoord.Y)
		if untextured {
			sx, sy = 0.5, 0.5
		}
		rt.verts = append(rt.verts, ebiten.Vertex{
			DstX:   float32(v.Position.X),
			DstY:   float32(v.Position.Y),
			SrcX:   sx,
			SrcY:   sy,
			ColorR: r,
			ColorG: g,
			ColorB: b,
			ColorA: a,
		})
	}

	if mat.Shader != nil {
		var op ebiten.DrawTrianglesShaderOptions
		op.Images[0] = tex
		op.Uniforms = mat.Uniforms
		op.Blend = mat.Blend.EbitenBlend()
		rt.image.DrawTrianglesShader(rt.verts, rt.inds, mat.Shader, &op)
		return
	}
	var op ebiten.DrawTrianglesOptions
	op.Blend = mat.Blend.EbitenBlend()
	op.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	rt.image.DrawTriangles(rt.verts, rt.inds, tex, &op)
}

// Resize reallocates the backing image. Content is discarded. No-op for
// wrapped screens and unchanged sizes.
func (rt *RenderTexture) Resize(w, h int) {
	if !rt.owned || (w == rt.w && h == rt.h) {
		return
	}
	if rt.image != nil {
		rt.image.Deallocate()
	}
	rt.image = ebiten.NewImage(w, h)
	rt.w, rt.h = w, h
}

// Dispose deallocates the underlying image. The RenderTexture should not be
// used after calling Dispose.
func (rt *RenderTexture) Dispose() {
	if rt.image != nil && rt.owned {
		rt.image.Deallocate()
	}
	rt.image = nil
}

// appendIndices appends triangle indices for n vertices of the given kind.
func appendIndices(dst []uint16, n int, kind Primitive) []uint16 {
	switch kind {
	case PrimitiveQuads:
		for i := 0; i+3 < n; i += 4 {
			b := uint16(i)
			dst = append(dst, b, b+1, b+2, b, b+2, b+3)
		}
	case PrimitiveTriangleFan:
		for i := 1; i+1 < n; i++ {
			dst = append(dst, 0, uint16(i), uint16(i+1))
		}
	default:
		for i := 0; i+2 < n; i += 3 {
			dst = append(dst, uint16(i), uint16(i+1), uint16(i+2))
		}
	}
	return dst
}

// --- White pixel singleton (frame goroutine only) ---

var whitePixelImage *ebiten.Image

// ensureWhitePixel returns a lazily-initialized 1x1 white pixel image.
// Used for untextured vertex draws.
func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixelImage
}

// texturedQuad returns the four vertices (TL, TR, BR, BL) covering rect with
// the full w x h texture mapped onto it.
func texturedQuad(rect Rect, texW, texH float64, tint Color) []Vertex {
	return []Vertex{
		{Position: Vec2{rect.X, rect.Y}, Color: tint, TexCoord: Vec2{0, 0}},
		{Position: Vec2{rect.X + rect.Width, rect.Y}, Color: tint, TexCoord: Vec2{texW, 0}},
		{Position: Vec2{rect.X + rect.Width, rect.Y + rect.Height}, Color: tint, TexCoord: Vec2{texW, texH}},
		{Position: Vec2{rect.X, rect.Y + rect.Height}, Color: tint, TexCoord: Vec2{0, texH}},
	}
}
