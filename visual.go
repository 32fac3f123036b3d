package grove

import "github.com/hajimehoshi/ebiten/v2"

// MainCameraTag is the tag carried by the primary camera and the default
// camera-tag of new visuals.
const MainCameraTag = "main"

// DrawContext is passed to Drawable.Draw. Camera is nil when drawing onto the
// output surface, in which case View maps world units to output pixels 1:1
// and Primary, when set, places lights where the primary camera shows them.
type DrawContext struct {
	Target  RenderTarget
	Camera  *Camera
	Primary *Camera
	View    [6]float64
	Assets  AssetProvider
	Lights  *LightAggregator
	Lit     *LitMaterial
}

// uploadLights pushes the current lights into dc.Lit in the target's pixel
// space.
func (dc *DrawContext) uploadLights() {
	if dc.Lights == nil || dc.Lit == nil {
		return
	}
	if dc.Camera == nil && dc.Primary != nil {
		w, h := dc.Target.Size()
		dc.Lights.UploadOutput(dc.Lit, dc.Primary, w, h)
		return
	}
	dc.Lights.Upload(dc.Lit, dc.Camera)
}

// Drawable is an entity that renders itself into every camera whose tags
// include its CameraTag. Lower Depth values are drawn later (closer to the
// viewer); ties keep creation order.
type Drawable interface {
	Entity
	Draw(dc *DrawContext)
	CameraTag() string
	Depth() int
}

// CameraSampler is a Drawable whose output reads another camera's texture.
// The engine draws samplers in a second pass, after every non-primary target
// has been finalized.
type CameraSampler interface {
	Drawable
	SampledCamera() *Camera
}

// OutputDrawer draws directly onto the output surface during the second pass.
// Output content lands above the composited primary camera.
type OutputDrawer interface {
	Entity
	DrawOutput(dc *DrawContext)
}

// Visual is a textured or solid quad centered on its node. The quad spans
// Size world units, or the texture's pixel size when Size is zero.
type Visual struct {
	Thing

	// Texture is drawn directly when set.
	Texture *ebiten.Image
	// TextureKey is resolved through the engine's AssetProvider when Texture
	// is nil. A key that resolves to nothing draws nothing.
	TextureKey string
	// Size of the quad in world units.
	Size Vec2
	// Anchor is the normalized point of the quad placed at the node origin.
	Anchor Vec2
	// Color tints the texture, or fills the quad when there is no texture.
	Color Color
	Blend BlendMode
	// Lit routes the draw through the lit shader with the current lights.
	Lit     bool
	Visible bool
	// Hitbox overrides the quad for pointer hit tests.
	Hitbox HitShape

	cameraTag string
	depth     int

	// resolved is the texture used by the last Draw.
	resolved *ebiten.Image
}

// NewVisual creates a visible, white, centered visual drawn by cameras
// tagged MainCameraTag.
func NewVisual(id string, tags ...string) *Visual {
	v := &Visual{}
	v.init(id, tags)
	return v
}

func (v *Visual) init(id string, tags []string) {
	v.Thing = MakeThing(id, tags...)
	v.Anchor = Vec2{0.5, 0.5}
	v.Color = ColorWhite
	v.Visible = true
	v.cameraTag = MainCameraTag
}

// CameraTag returns the tag selecting the cameras that draw this visual.
func (v *Visual) CameraTag() string { return v.cameraTag }

// SetCameraTag changes the camera selection. An empty tag matches no camera.
func (v *Visual) SetCameraTag(tag string) { v.cameraTag = tag }

// Depth returns the draw depth.
func (v *Visual) Depth() int { return v.depth }

// SetDepth sets the draw depth. Higher values are drawn first.
func (v *Visual) SetDepth(d int) { v.depth = d }

func (v *Visual) isLit() bool { return v.Lit }

// Draw renders the quad into dc.Target.
func (v *Visual) Draw(dc *DrawContext) {
	if !v.Visible {
		return
	}
	tex, ok := v.resolveTexture(dc.Assets)
	v.resolved = tex
	if !ok {
		return
	}
	v.drawQuad(dc, tex, v.localRect(tex))
}

func (v *Visual) resolveTexture(assets AssetProvider) (*ebiten.Image, bool) {
	if v.Texture != nil {
		return v.Texture, true
	}
	if v.TextureKey == "" {
		return nil, true
	}
	if assets == nil {
		return nil, false
	}
	tex := assets.Texture(v.TextureKey)
	return tex, tex != nil
}

// quadSize returns the quad's size, falling back to the texture size.
func (v *Visual) quadSize(tex *ebiten.Image) (w, h float64) {
	w, h = v.Size.X, v.Size.Y
	if (w == 0 || h == 0) && tex != nil {
		b := tex.Bounds()
		w, h = float64(b.Dx()), float64(b.Dy())
	}
	return w, h
}

// localRect returns the quad in node-local coordinates.
func (v *Visual) localRect(tex *ebiten.Image) Rect {
	w, h := v.quadSize(tex)
	return Rect{X: -v.Anchor.X * w, Y: -v.Anchor.Y * h, Width: w, Height: h}
}

func (v *Visual) drawQuad(dc *DrawContext, tex *ebiten.Image, r Rect) {
	if r.Width == 0 || r.Height == 0 {
		return
	}
	var tw, th float64
	if tex != nil {
		b := tex.Bounds()
		tw, th = float64(b.Dx()), float64(b.Dy())
	}
	verts := texturedQuad(r, tw, th, v.Color)
	m := multiplyAffine(dc.View, v.node.WorldTransform())
	for i := range verts {
		x, y := transformPoint(m, verts[i].Position.X, verts[i].Position.Y)
		verts[i].Position = Vec2{x, y}
	}

	mat := Material{Texture: tex, Blend: v.Blend}
	if v.Lit && dc.Lit != nil {
		dc.uploadLights()
		mat = dc.Lit.Material(tex, v.Blend)
	}
	dc.Target.Draw(verts, PrimitiveQuads, mat)
}

// HitTest reports whether the world point p falls on the visual. The Hitbox
// is used when set, otherwise the quad as last drawn, so a TextureKey sized
// visual is hit once its texture has resolved.
func (v *Visual) HitTest(p Vec2) bool {
	local := v.node.WorldToLocal(p)
	if v.Hitbox != nil {
		return v.Hitbox.Contains(local.X, local.Y)
	}
	tex := v.Texture
	if tex == nil {
		tex = v.resolved
	}
	return v.localRect(tex).Contains(local.X, local.Y)
}

// CameraView draws the finalized texture of a secondary camera as a quad, so
// the content that camera renders can be composited into another one.
type CameraView struct {
	Visual

	// Source is the camera whose target is sampled.
	Source *Camera
}

// NewCameraView creates a view of src drawn by cameras tagged MainCameraTag.
// The quad defaults to src's resolution.
func NewCameraView(id string, src *Camera, tags ...string) *CameraView {
	cv := &CameraView{Source: src}
	cv.init(id, tags)
	return cv
}

// SampledCamera returns the source camera.
func (cv *CameraView) SampledCamera() *Camera { return cv.Source }

// Draw renders the source camera's texture. A camera never samples itself.
func (cv *CameraView) Draw(dc *DrawContext) {
	if !cv.Visible || cv.Source == nil || cv.Source == dc.Camera {
		return
	}
	t := cv.Source.Target()
	if t == nil || t.Image() == nil {
		return
	}
	if dc.Target.Image() == t.Image() {
		return
	}
	cv.drawQuad(dc, t.Image(), cv.viewRect())
}

// viewRect is the local quad, sized to the source resolution unless Size is set.
func (cv *CameraView) viewRect() Rect {
	w, h := cv.Size.X, cv.Size.Y
	if w == 0 || h == 0 {
		sw, sh := cv.Source.Resolution()
		w, h = float64(sw), float64(sh)
	}
	return Rect{X: -cv.Anchor.X * w, Y: -cv.Anchor.Y * h, Width: w, Height: h}
}

// HitTest tests against the source camera's quad.
func (cv *CameraView) HitTest(p Vec2) bool {
	if cv.Source == nil {
		return false
	}
	local := cv.node.WorldToLocal(p)
	if cv.Hitbox != nil {
		return cv.Hitbox.Contains(local.X, local.Y)
	}
	return cv.viewRect().Contains(local.X, local.Y)
}

// Overlay is a visual drawn straight onto the output surface in output
// pixels, above the composited primary camera. It is not drawn by any camera.
type Overlay struct {
	Visual
}

// NewOverlay creates an overlay.
func NewOverlay(id string, tags ...string) *Overlay {
	o := &Overlay{}
	o.init(id, tags)
	o.cameraTag = ""
	return o
}

// DrawOutput renders the overlay onto the output surface.
func (o *Overlay) DrawOutput(dc *DrawContext) {
	o.Visual.Draw(dc)
}
