package grove

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// MainCameraID is the identifier of the primary camera NewEngine creates.
const MainCameraID = "main-camera"

// Scene is the active game state. Start runs when the scene becomes current,
// Update once per frame after drawing, Stop when it is replaced.
type Scene interface {
	Start(e *Engine)
	Update(e *Engine)
	Stop(e *Engine)
}

// System is a per-frame hook run after the scene update (audio, background
// simulation and other collaborators).
type System func(e *Engine)

// Engine owns the registry, cameras, lights and assets, and drives the
// per-frame sequence. It carries all state explicitly; nothing is global.
// An Engine is not safe for concurrent use.
type Engine struct {
	cfg      Config
	log      Logger
	registry *Registry
	primary  *Camera
	lights   *LightAggregator
	lit      *LitMaterial
	litErr   bool
	clock    *Clock
	input    InputSource
	cache    *AssetCache
	assets   AssetProvider
	loader   *AssetLoader
	ctx      context.Context
	cancel   context.CancelFunc
	pointer  *pointerRouter

	scene   Scene
	systems observers[*Engine]
	tweens  []*TweenGroup

	drawBuf   []Drawable
	camsByTag map[string][]*Camera
	outW      int
	outH      int
	stopped   bool
	debugHeld bool
	stats     frameStats
}

// NewEngine creates an engine with a primary camera of
// cfg.PrimaryWidth x cfg.PrimaryHeight registered as MainCameraID and tagged
// MainCameraTag.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = NewDefaultLogger("grove", cfg.Debug)
	}
	if cfg.Debug {
		cfg.Logger.SetDebug(true)
	}
	if cfg.Input == nil {
		cfg.Input = EbitenInput{}
	}
	if cfg.Clock == nil {
		cfg.Clock = NewClock()
	}
	if cfg.LoaderQueue <= 0 {
		cfg.LoaderQueue = DefaultConfig().LoaderQueue
	}
	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		cfg:       cfg,
		log:       cfg.Logger,
		registry:  NewRegistry(),
		lights:    NewLightAggregator(cfg.Logger),
		clock:     cfg.Clock,
		input:     cfg.Input,
		cache:     NewAssetCache(),
		ctx:       ctx,
		cancel:    cancel,
		pointer:   newPointerRouter(),
		camsByTag: make(map[string][]*Camera),
		outW:      cfg.PrimaryWidth,
		outH:      cfg.PrimaryHeight,
	}
	e.lights.Ambient = cfg.Ambient
	e.assets = cfg.Assets
	if e.assets == nil {
		e.assets = e.cache
	}
	e.registry.OnDestroy(func(ent Entity) { e.pointer.forget(ent.ID()) })

	cam, err := e.NewCamera(MainCameraID, cfg.PrimaryWidth, cfg.PrimaryHeight, MainCameraTag)
	if err != nil {
		cancel()
		return nil, err
	}
	cam.primary = true
	e.primary = cam

	if cfg.Debug {
		acquireGlobalDebug(e.log)
		e.debugHeld = true
	}
	return e, nil
}

// Registry returns the entity registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Logger returns the diagnostics sink.
func (e *Engine) Logger() Logger { return e.log }

// Lights returns the light aggregator.
func (e *Engine) Lights() *LightAggregator { return e.lights }

// Clock returns the frame clock.
func (e *Engine) Clock() *Clock { return e.clock }

// Assets returns the engine's asset cache. Background loads land here.
func (e *Engine) Assets() *AssetCache { return e.cache }

// Input returns the input source.
func (e *Engine) Input() InputSource { return e.input }

// PrimaryCamera returns the camera presented to the output surface.
func (e *Engine) PrimaryCamera() *Camera { return e.primary }

// LogError reports a message at the given severity.
func (e *Engine) LogError(sev Severity, msg string) {
	switch sev {
	case SeverityInfo:
		e.log.Infof("%s", msg)
	case SeverityWarning:
		e.log.Warnf("%s", msg)
	default:
		e.log.Errorf("%s", msg)
	}
}

// --- Entities ---

// Create registers a plain spatial entity.
func (e *Engine) Create(id string, tags ...string) (*Thing, error) {
	return e.registry.Create(id, tags...)
}

// Add registers a client entity.
func (e *Engine) Add(ent Entity) error {
	return e.registry.Add(ent)
}

// Destroy removes the entity with the given id. Unknown ids are a no-op.
func (e *Engine) Destroy(id string) error {
	return e.registry.Destroy(id)
}

// NewCamera creates and registers a secondary camera with a w x h target.
// Visuals whose camera-tag is one of tags are drawn into it.
func (e *Engine) NewCamera(id string, w, h int, tags ...string) (*Camera, error) {
	cam, err := newCamera(id, w, h, e.cfg.TargetFactory, tags)
	if err != nil {
		return nil, err
	}
	if err := e.registry.Add(cam); err != nil {
		disposeTarget(cam.target)
		return nil, err
	}
	return cam, nil
}

// SetPrimaryCamera makes cam the camera composited onto the output surface.
// cam must be registered with this engine.
func (e *Engine) SetPrimaryCamera(cam *Camera) error {
	if cam == nil {
		return ErrNoPrimaryCamera
	}
	if got, ok := Lookup[*Camera](e.registry, cam.ID()); !ok || got != cam {
		return fmt.Errorf("grove: set primary camera %q: not registered", cam.ID())
	}
	if e.primary != nil {
		e.primary.primary = false
	}
	cam.primary = true
	e.primary = cam
	return nil
}

// NewLight creates a light, claims an aggregator slot and registers it. At
// MaxLights the light is refused with ErrCapacityExceeded and nothing is
// registered.
func (e *Engine) NewLight(id string, color Color, tags ...string) (*Light, error) {
	if id == "" {
		id = uuid.NewString()
	}
	l := &Light{Thing: MakeThing(id, tags...), Color: color}
	if e.registry.Has(id) {
		return nil, fmt.Errorf("grove: add %q: %w", id, ErrDuplicateIdentifier)
	}
	if err := e.lights.Register(l); err != nil {
		return nil, err
	}
	if err := e.registry.Add(l); err != nil {
		e.lights.Release(l)
		return nil, err
	}
	return l, nil
}

// NewVisual creates and registers a visual drawn by the main camera.
func (e *Engine) NewVisual(id string, tags ...string) (*Visual, error) {
	v := NewVisual(id, tags...)
	if err := e.registry.Add(v); err != nil {
		return nil, err
	}
	return v, nil
}

// NewCameraView creates and registers a view compositing src's texture into
// the cameras tagged cameraTag.
func (e *Engine) NewCameraView(id string, src *Camera, cameraTag string, tags ...string) (*CameraView, error) {
	cv := NewCameraView(id, src, tags...)
	cv.SetCameraTag(cameraTag)
	if err := e.registry.Add(cv); err != nil {
		return nil, err
	}
	return cv, nil
}

// NewOverlay creates and registers an overlay drawn onto the output surface.
func (e *Engine) NewOverlay(id string, tags ...string) (*Overlay, error) {
	o := NewOverlay(id, tags...)
	if err := e.registry.Add(o); err != nil {
		return nil, err
	}
	return o, nil
}

// --- Hooks ---

// SetScene stops the current scene and starts s. A nil s only stops.
func (e *Engine) SetScene(s Scene) {
	if e.scene != nil {
		e.scene.Stop(e)
	}
	e.scene = s
	if s != nil {
		s.Start(e)
	}
}

// CurrentScene returns the active scene, or nil.
func (e *Engine) CurrentScene() Scene { return e.scene }

// AddSystem registers a per-frame hook.
func (e *Engine) AddSystem(fn System) CallbackHandle {
	return e.systems.add(fn)
}

// AddTween runs g every frame until it is done.
func (e *Engine) AddTween(g *TweenGroup) {
	e.tweens = append(e.tweens, g)
}

// Observe registers fn for pointer events of type t on the entity id. An
// empty id observes every pointer event. Observers of destroyed entities are
// dropped.
func (e *Engine) Observe(id string, t EventType, fn func(PointerEvent)) CallbackHandle {
	return e.pointer.observe(id, t, fn)
}

// LoadAsync queues a background load whose result is adopted into Assets
// under key at the start of a later frame. After Close it returns
// ErrLoaderClosed.
func (e *Engine) LoadAsync(key string, load LoadFunc) error {
	if e.ctx.Err() != nil {
		return fmt.Errorf("grove: load %q: %w", key, ErrLoaderClosed)
	}
	if e.loader == nil {
		e.loader = NewAssetLoader(e.ctx, e.cfg.LoaderQueue, e.log)
	}
	return e.loader.Request(key, load)
}

// Stop asks Run to exit after the current frame.
func (e *Engine) Stop() { e.stopped = true }

// Stopped reports whether Stop was called.
func (e *Engine) Stopped() bool { return e.stopped }

// Close stops the current scene and the asset loader.
func (e *Engine) Close() {
	e.SetScene(nil)
	if e.loader != nil {
		e.loader.Close()
	}
	e.cancel()
	if e.debugHeld {
		releaseGlobalDebug(e.log)
		e.debugHeld = false
	}
}

// --- Input ---

// CursorIn maps the cursor into cam's world space. The cursor is scaled from
// the output surface to the primary target, the resolution every camera
// view is composited at.
func (e *Engine) CursorIn(cam *Camera) Vec2 {
	px := e.cursorPixels()
	if cam == nil {
		return px
	}
	return cam.PixelToWorld(px)
}

// cursorPixels returns the cursor in primary-target pixels.
func (e *Engine) cursorPixels() Vec2 {
	c := e.input.Cursor()
	if e.primary == nil || e.outW <= 0 || e.outH <= 0 {
		return c
	}
	pw, ph := e.primary.Resolution()
	return Vec2{c.X * float64(pw) / float64(e.outW), c.Y * float64(ph) / float64(e.outH)}
}

func (e *Engine) dispatchPointer(drawables []Drawable) {
	button, pressed := pressedButton(e.input)
	target, world := e.hitTest(drawables)
	e.pointer.process(target, world, pressed, button, e.registry.emit)
}

// hitTest returns the front-most hit region under the cursor. Overlays are
// tested first in output pixels, then visuals drawn by the primary camera.
func (e *Engine) hitTest(drawables []Drawable) (Entity, Vec2) {
	out := e.input.Cursor()
	for i := len(drawables) - 1; i >= 0; i-- {
		d := drawables[i]
		if _, ok := d.(OutputDrawer); !ok {
			continue
		}
		if h, ok := d.(HitRegion); ok && h.HitTest(out) {
			return d, out
		}
	}
	if e.primary == nil {
		return nil, out
	}
	world := e.CursorIn(e.primary)
	for i := len(drawables) - 1; i >= 0; i-- {
		d := drawables[i]
		if !e.primary.HasTag(d.CameraTag()) {
			continue
		}
		if h, ok := d.(HitRegion); ok && h.HitTest(world) {
			return d, world
		}
	}
	return nil, world
}

// --- Frame ---

// Frame runs one frame and presents it onto out:
//
//  1. poll input, adopt loaded assets, dispatch pointer events
//  2. clear the primary target to the background and the others to transparent
//  3. advance the clock
//  4. refresh lights, then draw every visual except camera samplers into its
//     cameras, back to front
//  5. finalize every non-primary target
//  6. draw camera samplers into their cameras and output drawers onto out
//  7. update the scene, cameras and tweens
//  8. run systems
//  9. composite the primary target beneath out's content and finalize out
func (e *Engine) Frame(out RenderTarget) {
	if out == nil {
		e.log.Errorf("frame %d: no output surface", e.clock.Frame())
		return
	}
	debug := e.cfg.Debug
	var t0 time.Time
	e.stats = frameStats{}
	e.outW, e.outH = out.Size()

	// 1
	if debug {
		t0 = time.Now()
	}
	if p, ok := e.input.(Poller); ok {
		p.Poll()
	}
	if e.loader != nil {
		if c, ok := e.assets.(*AssetCache); ok {
			e.stats.adopted = e.loader.Adopt(c)
		} else {
			e.stats.adopted = e.loader.Adopt(e.cache)
		}
	}
	drawables := e.sortedDrawables()
	e.dispatchPointer(drawables)
	// Pointer observers may destroy entities.
	drawables = slices.DeleteFunc(drawables, func(d Drawable) bool { return !d.thing().alive })
	if debug {
		e.stats.inputTime = time.Since(t0)
	}

	// 2
	cams := e.cameras()
	for _, c := range cams {
		if c.target == nil {
			continue
		}
		if c.primary {
			c.target.Clear(e.cfg.Background)
		} else {
			c.target.Clear(ColorTransparent)
		}
	}
	out.Clear(ColorTransparent)

	// 3
	e.clock.Tick()

	// 4
	if debug {
		t0 = time.Now()
	}
	e.lights.Refresh()
	clear(e.camsByTag)
	for _, d := range drawables {
		if _, ok := d.(CameraSampler); ok {
			continue
		}
		e.drawIntoCameras(d)
	}

	// 5
	for _, c := range cams {
		if !c.primary && c.target != nil {
			c.target.Display()
		}
	}
	if debug {
		e.stats.pass1Time = time.Since(t0)
		t0 = time.Now()
	}

	// 6
	outCtx := DrawContext{Target: out, Primary: e.primary, View: identityTransform, Assets: e.assets, Lights: e.lights}
	for _, d := range drawables {
		if _, ok := d.(CameraSampler); ok {
			e.drawIntoCameras(d)
		}
		if od, ok := d.(OutputDrawer); ok {
			outCtx.Lit = e.litMaterial(d)
			od.DrawOutput(&outCtx)
			e.stats.outputDraws++
		}
	}
	if debug {
		e.stats.pass2Time = time.Since(t0)
		t0 = time.Now()
	}

	// 7
	if e.scene != nil {
		e.scene.Update(e)
	}
	dt := e.clock.DeltaSeconds()
	for _, c := range e.cameras() {
		c.update(dt)
	}
	e.updateTweens(dt)

	// 8
	e.systems.emit(e)
	if debug {
		e.stats.updateTime = time.Since(t0)
	}

	// 9
	e.present(out)

	if debug {
		e.stats.visuals = len(drawables)
		logStats(e.log, e.clock.Frame(), e.stats)
	}
}

// sortedDrawables returns live drawables back to front: higher Depth first,
// ties in creation order.
func (e *Engine) sortedDrawables() []Drawable {
	buf := e.drawBuf[:0]
	e.registry.Each(func(ent Entity) {
		if d, ok := ent.(Drawable); ok {
			buf = append(buf, d)
		}
	})
	slices.SortStableFunc(buf, func(a, b Drawable) int {
		if c := cmp.Compare(b.Depth(), a.Depth()); c != 0 {
			return c
		}
		return cmp.Compare(a.thing().seq, b.thing().seq)
	})
	e.drawBuf = buf
	return buf
}

// cameras returns the registered cameras in creation order.
func (e *Engine) cameras() []*Camera {
	var cams []*Camera
	e.registry.Each(func(ent Entity) {
		if c, ok := ent.(*Camera); ok {
			cams = append(cams, c)
		}
	})
	return cams
}

// camerasForTag resolves the cameras carrying tag through the registry's tag
// index, memoized for the frame.
func (e *Engine) camerasForTag(tag string) []*Camera {
	if cams, ok := e.camsByTag[tag]; ok {
		return cams
	}
	var cams []*Camera
	for _, ent := range e.registry.ByTag(tag) {
		if c, ok := ent.(*Camera); ok && c.target != nil {
			cams = append(cams, c)
		}
	}
	e.camsByTag[tag] = cams
	return cams
}

func (e *Engine) drawIntoCameras(d Drawable) {
	tag := d.CameraTag()
	if tag == "" {
		return
	}
	for _, c := range e.camerasForTag(tag) {
		dc := DrawContext{
			Target: c.target,
			Camera: c,
			View:   c.ViewTransform(),
			Assets: e.assets,
			Lights: e.lights,
			Lit:    e.litMaterial(d),
		}
		d.Draw(&dc)
		e.stats.cameraDraws++
	}
}

// litMaterial returns the shared lit material for drawables that need it.
// A shader that fails to compile is reported once and lit visuals fall back
// to unlit drawing.
func (e *Engine) litMaterial(d Drawable) *LitMaterial {
	v, ok := d.(interface{ isLit() bool })
	if !ok || !v.isLit() {
		return nil
	}
	if e.lit == nil && !e.litErr {
		m, err := NewLitMaterial()
		if err != nil {
			e.litErr = true
			e.log.Errorf("%v", err)
			return nil
		}
		e.lit = m
	}
	return e.lit
}

func (e *Engine) updateTweens(dt float32) {
	if len(e.tweens) == 0 {
		return
	}
	for _, g := range e.tweens {
		g.Update(dt)
	}
	e.tweens = slices.DeleteFunc(e.tweens, func(g *TweenGroup) bool { return g.Done })
}

// present composites the primary target onto out, stretched to out's size and
// beneath anything already drawn there, then finalizes out.
func (e *Engine) present(out RenderTarget) {
	if e.primary != nil && e.primary.target != nil {
		t := e.primary.target
		t.Display()
		if img := t.Image(); img != nil && img != out.Image() {
			pw, ph := e.primary.Resolution()
			ow, oh := out.Size()
			verts := texturedQuad(Rect{Width: float64(ow), Height: float64(oh)}, float64(pw), float64(ph), ColorWhite)
			out.Draw(verts, PrimitiveQuads, Material{Texture: img, Blend: BlendBelow})
		}
	}
	out.Display()
}
