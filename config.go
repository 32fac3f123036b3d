package grove

// Config configures an Engine. Start from DefaultConfig and override fields.
type Config struct {
	// PrimaryWidth and PrimaryHeight size the primary camera's target.
	PrimaryWidth, PrimaryHeight int
	// Background clears the primary target each frame.
	Background Color
	// Ambient is the light aggregator's ambient color.
	Ambient Color
	// Logger receives diagnostics. Nil selects a DefaultLogger.
	Logger Logger
	// Debug enables node sanity checks and per-frame stats at debug level.
	Debug bool
	// TargetFactory allocates camera targets. Nil selects RenderTexture.
	TargetFactory TargetFactory
	// Input is polled at the start of every frame. Nil selects EbitenInput.
	Input InputSource
	// Assets resolves texture and shader keys. Nil selects the engine's own
	// AssetCache, which the background loader fills.
	Assets AssetProvider
	// Clock times frames. Nil selects a wall clock.
	Clock *Clock
	// LoaderQueue bounds the background asset loader's request and result
	// channels.
	LoaderQueue int
}

// DefaultConfig returns a 1280x720 primary camera on a black background.
func DefaultConfig() Config {
	return Config{
		PrimaryWidth:  1280,
		PrimaryHeight: 720,
		Background:    ColorBlack,
		Ambient:       RGB8(50, 50, 50, 255),
		LoaderQueue:   16,
	}
}

// RunConfig configures the window Run opens.
type RunConfig struct {
	Title string
	// Width and Height are the window and output surface size.
	Width, Height int
	// FrameRate caps frames per second.
	FrameRate int
	VSync     bool
	Resizable bool
}

// DefaultRunConfig returns a 1280x720 window capped at 120 frames per second.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Title:     "grove",
		Width:     1280,
		Height:    720,
		FrameRate: 120,
		VSync:     true,
	}
}
