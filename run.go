package grove

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// game adapts an Engine to ebiten.Game. Frames run in Update so the tick
// rate caps the whole loop; Draw only presents the finished output.
type game struct {
	e   *Engine
	cfg RunConfig
	out *RenderTexture
}

func (g *game) Update() error {
	if g.e.Stopped() {
		return ebiten.Termination
	}
	g.e.Frame(g.out)
	if g.e.Stopped() {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.DrawImage(g.out.Image(), nil)
}

func (g *game) Layout(_, _ int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}

// Run opens a window and drives e until the window closes or e.Stop is
// called. It closes e before returning.
func Run(e *Engine, cfg RunConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("grove: run %dx%d: %w", cfg.Width, cfg.Height, ErrInvalidResolution)
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = DefaultRunConfig().FrameRate
	}
	defer e.Close()

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetTPS(cfg.FrameRate)
	ebiten.SetVsyncEnabled(cfg.VSync)
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}

	g := &game{e: e, cfg: cfg, out: NewRenderTexture(cfg.Width, cfg.Height)}
	defer g.out.Dispose()

	e.log.Infof("running %q at %dx%d, %d fps", cfg.Title, cfg.Width, cfg.Height, cfg.FrameRate)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("grove: run: %w", err)
	}
	return nil
}
