package ebitenbackend

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/phanxgames/bloom"
)

// RunConfig configures the host window.
type RunConfig struct {
	Title     string
	Width     int // window size in device-independent pixels
	Height    int
	TPS       int  // ticks per second; <= 0 keeps Ebitengine's default
	Resizable bool // resize the stage with the window

	ScreenshotDir string
	ShowFPS       bool
}

// RunConfigFrom derives a RunConfig from the stage section of cfg.
func RunConfigFrom(cfg *bloom.Config) RunConfig {
	return RunConfig{
		Title:     cfg.Stage.Title,
		Width:     cfg.Stage.Width,
		Height:    cfg.Stage.Height,
		TPS:       cfg.Stage.TPS,
		Resizable: true,

		ScreenshotDir: cfg.Stage.ScreenshotDir,
		ShowFPS:       cfg.Stage.Debug,
	}
}

// Runner implements ebiten.Game for a bloom.Game: it forwards mouse and
// touch input to the stage, steps the game once per tick, and draws it.
type Runner struct {
	game     *bloom.Game
	renderer *Renderer
	cfg      RunConfig
	log      *zap.Logger

	scale      float64
	lastX      int
	lastY      int
	touches    []ebiten.TouchID
	activeTID  ebiten.TouchID
	touchDown  bool
	pendingEnd bool

	shots      []string
	fpsElapsed float64
	fpsText    string
}

// NewRunner wraps game for the Ebitengine loop.
func NewRunner(game *bloom.Game, cfg RunConfig) *Runner {
	log := game.Logger().Named("ebiten")
	if cfg.ScreenshotDir == "" {
		cfg.ScreenshotDir = "screenshots"
	}
	r := &Runner{
		game:     game,
		renderer: NewRenderer(log),
		cfg:      cfg,
		log:      log,
		scale:    1,
	}
	game.SetScreenshotHandler(r.Screenshot)
	return r
}

// Renderer returns the runner's renderer.
func (r *Runner) Renderer() *Renderer {
	return r.renderer
}

// Update implements ebiten.Game.
func (r *Runner) Update() error {
	// A tick whose frame was never drawn still owes its cleanup.
	if r.pendingEnd {
		r.game.EndFrame()
	}
	r.processMouse()
	r.processTouch()
	r.game.Update(1 / float64(ebiten.TPS()))
	r.pendingEnd = true
	return nil
}

// Draw implements ebiten.Game.
func (r *Runner) Draw(screen *ebiten.Image) {
	r.renderer.Begin(screen)
	r.game.Draw(r.renderer)
	r.flushScreenshots(screen)
	if r.cfg.ShowFPS {
		r.drawFPS(screen)
	}
	if r.pendingEnd {
		r.game.EndFrame()
		r.pendingEnd = false
	}
}

// Layout implements ebiten.Game. Ebitengine prefers LayoutF when present.
func (r *Runner) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := r.LayoutF(float64(outsideWidth), float64(outsideHeight))
	return int(w), int(h)
}

// LayoutF implements ebiten.LayoutFer. The stage keeps device-independent
// dimensions; the screen is sized in device pixels and the stage scale
// bridges the two.
func (r *Runner) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	scale := ebiten.Monitor().DeviceScaleFactor()
	if scale <= 0 {
		scale = 1
	}
	if scale != r.scale {
		r.scale = scale
		r.game.Stage().SetScale(scale)
	}
	w, h := outsideWidth, outsideHeight
	if !r.cfg.Resizable {
		w, h = float64(r.cfg.Width), float64(r.cfg.Height)
	}
	r.game.Resize(w, h)
	return w * scale, h * scale
}

func (r *Runner) toStage(x, y int) (float64, float64) {
	return float64(x) / r.scale, float64(y) / r.scale
}

func (r *Runner) processMouse() {
	stage := r.game.Stage()
	x, y := ebiten.CursorPosition()
	sx, sy := r.toStage(x, y)
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		stage.HandleMouse(bloom.EventMouseDown, sx, sy)
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		stage.HandleMouse(bloom.EventMouseUp, sx, sy)
	case x != r.lastX || y != r.lastY:
		stage.HandleMouse(bloom.EventMouseMove, sx, sy)
	}
	r.lastX, r.lastY = x, y
}

// processTouch maps the first active touch onto the mouse events.
func (r *Runner) processTouch() {
	stage := r.game.Stage()
	if !r.touchDown {
		r.touches = inpututil.AppendJustPressedTouchIDs(r.touches[:0])
		if len(r.touches) == 0 {
			return
		}
		r.activeTID = r.touches[0]
		r.touchDown = true
		sx, sy := r.toStage(ebiten.TouchPosition(r.activeTID))
		stage.HandleMouse(bloom.EventMouseDown, sx, sy)
		return
	}
	if inpututil.IsTouchJustReleased(r.activeTID) {
		r.touchDown = false
		sx, sy := r.toStage(inpututil.TouchPositionInPreviousTick(r.activeTID))
		stage.HandleMouse(bloom.EventMouseUp, sx, sy)
		return
	}
	sx, sy := r.toStage(ebiten.TouchPosition(r.activeTID))
	stage.HandleMouse(bloom.EventMouseMove, sx, sy)
}

// Run opens a window and runs game until the window closes.
func Run(game *bloom.Game, cfg RunConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		w, h := game.Stage().Size()
		cfg.Width, cfg.Height = int(w), int(h)
	}
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)
	if cfg.TPS > 0 {
		ebiten.SetTPS(cfg.TPS)
	}
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if err := ebiten.RunGame(NewRunner(game, cfg)); err != nil {
		return fmt.Errorf("run game: %w", err)
	}
	return nil
}
