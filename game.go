package bloom

import (
	"go.uber.org/zap"
)

// Game ties a Stage to an AssetManager and runs the per-tick order: asset
// polling and buffering checks, update dispatch, draw, end-of-frame cleanup.
//
// While any wait asked for the buffering overlay, the overlay node is shown
// on top of the stage and becomes the update root, pausing everything else.
type Game struct {
	cfg    *Config
	log    *zap.Logger
	stage  *Stage
	assets *AssetManager

	overlay      *Node
	overlayShown bool

	script     *Script
	screenshot func(label string)
	frames     uint64
}

// NewGame creates a game from cfg (nil selects DefaultConfig), fetching
// assets through fetcher.
func NewGame(cfg *Config, fetcher Fetcher, log *zap.Logger) *Game {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if log == nil {
		log = zap.NewNop()
	}
	stage := NewStage(float64(cfg.Stage.Width), float64(cfg.Stage.Height), StageOptions{
		Logger:        log.Named("stage"),
		ClickTime:     cfg.Input.ClickTime,
		ClickDistance: cfg.Input.ClickDistance,
	})
	stage.SetDebugMode(cfg.Stage.Debug)
	g := &Game{
		cfg:    cfg,
		log:    log,
		stage:  stage,
		assets: NewAssetManager(fetcher, cfg, log.Named("assets")),
	}
	g.overlay = newBufferingOverlay()
	stage.OnFirstInteraction(g.assets.NotifyUserInteraction)
	return g
}

// newBufferingOverlay builds the default overlay: a translucent backdrop
// covering the stage with a spinning square in the middle.
func newBufferingOverlay() *Node {
	overlay := NewNode("buffering", &RectangleFill{Color: "#000000a0"})
	overlay.SetLayout(PresetMatch)
	// Swallow clicks meant for the paused game underneath.
	overlay.On(EventMouseDown, func(*Event) {})

	spinner := NewNode("spinner", &RectangleFill{Color: "#ffffff"})
	spinner.SetSize(24, 24)
	spinner.SetRegistration(0.5, 0.5)
	spinner.SetLayout(LayoutFunc(func(n *Node, e *Event) {
		n.X, n.Y = e.Width/2, e.Height/2
	}))
	spinner.On(EventUpdate, func(e *Event) {
		e.Target.Rotation += 360 * e.Elapsed
	})
	overlay.AddChild(spinner)
	return overlay
}

// Stage returns the game's stage.
func (g *Game) Stage() *Stage {
	return g.stage
}

// Assets returns the game's asset manager.
func (g *Game) Assets() *AssetManager {
	return g.assets
}

// Config returns the configuration the game was built with.
func (g *Game) Config() *Config {
	return g.cfg
}

// Logger returns the game's logger.
func (g *Game) Logger() *zap.Logger {
	return g.log
}

// Frames returns the number of completed ticks.
func (g *Game) Frames() uint64 {
	return g.frames
}

// SetOverlay replaces the buffering overlay node.
func (g *Game) SetOverlay(n *Node) {
	if n == nil {
		g.log.Warn("ignoring nil buffering overlay")
		return
	}
	if g.overlayShown {
		g.hideOverlay()
		g.overlay = n
		g.showOverlay()
		return
	}
	g.overlay = n
}

// Overlay returns the buffering overlay node.
func (g *Game) Overlay() *Node {
	return g.overlay
}

// Buffering reports whether the overlay is showing.
func (g *Game) Buffering() bool {
	return g.overlayShown
}

// WaitForAssetList waits on the named list with the configured overlay
// setting, loading the lists before it first. See
// AssetManager.WaitForAssetList.
func (g *Game) WaitForAssetList(name string, cb func(ListResult)) bool {
	return g.assets.WaitForAssetList(name, cb, g.assets.DefaultWaitOptions())
}

// SetScript attaches a scripted input sequence, stepped once per Update.
func (g *Game) SetScript(s *Script) {
	g.script = s
}

// SetScreenshotHandler installs the function that captures labeled
// screenshots. Backends that can read back the frame set it.
func (g *Game) SetScreenshotHandler(fn func(label string)) {
	g.screenshot = fn
}

// Screenshot asks the backend for a capture of the next drawn frame.
func (g *Game) Screenshot(label string) {
	if g.screenshot == nil {
		g.log.Warn("no screenshot handler, ignoring", zap.String("label", label))
		return
	}
	g.screenshot(label)
}

// Resize forwards new host dimensions to the stage.
func (g *Game) Resize(width, height float64) {
	g.stage.Resize(width, height)
}

// Update runs the asset check and the update dispatch.
func (g *Game) Update(dt float64) {
	g.assets.Update(dt)
	g.syncOverlay()
	if g.script != nil {
		g.script.step(g)
	}
	g.stage.Update(dt)
}

// Draw paints the stage through r.
func (g *Game) Draw(r Renderer) {
	g.stage.Draw(r)
}

// EndFrame empties the trash and sweeps listeners.
func (g *Game) EndFrame() {
	g.stage.EndFrame()
	g.frames++
}

// Tick runs one whole frame: Update, Draw (skipped when r is nil), EndFrame.
func (g *Game) Tick(dt float64, r Renderer) {
	g.Update(dt)
	if r != nil {
		g.Draw(r)
	}
	g.EndFrame()
}

func (g *Game) syncOverlay() {
	buffering := g.assets.Buffering()
	switch {
	case buffering && !g.overlayShown:
		g.showOverlay()
	case !buffering && g.overlayShown:
		g.hideOverlay()
	}
}

func (g *Game) showOverlay() {
	g.stage.AddChild(g.overlay)
	g.stage.SetUpdateRoot(g.overlay)
	g.overlayShown = true
	g.log.Debug("buffering overlay shown")
}

func (g *Game) hideOverlay() {
	g.overlay.RemoveFromParent()
	g.stage.SetUpdateRoot(nil)
	g.overlayShown = false
	g.log.Debug("buffering overlay hidden")
}
