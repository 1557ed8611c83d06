package bloom

import (
	"testing"
	"time"
)

func newTestGame(t *testing.T, cfg *Config, f Fetcher) *Game {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	cfg.Stage.Width, cfg.Stage.Height = 400, 300
	g := NewGame(cfg, f, nil)
	t.Cleanup(g.Assets().Close)
	for _, name := range []string{"required", "a", "b"} {
		g.Assets().AddList(name, []AssetDescriptor{{ID: name + "1", URL: name + "1.bin"}})
	}
	return g
}

// tickGameUntil ticks g until cond holds or a second passes.
func tickGameUntil(t *testing.T, g *Game, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for game")
		}
		g.Tick(1.0/60, nil)
		time.Sleep(time.Millisecond)
	}
}

func TestGameOverlayWhileBuffering(t *testing.T) {
	cfg := testConfig()
	cfg.Buffering.ShowOverlay = true
	f := &recordFetcher{gate: make(chan struct{})}
	g := newTestGame(t, cfg, f)

	paused := NewContainer("paused")
	updates := 0
	paused.On(EventUpdate, func(*Event) { updates++ })
	g.Stage().AddChild(paused)

	loaded := false
	if g.WaitForAssetList("a", func(ListResult) { loaded = true }) {
		t.Fatal("list should not be available yet")
	}
	g.Tick(1.0/60, nil)
	if !g.Buffering() || g.Stage().UpdateRoot() != g.Overlay() {
		t.Fatal("overlay should be shown and own the update dispatch")
	}
	if g.Overlay().Parent != g.Stage().Root() {
		t.Error("overlay should be attached to the stage")
	}
	before := updates
	g.Tick(1.0/60, nil)
	if updates != before {
		t.Error("nodes outside the overlay should be paused")
	}

	close(f.gate)
	tickGameUntil(t, g, func() bool { return loaded })
	g.Tick(1.0/60, nil)
	if g.Buffering() || g.Overlay().Parent != nil {
		t.Error("overlay should be hidden once the wait completes")
	}
	if g.Stage().UpdateRoot() != g.Stage().Root() {
		t.Error("update root should be restored")
	}
	before = updates
	g.Tick(1.0/60, nil)
	if updates == before {
		t.Error("paused nodes should resume")
	}
	if g.Assets().State("required") != ListLoaded {
		t.Error("preceding lists load before the awaited one")
	}
}

func TestGameOverlaySwallowsClicks(t *testing.T) {
	cfg := testConfig()
	cfg.Buffering.ShowOverlay = true
	g := newTestGame(t, cfg, &recordFetcher{gate: make(chan struct{})})
	_, clicks := button(g.Stage(), "btn", 0, 0, 400, 300)
	g.WaitForAssetList("required", nil)
	g.Tick(1.0/60, nil)

	g.Stage().HandleMouse(EventMouseDown, 10, 10)
	g.Stage().HandleMouse(EventMouseUp, 10, 10)
	if *clicks != 0 {
		t.Error("clicks under the overlay should not reach the game")
	}
}

func TestGameWaitWithoutOverlay(t *testing.T) {
	g := newTestGame(t, testConfig(), &recordFetcher{gate: make(chan struct{})})
	g.WaitForAssetList("required", nil)
	g.Tick(1.0/60, nil)
	if g.Buffering() {
		t.Error("overlay disabled by config")
	}
}

func TestGameSetOverlay(t *testing.T) {
	cfg := testConfig()
	cfg.Buffering.ShowOverlay = true
	g := newTestGame(t, cfg, &recordFetcher{gate: make(chan struct{})})
	g.WaitForAssetList("required", nil)
	g.Tick(1.0/60, nil)

	custom := NewContainer("custom")
	old := g.Overlay()
	g.SetOverlay(custom)
	if old.Parent != nil || custom.Parent != g.Stage().Root() {
		t.Error("replacing a shown overlay should swap it on the stage")
	}
	if g.Stage().UpdateRoot() != custom {
		t.Error("the new overlay should own the update dispatch")
	}
	g.SetOverlay(nil)
	if g.Overlay() != custom {
		t.Error("nil overlay should be ignored")
	}
}

func TestGameFirstInteractionReleasesPoliteLoad(t *testing.T) {
	cfg := testConfig()
	cfg.Loading.Politeness = 1
	g := newTestGame(t, cfg, &recordFetcher{})
	g.Assets().StartStaggeredLoading()
	tickGameUntil(t, g, func() bool { return g.Assets().State("required") == ListLoaded })
	for range 5 {
		g.Tick(1.0/60, nil)
	}
	if g.Assets().State("a") != ListQueued {
		t.Fatalf("a = %v, want withheld", g.Assets().State("a"))
	}
	g.Stage().HandleMouse(EventMouseDown, 1, 1)
	tickGameUntil(t, g, func() bool { return g.Assets().State("b") == ListLoaded })
}

func TestGameTick(t *testing.T) {
	g := newTestGame(t, nil, &recordFetcher{})
	n := NewNode("box", &RectangleFill{Color: "#ff0000"})
	n.SetSize(10, 10)
	g.Stage().AddChild(n)
	n.On(EventUpdate, func(e *Event) { e.Target.MarkForRemoval() })

	r := &recordRenderer{}
	g.Tick(1.0/60, r)
	if len(r.fills) != 0 {
		t.Error("node marked for removal during update should not draw")
	}
	if n.State() != StatePurged || n.Parent != nil {
		t.Errorf("state = %v, want removed after the frame", n.State())
	}
	if g.Frames() != 1 {
		t.Errorf("frames = %d", g.Frames())
	}
	g.Tick(1.0/60, nil)
	if g.Frames() != 2 {
		t.Errorf("frames = %d", g.Frames())
	}
}

func TestGameResize(t *testing.T) {
	g := newTestGame(t, nil, &recordFetcher{})
	g.Resize(300, 500)
	if w, h := g.Stage().Size(); w != 300 || h != 500 {
		t.Errorf("size = %vx%v", w, h)
	}
	if g.Stage().Orientation() != Portrait {
		t.Error("taller stage should be portrait")
	}
}
