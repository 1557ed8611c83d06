package bloom

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func mustParseScript(t *testing.T, src string) *Script {
	t.Helper()
	s, err := ParseScript([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestParseScriptErrors(t *testing.T) {
	for name, src := range map[string]string{
		"empty":   "steps: []",
		"unknown": "steps:\n  - action: jump\n",
		"invalid": "steps: [",
	} {
		if _, err := ParseScript([]byte(src)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseScriptJSON(t *testing.T) {
	s := mustParseScript(t, `{"steps": [{"action": "click", "x": 5, "y": 6}]}`)
	if len(s.steps) != 1 || s.steps[0].X != 5 {
		t.Errorf("steps = %+v", s.steps)
	}
}

func TestScriptClick(t *testing.T) {
	g := newTestGame(t, nil, &recordFetcher{})
	_, clicks := button(g.Stage(), "btn", 10, 10, 50, 50)
	s := mustParseScript(t, "steps:\n  - action: click\n    x: 20\n    y: 20\n")
	g.SetScript(s)

	// The first frame queues the click and delivers its mousedown; the
	// second delivers the mouseup.
	for range 2 {
		g.Tick(1.0/60, nil)
	}
	if *clicks != 1 {
		t.Errorf("clicks = %d, want 1", *clicks)
	}
	if s.Done() {
		t.Error("script finishes on the frame after its last injection")
	}
	g.Tick(1.0/60, nil)
	if !s.Done() {
		t.Error("script should be done")
	}
}

func TestScriptWait(t *testing.T) {
	g := newTestGame(t, nil, &recordFetcher{})
	s := mustParseScript(t, "steps:\n  - action: wait\n    frames: 3\n")
	g.SetScript(s)
	for range 3 {
		g.Tick(1.0/60, nil)
	}
	if s.Done() {
		t.Error("a 3-frame wait holds the script for three frames")
	}
	g.Tick(1.0/60, nil)
	if !s.Done() {
		t.Error("script should be done after the wait")
	}
}

func TestScriptAwaitAndResize(t *testing.T) {
	f := &recordFetcher{gate: make(chan struct{})}
	g := newTestGame(t, nil, f)
	s := mustParseScript(t, `
steps:
  - action: await
    list: a
  - action: resize
    width: 200
    height: 500
`)
	g.SetScript(s)
	for range 5 {
		g.Tick(1.0/60, nil)
	}
	if w, _ := g.Stage().Size(); w != 400 {
		t.Fatal("resize ran before the awaited list loaded")
	}
	close(f.gate)
	tickGameUntil(t, g, s.Done)
	if w, h := g.Stage().Size(); w != 200 || h != 500 {
		t.Errorf("size = %vx%v", w, h)
	}
	if g.Assets().State("required") != ListLoaded {
		t.Error("await loads the preceding lists")
	}
}

func TestScriptAwaitUnknownListSkips(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cfg := testConfig()
	cfg.Stage.Width, cfg.Stage.Height = 400, 300
	g := NewGame(cfg, &recordFetcher{}, zap.New(core))
	t.Cleanup(g.Assets().Close)
	s := mustParseScript(t, `
steps:
  - action: await
    list: nope
  - action: mark
    label: after
`)
	g.SetScript(s)
	for range 3 {
		g.Tick(1.0/60, nil)
	}
	if !s.Done() {
		t.Error("unknown await should be skipped")
	}
	if logs.FilterMessage("script awaits unknown asset list").Len() != 1 {
		t.Error("unknown await should warn")
	}
	if logs.FilterMessage("script mark").Len() != 1 {
		t.Error("mark should log")
	}
}

func TestScriptScreenshot(t *testing.T) {
	g := newTestGame(t, nil, &recordFetcher{})
	var shots []string
	g.SetScreenshotHandler(func(label string) { shots = append(shots, label) })
	s := mustParseScript(t, "steps:\n  - action: screenshot\n    label: start\n")
	g.SetScript(s)
	g.Tick(1.0/60, nil)
	if len(shots) != 1 || shots[0] != "start" || !s.Done() {
		t.Errorf("shots = %v done = %v", shots, s.Done())
	}
}
