package bloom

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// scriptStep is a single action in a script.
type scriptStep struct {
	Action string  `yaml:"action"`
	X      float64 `yaml:"x,omitempty"`
	Y      float64 `yaml:"y,omitempty"`
	Width  float64 `yaml:"width,omitempty"`
	Height float64 `yaml:"height,omitempty"`
	Frames int     `yaml:"frames,omitempty"`
	List   string  `yaml:"list,omitempty"`
	Label  string  `yaml:"label,omitempty"`
}

type scriptFile struct {
	Steps []scriptStep `yaml:"steps"`
}

// Script sequences injected input, resizes, and asset waits across frames,
// for scripted demos and end-to-end tests. Attach it with Game.SetScript.
//
// Actions: click, press, release, move (x, y); wait (frames); resize
// (width, height); await (list: blocks until the asset list is available);
// mark (label: logs a marker); screenshot (label: captures the next frame).
type Script struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	awaiting  bool
	done      bool
}

// ParseScript parses a YAML (or JSON) script.
func ParseScript(data []byte) (*Script, error) {
	var f scriptFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range f.Steps {
		switch st.Action {
		case "click", "press", "release", "move", "wait", "resize", "await", "mark", "screenshot":
		default:
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &Script{steps: f.Steps}, nil
}

// Done reports whether every step has been executed.
func (s *Script) Done() bool {
	return s.done
}

// step advances the script by one frame. Called from Game.Update before the
// stage update, so injected input is consumed the same frame.
func (s *Script) step(g *Game) {
	if s.done || s.awaiting {
		return
	}
	st := g.stage
	// Wait for pending injections to drain before advancing.
	if len(st.injectQueue) > 0 {
		return
	}
	if s.waitCount > 0 {
		s.waitCount--
		return
	}
	if s.cursor >= len(s.steps) {
		s.done = true
		return
	}

	cur := s.steps[s.cursor]
	s.cursor++

	switch cur.Action {
	case "click":
		st.InjectClick(cur.X, cur.Y)
	case "press":
		st.InjectMouseDown(cur.X, cur.Y)
	case "release":
		st.InjectMouseUp(cur.X, cur.Y)
	case "move":
		st.InjectMouseMove(cur.X, cur.Y)
	case "wait":
		if cur.Frames > 0 {
			s.waitCount = cur.Frames - 1 // this frame counts as one
		}
	case "resize":
		g.Resize(cur.Width, cur.Height)
	case "await":
		if g.assets.List(cur.List) == nil {
			g.log.Warn("script awaits unknown asset list", zap.String("list", cur.List))
			break
		}
		s.awaiting = true
		if g.assets.AssetListAvailable(cur.List, func(ListResult) { s.awaiting = false }) {
			s.awaiting = false
		}
	case "mark":
		g.log.Info("script mark", zap.String("label", cur.Label), zap.Uint64("frame", g.frames))
	case "screenshot":
		g.Screenshot(cur.Label)
	}

	if s.cursor >= len(s.steps) && s.waitCount == 0 && !s.awaiting && len(st.injectQueue) == 0 {
		s.done = true
	}
}
