package bloom

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"
)

// Action is a timed callback owned by a node: it fires once after Delay, then
// every Interval seconds while Repeat allows (-1 repeats forever).
type Action struct {
	ID       string
	Delay    float64
	Interval float64
	Repeat   int
	Fn       func(n *Node)

	age   float64
	fired int
	done  bool
}

// Done reports whether the action has run its last time or was cancelled.
func (a *Action) Done() bool {
	return a.done
}

func (a *Action) update(n *Node, dt float64) {
	if a.done {
		return
	}
	a.age += dt
	next := a.Delay + float64(a.fired)*a.Interval
	if a.age < next {
		return
	}
	a.fired++
	if a.Fn != nil {
		a.Fn(n)
	}
	if a.Repeat >= 0 && a.fired > a.Repeat {
		a.done = true
	}
	if a.Interval <= 0 && a.Repeat != 0 {
		// Without an interval a repeating action would fire every tick.
		a.done = true
	}
}

// After runs fn once, delay seconds from now.
func (n *Node) After(id string, delay float64, fn func(n *Node)) *Action {
	return n.RunAction(&Action{ID: id, Delay: delay, Fn: fn})
}

// Every runs fn every interval seconds; times < 0 repeats forever.
func (n *Node) Every(id string, interval float64, times int, fn func(n *Node)) *Action {
	if times == 0 {
		return &Action{ID: id, done: true}
	}
	repeat := times - 1
	if times < 0 {
		repeat = -1
	}
	return n.RunAction(&Action{ID: id, Delay: interval, Interval: interval, Repeat: repeat, Fn: fn})
}

// RunAction schedules a on the node.
func (n *Node) RunAction(a *Action) *Action {
	if n.state == StatePurged {
		return a
	}
	n.actions = append(n.actions, a)
	return a
}

// CancelAction stops every action with the given id.
func (n *Node) CancelAction(id string) bool {
	found := false
	for _, a := range n.actions {
		if a.ID == id && !a.done {
			a.done = true
			found = true
		}
	}
	if !found {
		n.logger().Debug("action not found", nodeField(n), zap.String("action", id))
	}
	return found
}

func (n *Node) advanceActions(dt float64) {
	count := len(n.actions)
	if count == 0 {
		return
	}
	for i := 0; i < count && i < len(n.actions); i++ {
		n.actions[i].update(n, dt)
	}
	kept := n.actions[:0]
	for _, a := range n.actions {
		if !a.done {
			kept = append(kept, a)
		}
	}
	for i := len(kept); i < len(n.actions); i++ {
		n.actions[i] = nil
	}
	n.actions = kept
}

// ShakeOptions configures a positional shake.
type ShakeOptions struct {
	ID        string
	Magnitude float64 // peak offset in local units
	Duration  float64 // seconds; <= 0 selects 0.5
	Frequency float64 // oscillations per second; <= 0 selects 20
	Ease      ease.TweenFunc
}

// Shake offsets a node's position by a decaying oscillation. The offset is
// part of the local transform and never written to X/Y.
type Shake struct {
	ID   string
	opts ShakeOptions

	decay   *gween.Tween
	elapsed float64
	amp     float64
	done    bool
}

// Done reports whether the shake has decayed or was cancelled.
func (s *Shake) Done() bool {
	return s.done
}

// Shake starts a shake on the node.
func (n *Node) Shake(opts ShakeOptions) *Shake {
	if opts.Duration <= 0 {
		opts.Duration = 0.5
	}
	if opts.Frequency <= 0 {
		opts.Frequency = 20
	}
	if opts.Ease == nil {
		opts.Ease = ease.OutQuad
	}
	s := &Shake{
		ID:    opts.ID,
		opts:  opts,
		decay: gween.New(float32(opts.Magnitude), 0, float32(opts.Duration), opts.Ease),
		amp:   opts.Magnitude,
	}
	if n.state != StatePurged {
		n.shakes = append(n.shakes, s)
	}
	return s
}

// CancelShake stops every shake with the given id.
func (n *Node) CancelShake(id string) bool {
	found := false
	for _, s := range n.shakes {
		if s.ID == id && !s.done {
			s.done = true
			found = true
		}
	}
	if !found {
		n.logger().Debug("shake not found", nodeField(n), zap.String("shake", id))
	}
	return found
}

// ShakeOffset returns the current combined shake offset.
func (n *Node) ShakeOffset() (float64, float64) {
	return n.shakeX, n.shakeY
}

func (n *Node) advanceShakes(dt float64) {
	if len(n.shakes) == 0 {
		return
	}
	var ox, oy float64
	kept := n.shakes[:0]
	for _, s := range n.shakes {
		if s.done {
			continue
		}
		s.elapsed += dt
		amp, finished := s.decay.Update(float32(dt))
		s.amp = float64(amp)
		if finished {
			s.done = true
			continue
		}
		phase := 2 * math.Pi * s.opts.Frequency * s.elapsed
		ox += s.amp * math.Sin(phase)
		oy += s.amp * math.Cos(phase*1.3)
		kept = append(kept, s)
	}
	for i := len(kept); i < len(n.shakes); i++ {
		n.shakes[i] = nil
	}
	n.shakes = kept
	n.shakeX, n.shakeY = ox, oy
}

// advance steps every animation owned by the node. Called once per tick by
// the update dispatch.
func (n *Node) advance(dt float64) {
	n.advanceTweens(dt)
	n.advanceActions(dt)
	n.advanceShakes(dt)
}
