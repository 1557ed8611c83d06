package bloom

import (
	"go.uber.org/zap"
)

// Property addresses a tweenable numeric field of a target.
type Property uint8

const (
	PropX Property = iota
	PropY
	PropScaleX
	PropScaleY
	PropRotation
	PropAlpha
	PropRegX
	PropRegY
	PropWidth
	PropHeight
	numProperties
)

var propertyNames = [numProperties]string{
	"x", "y", "scaleX", "scaleY", "rotation", "alpha", "regX", "regY", "width", "height",
}

func (p Property) String() string {
	if p < numProperties {
		return propertyNames[p]
	}
	return "unknown"
}

// Props is the bag of end values a tween animates. Layout is the nested bag
// addressing the numeric fields of an object-form layout; tweening it
// re-applies the layout after every step.
type Props struct {
	Values map[Property]float64
	Layout map[LayoutField]float64
}

// Target is anything a tween can read and write numeric properties on.
type Target interface {
	TweenValue(p Property) float64
	SetTweenValue(p Property, v float64)
}

// LayoutTarget is a Target whose layout parameters can be tweened.
type LayoutTarget interface {
	LayoutValue(f LayoutField) (float64, bool)
	SetLayoutValue(f LayoutField, v float64)
	ApplyLayout()
}

// TweenHost owns a list of active tweens. Chained tweens are injected into
// their target's host when the tween before them finishes.
type TweenHost interface {
	AddTween(t *Tween)
}

type remover interface {
	MarkForRemoval()
}

// TweenOptions configures a tween. Zero values select the defaults.
type TweenOptions struct {
	ID       string
	Duration float64  // seconds; <= 0 selects 1
	Delay    float64  // seconds before the start values are captured
	Ease     EaseFunc // nil selects Linear

	Loop   bool // repeat forever
	Repeat int  // finite number of extra plays; ignored when Loop is set
	Rewind bool // ping-pong direction at every loop boundary

	// StartFromEnd swaps the roles of the bag and the live values at setup:
	// the target animates from Props to its current values.
	StartFromEnd bool

	// RemoveOnComplete marks the target for removal when the tween finishes.
	RemoveOnComplete bool

	OnBegin        func(t *Tween)
	OnComplete     func(t *Tween)
	OnLoopComplete func(t *Tween)
}

// Tween interpolates the properties of a target over time.
type Tween struct {
	ID string

	target Target
	props  Props
	opts   TweenOptions
	log    *zap.Logger

	start, end             map[Property]float64
	layoutStart, layoutEnd map[LayoutField]float64

	age      float64
	duration float64
	repeat   int
	forward  bool
	started  bool
	finished bool

	chained []*Tween
}

// NewTween sets up a tween of target towards props. Start values are
// captured lazily when the delay elapses, so tweens chained after others see
// the values those left behind. With StartFromEnd they are captured now.
func NewTween(target Target, props Props, opts TweenOptions) *Tween {
	t := &Tween{
		ID:       opts.ID,
		target:   target,
		props:    props,
		opts:     opts,
		duration: opts.Duration,
		repeat:   opts.Repeat,
		forward:  true,
		log:      zap.L(),
	}
	if n, ok := target.(*Node); ok {
		t.log = n.logger()
	}
	if t.duration <= 0 {
		t.duration = 1
	}
	if t.opts.Ease == nil {
		t.opts.Ease = Linear
	}
	if opts.StartFromEnd {
		t.capture()
		t.start, t.end = t.end, t.start
		t.layoutStart, t.layoutEnd = t.layoutEnd, t.layoutStart
	}
	return t
}

// Target returns the tweened object.
func (t *Tween) Target() Target {
	return t.target
}

// Finished reports whether the tween has completed or was ended.
func (t *Tween) Finished() bool {
	return t.finished
}

// Started reports whether the delay has elapsed and start values were taken.
func (t *Tween) Started() bool {
	return t.started
}

// Forward reports the current play direction; false mid-rewind.
func (t *Tween) Forward() bool {
	return t.forward
}

// ThenTweenTo chains a tween on the same target that starts when this one
// finishes. It returns the chained tween so chains can continue.
func (t *Tween) ThenTweenTo(props Props, opts TweenOptions) *Tween {
	next := NewTween(t.target, props, opts)
	t.chained = append(t.chained, next)
	return next
}

// Chain appends an existing tween to run when this one finishes.
func (t *Tween) Chain(next *Tween) *Tween {
	t.chained = append(t.chained, next)
	return next
}

// capture snapshots live values as start and the bag as end.
func (t *Tween) capture() {
	t.start = make(map[Property]float64, len(t.props.Values))
	t.end = make(map[Property]float64, len(t.props.Values))
	for p, v := range t.props.Values {
		if p >= numProperties {
			t.log.Warn("ignoring unknown tween property", zap.String("tween", t.ID))
			continue
		}
		t.start[p] = t.target.TweenValue(p)
		t.end[p] = v
	}
	if len(t.props.Layout) == 0 {
		return
	}
	lt, ok := t.target.(LayoutTarget)
	if !ok {
		t.log.Warn("target cannot tween layout fields", zap.String("tween", t.ID))
		return
	}
	t.layoutStart = make(map[LayoutField]float64, len(t.props.Layout))
	t.layoutEnd = make(map[LayoutField]float64, len(t.props.Layout))
	for f, v := range t.props.Layout {
		cur, ok := lt.LayoutValue(f)
		if !ok {
			t.log.Warn("layout field not set on target, skipping",
				zap.String("tween", t.ID), zap.Stringer("layout", f))
			continue
		}
		t.layoutStart[f] = cur
		t.layoutEnd[f] = v
	}
}

// Update advances the tween by dt seconds.
func (t *Tween) Update(dt float64) {
	if t.finished {
		return
	}
	t.age += dt
	if t.age < t.opts.Delay {
		return
	}
	if !t.started {
		t.started = true
		if !t.opts.StartFromEnd {
			t.capture()
		}
		if t.opts.OnBegin != nil {
			t.opts.OnBegin(t)
		}
	}

	percent := (t.age - t.opts.Delay) / t.duration
	justFinished := false
	if percent >= 1 {
		if t.opts.Loop || t.repeat >= 1 {
			t.age -= t.duration
			if t.opts.Rewind {
				t.forward = !t.forward
			}
			if !t.opts.Loop {
				t.repeat--
			}
			if t.opts.OnLoopComplete != nil {
				t.opts.OnLoopComplete(t)
			}
			percent = (t.age - t.opts.Delay) / t.duration
			if percent > 1 {
				percent = 1
			}
		} else {
			t.finished = true
			justFinished = true
			// Looping tweens already reported each boundary above.
			if !t.opts.Loop && t.opts.Repeat <= 0 && t.opts.OnLoopComplete != nil {
				t.opts.OnLoopComplete(t)
			}
		}
	}

	val := 1.0
	if !t.finished {
		val = t.opts.Ease(percent)
	}
	if !t.forward {
		val = 1 - val
	}
	t.apply(val)

	if justFinished {
		t.complete(true, true)
	}
}

func (t *Tween) apply(val float64) {
	for p, s := range t.start {
		t.target.SetTweenValue(p, s+(t.end[p]-s)*val)
	}
	if len(t.layoutStart) == 0 {
		return
	}
	lt := t.target.(LayoutTarget)
	for f, s := range t.layoutStart {
		lt.SetLayoutValue(f, s+(t.layoutEnd[f]-s)*val)
	}
	lt.ApplyLayout()
}

// End forces the tween to finish now: end values are written (start values
// are captured first if the delay had not elapsed). runChains selects whether
// chained tweens are started; fireCallback selects whether OnComplete runs.
func (t *Tween) End(runChains, fireCallback bool) {
	if t.finished {
		return
	}
	if !t.started {
		t.started = true
		if !t.opts.StartFromEnd {
			t.capture()
		}
	}
	t.finished = true
	val := 1.0
	if !t.forward {
		val = 0
	}
	t.apply(val)
	t.complete(runChains, fireCallback)
}

func (t *Tween) complete(runChains, fireCallback bool) {
	if runChains && len(t.chained) > 0 {
		host, ok := t.target.(TweenHost)
		if !ok {
			t.log.Warn("tween target cannot host chained tweens", zap.String("tween", t.ID))
		} else {
			for _, c := range t.chained {
				host.AddTween(c)
			}
		}
	}
	if fireCallback && t.opts.OnComplete != nil {
		t.opts.OnComplete(t)
	}
	if t.opts.RemoveOnComplete {
		if r, ok := t.target.(remover); ok {
			r.MarkForRemoval()
		}
	}
}

// --- Node as a tween target and host ---

// TweenValue implements Target.
func (n *Node) TweenValue(p Property) float64 {
	switch p {
	case PropX:
		return n.X
	case PropY:
		return n.Y
	case PropScaleX:
		return n.ScaleX
	case PropScaleY:
		return n.ScaleY
	case PropRotation:
		return n.Rotation
	case PropAlpha:
		return n.Alpha
	case PropRegX:
		return n.RegX
	case PropRegY:
		return n.RegY
	case PropWidth:
		return n.Width
	case PropHeight:
		return n.Height
	}
	return 0
}

// SetTweenValue implements Target.
func (n *Node) SetTweenValue(p Property, v float64) {
	switch p {
	case PropX:
		n.X = v
	case PropY:
		n.Y = v
	case PropScaleX:
		n.ScaleX = v
	case PropScaleY:
		n.ScaleY = v
	case PropRotation:
		n.Rotation = v
	case PropAlpha:
		n.Alpha = v
	case PropRegX:
		n.RegX = v
	case PropRegY:
		n.RegY = v
	case PropWidth:
		n.Width = v
	case PropHeight:
		n.Height = v
	}
}

// AddTween implements TweenHost. A tween whose ID collides with an active
// one logs a warning; both stay active.
func (n *Node) AddTween(t *Tween) {
	if n.state == StatePurged {
		return
	}
	if t.ID != "" {
		for _, other := range n.tweens {
			if other.ID == t.ID && !other.finished {
				n.logger().Warn("tween id already active", nodeField(n), zap.String("tween", t.ID))
				break
			}
		}
	}
	n.tweens = append(n.tweens, t)
}

// TweenTo starts a tween of n towards props.
func (n *Node) TweenTo(props Props, opts TweenOptions) *Tween {
	t := NewTween(n, props, opts)
	n.AddTween(t)
	return t
}

// TweenFrom starts a tween of n from props back to its current values.
func (n *Node) TweenFrom(props Props, opts TweenOptions) *Tween {
	opts.StartFromEnd = true
	return n.TweenTo(props, opts)
}

// EndTween finishes every active tween with the given id. See Tween.End.
func (n *Node) EndTween(id string, runChains, fireCallback bool) bool {
	found := false
	for i := 0; i < len(n.tweens); i++ {
		t := n.tweens[i]
		if t.ID == id && !t.finished {
			t.End(runChains, fireCallback)
			found = true
		}
	}
	if !found {
		n.logger().Debug("tween not found", nodeField(n), zap.String("tween", id))
	}
	return found
}

// CancelTweens drops every tween without writing end values or running
// callbacks.
func (n *Node) CancelTweens() {
	for _, t := range n.tweens {
		t.finished = true
	}
	n.tweens = n.tweens[:0]
}

// Tweens returns the active tween list. The returned slice MUST NOT be mutated.
func (n *Node) Tweens() []*Tween {
	return n.tweens
}

// advanceTweens steps every tween active at the start of the call. Tweens
// injected by chains start on the next tick.
func (n *Node) advanceTweens(dt float64) {
	count := len(n.tweens)
	if count == 0 {
		return
	}
	for i := 0; i < count && i < len(n.tweens); i++ {
		n.tweens[i].Update(dt)
	}
	kept := n.tweens[:0]
	for _, t := range n.tweens {
		if !t.finished {
			kept = append(kept, t)
		}
	}
	for i := len(kept); i < len(n.tweens); i++ {
		n.tweens[i] = nil
	}
	n.tweens = kept
}
