package bloom

import (
	"math"

	"go.uber.org/zap"
)

// Layout is a declarative placement directive re-evaluated on every resize.
// It is one of Preset, *LayoutParams, or LayoutFunc.
type Layout interface {
	isLayout()
}

// Preset is a named whole-parent layout.
type Preset uint8

const (
	PresetMatch      Preset = iota // take the parent's size, scale 1
	PresetFill                     // scale each axis independently to cover the parent
	PresetAspectFill               // uniform scale, max of the axis scales
	PresetFitWidth                 // uniform scale that fits the parent's width
	PresetFitHeight                // uniform scale that fits the parent's height
	PresetBestFit                  // fit-width if its scale is <= fit-height's, else fit-height
	numPresets
)

var presetNames = [numPresets]string{"match", "fill", "aspect-fill", "fit-width", "fit-height", "best-fit"}

func (p Preset) String() string {
	if p < numPresets {
		return presetNames[p]
	}
	return "invalid"
}

// ParsePreset maps a preset name ("best-fit", ...) to a Preset.
func ParsePreset(s string) (Preset, bool) {
	for i, name := range presetNames {
		if name == s {
			return Preset(i), true
		}
	}
	return 0, false
}

func (Preset) isLayout() {}

// LayoutFunc delegates layout to game code; it receives the resize event.
type LayoutFunc func(n *Node, e *Event)

func (LayoutFunc) isLayout() {}

// LayoutParams is the object-form layout. Nil pointer fields are unset.
//
// Horizontal position comes from XPercentage (fraction of parent width), or
// LeftAnchor / RightAnchor (distance as a fraction of the parent's larger
// dimension; pins RegX to 0 or 1). Vertical position likewise from
// YPercentage, TopAnchor, or BottomAnchor.
//
// Scale comes from ScaleToWidth / ScaleToHeight (fraction of the parent's
// dimension the node should span); with both set UseMinScale (default true)
// picks the smaller absolute scale. MatchWidth / MatchHeight resize the node
// to the parent's dimension instead of scaling it.
type LayoutParams struct {
	XPercentage *float64
	YPercentage *float64

	TopAnchor    *float64
	BottomAnchor *float64
	LeftAnchor   *float64
	RightAnchor  *float64

	// Deprecated: use TopAnchor, BottomAnchor, LeftAnchor, RightAnchor.
	Top, Bottom, Left, Right *float64

	ScaleToWidth  *float64
	ScaleToHeight *float64
	UseMinScale   *bool

	MatchWidth  bool
	MatchHeight bool

	// AllowSubPixel keeps fractional positions; by default x/y are rounded.
	AllowSubPixel bool

	// Custom runs after the built-in strategies.
	Custom LayoutFunc

	// PickLayout selects a key of Variants from the event's aspect ratio
	// (width / height). Takes precedence over Portrait/Landscape.
	PickLayout func(aspect float64) string
	Variants   map[string]*LayoutParams

	// Portrait and Landscape are chosen by comparing event height vs width.
	Portrait  *LayoutParams
	Landscape *LayoutParams
}

func (*LayoutParams) isLayout() {}

// Val returns a pointer to v, for LayoutParams fields.
func Val(v float64) *float64 {
	return &v
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}

// LayoutField addresses a numeric field of LayoutParams for tweening.
type LayoutField uint8

const (
	LayoutXPercentage LayoutField = iota
	LayoutYPercentage
	LayoutTopAnchor
	LayoutBottomAnchor
	LayoutLeftAnchor
	LayoutRightAnchor
	LayoutScaleToWidth
	LayoutScaleToHeight
	numLayoutFields
)

var layoutFieldNames = [numLayoutFields]string{
	"xPercentage", "yPercentage", "topAnchor", "bottomAnchor",
	"leftAnchor", "rightAnchor", "scaleToWidth", "scaleToHeight",
}

func (f LayoutField) String() string {
	if f < numLayoutFields {
		return layoutFieldNames[f]
	}
	return "unknown"
}

func (p *LayoutParams) field(f LayoutField) **float64 {
	switch f {
	case LayoutXPercentage:
		return &p.XPercentage
	case LayoutYPercentage:
		return &p.YPercentage
	case LayoutTopAnchor:
		return &p.TopAnchor
	case LayoutBottomAnchor:
		return &p.BottomAnchor
	case LayoutLeftAnchor:
		return &p.LeftAnchor
	case LayoutRightAnchor:
		return &p.RightAnchor
	case LayoutScaleToWidth:
		return &p.ScaleToWidth
	case LayoutScaleToHeight:
		return &p.ScaleToHeight
	}
	return nil
}

// --- Node integration ---

// SetLayout assigns a layout directive. When the node is staged it is applied
// immediately; afterwards it is re-applied on every resize.
func (n *Node) SetLayout(l Layout) {
	n.layout = l
	if n.stage != nil && l != nil {
		n.ApplyLayout()
	}
}

// Layout returns the node's layout directive, or nil.
func (n *Node) Layout() Layout {
	return n.layout
}

// LayoutValue implements LayoutTarget for object-form layouts.
func (n *Node) LayoutValue(f LayoutField) (float64, bool) {
	p, ok := n.layout.(*LayoutParams)
	if !ok || f >= numLayoutFields {
		return 0, false
	}
	v := *p.field(f)
	if v == nil {
		return 0, false
	}
	return *v, true
}

// SetLayoutValue implements LayoutTarget.
func (n *Node) SetLayoutValue(f LayoutField, v float64) {
	p, ok := n.layout.(*LayoutParams)
	if !ok || f >= numLayoutFields {
		return
	}
	*p.field(f) = Val(v)
}

// ApplyLayout re-evaluates the layout against the parent's current size,
// using the stage dimensions as the event.
func (n *Node) ApplyLayout() {
	if n.layout == nil {
		return
	}
	e := &Event{Kind: EventResize, Target: n}
	if n.stage != nil {
		e.Width, e.Height = n.stage.width, n.stage.height
	} else if n.Parent != nil {
		e.Width, e.Height = n.Parent.Width, n.Parent.Height
	}
	resolveLayout(n, n.layout, e)
}

// --- Resolver ---

func resolveLayout(n *Node, l Layout, e *Event) {
	var pw, ph float64
	if n.Parent != nil {
		pw, ph = n.Parent.Width, n.Parent.Height
	} else {
		pw, ph = e.Width, e.Height
	}
	switch l := l.(type) {
	case LayoutFunc:
		if l != nil {
			l(n, e)
		}
	case Preset:
		applyPreset(n, l, pw, ph)
	case *LayoutParams:
		if p := pickParams(n, l, e); p != nil {
			applyParams(n, p, pw, ph, e)
		}
	}
}

// pickParams resolves sub-strategy dispatch down to a concrete parameter set.
func pickParams(n *Node, p *LayoutParams, e *Event) *LayoutParams {
	for depth := 0; depth < 8; depth++ {
		switch {
		case p.PickLayout != nil:
			aspect := 0.0
			if e.Height != 0 {
				aspect = e.Width / e.Height
			}
			key := p.PickLayout(aspect)
			next, ok := p.Variants[key]
			if !ok || next == nil {
				n.logger().Warn("layout variant not found", nodeField(n), zap.String("layout", key))
				return nil
			}
			p = next
		case p.Portrait != nil || p.Landscape != nil:
			next := p.Landscape
			if e.Height > e.Width {
				next = p.Portrait
			}
			if next == nil {
				// The enclosing object's own fields serve the other orientation.
				base := *p
				base.Portrait, base.Landscape = nil, nil
				return &base
			}
			p = next
		default:
			return p
		}
	}
	n.logger().Warn("layout sub-strategies nested too deeply", nodeField(n))
	return nil
}

func applyPreset(n *Node, p Preset, pw, ph float64) {
	if p == PresetMatch {
		n.Width, n.Height = pw, ph
		n.ScaleX, n.ScaleY = 1, 1
		n.X, n.Y = n.RegX*pw, n.RegY*ph
		return
	}
	if n.Width == 0 || n.Height == 0 {
		n.logger().Warn("layout preset needs a non-zero natural size", nodeField(n),
			zap.Stringer("layout", p))
		return
	}
	sx := pw / n.Width
	sy := ph / n.Height
	switch p {
	case PresetFill:
		n.ScaleX, n.ScaleY = sx, sy
	case PresetAspectFill:
		s := math.Max(sx, sy)
		n.ScaleX, n.ScaleY = s, s
	case PresetFitWidth:
		n.ScaleX, n.ScaleY = sx, sx
	case PresetFitHeight:
		n.ScaleX, n.ScaleY = sy, sy
	case PresetBestFit:
		s := sy
		if sx <= sy {
			s = sx
		}
		n.ScaleX, n.ScaleY = s, s
	default:
		n.logger().Warn("invalid layout preset", nodeField(n), zap.Uint8("layout", uint8(p)))
		return
	}
	n.X, n.Y = n.RegX*pw, n.RegY*ph
}

func applyParams(n *Node, p *LayoutParams, pw, ph float64, e *Event) {
	log := n.logger()
	if p.Top != nil || p.Bottom != nil || p.Left != nil || p.Right != nil {
		log.Warn("deprecated layout anchors Top/Bottom/Left/Right, use *Anchor", nodeField(n))
	}
	top := firstSet(p.TopAnchor, p.Top)
	bottom := firstSet(p.BottomAnchor, p.Bottom)
	left := firstSet(p.LeftAnchor, p.Left)
	right := firstSet(p.RightAnchor, p.Right)

	if p.MatchWidth && p.ScaleToWidth != nil {
		log.Warn("matchWidth conflicts with scaleToWidth", nodeField(n))
	}
	if p.MatchHeight && p.ScaleToHeight != nil {
		log.Warn("matchHeight conflicts with scaleToHeight", nodeField(n))
	}

	// Scale.
	scale, hasScale := 1.0, false
	var sx, sy float64
	if p.ScaleToWidth != nil && !p.MatchWidth {
		if n.Width == 0 {
			log.Warn("scaleToWidth needs a non-zero width", nodeField(n))
		} else {
			sx = pw * *p.ScaleToWidth / n.Width
			scale, hasScale = sx, true
		}
	}
	if p.ScaleToHeight != nil && !p.MatchHeight {
		if n.Height == 0 {
			log.Warn("scaleToHeight needs a non-zero height", nodeField(n))
		} else {
			sy = ph * *p.ScaleToHeight / n.Height
			if hasScale {
				useMin := p.UseMinScale == nil || *p.UseMinScale
				if (math.Abs(sy) < math.Abs(sx)) == useMin {
					scale = sy
				}
			} else {
				scale, hasScale = sy, true
			}
		}
	}
	switch {
	case hasScale || p.MatchWidth || p.MatchHeight:
		n.ScaleX, n.ScaleY = scale, scale
	default:
		// Keep the current scale: it may be user-set or tweened.
		log.Warn("no scale strategy resolvable", nodeField(n))
	}
	if p.MatchWidth {
		n.Width = pw / scale
	}
	if p.MatchHeight {
		n.Height = ph / scale
	}

	// Position.
	larger := math.Max(pw, ph)
	switch {
	case p.XPercentage != nil:
		n.X = pw * *p.XPercentage
	case left != nil:
		n.RegX = 0
		n.X = *left * larger
	case right != nil:
		n.RegX = 1
		n.X = pw - *right*larger
	default:
		log.Warn("no horizontal positioning strategy resolvable", nodeField(n))
	}
	switch {
	case p.YPercentage != nil:
		n.Y = ph * *p.YPercentage
	case top != nil:
		n.RegY = 0
		n.Y = *top * larger
	case bottom != nil:
		n.RegY = 1
		n.Y = ph - *bottom*larger
	default:
		log.Warn("no vertical positioning strategy resolvable", nodeField(n))
	}
	if !p.AllowSubPixel {
		n.X = math.Round(n.X)
		n.Y = math.Round(n.Y)
	}

	if p.Custom != nil {
		p.Custom(n, e)
	}
}

func firstSet(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
