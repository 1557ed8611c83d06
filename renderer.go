package bloom

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Renderer is the pixel backend the draw pass talks to. Every call is made
// in the space set by the most recent SetWorldTransform.
type Renderer interface {
	SetWorldTransform(m Matrix, stageScale float64)
	SetAlpha(alpha float64)
	FillRectangle(x, y, w, h float64, color string)
	GradientFill(dir GradientDirection, color1, color2 string, transition, w, h float64)
	DrawImage(img image.Image, sx, sy, sw, sh, dx, dy, dw, dh float64)
	// AlphamapOffscreenText reports whether text must be rasterized into a
	// cached bitmap before drawing.
	AlphamapOffscreenText() bool
}

// TextRenderer is implemented by backends that can draw text natively.
// Only consulted when AlphamapOffscreenText returns false.
type TextRenderer interface {
	FillText(text string, size float64, color string, x, y float64)
}

// Drawable is content painted at a node's world transform.
type Drawable interface {
	Draw(r Renderer, n *Node)
}

// sizer is implemented by content with an intrinsic size; NewNode copies it
// into Width/Height.
type sizer interface {
	NaturalSize() (w, h float64)
}

// GradientDirection selects the gradient axis.
type GradientDirection uint8

const (
	GradientVertical   GradientDirection = iota // color1 at the top
	GradientHorizontal                          // color1 at the left
	numGradientDirections
)

func (d GradientDirection) String() string {
	switch d {
	case GradientVertical:
		return "vertical"
	case GradientHorizontal:
		return "horizontal"
	}
	return "invalid"
}

// ParseGradientDirection maps "vertical"/"horizontal" to a direction. Any
// other value logs a warning and falls back to vertical.
func ParseGradientDirection(s string, log *zap.Logger) GradientDirection {
	switch strings.ToLower(s) {
	case "vertical", "v":
		return GradientVertical
	case "horizontal", "h":
		return GradientHorizontal
	}
	if log != nil {
		log.Warn("invalid gradient direction, using vertical", zap.String("direction", s))
	}
	return GradientVertical
}

// RectangleFill paints the node's rectangle with a solid color ("#rrggbb"
// or "#rrggbbaa").
type RectangleFill struct {
	Color string
}

// Draw implements Drawable.
func (f *RectangleFill) Draw(r Renderer, n *Node) {
	r.FillRectangle(0, 0, n.Width, n.Height, f.Color)
}

// GradientFill paints the node's rectangle with a two-color gradient.
// Transition is the fraction (0..1) along the axis where color2 is reached.
type GradientFill struct {
	Direction  GradientDirection
	Color1     string
	Color2     string
	Transition float64
}

// Draw implements Drawable.
func (g *GradientFill) Draw(r Renderer, n *Node) {
	dir := g.Direction
	if dir >= numGradientDirections {
		n.logger().Warn("invalid gradient direction, using vertical", nodeField(n),
			zap.Uint8("direction", uint8(dir)))
		dir = GradientVertical
		g.Direction = dir
	}
	t := g.Transition
	if t <= 0 || t > 1 {
		t = 1
	}
	r.GradientFill(dir, g.Color1, g.Color2, t, n.Width, n.Height)
}

// Sprite paints one frame of a sprite sheet, or a whole image when Sheet is
// nil. Trimmed frames are offset back to their untrimmed position.
type Sprite struct {
	Image image.Image
	Sheet *Sheet
	Frame string
}

// NewSprite creates a node drawing the named frame of sheet. A missing frame
// logs a diagnostic and yields an empty node.
func NewSprite(name string, sheet *Sheet, frame string) *Node {
	return NewNode(name, &Sprite{Sheet: sheet, Frame: frame})
}

// NewImage creates a node drawing a whole image.
func NewImage(name string, img image.Image) *Node {
	return NewNode(name, &Sprite{Image: img})
}

// NaturalSize implements sizer.
func (s *Sprite) NaturalSize() (float64, float64) {
	if s.Sheet != nil {
		if f, ok := s.Sheet.Frames[s.Frame]; ok {
			return float64(f.SourceW), float64(f.SourceH)
		}
		return 0, 0
	}
	if s.Image != nil {
		b := s.Image.Bounds()
		return float64(b.Dx()), float64(b.Dy())
	}
	return 0, 0
}

// Draw implements Drawable. The frame is scaled to the node's Width/Height.
func (s *Sprite) Draw(r Renderer, n *Node) {
	if s.Sheet == nil {
		if s.Image == nil {
			return
		}
		b := s.Image.Bounds()
		r.DrawImage(s.Image, float64(b.Min.X), float64(b.Min.Y), float64(b.Dx()), float64(b.Dy()),
			0, 0, n.Width, n.Height)
		return
	}
	f, ok := s.Sheet.Frame(s.Frame)
	if !ok || s.Sheet.Image == nil {
		return
	}
	kx, ky := 1.0, 1.0
	if f.SourceW > 0 && f.SourceH > 0 {
		kx = n.Width / float64(f.SourceW)
		ky = n.Height / float64(f.SourceH)
	}
	r.DrawImage(s.Sheet.Image,
		float64(f.X), float64(f.Y), float64(f.W), float64(f.H),
		float64(f.OffsetX)*kx, float64(f.OffsetY)*ky, float64(f.W)*kx, float64(f.H)*ky)
}

// ParseColor parses "#rgb", "#rrggbb", or "#rrggbbaa" (the "#" is optional).
func ParseColor(s string) (color.NRGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, true
}
