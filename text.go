package bloom

import (
	"image"
	"image/color"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Label paints a line (or lines, split on "\n") of text. Backends that
// report AlphamapOffscreenText, or cannot draw text natively, receive a
// cached bitmap rasterized through x/image/font; the rest get FillText.
type Label struct {
	Text  string
	Font  *opentype.Font // nil selects a built-in 7x13 bitmap face
	Size  float64        // points at 72 DPI
	Color string

	face    font.Face
	faceKey labelFaceKey

	bitmap    *image.RGBA
	bitmapKey labelBitmapKey
}

type labelFaceKey struct {
	font *opentype.Font
	size float64
}

type labelBitmapKey struct {
	face  labelFaceKey
	text  string
	color string
}

// NewLabel creates a node sized to its text.
func NewLabel(name, text string, f *opentype.Font, size float64, color string) *Node {
	return NewNode(name, &Label{Text: text, Font: f, Size: size, Color: color})
}

// SetText replaces the text of a label node and resizes the node to fit.
// Nodes without a Label do nothing.
func (n *Node) SetText(text string) {
	l, ok := n.Content.(*Label)
	if !ok {
		n.logger().Warn("SetText on a node without a label", nodeField(n))
		return
	}
	l.Text = text
	n.Width, n.Height = l.NaturalSize()
}

func (l *Label) fontFace() font.Face {
	key := labelFaceKey{font: l.Font, size: l.Size}
	if l.face != nil && key == l.faceKey {
		return l.face
	}
	l.faceKey = key
	l.face = basicfont.Face7x13
	if l.Font != nil {
		size := l.Size
		if size <= 0 {
			size = 16
		}
		face, err := opentype.NewFace(l.Font, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			zap.L().Warn("label face failed, using fallback", zap.Error(err))
		} else {
			l.face = face
		}
	}
	return l.face
}

func (l *Label) lines() []string {
	return strings.Split(l.Text, "\n")
}

// NaturalSize implements sizer.
func (l *Label) NaturalSize() (float64, float64) {
	face := l.fontFace()
	var w fixed.Int26_6
	for _, line := range l.lines() {
		if lw := font.MeasureString(face, line); lw > w {
			w = lw
		}
	}
	lh := face.Metrics().Height.Ceil()
	return float64(w.Ceil()), float64(lh * len(l.lines()))
}

// Draw implements Drawable.
func (l *Label) Draw(r Renderer, n *Node) {
	if l.Text == "" {
		return
	}
	face := l.fontFace()
	tr, native := r.(TextRenderer)
	if native && !r.AlphamapOffscreenText() {
		asc := float64(face.Metrics().Ascent.Ceil())
		lh := float64(face.Metrics().Height.Ceil())
		for i, line := range l.lines() {
			tr.FillText(line, l.Size, l.Color, 0, asc+float64(i)*lh)
		}
		return
	}
	img := l.rasterize(face)
	if img == nil {
		return
	}
	b := img.Bounds()
	r.DrawImage(img, 0, 0, float64(b.Dx()), float64(b.Dy()), 0, 0, n.Width, n.Height)
}

// rasterize renders the text into a cached bitmap, redrawn only when the
// text, color, or face changes.
func (l *Label) rasterize(face font.Face) *image.RGBA {
	key := labelBitmapKey{face: l.faceKey, text: l.Text, color: l.Color}
	if l.bitmap != nil && key == l.bitmapKey {
		return l.bitmap
	}
	w, h := l.NaturalSize()
	if w <= 0 || h <= 0 {
		return nil
	}
	col, ok := ParseColor(l.Color)
	if !ok {
		col = color.NRGBA{A: 0xff}
	}
	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	m := face.Metrics()
	d := &font.Drawer{Dst: img, Src: image.NewUniform(col), Face: face}
	for i, line := range l.lines() {
		d.Dot = fixed.P(0, m.Ascent.Ceil()+i*m.Height.Ceil())
		d.DrawString(line)
	}
	l.bitmap = img
	l.bitmapKey = key
	return img
}
