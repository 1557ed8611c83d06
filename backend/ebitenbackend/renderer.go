// Package ebitenbackend draws bloom stages with Ebitengine and hosts a
// bloom.Game in the Ebitengine run loop.
package ebitenbackend

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/phanxgames/bloom"
)

var (
	whiteImage    = ebiten.NewImage(3, 3)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
)

func init() {
	whiteImage.Fill(color.White)
}

// Renderer implements bloom.Renderer on an *ebiten.Image. Text is drawn
// from cached bitmaps (AlphamapOffscreenText).
type Renderer struct {
	target *ebiten.Image
	world  bloom.Matrix
	scale  float64
	geoM   ebiten.GeoM
	alpha  float32

	images map[image.Image]*ebiten.Image
	colors map[string]color.NRGBA
	log    *zap.Logger

	verts []ebiten.Vertex
	idx   []uint16
	op    ebiten.DrawImageOptions
	triOp ebiten.DrawTrianglesOptions

	draws int
}

// NewRenderer creates a renderer. Call Begin with the frame's target before
// each draw pass.
func NewRenderer(log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		scale:  1,
		alpha:  1,
		images: make(map[image.Image]*ebiten.Image),
		colors: make(map[string]color.NRGBA),
		log:    log,
	}
}

// Begin targets dst for the next draw pass.
func (r *Renderer) Begin(dst *ebiten.Image) {
	r.target = dst
	r.draws = 0
}

// Draws returns the draw calls issued since Begin.
func (r *Renderer) Draws() int {
	return r.draws
}

// SetWorldTransform implements bloom.Renderer.
func (r *Renderer) SetWorldTransform(m bloom.Matrix, stageScale float64) {
	r.world = m
	r.scale = stageScale
	r.geoM = toGeoM(m, stageScale)
}

// toGeoM converts a bloom matrix, then scales the result by stageScale.
func toGeoM(m bloom.Matrix, stageScale float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(0, 1, m[2])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 0, m[1])
	g.SetElement(1, 1, m[3])
	g.SetElement(1, 2, m[5])
	if stageScale != 1 {
		g.Scale(stageScale, stageScale)
	}
	return g
}

// SetAlpha implements bloom.Renderer.
func (r *Renderer) SetAlpha(alpha float64) {
	r.alpha = float32(alpha)
}

// AlphamapOffscreenText implements bloom.Renderer.
func (r *Renderer) AlphamapOffscreenText() bool {
	return true
}

func (r *Renderer) color(s string) color.NRGBA {
	if c, ok := r.colors[s]; ok {
		return c
	}
	c, ok := bloom.ParseColor(s)
	if !ok {
		r.log.Warn("invalid color, using magenta", zap.String("color", s))
		c = color.NRGBA{R: 0xff, B: 0xff, A: 0xff}
	}
	r.colors[s] = c
	return c
}

// appendQuad appends a quad with corner colors (top-left, top-right,
// bottom-right, bottom-left) in local space.
func (r *Renderer) appendQuad(x, y, w, h float64, tl, tr, br, bl color.NRGBA) {
	base := uint16(len(r.verts))
	corners := [4][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	cols := [4]color.NRGBA{tl, tr, br, bl}
	for i, p := range corners {
		dx, dy := r.geoM.Apply(p[0], p[1])
		c := cols[i]
		r.verts = append(r.verts, ebiten.Vertex{
			DstX:   float32(dx),
			DstY:   float32(dy),
			SrcX:   1.5,
			SrcY:   1.5,
			ColorR: float32(c.R) / 0xff,
			ColorG: float32(c.G) / 0xff,
			ColorB: float32(c.B) / 0xff,
			ColorA: float32(c.A) / 0xff * r.alpha,
		})
	}
	r.idx = append(r.idx, base, base+1, base+2, base, base+2, base+3)
}

func (r *Renderer) flushTriangles() {
	if len(r.verts) == 0 || r.target == nil {
		r.verts, r.idx = r.verts[:0], r.idx[:0]
		return
	}
	r.triOp.ColorScaleMode = ebiten.ColorScaleModeStraightAlpha
	r.target.DrawTriangles(r.verts, r.idx, whiteSubImage, &r.triOp)
	r.draws++
	r.verts, r.idx = r.verts[:0], r.idx[:0]
}

// FillRectangle implements bloom.Renderer.
func (r *Renderer) FillRectangle(x, y, w, h float64, col string) {
	c := r.color(col)
	r.appendQuad(x, y, w, h, c, c, c, c)
	r.flushTriangles()
}

// GradientFill implements bloom.Renderer. color1 blends into color2 over the
// first transition fraction of the axis; the rest is solid color2.
func (r *Renderer) GradientFill(dir bloom.GradientDirection, color1, color2 string, transition, w, h float64) {
	c1, c2 := r.color(color1), r.color(color2)
	if dir == bloom.GradientHorizontal {
		tw := w * transition
		r.appendQuad(0, 0, tw, h, c1, c2, c2, c1)
		if tw < w {
			r.appendQuad(tw, 0, w-tw, h, c2, c2, c2, c2)
		}
	} else {
		th := h * transition
		r.appendQuad(0, 0, w, th, c1, c1, c2, c2)
		if th < h {
			r.appendQuad(0, th, w, h-th, c2, c2, c2, c2)
		}
	}
	r.flushTriangles()
}

// DrawImage implements bloom.Renderer. Non-ebiten images are uploaded once
// and cached by identity.
func (r *Renderer) DrawImage(img image.Image, sx, sy, sw, sh, dx, dy, dw, dh float64) {
	if r.target == nil || img == nil || sw <= 0 || sh <= 0 {
		return
	}
	src := r.ebitenImage(img)
	sub := src.SubImage(image.Rect(int(sx), int(sy), int(sx+sw), int(sy+sh))).(*ebiten.Image)

	op := &r.op
	op.GeoM.Reset()
	op.GeoM.Scale(dw/sw, dh/sh)
	op.GeoM.Translate(dx, dy)
	op.GeoM.Concat(r.geoM)
	op.ColorScale.Reset()
	op.ColorScale.ScaleAlpha(r.alpha)
	op.Filter = ebiten.FilterLinear
	r.target.DrawImage(sub, op)
	r.draws++
}

func (r *Renderer) ebitenImage(img image.Image) *ebiten.Image {
	if e, ok := img.(*ebiten.Image); ok {
		return e
	}
	if e, ok := r.images[img]; ok {
		return e
	}
	e := ebiten.NewImageFromImage(img)
	r.images[img] = e
	return e
}

// Forget drops the cached upload of img.
func (r *Renderer) Forget(img image.Image) {
	if e, ok := r.images[img]; ok {
		e.Deallocate()
		delete(r.images, img)
	}
}
