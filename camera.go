package bloom

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Camera controls the view onto the stage. X and Y scroll the view: the
// stage point shown at the viewport center is the viewport center plus
// (X, Y). Zoom and Rotation pivot around the viewport center. The zero
// scroll at zoom 1 is the identity view.
type Camera struct {
	X, Y     float64
	Zoom     float64
	Rotation float64 // degrees, clockwise
	Viewport Rect

	// CullEnabled skips drawing content whose screen AABB misses the viewport.
	CullEnabled bool

	followTarget  *Node
	followOffsetX float64
	followOffsetY float64
	followLerp    float64

	// BoundsEnabled clamps the scroll so the visible area stays within Bounds.
	BoundsEnabled bool
	Bounds        Rect

	view    Matrix
	invView Matrix
	viewKey [4]float64
	dirty   bool

	prevX, prevY, prevZoom, prevRot float64

	scrollTween *scrollAnim
}

func newCamera(viewport Rect) *Camera {
	return &Camera{
		Zoom:     1,
		prevZoom: 1,
		Viewport: viewport,
		dirty:    true,
	}
}

func (c *Camera) setViewport(r Rect) {
	c.Viewport = r
	c.dirty = true
}

// Follow makes the camera track a node's registration point with the given
// offset and lerp factor. A lerp of 1 snaps immediately.
func (c *Camera) Follow(n *Node, offsetX, offsetY, lerp float64) {
	c.followTarget = n
	c.followOffsetX = offsetX
	c.followOffsetY = offsetY
	c.followLerp = lerp
}

// Unfollow stops tracking the current target node.
func (c *Camera) Unfollow() {
	c.followTarget = nil
}

// CenterOn scrolls so the stage point (x, y) is at the viewport center.
func (c *Camera) CenterOn(x, y float64) {
	c.scrollTween = nil
	c.X, c.Y = c.scrollFor(x, y)
}

// ScrollTo animates the camera so the stage point (x, y) ends up at the
// viewport center after duration seconds.
func (c *Camera) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	if easeFn == nil {
		easeFn = ease.Linear
	}
	tx, ty := c.scrollFor(x, y)
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.X), float32(tx), duration, easeFn),
		tweenY: gween.New(float32(c.Y), float32(ty), duration, easeFn),
	}
}

// Scrolling reports whether a ScrollTo animation is running.
func (c *Camera) Scrolling() bool {
	return c.scrollTween != nil
}

func (c *Camera) scrollFor(x, y float64) (float64, float64) {
	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2
	return x - cx, y - cy
}

// SetBounds enables scroll clamping.
func (c *Camera) SetBounds(bounds Rect) {
	c.BoundsEnabled = true
	c.Bounds = bounds
}

// ClearBounds disables scroll clamping.
func (c *Camera) ClearBounds() {
	c.BoundsEnabled = false
}

// update advances follow, scroll, and bounds clamping, and reports whether
// the position, zoom, or rotation changed since the previous update.
func (c *Camera) update(dt float64) bool {
	if c.followTarget != nil {
		if c.followTarget.IsRemoved() {
			c.followTarget = nil
		} else {
			t := c.followTarget
			wx, wy := t.WorldTransformNoReg().TransformPoint(0, 0)
			tx, ty := c.scrollFor(wx+c.followOffsetX, wy+c.followOffsetY)
			c.X += (tx - c.X) * c.followLerp
			c.Y += (ty - c.Y) * c.followLerp
		}
	}

	if c.scrollTween != nil {
		if !c.scrollTween.doneX {
			val, done := c.scrollTween.tweenX.Update(float32(dt))
			c.X = float64(val)
			c.scrollTween.doneX = done
		}
		if !c.scrollTween.doneY {
			val, done := c.scrollTween.tweenY.Update(float32(dt))
			c.Y = float64(val)
			c.scrollTween.doneY = done
		}
		if c.scrollTween.doneX && c.scrollTween.doneY {
			c.scrollTween = nil
		}
	}

	if c.BoundsEnabled {
		c.clampToBounds()
	}

	changed := c.X != c.prevX || c.Y != c.prevY || c.Zoom != c.prevZoom || c.Rotation != c.prevRot
	if changed {
		c.prevX, c.prevY, c.prevZoom, c.prevRot = c.X, c.Y, c.Zoom, c.Rotation
	}
	return changed
}

// clampToBounds restricts the scroll so the visible area stays within Bounds.
func (c *Camera) clampToBounds() {
	zoom := c.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	halfW := c.Viewport.Width / (2 * zoom)
	halfH := c.Viewport.Height / (2 * zoom)
	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2

	minX := c.Bounds.X + halfW
	maxX := c.Bounds.X + c.Bounds.Width - halfW
	minY := c.Bounds.Y + halfH
	maxY := c.Bounds.Y + c.Bounds.Height - halfH

	// Bounds smaller than the visible area center the view.
	centerX, centerY := cx+c.X, cy+c.Y
	if minX > maxX {
		centerX = c.Bounds.X + c.Bounds.Width/2
	} else {
		centerX = math.Max(minX, math.Min(centerX, maxX))
	}
	if minY > maxY {
		centerY = c.Bounds.Y + c.Bounds.Height/2
	} else {
		centerY = math.Max(minY, math.Min(centerY, maxY))
	}
	c.X, c.Y = centerX-cx, centerY-cy
}

// ViewMatrix returns the stage-to-screen transform:
// Translate(center) * Scale(zoom) * Rotate(-rotation) * Translate(-center - scroll).
func (c *Camera) ViewMatrix() Matrix {
	key := [4]float64{c.X, c.Y, c.Zoom, c.Rotation}
	if !c.dirty && key == c.viewKey {
		return c.view
	}
	c.dirty = false
	c.viewKey = key
	cx := c.Viewport.X + c.Viewport.Width/2
	cy := c.Viewport.Y + c.Viewport.Height/2
	m := IdentityMatrix
	m.Translate(cx, cy)
	m.Scale(c.Zoom, c.Zoom)
	m.Rotate(-c.Rotation)
	m.Translate(-cx-c.X, -cy-c.Y)
	c.view = m
	if m.Determinant() != 0 {
		c.invView = m.Invert()
	} else {
		c.invView = IdentityMatrix
	}
	return c.view
}

// StageToScreen converts stage coordinates to screen coordinates.
func (c *Camera) StageToScreen(x, y float64) (float64, float64) {
	return c.ViewMatrix().TransformPoint(x, y)
}

// ScreenToStage converts screen coordinates to stage coordinates.
func (c *Camera) ScreenToStage(x, y float64) (float64, float64) {
	c.ViewMatrix()
	return c.invView.TransformPoint(x, y)
}

// VisibleBounds returns the stage-space AABB of the visible area.
func (c *Camera) VisibleBounds() Rect {
	c.ViewMatrix()
	m := c.invView
	m.Translate(c.Viewport.X, c.Viewport.Y)
	return worldAABB(m, c.Viewport.Width, c.Viewport.Height)
}
