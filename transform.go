package bloom

import "math"

func (n *Node) snapshot() placement {
	return placement{
		x: n.X, y: n.Y,
		scaleX: n.ScaleX, scaleY: n.ScaleY,
		rotation: n.Rotation,
		regX:     n.RegX, regY: n.RegY,
		width: n.Width, height: n.Height,
		shakeX: n.shakeX, shakeY: n.shakeY,
		alpha:   n.Alpha,
		visible: n.Visible,
	}
}

// computeLocalTransform returns Translate(x+shake, y+shake) * Rotate * Scale.
// The registration offset is not included.
func computeLocalTransform(p placement) Matrix {
	sin, cos := math.Sincos(p.rotation * math.Pi / 180)
	return Matrix{
		cos * p.scaleX,
		sin * p.scaleX,
		-sin * p.scaleY,
		cos * p.scaleY,
		p.x + p.shakeX,
		p.y + p.shakeY,
	}
}

// updateTransforms recomposes the node's cached transforms if anything they
// depend on changed. The parent must already be up to date, so traversals
// call it in pre-order.
//
// The local matrix is recomputed only when the placement snapshot differs.
// The world matrices are recomputed when the local matrix changed, the
// parent changed, or the parent's world matrix was recomposed since this
// node last looked at it.
func (n *Node) updateTransforms() {
	if n.Alpha < 0 || n.Alpha > 1 {
		n.Alpha = clamp01(n.Alpha)
	}
	cur := n.snapshot()
	localDirty := !n.hasPrev || cur != n.prev
	if localDirty {
		n.local = computeLocalTransform(cur)
		n.prev = cur
		n.hasPrev = true
		n.invalidateBounds()
	}

	parentWorld := IdentityMatrix
	parentAlpha := 1.0
	var parentVersion uint64
	if p := n.Parent; p != nil {
		parentWorld = p.world
		parentAlpha = p.worldAlpha
		parentVersion = p.worldVersion
	}

	n.worldUpdated = false
	if localDirty || !n.worldValid || n.Parent != n.prevParent || parentVersion != n.parentVersion {
		if !localDirty {
			n.invalidateBounds()
		}
		n.worldNoReg = Multiply(parentWorld, n.local)
		n.world = n.worldNoReg
		n.world.Translate(-n.RegX*n.Width, -n.RegY*n.Height)
		n.prevParent = n.Parent
		n.parentVersion = parentVersion
		n.worldVersion++
		n.worldValid = true
		n.worldUpdated = true
	}
	n.worldAlpha = parentAlpha * n.Alpha
}

// ensureTransforms brings the node and every ancestor up to date, root first.
func (n *Node) ensureTransforms() {
	if n.Parent != nil {
		n.Parent.ensureTransforms()
	}
	n.updateTransforms()
}

// updateSubtree recomposes n's descendants in pre-order. n must be current.
func (n *Node) updateSubtree() {
	for _, c := range n.children {
		c.updateTransforms()
		c.updateSubtree()
	}
}

// UpdateTransforms brings this node's cached transforms up to date,
// recomposing ancestors first.
func (n *Node) UpdateTransforms() {
	n.ensureTransforms()
}

// WorldTransformUpdated reports whether the most recent recomposition of this
// node changed its world transform.
func (n *Node) WorldTransformUpdated() bool {
	return n.worldUpdated
}

// LocalTransform returns the cached local transform (registration excluded).
func (n *Node) LocalTransform() Matrix {
	n.ensureTransforms()
	return n.local
}

// WorldTransform returns the world transform including the registration
// offset. Child coordinates are expressed in this space.
func (n *Node) WorldTransform() Matrix {
	n.ensureTransforms()
	return n.world
}

// WorldTransformNoReg returns the world transform excluding the node's own
// registration offset, for alignment calculations.
func (n *Node) WorldTransformNoReg() Matrix {
	n.ensureTransforms()
	return n.worldNoReg
}

// WorldAlpha returns the product of the alphas from the root down to n.
func (n *Node) WorldAlpha() float64 {
	n.ensureTransforms()
	return n.worldAlpha
}

// --- Coordinate conversion ---

// WorldToLocal converts a stage-space point to this node's local space
// (origin at the node's top-left corner).
func (n *Node) WorldToLocal(wx, wy float64) (lx, ly float64) {
	return n.WorldTransform().InverseTransformPoint(wx, wy)
}

// LocalToWorld converts a local-space point to stage space.
func (n *Node) LocalToWorld(lx, ly float64) (wx, wy float64) {
	return n.WorldTransform().TransformPoint(lx, ly)
}

// --- Bounds ---

// invalidateBounds clears the cached bounds of n and every ancestor up to
// the root. Ancestors recompute lazily on their next Bounds call.
func (n *Node) invalidateBounds() {
	for p := n; p != nil; p = p.Parent {
		p.boundsValid = false
	}
}

// Bounds returns the stage-space axis-aligned bounding box of the node's own
// rectangle united with those of its visible descendants. The result is
// cached until a placement change in the subtree invalidates it.
func (n *Node) Bounds() Rect {
	n.ensureTransforms()
	n.updateSubtree()
	return n.computeBounds()
}

func (n *Node) computeBounds() Rect {
	if n.boundsValid {
		return n.bounds
	}
	var r Rect
	has := false
	if n.Width != 0 && n.Height != 0 {
		r = worldAABB(n.world, n.Width, n.Height)
		has = true
	}
	for _, c := range n.children {
		if !c.Visible || c.IsRemoved() {
			continue
		}
		cb := c.computeBounds()
		if cb.Width == 0 && cb.Height == 0 && cb.X == 0 && cb.Y == 0 {
			continue
		}
		if has {
			r = r.Union(cb)
		} else {
			r = cb
			has = true
		}
	}
	n.bounds = r
	n.boundsValid = true
	return r
}

// worldAABB computes the axis-aligned bounding box of the rectangle (0,0,w,h)
// transformed by m. Zero allocations.
func worldAABB(m Matrix, w, h float64) Rect {
	x0, y0 := m.TransformPoint(0, 0)
	x1, y1 := m.TransformPoint(w, 0)
	x2, y2 := m.TransformPoint(w, h)
	x3, y3 := m.TransformPoint(0, h)

	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// --- Hit testing ---

// HitTest reports whether the stage-space point lies inside the node's own
// rectangle. Degenerate transforms never hit.
func (n *Node) HitTest(x, y float64) bool {
	m := n.WorldTransform()
	if m.Determinant() == 0 {
		return false
	}
	lx, ly := m.InverseTransformPoint(x, y)
	return Rect{Width: n.Width, Height: n.Height}.Contains(lx, ly)
}

// --- Convenience setters ---

// SetPosition sets X and Y.
func (n *Node) SetPosition(x, y float64) {
	n.X = x
	n.Y = y
}

// SetScale sets ScaleX and ScaleY.
func (n *Node) SetScale(sx, sy float64) {
	n.ScaleX = sx
	n.ScaleY = sy
}

// SetRegistration sets the registration point.
func (n *Node) SetRegistration(rx, ry float64) {
	n.RegX = rx
	n.RegY = ry
}

// SetSize sets Width and Height.
func (n *Node) SetSize(w, h float64) {
	n.Width = w
	n.Height = h
}
