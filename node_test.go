package bloom

import (
	"testing"
)

// --- Constructor defaults ---

func TestNewContainerDefaults(t *testing.T) {
	n := NewContainer("test")
	assertNodeDefaults(t, n, "test")
	if n.Content != nil {
		t.Error("container should have no content")
	}
}

func TestNewNodeNaturalSize(t *testing.T) {
	sheet := &Sheet{Name: "ui", Frames: map[string]Frame{
		"btn": {X: 0, Y: 0, W: 40, H: 20, SourceW: 48, SourceH: 24},
	}}
	n := NewSprite("btn", sheet, "btn")
	assertNodeDefaults(t, n, "btn")
	if n.Width != 48 || n.Height != 24 {
		t.Errorf("size = (%v, %v), want source size (48, 24)", n.Width, n.Height)
	}
}

func assertNodeDefaults(t *testing.T, n *Node, name string) {
	t.Helper()
	if n.ID == 0 {
		t.Error("ID should be non-zero")
	}
	if n.Name != name {
		t.Errorf("Name = %q, want %q", n.Name, name)
	}
	if n.ScaleX != 1 || n.ScaleY != 1 {
		t.Errorf("Scale = (%v, %v), want (1, 1)", n.ScaleX, n.ScaleY)
	}
	if n.Alpha != 1 {
		t.Errorf("Alpha = %v, want 1", n.Alpha)
	}
	if !n.Visible {
		t.Error("Visible should be true")
	}
	if n.State() != StateDetached {
		t.Errorf("State = %v, want detached", n.State())
	}
	if !n.Handle().IsZero() {
		t.Error("detached node should have a zero handle")
	}
}

func TestNodeIDsUnique(t *testing.T) {
	a := NewContainer("a")
	b := NewContainer("b")
	if a.ID == b.ID {
		t.Errorf("IDs should differ, both %d", a.ID)
	}
}

// --- Tree manipulation ---

func TestAddChildSetsParent(t *testing.T) {
	p := NewContainer("p")
	c := NewContainer("c")
	p.AddChild(c)
	if c.Parent != p {
		t.Error("child.Parent should be p")
	}
	if p.NumChildren() != 1 || p.ChildAt(0) != c {
		t.Error("p should have exactly c")
	}
}

func TestAddChildReparents(t *testing.T) {
	a := NewContainer("a")
	b := NewContainer("b")
	c := NewContainer("c")
	a.AddChild(c)
	b.AddChild(c)
	if a.NumChildren() != 0 {
		t.Errorf("old parent has %d children, want 0", a.NumChildren())
	}
	if c.Parent != b {
		t.Error("child.Parent should be b")
	}
}

func TestAddChildAtIndex(t *testing.T) {
	p := NewContainer("p")
	a, b, c := NewContainer("a"), NewContainer("b"), NewContainer("c")
	p.AddChild(a)
	p.AddChild(b)
	p.AddChildAt(c, 1)
	got := []string{p.ChildAt(0).Name, p.ChildAt(1).Name, p.ChildAt(2).Name}
	want := []string{"a", "c", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestAddChildCyclePanics(t *testing.T) {
	a := NewContainer("a")
	b := NewContainer("b")
	a.AddChild(b)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for cycle")
		}
	}()
	b.AddChild(a)
}

func TestAddChildSelfPanics(t *testing.T) {
	a := NewContainer("a")
	defer func() {
		if recover() == nil {
			t.Error("expected panic adding a node to itself")
		}
	}()
	a.AddChild(a)
}

func TestAddChildNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil child")
		}
	}()
	NewContainer("a").AddChild(nil)
}

func TestRemoveChildAt(t *testing.T) {
	p := NewContainer("p")
	a, b := NewContainer("a"), NewContainer("b")
	p.AddChild(a)
	p.AddChild(b)
	got := p.RemoveChildAt(0)
	if got != a || a.Parent != nil {
		t.Error("RemoveChildAt should return and unlink a")
	}
	if p.NumChildren() != 1 || p.ChildAt(0) != b {
		t.Error("b should remain")
	}
}

func TestRemoveChildWrongParentPanics(t *testing.T) {
	p := NewContainer("p")
	c := NewContainer("c")
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	p.RemoveChild(c)
}

func TestSetChildIndex(t *testing.T) {
	p := NewContainer("p")
	a, b, c := NewContainer("a"), NewContainer("b"), NewContainer("c")
	p.AddChild(a)
	p.AddChild(b)
	p.AddChild(c)

	p.SetChildIndex(a, 2)
	if p.ChildIndex(a) != 2 || p.ChildIndex(b) != 0 || p.ChildIndex(c) != 1 {
		t.Errorf("after move to back: a=%d b=%d c=%d", p.ChildIndex(a), p.ChildIndex(b), p.ChildIndex(c))
	}
	p.SetChildIndex(a, 0)
	if p.ChildIndex(a) != 0 || p.ChildIndex(b) != 1 || p.ChildIndex(c) != 2 {
		t.Errorf("after move to front: a=%d b=%d c=%d", p.ChildIndex(a), p.ChildIndex(b), p.ChildIndex(c))
	}
}

func TestFindByName(t *testing.T) {
	root := NewContainer("root")
	mid := NewContainer("mid")
	leaf := NewContainer("leaf")
	root.AddChild(mid)
	mid.AddChild(leaf)
	if root.FindByName("leaf") != leaf {
		t.Error("FindByName should find nested descendant")
	}
	if root.FindByName("missing") != nil {
		t.Error("FindByName should return nil for unknown names")
	}
}

func TestMarkForRemovalDetachedPurgesImmediately(t *testing.T) {
	p := NewContainer("p")
	c := NewContainer("c")
	gc := NewContainer("gc")
	p.AddChild(c)
	c.AddChild(gc)
	c.On(EventClick, func(*Event) {})

	c.MarkForRemoval()
	if c.State() != StatePurged || gc.State() != StatePurged {
		t.Errorf("states = %v, %v, want purged", c.State(), gc.State())
	}
	if p.NumChildren() != 0 {
		t.Error("purged child should be unlinked")
	}
	if c.HasEventListener(EventClick) || c.Capabilities().MouseEnabled {
		t.Error("purge should drop listeners and capabilities")
	}
	// A second call is a no-op.
	c.MarkForRemoval()
}

func TestAddChildPurgedIgnored(t *testing.T) {
	p := NewContainer("p")
	c := NewContainer("c")
	c.MarkForRemoval()
	p.AddChild(c)
	if p.NumChildren() != 0 {
		t.Error("purged node should not be attached")
	}
}

// --- Transforms ---

func TestWorldTransformInheritsParent(t *testing.T) {
	p := NewContainer("p")
	p.SetPosition(100, 0)
	c := NewContainer("c")
	c.SetPosition(10, 20)
	p.AddChild(c)

	x, y := c.LocalToWorld(0, 0)
	assertNear(t, "x", x, 110)
	assertNear(t, "y", y, 20)
}

func TestRegistrationOffset(t *testing.T) {
	n := NewContainer("n")
	n.SetSize(100, 50)
	n.SetRegistration(0.5, 0.5)
	n.SetPosition(200, 100)

	x, y := n.WorldTransform().TransformPoint(0, 0)
	assertNear(t, "world x", x, 150)
	assertNear(t, "world y", y, 75)

	x, y = n.WorldTransformNoReg().TransformPoint(0, 0)
	assertNear(t, "noreg x", x, 200)
	assertNear(t, "noreg y", y, 100)

	// Children live in the registered space.
	c := NewContainer("c")
	n.AddChild(c)
	x, y = c.LocalToWorld(0, 0)
	assertNear(t, "child x", x, 150)
	assertNear(t, "child y", y, 75)
}

func TestRotationAroundRegistration(t *testing.T) {
	n := NewContainer("n")
	n.SetSize(20, 20)
	n.SetRegistration(0.5, 0.5)
	n.SetPosition(50, 50)
	n.Rotation = 90

	// The registration point stays put; the top-left corner swings round it.
	x, y := n.LocalToWorld(10, 10)
	assertNear(t, "center x", x, 50)
	assertNear(t, "center y", y, 50)
	x, y = n.LocalToWorld(0, 0)
	assertNear(t, "corner x", x, 60)
	assertNear(t, "corner y", y, 40)
}

func TestDirectFieldWritesRecompose(t *testing.T) {
	n := NewContainer("n")
	n.X = 5
	_ = n.WorldTransform()
	n.X = 25
	x, _ := n.LocalToWorld(0, 0)
	assertNear(t, "x", x, 25)
}

func TestParentChangePropagates(t *testing.T) {
	p := NewContainer("p")
	c := NewContainer("c")
	p.AddChild(c)
	c.UpdateTransforms()

	p.Y = 40
	c.UpdateTransforms()
	if !c.WorldTransformUpdated() {
		t.Error("child world transform should recompose after parent move")
	}
	_, y := c.LocalToWorld(0, 0)
	assertNear(t, "y", y, 40)

	c.UpdateTransforms()
	if c.WorldTransformUpdated() {
		t.Error("nothing changed, world transform should not recompose")
	}
}

func TestReparentRecomposes(t *testing.T) {
	a := NewContainer("a")
	a.X = 10
	b := NewContainer("b")
	b.X = 90
	c := NewContainer("c")
	a.AddChild(c)
	x, _ := c.LocalToWorld(0, 0)
	assertNear(t, "under a", x, 10)
	b.AddChild(c)
	x, _ = c.LocalToWorld(0, 0)
	assertNear(t, "under b", x, 90)
}

func TestWorldAlphaMultiplies(t *testing.T) {
	p := NewContainer("p")
	p.Alpha = 0.5
	c := NewContainer("c")
	c.Alpha = 0.5
	p.AddChild(c)
	assertNear(t, "alpha", c.WorldAlpha(), 0.25)
}

func TestAlphaClamped(t *testing.T) {
	n := NewContainer("n")
	n.Alpha = 3
	assertNear(t, "alpha", n.WorldAlpha(), 1)
	n.Alpha = -1
	assertNear(t, "alpha", n.WorldAlpha(), 0)
}

func TestWorldToLocalRoundTrip(t *testing.T) {
	p := NewContainer("p")
	p.SetPosition(30, 40)
	p.Rotation = 30
	p.SetScale(2, 0.5)
	c := NewContainer("c")
	c.SetPosition(5, 7)
	p.AddChild(c)

	wx, wy := c.LocalToWorld(3, 4)
	lx, ly := c.WorldToLocal(wx, wy)
	assertNear(t, "x", lx, 3)
	assertNear(t, "y", ly, 4)
}

// --- Bounds ---

func TestBoundsOwnRect(t *testing.T) {
	n := NewContainer("n")
	n.SetSize(10, 20)
	n.SetPosition(5, 5)
	b := n.Bounds()
	if b != (Rect{X: 5, Y: 5, Width: 10, Height: 20}) {
		t.Errorf("bounds = %+v", b)
	}
}

func TestBoundsUnionOfChildren(t *testing.T) {
	p := NewContainer("p")
	a := NewContainer("a")
	a.SetSize(10, 10)
	b := NewContainer("b")
	b.SetSize(10, 10)
	b.SetPosition(30, 40)
	p.AddChild(a)
	p.AddChild(b)

	got := p.Bounds()
	assertNear(t, "w", got.Width, 40)
	assertNear(t, "h", got.Height, 50)

	// Moving a descendant invalidates the ancestor cache.
	b.X = 90
	got = p.Bounds()
	assertNear(t, "w after move", got.Width, 100)

	// Invisible children are excluded.
	b.Visible = false
	got = p.Bounds()
	assertNear(t, "w hidden", got.Width, 10)
}

func TestBoundsRotated(t *testing.T) {
	n := NewContainer("n")
	n.SetSize(10, 10)
	n.SetRegistration(0.5, 0.5)
	n.Rotation = 45
	b := n.Bounds()
	d := 10 * 1.4142135623730951
	if !approxEqual(b.Width, d, 1e-6) || !approxEqual(b.Height, d, 1e-6) {
		t.Errorf("rotated bounds = %+v, want %vx%v", b, d, d)
	}
}

// --- Hit testing ---

func TestHitTest(t *testing.T) {
	n := NewContainer("n")
	n.SetSize(10, 10)
	n.SetPosition(100, 100)
	if !n.HitTest(105, 105) {
		t.Error("center should hit")
	}
	if n.HitTest(95, 105) {
		t.Error("outside should miss")
	}
	n.ScaleX = 0
	if n.HitTest(100, 100) {
		t.Error("degenerate transform should never hit")
	}
}

func TestBoundsDropMarkedChildImmediately(t *testing.T) {
	s := newTestStage()
	p := NewContainer("p")
	a := NewContainer("a")
	a.SetSize(10, 10)
	b := NewContainer("b")
	b.SetSize(10, 10)
	b.SetPosition(50, 0)
	p.AddChild(a)
	p.AddChild(b)
	s.AddChild(p)

	assertNear(t, "w", p.Bounds().Width, 60)
	b.MarkForRemoval()
	assertNear(t, "w after mark", p.Bounds().Width, 10)
}
