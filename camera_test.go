package bloom

import (
	"testing"

	"github.com/tanema/gween/ease"
)

func TestCameraIdentityAtZeroScroll(t *testing.T) {
	s := NewStage(800, 600, StageOptions{})
	assertMatrix(t, "view", s.Camera().ViewMatrix(), IdentityMatrix)
}

func TestCameraCenterOn(t *testing.T) {
	s := NewStage(800, 600, StageOptions{})
	cam := s.Camera()
	cam.CenterOn(1000, 1000)
	sx, sy := cam.StageToScreen(1000, 1000)
	assertNear(t, "sx", sx, 400)
	assertNear(t, "sy", sy, 300)
}

func TestCameraZoomAroundCenter(t *testing.T) {
	s := NewStage(800, 600, StageOptions{})
	cam := s.Camera()
	cam.Zoom = 2
	sx, sy := cam.StageToScreen(400, 300)
	assertNear(t, "center x", sx, 400)
	assertNear(t, "center y", sy, 300)
	sx, _ = cam.StageToScreen(401, 300)
	assertNear(t, "one unit", sx, 402)
}

func TestCameraScreenToStageRoundTrip(t *testing.T) {
	s := NewStage(800, 600, StageOptions{})
	cam := s.Camera()
	cam.X, cam.Y = 120, -40
	cam.Zoom = 1.5
	cam.Rotation = 20
	sx, sy := cam.StageToScreen(333, 222)
	wx, wy := cam.ScreenToStage(sx, sy)
	assertNear(t, "x", wx, 333)
	assertNear(t, "y", wy, 222)
}

func TestCameraVisibleBounds(t *testing.T) {
	s := NewStage(800, 600, StageOptions{})
	cam := s.Camera()
	cam.Zoom = 2
	b := cam.VisibleBounds()
	assertNear(t, "x", b.X, 200)
	assertNear(t, "y", b.Y, 150)
	assertNear(t, "w", b.Width, 400)
	assertNear(t, "h", b.Height, 300)
}

func TestCameraFollowSnap(t *testing.T) {
	s := NewStage(800, 600, StageOptions{})
	hero := NewContainer("hero")
	hero.SetPosition(1200, 900)
	s.AddChild(hero)
	cam := s.Camera()
	cam.Follow(hero, 0, 0, 1)
	s.Update(0.016)
	sx, sy := cam.StageToScreen(1200, 900)
	assertNear(t, "sx", sx, 400)
	assertNear(t, "sy", sy, 300)
}

func TestCameraFollowDropsRemovedTarget(t *testing.T) {
	s := NewStage(800, 600, StageOptions{})
	hero := NewContainer("hero")
	s.AddChild(hero)
	cam := s.Camera()
	cam.Follow(hero, 0, 0, 1)
	hero.MarkForRemoval()
	s.Update(0.016)
	if cam.followTarget != nil {
		t.Error("removed follow target should be dropped")
	}
}

func TestCameraScrollTo(t *testing.T) {
	s := NewStage(800, 600, StageOptions{})
	cam := s.Camera()
	cam.ScrollTo(500, 300, 1, ease.Linear)
	if !cam.Scrolling() {
		t.Fatal("should be scrolling")
	}
	s.Update(0.5)
	if !approxEqual(cam.X, 50, 1e-3) {
		t.Errorf("X halfway = %v, want 50", cam.X)
	}
	s.Update(0.6)
	if cam.Scrolling() {
		t.Error("scroll should be finished")
	}
	if !approxEqual(cam.X, 100, 1e-3) {
		t.Errorf("X = %v, want 100", cam.X)
	}
}

func TestCameraBoundsClamp(t *testing.T) {
	s := NewStage(800, 600, StageOptions{})
	cam := s.Camera()
	cam.SetBounds(Rect{Width: 2000, Height: 600})
	cam.X = -500
	s.Update(0.016)
	assertNear(t, "clamped low", cam.X, 0)
	cam.X = 5000
	s.Update(0.016)
	assertNear(t, "clamped high", cam.X, 1200)
	assertNear(t, "y pinned", cam.Y, 0)
}

func TestCameraChangeEvent(t *testing.T) {
	s := NewStage(800, 600, StageOptions{})
	n := NewContainer("n")
	changes := 0
	n.On(EventCameraChange, func(*Event) { changes++ })
	s.AddChild(n)
	s.Update(0.016)
	if changes != 0 {
		t.Errorf("no movement fired %d changes", changes)
	}
	s.Camera().X = 10
	s.Update(0.016)
	s.Update(0.016)
	if changes != 1 {
		t.Errorf("changes = %d, want 1", changes)
	}
}

func TestCameraViewMatrixTracksDirectWrites(t *testing.T) {
	s := NewStage(800, 600, StageOptions{})
	cam := s.Camera()
	_ = cam.ViewMatrix()
	cam.X = 50
	sx, _ := cam.StageToScreen(50, 0)
	assertNear(t, "sx", sx, 0)
}
