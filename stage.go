package bloom

import (
	"math"
	"time"

	"go.uber.org/zap"
)

const (
	defaultClickTime     = 500 * time.Millisecond
	defaultClickDistance = 0.02
)

// Handle is a generational reference to a staged node. The zero Handle
// refers to nothing.
type Handle struct {
	index uint32 // slot index + 1
	gen   uint32
}

// IsZero reports whether h refers to nothing.
func (h Handle) IsZero() bool {
	return h.index == 0
}

type arenaSlot struct {
	node *Node
	gen  uint32
}

// arena tracks every staged node. Slots are only freed when a node leaves
// the stage, so a handle taken mid-frame stays valid until the end of frame.
type arena struct {
	slots []arenaSlot
	free  []uint32
	live  int
}

func (a *arena) alloc(n *Node) Handle {
	var i uint32
	if k := len(a.free); k > 0 {
		i = a.free[k-1]
		a.free = a.free[:k-1]
	} else {
		a.slots = append(a.slots, arenaSlot{})
		i = uint32(len(a.slots) - 1)
	}
	a.slots[i].node = n
	a.live++
	return Handle{index: i + 1, gen: a.slots[i].gen}
}

func (a *arena) release(h Handle) {
	if h.index == 0 || int(h.index) > len(a.slots) {
		return
	}
	s := &a.slots[h.index-1]
	if s.gen != h.gen || s.node == nil {
		return
	}
	s.node = nil
	s.gen++
	a.live--
	a.free = append(a.free, h.index-1)
}

func (a *arena) get(h Handle) *Node {
	if h.index == 0 || int(h.index) > len(a.slots) {
		return nil
	}
	s := a.slots[h.index-1]
	if s.gen != h.gen {
		return nil
	}
	return s.node
}

// StageOptions configures a Stage. Zero values select the defaults.
type StageOptions struct {
	Logger *zap.Logger

	// ClickTime is the longest mousedown-to-mouseup gap that still counts
	// as a click.
	ClickTime time.Duration
	// ClickDistance is the largest pointer travel between mousedown and
	// mouseup, as a fraction of the stage's larger dimension.
	ClickDistance float64
}

type injectedMouse struct {
	kind EventKind
	x, y float64
}

// Stage is the top-level object that owns the node tree, the per-frame
// update set, the deferred removal queues, the camera, and mouse state.
type Stage struct {
	root       *Node
	updateRoot *Node
	log        *zap.Logger
	debug      bool

	width, height float64
	scale         float64

	camera *Camera
	clock  float64

	arena     arena
	updateSet map[*Node]struct{}
	trash     []*Node
	sweepList []*Node
	walkBuf   []*Node

	// Mouse
	clickTime     float64
	clickDistance float64
	downNode      *Node
	downTime      float64
	downX, downY  float64
	hitBuf        []*Node
	injectQueue   []injectedMouse
	interacted    bool
	onInteraction []func()

	stats frameStats
}

// NewStage creates a stage of the given size with a pre-created root
// container named "stage".
func NewStage(width, height float64, opts StageOptions) *Stage {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Stage{
		log:           log,
		width:         width,
		height:        height,
		scale:         1,
		updateSet:     make(map[*Node]struct{}),
		clickTime:     opts.ClickTime.Seconds(),
		clickDistance: opts.ClickDistance,
	}
	if opts.ClickTime <= 0 {
		s.clickTime = defaultClickTime.Seconds()
	}
	if s.clickDistance <= 0 {
		s.clickDistance = defaultClickDistance
	}
	s.camera = newCamera(Rect{Width: width, Height: height})
	root := NewContainer("stage")
	root.Width, root.Height = width, height
	s.root = root
	s.updateRoot = root
	s.attachSubtree(root)
	return s
}

// Root returns the stage's root container node.
func (s *Stage) Root() *Node {
	return s.root
}

// AddChild adds n under the root.
func (s *Stage) AddChild(n *Node) {
	s.root.AddChild(n)
}

// Logger returns the stage's diagnostic logger.
func (s *Stage) Logger() *zap.Logger {
	return s.log
}

// Size returns the stage dimensions.
func (s *Stage) Size() (w, h float64) {
	return s.width, s.height
}

// Orientation returns Landscape iff the stage is wider than tall.
func (s *Stage) Orientation() Orientation {
	return OrientationOf(s.width, s.height)
}

// Scale returns the backend pixels per stage unit passed to the renderer.
func (s *Stage) Scale() float64 {
	return s.scale
}

// SetScale sets the backend pixels per stage unit.
func (s *Stage) SetScale(scale float64) {
	if scale <= 0 {
		s.log.Warn("ignoring non-positive stage scale", zap.Float64("scale", scale))
		return
	}
	s.scale = scale
}

// Camera returns the stage camera.
func (s *Stage) Camera() *Camera {
	return s.camera
}

// Clock returns the seconds accumulated by Update.
func (s *Stage) Clock() float64 {
	return s.clock
}

// Lookup resolves a handle to its node. Stale handles (the node left the
// stage or was purged) return nil.
func (s *Stage) Lookup(h Handle) *Node {
	return s.arena.get(h)
}

// NumNodes returns the number of nodes attached to the stage.
func (s *Stage) NumNodes() int {
	return s.arena.live
}

// NumUpdating returns the size of the per-frame update set.
func (s *Stage) NumUpdating() int {
	return len(s.updateSet)
}

// SetDebugMode enables tree-shape warnings and per-frame timing logs.
func (s *Stage) SetDebugMode(enabled bool) {
	s.debug = enabled
}

// --- Update root ---

// SetUpdateRoot redirects the per-frame update dispatch to n. Passing nil
// restores the root. Nodes outside the update root keep their state but
// receive no updates, which pauses them.
func (s *Stage) SetUpdateRoot(n *Node) {
	if n == nil {
		s.updateRoot = s.root
		return
	}
	if n.stage != s || n.IsRemoved() {
		s.log.Warn("update root must be a live node on this stage", nodeField(n))
		return
	}
	s.updateRoot = n
}

// UpdateRoot returns the node the update dispatch starts from.
func (s *Stage) UpdateRoot() *Node {
	return s.updateRoot
}

// --- Attachment bookkeeping ---

// attachSubtree registers n and its descendants with the stage and sends
// them a resize so layouts resolve against the current dimensions.
func (s *Stage) attachSubtree(n *Node) {
	s.walkTree(n, func(c *Node) {
		c.stage = s
		c.handle = s.arena.alloc(c)
		if c.state == StateDetached {
			c.state = StateLive
		}
		if c.caps.Updates {
			s.updateSet[c] = struct{}{}
		}
		if c.needsSweep {
			s.sweepList = append(s.sweepList, c)
		}
	})
	if n != s.root {
		s.dispatchResizeTo(n)
	}
}

// detachSubtree unregisters n and its descendants. Nodes marked for removal
// keep that state; the trash pass still purges them.
func (s *Stage) detachSubtree(n *Node) {
	s.walkTree(n, func(c *Node) {
		if c.stage != s {
			return
		}
		s.arena.release(c.handle)
		c.handle = Handle{}
		delete(s.updateSet, c)
		if c.state == StateLive {
			c.state = StateDetached
		}
		if s.downNode == c {
			s.downNode = nil
		}
		c.stage = nil
	})
	if s.updateRoot != nil && s.updateRoot.stage != s {
		s.updateRoot = s.root
	}
}

func (s *Stage) walkTree(n *Node, fn func(*Node)) {
	fn(n)
	for _, c := range n.children {
		s.walkTree(c, fn)
	}
}

// collect appends the subtree of n in pre-order, skipping removed nodes.
func collect(n *Node, buf []*Node) []*Node {
	if n.IsRemoved() {
		return buf
	}
	buf = append(buf, n)
	for _, c := range n.children {
		buf = collect(c, buf)
	}
	return buf
}

// --- Resize ---

// Resize changes the stage dimensions and broadcasts a resize event to the
// whole tree. Layouts are re-evaluated before a node's resize listeners run.
func (s *Stage) Resize(width, height float64) {
	if width == s.width && height == s.height {
		return
	}
	s.width, s.height = width, height
	s.root.Width, s.root.Height = width, height
	s.camera.setViewport(Rect{Width: width, Height: height})
	s.log.Debug("stage resized",
		zap.Float64("width", width), zap.Float64("height", height),
		zap.Stringer("orientation", s.Orientation()))
	s.dispatchResizeTo(s.root)
}

// dispatchResizeTo sends a resize event to n and its descendants in
// pre-order, so children lay out against their parent's new size.
func (s *Stage) dispatchResizeTo(n *Node) {
	nodes := collect(n, nil)
	for _, c := range nodes {
		if c.IsRemoved() {
			continue
		}
		e := &Event{Kind: EventResize, Target: c, Width: s.width, Height: s.height}
		if c.layout != nil {
			resolveLayout(c, c.layout, e)
		}
		c.handleEvent(e)
	}
}

// --- Frame ---

// Update advances the stage clock by dt seconds, consumes one injected mouse
// event, steps the camera, and dispatches the update event from the update
// root in pre-order. Nodes attached during the dispatch are first updated on
// the next frame; nodes marked for removal are skipped.
func (s *Stage) Update(dt float64) {
	start := time.Now()
	s.clock += dt

	if len(s.injectQueue) > 0 {
		ev := s.injectQueue[0]
		copy(s.injectQueue, s.injectQueue[1:])
		s.injectQueue = s.injectQueue[:len(s.injectQueue)-1]
		s.HandleMouse(ev.kind, ev.x, ev.y)
	}

	if s.camera.update(dt) {
		s.dispatchCameraChange()
	}

	s.walkBuf = collect(s.updateRoot, s.walkBuf[:0])
	e := &Event{Kind: EventUpdate, Elapsed: dt}
	for _, n := range s.walkBuf {
		if n.IsRemoved() {
			continue
		}
		n.advance(dt)
		if n.caps.Updates {
			e.Target = n
			n.handleEvent(e)
		}
	}
	clear(s.walkBuf)

	s.stats.updateTime = time.Since(start)
	s.stats.updated = len(s.walkBuf)
}

func (s *Stage) dispatchCameraChange() {
	s.walkBuf = collect(s.root, s.walkBuf[:0])
	for _, n := range s.walkBuf {
		if n.IsRemoved() || len(n.listeners[EventCameraChange]) == 0 {
			continue
		}
		n.handleEvent(&Event{Kind: EventCameraChange, Target: n, X: s.camera.X, Y: s.camera.Y})
	}
	clear(s.walkBuf)
}

// Draw traverses the visible tree in pre-order, recomposing transforms on
// the way down, and paints every node's content through r.
func (s *Stage) Draw(r Renderer) {
	start := time.Now()
	s.stats.drawn = 0
	s.stats.culled = 0
	view := s.camera.ViewMatrix()
	var cull Rect
	if s.camera.CullEnabled {
		cull = s.camera.Viewport
	}
	s.drawNode(r, s.root, view, cull)
	s.stats.drawTime = time.Since(start)
}

func (s *Stage) drawNode(r Renderer, n *Node, view Matrix, cull Rect) {
	if !n.Visible || n.IsRemoved() {
		return
	}
	n.updateTransforms()
	if n.caps.CustomDraw {
		n.handleEvent(&Event{Kind: EventDrawBegin, Target: n})
	}
	if n.Content != nil && n.worldAlpha > 0 {
		m := Multiply(view, n.world)
		if !cull.Empty() && n.Width != 0 && n.Height != 0 && !worldAABB(m, n.Width, n.Height).Intersects(cull) {
			s.stats.culled++
		} else {
			r.SetWorldTransform(m, s.scale)
			r.SetAlpha(n.worldAlpha)
			n.Content.Draw(r, n)
			s.stats.drawn++
		}
	}
	for i := 0; i < len(n.children); i++ {
		s.drawNode(r, n.children[i], view, cull)
	}
	if n.caps.CustomDraw {
		n.handleEvent(&Event{Kind: EventDrawEnd, Target: n})
	}
}

// EndFrame empties the trash, then sweeps deactivated listeners. Call it
// once per tick after Draw.
func (s *Stage) EndFrame() {
	s.EmptyTrash()
	s.sweep()
	if s.debug {
		s.debugLog()
	}
}

// EmptyTrash unlinks and purges every node marked for removal. Removal
// listeners that mark further nodes are handled in the same pass.
func (s *Stage) EmptyTrash() {
	for len(s.trash) > 0 {
		trash := s.trash
		s.trash = nil
		for i, n := range trash {
			trash[i] = nil
			if n.state != StateMarkedForRemoval {
				continue
			}
			if n.Parent != nil {
				n.Parent.detachChild(n)
			}
			if n.stage != nil {
				n.stage.detachSubtree(n)
			}
			n.purge()
		}
	}
	if s.updateRoot == nil || s.updateRoot.IsRemoved() || s.updateRoot.stage != s {
		s.updateRoot = s.root
	}
}

func (s *Stage) sweep() {
	list := s.sweepList
	s.sweepList = nil
	for _, n := range list {
		n.sweepListeners()
	}
}

// --- Mouse ---

// OnFirstInteraction registers fn to run on the first mousedown the stage
// sees. Registering after that interaction runs fn immediately.
func (s *Stage) OnFirstInteraction(fn func()) {
	if s.interacted {
		fn()
		return
	}
	s.onInteraction = append(s.onInteraction, fn)
}

// Interacted reports whether the user has interacted with the stage.
func (s *Stage) Interacted() bool {
	return s.interacted
}

// HandleMouse routes a mouse event at screen position (x, y). The topmost
// visible, mouse-enabled node under the point (reverse paint order) receives
// it. A mouseup on the node that received the preceding mousedown, within
// the click time and distance thresholds, is followed by a click. Returns
// the node hit, or nil.
func (s *Stage) HandleMouse(kind EventKind, x, y float64) *Node {
	if kind != EventMouseDown && kind != EventMouseUp && kind != EventMouseMove {
		s.log.Warn("HandleMouse expects mousedown, mouseup, or mousemove", kindField(kind))
		return nil
	}
	if kind == EventMouseDown && !s.interacted {
		s.interacted = true
		fns := s.onInteraction
		s.onInteraction = nil
		for _, fn := range fns {
			fn()
		}
	}

	wx, wy := s.camera.ScreenToStage(x, y)
	hit := s.hitTest(wx, wy)

	switch kind {
	case EventMouseDown:
		s.downNode = hit
		s.downTime = s.clock
		s.downX, s.downY = x, y
	case EventMouseUp:
		down := s.downNode
		s.downNode = nil
		if hit != nil {
			s.dispatchMouse(hit, EventMouseUp, wx, wy)
			if hit == down && !hit.IsRemoved() && s.isClick(x, y) {
				s.dispatchMouse(hit, EventClick, wx, wy)
			}
		}
		return hit
	}
	if hit != nil {
		s.dispatchMouse(hit, kind, wx, wy)
	}
	return hit
}

func (s *Stage) isClick(x, y float64) bool {
	if s.clock-s.downTime > s.clickTime {
		return false
	}
	limit := s.clickDistance * math.Max(s.width, s.height)
	return math.Hypot(x-s.downX, y-s.downY) <= limit
}

func (s *Stage) dispatchMouse(n *Node, kind EventKind, wx, wy float64) {
	n.handleEvent(&Event{Kind: kind, Target: n, X: wx, Y: wy, Time: s.clock})
}

// collectInteractable walks the tree in paint order, appending mouse-enabled
// nodes. Invisible and removed subtrees are skipped.
func (s *Stage) collectInteractable(n *Node, buf []*Node) []*Node {
	if !n.Visible || n.IsRemoved() {
		return buf
	}
	if n.caps.MouseEnabled {
		buf = append(buf, n)
	}
	for _, c := range n.children {
		buf = s.collectInteractable(c, buf)
	}
	return buf
}

// hitTest finds the topmost mouse-enabled node at stage point (wx, wy).
func (s *Stage) hitTest(wx, wy float64) *Node {
	s.hitBuf = s.collectInteractable(s.root, s.hitBuf[:0])
	defer clear(s.hitBuf)
	for i := len(s.hitBuf) - 1; i >= 0; i-- {
		n := s.hitBuf[i]
		if n.HitTest(wx, wy) {
			return n
		}
	}
	return nil
}

// --- Injection ---

// InjectMouseDown queues a mousedown at screen position (x, y). Queued events
// are consumed one per Update.
func (s *Stage) InjectMouseDown(x, y float64) {
	s.injectQueue = append(s.injectQueue, injectedMouse{kind: EventMouseDown, x: x, y: y})
}

// InjectMouseUp queues a mouseup at screen position (x, y).
func (s *Stage) InjectMouseUp(x, y float64) {
	s.injectQueue = append(s.injectQueue, injectedMouse{kind: EventMouseUp, x: x, y: y})
}

// InjectMouseMove queues a mousemove at screen position (x, y).
func (s *Stage) InjectMouseMove(x, y float64) {
	s.injectQueue = append(s.injectQueue, injectedMouse{kind: EventMouseMove, x: x, y: y})
}

// InjectClick queues a mousedown followed by a mouseup at the same position.
// Consumes two frames.
func (s *Stage) InjectClick(x, y float64) {
	s.InjectMouseDown(x, y)
	s.InjectMouseUp(x, y)
}

// PendingInjections returns the number of queued synthetic mouse events.
func (s *Stage) PendingInjections() int {
	return len(s.injectQueue)
}
