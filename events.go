package bloom

// EventKind identifies a kind of scene event.
type EventKind uint8

const (
	EventUpdate       EventKind = iota // per-frame update, dispatched from the update root
	EventResize                        // stage dimensions changed or node attached to the stage
	EventMouseDown                     // pointer pressed over a mouse-enabled node
	EventMouseUp                       // pointer released over a mouse-enabled node
	EventMouseMove                     // pointer moved over a mouse-enabled node
	EventClick                         // synthesized after a mouseup that completes a click
	EventDrawBegin                     // fired before a node's content is drawn
	EventDrawEnd                       // fired after a node's subtree is drawn
	EventCameraChange                  // stage camera position or zoom changed
	numEventKinds
)

var eventKindNames = [numEventKinds]string{
	"update", "resize", "mousedown", "mouseup", "mousemove", "click",
	"drawbegin", "drawend", "camerachange",
}

func (k EventKind) String() string {
	if k < numEventKinds {
		return eventKindNames[k]
	}
	return "unknown"
}

// isMouse reports whether registering a listener of this kind enables mouse
// interaction on the node.
func (k EventKind) isMouse() bool {
	return k == EventMouseDown || k == EventMouseUp || k == EventMouseMove || k == EventClick
}

func (k EventKind) isDraw() bool {
	return k == EventDrawBegin || k == EventDrawEnd
}

// Event carries dispatch data. Only the fields relevant to Kind are set.
type Event struct {
	Kind          EventKind
	Target        *Node
	CurrentTarget *Node

	// EventUpdate
	Elapsed float64 // seconds since the previous tick

	// EventResize
	Width, Height float64

	// Mouse events, stage coordinates
	X, Y float64
	Time float64 // stage clock, seconds
}

// Orientation of a resize event: landscape iff width > height.
func (e *Event) Orientation() Orientation {
	return OrientationOf(e.Width, e.Height)
}

// Listener receives dispatched events.
type Listener func(e *Event)

type listener struct {
	id     uint32
	fn     Listener
	active bool
}

// ListenerHandle identifies a registered listener for removal.
type ListenerHandle struct {
	node *Node
	kind EventKind
	id   uint32
}

// Remove unregisters the listener. Safe to call from inside a dispatch.
func (h ListenerHandle) Remove() {
	if h.node == nil {
		return
	}
	h.node.RemoveEventListener(h)
}

// Capabilities are derived from the listeners a node registers.
type Capabilities struct {
	MouseEnabled bool // any mouse or click listener
	CustomDraw   bool // drawbegin or drawend listener
	Updates      bool // update listener; member of the stage's update set
}

// AddEventListener registers fn for kind and returns a handle for removal.
// Registering a mouse or click listener enables mouse interaction,
// registering drawbegin/drawend flags custom draw work, and registering
// update on a staged node adds it to the stage's per-frame update set.
func (n *Node) AddEventListener(kind EventKind, fn Listener) ListenerHandle {
	if fn == nil || kind >= numEventKinds {
		n.logger().Warn("ignoring invalid listener registration")
		return ListenerHandle{}
	}
	n.nextListenerID++
	id := n.nextListenerID
	n.listeners[kind] = append(n.listeners[kind], listener{id: id, fn: fn, active: true})
	n.registerCapability(kind)
	return ListenerHandle{node: n, kind: kind, id: id}
}

// On is shorthand for AddEventListener.
func (n *Node) On(kind EventKind, fn Listener) ListenerHandle {
	return n.AddEventListener(kind, fn)
}

func (n *Node) registerCapability(kind EventKind) {
	switch {
	case kind.isMouse():
		n.caps.MouseEnabled = true
	case kind.isDraw():
		n.caps.CustomDraw = true
	case kind == EventUpdate:
		n.caps.Updates = true
		if n.stage != nil {
			n.stage.updateSet[n] = struct{}{}
		}
	}
}

// RemoveEventListener deactivates the listener. The slot is swept after the
// current dispatch completes, or at the end of the frame for staged nodes.
func (n *Node) RemoveEventListener(h ListenerHandle) {
	if h.node != n || h.kind >= numEventKinds {
		return
	}
	list := n.listeners[h.kind]
	for i := range list {
		if list[i].id == h.id && list[i].active {
			list[i].active = false
			n.scheduleSweep()
			return
		}
	}
	n.logger().Debug("listener not found", nodeField(n), kindField(h.kind))
}

// RemoveAllEventListeners deactivates every listener of the given kind.
func (n *Node) RemoveAllEventListeners(kind EventKind) {
	if kind >= numEventKinds {
		return
	}
	list := n.listeners[kind]
	for i := range list {
		list[i].active = false
	}
	if len(list) > 0 {
		n.scheduleSweep()
	}
}

// HasEventListener reports whether an active listener of kind exists.
func (n *Node) HasEventListener(kind EventKind) bool {
	if kind >= numEventKinds {
		return false
	}
	for _, l := range n.listeners[kind] {
		if l.active {
			return true
		}
	}
	return false
}

// Capabilities returns the flags implied by registered listeners.
func (n *Node) Capabilities() Capabilities {
	return n.caps
}

func (n *Node) scheduleSweep() {
	if n.needsSweep {
		return
	}
	n.needsSweep = true
	if n.stage != nil {
		n.stage.sweepList = append(n.stage.sweepList, n)
		return
	}
	if n.dispatching == 0 {
		n.sweepListeners()
	}
}

// sweepListeners drops inactive listener slots. Never called mid-dispatch.
func (n *Node) sweepListeners() {
	if !n.needsSweep || n.dispatching > 0 {
		return
	}
	n.needsSweep = false
	for k := range n.listeners {
		list := n.listeners[k]
		kept := list[:0]
		for _, l := range list {
			if l.active {
				kept = append(kept, l)
			}
		}
		for i := len(kept); i < len(list); i++ {
			list[i] = listener{}
		}
		n.listeners[k] = kept
	}
	if n.caps.Updates && !n.HasEventListener(EventUpdate) {
		n.caps.Updates = false
		if n.stage != nil {
			delete(n.stage.updateSet, n)
		}
	}
}

// DispatchEvent sets Target (if unset) and CurrentTarget and invokes every
// active listener of e.Kind in registration order. Listeners registered
// during the dispatch do not run until the next one.
func (n *Node) DispatchEvent(e *Event) {
	if e.Target == nil {
		e.Target = n
	}
	n.handleEvent(e)
}

func (n *Node) handleEvent(e *Event) {
	if e.Kind >= numEventKinds {
		return
	}
	list := n.listeners[e.Kind]
	if len(list) == 0 {
		return
	}
	e.CurrentTarget = n
	n.dispatching++
	count := len(list)
	// Re-read the slice each iteration: a listener may append to it, or
	// purge the node and release it.
	for i := 0; i < count && i < len(n.listeners[e.Kind]); i++ {
		l := n.listeners[e.Kind][i]
		if !l.active {
			continue
		}
		l.fn(e)
	}
	n.dispatching--
	if n.dispatching > 0 {
		return
	}
	switch {
	case n.releasePending:
		n.releaseListeners()
	case n.needsSweep && n.stage == nil:
		n.sweepListeners()
	}
}

// releaseListeners drops every listener and capability. Used when a node is
// purged. During a dispatch on n the listeners are only deactivated and the
// release happens once the dispatch unwinds.
func (n *Node) releaseListeners() {
	n.caps = Capabilities{}
	n.needsSweep = false
	if n.dispatching > 0 {
		for _, list := range n.listeners {
			for i := range list {
				list[i].active = false
			}
		}
		n.releasePending = true
		return
	}
	for k := range n.listeners {
		n.listeners[k] = nil
	}
	n.releasePending = false
}
