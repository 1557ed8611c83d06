package bloom

import (
	"go.uber.org/zap"
)

// nodeIDCounter is a plain counter; the scene graph is single-threaded.
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// NodeState is the lifecycle state of a node.
type NodeState uint8

const (
	StateDetached         NodeState = iota // not reachable from a stage
	StateLive                              // attached under a stage root
	StateMarkedForRemoval                  // tombstoned, unlinked at end of frame
	StatePurged                            // unlinked and released; terminal
)

func (s NodeState) String() string {
	switch s {
	case StateDetached:
		return "detached"
	case StateLive:
		return "live"
	case StateMarkedForRemoval:
		return "marked-for-removal"
	case StatePurged:
		return "purged"
	}
	return "unknown"
}

// Node is the fundamental scene graph element. A single flat struct is used
// for containers and content nodes alike; what a node paints is decided by
// its Content.
//
// Placement fields may be assigned directly: transforms are recomposed from
// a snapshot comparison, not from setter-driven dirty flags.
type Node struct {
	// Identity
	ID   uint32
	Name string

	// Hierarchy
	Parent   *Node
	children []*Node

	// Placement (local)
	X, Y           float64
	ScaleX, ScaleY float64
	Rotation       float64 // degrees, clockwise
	RegX, RegY     float64 // registration point as a fraction of Width/Height
	Width, Height  float64

	// Visibility
	Alpha   float64 // clamped to [0, 1] when the transform is recomposed
	Visible bool

	// Content painted at the node's world transform; nil for pure containers.
	Content Drawable

	// Metadata
	UserData any

	layout Layout

	// Cached transform state
	prev          placement
	hasPrev       bool
	local         Matrix // excludes registration
	worldNoReg    Matrix // parent world (with registration) * local
	world         Matrix // worldNoReg with the registration offset folded in
	worldAlpha    float64
	worldUpdated  bool
	worldValid    bool
	worldVersion  uint64
	parentVersion uint64
	prevParent    *Node

	bounds      Rect
	boundsValid bool

	// Lifecycle
	state  NodeState
	stage  *Stage
	handle Handle

	// Events
	listeners      [numEventKinds][]listener
	nextListenerID uint32
	caps           Capabilities
	dispatching    int
	needsSweep     bool
	releasePending bool // purged mid-dispatch; listeners dropped when it unwinds

	// Animation
	tweens  []*Tween
	actions []*Action
	shakes  []*Shake
	shakeX  float64
	shakeY  float64
}

// placement is the snapshot of every field that affects the transform,
// bounds, or alpha of a node.
type placement struct {
	x, y, scaleX, scaleY, rotation float64
	regX, regY, width, height      float64
	shakeX, shakeY                 float64
	alpha                          float64
	visible                        bool
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.ScaleX = 1
	n.ScaleY = 1
	n.Alpha = 1
	n.Visible = true
	n.local = IdentityMatrix
	n.world = IdentityMatrix
	n.worldNoReg = IdentityMatrix
	n.worldAlpha = 1
}

// NewContainer creates a node with no visual representation.
func NewContainer(name string) *Node {
	n := &Node{Name: name}
	nodeDefaults(n)
	return n
}

// NewNode creates a node that paints content at its world transform.
func NewNode(name string, content Drawable) *Node {
	n := &Node{Name: name, Content: content}
	nodeDefaults(n)
	if s, ok := content.(sizer); ok {
		n.Width, n.Height = s.NaturalSize()
	}
	return n
}

// State returns the node's lifecycle state.
func (n *Node) State() NodeState {
	return n.state
}

// Stage returns the stage the node is attached to, or nil.
func (n *Node) Stage() *Stage {
	return n.stage
}

// Handle returns the node's arena handle. Zero while detached.
func (n *Node) Handle() Handle {
	return n.handle
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	n.AddChildAt(child, len(n.children))
}

// AddChildAt inserts child at the given index.
// Same reparenting and cycle-check behavior as AddChild.
func (n *Node) AddChildAt(child *Node, index int) {
	if child == nil {
		panic("bloom: cannot add nil child")
	}
	if isAncestor(child, n) {
		panic("bloom: adding child would create a cycle")
	}
	if child.state == StatePurged || n.state == StatePurged {
		n.logger().Warn("AddChild on purged node", nodeField(n), zap.String("child", child.Name))
		return
	}
	prevStage := child.stage
	if child.Parent != nil {
		if child.Parent == n {
			if index > len(n.children)-1 {
				index = len(n.children) - 1
			}
		}
		child.Parent.detachChild(child)
	}
	if index < 0 || index > len(n.children) {
		panic("bloom: child index out of range")
	}
	child.Parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	n.invalidateBounds()

	switch {
	case n.stage != nil && prevStage == n.stage:
		n.stage.dispatchResizeTo(child)
	case n.stage != nil:
		if prevStage != nil {
			prevStage.detachSubtree(child)
		}
		n.stage.attachSubtree(child)
	case prevStage != nil:
		prevStage.detachSubtree(child)
	}
	if n.stage != nil && n.stage.debug {
		debugCheckTreeDepth(n.stage, child)
		debugCheckChildCount(n.stage, n)
	}
}

// RemoveChild detaches child from this node immediately. Prefer
// MarkForRemoval while events are being dispatched.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if child.Parent != n {
		panic("bloom: child's parent is not this node")
	}
	n.detachChild(child)
	if child.stage != nil {
		child.stage.detachSubtree(child)
	}
}

// RemoveChildAt removes and returns the child at the given index.
func (n *Node) RemoveChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		panic("bloom: child index out of range")
	}
	child := n.children[index]
	n.RemoveChild(child)
	return child
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// ChildIndex returns the index of child, or -1.
func (n *Node) ChildIndex(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// SetChildIndex moves child to a new index among its siblings.
func (n *Node) SetChildIndex(child *Node, index int) {
	if child.Parent != n {
		panic("bloom: child's parent is not this node")
	}
	nc := len(n.children)
	if index < 0 || index >= nc {
		panic("bloom: child index out of range")
	}
	oldIndex := n.ChildIndex(child)
	if oldIndex == index {
		return
	}
	// Shift elements to fill the gap and open the target slot.
	if oldIndex < index {
		copy(n.children[oldIndex:], n.children[oldIndex+1:index+1])
	} else {
		copy(n.children[index+1:], n.children[index:oldIndex])
	}
	n.children[index] = child
}

// FindByName returns the first descendant (pre-order) with the given name.
func (n *Node) FindByName(name string) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
		if found := c.FindByName(name); found != nil {
			return found
		}
	}
	return nil
}

// --- Removal ---

// MarkForRemoval tombstones the node. A staged node stays linked until the
// stage empties its trash at the end of the frame; a detached node is purged
// immediately. Calling it twice is a no-op.
func (n *Node) MarkForRemoval() {
	switch n.state {
	case StateMarkedForRemoval, StatePurged:
		return
	case StateDetached:
		if n.Parent != nil {
			n.Parent.detachChild(n)
		}
		n.purge()
		return
	}
	n.state = StateMarkedForRemoval
	if n.Parent != nil {
		n.Parent.invalidateBounds()
	}
	n.stage.trash = append(n.stage.trash, n)
}

// IsRemoved reports whether the node is tombstoned or purged.
func (n *Node) IsRemoved() bool {
	return n.state == StateMarkedForRemoval || n.state == StatePurged
}

// purge releases listeners and animations on n and its subtree.
func (n *Node) purge() {
	for _, child := range n.children {
		child.Parent = nil
		child.purge()
	}
	n.children = nil
	n.Parent = nil
	n.state = StatePurged
	n.releaseListeners()
	n.tweens = nil
	n.actions = nil
	n.shakes = nil
	n.layout = nil
	n.Content = nil
	n.UserData = nil
}

// --- Helpers ---

func (n *Node) logger() *zap.Logger {
	if n.stage != nil {
		return n.stage.log
	}
	return zap.L()
}

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// detachChild unlinks child from n without touching stage bookkeeping.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) detachChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			break
		}
	}
	child.Parent = nil
	n.invalidateBounds()
}

func nodeField(n *Node) zap.Field {
	return zap.String("node", n.Name)
}

func kindField(k EventKind) zap.Field {
	return zap.Stringer("event", k)
}
