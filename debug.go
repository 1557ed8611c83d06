package bloom

import (
	"time"

	"go.uber.org/zap"
)

// frameStats holds per-frame timing and traversal counts.
// Only logged when the stage is in debug mode.
type frameStats struct {
	updateTime time.Duration
	drawTime   time.Duration
	updated    int
	drawn      int
	culled     int
}

// debugLog emits the frame's timing and draw counts.
func (s *Stage) debugLog() {
	st := s.stats
	s.log.Debug("frame",
		zap.Duration("update", st.updateTime),
		zap.Duration("draw", st.drawTime),
		zap.Int("updated", st.updated),
		zap.Int("drawn", st.drawn),
		zap.Int("culled", st.culled),
		zap.Int("nodes", s.arena.live),
		zap.Int("trash", len(s.trash)))
}

// debugMaxTreeDepth is the depth above which debug mode warns.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(s *Stage, n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		s.log.Warn("tree depth exceeds threshold", nodeField(n),
			zap.Int("depth", depth), zap.Int("threshold", debugMaxTreeDepth))
	}
}

// debugMaxChildCount is the child count above which debug mode warns.
const debugMaxChildCount = 1000

func debugCheckChildCount(s *Stage, n *Node) {
	if len(n.children) > debugMaxChildCount {
		s.log.Warn("node has too many children", nodeField(n),
			zap.Int("children", len(n.children)), zap.Int("threshold", debugMaxChildCount))
	}
}
