package ebitenbackend

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// drawFPS prints the measured frame and tick rates plus the stage's node
// count in the top-left corner, refreshing the text twice a second.
func (r *Runner) drawFPS(screen *ebiten.Image) {
	r.fpsElapsed += 1 / float64(ebiten.TPS())
	if r.fpsText == "" || r.fpsElapsed >= 0.5 {
		r.fpsElapsed = 0
		r.fpsText = fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nNodes: %d",
			ebiten.ActualFPS(), ebiten.ActualTPS(), r.game.Stage().NumNodes())
	}
	ebitenutil.DebugPrint(screen, r.fpsText)
}
