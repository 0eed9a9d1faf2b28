package frame

import (
	"time"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

// Status is the outcome of one frame
type Status string

const (
	StatusIdle      Status = "idle"
	StatusAnimating Status = "animating"
	StatusMoved     Status = "moved"
	StatusBlocked   Status = "blocked"
	StatusWon       Status = "won"
)

// DefaultFrameTime is one frame at 60 fps
const DefaultFrameTime = time.Second / 60

// Driver runs the per-frame update for one engine
type Driver struct {
	engine *engine.GameEngine
	anim   *Animations
}

// NewDriver attaches a fresh Animations observer to e
func NewDriver(e *engine.GameEngine, stepDuration time.Duration) *Driver {
	anim := NewAnimations(stepDuration)
	e.Attach(anim)
	return &Driver{engine: e, anim: anim}
}

// Animations exposes the sprites for drawing
func (d *Driver) Animations() *Animations { return d.anim }

// Tick advances animations by elapsed and then handles input, an empty
// direction meaning no key was pressed this frame. Input is ignored while
// the player walks, and a solved level reports StatusWon before any input.
func (d *Driver) Tick(elapsed time.Duration, input engine.Direction) Status {
	d.anim.Update(elapsed)

	if d.anim.PlayerPlaying() {
		return StatusAnimating
	}
	if d.engine.IsVictory() {
		return StatusWon
	}
	if input == "" {
		return StatusIdle
	}
	if d.engine.Move(string(input)) {
		return StatusMoved
	}
	return StatusBlocked
}

// Play feeds moves through the driver one frame every frameTime until all
// moves are applied and the final walk has settled. It returns the last status.
// onFrame, when non-nil, is called after every frame.
func (d *Driver) Play(moves []engine.Direction, frameTime time.Duration, onFrame func(Status)) Status {
	if frameTime <= 0 {
		frameTime = DefaultFrameTime
	}
	status := d.Tick(0, "")
	for len(moves) > 0 || status == StatusAnimating {
		var input engine.Direction
		if len(moves) > 0 && status != StatusAnimating {
			input = moves[0]
		}
		status = d.Tick(frameTime, input)
		if input != "" && (status == StatusMoved || status == StatusBlocked) {
			moves = moves[1:]
		}
		if onFrame != nil {
			onFrame(status)
		}
		if status == StatusWon {
			break
		}
	}
	if status != StatusWon && d.engine.IsVictory() {
		status = StatusWon
	}
	return status
}
