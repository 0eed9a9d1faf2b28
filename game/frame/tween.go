// Package frame drives a game engine one frame at a time: it interpolates
// entity positions between cells and holds back input while the player is
// still walking.
package frame

import (
	"time"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

// DefaultStepDuration is how long one cell-to-cell walk takes
const DefaultStepDuration = 150 * time.Millisecond

// Vec is a position in cell units. Fractional values lie between cells.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// VecOf converts a grid position
func VecOf(p engine.Position) Vec {
	return Vec{X: float64(p.X), Y: float64(p.Y)}
}

// Lerp interpolates linearly between a and b
func Lerp(a, b Vec, t float64) Vec {
	return Vec{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

// Tween moves a value linearly from one cell to another over a fixed duration
type Tween struct {
	from     Vec
	to       Vec
	pos      Vec
	t        float64
	duration time.Duration
	playing  bool
}

// NewTween creates an idle tween resting on start
func NewTween(start engine.Position, duration time.Duration) *Tween {
	v := VecOf(start)
	if duration <= 0 {
		duration = DefaultStepDuration
	}
	return &Tween{from: v, to: v, pos: v, t: 1, duration: duration}
}

// MoveTo starts a new walk from the current interpolated position
func (tw *Tween) MoveTo(p engine.Position) {
	tw.from = tw.pos
	tw.to = VecOf(p)
	tw.t = 0
	tw.playing = true
}

// Update advances the tween by elapsed time
func (tw *Tween) Update(elapsed time.Duration) {
	if !tw.playing {
		return
	}

	tw.t += float64(elapsed) / float64(tw.duration)
	if tw.t >= 1 {
		tw.t = 1
		tw.playing = false
		tw.pos = tw.to
		return
	}

	tw.pos = Lerp(tw.from, tw.to, tw.t)
}

// Position returns the interpolated position
func (tw *Tween) Position() Vec { return tw.pos }

// Target returns where the tween ends
func (tw *Tween) Target() Vec { return tw.to }

// Playing reports whether the tween is still moving
func (tw *Tween) Playing() bool { return tw.playing }
