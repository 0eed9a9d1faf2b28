package frame

import (
	"time"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

// Sprite is the presentation view of one entity
type Sprite struct {
	Position Vec              `json:"position"`
	Walking  bool             `json:"walking"`
	Facing   engine.Direction `json:"facing,omitempty"`
	State    engine.BoxState  `json:"state,omitempty"`
}

// Animations keeps one tween per entity and follows entity notifications.
// Attach it to an engine with GameEngine.Attach.
type Animations struct {
	duration  time.Duration
	player    *Tween
	facing    engine.Direction
	boxes     []*Tween
	boxStates []engine.BoxState
}

// NewAnimations creates an observer whose walks last stepDuration
func NewAnimations(stepDuration time.Duration) *Animations {
	return &Animations{duration: stepDuration}
}

func (a *Animations) SessionStarted(m *engine.GameManager) {
	a.player = NewTween(m.Player().Position(), a.duration)
	a.facing = m.Player().Facing()
	a.boxes = make([]*Tween, len(m.Boxes()))
	a.boxStates = make([]engine.BoxState, len(m.Boxes()))
	for i, b := range m.Boxes() {
		a.boxes[i] = NewTween(b.Position(), a.duration)
		a.boxStates[i] = b.State()
	}
}

func (a *Animations) PlayerMoved(from, to engine.Position) {
	a.player.MoveTo(to)
}

func (a *Animations) PlayerFacingChanged(old, new engine.Direction) {
	a.facing = new
}

func (a *Animations) BoxMoved(index int, from, to engine.Position) {
	a.boxes[index].MoveTo(to)
}

func (a *Animations) BoxStateChanged(index int, old, new engine.BoxState) {
	a.boxStates[index] = new
}

// Update advances every tween
func (a *Animations) Update(elapsed time.Duration) {
	if a.player == nil {
		return
	}
	a.player.Update(elapsed)
	for _, b := range a.boxes {
		b.Update(elapsed)
	}
}

// PlayerPlaying reports whether the player is mid-walk
func (a *Animations) PlayerPlaying() bool {
	return a.player != nil && a.player.Playing()
}

// Player returns the player's sprite
func (a *Animations) Player() Sprite {
	if a.player == nil {
		return Sprite{}
	}
	return Sprite{Position: a.player.Position(), Walking: a.player.Playing(), Facing: a.facing}
}

// Boxes returns the box sprites in box index order
func (a *Animations) Boxes() []Sprite {
	sprites := make([]Sprite, len(a.boxes))
	for i, tw := range a.boxes {
		sprites[i] = Sprite{Position: tw.Position(), Walking: tw.Playing(), State: a.boxStates[i]}
	}
	return sprites
}
