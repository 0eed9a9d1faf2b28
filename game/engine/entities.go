package engine

// MoveListener is notified after an entity's cell changed
type MoveListener func(from, to Position)

// FacingListener is notified after the player turned
type FacingListener func(old, new Direction)

// StateListener is notified after a box changed state
type StateListener func(old, new BoxState)

// GameObject is a grid position that notifies listeners when it changes cell.
// Listeners run synchronously and observe the new position already committed.
type GameObject struct {
	pos   Position
	moved []MoveListener
}

// Position returns the current cell
func (o *GameObject) Position() Position { return o.pos }

// OnMoved registers a listener for position changes
func (o *GameObject) OnMoved(fn MoveListener) {
	o.moved = append(o.moved, fn)
}

// MoveTo moves the object. Moving to the current cell is a no-op and notifies nobody.
func (o *GameObject) MoveTo(to Position) {
	if to == o.pos {
		return
	}
	from := o.pos
	o.pos = to
	for _, fn := range o.moved {
		fn(from, to)
	}
}

// Player is the pushing entity. Facing follows the last attempted direction.
type Player struct {
	GameObject
	facing        Direction
	facingChanged []FacingListener
}

// NewPlayer creates a player at start facing down
func NewPlayer(start Position) *Player {
	return &Player{
		GameObject: GameObject{pos: start},
		facing:     Down,
	}
}

// Facing returns the current facing direction
func (p *Player) Facing() Direction { return p.facing }

// OnFacingChanged registers a listener for facing changes
func (p *Player) OnFacingChanged(fn FacingListener) {
	p.facingChanged = append(p.facingChanged, fn)
}

// SetFacing turns the player; an unchanged facing notifies nobody
func (p *Player) SetFacing(d Direction) {
	if d == p.facing {
		return
	}
	old := p.facing
	p.facing = d
	for _, fn := range p.facingChanged {
		fn(old, d)
	}
}

// Box is a pushable crate
type Box struct {
	GameObject
	index        int
	state        BoxState
	stateChanged []StateListener
}

// NewBox creates a box in the normal state. index is its position in the level's box list.
func NewBox(index int, start Position) *Box {
	return &Box{
		GameObject: GameObject{pos: start},
		index:      index,
		state:      BoxNormal,
	}
}

// Index identifies the box within its session
func (b *Box) Index() int { return b.index }

// State returns the current box state
func (b *Box) State() BoxState { return b.state }

// OnStateChanged registers a listener for state changes
func (b *Box) OnStateChanged(fn StateListener) {
	b.stateChanged = append(b.stateChanged, fn)
}

// SetState updates the box state; an unchanged state notifies nobody
func (b *Box) SetState(s BoxState) {
	if s == b.state {
		return
	}
	old := b.state
	b.state = s
	for _, fn := range b.stateChanged {
		fn(old, s)
	}
}
