package engine

// GameManager runs one play session of a level. It owns the player and boxes;
// the level itself is shared and read-only.
type GameManager struct {
	level  *Level
	player *Player
	boxes  []*Box
	moves  int
	pushes int
}

// NewGameManager creates fresh entities from the level's starting layout
func NewGameManager(level *Level) *GameManager {
	starts := level.Boxes()
	boxes := make([]*Box, len(starts))
	for i, p := range starts {
		boxes[i] = NewBox(i, p)
	}

	return &GameManager{
		level:  level,
		player: NewPlayer(level.PlayerStart()),
		boxes:  boxes,
	}
}

// Level returns the level being played
func (m *GameManager) Level() *Level { return m.level }

// Player returns the session's player
func (m *GameManager) Player() *Player { return m.player }

// Boxes returns the session's boxes in level order
func (m *GameManager) Boxes() []*Box { return m.boxes }

// Moves returns the number of successful moves
func (m *GameManager) Moves() int { return m.moves }

// Pushes returns the number of successful moves that pushed a box
func (m *GameManager) Pushes() int { return m.pushes }

// IsWin reports whether every box rests on a goal
func (m *GameManager) IsWin() bool {
	for _, b := range m.boxes {
		if !m.level.IsGoal(b.Position()) {
			return false
		}
	}
	return true
}

// TryMove applies one player step in dir, pushing at most one box.
// The player's facing turns to dir even when the step is blocked.
// A blocked step changes no positions and returns false.
func (m *GameManager) TryMove(dir Direction) bool {
	if !dir.Valid() {
		return false
	}

	m.player.SetFacing(dir)

	delta := dir.Delta()
	grid := m.level.Grid()

	next := m.player.Position().Add(delta)
	if !grid.IsWalkableBase(next) {
		return false
	}

	box := m.BoxAt(next)
	if box == nil {
		m.player.MoveTo(next)
		m.moves++
		return true
	}

	beyond := next.Add(delta)
	if !grid.IsWalkableBase(beyond) || m.BoxAt(beyond) != nil {
		return false
	}

	box.MoveTo(beyond)
	if m.level.IsGoal(beyond) {
		box.SetState(BoxOnGoal)
	} else {
		box.SetState(BoxNormal)
	}
	m.player.MoveTo(next)

	m.moves++
	m.pushes++
	return true
}

// CanMove reports whether TryMove(dir) would succeed, without side effects
func (m *GameManager) CanMove(dir Direction) bool {
	if !dir.Valid() {
		return false
	}
	delta := dir.Delta()
	grid := m.level.Grid()

	next := m.player.Position().Add(delta)
	if !grid.IsWalkableBase(next) {
		return false
	}
	if m.BoxAt(next) == nil {
		return true
	}
	beyond := next.Add(delta)
	return grid.IsWalkableBase(beyond) && m.BoxAt(beyond) == nil
}

// BoxAt returns the box occupying p, or nil
func (m *GameManager) BoxAt(p Position) *Box {
	for _, b := range m.boxes {
		if b.Position() == p {
			return b
		}
	}
	return nil
}

// BoxesOnGoal counts boxes currently resting on goals
func (m *GameManager) BoxesOnGoal() int {
	n := 0
	for _, b := range m.boxes {
		if m.level.IsGoal(b.Position()) {
			n++
		}
	}
	return n
}
