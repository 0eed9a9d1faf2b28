package engine

// CellKind represents the terrain of a single grid cell
type CellKind string

const (
	Void  CellKind = "void"
	Floor CellKind = "floor"
	Wall  CellKind = "wall"
	Goal  CellKind = "goal"
)

// Grid capacity. Levels are centered into a grid of exactly this size.
const (
	MaxWidth  = 18
	MaxHeight = 10
)

// Direction is a move or facing direction
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Directions lists every valid direction in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// Valid reports whether d is one of the four directions
func (d Direction) Valid() bool {
	switch d {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// Delta returns the unit grid offset for the direction.
// Invalid directions return the zero position.
func (d Direction) Delta() Position {
	switch d {
	case Up:
		return Position{X: 0, Y: -1}
	case Down:
		return Position{X: 0, Y: 1}
	case Left:
		return Position{X: -1, Y: 0}
	case Right:
		return Position{X: 1, Y: 0}
	}
	return Position{}
}

// BoxState is the presentation state of a box
type BoxState string

const (
	BoxNormal BoxState = "normal"
	BoxOnGoal BoxState = "on_goal"
)

// Position represents x,y grid coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns p translated by d
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}
