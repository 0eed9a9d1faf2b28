package engine

import (
	"slices"
	"strings"
)

// Level is an immutable puzzle definition: terrain, player start, box starts and goals.
// It is shared read-only by every session created from it.
type Level struct {
	name        string
	description string
	grid        *GridMap
	playerStart Position
	boxes       []Position
	goals       map[Position]struct{}
}

func newLevel(grid *GridMap, player Position, boxes []Position, goals map[Position]struct{}) *Level {
	return &Level{
		grid:        grid,
		playerStart: player,
		boxes:       boxes,
		goals:       goals,
	}
}

// Name returns the level's display name (may be empty)
func (l *Level) Name() string { return l.name }

// Description returns the optional level description
func (l *Level) Description() string { return l.description }

// Grid returns the terrain. Callers must treat it as read-only.
func (l *Level) Grid() *GridMap { return l.grid }

// Width returns the grid width
func (l *Level) Width() int { return l.grid.Width() }

// Height returns the grid height
func (l *Level) Height() int { return l.grid.Height() }

// PlayerStart returns the player's starting cell
func (l *Level) PlayerStart() Position { return l.playerStart }

// Boxes returns a copy of the box starting cells in load order
func (l *Level) Boxes() []Position { return slices.Clone(l.boxes) }

// Goals returns the goal cells in row-major order
func (l *Level) Goals() []Position {
	goals := make([]Position, 0, len(l.goals))
	for p := range l.grid.All() {
		if _, ok := l.goals[p]; ok {
			goals = append(goals, p)
		}
	}
	return goals
}

// IsGoal reports whether p is a member of the goal set
func (l *Level) IsGoal(p Position) bool {
	_, ok := l.goals[p]
	return ok
}

// GoalCount returns the size of the goal set
func (l *Level) GoalCount() int { return len(l.goals) }

// IsVoid delegates to the grid
func (l *Level) IsVoid(p Position) bool { return l.grid.IsVoid(p) }

// IsWall delegates to the grid
func (l *Level) IsWall(p Position) bool { return l.grid.IsWall(p) }

// IsWalkableBase delegates to the grid
func (l *Level) IsWalkableBase(p Position) bool { return l.grid.IsWalkableBase(p) }

// WithMeta returns a copy of the level carrying the given name and description.
// Terrain and goal storage are shared since neither is mutated after load.
func (l *Level) WithMeta(name, description string) *Level {
	c := *l
	c.name = name
	c.description = description
	return &c
}

// Rows renders the starting layout in the level alphabet, cropped to the
// cells that are not void.
func (l *Level) Rows() []string {
	minX, minY, maxX, maxY := l.grid.Width(), l.grid.Height(), -1, -1
	for p := range l.grid.All() {
		if l.grid.IsVoid(p) {
			continue
		}
		minX, minY = min(minX, p.X), min(minY, p.Y)
		maxX, maxY = max(maxX, p.X), max(maxY, p.Y)
	}
	if maxX < 0 {
		return nil
	}

	board := RenderBoard(NewGameManager(l))
	rows := make([]string, 0, maxY-minY+1)
	for y := minY; y <= maxY; y++ {
		rows = append(rows, strings.TrimRight(board[y][minX:maxX+1], " "))
	}
	return rows
}
