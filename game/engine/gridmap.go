package engine

import (
	"fmt"
	"iter"
)

// GridMap is a fixed-size 2D grid of cell kinds stored row-major.
// Kinds are written while a level loads and never change during play;
// player and box occupancy live in the entities, not here.
type GridMap struct {
	width  int
	height int
	cells  []CellKind
}

// NewGridMap allocates a width x height grid with every cell Void
func NewGridMap(width, height int) *GridMap {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("engine: invalid grid dimensions %dx%d", width, height))
	}
	cells := make([]CellKind, width*height)
	for i := range cells {
		cells[i] = Void
	}
	return &GridMap{width: width, height: height, cells: cells}
}

// Width returns the grid width in cells
func (g *GridMap) Width() int { return g.width }

// Height returns the grid height in cells
func (g *GridMap) Height() int { return g.height }

// Cell returns the kind at (x,y). Out-of-range coordinates panic.
func (g *GridMap) Cell(x, y int) CellKind {
	return g.cells[g.index(x, y)]
}

// SetCell writes the kind at (x,y). Out-of-range coordinates panic.
func (g *GridMap) SetCell(x, y int, kind CellKind) {
	g.cells[g.index(x, y)] = kind
}

func (g *GridMap) index(x, y int) int {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		panic(fmt.Sprintf("engine: cell (%d,%d) outside %dx%d grid", x, y, g.width, g.height))
	}
	return y*g.width + x
}

// InBounds reports whether p lies inside the grid
func (g *GridMap) InBounds(p Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.width && p.Y < g.height
}

// IsVoid is true outside the grid or on a Void cell
func (g *GridMap) IsVoid(p Position) bool {
	return !g.InBounds(p) || g.Cell(p.X, p.Y) == Void
}

// IsWall is true only for in-bounds Wall cells
func (g *GridMap) IsWall(p Position) bool {
	return g.InBounds(p) && g.Cell(p.X, p.Y) == Wall
}

// IsGoal is true only for in-bounds Goal cells
func (g *GridMap) IsGoal(p Position) bool {
	return g.InBounds(p) && g.Cell(p.X, p.Y) == Goal
}

// IsWalkableBase reports terrain walkability only (Floor and Goal).
// Box and player occupancy must be checked by the caller.
func (g *GridMap) IsWalkableBase(p Position) bool {
	if !g.InBounds(p) {
		return false
	}
	c := g.Cell(p.X, p.Y)
	return c != Void && c != Wall
}

// All yields every in-bounds coordinate in row-major order.
// The sequence can be ranged over any number of times.
func (g *GridMap) All() iter.Seq[Position] {
	return func(yield func(Position) bool) {
		for y := 0; y < g.height; y++ {
			for x := 0; x < g.width; x++ {
				if !yield(Position{X: x, Y: y}) {
					return
				}
			}
		}
	}
}

// Count returns the number of cells of the given kind
func (g *GridMap) Count(kind CellKind) int {
	n := 0
	for _, c := range g.cells {
		if c == kind {
			n++
		}
	}
	return n
}
