// Package solver finds move sequences that solve a level.
package solver

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

var (
	ErrNoSolution     = errors.New("level has no solution")
	ErrBudgetExceeded = errors.New("search budget exceeded")
)

// DefaultMaxStates bounds the search for interactive callers
const DefaultMaxStates = 250000

// Solver runs a breadth-first search over player and box positions.
// The zero value uses DefaultMaxStates.
type Solver struct {
	MaxStates int
}

// Result is a solution and the search effort that found it
type Result struct {
	Moves    []engine.Direction `json:"moves"`
	Pushes   int                `json:"pushes"`
	Explored int                `json:"explored"`
}

// Solve searches from the level's starting layout with the default budget
func Solve(level *engine.Level) (*Result, error) {
	return Solver{}.Solve(level)
}

// SolveFrom searches from an arbitrary layout with the default budget
func SolveFrom(level *engine.Level, player engine.Position, boxes []engine.Position) (*Result, error) {
	return Solver{}.SolveFrom(level, player, boxes)
}

// Solve searches from the level's starting layout
func (s Solver) Solve(level *engine.Level) (*Result, error) {
	return s.SolveFrom(level, level.PlayerStart(), level.Boxes())
}

type node struct {
	player int
	boxes  []int
	parent int
	dir    engine.Direction
	pushed bool
}

// SolveFrom returns the shortest solution in player steps from the given layout
func (s Solver) SolveFrom(level *engine.Level, player engine.Position, boxes []engine.Position) (*Result, error) {
	budget := s.MaxStates
	if budget <= 0 {
		budget = DefaultMaxStates
	}

	b := newBoard(level)
	start := node{player: b.index(player), parent: -1}
	for _, p := range boxes {
		start.boxes = append(start.boxes, b.index(p))
	}
	slices.Sort(start.boxes)

	if b.solved(start.boxes) {
		return &Result{Moves: []engine.Direction{}, Explored: 1}, nil
	}

	nodes := []node{start}
	seen := map[string]struct{}{key(start): {}}

	for head := 0; head < len(nodes); head++ {
		cur := nodes[head]
		for _, dir := range engine.Directions {
			next, ok := b.step(cur, dir)
			if !ok {
				continue
			}
			k := key(next)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			next.parent = head
			nodes = append(nodes, next)

			if next.pushed && b.solved(next.boxes) {
				return unwind(nodes, len(nodes)-1, len(seen)), nil
			}
			if len(seen) >= budget {
				return nil, ErrBudgetExceeded
			}
		}
	}

	return nil, ErrNoSolution
}

func unwind(nodes []node, i, explored int) *Result {
	res := &Result{Explored: explored}
	for ; nodes[i].parent >= 0; i = nodes[i].parent {
		res.Moves = append(res.Moves, nodes[i].dir)
		if nodes[i].pushed {
			res.Pushes++
		}
	}
	slices.Reverse(res.Moves)
	return res
}

func key(n node) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(n.player))
	for _, b := range n.boxes {
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(b))
	}
	return sb.String()
}

// board is the static part of a level flattened to cell indices
type board struct {
	width    int
	walkable []bool
	goal     []bool
	dead     []bool
}

func newBoard(level *engine.Level) *board {
	grid := level.Grid()
	n := grid.Width() * grid.Height()
	b := &board{
		width:    grid.Width(),
		walkable: make([]bool, n),
		goal:     make([]bool, n),
		dead:     make([]bool, n),
	}
	for p := range grid.All() {
		i := b.index(p)
		b.walkable[i] = grid.IsWalkableBase(p)
		b.goal[i] = grid.IsGoal(p)
	}
	for p := range grid.All() {
		i := b.index(p)
		if !b.walkable[i] || b.goal[i] {
			continue
		}
		blocked := func(d engine.Direction) bool { return !grid.IsWalkableBase(p.Add(d.Delta())) }
		vertical := blocked(engine.Up) || blocked(engine.Down)
		horizontal := blocked(engine.Left) || blocked(engine.Right)
		b.dead[i] = vertical && horizontal
	}
	return b
}

func (b *board) index(p engine.Position) int { return p.Y*b.width + p.X }

// offset moves i one cell in dir, or returns -1 when it leaves the grid
func (b *board) offset(i int, dir engine.Direction) int {
	d := dir.Delta()
	x, y := i%b.width+d.X, i/b.width+d.Y
	if x < 0 || x >= b.width || y < 0 || y*b.width >= len(b.walkable) {
		return -1
	}
	return y*b.width + x
}

func (b *board) open(i int) bool { return i >= 0 && b.walkable[i] }

func (b *board) solved(boxes []int) bool {
	for _, i := range boxes {
		if !b.goal[i] {
			return false
		}
	}
	return true
}

// step mirrors GameManager.TryMove on flattened state
func (b *board) step(cur node, dir engine.Direction) (node, bool) {
	next := b.offset(cur.player, dir)
	if !b.open(next) {
		return node{}, false
	}

	at, hasBox := slices.BinarySearch(cur.boxes, next)
	if !hasBox {
		return node{player: next, boxes: cur.boxes, dir: dir}, true
	}

	beyond := b.offset(next, dir)
	if !b.open(beyond) || b.dead[beyond] {
		return node{}, false
	}
	if _, blocked := slices.BinarySearch(cur.boxes, beyond); blocked {
		return node{}, false
	}

	boxes := slices.Clone(cur.boxes)
	boxes[at] = beyond
	slices.Sort(boxes)
	return node{player: next, boxes: boxes, dir: dir, pushed: true}, true
}
