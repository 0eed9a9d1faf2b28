package engine

import (
	"errors"
	"fmt"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Reset() *GameState
	IsVictory() bool
	GetPlayerPosition() Position

	// Movement operations
	Move(direction string) bool
	CanMove(direction string) bool
	GetPossibleMoves() []string

	// Level
	Level() *Level

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry

	// Notifications
	Attach(o Observer)
	DrainEvents() []Event
}

// GameEngine implements the Engine interface on top of a GameManager.
// It is not safe for concurrent use; callers serialize access.
type GameEngine struct {
	level     *Level
	manager   *GameManager
	observers []Observer
	recorder  *EventRecorder
	message   string

	moveHistory  []MoveHistoryEntry
	totalMoves   int
	currentMoves []MoveHistoryEntry
}

// NewEngine creates a new game engine for the level
func NewEngine(level *Level) (*GameEngine, error) {
	if level == nil {
		return nil, errors.New("level cannot be nil")
	}

	e := &GameEngine{
		level:        level,
		recorder:     &EventRecorder{},
		moveHistory:  []MoveHistoryEntry{},
		currentMoves: []MoveHistoryEntry{},
	}
	e.observers = []Observer{e.recorder}
	e.start()
	e.message = welcomeMessage(level)

	return e, nil
}

// start builds a fresh manager and subscribes every observer to its entities
func (e *GameEngine) start() {
	e.manager = NewGameManager(e.level)
	for _, o := range e.observers {
		subscribe(e.manager, o)
	}
}

// Level returns the level being played
func (e *GameEngine) Level() *Level { return e.level }

// Manager returns the current session manager. It is replaced on Reset.
func (e *GameEngine) Manager() *GameManager { return e.manager }

// Attach registers an observer for this and every later session of the engine
func (e *GameEngine) Attach(o Observer) {
	e.observers = append(e.observers, o)
	subscribe(e.manager, o)
}

// DrainEvents returns entity events recorded since the previous drain
func (e *GameEngine) DrainEvents() []Event {
	return e.recorder.Drain()
}

// Reset restarts the level with new entities.
// Cumulative history survives; the current segment is cleared.
func (e *GameEngine) Reset() *GameState {
	e.start()
	e.currentMoves = []MoveHistoryEntry{}
	e.message = welcomeMessage(e.level)
	return e.GetState()
}

// IsVictory returns whether every box rests on a goal
func (e *GameEngine) IsVictory() bool {
	return e.manager.IsWin()
}

// GetPlayerPosition returns the current player position
func (e *GameEngine) GetPlayerPosition() Position {
	return e.manager.Player().Position()
}

// Move attempts to move the player in the specified direction.
// Moves after the level is solved are refused and not recorded.
func (e *GameEngine) Move(direction string) bool {
	dir := Direction(direction)
	if e.manager.IsWin() {
		e.message = "Level already complete. Reset to play again."
		return false
	}

	prevPos := e.manager.Player().Position()
	pushesBefore := e.manager.Pushes()
	reason := e.BlockReason(dir)
	success := e.manager.TryMove(dir)
	pushed := e.manager.Pushes() > pushesBefore

	switch {
	case !dir.Valid():
		e.message = fmt.Sprintf("Unknown direction %q", direction)
	case !success:
		e.message = fmt.Sprintf("Can't move %s: %s", dir, reason)
	case e.manager.IsWin():
		e.message = fmt.Sprintf("Level complete in %d moves!", e.manager.Moves())
	case pushed:
		e.message = fmt.Sprintf("Pushed box. Boxes on goals: %d/%d", e.manager.BoxesOnGoal(), len(e.manager.Boxes()))
	default:
		e.message = fmt.Sprintf("Moved %s", dir)
	}

	e.addMoveToHistory(direction, prevPos, e.manager.Player().Position(), pushed, success)
	return success
}

// CanMove checks if the player can move in the specified direction
func (e *GameEngine) CanMove(direction string) bool {
	if e.manager.IsWin() {
		return false
	}
	return e.manager.CanMove(Direction(direction))
}

// GetPossibleMoves returns all valid directions the player can move
func (e *GameEngine) GetPossibleMoves() []string {
	var possible []string
	for _, dir := range Directions {
		if e.CanMove(string(dir)) {
			possible = append(possible, string(dir))
		}
	}
	return possible
}

// BulkMove executes multiple moves in sequence, returning success status for each.
// It stops early once the level is solved.
func (e *GameEngine) BulkMove(moves []string) []bool {
	results := make([]bool, 0, len(moves))

	for _, direction := range moves {
		if e.IsVictory() {
			break
		}
		results = append(results, e.Move(direction))
	}

	return results
}

// BlockReason describes what stops a move in dir, or "" when the move is legal
func (e *GameEngine) BlockReason(dir Direction) string {
	if !dir.Valid() {
		return "unknown direction"
	}
	m := e.manager
	grid := e.level.Grid()
	next := m.Player().Position().Add(dir.Delta())
	if !grid.IsWalkableBase(next) {
		return describeTerrain(grid, next)
	}
	if m.BoxAt(next) == nil {
		return ""
	}
	beyond := next.Add(dir.Delta())
	if !grid.IsWalkableBase(beyond) {
		return "box against " + describeTerrain(grid, beyond)
	}
	if m.BoxAt(beyond) != nil {
		return "box against box"
	}
	return ""
}

func describeTerrain(grid *GridMap, p Position) string {
	if grid.IsWall(p) {
		return "wall"
	}
	return "void"
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.moveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.moveHistory) == 0 {
		return nil
	}
	return &e.moveHistory[len(e.moveHistory)-1]
}

// addMoveToHistory appends to the cumulative history and the current segment
func (e *GameEngine) addMoveToHistory(action string, from, to Position, pushed, success bool) {
	entry := MoveHistoryEntry{
		Action:       action,
		FromPosition: from,
		ToPosition:   to,
		Pushed:       pushed,
		Timestamp:    time.Now().Unix(),
		Success:      success,
		MoveNumber:   e.totalMoves + 1,
	}
	e.moveHistory = append(e.moveHistory, entry)
	e.totalMoves++
	e.currentMoves = append(e.currentMoves, entry)
}

func welcomeMessage(level *Level) string {
	name := level.Name()
	if name == "" {
		name = "level"
	}
	return fmt.Sprintf("Welcome to %s! Push all %d boxes onto the goals.", name, level.GoalCount())
}
