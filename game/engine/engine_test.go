package engine

import (
	"strings"
	"testing"
)

func newScenarioEngine(t *testing.T) *GameEngine {
	t.Helper()
	level, err := ParseRows(scenarioRows)
	if err != nil {
		t.Fatalf("Failed to parse level: %v", err)
	}
	e, err := NewEngine(level.WithMeta("scenario", ""))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return e
}

func TestNewEngineNilLevel(t *testing.T) {
	if _, err := NewEngine(nil); err == nil {
		t.Error("Expected error for nil level")
	}
}

func TestEngineInitialState(t *testing.T) {
	e := newScenarioEngine(t)
	state := e.GetState()

	if state.LevelName != "scenario" {
		t.Errorf("LevelName = %q", state.LevelName)
	}
	if state.Victory {
		t.Error("Should not start in victory")
	}
	if !strings.Contains(state.Message, "Welcome to scenario") {
		t.Errorf("Unexpected welcome message %q", state.Message)
	}
	if len(state.Board) != MaxHeight || len(state.Board[0]) != MaxWidth {
		t.Fatalf("Board should be %dx%d", MaxWidth, MaxHeight)
	}
	if state.Board[3][6:11] != "#P..#" {
		t.Errorf("Board row 3 = %q", state.Board[3])
	}
	if state.Board[4][6:11] != "#.B.#" {
		t.Errorf("Board row 4 = %q", state.Board[4])
	}
	if state.Facing != Down {
		t.Errorf("Facing = %s", state.Facing)
	}
}

func TestEngineSolveScenario(t *testing.T) {
	e := newScenarioEngine(t)

	results := e.BulkMove([]string{"right", "down", "left", "down", "right", "up"})
	if len(results) != 5 {
		t.Fatalf("BulkMove should stop at victory, got %d results", len(results))
	}
	for i, ok := range results {
		if !ok {
			t.Errorf("Move %d failed", i)
		}
	}

	state := e.GetState()
	if !state.Victory {
		t.Fatal("Expected victory")
	}
	if state.Board[5][6:11] != "#.P*#" {
		t.Errorf("Board row 5 = %q", state.Board[5])
	}
	if state.Pushes != 2 || state.Moves != 5 {
		t.Errorf("Moves/pushes = %d/%d", state.Moves, state.Pushes)
	}
	if !strings.Contains(state.Message, "Level complete in 5 moves") {
		t.Errorf("Unexpected message %q", state.Message)
	}

	if e.Move("up") {
		t.Error("Moves after victory should be refused")
	}
	if e.GetState().TotalMoves != 5 {
		t.Error("Refused moves should not be recorded")
	}
}

func TestEngineBlockedMessages(t *testing.T) {
	e := newScenarioEngine(t)

	if e.Move("up") {
		t.Fatal("Expected wall to block")
	}
	if msg := e.GetState().Message; msg != "Can't move up: wall" {
		t.Errorf("Message = %q", msg)
	}

	if e.Move("north") {
		t.Fatal("Unknown direction should fail")
	}
	if msg := e.GetState().Message; !strings.Contains(msg, "Unknown direction") {
		t.Errorf("Message = %q", msg)
	}

	last := e.GetLastMove()
	if last == nil || last.Success || last.Action != "north" {
		t.Errorf("Unexpected last move %+v", last)
	}
}

func TestEngineBlockReason(t *testing.T) {
	level := mustParse(t, exact("GPB#", "GB.."), "GPB#", "GB..")
	e, err := NewEngine(level)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	tests := []struct {
		dir  Direction
		want string
	}{
		{Right, "box against wall"},
		{Down, "box against void"},
		{Left, ""},
		{Up, "void"},
		{Direction("x"), "unknown direction"},
	}
	for _, tt := range tests {
		if got := e.BlockReason(tt.dir); got != tt.want {
			t.Errorf("BlockReason(%s) = %q, want %q", tt.dir, got, tt.want)
		}
	}
}

func TestEngineResetKeepsCumulativeHistory(t *testing.T) {
	e := newScenarioEngine(t)
	e.Move("right")
	e.Move("down")

	state := e.Reset()
	if state.PlayerPos != e.Level().PlayerStart() {
		t.Errorf("Player should be back at start, got %v", state.PlayerPos)
	}
	if state.Moves != 0 || state.CurrentMovesCount != 0 {
		t.Errorf("Current segment should be empty, moves=%d current=%d", state.Moves, state.CurrentMovesCount)
	}
	if state.TotalMoves != 2 || len(state.MoveHistory) != 2 {
		t.Errorf("Cumulative history lost: total=%d", state.TotalMoves)
	}

	e.Move("right")
	if last := e.GetLastMove(); last.MoveNumber != 3 {
		t.Errorf("MoveNumber = %d, want 3", last.MoveNumber)
	}
}

func TestEngineEvents(t *testing.T) {
	e := newScenarioEngine(t)

	started := e.DrainEvents()
	if len(started) != 1 || started[0].Type != EventSessionStarted {
		t.Fatalf("Expected one session_started event, got %+v", started)
	}

	e.Move("right")
	e.Move("down")
	events := e.DrainEvents()

	var types []EventType
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	want := []EventType{EventPlayerFacing, EventPlayerMoved, EventPlayerFacing, EventBoxMoved, EventPlayerMoved}
	if len(types) != len(want) {
		t.Fatalf("Events = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("Events = %v, want %v", types, want)
		}
	}
	if events[3].Box != 0 || events[3].To != (Position{X: 8, Y: 5}) {
		t.Errorf("Unexpected box event %+v", events[3])
	}

	if len(e.DrainEvents()) != 0 {
		t.Error("Drain should empty the buffer")
	}
}

type countingObserver struct {
	sessions, moves int
}

func (c *countingObserver) SessionStarted(*GameManager) { c.sessions++ }
func (c *countingObserver) PlayerMoved(from, to Position) { c.moves++ }
func (c *countingObserver) PlayerFacingChanged(old, new Direction) {}
func (c *countingObserver) BoxMoved(index int, from, to Position) {}
func (c *countingObserver) BoxStateChanged(index int, old, new BoxState) {}

func TestEngineAttachSurvivesReset(t *testing.T) {
	e := newScenarioEngine(t)
	obs := &countingObserver{}
	e.Attach(obs)

	e.Move("right")
	e.Reset()
	e.Move("right")

	if obs.sessions != 2 {
		t.Errorf("Expected 2 session starts, got %d", obs.sessions)
	}
	if obs.moves != 2 {
		t.Errorf("Expected 2 player moves, got %d", obs.moves)
	}
}

func TestGetPossibleMoves(t *testing.T) {
	e := newScenarioEngine(t)
	moves := e.GetPossibleMoves()
	if len(moves) != 2 || moves[0] != "down" || moves[1] != "right" {
		t.Errorf("Possible moves = %v, want [down right]", moves)
	}
}
