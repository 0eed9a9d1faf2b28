package frame

import (
	"testing"
	"time"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

func newEngine(t *testing.T) *engine.GameEngine {
	t.Helper()
	level, err := engine.ParseRows([]string{
		"#####",
		"#P..#",
		"#.B.#",
		"#..G#",
		"#####",
	})
	if err != nil {
		t.Fatalf("Failed to parse level: %v", err)
	}
	e, err := engine.NewEngine(level)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return e
}

func TestDriverGatesInputWhilePlayerWalks(t *testing.T) {
	e := newEngine(t)
	d := NewDriver(e, 100*time.Millisecond)

	if got := d.Tick(16*time.Millisecond, engine.Right); got != StatusMoved {
		t.Fatalf("First tick = %s, want moved", got)
	}
	start := e.GetPlayerPosition()

	if got := d.Tick(16*time.Millisecond, engine.Down); got != StatusAnimating {
		t.Errorf("Tick during walk = %s, want animating", got)
	}
	if e.GetPlayerPosition() != start {
		t.Error("Input during a walk must be ignored")
	}

	if got := d.Tick(100*time.Millisecond, ""); got != StatusIdle {
		t.Errorf("Tick after walk = %s, want idle", got)
	}
	if got := d.Tick(0, engine.Up); got != StatusBlocked {
		t.Errorf("Tick into wall = %s, want blocked", got)
	}
}

func TestDriverPlayReachesWin(t *testing.T) {
	e := newEngine(t)
	d := NewDriver(e, 50*time.Millisecond)

	frames := 0
	moves := []engine.Direction{engine.Right, engine.Down, engine.Left, engine.Down, engine.Right}
	status := d.Play(moves, 20*time.Millisecond, func(Status) { frames++ })

	if status != StatusWon {
		t.Fatalf("Play status = %s, want won", status)
	}
	if frames <= len(moves) {
		t.Errorf("Expected animation frames between moves, got %d frames", frames)
	}

	player := d.Animations().Player()
	if player.Walking {
		t.Error("Player sprite should have settled")
	}
	if player.Position != VecOf(e.GetPlayerPosition()) {
		t.Errorf("Sprite at %v, player at %v", player.Position, e.GetPlayerPosition())
	}
	boxes := d.Animations().Boxes()
	if len(boxes) != 1 || boxes[0].State != engine.BoxOnGoal {
		t.Errorf("Unexpected box sprites %+v", boxes)
	}
	if player.Facing != engine.Right {
		t.Errorf("Facing = %s, want right", player.Facing)
	}
}

func TestDriverFollowsReset(t *testing.T) {
	e := newEngine(t)
	d := NewDriver(e, 50*time.Millisecond)

	d.Tick(0, engine.Right)
	e.Reset()

	if d.Animations().PlayerPlaying() {
		t.Error("Reset should rebuild idle tweens")
	}
	if got := d.Animations().Player().Position; got != VecOf(e.Level().PlayerStart()) {
		t.Errorf("Sprite at %v after reset", got)
	}
}
