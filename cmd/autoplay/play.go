package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/frame"
	"github.com/wricardo/mcp-training/sokoban/game/solver"
	"github.com/wricardo/mcp-training/sokoban/internal/logs"
)

// ErrUnsolvable is returned when no solution exists from the starting layout
var ErrUnsolvable = errors.New("no solution found")

// Report summarizes a finished run
type Report struct {
	Moves  int
	Pushes int
	Frames int
	State  *engine.GameState
}

// LocalOptions tunes an in-process run
type LocalOptions struct {
	MaxStates    int
	FrameTime    time.Duration
	StepDuration time.Duration
	OnFrame      func(frame.Status)
}

// playLocal solves level and plays the solution through the frame driver, so
// every step waits for the walk animation like keyboard input would.
func playLocal(level *engine.Level, opts LocalOptions) (*Report, error) {
	solution, err := solver.Solver{MaxStates: opts.MaxStates}.Solve(level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsolvable, err)
	}
	logs.Debug("solution found", zap.Int("moves", len(solution.Moves)), zap.Int("explored", solution.Explored))

	gameEngine, err := engine.NewEngine(level)
	if err != nil {
		return nil, err
	}

	driver := frame.NewDriver(gameEngine, opts.StepDuration)
	frames := 0
	status := driver.Play(solution.Moves, opts.FrameTime, func(s frame.Status) {
		frames++
		if opts.OnFrame != nil {
			opts.OnFrame(s)
		}
	})

	state := gameEngine.GetState()
	if status != frame.StatusWon {
		return nil, fmt.Errorf("solution did not finish the level (status %s)", status)
	}
	return &Report{Moves: state.Moves, Pushes: state.Pushes, Frames: frames, State: state}, nil
}

// RemoteOptions tunes a run against a server
type RemoteOptions struct {
	Bulk  bool
	Delay time.Duration
}

// playRemote restarts the client's session, asks the server for a solution
// and sends it either step by step or in one bulk request.
func playRemote(ctx context.Context, c *Client, opts RemoteOptions) (*Report, error) {
	state, err := c.Reset(ctx)
	if err != nil {
		return nil, err
	}
	logs.Info("game reset", zap.Int("x", state.PlayerPos.X), zap.Int("y", state.PlayerPos.Y), zap.Int("boxes", len(state.Boxes)))

	hint, err := c.Hint(ctx)
	if err != nil {
		return nil, err
	}
	if !hint.Solvable {
		return nil, fmt.Errorf("%w: %s", ErrUnsolvable, hint.Message)
	}
	logs.Info("plan", zap.Int("moves", len(hint.Moves)), zap.Int("pushes", hint.Pushes))

	if opts.Bulk {
		result, err := c.BulkMove(ctx, hint.Moves)
		if err != nil {
			return nil, err
		}
		if !result.Victory {
			return nil, fmt.Errorf("bulk move stopped on move %d: %s", result.StoppedOnMove, result.StoppedReason)
		}
		return &Report{Moves: result.GameState.Moves, Pushes: result.GameState.Pushes, State: result.GameState}, nil
	}

	for i, dir := range hint.Moves {
		result, err := c.Move(ctx, dir)
		if err != nil {
			return nil, err
		}
		if !result.Success {
			return nil, fmt.Errorf("move %d (%s) blocked: %s", i+1, dir, result.Message)
		}
		state = result.GameState
		logs.Debug("moved", zap.Int("n", i+1), zap.String("dir", dir),
			zap.Int("x", state.PlayerPos.X), zap.Int("y", state.PlayerPos.Y))

		if opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}
	}

	if !state.Victory {
		return nil, errors.New("plan finished without solving the level")
	}
	return &Report{Moves: state.Moves, Pushes: state.Pushes, State: state}, nil
}
