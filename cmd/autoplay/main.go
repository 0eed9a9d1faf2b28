// Command autoplay solves a level and plays the solution.
//
// Without --url it loads the level from --level-dir and runs it in-process
// through the frame driver. With --url it drives a session on a running
// server: it resumes the session saved in --session-file (or --session),
// creates one when that fails, resets it and plays the server's hint.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/sokoban/game/frame"
	"github.com/wricardo/mcp-training/sokoban/game/levels"
	"github.com/wricardo/mcp-training/sokoban/game/solver"
	"github.com/wricardo/mcp-training/sokoban/internal/logs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		logs.Error("autoplay failed", zap.Error(err))
		logs.Sync()
		if errors.Is(err, ErrUnsolvable) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "Solve a Sokoban level and play it locally or against a server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "Game server URL; empty plays in-process", Sources: cli.EnvVars("SOKOBAN_URL")},
			&cli.StringFlag{Name: "level", Usage: "Level ID, e.g. level3 (default level when empty)"},
			&cli.StringFlag{Name: "level-dir", Value: "levels", Usage: "Level directory for in-process play", Sources: cli.EnvVars("SOKOBAN_LEVEL_DIR")},
			&cli.StringFlag{Name: "session", Usage: "Resume this session ID on the server"},
			&cli.StringFlag{Name: "session-file", Value: ".session", Usage: "File remembering the server session between runs"},
			&cli.BoolFlag{Name: "bulk", Usage: "Send the whole solution in one bulk-move request"},
			&cli.DurationFlag{Name: "delay", Usage: "Pause between remote moves"},
			&cli.DurationFlag{Name: "frame-time", Value: frame.DefaultFrameTime, Usage: "Simulated frame length for in-process play"},
			&cli.DurationFlag{Name: "step", Value: frame.DefaultFrameTime * 8, Usage: "Walk animation length per step"},
			&cli.IntFlag{Name: "max-states", Value: solver.DefaultMaxStates * 4, Usage: "Solver search budget"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Verbose output"},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	logLevel := "info"
	if cmd.Bool("verbose") {
		logLevel = "debug"
	}
	if err := logs.Init("autoplay", logs.Config{Level: logLevel}); err != nil {
		return err
	}
	defer logs.Sync()

	var (
		report *Report
		err    error
	)
	if serverURL := cmd.String("url"); serverURL != "" {
		report, err = runRemote(ctx, cmd, serverURL)
	} else {
		report, err = runLocal(cmd)
	}
	if err != nil {
		return err
	}

	logs.Info("🎉 VICTORY!",
		zap.String("level", report.State.LevelName),
		zap.Int("moves", report.Moves),
		zap.Int("pushes", report.Pushes),
		zap.Int("frames", report.Frames),
	)
	for _, row := range report.State.Board {
		fmt.Println(row)
	}
	return nil
}

func runLocal(cmd *cli.Command) (*Report, error) {
	manager, err := levels.NewManager(cmd.String("level-dir"))
	if err != nil {
		return nil, err
	}

	level := manager.GetDefault()
	if id := cmd.String("level"); id != "" {
		if level, err = manager.LoadLevel(id); err != nil {
			return nil, fmt.Errorf("load %s: %w", id, err)
		}
	}
	logs.Info("playing in-process", zap.String("level", level.Name()), zap.Int("boxes", len(level.Boxes())))

	frames := map[frame.Status]int{}
	report, err := playLocal(level, LocalOptions{
		MaxStates:    int(cmd.Int("max-states")),
		FrameTime:    cmd.Duration("frame-time"),
		StepDuration: cmd.Duration("step"),
		OnFrame:      func(s frame.Status) { frames[s]++ },
	})
	if err != nil {
		return nil, err
	}
	logs.Debug("frames",
		zap.Int("animating", frames[frame.StatusAnimating]),
		zap.Int("moved", frames[frame.StatusMoved]),
		zap.Int("blocked", frames[frame.StatusBlocked]),
	)
	return report, nil
}

func runRemote(ctx context.Context, cmd *cli.Command, serverURL string) (*Report, error) {
	logs.Info("connecting to game server", zap.String("url", serverURL))
	client := NewClient(serverURL)

	sessionFile := cmd.String("session-file")
	if err := attachSession(ctx, client, cmd.String("session"), sessionFile, cmd.String("level")); err != nil {
		return nil, err
	}

	report, err := playRemote(ctx, client, RemoteOptions{
		Bulk:  cmd.Bool("bulk"),
		Delay: cmd.Duration("delay"),
	})
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", client.SessionID(), err)
	}
	return report, nil
}

// attachSession resumes sessionID, or the one saved in sessionFile, and
// creates a new session on levelID when there is nothing to resume.
func attachSession(ctx context.Context, client *Client, sessionID, sessionFile, levelID string) error {
	if sessionID == "" && sessionFile != "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			sessionID = string(bytes.TrimSpace(data))
		}
	}

	if sessionID != "" {
		session, err := client.Resume(ctx, sessionID)
		if err == nil && (levelID == "" || session.LevelID == levelID) {
			logs.Info("🔄 resumed session", zap.String("session", session.ID), zap.String("level", session.LevelName))
			return nil
		}
		if err != nil {
			logs.Warn("failed to resume session (may be expired)", zap.String("session", sessionID), zap.Error(err))
		}
	}

	session, err := client.CreateSession(ctx, levelID)
	if err != nil {
		return err
	}
	logs.Info("✨ session created", zap.String("session", session.ID), zap.String("level", session.LevelName))

	if sessionFile != "" {
		if err := os.WriteFile(sessionFile, []byte(session.ID), 0644); err != nil {
			logs.Warn("failed to save session ID", zap.Error(err))
		}
	}
	return nil
}
