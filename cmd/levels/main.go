// Command levels checks and describes the level files in a directory.
//
//	levels validate [--dir levels] [--max-states N] [file ...]
//	levels analyze  [--dir levels] [--max-states N] [file ...]
//
// validate exits non-zero when any level fails to parse or has no solution.
// analyze prints dimensions, counts and the shortest solution of each level.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/sokoban/game/solver"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// levelFlags builds fresh flag values for each subcommand
func levelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "dir", Value: "levels", Usage: "Directory containing level files", Sources: cli.EnvVars("SOKOBAN_LEVEL_DIR")},
		&cli.IntFlag{Name: "max-states", Value: solver.DefaultMaxStates * 4, Usage: "Solver search budget per level"},
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "levels",
		Usage: "Validate and analyze Sokoban level files",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Check that every level parses and can be solved",
				ArgsUsage: "[file ...]",
				Flags:     levelFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files, err := levelFiles(cmd.String("dir"), cmd.Args().Slice())
					if err != nil {
						return err
					}
					return runValidate(os.Stdout, files, int(cmd.Int("max-states")))
				},
			},
			{
				Name:      "analyze",
				Usage:     "Print layout statistics and the shortest solution",
				ArgsUsage: "[file ...]",
				Flags:     levelFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					files, err := levelFiles(cmd.String("dir"), cmd.Args().Slice())
					if err != nil {
						return err
					}
					runAnalyze(os.Stdout, files, int(cmd.Int("max-states")))
					return nil
				},
			},
		},
	}
}
