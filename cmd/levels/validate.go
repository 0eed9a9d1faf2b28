package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/solver"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Messages holds informational lines; otherwise it
// accumulates the problems that were found.
type ValidationResult struct {
	File     string
	Valid    bool
	Messages []string
}

// Analysis is what analyze reports for one level
type Analysis struct {
	File       string
	Level      *engine.Level
	Floor      int
	Walls      int
	Solution   string
	Moves      int
	Pushes     int
	Explored   int
	SolveError error
}

// levelFiles returns args when given, otherwise every .xml file in dir
func levelFiles(dir string, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.xml"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no level files in %s", dir)
	}
	slices.Sort(matches)
	return matches, nil
}

// validateLevel loads a level file, then proves it solvable within maxStates.
// An exhausted budget is reported but does not fail the level.
func validateLevel(path string, maxStates int) ValidationResult {
	result := ValidationResult{
		File:     filepath.Base(path),
		Valid:    true,
		Messages: []string{},
	}

	level, err := engine.LoadLevelFile(path)
	if err != nil {
		result.Valid = false
		result.Messages = append(result.Messages, err.Error())
		return result
	}

	if len(level.Boxes()) == 0 {
		result.Valid = false
		result.Messages = append(result.Messages, "Level has no boxes")
		return result
	}

	solution, err := solver.Solver{MaxStates: maxStates}.Solve(level)
	switch {
	case errors.Is(err, solver.ErrNoSolution):
		result.Valid = false
		result.Messages = append(result.Messages, "Level cannot be solved")
		return result
	case errors.Is(err, solver.ErrBudgetExceeded):
		result.Messages = append(result.Messages, fmt.Sprintf("⚠ Solvability unknown after %d states", maxStates))
	case err != nil:
		result.Valid = false
		result.Messages = append(result.Messages, err.Error())
		return result
	default:
		result.Messages = append(result.Messages, fmt.Sprintf("✓ Solvable in %d moves (%d pushes)", len(solution.Moves), solution.Pushes))
	}

	if level.Name() == "" {
		result.Messages = append(result.Messages, "⚠ No name attribute")
	} else {
		result.Messages = append(result.Messages, fmt.Sprintf("✓ Name: %s", level.Name()))
	}
	width, height := size(level.Rows())
	result.Messages = append(result.Messages, fmt.Sprintf("✓ Grid: %dx%d", width, height))
	result.Messages = append(result.Messages, fmt.Sprintf("✓ Boxes: %d", len(level.Boxes())))

	return result
}

func runValidate(w io.Writer, files []string, maxStates int) error {
	failed := 0
	for _, file := range files {
		result := validateLevel(file, maxStates)
		status := "VALID"
		if !result.Valid {
			status = "INVALID"
			failed++
		}
		fmt.Fprintf(w, "%s: %s\n", result.File, status)
		for _, msg := range result.Messages {
			fmt.Fprintf(w, "  %s\n", msg)
		}
	}

	fmt.Fprintf(w, "\n%d/%d levels valid\n", len(files)-failed, len(files))
	if failed > 0 {
		return fmt.Errorf("%d invalid level(s)", failed)
	}
	return nil
}

// analyzeLevel gathers layout statistics and the shortest solution
func analyzeLevel(path string, maxStates int) (*Analysis, error) {
	level, err := engine.LoadLevelFile(path)
	if err != nil {
		return nil, err
	}

	a := &Analysis{File: filepath.Base(path), Level: level}
	for _, row := range level.Rows() {
		for _, c := range row {
			switch c {
			case engine.SymbolWall:
				a.Walls++
			case engine.SymbolVoid:
			default:
				a.Floor++
			}
		}
	}

	solution, err := solver.Solver{MaxStates: maxStates}.Solve(level)
	if err != nil {
		a.SolveError = err
		return a, nil
	}
	a.Moves = len(solution.Moves)
	a.Pushes = solution.Pushes
	a.Explored = solution.Explored
	a.Solution = lurd(level, solution.Moves)
	return a, nil
}

// lurd replays moves on a fresh game and writes them in LURD notation:
// lowercase for a walk, uppercase for a push.
func lurd(level *engine.Level, moves []engine.Direction) string {
	m := engine.NewGameManager(level)
	var b strings.Builder
	for _, dir := range moves {
		before := m.Pushes()
		m.TryMove(dir)
		letter := string(dir)[:1]
		if m.Pushes() > before {
			letter = strings.ToUpper(letter)
		}
		b.WriteString(letter)
	}
	return b.String()
}

func runAnalyze(w io.Writer, files []string, maxStates int) {
	for _, file := range files {
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", filepath.Base(file))

		a, err := analyzeLevel(file, maxStates)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			continue
		}

		width, height := size(a.Level.Rows())
		fmt.Fprintf(w, "Name: %s\n", a.Level.Name())
		if desc := a.Level.Description(); desc != "" {
			fmt.Fprintf(w, "Description: %s\n", desc)
		}
		fmt.Fprintf(w, "Size: %d x %d\n", width, height)
		fmt.Fprintf(w, "Boxes: %d\n", len(a.Level.Boxes()))
		fmt.Fprintf(w, "Walkable cells: %d, walls: %d\n", a.Floor, a.Walls)
		start := a.Level.PlayerStart()
		fmt.Fprintf(w, "Player start: (%d, %d)\n", start.X, start.Y)

		if a.SolveError != nil {
			fmt.Fprintf(w, "⚠️  Solver: %v\n", a.SolveError)
			continue
		}
		fmt.Fprintf(w, "Shortest solution: %d moves, %d pushes (%d states explored)\n", a.Moves, a.Pushes, a.Explored)
		fmt.Fprintf(w, "Solution: %s\n", a.Solution)
	}
}

// size is the bounding box of rendered rows
func size(rows []string) (width, height int) {
	for _, row := range rows {
		width = max(width, len(row))
	}
	return width, len(rows)
}
