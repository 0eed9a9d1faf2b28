package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/solver"
)

const firstPush = `<?xml version="1.0" encoding="UTF-8"?>
<Level name="First Push" description="One box, one goal">
  <Rows>
    <Row>#####</Row>
    <Row>#P..#</Row>
    <Row>#.B.#</Row>
    <Row>#..G#</Row>
    <Row>#####</Row>
  </Rows>
</Level>`

const cornered = `<Level name="Cornered">
  <Rows>
    <Row>#####</Row>
    <Row>#B..#</Row>
    <Row>#.P.#</Row>
    <Row>#..G#</Row>
    <Row>#####</Row>
  </Rows>
</Level>`

const twoPlayers = `<Level name="Crowded">
  <Rows>
    <Row>#####</Row>
    <Row>#PP.#</Row>
    <Row>#.B.#</Row>
    <Row>#..G#</Row>
    <Row>#####</Row>
  </Rows>
</Level>`

const noBoxes = `<Level name="Empty">
  <Rows>
    <Row>#####</Row>
    <Row>#P..#</Row>
    <Row>#####</Row>
  </Rows>
</Level>`

func writeLevel(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write level: %v", err)
	}
	return path
}

func TestValidateLevel(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name      string
		content   string
		maxStates int
		valid     bool
		contains  string
	}{
		{"solvable", firstPush, 1000, true, "✓ Solvable in 5 moves (2 pushes)"},
		{"budget exhausted", firstPush, 2, true, "Solvability unknown"},
		{"box stuck in corner", cornered, 1000, false, "cannot be solved"},
		{"two players", twoPlayers, 1000, false, "more than one player"},
		{"no boxes", noBoxes, 1000, false, "no boxes"},
		{"not xml", "#####", 1000, false, "malformed level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeLevel(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".xml", tt.content)

			result := validateLevel(path, tt.maxStates)
			if result.Valid != tt.valid {
				t.Errorf("Expected valid=%v, got %v: %v", tt.valid, result.Valid, result.Messages)
			}

			found := false
			for _, msg := range result.Messages {
				if strings.Contains(msg, tt.contains) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("Expected a message containing %q, got %v", tt.contains, result.Messages)
			}
		})
	}
}

func TestValidateLevel_MissingFile(t *testing.T) {
	result := validateLevel("/non/existent/level.xml", 1000)
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
	if result.File != "level.xml" {
		t.Errorf("Expected base name in result, got %s", result.File)
	}
}

func TestRunValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeLevel(t, dir, "level1.xml", firstPush)
	bad := writeLevel(t, dir, "level2.xml", cornered)

	var out bytes.Buffer
	if err := runValidate(&out, []string{good}, 1000); err != nil {
		t.Errorf("Expected no error for a valid level, got %v", err)
	}
	if !strings.Contains(out.String(), "level1.xml: VALID") || !strings.Contains(out.String(), "1/1 levels valid") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}

	out.Reset()
	if err := runValidate(&out, []string{good, bad}, 1000); err == nil {
		t.Error("Expected error when a level is invalid")
	}
	if !strings.Contains(out.String(), "level2.xml: INVALID") || !strings.Contains(out.String(), "1/2 levels valid") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}
}

func TestLevelFiles(t *testing.T) {
	dir := t.TempDir()
	writeLevel(t, dir, "level2.xml", firstPush)
	writeLevel(t, dir, "level1.xml", firstPush)
	writeLevel(t, dir, "notes.txt", "ignored")

	files, err := levelFiles(dir, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "level1.xml" {
		t.Errorf("Expected sorted xml files, got %v", files)
	}

	files, err = levelFiles(dir, []string{"a.xml"})
	if err != nil || len(files) != 1 || files[0] != "a.xml" {
		t.Errorf("Expected explicit args to win, got %v (%v)", files, err)
	}

	if _, err := levelFiles(t.TempDir(), nil); err == nil {
		t.Error("Expected error for a directory without levels")
	}
}

func TestLURD(t *testing.T) {
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

	tests := []struct {
		moves []engine.Direction
		want  string
	}{
		{[]engine.Direction{engine.Right, engine.Down, engine.Left, engine.Down, engine.Right}, "rDldR"},
		{[]engine.Direction{engine.Down, engine.Right, engine.Up, engine.Right, engine.Down}, "dRurD"},
		{[]engine.Direction{engine.Up}, "u"},
	}

	for _, tt := range tests {
		if got := lurd(level, tt.moves); got != tt.want {
			t.Errorf("lurd(%v) = %q, want %q", tt.moves, got, tt.want)
		}
	}
}

func TestAnalyzeLevel(t *testing.T) {
	dir := t.TempDir()
	path := writeLevel(t, dir, "level1.xml", firstPush)

	a, err := analyzeLevel(path, 1000)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if a.Moves != 5 || a.Pushes != 2 {
		t.Errorf("Expected 5 moves and 2 pushes, got %d and %d", a.Moves, a.Pushes)
	}
	if a.Walls != 16 || a.Floor != 9 {
		t.Errorf("Expected 16 walls and 9 walkable cells, got %d and %d", a.Walls, a.Floor)
	}
	if a.Solution != "rDldR" && a.Solution != "dRurD" {
		t.Errorf("Unexpected solution %q", a.Solution)
	}

	a, err = analyzeLevel(path, 2)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !errors.Is(a.SolveError, solver.ErrBudgetExceeded) {
		t.Errorf("Expected budget error, got %v", a.SolveError)
	}

	var out bytes.Buffer
	runAnalyze(&out, []string{path, filepath.Join(dir, "missing.xml")}, 1000)
	for _, want := range []string{"Name: First Push", "Size: 5 x 5", "Boxes: 1", "Player start: (7, 3)", "Error:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected output to contain %q:\n%s", want, out.String())
		}
	}
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	writeLevel(t, dir, "level1.xml", firstPush)

	for _, sub := range []string{"validate", "analyze"} {
		t.Run(sub, func(t *testing.T) {
			if err := newApp().Run(context.Background(), []string{"levels", sub, "--dir", dir}); err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}

	writeLevel(t, dir, "level2.xml", cornered)
	if err := newApp().Run(context.Background(), []string{"levels", "validate", "--dir", dir}); err == nil {
		t.Error("Expected validate to fail with an unsolvable level")
	}
}
