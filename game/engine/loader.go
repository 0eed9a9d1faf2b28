package engine

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrMalformedLevel  = errors.New("malformed level")
	ErrLevelTooLarge   = errors.New("level too large")
	ErrUnknownSymbol   = errors.New("unknown level symbol")
	ErrMissingPlayer   = errors.New("level has no player")
	ErrDuplicatePlayer = errors.New("level has more than one player")
	ErrBoxGoalMismatch = errors.New("goal count does not match box count")
)

// Level symbols
const (
	SymbolVoid   = ' '
	SymbolFloor  = '.'
	SymbolWall   = '#'
	SymbolGoal   = 'G'
	SymbolBox    = 'B'
	SymbolPlayer = 'P'
)

// Loader parses level descriptions into grids of a fixed capacity
type Loader struct {
	MaxWidth  int
	MaxHeight int
}

// DefaultLoader centers levels into a MaxWidth x MaxHeight grid
var DefaultLoader = Loader{MaxWidth: MaxWidth, MaxHeight: MaxHeight}

// ParseRows parses rows with the default loader
func ParseRows(rows []string) (*Level, error) {
	return DefaultLoader.ParseRows(rows)
}

// ParseDocument parses a <Rows> level document with the default loader
func ParseDocument(r io.Reader) (*Level, error) {
	return DefaultLoader.ParseDocument(r)
}

// LoadLevelFile reads and parses a level document from disk
func LoadLevelFile(path string) (*Level, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	level, err := DefaultLoader.ParseDocument(f)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", path, err)
	}
	return level, nil
}

// ParseRows builds a Level from text rows. Short rows are padded with void.
// Any violation aborts the load; no partial level is ever returned.
func (ld Loader) ParseRows(rows []string) (*Level, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrMalformedLevel)
	}

	src := make([][]rune, len(rows))
	srcW := 0
	for i, row := range rows {
		src[i] = []rune(row)
		srcW = max(srcW, len(src[i]))
	}
	srcH := len(src)

	if srcW > ld.MaxWidth || srcH > ld.MaxHeight {
		return nil, fmt.Errorf("%w: level is too big: %dx%d, maximum is %dx%d",
			ErrLevelTooLarge, srcW, srcH, ld.MaxWidth, ld.MaxHeight)
	}

	offsetX := (ld.MaxWidth - srcW) / 2
	offsetY := (ld.MaxHeight - srcH) / 2

	grid := NewGridMap(ld.MaxWidth, ld.MaxHeight)
	for p := range grid.All() {
		grid.SetCell(p.X, p.Y, Void)
	}

	var player *Position
	var boxes []Position
	goals := make(map[Position]struct{})

	for y := 0; y < srcH; y++ {
		line := src[y]
		for x := 0; x < srcW; x++ {
			c := SymbolVoid
			if x < len(line) {
				c = line[x]
			}

			p := Position{X: x + offsetX, Y: y + offsetY}

			switch c {
			case SymbolVoid:
				grid.SetCell(p.X, p.Y, Void)
			case SymbolFloor:
				grid.SetCell(p.X, p.Y, Floor)
			case SymbolWall:
				grid.SetCell(p.X, p.Y, Wall)
			case SymbolGoal:
				grid.SetCell(p.X, p.Y, Goal)
				goals[p] = struct{}{}
			case SymbolBox:
				grid.SetCell(p.X, p.Y, Floor)
				boxes = append(boxes, p)
			case SymbolPlayer:
				if player != nil {
					return nil, fmt.Errorf("%w: second player at row %d, col %d", ErrDuplicatePlayer, y+1, x+1)
				}
				grid.SetCell(p.X, p.Y, Floor)
				start := p
				player = &start
			default:
				return nil, fmt.Errorf("%w: '%c' at row %d, col %d", ErrUnknownSymbol, c, y+1, x+1)
			}
		}
	}

	if player == nil {
		return nil, ErrMissingPlayer
	}
	if len(goals) != len(boxes) {
		return nil, fmt.Errorf("%w: goals (G)=%d, boxes (B)=%d", ErrBoxGoalMismatch, len(goals), len(boxes))
	}

	return newLevel(grid, *player, boxes, goals), nil
}

// levelDocument is the on-disk level format:
//
//	<Level name="..."><Rows><Row>#####</Row>...</Rows></Level>
type levelDocument struct {
	XMLName     xml.Name
	Name        string    `xml:"name,attr,omitempty"`
	Description string    `xml:"description,attr,omitempty"`
	Rows        *rowsNode `xml:"Rows"`
}

type rowsNode struct {
	Row []string `xml:"Row"`
}

// ParseDocument reads the Rows/Row elements of a level document and parses them
func (ld Loader) ParseDocument(r io.Reader) (*Level, error) {
	var doc levelDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLevel, err)
	}
	if doc.Rows == nil || len(doc.Rows.Row) == 0 {
		return nil, fmt.Errorf("%w: missing Rows", ErrMalformedLevel)
	}

	rows := make([]string, len(doc.Rows.Row))
	for i, row := range doc.Rows.Row {
		rows[i] = strings.ReplaceAll(row, "\r", "")
	}

	level, err := ld.ParseRows(rows)
	if err != nil {
		return nil, err
	}
	return level.WithMeta(doc.Name, doc.Description), nil
}

// EncodeDocument writes rows as a level document
func EncodeDocument(w io.Writer, name, description string, rows []string) error {
	doc := levelDocument{
		XMLName:     xml.Name{Local: "Level"},
		Name:        name,
		Description: description,
		Rows:        &rowsNode{Row: rows},
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
