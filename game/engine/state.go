package engine

// Board symbols layered on top of the level alphabet
const (
	BoardBoxOnGoal    = '*'
	BoardPlayerOnGoal = '+'
)

// BoxInfo is a snapshot of one box
type BoxInfo struct {
	Index    int      `json:"index"`
	Position Position `json:"position"`
	State    BoxState `json:"state"`
}

// GameState represents a snapshot of a play session
type GameState struct {
	LevelName   string     `json:"level_name"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Board       []string   `json:"board"`
	PlayerPos   Position   `json:"player_pos"`
	Facing      Direction  `json:"facing"`
	Boxes       []BoxInfo  `json:"boxes"`
	Goals       []Position `json:"goals"`
	BoxesOnGoal int        `json:"boxes_on_goal"`
	Moves       int        `json:"moves"`
	Pushes      int        `json:"pushes"`
	Victory     bool       `json:"victory"`
	Message     string     `json:"message"`

	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the moves since the last reset. It mirrors MoveHistory entries
	// but gets cleared on reset while MoveHistory remains cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`
}

// MoveHistoryEntry represents a single move in the game history
type MoveHistoryEntry struct {
	Action       string   `json:"action"`
	FromPosition Position `json:"from_position"`
	ToPosition   Position `json:"to_position"`
	Pushed       bool     `json:"pushed,omitempty"`
	Timestamp    int64    `json:"timestamp"`
	Success      bool     `json:"success"`
	MoveNumber   int      `json:"move_number"`
}

// GetState returns a snapshot of the current session
func (e *GameEngine) GetState() *GameState {
	m := e.manager

	boxes := make([]BoxInfo, len(m.Boxes()))
	for i, b := range m.Boxes() {
		boxes[i] = BoxInfo{Index: b.Index(), Position: b.Position(), State: b.State()}
	}

	return &GameState{
		LevelName:         e.level.Name(),
		Width:             e.level.Width(),
		Height:            e.level.Height(),
		Board:             RenderBoard(m),
		PlayerPos:         m.Player().Position(),
		Facing:            m.Player().Facing(),
		Boxes:             boxes,
		Goals:             e.level.Goals(),
		BoxesOnGoal:       m.BoxesOnGoal(),
		Moves:             m.Moves(),
		Pushes:            m.Pushes(),
		Victory:           m.IsWin(),
		Message:           e.message,
		MoveHistory:       e.moveHistory,
		TotalMoves:        e.totalMoves,
		CurrentMoves:      e.currentMoves,
		CurrentMovesCount: len(e.currentMoves),
	}
}

// RenderBoard draws the session as text rows: the level alphabet with
// boxes and the player overlaid ('*' box on goal, '+' player on goal).
func RenderBoard(m *GameManager) []string {
	grid := m.Level().Grid()
	rows := make([][]rune, grid.Height())
	for y := range rows {
		rows[y] = make([]rune, grid.Width())
	}

	for p := range grid.All() {
		rows[p.Y][p.X] = TerrainSymbol(grid.Cell(p.X, p.Y))
	}

	for _, b := range m.Boxes() {
		p := b.Position()
		if grid.IsGoal(p) {
			rows[p.Y][p.X] = BoardBoxOnGoal
		} else {
			rows[p.Y][p.X] = SymbolBox
		}
	}

	p := m.Player().Position()
	if grid.IsGoal(p) {
		rows[p.Y][p.X] = BoardPlayerOnGoal
	} else {
		rows[p.Y][p.X] = SymbolPlayer
	}

	board := make([]string, len(rows))
	for y, row := range rows {
		board[y] = string(row)
	}
	return board
}

// TerrainSymbol maps a cell kind back to its level symbol
func TerrainSymbol(kind CellKind) rune {
	switch kind {
	case Floor:
		return SymbolFloor
	case Wall:
		return SymbolWall
	case Goal:
		return SymbolGoal
	default:
		return SymbolVoid
	}
}
