package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/solver"
	"github.com/wricardo/mcp-training/sokoban/internal/logs"
)

// MaxBulkMoves caps how many moves one bulk request executes
const MaxBulkMoves = 200

// Notifier is told about every change to a session's game. It is called
// while the service still holds its lock, so calls for one session arrive
// in the order the changes were applied. Implementations must not call
// back into the service.
type Notifier interface {
	SessionChanged(sessionID string, events []GameEvent, state *engine.GameState)
}

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	levels   LevelManager
	solver   solver.Solver
	notifier Notifier
	log      *zap.Logger
	mu       sync.RWMutex
}

// Option customizes a game service
type Option func(*gameServiceImpl)

// WithHintBudget limits how many states a hint search may visit
func WithHintBudget(maxStates int) Option {
	return func(s *gameServiceImpl) { s.solver.MaxStates = maxStates }
}

// WithNotifier reports moves and resets to n
func WithNotifier(n Notifier) Option {
	return func(s *gameServiceImpl) { s.notifier = n }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, levels LevelManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		levels:   levels,
		log:      logs.Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new game session on the named level, or the default level
func (s *gameServiceImpl) CreateSession(ctx context.Context, levelName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var level *engine.Level
	levelID := levelName
	if levelName != "" {
		var err error
		level, err = s.levels.LoadLevel(levelName)
		if err != nil {
			if errors.Is(err, ErrLevelNotFound) {
				available, listErr := s.levels.ListLevels()
				if listErr == nil && len(available) > 0 {
					var ids []string
					for _, info := range available {
						ids = append(ids, info.LevelID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available levels: %v", ErrLevelNotFound, levelName, ids)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/levels to list available levels", ErrLevelNotFound, levelName)
			}
			return nil, fmt.Errorf("failed to load level %s: %w", levelName, err)
		}
	} else {
		level = s.levels.GetDefault()
		levelID = s.levels.DefaultName()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", levelID, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess.Engine.DrainEvents()

	s.log.Info("session created", zap.String("session", sess.ID), zap.String("level", levelID))
	return sessionInfo(sess), nil
}

// GetSession retrieves session information
// Touching the access time makes this a writer.
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)

	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.log.Info("session deleted", zap.String("session", sessionID))
	return nil
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)

	events := []GameEvent{}
	if reset {
		sess.Engine.Reset()
		events = append(events, resetEvent())
	}
	sess.Engine.DrainEvents()

	eng := sess.Engine
	dir := engine.Direction(direction)
	prevPos := eng.GetPlayerPosition()
	reason := eng.BlockReason(dir)
	pushesBefore := eng.Manager().Pushes()
	success := eng.Move(direction)
	state := eng.GetState()

	events = append(events, convertEvents(eng.DrainEvents())...)
	if success && state.Victory {
		events = append(events, victoryEvent(state))
	}

	result := &MoveResult{
		Success:   success,
		GameState: state,
		Message:   state.Message,
		Events:    events,
	}

	if success {
		result.Step = &StepInfo{
			Idx:     1,
			Dir:     direction,
			From:    prevPos,
			To:      state.PlayerPos,
			Pushed:  state.Pushes > pushesBefore,
			Success: true,
			Victory: state.Victory,
		}
	} else if dir.Valid() && reason != "" {
		result.AttemptedTo = attemptInfo(sess.Level, prevPos, dir, reason)
	}

	s.notify(sess.ID, events, state)

	s.log.Debug("move",
		zap.String("session", sessionID),
		zap.String("direction", direction),
		zap.Bool("success", success),
		zap.Int("moves", state.Moves),
	)
	return result, nil
}

// BulkMove executes multiple moves in sequence. It stops at the first
// blocked move or when the level is solved.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	if len(moves) == 0 {
		return nil, fmt.Errorf("%w: no moves given", ErrInvalidMove)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)

	eng := sess.Engine
	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if reset {
		eng.Reset()
		result.Events = append(result.Events, resetEvent())
	}
	eng.DrainEvents()

	startState := eng.GetState()
	result.StartPos = startState.PlayerPos

	// Limit moves to prevent abuse
	if len(moves) > MaxBulkMoves {
		result.Truncated = true
		result.Limit = MaxBulkMoves
		moves = moves[:MaxBulkMoves]
	}

	for i, move := range moves {
		if eng.IsVictory() {
			result.StoppedReason = "level already complete"
			result.StopReasonCode = "already_solved"
			if result.MovesExecuted > 0 {
				result.StopReasonCode = "victory"
			}
			result.StoppedOnMove = i + 1
			break
		}

		dir := engine.Direction(move)
		prevPos := eng.GetPlayerPosition()
		reason := eng.BlockReason(dir)
		pushesBefore := eng.Manager().Pushes()

		if !eng.Move(move) {
			result.Success = false
			result.StoppedOnMove = i + 1
			if !dir.Valid() {
				result.StoppedReason = fmt.Sprintf("move %d: unknown direction %q", i+1, move)
				result.StopReasonCode = "invalid_direction"
			} else {
				result.StoppedReason = fmt.Sprintf("move %d blocked: %s (%s)", i+1, move, reason)
				result.StopReasonCode = stopCode(reason)
				result.AttemptedTo = attemptInfo(sess.Level, prevPos, dir, reason)
			}
			result.Events = append(result.Events, convertEvents(eng.DrainEvents())...)
			break
		}

		result.MovesExecuted++
		victory := eng.IsVictory()
		result.Events = append(result.Events, convertEvents(eng.DrainEvents())...)
		result.Steps = append(result.Steps, StepInfo{
			Idx:     i + 1,
			Dir:     move,
			From:    prevPos,
			To:      eng.GetPlayerPosition(),
			Pushed:  eng.Manager().Pushes() > pushesBefore,
			Success: true,
			Victory: victory,
		})
	}

	endState := eng.GetState()
	result.GameState = endState
	result.EndPos = endState.PlayerPos
	result.PushesDelta = endState.Pushes - startState.Pushes
	result.Victory = endState.Victory
	result.Message = endState.Message
	result.PossibleMoves = eng.GetPossibleMoves()

	if endState.Victory && !startState.Victory {
		result.Events = append(result.Events, victoryEvent(endState))
		if result.StopReasonCode == "" {
			result.StopReasonCode = "victory"
		}
	}

	s.notify(sess.ID, result.Events, endState)

	s.log.Debug("bulk move",
		zap.String("session", sessionID),
		zap.Int("requested", result.RequestedMoves),
		zap.Int("executed", result.MovesExecuted),
		zap.String("stop", result.StopReasonCode),
	)
	return result, nil
}

// Reset restarts a session's level
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.sessions.UpdateLastAccessed(sessionID)
	state := sess.Engine.Reset()
	sess.Engine.DrainEvents()
	s.notify(sess.ID, []GameEvent{resetEvent()}, state)
	return state, nil
}

// notify must be called with s.mu held
func (s *gameServiceImpl) notify(sessionID string, events []GameEvent, state *engine.GameState) {
	if s.notifier != nil {
		s.notifier.SessionChanged(sessionID, events, state)
	}
}

// GetGameState retrieves the current game state
// Touching the access time makes this a writer.
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = history[start:end]
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// Hint solves the level from the session's current position
func (s *gameServiceImpl) Hint(ctx context.Context, sessionID string) (*HintResult, error) {
	s.mu.RLock()
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		s.mu.RUnlock()
		return nil, err
	}
	m := sess.Engine.Manager()
	player := m.Player().Position()
	boxes := make([]engine.Position, len(m.Boxes()))
	for i, b := range m.Boxes() {
		boxes[i] = b.Position()
	}
	level := sess.Level
	s.mu.RUnlock()

	// The search runs on a copy of the positions so moves are not blocked meanwhile
	started := time.Now()
	res, err := s.solver.SolveFrom(level, player, boxes)
	switch {
	case errors.Is(err, solver.ErrNoSolution):
		return &HintResult{
			Solvable: false,
			Moves:    []string{},
			Message:  "No solution from this position. Reset the level to try again.",
		}, nil
	case err != nil:
		return nil, fmt.Errorf("hint for session %s: %w", sessionID, err)
	}

	hint := &HintResult{
		Solvable: true,
		Moves:    make([]string, len(res.Moves)),
		Pushes:   res.Pushes,
		Explored: res.Explored,
	}
	for i, d := range res.Moves {
		hint.Moves[i] = string(d)
	}
	if len(hint.Moves) == 0 {
		hint.Message = "Level already complete."
	} else {
		hint.Next = hint.Moves[0]
		hint.Message = fmt.Sprintf("Solvable in %d moves (%d pushes). Next: %s", len(hint.Moves), res.Pushes, hint.Next)
	}

	s.log.Debug("hint",
		zap.String("session", sessionID),
		zap.Int("moves", len(hint.Moves)),
		zap.Int("explored", res.Explored),
		zap.Duration("took", time.Since(started)),
	)
	return hint, nil
}

// ListLevels returns available levels
func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.levels.ListLevels()
}

// LoadLevel returns a level in editable form
func (s *gameServiceImpl) LoadLevel(ctx context.Context, levelName string) (*LevelDefinition, error) {
	level, err := s.levels.LoadLevel(levelName)
	if err != nil {
		return nil, err
	}
	return &LevelDefinition{
		Name:        level.Name(),
		Description: level.Description(),
		Rows:        level.Rows(),
	}, nil
}

// SaveLevel validates and stores a level
func (s *gameServiceImpl) SaveLevel(ctx context.Context, levelName string, def *LevelDefinition) error {
	return s.levels.SaveLevel(levelName, def)
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		LevelID:        sess.LevelID,
		LevelName:      sess.Level.Name(),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
	}
}

// convertEvents turns entity notifications into client events
func convertEvents(events []engine.Event) []GameEvent {
	out := make([]GameEvent, 0, len(events))
	now := time.Now()
	for _, ev := range events {
		ge := GameEvent{
			Type:      string(ev.Type),
			Timestamp: now,
			Box:       ev.Box,
			From:      ev.From,
			Position:  ev.To,
			Facing:    ev.Facing,
			State:     ev.State,
		}
		switch ev.Type {
		case engine.EventPlayerMoved:
			ge.Message = fmt.Sprintf("Player moved to (%d,%d)", ev.To.X, ev.To.Y)
		case engine.EventPlayerFacing:
			ge.Message = fmt.Sprintf("Player faces %s", ev.Facing)
		case engine.EventBoxMoved:
			ge.Message = fmt.Sprintf("Box %d pushed to (%d,%d)", ev.Box, ev.To.X, ev.To.Y)
		case engine.EventBoxState:
			if ev.State == engine.BoxOnGoal {
				ge.Message = fmt.Sprintf("Box %d is on a goal", ev.Box)
			} else {
				ge.Message = fmt.Sprintf("Box %d left its goal", ev.Box)
			}
		default:
			continue
		}
		out = append(out, ge)
	}
	return out
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      "reset",
		Message:   "Level restarted",
		Timestamp: time.Now(),
		Box:       -1,
	}
}

func victoryEvent(state *engine.GameState) GameEvent {
	return GameEvent{
		Type:      "victory",
		Message:   fmt.Sprintf("Level complete in %d moves!", state.Moves),
		Timestamp: time.Now(),
		Box:       -1,
		Position:  state.PlayerPos,
	}
}

// attemptInfo describes the cell a blocked move tried to enter
func attemptInfo(level *engine.Level, from engine.Position, dir engine.Direction, reason string) *AttemptInfo {
	target := from.Add(dir.Delta())
	cell := string(engine.Void)
	if level.Grid().InBounds(target) {
		cell = string(level.Grid().Cell(target.X, target.Y))
	}
	return &AttemptInfo{
		X:        target.X,
		Y:        target.Y,
		Cell:     cell,
		Reason:   reason,
		Passable: level.IsWalkableBase(target),
	}
}

func stopCode(reason string) string {
	switch reason {
	case "wall":
		return "blocked_wall"
	case "void":
		return "blocked_void"
	default:
		return "blocked_box"
	}
}
