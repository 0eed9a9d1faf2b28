package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/levels"
	"github.com/wricardo/mcp-training/sokoban/game/service"
	"github.com/wricardo/mcp-training/sokoban/game/session"
	"github.com/wricardo/mcp-training/sokoban/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	CreateSessionFunc  func(ctx context.Context, levelName string) (*service.SessionInfo, error)
	GetSessionFunc     func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc   func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc  func(ctx context.Context, sessionID string) error
	MoveFunc           func(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error)
	BulkMoveFunc       func(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error)
	ResetFunc          func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetGameStateFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)
	HintFunc           func(ctx context.Context, sessionID string) (*service.HintResult, error)
	ListLevelsFunc     func(ctx context.Context) ([]*service.LevelInfo, error)
	LoadLevelFunc      func(ctx context.Context, levelName string) (*service.LevelDefinition, error)
	SaveLevelFunc      func(ctx context.Context, levelName string, def *service.LevelDefinition) error
}

func (m *MockGameService) CreateSession(ctx context.Context, levelName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, levelName)
	}
	return &service.SessionInfo{ID: "test-session", LevelID: levelName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, LevelID: "level1", CreatedAt: time.Now()}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockGameService) Move(ctx context.Context, sessionID, direction string, reset bool) (*service.MoveResult, error) {
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, sessionID, direction, reset)
	}
	return &service.MoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*service.BulkMoveResult, error) {
	if m.BulkMoveFunc != nil {
		return m.BulkMoveFunc(ctx, sessionID, moves, reset)
	}
	return &service.BulkMoveResult{Success: true, GameState: &engine.GameState{}}, nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetMoveHistoryFunc != nil {
		return m.GetMoveHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Moves:      []engine.MoveHistoryEntry{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

func (m *MockGameService) Hint(ctx context.Context, sessionID string) (*service.HintResult, error) {
	if m.HintFunc != nil {
		return m.HintFunc(ctx, sessionID)
	}
	return &service.HintResult{Solvable: true, Moves: []string{}}, nil
}

func (m *MockGameService) ListLevels(ctx context.Context) ([]*service.LevelInfo, error) {
	if m.ListLevelsFunc != nil {
		return m.ListLevelsFunc(ctx)
	}
	return []*service.LevelInfo{}, nil
}

func (m *MockGameService) LoadLevel(ctx context.Context, levelName string) (*service.LevelDefinition, error) {
	if m.LoadLevelFunc != nil {
		return m.LoadLevelFunc(ctx, levelName)
	}
	return &service.LevelDefinition{Name: levelName, Rows: []string{"#####"}}, nil
}

func (m *MockGameService) SaveLevel(ctx context.Context, levelName string, def *service.LevelDefinition) error {
	if m.SaveLevelFunc != nil {
		return m.SaveLevelFunc(ctx, levelName, def)
	}
	return nil
}

// Test helpers
func setupTestServer(t *testing.T, gameService service.GameService) *Server {
	t.Helper()
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return NewServer(gameService, hub)
}

func makeRequest(method, path string, body any) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(server *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("load: %w", service.ErrLevelNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: box count", service.ErrInvalidLevel), http.StatusUnprocessableEntity},
		{service.ErrInvalidMove, http.StatusBadRequest},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		createErr      error
		expectedStatus int
		expectedLevel  string
	}{
		{"default level", nil, nil, http.StatusCreated, ""},
		{"named level", map[string]string{"level_id": "level2"}, nil, http.StatusCreated, "level2"},
		{"unknown level", map[string]string{"level_id": "nope"}, service.ErrLevelNotFound, http.StatusNotFound, "nope"},
		{"broken level", map[string]string{"level_id": "bad"}, service.ErrInvalidLevel, http.StatusUnprocessableEntity, "bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLevel string
			mock := &MockGameService{
				CreateSessionFunc: func(ctx context.Context, levelName string) (*service.SessionInfo, error) {
					gotLevel = levelName
					if tt.createErr != nil {
						return nil, tt.createErr
					}
					return &service.SessionInfo{ID: "sess", LevelID: levelName}, nil
				},
			}
			server := setupTestServer(t, mock)

			w := serve(server, makeRequest("POST", "/api/sessions", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if gotLevel != tt.expectedLevel {
				t.Errorf("Expected level %q, got %q", tt.expectedLevel, gotLevel)
			}
		})
	}
}

func TestCreateSessionInvalidBody(t *testing.T) {
	server := setupTestServer(t, &MockGameService{})
	req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader("{"))

	if w := serve(server, req); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	mock := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", LevelID: "level1", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-time.Hour)},
				{ID: "new", LevelID: "level1", CreatedAt: now, LastAccessedAt: now},
				{ID: "other", LevelID: "level2", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-2 * time.Hour)},
			}, nil
		},
	}
	server := setupTestServer(t, mock)

	tests := []struct {
		query    string
		expected []string
		total    int
	}{
		{"", []string{"new", "old", "other"}, 3},
		{"?sort=created&order=asc", []string{"old", "other", "new"}, 3},
		{"?limit=1", []string{"new"}, 3},
		{"?level=LEVEL1&order=asc", []string{"old", "new"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := serve(server, makeRequest("GET", "/api/sessions"+tt.query, nil))
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			var ids []string
			for _, s := range resp.Sessions {
				ids = append(ids, s.ID)
			}
			if strings.Join(ids, ",") != strings.Join(tt.expected, ",") {
				t.Errorf("Expected %v, got %v", tt.expected, ids)
			}
			if resp.Total != tt.total || resp.Count != len(tt.expected) {
				t.Errorf("Expected count %d total %d, got %d/%d", len(tt.expected), tt.total, resp.Count, resp.Total)
			}
		})
	}
}

func TestSessionNotFound(t *testing.T) {
	notFound := func(ctx context.Context, id string) (*engine.GameState, error) {
		return nil, service.ErrSessionNotFound
	}
	mock := &MockGameService{
		GetSessionFunc: func(ctx context.Context, id string) (*service.SessionInfo, error) {
			return nil, service.ErrSessionNotFound
		},
		DeleteSessionFunc: func(ctx context.Context, id string) error { return service.ErrSessionNotFound },
		GetGameStateFunc:  notFound,
		ResetFunc:         notFound,
		MoveFunc: func(ctx context.Context, id, dir string, reset bool) (*service.MoveResult, error) {
			return nil, service.ErrSessionNotFound
		},
		HintFunc: func(ctx context.Context, id string) (*service.HintResult, error) {
			return nil, service.ErrSessionNotFound
		},
		GetMoveHistoryFunc: func(ctx context.Context, id string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			return nil, service.ErrSessionNotFound
		},
	}
	server := setupTestServer(t, mock)

	requests := []*http.Request{
		makeRequest("GET", "/api/sessions/missing", nil),
		makeRequest("DELETE", "/api/sessions/missing", nil),
		makeRequest("GET", "/api/sessions/missing/state", nil),
		makeRequest("POST", "/api/sessions/missing/reset", nil),
		makeRequest("POST", "/api/sessions/missing/move", map[string]string{"direction": "up"}),
		makeRequest("GET", "/api/sessions/missing/hint", nil),
		makeRequest("GET", "/api/sessions/missing/history", nil),
		makeRequest("GET", "/ws?session=missing", nil),
	}

	for _, req := range requests {
		w := serve(server, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s: expected 404, got %d", req.Method, req.URL.Path, w.Code)
		}
		var resp map[string]any
		parseResponse(t, w, &resp)
		if resp["error"] != service.ErrSessionNotFound.Error() {
			t.Errorf("%s %s: unexpected error body %v", req.Method, req.URL.Path, resp)
		}
	}
}

func TestMove(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		expectedStatus int
		expectCall     bool
	}{
		{"valid move", map[string]any{"direction": "right", "reset": true}, http.StatusOK, true},
		{"missing direction", map[string]any{}, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mock := &MockGameService{
				MoveFunc: func(ctx context.Context, id, dir string, reset bool) (*service.MoveResult, error) {
					called = true
					if id != "abcd" || dir != "right" || !reset {
						t.Errorf("Unexpected call %s %s %v", id, dir, reset)
					}
					return &service.MoveResult{
						Success:   true,
						GameState: &engine.GameState{PlayerPos: engine.Position{X: 8, Y: 3}},
						Step:      &service.StepInfo{Idx: 1, Dir: dir, From: engine.Position{X: 7, Y: 3}, To: engine.Position{X: 8, Y: 3}, Success: true},
					}, nil
				},
			}
			server := setupTestServer(t, mock)

			w := serve(server, makeRequest("POST", "/api/sessions/abcd/move", tt.body))
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if called != tt.expectCall {
				t.Errorf("Expected service call %v, got %v", tt.expectCall, called)
			}
		})
	}
}

func TestBulkMoveEmpty(t *testing.T) {
	mock := &MockGameService{
		BulkMoveFunc: func(ctx context.Context, id string, moves []string, reset bool) (*service.BulkMoveResult, error) {
			if len(moves) == 0 {
				return nil, fmt.Errorf("%w: no moves given", service.ErrInvalidMove)
			}
			return &service.BulkMoveResult{GameState: &engine.GameState{}}, nil
		},
	}
	server := setupTestServer(t, mock)

	w := serve(server, makeRequest("POST", "/api/sessions/abcd/bulk-move", map[string]any{"moves": []string{}}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestGetHistoryOptions(t *testing.T) {
	tests := []struct {
		query    string
		expected service.HistoryOptions
	}{
		{"", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"?page=2&limit=5&order=asc", service.HistoryOptions{Page: 2, Limit: 5, Order: "asc"}},
		{"?page=-1&limit=abc&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got service.HistoryOptions
			mock := &MockGameService{
				GetMoveHistoryFunc: func(ctx context.Context, id string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{Moves: []engine.MoveHistoryEntry{}}, nil
				},
			}
			server := setupTestServer(t, mock)

			if w := serve(server, makeRequest("GET", "/api/sessions/abcd/history"+tt.query, nil)); w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}
			if got != tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestLevels(t *testing.T) {
	var saved *service.LevelDefinition
	mock := &MockGameService{
		ListLevelsFunc: func(ctx context.Context) ([]*service.LevelInfo, error) {
			return []*service.LevelInfo{{LevelID: "level1", Name: "First Push", Boxes: 1}}, nil
		},
		LoadLevelFunc: func(ctx context.Context, name string) (*service.LevelDefinition, error) {
			if name != "level1" {
				return nil, service.ErrLevelNotFound
			}
			return &service.LevelDefinition{Name: "First Push", Rows: []string{"#####"}}, nil
		},
		SaveLevelFunc: func(ctx context.Context, name string, def *service.LevelDefinition) error {
			if len(def.Rows) == 0 {
				return fmt.Errorf("%w: no rows", service.ErrInvalidLevel)
			}
			saved = def
			return nil
		},
	}
	server := setupTestServer(t, mock)

	t.Run("list", func(t *testing.T) {
		w := serve(server, makeRequest("GET", "/api/levels", nil))
		var resp []*service.LevelInfo
		parseResponse(t, w, &resp)
		if len(resp) != 1 || resp[0].LevelID != "level1" {
			t.Errorf("Unexpected levels %+v", resp)
		}
	})

	t.Run("get strips extension", func(t *testing.T) {
		w := serve(server, makeRequest("GET", "/api/levels/level1.xml", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
	})

	t.Run("get missing", func(t *testing.T) {
		if w := serve(server, makeRequest("GET", "/api/levels/nope", nil)); w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})

	t.Run("save", func(t *testing.T) {
		body := map[string]any{"level_id": "custom", "name": "Custom", "rows": []string{"#####", "#PBG#", "#####"}}
		w := serve(server, makeRequest("POST", "/api/levels", body))
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
		}
		if saved == nil || saved.Name != "Custom" || len(saved.Rows) != 3 {
			t.Errorf("Level not passed through: %+v", saved)
		}
	})

	t.Run("save invalid", func(t *testing.T) {
		w := serve(server, makeRequest("POST", "/api/levels", map[string]any{"level_id": "custom"}))
		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("Expected 422, got %d", w.Code)
		}
	})

	t.Run("save without id", func(t *testing.T) {
		w := serve(server, makeRequest("POST", "/api/levels", map[string]any{"rows": []string{"#"}}))
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})
}

func TestHealth(t *testing.T) {
	server := NewServer(&MockGameService{}, nil)
	if w := serve(server, makeRequest("GET", "/health", nil)); w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	if w := serve(server, makeRequest("GET", "/ws?session=abcd", nil)); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without a hub, got %d", w.Code)
	}
}

// TestPlayThroughWithLiveUpdates drives a real service over HTTP while a
// WebSocket client watches the session. The watcher spells the session ID
// differently from the mover, as lookups ignore case.
func TestPlayThroughWithLiveUpdates(t *testing.T) {
	levelMgr, err := levels.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create level manager: %v", err)
	}
	sessions := session.NewManager()
	if _, err := sessions.Create("Live", levelMgr.DefaultName(), levelMgr.GetDefault()); err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	gameService := service.NewGameService(sessions, levelMgr, service.WithNotifier(hub))
	httpServer := httptest.NewServer(NewServer(gameService, hub))
	defer httpServer.Close()

	post := func(path string, body any) *http.Response {
		t.Helper()
		data, _ := json.Marshal(body)
		resp, err := http.Post(httpServer.URL+path, "application/json", bytes.NewReader(data))
		if err != nil {
			t.Fatalf("POST %s: %v", path, err)
		}
		return resp
	}

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws?session=LIVE"
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	read := func() websocket.Message {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var message websocket.Message
		if err := conn.ReadJSON(&message); err != nil {
			t.Fatalf("Failed to read WebSocket message: %v", err)
		}
		return message
	}

	if first := read(); first.Event != websocket.EventStateUpdate || first.GameState.PlayerPos != (engine.Position{X: 7, Y: 3}) {
		t.Fatalf("Expected initial state, got %+v", first)
	}

	resp := post("/api/sessions/live/bulk-move", map[string]any{
		"moves": []string{"right", "down", "left", "down", "right"},
	})
	var result service.BulkMoveResult
	json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()

	if !result.Victory || result.MovesExecuted != 5 {
		t.Fatalf("Expected victory in 5 moves, got %+v", result)
	}

	var events []string
	for {
		message := read()
		if message.Event == websocket.EventStateUpdate {
			if !message.GameState.Victory {
				t.Error("Final state update should report victory")
			}
			break
		}
		events = append(events, message.Event)
	}
	if len(events) != len(result.Events) || events[len(events)-1] != "victory" {
		t.Errorf("Expected %d events ending in victory, got %v", len(result.Events), events)
	}

	resp = post("/api/sessions/LiVe/reset", map[string]any{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Reset returned %d", resp.StatusCode)
	}
	if message := read(); message.Event != websocket.EventReset {
		t.Fatalf("Expected reset event, got %+v", message)
	}
	if message := read(); message.Event != websocket.EventStateUpdate || message.GameState.Moves != 0 {
		t.Errorf("Expected fresh state after reset, got %+v", message)
	}
}
