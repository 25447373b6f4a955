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

	gws "github.com/gorilla/websocket"

	"github.com/wricardo/carcassonne/game/engine"
	"github.com/wricardo/carcassonne/game/service"
	"github.com/wricardo/carcassonne/game/tile"
	"github.com/wricardo/carcassonne/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string, seed *int64) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Game Operations
	PlaceFunc   func(ctx context.Context, sessionID string, index int, rotation tile.Rotation, reset bool) (*service.PlaceResult, error)
	PlaceAtFunc func(ctx context.Context, sessionID string, id *tile.ID, row, col int, rotation tile.Rotation) (*service.PlaceResult, error)
	ResetFunc   func(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameStateFunc        func(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetBoardFunc            func(ctx context.Context, sessionID string) (*service.BoardView, error)
	GetPlacementHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error
}

// Session Management
func (m *MockGameService) CreateSession(ctx context.Context, configName string, seed *int64) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName, seed)
	}
	return &service.SessionInfo{
		ID:         "test-session",
		ConfigName: configName,
		CreatedAt:  time.Now(),
	}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{
		ID:         sessionID,
		ConfigName: "standard",
		CreatedAt:  time.Now(),
	}, nil
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

// Game Operations
func (m *MockGameService) Place(ctx context.Context, sessionID string, index int, rotation tile.Rotation, reset bool) (*service.PlaceResult, error) {
	if m.PlaceFunc != nil {
		return m.PlaceFunc(ctx, sessionID, index, rotation, reset)
	}
	return successResult(sessionID), nil
}

func (m *MockGameService) PlaceAt(ctx context.Context, sessionID string, id *tile.ID, row, col int, rotation tile.Rotation) (*service.PlaceResult, error) {
	if m.PlaceAtFunc != nil {
		return m.PlaceAtFunc(ctx, sessionID, id, row, col, rotation)
	}
	return successResult(sessionID), nil
}

func (m *MockGameService) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

// Game State
func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{}, nil
}

func (m *MockGameService) GetBoard(ctx context.Context, sessionID string) (*service.BoardView, error) {
	if m.GetBoardFunc != nil {
		return m.GetBoardFunc(ctx, sessionID)
	}
	return &service.BoardView{SessionID: sessionID, Width: 3, Height: 3}, nil
}

func (m *MockGameService) GetPlacementHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetPlacementHistoryFunc != nil {
		return m.GetPlacementHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{
		Placements: []engine.PlacementRecord{},
		Page:       opts.Page,
		PageSize:   opts.Limit,
		TotalPages: 1,
	}, nil
}

// Configuration
func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.GameConfig{
		Name:        configName,
		Description: "Test config",
	}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers
func setupTestServer(mockService *MockGameService) *Server {
	hub := websocket.NewHub()
	go hub.Run()
	return NewServer(mockService, hub)
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

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func successResult(sessionID string) *service.PlaceResult {
	return &service.PlaceResult{
		Success: true,
		Message: "Placed V at (1,2)",
		Board:   &service.BoardView{SessionID: sessionID, Width: 4, Height: 3, PileSize: 70},
		Placement: &engine.PlacementRecord{
			Number:   1,
			Tile:     tile.V,
			TileName: "V",
			Row:      1,
			Col:      2,
		},
	}
}

func intPtr(n int) *int { return &n }

// Session Management Tests

func TestCreateSession(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Create session with default config",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string, seed *int64) (*service.SessionInfo, error) {
					if configName != "" {
						t.Errorf("Expected empty config name, got %q", configName)
					}
					if seed != nil {
						t.Errorf("Expected nil seed, got %d", *seed)
					}
					return &service.SessionInfo{
						ID:             "sess-123",
						ConfigName:     "standard",
						CreatedAt:      time.Now(),
						LastAccessedAt: time.Now(),
					}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "sess-123" {
					t.Errorf("Expected session ID sess-123, got %s", resp.ID)
				}
			},
		},
		{
			name:        "Create session with config and seed",
			requestBody: map[string]any{"config_id": "small", "seed": 42},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string, seed *int64) (*service.SessionInfo, error) {
					if configName != "small" {
						t.Errorf("Expected config small, got %q", configName)
					}
					if seed == nil || *seed != 42 {
						t.Errorf("Expected seed 42, got %v", seed)
					}
					return &service.SessionInfo{ID: "sess-456", ConfigName: configName, Seed: *seed}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.Seed != 42 {
					t.Errorf("Expected seed 42, got %d", resp.Seed)
				}
			},
		},
		{
			name:        "Config name alias",
			requestBody: map[string]any{"config_name": "matching"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string, seed *int64) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "sess-789", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ConfigName != "matching" {
					t.Errorf("Expected config matching, got %s", resp.ConfigName)
				}
			},
		},
		{
			name:        "Unknown config",
			requestBody: map[string]any{"config_id": "missing"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string, seed *int64) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("config %q: %w", configName, service.ErrConfigNotFound)
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:        "Service failure",
			requestBody: nil,
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string, seed *int64) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("disk full")
				}
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestCreateSession_InvalidBody(t *testing.T) {
	server := setupTestServer(&MockGameService{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/sessions", strings.NewReader("{not json"))
	server.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestListSessions(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	sessions := func() []*service.SessionInfo {
		return []*service.SessionInfo{
			{ID: "old", CreatedAt: base, LastAccessedAt: base.Add(3 * time.Hour)},
			{ID: "mid", CreatedAt: base.Add(time.Hour), LastAccessedAt: base.Add(time.Hour)},
			{ID: "new", CreatedAt: base.Add(2 * time.Hour), LastAccessedAt: base.Add(2 * time.Hour)},
		}
	}

	tests := []struct {
		name        string
		query       string
		expectedIDs []string
	}{
		{"Default sorts by last access, newest first", "", []string{"old", "new", "mid"}},
		{"Sort by creation ascending", "?sort=created&order=asc", []string{"old", "mid", "new"}},
		{"Sort by creation descending", "?sort=created", []string{"new", "mid", "old"}},
		{"Limit", "?sort=created&limit=2", []string{"new", "mid"}},
		{"Ignore bad limit", "?sort=created&limit=zero", []string{"new", "mid", "old"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{
				ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
					return sessions(), nil
				},
			}
			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}

			var resp struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			parseResponse(t, w, &resp)

			if resp.Total != 3 {
				t.Errorf("Expected total 3, got %d", resp.Total)
			}
			if resp.Count != len(tt.expectedIDs) {
				t.Fatalf("Expected count %d, got %d", len(tt.expectedIDs), resp.Count)
			}
			for i, id := range tt.expectedIDs {
				if resp.Sessions[i].ID != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, resp.Sessions[i].ID)
				}
			}
		})
	}
}

func TestGetSession(t *testing.T) {
	mockService := &MockGameService{
		GetSessionFunc: func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			if sessionID == "missing" {
				return nil, fmt.Errorf("session not found: %s", sessionID)
			}
			return &service.SessionInfo{ID: sessionID, ConfigName: "standard"}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/abc123", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp service.SessionInfo
	parseResponse(t, w, &resp)
	if resp.ID != "abc123" {
		t.Errorf("Expected session abc123, got %s", resp.ID)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	deleted := ""
	mockService := &MockGameService{
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			if sessionID == "missing" {
				return fmt.Errorf("session not found")
			}
			deleted = sessionID
			return nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/abc123", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if deleted != "abc123" {
		t.Errorf("Expected abc123 to be deleted, got %q", deleted)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("DELETE", "/api/sessions/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

// Game Operation Tests

func TestPlace(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		setupMock      func(*MockGameService)
		expectedStatus int
		validateResp   func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:        "Place next tile by index",
			requestBody: map[string]any{"index": 5, "rotation": 1},
			setupMock: func(m *MockGameService) {
				m.PlaceFunc = func(ctx context.Context, sessionID string, index int, rotation tile.Rotation, reset bool) (*service.PlaceResult, error) {
					if index != 5 || rotation != 1 || reset {
						t.Errorf("Unexpected arguments index=%d rotation=%d reset=%v", index, rotation, reset)
					}
					return successResult(sessionID), nil
				}
				m.PlaceAtFunc = func(ctx context.Context, sessionID string, id *tile.ID, row, col int, rotation tile.Rotation) (*service.PlaceResult, error) {
					t.Error("PlaceAt should not be called for an index placement")
					return nil, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.PlaceResult
				parseResponse(t, w, &resp)
				if !resp.Success {
					t.Error("Expected success")
				}
				if resp.Placement == nil || resp.Placement.Tile != tile.V {
					t.Errorf("Expected a V placement, got %+v", resp.Placement)
				}
			},
		},
		{
			name:        "Index zero with reset",
			requestBody: map[string]any{"index": 0, "reset": true},
			setupMock: func(m *MockGameService) {
				m.PlaceFunc = func(ctx context.Context, sessionID string, index int, rotation tile.Rotation, reset bool) (*service.PlaceResult, error) {
					if index != 0 || !reset {
						t.Errorf("Expected index 0 with reset, got %d %v", index, reset)
					}
					return successResult(sessionID), nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "Place chosen tile by row and column",
			requestBody: map[string]any{"row": 0, "col": 1, "tile": "u", "rotation": 2},
			setupMock: func(m *MockGameService) {
				m.PlaceAtFunc = func(ctx context.Context, sessionID string, id *tile.ID, row, col int, rotation tile.Rotation) (*service.PlaceResult, error) {
					if id == nil || *id != tile.U {
						t.Errorf("Expected tile U, got %v", id)
					}
					if row != 0 || col != 1 || rotation != 2 {
						t.Errorf("Unexpected position (%d,%d) rotation %d", row, col, rotation)
					}
					return successResult(sessionID), nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "Row and column without tile draws the next one",
			requestBody: map[string]any{"row": 2, "col": 1},
			setupMock: func(m *MockGameService) {
				m.PlaceAtFunc = func(ctx context.Context, sessionID string, id *tile.ID, row, col int, rotation tile.Rotation) (*service.PlaceResult, error) {
					if id != nil {
						t.Errorf("Expected no tile, got %v", *id)
					}
					return successResult(sessionID), nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "Rejected placement",
			requestBody: map[string]any{"index": 4},
			setupMock: func(m *MockGameService) {
				m.PlaceFunc = func(ctx context.Context, sessionID string, index int, rotation tile.Rotation, reset bool) (*service.PlaceResult, error) {
					return &service.PlaceResult{
						Success: false,
						Message: "Can't place there! [cell is occupied]",
						Reason:  "cell is occupied",
						Board:   &service.BoardView{SessionID: sessionID, Width: 3, Height: 3},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.PlaceResult
				parseResponse(t, w, &resp)
				if resp.Success {
					t.Error("Expected rejection")
				}
				if resp.Reason != "cell is occupied" {
					t.Errorf("Expected reason, got %q", resp.Reason)
				}
			},
		},
		{
			name:        "Unknown session",
			requestBody: map[string]any{"index": 1},
			setupMock: func(m *MockGameService) {
				m.PlaceFunc = func(ctx context.Context, sessionID string, index int, rotation tile.Rotation, reset bool) (*service.PlaceResult, error) {
					return nil, fmt.Errorf("session not found")
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Missing target",
			requestBody:    map[string]any{"rotation": 1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Index and row together",
			requestBody:    map[string]any{"index": 1, "row": 0, "col": 0},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Row without column",
			requestBody:    map[string]any{"row": 0},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Tile with index",
			requestBody:    map[string]any{"index": 1, "tile": "V"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unknown tile letter",
			requestBody:    map[string]any{"row": 0, "col": 1, "tile": "Z"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Rotation out of range",
			requestBody:    map[string]any{"index": 1, "rotation": 4},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Reset with row and column",
			requestBody:    map[string]any{"row": 0, "col": 1, "reset": true},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/place", tt.requestBody))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func TestPlace_InvalidBody(t *testing.T) {
	server := setupTestServer(&MockGameService{})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/sessions/sess-1/place", strings.NewReader("index=3"))
	server.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestReset(t *testing.T) {
	mockService := &MockGameService{
		ResetFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID == "missing" {
				return nil, fmt.Errorf("session not found")
			}
			return &engine.GameState{Width: 3, Height: 3, Message: "Welcome!"}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/sess-1/reset", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	parseResponse(t, w, &resp)
	if resp.State == nil || resp.State.Width != 3 {
		t.Errorf("Expected reset state, got %+v", resp.State)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/missing/reset", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetHistory(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected service.HistoryOptions
	}{
		{"Defaults", "", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
		{"Explicit", "?page=3&limit=5&order=asc", service.HistoryOptions{Page: 3, Limit: 5, Order: "asc"}},
		{"Invalid values fall back", "?page=-1&limit=abc&order=sideways", service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got service.HistoryOptions
			mockService := &MockGameService{
				GetPlacementHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
					got = opts
					return &service.HistoryResponse{Page: opts.Page, PageSize: opts.Limit}, nil
				},
			}
			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess-1/history"+tt.query, nil))

			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			if got != tt.expected {
				t.Errorf("Expected options %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestGetGameState(t *testing.T) {
	mockService := &MockGameService{
		GetGameStateFunc: func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			if sessionID == "missing" {
				return nil, fmt.Errorf("session not found")
			}
			return &engine.GameState{
				Width:     3,
				Height:    3,
				Remaining: engine.Flat{2, 4},
				Pile:      []tile.ID{tile.A, tile.V},
			}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess-1/state", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"pile":["A","V"]`) {
		t.Errorf("Expected pile as letters, got %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"remaining":[2,4]`) {
		t.Errorf("Expected remaining as numbers, got %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/missing/state", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestGetBoard(t *testing.T) {
	mockService := &MockGameService{
		GetBoardFunc: func(ctx context.Context, sessionID string) (*service.BoardView, error) {
			return &service.BoardView{
				SessionID: sessionID,
				Width:     3,
				Height:    3,
				TileIDs:   engine.Flat{255, 254, 255, 254, 3, 254, 255, 254, 255},
				Rendered:  ".*.\n*D*\n.*.",
			}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess-1/board", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var view service.BoardView
	parseResponse(t, w, &view)
	if len(view.TileIDs) != 9 || view.TileIDs[4] != 3 {
		t.Errorf("Expected D at the center, got %v", view.TileIDs)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/sessions/sess-1/board?format=text", nil))
	if got := w.Body.String(); got != ".*.\n*D*\n.*.\n" {
		t.Errorf("Expected rendered board, got %q", got)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Expected text/plain, got %s", ct)
	}
}

// Catalog and Configuration Tests

func TestListTiles(t *testing.T) {
	server := setupTestServer(&MockGameService{})
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/tiles", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var tiles []TileInfo
	parseResponse(t, w, &tiles)
	if len(tiles) != tile.NumTypes {
		t.Fatalf("Expected %d tiles, got %d", tile.NumTypes, len(tiles))
	}

	d := tiles[tile.D]
	if d.Letter != "D" {
		t.Errorf("Expected letter D, got %s", d.Letter)
	}
	expectedEdges := []string{"road", "city", "grass", "road"}
	for i, e := range expectedEdges {
		if d.Edges[i] != e {
			t.Errorf("Edge %d: expected %s, got %s", i, e, d.Edges[i])
		}
	}
	if strings.Join(d.Face, "\n") != "OCO\nRRO\nORO" {
		t.Errorf("Unexpected face %v", d.Face)
	}
	if d.Standard != 4 {
		t.Errorf("Expected 4 D tiles in the standard deck, got %d", d.Standard)
	}

	total := 0
	for _, ti := range tiles {
		total += ti.Standard
	}
	if total != 72 {
		t.Errorf("Expected 72 standard tiles, got %d", total)
	}
}

func TestListConfigs(t *testing.T) {
	mockService := &MockGameService{
		ListConfigsFunc: func(ctx context.Context) ([]*service.ConfigInfo, error) {
			return []*service.ConfigInfo{
				{ConfigID: "small", Filename: "small.yaml", DeckSize: 12},
				{ConfigID: "standard", Filename: "standard.json", DeckSize: 72},
			}, nil
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var configs []*service.ConfigInfo
	parseResponse(t, w, &configs)
	if len(configs) != 2 {
		t.Fatalf("Expected 2 configs, got %d", len(configs))
	}
	if configs[1].DeckSize != 72 {
		t.Errorf("Expected deck size 72, got %d", configs[1].DeckSize)
	}
}

func TestGetConfig(t *testing.T) {
	mockService := &MockGameService{
		LoadConfigFunc: func(ctx context.Context, configName string) (*engine.GameConfig, error) {
			if configName == "standard" {
				return engine.DefaultConfig(), nil
			}
			return nil, fmt.Errorf("config %q: %w", configName, service.ErrConfigNotFound)
		},
	}
	server := setupTestServer(mockService)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs/standard", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var config engine.GameConfig
	parseResponse(t, w, &config)
	if config.StartTile != "D" {
		t.Errorf("Expected start tile D, got %s", config.StartTile)
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/api/configs/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCreateConfig(t *testing.T) {
	yamlConfig := `name: tiny
description: Two straight roads
counts:
  D: 1
  U: 2
start_tile: D
messages:
  welcome: hi
  pile_empty: done
`

	tests := []struct {
		name           string
		path           string
		contentType    string
		body           string
		expectedStatus int
		expectedID     string
	}{
		{
			name:           "JSON body",
			path:           "/api/configs",
			contentType:    "application/json",
			body:           `{"name":"tiny","description":"Two straight roads","counts":{"D":1,"U":2},"start_tile":"D","messages":{"welcome":"hi","pile_empty":"done"}}`,
			expectedStatus: http.StatusCreated,
			expectedID:     "tiny",
		},
		{
			name:           "YAML body with explicit id",
			path:           "/api/configs?id=roads",
			contentType:    "application/x-yaml",
			body:           yamlConfig,
			expectedStatus: http.StatusCreated,
			expectedID:     "roads",
		},
		{
			name:           "Invalid configuration",
			path:           "/api/configs",
			contentType:    "application/json",
			body:           `{"name":"broken","description":"no start","counts":{"U":2},"start_tile":"D"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Malformed body",
			path:           "/api/configs",
			contentType:    "application/json",
			body:           `{"name":`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			savedID := ""
			mockService := &MockGameService{
				SaveConfigFunc: func(ctx context.Context, configName string, config *engine.GameConfig) error {
					savedID = configName
					if config.Counts["U"] != 2 {
						t.Errorf("Expected two U tiles, got %d", config.Counts["U"])
					}
					return nil
				},
			}
			server := setupTestServer(mockService)

			w := httptest.NewRecorder()
			req := httptest.NewRequest("POST", tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			server.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if savedID != tt.expectedID {
				t.Errorf("Expected config saved as %q, got %q", tt.expectedID, savedID)
			}
		})
	}
}

func TestHealth(t *testing.T) {
	server := setupTestServer(&MockGameService{})
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Missing session parameter",
			queryParams:    "",
			setupMock:      nil,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid session",
			queryParams: "?session=invalid",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("session not found")
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, httptest.NewRequest("GET", "/ws"+tt.queryParams, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestWebSocket_ReceivesPlacement(t *testing.T) {
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	server := httptest.NewServer(NewServer(&MockGameService{}, hub))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?session=sess-1"
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount("sess-1") == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	body, _ := json.Marshal(map[string]any{"index": 1})
	resp, err := http.Post(server.URL+"/api/sessions/sess-1/place", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("Place request failed: %v", err)
	}
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg websocket.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read update: %v", err)
	}
	if msg.Event != websocket.EventBoardUpdate {
		t.Errorf("Expected %s, got %s", websocket.EventBoardUpdate, msg.Event)
	}
	if msg.Board == nil || msg.Board.PileSize != 70 {
		t.Errorf("Expected the placed board, got %+v", msg.Board)
	}
}
