package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/carcassonne/game/board"
	"github.com/wricardo/carcassonne/game/engine"
	"github.com/wricardo/carcassonne/game/service"
	"github.com/wricardo/carcassonne/game/tile"
)

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("Expected result, got nil")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func testBoard() *service.BoardView {
	return &service.BoardView{
		SessionID:  "sess-1",
		Width:      3,
		Height:     3,
		Remaining:  engine.Flat{0, 0, 0, 3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 8, 9},
		PileSize:   20,
		NextTile:   "V",
		Eligible:   []int{1, 3, 5, 7},
		Placements: 0,
		Message:    "Welcome!",
		Rendered:   ".*.\n*D*\n.*.",
	}
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080"
	client := NewClient(baseURL + "/")

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != baseURL {
		t.Errorf("Expected baseURL %s, got %s", baseURL, client.baseURL)
	}

	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}

	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "test-session"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]any
	if err := client.apiCall(context.Background(), "GET", "/api/sessions/test-session", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}

	if response["id"] != "test-session" {
		t.Errorf("Expected id test-session, got %v", response["id"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall(context.Background(), "GET", "/api", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"plain body", "Internal Server Error", "API error: 500"},
		{"json error", `{"error":"session not found: x"}`, "session not found: x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			err := client.apiCall(context.Background(), "GET", "/api", nil, nil)
			if err == nil {
				t.Fatal("Expected error for HTTP 500 response")
			}
			if !strings.Contains(err.Error(), tt.expected) {
				t.Errorf("Expected %q in error message, got: %v", tt.expected, err)
			}
		})
	}
}

func TestClient_createSession(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotBody)

		resp := service.SessionInfo{
			ID:         "test-session-123",
			ConfigName: "small",
			Seed:       7,
			Board:      testBoard(),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateSession(context.Background(), callTool("create_session", map[string]any{
		"config_name": "small",
		"seed":        float64(7),
	}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	text := resultText(t, result)
	for _, want := range []string{"test-session-123", "Config: small", "Seed: 7", "*D*"} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in result, got: %s", want, text)
		}
	}

	if gotBody["config_id"] != "small" {
		t.Errorf("Expected config_id small, got %v", gotBody["config_id"])
	}
	if gotBody["seed"] != float64(7) {
		t.Errorf("Expected seed 7, got %v", gotBody["seed"])
	}
}

func TestClient_placeTile(t *testing.T) {
	tests := []struct {
		name         string
		args         map[string]any
		expectedBody map[string]any
		expectError  bool
	}{
		{
			name:         "By index",
			args:         map[string]any{"session_id": "sess-1", "index": float64(5), "rotation": float64(1), "intent": "extend the road"},
			expectedBody: map[string]any{"index": float64(5), "rotation": float64(1), "reset": false},
		},
		{
			name:         "By position with tile",
			args:         map[string]any{"session_id": "sess-1", "row": float64(0), "col": float64(1), "tile": "U"},
			expectedBody: map[string]any{"row": float64(0), "col": float64(1), "tile": "U"},
		},
		{
			name:        "Missing target",
			args:        map[string]any{"session_id": "sess-1", "row": float64(0)},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotBody map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/sessions/sess-1/place" {
					t.Errorf("Unexpected path %s", r.URL.Path)
				}
				json.NewDecoder(r.Body).Decode(&gotBody)
				json.NewEncoder(w).Encode(service.PlaceResult{
					Success:   true,
					Board:     testBoard(),
					Placement: &engine.PlacementRecord{TileName: "V", Rotation: 1, Row: 1, Col: 2},
					Events: []service.GameEvent{
						{Type: service.EventPlaced, Message: "placed"},
						{Type: service.EventGrewCols, Message: "Board grew by 1 column"},
					},
				})
			}))
			defer server.Close()

			client := NewClient(server.URL)
			result, err := client.handlePlaceTile(context.Background(), callTool("place_tile", tt.args))
			if err != nil {
				t.Fatalf("handlePlaceTile failed: %v", err)
			}

			if tt.expectError {
				if !result.IsError {
					t.Error("Expected an error result")
				}
				if gotBody != nil {
					t.Error("Expected no API call")
				}
				return
			}

			if len(gotBody) != len(tt.expectedBody) {
				t.Errorf("Expected body %v, got %v", tt.expectedBody, gotBody)
			}
			for k, v := range tt.expectedBody {
				if gotBody[k] != v {
					t.Errorf("Body %s: expected %v, got %v", k, v, gotBody[k])
				}
			}

			text := resultText(t, result)
			if !strings.Contains(text, "✓ Placement successful: V rotated 1 at (1,2)") {
				t.Errorf("Expected placement summary, got: %s", text)
			}
			if !strings.Contains(text, "Board grew by 1 column") {
				t.Errorf("Expected growth event, got: %s", text)
			}
		})
	}
}

func TestFormatBoard(t *testing.T) {
	result := formatBoard(testBoard())

	expectedFields := []string{
		"Board: 3x3 | Placed: 0 | Pile: 20 | Next tile: V",
		".*.\n*D*\n.*.",
		"1 (0,1), 3 (1,0), 5 (1,2), 7 (2,1)",
		"Remaining: D×3 U×8 V×9",
		"Message: Welcome!",
	}

	for _, field := range expectedFields {
		if !strings.Contains(result, field) {
			t.Errorf("Expected field '%s' in formatted output, got: %s", field, result)
		}
	}

	if strings.Contains(result, "GAME OVER") {
		t.Error("Did not expect game over")
	}
}

func TestFormatBoard_GameOver(t *testing.T) {
	view := testBoard()
	view.PileSize = 0
	view.NextTile = ""
	view.Eligible = nil
	view.GameOver = true

	result := formatBoard(view)

	if !strings.Contains(result, "🏁 PILE EMPTY - GAME OVER") {
		t.Errorf("Expected game over in result, got: %s", result)
	}
	if strings.Contains(result, "Next tile") {
		t.Errorf("Did not expect a next tile, got: %s", result)
	}
}

func TestFormatPlaceResult_Failed(t *testing.T) {
	result := formatPlaceResult(&service.PlaceResult{
		Success: false,
		Reason:  "cell is occupied",
		Board:   testBoard(),
	})

	if !strings.Contains(result, "✗ Placement failed: cell is occupied") {
		t.Errorf("Expected failure line in result, got: %s", result)
	}
}

func TestFormatHistory(t *testing.T) {
	history := &service.HistoryResponse{
		Placements: []engine.PlacementRecord{
			{Number: 2, TileName: "U", Rotation: 1, Row: 0, Col: 1, FromPile: false, Growth: board.Growth{Top: true}},
			{Number: 1, Tile: tile.V, TileName: "V", Row: 1, Col: 2, FromPile: true},
		},
		TotalPlacements: 2,
		Page:            1,
		PageSize:        20,
		TotalPages:      1,
	}

	result := formatHistory(history)

	expected := []string{
		"Placement History (Page 1/1) - Total: 2",
		"2. U rot 1 at (0,1) [chosen] grew +1 rows +0 cols",
		"1. V rot 0 at (1,2) [drawn]\n",
	}
	for _, want := range expected {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in history, got: %s", want, result)
		}
	}

	if empty := formatHistory(&service.HistoryResponse{Page: 1, TotalPages: 1}); !strings.Contains(empty, "no placements yet") {
		t.Errorf("Expected empty history marker, got: %s", empty)
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), callTool("game_instructions", map[string]any{}))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	expectedContent := []string{
		"GAME OBJECTIVE:",
		"BOARD LEGEND",
		"INDICES AND POSITIONS:",
		"PLACEMENT RULES:",
		"TILE FACES",
	}

	for _, content := range expectedContent {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions", content)
		}
	}
}

func TestClient_handleTileCatalog(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tiles" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"letter":         "D",
				"edges":          []string{"road", "city", "grass", "road"},
				"center":         "road",
				"face":           []string{"OCO", "RRO", "ORO"},
				"standard_count": 4,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleTileCatalog(context.Background(), callTool("tile_catalog", nil))
	if err != nil {
		t.Fatalf("handleTileCatalog failed: %v", err)
	}

	text := resultText(t, result)
	if !strings.Contains(text, "D ×4  edges: road, city, grass, road  center: road") {
		t.Errorf("Expected D entry, got: %s", text)
	}
	if !strings.Contains(text, "   RRO\n") {
		t.Errorf("Expected D face, got: %s", text)
	}
}
