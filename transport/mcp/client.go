package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/carcassonne/game/engine"
	"github.com/wricardo/carcassonne/game/service"
	"github.com/wricardo/carcassonne/game/tile"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Carcassonne Tile Board",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Carcassonne Tile Board - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Place every tile of the pile on the board. Each tile must go next to a tile already on the board.

AVAILABLE TOOLS:
- board_state: Get the board, the next tile and the eligible cells
- place_tile: Place the next tile by index, or a chosen tile by row and column
- reset_game: Deal the game again with the same seed
- placement_history: View past placements
- create_session: Create new game session
- get_session: Get session details
- list_sessions: List all active sessions
- list_configs: List available rule configurations
- tile_catalog: Show every tile type with its edges
- game_instructions: Get comprehensive game instructions and rules

NOTE: The 'intent' parameter on place_tile serves as rubber duck debugging - explain your reasoning!`),
	)

	// Register all tools
	c.registerTools()
}

func sessionIDSchema() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection and seed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"config_name": map[string]any{
					"type":        "string",
					"description": "Name of the config to use (optional)",
				},
				"seed": map[string]any{
					"type":        "integer",
					"description": "Shuffle seed; equal seeds deal equal games (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": map[string]any{
					"type":        "string",
					"description": "Session ID to retrieve",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "board_state",
		Description: "Get the board as text with the next tile, the remaining pile and the eligible cell indices",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDSchema(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleBoardState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "place_tile",
		Description: "Place a tile. Give index to place the next tile of the pile at that cell, or row and col (optionally with tile) to place at a position.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDSchema(),
				"index": map[string]any{
					"type":        "integer",
					"description": "Linear cell index in the current board (row * width + col)",
				},
				"row": map[string]any{
					"type":        "integer",
					"description": "Row of the target cell (0-based, used with col)",
				},
				"col": map[string]any{
					"type":        "integer",
					"description": "Column of the target cell (0-based, used with row)",
				},
				"tile": map[string]any{
					"type":        "string",
					"description": "Tile letter A-X to take out of the pile instead of the next one (used with row and col)",
				},
				"rotation": map[string]any{
					"type":        "integer",
					"enum":        []int{0, 1, 2, 3},
					"description": "Clockwise quarter turns",
				},
				"intent": map[string]any{
					"type":        "string",
					"description": "Brief explanation of the intent behind this placement (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]any{
					"type":        "boolean",
					"description": "Reset before placing (index placements only)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handlePlaceTile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the game to its initial deal",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDSchema(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "placement_history",
		Description: "Get placement history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"session_id": sessionIDSchema(),
				"page": map[string]any{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]any{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest or newest first",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handlePlacementHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available rule configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "tile_catalog",
		Description: "Show every tile type with its edges, a 3x3 drawing and its count in the standard deck",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleTileCatalog)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]any {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return map[string]any{}
	}
	return args
}

// intArg reads a JSON number argument.
func intArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}

func sessionPath(sessionID string, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configName, _ := args["config_name"].(string)

	body := map[string]any{}
	if configName != "" {
		body["config_id"] = configName
	}
	if seed, ok := intArg(args, "seed"); ok {
		body["seed"] = seed
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\nSeed: %d\n", session.ID, session.ConfigName, session.Seed)
	if session.Board != nil {
		result += "\n" + formatBoard(session.Board)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		placed, pile := 0, 0
		if s.Board != nil {
			placed, pile = s.Board.Placements, s.Board.PileSize
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Placed: %d, Pile: %d, Created: %s)\n",
			s.ID, s.ConfigName, placed, pile, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleBoardState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var board service.BoardView
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/board"), nil, &board); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoard(&board)), nil
}

func (c *Client) handlePlaceTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	tileLetter, _ := args["tile"].(string)
	intent, _ := args["intent"].(string)
	reset, _ := args["reset"].(bool)

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = intent

	body := map[string]any{}
	if rotation, ok := intArg(args, "rotation"); ok {
		body["rotation"] = rotation
	}
	if index, ok := intArg(args, "index"); ok {
		body["index"] = index
		body["reset"] = reset
	} else {
		row, okRow := intArg(args, "row")
		col, okCol := intArg(args, "col")
		if !okRow || !okCol {
			return mcp.NewToolResultError("either index, or row and col, is required"), nil
		}
		body["row"] = row
		body["col"] = col
		if tileLetter != "" {
			body["tile"] = tileLetter
		}
	}

	var result service.PlaceResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/place"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPlaceResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var board service.BoardView
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/board"), nil, &board); err != nil {
		return mcp.NewToolResultText(response.Message), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatBoard(&board))), nil
}

func (c *Client) handlePlacementHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order, _ := args["order"].(string); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		edges := "off"
		if config.EnforceEdges {
			edges = "on"
		}
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Deck: %d tiles, Start: %s, Edge matching: %s\n\n",
			config.ConfigID, config.Name, config.Description, config.DeckSize, config.StartTile, edges)
	}

	return mcp.NewToolResultText(b.String()), nil
}

// catalogEntry mirrors the /api/tiles response.
type catalogEntry struct {
	Letter   string   `json:"letter"`
	Edges    []string `json:"edges"`
	Center   string   `json:"center"`
	Face     []string `json:"face"`
	Standard int      `json:"standard_count"`
}

func (c *Client) handleTileCatalog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var tiles []catalogEntry
	if err := c.apiCall(ctx, "GET", "/api/tiles", nil, &tiles); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatCatalog(tiles)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Carcassonne Tile Board - Complete Instructions

GAME OBJECTIVE:
Lay every tile of the shuffled pile onto the board. The game is over when the pile is empty.

SETUP:
• The start tile (D in the standard deck) lies face up at the center
• The board begins as a 3x3 grid: the start tile surrounded by a ring of free cells
• The remaining tiles are shuffled into the pile; equal seeds deal equal piles

BOARD LEGEND (board_state):
• A-X - A placed tile, by its catalog letter
• *   - Eligible cell: empty and touching a placed tile, a valid target
• .   - Empty cell that no tile touches yet

INDICES AND POSITIONS:
• Cells are numbered row by row: index = row * width + col
• Indices refer to the board as it is before your placement
• Placing on the outer ring grows the board by one row or column on that side,
  so indices and positions shift after such a placement. Read board_state again.

PLACEMENT RULES:
• The target must be an eligible cell (marked *)
• rotation turns the tile clockwise by quarter turns (0-3)
• With place_tile index, the next tile of the pile is drawn and placed
• With place_tile row/col and tile, that tile type is taken out of the pile instead
• Configurations with edge matching on also require every touching edge to agree:
  city meets city, road meets road (an intersection counts as road), grass meets grass

TILE FACES (tile_catalog):
• O - grass, R - road, X - intersection, C - city, # - city with pennant, + - cloister
• Each tile is drawn as 3x3 glyphs: corners, edges and center

STRATEGY FOR AI AGENTS:
1. Call board_state before every placement; the board grows and indices move
2. Pick an index from the eligible list rather than computing one
3. When edge matching is on, compare the next tile's edges from tile_catalog with its neighbors
4. Use placement_history to review what you placed and where

Good luck building your landscape!`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	result := fmt.Sprintf("Session: %s\nConfig: %s\nSeed: %d\nCreated: %s\n\n",
		session.ID, session.ConfigName, session.Seed,
		session.CreatedAt.Format("2006-01-02 15:04:05"))
	if session.Board == nil {
		return result + "No board available"
	}
	return result + formatBoard(session.Board)
}

func formatBoard(board *service.BoardView) string {
	if board == nil {
		return "No board available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Board: %dx%d | Placed: %d | Pile: %d", board.Width, board.Height, board.Placements, board.PileSize)
	if board.NextTile != "" {
		fmt.Fprintf(&b, " | Next tile: %s", board.NextTile)
	}
	b.WriteString("\n\n")

	if board.Rendered != "" {
		b.WriteString(board.Rendered)
		b.WriteString("\n\n")
	}

	if len(board.Eligible) > 0 {
		b.WriteString("Eligible cells (index = row*width+col):\n")
		for i, index := range board.Eligible {
			if i > 0 {
				b.WriteString(", ")
			}
			if board.Width > 0 {
				fmt.Fprintf(&b, "%d (%d,%d)", index, index/board.Width, index%board.Width)
			} else {
				fmt.Fprintf(&b, "%d", index)
			}
		}
		b.WriteString("\n")
	}

	if remaining := formatRemaining(board.Remaining); remaining != "" {
		b.WriteString("Remaining: " + remaining + "\n")
	}

	if board.GameOver {
		b.WriteString("\n🏁 PILE EMPTY - GAME OVER")
	}

	if board.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", board.Message)
	}

	return b.String()
}

// formatRemaining lists the tile types still in the pile, as "U×8 V×9".
func formatRemaining(remaining engine.Flat) string {
	var parts []string
	for i, n := range remaining {
		if n == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s×%d", tile.ID(i), n))
	}
	return strings.Join(parts, " ")
}

func formatPlaceResult(result *service.PlaceResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Placement successful")
		if p := result.Placement; p != nil {
			fmt.Fprintf(&b, ": %s rotated %d at (%d,%d)", p.TileName, p.Rotation, p.Row, p.Col)
		}
	} else {
		b.WriteString("✗ Placement failed")
		if result.Reason != "" {
			fmt.Fprintf(&b, ": %s", result.Reason)
		}
	}
	b.WriteString("\n")

	for _, event := range result.Events {
		if event.Type == service.EventPlaced {
			continue
		}
		fmt.Fprintf(&b, "• %s\n", event.Message)
	}
	b.WriteString("\n")

	b.WriteString(formatBoard(result.Board))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Placement History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalPlacements)

	if len(history.Placements) == 0 {
		b.WriteString("(no placements yet)\n")
		return b.String()
	}

	for _, p := range history.Placements {
		source := "drawn"
		if !p.FromPile {
			source = "chosen"
		}
		fmt.Fprintf(&b, "%d. %s rot %d at (%d,%d) [%s]", p.Number, p.TileName, p.Rotation, p.Row, p.Col, source)
		if p.Growth.Rows() > 0 || p.Growth.Cols() > 0 {
			fmt.Fprintf(&b, " grew +%d rows +%d cols", p.Growth.Rows(), p.Growth.Cols())
		}
		b.WriteString("\n")
	}

	return b.String()
}

func formatCatalog(tiles []catalogEntry) string {
	var b strings.Builder
	b.WriteString("Tile Catalog (edges: left, top, right, bottom):\n\n")
	for _, t := range tiles {
		fmt.Fprintf(&b, "%s ×%d  edges: %s  center: %s\n", t.Letter, t.Standard, strings.Join(t.Edges, ", "), t.Center)
		for _, row := range t.Face {
			b.WriteString("   " + row + "\n")
		}
	}
	return b.String()
}
