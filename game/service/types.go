package service

import (
	"time"

	"github.com/wricardo/carcassonne/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	Seed           int64              `json:"seed"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	Board          *BoardView         `json:"board"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// BoardView is the flat board a renderer or a remote client consumes:
// row-major tile ids and rotations plus the remaining count per tile type.
type BoardView struct {
	SessionID     string      `json:"session_id,omitempty"`
	Width         int         `json:"width"`
	Height        int         `json:"height"`
	TileIDs       engine.Flat `json:"tile_ids"`
	TileRotations engine.Flat `json:"tile_rotations"`
	Remaining     engine.Flat `json:"remaining"`
	PileSize      int         `json:"pile_size"`
	NextTile      string      `json:"next_tile,omitempty"`
	Eligible      []int       `json:"eligible"`
	Placements    int         `json:"placements"`
	GameOver      bool        `json:"game_over"`
	Message       string      `json:"message"`
	Rendered      string      `json:"rendered"`
}

// PlaceResult contains the result of a placement
type PlaceResult struct {
	Success   bool                    `json:"success"`
	Message   string                  `json:"message"`
	Reason    string                  `json:"reason,omitempty"` // why a placement was rejected
	Board     *BoardView              `json:"board"`
	Placement *engine.PlacementRecord `json:"placement,omitempty"`
	Events    []GameEvent             `json:"events,omitempty"`
}

// Event types
const (
	EventPlaced    = "placed"
	EventGrewRows  = "grew_rows"
	EventGrewCols  = "grew_cols"
	EventPileEmpty = "pile_empty"
	EventReset     = "reset"
)

// GameEvent represents an event that occurred during play
type GameEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Index     int       `json:"index,omitempty"`
}

// HistoryOptions configures placement history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated placement history
type HistoryResponse struct {
	Placements      []engine.PlacementRecord `json:"placements"`
	TotalPlacements int                      `json:"total_placements"`
	Page            int                      `json:"page"`
	PageSize        int                      `json:"page_size"`
	TotalPages      int                      `json:"total_pages"`
	HasNext         bool                     `json:"has_next"`
	HasPrevious     bool                     `json:"has_previous"`
}

// ConfigInfo provides information about a rule configuration
type ConfigInfo struct {
	Filename     string `json:"filename"`
	ConfigID     string `json:"config_id"` // The identifier to use for session creation
	Name         string `json:"name"`      // Display name
	Description  string `json:"description"`
	DeckSize     int    `json:"deck_size"`
	StartTile    string `json:"start_tile"`
	EnforceEdges bool   `json:"enforce_edges"`
}

// NewConfigInfo summarizes a configuration stored under filename.
func NewConfigInfo(configID, filename string, config *engine.GameConfig) *ConfigInfo {
	size := 0
	for _, n := range config.DeckCounts() {
		size += n
	}
	return &ConfigInfo{
		Filename:     filename,
		ConfigID:     configID,
		Name:         config.Name,
		Description:  config.Description,
		DeckSize:     size,
		StartTile:    config.StartTile,
		EnforceEdges: config.EnforceEdges,
	}
}

// NewBoardView flattens the board of a running game.
func NewBoardView(sessionID string, eng engine.Engine) *BoardView {
	view := &BoardView{
		SessionID:     sessionID,
		Width:         eng.Width(),
		Height:        eng.Height(),
		TileIDs:       eng.TileIDs(),
		TileRotations: eng.TileRotations(),
		Remaining:     eng.RemainingCounts(),
		PileSize:      eng.PileSize(),
		Eligible:      eng.EligibleIndices(),
		Placements:    len(eng.GetPlacementHistory()),
		GameOver:      eng.IsGameOver(),
		Message:       eng.Message(),
		Rendered:      eng.Render(),
	}
	if next, ok := eng.PeekNextTile(); ok {
		view.NextTile = next.String()
	}
	return view
}
