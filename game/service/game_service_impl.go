package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wricardo/carcassonne/game/engine"
	"github.com/wricardo/carcassonne/game/tile"
)

// ErrConfigNotFound is returned by a ConfigManager for an unknown configuration.
var ErrConfigNotFound = errors.New("configuration not found")

// gameServiceImpl implements the GameService interface. A single lock
// serializes calls, so each engine only ever sees one caller at a time.
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
	now      func() time.Time
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		now:      time.Now,
	}
}

// CreateSession deals a new game. A nil seed picks one from the clock.
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string, seed *int64) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	configID := configName
	if configName != "" {
		var err error
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				return nil, s.configNotFound(configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.configs.DefaultID()
	}

	dealSeed := s.now().UnixNano()
	if seed != nil {
		dealSeed = *seed
	}

	sess, err := s.sessions.Create("", configID, config, dealSeed)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return s.sessionInfo(sess), nil
}

func (s *gameServiceImpl) configNotFound(configName string) error {
	available, err := s.configs.ListConfigs()
	if err == nil && len(available) > 0 {
		ids := make([]string, 0, len(available))
		for _, cfg := range available {
			ids = append(ids, cfg.ConfigID)
		}
		return fmt.Errorf("config '%s' not found. Available configs: %v: %w", configName, ids, ErrConfigNotFound)
	}
	return fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations: %w", configName, ErrConfigNotFound)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Place draws the next tile of a session and places it at a linear index.
// A rejected placement is not an error: the result reports it.
func (s *gameServiceImpl) Place(ctx context.Context, sessionID string, index int, rotation tile.Rotation, reset bool) (*PlaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	var events []GameEvent
	if reset {
		sess.Engine.Reset()
		events = append(events, GameEvent{
			Type:      EventReset,
			Message:   "Game reset to the initial deal",
			Timestamp: s.now(),
		})
	}

	record, placeErr := sess.Engine.Place(index, rotation)
	result := s.placeResult(sess, record, placeErr, events)
	s.persist(sessionID, "placement")
	return result, nil
}

// PlaceAt places a tile at an extent-relative position. With a nil id the
// next tile of the pile is drawn; otherwise one tile of that type is taken
// out of the pile regardless of draw order.
func (s *gameServiceImpl) PlaceAt(ctx context.Context, sessionID string, id *tile.ID, row, col int, rotation tile.Rotation) (*PlaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	var record *engine.PlacementRecord
	var placeErr error
	if id == nil {
		index := -1
		if col >= 0 && col < sess.Engine.Width() {
			index = row*sess.Engine.Width() + col
		}
		record, placeErr = sess.Engine.Place(index, rotation)
	} else {
		record, placeErr = sess.Engine.PlaceAt(*id, row, col, rotation)
	}
	result := s.placeResult(sess, record, placeErr, nil)
	s.persist(sessionID, "placement")
	return result, nil
}

func (s *gameServiceImpl) placeResult(sess *Session, record *engine.PlacementRecord, placeErr error, events []GameEvent) *PlaceResult {
	result := &PlaceResult{
		Success:   placeErr == nil,
		Message:   sess.Engine.Message(),
		Board:     NewBoardView(sess.ID, sess.Engine),
		Placement: record,
		Events:    events,
	}
	if placeErr != nil {
		result.Reason = placeErr.Error()
		return result
	}
	result.Events = append(result.Events, s.placementEvents(record, sess.Engine)...)
	return result
}

// placementEvents describes what a successful placement did to the board.
func (s *gameServiceImpl) placementEvents(record *engine.PlacementRecord, eng engine.Engine) []GameEvent {
	now := s.now()
	events := []GameEvent{{
		Type:      EventPlaced,
		Message:   fmt.Sprintf("Placed %s (rotation %d) at (%d,%d)", record.TileName, record.Rotation, record.Row, record.Col),
		Timestamp: now,
		Index:     record.Row*eng.Width() + record.Col,
	}}
	if record.Growth.Rows() > 0 {
		events = append(events, GameEvent{
			Type:      EventGrewRows,
			Message:   fmt.Sprintf("Board grew to %d rows", eng.Height()),
			Timestamp: now,
		})
	}
	if record.Growth.Cols() > 0 {
		events = append(events, GameEvent{
			Type:      EventGrewCols,
			Message:   fmt.Sprintf("Board grew to %d columns", eng.Width()),
			Timestamp: now,
		})
	}
	if eng.IsGameOver() {
		events = append(events, GameEvent{
			Type:      EventPileEmpty,
			Message:   "No tiles left to draw",
			Timestamp: now,
		})
	}
	return events
}

// Reset deals a session again from its seed
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	state := sess.Engine.Reset()
	s.persist(sessionID, "reset")
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState(), nil
}

// GetBoard returns the flat board of a session
func (s *gameServiceImpl) GetBoard(ctx context.Context, sessionID string) (*BoardView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return NewBoardView(sess.ID, sess.Engine), nil
}

// GetPlacementHistory returns paginated placement history
func (s *gameServiceImpl) GetPlacementHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetPlacementHistory()
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
	end := start + opts.Limit
	if end > total {
		end = total
	}

	placements := []engine.PlacementRecord{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				placements = append(placements, history[i])
			}
		} else {
			placements = append(placements, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Placements:      placements,
		TotalPlacements: total,
		Page:            opts.Page,
		PageSize:        opts.Limit,
		TotalPages:      totalPages,
		HasNext:         opts.Page < totalPages,
		HasPrevious:     opts.Page > 1,
	}, nil
}

// ListConfigs returns available rule configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific rule configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a rule configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		Seed:           sess.Engine.GetSeed(),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Board:          NewBoardView(sess.ID, sess.Engine),
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}

// persist saves a session after a change. Failures are logged, not returned.
func (s *gameServiceImpl) persist(sessionID, after string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: failed to persist session %s after %s: %v", sessionID, after, err)
	}
}
