package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wricardo/carcassonne/game/service"
	"github.com/wricardo/carcassonne/game/tile"
)

// Client drives one session through the REST API.
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client plays.
func (c *Client) SessionID() string { return c.sessionID }

func (c *Client) CreateSession(ctx context.Context, configName string, seed *int64) (*service.SessionInfo, error) {
	body := map[string]any{}
	if configName != "" {
		body["config_id"] = configName
	}
	if seed != nil {
		body["seed"] = *seed
	}

	var session service.SessionInfo
	if err := c.do(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	c.sessionID = session.ID
	return &session, nil
}

// Resume attaches the client to an existing session.
func (c *Client) Resume(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	var session service.SessionInfo
	if err := c.do(ctx, "GET", "/api/sessions/"+url.PathEscape(sessionID), nil, &session); err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}

	c.sessionID = session.ID
	return &session, nil
}

func (c *Client) Board(ctx context.Context) (*service.BoardView, error) {
	var board service.BoardView
	if err := c.do(ctx, "GET", c.sessionPath("/board"), nil, &board); err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	return &board, nil
}

// Place puts the next tile at index. A rejected placement is not an error.
func (c *Client) Place(ctx context.Context, index int, rotation tile.Rotation) (*service.PlaceResult, error) {
	body := map[string]any{"index": index, "rotation": int(rotation)}

	var result service.PlaceResult
	if err := c.do(ctx, "POST", c.sessionPath("/place"), body, &result); err != nil {
		return nil, fmt.Errorf("place: %w", err)
	}
	return &result, nil
}

func (c *Client) Reset(ctx context.Context) error {
	if err := c.do(ctx, "POST", c.sessionPath("/reset"), nil, nil); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s - %s", resp.Status, bytes.TrimSpace(data))
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
