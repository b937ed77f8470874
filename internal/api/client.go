// internal/api/client.go
//
// HTTP client for the game backend contract.
// Responsibilities:
//   - GET  /game-image       → scene + character roster.
//   - POST /game-session     → opaque session token.
//   - POST /game-session/end → final elapsed time.
//   - POST /validate         → hit-test verdict (game.Validator).
//   - POST /high-scores      → score submission (game.ScoreSender).
//   - GET  /high-scores      → ranked list (game.HighScoreFetcher).
//
// The base URL is injected at construction; nothing in this package is
// process-wide state. Transport and decode failures surface as plain
// errors; the session engine decides how they are presented.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/waldo-game/go-server/internal/game"
)

const defaultTimeout = 10 * time.Second

// Client talks to one backend instance.
type Client struct {
	base string
	http *http.Client
}

// ClientOption configures a Client at construction.
type ClientOption func(*Client)

// WithHTTPClient swaps the underlying *http.Client (tests, custom
// transports).
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// New constructs a Client for the given base URL.
func New(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GameImage fetches the scene to play. Character bounds are never part of
// the payload; only ids and names.
func (c *Client) GameImage(ctx context.Context) (game.Scene, error) {
	var s game.Scene
	if err := c.doJSON(ctx, http.MethodGet, "/game-image", nil, &s); err != nil {
		return game.Scene{}, err
	}
	return s, nil
}

// SessionInfo is the backend's record of a newly opened game session.
type SessionInfo struct {
	Token     string    `json:"session_id"`
	ImageID   int       `json:"game_image_id"`
	StartTime time.Time `json:"start_time"`
}

type startSessionReq struct {
	GameImageID int `json:"game_image_id"`
}

// StartSession opens a backend game session for a scene and returns the
// opaque token the engine passes through on every validate call.
func (c *Client) StartSession(ctx context.Context, imageID int) (SessionInfo, error) {
	var out SessionInfo
	if err := c.doJSON(ctx, http.MethodPost, "/game-session", startSessionReq{GameImageID: imageID}, &out); err != nil {
		return SessionInfo{}, err
	}
	return out, nil
}

type endSessionReq struct {
	SessionID string `json:"session_id"`
}

type endSessionRes struct {
	TimeSeconds float64 `json:"time_seconds"`
	Message     string  `json:"message"`
}

// EndSession closes a backend session and returns the server-computed
// elapsed time.
func (c *Client) EndSession(ctx context.Context, token string) (float64, error) {
	var out endSessionRes
	if err := c.doJSON(ctx, http.MethodPost, "/game-session/end", endSessionReq{SessionID: token}, &out); err != nil {
		return 0, err
	}
	return out.TimeSeconds, nil
}

type validateReq struct {
	SessionID   string  `json:"session_id"`
	CharacterID int     `json:"character_id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// Validate implements game.Validator against POST /validate.
func (c *Client) Validate(ctx context.Context, sessionToken string, characterID int, x, y float64) (game.ValidationResult, error) {
	var out game.ValidationResult
	err := c.doJSON(ctx, http.MethodPost, "/validate", validateReq{
		SessionID:   sessionToken,
		CharacterID: characterID,
		X:           x,
		Y:           y,
	}, &out)
	if err != nil {
		return game.ValidationResult{}, err
	}
	return out, nil
}

type submitScoreReq struct {
	PlayerName string  `json:"player_name"`
	Time       float64 `json:"time"`
	ImageID    int     `json:"image_id"`
}

// SubmitScore implements game.ScoreSender against POST /high-scores.
func (c *Client) SubmitScore(ctx context.Context, playerName string, timeSeconds float64, imageID int) error {
	return c.doJSON(ctx, http.MethodPost, "/high-scores", submitScoreReq{
		PlayerName: playerName,
		Time:       timeSeconds,
		ImageID:    imageID,
	}, nil)
}

// highScoreRow tolerates both field names the contract allows for the
// elapsed time ("time_seconds" or "time").
type highScoreRow struct {
	ID          int       `json:"id"`
	PlayerName  string    `json:"player_name"`
	TimeSeconds *float64  `json:"time_seconds"`
	Time        *float64  `json:"time"`
	CreatedAt   time.Time `json:"created_at"`
}

// HighScores implements game.HighScoreFetcher against GET /high-scores.
// imageID scopes the list to one scene; zero fetches the default scope.
func (c *Client) HighScores(ctx context.Context, imageID int) ([]game.HighScoreEntry, error) {
	path := "/high-scores"
	if imageID > 0 {
		path += "?image_id=" + strconv.Itoa(imageID)
	}
	var rows []highScoreRow
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]game.HighScoreEntry, 0, len(rows))
	for _, r := range rows {
		secs := 0.0
		switch {
		case r.TimeSeconds != nil:
			secs = *r.TimeSeconds
		case r.Time != nil:
			secs = *r.Time
		}
		out = append(out, game.HighScoreEntry{
			ID:          r.ID,
			PlayerName:  r.PlayerName,
			TimeSeconds: secs,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out, nil
}

// doJSON runs one JSON round trip. Any non-2xx status is an error.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, res.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
