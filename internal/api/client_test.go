package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/waldo-game/go-server/internal/game"
)

func newTestBackend(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestGameImage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /game-image", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"id": 1, "name": "scene", "image_url": "http://img", "width": 1920, "height": 1280,
			"characters": [{"id": 1, "name": "Waldo"}, {"id": 2, "name": "Wizard"}]
		}`))
	})
	c := newTestBackend(t, mux)

	sc, err := c.GameImage(context.Background())
	if err != nil {
		t.Fatalf("GameImage: %v", err)
	}
	if sc.ID != 1 || sc.Width != 1920 || len(sc.Characters) != 2 {
		t.Fatalf("scene = %+v", sc)
	}
	if sc.Characters[0].Name != "Waldo" {
		t.Fatalf("characters = %+v", sc.Characters)
	}
}

func TestValidateSendsNormalizedCoordinates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /validate", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["session_id"] != "tok" || req["character_id"] != float64(3) {
			t.Errorf("request = %v", req)
		}
		if req["x"] != 0.25 || req["y"] != 0.75 {
			t.Errorf("coordinates = (%v, %v)", req["x"], req["y"])
		}
		_, _ = w.Write([]byte(`{"valid": true, "message": "You found Odlaw!"}`))
	})
	c := newTestBackend(t, mux)

	res, err := c.Validate(context.Background(), "tok", 3, 0.25, 0.75)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.Valid || res.Message != "You found Odlaw!" {
		t.Fatalf("result = %+v", res)
	}
}

func TestValidateErrorOnBadStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /validate", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_session"}`, http.StatusUnauthorized)
	})
	c := newTestBackend(t, mux)

	if _, err := c.Validate(context.Background(), "bad", 1, 0.5, 0.5); err == nil {
		t.Fatal("expected an error for a 401 response")
	}
}

func TestHighScoresAcceptsBothTimeFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /high-scores", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("image_id"); got != "7" {
			t.Errorf("image_id = %q, want 7", got)
		}
		_, _ = w.Write([]byte(`[
			{"id": 1, "player_name": "Ada", "time_seconds": 45.67, "created_at": "2024-06-01T12:00:00Z"},
			{"id": 2, "player_name": "Bob", "time": 125.45, "created_at": "2024-06-01T12:05:00Z"}
		]`))
	})
	c := newTestBackend(t, mux)

	scores, err := c.HighScores(context.Background(), 7)
	if err != nil {
		t.Fatalf("HighScores: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("scores = %+v", scores)
	}
	if scores[0].TimeSeconds != 45.67 || scores[1].TimeSeconds != 125.45 {
		t.Fatalf("times = %v, %v", scores[0].TimeSeconds, scores[1].TimeSeconds)
	}
}

func TestSubmitScore(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /high-scores", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["player_name"] != "Ada" || req["time"] != 45.67 || req["image_id"] != float64(1) {
			t.Errorf("request = %v", req)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 1}`))
	})
	c := newTestBackend(t, mux)

	if err := c.SubmitScore(context.Background(), "Ada", 45.67, 1); err != nil {
		t.Fatalf("SubmitScore: %v", err)
	}
}

func TestStartAndEndSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /game-session", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"session_id": "tok", "game_image_id": 1, "start_time": "2024-06-01T12:00:00Z"}`))
	})
	mux.HandleFunc("POST /game-session/end", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["session_id"] != "tok" {
			t.Errorf("request = %v", req)
		}
		_, _ = w.Write([]byte(`{"time_seconds": 45.67, "message": "Session complete"}`))
	})
	c := newTestBackend(t, mux)

	info, err := c.StartSession(context.Background(), 1)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if info.Token != "tok" || info.ImageID != 1 {
		t.Fatalf("session info = %+v", info)
	}

	secs, err := c.EndSession(context.Background(), info.Token)
	if err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if secs != 45.67 {
		t.Fatalf("elapsed = %v, want 45.67", secs)
	}
}

// Client implements the engine's network interfaces.
var (
	_ game.Backend          = (*Client)(nil)
	_ game.HighScoreFetcher = (*Client)(nil)
)
