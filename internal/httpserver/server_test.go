package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/waldo-game/go-server/internal/config"
	"github.com/waldo-game/go-server/internal/store"
)

func testConfig() config.Config {
	return config.Config{
		ClientOrigin:   "http://localhost:5173",
		JWTSecret:      "test_secret",
		HighScoreLimit: 20,
	}
}

func newTestServer(t *testing.T, cfg config.Config) (*Server, store.Store, store.Scene) {
	t.Helper()
	st := store.NewMemoryStore()
	sc, err := st.SeedScene(context.Background(), store.Scene{
		Name:     "test scene",
		ImageURL: "http://img",
		Width:    1920,
		Height:   1280,
		Characters: []store.Character{
			{Name: "Waldo", XMin: 0.15, YMin: 0.20, XMax: 0.20, YMax: 0.28},
			{Name: "Wizard", XMin: 0.45, YMin: 0.40, XMax: 0.52, YMax: 0.50},
		},
	}, false)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return New(st, cfg), st, sc
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func startSession(t *testing.T, srv *Server) string {
	t.Helper()
	w := doJSON(t, srv, http.MethodPost, "/game-session", map[string]any{})
	if w.Code != http.StatusOK {
		t.Fatalf("start session: %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		SessionID string `json:"session_id"`
	}
	_ = json.NewDecoder(w.Body).Decode(&res)
	if res.SessionID == "" {
		t.Fatal("empty session_id")
	}
	return res.SessionID
}

func TestGameImageHidesBounds(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())

	w := doJSON(t, srv, http.MethodGet, "/game-image", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		ID         int              `json:"id"`
		ImageURL   string           `json:"image_url"`
		Characters []map[string]any `json:"characters"`
	}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Characters) != 2 {
		t.Fatalf("characters = %+v", res.Characters)
	}
	for _, c := range res.Characters {
		for _, secret := range []string{"x_min", "y_min", "x_max", "y_max"} {
			if _, leaked := c[secret]; leaked {
				t.Fatalf("character payload leaks bounds: %v", c)
			}
		}
		if c["name"] == "" || c["id"] == nil {
			t.Fatalf("character payload incomplete: %v", c)
		}
	}
}

func TestValidateHitAndMiss(t *testing.T) {
	srv, _, sc := newTestServer(t, testConfig())
	token := startSession(t, srv)
	waldo := sc.Characters[0].ID

	// Inside Waldo's box.
	w := doJSON(t, srv, http.MethodPost, "/validate", map[string]any{
		"session_id": token, "character_id": waldo, "x": 0.17, "y": 0.24,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	}
	_ = json.NewDecoder(w.Body).Decode(&res)
	if !res.Valid || !strings.Contains(res.Message, "Waldo") {
		t.Fatalf("hit result = %+v", res)
	}

	// Far away from Waldo.
	w = doJSON(t, srv, http.MethodPost, "/validate", map[string]any{
		"session_id": token, "character_id": waldo, "x": 0.9, "y": 0.9,
	})
	_ = json.NewDecoder(w.Body).Decode(&res)
	if res.Valid {
		t.Fatalf("miss result = %+v", res)
	}
}

func TestValidateRejectsBadInput(t *testing.T) {
	srv, _, sc := newTestServer(t, testConfig())
	token := startSession(t, srv)
	waldo := sc.Characters[0].ID

	w := doJSON(t, srv, http.MethodPost, "/validate", map[string]any{
		"session_id": "not-a-token", "character_id": waldo, "x": 0.5, "y": 0.5,
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", w.Code)
	}

	w = doJSON(t, srv, http.MethodPost, "/validate", map[string]any{
		"session_id": token, "character_id": waldo, "x": 1.5, "y": 0.5,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("out-of-range status = %d", w.Code)
	}

	w = doJSON(t, srv, http.MethodPost, "/validate", map[string]any{
		"session_id": token, "character_id": 9999, "x": 0.5, "y": 0.5,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown character status = %d", w.Code)
	}
}

func TestEndSessionOnce(t *testing.T) {
	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	srv, _, _ := newTestServer(t, testConfig())
	srv.now = func() time.Time { return clock }

	token := startSession(t, srv)
	clock = clock.Add(45 * time.Second)

	w := doJSON(t, srv, http.MethodPost, "/game-session/end", map[string]any{"session_id": token})
	if w.Code != http.StatusOK {
		t.Fatalf("end status = %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		TimeSeconds float64 `json:"time_seconds"`
	}
	_ = json.NewDecoder(w.Body).Decode(&res)
	if res.TimeSeconds != 45 {
		t.Fatalf("time_seconds = %v, want 45", res.TimeSeconds)
	}

	w = doJSON(t, srv, http.MethodPost, "/game-session/end", map[string]any{"session_id": token})
	if w.Code != http.StatusConflict {
		t.Fatalf("second end status = %d, want 409", w.Code)
	}
}

func TestHighScoresRoundTrip(t *testing.T) {
	srv, _, sc := newTestServer(t, testConfig())

	// Empty board is an array, not null and not an error.
	w := doJSON(t, srv, http.MethodGet, "/high-scores", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Fatalf("empty board = %q, want []", got)
	}

	for _, s := range []struct {
		name string
		secs float64
	}{{"slow", 120.5}, {"  Ada  ", 45.67}} {
		w = doJSON(t, srv, http.MethodPost, "/high-scores", map[string]any{
			"player_name": s.name, "time": s.secs, "image_id": sc.ID,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("submit status = %d: %s", w.Code, w.Body.String())
		}
	}

	w = doJSON(t, srv, http.MethodGet, "/high-scores?image_id="+strconv.Itoa(sc.ID), nil)
	var rows []struct {
		PlayerName  string  `json:"player_name"`
		TimeSeconds float64 `json:"time_seconds"`
	}
	if err := json.NewDecoder(w.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].PlayerName != "Ada" || rows[0].TimeSeconds != 45.67 {
		t.Fatalf("rank 1 = %+v, want trimmed Ada at 45.67", rows[0])
	}
	if rows[1].PlayerName != "slow" {
		t.Fatalf("rank 2 = %+v", rows[1])
	}
}

func TestHighScoreRejectsEmptyName(t *testing.T) {
	srv, _, sc := newTestServer(t, testConfig())
	w := doJSON(t, srv, http.MethodPost, "/high-scores", map[string]any{
		"player_name": "   ", "time": 45.67, "image_id": sc.ID,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHighScoreSessionToken(t *testing.T) {
	srv, _, sc := newTestServer(t, testConfig())
	token := startSession(t, srv)

	// A valid token scopes the score when the body names no image.
	req := httptest.NewRequest(http.MethodPost, "/high-scores",
		strings.NewReader(`{"player_name":"Ada","time":45.67}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	rows := doJSON(t, srv, http.MethodGet, "/high-scores?image_id="+strconv.Itoa(sc.ID), nil)
	var listed []struct {
		PlayerName string `json:"player_name"`
	}
	if err := json.NewDecoder(rows.Body).Decode(&listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed) != 1 || listed[0].PlayerName != "Ada" {
		t.Fatalf("scoped rows = %+v, want the token's scene", listed)
	}

	// A garbage token is rejected outright.
	req = httptest.NewRequest(http.MethodPost, "/high-scores",
		strings.NewReader(`{"player_name":"Eve","time":1.0}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", w.Code)
	}
}

func TestAdminReseed(t *testing.T) {
	// Disabled without a configured hash.
	srv, _, _ := newTestServer(t, testConfig())
	w := doJSON(t, srv, http.MethodPost, "/admin/reseed", map[string]any{"password": "whatever"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("disabled status = %d, want 403", w.Code)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	cfg := testConfig()
	cfg.AdminPasswordHash = string(hash)
	srv, _, _ = newTestServer(t, cfg)

	w = doJSON(t, srv, http.MethodPost, "/admin/reseed", map[string]any{"password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d, want 401", w.Code)
	}

	w = doJSON(t, srv, http.MethodPost, "/admin/reseed", map[string]any{"password": "hunter2"})
	if w.Code != http.StatusOK {
		t.Fatalf("reseed status = %d: %s", w.Code, w.Body.String())
	}
	var res struct {
		Characters int `json:"characters"`
	}
	_ = json.NewDecoder(w.Body).Decode(&res)
	if res.Characters != 3 {
		t.Fatalf("reseeded characters = %d, want 3 from the embedded scene", res.Characters)
	}
}
