// internal/httpserver/server.go
//
// HTTP server wiring for the find-the-character backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Game endpoints: GET /game-image, POST /game-session,
//     POST /game-session/end, POST /validate.
//   - High scores + admin reseed: mounted in routes_scores.go.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled for the game client.
//   - GET /game-image serves character ids and names only; the bounding
//     boxes stay server-side; that is the whole game.
//   - session_id is a signed token (token.go); handlers verify it before
//     touching session rows.

package httpserver

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/waldo-game/go-server/internal/config"
	"github.com/waldo-game/go-server/internal/store"
)

// Server bundles router, store and configuration.
type Server struct {
	r   *chi.Mux
	db  store.Store
	cfg config.Config
	now func() time.Time
}

// ServerOption configures a Server at construction.
type ServerOption func(*Server)

// WithClock injects the time source (tests).
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) { s.now = now }
}

// New constructs a Server, installs middleware, and registers routes.
func New(db store.Store, cfg config.Config, opts ...ServerOption) *Server {
	s := &Server{r: chi.NewRouter(), db: db, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(corsForOrigin(cfg.ClientOrigin))

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"waldo-go","endpoints":["/health","GET /game-image","POST /game-session","POST /validate","/high-scores"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// --- game ---
	s.r.Get("/game-image", s.handleGameImage)
	s.r.Post("/game-session", s.handleStartSession)
	s.r.Post("/game-session/end", s.handleEndSession)
	s.r.Post("/validate", s.handleValidate)

	// --- scores + admin ---
	s.mountScores()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests and for main's
// graceful-shutdown wrapper).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsForOrigin enables credentialed CORS for the configured client origin.
func corsForOrigin(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ---------------------------- GAME IMAGE -----------------------------------

// characterRes deliberately excludes the bounding box.
type characterRes struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type gameImageRes struct {
	ID         int            `json:"id"`
	Name       string         `json:"name"`
	ImageURL   string         `json:"image_url"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Characters []characterRes `json:"characters"`
}

// handleGameImage serves the default scene with its character roster.
func (s *Server) handleGameImage(w http.ResponseWriter, r *http.Request) {
	sc, err := s.db.DefaultScene(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"no_scene"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("load scene")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	res := gameImageRes{
		ID:         sc.ID,
		Name:       sc.Name,
		ImageURL:   sc.ImageURL,
		Width:      sc.Width,
		Height:     sc.Height,
		Characters: make([]characterRes, 0, len(sc.Characters)),
	}
	for _, c := range sc.Characters {
		res.Characters = append(res.Characters, characterRes{ID: c.ID, Name: c.Name})
	}
	_ = json.NewEncoder(w).Encode(res)
}

// ----------------------------- SESSIONS ------------------------------------

type startSessionReq struct {
	GameImageID int `json:"game_image_id"`
}

type startSessionRes struct {
	SessionID   string    `json:"session_id"`
	GameImageID int       `json:"game_image_id"`
	StartTime   time.Time `json:"start_time"`
}

// handleStartSession creates a session row and returns its signed token.
// A zero game_image_id falls back to the default scene.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionReq
	_ = json.NewDecoder(r.Body).Decode(&req)

	var sc store.Scene
	var err error
	if req.GameImageID == 0 {
		sc, err = s.db.DefaultScene(r.Context())
	} else {
		sc, err = s.db.SceneByID(r.Context(), req.GameImageID)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"scene_not_found"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("load scene for session")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}

	now := s.now().UTC()
	id := genID()
	if err := s.db.CreateSession(r.Context(), store.GameSession{ID: id, SceneID: sc.ID, StartedAt: now}); err != nil {
		log.Error().Err(err).Msg("create session")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	token, err := signSessionToken(s.cfg.JWTSecret, id, sc.ID, now)
	if err != nil {
		log.Error().Err(err).Msg("sign session token")
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(startSessionRes{SessionID: token, GameImageID: sc.ID, StartTime: now})
}

type endSessionReq struct {
	SessionID string `json:"session_id"`
}

type endSessionRes struct {
	TimeSeconds float64 `json:"time_seconds"`
	Message     string  `json:"message"`
}

// handleEndSession closes a session once and reports the elapsed time.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	var req endSessionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	claims, err := parseSessionToken(s.cfg.JWTSecret, req.SessionID)
	if err != nil {
		http.Error(w, `{"error":"invalid_session"}`, http.StatusUnauthorized)
		return
	}
	elapsed, err := s.db.EndSession(r.Context(), claims.SessionID, s.now().UTC())
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, `{"error":"session_not_found"}`, http.StatusNotFound)
		return
	case errors.Is(err, store.ErrSessionEnded):
		http.Error(w, `{"error":"session_already_ended"}`, http.StatusConflict)
		return
	case err != nil:
		log.Error().Err(err).Msg("end session")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(endSessionRes{TimeSeconds: elapsed, Message: "Session complete"})
}

// ----------------------------- VALIDATE ------------------------------------

type validateReq struct {
	SessionID   string  `json:"session_id"`
	CharacterID int     `json:"character_id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

type validateRes struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// handleValidate runs the hit test: does the normalized click fall inside
// the chosen character's hidden bounding box.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if req.X < 0 || req.X > 1 || req.Y < 0 || req.Y > 1 {
		http.Error(w, `{"error":"coordinates_out_of_range"}`, http.StatusBadRequest)
		return
	}
	claims, err := parseSessionToken(s.cfg.JWTSecret, req.SessionID)
	if err != nil {
		http.Error(w, `{"error":"invalid_session"}`, http.StatusUnauthorized)
		return
	}
	if _, err := s.db.Session(r.Context(), claims.SessionID); err != nil {
		http.Error(w, `{"error":"session_not_found"}`, http.StatusUnauthorized)
		return
	}
	c, err := s.db.Character(r.Context(), claims.SceneID, req.CharacterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"character_not_found"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("load character")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	if c.Contains(req.X, req.Y) {
		_ = json.NewEncoder(w).Encode(validateRes{Valid: true, Message: fmt.Sprintf("You found %s!", c.Name)})
		return
	}
	_ = json.NewEncoder(w).Encode(validateRes{Valid: false, Message: "Nope, keep looking!"})
}

// ------------------------------- small util --------------------------------

// genID creates a 22-char URL-safe, crypto-random identifier (no padding).
func genID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	s := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b[:])
	if len(s) > 22 {
		return s[:22]
	}
	return s
}
