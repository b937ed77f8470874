// internal/httpserver/routes_scores.go
//
// High-score routes and the admin reseed endpoint.
//   - POST /high-scores    → append a score row.
//   - GET  /high-scores    → ranked list (ascending time), optionally
//                            scoped by ?image_id= and capped by ?limit=.
//   - POST /admin/reseed   → rebuild the default scene from the embedded
//                            seed data; gated by a bcrypt password hash.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/waldo-game/go-server/assets"
	"github.com/waldo-game/go-server/internal/store"
)

// mountScores registers /high-scores and /admin routes.
func (s *Server) mountScores() {
	s.r.Post("/high-scores", s.handleSubmitScore)
	s.r.Get("/high-scores", s.handleListScores)
	s.r.Post("/admin/reseed", s.handleReseed)
}

type submitScoreReq struct {
	PlayerName string  `json:"player_name"`
	Time       float64 `json:"time"`
	ImageID    int     `json:"image_id"`
}

type highScoreRes struct {
	ID          int       `json:"id"`
	PlayerName  string    `json:"player_name"`
	TimeSeconds float64   `json:"time_seconds"`
	CreatedAt   time.Time `json:"created_at"`
}

// handleSubmitScore appends a score row. The player name is trimmed and
// must be non-empty; the time must be positive. A session token in the
// Authorization header is optional; when presented it must verify, and
// its scene scopes the score if the body names none.
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var req submitScoreReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	var claims *sessionClaims
	if auth := r.Header.Get("Authorization"); auth != "" {
		token := strings.TrimPrefix(auth, "Bearer ")
		c, err := parseSessionToken(s.cfg.JWTSecret, token)
		if err != nil {
			http.Error(w, `{"error":"invalid_session"}`, http.StatusUnauthorized)
			return
		}
		claims = &c
	}
	name := strings.TrimSpace(req.PlayerName)
	if name == "" {
		http.Error(w, `{"error":"player_name_required"}`, http.StatusBadRequest)
		return
	}
	if len(name) > 50 {
		name = name[:50]
	}
	if req.Time <= 0 {
		http.Error(w, `{"error":"invalid_time"}`, http.StatusBadRequest)
		return
	}

	sceneID := req.ImageID
	if sceneID == 0 && claims != nil {
		sceneID = claims.SceneID
	}
	if sceneID == 0 {
		sc, err := s.db.DefaultScene(r.Context())
		if err != nil {
			http.Error(w, `{"error":"no_scene"}`, http.StatusNotFound)
			return
		}
		sceneID = sc.ID
	}

	hs, err := s.db.InsertHighScore(r.Context(), store.HighScore{
		SceneID:     sceneID,
		PlayerName:  name,
		TimeSeconds: req.Time,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Msg("insert high score")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(highScoreRes{
		ID:          hs.ID,
		PlayerName:  hs.PlayerName,
		TimeSeconds: hs.TimeSeconds,
		CreatedAt:   hs.CreatedAt,
	})
}

// handleListScores returns the ranked score list. Always an array, never
// null. An empty board is a valid state, not an error.
func (s *Server) handleListScores(w http.ResponseWriter, r *http.Request) {
	imageID, _ := strconv.Atoi(r.URL.Query().Get("image_id"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > s.cfg.HighScoreLimit {
		limit = s.cfg.HighScoreLimit
	}

	rows, err := s.db.HighScores(r.Context(), imageID, limit)
	if err != nil {
		log.Error().Err(err).Msg("list high scores")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	out := make([]highScoreRes, 0, len(rows))
	for _, hs := range rows {
		out = append(out, highScoreRes{
			ID:          hs.ID,
			PlayerName:  hs.PlayerName,
			TimeSeconds: hs.TimeSeconds,
			CreatedAt:   hs.CreatedAt,
		})
	}
	_ = json.NewEncoder(w).Encode(out)
}

// ------------------------------- ADMIN -------------------------------------

type reseedReq struct {
	Password string `json:"password"`
}

// handleReseed rebuilds the default scene from the embedded seed data.
// Disabled unless ADMIN_PASSWORD_HASH is configured.
func (s *Server) handleReseed(w http.ResponseWriter, r *http.Request) {
	if s.cfg.AdminPasswordHash == "" {
		http.Error(w, `{"error":"admin_disabled"}`, http.StatusForbidden)
		return
	}
	var req reseedReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(req.Password)) != nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	seed, err := assets.DefaultScene()
	if err != nil {
		log.Error().Err(err).Msg("load embedded seed")
		http.Error(w, `{"error":"seed_unavailable"}`, http.StatusInternalServerError)
		return
	}
	sc, err := s.db.SeedScene(r.Context(), seed, true)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, `{"error":"no_scene"}`, http.StatusNotFound)
			return
		}
		log.Error().Err(err).Msg("reseed scene")
		http.Error(w, `{"error":"reseed_failed"}`, http.StatusInternalServerError)
		return
	}
	log.Info().Int("sceneId", sc.ID).Str("name", sc.Name).Msg("scene reseeded")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":         sc.ID,
		"name":       sc.Name,
		"characters": len(sc.Characters),
	})
}
