// internal/store/store.go
//
// Persistence interface for the game backend.
// Implementations may be backed by memory (tests) or SQLite (production).
// Row types here carry the hidden character bounds; the HTTP layer is
// responsible for never serving bounds to players.

package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned for missing scenes, characters and sessions.
	ErrNotFound = errors.New("not found")

	// ErrSessionEnded is returned when ending a session twice.
	ErrSessionEnded = errors.New("session already ended")
)

// Character is a hidden figure with its normalized bounding box.
// Bounds are fractions of the image dimensions, top-left origin.
type Character struct {
	ID   int
	Name string
	XMin float64
	YMin float64
	XMax float64
	YMax float64
}

// Contains is the hit test: inclusive containment of a normalized point.
func (c Character) Contains(x, y float64) bool {
	return x >= c.XMin && x <= c.XMax && y >= c.YMin && y <= c.YMax
}

// Scene is a game image plus its character roster.
type Scene struct {
	ID         int
	Name       string
	ImageURL   string
	Width      int
	Height     int
	Characters []Character
}

// GameSession is one tracked play-through.
type GameSession struct {
	ID        string
	SceneID   int
	StartedAt time.Time
	EndedAt   *time.Time
	Completed bool
}

// HighScore is one leaderboard row.
type HighScore struct {
	ID          int
	SceneID     int
	PlayerName  string
	TimeSeconds float64
	CreatedAt   time.Time
}

// Store defines the persistence operations the HTTP layer needs.
type Store interface {
	// DefaultScene returns the scene served by GET /game-image.
	DefaultScene(ctx context.Context) (Scene, error)

	// SceneByID loads a scene with its characters.
	SceneByID(ctx context.Context, id int) (Scene, error)

	// Character loads one character (with bounds) belonging to a scene.
	Character(ctx context.Context, sceneID, characterID int) (Character, error)

	// CreateSession records a new game session row.
	CreateSession(ctx context.Context, s GameSession) error

	// Session loads a session by id.
	Session(ctx context.Context, id string) (GameSession, error)

	// EndSession closes a session at the given instant and returns the
	// elapsed seconds. A second call returns ErrSessionEnded.
	EndSession(ctx context.Context, id string, at time.Time) (float64, error)

	// InsertHighScore appends a score row and returns it with its id.
	InsertHighScore(ctx context.Context, hs HighScore) (HighScore, error)

	// HighScores returns rows ordered by ascending time then created_at.
	// sceneID == 0 means all scenes.
	HighScores(ctx context.Context, sceneID, limit int) ([]HighScore, error)

	// SeedScene installs a scene with its characters. When a scene with
	// the same name exists it is returned as-is unless replace is set, in
	// which case it is rebuilt from the given data.
	SeedScene(ctx context.Context, sc Scene, replace bool) (Scene, error)
}
