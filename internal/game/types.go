// internal/game/types.go
//
// Core type definitions for the find-the-character session engine.
// Defines:
//   - Scene/Character: the immutable puzzle loaded from the backend.
//   - FoundCharacter: a confirmed hit with its normalized click position.
//   - Status: coarse lifecycle of a game session.
//   - ValidationResult: the backend's answer to a hit-test request.
//   - HighScoreEntry: one row of the ranked score list.

package game

import "time"

// Status is the derived lifecycle state of a game session.
// It is never set directly: Complete holds iff every character in the
// scene has been found (and the scene has at least one character).
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
)

// Character is one hidden figure the player must locate.
// IDs are unique within a scene and never change after load.
type Character struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Scene is the puzzle image plus its character roster, as served by
// GET /game-image. Immutable once loaded; the session holds the only copy
// and every other component reads through it.
type Scene struct {
	ID         int         `json:"id"`
	Name       string      `json:"name"`
	ImageURL   string      `json:"image_url"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Characters []Character `json:"characters"`
}

// CharacterByID returns the character with the given id, if present.
func (s Scene) CharacterByID(id int) (Character, bool) {
	for _, c := range s.Characters {
		if c.ID == id {
			return c, true
		}
	}
	return Character{}, false
}

// FoundCharacter records a confirmed hit. X/Y are the normalized
// coordinates of the successful click, kept so a marker can be placed at
// the same spot at any display size.
type FoundCharacter struct {
	CharacterID int     `json:"character_id"`
	Name        string  `json:"name"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
}

// ValidationResult is the backend's verdict on a hit-test request.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// HighScoreEntry is one ranked leaderboard row. Rank order is assigned by
// the backend (ascending time).
type HighScoreEntry struct {
	ID          int       `json:"id"`
	PlayerName  string    `json:"player_name"`
	TimeSeconds float64   `json:"time_seconds"`
	CreatedAt   time.Time `json:"created_at"`
}
