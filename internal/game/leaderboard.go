// internal/game/leaderboard.go
//
// Leaderboard view: fetches the ranked score list and re-fetches on a
// refresh signal. In-flight requests are never cancelled; instead every
// refresh bumps a generation counter and a response is discarded if a
// newer refresh was issued while it was in flight, so the last-issued
// fetch always wins on display.

package game

import (
	"context"
	"sync"
)

// HighScoreFetcher retrieves the ranked score list for a scene.
type HighScoreFetcher interface {
	HighScores(ctx context.Context, imageID int) ([]HighScoreEntry, error)
}

// LoadState is the leaderboard display state. Empty is a valid outcome,
// distinct from both Loading and Failed.
type LoadState int

const (
	LoadLoading LoadState = iota
	LoadFailed
	LoadEmpty
	LoadReady
)

// Leaderboard holds the latest fetched scores for one target scene.
type Leaderboard struct {
	mu      sync.Mutex
	fetcher HighScoreFetcher

	gen     uint64
	imageID int
	state   LoadState
	scores  []HighScoreEntry
	err     error
}

// NewLeaderboard constructs an empty leaderboard in the Loading state.
func NewLeaderboard(f HighScoreFetcher) *Leaderboard {
	return &Leaderboard{fetcher: f, state: LoadLoading}
}

// Refresh performs one fetch for imageID and applies the result unless a
// newer refresh superseded it in the meantime. Blocking; hosts run
// overlapping refreshes from goroutines and rely on the generation
// counter for last-issued-wins.
func (l *Leaderboard) Refresh(ctx context.Context, imageID int) {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	l.imageID = imageID
	l.state = LoadLoading
	l.mu.Unlock()

	scores, err := l.fetcher.HighScores(ctx, imageID)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		// A newer refresh was issued while this one was in flight.
		return
	}
	switch {
	case err != nil:
		l.state, l.scores, l.err = LoadFailed, nil, err
	case len(scores) == 0:
		l.state, l.scores, l.err = LoadEmpty, nil, nil
	default:
		l.state, l.scores, l.err = LoadReady, scores, nil
	}
}

// Snapshot returns the current display state, the scores (nil unless
// Ready), and the fetch error (nil unless Failed).
func (l *Leaderboard) Snapshot() (LoadState, []HighScoreEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]HighScoreEntry, len(l.scores))
	copy(out, l.scores)
	if len(out) == 0 {
		out = nil
	}
	return l.state, out, l.err
}
