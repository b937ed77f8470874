// internal/game/scores.go
//
// One-shot score submission prompt, created on the InProgress → Complete
// transition. Independent of the session once triggered: submit failures
// leave it open for a retry, Skip is always available, and either
// terminal action closes it for good.

package game

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	// ErrEmptyPlayerName rejects a submission before any network call.
	ErrEmptyPlayerName = errors.New("player name is empty")

	// ErrPromptClosed means a terminal action already closed the prompt.
	ErrPromptClosed = errors.New("score prompt already closed")
)

// ScorePrompt offers the final time for submission under a player name.
type ScorePrompt struct {
	mu          sync.Mutex
	sender      ScoreSender
	imageID     int
	timeSeconds float64
	closed      bool
}

func newScorePrompt(sender ScoreSender, imageID int, timeSeconds float64) *ScorePrompt {
	return &ScorePrompt{sender: sender, imageID: imageID, timeSeconds: timeSeconds}
}

// TimeSeconds is the frozen completion time on offer.
func (p *ScorePrompt) TimeSeconds() float64 { return p.timeSeconds }

// Open reports whether the prompt still accepts a terminal action.
func (p *ScorePrompt) Open() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed
}

// Submit sends the score under playerName, trimmed of surrounding
// whitespace. An empty trimmed name is rejected without attempting the
// request. On transport failure the prompt stays open so the player can
// retry or skip; on success it closes permanently.
func (p *ScorePrompt) Submit(ctx context.Context, playerName string) error {
	name := strings.TrimSpace(playerName)
	if name == "" {
		return ErrEmptyPlayerName
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPromptClosed
	}
	p.mu.Unlock()

	if err := p.sender.SubmitScore(ctx, name, p.timeSeconds, p.imageID); err != nil {
		return err
	}

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

// Skip closes the prompt without submitting.
func (p *ScorePrompt) Skip() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}
