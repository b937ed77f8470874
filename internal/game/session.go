// internal/game/session.go
//
// The game session engine: the authoritative state machine that turns
// pointer clicks into hit-test requests and tracks progress.
// Responsibilities:
//   - Open/cancel targeting sessions from normalized clicks.
//   - Short-circuit picks of already-found characters (no network call).
//   - Union validated hits into the found set (order-independent).
//   - Drive the elapsed-time clock; freeze the final time on completion.
//   - Surface transient feedback that self-clears after a fixed delay.
//   - Hand out a one-shot score prompt on the InProgress → Complete edge.
//
// Notes:
//   - All mutation happens under one mutex; validation calls run outside
//     it so several distinct clicks may have requests in flight at once.
//   - Reset bumps an epoch counter; a validation that resolves after a
//     reset is dropped so nothing from the prior session leaks in.

package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// transportFailureMessage is shown when the validate request cannot reach
// the backend or the response is malformed. Never fatal.
const transportFailureMessage = "Error validating selection. Please try again."

const (
	defaultFeedbackTTL = 2 * time.Second

	// DefaultClockInterval is the display refresh cadence for WatchClock.
	DefaultClockInterval = 100 * time.Millisecond
)

// Validator issues a hit-test request for a chosen character.
// The session token is passed through unchanged.
type Validator interface {
	Validate(ctx context.Context, sessionToken string, characterID int, x, y float64) (ValidationResult, error)
}

// ScoreSender submits a final time under a player name.
type ScoreSender interface {
	SubmitScore(ctx context.Context, playerName string, timeSeconds float64, imageID int) error
}

// Backend is everything the session engine needs from the network layer.
type Backend interface {
	Validator
	ScoreSender
}

// Option configures a Session at construction.
type Option func(*Session)

// WithClock injects the time source. Tests use a fake clock.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithInputCapture installs the host's input-capture resource for
// targeting sessions.
func WithInputCapture(c InputCapture) Option {
	return func(s *Session) { s.capture = c }
}

// WithFeedbackTTL overrides the feedback auto-clear delay.
func WithFeedbackTTL(d time.Duration) Option {
	return func(s *Session) { s.feedbackTTL = d }
}

// Session is the per-game state machine. Construct one per scene load and
// discard (or Reset) it for a new game.
type Session struct {
	mu          sync.Mutex
	scene       Scene
	token       string
	backend     Backend
	capture     InputCapture
	now         func() time.Time
	feedbackTTL time.Duration

	// epoch guards against in-flight validations resolving after Reset.
	epoch int

	targeting targeting
	found     map[int]FoundCharacter
	order     []int

	startedAt    time.Time
	finalSeconds float64
	completed    bool

	feedback      string
	feedbackGen   int
	feedbackTimer *time.Timer

	prompt *ScorePrompt
}

// NewSession constructs a session engine for one scene. token is the
// opaque backend session identifier obtained from POST /game-session.
func NewSession(scene Scene, token string, backend Backend, opts ...Option) *Session {
	s := &Session{
		scene:       scene,
		token:       token,
		backend:     backend,
		capture:     nopCapture{},
		now:         time.Now,
		feedbackTTL: defaultFeedbackTTL,
		found:       make(map[int]FoundCharacter),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scene returns the immutable scene this session plays.
func (s *Session) Scene() Scene { return s.scene }

// Click handles a pointer click on the scene image. The first click of a
// game (hit or miss) starts the clock. Opening while a targeting session
// is already open replaces it atomically. Returns false, and changes
// nothing, when the rect has no usable dimensions (image not laid out).
func (s *Session) Click(pointerX, pointerY float64, r Rect) bool {
	nx, ny, ok := Normalize(pointerX, pointerY, r)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() {
		s.startedAt = s.now()
	}
	s.targeting.open(PendingSelection{
		ScreenX:     pointerX - r.Left,
		ScreenY:     pointerY - r.Top,
		NormalizedX: nx,
		NormalizedY: ny,
	}, s.capture)
	return true
}

// CancelTargeting closes the open targeting session, if any (click
// outside the popup, or Escape).
func (s *Session) CancelTargeting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targeting.close()
}

// Pending returns a copy of the open targeting selection, if any.
func (s *Session) Pending() (PendingSelection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.targeting.pending == nil {
		return PendingSelection{}, false
	}
	return *s.targeting.pending, true
}

// Pick resolves the open targeting session against a chosen character.
// The pending selection is consumed synchronously, before the network
// call, so a second rapid click cannot submit stale coordinates. Picking
// a character that is already found never issues a request and never
// changes state. Pick blocks for the round trip; hosts run it off their
// event loop, and picks from distinct clicks may overlap freely; the
// found-set union makes completion order irrelevant.
func (s *Session) Pick(ctx context.Context, characterID int) {
	s.mu.Lock()
	sel, ok := s.targeting.take()
	if !ok {
		s.mu.Unlock()
		return
	}
	if _, dup := s.found[characterID]; dup {
		s.mu.Unlock()
		return
	}
	token, epoch := s.token, s.epoch
	s.mu.Unlock()

	res, err := s.backend.Validate(ctx, token, characterID, sel.NormalizedX, sel.NormalizedY)
	if err != nil {
		log.Warn().Err(err).Int("characterId", characterID).Msg("validate request failed")
		res = ValidationResult{Valid: false, Message: transportFailureMessage}
	}
	s.applyValidation(epoch, characterID, sel, res)
}

// applyValidation folds a validation outcome into the session.
func (s *Session) applyValidation(epoch, characterID int, sel PendingSelection, res ValidationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		// The game was reset while this call was in flight.
		return
	}
	if res.Valid {
		if _, dup := s.found[characterID]; !dup {
			if c, ok := s.scene.CharacterByID(characterID); ok {
				s.found[characterID] = FoundCharacter{
					CharacterID: characterID,
					Name:        c.Name,
					X:           sel.NormalizedX,
					Y:           sel.NormalizedY,
				}
				s.order = append(s.order, characterID)
				s.checkCompletionLocked()
			}
		}
	}
	s.setFeedbackLocked(res.Message)
}

// checkCompletionLocked freezes the final time and opens the score prompt
// when the found set reaches the full character set. One-way until Reset.
func (s *Session) checkCompletionLocked() {
	if s.completed || len(s.scene.Characters) == 0 || len(s.found) != len(s.scene.Characters) {
		return
	}
	s.completed = true
	s.finalSeconds = s.now().Sub(s.startedAt).Seconds()
	s.prompt = newScorePrompt(s.backend, s.scene.ID, s.finalSeconds)
}

// setFeedbackLocked replaces the visible feedback and re-arms the clear
// timer. The previous timer is stopped first so an older clear can never
// wipe a newer message early.
func (s *Session) setFeedbackLocked(msg string) {
	if msg == "" {
		return
	}
	if s.feedbackTimer != nil {
		s.feedbackTimer.Stop()
	}
	s.feedback = msg
	s.feedbackGen++
	gen := s.feedbackGen
	s.feedbackTimer = time.AfterFunc(s.feedbackTTL, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen == s.feedbackGen {
			s.feedback = ""
		}
	})
}

// Feedback returns the currently visible transient message, if any.
func (s *Session) Feedback() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedback
}

// Status reports the derived lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	switch {
	case s.completed:
		return StatusComplete
	case s.startedAt.IsZero():
		return StatusNotStarted
	default:
		return StatusInProgress
	}
}

// IsFound reports whether a character has already been confirmed.
func (s *Session) IsFound(characterID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.found[characterID]
	return ok
}

// Found returns the confirmed characters in discovery order. The records
// double as marker positions (normalized click coordinates).
func (s *Session) Found() []FoundCharacter {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FoundCharacter, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.found[id])
	}
	return out
}

// ElapsedSeconds is the running clock readout: zero before the first
// click, frozen at the final time once complete.
func (s *Session) ElapsedSeconds() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.completed:
		return s.finalSeconds
	case s.startedAt.IsZero():
		return 0
	default:
		return s.now().Sub(s.startedAt).Seconds()
	}
}

// FinalSeconds returns the frozen completion time, once set.
func (s *Session) FinalSeconds() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalSeconds, s.completed
}

// ScorePrompt returns the one-shot submission prompt, non-nil from the
// moment the game completes until Reset.
func (s *Session) ScorePrompt() *ScorePrompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prompt
}

// Reset starts a new game: found set, markers, clock, feedback, targeting
// and score prompt are cleared in one step, from any prior state. In-flight
// validations for the old game are discarded when they resolve.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.targeting.close()
	s.found = make(map[int]FoundCharacter)
	s.order = nil
	s.startedAt = time.Time{}
	s.finalSeconds = 0
	s.completed = false
	if s.feedbackTimer != nil {
		s.feedbackTimer.Stop()
		s.feedbackTimer = nil
	}
	s.feedbackGen++
	s.feedback = ""
	s.prompt = nil
}

// WatchClock invokes fn with the formatted elapsed time on a fixed
// cadence while the game is in progress, until ctx is done. Display only:
// the final time is computed from wall-clock start/stop, not from this
// ticker. interval <= 0 uses DefaultClockInterval.
func (s *Session) WatchClock(ctx context.Context, interval time.Duration, fn func(elapsed string)) {
	if interval <= 0 {
		interval = DefaultClockInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if s.Status() == StatusInProgress {
				fn(FormatTime(s.ElapsedSeconds()))
			}
		}
	}
}
