// internal/game/targeting.go
//
// Targeting session: the transient state between a click on the scene and
// the player's confirmation or cancellation of a character guess.
// Responsibilities:
//   - Hold exactly one PendingSelection at a time.
//   - Acquire an input-capture resource when a session opens and release
//     it on every exit path (pick, cancel, or forced replace).
//   - Consume the selection synchronously at pick time so a second rapid
//     click can never submit against stale coordinates.

package game

// PendingSelection is the per-click state held while a targeting popup is
// open. Screen coordinates are relative to the image rect origin (for
// popup placement); normalized coordinates go to the backend.
type PendingSelection struct {
	ScreenX     float64
	ScreenY     float64
	NormalizedX float64
	NormalizedY float64
}

// InputCapture is the scoped resource standing in for "click outside" and
// Escape listeners: acquired when a targeting session opens, released by
// the returned func when it closes. Implementations belong to the UI
// host; the engine only guarantees balanced acquire/release.
type InputCapture interface {
	Acquire() (release func())
}

// nopCapture is the default when the host has nothing to capture.
type nopCapture struct{}

func (nopCapture) Acquire() func() { return func() {} }

// targeting tracks the currently open targeting session, if any.
// Methods assume the owning Session's mutex is held.
type targeting struct {
	pending *PendingSelection
	release func()
}

// open replaces any existing session (implicit cancel-and-reopen) and
// acquires the capture resource for the new one.
func (t *targeting) open(sel PendingSelection, capture InputCapture) {
	t.close()
	t.release = capture.Acquire()
	t.pending = &sel
}

// take consumes the pending selection, closing the session. Returns false
// if no session is open.
func (t *targeting) take() (PendingSelection, bool) {
	if t.pending == nil {
		return PendingSelection{}, false
	}
	sel := *t.pending
	t.close()
	return sel, true
}

// close clears the selection and releases the capture resource. Safe to
// call when nothing is open.
func (t *targeting) close() {
	t.pending = nil
	if t.release != nil {
		t.release()
		t.release = nil
	}
}
