// Package status carries the short user-facing line shown under the
// particle view.
package status

import "sync"

// Messages reported by the pipeline.
const (
	CameraReady       = "Camera on: fist = Saturn, open palm = heart!"
	CameraUnavailable = "Camera unavailable, check permissions"
	DetectorMissing   = "Hand tracking library not loaded, restart to retry"
	DetectorFailed    = "Hand tracking failed, retrying"
	NoHand            = "No hand detected, try raising your palm"
	OpenPalm          = "Open palm: particles gather into a heart!"
	FistClosed        = "Fist: back to Saturn"
	Paused            = "Detection paused"
)

// Status is one status line. Accent lines are highlighted.
type Status struct {
	Text   string `json:"text"`
	Accent bool   `json:"accent"`
}

// Board holds the latest status and fans changes out to subscribers.
type Board struct {
	mu     sync.RWMutex
	latest Status
	subs   map[chan Status]struct{}
}

// NewBoard creates a board with an initial status.
func NewBoard(initial Status) *Board {
	return &Board{
		latest: initial,
		subs:   make(map[chan Status]struct{}),
	}
}

// Report replaces the current status. Reporting the same status again is a
// no-op, so the pipeline may report on every frame.
func (b *Board) Report(s Status) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s == b.latest {
		return
	}
	b.latest = s
	for ch := range b.subs {
		// Slow subscribers only miss intermediate lines.
		select {
		case ch <- s:
		default:
		}
	}
}

// Latest returns the current status.
func (b *Board) Latest() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.latest
}

// Subscribe returns a channel receiving status changes and a function that
// unsubscribes and closes it.
func (b *Board) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 4)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}
