package morph

import (
	"sync/atomic"
	"time"

	"github.com/ayusman/morphcloud/internal/gesture"
)

// Observation is one classified detector frame.
type Observation struct {
	Label gesture.Label
	At    time.Time
}

// pending is what the render loop will apply on its next tick.
type pending struct {
	label    gesture.Label
	hasLabel bool      // label is a decisive Open, Fist or Unknown
	seen     time.Time // latest frame with a hand, zero if none
}

// Mailbox is a latest-wins handoff from the detection goroutine to the
// render loop. Post never blocks. Observations posted between two ticks are
// merged: the newest decisive label wins and the newest hand sighting
// refreshes the timestamp, so a NoChange frame cannot hide an earlier Open.
type Mailbox struct {
	p atomic.Pointer[pending]
}

// Post records an observation.
func (m *Mailbox) Post(obs Observation) {
	for {
		old := m.p.Load()
		next := &pending{}
		if old != nil {
			*next = *old
		}

		switch obs.Label {
		case gesture.Unknown:
			next.label, next.hasLabel = gesture.Unknown, true
		case gesture.NoChange:
			next.seen = obs.At
		default:
			next.label, next.hasLabel = obs.Label, true
			next.seen = obs.At
		}

		if m.p.CompareAndSwap(old, next) {
			return
		}
	}
}

// take removes and returns the pending merge, if any.
func (m *Mailbox) take() (pending, bool) {
	p := m.p.Swap(nil)
	if p == nil {
		return pending{}, false
	}
	return *p, true
}
