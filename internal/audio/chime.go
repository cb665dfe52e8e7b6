// Package audio plays a short chime when the shape changes.
package audio

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Note frequencies in Hz.
const (
	noteC5 = 523.25
	noteE5 = 659.25
	noteG5 = 783.99
	noteC6 = 1046.50
)

// ChimeLength is the duration of one chime.
const ChimeLength = 360 * time.Millisecond

// Chime plays a rising arpeggio for the heart and a falling one for the
// planet. Call Initialize before the first Play; Play opens the speaker
// itself if that was skipped.
type Chime struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	volume      float64
	initialized bool
	failed      bool
}

// NewChime returns a chime at volume in [0, 1].
func NewChime(volume float64) *Chime {
	return &Chime{mixer: &beep.Mixer{}, volume: volume}
}

// Initialize opens the speaker. It is safe to call more than once.
func (c *Chime) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initLocked()
}

func (c *Chime) initLocked() error {
	if c.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		c.failed = true
		return err
	}
	speaker.Play(c.mixer)
	c.initialized = true
	return nil
}

// Play queues a chime. heart selects the rising arpeggio. If the speaker
// cannot be opened the chime is silently skipped.
func (c *Chime) Play(heart bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failed {
		return
	}
	if err := c.initLocked(); err != nil {
		return
	}

	notes := []float64{noteG5, noteE5, noteC5}
	if heart {
		notes = []float64{noteC5, noteE5, noteC6}
	}
	speaker.Lock()
	c.mixer.Add(c.withVolume(NewArpeggio(sampleRate, notes, ChimeLength)))
	speaker.Unlock()
}

func (c *Chime) withVolume(s beep.Streamer) beep.Streamer {
	// Volume is in log2 steps; 0 keeps the generator level.
	v := -6.0
	if c.volume > 0 {
		v = math.Log2(c.volume)
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: v, Silent: c.volume <= 0}
}

// Close stops playback.
func (c *Chime) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return
	}
	speaker.Lock()
	c.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	c.initialized = false
}

// Arpeggio plays notes back to back, each with a soft attack and an
// exponential release. It ends after its length.
type Arpeggio struct {
	sr      beep.SampleRate
	notes   []float64
	perNote int
	total   int
	pos     int
	phase   float64
}

// NewArpeggio splits length evenly across notes.
func NewArpeggio(sr beep.SampleRate, notes []float64, length time.Duration) *Arpeggio {
	total := sr.N(length)
	per := total
	if len(notes) > 0 {
		per = total / len(notes)
	}
	return &Arpeggio{sr: sr, notes: notes, perNote: per, total: per * len(notes)}
}

func (a *Arpeggio) Stream(samples [][2]float64) (n int, ok bool) {
	if a.pos >= a.total {
		return 0, false
	}
	for i := range samples {
		if a.pos >= a.total {
			return i, true
		}

		note := a.pos / a.perNote
		local := float64(a.pos%a.perNote) / float64(a.sr)
		attack := math.Min(local/0.005, 1)
		release := math.Exp(-local * 9)

		a.phase += a.notes[note] / float64(a.sr)
		a.phase -= math.Floor(a.phase)

		// Fundamental plus a quiet octave for a bell-like tone.
		v := 0.8*math.Sin(2*math.Pi*a.phase) + 0.2*math.Sin(4*math.Pi*a.phase)
		v *= 0.3 * attack * release

		samples[i][0] = v
		samples[i][1] = v
		a.pos++
	}
	return len(samples), true
}

func (a *Arpeggio) Err() error { return nil }

// Len returns the total number of samples.
func (a *Arpeggio) Len() int { return a.total }
