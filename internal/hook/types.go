// Package hook runs external executables when the displayed shape changes.
// Each hook lives in its own directory under the hooks dir with a hook.json
// manifest; it receives a JSON Request on stdin and answers with a JSON
// Response on stdout.
package hook

import (
	"encoding/json"
	"time"
)

// ManifestName is the file that marks a hook directory.
const ManifestName = "hook.json"

// EventGesture is sent when the discrete gesture changes.
const EventGesture = "gesture"

// Manifest describes a hook.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []string        `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Subscribes reports whether the hook wants event. An empty event list
// subscribes to everything.
func (m Manifest) Subscribes(event string) bool {
	if len(m.Events) == 0 {
		return true
	}
	for _, e := range m.Events {
		if e == event {
			return true
		}
	}
	return false
}

// Request is written to the hook's stdin.
type Request struct {
	Event     string          `json:"event"`
	Gesture   string          `json:"gesture"` // "open" or "fist"
	Shape     string          `json:"shape"`   // "Heart" or "Saturn"
	Blend     float64         `json:"blend"`
	Timestamp time.Time       `json:"timestamp"`
	Config    json.RawMessage `json:"config,omitempty"`
}

// Response is read from the hook's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}
