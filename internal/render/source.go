package render

import (
	"time"

	"github.com/ayusman/morphcloud/internal/mathutil"
	"github.com/ayusman/morphcloud/internal/morph"
	"github.com/ayusman/morphcloud/internal/status"
)

// Source drives a renderer. Tick is called once per rendered frame from the
// renderer's goroutine and its result is only valid until the next call.
type Source interface {
	Tick(now time.Time, camera mathutil.Vec3) *morph.Frame
	Status() status.Status
}

// SnapshotFunc saves a still of f as seen from cam and returns its id.
type SnapshotFunc func(f *morph.Frame, cam Orbit) (string, error)
