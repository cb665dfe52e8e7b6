package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ayusman/morphcloud/internal/morph"
	"github.com/ayusman/morphcloud/internal/render"
)

// RunHeadless drives Tick at hz ticks per second from a fixed default
// camera until ctx is done or ticks frames have run. ticks <= 0 runs until
// ctx is done. It returns a copy of the last frame.
func (a *App) RunHeadless(ctx context.Context, hz, ticks int) (*morph.Frame, error) {
	if hz <= 0 {
		return nil, fmt.Errorf("tick rate must be positive, got %d", hz)
	}

	camera := render.NewOrbit().Position()
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	for n := 0; ticks <= 0 || n < ticks; n++ {
		select {
		case <-ctx.Done():
			return a.Latest(), ctx.Err()
		case now := <-ticker.C:
			a.Tick(now, camera)
		}
	}
	return a.Latest(), nil
}
