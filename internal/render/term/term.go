// Package term draws the particle cloud in a terminal with tcell, two
// pixels per cell using the upper half block.
package term

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ayusman/morphcloud/internal/morph"
	"github.com/ayusman/morphcloud/internal/render"
	"github.com/ayusman/morphcloud/internal/render/raster"
	"github.com/ayusman/morphcloud/internal/shape"
)

// Timing of the terminal loop.
const (
	TickRate  = 60 // morph ticks per second
	DrawEvery = 2  // draw on every n-th tick
)

const rotateStep = 0.08

// Viewer renders a Source into a tcell screen.
type Viewer struct {
	screen tcell.Screen
	src    render.Source
	orbit  *render.Orbit
	proj   *render.Projector
	buf    *raster.Buffer
	splats []render.Splat
	frame  *morph.Frame
}

// NewViewer wraps an initialized screen.
func NewViewer(screen tcell.Screen, src render.Source) *Viewer {
	orbit := render.NewOrbit()
	return &Viewer{
		screen: screen,
		src:    src,
		orbit:  orbit,
		proj:   render.NewProjector(orbit, 0, 0),
	}
}

// Run opens the terminal and blocks until ctx is done or the user quits.
func Run(ctx context.Context, src render.Source) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	defer screen.Fini()

	return NewViewer(screen, src).Loop(ctx)
}

// Loop ticks the source and draws until ctx is done or q/Esc is pressed.
func (v *Viewer) Loop(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)
	go v.pollEvents(events, quit)

	ticker := time.NewTicker(time.Second / TickRate)
	defer ticker.Stop()

	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if v.handle(ev) {
				return nil
			}
		case now := <-ticker.C:
			v.frame = v.src.Tick(now, v.orbit.Position())
			if n%DrawEvery == 0 {
				v.Draw()
			}
		}
	}
}

// pollEvents forwards input until the screen is finalized or quit closes.
func (v *Viewer) pollEvents(events chan<- tcell.Event, quit <-chan struct{}) {
	for {
		ev := v.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-quit:
			return
		}
	}
}

// handle applies one input event and reports whether to quit.
func (v *Viewer) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		v.screen.Sync()
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return true
		case tcell.KeyLeft:
			v.orbit.Rotate(rotateStep, 0)
		case tcell.KeyRight:
			v.orbit.Rotate(-rotateStep, 0)
		case tcell.KeyUp:
			v.orbit.Rotate(0, rotateStep)
		case tcell.KeyDown:
			v.orbit.Rotate(0, -rotateStep)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return true
			case '+', '=':
				v.orbit.Zoom(0.9)
			case '-':
				v.orbit.Zoom(1 / 0.9)
			case 'r':
				v.orbit.Reset()
			}
		}
	}
	return false
}

// Draw renders the most recent frame. The last row holds the status line.
func (v *Viewer) Draw() {
	cols, rows := v.screen.Size()
	if cols <= 0 || rows <= 1 || v.frame == nil {
		return
	}
	v.render(cols, rows-1)
	v.drawStatus(cols, rows-1)
	v.screen.Show()
}

// render rasterizes into a cols×2rows buffer and maps each pair of
// vertically adjacent pixels onto one cell.
func (v *Viewer) render(cols, rows int) {
	w, h := cols, rows*2
	if v.buf == nil || v.buf.Width != w || v.buf.Height != h {
		v.buf = raster.NewBuffer(w, h, shape.Background)
	} else {
		v.buf.Clear(shape.Background)
	}

	v.proj.Width, v.proj.Height = w, h
	v.splats = v.proj.Project(v.frame, v.splats)
	v.buf.DrawSplats(v.splats)

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := cellColor(v.buf, x, 2*y)
			bottom := cellColor(v.buf, x, 2*y+1)
			style := tcell.StyleDefault.Foreground(top).Background(bottom)
			v.screen.SetContent(x, y, '▀', nil, style)
		}
	}
}

func cellColor(b *raster.Buffer, x, y int) tcell.Color {
	c := b.At(x, y).Clamped()
	r, g, bl := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(bl))
}

func (v *Viewer) drawStatus(cols, row int) {
	st := v.src.Status()
	style := tcell.StyleDefault.Foreground(tcell.ColorGray)
	if st.Accent {
		style = tcell.StyleDefault.Foreground(tcell.NewHexColor(0xff1744))
	}

	line := []rune(fmt.Sprintf(" %s  [%s %.2f]  arrows orbit, +/- zoom, q quit", st.Text, v.frame.Gesture.Shape(), v.frame.Blend))
	for x := 0; x < cols; x++ {
		r := ' '
		if x < len(line) {
			r = line[x]
		}
		v.screen.SetContent(x, row, r, nil, style)
	}
}
