// Package window shows the particle cloud in a desktop window with ebiten.
package window

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/ayusman/morphcloud/internal/morph"
	"github.com/ayusman/morphcloud/internal/render"
	"github.com/ayusman/morphcloud/internal/shape"
)

// Input sensitivities.
const (
	dragRadiansPerPixel = 0.005
	wheelZoomStep       = 0.9
	keyRotateStep       = 0.03
)

// Max quads per DrawTriangles call with uint16 indices.
const maxQuadsPerBatch = 65536 / 4

// Options configures the window.
type Options struct {
	Width  int
	Height int
	Title  string
	Scale  float64 // particle group scale
	TPS    int
}

// Game implements ebiten.Game.
type Game struct {
	src      render.Source
	orbit    *render.Orbit
	proj     *render.Projector
	snapshot render.SnapshotFunc

	splats   []render.Splat
	vertices []ebiten.Vertex
	indices  []uint16
	white    *ebiten.Image
	bg       color.Color

	dragging     bool
	lastX, lastY int
	notice       string
	noticeUntil  time.Time
	frame        *morph.Frame
}

// NewGame creates a game over src. snapshot may be nil.
func NewGame(src render.Source, opts Options, snapshot render.SnapshotFunc) *Game {
	white := ebiten.NewImage(3, 3)
	white.Fill(color.White)

	orbit := render.NewOrbit()
	proj := render.NewProjector(orbit, opts.Width, opts.Height)
	if opts.Scale > 0 {
		proj.Scale = opts.Scale
	}

	r, g, b := shape.Background.RGB255()
	return &Game{
		src:      src,
		orbit:    orbit,
		proj:     proj,
		snapshot: snapshot,
		white:    white.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image),
		bg:       color.RGBA{R: r, G: g, B: b, A: 255},
	}
}

// Run opens the window and blocks until it is closed.
func Run(src render.Source, opts Options, snapshot render.SnapshotFunc) error {
	ebiten.SetWindowSize(opts.Width, opts.Height)
	ebiten.SetWindowTitle(opts.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if opts.TPS > 0 {
		ebiten.SetTPS(opts.TPS)
	}
	return ebiten.RunGame(NewGame(src, opts, snapshot))
}

// Update handles input and advances the morph by one tick.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	g.handleOrbit()

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.orbit.Reset()
	}

	g.frame = g.src.Tick(time.Now(), g.orbit.Position())

	if inpututil.IsKeyJustPressed(ebiten.KeyP) && g.snapshot != nil {
		g.takeSnapshot()
	}
	return nil
}

func (g *Game) handleOrbit() {
	x, y := ebiten.CursorPosition()
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		g.dragging = true
	case !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		g.dragging = false
	case g.dragging:
		// Dragging right swings the camera left around the cloud.
		g.orbit.Rotate(-float64(x-g.lastX)*dragRadiansPerPixel, float64(y-g.lastY)*dragRadiansPerPixel)
	}
	g.lastX, g.lastY = x, y

	if _, wy := ebiten.Wheel(); wy != 0 {
		if wy > 0 {
			g.orbit.Zoom(wheelZoomStep)
		} else {
			g.orbit.Zoom(1 / wheelZoomStep)
		}
	}

	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.orbit.Rotate(keyRotateStep, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.orbit.Rotate(-keyRotateStep, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.orbit.Rotate(0, keyRotateStep)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.orbit.Rotate(0, -keyRotateStep)
	}
}

func (g *Game) takeSnapshot() {
	id, err := g.snapshot(g.frame, *g.orbit)
	if err != nil {
		log.Printf("snapshot failed: %v", err)
		g.showNotice("Snapshot failed")
		return
	}
	g.showNotice("Saved snapshot " + id)
}

func (g *Game) showNotice(s string) {
	g.notice = s
	g.noticeUntil = time.Now().Add(2 * time.Second)
}

// Draw renders the latest frame.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.bg)
	if g.frame == nil {
		return
	}

	b := screen.Bounds()
	g.proj.Width, g.proj.Height = b.Dx(), b.Dy()
	g.splats = g.proj.Project(g.frame, g.splats)

	for start := 0; start < len(g.splats); start += maxQuadsPerBatch {
		end := min(start+maxQuadsPerBatch, len(g.splats))
		g.buildQuads(g.splats[start:end])
		screen.DrawTriangles(g.vertices, g.indices, g.white, &ebiten.DrawTrianglesOptions{
			Blend: ebiten.BlendLighter,
		})
	}

	st := g.src.Status()
	ebitenutil.DebugPrintAt(screen, st.Text, 12, b.Dy()-28)
	info := fmt.Sprintf("%s  blend %.2f  %.0f FPS", g.frame.Gesture.Shape(), g.frame.Blend, ebiten.ActualFPS())
	ebitenutil.DebugPrintAt(screen, info, 12, 10)
	if g.notice != "" && time.Now().Before(g.noticeUntil) {
		ebitenutil.DebugPrintAt(screen, g.notice, 12, 26)
	}
}

// buildQuads fills the vertex and index buffers with one square per splat.
func (g *Game) buildQuads(splats []render.Splat) {
	g.vertices = g.vertices[:0]
	g.indices = g.indices[:0]

	for i := range splats {
		s := &splats[i]
		half := float32(s.Size / 2)
		x, y := float32(s.X), float32(s.Y)
		r, gr, b, a := float32(s.Color.R), float32(s.Color.G), float32(s.Color.B), float32(s.Alpha)

		base := uint16(len(g.vertices))
		for _, c := range [4][2]float32{{-half, -half}, {half, -half}, {-half, half}, {half, half}} {
			g.vertices = append(g.vertices, ebiten.Vertex{
				DstX:   x + c[0],
				DstY:   y + c[1],
				SrcX:   1.5,
				SrcY:   1.5,
				ColorR: r,
				ColorG: gr,
				ColorB: b,
				ColorA: a,
			})
		}
		g.indices = append(g.indices,
			base, base+1, base+2,
			base+1, base+3, base+2,
		)
	}
}

// Layout keeps a 1:1 mapping between window and screen pixels.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
