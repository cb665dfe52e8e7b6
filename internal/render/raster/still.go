package raster

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"

	"github.com/ayusman/morphcloud/internal/morph"
	"github.com/ayusman/morphcloud/internal/render"
	"github.com/ayusman/morphcloud/internal/shape"
)

// Still renders frames to images at a fixed size.
type Still struct {
	Width       int
	Height      int
	Supersample int
}

// Render draws f seen from cam. The frame is rendered at Supersample times
// the target size and scaled down with Catmull-Rom.
func (s Still) Render(f *morph.Frame, cam *render.Orbit) image.Image {
	ss := s.Supersample
	if ss < 1 {
		ss = 1
	}
	w, h := s.Width*ss, s.Height*ss

	proj := render.NewProjector(cam, w, h)
	splats := proj.Project(f, nil)

	buf := NewBuffer(w, h, shape.Background)
	buf.DrawSplats(splats)
	img := buf.Image()
	if ss == 1 {
		return img
	}
	return Downsample(img, s.Width, s.Height)
}

// Downsample scales an opaque image to w×h.
func Downsample(img *image.RGBA, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// EncodeWebP writes img as lossless WebP.
func EncodeWebP(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("webp encode: %w", err)
	}
	return nil
}

// SaveWebP renders f and writes it to path, creating parent directories.
func (s Still) SaveWebP(path string, f *morph.Frame, cam *render.Orbit) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWebP(out, s.Render(f, cam)); err != nil {
		out.Close()
		os.Remove(path)
		return err
	}
	return out.Close()
}
