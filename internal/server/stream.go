package server

import (
	"fmt"
	"image"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/morphcloud/internal/capture"
)

// Preview stream settings.
const (
	previewInterval = 66 * time.Millisecond // about 15 FPS
	previewWidth    = 320
	previewQuality  = 70
)

// StreamHandler serves a mirrored, downscaled camera preview as MJPEG so the
// user can see which hand pose the detector is looking at.
type StreamHandler struct {
	camera capture.Camera
}

// NewStreamHandler creates a preview handler reading from camera.
func NewStreamHandler(camera capture.Camera) *StreamHandler {
	return &StreamHandler{camera: camera}
}

// ServeHTTP streams preview frames until the client disconnects. A closed
// camera answers 503 instead of an empty stream.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.camera.IsOpen() {
		http.Error(w, "Camera unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	mirrored := gocv.NewMat()
	defer mirrored.Close()
	scaled := gocv.NewMat()
	defer scaled.Close()

	ticker := time.NewTicker(previewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		jpeg, err := h.encodePreview(&mirrored, &scaled)
		if err != nil {
			continue
		}

		fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(jpeg))
		if _, err := w.Write(jpeg); err != nil {
			return
		}
		fmt.Fprint(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

// encodePreview reads one frame, mirrors it, scales it to previewWidth and
// returns the JPEG bytes. The scratch mats are reused across calls.
func (h *StreamHandler) encodePreview(mirrored, scaled *gocv.Mat) ([]byte, error) {
	frame, err := h.camera.ReadFrame()
	if err != nil {
		return nil, err
	}
	defer frame.Close()

	gocv.Flip(*frame, mirrored, 1)
	out := mirrored
	if cols := mirrored.Cols(); cols > previewWidth {
		rows := mirrored.Rows() * previewWidth / cols
		gocv.Resize(*mirrored, scaled, image.Pt(previewWidth, rows), 0, 0, gocv.InterpolationArea)
		out = scaled
	}

	buf, err := gocv.IMEncodeWithParams(".jpg", *out, []int{gocv.IMWriteJpegQuality, previewQuality})
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	// GetBytes aliases the native buffer, which Close frees.
	return append([]byte(nil), buf.GetBytes()...), nil
}
