package server

import (
	"bytes"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/morphcloud/internal/capture"
)

func TestStreamHandler_ClosedCamera(t *testing.T) {
	cam := capture.NewBlankCamera(64, 48)
	defer cam.Release()

	rec := httptest.NewRecorder()
	NewStreamHandler(cam).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stream", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}

	rec = httptest.NewRecorder()
	NewStreamHandler(cam).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/stream", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestStreamHandler_EncodePreview(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"downscaled", 640, 480, 320, 240},
		{"small frames kept", 160, 120, 160, 120},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := capture.NewBlankCamera(tt.width, tt.height)
			defer cam.Release()
			if err := cam.Open(); err != nil {
				t.Fatalf("Open() error = %v", err)
			}

			mirrored, scaled := gocv.NewMat(), gocv.NewMat()
			defer mirrored.Close()
			defer scaled.Close()

			data, err := NewStreamHandler(cam).encodePreview(&mirrored, &scaled)
			if err != nil {
				t.Fatalf("encodePreview() error = %v", err)
			}
			img, err := jpeg.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("preview is not a JPEG: %v", err)
			}
			if b := img.Bounds(); b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("preview size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}
