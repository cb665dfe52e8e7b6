package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// mimeOverrides pins content types that platform MIME tables often get
// wrong for the hand tracking assets.
var mimeOverrides = map[string]string{
	".js":       "application/javascript",
	".mjs":      "application/javascript",
	".wasm":     "application/wasm",
	".data":     "application/octet-stream",
	".binarypb": "application/octet-stream",
	".tflite":   "application/octet-stream",
}

// StaticHandler serves the web client. Unknown paths outside /api/ fall
// back to index.html.
type StaticHandler struct {
	dir   string
	files http.Handler
}

// NewStaticHandler serves files from dir.
func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{dir: dir, files: http.FileServer(http.Dir(dir))}
}

// ServeHTTP implements http.Handler.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)

	if ct, ok := mimeOverrides[strings.ToLower(path.Ext(clean))]; ok {
		w.Header().Set("Content-Type", ct)
	}

	if !strings.HasPrefix(clean, "/api/") && !h.exists(clean) {
		index := filepath.Join(h.dir, "index.html")
		if _, err := os.Stat(index); err == nil {
			w.Header().Del("Content-Type")
			http.ServeFile(w, r, index)
			return
		}
	}
	h.files.ServeHTTP(w, r)
}

func (h *StaticHandler) exists(urlPath string) bool {
	_, err := os.Stat(filepath.Join(h.dir, filepath.FromSlash(urlPath)))
	return err == nil
}
