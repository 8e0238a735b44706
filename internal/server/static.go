package server

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/basalt-ssg/basalt/internal/logging"
)

// staticHandler serves files rooted at the build output directory. Every
// request re-reads the filesystem, so responses always reflect the latest
// completed (or in-progress) rebuild.
type staticHandler struct {
	root string
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Clean resolves any ".." elements before the path touches the
	// filesystem, pinning resolution under the output root.
	rel := path.Clean("/" + r.URL.Path)
	full := filepath.Join(h.root, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if info.IsDir() {
		full = filepath.Join(full, "index.html")
		if _, err := os.Stat(full); err != nil {
			http.NotFound(w, r)
			return
		}
	}

	http.ServeFile(w, r, full)
}

// statusRecorder captures the response status for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Unwrap exposes the underlying writer to http.ResponseController so
// websocket upgrades can hijack the connection through the middleware.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// accessLog wraps a handler with a compact per-request log line. Lines are
// emitted at info level, so raising the logger threshold above info
// suppresses them entirely.
func accessLog(next http.Handler, logger logging.Logger, useColor bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if logger.Level() > logging.LevelInfo {
			return
		}
		ts := time.Now().Format("15:04:05.000")
		logger.Info(context.Background(),
			logging.AccessLine(ts, rec.status, r.Method, r.URL.Path, useColor))
	})
}
