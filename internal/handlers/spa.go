package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	logpkg "github.com/benvon/login-demo/internal/logger"
	"go.uber.org/zap"
)

const indexFile = "index.html"

// SPAHandler serves a pre-built single page application. Requests for paths
// that are not files fall back to index.html so client-side routes resolve.
type SPAHandler struct {
	root   string
	files  http.Handler
	logger *zap.Logger
}

// NewSPAHandler creates a handler serving files from dir
func NewSPAHandler(dir string, logger *zap.Logger) *SPAHandler {
	return &SPAHandler{
		root:   dir,
		files:  http.FileServer(http.Dir(dir)),
		logger: logger,
	}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		respondJSONError(w, r, http.StatusMethodNotAllowed, "Only GET and HEAD are supported", h.logger)
		return
	}

	if containsDotDot(r.URL.Path) {
		respondJSONError(w, r, http.StatusBadRequest, "Invalid path", h.logger)
		return
	}

	name := path.Clean("/" + r.URL.Path)
	info, err := os.Stat(filepath.Join(h.root, filepath.FromSlash(name)))
	switch {
	case err == nil && !info.IsDir():
		h.files.ServeHTTP(w, r)
		return
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		h.logger.Error("static_file_stat_failed",
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
			zap.Error(err),
		)
	}

	h.serveIndex(w, r)
}

func (h *SPAHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(h.root, indexFile)
	if _, err := os.Stat(index); err != nil {
		h.logger.Error("spa_index_missing", zap.String("index", index), zap.Error(err))
		respondJSONError(w, r, http.StatusNotFound, "The requested resource does not exist", h.logger)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, index)
}

func containsDotDot(p string) bool {
	if !strings.Contains(p, "..") {
		return false
	}
	for _, segment := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if segment == ".." {
			return true
		}
	}
	return false
}
