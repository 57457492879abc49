package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const noFrontendPage = "<h1>Backend is running. Frontend build not found.</h1><p>Please run 'npm run build' in the frontend directory.</p>"

// spaHandler serves the built frontend; unknown paths get index.html so
// client-side routes work.
type spaHandler struct {
	dir string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	index := filepath.Join(h.dir, "index.html")

	if h.dir == "" || !fileExists(index) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(noFrontendPage))
		return
	}

	clean := filepath.Clean("/" + strings.TrimPrefix(r.URL.Path, "/"))
	path := filepath.Join(h.dir, filepath.FromSlash(clean))
	if clean != "/" && fileExists(path) {
		http.ServeFile(w, r, path)
		return
	}

	http.ServeFile(w, r, index)
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
