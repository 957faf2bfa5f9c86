package handlers

import (
	"net/http"
	"path/filepath"
	"strings"
)

// HandleStatic serves objects from the disk bucket
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/static/")

	// Prevent directory traversal attacks
	if name == "" || strings.Contains(name, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.staticDir, filepath.FromSlash(name)))
}
