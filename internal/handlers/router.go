package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// Router wires every route the server exposes
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	}).Methods(http.MethodGet)

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(h.requireToken)
	admin.HandleFunc("/hero-images", h.HandleListImages).Methods(http.MethodGet)
	admin.HandleFunc("/hero-images", h.HandleUpload).Methods(http.MethodPost)
	admin.HandleFunc("/hero-images/{id}", h.HandleDeleteImage).Methods(http.MethodDelete)
	admin.HandleFunc("/logout", h.HandleLogout).Methods(http.MethodPost)

	admin.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	r.MethodNotAllowedHandler = admin.MethodNotAllowedHandler

	if h.staticDir != "" {
		r.PathPrefix("/static/").HandlerFunc(h.HandleStatic).Methods(http.MethodGet, http.MethodHead)
	}

	return r
}
