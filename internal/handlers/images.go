package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lehigh-university-libraries/herobanner/internal/models"
)

func (h *Handler) HandleListImages(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, models.Envelope{Success: true, Images: h.images.List()})
}

func (h *Handler) HandleDeleteImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if id == "" {
		h.writeError(w, "id is required", http.StatusBadRequest)
		return
	}

	if err := h.images.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, models.Envelope{Success: true})
}

// HandleLogout has no server session to end; it exists so clients have one
// place to report a logout
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	slog.Info("Admin logged out", "remote", r.RemoteAddr)
	h.writeJSON(w, http.StatusOK, models.Envelope{Success: true})
}
