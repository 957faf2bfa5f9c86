package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/herobanner/internal/heroimages"
	"github.com/lehigh-university-libraries/herobanner/internal/models"
	"github.com/lehigh-university-libraries/herobanner/internal/validate"
)

// ImageService is what the admin endpoints need from heroimages.Service
type ImageService interface {
	List() []models.ImageRecord
	Upload(ctx context.Context, u heroimages.Upload) (models.ImageRecord, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	images    ImageService
	token     string
	staticDir string
}

// New builds the admin API handler. An empty token disables the bearer check;
// staticDir, when set, is served under /static/.
func New(images ImageService, token, staticDir string) *Handler {
	return &Handler{
		images:    images,
		token:     token,
		staticDir: staticDir,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, code int, data models.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message, "status", code)
	h.writeJSON(w, code, models.Envelope{Success: false, Error: message})
}

// writeServiceError maps service errors onto status codes
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		code := http.StatusUnsupportedMediaType
		if verr.Kind == validate.FileTooLarge {
			code = http.StatusRequestEntityTooLarge
		}
		h.writeError(w, verr.Error(), code)
	case errors.Is(err, heroimages.ErrLimitReached):
		h.writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, heroimages.ErrNotFound):
		h.writeError(w, err.Error(), http.StatusNotFound)
	default:
		slog.Error("Hero image request failed", "err", err)
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// requireToken rejects admin requests without the configured bearer token
func (h *Handler) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			h.writeError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
