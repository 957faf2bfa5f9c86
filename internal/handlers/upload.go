package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/lehigh-university-libraries/herobanner/internal/heroimages"
	"github.com/lehigh-university-libraries/herobanner/internal/models"
	"github.com/lehigh-university-libraries/herobanner/internal/validate"
)

// room for the multipart boundaries and the label field
const multipartOverhead = 64 * 1024

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, validate.MaxFileSize+multipartOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, "File too large (max 5MB)", http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	// read one byte past the limit so oversize files are detected, not truncated
	fileData, err := io.ReadAll(io.LimitReader(file, validate.MaxFileSize+1))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	record, err := h.images.Upload(r.Context(), heroimages.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        fileData,
		Label:       r.FormValue("label"),
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, models.Envelope{Success: true, Image: &record})
}
