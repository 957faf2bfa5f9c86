package slots

import (
	"github.com/lehigh-university-libraries/herobanner/internal/models"
	"github.com/lehigh-university-libraries/herobanner/internal/validate"
)

// PendingView describes the file waiting to be committed.
type PendingView struct {
	Name        string
	ContentType string
	Size        int64
	PreviewURL  string
	Width       int
	Height      int
}

// State is a copy of the controller state for rendering.
type State struct {
	Images       []models.ImageRecord
	ActiveIndex  int
	DisplayCount int
	NewSlot      bool
	Pending      *PendingView
	CanAddMore   bool
	CanDelete    bool
	Loading      bool
	Uploading    bool
	Error        string
}

// ActiveImage returns the record behind the active slot, if any.
func (s State) ActiveImage() (models.ImageRecord, bool) {
	if s.NewSlot || s.ActiveIndex < 0 || s.ActiveIndex >= len(s.Images) {
		return models.ImageRecord{}, false
	}
	return s.Images[s.ActiveIndex], true
}

// Snapshot copies the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	images := make([]models.ImageRecord, len(c.images))
	copy(images, c.images)

	_, isNew := c.active.(NewSlot)
	st := State{
		Images:       images,
		ActiveIndex:  c.activeIndexLocked(),
		DisplayCount: len(images),
		NewSlot:      isNew,
		CanAddMore:   validate.CanAddMore(len(images)),
		CanDelete:    !isNew && validate.CanDelete(len(images)),
		Loading:      c.loading,
		Uploading:    c.uploading,
		Error:        c.errMsg,
	}
	if isNew {
		st.DisplayCount++
	}
	if c.pending != nil {
		st.Pending = &PendingView{
			Name:        c.pending.file.Name,
			ContentType: c.pending.file.ContentType,
			Size:        c.pending.file.Size(),
			PreviewURL:  c.pending.preview.URL(),
			Width:       c.pending.preview.Width,
			Height:      c.pending.preview.Height,
		}
	}
	return st
}
