// Package slots holds the state of the hero image admin screen: the images
// the server reports, which slot is active, and the local file waiting to
// fill or replace that slot.
package slots

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/lehigh-university-libraries/herobanner/internal/adminapi"
	"github.com/lehigh-university-libraries/herobanner/internal/models"
	"github.com/lehigh-university-libraries/herobanner/internal/preview"
	"github.com/lehigh-university-libraries/herobanner/internal/validate"
)

// DefaultLabelPrefix names new images "Hero Image 1", "Hero Image 2", ...
const DefaultLabelPrefix = "Hero Image"

// API is the subset of the admin API the controller needs.
type API interface {
	GetHeroImages(ctx context.Context) ([]models.ImageRecord, error)
	UploadImage(ctx context.Context, file adminapi.File, label string) error
	DeleteImage(ctx context.Context, id string) error
}

// Previewer creates and revokes preview handles.
type Previewer interface {
	Create(name string, data []byte) (*preview.Handle, error)
	Release(h *preview.Handle)
}

// Confirm is asked before a destructive delete. Returning false aborts it.
type Confirm func(models.ImageRecord) bool

type pendingFile struct {
	file    adminapi.File
	preview *preview.Handle
}

// Controller is safe for use from a UI goroutine plus the goroutines running
// its network calls. State is never locked across a network call.
type Controller struct {
	api         API
	previews    Previewer
	labelPrefix string

	// one request per class; a second caller gets ErrBusy instead of waiting
	loadSem   *semaphore.Weighted
	uploadSem *semaphore.Weighted

	mu        sync.Mutex
	images    []models.ImageRecord
	active    Slot
	pending   *pendingFile
	errMsg    string
	loading   bool
	uploading bool
	closed    bool
}

// New returns a controller with no images, sitting on the new slot.
func New(api API, previews Previewer, labelPrefix string) *Controller {
	if labelPrefix == "" {
		labelPrefix = DefaultLabelPrefix
	}
	return &Controller{
		api:         api,
		previews:    previews,
		labelPrefix: labelPrefix,
		loadSem:     semaphore.NewWeighted(1),
		uploadSem:   semaphore.NewWeighted(1),
		images:      []models.ImageRecord{},
		active:      NewSlot{},
	}
}

// Refresh replaces the image list with the server's. With selectLast the
// last image becomes active, otherwise the active index is clamped to the
// new list. A failed fetch leaves the list untouched.
func (c *Controller) Refresh(ctx context.Context, selectLast bool) error {
	done, err := c.begin(c.loadSem, &c.loading)
	if err != nil {
		return err
	}
	defer done()

	return c.refresh(ctx, selectLast)
}

func (c *Controller) refresh(ctx context.Context, selectLast bool) error {
	images, err := c.api.GetHeroImages(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.failLocked("refresh", err)
		return err
	}

	prev := c.activeIndexLocked()
	_, wasNew := c.active.(NewSlot)
	c.images = images
	n := len(images)
	switch {
	case n == 0:
		c.active = NewSlot{}
	case selectLast:
		c.active = ExistingSlot{Index: n - 1}
	case wasNew && c.pending != nil && validate.CanAddMore(n):
		// a file picked for a new slot must never turn into a replace
	default:
		c.active = ExistingSlot{Index: min(prev, n-1)}
	}

	if _, isNew := c.active.(NewSlot); wasNew && !isNew {
		c.releasePendingLocked()
	}

	slog.Debug("Hero images refreshed", "count", n, "active", c.activeIndexLocked())
	return nil
}

// SelectSlot activates images[index], or the new slot when index equals the
// image count. Any pending file is discarded.
func (c *Controller) SelectSlot(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.images)
	switch {
	case index >= 0 && index < n:
		c.active = ExistingSlot{Index: index}
	case index == n && validate.CanAddMore(n):
		c.active = NewSlot{}
	default:
		return fmt.Errorf("%w: slot %d with %d images", ErrNotAllowed, index, n)
	}

	c.releasePendingLocked()
	return nil
}

// SelectFile validates f and makes it the pending file for the active slot.
func (c *Controller) SelectFile(f adminapi.File) error {
	if err := validate.File(f.ContentType, f.Size()); err != nil {
		c.mu.Lock()
		c.failLocked("select file", err)
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("%w: controller closed", ErrNotAllowed)
	}

	// the old handle must be gone before the new one exists
	c.releasePendingLocked()

	h, err := c.previews.Create(f.Name, f.Data)
	if err != nil {
		c.failLocked("create preview", err)
		return err
	}
	c.pending = &pendingFile{file: f, preview: h}
	return nil
}

// CommitNewSlot uploads the pending file as a new image and selects it.
// A failed upload keeps the pending file so the admin can retry.
func (c *Controller) CommitNewSlot(ctx context.Context) error {
	done, err := c.begin(c.uploadSem, &c.uploading)
	if err != nil {
		return err
	}
	defer done()

	c.mu.Lock()
	_, isNew := c.active.(NewSlot)
	p := c.pending
	if !isNew || p == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: no pending file for a new slot", ErrNotAllowed)
	}
	label := c.labelLocked(len(c.images) + 1)
	c.mu.Unlock()

	if err := c.api.UploadImage(ctx, p.file, label); err != nil {
		c.mu.Lock()
		c.failLocked("upload", err)
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.releaseIfPendingLocked(p)
	c.mu.Unlock()

	return c.refresh(ctx, true)
}

// CommitReplace swaps the active image for the pending file by deleting the
// record and uploading the file under the old label. The two calls are not
// atomic: when the delete succeeds and the upload fails, the image is gone,
// the pending file is dropped, and a *ReplaceError is returned.
func (c *Controller) CommitReplace(ctx context.Context) error {
	done, err := c.begin(c.uploadSem, &c.uploading)
	if err != nil {
		return err
	}
	defer done()

	c.mu.Lock()
	slot, ok := c.active.(ExistingSlot)
	p := c.pending
	if !ok || p == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: no pending file for an existing slot", ErrNotAllowed)
	}
	record := c.images[slot.Index]
	label := record.Alt
	if label == "" {
		label = c.labelLocked(slot.Index + 1)
	}
	c.mu.Unlock()

	if err := c.api.DeleteImage(ctx, record.ID); err != nil {
		c.mu.Lock()
		c.failLocked("replace", err)
		c.mu.Unlock()
		return err
	}

	if err := c.api.UploadImage(ctx, p.file, label); err != nil {
		rerr := &ReplaceError{Deleted: record, Err: err}
		slog.Error("Replace left slot empty", "id", record.ID, "err", err)

		c.mu.Lock()
		c.releaseIfPendingLocked(p)
		c.mu.Unlock()

		_ = c.refresh(ctx, false)

		c.mu.Lock()
		c.failLocked("replace", rerr)
		c.mu.Unlock()
		return rerr
	}

	c.mu.Lock()
	c.releaseIfPendingLocked(p)
	c.mu.Unlock()

	return c.refresh(ctx, false)
}

// DeleteActive removes the active image after confirm agrees. It reports
// whether the delete was sent and succeeded.
func (c *Controller) DeleteActive(ctx context.Context, confirm Confirm) (bool, error) {
	done, err := c.begin(c.loadSem, &c.loading)
	if err != nil {
		return false, err
	}
	defer done()

	c.mu.Lock()
	slot, ok := c.active.(ExistingSlot)
	if !ok || !validate.CanDelete(len(c.images)) {
		n := len(c.images)
		c.mu.Unlock()
		return false, fmt.Errorf("%w: cannot delete with %d images", ErrNotAllowed, n)
	}
	record := c.images[slot.Index]
	c.mu.Unlock()

	if confirm == nil || !confirm(record) {
		slog.Debug("Delete not confirmed", "id", record.ID)
		return false, nil
	}

	if err := c.api.DeleteImage(ctx, record.ID); err != nil {
		c.mu.Lock()
		c.failLocked("delete", err)
		c.mu.Unlock()
		return false, err
	}

	if err := c.refresh(ctx, false); err != nil {
		return true, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if slot.Index > 0 && len(c.images) > 0 {
		c.active = ExistingSlot{Index: min(slot.Index-1, len(c.images)-1)}
	}
	c.releasePendingLocked()
	return true, nil
}

// BeginNewSlot moves to the new slot if fewer than MaxImages exist.
func (c *Controller) BeginNewSlot() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !validate.CanAddMore(len(c.images)) {
		return false
	}
	c.active = NewSlot{}
	c.releasePendingLocked()
	return true
}

// CancelPending drops the pending file. On the new slot with images present
// the last image becomes active again.
func (c *Controller) CancelPending() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.releasePendingLocked()
	if _, ok := c.active.(NewSlot); ok && len(c.images) > 0 {
		c.active = ExistingSlot{Index: len(c.images) - 1}
	}
}

// DismissError clears the message shown to the admin.
func (c *Controller) DismissError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = ""
}

// Close releases the pending preview. Later SelectFile calls fail.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.releasePendingLocked()
	return nil
}

// Active returns the active slot.
func (c *Controller) Active() Slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Controller) begin(sem *semaphore.Weighted, flag *bool) (func(), error) {
	if !sem.TryAcquire(1) {
		return nil, ErrBusy
	}
	c.mu.Lock()
	*flag = true
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		*flag = false
		c.mu.Unlock()
		sem.Release(1)
	}, nil
}

func (c *Controller) activeIndexLocked() int {
	switch s := c.active.(type) {
	case ExistingSlot:
		return s.Index
	default:
		return len(c.images)
	}
}

func (c *Controller) labelLocked(n int) string {
	return fmt.Sprintf("%s %d", c.labelPrefix, n)
}

func (c *Controller) releasePendingLocked() {
	if c.pending == nil {
		return
	}
	c.previews.Release(c.pending.preview)
	c.pending = nil
}

// releaseIfPendingLocked leaves a newer selection made during the request alone.
func (c *Controller) releaseIfPendingLocked(p *pendingFile) {
	if c.pending == p {
		c.releasePendingLocked()
	}
}

func (c *Controller) failLocked(op string, err error) {
	slog.Warn("Hero image operation failed", "op", op, "err", err)
	c.errMsg = Message(err)
}
