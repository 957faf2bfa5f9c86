package slots

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/herobanner/internal/adminapi"
	"github.com/lehigh-university-libraries/herobanner/internal/models"
	"github.com/lehigh-university-libraries/herobanner/internal/preview"
	"github.com/lehigh-university-libraries/herobanner/internal/validate"
)

type upload struct {
	name  string
	label string
}

type fakeAPI struct {
	mu        sync.Mutex
	images    []models.ImageRecord
	nextID    int
	listErr   error
	uploadErr error
	deleteErr error
	uploads   []upload
	deletes   []string

	// when set, UploadImage waits for a value before returning
	release chan struct{}
	entered chan struct{}
}

func newFakeAPI(n int) *fakeAPI {
	api := &fakeAPI{}
	for i := 0; i < n; i++ {
		api.add(fmt.Sprintf("Hero Image %d", i+1))
	}
	return api
}

func (f *fakeAPI) add(label string) {
	f.nextID++
	id := fmt.Sprintf("img-%d", f.nextID)
	f.images = append(f.images, models.ImageRecord{ID: id, URL: "https://example.org/" + id, Alt: label})
}

func (f *fakeAPI) GetHeroImages(ctx context.Context) ([]models.ImageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.ImageRecord, len(f.images))
	copy(out, f.images)
	return out, nil
}

func (f *fakeAPI) UploadImage(ctx context.Context, file adminapi.File, label string) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, upload{name: file.Name, label: label})
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.add(label)
	return nil
}

func (f *fakeAPI) DeleteImage(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, img := range f.images {
		if img.ID == id {
			f.images = append(f.images[:i], f.images[i+1:]...)
			return nil
		}
	}
	return &adminapi.ServiceError{Op: "delete hero image", Status: 404, Message: "hero image not found"}
}

func jpeg(size int) adminapi.File {
	return adminapi.File{Name: "banner.jpg", ContentType: "image/jpeg", Data: make([]byte, size)}
}

func newController(t *testing.T, api *fakeAPI) (*Controller, *preview.Store) {
	t.Helper()
	store, err := preview.NewStore(t.TempDir())
	require.NoError(t, err)
	c := New(api, store, "")
	t.Cleanup(func() { _ = c.Close() })
	return c, store
}

func loaded(t *testing.T, n int) (*Controller, *fakeAPI, *preview.Store) {
	t.Helper()
	api := newFakeAPI(n)
	c, store := newController(t, api)
	require.NoError(t, c.Refresh(context.Background(), false))
	return c, api, store
}

func yes(models.ImageRecord) bool { return true }

func TestInitialStateIsNewSlot(t *testing.T) {
	c, _ := newController(t, newFakeAPI(0))

	st := c.Snapshot()
	assert.True(t, st.NewSlot)
	assert.Equal(t, 0, st.ActiveIndex)
	assert.Equal(t, 1, st.DisplayCount)
	assert.Equal(t, NewSlot{}, c.Active())
}

func TestRefresh(t *testing.T) {
	t.Run("selects first image after initial load", func(t *testing.T) {
		c, _, _ := loaded(t, 3)
		st := c.Snapshot()
		assert.False(t, st.NewSlot)
		assert.Equal(t, 0, st.ActiveIndex)
		assert.Equal(t, 3, st.DisplayCount)
	})

	t.Run("selectLast picks the last image", func(t *testing.T) {
		c, _, _ := loaded(t, 3)
		require.NoError(t, c.Refresh(context.Background(), true))
		assert.Equal(t, ExistingSlot{Index: 2}, c.Active())
	})

	t.Run("clamps when the list shrinks", func(t *testing.T) {
		c, api, _ := loaded(t, 4)
		require.NoError(t, c.SelectSlot(3))
		api.images = api.images[:2]
		require.NoError(t, c.Refresh(context.Background(), false))
		assert.Equal(t, ExistingSlot{Index: 1}, c.Active())
	})

	t.Run("empty list falls back to new slot", func(t *testing.T) {
		c, api, _ := loaded(t, 2)
		api.images = nil
		require.NoError(t, c.Refresh(context.Background(), false))
		assert.Equal(t, NewSlot{}, c.Active())
		assert.Equal(t, 0, c.Snapshot().ActiveIndex)
	})

	t.Run("new slot with a pending file stays a new slot", func(t *testing.T) {
		c, api, store := loaded(t, 2)
		require.True(t, c.BeginNewSlot())
		require.NoError(t, c.SelectFile(jpeg(100)))

		require.NoError(t, c.Refresh(context.Background(), false))

		st := c.Snapshot()
		assert.True(t, st.NewSlot)
		assert.NotNil(t, st.Pending)
		assert.Equal(t, 1, store.Live())

		assert.ErrorIs(t, c.CommitReplace(context.Background()), ErrNotAllowed)
		assert.Empty(t, api.deletes)

		require.NoError(t, c.CommitNewSlot(context.Background()))
		assert.Len(t, api.images, 3)
	})

	t.Run("new slot with a pending file drops it when the list fills up", func(t *testing.T) {
		c, api, store := loaded(t, 2)
		require.True(t, c.BeginNewSlot())
		require.NoError(t, c.SelectFile(jpeg(100)))

		for len(api.images) < validate.MaxImages {
			api.add("added elsewhere")
		}
		require.NoError(t, c.Refresh(context.Background(), false))

		st := c.Snapshot()
		assert.False(t, st.NewSlot)
		assert.Equal(t, validate.MaxImages-1, st.ActiveIndex)
		assert.Nil(t, st.Pending)
		assert.Equal(t, 0, store.Live())

		assert.ErrorIs(t, c.CommitReplace(context.Background()), ErrNotAllowed)
		assert.Empty(t, api.deletes)
	})

	t.Run("failure keeps images and surfaces error", func(t *testing.T) {
		c, api, _ := loaded(t, 2)
		api.listErr = &adminapi.TransportError{Op: "list hero images", Err: errors.New("connection refused")}

		err := c.Refresh(context.Background(), false)
		require.Error(t, err)

		st := c.Snapshot()
		assert.Len(t, st.Images, 2)
		assert.Contains(t, st.Error, "connection refused")

		c.DismissError()
		assert.Empty(t, c.Snapshot().Error)
	})
}

func TestSelectSlot(t *testing.T) {
	c, _, store := loaded(t, 3)

	require.NoError(t, c.SelectFile(jpeg(10)))
	assert.Equal(t, 1, store.Live())

	require.NoError(t, c.SelectSlot(2))
	assert.Equal(t, ExistingSlot{Index: 2}, c.Active())
	assert.Nil(t, c.Snapshot().Pending)
	assert.Equal(t, 0, store.Live())

	require.NoError(t, c.SelectSlot(3))
	assert.Equal(t, NewSlot{}, c.Active())
	assert.Equal(t, 4, c.Snapshot().DisplayCount)

	assert.ErrorIs(t, c.SelectSlot(4), ErrNotAllowed)
	assert.ErrorIs(t, c.SelectSlot(-1), ErrNotAllowed)
}

func TestSelectSlotNewSlotAtCapacity(t *testing.T) {
	c, _, _ := loaded(t, validate.MaxImages)
	assert.ErrorIs(t, c.SelectSlot(validate.MaxImages), ErrNotAllowed)
}

func TestSelectFileRejectsInvalidFiles(t *testing.T) {
	tests := []struct {
		name string
		file adminapi.File
		kind validate.Kind
	}{
		{name: "gif", file: adminapi.File{Name: "a.gif", ContentType: "image/gif", Data: []byte("GIF89a")}, kind: validate.UnsupportedFormat},
		{name: "pdf", file: adminapi.File{Name: "a.pdf", ContentType: "application/pdf", Data: []byte("%PDF")}, kind: validate.UnsupportedFormat},
		{name: "too large", file: jpeg(int(validate.MaxFileSize) + 1), kind: validate.FileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, store := loaded(t, 1)

			err := c.SelectFile(tt.file)
			var verr *validate.Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.kind, verr.Kind)

			st := c.Snapshot()
			assert.Nil(t, st.Pending)
			assert.NotEmpty(t, st.Error)
			assert.Equal(t, 0, store.Live())
		})
	}
}

func TestSelectFileAcceptsExactLimit(t *testing.T) {
	c, _, store := loaded(t, 1)
	require.NoError(t, c.SelectFile(jpeg(int(validate.MaxFileSize))))
	assert.Equal(t, 1, store.Live())
	require.NotNil(t, c.Snapshot().Pending)
	assert.Equal(t, validate.MaxFileSize, c.Snapshot().Pending.Size)
}

func TestSelectFileKeepsOneLivePreview(t *testing.T) {
	c, _, store := loaded(t, 1)

	require.NoError(t, c.SelectFile(jpeg(10)))
	first := c.Snapshot().Pending.PreviewURL
	require.NoError(t, c.SelectFile(jpeg(20)))
	second := c.Snapshot().Pending.PreviewURL

	assert.Equal(t, 1, store.Live())
	assert.NotEqual(t, first, second)

	// a rejected file leaves the current pending file alone
	require.Error(t, c.SelectFile(adminapi.File{Name: "x.gif", ContentType: "image/gif"}))
	assert.Equal(t, second, c.Snapshot().Pending.PreviewURL)
	assert.Equal(t, 1, store.Live())
}

func TestCommitNewSlotFromEmpty(t *testing.T) {
	api := newFakeAPI(0)
	c, store := newController(t, api)
	require.NoError(t, c.Refresh(context.Background(), false))
	assert.Equal(t, NewSlot{}, c.Active())

	require.NoError(t, c.SelectFile(jpeg(2*1024*1024)))
	require.NoError(t, c.CommitNewSlot(context.Background()))

	st := c.Snapshot()
	require.Len(t, st.Images, 1)
	assert.Equal(t, 0, st.ActiveIndex)
	assert.False(t, st.NewSlot)
	assert.Nil(t, st.Pending)
	assert.Equal(t, 0, store.Live())
	assert.Equal(t, []upload{{name: "banner.jpg", label: "Hero Image 1"}}, api.uploads)
}

func TestCommitNewSlotSelectsLast(t *testing.T) {
	c, api, store := loaded(t, 3)
	require.True(t, c.BeginNewSlot())
	require.NoError(t, c.SelectFile(jpeg(100)))
	require.NoError(t, c.CommitNewSlot(context.Background()))

	assert.Equal(t, ExistingSlot{Index: 3}, c.Active())
	assert.Equal(t, "Hero Image 4", api.uploads[0].label)
	assert.Equal(t, 0, store.Live())
}

func TestCommitNewSlotFailureKeepsPending(t *testing.T) {
	c, api, store := loaded(t, 1)
	require.True(t, c.BeginNewSlot())
	require.NoError(t, c.SelectFile(jpeg(100)))
	api.uploadErr = &adminapi.ServiceError{Op: "upload hero image", Status: 500, Message: "storage unavailable"}

	err := c.CommitNewSlot(context.Background())
	require.Error(t, err)

	st := c.Snapshot()
	assert.NotNil(t, st.Pending)
	assert.True(t, st.NewSlot)
	assert.Equal(t, "storage unavailable", st.Error)
	assert.Equal(t, 1, store.Live())

	// retry without re-selecting
	api.uploadErr = nil
	require.NoError(t, c.CommitNewSlot(context.Background()))
	assert.Len(t, c.Snapshot().Images, 2)
	assert.Equal(t, 0, store.Live())
}

func TestCommitNewSlotRequiresNewSlotAndFile(t *testing.T) {
	c, _, _ := loaded(t, 2)

	assert.ErrorIs(t, c.CommitNewSlot(context.Background()), ErrNotAllowed)

	require.NoError(t, c.SelectFile(jpeg(10)))
	assert.ErrorIs(t, c.CommitNewSlot(context.Background()), ErrNotAllowed)
}

func TestCommitReplace(t *testing.T) {
	c, api, store := loaded(t, 3)
	require.NoError(t, c.SelectSlot(1))
	replaced := c.Snapshot().Images[1]

	require.NoError(t, c.SelectFile(jpeg(100)))
	require.NoError(t, c.CommitReplace(context.Background()))

	assert.Equal(t, []string{replaced.ID}, api.deletes)
	assert.Equal(t, replaced.Alt, api.uploads[0].label)

	st := c.Snapshot()
	assert.Len(t, st.Images, 3)
	assert.Nil(t, st.Pending)
	assert.Equal(t, 1, st.ActiveIndex)
	assert.Equal(t, 0, store.Live())
}

func TestCommitReplaceFallsBackToDefaultLabel(t *testing.T) {
	c, api, _ := loaded(t, 2)
	api.images[1].Alt = ""
	require.NoError(t, c.Refresh(context.Background(), false))
	require.NoError(t, c.SelectSlot(1))
	require.NoError(t, c.SelectFile(jpeg(100)))

	require.NoError(t, c.CommitReplace(context.Background()))
	assert.Equal(t, "Hero Image 2", api.uploads[0].label)
}

func TestCommitReplaceDeleteFails(t *testing.T) {
	c, api, store := loaded(t, 2)
	require.NoError(t, c.SelectFile(jpeg(100)))
	api.deleteErr = &adminapi.ServiceError{Op: "delete hero image", Status: 500, Message: "bucket unavailable"}

	require.Error(t, c.CommitReplace(context.Background()))

	st := c.Snapshot()
	assert.Len(t, st.Images, 2)
	assert.NotNil(t, st.Pending)
	assert.Empty(t, api.uploads)
	assert.Equal(t, 1, store.Live())
}

func TestCommitReplaceUploadFailsLeavesSlotEmpty(t *testing.T) {
	c, api, store := loaded(t, 3)
	require.NoError(t, c.SelectSlot(2))
	require.NoError(t, c.SelectFile(jpeg(100)))
	api.uploadErr = &adminapi.TransportError{Op: "upload hero image", Err: errors.New("timeout")}

	err := c.CommitReplace(context.Background())
	var rerr *ReplaceError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "img-3", rerr.Deleted.ID)

	st := c.Snapshot()
	assert.Len(t, st.Images, 2)
	assert.Nil(t, st.Pending)
	assert.Equal(t, 0, store.Live())
	assert.Equal(t, 1, st.ActiveIndex)
	assert.Contains(t, st.Error, "could not be uploaded")
}

func TestDeleteActive(t *testing.T) {
	t.Run("decrements the active index", func(t *testing.T) {
		c, api, _ := loaded(t, 3)
		require.NoError(t, c.SelectSlot(1))

		deleted, err := c.DeleteActive(context.Background(), yes)
		require.NoError(t, err)
		assert.True(t, deleted)
		assert.Equal(t, []string{"img-2"}, api.deletes)
		assert.Equal(t, ExistingSlot{Index: 0}, c.Active())
		assert.Len(t, c.Snapshot().Images, 2)
	})

	t.Run("first slot stays first", func(t *testing.T) {
		c, _, _ := loaded(t, 3)
		_, err := c.DeleteActive(context.Background(), yes)
		require.NoError(t, err)
		assert.Equal(t, ExistingSlot{Index: 0}, c.Active())
	})

	t.Run("last slot moves back", func(t *testing.T) {
		c, _, _ := loaded(t, 3)
		require.NoError(t, c.SelectSlot(2))
		_, err := c.DeleteActive(context.Background(), yes)
		require.NoError(t, err)
		assert.Equal(t, ExistingSlot{Index: 1}, c.Active())
	})

	t.Run("declined confirmation sends nothing", func(t *testing.T) {
		c, api, _ := loaded(t, 3)
		var asked models.ImageRecord
		deleted, err := c.DeleteActive(context.Background(), func(r models.ImageRecord) bool {
			asked = r
			return false
		})
		require.NoError(t, err)
		assert.False(t, deleted)
		assert.Equal(t, "img-1", asked.ID)
		assert.Empty(t, api.deletes)
	})

	t.Run("disallowed at minimum", func(t *testing.T) {
		c, api, _ := loaded(t, validate.MinImages)
		assert.False(t, c.Snapshot().CanDelete)
		_, err := c.DeleteActive(context.Background(), yes)
		assert.ErrorIs(t, err, ErrNotAllowed)
		assert.Empty(t, api.deletes)
	})

	t.Run("disallowed on new slot", func(t *testing.T) {
		c, _, _ := loaded(t, 3)
		require.True(t, c.BeginNewSlot())
		_, err := c.DeleteActive(context.Background(), yes)
		assert.ErrorIs(t, err, ErrNotAllowed)
	})

	t.Run("failure changes nothing", func(t *testing.T) {
		c, api, _ := loaded(t, 3)
		require.NoError(t, c.SelectSlot(2))
		api.deleteErr = &adminapi.ServiceError{Op: "delete hero image", Status: 500, Message: "nope"}

		deleted, err := c.DeleteActive(context.Background(), yes)
		require.Error(t, err)
		assert.False(t, deleted)
		st := c.Snapshot()
		assert.Len(t, st.Images, 3)
		assert.Equal(t, 2, st.ActiveIndex)
		assert.Equal(t, "nope", st.Error)
	})
}

func TestBeginNewSlot(t *testing.T) {
	c, _, store := loaded(t, 2)
	require.NoError(t, c.SelectFile(jpeg(10)))

	assert.True(t, c.BeginNewSlot())
	st := c.Snapshot()
	assert.True(t, st.NewSlot)
	assert.Equal(t, 2, st.ActiveIndex)
	assert.Equal(t, 3, st.DisplayCount)
	assert.Nil(t, st.Pending)
	assert.Equal(t, 0, store.Live())
}

func TestBeginNewSlotAtCapacity(t *testing.T) {
	c, _, _ := loaded(t, validate.MaxImages)
	require.NoError(t, c.SelectSlot(3))

	assert.False(t, c.Snapshot().CanAddMore)
	assert.False(t, c.BeginNewSlot())
	assert.Equal(t, ExistingSlot{Index: 3}, c.Active())
}

func TestCancelPending(t *testing.T) {
	t.Run("leaves new slot when images exist", func(t *testing.T) {
		c, _, store := loaded(t, 3)
		require.True(t, c.BeginNewSlot())
		require.NoError(t, c.SelectFile(jpeg(10)))

		c.CancelPending()
		st := c.Snapshot()
		assert.Equal(t, len(st.Images)-1, st.ActiveIndex)
		assert.False(t, st.NewSlot)
		assert.Nil(t, st.Pending)
		assert.Equal(t, 0, store.Live())
	})

	t.Run("stays on new slot when empty", func(t *testing.T) {
		c, _, store := loaded(t, 0)
		require.NoError(t, c.SelectFile(jpeg(10)))
		c.CancelPending()
		assert.Equal(t, NewSlot{}, c.Active())
		assert.Equal(t, 0, store.Live())
	})

	t.Run("existing slot keeps selection", func(t *testing.T) {
		c, _, _ := loaded(t, 3)
		require.NoError(t, c.SelectSlot(1))
		require.NoError(t, c.SelectFile(jpeg(10)))
		c.CancelPending()
		assert.Equal(t, ExistingSlot{Index: 1}, c.Active())
	})
}

func TestCloseReleasesPreview(t *testing.T) {
	c, _, store := loaded(t, 1)
	require.NoError(t, c.SelectFile(jpeg(10)))
	assert.Equal(t, 1, store.Live())

	require.NoError(t, c.Close())
	assert.Equal(t, 0, store.Live())
	assert.ErrorIs(t, c.SelectFile(jpeg(10)), ErrNotAllowed)
	assert.Equal(t, 0, store.Live())
}

func TestConcurrentCommitIsRejected(t *testing.T) {
	c, api, _ := loaded(t, 1)
	require.True(t, c.BeginNewSlot())
	require.NoError(t, c.SelectFile(jpeg(10)))

	api.entered = make(chan struct{})
	api.release = make(chan struct{})

	errc := make(chan error, 1)
	go func() { errc <- c.CommitNewSlot(context.Background()) }()
	<-api.entered

	assert.True(t, c.Snapshot().Uploading)
	assert.ErrorIs(t, c.CommitNewSlot(context.Background()), ErrBusy)

	// loading class is independent
	api.entered = nil
	require.NoError(t, c.Refresh(context.Background(), false))

	close(api.release)
	require.NoError(t, <-errc)
	assert.False(t, c.Snapshot().Uploading)
	assert.Len(t, api.uploads, 1)
}
