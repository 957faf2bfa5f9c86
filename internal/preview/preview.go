// Package preview manages local, revocable references to files that have not
// been uploaded yet. A handle is a private copy of the file in a temp
// directory; releasing the handle removes the copy.
package preview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

// ErrClosed is returned by Create after the store has been closed.
var ErrClosed = errors.New("preview store closed")

// Handle is a live preview of one pending file.
type Handle struct {
	ID     string
	Path   string
	Name   string
	Size   int64
	Width  int
	Height int
}

// URL returns a file:// URL a viewer can open.
func (h *Handle) URL() string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(h.Path)}
	return u.String()
}

// Store creates and tracks preview handles.
type Store struct {
	dir    string
	live   map[string]*Handle
	closed bool
	mu     sync.Mutex
}

// NewStore returns a store that writes previews under dir. An empty dir
// uses a fresh directory inside os.TempDir.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		d, err := os.MkdirTemp("", "herobanner-preview-")
		if err != nil {
			return nil, fmt.Errorf("failed to create preview directory: %w", err)
		}
		dir = d
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create preview directory: %w", err)
	}

	return &Store{
		dir:  dir,
		live: make(map[string]*Handle),
	}, nil
}

// Create copies data into the preview directory and returns a new handle.
func (s *Store) Create(name string, data []byte) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	id := uuid.New().String()
	path := filepath.Join(s.dir, id+strings.ToLower(filepath.Ext(name)))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write preview: %w", err)
	}

	h := &Handle{
		ID:   id,
		Path: path,
		Name: name,
		Size: int64(len(data)),
	}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		h.Width, h.Height = cfg.Width, cfg.Height
	} else {
		slog.Debug("Preview dimensions unavailable", "name", name, "err", err)
	}

	s.live[id] = h
	return h, nil
}

// Release revokes h. Releasing nil or an already released handle does nothing.
func (s *Store) Release(h *Handle) {
	if h == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live[h.ID]; !ok {
		return
	}
	delete(s.live, h.ID)
	if err := os.Remove(h.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Unable to remove preview file", "path", h.Path, "err", err)
	}
}

// Live reports how many handles are outstanding.
func (s *Store) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Close releases every outstanding handle and removes the preview directory.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for id, h := range s.live {
		delete(s.live, id)
		_ = os.Remove(h.Path)
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove preview directory: %w", err)
	}
	return nil
}
