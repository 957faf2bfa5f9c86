package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// DiskBucket stores objects as files below Root and serves them under URLPrefix.
type DiskBucket struct {
	Root      string
	URLPrefix string
	mu        sync.RWMutex
}

// NewDiskBucket creates root if needed.
func NewDiskBucket(root, urlPrefix string) (*DiskBucket, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if urlPrefix == "" {
		urlPrefix = "/static"
	}
	return &DiskBucket{Root: root, URLPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (b *DiskBucket) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	p, err := b.path(name)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}
	// write then rename so readers never see half an object
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}

	slog.Debug("Stored object", "name", name, "content_type", contentType, "size", len(data))
	return b.PublicURL(name), nil
}

func (b *DiskBucket) Get(ctx context.Context, name string) ([]byte, error) {
	p, err := b.path(name)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

func (b *DiskBucket) Delete(ctx context.Context, name string) error {
	p, err := b.path(name)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("Object not found on disk", "name", name)
			return nil
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func (b *DiskBucket) PublicURL(name string) string {
	return b.URLPrefix + "/" + path.Clean(name)
}

// path maps an object name into Root, refusing names that escape it.
func (b *DiskBucket) path(name string) (string, error) {
	clean := path.Clean("/" + name)
	if clean == "/" || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return filepath.Join(b.Root, filepath.FromSlash(clean)), nil
}
