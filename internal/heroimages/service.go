// Package heroimages owns the ordered list of hero images behind the admin
// API. Image bytes live in a storage.Bucket; the order and alt text live in a
// YAML manifest stored next to them.
package heroimages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/herobanner/internal/models"
	"github.com/lehigh-university-libraries/herobanner/internal/storage"
	"github.com/lehigh-university-libraries/herobanner/internal/validate"
)

const (
	// Folder prefixes every object this service writes.
	Folder       = "hero_images"
	manifestName = Folder + "/manifest.yaml"
)

var (
	ErrNotFound     = errors.New("hero image not found")
	ErrLimitReached = fmt.Errorf("maximum of %d hero images reached", validate.MaxImages)
)

var allowedExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// Describer writes alt text for an image.
type Describer interface {
	Describe(ctx context.Context, contentType string, data []byte) (string, error)
}

// Upload is one incoming image.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
	Label       string
}

type manifest struct {
	Images []models.StoredImage `yaml:"images"`
}

// Service keeps the manifest in memory and writes it back after each change.
type Service struct {
	bucket    storage.Bucket
	describer Describer
	now       func() time.Time

	images []models.StoredImage
	mu     sync.RWMutex
}

// New loads the manifest from bucket. A missing manifest starts an empty list.
// describer may be nil.
func New(ctx context.Context, bucket storage.Bucket, describer Describer) (*Service, error) {
	s := &Service{
		bucket:    bucket,
		describer: describer,
		now:       time.Now,
	}

	data, err := bucket.Get(ctx, manifestName)
	switch {
	case errors.Is(err, storage.ErrNotExist):
		slog.Info("No hero image manifest found, starting empty")
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	s.images = m.Images
	slog.Info("Loaded hero image manifest", "count", len(s.images))
	return s, nil
}

// List returns the images in display order.
func (s *Service) List() []models.ImageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.ImageRecord, 0, len(s.images))
	for _, img := range s.images {
		records = append(records, img.Record())
	}
	return records
}

// Upload stores a new image at the end of the list. A declared content type
// must agree with what the bytes sniff as; an empty or generic one is
// replaced by the sniffed type.
func (s *Service) Upload(ctx context.Context, u Upload) (models.ImageRecord, error) {
	contentType, err := uploadType(u)
	if err != nil {
		return models.ImageRecord{}, err
	}

	if !validate.CanAddMore(s.count()) {
		return models.ImageRecord{}, ErrLimitReached
	}

	// Describe runs outside the lock
	alt := strings.TrimSpace(u.Label)
	if alt == "" && s.describer != nil {
		desc, err := s.describer.Describe(ctx, contentType, u.Data)
		if err != nil {
			slog.Warn("Failed to generate alt text", "filename", u.Filename, "err", err)
		} else {
			alt = desc
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !validate.CanAddMore(len(s.images)) {
		return models.ImageRecord{}, ErrLimitReached
	}

	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	object := ObjectName(id, u.Filename)
	url, err := s.bucket.Put(ctx, object, contentType, u.Data)
	if err != nil {
		return models.ImageRecord{}, fmt.Errorf("failed to upload hero image: %w", err)
	}

	img := models.StoredImage{
		ID:          id,
		Object:      object,
		URL:         url,
		Alt:         alt,
		ContentType: contentType,
		Size:        int64(len(u.Data)),
		CreatedAt:   s.now().UTC(),
	}
	s.images = append(s.images, img)

	if err := s.saveLocked(ctx); err != nil {
		// keep the manifest and the bucket in step
		s.images = s.images[:len(s.images)-1]
		if derr := s.bucket.Delete(ctx, object); derr != nil {
			slog.Error("Failed to remove orphaned hero image", "object", object, "err", derr)
		}
		return models.ImageRecord{}, err
	}

	slog.Info("Uploaded hero image", "object", object, "alt", alt, "size", img.Size)
	return img.Record(), nil
}

func (s *Service) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}

func uploadType(u Upload) (string, error) {
	size := int64(len(u.Data))
	sniffed := validate.SniffContentType(u.Data)
	if u.ContentType == "" || u.ContentType == "application/octet-stream" {
		return sniffed, validate.File(sniffed, size)
	}
	if err := validate.File(u.ContentType, size); err != nil {
		return "", err
	}
	if sniffed != u.ContentType {
		slog.Warn("Upload content does not match its declared type", "filename", u.Filename, "declared", u.ContentType, "sniffed", sniffed)
		return "", &validate.Error{Kind: validate.UnsupportedFormat, ContentType: sniffed}
	}
	return u.ContentType, nil
}

// Delete removes an image and its object.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, img := range s.images {
		if img.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}

	img := s.images[idx]
	if err := s.bucket.Delete(ctx, img.Object); err != nil {
		return fmt.Errorf("failed to delete hero image: %w", err)
	}

	remaining := make([]models.StoredImage, 0, len(s.images)-1)
	remaining = append(remaining, s.images[:idx]...)
	remaining = append(remaining, s.images[idx+1:]...)
	s.images = remaining

	if err := s.saveLocked(ctx); err != nil {
		// the object is already gone, so memory keeps the shorter list and
		// the next successful save catches the manifest up
		return err
	}

	slog.Info("Deleted hero image", "object", img.Object)
	return nil
}

func (s *Service) saveLocked(ctx context.Context) error {
	data, err := yaml.Marshal(&manifest{Images: s.images})
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if _, err := s.bucket.Put(ctx, manifestName, "application/yaml", data); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

// ObjectName builds "hero_images/<id><ext>", keeping only image extensions.
func ObjectName(id, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExts[ext] {
		ext = ".jpg"
	}
	return Folder + "/" + id + ext
}
