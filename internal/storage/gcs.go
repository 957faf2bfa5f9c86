package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gcs "google.golang.org/api/storage/v1"
)

// GCSBucket stores objects in a Google Cloud Storage bucket. Visibility is
// governed by bucket-level IAM; objects get no ACLs.
type GCSBucket struct {
	Name    string
	service *gcs.Service
}

// NewGCSBucket connects with application default credentials (the service
// account on Cloud Run) unless opts say otherwise, and checks the bucket exists.
func NewGCSBucket(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCSBucket, error) {
	if bucket == "" {
		return nil, errors.New("GCS bucket name not set")
	}

	service, err := gcs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	if _, err := service.Buckets.Get(bucket).Context(ctx).Do(); err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("GCS bucket %q does not exist", bucket)
		}
		return nil, fmt.Errorf("failed to look up GCS bucket %q: %w", bucket, err)
	}

	slog.Info("GCS client initialized", "bucket", bucket)
	return &GCSBucket{Name: bucket, service: service}, nil
}

func (b *GCSBucket) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	obj := &gcs.Object{Name: name, ContentType: contentType}
	_, err := b.service.Objects.Insert(b.Name, obj).
		Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return b.PublicURL(name), nil
}

func (b *GCSBucket) Get(ctx context.Context, name string) ([]byte, error) {
	resp, err := b.service.Objects.Get(b.Name, name).Context(ctx).Download()
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("failed to download %s: %w", name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

func (b *GCSBucket) Delete(ctx context.Context, name string) error {
	err := b.service.Objects.Delete(b.Name, name).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			// already gone counts as deleted
			slog.Warn("Hero image not found in GCS", "object", name)
			return nil
		}
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

func (b *GCSBucket) PublicURL(name string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.Name, (&url.URL{Path: name}).EscapedPath())
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
