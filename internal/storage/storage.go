// Package storage keeps hero image objects in a bucket: Google Cloud Storage
// in production, a local directory for development.
package storage

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Get for a missing object.
var ErrNotExist = errors.New("object does not exist")

// Bucket stores named objects.
type Bucket interface {
	// Put writes data under name and returns the object's public URL.
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	// Get reads an object, returning ErrNotExist when it is missing.
	Get(ctx context.Context, name string) ([]byte, error)
	// Delete removes an object. A missing object is not an error.
	Delete(ctx context.Context, name string) error
	// PublicURL is the address browsers load the object from.
	PublicURL(name string) string
}
