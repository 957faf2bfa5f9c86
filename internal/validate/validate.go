// Package validate holds the client and server side checks for hero images.
// Nothing in here performs I/O.
package validate

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	// MaxFileSize is the largest accepted upload. A file of exactly this size is accepted.
	MaxFileSize int64 = 5 * 1024 * 1024

	// MaxImages bounds how many hero images may exist; no new slot can be added beyond it.
	MaxImages = 8

	// MinImages is the fewest hero images allowed to remain after a delete.
	MinImages = 1
)

// AcceptedTypes lists the MIME types hero images may use.
var AcceptedTypes = []string{"image/jpeg", "image/png", "image/webp"}

// Kind classifies a validation failure.
type Kind int

const (
	UnsupportedFormat Kind = iota + 1
	FileTooLarge
)

func (k Kind) String() string {
	switch k {
	case UnsupportedFormat:
		return "unsupported format"
	case FileTooLarge:
		return "file too large"
	default:
		return "invalid file"
	}
}

// Error is returned for files that never reach the network.
type Error struct {
	Kind        Kind
	ContentType string
	Size        int64
}

func (e *Error) Error() string {
	switch e.Kind {
	case UnsupportedFormat:
		return fmt.Sprintf("unsupported image format %q (use JPEG, PNG or WebP)", e.ContentType)
	case FileTooLarge:
		return fmt.Sprintf("file is %d bytes, the limit is %d bytes (5MB)", e.Size, MaxFileSize)
	default:
		return e.Kind.String()
	}
}

// IsAcceptedType reports whether contentType is exactly one of AcceptedTypes.
// Parameters and upper case are rejected; callers holding a raw header parse
// it with mime.ParseMediaType first.
func IsAcceptedType(contentType string) bool {
	for _, t := range AcceptedTypes {
		if contentType == t {
			return true
		}
	}
	return false
}

func CheckType(contentType string) error {
	if !IsAcceptedType(contentType) {
		return &Error{Kind: UnsupportedFormat, ContentType: contentType}
	}
	return nil
}

func CheckSize(size int64) error {
	if size > MaxFileSize {
		return &Error{Kind: FileTooLarge, Size: size}
	}
	return nil
}

// File runs the type check and then the size check.
func File(contentType string, size int64) error {
	if err := CheckType(contentType); err != nil {
		return err
	}
	return CheckSize(size)
}

// CanAddMore reports whether another image may be created when count exist.
func CanAddMore(count int) bool {
	return count < MaxImages
}

// CanDelete reports whether one of count images may be deleted.
func CanDelete(count int) bool {
	return count > MinImages
}

// SniffContentType reports the type the bytes themselves declare, ignoring
// any filename.
func SniffContentType(data []byte) string {
	return normalize(http.DetectContentType(data))
}

// DetectContentType sniffs data and falls back to the file extension when
// sniffing only yields a generic type.
func DetectContentType(filename string, data []byte) string {
	sniffed := SniffContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		return normalize(byExt)
	}
	return sniffed
}

func normalize(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}
