package adminapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/herobanner/internal/validate"
)

// Fetcher loads images from local paths or http(s) URLs
type Fetcher struct {
	HTTPClient *http.Client
}

// NewFetcher creates a new image fetcher
func NewFetcher() *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Open reads src from disk, or downloads it when src is an http(s) URL.
func (f *Fetcher) Open(ctx context.Context, src string) (File, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return f.download(ctx, src)
	}
	return ReadFile(src)
}

func (f *Fetcher) download(ctx context.Context, src string) (File, error) {
	u, err := url.Parse(src)
	if err != nil {
		return File{}, fmt.Errorf("invalid image URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return File{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return File{}, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return File{}, fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	// one byte past the limit lets validation report the real problem
	data, err := io.ReadAll(io.LimitReader(resp.Body, validate.MaxFileSize+1))
	if err != nil {
		return File{}, fmt.Errorf("failed to read image data: %w", err)
	}

	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		name = "download"
	}

	contentType := resp.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && validate.IsAcceptedType(mt) {
		contentType = mt
	} else {
		contentType = validate.DetectContentType(name, data)
	}

	slog.Debug("Downloaded image", "url", src, "size", len(data), "type", contentType)
	return File{Name: name, ContentType: contentType, Data: data}, nil
}
