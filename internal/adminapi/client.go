package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/herobanner/internal/models"
)

const (
	heroImagesPath = "/api/admin/hero-images"
	logoutPath     = "/api/admin/logout"
)

// File is a local image ready to be uploaded
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file length in bytes
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// Client talks to the hero image admin API
type Client struct {
	BaseURL    string
	httpClient *http.Client

	// OnLogout runs after a successful logout, e.g. to leave the admin screen
	OnLogout func()

	token string
	mu    sync.RWMutex
}

// NewClient creates a new admin API client
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithHTTPClient swaps the transport, mainly for tests
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// GetHeroImages fetches the authoritative image list
func (c *Client) GetHeroImages(ctx context.Context) ([]models.ImageRecord, error) {
	req, err := c.newRequest(ctx, http.MethodGet, heroImagesPath, nil)
	if err != nil {
		return nil, err
	}

	env, err := c.do(req, "list hero images")
	if err != nil {
		return nil, err
	}
	if env.Images == nil {
		return []models.ImageRecord{}, nil
	}
	return env.Images, nil
}

// UploadImage creates a new hero image from file, using label as its alt text
func (c *Client) UploadImage(ctx context.Context, file File, label string) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	header.Set("Content-Type", file.ContentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return &TransportError{Op: "upload hero image", Err: err}
	}
	if _, err := part.Write(file.Data); err != nil {
		return &TransportError{Op: "upload hero image", Err: err}
	}
	if err := w.WriteField("label", label); err != nil {
		return &TransportError{Op: "upload hero image", Err: err}
	}
	if err := w.Close(); err != nil {
		return &TransportError{Op: "upload hero image", Err: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, heroImagesPath, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	_, err = c.do(req, "upload hero image")
	if err == nil {
		slog.Info("Uploaded hero image", "name", file.Name, "label", label, "size", file.Size())
	}
	return err
}

// DeleteImage removes the hero image with the given id
func (c *Client) DeleteImage(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, heroImagesPath+"/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}

	_, err = c.do(req, "delete hero image")
	if err == nil {
		slog.Info("Deleted hero image", "id", id)
	}
	return err
}

// Logout ends the admin session. The token is dropped even when the server
// call fails, and OnLogout always runs.
func (c *Client) Logout(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodPost, logoutPath, nil)
	if err == nil {
		_, err = c.do(req, "logout")
	}

	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()

	if c.OnLogout != nil {
		c.OnLogout()
	}
	return err
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, &TransportError{Op: method + " " + path, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, op string) (*models.Envelope, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		// no envelope at all means a proxy or a crash answered, not the service
		return nil, &TransportError{
			Op:     op,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected response %q: %w", truncate(string(data), 120), err),
		}
	}

	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &ServiceError{Op: op, Status: resp.StatusCode, Message: msg}
	}

	if resp.StatusCode >= 300 {
		return nil, &TransportError{Op: op, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	return &env, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
