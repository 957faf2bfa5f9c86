package alttext

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "llava"
)

// Ollama describes images with a local vision model
type Ollama struct {
	URL         string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
}

// NewOllama returns an Ollama describer. Empty arguments use the defaults.
func NewOllama(url, model string) *Ollama {
	if url == "" {
		url = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	return &Ollama{
		URL:         strings.TrimRight(url, "/"),
		Model:       model,
		Temperature: 0.2,
		HTTPClient:  &http.Client{Timeout: 2 * time.Minute},
	}
}

func (o *Ollama) Describe(ctx context.Context, contentType string, data []byte) (string, error) {
	if _, err := imageFormat(contentType); err != nil {
		return "", err
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model":  o.Model,
		"prompt": prompt,
		"images": []string{base64.StdEncoding.EncodeToString(data)},
		"stream": false,
		"options": map[string]interface{}{
			"temperature": o.Temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.URL+"/api/generate", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	return Clean(response.Response), nil
}
