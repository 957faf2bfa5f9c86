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
	DefaultOpenAIURL   = "https://api.openai.com/v1"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// OpenAI describes images with the chat completions API
type OpenAI struct {
	URL         string
	APIKey      string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
}

// NewOpenAI returns an OpenAI describer. url and model fall back to the defaults.
func NewOpenAI(url, apiKey, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	if url == "" {
		url = DefaultOpenAIURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{
		URL:         strings.TrimRight(url, "/"),
		APIKey:      apiKey,
		Model:       model,
		Temperature: 0.2,
		HTTPClient:  &http.Client{Timeout: time.Minute},
	}, nil
}

func (o *OpenAI) Describe(ctx context.Context, contentType string, data []byte) (string, error) {
	if _, err := imageFormat(contentType); err != nil {
		return "", err
	}
	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)

	requestBody, err := json.Marshal(map[string]interface{}{
		"model": o.Model,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{"type": "text", "text": prompt},
					{"type": "image_url", "image_url": map[string]string{"url": dataURL}},
				},
			},
		},
		"temperature": o.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.URL+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.APIKey)

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
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}

	return Clean(response.Choices[0].Message.Content), nil
}
