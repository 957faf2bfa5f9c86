// Package alttext writes alt text for hero images with a vision model.
package alttext

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	DefaultModel = "gemini-2.0-flash"

	prompt = "Write alt text for this website hero banner image. " +
		"Describe what is shown in one sentence of at most 125 characters. " +
		"Do not start with \"Image of\" and return only the sentence."
)

// Gemini describes images with Google Gemini
type Gemini struct {
	APIKey      string
	Model       string
	Temperature float32
	opts        []option.ClientOption
}

// NewGemini returns a Gemini describer. An empty model uses DefaultModel.
func NewGemini(apiKey, model string, opts ...option.ClientOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{
		APIKey:      apiKey,
		Model:       model,
		Temperature: 0.2,
		opts:        opts,
	}, nil
}

// Describe returns one line of alt text for the image in data
func (g *Gemini) Describe(ctx context.Context, contentType string, data []byte) (string, error) {
	format, err := imageFormat(contentType)
	if err != nil {
		return "", err
	}

	opts := append([]option.ClientOption{option.WithAPIKey(g.APIKey)}, g.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.Model)
	model.SetTemperature(g.Temperature)

	resp, err := model.GenerateContent(ctx, genai.ImageData(format, data), genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return Clean(string(txt)), nil
	}

	return "", fmt.Errorf("unexpected response format from Gemini")
}

// imageFormat maps a MIME type to the short format genai.ImageData expects
func imageFormat(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg":
		return "jpeg", nil
	case "image/png":
		return "png", nil
	case "image/webp":
		return "webp", nil
	default:
		return "", fmt.Errorf("unsupported image type for alt text: %s", contentType)
	}
}

// Clean trims model output down to a single line without wrapping quotes
func Clean(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return strings.Trim(s, "\"'")
}
