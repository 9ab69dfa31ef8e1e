package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// Gemini adapts the Google GenAI SDK to the Backend contract.
type Gemini struct {
	client *genai.Client
}

// NewGemini constructs a Gemini backend bound to apiKey. Returns an error
// if the SDK client cannot be constructed (e.g. malformed configuration).
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Gemini{client: client}, nil
}

func (p *Gemini) Predict(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	var cfg *genai.GenerateContentConfig
	if temperature > 0 || maxTokens > 0 {
		cfg = &genai.GenerateContentConfig{}
		if temperature > 0 {
			cfg.Temperature = genai.Ptr(float32(temperature))
		}
		if maxTokens > 0 {
			cfg.MaxOutputTokens = int32(maxTokens)
		}
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", toGeminiError(err)
	}
	if resp == nil {
		return "", fmt.Errorf("gemini: empty response")
	}
	return resp.Text(), nil
}

var _ Backend = (*Gemini)(nil)

func toGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: "gemini", StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	return err
}
