package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 4096

// Anthropic adapts the Claude Messages API to the Backend contract. This
// backend is an addition beyond the distilled spec's two remote providers —
// the router dispatches model names with a "claude-" prefix to it, falling
// back to the same local/dummy slot as openai and gemini.
type Anthropic struct {
	client anthropic.Client
}

// NewAnthropic constructs an Anthropic backend bound to apiKey.
func NewAnthropic(apiKey string) *Anthropic {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: defaultTimeout}),
	)
	return &Anthropic{client: client}
}

func (p *Anthropic) Predict(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					{OfText: &anthropic.TextBlockParam{Text: prompt}},
				},
			},
		},
	}
	if temperature > 0 {
		params.Temperature = anthropic.Float(temperature)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", toAnthropicError(err)
	}

	var out string
	for _, b := range msg.Content {
		if tb, ok := b.AsAny().(anthropic.TextBlock); ok {
			out += tb.Text
		}
	}
	return out, nil
}

var _ Backend = (*Anthropic)(nil)

func toAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: "anthropic", StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
	}
	return fmt.Errorf("anthropic: %w", err)
}
