package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openaiSDK "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// defaultTimeout bounds every upstream provider call.
const defaultTimeout = 30 * time.Second

// OpenAI adapts the OpenAI chat completions API to the Backend contract.
type OpenAI struct {
	client openaiSDK.Client
}

// NewOpenAI constructs an OpenAI backend bound to apiKey.
func NewOpenAI(apiKey string) *OpenAI {
	client := openaiSDK.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{Timeout: defaultTimeout}),
	)
	return &OpenAI{client: client}
}

func (p *OpenAI) Predict(ctx context.Context, prompt, model string, temperature float64, maxTokens int) (string, error) {
	params := openaiSDK.ChatCompletionNewParams{
		Model: model,
		Messages: []openaiSDK.ChatCompletionMessageParamUnion{
			openaiSDK.UserMessage(prompt),
		},
	}
	if temperature != 0 {
		params.Temperature = openaiSDK.Float(temperature)
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = openaiSDK.Int(int64(maxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", toProviderError("openai", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ Backend = (*OpenAI)(nil)

// ProviderError is a structured error carrying the upstream HTTP status, so
// the HTTP surface can distinguish provider failures from internal ones.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s (status=%d)", e.Provider, e.Message, e.StatusCode)
}

// HTTPStatus lets the HTTP surface map this error without a type switch
// over every SDK's error type.
func (e *ProviderError) HTTPStatus() int { return e.StatusCode }

func toProviderError(provider string, err error) error {
	var apiErr *openaiSDK.Error
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: provider, StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
	}
	return err
}
