package genai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/kotae/pkg/utils"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.5
	defaultTimeout     = 60 * time.Second
)

// OpenAIGenerator implements Generator using the OpenAI chat completions API
// (or any OpenAI-compatible provider via a base URL override).
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	temperature float64
	timeout     time.Duration
}

// Option configures an OpenAIGenerator.
type Option func(*OpenAIGenerator)

// WithModel sets the chat model name.
func WithModel(model string) Option {
	return func(g *OpenAIGenerator) { g.model = model }
}

// WithTemperature sets the sampling temperature, clamped to the API range.
func WithTemperature(t float64) Option {
	return func(g *OpenAIGenerator) { g.temperature = utils.Clamp(t, 0, 2) }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(g *OpenAIGenerator) { g.timeout = d }
}

// NewOpenAIGenerator creates a generator backed by the OpenAI API.
// An empty baseURL uses the default API endpoint.
func NewOpenAIGenerator(apiKey, baseURL string, opts ...Option) *OpenAIGenerator {
	g := &OpenAIGenerator{
		model:       defaultModel,
		temperature: defaultTemperature,
		timeout:     defaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(clientOpts...)
	g.client = &client
	return g
}

// Complete sends the system instruction and user prompt and returns the reply text.
func (g *OpenAIGenerator) Complete(ctx context.Context, system, user string) (string, error) {
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(g.temperature),
	})
	if err != nil {
		return "", &ProviderError{Model: g.model, Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ProviderError{Model: g.model, Err: fmt.Errorf("empty choices in response")}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &ProviderError{Model: g.model, Err: fmt.Errorf("empty completion content")}
	}
	return text, nil
}

// Model returns the chat model identifier.
func (g *OpenAIGenerator) Model() string {
	return g.model
}

// Close is a no-op for OpenAIGenerator.
func (g *OpenAIGenerator) Close() error {
	return nil
}
