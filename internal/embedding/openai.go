package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultModel      = "text-embedding-3-small"
	defaultDimensions = 1536
	defaultTimeout    = 60 * time.Second
)

// OpenAIEmbedder implements Embedder using the OpenAI embeddings API
// (or any OpenAI-compatible provider via WithBaseURL).
type OpenAIEmbedder struct {
	client  *openai.Client
	model   string
	dims    int
	timeout time.Duration
	delay   time.Duration
	cache   *Cache

	mu   sync.Mutex
	last time.Time
}

// Option configures an OpenAIEmbedder.
type Option func(*OpenAIEmbedder)

// WithModel sets the embedding model name.
func WithModel(model string) Option {
	return func(e *OpenAIEmbedder) { e.model = model }
}

// WithDimensions sets the output vector dimensionality.
func WithDimensions(dims int) Option {
	return func(e *OpenAIEmbedder) { e.dims = dims }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *OpenAIEmbedder) { e.timeout = d }
}

// WithDelay sets the minimum delay between provider calls. This is rate-limit
// politeness for long batch runs, not a correctness requirement; 0 disables it.
func WithDelay(d time.Duration) Option {
	return func(e *OpenAIEmbedder) { e.delay = d }
}

// WithCacheSize sets the LRU cache capacity for embeddings keyed by text.
// 0 disables caching.
func WithCacheSize(n int) Option {
	return func(e *OpenAIEmbedder) {
		if n > 0 {
			e.cache = NewCache(n)
		}
	}
}

// NewOpenAIEmbedder creates an embedder backed by the OpenAI API.
// An empty baseURL uses the default API endpoint.
func NewOpenAIEmbedder(apiKey, baseURL string, opts ...Option) *OpenAIEmbedder {
	e := &OpenAIEmbedder{
		model:   defaultModel,
		dims:    defaultDimensions,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(clientOpts...)
	e.client = &client
	return e
}

// Embed returns the embedding for a single text. Cached results skip the
// provider call entirely (and the inter-call delay).
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	if e.cache != nil {
		if vec, ok := e.cache.Get(text); ok {
			return vec, nil
		}
	}

	e.throttle()

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.client.Embeddings.New(callCtx, openai.EmbeddingNewParams{
		Model:          e.model,
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: []string{text}},
		Dimensions:     openai.Int(int64(e.dims)),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, &ProviderError{Model: e.model, Err: err}
	}
	if len(resp.Data) != 1 {
		return nil, &ProviderError{Model: e.model, Err: fmt.Errorf("expected 1 embedding, got %d", len(resp.Data))}
	}
	vec := float64sToFloat32s(resp.Data[0].Embedding)
	if len(vec) != e.dims {
		return nil, &ProviderError{Model: e.model, Err: fmt.Errorf("dimension mismatch: got %d, expected %d", len(vec), e.dims)}
	}

	if e.cache != nil {
		e.cache.Set(text, vec)
	}
	return vec, nil
}

// EmbedBatch embeds texts one call at a time, preserving input order.
// The first provider failure aborts the batch; callers that want per-item
// degradation (the build path) call Embed per text instead.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed batch item %d: %w", i, err)
		}
		vecs[i] = vec
	}
	return vecs, nil
}

// Dimensions returns the configured vector dimensionality.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dims
}

// Model returns the embedding model identifier.
func (e *OpenAIEmbedder) Model() string {
	return e.model
}

// Close is a no-op for OpenAIEmbedder.
func (e *OpenAIEmbedder) Close() error {
	return nil
}

// throttle sleeps so consecutive provider calls are at least delay apart.
func (e *OpenAIEmbedder) throttle() {
	if e.delay <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if wait := e.delay - time.Since(e.last); wait > 0 {
		time.Sleep(wait)
	}
	e.last = time.Now()
}

func float64sToFloat32s(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
