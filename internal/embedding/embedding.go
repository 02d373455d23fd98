package embedding

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"glimpse/internal/services"
)

// Embedder converts text into a dense vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Client produces embeddings through an OpenAI-compatible API.
type Client struct {
	api     openai.Client
	model   string
	timeout time.Duration
}

// New constructs an embedding client. baseURL may be empty to use the
// default API endpoint.
func New(apiKey, baseURL, model string, timeoutSeconds int) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("embedding API key required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("embedding model required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Client{
		api:     openai.NewClient(opts...),
		model:   model,
		timeout: time.Duration(timeoutSeconds) * time.Second,
	}, nil
}

// Embed requests a vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, services.Wrap(services.ErrEmbeddingUnavailable, "embedding", "request", "empty text", nil)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.api.Embeddings.New(runCtx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, services.Wrap(services.ErrEmbeddingUnavailable, "embedding", "request", c.model, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, services.Wrap(services.ErrEmbeddingUnavailable, "embedding", "request", "empty response", nil)
	}
	return resp.Data[0].Embedding, nil
}

// Cosine returns the cosine similarity of a and b clamped to [0, 1]. Vectors
// of mismatched length or zero magnitude yield 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	switch {
	case sim < 0:
		return 0
	case sim > 1:
		return 1
	}
	return sim
}
