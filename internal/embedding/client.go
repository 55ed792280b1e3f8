package embedding

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/m1dnxt404/finalyze/pkg/circuitbreaker"
	"github.com/m1dnxt404/finalyze/pkg/logger"
)

// Cache stores computed vectors keyed by text hash. A nil Cache disables
// caching; cache failures are treated as misses.
type Cache interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
	SetEmbedding(ctx context.Context, text string, embedding []float32) error
}

// Client produces text embeddings through the OpenAI embeddings API. A
// circuit breaker shields the rest of the pipeline when the embedding
// endpoint degrades.
type Client struct {
	client *openai.Client
	model  string
	cache  Cache
	cb     *circuitbreaker.CircuitBreaker
}

func NewClient(apiKey, model string, cache Cache) *Client {
	cb := circuitbreaker.NewCircuitBreaker("embedding", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	logger.Info("embedding client initialized", zap.String("model", model))

	return &Client{
		client: openai.NewClient(apiKey),
		model:  model,
		cache:  cache,
		cb:     cb,
	}
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.cache != nil {
		if cached, err := c.cache.GetEmbedding(ctx, text); err == nil && cached != nil {
			logger.Debug("embedding cache hit")
			return cached, nil
		}
	}

	var embedding []float32

	err := c.cb.Execute(ctx, func() error {
		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(c.model),
		})
		if err != nil {
			return fmt.Errorf("failed to generate embedding: %w", err)
		}
		if len(resp.Data) == 0 {
			return fmt.Errorf("embedding response contained no data")
		}

		embedding = make([]float32, len(resp.Data[0].Embedding))
		copy(embedding, resp.Data[0].Embedding)
		return nil
	})

	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.SetEmbedding(ctx, text, embedding); err != nil {
			logger.Warn("failed to cache embedding", zap.Error(err))
		}
	}

	return embedding, nil
}
