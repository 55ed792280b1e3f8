package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/m1dnxt404/finalyze/internal/schema"
	"github.com/m1dnxt404/finalyze/pkg/logger"
	"github.com/m1dnxt404/finalyze/pkg/utils"
)

// Client caches embeddings and analysis results. Both caches are best
// effort; the pipeline works identically with caching disabled.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("redis cache initialized",
		zap.String("host", host),
		zap.Int("port", port),
		zap.Duration("ttl", ttl),
	)

	return &Client{rdb: rdb, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetEmbedding returns a cached vector, or (nil, nil) on a miss.
func (c *Client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	data, err := c.rdb.Get(ctx, embeddingKey(text)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached embedding: %w", err)
	}

	var embedding []float32
	if err := json.Unmarshal(data, &embedding); err != nil {
		return nil, fmt.Errorf("failed to decode cached embedding: %w", err)
	}
	return embedding, nil
}

func (c *Client) SetEmbedding(ctx context.Context, text string, embedding []float32) error {
	data, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}
	if err := c.rdb.Set(ctx, embeddingKey(text), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache embedding: %w", err)
	}
	return nil
}

// GetAnalysis returns a cached analysis result, or (nil, nil) on a miss.
func (c *Client) GetAnalysis(ctx context.Context, key string) (*schema.AnalysisResult, error) {
	data, err := c.rdb.Get(ctx, analysisKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached analysis: %w", err)
	}

	var result schema.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached analysis: %w", err)
	}
	return &result, nil
}

func (c *Client) SetAnalysis(ctx context.Context, key string, result *schema.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	if err := c.rdb.Set(ctx, analysisKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache analysis: %w", err)
	}
	return nil
}

func embeddingKey(text string) string {
	return "finalyze:embedding:" + utils.HashString(text)
}

func analysisKey(key string) string {
	return "finalyze:analysis:" + key
}
