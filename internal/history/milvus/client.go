package milvus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/m1dnxt404/finalyze/pkg/logger"
)

// Client is the semantic side of the report store. Scalar fields mirror the
// columns needed to render a search hit without a round trip to sqlite.
type Client struct {
	client         client.Client
	collectionName string
	vectorDim      int
}

// Entry is one indexed report vector plus the scalar fields returned on hits.
type Entry struct {
	ID             string
	Embedding      []float32
	Company        string
	Ticker         string
	Period         string
	SentimentScore int
	Summary        string
	CreatedAt      time.Time
}

// Match is one ANN search hit. Distance is the raw L2 distance; relevance
// scoring is the caller's concern.
type Match struct {
	ID             string
	Company        string
	Ticker         string
	Period         string
	SentimentScore int
	Summary        string
	Distance       float32
}

func NewClient(endpoint, collectionName string, vectorDim int) (*Client, error) {
	c, err := client.NewGrpcClient(context.Background(), endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &Client{
		client:         c,
		collectionName: collectionName,
		vectorDim:      vectorDim,
	}, nil
}

func (m *Client) Close() error {
	return m.client.Close()
}

func (m *Client) EnsureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if has {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: m.collectionName,
		Description:    "Earnings report embeddings",
		Fields: []*entity.Field{
			{
				Name:       "report_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{"max_length": "128"},
			},
			{
				Name:       "embedding",
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": fmt.Sprintf("%d", m.vectorDim)},
			},
			{
				Name:       "company",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "256"},
			},
			{
				Name:       "ticker",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "32"},
			},
			{
				Name:       "period",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "64"},
			},
			{
				Name:     "sentiment_score",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:       "summary",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "4096"},
			},
			{
				Name:     "created_at",
				DataType: entity.FieldTypeInt64,
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.L2, 1024)
	if err != nil {
		return fmt.Errorf("failed to build index params: %w", err)
	}
	if err := m.client.CreateIndex(ctx, m.collectionName, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, m.collectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("collection created and loaded", zap.String("collection", m.collectionName))

	return nil
}

func (m *Client) Insert(ctx context.Context, e Entry) error {
	_, err := m.client.Insert(
		ctx,
		m.collectionName,
		"",
		entity.NewColumnVarChar("report_id", []string{e.ID}),
		entity.NewColumnFloatVector("embedding", m.vectorDim, [][]float32{e.Embedding}),
		entity.NewColumnVarChar("company", []string{e.Company}),
		entity.NewColumnVarChar("ticker", []string{e.Ticker}),
		entity.NewColumnVarChar("period", []string{e.Period}),
		entity.NewColumnInt64("sentiment_score", []int64{int64(e.SentimentScore)}),
		entity.NewColumnVarChar("summary", []string{e.Summary}),
		entity.NewColumnInt64("created_at", []int64{e.CreatedAt.UnixNano()}),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report vector: %w", err)
	}

	if err := m.client.Flush(ctx, m.collectionName, false); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	return nil
}

// Search returns the topK nearest entries. A non-empty company narrows the
// search to that company's reports.
func (m *Client) Search(ctx context.Context, queryEmbedding []float32, topK int, company string) ([]Match, error) {
	expr := ""
	if company != "" {
		expr = fmt.Sprintf(`company == "%s"`, strings.ReplaceAll(company, `"`, ``))
	}

	sp, err := entity.NewIndexIvfFlatSearchParam(16)
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}

	searchResult, err := m.client.Search(
		ctx,
		m.collectionName,
		[]string{},
		expr,
		[]string{"report_id", "company", "ticker", "period", "sentiment_score", "summary"},
		[]entity.Vector{entity.FloatVector(queryEmbedding)},
		"embedding",
		entity.L2,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	matches := make([]Match, 0)
	for _, sr := range searchResult {
		idCol := sr.Fields.GetColumn("report_id")
		companyCol := sr.Fields.GetColumn("company")
		tickerCol := sr.Fields.GetColumn("ticker")
		periodCol := sr.Fields.GetColumn("period")
		sentimentCol := sr.Fields.GetColumn("sentiment_score")
		summaryCol := sr.Fields.GetColumn("summary")

		for i := 0; i < sr.ResultCount; i++ {
			id, _ := idCol.Get(i)
			companyVal, _ := companyCol.Get(i)
			ticker, _ := tickerCol.Get(i)
			period, _ := periodCol.Get(i)
			sentiment, _ := sentimentCol.Get(i)
			summary, _ := summaryCol.Get(i)

			matches = append(matches, Match{
				ID:             id.(string),
				Company:        companyVal.(string),
				Ticker:         ticker.(string),
				Period:         period.(string),
				SentimentScore: int(sentiment.(int64)),
				Summary:        summary.(string),
				Distance:       sr.Scores[i],
			})
		}
	}

	logger.Debug("vector search completed",
		zap.Int("topK", topK),
		zap.Int("results", len(matches)),
		zap.String("filter", expr),
	)

	return matches, nil
}
