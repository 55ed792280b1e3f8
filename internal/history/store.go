package history

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/m1dnxt404/finalyze/internal/history/milvus"
	"github.com/m1dnxt404/finalyze/internal/schema"
	"github.com/m1dnxt404/finalyze/pkg/logger"
)

const (
	defaultListLimit  = 10
	defaultQueryLimit = 5
)

// RecordDB is the durable record side of the store. *sqlite.Client
// satisfies it.
type RecordDB interface {
	InsertReport(ctx context.Context, r Record) error
	GetReport(ctx context.Context, id string) (*Record, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
	CompanyReports(ctx context.Context, company string, limit int) ([]Record, error)
	Count(ctx context.Context) (int, error)
}

// VectorIndex is the semantic search side of the store. *milvus.Client
// satisfies it.
type VectorIndex interface {
	Insert(ctx context.Context, e milvus.Entry) error
	Search(ctx context.Context, queryEmbedding []float32, topK int, company string) ([]milvus.Match, error)
}

// Embedder turns text into a vector. *embedding.Client satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store persists analyzed reports and answers exact, recency, and semantic
// lookups over them. Writes are serialized; the record table is the source of
// truth and the vector index follows it.
type Store struct {
	records  RecordDB
	index    VectorIndex
	embedder Embedder
	logger   *zap.Logger

	mu sync.Mutex
}

func NewStore(records RecordDB, index VectorIndex, embedder Embedder) *Store {
	return &Store{
		records:  records,
		index:    index,
		embedder: embedder,
		logger:   logger.GetLogger(),
	}
}

// Save persists one analysis result in both backends and returns the stored
// record. A non-empty companyOverride wins over the name the model extracted,
// so a caller who named the company gets a record filed under that name even
// when the payload lacks company_info. The embedding is computed from a
// deterministic text rendering of the analysis, never from the raw report.
func (s *Store) Save(ctx context.Context, result *schema.AnalysisResult, companyOverride string) (*Record, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, storeErr("encode payload", err)
	}

	company := stringOr(companyOverride, stringOr(companyName(result), "Unknown"))
	ticker := stringOr(companyTicker(result), "UNKNOWN")
	period := stringOr(reportingPeriod(result), "Unknown")

	now := time.Now().UTC()
	record := Record{
		ID:             newReportID(ticker, period, now),
		Company:        company,
		Ticker:         ticker,
		Period:         period,
		Provider:       result.Metadata.Provider,
		Model:          result.Metadata.Model,
		SentimentScore: sentimentScore(result),
		Summary:        deref(result.Analysis.AnalystSummary),
		Payload:        string(payload),
		EmbeddingText:  BuildEmbeddingText(&result.Analysis, company, period),
		CreatedAt:      now,
	}

	vector, err := s.embedder.Embed(ctx, record.EmbeddingText)
	if err != nil {
		return nil, storeErr("embed report", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.records.InsertReport(ctx, record); err != nil {
		return nil, storeErr("insert record", err)
	}

	err = s.index.Insert(ctx, milvus.Entry{
		ID:             record.ID,
		Embedding:      vector,
		Company:        record.Company,
		Ticker:         record.Ticker,
		Period:         record.Period,
		SentimentScore: record.SentimentScore,
		Summary:        record.Summary,
		CreatedAt:      record.CreatedAt,
	})
	if err != nil {
		return nil, storeErr("index report", err)
	}

	s.logger.Info("report saved",
		zap.String("id", record.ID),
		zap.String("company", record.Company),
		zap.String("period", record.Period),
	)

	return &record, nil
}

// GetByID returns the full stored record. ErrNotFound passes through so
// callers can map it to a 404.
func (s *Store) GetByID(ctx context.Context, id string) (*Record, error) {
	record, err := s.records.GetReport(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil, err
		}
		return nil, storeErr("get report", err)
	}
	return record, nil
}

// ListRecent returns summaries of the newest reports.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	records, err := s.records.ListRecent(ctx, limit)
	if err != nil {
		return nil, storeErr("list reports", err)
	}

	summaries := make([]Summary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, Summary{
			ID:             r.ID,
			Company:        r.Company,
			Ticker:         r.Ticker,
			Period:         r.Period,
			Provider:       r.Provider,
			SentimentScore: r.SentimentScore,
			AnalyzedAt:     r.CreatedAt,
		})
	}
	return summaries, nil
}

// Count returns the number of stored reports.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.records.Count(ctx)
	if err != nil {
		return 0, storeErr("count reports", err)
	}
	return n, nil
}

// QuerySimilar finds the reports semantically closest to the question. An
// empty store short-circuits to an empty result without an embedding call. A
// non-empty company narrows the search.
func (s *Store) QuerySimilar(ctx context.Context, question string, limit int, company string) ([]SimilarReport, error) {
	if limit <= 0 {
		limit = defaultQueryLimit
	}

	count, err := s.records.Count(ctx)
	if err != nil {
		return nil, storeErr("count reports", err)
	}
	if count == 0 {
		return []SimilarReport{}, nil
	}
	if limit > count {
		limit = count
	}

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, storeErr("embed query", err)
	}

	matches, err := s.index.Search(ctx, vector, limit, company)
	if err != nil {
		return nil, storeErr("search index", err)
	}

	similar := make([]SimilarReport, 0, len(matches))
	for _, m := range matches {
		similar = append(similar, SimilarReport{
			ID:             m.ID,
			Company:        m.Company,
			Ticker:         m.Ticker,
			Period:         m.Period,
			SentimentScore: m.SentimentScore,
			Summary:        m.Summary,
			Relevance:      roundRelevance(1 - float64(m.Distance)),
		})
	}
	return similar, nil
}

// GetCompanyContext returns prior-report context for one company, newest
// first, for context-aware analysis prompts.
func (s *Store) GetCompanyContext(ctx context.Context, company string, limit int) ([]ContextEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	records, err := s.records.CompanyReports(ctx, company, limit)
	if err != nil {
		return nil, storeErr("company context", err)
	}

	entries := make([]ContextEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, ContextEntry{
			Period:  r.Period,
			Summary: r.Summary,
		})
	}
	return entries, nil
}

// BuildEmbeddingText renders the searchable identity of an analysis. It is a
// pure function of its inputs so the index can be rebuilt deterministically.
func BuildEmbeddingText(analysis *schema.EarningsAnalysis, company, period string) string {
	parts := []string{
		fmt.Sprintf("Company: %s", company),
		fmt.Sprintf("Period: %s", period),
	}
	if summary := deref(analysis.AnalystSummary); summary != "" {
		parts = append(parts, summary)
	}
	if len(analysis.KeyHighlights) > 0 {
		parts = append(parts, "Key highlights: "+strings.Join(analysis.KeyHighlights, "; "))
	}
	if len(analysis.ConcernsRisks) > 0 {
		parts = append(parts, "Concerns: "+strings.Join(analysis.ConcernsRisks, "; "))
	}
	return strings.Join(parts, "\n")
}

// newReportID builds a unique, human-scannable id. The uuid suffix keeps two
// analyses of the same quarter in the same nanosecond from colliding.
func newReportID(ticker, period string, t time.Time) string {
	sanitize := func(s string) string {
		return strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s-%s", sanitize(ticker), sanitize(period), t.Format(time.RFC3339Nano), suffix)
}

func roundRelevance(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func companyName(result *schema.AnalysisResult) string {
	if result.Analysis.CompanyInfo == nil {
		return ""
	}
	return deref(result.Analysis.CompanyInfo.Name)
}

func companyTicker(result *schema.AnalysisResult) string {
	if result.Analysis.CompanyInfo == nil {
		return ""
	}
	return deref(result.Analysis.CompanyInfo.Ticker)
}

func reportingPeriod(result *schema.AnalysisResult) string {
	if result.Analysis.CompanyInfo == nil {
		return ""
	}
	return deref(result.Analysis.CompanyInfo.ReportingPeriod)
}

func sentimentScore(result *schema.AnalysisResult) int {
	if result.Analysis.SentimentAnalysis == nil || result.Analysis.SentimentAnalysis.SentimentScore == nil {
		return 0
	}
	return *result.Analysis.SentimentAnalysis.SentimentScore
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func stringOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
