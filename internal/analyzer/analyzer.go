package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/m1dnxt404/finalyze/internal/extraction"
	"github.com/m1dnxt404/finalyze/internal/history"
	"github.com/m1dnxt404/finalyze/internal/metrics"
	"github.com/m1dnxt404/finalyze/internal/schema"
	"github.com/m1dnxt404/finalyze/pkg/logger"
	"github.com/m1dnxt404/finalyze/pkg/utils"
)

// Extractor is the model-facing analysis engine. *extraction.Engine
// satisfies it.
type Extractor interface {
	Extract(ctx context.Context, providerID, modelID, reportText, companyName string, hist []extraction.ContextReport) (*schema.AnalysisResult, error)
	Compare(ctx context.Context, providerID, modelID, currentText, previousText, companyName string) (*schema.EarningsComparison, error)
	AnswerQuery(ctx context.Context, providerID, modelID, question string, reports []extraction.RetrievedReport) (*schema.QueryResponse, error)
}

// ReportStore is the persisted history. *history.Store satisfies it.
type ReportStore interface {
	Save(ctx context.Context, result *schema.AnalysisResult, companyOverride string) (*history.Record, error)
	GetByID(ctx context.Context, id string) (*history.Record, error)
	ListRecent(ctx context.Context, limit int) ([]history.Summary, error)
	QuerySimilar(ctx context.Context, question string, limit int, company string) ([]history.SimilarReport, error)
	GetCompanyContext(ctx context.Context, company string, limit int) ([]history.ContextEntry, error)
	Count(ctx context.Context) (int, error)
}

// AnalysisCache short-circuits repeat analyses of identical report text. A
// nil cache disables it; cache errors are treated as misses.
type AnalysisCache interface {
	GetAnalysis(ctx context.Context, key string) (*schema.AnalysisResult, error)
	SetAnalysis(ctx context.Context, key string, result *schema.AnalysisResult) error
}

// Options tunes orchestration. Zero values fall back to defaults.
type Options struct {
	ContextReports int
	QueryResults   int
	Thresholds     Thresholds
}

// Analyzer coordinates extraction, alerting, and history persistence. It owns
// the policy decisions: when to add historical context, when a persistence
// failure degrades to a warning, and when a query can be answered without a
// model call.
type Analyzer struct {
	engine Extractor
	store  ReportStore
	cache  AnalysisCache
	opts   Options
	logger *zap.Logger
}

func New(engine Extractor, store ReportStore, cache AnalysisCache, opts Options) *Analyzer {
	if opts.ContextReports <= 0 {
		opts.ContextReports = 3
	}
	if opts.QueryResults <= 0 {
		opts.QueryResults = 5
	}
	return &Analyzer{
		engine: engine,
		store:  store,
		cache:  cache,
		opts:   opts,
		logger: logger.GetLogger(),
	}
}

type AnalyzeRequest struct {
	Provider   string
	Model      string
	ReportText string
	Company    string
}

type AnalyzeResponse struct {
	ReportID string                 `json:"report_id,omitempty"`
	Result   *schema.AnalysisResult `json:"result"`
	Alerts   []Alert                `json:"alerts"`
	Brief    string                 `json:"brief"`
	Warning  string                 `json:"warning,omitempty"`
	Cached   bool                   `json:"cached,omitempty"`
}

// Analyze runs the full pipeline for one report: prior-quarter context when
// the company is known, extraction, alerting, and persistence. A persistence
// failure does not fail the analysis; the result is returned with a warning.
func (a *Analyzer) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	cacheKey := utils.HashString(req.Provider + "|" + req.Model + "|" + req.ReportText)

	if a.cache != nil {
		if cached, err := a.cache.GetAnalysis(ctx, cacheKey); err == nil && cached != nil {
			metrics.CacheHits.WithLabelValues("analysis").Inc()
			alerts := ComputeAlerts(&cached.Analysis, a.opts.Thresholds)
			return &AnalyzeResponse{
				Result: cached,
				Alerts: alerts,
				Brief:  FormatInvestorBrief(cached, alerts),
				Cached: true,
			}, nil
		}
		metrics.CacheMisses.WithLabelValues("analysis").Inc()
	}

	var contextReports []extraction.ContextReport
	if req.Company != "" {
		entries, err := a.store.GetCompanyContext(ctx, req.Company, a.opts.ContextReports)
		if err != nil {
			a.logger.Warn("failed to load company context, analyzing without it",
				zap.String("company", req.Company),
				zap.Error(err),
			)
		} else {
			for _, e := range entries {
				if e.Summary == "" {
					continue
				}
				contextReports = append(contextReports, extraction.ContextReport{
					Period:  e.Period,
					Summary: e.Summary,
				})
			}
		}
	}

	result, err := a.engine.Extract(ctx, req.Provider, req.Model, req.ReportText, req.Company, contextReports)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues(req.Provider, "error").Inc()
		return nil, err
	}

	metrics.AnalysesTotal.WithLabelValues(req.Provider, "success").Inc()
	metrics.RecordTokens(result.Metadata.Provider, result.Metadata.Usage.InputTokens, result.Metadata.Usage.OutputTokens)

	alerts := ComputeAlerts(&result.Analysis, a.opts.Thresholds)

	resp := &AnalyzeResponse{
		Result: result,
		Alerts: alerts,
		Brief:  FormatInvestorBrief(result, alerts),
	}

	record, err := a.store.Save(ctx, result, req.Company)
	if err != nil {
		a.logger.Warn("analysis completed but persistence failed", zap.Error(err))
		resp.Warning = fmt.Sprintf("analysis completed but was not saved to history: %v", err)
	} else {
		resp.ReportID = record.ID
		if n, err := a.store.Count(ctx); err == nil {
			metrics.StoredReports.Set(float64(n))
		}
	}

	if a.cache != nil {
		if err := a.cache.SetAnalysis(ctx, cacheKey, result); err != nil {
			a.logger.Warn("failed to cache analysis", zap.Error(err))
		}
	}

	return resp, nil
}

type CompareRequest struct {
	Provider     string
	Model        string
	CurrentText  string
	PreviousText string
	Company      string
}

// Compare contrasts two reports. Comparisons are ephemeral and never enter
// the history store.
func (a *Analyzer) Compare(ctx context.Context, req CompareRequest) (*schema.EarningsComparison, error) {
	comparison, err := a.engine.Compare(ctx, req.Provider, req.Model, req.CurrentText, req.PreviousText, req.Company)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues(req.Provider, "error").Inc()
		return nil, err
	}
	metrics.AnalysesTotal.WithLabelValues(req.Provider, "success").Inc()
	return comparison, nil
}

type QueryRequest struct {
	Provider string
	Model    string
	Question string
	Company  string
	Limit    int
}

type QueryResult struct {
	Response *schema.QueryResponse   `json:"response"`
	Sources  []history.SimilarReport `json:"sources"`
}

// Query answers a question over stored reports. With nothing relevant in the
// store it returns a low-confidence canned answer without calling a model.
func (a *Analyzer) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = a.opts.QueryResults
	}

	similar, err := a.store.QuerySimilar(ctx, req.Question, limit, req.Company)
	if err != nil {
		return nil, err
	}

	if len(similar) == 0 {
		return &QueryResult{
			Response: emptyStoreResponse(),
			Sources:  []history.SimilarReport{},
		}, nil
	}

	retrieved := make([]extraction.RetrievedReport, 0, len(similar))
	for _, s := range similar {
		retrieved = append(retrieved, extraction.RetrievedReport{
			Company: s.Company,
			Period:  s.Period,
			Summary: s.Summary,
		})
	}

	response, err := a.engine.AnswerQuery(ctx, req.Provider, req.Model, req.Question, retrieved)
	if err != nil {
		return nil, err
	}

	return &QueryResult{
		Response: response,
		Sources:  similar,
	}, nil
}

// StoredReport is a fully decoded history entry.
type StoredReport struct {
	ID         string                 `json:"id"`
	Company    string                 `json:"company"`
	Ticker     string                 `json:"ticker"`
	Period     string                 `json:"period"`
	AnalyzedAt time.Time              `json:"analyzed_at"`
	Result     *schema.AnalysisResult `json:"result"`
}

func (a *Analyzer) ListHistory(ctx context.Context, limit int) ([]history.Summary, error) {
	return a.store.ListRecent(ctx, limit)
}

func (a *Analyzer) GetReport(ctx context.Context, id string) (*StoredReport, error) {
	record, err := a.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var result schema.AnalysisResult
	if err := json.Unmarshal([]byte(record.Payload), &result); err != nil {
		return nil, &history.StoreError{Op: "decode payload", Err: err}
	}

	return &StoredReport{
		ID:         record.ID,
		Company:    record.Company,
		Ticker:     record.Ticker,
		Period:     record.Period,
		AnalyzedAt: record.CreatedAt,
		Result:     &result,
	}, nil
}

func emptyStoreResponse() *schema.QueryResponse {
	answer := "No analyzed earnings reports are available yet. Analyze at least one report before querying."
	confidence := "low"
	limitations := "The history store is empty, so no sources could be consulted."
	return &schema.QueryResponse{
		Answer:      &answer,
		Confidence:  &confidence,
		Sources:     []schema.QuerySource{},
		Limitations: &limitations,
	}
}
