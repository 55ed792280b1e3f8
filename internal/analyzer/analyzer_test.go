package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/m1dnxt404/finalyze/internal/extraction"
	"github.com/m1dnxt404/finalyze/internal/history"
	"github.com/m1dnxt404/finalyze/internal/schema"
)

type fakeExtractor struct {
	result     *schema.AnalysisResult
	comparison *schema.EarningsComparison
	response   *schema.QueryResponse
	err        error

	extractCalls int
	queryCalls   int
	lastHistory  []extraction.ContextReport
	lastReports  []extraction.RetrievedReport
}

func (f *fakeExtractor) Extract(ctx context.Context, providerID, modelID, reportText, companyName string, hist []extraction.ContextReport) (*schema.AnalysisResult, error) {
	f.extractCalls++
	f.lastHistory = hist
	return f.result, f.err
}

func (f *fakeExtractor) Compare(ctx context.Context, providerID, modelID, currentText, previousText, companyName string) (*schema.EarningsComparison, error) {
	return f.comparison, f.err
}

func (f *fakeExtractor) AnswerQuery(ctx context.Context, providerID, modelID, question string, reports []extraction.RetrievedReport) (*schema.QueryResponse, error) {
	f.queryCalls++
	f.lastReports = reports
	return f.response, f.err
}

type fakeStore struct {
	saved        []*schema.AnalysisResult
	savedID      string
	saveErr      error
	lastOverride string
	context      []history.ContextEntry
	contextErr   error
	similar      []history.SimilarReport
	record       *history.Record
}

func (f *fakeStore) Save(ctx context.Context, result *schema.AnalysisResult, companyOverride string) (*history.Record, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = append(f.saved, result)
	f.lastOverride = companyOverride
	return &history.Record{ID: f.savedID}, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (*history.Record, error) {
	if f.record == nil {
		return nil, history.ErrNotFound
	}
	return f.record, nil
}

func (f *fakeStore) ListRecent(ctx context.Context, limit int) ([]history.Summary, error) {
	return []history.Summary{}, nil
}

func (f *fakeStore) QuerySimilar(ctx context.Context, question string, limit int, company string) ([]history.SimilarReport, error) {
	return f.similar, nil
}

func (f *fakeStore) GetCompanyContext(ctx context.Context, company string, limit int) ([]history.ContextEntry, error) {
	if f.contextErr != nil {
		return nil, f.contextErr
	}
	if limit < len(f.context) {
		return f.context[:limit], nil
	}
	return f.context, nil
}

func (f *fakeStore) Count(ctx context.Context) (int, error) {
	return len(f.saved), nil
}

func beatResult() *schema.AnalysisResult {
	name := "Acme Corp"
	ticker := "ACME"
	period := "Q3 2025"
	summary := "Acme delivered a strong beat."
	return &schema.AnalysisResult{
		Analysis: schema.EarningsAnalysis{
			CompanyInfo: &schema.CompanyInfo{Name: &name, Ticker: &ticker, ReportingPeriod: &period},
			FinancialMetrics: &schema.FinancialMetrics{
				Earnings: &schema.Earnings{
					EPSReported: strp("2.30"),
					EPSExpected: strp("2.10"),
					BeatMiss:    strp("beat"),
				},
				Guidance: &schema.Guidance{Provided: boolp(true)},
			},
			SentimentAnalysis: &schema.SentimentAnalysis{SentimentScore: intp(80)},
			AnalystSummary:    &summary,
		},
		Metadata: schema.Metadata{Provider: "anthropic", Model: "claude-sonnet-4-20250514"},
	}
}

func TestAnalyzePersistsAndAlerts(t *testing.T) {
	engine := &fakeExtractor{result: beatResult()}
	store := &fakeStore{savedID: "ACME-Q3_2025-x"}
	a := New(engine, store, nil, Options{})

	resp, err := a.Analyze(context.Background(), AnalyzeRequest{
		Provider:   "anthropic",
		ReportText: "report text",
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if resp.ReportID != "ACME-Q3_2025-x" {
		t.Errorf("ReportID = %q", resp.ReportID)
	}
	if len(store.saved) != 1 {
		t.Errorf("store received %d saves, want 1", len(store.saved))
	}
	if !hasAlert(resp.Alerts, AlertStrongBeat) {
		t.Errorf("alerts = %+v, want STRONG_BEAT", resp.Alerts)
	}
	if resp.Warning != "" {
		t.Errorf("Warning = %q, want empty", resp.Warning)
	}
	if !strings.Contains(resp.Brief, "Acme Corp") {
		t.Error("brief should name the company")
	}
}

func TestAnalyzeLoadsCompanyContext(t *testing.T) {
	engine := &fakeExtractor{result: beatResult()}
	store := &fakeStore{
		savedID: "id",
		context: []history.ContextEntry{
			{Period: "Q2 2025", Summary: "prior summary"},
			{Period: "Q1 2025", Summary: "older summary"},
			{Period: "Q4 2024", Summary: "oldest summary"},
			{Period: "Q3 2024", Summary: "should be cut by limit"},
		},
	}
	a := New(engine, store, nil, Options{ContextReports: 3})

	_, err := a.Analyze(context.Background(), AnalyzeRequest{
		Provider:   "anthropic",
		ReportText: "report",
		Company:    "Acme Corp",
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(engine.lastHistory) != 3 {
		t.Fatalf("extractor received %d context reports, want 3", len(engine.lastHistory))
	}
	if engine.lastHistory[0].Period != "Q2 2025" {
		t.Errorf("context[0] = %+v, want newest first", engine.lastHistory[0])
	}
}

func TestAnalyzePassesCompanyOverrideToSave(t *testing.T) {
	engine := &fakeExtractor{result: beatResult()}
	store := &fakeStore{savedID: "id"}
	a := New(engine, store, nil, Options{})

	_, err := a.Analyze(context.Background(), AnalyzeRequest{
		Provider:   "anthropic",
		ReportText: "report",
		Company:    "Acme Corp",
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if store.lastOverride != "Acme Corp" {
		t.Errorf("Save received override %q, want the requested company name", store.lastOverride)
	}
}

func TestAnalyzeSaveFailureBecomesWarning(t *testing.T) {
	engine := &fakeExtractor{result: beatResult()}
	store := &fakeStore{saveErr: &history.StoreError{Op: "insert record", Err: errors.New("disk full")}}
	a := New(engine, store, nil, Options{})

	resp, err := a.Analyze(context.Background(), AnalyzeRequest{
		Provider:   "anthropic",
		ReportText: "report",
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v, persistence failure must not fail the analysis", err)
	}

	if resp.Warning == "" {
		t.Error("expected a warning about the failed save")
	}
	if resp.ReportID != "" {
		t.Errorf("ReportID = %q, want empty after failed save", resp.ReportID)
	}
	if resp.Result == nil {
		t.Error("analysis result should still be returned")
	}
}

func TestAnalyzeExtractionFailurePropagates(t *testing.T) {
	wantErr := &extraction.ExtractionError{Reason: "model returned unparseable output"}
	engine := &fakeExtractor{err: wantErr}
	store := &fakeStore{}
	a := New(engine, store, nil, Options{})

	_, err := a.Analyze(context.Background(), AnalyzeRequest{Provider: "openai", ReportText: "x"})

	var extractionErr *extraction.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("error = %v, want *ExtractionError", err)
	}
	if len(store.saved) != 0 {
		t.Error("nothing should be saved on extraction failure")
	}
}

func TestQueryEmptyStoreSkipsModel(t *testing.T) {
	engine := &fakeExtractor{}
	store := &fakeStore{similar: []history.SimilarReport{}}
	a := New(engine, store, nil, Options{})

	result, err := a.Query(context.Background(), QueryRequest{
		Provider: "anthropic",
		Question: "How did Acme do?",
	})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if engine.queryCalls != 0 {
		t.Errorf("model called %d times on empty store, want 0", engine.queryCalls)
	}
	if result.Response.Confidence == nil || *result.Response.Confidence != "low" {
		t.Errorf("Confidence = %v, want low", result.Response.Confidence)
	}
	if result.Response.Answer == nil || *result.Response.Answer == "" {
		t.Error("canned answer should be non-empty")
	}
	if len(result.Sources) != 0 {
		t.Errorf("Sources = %v, want empty", result.Sources)
	}
}

func TestQueryPassesRetrievedReports(t *testing.T) {
	answer := "Acme beat estimates."
	engine := &fakeExtractor{response: &schema.QueryResponse{Answer: &answer}}
	store := &fakeStore{
		similar: []history.SimilarReport{
			{ID: "a", Company: "Acme Corp", Period: "Q3 2025", Summary: "beat", Relevance: 0.91},
			{ID: "b", Company: "Acme Corp", Period: "Q2 2025", Summary: "inline", Relevance: 0.84},
		},
	}
	a := New(engine, store, nil, Options{})

	result, err := a.Query(context.Background(), QueryRequest{Provider: "anthropic", Question: "q"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if len(engine.lastReports) != 2 {
		t.Fatalf("model received %d reports, want 2", len(engine.lastReports))
	}
	if engine.lastReports[0].Company != "Acme Corp" || engine.lastReports[0].Period != "Q3 2025" {
		t.Errorf("lastReports[0] = %+v", engine.lastReports[0])
	}
	if len(result.Sources) != 2 || result.Sources[0].Relevance != 0.91 {
		t.Errorf("Sources = %+v", result.Sources)
	}
	if *result.Response.Answer != answer {
		t.Errorf("Answer = %v", *result.Response.Answer)
	}
}

func TestCompareNeverSaves(t *testing.T) {
	trend := "stable"
	engine := &fakeExtractor{
		comparison: &schema.EarningsComparison{
			TrendAnalysis: &schema.TrendAnalysis{RevenueTrend: &trend},
		},
	}
	store := &fakeStore{savedID: "id"}
	a := New(engine, store, nil, Options{})

	comparison, err := a.Compare(context.Background(), CompareRequest{
		Provider:     "anthropic",
		CurrentText:  "current",
		PreviousText: "previous",
	})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if *comparison.TrendAnalysis.RevenueTrend != "stable" {
		t.Errorf("RevenueTrend = %v", *comparison.TrendAnalysis.RevenueTrend)
	}
	if len(store.saved) != 0 {
		t.Error("comparisons must not be persisted")
	}
}

func TestGetReportDecodesPayload(t *testing.T) {
	payload, err := json.Marshal(beatResult())
	if err != nil {
		t.Fatal(err)
	}

	store := &fakeStore{
		record: &history.Record{
			ID:      "ACME-Q3_2025-x",
			Company: "Acme Corp",
			Payload: string(payload),
		},
	}
	a := New(&fakeExtractor{}, store, nil, Options{})

	report, err := a.GetReport(context.Background(), "ACME-Q3_2025-x")
	if err != nil {
		t.Fatalf("GetReport() error = %v", err)
	}
	if report.Result == nil || *report.Result.Analysis.AnalystSummary != "Acme delivered a strong beat." {
		t.Errorf("Result = %+v", report.Result)
	}
}

func TestGetReportMissing(t *testing.T) {
	a := New(&fakeExtractor{}, &fakeStore{}, nil, Options{})

	_, err := a.GetReport(context.Background(), "nope")
	if !errors.Is(err, history.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
