package history_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/m1dnxt404/finalyze/internal/history"
	"github.com/m1dnxt404/finalyze/internal/history/milvus"
	"github.com/m1dnxt404/finalyze/internal/history/sqlite"
	"github.com/m1dnxt404/finalyze/internal/schema"
)

type fakeIndex struct {
	entries     []milvus.Entry
	matches     []milvus.Match
	lastTopK    int
	lastCompany string
}

func (f *fakeIndex) Insert(ctx context.Context, e milvus.Entry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, queryEmbedding []float32, topK int, company string) ([]milvus.Match, error) {
	f.lastTopK = topK
	f.lastCompany = company
	if topK < len(f.matches) {
		return f.matches[:topK], nil
	}
	return f.matches, nil
}

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return []float32{0.1, 0.2, 0.3}, nil
}

func newTestStore(t *testing.T) (*history.Store, *fakeIndex, *fakeEmbedder) {
	t.Helper()

	db, err := sqlite.NewClient(":memory:")
	if err != nil {
		t.Fatalf("sqlite.NewClient() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.InitSchema(); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}

	index := &fakeIndex{}
	embedder := &fakeEmbedder{}
	return history.NewStore(db, index, embedder), index, embedder
}

func sampleResult(company, ticker, period, summary string) *schema.AnalysisResult {
	score := 72
	return &schema.AnalysisResult{
		Analysis: schema.EarningsAnalysis{
			CompanyInfo: &schema.CompanyInfo{
				Name:            &company,
				Ticker:          &ticker,
				ReportingPeriod: &period,
			},
			KeyHighlights:     []string{"Record revenue"},
			ConcernsRisks:     []string{"FX headwinds"},
			SentimentAnalysis: &schema.SentimentAnalysis{SentimentScore: &score},
			AnalystSummary:    &summary,
		},
		Metadata: schema.Metadata{
			Provider: "anthropic",
			Model:    "claude-sonnet-4-20250514",
		},
	}
}

func TestSaveAndGetByID(t *testing.T) {
	store, index, _ := newTestStore(t)
	ctx := context.Background()

	record, err := store.Save(ctx, sampleResult("Acme Corp", "ACME", "Q3 2025", "Strong quarter."), "")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !strings.HasPrefix(record.ID, "ACME-Q3_2025-") {
		t.Errorf("ID = %q, want ACME-Q3_2025- prefix with spaces replaced", record.ID)
	}

	got, err := store.GetByID(ctx, record.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Company != "Acme Corp" || got.Ticker != "ACME" || got.Period != "Q3 2025" {
		t.Errorf("record = %+v", got)
	}
	if got.Provider != "anthropic" {
		t.Errorf("Provider = %q", got.Provider)
	}
	if got.SentimentScore != 72 {
		t.Errorf("SentimentScore = %d, want 72", got.SentimentScore)
	}

	var decoded schema.AnalysisResult
	if err := json.Unmarshal([]byte(got.Payload), &decoded); err != nil {
		t.Fatalf("payload should round-trip: %v", err)
	}
	if *decoded.Analysis.AnalystSummary != "Strong quarter." {
		t.Errorf("decoded summary = %v", *decoded.Analysis.AnalystSummary)
	}

	if len(index.entries) != 1 {
		t.Fatalf("index received %d entries, want 1", len(index.entries))
	}
	if index.entries[0].ID != record.ID {
		t.Errorf("index entry id = %q, want %q", index.entries[0].ID, record.ID)
	}
	if index.entries[0].SentimentScore != 72 {
		t.Errorf("index entry sentiment = %d, want 72", index.entries[0].SentimentScore)
	}
}

func TestSaveCompanyOverrideWinsOverPayload(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	// No company_info at all: without an override the record files under
	// Unknown, with one it files under the caller's name and company context
	// finds it.
	summary := "Solid quarter."
	result := &schema.AnalysisResult{
		Analysis: schema.EarningsAnalysis{AnalystSummary: &summary},
	}

	record, err := store.Save(ctx, result, "Acme Corp")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if record.Company != "Acme Corp" {
		t.Errorf("Company = %q, want override Acme Corp", record.Company)
	}
	if !strings.Contains(record.EmbeddingText, "Company: Acme Corp") {
		t.Errorf("embedding text %q should carry the overridden name", record.EmbeddingText)
	}

	entries, err := store.GetCompanyContext(ctx, "Acme Corp", 3)
	if err != nil {
		t.Fatalf("GetCompanyContext() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d context entries, want the overridden record", len(entries))
	}

	// Override also beats a name the model did extract.
	record2, err := store.Save(ctx, sampleResult("Acme Corporation Inc.", "ACME", "Q3 2025", "s"), "Acme Corp")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if record2.Company != "Acme Corp" {
		t.Errorf("Company = %q, want override to beat the extracted name", record2.Company)
	}
}

func TestSaveMissingSentimentDefaultsToZero(t *testing.T) {
	store, _, _ := newTestStore(t)

	summary := "s"
	result := &schema.AnalysisResult{
		Analysis: schema.EarningsAnalysis{AnalystSummary: &summary},
	}

	record, err := store.Save(context.Background(), result, "Acme Corp")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if record.SentimentScore != 0 {
		t.Errorf("SentimentScore = %d, want 0 when sentiment is absent", record.SentimentScore)
	}
}

func TestGetByIDMissing(t *testing.T) {
	store, _, _ := newTestStore(t)

	_, err := store.GetByID(context.Background(), "nope")
	if !errors.Is(err, history.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestSaveGeneratesUniqueIDs(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	r1, err := store.Save(ctx, sampleResult("Acme Corp", "ACME", "Q3 2025", "One."), "")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	r2, err := store.Save(ctx, sampleResult("Acme Corp", "ACME", "Q3 2025", "Two."), "")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if r1.ID == r2.ID {
		t.Errorf("two saves of the same quarter collided on id %q", r1.ID)
	}
}

func TestListRecentNewestFirst(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	for _, period := range []string{"Q1 2025", "Q2 2025", "Q3 2025"} {
		if _, err := store.Save(ctx, sampleResult("Acme Corp", "ACME", period, "s"), ""); err != nil {
			t.Fatalf("Save(%s) error = %v", period, err)
		}
	}

	summaries, err := store.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("got %d summaries, want 3", len(summaries))
	}

	wantOrder := []string{"Q3 2025", "Q2 2025", "Q1 2025"}
	for i, want := range wantOrder {
		if summaries[i].Period != want {
			t.Errorf("summaries[%d].Period = %q, want %q", i, summaries[i].Period, want)
		}
	}
	if summaries[0].SentimentScore != 72 {
		t.Errorf("summaries[0].SentimentScore = %d, want 72", summaries[0].SentimentScore)
	}
}

func TestQuerySimilarEmptyStore(t *testing.T) {
	store, _, embedder := newTestStore(t)

	similar, err := store.QuerySimilar(context.Background(), "any question", 5, "")
	if err != nil {
		t.Fatalf("QuerySimilar() error = %v", err)
	}
	if similar == nil || len(similar) != 0 {
		t.Errorf("similar = %v, want empty slice", similar)
	}
	if embedder.calls != 0 {
		t.Errorf("embedder called %d times on empty store, want 0", embedder.calls)
	}
}

func TestQuerySimilarRelevanceAndClamping(t *testing.T) {
	store, index, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Save(ctx, sampleResult("Acme Corp", "ACME", "Q2 2025", "s"), ""); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := store.Save(ctx, sampleResult("Acme Corp", "ACME", "Q3 2025", "s"), ""); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	index.matches = []milvus.Match{
		{ID: "a", Company: "Acme Corp", Period: "Q3 2025", SentimentScore: 72, Summary: "s", Distance: 0.1234567},
		{ID: "b", Company: "Acme Corp", Period: "Q2 2025", SentimentScore: 40, Summary: "s", Distance: 0.5},
	}

	similar, err := store.QuerySimilar(ctx, "How is Acme doing?", 10, "Acme Corp")
	if err != nil {
		t.Fatalf("QuerySimilar() error = %v", err)
	}

	// Only two records exist, so topK clamps to 2.
	if index.lastTopK != 2 {
		t.Errorf("topK = %d, want 2", index.lastTopK)
	}
	if index.lastCompany != "Acme Corp" {
		t.Errorf("company filter = %q", index.lastCompany)
	}

	if len(similar) != 2 {
		t.Fatalf("got %d results, want 2", len(similar))
	}
	if similar[0].Relevance != 0.8765 {
		t.Errorf("Relevance = %v, want 0.8765", similar[0].Relevance)
	}
	if similar[1].Relevance != 0.5 {
		t.Errorf("Relevance = %v, want 0.5", similar[1].Relevance)
	}
	if similar[0].SentimentScore != 72 {
		t.Errorf("SentimentScore = %d, want 72", similar[0].SentimentScore)
	}
}

func TestGetCompanyContextFiltersCompany(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	saves := []struct{ company, ticker, period string }{
		{"Acme Corp", "ACME", "Q1 2025"},
		{"Globex", "GLBX", "Q1 2025"},
		{"Acme Corp", "ACME", "Q2 2025"},
	}
	for _, s := range saves {
		if _, err := store.Save(ctx, sampleResult(s.company, s.ticker, s.period, "summary for "+s.period), ""); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	entries, err := store.GetCompanyContext(ctx, "Acme Corp", 3)
	if err != nil {
		t.Fatalf("GetCompanyContext() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Period != "Q2 2025" {
		t.Errorf("entries[0].Period = %q, want newest first", entries[0].Period)
	}

	// The match is exact, not case-folded.
	none, err := store.GetCompanyContext(ctx, "acme corp", 3)
	if err != nil {
		t.Fatalf("GetCompanyContext() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %d entries for a differently cased name, want 0", len(none))
	}
}

func TestBuildEmbeddingText(t *testing.T) {
	result := sampleResult("Acme Corp", "ACME", "Q3 2025", "Strong quarter.")
	text := history.BuildEmbeddingText(&result.Analysis, "Acme Corp", "Q3 2025")

	want := "Company: Acme Corp\nPeriod: Q3 2025\nStrong quarter.\nKey highlights: Record revenue\nConcerns: FX headwinds"
	if text != want {
		t.Errorf("BuildEmbeddingText() =\n%q\nwant\n%q", text, want)
	}

	// Pure function of its inputs.
	if again := history.BuildEmbeddingText(&result.Analysis, "Acme Corp", "Q3 2025"); again != text {
		t.Error("BuildEmbeddingText() should be deterministic")
	}
}
