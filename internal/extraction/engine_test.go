package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/m1dnxt404/finalyze/internal/providers"
	"github.com/m1dnxt404/finalyze/internal/schema"
)

type fakeInvoker struct {
	lastProvider  string
	lastModel     string
	lastPrompt    string
	lastMaxTokens int

	payload map[string]any
	usage   schema.Usage
	err     error
}

func (f *fakeInvoker) Invoke(ctx context.Context, providerID, modelID, prompt string, maxTokens int) (map[string]any, schema.Usage, error) {
	f.lastProvider = providerID
	f.lastModel = modelID
	f.lastPrompt = prompt
	f.lastMaxTokens = maxTokens
	if f.err != nil {
		return nil, schema.Usage{}, f.err
	}
	return f.payload, f.usage, nil
}

func payloadFromJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("bad test fixture: %v", err)
	}
	return m
}

func TestExtractBasicPrompt(t *testing.T) {
	invoker := &fakeInvoker{
		payload: payloadFromJSON(t, `{"analyst_summary": "fine quarter"}`),
		usage:   schema.Usage{InputTokens: 100, OutputTokens: 40},
	}
	engine := NewEngine(invoker, 0)

	result, err := engine.Extract(context.Background(), "anthropic", "", "REPORT BODY", "Acme Corp", nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if !strings.Contains(invoker.lastPrompt, "REPORT BODY") {
		t.Error("prompt should embed the report text")
	}
	if !strings.Contains(invoker.lastPrompt, "for Acme Corp") {
		t.Error("prompt should name the company")
	}
	if strings.Contains(invoker.lastPrompt, "HISTORICAL CONTEXT") {
		t.Error("prompt without history must not include the context section")
	}
	if invoker.lastMaxTokens != providers.DefaultMaxTokens {
		t.Errorf("maxTokens = %d, want default %d", invoker.lastMaxTokens, providers.DefaultMaxTokens)
	}

	if result.Metadata.Provider != "anthropic" {
		t.Errorf("Provider = %q", result.Metadata.Provider)
	}
	if result.Metadata.Model != "claude-sonnet-4-20250514" {
		t.Errorf("Model = %q, want registry default", result.Metadata.Model)
	}
	if result.Metadata.Usage.InputTokens != 100 || result.Metadata.Usage.OutputTokens != 40 {
		t.Errorf("Usage = %+v", result.Metadata.Usage)
	}
	if result.Metadata.AnalyzedAt.IsZero() {
		t.Error("AnalyzedAt should be set")
	}
	if *result.Analysis.AnalystSummary != "fine quarter" {
		t.Errorf("AnalystSummary = %v", *result.Analysis.AnalystSummary)
	}
}

func TestExtractContextAwarePromptPreservesOrder(t *testing.T) {
	invoker := &fakeInvoker{payload: map[string]any{}}
	engine := NewEngine(invoker, 0)

	history := []ContextReport{
		{Period: "Q2 2025", Summary: "second quarter summary"},
		{Period: "Q1 2025", Summary: "first quarter summary"},
	}

	_, err := engine.Extract(context.Background(), "openai", "gpt-4o", "current report", "Acme", history)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	prompt := invoker.lastPrompt
	if !strings.Contains(prompt, "HISTORICAL CONTEXT") {
		t.Fatal("context-aware prompt expected")
	}

	q2 := strings.Index(prompt, "Report 1 (Q2 2025)")
	q1 := strings.Index(prompt, "Report 2 (Q1 2025)")
	if q2 < 0 || q1 < 0 {
		t.Fatalf("context entries missing or mislabeled:\n%s", prompt)
	}
	if q2 > q1 {
		t.Error("context entries must keep caller order")
	}
	if invoker.lastModel != "gpt-4o" {
		t.Errorf("model = %q", invoker.lastModel)
	}
}

func TestCompareUsesLowerTokenCeiling(t *testing.T) {
	invoker := &fakeInvoker{
		payload: payloadFromJSON(t, `{"trend_analysis": {"revenue_trend": "stable"}}`),
	}
	engine := NewEngine(invoker, 0)

	comparison, err := engine.Compare(context.Background(), "anthropic", "", "current", "previous", "Acme")
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if invoker.lastMaxTokens != compareMaxTokens {
		t.Errorf("maxTokens = %d, want %d", invoker.lastMaxTokens, compareMaxTokens)
	}
	if !strings.Contains(invoker.lastPrompt, "CURRENT REPORT:\ncurrent") {
		t.Error("prompt should embed current report")
	}
	if !strings.Contains(invoker.lastPrompt, "PREVIOUS REPORT:\nprevious") {
		t.Error("prompt should embed previous report")
	}
	if *comparison.TrendAnalysis.RevenueTrend != "stable" {
		t.Errorf("RevenueTrend = %v", *comparison.TrendAnalysis.RevenueTrend)
	}
}

func TestAnswerQueryEmbedsReports(t *testing.T) {
	invoker := &fakeInvoker{
		payload: payloadFromJSON(t, `{"answer": "yes", "confidence": "medium"}`),
	}
	engine := NewEngine(invoker, 0)

	reports := []RetrievedReport{
		{Company: "Acme Corp", Period: "Q3 2025", Summary: "beat estimates"},
		{Company: "Globex", Period: "Q3 2025", Summary: "missed estimates"},
	}

	resp, err := engine.AnswerQuery(context.Background(), "gemini", "", "Who beat estimates?", reports)
	if err != nil {
		t.Fatalf("AnswerQuery() error = %v", err)
	}

	if !strings.Contains(invoker.lastPrompt, "Report 1: Acme Corp (Q3 2025)") {
		t.Error("prompt should list first retrieved report")
	}
	if !strings.Contains(invoker.lastPrompt, "Report 2: Globex (Q3 2025)") {
		t.Error("prompt should list second retrieved report")
	}
	if !strings.Contains(invoker.lastPrompt, "Who beat estimates?") {
		t.Error("prompt should embed the question")
	}
	if *resp.Answer != "yes" {
		t.Errorf("Answer = %v", *resp.Answer)
	}
}

func TestExtractConvertsMalformedOutput(t *testing.T) {
	invoker := &fakeInvoker{
		err: &providers.MalformedOutputError{
			RawText: "plain refusal text",
			Err:     errors.New("invalid character 'p'"),
		},
	}
	engine := NewEngine(invoker, 0)

	_, err := engine.Extract(context.Background(), "anthropic", "", "report", "", nil)
	if err == nil {
		t.Fatal("Extract() expected error")
	}

	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("error type = %T, want *ExtractionError", err)
	}
	if extractionErr.RawText != "plain refusal text" {
		t.Errorf("RawText = %q", extractionErr.RawText)
	}
}

func TestExtractPassesThroughProviderError(t *testing.T) {
	want := &providers.ProviderError{Provider: providers.OpenAI, Err: errors.New("http 503")}
	invoker := &fakeInvoker{err: want}
	engine := NewEngine(invoker, 0)

	_, err := engine.Extract(context.Background(), "openai", "", "report", "", nil)

	var providerErr *providers.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
}
