package extraction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/m1dnxt404/finalyze/internal/providers"
	"github.com/m1dnxt404/finalyze/internal/schema"
	"github.com/m1dnxt404/finalyze/pkg/logger"
)

const compareMaxTokens = 3000

// ExtractionError indicates the model responded but its output could not be
// turned into a usable analysis. RawText carries the unparseable response for
// debugging.
type ExtractionError struct {
	Reason  string
	RawText string
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Invoker abstracts the model call so the engine can be tested without
// touching a provider API. *providers.Adapter satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, providerID, modelID, prompt string, maxTokens int) (map[string]any, schema.Usage, error)
}

// ContextReport is a prior-quarter summary injected into an analysis prompt.
type ContextReport struct {
	Period  string
	Summary string
}

// RetrievedReport is a semantically matched report backing a query answer.
type RetrievedReport struct {
	Company string
	Period  string
	Summary string
}

// Engine turns raw earnings text into structured analyses through a model.
type Engine struct {
	invoker   Invoker
	maxTokens int
	logger    *zap.Logger
}

func NewEngine(invoker Invoker, maxTokens int) *Engine {
	if maxTokens <= 0 {
		maxTokens = providers.DefaultMaxTokens
	}
	return &Engine{
		invoker:   invoker,
		maxTokens: maxTokens,
		logger:    logger.GetLogger(),
	}
}

// Extract analyzes a single earnings report. When history is non-empty the
// prompt asks the model to reason across quarters; history order is preserved
// as given.
func (e *Engine) Extract(ctx context.Context, providerID, modelID, reportText, companyName string, history []ContextReport) (*schema.AnalysisResult, error) {
	var prompt string
	if len(history) > 0 {
		prompt = buildContextAwarePrompt(reportText, companyName, history)
	} else {
		prompt = buildAnalysisPrompt(reportText, companyName)
	}

	payload, usage, err := e.invoker.Invoke(ctx, providerID, modelID, prompt, e.maxTokens)
	if err != nil {
		return nil, convertInvokeError(err)
	}

	analysis := schema.DecodeAnalysis(payload)

	e.logger.Info("earnings analysis extracted",
		zap.String("provider", providerID),
		zap.Bool("context_aware", len(history) > 0),
		zap.Int("input_tokens", usage.InputTokens),
		zap.Int("output_tokens", usage.OutputTokens),
	)

	return &schema.AnalysisResult{
		Analysis: analysis,
		Metadata: schema.Metadata{
			AnalyzedAt: time.Now().UTC(),
			Provider:   providerID,
			Model:      resolvedModel(providerID, modelID),
			Usage:      usage,
		},
	}, nil
}

// Compare contrasts two reports for the same company. Comparison output is
// smaller than a full analysis so the token ceiling is lower.
func (e *Engine) Compare(ctx context.Context, providerID, modelID, currentText, previousText, companyName string) (*schema.EarningsComparison, error) {
	prompt := buildComparisonPrompt(currentText, previousText, companyName)

	payload, usage, err := e.invoker.Invoke(ctx, providerID, modelID, prompt, compareMaxTokens)
	if err != nil {
		return nil, convertInvokeError(err)
	}

	comparison := schema.DecodeComparison(payload)

	e.logger.Info("earnings comparison completed",
		zap.String("provider", providerID),
		zap.Int("input_tokens", usage.InputTokens),
		zap.Int("output_tokens", usage.OutputTokens),
	)

	return &comparison, nil
}

// AnswerQuery answers a natural-language question grounded on the supplied
// reports. Callers decide what to do when no reports are available.
func (e *Engine) AnswerQuery(ctx context.Context, providerID, modelID, question string, reports []RetrievedReport) (*schema.QueryResponse, error) {
	prompt := buildQueryPrompt(question, reports)

	payload, _, err := e.invoker.Invoke(ctx, providerID, modelID, prompt, e.maxTokens)
	if err != nil {
		return nil, convertInvokeError(err)
	}

	response := schema.DecodeQueryResponse(payload)
	return &response, nil
}

// convertInvokeError maps malformed model output into an ExtractionError so
// callers see one error type for "model answered garbage". Configuration and
// transport failures pass through unchanged.
func convertInvokeError(err error) error {
	var malformed *providers.MalformedOutputError
	if errors.As(err, &malformed) {
		return &ExtractionError{
			Reason:  "model returned unparseable output",
			RawText: malformed.RawText,
			Err:     malformed.Err,
		}
	}
	return err
}

func resolvedModel(providerID, modelID string) string {
	if modelID != "" {
		return modelID
	}
	if info, err := providers.Lookup(providerID); err == nil {
		return info.DefaultModel
	}
	return modelID
}
