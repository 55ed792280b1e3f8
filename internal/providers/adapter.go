package providers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/m1dnxt404/finalyze/internal/schema"
	"github.com/m1dnxt404/finalyze/pkg/logger"
)

const (
	// DefaultTemperature keeps extraction output consistent across runs.
	DefaultTemperature = 0.3
	// DefaultMaxTokens bounds a full analysis response.
	DefaultMaxTokens = 4000
)

// Adapter maps a logical request (prompt + token budget) onto whichever
// provider the caller selected and normalizes the reply into one structured
// object plus token usage. It makes exactly one network call per invocation
// and never retries; context cancellation aborts the in-flight call.
type Adapter struct {
	httpc *http.Client
}

// New builds an Adapter. A nil client falls back to http.DefaultClient;
// tests inject a stub transport here.
func New(httpc *http.Client) *Adapter {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	return &Adapter{httpc: httpc}
}

// Invoke sends prompt to the given provider/model and returns the decoded
// JSON object and token usage. An empty modelID selects the provider's
// default model. Failure modes: ConfigurationError (unknown provider,
// missing credential), ProviderError (transport/API), MalformedOutputError
// (reply was not JSON).
func (a *Adapter) Invoke(ctx context.Context, providerID, modelID, prompt string, maxTokens int) (map[string]any, schema.Usage, error) {
	info, err := Lookup(providerID)
	if err != nil {
		return nil, schema.Usage{}, err
	}

	key, err := info.apiKey()
	if err != nil {
		return nil, schema.Usage{}, err
	}

	if modelID == "" {
		modelID = info.DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	var (
		text  string
		usage schema.Usage
	)

	switch info.ID {
	case OpenAI:
		text, usage, err = a.completeOpenAI(ctx, key, "", modelID, prompt, maxTokens)
	case DeepSeek:
		text, usage, err = a.completeOpenAI(ctx, key, deepseekBaseURL, modelID, prompt, maxTokens)
	case Anthropic:
		text, usage, err = a.completeAnthropic(ctx, key, modelID, prompt, maxTokens)
	case Gemini:
		text, usage, err = a.completeGemini(ctx, key, modelID, prompt, maxTokens)
	}

	if err != nil {
		return nil, schema.Usage{}, &ProviderError{Provider: info.ID, Err: err}
	}

	logger.Debug("provider call completed",
		zap.String("provider", string(info.ID)),
		zap.String("model", modelID),
		zap.Int("input_tokens", usage.InputTokens),
		zap.Int("output_tokens", usage.OutputTokens),
	)

	data, err := ParseStructured(text)
	if err != nil {
		return nil, usage, err
	}
	return data, usage, nil
}
