package providers

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/m1dnxt404/finalyze/internal/schema"
)

const deepseekBaseURL = "https://api.deepseek.com"

// completeOpenAI serves both the OpenAI and DeepSeek registrations: DeepSeek
// exposes an OpenAI-compatible chat API, so only the base URL differs. Both
// support native JSON-object responses, so no fenced-output instruction is
// needed.
func (a *Adapter) completeOpenAI(ctx context.Context, apiKey, baseURL, model, prompt string, maxTokens int) (string, schema.Usage, error) {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = a.httpc
	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: DefaultTemperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", schema.Usage{}, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", schema.Usage{}, fmt.Errorf("chat completion returned no choices")
	}

	usage := schema.Usage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}
	return resp.Choices[0].Message.Content, usage, nil
}
