package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/m1dnxt404/finalyze/internal/schema"
)

const anthropicEndpoint = "https://api.anthropic.com/v1/messages"
const anthropicVersion = "2023-06-01"

// Anthropic has no JSON response mode on the messages API, so the prompt is
// responsible for requesting fenced JSON; ParseStructured strips the fences.
func (a *Adapter) completeAnthropic(ctx context.Context, apiKey, model, prompt string, maxTokens int) (string, schema.Usage, error) {
	endpoint := anthropicEndpoint
	if ep := os.Getenv("ANTHROPIC_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}

	body := map[string]any{
		"model":       model,
		"max_tokens":  maxTokens,
		"temperature": DefaultTemperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", schema.Usage{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", schema.Usage{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpc.Do(req)
	if err != nil {
		return "", schema.Usage{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", schema.Usage{}, fmt.Errorf("anthropic http %d: %s", resp.StatusCode, detail)
	}

	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", schema.Usage{}, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", schema.Usage{}, fmt.Errorf("response has no content blocks")
	}

	usage := schema.Usage{
		InputTokens:  parsed.Usage.InputTokens,
		OutputTokens: parsed.Usage.OutputTokens,
	}
	return parsed.Content[0].Text, usage, nil
}
