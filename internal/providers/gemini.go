package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/m1dnxt404/finalyze/internal/schema"
)

const geminiBaseEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

// Gemini supports a JSON response MIME type natively, so the generation
// config requests structured output directly.
func (a *Adapter) completeGemini(ctx context.Context, apiKey, model, prompt string, maxTokens int) (string, schema.Usage, error) {
	base := geminiBaseEndpoint
	if ep := os.Getenv("GEMINI_API_ENDPOINT"); ep != "" {
		base = ep
	}
	endpoint := fmt.Sprintf("%s/%s:generateContent?key=%s", base, url.PathEscape(model), url.QueryEscape(apiKey))

	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]any{
			"temperature":      DefaultTemperature,
			"maxOutputTokens":  maxTokens,
			"responseMimeType": "application/json",
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
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpc.Do(req)
	if err != nil {
		return "", schema.Usage{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", schema.Usage{}, fmt.Errorf("gemini http %d: %s", resp.StatusCode, detail)
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", schema.Usage{}, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", schema.Usage{}, fmt.Errorf("response has no candidates")
	}

	usage := schema.Usage{
		InputTokens:  parsed.UsageMetadata.PromptTokenCount,
		OutputTokens: parsed.UsageMetadata.CandidatesTokenCount,
	}
	return parsed.Candidates[0].Content.Parts[0].Text, usage, nil
}
