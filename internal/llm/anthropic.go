package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// anthropicGenerator speaks the Anthropic messages API.
type anthropicGenerator struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func newAnthropicGenerator(apiKey, model string, timeout time.Duration) *anthropicGenerator {
	if model == "" {
		model = defaultAnthropicModel
	}
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &anthropicGenerator{
		baseURL: "https://api.anthropic.com/v1",
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Model returns the model this generator targets.
func (g *anthropicGenerator) Model() string { return g.model }

// Generate asks the messages endpoint for a single answer.
func (g *anthropicGenerator) Generate(ctx context.Context, req Request) (string, error) {
	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1500
	}
	body := struct {
		Model     string    `json:"model"`
		MaxTokens int       `json:"max_tokens"`
		System    string    `json:"system,omitempty"`
		Messages  []message `json:"messages"`
	}{
		Model:     g.model,
		MaxTokens: maxTokens,
		System:    req.System,
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, message{Role: m.Role, Content: m.Content})
	}

	data, _ := json.Marshal(body)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/messages", bytes.NewReader(data))
	if err != nil {
		return "", wrapGenerationError(ctx, ProviderAnthropic, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", g.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", wrapGenerationError(ctx, ProviderAnthropic, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return "", wrapGenerationError(ctx, ProviderAnthropic, fmt.Errorf("%s: %s", resp.Status, truncate(string(payload), 200)))
	}

	var out struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", wrapGenerationError(ctx, ProviderAnthropic, err)
	}
	for _, block := range out.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", wrapGenerationError(ctx, ProviderAnthropic, errors.New("no text content in response"))
}
