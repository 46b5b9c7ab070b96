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

// openaiGenerator speaks the OpenAI chat-completions API.
type openaiGenerator struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func newOpenAIGenerator(apiKey, model string, timeout time.Duration) *openaiGenerator {
	if model == "" {
		model = defaultOpenAIModel
	}
	if timeout == 0 {
		timeout = 2 * time.Minute
	}
	return &openaiGenerator{
		baseURL: "https://api.openai.com/v1",
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Model returns the model this generator targets.
func (g *openaiGenerator) Model() string { return g.model }

// Generate asks the chat-completions endpoint for a single answer.
func (g *openaiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	body := struct {
		Model       string    `json:"model"`
		Messages    []message `json:"messages"`
		Temperature float64   `json:"temperature"`
		MaxTokens   int       `json:"max_tokens,omitempty"`
	}{
		Model:       g.model,
		Temperature: 0.7,
		MaxTokens:   req.MaxTokens,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, message{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, message{Role: m.Role, Content: m.Content})
	}

	data, _ := json.Marshal(body)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", wrapGenerationError(ctx, ProviderOpenAI, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", wrapGenerationError(ctx, ProviderOpenAI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return "", wrapGenerationError(ctx, ProviderOpenAI, fmt.Errorf("%s: %s", resp.Status, truncate(string(payload), 200)))
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", wrapGenerationError(ctx, ProviderOpenAI, err)
	}
	if len(out.Choices) == 0 {
		return "", wrapGenerationError(ctx, ProviderOpenAI, errors.New("empty response"))
	}
	return out.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
