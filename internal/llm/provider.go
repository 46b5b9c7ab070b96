// Package llm generates grounded answers through an external language-model
// provider. Provider selection is explicit configuration resolved once per
// invocation; a missing credential fails before any network traffic.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"cvector/internal/domain"
)

// Provider identifies a supported LLM backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Default models per provider, overridable per call.
const (
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-sonnet-4-20250514"
)

// ParseProvider validates a provider name.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderOpenAI, ProviderAnthropic:
		return Provider(s), nil
	}
	return "", fmt.Errorf("unknown provider %q (expected openai or anthropic)", s)
}

// Credentials holds provider API keys supplied via the environment.
type Credentials struct {
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
}

// LoadCredentials reads provider keys from the environment.
func LoadCredentials() (Credentials, error) {
	var creds Credentials
	if err := envconfig.Process("", &creds); err != nil {
		return creds, fmt.Errorf("loading credentials: %w", err)
	}
	return creds, nil
}

// Message is one turn of a provider conversation.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// Request is a provider-agnostic generation request.
type Request struct {
	System    string
	Messages  []Message
	MaxTokens int
}

// Generator produces an answer from a prompt. One implementation per
// provider.
type Generator interface {
	Model() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Config configures generator construction.
type Config struct {
	Provider Provider
	Model    string // optional override of the provider default
	Timeout  time.Duration
}

// NewGenerator builds the generator for the selected provider. Selecting a
// provider with no configured credential fails with ErrProviderUnavailable
// before any network call.
func NewGenerator(cfg Config, creds Credentials) (Generator, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if creds.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: openai selected but OPENAI_API_KEY is not set", domain.ErrProviderUnavailable)
		}
		return newOpenAIGenerator(creds.OpenAIAPIKey, cfg.Model, cfg.Timeout), nil
	case ProviderAnthropic:
		if creds.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("%w: anthropic selected but ANTHROPIC_API_KEY is not set", domain.ErrProviderUnavailable)
		}
		return newAnthropicGenerator(creds.AnthropicAPIKey, cfg.Model, cfg.Timeout), nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

// wrapGenerationError maps transport failures onto the error taxonomy:
// deadline overruns become ErrTimeout, everything else ErrGeneration.
func wrapGenerationError(ctx context.Context, provider Provider, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w: %s call exceeded deadline", domain.ErrTimeout, provider)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrGeneration, provider, err)
}
