package cli

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"cvector/internal/config"
	"cvector/internal/domain"
	"cvector/internal/embedding/openai"
	"cvector/internal/llm"
	"cvector/internal/retriever"
	"cvector/internal/service"
	"cvector/internal/vectorstore/sqlite"
)

// loadConfig resolves the effective configuration, applying global flag
// overrides on top of the file.
func loadConfig(fs afero.Fs, globals *GlobalFlags) (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if globals.ConfigPath != "" {
		cfg, err = config.Load(fs, globals.ConfigPath)
	} else {
		cfg, err = config.LoadDefault(fs)
	}
	if err != nil {
		return nil, err
	}
	if globals.DBPath != "" {
		cfg.Store.DBPath = globals.DBPath
	}
	return cfg, nil
}

func openStore(cfg *config.AppConfig) (domain.VectorStore, error) {
	return sqlite.Open(cfg.Store.DBPath)
}

func newEmbedder(cfg *config.AppConfig) *openai.Client {
	return openai.NewClient(openai.Config{
		BaseURL: cfg.Embedder.BaseURL,
		APIKey:  os.Getenv(cfg.Embedder.APIKeyEnv),
		Model:   cfg.Embedder.Model,
		Timeout: time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
}

// newAsker wires the full query pipeline: embedder, store, provider.
func newAsker(cfg *config.AppConfig, store domain.VectorStore, logger *log.Logger, providerName, model string) (*service.Asker, error) {
	if providerName == "" {
		providerName = cfg.LLM.Provider
	}
	if model == "" {
		model = cfg.LLM.Model
	}
	provider, err := llm.ParseProvider(providerName)
	if err != nil {
		return nil, err
	}
	creds, err := llm.LoadCredentials()
	if err != nil {
		return nil, err
	}
	generator, err := llm.NewGenerator(llm.Config{Provider: provider, Model: model}, creds)
	if err != nil {
		return nil, err
	}
	composer := llm.NewComposer(generator, cfg.LLM.MaxContextChars)
	r := retriever.New(newEmbedder(cfg), store)
	timeout := time.Duration(cfg.LLM.TimeoutSecs) * time.Second
	return service.NewAsker(r, composer, logger, timeout), nil
}
