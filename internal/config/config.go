// Package config loads the application configuration: a YAML file for
// tunables, the environment for credentials.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// TranscribeConfig configures the external speech-to-text engine.
type TranscribeConfig struct {
	Binary   string `yaml:"binary"`
	ModelDir string `yaml:"model_dir"`
	Model    string `yaml:"model"`
	Language string `yaml:"language,omitempty"`
}

// ChunkerConfig configures how transcripts are split into chunks.
type ChunkerConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// EmbedderConfig configures the OpenAI-compatible embeddings endpoint.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// StoreConfig configures the persistent vector index.
type StoreConfig struct {
	DBPath string `yaml:"db_path"`
}

// LLMConfig configures answer generation.
type LLMConfig struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model,omitempty"`
	MaxContextChars int    `yaml:"max_context_chars"`
	TimeoutSecs     int    `yaml:"timeout_secs"`
}

// IngestConfig configures batch ingestion.
type IngestConfig struct {
	Workers int `yaml:"workers"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Store      StoreConfig      `yaml:"store"`
	LLM        LLMConfig        `yaml:"llm"`
	Ingest     IngestConfig     `yaml:"ingest"`
}

// Load reads a config from the given path. A missing file yields defaults.
func Load(fs afero.Fs, path string) (*AppConfig, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./cvector.yaml first, then ~/.config/cvector/config.yaml,
// falling back to defaults when neither exists.
func LoadDefault(fs afero.Fs) (*AppConfig, error) {
	if ok, _ := afero.Exists(fs, "cvector.yaml"); ok {
		return Load(fs, "cvector.yaml")
	}
	home, err := os.UserHomeDir()
	if err == nil {
		userPath := filepath.Join(home, ".config", "cvector", "config.yaml")
		if ok, _ := afero.Exists(fs, userPath); ok {
			return Load(fs, userPath)
		}
	}
	return Default(), nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(fs afero.Fs, path string, cfg *AppConfig) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path, data, 0o644)
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		Transcribe: TranscribeConfig{
			Binary: "whisper-cli",
			Model:  "base",
		},
		Chunker: ChunkerConfig{ChunkSize: 1000, Overlap: 200},
		Embedder: EmbedderConfig{
			BaseURL:     "https://api.openai.com/v1",
			APIKeyEnv:   "OPENAI_API_KEY",
			Model:       "text-embedding-3-small",
			TimeoutSecs: 30,
		},
		Store: StoreConfig{DBPath: ".cvector_db"},
		LLM: LLMConfig{
			Provider:        "anthropic",
			MaxContextChars: 8000,
			TimeoutSecs:     120,
		},
		Ingest: IngestConfig{Workers: 1},
	}
}

func applyDefaults(cfg *AppConfig) {
	def := Default()
	if cfg.Transcribe.Binary == "" {
		cfg.Transcribe.Binary = def.Transcribe.Binary
	}
	if cfg.Transcribe.Model == "" {
		cfg.Transcribe.Model = def.Transcribe.Model
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = def.Chunker.ChunkSize
	}
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = def.Embedder.BaseURL
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = def.Embedder.APIKeyEnv
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = def.Embedder.Model
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = def.Embedder.TimeoutSecs
	}
	if cfg.Store.DBPath == "" {
		cfg.Store.DBPath = def.Store.DBPath
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = def.LLM.Provider
	}
	if cfg.LLM.MaxContextChars == 0 {
		cfg.LLM.MaxContextChars = def.LLM.MaxContextChars
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = def.LLM.TimeoutSecs
	}
	if cfg.Ingest.Workers == 0 {
		cfg.Ingest.Workers = def.Ingest.Workers
	}
}
