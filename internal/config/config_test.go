package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), "missing.yaml")
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 200, cfg.Chunker.Overlap)
	assert.Equal(t, ".cvector_db", cfg.Store.DBPath)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "base", cfg.Transcribe.Model)
	assert.Equal(t, 1, cfg.Ingest.Workers)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "cvector.yaml", []byte(`
chunker:
  chunk_size: 500
  overlap: 50
llm:
  provider: openai
`), 0o644))

	cfg, err := Load(fs, "cvector.yaml")
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Chunker.ChunkSize)
	assert.Equal(t, 50, cfg.Chunker.Overlap)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, ".cvector_db", cfg.Store.DBPath, "unset fields fall back to defaults")
	assert.Equal(t, 8000, cfg.LLM.MaxContextChars)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte("chunker: ["), 0o644))

	_, err := Load(fs, "bad.yaml")
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := Default()
	cfg.Chunker.ChunkSize = 750

	require.NoError(t, Save(fs, "/etc/cvector/config.yaml", cfg))

	loaded, err := Load(fs, "/etc/cvector/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, 750, loaded.Chunker.ChunkSize)
}
