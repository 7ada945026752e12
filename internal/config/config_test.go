package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{
		EnvConfigPath, EnvDBPath, EnvMaxTokens, EnvOverlapTokens,
		EnvMaxDepth, EnvEmbeddingProvider, EnvJinaAPIKey, EnvOpenAIAPIKey,
	} {
		t.Setenv(env, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1200, cfg.Chunking.MaxTokens)
	assert.Equal(t, 200, cfg.Chunking.OverlapTokens)
	assert.Equal(t, 10, cfg.Processing.MaxDepth)
	assert.Equal(t, []string{"**/.git/**", "**/node_modules/**"}, cfg.Processing.Exclude)
	assert.Equal(t, DBFileName, filepath.Base(cfg.Database.Path))
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Chunking, cfg.Chunking)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[database]
path = "/tmp/kb.db"

[chunking]
max_tokens = 800
overlap_tokens = 100

[processing]
max_depth = 4
exclude = ["**/archive/**"]

[embedding]
provider = "local"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/kb.db", cfg.Database.Path)
	assert.Equal(t, 800, cfg.Chunking.MaxTokens)
	assert.Equal(t, 100, cfg.Chunking.OverlapTokens)
	assert.Equal(t, 4, cfg.Processing.MaxDepth)
	assert.Equal(t, []string{"**/archive/**"}, cfg.Processing.Exclude)
	assert.Equal(t, "local", cfg.Embedding.Provider)
	// Untouched sections keep their defaults
	assert.Equal(t, 500, cfg.Watch.DebounceMs)
}

func TestLoad_InvalidTOML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chunking\nmax_tokens = "), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDBPath, "/tmp/env.db")
	t.Setenv(EnvMaxTokens, "600")
	t.Setenv(EnvOverlapTokens, "60")
	t.Setenv(EnvMaxDepth, "3")
	t.Setenv(EnvEmbeddingProvider, "OpenAI")
	t.Setenv(EnvOpenAIAPIKey, "sk-test")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
	assert.Equal(t, 600, cfg.Chunking.MaxTokens)
	assert.Equal(t, 60, cfg.Chunking.OverlapTokens)
	assert.Equal(t, 3, cfg.Processing.MaxDepth)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chunking]\nmax_tokens = 900\n"), 0o600))
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 900, cfg.Chunking.MaxTokens)
}

func TestLoad_BadEnvInteger(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMaxTokens, "lots")

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"zero max tokens", func(c *Config) { c.Chunking.MaxTokens = 0 }},
		{"negative overlap", func(c *Config) { c.Chunking.OverlapTokens = -1 }},
		{"overlap equals max", func(c *Config) { c.Chunking.OverlapTokens = c.Chunking.MaxTokens }},
		{"zero depth", func(c *Config) { c.Processing.MaxDepth = 0 }},
		{"negative workers", func(c *Config) { c.Processing.Workers = -2 }},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "cohere" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Chunking.MaxTokens = 700
	cfg.Database.Path = "/tmp/saved.db"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 700, loaded.Chunking.MaxTokens)
	assert.Equal(t, "/tmp/saved.db", loaded.Database.Path)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x", "y.db"), ExpandHome("~/x/y.db"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "rel/~/path", ExpandHome("rel/~/path"))
}
