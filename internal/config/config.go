package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cast"
)

// Environment variables
const (
	EnvConfigPath        = "DOCCONTEXT_CONFIG"
	EnvDBPath            = "DOCCONTEXT_DB_PATH"
	EnvMaxTokens         = "DOCCONTEXT_MAX_TOKENS"
	EnvOverlapTokens     = "DOCCONTEXT_OVERLAP_TOKENS"
	EnvMaxDepth          = "DOCCONTEXT_MAX_DEPTH"
	EnvEmbeddingProvider = "DOCCONTEXT_EMBEDDING_PROVIDER"
	EnvJinaAPIKey        = "JINA_API_KEY"
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
)

const (
	// DirName is the configuration directory below the user's home
	DirName = ".doccontext"

	// FileName is the configuration file inside DirName
	FileName = "config.toml"

	// DBFileName is the default database file inside DirName
	DBFileName = "doccontext.db"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete application configuration
type Config struct {
	Database   DatabaseConfig   `toml:"database"`
	Chunking   ChunkingConfig   `toml:"chunking"`
	Processing ProcessingConfig `toml:"processing"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Search     SearchConfig     `toml:"search"`
	Watch      WatchConfig      `toml:"watch"`
}

// DatabaseConfig locates the SQLite index
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// ChunkingConfig holds the token budgets
type ChunkingConfig struct {
	MaxTokens     int `toml:"max_tokens"`
	OverlapTokens int `toml:"overlap_tokens"`
}

// ProcessingConfig controls directory traversal
type ProcessingConfig struct {
	MaxDepth int      `toml:"max_depth"`
	Workers  int      `toml:"workers"` // 0 means runtime.NumCPU()
	Exclude  []string `toml:"exclude"`
}

// EmbeddingConfig selects and tunes the embedding provider
type EmbeddingConfig struct {
	Provider  string `toml:"provider"` // jina, openai, local, none or empty to auto-detect
	Model     string `toml:"model"`
	APIKey    string `toml:"api_key"`
	CacheSize int    `toml:"cache_size"`
	BatchSize int    `toml:"batch_size"`
}

// SearchConfig tunes the query cache
type SearchConfig struct {
	CacheSize       int `toml:"cache_size"`
	CacheTTLSeconds int `toml:"cache_ttl_seconds"`
}

// CacheTTL returns the query cache TTL as a duration
func (s SearchConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

// WatchConfig tunes the file watcher
type WatchConfig struct {
	DebounceMs int `toml:"debounce_ms"`
}

// Debounce returns the watcher debounce interval as a duration
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: filepath.Join(DefaultDir(), DBFileName)},
		Chunking: ChunkingConfig{MaxTokens: 1200, OverlapTokens: 200},
		Processing: ProcessingConfig{
			MaxDepth: 10,
			Exclude:  []string{"**/.git/**", "**/node_modules/**"},
		},
		Embedding: EmbeddingConfig{CacheSize: 10000, BatchSize: 50},
		Search:    SearchConfig{CacheSize: 1000, CacheTTLSeconds: 300},
		Watch:     WatchConfig{DebounceMs: 500},
	}
}

// DefaultDir returns ~/.doccontext, or .doccontext when the home directory is unknown
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}
	return filepath.Join(home, DirName)
}

// DefaultPath returns the configuration file path, honoring DOCCONTEXT_CONFIG
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return filepath.Join(DefaultDir(), FileName)
}

// Load reads the configuration file at path (DefaultPath when empty), applies
// environment overrides and validates the result. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()
	data, err := os.ReadFile(ExpandHome(path))
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.Database.Path = ExpandHome(cfg.Database.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as TOML, creating the directory if needed
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}
	path = ExpandHome(path)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// ApplyEnv overrides fields from environment variables
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvDBPath); v != "" {
		c.Database.Path = v
	}

	ints := []struct {
		env    string
		target *int
	}{
		{EnvMaxTokens, &c.Chunking.MaxTokens},
		{EnvOverlapTokens, &c.Chunking.OverlapTokens},
		{EnvMaxDepth, &c.Processing.MaxDepth},
	}
	for _, i := range ints {
		v := os.Getenv(i.env)
		if v == "" {
			continue
		}
		n, err := cast.ToIntE(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, i.env, v)
		}
		*i.target = n
	}

	if v := os.Getenv(EnvEmbeddingProvider); v != "" {
		c.Embedding.Provider = strings.ToLower(v)
	}
	if c.Embedding.APIKey == "" {
		switch c.Embedding.Provider {
		case "jina":
			c.Embedding.APIKey = os.Getenv(EnvJinaAPIKey)
		case "openai":
			c.Embedding.APIKey = os.Getenv(EnvOpenAIAPIKey)
		}
	}

	return nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	switch {
	case c.Database.Path == "":
		return fmt.Errorf("%w: database path is empty", ErrInvalidConfig)
	case c.Chunking.MaxTokens <= 0:
		return fmt.Errorf("%w: max_tokens must be positive", ErrInvalidConfig)
	case c.Chunking.OverlapTokens < 0:
		return fmt.Errorf("%w: overlap_tokens must not be negative", ErrInvalidConfig)
	case c.Chunking.OverlapTokens >= c.Chunking.MaxTokens:
		return fmt.Errorf("%w: overlap_tokens (%d) must be less than max_tokens (%d)",
			ErrInvalidConfig, c.Chunking.OverlapTokens, c.Chunking.MaxTokens)
	case c.Processing.MaxDepth <= 0:
		return fmt.Errorf("%w: max_depth must be positive", ErrInvalidConfig)
	case c.Processing.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}

	switch c.Embedding.Provider {
	case "", "jina", "openai", "local", "none":
	default:
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidConfig, c.Embedding.Provider)
	}

	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
