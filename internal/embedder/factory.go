package embedder

import (
	"fmt"
	"os"
	"strings"

	"github.com/dshills/doccontext-mcp/internal/config"
)

// Environment variables consulted when the configuration leaves them unset
const (
	EnvProvider     = config.EnvEmbeddingProvider
	EnvJinaAPIKey   = config.EnvJinaAPIKey
	EnvOpenAIAPIKey = config.EnvOpenAIAPIKey
)

// New creates an embedder from configuration.
// Provider priority:
//  1. cfg.Provider (jina, openai, local, none)
//  2. JINA_API_KEY, then OPENAI_API_KEY
//  3. local
func New(cfg config.EmbeddingConfig) (Embedder, error) {
	cache := NewCache(cfg.CacheSize)

	provider := DetectProvider(cfg)
	switch provider {
	case ProviderJina:
		return NewJinaProvider(apiKey(cfg, EnvJinaAPIKey), cache, WithModel(cfg.Model))
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey(cfg, EnvOpenAIAPIKey), cache, WithModel(cfg.Model))
	case ProviderLocal:
		return NewLocalProvider(cache)
	case ProviderNone:
		return nil, ErrEmbeddingDisabled
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, provider)
	}
}

// NewFromEnv creates an embedder configured only from environment variables
func NewFromEnv() (Embedder, error) {
	return New(config.EmbeddingConfig{
		Provider:  os.Getenv(EnvProvider),
		CacheSize: DefaultCacheSize,
	})
}

// DetectProvider returns the provider New would use for cfg
func DetectProvider(cfg config.EmbeddingConfig) string {
	if cfg.Provider != "" {
		return strings.ToLower(cfg.Provider)
	}
	if p := os.Getenv(EnvProvider); p != "" {
		return strings.ToLower(p)
	}

	if os.Getenv(EnvJinaAPIKey) != "" {
		return ProviderJina
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}

	return ProviderLocal
}

func apiKey(cfg config.EmbeddingConfig, env string) string {
	if cfg.APIKey != "" {
		return cfg.APIKey
	}
	return os.Getenv(env)
}
