package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "CODERAG_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (CODERAG_*). Nested keys use a double
// underscore: CODERAG_SERVER__PORT -> server.port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderOllama: true,
	ProviderOpenAI: true,
}

var validStores = map[StoreType]bool{
	StoreChromem: true,
	StoreSQLite:  true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of ollama, openai", c.Provider)
	}
	if !validStores[c.Store] {
		return fmt.Errorf("invalid store %q: must be one of chromem, sqlite", c.Store)
	}
	if c.DB == "" {
		return fmt.Errorf("db is required")
	}
	if c.EmbedModel == "" {
		return fmt.Errorf("embed_model is required")
	}
	if c.LLMModel == "" {
		return fmt.Errorf("llm_model is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.QPS <= 0 {
		return fmt.Errorf("qps must be positive")
	}
	if c.CodeLines < 1 || c.CodeOverlap < 0 || c.CodeOverlap >= c.CodeLines {
		return fmt.Errorf("code chunking needs code_lines >= 1 and 0 <= code_overlap < code_lines (got %d/%d)", c.CodeLines, c.CodeOverlap)
	}
	if c.DocChars < 1 || c.DocOverlap < 0 || c.DocOverlap >= c.DocChars {
		return fmt.Errorf("prose chunking needs doc_chars >= 1 and 0 <= doc_overlap < doc_chars (got %d/%d)", c.DocChars, c.DocOverlap)
	}
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be at least 1")
	}
	if c.EmbedTimeoutSeconds < 0 || c.ChatTimeoutSeconds < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative")
	}
	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

// ResolvedBaseURL returns the base URL to use for the configured provider.
func (c *Config) ResolvedBaseURL() string {
	if c.Provider == ProviderOpenAI && (c.BaseURL == "" || c.BaseURL == DefaultConfig().BaseURL) {
		return DefaultOpenAIBaseURL
	}
	return c.BaseURL
}
