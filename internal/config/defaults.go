package config

// DefaultConfigFile is the config path used when --config is not given.
const DefaultConfigFile = ".coderag.yml"

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DB:                  ".rag_db",
		Store:               StoreChromem,
		Provider:            ProviderOllama,
		BaseURL:             "http://localhost:11434",
		EmbedModel:          "bge-m3",
		LLMModel:            "mistral",
		Workers:             4,
		QPS:                 3.0,
		CodeLines:           120,
		CodeOverlap:         20,
		DocChars:            1200,
		DocOverlap:          200,
		TopK:                6,
		GitRange:            "HEAD~1..HEAD",
		EmbedTimeoutSeconds: 180,
		ChatTimeoutSeconds:  240,
		CacheSize:           10000,
		Server: ServerConfig{
			Port: 8080,
		},
	}
}

// DefaultOpenAIBaseURL is used when provider is openai and base_url was
// left at the Ollama default.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// ModelPreset pairs an embedding model with a chat model.
type ModelPreset struct {
	EmbedModel string
	LLMModel   string
}

var providerPresets = map[ProviderType]ModelPreset{
	ProviderOllama: {EmbedModel: "bge-m3", LLMModel: "mistral"},
	ProviderOpenAI: {EmbedModel: "text-embedding-3-small", LLMModel: "gpt-4o-mini"},
}

// GetPreset returns the default models for a provider, falling back to Ollama.
func GetPreset(provider ProviderType) ModelPreset {
	if p, ok := providerPresets[provider]; ok {
		return p
	}
	return providerPresets[ProviderOllama]
}
