package config

// ProviderType identifies an embedding/chat backend.
type ProviderType string

const (
	ProviderOllama ProviderType = "ollama"
	ProviderOpenAI ProviderType = "openai"
)

// StoreType selects the vector store backend.
type StoreType string

const (
	StoreChromem StoreType = "chromem"
	StoreSQLite  StoreType = "sqlite"
)

// Config is the top-level coderag configuration, corresponding to .coderag.yml.
type Config struct {
	DB         string       `yaml:"db" koanf:"db"`
	Collection string       `yaml:"collection" koanf:"collection"`
	Store      StoreType    `yaml:"store" koanf:"store"`
	Provider   ProviderType `yaml:"provider" koanf:"provider"`
	BaseURL    string       `yaml:"base_url" koanf:"base_url"`
	EmbedModel string       `yaml:"embed_model" koanf:"embed_model"`
	LLMModel   string       `yaml:"llm_model" koanf:"llm_model"`

	Workers int     `yaml:"workers" koanf:"workers"`
	QPS     float64 `yaml:"qps" koanf:"qps"`

	CodeLines   int `yaml:"code_lines" koanf:"code_lines"`
	CodeOverlap int `yaml:"code_overlap" koanf:"code_overlap"`
	DocChars    int `yaml:"doc_chars" koanf:"doc_chars"`
	DocOverlap  int `yaml:"doc_overlap" koanf:"doc_overlap"`

	Ignore   []string `yaml:"ignore" koanf:"ignore"`
	ExtraExt []string `yaml:"extra_ext" koanf:"extra_ext"`

	TopK     int    `yaml:"top_k" koanf:"top_k"`
	GitRange string `yaml:"git_range" koanf:"git_range"`

	EmbedTimeoutSeconds int `yaml:"embed_timeout_seconds" koanf:"embed_timeout_seconds"`
	ChatTimeoutSeconds  int `yaml:"chat_timeout_seconds" koanf:"chat_timeout_seconds"`
	CacheSize           int `yaml:"cache_size" koanf:"cache_size"`

	// MetricsFile, when set, receives a Prometheus text dump after every
	// indexing command (node_exporter textfile format).
	MetricsFile string `yaml:"metrics_file" koanf:"metrics_file"`

	Server ServerConfig `yaml:"server" koanf:"server"`
}

// ServerConfig holds settings for the HTTP query API.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}
