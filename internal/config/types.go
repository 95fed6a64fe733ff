package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level nico configuration, corresponding to .nico.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	DataDir           string       `yaml:"data_dir" koanf:"data_dir"`
	Addr              string       `yaml:"addr" koanf:"addr"`
	SessionSecret     string       `yaml:"session_secret" koanf:"session_secret"`
	Search            SearchConfig `yaml:"search" koanf:"search"`
	HistoryTTLMinutes int          `yaml:"history_ttl_minutes" koanf:"history_ttl_minutes"`
	RequestsPerMinute int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// SearchConfig holds the hybrid FAQ search blend. Question and answer
// weights must sum to 1.
type SearchConfig struct {
	QuestionWeight float32 `yaml:"question_weight" koanf:"question_weight"`
	AnswerWeight   float32 `yaml:"answer_weight" koanf:"answer_weight"`
}
