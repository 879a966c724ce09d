// Package config defines process configuration and its loading order.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DataDir is the root of the artifact tree (raw, processed, reports, charts).
	DataDir string `koanf:"data_dir"`

	// API-FOOTBALL provider settings.
	APIFootballKey    string `koanf:"apifootball_key"`
	LeagueID          int64  `koanf:"league_id"`
	Season            int    `koanf:"season"`
	RequestsPerMinute int    `koanf:"requests_per_minute"`

	// Narrative writer: groq, gemini or basic. The provider key lives in
	// GroqAPIKey / GeminiAPIKey; an LLM provider without a key degrades to
	// the basic writer.
	LLMProvider  string `koanf:"llm_provider"`
	LLMModel     string `koanf:"llm_model"`
	GroqAPIKey   string `koanf:"groq_api_key"`
	GeminiAPIKey string `koanf:"gemini_api_key"`

	// PostgresDSN enables the postgres analysis store when non-empty;
	// otherwise the in-memory store is used.
	PostgresDSN string `koanf:"postgres_dsn"`

	// ClickhouseDSN enables the score history sink when non-empty.
	ClickhouseDSN string `koanf:"clickhouse_dsn"`

	// MetricsAddr exposes /metrics when non-empty, e.g. ":9091".
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config with defaults. The default league is the Argentine
// Liga Profesional.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		DataDir:           "data",
		LeagueID:          128,
		Season:            2023,
		RequestsPerMinute: 10,
		LLMProvider:       "groq",
	}
}

// NarrativeAPIKey returns the key for the configured LLM provider.
func (c *Config) NarrativeAPIKey() string {
	switch c.LLMProvider {
	case "groq":
		return c.GroqAPIKey
	case "gemini":
		return c.GeminiAPIKey
	default:
		return ""
	}
}
