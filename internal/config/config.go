// Package config reads service settings from the environment and an optional .env file.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"Pontis/internal/llm"
)

type Config struct {
	Port        string
	TLSCert     string
	TLSKey      string
	DatabaseURL string
	TokenKey    string
	LogLevel    string
	LogFormat   string
	LLM         LLMConfig
	Artifact    ArtifactConfig
}

type LLMConfig struct {
	DeepSeekAPIKey  string
	DeepSeekBaseURL string
	DeepSeekModel   string
	OllamaBaseURL   string
	OllamaModel     string
	QwenEnabled     bool
	MaxRetries      int
	RetryDelay      time.Duration
	Timeout         time.Duration
	RPS             float64
	CacheSize       int
	CacheTTL        time.Duration
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

var ErrNoTokenKey = errors.New("config: TOKEN_KEY is not set")

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg := FromEnv(os.Getenv)
	return &cfg, nil
}

// FromEnv builds a Config from a lookup function, applying defaults.
func FromEnv(getenv func(string) string) Config {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	port := firstNonEmpty(get("PORT"), "8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	endpoint := get("S3_ENDPOINT")
	return Config{
		Port:        port,
		TLSCert:     get("TLS_CERT"),
		TLSKey:      get("TLS_KEY"),
		DatabaseURL: get("DATABASE_URL"),
		TokenKey:    get("TOKEN_KEY"),
		LogLevel:    firstNonEmpty(get("LOG_LEVEL"), "info"),
		LogFormat:   firstNonEmpty(get("LOG_FORMAT"), "text"),
		LLM: LLMConfig{
			DeepSeekAPIKey:  get("DEEPSEEK_API_KEY"),
			DeepSeekBaseURL: firstNonEmpty(get("DEEPSEEK_BASE_URL"), "https://api.deepseek.com"),
			DeepSeekModel:   firstNonEmpty(get("DEEPSEEK_MODEL"), "deepseek-chat"),
			OllamaBaseURL:   firstNonEmpty(get("OLLAMA_BASE_URL"), "http://localhost:11434"),
			OllamaModel:     firstNonEmpty(get("OLLAMA_MODEL"), "llama2"),
			QwenEnabled:     parseBool(get("QWEN_ENABLED"), true),
			MaxRetries:      parseInt(get("LLM_MAX_RETRIES"), 2),
			RetryDelay:      parseDuration(get("LLM_RETRY_DELAY"), time.Second),
			Timeout:         parseDuration(get("LLM_TIMEOUT"), 60*time.Second),
			RPS:             parseFloat(get("LLM_RPS"), 0),
			CacheSize:       parseInt(get("LLM_CACHE_SIZE"), 256),
			CacheTTL:        parseDuration(get("LLM_CACHE_TTL"), 10*time.Minute),
		},
		Artifact: ArtifactConfig{
			Enabled:   endpoint != "",
			Endpoint:  endpoint,
			Region:    firstNonEmpty(get("S3_REGION"), "us-east-1"),
			AccessKey: firstNonEmpty(get("S3_ACCESS_KEY"), get("MINIO_ROOT_USER")),
			SecretKey: firstNonEmpty(get("S3_SECRET_KEY"), get("MINIO_ROOT_PASSWORD")),
			Bucket:    firstNonEmpty(get("S3_BUCKET"), "pontis-artifacts"),
			UseSSL:    parseBool(get("S3_USE_SSL"), false),
		},
	}
}

// RequireServer checks the settings the HTTP server cannot start without.
func (c *Config) RequireServer() error {
	if c.TokenKey == "" {
		return ErrNoTokenKey
	}
	return nil
}

// Chain maps the LLM settings onto the provider chain configuration.
func (c LLMConfig) Chain() llm.ChainConfig {
	return llm.ChainConfig{
		DeepSeek: llm.DeepSeekConfig{
			APIKey:  c.DeepSeekAPIKey,
			BaseURL: c.DeepSeekBaseURL,
			Model:   c.DeepSeekModel,
			Timeout: c.Timeout,
		},
		Ollama: llm.OllamaConfig{
			BaseURL: c.OllamaBaseURL,
			Model:   c.OllamaModel,
			Timeout: c.Timeout,
		},
		QwenEnabled: c.QwenEnabled,
		MaxRetries:  c.MaxRetries,
		RetryDelay:  c.RetryDelay,
		RPS:         c.RPS,
		CacheSize:   c.CacheSize,
		CacheTTL:    c.CacheTTL,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseBool(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func parseInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func parseFloat(raw string, def float64) float64 {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

// parseDuration accepts Go durations ("1500ms") or plain seconds ("1.5").
func parseDuration(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if s, err := strconv.ParseFloat(raw, 64); err == nil && s >= 0 {
		return time.Duration(s * float64(time.Second))
	}
	return def
}
