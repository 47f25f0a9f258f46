package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaults(t *testing.T) {
	cfg := FromEnv(env(nil))

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "https://api.deepseek.com", cfg.LLM.DeepSeekBaseURL)
	assert.Equal(t, "llama2", cfg.LLM.OllamaModel)
	assert.True(t, cfg.LLM.QwenEnabled)
	assert.Equal(t, 2, cfg.LLM.MaxRetries)
	assert.Equal(t, time.Second, cfg.LLM.RetryDelay)
	assert.Zero(t, cfg.LLM.RPS)
	assert.False(t, cfg.Artifact.Enabled)
	assert.Equal(t, "pontis-artifacts", cfg.Artifact.Bucket)
	assert.ErrorIs(t, cfg.RequireServer(), ErrNoTokenKey)
}

func TestOverrides(t *testing.T) {
	cfg := FromEnv(env(map[string]string{
		"PORT":            ":9443",
		"TOKEN_KEY":       " secret ",
		"QWEN_ENABLED":    "false",
		"LLM_MAX_RETRIES": "4",
		"LLM_RETRY_DELAY": "1.5",
		"LLM_CACHE_TTL":   "30s",
		"LLM_RPS":         "2.5",
		"S3_ENDPOINT":     "minio:9000",
		"MINIO_ROOT_USER": "root",
		"S3_USE_SSL":      "yes-please",
	}))

	assert.Equal(t, ":9443", cfg.Port)
	assert.Equal(t, "secret", cfg.TokenKey)
	require.NoError(t, cfg.RequireServer())
	assert.False(t, cfg.LLM.QwenEnabled)
	assert.Equal(t, 4, cfg.LLM.MaxRetries)
	assert.Equal(t, 1500*time.Millisecond, cfg.LLM.RetryDelay)
	assert.Equal(t, 30*time.Second, cfg.LLM.CacheTTL)
	assert.Equal(t, 2.5, cfg.LLM.RPS)
	assert.True(t, cfg.Artifact.Enabled)
	assert.Equal(t, "root", cfg.Artifact.AccessKey)
	assert.False(t, cfg.Artifact.UseSSL)
}

func TestPortWithoutColon(t *testing.T) {
	assert.Equal(t, ":3000", FromEnv(env(map[string]string{"PORT": "3000"})).Port)
}

func TestBadNumbersFallBack(t *testing.T) {
	cfg := FromEnv(env(map[string]string{"LLM_MAX_RETRIES": "many", "LLM_TIMEOUT": "-", "LLM_CACHE_SIZE": "x"}))
	assert.Equal(t, 2, cfg.LLM.MaxRetries)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 256, cfg.LLM.CacheSize)
}

func TestChainConfig(t *testing.T) {
	cfg := FromEnv(env(map[string]string{
		"DEEPSEEK_API_KEY": "sk-test",
		"LLM_TIMEOUT":      "15",
		"QWEN_ENABLED":     "false",
	}))
	chain := cfg.LLM.Chain()
	assert.Equal(t, "sk-test", chain.DeepSeek.APIKey)
	assert.Equal(t, 15*time.Second, chain.DeepSeek.Timeout)
	assert.Equal(t, 15*time.Second, chain.Ollama.Timeout)
	assert.Equal(t, "http://localhost:11434", chain.Ollama.BaseURL)
	assert.False(t, chain.QwenEnabled)
	assert.Equal(t, 256, chain.CacheSize)
}
