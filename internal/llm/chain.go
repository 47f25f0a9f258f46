package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"
)

type ChainConfig struct {
	DeepSeek    DeepSeekConfig
	Ollama      OllamaConfig
	QwenEnabled bool
	MaxRetries  int
	RetryDelay  time.Duration
	RPS         float64
	CacheSize   int
	CacheTTL    time.Duration
}

// NewChain builds the DeepSeek → Ollama → Qwen failover analyzer. Remote
// providers are rate limited and retried; every provider is cached and logged.
func NewChain(cfg ChainConfig, stats Stats, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	remote := []Middleware{
		WithLogging(logger),
		Cache(cfg.CacheSize, cfg.CacheTTL),
		RateLimit(cfg.RPS, 1),
		Retry(cfg.MaxRetries, cfg.RetryDelay),
	}
	providers := []Client{
		Wrap(NewDeepSeek(cfg.DeepSeek), remote...),
		Wrap(NewOllama(cfg.Ollama), remote...),
	}
	if cfg.QwenEnabled {
		providers = append(providers, Wrap(NewQwen(), WithLogging(logger)))
	}
	return NewAnalyzer(stats, logger, providers...)
}

// FakeClient is a scripted provider for tests and offline runs. Call i fails
// with Errs[i] while there are errors left, then returns Raw.
type FakeClient struct {
	ProviderName string
	Raw          json.RawMessage
	Errs         []error
	calls        atomic.Int64
}

func (f *FakeClient) Name() string {
	if f.ProviderName == "" {
		return "Fake"
	}
	return f.ProviderName
}

func (f *FakeClient) Calls() int { return int(f.calls.Load()) }

func (f *FakeClient) GenerateJSON(ctx context.Context, _ string) (json.RawMessage, error) {
	n := int(f.calls.Add(1)) - 1
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n < len(f.Errs) && f.Errs[n] != nil {
		return nil, f.Errs[n]
	}
	return f.Raw, nil
}
