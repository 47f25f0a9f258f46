package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"Pontis/internal/design"
)

// -------- Retry --------

// Retry makes up to maxRetries extra attempts with a fixed delay between
// them. Only Retryable errors are repeated; the context aborts the wait.
func Retry(maxRetries int, delay time.Duration) Middleware {
	maxRetries = max(maxRetries, 0)
	return func(next Client) Client {
		return &retrying{next: next, retries: maxRetries, delay: delay}
	}
}

type retrying struct {
	next    Client
	retries int
	delay   time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }

func (r *retrying) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	var last error
	for attempt := range r.retries + 1 {
		raw, err := r.next.GenerateJSON(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		last = err
		if !Retryable(err) || attempt == r.retries {
			break
		}
		if r.delay <= 0 {
			continue
		}
		t := time.NewTimer(r.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	return nil, last
}

// -------- Rate limiting --------

// RateLimit throttles calls to rps with the given burst. rps <= 0 disables it.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Client) Client {
		if rps <= 0 {
			return next
		}
		return &rateLimited{next: next, lim: rate.NewLimiter(rate.Limit(rps), max(burst, 1))}
	}
}

type rateLimited struct {
	next Client
	lim  *rate.Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }

func (c *rateLimited) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	if err := c.lim.Wait(ctx); err != nil {
		return nil, err
	}
	return c.next.GenerateJSON(ctx, prompt)
}

// -------- Logging --------

func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Client) Client {
		return &logging{next: next, log: logger.With("provider", next.Name())}
	}
}

type logging struct {
	next Client
	log  *slog.Logger
}

func (l *logging) Name() string { return l.next.Name() }

func (l *logging) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	start := time.Now()
	l.log.Debug("llm request", "prompt_bytes", len(prompt))
	raw, err := l.next.GenerateJSON(ctx, prompt)
	if err != nil {
		l.log.Warn("llm call failed", "error", err, "elapsed", time.Since(start))
		return nil, err
	}
	l.log.Info("llm call succeeded", "elapsed", time.Since(start), "response_bytes", len(raw))
	return raw, nil
}

// -------- Caching --------

// Cache memoises successful responses per provider and prompt for ttl and
// collapses concurrent identical calls into one. Errors are never cached,
// including replies that decode to an error-tagged intent.
func Cache(size int, ttl time.Duration) Middleware {
	return func(next Client) Client {
		if size <= 0 {
			return next
		}
		return &cached{next: next, lru: expirable.NewLRU[string, json.RawMessage](size, nil, ttl)}
	}
}

type cached struct {
	next  Client
	lru   *expirable.LRU[string, json.RawMessage]
	group singleflight.Group
}

func (c *cached) Name() string { return c.next.Name() }

func (c *cached) GenerateJSON(ctx context.Context, prompt string) (json.RawMessage, error) {
	sum := sha256.Sum256([]byte(c.next.Name() + "\x00" + prompt))
	key := hex.EncodeToString(sum[:])
	if raw, ok := c.lru.Get(key); ok {
		return raw, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		raw, err := c.next.GenerateJSON(ctx, prompt)
		if err != nil {
			return nil, err
		}
		if cacheable(raw) {
			c.lru.Add(key, raw)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

func cacheable(raw json.RawMessage) bool {
	var in design.Intent
	return json.Unmarshal(raw, &in) == nil && !in.Failed()
}
