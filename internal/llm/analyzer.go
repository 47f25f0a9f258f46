package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Pontis/internal/design"
)

const (
	ProviderNone   = "none"
	ProviderSystem = "system"

	allFailedMessage = "All LLM providers failed or returned errors."
)

// Analysis is the outcome of one requirements analysis. On failure Intent
// carries Error and Details, Provider is "none" and Err wraps
// ErrAllProvidersFailed.
type Analysis struct {
	Intent   design.Intent `json:"intent"`
	Provider string        `json:"provider"`
	Err      error         `json:"-"`
}

func (a Analysis) Failed() bool { return a.Intent.Failed() }

// Analyzer asks providers strictly in order and returns the first usable
// intent. There is no parallel fan-out.
type Analyzer struct {
	providers []Client
	stats     Stats
	log       *slog.Logger
}

func NewAnalyzer(stats Stats, logger *slog.Logger, providers ...Client) *Analyzer {
	if stats == nil {
		stats = NewMemoryStats()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analyzer{providers: providers, stats: stats, log: logger}
}

func (a *Analyzer) Stats() Stats { return a.stats }

func (a *Analyzer) Providers() []string {
	names := make([]string, len(a.providers))
	for i, p := range a.providers {
		names[i] = p.Name()
	}
	return names
}

func (a *Analyzer) Analyze(ctx context.Context, text string) Analysis {
	prompt, err := Prompt(ExtractBridgeParameters, text)
	if err != nil {
		a.log.Error("prompt rendering failed", "error", err)
		return Analysis{
			Intent:   design.Intent{Error: "Failed to generate prompt from template", Details: err.Error()},
			Provider: ProviderSystem,
			Err:      err,
		}
	}

	details := make(map[string]string, len(a.providers))
	var failures []string
	for _, p := range a.providers {
		if ctx.Err() != nil {
			details[p.Name()] = ctx.Err().Error()
			failures = append(failures, p.Name()+": "+ctx.Err().Error())
			continue
		}
		start := time.Now()
		intent, err := a.call(ctx, p, prompt)
		if errors.Is(err, ErrNotConfigured) {
			a.log.Warn("provider skipped", "provider", p.Name(), "reason", err)
			details[p.Name()] = "skipped: not configured"
			continue
		}
		a.stats.Observe(p.Name(), time.Since(start), err)
		if err != nil {
			a.log.Warn("provider failed, trying next", "provider", p.Name(), "error", err)
			details[p.Name()] = err.Error()
			failures = append(failures, p.Name()+": "+err.Error())
			continue
		}
		a.log.Info("requirements analysed", "provider", p.Name(), "elapsed", time.Since(start))
		return Analysis{Intent: intent, Provider: p.Name()}
	}

	a.log.Error("all llm providers failed", "providers", a.Providers())
	return Analysis{
		Intent:   design.Intent{Error: allFailedMessage, Details: details},
		Provider: ProviderNone,
		Err:      fmt.Errorf("%w: %s", ErrAllProvidersFailed, strings.Join(failures, "; ")),
	}
}

func (a *Analyzer) call(ctx context.Context, p Client, prompt string) (design.Intent, error) {
	var intent design.Intent
	raw, err := p.GenerateJSON(ctx, prompt)
	if err != nil {
		return intent, err
	}
	if err := json.Unmarshal(raw, &intent); err != nil {
		return intent, decodeError(p.Name(), err)
	}
	if intent.Failed() {
		return intent, &StatusError{Provider: p.Name(), Body: intent.Error, Err: errors.New(intent.Error)}
	}
	return intent, nil
}
