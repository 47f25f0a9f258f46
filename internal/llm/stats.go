package llm

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stats collects per-provider call outcomes. One Observe covers a provider's
// whole turn in the chain, retries included. Skipped providers are not observed.
type Stats interface {
	Observe(provider string, elapsed time.Duration, err error)
	Snapshot() map[string]ProviderStats
}

type ProviderStats struct {
	Attempts          int64   `json:"attempts"`
	Success           int64   `json:"success"`
	Errors            int64   `json:"errors"`
	TotalTimeS        float64 `json:"total_time_s"`
	AvgTimePerSuccess float64 `json:"avg_time_per_success_s"`
}

type counters struct {
	attempts atomic.Int64
	success  atomic.Int64
	errors   atomic.Int64
	nanos    atomic.Int64
}

// MemoryStats keeps counters in process memory. The zero value is ready to use.
type MemoryStats struct {
	mu        sync.RWMutex
	providers map[string]*counters
}

func NewMemoryStats() *MemoryStats { return &MemoryStats{} }

func (s *MemoryStats) get(provider string) *counters {
	s.mu.RLock()
	c, ok := s.providers[provider]
	s.mu.RUnlock()
	if ok {
		return c
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.providers == nil {
		s.providers = make(map[string]*counters)
	}
	if c, ok = s.providers[provider]; !ok {
		c = &counters{}
		s.providers[provider] = c
	}
	return c
}

func (s *MemoryStats) Observe(provider string, elapsed time.Duration, err error) {
	c := s.get(provider)
	c.attempts.Add(1)
	c.nanos.Add(int64(elapsed))
	if err != nil {
		c.errors.Add(1)
		return
	}
	c.success.Add(1)
}

func (s *MemoryStats) Snapshot() map[string]ProviderStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]ProviderStats, len(s.providers))
	for name, c := range s.providers {
		ps := ProviderStats{
			Attempts:   c.attempts.Load(),
			Success:    c.success.Load(),
			Errors:     c.errors.Load(),
			TotalTimeS: time.Duration(c.nanos.Load()).Seconds(),
		}
		if ps.Success > 0 {
			ps.AvgTimePerSuccess = ps.TotalTimeS / float64(ps.Success)
		}
		out[name] = ps
	}
	return out
}

// Providers lists the providers seen so far, sorted.
func (s *MemoryStats) Providers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PromStats mirrors every observation into prometheus collectors while
// keeping an in-memory snapshot for the stats endpoint.
type PromStats struct {
	mem      *MemoryStats
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewPromStats(reg prometheus.Registerer) *PromStats {
	f := promauto.With(reg)
	return &PromStats{
		mem: NewMemoryStats(),
		calls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pontis",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Provider calls by outcome.",
		}, []string{"provider", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pontis",
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Provider call latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"provider"}),
	}
}

func (s *PromStats) Observe(provider string, elapsed time.Duration, err error) {
	s.mem.Observe(provider, elapsed, err)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.calls.WithLabelValues(provider, outcome).Inc()
	s.duration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (s *PromStats) Snapshot() map[string]ProviderStats { return s.mem.Snapshot() }
