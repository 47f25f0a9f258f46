package pipeline

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats counts design generations. Safe for concurrent use; the zero value is ready.
type Stats struct {
	Requests  atomic.Int64
	Succeeded atomic.Int64
	Failed    atomic.Int64
	Refined   atomic.Int64
	nanos     atomic.Int64
}

type StatsSnapshot struct {
	TotalRequests      int64   `json:"total_requests"`
	SuccessfulDesigns  int64   `json:"successful_designs"`
	FailedDesigns      int64   `json:"failed_designs"`
	Refinements        int64   `json:"refinements"`
	TotalDesignTimeS   float64 `json:"total_design_time_s"`
	AvgTimePerRequestS float64 `json:"avg_time_per_request_s"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	out := StatsSnapshot{
		TotalRequests:     s.Requests.Load(),
		SuccessfulDesigns: s.Succeeded.Load(),
		FailedDesigns:     s.Failed.Load(),
		Refinements:       s.Refined.Load(),
		TotalDesignTimeS:  time.Duration(s.nanos.Load()).Seconds(),
	}
	if out.TotalRequests > 0 {
		out.AvgTimePerRequestS = out.TotalDesignTimeS / float64(out.TotalRequests)
	}
	return out
}

// Register exposes the counters as prometheus collectors read at scrape time.
func (s *Stats) Register(reg prometheus.Registerer) error {
	counter := func(name, help string, v *atomic.Int64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "pontis",
			Subsystem: "design",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(v.Load()) })
	}
	collectors := []prometheus.Collector{
		counter("requests_total", "Design generation requests.", &s.Requests),
		counter("succeeded_total", "Designs generated.", &s.Succeeded),
		counter("failed_total", "Design requests that failed analysis.", &s.Failed),
		counter("refinements_total", "Parameter refinements.", &s.Refined),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "pontis",
			Subsystem: "design",
			Name:      "time_seconds_total",
			Help:      "Time spent generating designs.",
		}, func() float64 { return time.Duration(s.nanos.Load()).Seconds() }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
