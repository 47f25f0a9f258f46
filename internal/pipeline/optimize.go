package pipeline

import (
	"fmt"
	"math"
	"strings"

	"Pontis/internal/design"
	"Pontis/internal/validate"
)

type Optimization struct {
	Summary OptimizationSummary `json:"optimized_design_summary"`
	Notes   []string            `json:"optimization_notes"`
}

type OptimizationSummary struct {
	ChangesProposed string `json:"changes_proposed"`
	OriginalType    string `json:"original_type"`
}

// Optimize returns simulated, advisory notes. It never returns modified
// parameters: girder depth stays derived from span and type, so an
// out-of-band span/depth ratio is only reported with the depth that would
// bring it to the middle of the band.
func (s *Service) Optimize(p design.Parameters, goals []string) Optimization {
	out := Optimization{
		Summary: OptimizationSummary{
			ChangesProposed: fmt.Sprintf("Reduce material usage by 10%% based on goals: %s (simulated).", strings.Join(goals, ", ")),
			OriginalType:    p.BridgeType,
		},
		Notes: []string{
			"Further structural analysis required for optimized design.",
			"Cost savings estimated at 5% (simulated).",
		},
	}
	if p.IsSentinel() {
		out.Summary.ChangesProposed = "No optimization possible: analysis failed."
		out.Notes = []string{"Resubmit the requirements once an analysis provider is available."}
		return out
	}
	depth := design.GirderDepth(p.SpanM, p.BridgeType)
	if s.kb == nil || depth <= 0 {
		return out
	}
	key := validate.RatioKey(p.BridgeType)
	if key == "" {
		return out
	}
	r, err := s.kb.RangeFor("span_to_depth_ratio", key)
	if err != nil {
		return out
	}
	ratio := p.SpanM / depth
	if r.Contains(ratio) {
		out.Notes = append(out.Notes, fmt.Sprintf("Span-to-depth ratio %.2f already within %g-%g.", ratio, r.Min, r.Max))
		return out
	}
	target := (r.Min + r.Max) / 2
	suggested := math.Round(p.SpanM/target*100) / 100
	out.Notes = append(out.Notes, fmt.Sprintf("Girder depth %.2f m gives span/depth %.2f outside %g-%g; a depth near %.2f m (span/depth %.0f) is worth checking in detailed design.", depth, ratio, r.Min, r.Max, suggested, target))
	return out
}
