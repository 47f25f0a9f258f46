// Package pipeline wires requirements analysis, refinement, validation and
// scene generation into the service the HTTP layer and CLI call.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"Pontis/internal/design"
	"Pontis/internal/drawing"
	"Pontis/internal/knowledge"
	"Pontis/internal/llm"
	"Pontis/internal/scene"
	"Pontis/internal/validate"
)

// Analyzer is the requirements-analysis collaborator.
type Analyzer interface {
	Analyze(ctx context.Context, text string) llm.Analysis
}

type Evaluation struct {
	Params design.Parameters `json:"params"`
	Report validate.Report   `json:"report"`
}

type Request struct {
	UserRequirements  string             `json:"user_requirements"`
	ProjectConditions map[string]any     `json:"project_conditions,omitempty"`
	Constraints       design.Constraints `json:"design_constraints"`
}

// Design is a complete generated scheme.
type Design struct {
	ID                string             `json:"design_id"`
	CreatedAt         time.Time          `json:"created_at"`
	Requirements      string             `json:"user_requirements"`
	ProjectConditions map[string]any     `json:"project_conditions,omitempty"`
	Provider          string             `json:"provider"`
	Intent            design.Intent      `json:"intent"`
	Constraints       design.Constraints `json:"design_constraints"`
	Params            design.Parameters  `json:"params"`
	Report            validate.Report    `json:"report"`
	Template          string             `json:"template,omitempty"`
	Standards         string             `json:"standards,omitempty"`
}

// Outcome is either Designed or AnalysisFailed.
type Outcome interface {
	outcome()
}

type Designed struct {
	Design Design
}

type AnalysisFailed struct {
	ID       string
	Provider string
	Intent   design.Intent
	Params   design.Parameters
	Err      error
}

func (Designed) outcome()       {}
func (AnalysisFailed) outcome() {}

type Service struct {
	analyzer  Analyzer
	kb        *knowledge.Store
	refiner   *design.Refiner
	validator *validate.Validator
	stats     *Stats
	log       *slog.Logger
	now       func() time.Time
}

func New(analyzer Analyzer, kb *knowledge.Store, stats *Stats, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if stats == nil {
		stats = &Stats{}
	}
	var ranges validate.RangeSource
	if kb != nil {
		ranges = kb
	}
	return &Service{
		analyzer:  analyzer,
		kb:        kb,
		refiner:   design.NewRefiner(logger),
		validator: validate.New(ranges, logger),
		stats:     stats,
		log:       logger,
		now:       time.Now,
	}
}

func (s *Service) Stats() *Stats { return s.stats }

func (s *Service) Knowledge() *knowledge.Store { return s.kb }

// Analyze runs requirements analysis only.
func (s *Service) Analyze(ctx context.Context, text string) llm.Analysis {
	return s.analyzer.Analyze(ctx, text)
}

// RefineAndValidate is pure: it performs no I/O and never fails.
func (s *Service) RefineAndValidate(in design.Intent, c design.Constraints) Evaluation {
	s.stats.Refined.Add(1)
	p := s.refiner.Refine(in, c)
	return Evaluation{Params: p, Report: s.validator.Validate(p)}
}

func (s *Service) BuildScene(p design.Parameters) scene.Descriptor {
	return scene.Compose(p)
}

func (s *Service) RenderElevationSVG(p design.Parameters) string {
	return drawing.Elevation(p, drawing.Options{})
}

func (s *Service) RenderSectionSVG(p design.Parameters) string {
	return drawing.Section(p, drawing.Options{})
}

// Generate runs the whole chain for one request.
func (s *Service) Generate(ctx context.Context, req Request) Outcome {
	start := s.now()
	s.stats.Requests.Add(1)
	defer func() { s.stats.nanos.Add(int64(s.now().Sub(start))) }()

	id := uuid.NewString()
	a := s.analyzer.Analyze(ctx, req.UserRequirements)
	if a.Failed() {
		s.stats.Failed.Add(1)
		err := a.Err
		if err == nil {
			err = fmt.Errorf("%w: %s", llm.ErrAllProvidersFailed, a.Intent.Error)
		}
		s.log.Error("analysis failed, design not generated", "design_id", id, "provider", a.Provider, "error", err)
		return AnalysisFailed{
			ID:       id,
			Provider: a.Provider,
			Intent:   a.Intent,
			Params:   design.Sentinel(a.Intent.Error),
			Err:      err,
		}
	}

	ev := s.RefineAndValidate(a.Intent, req.Constraints)
	d := Design{
		ID:                id,
		CreatedAt:         start.UTC(),
		Requirements:      req.UserRequirements,
		ProjectConditions: req.ProjectConditions,
		Provider:          a.Provider,
		Intent:            a.Intent,
		Constraints:       req.Constraints,
		Params:            ev.Params,
		Report:            ev.Report,
	}
	if s.kb != nil {
		if t, err := s.kb.TemplateFor(ev.Params.SpanM); err == nil {
			d.Template = t.Name
		}
		family := "concrete"
		if ev.Params.Materials.StructuralSteelGrade != "" {
			family = "steel"
		}
		d.Standards = s.kb.StandardsFor(family)
	}
	s.stats.Succeeded.Add(1)
	s.log.Info("design generated",
		"design_id", id,
		"provider", a.Provider,
		"bridge_type", ev.Params.BridgeType,
		"span_m", ev.Params.SpanM,
		"width_m", ev.Params.BridgeWidthM,
		"valid", ev.Report.Valid,
	)
	return Designed{Design: d}
}
