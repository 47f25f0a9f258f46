package validate

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"Pontis/internal/design"
	"Pontis/internal/knowledge"
)

const (
	RuleSpanDepth = "span_depth"
	RuleMaterial  = "material"
	RuleSeismic   = "seismic"

	spanDepthCategory  = "span_to_depth_ratio"
	highSeismicLevel   = 7
	plainConcreteLimit = 300.0
)

var (
	gradePattern   = regexp.MustCompile(`c\d+`)
	leadingDigits  = regexp.MustCompile(`\d+`)
	seismicKeyword = []string{"seismic", "抗震", "damper", "isolation", "限位"}
)

// RangeSource is satisfied by *knowledge.Store.
type RangeSource interface {
	RangeFor(category, subtype string) (knowledge.Range, error)
}

type Note struct {
	Rule    string `json:"rule"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

type Report struct {
	Notes   []Note `json:"notes"`
	Valid   bool   `json:"valid"`
	Summary string `json:"summary"`
}

func (r Report) Note(rule string) (Note, bool) {
	for _, n := range r.Notes {
		if n.Rule == rule {
			return n, true
		}
	}
	return Note{}, false
}

// RatioKey maps a bridge type label onto a span_to_depth_ratio subtype.
// Material families are tried in order; a family that matches but has no
// beam, truss or arch form yields no key rather than falling through.
func RatioKey(bridgeType string) string {
	l := strings.ToLower(bridgeType)
	beam := containsAny(l, "beam", "girder")
	switch {
	case strings.Contains(l, "prestressed") && containsAny(l, "concrete", "pc"):
		if beam {
			return "prestressed_concrete_beam"
		}
	case strings.Contains(l, "steel"):
		if beam {
			return "steel_beam"
		}
		if strings.Contains(l, "truss") {
			return "steel_truss"
		}
	case strings.Contains(l, "concrete"):
		if beam {
			return "concrete_beam"
		}
		if strings.Contains(l, "arch") {
			return "concrete_arch"
		}
	case strings.Contains(l, "truss"):
		return "truss"
	}
	return ""
}

type Validator struct {
	ranges RangeSource
	log    *slog.Logger
}

func New(ranges RangeSource, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Validator{ranges: ranges, log: logger}
}

// Validate runs every rule and never fails; the result is advisory only.
func (v *Validator) Validate(p design.Parameters) Report {
	notes := []Note{
		v.spanDepth(p),
		materialCompatibility(p),
		seismicAdequacy(p),
	}
	rep := Report{Notes: notes, Valid: true}
	failed := 0
	for _, n := range notes {
		if !n.Passed {
			rep.Valid = false
			failed++
		}
	}
	if rep.Valid {
		rep.Summary = "All preliminary checks passed (simulated)."
	} else {
		rep.Summary = fmt.Sprintf("%d of %d preliminary checks raised warnings (simulated).", failed, len(notes))
	}
	return rep
}

func (v *Validator) spanDepth(p design.Parameters) Note {
	n := Note{Rule: RuleSpanDepth, Passed: true}
	if p.SpanM <= 0 || p.GirderDepthM <= 0 {
		n.Message = "Span-to-depth ratio check skipped: span and girder depth are required."
		return n
	}
	if v.ranges == nil {
		n.Message = "Span-to-depth ratio check skipped: Knowledge base unavailable."
		return n
	}
	ratio := p.SpanM / p.GirderDepthM
	key := RatioKey(p.BridgeType)
	if key == "" {
		n.Message = fmt.Sprintf("Span-to-depth ratio check skipped: No specific range for bridge type '%s'. Ratio is %.2f.", p.BridgeType, ratio)
		return n
	}
	rg, err := v.ranges.RangeFor(spanDepthCategory, key)
	if err != nil {
		v.log.Debug("span/depth range missing", "key", key, "error", err)
		n.Message = fmt.Sprintf("Span-to-depth ratio check skipped: Could not find range for '%s'. Ratio is %.2f.", key, ratio)
		return n
	}
	if rg.Min > rg.Max {
		n.Message = fmt.Sprintf("Span-to-depth ratio check skipped: Invalid range configured for '%s'. Ratio is %.2f.", key, ratio)
		return n
	}
	if rg.Contains(ratio) {
		n.Message = fmt.Sprintf("Span-to-depth ratio %.2f is within the typical range (%g-%g) for %s.", ratio, rg.Min, rg.Max, key)
		return n
	}
	n.Passed = false
	n.Message = fmt.Sprintf("Warning: Span-to-depth ratio %.2f is outside the typical range (%g-%g) for %s.", ratio, rg.Min, rg.Max, key)
	return n
}

func materialCompatibility(p design.Parameters) Note {
	n := Note{Rule: RuleMaterial, Passed: true}
	if p.BridgeType == "" || p.IsSentinel() || p.Materials.Empty() || p.SpanM <= 0 {
		n.Message = "Material compatibility check skipped: bridge type, materials and span are required."
		return n
	}

	bt := strings.ToLower(p.BridgeType)
	mainBeam := p.Materials.MainBeamsMaterial
	if mainBeam == "" {
		mainBeam = p.Materials.ConcreteGrade
	}
	mb := strings.ToLower(mainBeam)
	prestressed := containsAny(bt, "prestressed", "psc")

	var warnings []string
	if prestressed {
		if !containsAny(mb, "prestressed", "psc", "预应力") {
			warnings = append(warnings, fmt.Sprintf("Warning: Bridge type '%s' suggests prestressed concrete, but main beam material '%s' does not clearly state it.", p.BridgeType, mainBeam))
		}
		if p.Materials.PrestressingSteel == "" {
			warnings = append(warnings, "Warning: Prestressed concrete bridge type specified, but no prestressing steel type defined in materials.")
		}
	}
	if strings.Contains(bt, "concrete") && !containsAny(mb, "concrete", "混凝土") && !gradePattern.MatchString(mb) {
		warnings = append(warnings, fmt.Sprintf("Warning: Bridge type '%s' suggests concrete, but main beam material '%s' does not clearly state it.", p.BridgeType, mainBeam))
	}
	if strings.Contains(bt, "steel") && !strings.Contains(mb, "steel") {
		warnings = append(warnings, fmt.Sprintf("Warning: Bridge type '%s' suggests steel, but main beam material '%s' does not clearly state it.", p.BridgeType, mainBeam))
	}
	plainConcrete := !prestressed && p.Materials.PrestressingSteel == "" &&
		p.Materials.StructuralSteelGrade == "" && containsAny(bt, "beam", "girder") &&
		(strings.Contains(bt, "concrete") || strings.Contains(mb, "concrete"))
	if plainConcrete && p.SpanM > plainConcreteLimit {
		warnings = append(warnings, fmt.Sprintf("Warning: Span of %gm is very large for a non-prestressed concrete beam bridge.", p.SpanM))
	}

	if len(warnings) == 0 {
		n.Message = "Material compatibility checks passed (basic)."
		return n
	}
	n.Passed = false
	n.Message = strings.Join(warnings, " ")
	return n
}

func seismicAdequacy(p design.Parameters) Note {
	n := Note{Rule: RuleSeismic, Passed: true}
	intensity := strings.TrimSpace(p.SeismicIntensity)
	if intensity == "" {
		n.Message = "Seismic requirements check skipped: No seismic intensity level provided."
		return n
	}

	level := 0
	if m := leadingDigits.FindString(intensity); m != "" {
		level, _ = strconv.Atoi(m)
	}

	var found []string
	s := p.Seismic
	if strings.TrimSpace(s.DesignIntensity) != "" {
		found = append(found, fmt.Sprintf("Seismic design intensity noted in parameters: '%s'.", s.DesignIntensity))
	}
	if strings.TrimSpace(s.FoundationNotes) != "" {
		found = append(found, fmt.Sprintf("Seismic considerations in foundation: '%s'.", s.FoundationNotes))
	}
	if strings.TrimSpace(s.OtherDetails) != "" {
		found = append(found, fmt.Sprintf("Other seismic details in key nodes: '%s'.", s.OtherDetails))
	}
	// Connection notes only count when they name a seismic measure.
	if mentionsSeismic(s.ConnectionNotes) {
		found = append(found, fmt.Sprintf("Seismic considerations in beam-to-pier connection: '%s'.", s.ConnectionNotes))
	}

	if level < highSeismicLevel {
		n.Message = strings.TrimSpace(fmt.Sprintf("Basic seismic check passed for intensity '%s'. Detailed engineering verification is still required. %s", intensity, strings.Join(found, " ")))
		return n
	}
	if len(found) == 0 {
		n.Passed = false
		n.Message = fmt.Sprintf("Warning: Seismic intensity is high (%s), but no explicit seismic design parameters or details were found in the design output.", intensity)
		return n
	}
	if grade := p.Materials.SteelReinforcement; grade != "" && !ductile(grade) {
		found = append(found, fmt.Sprintf("Note: For seismic level %s, consider using reinforcement steel with enhanced ductility (e.g., Grade D or E, or SD grades). Current: '%s'.", intensity, grade))
	}
	found = append(found, fmt.Sprintf("Seismic design requirements for intensity '%s' appear to be addressed at a high level.", intensity))
	n.Message = strings.Join(found, " ")
	return n
}

func mentionsSeismic(s string) bool {
	return s != "" && containsAny(strings.ToLower(s), seismicKeyword...)
}

func ductile(grade string) bool {
	g := strings.ToUpper(strings.TrimSpace(grade))
	return strings.HasSuffix(g, "D") || strings.HasSuffix(g, "E") || strings.HasPrefix(g, "SD")
}

func containsAny(s string, keys ...string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
