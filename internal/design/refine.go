package design

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"Pontis/internal/knowledge"
)

const (
	DefaultSpanM           = 50.0
	DefaultBridgeWidthM    = 12.0
	LaneWidthM             = 3.5
	DefaultPierType        = "cylindrical"
	DefaultFoundationType  = "pile_cap"
	prestressingStrand     = "Y1860S7"
	defaultConcreteGrade   = "C40/50"
	defaultReinforcement   = "Fe500D"
	defaultStructuralSteel = "Q355"
)

var (
	spanPattern    = regexp.MustCompile(`(\d+\.?\d*)`)
	seismicPattern = regexp.MustCompile(`(\d+\s*度|\b[Ii]ntensity\s*\d+|\bZone\s*[IVXLCDM]+|\bseismic zone\s*\d+)`)
)

type typeRule struct {
	keys  []string
	kind  Kind
	label string
}

// Evaluated in order, first match wins.
var preferenceRules = []typeRule{
	{keys: []string{"beam", "girder"}, kind: KindBeam, label: "Beam Bridge"},
	{keys: []string{"arch"}, kind: KindArch, label: "Arch Bridge"},
	{keys: []string{"cable-stayed", "cable stayed"}, kind: KindCableStayed, label: "Cable-Stayed Bridge"},
	{keys: []string{"suspension"}, kind: KindSuspension, label: "Suspension Bridge"},
}

// Used for free-form labels such as an explicit type override.
var labelRules = []typeRule{
	{keys: []string{"cable-stayed", "cable stayed"}, kind: KindCableStayed},
	{keys: []string{"suspension"}, kind: KindSuspension},
	{keys: []string{"arch"}, kind: KindArch},
	{keys: []string{"truss"}, kind: KindTruss},
	{keys: []string{"continuous"}, kind: KindContinuousBeam},
	{keys: []string{"beam", "girder"}, kind: KindBeam},
}

type laneRule struct {
	lanes int
	keys  []string
}

var laneRules = []laneRule{
	{lanes: 4, keys: []string{"四", "4", "four"}},
	{lanes: 6, keys: []string{"六", "6", "six"}},
	{lanes: 8, keys: []string{"八", "8", "eight"}},
	{lanes: 2, keys: []string{"双", "两", "2", "two"}},
}

func containsAny(s string, keys ...string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ClassifyType maps a free-form bridge type label onto a Kind.
func ClassifyType(label string) Kind {
	l := strings.ToLower(label)
	if l == "" {
		return KindUnknown
	}
	for _, r := range labelRules {
		if containsAny(l, r.keys...) {
			return r.kind
		}
	}
	return KindBeam
}

// ResolveLanes returns 0 when no lane count can be read from desc.
func ResolveLanes(desc string) int {
	l := strings.ToLower(desc)
	for _, r := range laneRules {
		if containsAny(l, r.keys...) {
			return r.lanes
		}
	}
	return 0
}

func LaneWidth(lanes int) float64 {
	if lanes <= 0 {
		return 0
	}
	shoulder := 1.5
	if lanes >= 4 {
		shoulder = 3.0
	}
	return float64(lanes)*LaneWidthM + shoulder
}

// GirderDepth derives the girder depth from span by type:
// continuous L/18, simple beams the mean of L/16 and L/12, anything else L/15.
func GirderDepth(span float64, bridgeType string) float64 {
	if span <= 0 {
		return 0
	}
	l := strings.ToLower(bridgeType)
	switch {
	case strings.Contains(l, "continuous"):
		return round2(span / 18)
	case containsAny(l, "beam", "girder"):
		return round2((span/16 + span/12) / 2)
	}
	return round2(span / 15)
}

type Refiner struct {
	log *slog.Logger
}

func NewRefiner(logger *slog.Logger) *Refiner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Refiner{log: logger}
}

// Refine normalizes an intent into canonical parameters. It never fails:
// unparsable values fall back to defaults and a failed intent yields Sentinel.
func (r *Refiner) Refine(in Intent, c Constraints) Parameters {
	if in.Failed() {
		r.log.Warn("refinement skipped, analysis failed", "error", in.Error)
		return Sentinel(in.Error)
	}

	var p Parameters
	label, kind := r.resolveType(in)
	pref := strings.ToLower(in.BridgeTypePreference + " " + in.MaterialsHint)
	if containsAny(pref, "prestressed", "psc") && strings.Contains(pref, "concrete") {
		label = "Prestressed Concrete " + strings.Replace(label, "Beam Bridge", "Girder Bridge", 1)
		p.Prestressed = true
	} else if strings.Contains(pref, "prestressed") {
		label = "Prestressed " + label
	}
	if o := strings.TrimSpace(c.BridgeTypeOverride); o != "" {
		label, kind = o, ClassifyType(o)
	}
	p.BridgeType, p.Kind = label, kind

	p.SpanM = r.resolveSpan(in, c, &p.Notes)

	lanesDesc := in.RoadLanesDescription
	if strings.TrimSpace(c.LaneOverride) != "" {
		lanesDesc = c.LaneOverride
	}
	p.NumLanes = ResolveLanes(lanesDesc)
	switch {
	case p.NumLanes > 0:
		p.BridgeWidthM = LaneWidth(p.NumLanes)
	case in.AssumedBridgeWidth != nil && *in.AssumedBridgeWidth > 0:
		p.BridgeWidthM = *in.AssumedBridgeWidth
	default:
		p.BridgeWidthM = DefaultBridgeWidthM
		if strings.TrimSpace(lanesDesc) != "" {
			r.log.Warn("lane count not recognised, using default width", "lanes", lanesDesc, "width_m", DefaultBridgeWidthM)
			p.Notes = append(p.Notes, fmt.Sprintf("Lane count not recognised in %q; default width %.1f m used.", lanesDesc, DefaultBridgeWidthM))
		}
	}

	p.GirderDepthM = GirderDepth(p.SpanM, p.BridgeType)
	switch {
	case strings.Contains(strings.ToLower(p.BridgeType), "continuous"):
		p.BeamHeightRuleM = round2(knowledge.BeamHeightEstimate(p.SpanM, "continuous"))
	case p.Kind == KindBeam:
		p.BeamHeightRuleM = round2(knowledge.BeamHeightEstimate(p.SpanM, "simple"))
	default:
		p.BeamHeightRuleM = round2(knowledge.BeamHeightEstimate(p.SpanM, ""))
	}

	p.Materials = resolveMaterials(p, in)
	p.MainGirderType = mainGirderType(p)
	p.SeismicIntensity = resolveSeismic(in, c)
	p.Seismic = SeismicDetails{
		DesignIntensity: in.SeismicDesignIntensity,
		FoundationNotes: in.FoundationSeismicNotes,
		ConnectionNotes: in.BeamToPierConnection,
		OtherDetails:    in.OtherSeismicDetails,
	}

	p.NumGirders = 1
	if c.NumGirders != nil && *c.NumGirders > 0 {
		p.NumGirders = *c.NumGirders
	}
	if c.NumPiersVisualize != nil && *c.NumPiersVisualize >= 0 {
		n := *c.NumPiersVisualize
		p.NumPiersVisualize = &n
	}
	p.PierType = DefaultPierType
	if t := strings.TrimSpace(c.PierType); t != "" {
		p.PierType = t
	}
	p.FoundationType = DefaultFoundationType
	if t := strings.TrimSpace(c.FoundationType); t != "" {
		p.FoundationType = t
	}
	if c.FoundationDepthM != nil && *c.FoundationDepthM > 0 {
		p.FoundationDepthM = *c.FoundationDepthM
	}
	return p
}

func (r *Refiner) resolveType(in Intent) (string, Kind) {
	l := strings.ToLower(in.BridgeTypePreference)
	label, kind := "Beam Bridge", KindBeam
	for _, rule := range preferenceRules {
		if containsAny(l, rule.keys...) {
			label, kind = rule.label, rule.kind
			break
		}
	}
	if kind == KindBeam && strings.Contains(l, "continuous") {
		label, kind = "Continuous "+label, KindContinuousBeam
	}
	return label, kind
}

func (r *Refiner) resolveSpan(in Intent, c Constraints, notes *[]string) float64 {
	var (
		source string
		value  float64
	)
	switch {
	case c.SpanOverride != nil:
		source, value = "span override", *c.SpanOverride
	case in.EstimatedSpanMeters != nil:
		source, value = "estimated span", *in.EstimatedSpanMeters
	case strings.TrimSpace(in.SpanDescription) != "":
		source = "span description"
		m := spanPattern.FindString(in.SpanDescription)
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			r.log.Warn("span not parsable, using default", "description", in.SpanDescription, "span_m", DefaultSpanM)
			*notes = append(*notes, fmt.Sprintf("Could not parse span from %q; default %.1f m used.", in.SpanDescription, DefaultSpanM))
			return DefaultSpanM
		}
		value = v
	default:
		*notes = append(*notes, fmt.Sprintf("No span given; default %.1f m used.", DefaultSpanM))
		return DefaultSpanM
	}
	if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		r.log.Warn("non-positive span rejected, using default", "source", source, "value", value, "span_m", DefaultSpanM)
		*notes = append(*notes, fmt.Sprintf("Rejected %s %g; default %.1f m used.", source, value, DefaultSpanM))
		return DefaultSpanM
	}
	return value
}

func resolveMaterials(p Parameters, in Intent) Materials {
	hint := strings.ToLower(in.MaterialsHint)
	text := strings.ToLower(p.BridgeType + " " + in.BridgeTypePreference + " " + in.MaterialsHint)
	m := Materials{ConcreteGrade: defaultConcreteGrade, SteelReinforcement: defaultReinforcement}
	switch {
	case p.Prestressed:
		m.PrestressingSteel = prestressingStrand
		m.MainBeamsMaterial = "Prestressed Concrete " + m.ConcreteGrade
	case strings.Contains(text, "steel"):
		m.StructuralSteelGrade = defaultStructuralSteel
		m.MainBeamsMaterial = "Structural Steel " + defaultStructuralSteel
		if !concreteDeck(hint) {
			m.ConcreteGrade = ""
		}
	default:
		m.MainBeamsMaterial = "Reinforced Concrete " + m.ConcreteGrade
	}
	return m
}

func concreteDeck(hint string) bool {
	return containsAny(hint, "deck", "桥面") && containsAny(hint, "concrete", "混凝土")
}

func mainGirderType(p Parameters) string {
	switch {
	case p.Prestressed && p.Kind == KindContinuousBeam:
		return "Prestressed Concrete Continuous Girder"
	case p.Prestressed:
		return "Prestressed Concrete I-Girder"
	case p.Materials.StructuralSteelGrade != "":
		return "Steel I-Girder"
	}
	return "I-Girder"
}

func resolveSeismic(in Intent, c Constraints) string {
	if s := strings.TrimSpace(c.SeismicIntensity); s != "" {
		return s
	}
	if s := strings.TrimSpace(in.SeismicDescription); s != "" {
		return s
	}
	env := in.EnvironmentalFactors
	if m := seismicPattern.FindString(env); m != "" {
		return m
	}
	if containsAny(strings.ToLower(env), "seismic", "earthquake", "抗震") {
		return env
	}
	return ""
}
