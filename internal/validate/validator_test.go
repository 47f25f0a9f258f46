package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Pontis/internal/design"
	"Pontis/internal/knowledge"
)

type brokenRanges struct{}

func (brokenRanges) RangeFor(string, string) (knowledge.Range, error) {
	return knowledge.Range{}, errors.New("store offline")
}

func newValidator(t *testing.T) *Validator {
	t.Helper()
	kb, err := knowledge.Load()
	require.NoError(t, err)
	return New(kb, nil)
}

func refine(in design.Intent, c design.Constraints) design.Parameters {
	return design.NewRefiner(nil).Refine(in, c)
}

func span(v float64) *float64 { return &v }

func TestRatioKey(t *testing.T) {
	cases := map[string]string{
		"Prestressed Concrete Continuous Girder Bridge": "prestressed_concrete_beam",
		"Steel Girder Bridge":                           "steel_beam",
		"Steel Truss Bridge":                            "steel_truss",
		"Concrete Beam Bridge":                          "concrete_beam",
		"Concrete Arch Bridge":                          "concrete_arch",
		"Truss Bridge":                                  "truss",
		"Suspension Bridge":                             "",
		"Beam Bridge":                                   "",
		"Prestressed Concrete Arch Bridge":              "",
		"Steel-Concrete Composite Arch Bridge":          "",
	}
	for text, want := range cases {
		assert.Equal(t, want, RatioKey(text), text)
	}
}

func TestSpanDepthWithinRange(t *testing.T) {
	p := refine(design.Intent{EstimatedSpanMeters: span(30)}, design.Constraints{BridgeTypeOverride: "Concrete Girder Bridge"})
	rep := newValidator(t).Validate(p)

	n, ok := rep.Note(RuleSpanDepth)
	require.True(t, ok)
	assert.True(t, n.Passed)
	assert.Equal(t, "Span-to-depth ratio 13.70 is within the typical range (12-20) for concrete_beam.", n.Message)
}

func TestSpanDepthOutsideRange(t *testing.T) {
	p := refine(design.Intent{
		BridgeTypePreference: "prestressed concrete continuous beam",
		EstimatedSpanMeters:  span(100),
		RoadLanesDescription: "双向四车道",
	}, design.Constraints{})
	rep := newValidator(t).Validate(p)

	n, _ := rep.Note(RuleSpanDepth)
	assert.False(t, n.Passed)
	assert.Equal(t, "Warning: Span-to-depth ratio 17.99 is outside the typical range (18-28) for prestressed_concrete_beam.", n.Message)
	assert.False(t, rep.Valid)

	m, _ := rep.Note(RuleMaterial)
	assert.True(t, m.Passed, m.Message)
}

func TestSpanDepthSkipped(t *testing.T) {
	v := newValidator(t)

	p := refine(design.Intent{EstimatedSpanMeters: span(60)}, design.Constraints{BridgeTypeOverride: "Concrete Arch Bridge"})
	n, _ := v.Validate(p).Note(RuleSpanDepth)
	assert.True(t, n.Passed)
	assert.Contains(t, n.Message, "Could not find range for 'concrete_arch'")

	p = refine(design.Intent{BridgeTypePreference: "suspension", EstimatedSpanMeters: span(600)}, design.Constraints{})
	n, _ = v.Validate(p).Note(RuleSpanDepth)
	assert.True(t, n.Passed)
	assert.Contains(t, n.Message, "No specific range for bridge type 'Suspension Bridge'")

	p = refine(design.Intent{}, design.Constraints{BridgeTypeOverride: "Concrete Girder Bridge"})
	n, _ = New(brokenRanges{}, nil).Validate(p).Note(RuleSpanDepth)
	assert.True(t, n.Passed)
	assert.Contains(t, n.Message, "Could not find range for 'concrete_beam'")

	n, _ = New(nil, nil).Validate(p).Note(RuleSpanDepth)
	assert.True(t, n.Passed)
	assert.Contains(t, n.Message, "Knowledge base unavailable")
}

func TestSpanDepthKeysOnBridgeTypeOnly(t *testing.T) {
	v := newValidator(t)

	p := refine(design.Intent{BridgeTypePreference: "steel girder", EstimatedSpanMeters: span(60)}, design.Constraints{})
	require.Equal(t, "Beam Bridge", p.BridgeType)
	require.Contains(t, p.Materials.MainBeamsMaterial, "Steel")
	n, _ := v.Validate(p).Note(RuleSpanDepth)
	assert.True(t, n.Passed, n.Message)
	assert.Contains(t, n.Message, "No specific range for bridge type 'Beam Bridge'")

	p = refine(design.Intent{EstimatedSpanMeters: span(60)}, design.Constraints{BridgeTypeOverride: "Prestressed Concrete Arch"})
	n, _ = v.Validate(p).Note(RuleSpanDepth)
	assert.True(t, n.Passed, n.Message)
	assert.Contains(t, n.Message, "No specific range for bridge type 'Prestressed Concrete Arch'")
}

func TestMaterialCompatibility(t *testing.T) {
	v := newValidator(t)

	p := design.Parameters{
		BridgeType:   "Steel Girder Bridge",
		SpanM:        40,
		GirderDepthM: 2,
		Materials:    design.Materials{MainBeamsMaterial: "C40/50 concrete"},
	}
	n, _ := v.Validate(p).Note(RuleMaterial)
	assert.False(t, n.Passed)
	assert.Contains(t, n.Message, "suggests steel")

	p = design.Parameters{
		BridgeType: "Prestressed Concrete Girder Bridge",
		SpanM:      40,
		Materials:  design.Materials{ConcreteGrade: "C50"},
	}
	n, _ = v.Validate(p).Note(RuleMaterial)
	assert.False(t, n.Passed)
	assert.Contains(t, n.Message, "does not clearly state it")
	assert.Contains(t, n.Message, "no prestressing steel")

	p = design.Parameters{
		BridgeType: "Concrete Girder Bridge",
		SpanM:      40,
		Materials:  design.Materials{ConcreteGrade: "C50"},
	}
	n, _ = v.Validate(p).Note(RuleMaterial)
	assert.True(t, n.Passed, n.Message)

	p = refine(design.Intent{EstimatedSpanMeters: span(350)}, design.Constraints{BridgeTypeOverride: "Concrete Girder Bridge"})
	n, _ = v.Validate(p).Note(RuleMaterial)
	assert.False(t, n.Passed)
	assert.Contains(t, n.Message, "very large for a non-prestressed concrete beam bridge")

	p = refine(design.Intent{EstimatedSpanMeters: span(350), BridgeTypePreference: "psc girder", MaterialsHint: "concrete"}, design.Constraints{})
	n, _ = v.Validate(p).Note(RuleMaterial)
	assert.True(t, n.Passed, n.Message)
}

func TestSeismicHighIntensityWithoutNotesFails(t *testing.T) {
	p := refine(design.Intent{BridgeTypePreference: "girder", SeismicDescription: "8度"}, design.Constraints{})
	rep := newValidator(t).Validate(p)

	n, ok := rep.Note(RuleSeismic)
	require.True(t, ok)
	assert.False(t, n.Passed)
	assert.Contains(t, n.Message, "Seismic intensity is high (8度)")
	assert.False(t, rep.Valid)
}

func TestSeismicNotesSatisfyHighIntensity(t *testing.T) {
	v := newValidator(t)
	cases := []design.Intent{
		{SeismicDescription: "8度", SeismicDesignIntensity: "VIII"},
		{SeismicDescription: "8度", BeamToPierConnection: "lead rubber isolation bearings"},
		{SeismicDescription: "8度", FoundationSeismicNotes: "桩基抗震验算"},
		{SeismicDescription: "intensity 9", OtherSeismicDetails: "viscous damper at abutments"},
	}
	for _, in := range cases {
		n, _ := v.Validate(refine(in, design.Constraints{})).Note(RuleSeismic)
		assert.True(t, n.Passed, n.Message)
		assert.Contains(t, n.Message, "addressed at a high level")
	}

	n, _ := v.Validate(refine(design.Intent{SeismicDescription: "8度", BeamToPierConnection: "fixed bearings"}, design.Constraints{})).Note(RuleSeismic)
	assert.False(t, n.Passed)
}

func TestSeismicFoundationAndOtherNotesNeedNoKeyword(t *testing.T) {
	v := newValidator(t)
	cases := []design.Intent{
		{SeismicDescription: "8度", FoundationSeismicNotes: "Pile cap thickened to 2.0 m, extra reinforcement at pile heads"},
		{SeismicDescription: "8度", OtherSeismicDetails: "Expansion joints sized for 150 mm movement"},
	}
	for _, in := range cases {
		n, _ := v.Validate(refine(in, design.Constraints{})).Note(RuleSeismic)
		assert.True(t, n.Passed, n.Message)
		assert.Contains(t, n.Message, "addressed at a high level")
	}
}

func TestSeismicLowAndMissing(t *testing.T) {
	v := newValidator(t)

	n, _ := v.Validate(refine(design.Intent{SeismicDescription: "6度"}, design.Constraints{})).Note(RuleSeismic)
	assert.True(t, n.Passed)
	assert.Contains(t, n.Message, "Basic seismic check passed")

	n, _ = v.Validate(refine(design.Intent{}, design.Constraints{})).Note(RuleSeismic)
	assert.True(t, n.Passed)
	assert.Contains(t, n.Message, "skipped")
}

func TestSeismicDuctilityNote(t *testing.T) {
	p := refine(design.Intent{SeismicDescription: "8度", SeismicDesignIntensity: "8"}, design.Constraints{})
	p.Materials.SteelReinforcement = "HRB400"

	n, _ := newValidator(t).Validate(p).Note(RuleSeismic)
	assert.True(t, n.Passed)
	assert.Contains(t, n.Message, "enhanced ductility")

	assert.True(t, ductile("Fe500D"))
	assert.True(t, ductile("HRB400E"))
	assert.True(t, ductile("sd490"))
	assert.False(t, ductile("HRB400"))
}

func TestSentinelPassesThrough(t *testing.T) {
	rep := newValidator(t).Validate(design.Sentinel("analysis failed"))

	require.Len(t, rep.Notes, 3)
	assert.Equal(t, []string{RuleSpanDepth, RuleMaterial, RuleSeismic}, []string{rep.Notes[0].Rule, rep.Notes[1].Rule, rep.Notes[2].Rule})
	for _, n := range rep.Notes {
		assert.True(t, n.Passed)
		assert.Contains(t, n.Message, "skipped")
	}
	assert.True(t, rep.Valid)
}
