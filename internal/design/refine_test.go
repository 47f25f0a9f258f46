package design

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestRefinePrestressedContinuousScenario(t *testing.T) {
	p := NewRefiner(nil).Refine(Intent{
		BridgeTypePreference: "prestressed concrete continuous beam",
		EstimatedSpanMeters:  ptr(100.0),
		RoadLanesDescription: "双向四车道",
	}, Constraints{})

	assert.Equal(t, "Prestressed Concrete Continuous Girder Bridge", p.BridgeType)
	assert.Contains(t, p.BridgeType, "Prestressed")
	assert.Contains(t, p.BridgeType, "Continuous")
	assert.Contains(t, p.BridgeType, "Girder")
	assert.Equal(t, KindContinuousBeam, p.Kind)
	assert.True(t, p.Prestressed)
	assert.Equal(t, 100.0, p.SpanM)
	assert.Equal(t, 4, p.NumLanes)
	assert.Equal(t, 17.0, p.BridgeWidthM)
	assert.Equal(t, 5.56, p.GirderDepthM)
	assert.Equal(t, "Y1860S7", p.Materials.PrestressingSteel)
	assert.Equal(t, "C40/50", p.Materials.ConcreteGrade)
	assert.Equal(t, "Fe500D", p.Materials.SteelReinforcement)
	assert.Equal(t, "Prestressed Concrete Continuous Girder", p.MainGirderType)
	assert.Empty(t, p.Notes)
}

func TestResolveType(t *testing.T) {
	cases := []struct {
		pref, hint string
		label      string
		kind       Kind
	}{
		{"", "", "Beam Bridge", KindBeam},
		{"steel girder", "", "Beam Bridge", KindBeam},
		{"Continuous girder", "", "Continuous Beam Bridge", KindContinuousBeam},
		{"arch", "", "Arch Bridge", KindArch},
		{"Cable stayed", "", "Cable-Stayed Bridge", KindCableStayed},
		{"cable-stayed with suspension backup", "", "Cable-Stayed Bridge", KindCableStayed},
		{"suspension", "", "Suspension Bridge", KindSuspension},
		{"arch beam", "", "Beam Bridge", KindBeam},
		{"psc girder", "concrete C50", "Prestressed Concrete Girder Bridge", KindBeam},
		{"prestressed arch", "", "Prestressed Arch Bridge", KindArch},
		{"something odd", "", "Beam Bridge", KindBeam},
	}
	r := NewRefiner(nil)
	for _, tc := range cases {
		p := r.Refine(Intent{BridgeTypePreference: tc.pref, MaterialsHint: tc.hint}, Constraints{})
		assert.Equal(t, tc.label, p.BridgeType, tc.pref)
		assert.Equal(t, tc.kind, p.Kind, tc.pref)
	}
}

func TestTypeOverrideWins(t *testing.T) {
	p := NewRefiner(nil).Refine(Intent{BridgeTypePreference: "arch"}, Constraints{BridgeTypeOverride: " Steel Truss Bridge "})
	assert.Equal(t, "Steel Truss Bridge", p.BridgeType)
	assert.Equal(t, KindTruss, p.Kind)
	assert.Equal(t, "Q355", p.Materials.StructuralSteelGrade)
	assert.Empty(t, p.Materials.ConcreteGrade)
}

func TestClassifyType(t *testing.T) {
	assert.Equal(t, KindUnknown, ClassifyType(""))
	assert.Equal(t, KindTruss, ClassifyType("Steel Truss Bridge"))
	assert.Equal(t, KindContinuousBeam, ClassifyType("Continuous Girder Bridge"))
	assert.Equal(t, KindCableStayed, ClassifyType("cable stayed"))
	assert.Equal(t, KindBeam, ClassifyType("viaduct"))
}

func TestResolveSpan(t *testing.T) {
	r := NewRefiner(nil)
	cases := []struct {
		name  string
		in    Intent
		c     Constraints
		want  float64
		noted bool
	}{
		{"override first", Intent{EstimatedSpanMeters: ptr(80.0), SpanDescription: "30m"}, Constraints{SpanOverride: ptr(120.0)}, 120, false},
		{"estimate second", Intent{EstimatedSpanMeters: ptr(80.0), SpanDescription: "30m"}, Constraints{}, 80, false},
		{"description third", Intent{SpanDescription: "主跨约 42.5 米"}, Constraints{}, 42.5, false},
		{"unparsable description", Intent{SpanDescription: "long"}, Constraints{}, DefaultSpanM, true},
		{"zero override rejected", Intent{EstimatedSpanMeters: ptr(80.0)}, Constraints{SpanOverride: ptr(0.0)}, DefaultSpanM, true},
		{"negative estimate rejected", Intent{EstimatedSpanMeters: ptr(-5.0)}, Constraints{}, DefaultSpanM, true},
		{"zero in description rejected", Intent{SpanDescription: "0 m"}, Constraints{}, DefaultSpanM, true},
		{"nothing given", Intent{}, Constraints{}, DefaultSpanM, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := r.Refine(tc.in, tc.c)
			assert.Equal(t, tc.want, p.SpanM)
			assert.Equal(t, tc.noted, len(p.Notes) > 0, p.Notes)
		})
	}
}

func TestResolveLanes(t *testing.T) {
	cases := []struct {
		desc string
		want int
	}{
		{"双向四车道", 4},
		{"六车道", 6},
		{"eight lanes", 8},
		{"two lanes", 2},
		{"双车道", 2},
		{"4 lanes", 4},
		{"Four lanes, two sidewalks", 4},
		{"six or two", 6},
		{"single lane", 0},
		{"", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ResolveLanes(tc.desc), tc.desc)
	}
}

func TestLaneWidth(t *testing.T) {
	for lanes, want := range map[int]float64{2: 8.5, 4: 17.0, 6: 24.0, 8: 31.0, 0: 0} {
		assert.Equal(t, want, LaneWidth(lanes), lanes)
	}
}

func TestWidthFallbacks(t *testing.T) {
	r := NewRefiner(nil)

	p := r.Refine(Intent{RoadLanesDescription: "two lanes"}, Constraints{LaneOverride: "八车道"})
	assert.Equal(t, 8, p.NumLanes)
	assert.Equal(t, 31.0, p.BridgeWidthM)

	p = r.Refine(Intent{RoadLanesDescription: "single lane", AssumedBridgeWidth: ptr(9.0)}, Constraints{})
	assert.Equal(t, 0, p.NumLanes)
	assert.Equal(t, 9.0, p.BridgeWidthM)

	p = r.Refine(Intent{RoadLanesDescription: "single lane"}, Constraints{})
	assert.Equal(t, DefaultBridgeWidthM, p.BridgeWidthM)
	assert.NotEmpty(t, p.Notes)
}

func TestGirderDepth(t *testing.T) {
	for _, span := range []float64{1, 18, 25.01, 37.3, 100, 333.33} {
		assert.Equal(t, round2(span/18), GirderDepth(span, "Continuous Beam Bridge"), span)
		assert.Equal(t, round2(span/18), GirderDepth(span, "prestressed concrete continuous girder"), span)
	}
	assert.Equal(t, 2.19, GirderDepth(30, "Beam Bridge"))
	assert.Equal(t, 4.0, GirderDepth(60, "Arch Bridge"))
	assert.Equal(t, 0.0, GirderDepth(0, "Beam Bridge"))
}

func TestMaterials(t *testing.T) {
	r := NewRefiner(nil)

	p := r.Refine(Intent{BridgeTypePreference: "girder"}, Constraints{})
	assert.Equal(t, Materials{ConcreteGrade: "C40/50", SteelReinforcement: "Fe500D", MainBeamsMaterial: "Reinforced Concrete C40/50"}, p.Materials)
	assert.Equal(t, "I-Girder", p.MainGirderType)

	p = r.Refine(Intent{BridgeTypePreference: "steel box girder"}, Constraints{})
	assert.Equal(t, "Q355", p.Materials.StructuralSteelGrade)
	assert.Empty(t, p.Materials.ConcreteGrade)
	assert.Equal(t, "Steel I-Girder", p.MainGirderType)

	p = r.Refine(Intent{BridgeTypePreference: "girder", MaterialsHint: "steel girders with concrete deck"}, Constraints{})
	assert.Equal(t, "Q355", p.Materials.StructuralSteelGrade)
	assert.Equal(t, "C40/50", p.Materials.ConcreteGrade)

	p = r.Refine(Intent{BridgeTypePreference: "girder", MaterialsHint: "steel girders, steel orthotropic deck"}, Constraints{})
	assert.Equal(t, "Q355", p.Materials.StructuralSteelGrade)
	assert.Empty(t, p.Materials.ConcreteGrade)

	p = r.Refine(Intent{BridgeTypePreference: "steel girder", MaterialsHint: "混凝土桥面板"}, Constraints{})
	assert.Equal(t, "Q355", p.Materials.StructuralSteelGrade)
	assert.Equal(t, "C40/50", p.Materials.ConcreteGrade)
}

func TestSeismicIntensity(t *testing.T) {
	r := NewRefiner(nil)

	p := r.Refine(Intent{SeismicDescription: "8度"}, Constraints{SeismicIntensity: "7度"})
	assert.Equal(t, "7度", p.SeismicIntensity)

	p = r.Refine(Intent{SeismicDescription: "8度"}, Constraints{})
	assert.Equal(t, "8度", p.SeismicIntensity)

	p = r.Refine(Intent{EnvironmentalFactors: "river crossing, seismic intensity 8 region"}, Constraints{})
	assert.Equal(t, "intensity 8", p.SeismicIntensity)

	p = r.Refine(Intent{EnvironmentalFactors: "site in seismic zone 4"}, Constraints{})
	assert.Equal(t, "seismic zone 4", p.SeismicIntensity)

	p = r.Refine(Intent{EnvironmentalFactors: "frequent earthquakes"}, Constraints{})
	assert.Equal(t, "frequent earthquakes", p.SeismicIntensity)

	p = r.Refine(Intent{EnvironmentalFactors: "coastal wind"}, Constraints{})
	assert.Empty(t, p.SeismicIntensity)
}

func TestVisualisationHints(t *testing.T) {
	r := NewRefiner(nil)

	p := r.Refine(Intent{}, Constraints{})
	assert.Equal(t, 1, p.NumGirders)
	assert.Nil(t, p.NumPiersVisualize)
	assert.Equal(t, DefaultPierType, p.PierType)
	assert.Equal(t, DefaultFoundationType, p.FoundationType)

	p = r.Refine(Intent{}, Constraints{NumGirders: ptr(4), NumPiersVisualize: ptr(3), PierType: "rectangular", FoundationType: "spread_footing"})
	assert.Equal(t, 4, p.NumGirders)
	require.NotNil(t, p.NumPiersVisualize)
	assert.Equal(t, 3, *p.NumPiersVisualize)
	assert.Equal(t, "rectangular", p.PierType)
	assert.Equal(t, "spread_footing", p.FoundationType)
}

func TestRefineFailedIntentReturnsSentinel(t *testing.T) {
	p := NewRefiner(nil).Refine(Intent{
		BridgeTypePreference: "arch",
		EstimatedSpanMeters:  ptr(80.0),
		Error:                "all providers failed",
	}, Constraints{SpanOverride: ptr(100.0)})

	assert.True(t, p.IsSentinel())
	assert.Equal(t, AnalysisFailedType, p.BridgeType)
	assert.Zero(t, p.SpanM)
	assert.Zero(t, p.BridgeWidthM)
	assert.Zero(t, p.GirderDepthM)
	assert.Zero(t, p.NumLanes)
	assert.True(t, p.Materials.Empty())
	assert.Equal(t, "all providers failed", p.Error)
}
