package knowledge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeFor(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)

	cases := map[string]Range{
		"prestressed_concrete_beam": {Min: 18, Max: 28},
		"steel_beam":                {Min: 15, Max: 30},
		"steel_truss":               {Min: 10, Max: 18},
		"concrete_beam":             {Min: 12, Max: 20},
		"truss":                     {Min: 8, Max: 15},
	}
	for key, want := range cases {
		got, err := s.RangeFor("span_to_depth_ratio", key)
		require.NoError(t, err, key)
		assert.Equal(t, want, got, key)
	}

	_, err = s.RangeFor("span_to_depth_ratio", "concrete_arch")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.RangeFor("magic_ratio", "x")
	assert.ErrorIs(t, err, ErrNotFound)

	lane, err := s.RangeFor("typical_road_lane_width_m", "")
	require.NoError(t, err)
	assert.True(t, lane.Contains(3.5))
	assert.False(t, lane.Contains(4))
}

func TestMaterialProperty(t *testing.T) {
	s := MustLoad()

	props, err := s.MaterialProperty("concrete", "C40/50")
	require.NoError(t, err)
	assert.EqualValues(t, 40, props["compressive_strength_mpa"])

	props["compressive_strength_mpa"] = 1
	again, err := s.MaterialProperty("concrete", "C40/50")
	require.NoError(t, err)
	assert.EqualValues(t, 40, again["compressive_strength_mpa"])

	_, err = s.MaterialProperty("concrete", "C99/115")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.MaterialProperty("titanium", "Ti6")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBridgeType(t *testing.T) {
	s := MustLoad()

	info, err := s.BridgeType("Cable-Stayed Bridge")
	require.NoError(t, err)
	assert.Equal(t, "Cable-Stayed Bridge", info.Name)
	assert.NotEmpty(t, info.Advantages)

	info, err = s.BridgeType("arch")
	require.NoError(t, err)
	assert.Equal(t, "Arch Bridge", info.Name)

	_, err = s.BridgeType("Titanium Alloy Bridge")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Len(t, s.BridgeTypes(), 5)
}

func TestStandardsAndTemplates(t *testing.T) {
	s := MustLoad()
	assert.Contains(t, s.StandardsFor("concrete"), "GB 50010")
	assert.Contains(t, s.StandardsFor("Steel"), "GB 50017")
	assert.Contains(t, s.StandardsFor("timber"), "AASHTO")

	tpl, err := s.TemplateFor(30)
	require.NoError(t, err)
	assert.Equal(t, "simple_supported_girder", tpl.Name)
	tpl, err = s.TemplateFor(100)
	require.NoError(t, err)
	assert.Equal(t, "continuous_girder", tpl.Name)
	_, err = s.TemplateFor(5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBeamHeightEstimate(t *testing.T) {
	assert.InDelta(t, 2.1875, BeamHeightEstimate(30, "simple"), 1e-9)
	assert.InDelta(t, (100.0/25+100.0/18)/2, BeamHeightEstimate(100, "continuous"), 1e-9)
	assert.InDelta(t, 4.0, BeamHeightEstimate(60, "arch"), 1e-9)
}
