package design

const AnalysisFailedType = "Error - Analysis Failed"

type Kind string

const (
	KindUnknown        Kind = ""
	KindBeam           Kind = "Beam"
	KindContinuousBeam Kind = "ContinuousBeam"
	KindArch           Kind = "Arch"
	KindTruss          Kind = "Truss"
	KindSuspension     Kind = "Suspension"
	KindCableStayed    Kind = "CableStayed"
)

// Intent is the loosely structured record produced by requirements analysis.
// A non-empty Error marks an upstream analysis failure.
type Intent struct {
	BridgeTypePreference string   `json:"bridge_type_preference"`
	SpanDescription      string   `json:"span_length_description"`
	EstimatedSpanMeters  *float64 `json:"estimated_span_meters"`
	RoadLanesDescription string   `json:"road_lanes_description"`
	SeismicDescription   string   `json:"seismic_description"`
	MaterialsHint        string   `json:"specific_materials"`
	AssumedBridgeWidth   *float64 `json:"assumed_bridge_width"`

	LoadRequirements     string `json:"load_requirements,omitempty"`
	EnvironmentalFactors string `json:"environmental_factors,omitempty"`
	SiteTerrain          string `json:"site_terrain,omitempty"`
	BudgetConstraints    string `json:"budget_constraints,omitempty"`
	AestheticPreferences string `json:"aesthetic_preferences,omitempty"`

	SeismicDesignIntensity string `json:"seismic_design_intensity,omitempty"`
	FoundationSeismicNotes string `json:"seismic_considerations_foundation,omitempty"`
	BeamToPierConnection   string `json:"beam_to_pier_connection,omitempty"`
	OtherSeismicDetails    string `json:"other_seismic_details,omitempty"`

	Error   string `json:"error,omitempty"`
	Details any    `json:"details,omitempty"`
}

func (in Intent) Failed() bool {
	return in.Error != ""
}

type Constraints struct {
	BridgeTypeOverride string   `json:"bridge_type_override"`
	SpanOverride       *float64 `json:"span_override"`
	LaneOverride       string   `json:"lane_override"`
	SeismicIntensity   string   `json:"seismic_intensity"`
	NumGirders         *int     `json:"num_girders"`
	NumPiersVisualize  *int     `json:"num_piers_visualize"`
	PierType           string   `json:"pier_type"`
	FoundationType     string   `json:"foundation_type"`
	FoundationDepthM   *float64 `json:"foundation_depth_m"`
}

type Materials struct {
	ConcreteGrade        string `json:"concrete_grade,omitempty"`
	SteelReinforcement   string `json:"steel_reinforcement,omitempty"`
	PrestressingSteel    string `json:"prestressing_steel,omitempty"`
	StructuralSteelGrade string `json:"structural_steel_grade,omitempty"`
	MainBeamsMaterial    string `json:"main_beams_material,omitempty"`
}

func (m Materials) Empty() bool {
	return m == Materials{}
}

type SeismicDetails struct {
	DesignIntensity string `json:"seismic_design_intensity,omitempty"`
	FoundationNotes string `json:"seismic_considerations_foundation,omitempty"`
	ConnectionNotes string `json:"beam_to_pier_connection,omitempty"`
	OtherDetails    string `json:"other_seismic_details,omitempty"`
}

// Parameters is the canonical design record. GirderDepthM is always derived
// from SpanM, never taken from the request.
type Parameters struct {
	BridgeType        string         `json:"bridge_type"`
	Kind              Kind           `json:"kind"`
	Prestressed       bool           `json:"prestressed"`
	SpanM             float64        `json:"span_m"`
	BridgeWidthM      float64        `json:"bridge_width_m"`
	GirderDepthM      float64        `json:"girder_depth_m"`
	NumLanes          int            `json:"num_lanes"`
	Materials         Materials      `json:"materials"`
	SeismicIntensity  string         `json:"seismic_intensity,omitempty"`
	Seismic           SeismicDetails `json:"seismic"`
	MainGirderType    string         `json:"main_girder_type,omitempty"`
	NumGirders        int            `json:"num_girders,omitempty"`
	NumPiersVisualize *int           `json:"num_piers_visualize,omitempty"`
	PierType          string         `json:"pier_type,omitempty"`
	FoundationType    string         `json:"foundation_type,omitempty"`
	FoundationDepthM  float64        `json:"foundation_depth_m,omitempty"`
	BeamHeightRuleM   float64        `json:"beam_height_rule_m,omitempty"`
	Notes             []string       `json:"notes,omitempty"`
	Error             string         `json:"error,omitempty"`
}

func (p Parameters) IsSentinel() bool {
	return p.BridgeType == AnalysisFailedType
}

// Sentinel is the canonical record returned when analysis failed upstream.
func Sentinel(reason string) Parameters {
	return Parameters{BridgeType: AnalysisFailedType, Error: reason}
}
