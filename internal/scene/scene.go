package scene

import "Pontis/internal/geometry"

// Vec3 serialises as [x, y, z].
type Vec3 [3]float64

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }

func (v Vec3) Scale(k float64) Vec3 { return Vec3{v[0] * k, v[1] * k, v[2] * k} }

type Kind string

const (
	KindGirderFlange Kind = "girder_flange"
	KindGirderWeb    Kind = "girder_web"
	KindDeckBox      Kind = "deck_box"
	KindPier         Kind = "pier"
	KindFoundation   Kind = "foundation"
)

const (
	MaterialGirder     = "girder"
	MaterialPier       = "pier"
	MaterialFoundation = "foundation"
)

// Component positions are absolute world coordinates. Rotation is an XYZ
// Euler triple in radians, as three.js applies it.
type Component struct {
	Name        string             `json:"name"`
	Kind        Kind               `json:"kind"`
	Geometry    geometry.Primitive `json:"geometry"`
	MaterialRef string             `json:"materialRef"`
	Position    Vec3               `json:"position"`
	Rotation    *Vec3              `json:"rotation,omitempty"`
	Error       string             `json:"error,omitempty"`
}

type Material struct {
	Type      string  `json:"type"`
	Color     string  `json:"color"`
	Roughness float64 `json:"roughness"`
	Metalness float64 `json:"metalness"`
}

type Light struct {
	Color     string  `json:"color"`
	Intensity float64 `json:"intensity"`
	Position  *Vec3   `json:"position,omitempty"`
}

type Setup struct {
	CameraPosition   Vec3    `json:"cameraPosition"`
	CameraLookAt     Vec3    `json:"cameraLookAt"`
	CameraFov        float64 `json:"cameraFov"`
	CameraNear       float64 `json:"cameraNear"`
	CameraFar        float64 `json:"cameraFar"`
	BackgroundColor  string  `json:"backgroundColor"`
	AmbientLight     Light   `json:"ambientLight"`
	DirectionalLight Light   `json:"directionalLight"`
}

type Descriptor struct {
	SceneSetup  Setup               `json:"sceneSetup"`
	Materials   map[string]Material `json:"materials"`
	Components  []Component         `json:"components"`
	BoundingBox AABB                `json:"boundingBox"`
	Error       string              `json:"error,omitempty"`
}

func (d Descriptor) ComponentsOf(kind Kind) []Component {
	var out []Component
	for _, c := range d.Components {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}
