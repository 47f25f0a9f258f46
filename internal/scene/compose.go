package scene

import (
	"fmt"
	"math"
	"strings"

	"Pontis/internal/design"
	"Pontis/internal/geometry"
)

const (
	pierThresholdM    = 25.0
	pierInsetRatio    = 0.45
	minPierHeightM    = 8.0
	pierHeightRatio   = 0.15
	minFoundationPlan = 2.0
	foundationSpread  = 1.5
	minFoundationH    = 1.0
	foundationHRatio  = 0.2
	deckWallM         = 0.3
)

// Superstructure members are modelled with their length on local z and
// turned a quarter about y so the span runs along world x.
var spanAxis = Vec3{0, math.Pi / 2, 0}

// PierCount is 2 above a 25 m span and 0 otherwise, unless the design
// carries an explicit count.
func PierCount(p design.Parameters) int {
	if p.NumPiersVisualize != nil {
		return max(*p.NumPiersVisualize, 0)
	}
	if p.SpanM > pierThresholdM {
		return 2
	}
	return 0
}

// PierStations returns pier x positions: end piers inset to ±0.45 span and
// any others evenly between them.
func PierStations(span float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{0}
	}
	first, last := -pierInsetRatio*span, pierInsetRatio*span
	xs := make([]float64, n)
	xs[0], xs[n-1] = first, last
	step := 2 * pierInsetRatio * span / float64(n-1)
	for k := 1; k < n-1; k++ {
		xs[k] = first + float64(k)*step
	}
	return xs
}

func PierHeight(span float64) float64 {
	return max(span*pierHeightRatio, minPierHeightM)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Compose builds the scene for a design. It is deterministic: equal
// parameters give identical descriptors.
func Compose(p design.Parameters) Descriptor {
	d := Descriptor{Materials: materialsFor(p), Components: []Component{}}
	if p.IsSentinel() || p.SpanM <= 0 {
		d.Error = p.Error
		if d.Error == "" && !p.IsSentinel() {
			d.Error = "span must be positive"
		}
		d.SceneSetup = setupFor(d.BoundingBox)
		return d
	}

	span := p.SpanM
	width := p.BridgeWidthM
	if width <= 0 {
		width = design.DefaultBridgeWidthM
	}
	// Girder depth is re-derived; a caller-supplied value is ignored.
	depth := design.GirderDepth(span, p.BridgeType)

	d.Components = append(d.Components, superstructure(p, span, width, depth)...)

	h := PierHeight(span)
	pierY := -depth/2 - h/2
	cs := pierSection(width)
	for i, x := range PierStations(span, PierCount(p)) {
		pier := geometry.Pier(p.PierType, h, cs)
		d.Components = append(d.Components, Component{
			Name:        fmt.Sprintf("pier_%d", i+1),
			Kind:        KindPier,
			Geometry:    pier.Shape,
			MaterialRef: MaterialPier,
			Position:    Vec3{x, pierY, 0},
			Error:       pier.Error,
		})

		px, pz := pier.PlanSize()
		fh := p.FoundationDepthM
		if fh <= 0 {
			fh = h * foundationHRatio
		}
		fh = max(minFoundationH, fh)
		f := geometry.Foundation(p.FoundationType, geometry.Dims{
			Length: max(minFoundationPlan, px*foundationSpread),
			Width:  max(minFoundationPlan, pz*foundationSpread),
			Height: fh,
		})
		d.Components = append(d.Components, Component{
			Name:        fmt.Sprintf("foundation_%d", i+1),
			Kind:        KindFoundation,
			Geometry:    f.Shape,
			MaterialRef: MaterialFoundation,
			Position:    Vec3{x, pierY - h/2 - fh/2, 0},
			Error:       f.Error,
		})
	}

	d.BoundingBox = Bounds(d.Components)
	d.SceneSetup = setupFor(d.BoundingBox)
	return d
}

func superstructure(p design.Parameters, span, width, depth float64) []Component {
	bt := strings.ToLower(p.BridgeType)
	if !strings.Contains(bt, "t-girder") && !strings.Contains(bt, "i-girder") {
		deck := geometry.BoxGirder(span, width, depth, deckWallM)
		rot := spanAxis
		return []Component{{
			Name:        "deck",
			Kind:        KindDeckBox,
			Geometry:    deck.Outer,
			MaterialRef: MaterialGirder,
			Rotation:    &rot,
		}}
	}

	n := max(p.NumGirders, 1)
	spacing := width / float64(n)
	start := -float64(n-1) * spacing / 2
	tf := min(max(0.15, round2(depth*0.1)), depth/2)
	tw := min(0.4, spacing/2)
	tg := geometry.TGirder(span, spacing, depth-tf, geometry.Thickness{Flange: tf, Web: tw})

	// The web centre sits tf/2 below the girder centreline so the flange top is at +depth/2.
	webY := -tf / 2
	out := make([]Component, 0, 2*n)
	for i := range n {
		z := start + float64(i)*spacing
		flangeRot, webRot := spanAxis, spanAxis
		out = append(out,
			Component{
				Name:        fmt.Sprintf("girder_%d_flange", i+1),
				Kind:        KindGirderFlange,
				Geometry:    tg.Flange,
				MaterialRef: MaterialGirder,
				Position:    Vec3{0, webY + tg.FlangeOffset, z},
				Rotation:    &flangeRot,
			},
			Component{
				Name:        fmt.Sprintf("girder_%d_web", i+1),
				Kind:        KindGirderWeb,
				Geometry:    tg.Web,
				MaterialRef: MaterialGirder,
				Position:    Vec3{0, webY, z},
				Rotation:    &webRot,
			},
		)
	}
	return out
}

func pierSection(width float64) geometry.CrossSection {
	r := max(1.0, round2(width*0.06))
	return geometry.CrossSection{Radius: r, Width: 2 * r, Depth: max(2*r, round2(width*0.4))}
}

func materialsFor(p design.Parameters) map[string]Material {
	girder := Material{Type: "MeshStandardMaterial", Color: "#cccccc", Roughness: 0.5, Metalness: 0.1}
	if p.Materials.StructuralSteelGrade != "" {
		girder = Material{Type: "MeshStandardMaterial", Color: "#8a9bb0", Roughness: 0.35, Metalness: 0.6}
	}
	return map[string]Material{
		MaterialGirder:     girder,
		MaterialPier:       {Type: "MeshStandardMaterial", Color: "#888888", Roughness: 0.7, Metalness: 0.1},
		MaterialFoundation: {Type: "MeshStandardMaterial", Color: "#666666", Roughness: 0.8, Metalness: 0.05},
	}
}

func setupFor(b AABB) Setup {
	pos, look := FitCamera(b)
	sun := Vec3{50, 50, 50}
	return Setup{
		CameraPosition:   pos,
		CameraLookAt:     look,
		CameraFov:        75,
		CameraNear:       0.1,
		CameraFar:        max(1000, b.MaxDim()*10),
		BackgroundColor:  "#f0f0f0",
		AmbientLight:     Light{Color: "#404040", Intensity: 1},
		DirectionalLight: Light{Color: "#ffffff", Intensity: 0.8, Position: &sun},
	}
}
