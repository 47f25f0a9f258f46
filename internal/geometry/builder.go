package geometry

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	PierCylindrical  = "cylindrical"
	PierRectangular  = "rectangular"
	PileCap          = "pile_cap"
	SpreadFooting    = "spread_footing"
	CylinderSegments = 32

	defaultPierRadius      = 1.0
	defaultFlangeThickness = 0.1
	defaultWebThickness    = 0.1
)

type BoxGirderShape struct {
	Outer Box  `json:"outer"`
	Inner *Box `json:"inner"`
}

// BoxGirder returns the outer box and the hollow core. Inner is nil when the
// walls leave no positive cavity.
func BoxGirder(length, width, height, wall float64) BoxGirderShape {
	s := BoxGirderShape{Outer: Box{Width: width, Height: height, Length: length}}
	iw, ih := width-2*wall, height-2*wall
	if iw > 0 && ih > 0 {
		s.Inner = &Box{Width: iw, Height: ih, Length: length}
	}
	return s
}

type Thickness struct {
	Flange float64 `json:"flange"`
	Web    float64 `json:"web"`
}

type TGirderShape struct {
	Flange Box `json:"flange"`
	Web    Box `json:"web"`
	// FlangeOffset is the flange centre height above the web centre.
	FlangeOffset float64 `json:"flange_offset"`
}

func TGirder(length, flangeWidth, webHeight float64, t Thickness) TGirderShape {
	if t.Flange <= 0 {
		t.Flange = defaultFlangeThickness
	}
	if t.Web <= 0 {
		t.Web = defaultWebThickness
	}
	return TGirderShape{
		Flange:       Box{Width: flangeWidth, Height: t.Flange, Length: length},
		Web:          Box{Width: t.Web, Height: webHeight, Length: length},
		FlangeOffset: webHeight/2 + t.Flange/2,
	}
}

type CrossSection struct {
	Radius float64 `json:"radius,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Depth  float64 `json:"depth,omitempty"`
}

type PierShape struct {
	Type  string    `json:"type"`
	Shape Primitive `json:"geometry"`
	Error string    `json:"error,omitempty"`
}

// PlanSize is the footprint of the pier along x and z.
func (p PierShape) PlanSize() (x, z float64) {
	hx, _, hz := p.Shape.HalfExtents()
	return 2 * hx, 2 * hz
}

// Pier never fails; unknown types come back as a unit box with Error set.
func Pier(pierType string, height float64, cs CrossSection) PierShape {
	switch strings.ToLower(strings.TrimSpace(pierType)) {
	case PierCylindrical:
		r := cs.Radius
		if r <= 0 {
			r = defaultPierRadius
		}
		return PierShape{Type: PierCylindrical, Shape: Cylinder{RadiusTop: r, RadiusBottom: r, Height: height, Segments: CylinderSegments}}
	case PierRectangular:
		w, d := cs.Width, cs.Depth
		if w <= 0 {
			w = 1
		}
		if d <= 0 {
			d = 1
		}
		return PierShape{Type: PierRectangular, Shape: Box{Width: w, Height: height, Length: d}}
	}
	return PierShape{
		Type:  pierType,
		Shape: Box{Width: 1, Height: height, Length: 1},
		Error: fmt.Sprintf("Unsupported pier type: %s. Using default box.", pierType),
	}
}

type Dims struct {
	Length float64 `json:"length,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// FoundationShape serialises its box under "cap", "footing" or "shape"
// depending on the foundation type.
type FoundationShape struct {
	Type  string
	Key   string
	Shape Box
	Error string
}

func (f FoundationShape) MarshalJSON() ([]byte, error) {
	out := map[string]any{"foundation_type": f.Type, f.Key: f.Shape}
	if f.Error != "" {
		out["error"] = f.Error
	}
	return json.Marshal(out)
}

func Foundation(foundationType string, d Dims) FoundationShape {
	var f FoundationShape
	var def Dims
	switch strings.ToLower(strings.TrimSpace(foundationType)) {
	case PileCap:
		f = FoundationShape{Type: PileCap, Key: "cap"}
		def = Dims{Length: 5, Width: 5, Height: 1.5}
	case SpreadFooting:
		f = FoundationShape{Type: SpreadFooting, Key: "footing"}
		def = Dims{Length: 6, Width: 6, Height: 1}
	default:
		f = FoundationShape{
			Type:  foundationType,
			Key:   "shape",
			Error: fmt.Sprintf("Unsupported foundation type: %s. Using default box.", foundationType),
		}
		def = Dims{Length: 3, Width: 3, Height: 1}
	}
	if d.Length <= 0 {
		d.Length = def.Length
	}
	if d.Width <= 0 {
		d.Width = def.Width
	}
	if d.Height <= 0 {
		d.Height = def.Height
	}
	f.Shape = Box{Width: d.Length, Height: d.Height, Length: d.Width}
	return f
}
