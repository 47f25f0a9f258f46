package geometry

import (
	"encoding/json"
	"fmt"
)

const (
	TypeBox      = "BoxGeometry"
	TypeCylinder = "CylinderGeometry"
)

// Primitive is a solid described by three.js geometry arguments.
// Implementations are Box and Cylinder.
type Primitive interface {
	Type() string
	Args() []float64
	// HalfExtents is the local-frame half size along x, y and z.
	HalfExtents() (x, y, z float64)
	isPrimitive()
}

// Box args are [width, height, length] along local x, y, z.
type Box struct {
	Width  float64
	Height float64
	Length float64
}

func (Box) Type() string { return TypeBox }

func (b Box) Args() []float64 { return []float64{b.Width, b.Height, b.Length} }

func (b Box) HalfExtents() (float64, float64, float64) {
	return b.Width / 2, b.Height / 2, b.Length / 2
}

func (Box) isPrimitive() {}

func (b Box) MarshalJSON() ([]byte, error) { return marshal(b) }

// Cylinder is upright along local y.
type Cylinder struct {
	RadiusTop    float64
	RadiusBottom float64
	Height       float64
	Segments     int
}

func (Cylinder) Type() string { return TypeCylinder }

func (c Cylinder) Args() []float64 {
	return []float64{c.RadiusTop, c.RadiusBottom, c.Height, float64(c.Segments)}
}

func (c Cylinder) HalfExtents() (float64, float64, float64) {
	r := max(c.RadiusTop, c.RadiusBottom)
	return r, c.Height / 2, r
}

func (Cylinder) isPrimitive() {}

func (c Cylinder) MarshalJSON() ([]byte, error) { return marshal(c) }

type descriptor struct {
	Type string    `json:"type"`
	Args []float64 `json:"args"`
}

func marshal(p Primitive) ([]byte, error) {
	return json.Marshal(descriptor{Type: p.Type(), Args: p.Args()})
}

// Decode restores a primitive from its {"type", "args"} form.
func Decode(data []byte) (Primitive, error) {
	var d descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	switch d.Type {
	case TypeBox:
		if len(d.Args) != 3 {
			return nil, fmt.Errorf("decode geometry: %s wants 3 args, got %d", d.Type, len(d.Args))
		}
		return Box{Width: d.Args[0], Height: d.Args[1], Length: d.Args[2]}, nil
	case TypeCylinder:
		if len(d.Args) != 4 {
			return nil, fmt.Errorf("decode geometry: %s wants 4 args, got %d", d.Type, len(d.Args))
		}
		return Cylinder{RadiusTop: d.Args[0], RadiusBottom: d.Args[1], Height: d.Args[2], Segments: int(d.Args[3])}, nil
	}
	return nil, fmt.Errorf("decode geometry: unknown type %q", d.Type)
}
