package scene

import "math"

const minSceneDim = 1.0

// Per-axis weights 0.5, 0.3, 0.8 at a distance factor of 1.5.
var cameraOffset = Vec3{0.75, 0.45, 1.2}

type AABB struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

func (b AABB) Center() Vec3 {
	return Vec3{(b.Min[0] + b.Max[0]) / 2, (b.Min[1] + b.Max[1]) / 2, (b.Min[2] + b.Max[2]) / 2}
}

func (b AABB) Size() Vec3 {
	return Vec3{b.Max[0] - b.Min[0], b.Max[1] - b.Min[1], b.Max[2] - b.Min[2]}
}

// MaxDim is the largest side, never below 1.
func (b AABB) MaxDim() float64 {
	s := b.Size()
	return max(s[0], s[1], s[2], minSceneDim)
}

// Extent returns the world-space half sizes of a component. Rotated boxes
// use the absolute rotation matrix so quarter turns swap axes exactly.
func Extent(c Component) Vec3 {
	hx, hy, hz := c.Geometry.HalfExtents()
	h := Vec3{hx, hy, hz}
	if c.Rotation == nil || *c.Rotation == (Vec3{}) {
		return h
	}
	r := rotation(*c.Rotation)
	var out Vec3
	for i := range 3 {
		for j := range 3 {
			out[i] += math.Abs(r[i][j]) * h[j]
		}
	}
	return out
}

// Bounds is the union of every component's axis-aligned box.
// An empty component list yields the zero box.
func Bounds(components []Component) AABB {
	if len(components) == 0 {
		return AABB{}
	}
	b := AABB{
		Min: Vec3{math.Inf(1), math.Inf(1), math.Inf(1)},
		Max: Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
	for _, c := range components {
		e := Extent(c)
		for i := range 3 {
			b.Min[i] = min(b.Min[i], c.Position[i]-e[i])
			b.Max[i] = max(b.Max[i], c.Position[i]+e[i])
		}
	}
	return b
}

// FitCamera places the camera at center + maxDim*(0.75, 0.45, 1.2) looking at center.
func FitCamera(b AABB) (position, lookAt Vec3) {
	center := b.Center()
	return center.Add(cameraOffset.Scale(b.MaxDim())), center
}

type mat3 [3][3]float64

func snap(v float64) float64 {
	if math.Abs(v) < 1e-12 {
		return 0
	}
	return v
}

// rotation builds Rx*Ry*Rz for an XYZ Euler triple.
func rotation(e Vec3) mat3 {
	ca, sa := snap(math.Cos(e[0])), snap(math.Sin(e[0]))
	cb, sb := snap(math.Cos(e[1])), snap(math.Sin(e[1]))
	cc, sc := snap(math.Cos(e[2])), snap(math.Sin(e[2]))
	rx := mat3{{1, 0, 0}, {0, ca, -sa}, {0, sa, ca}}
	ry := mat3{{cb, 0, sb}, {0, 1, 0}, {-sb, 0, cb}}
	rz := mat3{{cc, -sc, 0}, {sc, cc, 0}, {0, 0, 1}}
	return mul(mul(rx, ry), rz)
}

func mul(a, b mat3) mat3 {
	var m mat3
	for i := range 3 {
		for j := range 3 {
			for k := range 3 {
				m[i][j] += a[i][k] * b[k][j]
			}
		}
	}
	return m
}
