// Package geom holds the vector, line, plane and box primitives the
// connectivity passes are built on. Vectors are sdfx v3.Vec values so
// that model coordinates can be handed to the SDF kernel unchanged.
package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/pkg/errors"
)

// Vec is a point or direction in model space.
type Vec = v3.Vec

// Epsilon is the length below which a direction or normal is treated as zero.
const Epsilon = 1e-12

// ErrDegenerate is returned when a computation needs a non-zero area or
// length and the input has none (collinear points, zero-area triangles).
var ErrDegenerate = errors.New("degenerate geometry")

var (
	XAxis = Vec{X: 1}
	YAxis = Vec{Y: 1}
	ZAxis = Vec{Z: 1}
)

// NumericScale converts a precision such as 0.001 into the number of
// decimal places used for coordinate comparisons (3).
func NumericScale(precision float64) int {
	if precision <= 0 || precision >= 1 {
		return 0
	}
	return int(math.Floor(-math.Log10(precision) + 1e-9))
}

// Round rounds x to the given number of decimal places.
func Round(x float64, scale int) float64 {
	p := math.Pow(10, float64(scale))
	return math.Round(x*p) / p
}

// RoundVec rounds each component of v.
func RoundVec(v Vec, scale int) Vec {
	return Vec{X: Round(v.X, scale), Y: Round(v.Y, scale), Z: Round(v.Z, scale)}
}

// Unit returns v normalized, or ErrDegenerate if v has no length.
func Unit(v Vec) (Vec, error) {
	l := v.Length()
	if l < Epsilon {
		return Vec{}, errors.Wrapf(ErrDegenerate, "zero-length direction %v", v)
	}
	return v.DivScalar(l), nil
}

// Distance returns |a - b|.
func Distance(a, b Vec) float64 {
	return a.Sub(b).Length()
}

// Centroid returns the arithmetic mean of points.
func Centroid(points []Vec) Vec {
	var sum Vec
	if len(points) == 0 {
		return sum
	}
	for _, p := range points {
		sum = sum.Add(p)
	}
	return sum.DivScalar(float64(len(points)))
}

// VectorsParallel reports whether a and b are parallel (either sense)
// within tolDeg degrees.
func VectorsParallel(a, b Vec, tolDeg float64) bool {
	la, lb := a.Length(), b.Length()
	if la < Epsilon || lb < Epsilon {
		return false
	}
	s := a.Cross(b).Length() / (la * lb)
	return s <= math.Sin(tolDeg*math.Pi/180)
}

// VectorsPerpendicular reports whether a and b are perpendicular within
// tolDeg degrees.
func VectorsPerpendicular(a, b Vec, tolDeg float64) bool {
	la, lb := a.Length(), b.Length()
	if la < Epsilon || lb < Epsilon {
		return false
	}
	c := math.Abs(a.Dot(b)) / (la * lb)
	return c <= math.Sin(tolDeg*math.Pi/180)
}

// RotateAbout rotates v by angle radians about the unit axis k
// (Rodrigues' formula).
func RotateAbout(v, k Vec, angle float64) Vec {
	c, s := math.Cos(angle), math.Sin(angle)
	return v.MulScalar(c).
		Add(k.Cross(v).MulScalar(s)).
		Add(k.MulScalar(k.Dot(v) * (1 - c)))
}
