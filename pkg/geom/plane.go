package geom

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/pkg/errors"
)

// DefaultAngleTolerance is the tolerance, in degrees, used for
// perpendicular/parallel plane tests.
const DefaultAngleTolerance = 1.0

// Plane is the plane through Origin with unit Normal.
type Plane struct {
	Origin Vec
	Normal Vec
}

// PlaneFromPoints returns the plane through a, b and c.
func PlaneFromPoints(a, b, c Vec) (Plane, error) {
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Length()
	if l < Epsilon {
		return Plane{}, errors.Wrapf(ErrDegenerate, "plane through collinear points %v %v %v", a, b, c)
	}
	return Plane{Origin: a, Normal: n.DivScalar(l)}, nil
}

// PlaneFromLoop fits a plane to a closed polygon with Newell's method, so the
// first three points may be collinear.
func PlaneFromLoop(loop []Vec) (Plane, error) {
	if len(loop) < 3 {
		return Plane{}, errors.Wrapf(ErrDegenerate, "polygon with %d points", len(loop))
	}
	var n Vec
	for i := range loop {
		cur, next := loop[i], loop[(i+1)%len(loop)]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	l := n.Length()
	if l < Epsilon {
		return Plane{}, errors.Wrap(ErrDegenerate, "polygon has zero area")
	}
	return Plane{Origin: Centroid(loop), Normal: n.DivScalar(l)}, nil
}

// SignedDistance returns the distance of p above the plane along Normal.
func (pl Plane) SignedDistance(p Vec) float64 {
	return p.Sub(pl.Origin).Dot(pl.Normal)
}

// Project returns the orthogonal projection of p onto the plane and the
// signed distance of p from it.
func (pl Plane) Project(p Vec) (Vec, float64) {
	d := pl.SignedDistance(p)
	return p.Sub(pl.Normal.MulScalar(d)), d
}

// Perpendicular reports whether the planes meet at a right angle within
// tolDeg degrees.
func (pl Plane) Perpendicular(o Plane, tolDeg float64) bool {
	return VectorsPerpendicular(pl.Normal, o.Normal, tolDeg)
}

// Parallel reports whether the planes are parallel within tolDeg degrees.
func (pl Plane) Parallel(o Plane, tolDeg float64) bool {
	return VectorsParallel(pl.Normal, o.Normal, tolDeg)
}

// Intersect returns the line shared by both planes. ok is false for
// parallel planes.
func (pl Plane) Intersect(o Plane) (Line, bool) {
	n1, n2 := pl.Normal, o.Normal
	dir := n1.Cross(n2)
	d2 := dir.Length2()
	if d2 < Epsilon {
		return Line{}, false
	}
	h1, h2 := n1.Dot(pl.Origin), n2.Dot(o.Origin)
	n11, n22, n12 := n1.Dot(n1), n2.Dot(n2), n1.Dot(n2)
	a := (h1*n22 - h2*n12) / d2
	b := (h2*n11 - h1*n12) / d2
	origin := n1.MulScalar(a).Add(n2.MulScalar(b))
	return Line{Origin: origin, Dir: dir.DivScalar(math.Sqrt(d2))}, true
}

// Basis returns two unit vectors spanning the plane, u and v, with
// u × v = Normal.
func (pl Plane) Basis() (u, v Vec) {
	ref := XAxis
	if math.Abs(pl.Normal.X) > 0.9 {
		ref = YAxis
	}
	u = ref.Sub(pl.Normal.MulScalar(ref.Dot(pl.Normal))).Normalize()
	v = pl.Normal.Cross(u)
	return u, v
}

// To2D expresses p in the plane's basis.
func (pl Plane) To2D(p Vec) v2.Vec {
	u, v := pl.Basis()
	d := p.Sub(pl.Origin)
	return v2.Vec{X: d.Dot(u), Y: d.Dot(v)}
}

// Barycentric returns the barycentric coordinates of p with respect to the
// triangle abc. p is assumed to lie in the triangle's plane.
func Barycentric(p, a, b, c Vec) (u, v, w float64, err error) {
	e0, e1, ep := b.Sub(a), c.Sub(a), p.Sub(a)
	d00, d01, d11 := e0.Dot(e0), e0.Dot(e1), e1.Dot(e1)
	d20, d21 := ep.Dot(e0), ep.Dot(e1)
	denom := d00*d11 - d01*d01
	if math.Abs(denom) < 1e-12 {
		return 0, 0, 0, errors.Wrapf(ErrDegenerate, "triangle %v %v %v", a, b, c)
	}
	v = (d11*d20 - d01*d21) / denom
	w = (d00*d21 - d01*d20) / denom
	u = 1 - v - w
	return u, v, w, nil
}

// InTriangle reports whether p, already projected into the plane of abc,
// lies inside the triangle or on its boundary.
func InTriangle(p, a, b, c Vec) (bool, error) {
	u, v, w, err := Barycentric(p, a, b, c)
	if err != nil {
		return false, err
	}
	const tol = -1e-10
	return u >= tol && v >= tol && w >= tol, nil
}

// ProjectOntoTriangle projects p onto the plane of abc and returns the
// projection, the triangle's unit normal and the signed distance.
func ProjectOntoTriangle(p, a, b, c Vec) (proj, normal Vec, dist float64, err error) {
	pl, err := PlaneFromPoints(a, b, c)
	if err != nil {
		return Vec{}, Vec{}, 0, err
	}
	proj, dist = pl.Project(p)
	return proj, pl.Normal, dist, nil
}

// InPolygon reports whether p, already in the plane of loop, lies inside
// the closed polygon or within tol of its boundary.
func InPolygon(p Vec, loop []Vec, tol float64) (bool, error) {
	pl, err := PlaneFromLoop(loop)
	if err != nil {
		return false, err
	}
	q := pl.To2D(p)
	pts := make([]v2.Vec, len(loop))
	for i, l := range loop {
		pts[i] = pl.To2D(l)
	}

	inside := false
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		if distToSegment2(q, a, b) <= tol {
			return true, nil
		}
		if (a.Y > q.Y) != (b.Y > q.Y) {
			x := a.X + (q.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if q.X < x {
				inside = !inside
			}
		}
	}
	return inside, nil
}

func distToSegment2(p, a, b v2.Vec) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	t := 0.0
	if l2 > 0 {
		t = clamp(((p.X-a.X)*dx+(p.Y-a.Y)*dy)/l2, 0, 1)
	}
	ex, ey := a.X+t*dx-p.X, a.Y+t*dy-p.Y
	return math.Hypot(ex, ey)
}
