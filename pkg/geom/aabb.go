package geom

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec
}

// BoundsOf returns the bounding box of points.
func BoundsOf(points []Vec) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	b := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b
}

// Expand grows the box by tol on every side.
func (b AABB) Expand(tol float64) AABB {
	d := Vec{X: tol, Y: tol, Z: tol}
	return AABB{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

// Overlaps reports whether the boxes intersect. Touching boxes overlap.
func (b AABB) Overlaps(o AABB) bool {
	return b.Min.X <= o.Max.X && o.Min.X <= b.Max.X &&
		b.Min.Y <= o.Max.Y && o.Min.Y <= b.Max.Y &&
		b.Min.Z <= o.Max.Z && o.Min.Z <= b.Max.Z
}

// Contains reports whether p lies inside the box or on its boundary.
func (b AABB) Contains(p Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Size returns the box extents.
func (b AABB) Size() Vec {
	return b.Max.Sub(b.Min)
}

// ---------------------------------------------------------------------------
// 2D helpers for cross-section work
// ---------------------------------------------------------------------------

// Rect2 is an axis-aligned rectangle in a section plane.
type Rect2 struct {
	Min, Max v2.Vec
}

// Bounds2 returns the bounding rectangle of points.
func Bounds2(points []v2.Vec) Rect2 {
	if len(points) == 0 {
		return Rect2{}
	}
	r := Rect2{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		r.Min.X = math.Min(r.Min.X, p.X)
		r.Min.Y = math.Min(r.Min.Y, p.Y)
		r.Max.X = math.Max(r.Max.X, p.X)
		r.Max.Y = math.Max(r.Max.Y, p.Y)
	}
	return r
}

// TriangleOverlapsRect reports whether triangle t and rectangle r share a
// region of positive area. Triangles that only touch the rectangle along an
// edge or at a corner (within eps) do not overlap. The test is a separating
// axis test over the rectangle axes and the triangle edge normals, which is
// equivalent to checking vertex containment and edge crossings for these
// convex shapes.
func TriangleOverlapsRect(t [3]v2.Vec, r Rect2, eps float64) bool {
	corners := [4]v2.Vec{
		{X: r.Min.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Max.Y},
		{X: r.Min.X, Y: r.Max.Y},
	}

	axes := []v2.Vec{{X: 1}, {Y: 1}}
	for i := 0; i < 3; i++ {
		a, b := t[i], t[(i+1)%3]
		n := v2.Vec{X: -(b.Y - a.Y), Y: b.X - a.X}
		l := math.Hypot(n.X, n.Y)
		if l < Epsilon {
			continue
		}
		axes = append(axes, v2.Vec{X: n.X / l, Y: n.Y / l})
	}

	for _, ax := range axes {
		tMin, tMax := project2(t[:], ax)
		rMin, rMax := project2(corners[:], ax)
		if tMax <= rMin+eps || rMax <= tMin+eps {
			return false
		}
	}
	return true
}

func project2(pts []v2.Vec, ax v2.Vec) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		d := p.X*ax.X + p.Y*ax.Y
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}
