package profile

import (
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// CircleSegments is the number of straight edges used to approximate a
// circular section.
const CircleSegments = 32

// Rect returns the two counter-clockwise triangles covering the
// axis-aligned rectangle [x0, x1] x [y0, y1].
func Rect(x0, y0, x1, y1 float64) [][3]v2.Vec {
	a, b := v2.Vec{X: x0, Y: y0}, v2.Vec{X: x1, Y: y0}
	c, d := v2.Vec{X: x1, Y: y1}, v2.Vec{X: x0, Y: y1}
	return [][3]v2.Vec{{a, b, c}, {a, c, d}}
}

// cross2 is the z component of (b - a) x (c - a).
func cross2(a, b, c v2.Vec) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
}

// Polygon triangulates the simple polygon pts by ear clipping and returns
// counter-clockwise triangles. Clockwise input is walked in reverse.
func Polygon(pts []v2.Vec) ([][3]v2.Vec, error) {
	if len(pts) < 3 {
		return nil, fmt.Errorf("profile: polygon needs at least 3 points, got %d", len(pts))
	}
	area := 0.0
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		area += a.X*b.Y - b.X*a.Y
	}
	if math.Abs(area) < 1e-12 {
		return nil, fmt.Errorf("profile: polygon has no area")
	}
	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
		if area < 0 {
			idx[i] = len(pts) - 1 - i
		}
	}

	inside := func(p, a, b, c v2.Vec) bool {
		return cross2(a, b, p) >= 0 && cross2(b, c, p) >= 0 && cross2(c, a, p) >= 0
	}
	isEar := func(i int) bool {
		n := len(idx)
		ia, ib, ic := idx[(i+n-1)%n], idx[i], idx[(i+1)%n]
		a, b, c := pts[ia], pts[ib], pts[ic]
		if cross2(a, b, c) <= 0 {
			return false
		}
		for _, j := range idx {
			if j == ia || j == ib || j == ic {
				continue
			}
			if q := pts[j]; q != a && q != b && q != c && inside(q, a, b, c) {
				return false
			}
		}
		return true
	}

	out := make([][3]v2.Vec, 0, len(pts)-2)
	for len(idx) > 3 {
		ear := -1
		for i := range idx {
			if isEar(i) {
				ear = i
				break
			}
		}
		if ear < 0 {
			return nil, fmt.Errorf("profile: polygon is not simple")
		}
		n := len(idx)
		out = append(out, [3]v2.Vec{pts[idx[(ear+n-1)%n]], pts[idx[ear]], pts[idx[(ear+1)%n]]})
		idx = append(idx[:ear], idx[ear+1:]...)
	}
	if cross2(pts[idx[0]], pts[idx[1]], pts[idx[2]]) > 0 {
		out = append(out, [3]v2.Vec{pts[idx[0]], pts[idx[1]], pts[idx[2]]})
	}
	return out, nil
}

func rects(rs ...[4]float64) [][3]v2.Vec {
	var out [][3]v2.Vec
	for _, r := range rs {
		out = append(out, Rect(r[0], r[1], r[2], r[3])...)
	}
	return out
}

func ring(r float64) []v2.Vec {
	pts := make([]v2.Vec, CircleSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / CircleSegments
		pts[i] = v2.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)}
	}
	return pts
}

// Section returns the cross-section of p as counter-clockwise triangles in
// local section coordinates, centred on the section's bounding box. Web
// and flange rectangles are split where they meet so neighbouring
// triangles always share whole edges.
func Section(p Profile) ([][3]v2.Vec, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	w, d := p.Extents()
	hw, hd := w/2, d/2

	switch p.Kind {
	case Rectangle:
		return Rect(-hw, -hd, hw, hd), nil

	case RectangleHollow:
		t := p.Dim("wall")
		return rects(
			[4]float64{-hw, hd - t, -hw + t, hd},
			[4]float64{-hw + t, hd - t, hw - t, hd},
			[4]float64{hw - t, hd - t, hw, hd},
			[4]float64{-hw, -hd + t, -hw + t, hd - t},
			[4]float64{hw - t, -hd + t, hw, hd - t},
			[4]float64{-hw, -hd, -hw + t, -hd + t},
			[4]float64{-hw + t, -hd, hw - t, -hd + t},
			[4]float64{hw - t, -hd, hw, -hd + t},
		), nil

	case Circle:
		pts := ring(p.Dim("radius"))
		out := make([][3]v2.Vec, len(pts))
		for i := range pts {
			out[i] = [3]v2.Vec{{}, pts[i], pts[(i+1)%len(pts)]}
		}
		return out, nil

	case CircleHollow:
		r := p.Dim("radius")
		outer, inner := ring(r), ring(r-p.Dim("wall"))
		n := len(outer)
		out := make([][3]v2.Vec, 0, 2*n)
		for i := range outer {
			j := (i + 1) % n
			out = append(out,
				[3]v2.Vec{outer[i], outer[j], inner[j]},
				[3]v2.Vec{outer[i], inner[j], inner[i]},
			)
		}
		return out, nil

	case IShape:
		hweb, tf := p.Dim("web")/2, p.Dim("flange")
		return rects(
			[4]float64{-hw, hd - tf, -hweb, hd},
			[4]float64{-hweb, hd - tf, hweb, hd},
			[4]float64{hweb, hd - tf, hw, hd},
			[4]float64{-hweb, -hd + tf, hweb, hd - tf},
			[4]float64{-hw, -hd, -hweb, -hd + tf},
			[4]float64{-hweb, -hd, hweb, -hd + tf},
			[4]float64{hweb, -hd, hw, -hd + tf},
		), nil

	case TShape:
		hweb, tf := p.Dim("web")/2, p.Dim("flange")
		return rects(
			[4]float64{-hw, hd - tf, -hweb, hd},
			[4]float64{-hweb, hd - tf, hweb, hd},
			[4]float64{hweb, hd - tf, hw, hd},
			[4]float64{-hweb, -hd, hweb, hd - tf},
		), nil

	case UShape:
		tw, tf := p.Dim("web"), p.Dim("flange")
		return rects(
			[4]float64{-hw, hd - tf, -hw + tw, hd},
			[4]float64{-hw + tw, hd - tf, hw, hd},
			[4]float64{-hw, -hd + tf, -hw + tw, hd - tf},
			[4]float64{-hw, -hd, -hw + tw, -hd + tf},
			[4]float64{-hw + tw, -hd, hw, -hd + tf},
		), nil

	case LShape:
		t := p.Dim("thickness")
		return rects(
			[4]float64{-hw, -hd + t, -hw + t, hd},
			[4]float64{-hw, -hd, -hw + t, -hd + t},
			[4]float64{-hw + t, -hd, hw, -hd + t},
		), nil
	}
	return nil, fmt.Errorf("profile: no section for kind %v", p.Kind)
}

// Validate checks that every dimension is positive and that wall, web and
// flange thicknesses fit inside the overall extents.
func (p Profile) Validate() error {
	names := p.Kind.DimensionNames()
	if names == nil {
		return fmt.Errorf("profile: unknown kind %v", p.Kind)
	}
	if len(p.Dimensions) != len(names) {
		return fmt.Errorf("profile: %v needs %d dimensions, has %d", p.Kind, len(names), len(p.Dimensions))
	}
	for i, v := range p.Dimensions {
		if !(v > 0) {
			return fmt.Errorf("profile: %v %s = %g must be positive", p.Kind, names[i], v)
		}
	}

	w, d := p.Extents()
	check := func(name string, v, limit float64) error {
		if v >= limit {
			return fmt.Errorf("profile: %v %s = %g must be less than %g", p.Kind, name, v, limit)
		}
		return nil
	}
	switch p.Kind {
	case RectangleHollow:
		if err := check("wall", p.Dim("wall"), math.Min(w, d)/2); err != nil {
			return err
		}
	case CircleHollow:
		if err := check("wall", p.Dim("wall"), p.Dim("radius")); err != nil {
			return err
		}
	case IShape, TShape, UShape:
		if err := check("web", p.Dim("web"), w); err != nil {
			return err
		}
		limit := d
		if p.Kind == IShape {
			limit = d / 2
		}
		if err := check("flange", p.Dim("flange"), limit); err != nil {
			return err
		}
	case LShape:
		if err := check("thickness", p.Dim("thickness"), math.Min(w, d)); err != nil {
			return err
		}
	}
	return nil
}
