package tessellate

import (
	"fmt"

	"github.com/chazu/truss/pkg/kernel"
	"github.com/chazu/truss/pkg/profile"
)

// sectionSolid extrudes the cross-section of p from z = 0 to z = length.
// Section coordinates match profile.Section: centred on the section's
// bounding box, x across the width and y across the depth.
func sectionSolid(k kernel.Kernel, p profile.Profile, length float64) (kernel.Solid, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if length <= 0 {
		return nil, fmt.Errorf("extrusion length %g", length)
	}
	w, d := p.Extents()
	hw, hd := w/2, d/2

	// rect is the extruded rectangle [x0, x1] x [y0, y1].
	rect := func(x0, y0, x1, y1 float64) kernel.Solid {
		return k.Translate(k.Box(x1-x0, y1-y0, length), x0, y0, 0)
	}
	// rod is the extruded disc of radius r.
	rod := func(r float64) kernel.Solid {
		return k.Translate(k.Cylinder(length, r, profile.CircleSegments), 0, 0, length/2)
	}
	union := func(parts ...kernel.Solid) kernel.Solid {
		s := parts[0]
		for _, o := range parts[1:] {
			s = k.Union(s, o)
		}
		return s
	}

	switch p.Kind {
	case profile.Rectangle:
		return rect(-hw, -hd, hw, hd), nil

	case profile.RectangleHollow:
		t := p.Dim("wall")
		return k.Difference(rect(-hw, -hd, hw, hd), rect(-hw+t, -hd+t, hw-t, hd-t)), nil

	case profile.Circle:
		return rod(p.Dim("radius")), nil

	case profile.CircleHollow:
		r := p.Dim("radius")
		return k.Difference(rod(r), rod(r-p.Dim("wall"))), nil

	case profile.IShape:
		hweb, tf := p.Dim("web")/2, p.Dim("flange")
		return union(
			rect(-hw, hd-tf, hw, hd),
			rect(-hweb, -hd+tf, hweb, hd-tf),
			rect(-hw, -hd, hw, -hd+tf),
		), nil

	case profile.TShape:
		hweb, tf := p.Dim("web")/2, p.Dim("flange")
		return union(
			rect(-hw, hd-tf, hw, hd),
			rect(-hweb, -hd, hweb, hd-tf),
		), nil

	case profile.UShape:
		tw, tf := p.Dim("web"), p.Dim("flange")
		return union(
			rect(-hw, -hd, -hw+tw, hd),
			rect(-hw+tw, hd-tf, hw, hd),
			rect(-hw+tw, -hd, hw, -hd+tf),
		), nil

	case profile.LShape:
		t := p.Dim("thickness")
		return union(
			rect(-hw, -hd, -hw+t, hd),
			rect(-hw+t, -hd, hw, -hd+t),
		), nil
	}
	return nil, fmt.Errorf("no solid for profile kind %v", p.Kind)
}
