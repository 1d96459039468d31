package kernel

import (
	"github.com/chazu/truss/pkg/geom"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/pkg/errors"
)

// Frame places a 2D section in model space: section x runs along X,
// section y along Z × X, and the extrusion along Z.
type Frame struct {
	Origin geom.Vec
	X, Z   geom.Vec
}

// Y returns the section's local y axis.
func (f Frame) Y() geom.Vec {
	return f.Z.Cross(f.X)
}

// Place maps section point p at height h along Z into model space.
func (f Frame) Place(p v2.Vec, h float64) geom.Vec {
	return f.Origin.Add(f.X.MulScalar(p.X)).Add(f.Y().MulScalar(p.Y)).Add(f.Z.MulScalar(h))
}

// Prism extrudes section triangles along the frame's Z axis for length and
// returns the closed mesh: two caps plus side walls along the boundary of
// the section. Section triangles that share an edge must share both corner
// points exactly for that edge to stay internal.
func Prism(name string, section [][3]v2.Vec, f Frame, length float64) (*Mesh, error) {
	if len(section) == 0 {
		return nil, errors.New("prism: empty section")
	}
	if length <= 0 {
		return nil, errors.Errorf("prism: length %g must be positive", length)
	}
	x, err := geom.Unit(f.X)
	if err != nil {
		return nil, errors.Wrap(err, "prism: x axis")
	}
	z, err := geom.Unit(f.Z)
	if err != nil {
		return nil, errors.Wrap(err, "prism: z axis")
	}
	f.X, f.Z = x, z

	b := NewMeshBuilder(name)
	flat := make([][3]geom.Vec, len(section))
	for i, t := range section {
		p0, p1, p2 := f.Place(t[0], 0), f.Place(t[1], 0), f.Place(t[2], 0)
		q0, q1, q2 := f.Place(t[0], length), f.Place(t[1], length), f.Place(t[2], length)
		b.Triangle(p0, p2, p1)
		b.Triangle(q0, q1, q2)
		flat[i] = [3]geom.Vec{p0, p1, p2}
	}

	edges := boundaryEdges(flat)
	dz := f.Z.MulScalar(length)
	for _, e := range edges {
		a, c := e.A, e.B
		b.Triangle(a, c, c.Add(dz))
		b.Triangle(a, c.Add(dz), a.Add(dz))
	}
	return b.Mesh(), nil
}
