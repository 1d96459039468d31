// Package tessellate turns a structural model into kernel solids and
// triangle meshes, one per member, and uses the solids to report members
// that touch without sharing a node.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/graph"
	"github.com/chazu/truss/pkg/kernel"
	"github.com/samber/lo"
)

// MemberSolid is the solid built for one member.
type MemberSolid struct {
	ID    graph.MemberID
	Name  string
	Solid kernel.Solid
}

// Solids builds one solid per member in handle order. A line member is its
// profile's cross-section extruded along the member axis, centred on it; a
// surface is a box spanning its outline's extents in its plane, centred on
// the plane, with the surface thickness. The model is not modified.
func Solids(m *graph.Model, k kernel.Kernel) ([]MemberSolid, error) {
	if m == nil {
		return nil, nil
	}
	var out []MemberSolid
	for i := 1; i <= m.MemberCount(); i++ {
		mem := m.Member(graph.MemberID(i))
		if mem == nil {
			continue
		}
		var (
			s   kernel.Solid
			err error
		)
		switch {
		case mem.Kind.IsLine():
			s, err = lineSolid(m, k, mem)
		case mem.Kind.IsSurface():
			s, err = surfaceSolid(m, k, mem)
		default:
			err = fmt.Errorf("member kind %v", mem.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("tessellate: solid for %v: %w", mem, err)
		}
		out = append(out, MemberSolid{ID: mem.ID, Name: displayName(mem), Solid: s})
	}
	return out, nil
}

// Tessellate meshes every member. Meshes carry the member's name, or its
// handle when it has none. A model without members yields nil.
func Tessellate(m *graph.Model, k kernel.Kernel) ([]*kernel.Mesh, error) {
	solids, err := Solids(m, k)
	if err != nil {
		return nil, err
	}
	if len(solids) == 0 {
		return nil, nil
	}
	meshes := make([]*kernel.Mesh, 0, len(solids))
	for _, s := range solids {
		mesh, err := k.ToMesh(s.Solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: ToMesh failed for %s: %w", s.Name, err)
		}
		mesh.Name = s.Name
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

func displayName(mem *graph.Member) string {
	if mem.Name != "" {
		return mem.Name
	}
	return mem.ID.String()
}

func lineSolid(m *graph.Model, k kernel.Kernel, mem *graph.Member) (kernel.Solid, error) {
	a, b, err := m.Segment(mem.ID)
	if err != nil {
		return nil, err
	}
	z, err := geom.Unit(b.Sub(a))
	if err != nil {
		return nil, err
	}
	d := mem.Line()
	y, err := geom.Unit(d.YAxis.Sub(z.MulScalar(d.YAxis.Dot(z))))
	if err != nil {
		// No usable section orientation; fall back to the default one.
		ref := geom.ZAxis
		if geom.VectorsParallel(z, ref, geom.DefaultAngleTolerance) {
			ref = geom.YAxis
		}
		y = ref.Sub(z.MulScalar(ref.Dot(z))).Normalize()
	}
	x := y.Cross(z)

	sec, err := sectionSolid(k, d.Profile, geom.Distance(a, b))
	if err != nil {
		return nil, err
	}
	return place(k, sec, x, y, z, a), nil
}

func surfaceSolid(m *graph.Model, k kernel.Kernel, mem *graph.Member) (kernel.Solid, error) {
	outline, err := m.Outline(mem.ID)
	if err != nil {
		return nil, err
	}
	pl, err := m.Plane(mem.ID)
	if err != nil {
		return nil, err
	}
	u, v := pl.Basis()
	pts := lo.Map(outline, func(p geom.Vec, _ int) geom.Vec {
		q := pl.To2D(p)
		return geom.Vec{X: q.X, Y: q.Y}
	})
	b := geom.BoundsOf(pts)
	size := b.Size()
	t := mem.Surface().Thickness
	if size.X <= 0 || size.Y <= 0 || t <= 0 {
		return nil, fmt.Errorf("surface has no extent (%gx%gx%g)", size.X, size.Y, t)
	}
	box := k.Box(size.X, size.Y, t)
	box = k.Translate(box, b.Min.X, b.Min.Y, -t/2)
	return place(k, box, u, v, pl.Normal, pl.Origin), nil
}

// place rotates a solid built in local coordinates so that local x, y and z
// map onto the given orthonormal right-handed axes, then moves the local
// origin to origin.
func place(k kernel.Kernel, s kernel.Solid, x, y, z, origin geom.Vec) kernel.Solid {
	rx, ry, rz := eulerZYX(x, y, z)
	if rx != 0 || ry != 0 || rz != 0 {
		s = k.Rotate(s, rx, ry, rz)
	}
	if origin != (geom.Vec{}) {
		s = k.Translate(s, origin.X, origin.Y, origin.Z)
	}
	return s
}

// eulerZYX returns the angles in degrees, applied about X then Y then Z,
// of the rotation whose columns are x, y and z.
func eulerZYX(x, y, z geom.Vec) (rx, ry, rz float64) {
	// r[i][j] is component i of column j.
	r := [3][3]float64{
		{x.X, y.X, z.X},
		{x.Y, y.Y, z.Y},
		{x.Z, y.Z, z.Z},
	}
	sy := math.Max(-1, math.Min(1, -r[2][0]))
	ry = math.Asin(sy)
	if math.Abs(math.Cos(ry)) > 1e-9 {
		rx = math.Atan2(r[2][1], r[2][2])
		rz = math.Atan2(r[1][0], r[0][0])
	} else {
		// Gimbal lock: only rx ± rz is determined.
		rz = math.Atan2(-r[0][1], r[1][1])
	}
	deg := 180 / math.Pi
	return rx * deg, ry * deg, rz * deg
}

// Finding is a pair of members whose solids touch although the members
// share no node.
type Finding struct {
	A        graph.MemberID `json:"a"`
	B        graph.MemberID `json:"b"`
	AName    string         `json:"a_name"`
	BName    string         `json:"b_name"`
	Distance float64        `json:"distance"` // smallest signed separation found, negative when overlapping
}

// Check reports member pairs that touch within tol but are not connected
// through a shared node, in ascending (A, B) order. Two members touch when
// a node of one lies within tol of the other's solid, or when their solids
// overlap at the centre of their common bounding box, which catches
// members crossing mid-span.
func Check(m *graph.Model, k kernel.Kernel, tol float64) ([]Finding, error) {
	solids, err := Solids(m, k)
	if err != nil {
		return nil, err
	}
	bounds := lo.Map(solids, func(s MemberSolid, _ int) geom.AABB {
		mn, mx := s.Solid.BoundingBox()
		return geom.AABB{
			Min: geom.Vec{X: mn[0], Y: mn[1], Z: mn[2]},
			Max: geom.Vec{X: mx[0], Y: mx[1], Z: mx[2]},
		}.Expand(tol)
	})
	nodes := lo.Map(solids, func(s MemberSolid, _ int) []graph.NodeID {
		return m.Member(s.ID).Data.Nodes()
	})

	var out []Finding
	for i := range solids {
		for j := i + 1; j < len(solids); j++ {
			if !bounds[i].Overlaps(bounds[j]) {
				continue
			}
			if len(lo.Intersect(nodes[i], nodes[j])) > 0 {
				continue
			}
			d := math.Min(
				nearest(m, k, nodes[i], solids[j].Solid),
				nearest(m, k, nodes[j], solids[i].Solid),
			)
			if d > tol {
				both := k.Intersection(solids[i].Solid, solids[j].Solid)
				d = math.Min(d, k.Distance(both, overlapCentre(bounds[i], bounds[j])))
			}
			if d <= tol {
				out = append(out, Finding{
					A: solids[i].ID, B: solids[j].ID,
					AName: solids[i].Name, BName: solids[j].Name,
					Distance: d,
				})
			}
		}
	}
	return out, nil
}

func overlapCentre(a, b geom.AABB) [3]float64 {
	return [3]float64{
		(math.Max(a.Min.X, b.Min.X) + math.Min(a.Max.X, b.Max.X)) / 2,
		(math.Max(a.Min.Y, b.Min.Y) + math.Min(a.Max.Y, b.Max.Y)) / 2,
		(math.Max(a.Min.Z, b.Min.Z) + math.Min(a.Max.Z, b.Max.Z)) / 2,
	}
}

func nearest(m *graph.Model, k kernel.Kernel, ids []graph.NodeID, s kernel.Solid) float64 {
	d := math.Inf(1)
	for _, id := range ids {
		p := m.Point(id)
		d = math.Min(d, k.Distance(s, [3]float64{p.X, p.Y, p.Z}))
	}
	return d
}
