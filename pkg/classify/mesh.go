package classify

import (
	"math"

	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/graph"
	"github.com/chazu/truss/pkg/kernel"
	"github.com/chazu/truss/pkg/profile"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// MemberShape is a line member recovered from a raw mesh.
type MemberShape struct {
	Start, End geom.Vec
	YAxis      geom.Vec
	Preset     Preset
	Profile    profile.Profile
}

// MemberFromMesh recovers the axis, orientation and profile of a straight
// extruded member from its closed surface mesh.
//
// The face farthest from the mesh centroid fixes a rough length L. Faces
// whose corners all lie between 0.25L and 0.75L from the centroid, and whose
// own centroid is at least 0.25L away, form the two end caps; faces within
// 0.25L of the farthest face belong to the first cap. The cap centroids are
// the member end points and the longest boundary edge of the second cap
// gives the assumed y axis. ok is false when the section cannot be
// classified or measured.
func MemberFromMesh(m *kernel.Mesh, kind graph.MemberKind, scale int) (shape MemberShape, ok bool, err error) {
	if m == nil || m.TriangleCount() == 0 {
		return shape, false, errors.Wrap(geom.ErrDegenerate, "member from mesh: empty mesh")
	}
	all := m.AllFaces()
	centroid := m.Centroid()
	dist := lo.Map(all, func(i int, _ int) float64 { return geom.Distance(m.FaceCentroid(i), centroid) })
	farthest := 0
	for i, d := range dist {
		if d > dist[farthest] {
			farthest = i
		}
	}
	length := 2 * dist[farthest]
	if length < geom.Epsilon {
		return shape, false, errors.Wrap(geom.ErrDegenerate, "member from mesh: mesh has no extent")
	}

	ends := lo.Filter(all, func(i int, _ int) bool {
		if dist[i] < 0.25*length {
			return false
		}
		for _, v := range m.Face(i) {
			d := geom.Distance(v, centroid)
			if d < 0.25*length || d > 0.75*length {
				return false
			}
		}
		return true
	})
	far := m.FaceCentroid(farthest)
	first := lo.Filter(ends, func(i int, _ int) bool { return geom.Distance(m.FaceCentroid(i), far) <= 0.25*length })
	second := lo.Without(ends, first...)
	if len(first) == 0 || len(second) == 0 {
		return shape, false, errors.Wrapf(geom.ErrDegenerate, "member from mesh: end caps have %d and %d faces", len(first), len(second))
	}

	start, end := m.GroupCentroid(first), m.GroupCentroid(second)
	z, err := geom.Unit(end.Sub(start))
	if err != nil {
		return shape, false, errors.Wrap(err, "member from mesh: end caps coincide")
	}

	edges := m.BoundaryEdges(second)
	y, err := kernel.LongestEdge(edges).Direction()
	if err != nil {
		return shape, false, errors.Wrap(err, "member from mesh: y axis")
	}
	if kind == graph.KindBeam && geom.RoundVec(y, 6) == geom.RoundVec(geom.ZAxis.MulScalar(-1), 6) {
		y = geom.ZAxis
	}

	capFaces := m.Faces(second)
	res, ok, err := Classify(z, y, capFaces)
	if err != nil || !ok {
		return shape, false, err
	}
	p, ok, err := Measure(res.Preset, z, res.XAxis, capFaces, scale)
	if err != nil || !ok {
		return shape, false, err
	}
	return MemberShape{
		Start:   start,
		End:     end,
		YAxis:   z.Cross(res.XAxis),
		Preset:  res.Preset,
		Profile: p,
	}, true, nil
}

// SurfaceShape is a wall or slab recovered from a raw mesh.
type SurfaceShape struct {
	Outline   []geom.Vec // mid-plane boundary loop
	Thickness float64
}

// SurfaceFromMesh recovers the mid-plane outline and thickness of a planar
// slab or wall. The largest face and every face coplanar with it form the
// first side; the largest remaining face gives the second side. The outline
// of the first side is moved half the thickness towards the second.
func SurfaceFromMesh(m *kernel.Mesh, scale int) (SurfaceShape, error) {
	if m == nil || m.TriangleCount() == 0 {
		return SurfaceShape{}, errors.Wrap(geom.ErrDegenerate, "surface from mesh: empty mesh")
	}
	seed := m.LargestFace()
	side, err := m.CoplanarGroup(seed)
	if err != nil {
		return SurfaceShape{}, errors.Wrap(err, "surface from mesh")
	}
	rest := lo.Without(m.AllFaces(), side...)
	if len(rest) == 0 {
		return SurfaceShape{}, errors.Wrap(geom.ErrDegenerate, "surface from mesh: mesh is a single plane")
	}
	other := lo.MaxBy(rest, func(a, b int) bool { return m.FaceArea(a) > m.FaceArea(b) })

	n, err := m.FaceNormal(seed)
	if err != nil {
		return SurfaceShape{}, errors.Wrap(err, "surface from mesh")
	}
	t := m.Face(seed)[0].Sub(m.Face(other)[0]).Dot(n)
	t = geom.Round(t, scale)
	if t == 0 {
		return SurfaceShape{}, errors.Wrap(geom.ErrDegenerate, "surface from mesh: zero thickness")
	}

	loop, err := m.BoundaryLoop(side)
	if err != nil {
		return SurfaceShape{}, errors.Wrap(err, "surface from mesh")
	}
	shift := n.MulScalar(-t / 2)
	return SurfaceShape{
		Outline:   lo.Map(loop, func(p geom.Vec, _ int) geom.Vec { return p.Add(shift) }),
		Thickness: math.Abs(t),
	}, nil
}
