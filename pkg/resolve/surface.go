package resolve

import (
	"math"
	"sort"

	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/graph"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Snapper moves nodes onto surface members. All three passes are single
// sweeps with no iteration.
type Snapper struct {
	// MinTolerance is the smallest snapping distance; zero selects
	// SurfaceTolerance.
	MinTolerance float64
	// AngleTolerance is the slack, in degrees, of the perpendicular and
	// parallel tests; zero selects geom.DefaultAngleTolerance.
	AngleTolerance float64
	Log            zerolog.Logger
}

func (s *Snapper) floor() float64 {
	if s.MinTolerance > 0 {
		return s.MinTolerance
	}
	return SurfaceTolerance
}

func (s *Snapper) angle() float64 {
	if s.AngleTolerance > 0 {
		return s.AngleTolerance
	}
	return geom.DefaultAngleTolerance
}

// surface is a surface member frozen at the start of a pass.
type surface struct {
	id        graph.MemberID
	outline   []geom.Vec
	plane     geom.Plane
	bounds    geom.AABB
	thickness float64
}

func snapshotSurfaces(m *graph.Model, ids []graph.MemberID) ([]surface, error) {
	out := make([]surface, 0, len(ids))
	for _, id := range ids {
		pts, err := m.Outline(id)
		if err != nil {
			return nil, err
		}
		pl, err := m.Plane(id)
		if err != nil {
			return nil, err
		}
		out = append(out, surface{
			id:        id,
			outline:   pts,
			plane:     pl,
			bounds:    geom.BoundsOf(pts),
			thickness: m.Member(id).Data.GoverningSize(),
		})
	}
	return out, nil
}

// FrameToSurfaces moves line member nodes onto the mid-plane of a nearby
// surface member when their projection lands inside its outline. A node
// is snapped to the first qualifying surface only. It returns the number
// of nodes moved; nodes already on a surface count as not moved.
func (s *Snapper) FrameToSurfaces(m *graph.Model) (int, error) {
	// Each node carries the largest profile of the members meeting there.
	size := make(map[graph.NodeID]float64)
	for _, id := range m.Lines() {
		d := m.Member(id).Line()
		for _, n := range d.Nodes() {
			size[n] = math.Max(size[n], d.GoverningSize())
		}
	}
	nodes := lo.Keys(size)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	surfs, err := snapshotSurfaces(m, m.Surfaces())
	if err != nil {
		return 0, errors.Wrap(err, "surface to frame")
	}

	moved := 0
	for _, n := range nodes {
		p := m.Point(n)
		for _, sf := range surfs {
			tol := surfaceAllowable(s.floor(), size[n], sf.thickness)
			proj, dist := sf.plane.Project(p)
			if math.Abs(dist) > tol {
				continue
			}
			inside, err := geom.InPolygon(proj, sf.outline, m.Precision())
			if err != nil {
				return moved, errors.Wrapf(err, "surface to frame: %v", m.Member(sf.id))
			}
			if !inside {
				continue
			}
			if geom.Round(math.Abs(dist), m.Scale()) > 0 {
				if err := m.MoveNode(n, proj); err != nil {
					return moved, err
				}
				moved++
			}
			break
		}
	}
	s.Log.Debug().Int("nodes", len(nodes)).Int("surfaces", len(surfs)).Int("moved", moved).Msg("surface to frame")
	return moved, nil
}

// WallsToSlabs shifts walls onto the edges of slabs they meet at a right
// angle. For each wall not yet moved, the first perpendicular slab within
// reach that has an edge parallel to the wall and close to its plane
// gives a translation; the wall and every wall connected to it through
// shared nodes move by it together and are not considered again. Tests
// use the positions from the start of the pass. It returns the number of
// nodes moved.
func (s *Snapper) WallsToSlabs(m *graph.Model) (int, error) {
	walls, err := snapshotSurfaces(m, m.Surfaces(graph.KindWall))
	if err != nil {
		return 0, errors.Wrap(err, "walls to slabs")
	}
	slabs, err := snapshotSurfaces(m, m.Surfaces(graph.KindSlab))
	if err != nil {
		return 0, errors.Wrap(err, "walls to slabs")
	}

	done := make(map[graph.MemberID]bool)
	moved := 0
	for _, w := range walls {
		if done[w.id] {
			continue
		}
		for _, sl := range slabs {
			shift, ok := s.wallShift(w, sl)
			if !ok {
				continue
			}
			group := wallGroup(m, w.id)
			n, err := translate(m, groupNodes(m, group), shift)
			if err != nil {
				return moved, err
			}
			moved += n
			for _, g := range group {
				done[g] = true
			}
			s.Log.Debug().Stringer("wall", m.Member(w.id)).Stringer("slab", m.Member(sl.id)).Int("walls", len(group)).Msg("wall moved to slab edge")
			break
		}
	}
	s.Log.Debug().Int("walls", len(walls)).Int("slabs", len(slabs)).Int("moved", moved).Msg("walls to slabs")
	return moved, nil
}

// wallShift returns the translation that puts the wall plane through the
// first slab edge running parallel to it within reach.
func (s *Snapper) wallShift(w, sl surface) (geom.Vec, bool) {
	if !w.plane.Perpendicular(sl.plane, s.angle()) {
		return geom.Vec{}, false
	}
	tol := surfaceAllowable(s.floor(), w.thickness, sl.thickness)
	if !w.bounds.Expand(tol).Overlaps(sl.bounds) {
		return geom.Vec{}, false
	}
	for i, a := range sl.outline {
		b := sl.outline[(i+1)%len(sl.outline)]
		if !geom.VectorsPerpendicular(b.Sub(a), w.plane.Normal, s.angle()) {
			continue
		}
		proj, dist := w.plane.Project(a)
		if math.Abs(dist) > tol {
			continue
		}
		return a.Sub(proj), true
	}
	return geom.Vec{}, false
}

// WallsToWalls closes the seams between walls meeting at a right angle.
// For each ordered pair of nearby perpendicular walls, the nodes of
// either wall within reach of the line where the two planes meet are
// projected onto it. Walls sharing a moved node follow it, so connected
// walls stay closed. A pair is skipped when its reverse has already
// moved nodes. Plane, reach and bounds tests use the positions from the
// start of the pass. It returns the number of node translations.
func (s *Snapper) WallsToWalls(m *graph.Model) (int, error) {
	walls, err := snapshotSurfaces(m, m.Surfaces(graph.KindWall))
	if err != nil {
		return 0, errors.Wrap(err, "walls to walls")
	}

	type pair struct{ a, b graph.MemberID }
	snapped := make(map[pair]bool)
	moved := 0
	for _, w1 := range walls {
		for _, w2 := range walls {
			if w1.id == w2.id || snapped[pair{w2.id, w1.id}] {
				continue
			}
			if !w1.plane.Perpendicular(w2.plane, s.angle()) {
				continue
			}
			tol := surfaceAllowable(s.floor(), w1.thickness, w2.thickness)
			if !w1.bounds.Expand(tol).Overlaps(w2.bounds) {
				continue
			}
			seam, ok := w1.plane.Intersect(w2.plane)
			if !ok {
				continue
			}

			n := 0
			for _, node := range groupNodes(m, []graph.MemberID{w1.id, w2.id}) {
				p := m.Point(node)
				proj := seam.Project(p)
				dist := geom.Distance(p, proj)
				if dist > tol || geom.Round(dist, m.Scale()) == 0 {
					continue
				}
				if err := m.MoveNode(node, proj); err != nil {
					return moved, err
				}
				n++
			}
			if n > 0 {
				snapped[pair{w1.id, w2.id}] = true
				moved += n
				s.Log.Debug().Stringer("wall", m.Member(w1.id)).Stringer("other", m.Member(w2.id)).Int("moved", n).Msg("wall seam closed")
			}
		}
	}
	s.Log.Debug().Int("walls", len(walls)).Int("moved", moved).Msg("walls to walls")
	return moved, nil
}

// wallGroup returns the walls transitively connected to start through
// shared nodes, in ascending order.
func wallGroup(m *graph.Model, start graph.MemberID) []graph.MemberID {
	seen := map[graph.MemberID]bool{start: true}
	queue := []graph.MemberID{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, n := range m.Member(id).Data.Nodes() {
			for _, other := range m.MembersAt(n) {
				if seen[other] || m.Member(other).Kind != graph.KindWall {
					continue
				}
				seen[other] = true
				queue = append(queue, other)
			}
		}
	}
	return sortedIDs(lo.Keys(seen))
}

// groupNodes returns the distinct nodes of members in ascending order.
func groupNodes(m *graph.Model, members []graph.MemberID) []graph.NodeID {
	var nodes []graph.NodeID
	for _, id := range members {
		nodes = append(nodes, m.Member(id).Data.Nodes()...)
	}
	nodes = lo.Uniq(nodes)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}

// translate moves nodes by shift and returns how many moved. A shift that
// rounds to zero moves nothing.
func translate(m *graph.Model, nodes []graph.NodeID, shift geom.Vec) (int, error) {
	if geom.Round(shift.Length(), m.Scale()) == 0 {
		return 0, nil
	}
	for _, n := range nodes {
		if err := m.MoveNode(n, m.Point(n).Add(shift)); err != nil {
			return 0, err
		}
	}
	return len(nodes), nil
}
