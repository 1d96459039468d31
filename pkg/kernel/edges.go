package kernel

import (
	"github.com/chazu/truss/pkg/geom"
	"github.com/pkg/errors"
)

// ErrBoundaryNotConverged is returned when chaining boundary edges takes
// more steps than there are edges, which only happens on malformed face
// groups.
var ErrBoundaryNotConverged = errors.New("boundary edge extraction did not converge")

// Edge is a directed triangle edge.
type Edge struct {
	A, B geom.Vec
}

// Length returns |B - A|.
func (e Edge) Length() float64 {
	return geom.Distance(e.A, e.B)
}

// Direction returns the unit vector from A to B.
func (e Edge) Direction() (geom.Vec, error) {
	return geom.Unit(e.B.Sub(e.A))
}

// BoundaryEdges returns the outer edges of a contiguous group of planar
// faces. Every directed face edge is queued; an edge whose reverse is still
// pending cancels against it, and what remains is the boundary. Edges are
// compared by position, so faces need not share vertex indices. Each edge
// is visited once, so the work is linear in the number of faces.
func (m *Mesh) BoundaryEdges(faces []int) []Edge {
	return boundaryEdges(m.Faces(faces))
}

func boundaryEdges(faces [][3]geom.Vec) []Edge {
	var queue []Edge
	for _, f := range faces {
		for i := 0; i < 3; i++ {
			queue = append(queue, Edge{A: f[i], B: f[(i+1)%3]})
		}
	}

	pending := make(map[[2]key]int, len(queue))
	for _, e := range queue {
		pending[[2]key{keyOf(e.A), keyOf(e.B)}]++
	}

	var boundary []Edge
	for _, e := range queue {
		fwd := [2]key{keyOf(e.A), keyOf(e.B)}
		if pending[fwd] == 0 {
			// Already cancelled by its reverse.
			continue
		}
		pending[fwd]--

		rev := [2]key{fwd[1], fwd[0]}
		if pending[rev] > 0 {
			pending[rev]--
			continue
		}
		boundary = append(boundary, e)
	}
	return boundary
}

// BoundaryLoop chains the boundary edges of a face group into a single
// ordered loop of points. Groups with holes yield only the loop that starts
// at the first boundary edge.
func (m *Mesh) BoundaryLoop(faces []int) ([]geom.Vec, error) {
	return chainLoop(m.BoundaryEdges(faces))
}

// chainLoop follows edges from the first one until it returns to its start.
// A loop that closes visits each edge at most once.
func chainLoop(edges []Edge) ([]geom.Vec, error) {
	if len(edges) == 0 {
		return nil, nil
	}

	next := make(map[key]Edge, len(edges))
	for _, e := range edges {
		next[keyOf(e.A)] = e
	}

	start := keyOf(edges[0].A)
	loop := []geom.Vec{edges[0].A}
	cur := edges[0]
	for i := 0; ; i++ {
		if i > len(edges) {
			return nil, errors.Wrapf(ErrBoundaryNotConverged, "boundary loop does not close after %d edges", len(edges))
		}
		k := keyOf(cur.B)
		if k == start {
			break
		}
		loop = append(loop, cur.B)
		e, ok := next[k]
		if !ok {
			return nil, errors.Wrapf(geom.ErrDegenerate, "open boundary at %v", cur.B)
		}
		cur = e
	}
	return dropCollinear(loop), nil
}

// dropCollinear removes loop points that lie on the segment between their
// neighbours.
func dropCollinear(loop []geom.Vec) []geom.Vec {
	if len(loop) < 4 {
		return loop
	}
	var out []geom.Vec
	n := len(loop)
	for i := range loop {
		prev, cur, next := loop[(i+n-1)%n], loop[i], loop[(i+1)%n]
		if cur.Sub(prev).Cross(next.Sub(cur)).Length() < 1e-12 {
			continue
		}
		out = append(out, cur)
	}
	return out
}

// LongestEdge returns the longest of edges. The first is returned on ties.
func LongestEdge(edges []Edge) Edge {
	var best Edge
	bestLen := -1.0
	for _, e := range edges {
		if l := e.Length(); l > bestLen {
			best, bestLen = e, l
		}
	}
	return best
}
