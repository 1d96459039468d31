package resolve

import (
	"math"
	"sort"

	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/graph"
	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// IndexKind selects the spatial index used by the node merger.
type IndexKind string

const (
	IndexGrid  IndexKind = "grid"
	IndexRTree IndexKind = "rtree"
)

// ParseIndexKind accepts "grid", "rtree" or the empty string (grid).
func ParseIndexKind(s string) (IndexKind, error) {
	switch IndexKind(s) {
	case "", IndexGrid:
		return IndexGrid, nil
	case IndexRTree:
		return IndexRTree, nil
	}
	return "", errors.Errorf("unknown merge index %q (want grid or rtree)", s)
}

// Index finds previously inserted nodes near a point.
type Index interface {
	Insert(id graph.NodeID, p geom.Vec)
	// Near returns candidates within tol of p in every axis, ascending.
	// It may return more than that; callers check the distance.
	Near(p geom.Vec, tol float64) []graph.NodeID
}

// Merger collapses coincident nodes into one representative.
type Merger struct {
	Index IndexKind
	Log   zerolog.Logger
}

// MergeStats summarises one merge.
type MergeStats struct {
	Nodes           int `json:"nodes"`           // live nodes before the merge
	Representatives int `json:"representatives"` // live nodes after
	Merged          int `json:"merged"`
	Skipped         int `json:"skipped"` // coincident but merging would collapse a line member
}

// Merge visits nodes in ascending order and compares each against the
// representatives accepted so far; one within the model precision absorbs
// it through graph.Model.ReplaceNode. Afterwards no two live nodes are
// coincident, except where merging would give a line member zero length.
func (mg *Merger) Merge(m *graph.Model) (MergeStats, error) {
	ids := m.NodeIDs()
	stats := MergeStats{Nodes: len(ids)}
	if len(ids) == 0 {
		return stats, nil
	}
	idx, err := mg.newIndex(m, ids)
	if err != nil {
		return stats, err
	}

	tol := m.Precision()
	for _, id := range ids {
		p := m.Point(id)
		rep, found := graph.NodeID(0), false
		for _, c := range idx.Near(p, tol) {
			q := m.Point(c)
			if geom.Distance(p, q) <= tol || m.Coincident(p, q) {
				rep, found = c, true
				break
			}
		}
		if found {
			err := m.ReplaceNode(id, rep)
			switch {
			case err == nil:
				stats.Merged++
				continue
			case errors.Is(err, graph.ErrZeroLength):
				stats.Skipped++
				mg.Log.Warn().Stringer("node", id).Stringer("into", rep).Msg("merge would collapse a member; kept apart")
			default:
				return stats, errors.Wrap(err, "merge")
			}
		}
		idx.Insert(id, p)
		stats.Representatives++
	}

	if stats.Representatives+stats.Merged != stats.Nodes || m.NodeCount() != stats.Representatives {
		return stats, errors.Wrapf(ErrAccounting, "merge: %d representatives + %d merged != %d nodes (%d live)",
			stats.Representatives, stats.Merged, stats.Nodes, m.NodeCount())
	}
	mg.Log.Debug().Int("nodes", stats.Nodes).Int("merged", stats.Merged).Int("skipped", stats.Skipped).Msg("merge")
	return stats, nil
}

func (mg *Merger) newIndex(m *graph.Model, ids []graph.NodeID) (Index, error) {
	kind, err := ParseIndexKind(string(mg.Index))
	if err != nil {
		return nil, err
	}
	if kind == IndexRTree {
		return newRTreeIndex(), nil
	}
	pts := make([]geom.Vec, len(ids))
	for i, id := range ids {
		pts[i] = m.Point(id)
	}
	return newGridIndex(pts), nil
}

// ---------------------------------------------------------------------------
// Spatial hash
// ---------------------------------------------------------------------------

const (
	gridBins    = 8
	gridPadding = 1.0
)

type cellKey [3]int

// gridIndex buckets points into gridBins³ cells over the padded extents of
// the model. Queries visit every cell a tol-box around the point touches,
// so neighbours on either side of a cell boundary are found.
type gridIndex struct {
	min, cell geom.Vec
	cells     map[cellKey][]graph.NodeID
}

func newGridIndex(pts []geom.Vec) *gridIndex {
	b := geom.BoundsOf(pts).Expand(gridPadding)
	return &gridIndex{
		min:   b.Min,
		cell:  b.Size().DivScalar(gridBins),
		cells: make(map[cellKey][]graph.NodeID),
	}
}

func (g *gridIndex) bin(v, min, cell float64) int {
	i := int(math.Floor((v - min) / cell))
	if i < 0 {
		return 0
	}
	if i >= gridBins {
		return gridBins - 1
	}
	return i
}

func (g *gridIndex) key(p geom.Vec) cellKey {
	return cellKey{
		g.bin(p.X, g.min.X, g.cell.X),
		g.bin(p.Y, g.min.Y, g.cell.Y),
		g.bin(p.Z, g.min.Z, g.cell.Z),
	}
}

func (g *gridIndex) Insert(id graph.NodeID, p geom.Vec) {
	k := g.key(p)
	g.cells[k] = append(g.cells[k], id)
}

func (g *gridIndex) Near(p geom.Vec, tol float64) []graph.NodeID {
	d := geom.Vec{X: tol, Y: tol, Z: tol}
	lo, hi := g.key(p.Sub(d)), g.key(p.Add(d))
	// Always include the direct neighbours.
	for i := range lo {
		lo[i] = max(lo[i]-1, 0)
		hi[i] = min(hi[i]+1, gridBins-1)
	}
	var out []graph.NodeID
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				out = append(out, g.cells[cellKey{x, y, z}]...)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ---------------------------------------------------------------------------
// R-tree
// ---------------------------------------------------------------------------

// pointSize is the half-width of the box an indexed point occupies;
// rtreego rejects zero-size boxes.
const pointSize = 1e-9

type nodeEntry struct {
	id   graph.NodeID
	rect rtreego.Rect
}

func (e *nodeEntry) Bounds() rtreego.Rect { return e.rect }

type rtreeIndex struct {
	tree *rtreego.Rtree
}

func newRTreeIndex() *rtreeIndex {
	return &rtreeIndex{tree: rtreego.NewTree(3, 25, 50)}
}

func toPoint(p geom.Vec) rtreego.Point { return rtreego.Point{p.X, p.Y, p.Z} }

func (r *rtreeIndex) Insert(id graph.NodeID, p geom.Vec) {
	r.tree.Insert(&nodeEntry{id: id, rect: toPoint(p).ToRect(pointSize)})
}

func (r *rtreeIndex) Near(p geom.Vec, tol float64) []graph.NodeID {
	hits := r.tree.SearchIntersect(toPoint(p).ToRect(tol + pointSize))
	out := make([]graph.NodeID, len(hits))
	for i, h := range hits {
		out[i] = h.(*nodeEntry).id
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
