package resolve

import (
	"context"
	"sort"

	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/graph"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// DefaultMaxCycles bounds the frame resolver's divide/snap/regroup loop.
const DefaultMaxCycles = 100

// FrameResolver joins line members. Columns start out static and beams
// and generic members movable. Each cycle divides the movable members
// where static members cross their spans, snaps their end nodes onto the
// static members, and regroups: snapped members become the new static set
// and unsnapped ones stay movable. The loop ends when either set is empty.
type FrameResolver struct {
	MaxCycles int // zero selects DefaultMaxCycles
	Log       zerolog.Logger
}

// FrameStats summarises one frame resolution.
type FrameStats struct {
	Cycles    int `json:"cycles"`
	Divisions int `json:"divisions"` // members added by division
	Snaps     int `json:"snaps"`     // end nodes translated
	Joints    int `json:"joints"`    // snapped nodes attached to a static member
}

// snapResult is the outcome of one snap sub-pass.
type snapResult struct {
	unsnapped, partial, full []graph.MemberID
	moved                    int
	joints                   int
	pieces                   map[graph.MemberID][]graph.MemberID // static member -> pieces split off it
}

type joint struct {
	static graph.MemberID
	node   graph.NodeID
}

// Resolve runs the frame resolver on m. It returns ErrNotConverged when
// MaxCycles is exceeded and ErrAccounting when a snap sub-pass loses
// track of a member.
func (r *FrameResolver) Resolve(ctx context.Context, m *graph.Model) (FrameStats, error) {
	var stats FrameStats
	maxCycles := r.MaxCycles
	if maxCycles <= 0 {
		maxCycles = DefaultMaxCycles
	}

	static := m.Lines(graph.KindColumn)
	movable := m.Lines(graph.KindBeam, graph.KindMember)
	for {
		if len(static) == 0 || len(movable) == 0 {
			return stats, nil
		}
		if stats.Cycles == maxCycles {
			return stats, errors.Wrapf(ErrNotConverged, "%d cycles, %d members still movable", maxCycles, len(movable))
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Cycles++
		r.Log.Debug().Int("cycle", stats.Cycles).Int("static", len(static)).Int("movable", len(movable)).Msg("frame cycle")

		before := m.MemberCount()
		divided, err := r.divide(m, static, movable)
		if err != nil {
			return stats, err
		}
		stats.Divisions += m.MemberCount() - before

		res, err := r.snap(m, static, divided)
		if err != nil {
			return stats, err
		}
		stats.Snaps += res.moved
		stats.Joints += res.joints

		next := append(append([]graph.MemberID(nil), res.full...), res.partial...)
		if len(res.partial) > 0 {
			extra, err := r.snap(m, res.full, res.partial)
			if err != nil {
				return stats, err
			}
			stats.Snaps += extra.moved
			stats.Joints += extra.joints
			// Full members split by the extra pass stay static as pieces.
			next = append(next, lo.Flatten(lo.Values(extra.pieces))...)
		}
		static = sortedIDs(next)
		movable = res.unsnapped
	}
}

// divide splits each movable member where a static member passes within
// the allowable distance of its span, away from its own ends. It returns
// all resulting pieces in ascending handle order.
func (r *FrameResolver) divide(m *graph.Model, static, movable []graph.MemberID) ([]graph.MemberID, error) {
	props := make(map[graph.MemberID][]float64, len(movable))
	for _, s := range static {
		a, b, err := m.Segment(s)
		if err != nil {
			return nil, err
		}
		for _, mv := range movable {
			q1, q2, err := m.Segment(mv)
			if err != nil {
				return nil, err
			}
			ri, rj, ok := geom.ClosestApproach(a, b, q1, q2, true, true)
			if !ok {
				continue
			}
			allow := Allowable(m.Member(s), m.Member(mv))
			if geom.Distance(ri, rj) > allow {
				continue
			}
			if geom.Distance(rj, q1) <= allow || geom.Distance(rj, q2) <= allow {
				continue
			}
			props[mv] = append(props[mv], geom.Distance(q1, rj)/geom.Distance(q1, q2))
		}
	}

	var out []graph.MemberID
	for _, mv := range movable {
		pieces, err := m.Divide(mv, props[mv])
		if err != nil {
			return nil, errors.Wrap(err, "frame division")
		}
		if len(pieces) > 1 {
			r.Log.Debug().Stringer("member", m.Member(mv)).Int("pieces", len(pieces)).Msg("divided")
		}
		out = append(out, pieces...)
	}
	return sortedIDs(out), nil
}

// snap moves end nodes of movable members onto static members. A movable
// member is considered at most until both of its ends have snapped; per
// static member only the first qualifying end moves. Joints are attached
// once the sub-pass has been accounted for.
func (r *FrameResolver) snap(m *graph.Model, static, movable []graph.MemberID) (snapResult, error) {
	res := snapResult{pieces: make(map[graph.MemberID][]graph.MemberID)}
	count := make(map[graph.MemberID]int, len(movable))
	var joints []joint

	for _, s := range static {
		a, b, err := m.Segment(s)
		if err != nil {
			return res, err
		}
		for _, mv := range movable {
			if count[mv] > 1 {
				continue
			}
			allow := Allowable(m.Member(s), m.Member(mv))
			d := m.Member(mv).Line()
			for _, n := range []graph.NodeID{d.Start, d.End} {
				p := m.Point(n)
				proj, _ := geom.ProjectOnSegment(p, a, b, true)
				dist := geom.Round(geom.Distance(p, proj), m.Scale())
				if dist > allow {
					continue
				}
				if dist > 0 {
					if err := m.MoveNode(n, proj); err != nil {
						return res, err
					}
					res.moved++
				}
				count[mv]++
				joints = append(joints, joint{static: s, node: n})
				break
			}
		}
	}

	for _, mv := range movable {
		switch count[mv] {
		case 0:
			res.unsnapped = append(res.unsnapped, mv)
		case 1:
			res.partial = append(res.partial, mv)
		case 2:
			res.full = append(res.full, mv)
		}
	}
	got := len(res.unsnapped) + len(res.partial) + len(res.full) + len(static)
	if want := len(static) + len(movable); got != want {
		return res, errors.Wrapf(ErrAccounting, "frame snap: %d unsnapped + %d partial + %d full + %d static != %d",
			len(res.unsnapped), len(res.partial), len(res.full), len(static), want)
	}

	for _, j := range joints {
		ok, err := r.attach(m, j, res.pieces)
		if err != nil {
			return res, err
		}
		if ok {
			res.joints++
		}
	}
	r.Log.Debug().
		Int("static", len(static)).
		Int("unsnapped", len(res.unsnapped)).
		Int("partial", len(res.partial)).
		Int("full", len(res.full)).
		Int("moved", res.moved).
		Msg("frame snap")
	return res, nil
}

// attach makes a snapped node part of the static member it snapped to.
// A node on a static end is replaced by that end; a node inside the span
// splits the static member there. pieces tracks what each static member
// has been split into, so later joints find the right piece.
func (r *FrameResolver) attach(m *graph.Model, j joint, pieces map[graph.MemberID][]graph.MemberID) (bool, error) {
	if m.Node(j.node) == nil {
		return false, nil
	}
	chain := append([]graph.MemberID{j.static}, pieces[j.static]...)
	p := m.Point(j.node)

	for _, id := range chain {
		d := m.Member(id).Line()
		for _, end := range []graph.NodeID{d.Start, d.End} {
			if end == j.node {
				return false, nil
			}
			if !m.Coincident(p, m.Point(end)) {
				continue
			}
			err := m.ReplaceNode(j.node, end)
			if errors.Is(err, graph.ErrZeroLength) {
				r.Log.Warn().Stringer("node", j.node).Stringer("member", m.Member(id)).Msg("joint would collapse a member; left unmerged")
				return false, nil
			}
			return err == nil, err
		}
	}

	for _, id := range chain {
		piece, err := m.SplitAt(id, j.node)
		if errors.Is(err, graph.ErrNotOnMember) {
			continue
		}
		if err != nil {
			return false, errors.Wrap(err, "frame joint")
		}
		pieces[j.static] = append(pieces[j.static], piece)
		return true, nil
	}
	return false, nil
}

func sortedIDs(ids []graph.MemberID) []graph.MemberID {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
