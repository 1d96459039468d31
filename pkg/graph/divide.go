package graph

import (
	"fmt"
	"sort"

	"github.com/chazu/truss/pkg/geom"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Divide splits a line member at the given proportions of its length and
// returns the pieces in order from start to end. Each proportion must lie
// strictly between 0 and 1. Cuts are placed at the exact proportion of the
// length; proportions whose cuts coincide at the model scale, or fall on an
// end, are dropped. An empty list returns the member unchanged. The first piece
// keeps the original handle; later pieces are new members named
// "<name>.<n>" that copy the kind, profile and y axis.
func (m *Model) Divide(id MemberID, proportions []float64) ([]MemberID, error) {
	mem := m.Member(id)
	if mem == nil {
		return nil, errors.Wrapf(ErrUnknownMember, "divide %v", id)
	}
	d := mem.Line()
	if d == nil {
		return nil, errors.Wrapf(ErrWrongKind, "divide %v", mem)
	}
	if len(proportions) == 0 {
		return []MemberID{id}, nil
	}
	for _, p := range proportions {
		if !(p > 0 && p < 1) {
			return nil, errors.Wrapf(ErrInvalidProportion, "divide %v at %g", mem, p)
		}
	}

	a, b := m.Point(d.Start), m.Point(d.End)
	dir := b.Sub(a)
	length := dir.Length()
	at := func(p float64) float64 { return geom.Round(p*length, m.scale) }

	ps := append([]float64(nil), proportions...)
	sort.Float64s(ps)
	ps = lo.UniqBy(ps, at)
	ps = lo.Filter(ps, func(p float64, _ int) bool { return at(p) > 0 && at(p) < geom.Round(length, m.scale) })
	if len(ps) == 0 {
		return []MemberID{id}, nil
	}

	cuts := lo.Map(ps, func(p float64, _ int) NodeID {
		return m.AddNode(a.Add(dir.MulScalar(p)))
	})

	end := d.End
	m.dropRef(end, id)
	d.End = cuts[0]
	m.addRef(cuts[0], id)

	pieces := []MemberID{id}
	for i, start := range cuts {
		stop := end
		if i+1 < len(cuts) {
			stop = cuts[i+1]
		}
		piece, err := m.addPiece(mem, start, stop)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, piece)
	}
	return pieces, nil
}

// SplitAt splits a line member at an existing node lying on its interior
// and returns the handle of the new second piece. The node becomes the
// shared joint of both pieces.
func (m *Model) SplitAt(id MemberID, node NodeID) (MemberID, error) {
	mem := m.Member(id)
	if mem == nil {
		return 0, errors.Wrapf(ErrUnknownMember, "split %v", id)
	}
	d := mem.Line()
	if d == nil {
		return 0, errors.Wrapf(ErrWrongKind, "split %v", mem)
	}
	n := m.Node(node)
	if n == nil {
		return 0, errors.Wrapf(ErrUnknownNode, "split %v at %v", mem, node)
	}
	if node == d.Start || node == d.End {
		return 0, errors.Wrapf(ErrNotOnMember, "%v is an end of %v", node, mem)
	}

	a, b := m.Point(d.Start), m.Point(d.End)
	proj, t := geom.ProjectOnSegment(n.Point, a, b, false)
	l := geom.Distance(a, b)
	if geom.Distance(proj, n.Point) > m.precision || t <= 0 || t >= l ||
		m.Coincident(n.Point, a) || m.Coincident(n.Point, b) {
		return 0, errors.Wrapf(ErrNotOnMember, "%v at %v, member %v", node, n.Point, mem)
	}

	end := d.End
	m.dropRef(end, id)
	d.End = node
	m.addRef(node, id)
	return m.addPiece(mem, node, end)
}

// addPiece adds a continuation of a divided line member.
func (m *Model) addPiece(orig *Member, start, end NodeID) (MemberID, error) {
	d := orig.Line()
	name := ""
	if orig.Name != "" {
		name = m.pieceName(orig.Name)
	}
	return m.addMember(orig.Kind, name, &LineData{
		Start:   start,
		End:     end,
		YAxis:   d.YAxis,
		Profile: d.Profile,
	})
}

func (m *Model) pieceName(base string) string {
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s.%d", base, n)
		if _, taken := m.nameIndex[name]; !taken {
			return name
		}
	}
}

// ReplaceNode redirects every member reference from dup to rep and removes
// dup from the model. A line member whose two ends would become the same
// node is refused with ErrZeroLength and nothing is changed.
func (m *Model) ReplaceNode(dup, rep NodeID) error {
	if dup == rep {
		return nil
	}
	if m.Node(dup) == nil {
		return errors.Wrapf(ErrUnknownNode, "replace %v", dup)
	}
	if m.Node(rep) == nil {
		return errors.Wrapf(ErrUnknownNode, "replace %v with %v", dup, rep)
	}

	users := m.refs[dup]
	for _, id := range users {
		if d := m.members[id-1].Line(); d != nil {
			if (d.Start == dup && d.End == rep) || (d.Start == rep && d.End == dup) {
				return errors.Wrapf(ErrZeroLength, "merging %v into %v collapses %v", dup, rep, m.members[id-1])
			}
		}
	}

	for _, id := range users {
		switch d := m.members[id-1].Data.(type) {
		case *LineData:
			d.replace(dup, rep)
		case *SurfaceData:
			d.replace(dup, rep)
		}
		m.addRef(rep, id)
	}
	delete(m.refs, dup)
	m.nodes[dup-1] = nil
	return nil
}
