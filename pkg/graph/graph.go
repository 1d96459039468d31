package graph

import (
	"fmt"
	"sort"

	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/profile"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// DefaultPrecision is the default coordinate precision in model units.
const DefaultPrecision = 0.001

var (
	ErrUnknownNode       = errors.New("unknown node")
	ErrUnknownMember     = errors.New("unknown member")
	ErrZeroLength        = errors.New("line member has zero length")
	ErrWrongKind         = errors.New("member kind does not match payload")
	ErrDuplicateName     = errors.New("duplicate member name")
	ErrInvalidProportion = errors.New("division proportion must lie strictly between 0 and 1")
	ErrNotOnMember       = errors.New("node does not lie on the member interior")
)

// Model is the structural model. It owns the node and member arenas, a
// name index, and node-to-member back-references. A Model is not safe for
// concurrent use.
type Model struct {
	precision float64
	scale     int

	nodes     []*Node   // index = NodeID-1, nil once removed
	members   []*Member // index = MemberID-1
	nameIndex map[string]MemberID
	refs      map[NodeID][]MemberID // sorted, unique
}

// New creates an empty model. precision is the smallest coordinate
// difference that is considered significant; zero selects DefaultPrecision.
func New(precision float64) *Model {
	if precision <= 0 {
		precision = DefaultPrecision
	}
	return &Model{
		precision: precision,
		scale:     geom.NumericScale(precision),
		nameIndex: make(map[string]MemberID),
		refs:      make(map[NodeID][]MemberID),
	}
}

// Precision returns the coordinate precision.
func (m *Model) Precision() float64 { return m.precision }

// Scale returns the number of decimal places coordinates are compared at.
func (m *Model) Scale() int { return m.scale }

// ---------------------------------------------------------------------------
// Nodes
// ---------------------------------------------------------------------------

// AddNode adds a node at p and returns its handle.
func (m *Model) AddNode(p geom.Vec) NodeID {
	id := NodeID(len(m.nodes) + 1)
	m.nodes = append(m.nodes, &Node{ID: id, Point: p})
	return id
}

// Node returns the node with the given handle, or nil if it does not exist
// or has been removed.
func (m *Model) Node(id NodeID) *Node {
	if id <= 0 || int(id) > len(m.nodes) {
		return nil
	}
	return m.nodes[id-1]
}

// Point returns the position of a node, or the zero vector if the node
// does not exist.
func (m *Model) Point(id NodeID) geom.Vec {
	if n := m.Node(id); n != nil {
		return n.Point
	}
	return geom.Vec{}
}

// MoveNode sets the position of a node.
func (m *Model) MoveNode(id NodeID, p geom.Vec) error {
	n := m.Node(id)
	if n == nil {
		return errors.Wrapf(ErrUnknownNode, "move %v", id)
	}
	n.Point = p
	return nil
}

// NodeIDs returns the handles of all live nodes in ascending order.
func (m *Model) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(m.nodes))
	for _, n := range m.nodes {
		if n != nil {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// NodeCount returns the number of live nodes.
func (m *Model) NodeCount() int {
	return lo.CountBy(m.nodes, func(n *Node) bool { return n != nil })
}

// MembersAt returns the members referencing a node in ascending order.
func (m *Model) MembersAt(id NodeID) []MemberID {
	return append([]MemberID(nil), m.refs[id]...)
}

func (m *Model) addRef(n NodeID, mem MemberID) {
	ids := m.refs[n]
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= mem })
	if i < len(ids) && ids[i] == mem {
		return
	}
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = mem
	m.refs[n] = ids
}

func (m *Model) dropRef(n NodeID, mem MemberID) {
	ids := lo.Without(m.refs[n], mem)
	if len(ids) == 0 {
		delete(m.refs, n)
		return
	}
	m.refs[n] = ids
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

func (m *Model) addMember(kind MemberKind, name string, data MemberData) (MemberID, error) {
	if name != "" {
		if _, ok := m.nameIndex[name]; ok {
			return 0, errors.Wrapf(ErrDuplicateName, "%q", name)
		}
	}
	id := MemberID(len(m.members) + 1)
	m.members = append(m.members, &Member{
		ID:       id,
		Kind:     kind,
		Name:     name,
		GlobalID: uuid.New(),
		Data:     data,
	})
	if name != "" {
		m.nameIndex[name] = id
	}
	for _, n := range data.Nodes() {
		m.addRef(n, id)
	}
	return id, nil
}

// AddLine adds a line member between two existing nodes.
func (m *Model) AddLine(kind MemberKind, name string, start, end NodeID, yAxis geom.Vec, p profile.Profile) (MemberID, error) {
	if !kind.IsLine() {
		return 0, errors.Wrapf(ErrWrongKind, "%v %q is not a line kind", kind, name)
	}
	a, b := m.Node(start), m.Node(end)
	if a == nil || b == nil {
		return 0, errors.Wrapf(ErrUnknownNode, "line %q", name)
	}
	if start == end || m.Coincident(a.Point, b.Point) {
		return 0, errors.Wrapf(ErrZeroLength, "line %q", name)
	}
	return m.addMember(kind, name, &LineData{Start: start, End: end, YAxis: yAxis, Profile: p})
}

// AddLineAt creates nodes at a and b and adds a line member between them.
func (m *Model) AddLineAt(kind MemberKind, name string, a, b, yAxis geom.Vec, p profile.Profile) (MemberID, error) {
	if m.Coincident(a, b) {
		return 0, errors.Wrapf(ErrZeroLength, "line %q", name)
	}
	return m.AddLine(kind, name, m.AddNode(a), m.AddNode(b), yAxis, p)
}

// AddSurface creates one node per outline point and adds a surface member.
func (m *Model) AddSurface(kind MemberKind, name string, outline []geom.Vec, thickness float64) (MemberID, error) {
	if !kind.IsSurface() {
		return 0, errors.Wrapf(ErrWrongKind, "%v %q is not a surface kind", kind, name)
	}
	if len(outline) < 3 {
		return 0, errors.Errorf("surface %q needs at least 3 points, got %d", name, len(outline))
	}
	if _, err := geom.PlaneFromLoop(outline); err != nil {
		return 0, errors.Wrapf(err, "surface %q", name)
	}
	ids := lo.Map(outline, func(p geom.Vec, _ int) NodeID { return m.AddNode(p) })
	return m.addMember(kind, name, &SurfaceData{Boundary: ids, Thickness: thickness})
}

// Member returns the member with the given handle, or nil.
func (m *Model) Member(id MemberID) *Member {
	if id <= 0 || int(id) > len(m.members) {
		return nil
	}
	return m.members[id-1]
}

// Lookup returns the member with the given name, or nil.
func (m *Model) Lookup(name string) *Member {
	id, ok := m.nameIndex[name]
	if !ok {
		return nil
	}
	return m.Member(id)
}

// MustLookup returns the member with the given name, or panics.
func (m *Model) MustLookup(name string) *Member {
	mem := m.Lookup(name)
	if mem == nil {
		panic(fmt.Sprintf("graph: no member named %q", name))
	}
	return mem
}

// MemberCount returns the number of members.
func (m *Model) MemberCount() int { return len(m.members) }

func (m *Model) membersOf(pred func(*Member) bool, kinds []MemberKind) []MemberID {
	var ids []MemberID
	for _, mem := range m.members {
		if !pred(mem) {
			continue
		}
		if len(kinds) > 0 && !lo.Contains(kinds, mem.Kind) {
			continue
		}
		ids = append(ids, mem.ID)
	}
	return ids
}

// Lines returns the line members of the given kinds (all line kinds when
// none are given) in ascending handle order.
func (m *Model) Lines(kinds ...MemberKind) []MemberID {
	return m.membersOf(func(mem *Member) bool { return mem.Line() != nil }, kinds)
}

// Surfaces returns the surface members of the given kinds (all surface
// kinds when none are given) in ascending handle order.
func (m *Model) Surfaces(kinds ...MemberKind) []MemberID {
	return m.membersOf(func(mem *Member) bool { return mem.Surface() != nil }, kinds)
}

// Segment returns the end points of a line member.
func (m *Model) Segment(id MemberID) (a, b geom.Vec, err error) {
	mem := m.Member(id)
	if mem == nil {
		return a, b, errors.Wrapf(ErrUnknownMember, "%v", id)
	}
	d := mem.Line()
	if d == nil {
		return a, b, errors.Wrapf(ErrWrongKind, "%v is not a line member", mem)
	}
	return m.Point(d.Start), m.Point(d.End), nil
}

// Length returns the length of a line member, or 0 for anything else.
func (m *Model) Length(id MemberID) float64 {
	a, b, err := m.Segment(id)
	if err != nil {
		return 0
	}
	return geom.Distance(a, b)
}

// Outline returns the boundary points of a surface member.
func (m *Model) Outline(id MemberID) ([]geom.Vec, error) {
	mem := m.Member(id)
	if mem == nil {
		return nil, errors.Wrapf(ErrUnknownMember, "%v", id)
	}
	d := mem.Surface()
	if d == nil {
		return nil, errors.Wrapf(ErrWrongKind, "%v is not a surface member", mem)
	}
	return lo.Map(d.Boundary, func(n NodeID, _ int) geom.Vec { return m.Point(n) }), nil
}

// Plane returns the mid-plane of a surface member.
func (m *Model) Plane(id MemberID) (geom.Plane, error) {
	pts, err := m.Outline(id)
	if err != nil {
		return geom.Plane{}, err
	}
	pl, err := geom.PlaneFromLoop(pts)
	if err != nil {
		return geom.Plane{}, errors.Wrapf(err, "plane of %v", m.Member(id))
	}
	return pl, nil
}

// Coincident reports whether two points are equal at the model precision.
func (m *Model) Coincident(a, b geom.Vec) bool {
	return geom.RoundVec(a, m.scale) == geom.RoundVec(b, m.scale)
}
