package graph

import (
	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/profile"
)

// Snapshot is a flat, serializable view of a model.
type Snapshot struct {
	Precision float64          `json:"precision"`
	Nodes     []NodeSnapshot   `json:"nodes"`
	Members   []MemberSnapshot `json:"members"`
}

// NodeSnapshot is one node of a Snapshot.
type NodeSnapshot struct {
	ID    NodeID   `json:"id"`
	Point geom.Vec `json:"point"`
}

// MemberSnapshot is one member of a Snapshot.
type MemberSnapshot struct {
	ID        MemberID         `json:"id"`
	Kind      string           `json:"kind"`
	Name      string           `json:"name,omitempty"`
	GlobalID  string           `json:"global_id"`
	Nodes     []NodeID         `json:"nodes"`
	Profile   *profile.Profile `json:"profile,omitempty"`
	YAxis     *geom.Vec        `json:"y_axis,omitempty"`
	Thickness float64          `json:"thickness,omitempty"`
}

// Snapshot captures the current state of the model in handle order.
func (m *Model) Snapshot() Snapshot {
	s := Snapshot{Precision: m.precision}
	for _, id := range m.NodeIDs() {
		s.Nodes = append(s.Nodes, NodeSnapshot{ID: id, Point: m.Point(id)})
	}
	for _, mem := range m.members {
		ms := MemberSnapshot{
			ID:       mem.ID,
			Kind:     mem.Kind.String(),
			Name:     mem.Name,
			GlobalID: mem.GlobalID.String(),
			Nodes:    mem.Data.Nodes(),
		}
		switch d := mem.Data.(type) {
		case *LineData:
			p, y := d.Profile, d.YAxis
			ms.Profile, ms.YAxis = &p, &y
		case *SurfaceData:
			ms.Thickness = d.Thickness
		}
		s.Members = append(s.Members, ms)
	}
	return s
}
