package graph

import (
	"fmt"

	"github.com/chazu/truss/pkg/geom"
	"github.com/google/uuid"
)

// NodeID is a handle into the model's node arena. The zero value is never
// a valid handle.
type NodeID int

// IsZero reports whether the handle is unset.
func (id NodeID) IsZero() bool { return id == 0 }

func (id NodeID) String() string { return fmt.Sprintf("n%d", int(id)) }

// MemberID is a handle into the model's member arena. The zero value is
// never a valid handle.
type MemberID int

// IsZero reports whether the handle is unset.
func (id MemberID) IsZero() bool { return id == 0 }

func (id MemberID) String() string { return fmt.Sprintf("m%d", int(id)) }

// Node is a point shared by one or more members.
type Node struct {
	ID    NodeID   `json:"id"`
	Point geom.Vec `json:"point"`
}

// MemberKind enumerates the structural member classes.
type MemberKind int

const (
	KindColumn MemberKind = iota // vertical line member, static during frame resolution
	KindBeam                     // horizontal line member
	KindMember                   // generic line member (brace, truss chord)
	KindWall                     // vertical surface
	KindSlab                     // horizontal surface
)

func (k MemberKind) String() string {
	switch k {
	case KindColumn:
		return "column"
	case KindBeam:
		return "beam"
	case KindMember:
		return "member"
	case KindWall:
		return "wall"
	case KindSlab:
		return "slab"
	default:
		return "unknown"
	}
}

// ParseMemberKind maps a name produced by MemberKind.String back to its kind.
func ParseMemberKind(s string) (MemberKind, error) {
	for k := KindColumn; k <= KindSlab; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown member kind %q", s)
}

// IsLine reports whether members of this kind carry LineData.
func (k MemberKind) IsLine() bool {
	return k == KindColumn || k == KindBeam || k == KindMember
}

// IsSurface reports whether members of this kind carry SurfaceData.
func (k MemberKind) IsSurface() bool {
	return k == KindWall || k == KindSlab
}

// Member is a structural element of the model.
type Member struct {
	ID       MemberID   `json:"id"`
	Kind     MemberKind `json:"kind"`
	Name     string     `json:"name,omitempty"`
	GlobalID uuid.UUID  `json:"global_id"`
	Data     MemberData `json:"data"`
}

// Line returns the member's line payload, or nil for surface members.
func (m *Member) Line() *LineData {
	d, _ := m.Data.(*LineData)
	return d
}

// Surface returns the member's surface payload, or nil for line members.
func (m *Member) Surface() *SurfaceData {
	d, _ := m.Data.(*SurfaceData)
	return d
}

func (m *Member) String() string {
	if m.Name != "" {
		return fmt.Sprintf("%s %s %q", m.ID, m.Kind, m.Name)
	}
	return fmt.Sprintf("%s %s", m.ID, m.Kind)
}
