package graph

import (
	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/profile"
)

// MemberData is the interface for kind-specific member payloads.
type MemberData interface {
	memberData() // marker method restricting implementations to this package

	// Nodes lists every node handle the payload references, in order.
	Nodes() []NodeID
	// GoverningSize is the cross-section size used for snapping
	// tolerances: the largest profile dimension of a line member, the
	// thickness of a surface.
	GoverningSize() float64
}

// Sectioned is implemented by payloads with a classifiable cross-section
// swept between two end nodes.
type Sectioned interface {
	MemberData
	Ends() (start, end NodeID)
	Section() profile.Profile
}

// Planar is implemented by payloads bounded by a planar loop of nodes.
type Planar interface {
	MemberData
	Outline() []NodeID
}

// ---------------------------------------------------------------------------
// Line members
// ---------------------------------------------------------------------------

// LineData is the payload of columns, beams and generic members. The third
// orientation point of the member is Start + YAxis.
type LineData struct {
	Start   NodeID          `json:"start"`
	End     NodeID          `json:"end"`
	YAxis   geom.Vec        `json:"y_axis"`
	Profile profile.Profile `json:"profile"`
}

func (*LineData) memberData() {}

func (d *LineData) Nodes() []NodeID { return []NodeID{d.Start, d.End} }

func (d *LineData) GoverningSize() float64 { return d.Profile.LargestDimension() }

func (d *LineData) Ends() (NodeID, NodeID) { return d.Start, d.End }

func (d *LineData) Section() profile.Profile { return d.Profile }

func (d *LineData) replace(dup, rep NodeID) {
	if d.Start == dup {
		d.Start = rep
	}
	if d.End == dup {
		d.End = rep
	}
}

// ---------------------------------------------------------------------------
// Surface members
// ---------------------------------------------------------------------------

// SurfaceData is the payload of walls and slabs: a closed, ordered loop of
// coplanar nodes on the mid-plane plus the thickness.
type SurfaceData struct {
	Boundary  []NodeID `json:"boundary"`
	Thickness float64  `json:"thickness"`
}

func (*SurfaceData) memberData() {}

func (d *SurfaceData) Nodes() []NodeID { return append([]NodeID(nil), d.Boundary...) }

func (d *SurfaceData) GoverningSize() float64 { return d.Thickness }

func (d *SurfaceData) Outline() []NodeID { return d.Boundary }

// replace redirects dup to rep and drops loop entries that would repeat
// their predecessor.
func (d *SurfaceData) replace(dup, rep NodeID) {
	out := d.Boundary[:0]
	for _, id := range d.Boundary {
		if id == dup {
			id = rep
		}
		if len(out) > 0 && out[len(out)-1] == id {
			continue
		}
		out = append(out, id)
	}
	if len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	d.Boundary = out
}

var (
	_ Sectioned = (*LineData)(nil)
	_ Planar    = (*SurfaceData)(nil)
)
