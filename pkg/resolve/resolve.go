// Package resolve turns independently placed structural members into a
// connected analysis model. The passes run in a fixed order, each
// followed by a node merge:
//
//	frame members -> surfaces to frame -> walls to slabs -> walls to walls
//
// Every pass mutates the model in place and visits members and nodes in
// ascending handle order, so the result does not depend on map iteration
// or insertion history.
package resolve

import (
	"math"

	"github.com/chazu/truss/pkg/graph"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var (
	// ErrAccounting reports that a pass lost or duplicated members or
	// nodes. It indicates a logic error; the model must not be used.
	ErrAccounting = errors.New("connectivity accounting mismatch")

	// ErrNotConverged is returned when the frame resolver reaches its
	// cycle limit with members still left to snap.
	ErrNotConverged = errors.New("frame resolution did not converge")
)

const (
	// ToleranceFactor scales the mean governing size of two members into
	// a snapping distance.
	ToleranceFactor = 1.1

	// MemberTolerance is the smallest snapping distance between two line
	// members when either is a generic member (braces and struts usually
	// end at a gusset some way off the joint).
	MemberTolerance = 0.5

	// SurfaceTolerance is the default smallest snapping distance for the
	// surface passes.
	SurfaceTolerance = 1.0
)

// Allowable returns the snapping distance between two line members.
func Allowable(a, b *graph.Member) float64 {
	d := ToleranceFactor * (a.Data.GoverningSize() + b.Data.GoverningSize()) / 2
	if a.Kind == graph.KindMember || b.Kind == graph.KindMember {
		d = math.Max(MemberTolerance, d)
	}
	return d
}

// surfaceAllowable returns the snapping distance of the surface passes:
// ToleranceFactor times the mean of sizes, but never less than floor.
func surfaceAllowable(floor float64, sizes ...float64) float64 {
	if len(sizes) == 0 {
		return floor
	}
	return math.Max(floor, ToleranceFactor*lo.Sum(sizes)/float64(len(sizes)))
}
