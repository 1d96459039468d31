// Package profile defines the closed catalog of parameterized cross-section
// shapes carried by line members.
package profile

import (
	"fmt"

	"github.com/chazu/truss/pkg/geom"
	"github.com/samber/lo"
)

// Kind tags a profile shape.
type Kind int

const (
	KindUnknown Kind = iota
	Rectangle
	RectangleHollow
	Circle
	CircleHollow
	IShape
	LShape
	UShape
	TShape
)

func (k Kind) String() string {
	switch k {
	case Rectangle:
		return "rectangle"
	case RectangleHollow:
		return "rectangle-hollow"
	case Circle:
		return "circle"
	case CircleHollow:
		return "circle-hollow"
	case IShape:
		return "i-shape"
	case LShape:
		return "l-shape"
	case UShape:
		return "u-shape"
	case TShape:
		return "t-shape"
	default:
		return "unknown"
	}
}

// ParseKind maps a name produced by Kind.String back to its Kind.
func ParseKind(s string) (Kind, error) {
	for k := Rectangle; k <= TShape; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown profile kind %q", s)
}

// DimensionNames lists the meaning of each entry of a profile's dimension
// vector, in order.
func (k Kind) DimensionNames() []string {
	switch k {
	case Rectangle:
		return []string{"x", "y"}
	case RectangleHollow:
		return []string{"x", "y", "wall"}
	case Circle:
		return []string{"radius"}
	case CircleHollow:
		return []string{"radius", "wall"}
	case IShape:
		return []string{"width", "depth", "web", "flange"}
	case LShape:
		return []string{"depth", "width", "thickness"}
	case UShape, TShape:
		return []string{"depth", "flange-width", "web", "flange"}
	default:
		return nil
	}
}

// Profile is a classified cross-section. Profiles are values and are not
// modified after construction.
type Profile struct {
	Kind       Kind      `json:"kind"`
	Dimensions []float64 `json:"dimensions"`
	XAxis      geom.Vec  `json:"x_axis"` // local X in model space, zero if unknown
	ZAxis      geom.Vec  `json:"z_axis"` // extrusion direction, zero if unknown
}

// New builds a profile and checks the dimension count against the kind.
func New(kind Kind, dims ...float64) (Profile, error) {
	names := kind.DimensionNames()
	if names == nil {
		return Profile{}, fmt.Errorf("profile: kind %v has no dimensions", kind)
	}
	if len(dims) != len(names) {
		return Profile{}, fmt.Errorf("profile: %v needs %d dimensions %v, got %d", kind, len(names), names, len(dims))
	}
	return Profile{Kind: kind, Dimensions: append([]float64(nil), dims...)}, nil
}

// MustNew is New for literals in tests and examples.
func MustNew(kind Kind, dims ...float64) Profile {
	p, err := New(kind, dims...)
	if err != nil {
		panic(err)
	}
	return p
}

// Dim returns the named dimension, or 0 when the kind has no such entry.
func (p Profile) Dim(name string) float64 {
	for i, n := range p.Kind.DimensionNames() {
		if n == name && i < len(p.Dimensions) {
			return p.Dimensions[i]
		}
	}
	return 0
}

// LargestDimension is the governing size used for snapping tolerances:
// the largest entry of the dimension vector.
func (p Profile) LargestDimension() float64 {
	if len(p.Dimensions) == 0 {
		return 0
	}
	return lo.Max(p.Dimensions)
}

// Extents returns the overall width (along local x) and depth (along
// local y) of the section.
func (p Profile) Extents() (w, d float64) {
	switch p.Kind {
	case Rectangle, RectangleHollow:
		return p.Dim("x"), p.Dim("y")
	case Circle, CircleHollow:
		r := p.Dim("radius")
		return 2 * r, 2 * r
	case IShape:
		return p.Dim("width"), p.Dim("depth")
	case LShape:
		return p.Dim("width"), p.Dim("depth")
	case UShape, TShape:
		return p.Dim("flange-width"), p.Dim("depth")
	}
	return 0, 0
}

func (p Profile) String() string {
	return fmt.Sprintf("%v%v", p.Kind, p.Dimensions)
}
