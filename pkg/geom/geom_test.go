package geom

import (
	"math"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericScale(t *testing.T) {
	tests := []struct {
		precision float64
		want      int
	}{
		{0.001, 3},
		{0.0001, 4},
		{0.01, 2},
		{1e-6, 6},
		{1, 0},
	}
	for _, tt := range tests {
		if got := NumericScale(tt.precision); got != tt.want {
			t.Errorf("NumericScale(%g) = %d, want %d", tt.precision, got, tt.want)
		}
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.123, Round(0.12349, 3))
	assert.Equal(t, 0.124, Round(0.1235001, 3))
	assert.Equal(t, -2.0, Round(-1.99999, 3))
}

func TestClosestApproachSkew(t *testing.T) {
	// Column along Z at the origin, beam along X at z=2 starting at x=0.5.
	ri, rj, ok := ClosestApproach(
		Vec{}, Vec{Z: 4.5},
		Vec{X: 0.5, Z: 2}, Vec{X: 4.5, Z: 2},
		true, true,
	)
	require.True(t, ok)
	assert.InDelta(t, 0.0, ri.X, 1e-12)
	assert.InDelta(t, 2.0, ri.Z, 1e-12)
	assert.InDelta(t, 0.5, rj.X, 1e-12)
	assert.InDelta(t, 2.0, rj.Z, 1e-12)
}

func TestClosestApproachUnclamped(t *testing.T) {
	ri, rj, ok := ClosestApproach(
		Vec{}, Vec{Z: 1},
		Vec{X: 1, Y: 1, Z: 3}, Vec{X: 2, Y: 1, Z: 3},
		false, false,
	)
	require.True(t, ok)
	assert.InDelta(t, 3.0, ri.Z, 1e-12)
	assert.InDelta(t, 0.0, rj.X, 1e-12)
	assert.InDelta(t, 1.0, Distance(ri, rj), 1e-12)
}

func TestClosestApproachParallel(t *testing.T) {
	_, _, ok := ClosestApproach(Vec{}, Vec{X: 1}, Vec{Y: 1}, Vec{X: 3, Y: 1}, true, true)
	assert.False(t, ok, "parallel lines must report no interaction")

	_, _, ok = ClosestApproach(Vec{}, Vec{X: 1}, Vec{Y: 1}, Vec{X: -3, Y: 1}, true, true)
	assert.False(t, ok, "anti-parallel lines must report no interaction")
}

func TestProjectOnSegment(t *testing.T) {
	p, tt := ProjectOnSegment(Vec{X: 0.5, Z: 5}, Vec{}, Vec{Z: 4.5}, true)
	assert.InDelta(t, 4.5, tt, 1e-12)
	assert.Equal(t, Vec{Z: 4.5}, p)

	p, _ = ProjectOnSegment(Vec{X: 0.5, Z: 5}, Vec{}, Vec{Z: 4.5}, false)
	assert.InDelta(t, 5.0, p.Z, 1e-12)
}

func TestPlaneFromPointsDegenerate(t *testing.T) {
	_, err := PlaneFromPoints(Vec{}, Vec{X: 1}, Vec{X: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerate))
}

func TestPlaneFromLoopCollinearStart(t *testing.T) {
	loop := []Vec{{}, {X: 1}, {X: 2}, {X: 2, Y: 2}, {Y: 2}}
	pl, err := PlaneFromLoop(loop)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, math.Abs(pl.Normal.Z), 1e-12)
}

func TestPlaneProject(t *testing.T) {
	pl := Plane{Origin: Vec{Z: 3}, Normal: ZAxis}
	proj, d := pl.Project(Vec{X: 1, Y: 2, Z: 3.4})
	assert.InDelta(t, 0.4, d, 1e-12)
	assert.InDelta(t, 3.0, proj.Z, 1e-12)
}

func TestPlaneIntersect(t *testing.T) {
	slab := Plane{Origin: Vec{Z: 3}, Normal: ZAxis}
	wall := Plane{Origin: Vec{X: 2}, Normal: XAxis}
	require.True(t, slab.Perpendicular(wall, DefaultAngleTolerance))

	l, ok := slab.Intersect(wall)
	require.True(t, ok)
	assert.InDelta(t, 2.0, l.Origin.X, 1e-12)
	assert.InDelta(t, 3.0, l.Origin.Z, 1e-12)
	assert.InDelta(t, 1.0, math.Abs(l.Dir.Y), 1e-12)

	_, ok = slab.Intersect(Plane{Origin: Vec{Z: 5}, Normal: ZAxis})
	assert.False(t, ok)
}

func TestInTriangle(t *testing.T) {
	a, b, c := Vec{}, Vec{X: 1}, Vec{Y: 1}
	tests := []struct {
		name string
		p    Vec
		want bool
	}{
		{"inside", Vec{X: 0.2, Y: 0.2}, true},
		{"vertex", Vec{X: 1}, true},
		{"edge", Vec{X: 0.5, Y: 0.5}, true},
		{"outside", Vec{X: 0.8, Y: 0.8}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := InTriangle(tt.p, a, b, c)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := InTriangle(Vec{}, a, b, Vec{X: 2})
	assert.True(t, errors.Is(err, ErrDegenerate))
}

func TestInPolygonConcave(t *testing.T) {
	// L-shaped slab outline.
	loop := []Vec{{}, {X: 4}, {X: 4, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 4}, {Y: 4}}
	in, err := InPolygon(Vec{X: 0.5, Y: 3}, loop, 1e-9)
	require.NoError(t, err)
	assert.True(t, in)

	in, err = InPolygon(Vec{X: 3, Y: 3}, loop, 1e-9)
	require.NoError(t, err)
	assert.False(t, in)

	in, err = InPolygon(Vec{X: 4, Y: 0.5}, loop, 1e-9)
	require.NoError(t, err)
	assert.True(t, in, "points on the boundary count as inside")
}

func TestAABBOverlaps(t *testing.T) {
	a := BoundsOf([]Vec{{}, {X: 1, Y: 1, Z: 1}})
	b := BoundsOf([]Vec{{X: 1.2}, {X: 2, Y: 1, Z: 1}})
	assert.False(t, a.Overlaps(b))
	assert.True(t, a.Expand(0.1).Overlaps(b.Expand(0.1)))
	assert.True(t, a.Overlaps(BoundsOf([]Vec{{X: 1}, {X: 2}})), "touching boxes overlap")
}

func TestTriangleOverlapsRect(t *testing.T) {
	r := Rect2{Min: v2.Vec{X: 0, Y: 0}, Max: v2.Vec{X: 1, Y: 1}}
	tests := []struct {
		name string
		tri  [3]v2.Vec
		want bool
	}{
		{"contained", [3]v2.Vec{{X: 0.1, Y: 0.1}, {X: 0.9, Y: 0.1}, {X: 0.5, Y: 0.9}}, true},
		{"covers", [3]v2.Vec{{X: -5, Y: -5}, {X: 5, Y: -5}, {X: 0, Y: 5}}, true},
		{"edge-crossing", [3]v2.Vec{{X: -1, Y: 0.5}, {X: 0.5, Y: 0.5}, {X: -1, Y: 2}}, true},
		{"touching-edge", [3]v2.Vec{{X: 1, Y: 0}, {X: 2, Y: 0}, {X: 1, Y: 1}}, false},
		{"disjoint", [3]v2.Vec{{X: 2, Y: 2}, {X: 3, Y: 2}, {X: 2, Y: 3}}, false},
		{"diagonal-miss", [3]v2.Vec{{X: 1.5, Y: 0}, {X: 3, Y: 0}, {X: 3, Y: 1.5}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TriangleOverlapsRect(tt.tri, r, 1e-9); got != tt.want {
				t.Errorf("TriangleOverlapsRect = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRotateAbout(t *testing.T) {
	got := RotateAbout(XAxis, ZAxis, math.Pi/2)
	assert.InDelta(t, 0.0, got.X, 1e-12)
	assert.InDelta(t, 1.0, got.Y, 1e-12)
}
