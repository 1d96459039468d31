package resolve

import (
	"context"
	"testing"

	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/graph"
	"github.com/chazu/truss/pkg/profile"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v(x, y, z float64) geom.Vec { return geom.Vec{X: x, Y: y, Z: z} }

func rect(s float64) profile.Profile { return profile.MustNew(profile.Rectangle, s, s) }

func mustLine(t *testing.T, m *graph.Model, kind graph.MemberKind, name string, a, b geom.Vec, p profile.Profile) graph.MemberID {
	t.Helper()
	y := geom.ZAxis
	if kind == graph.KindColumn {
		y = geom.XAxis
	}
	id, err := m.AddLineAt(kind, name, a, b, y, p)
	require.NoError(t, err)
	return id
}

func mustSurface(t *testing.T, m *graph.Model, kind graph.MemberKind, name string, thickness float64, pts ...geom.Vec) graph.MemberID {
	t.Helper()
	id, err := m.AddSurface(kind, name, pts, thickness)
	require.NoError(t, err)
	return id
}

func assertVecInDelta(t *testing.T, want, got geom.Vec, msg ...interface{}) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, msg...)
	assert.InDelta(t, want.Y, got.Y, 1e-9, msg...)
	assert.InDelta(t, want.Z, got.Z, 1e-9, msg...)
}

// twoColumnsAndBeam is a beam hung between two columns, 0.5 short of each.
func twoColumnsAndBeam(t *testing.T) (m *graph.Model, c1, c2, b graph.MemberID) {
	m = graph.New(0.001)
	c1 = mustLine(t, m, graph.KindColumn, "c1", v(0, 0, 0), v(0, 0, 4.5), rect(0.5))
	c2 = mustLine(t, m, graph.KindColumn, "c2", v(5, 0, 0), v(5, 0, 4.5), rect(0.5))
	b = mustLine(t, m, graph.KindBeam, "b1", v(0.5, 0, 2), v(4.5, 0, 2), rect(0.5))
	return m, c1, c2, b
}

// assertNoCoincidentNodes checks that no two live nodes share a position.
func assertNoCoincidentNodes(t *testing.T, m *graph.Model) {
	t.Helper()
	ids := m.NodeIDs()
	for i, a := range ids {
		for _, b := range ids[i+1:] {
			assert.Greater(t, geom.Distance(m.Point(a), m.Point(b)), m.Precision(), "%v and %v coincide", a, b)
		}
	}
}

func TestAllowable(t *testing.T) {
	m := graph.New(0)
	a := m.Member(mustLine(t, m, graph.KindColumn, "a", v(0, 0, 0), v(0, 0, 1), rect(0.5)))
	b := m.Member(mustLine(t, m, graph.KindBeam, "b", v(0, 0, 0), v(1, 0, 0), rect(0.3)))
	c := m.Member(mustLine(t, m, graph.KindMember, "c", v(0, 0, 0), v(1, 1, 0), rect(0.1)))

	assert.InDelta(t, 0.44, Allowable(a, b), 1e-12)
	assert.InDelta(t, MemberTolerance, Allowable(b, c), 1e-12)
	assert.InDelta(t, 1.0, surfaceAllowable(SurfaceTolerance, 0.3, 0.2), 1e-12)
	assert.InDelta(t, 2.2, surfaceAllowable(SurfaceTolerance, 2, 2), 1e-12)
}

func TestFrameTwoColumnsAndBeam(t *testing.T) {
	m, c1, c2, b := twoColumnsAndBeam(t)

	stats, err := (&FrameResolver{}).Resolve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, FrameStats{Cycles: 1, Divisions: 0, Snaps: 2, Joints: 2}, stats)

	beam := m.Member(b).Line()
	assert.Len(t, m.Lines(graph.KindBeam), 1, "beam stays in one piece")
	assertVecInDelta(t, v(0, 0, 2), m.Point(beam.Start))
	assertVecInDelta(t, v(5, 0, 2), m.Point(beam.End))

	// The columns were split at the joints and share the beam's nodes.
	assert.Equal(t, beam.Start, m.Member(c1).Line().End)
	assert.Equal(t, beam.End, m.Member(c2).Line().End)
	assert.Equal(t, beam.Start, m.MustLookup("c1.1").Line().Start)
	assert.Equal(t, beam.End, m.MustLookup("c2.1").Line().Start)
	assert.Len(t, m.MembersAt(beam.Start), 3)

	assert.True(t, graph.ValidateAll(m).OK())
	assertNoCoincidentNodes(t, m)
}

func TestFrameDividesAtCrossing(t *testing.T) {
	m := graph.New(0.001)
	c := mustLine(t, m, graph.KindColumn, "c", v(2.5, 0, 0), v(2.5, 0, 4), rect(0.3))
	b := mustLine(t, m, graph.KindBeam, "b", v(0, 0, 2), v(5, 0, 2), rect(0.3))

	stats, err := (&FrameResolver{}).Resolve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Cycles)
	assert.Equal(t, 1, stats.Divisions)
	assert.Equal(t, 0, stats.Snaps, "the cut already lies on the column")

	b1 := m.MustLookup("b.1")
	assert.InDelta(t, 2.5, m.Length(b), 1e-9)
	assert.InDelta(t, 2.5, m.Length(b1.ID), 1e-9)

	cut := m.Member(b).Line().End
	assertVecInDelta(t, v(2.5, 0, 2), m.Point(cut))
	assert.Equal(t, cut, b1.Line().Start)
	assert.Equal(t, cut, m.Member(c).Line().End)
	c1 := m.MustLookup("c.1")
	assert.Equal(t, []graph.MemberID{c, b, b1.ID, c1.ID}, m.MembersAt(cut))
}

func TestFrameSecondGeneration(t *testing.T) {
	build := func() *graph.Model {
		m, _, _, _ := twoColumnsAndBeam(t)
		// b2 frames into the middle of b1, not into a column.
		mustLine(t, m, graph.KindBeam, "b2", v(2.5, 0.4, 2), v(2.5, 5, 2), rect(0.5))
		return m
	}

	t.Run("converges", func(t *testing.T) {
		m := build()
		stats, err := (&FrameResolver{}).Resolve(context.Background(), m)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Cycles)

		b2 := m.MustLookup("b2").Line()
		assertVecInDelta(t, v(2.5, 0, 2), m.Point(b2.Start))
		assert.Equal(t, b2.Start, m.MustLookup("b1").Line().End)
		assert.Equal(t, b2.Start, m.MustLookup("b1.1").Line().Start)
	})

	t.Run("cycle cap", func(t *testing.T) {
		m := build()
		stats, err := (&FrameResolver{MaxCycles: 1}).Resolve(context.Background(), m)
		assert.ErrorIs(t, err, ErrNotConverged)
		assert.Equal(t, 1, stats.Cycles)
	})
}

func TestFrameCancelled(t *testing.T) {
	m, _, _, _ := twoColumnsAndBeam(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&FrameResolver{}).Resolve(ctx, m)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSnapAccounting(t *testing.T) {
	m, c1, c2, b := twoColumnsAndBeam(t)
	loose := mustLine(t, m, graph.KindBeam, "loose", v(20, 0, 2), v(25, 0, 2), rect(0.5))
	half := mustLine(t, m, graph.KindBeam, "half", v(0.3, 0, 3), v(0.3, 6, 3), rect(0.5))

	r := &FrameResolver{Log: zerolog.Nop()}
	static := []graph.MemberID{c1, c2}
	movable := []graph.MemberID{b, loose, half}
	res, err := r.snap(m, static, movable)
	require.NoError(t, err)

	assert.Equal(t, []graph.MemberID{loose}, res.unsnapped)
	assert.Equal(t, []graph.MemberID{half}, res.partial)
	assert.Equal(t, []graph.MemberID{b}, res.full)
	assert.Equal(t, len(static)+len(movable),
		len(res.unsnapped)+len(res.partial)+len(res.full)+len(static))
}

func TestFrameToSurfaces(t *testing.T) {
	m := graph.New(0.001)
	col := mustLine(t, m, graph.KindColumn, "c", v(2, 2, 0), v(2, 2, 2.8), rect(0.3))
	far := mustLine(t, m, graph.KindColumn, "far", v(12, 2, 0), v(12, 2, 2.8), rect(0.3))
	mustSurface(t, m, graph.KindSlab, "s", 0.2, v(0, 0, 3), v(10, 0, 3), v(10, 10, 3), v(0, 10, 3))

	s := &Snapper{}
	moved, err := s.FrameToSurfaces(m)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
	assertVecInDelta(t, v(2, 2, 3), m.Point(m.Member(col).Line().End))
	assertVecInDelta(t, v(12, 2, 2.8), m.Point(m.Member(far).Line().End), "outside the slab outline")

	moved, err = s.FrameToSurfaces(m)
	require.NoError(t, err)
	assert.Zero(t, moved, "second pass must not move anything")
}

func TestWallsToSlabsMovesConnectedWalls(t *testing.T) {
	m := graph.New(0.001)
	mustSurface(t, m, graph.KindSlab, "s", 0.2, v(0, 0, 3), v(10, 0, 3), v(10, 10, 3), v(0, 10, 3))
	a := mustSurface(t, m, graph.KindWall, "a", 0.2, v(0.2, 0, 0), v(0.2, 10, 0), v(0.2, 10, 3), v(0.2, 0, 3))
	b := mustSurface(t, m, graph.KindWall, "b", 0.2, v(0.2, 10, 0), v(5, 10, 0), v(5, 10, 3), v(0.2, 10, 3))
	_, err := (&Merger{}).Merge(m)
	require.NoError(t, err)
	require.Equal(t, []graph.MemberID{a, b}, wallGroup(m, a))

	moved, err := (&Snapper{}).WallsToSlabs(m)
	require.NoError(t, err)
	assert.Equal(t, 6, moved)

	pts, err := m.Outline(a)
	require.NoError(t, err)
	for _, p := range pts {
		assert.InDelta(t, 0, p.X, 1e-9)
	}
	pts, err = m.Outline(b)
	require.NoError(t, err)
	assert.InDelta(t, 4.8, pts[1].X, 1e-9, "connected wall moves rigidly")

	stats, err := (&Merger{}).Merge(m)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Merged, "wall tops meet the slab corners")
}

func TestWallsToWallsClosesSeam(t *testing.T) {
	m := graph.New(0.001)
	a := mustSurface(t, m, graph.KindWall, "a", 0.2, v(0, 0, 0), v(5, 0, 0), v(5, 0, 3), v(0, 0, 3))
	mustSurface(t, m, graph.KindWall, "b", 0.2, v(5.2, 0.2, 0), v(5.2, 5, 0), v(5.2, 5, 3), v(5.2, 0.2, 3))

	moved, err := (&Snapper{}).WallsToWalls(m)
	require.NoError(t, err)
	assert.Equal(t, 4, moved)

	pts, err := m.Outline(a)
	require.NoError(t, err)
	assertVecInDelta(t, v(5.2, 0, 0), pts[1])
	assertVecInDelta(t, v(5.2, 0, 3), pts[2])

	stats, err := (&Merger{}).Merge(m)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Merged)
	assertNoCoincidentNodes(t, m)
}

func TestMergeStraddlesCellBoundary(t *testing.T) {
	for _, kind := range []IndexKind{IndexGrid, IndexRTree} {
		t.Run(string(kind), func(t *testing.T) {
			m := graph.New(0.001)
			m.AddNode(v(0, 0, 0))
			m.AddNode(v(10, 10, 10))
			// Extents padded to [-1, 11] give 1.5-wide cells with a
			// boundary at x = 5.
			a := m.AddNode(v(4.9996, 5, 5))
			b := m.AddNode(v(5.0004, 5, 5))

			if kind == IndexGrid {
				g := newGridIndex([]geom.Vec{v(0, 0, 0), v(10, 10, 10)})
				require.NotEqual(t, g.key(m.Point(a)), g.key(m.Point(b)))
			}

			stats, err := (&Merger{Index: kind}).Merge(m)
			require.NoError(t, err)
			assert.Equal(t, MergeStats{Nodes: 4, Representatives: 3, Merged: 1}, stats)
			assert.NotNil(t, m.Node(a))
			assert.Nil(t, m.Node(b))
			assertNoCoincidentNodes(t, m)
		})
	}
}

func TestMergeRedirectsMembers(t *testing.T) {
	m := graph.New(0.001)
	b1 := mustLine(t, m, graph.KindBeam, "b1", v(0, 0, 3), v(4, 0, 3), rect(0.3))
	b2 := mustLine(t, m, graph.KindBeam, "b2", v(4, 0, 3), v(8, 0, 3), rect(0.3))
	b3 := mustLine(t, m, graph.KindBeam, "b3", v(4.0004, 0, 3), v(4, 6, 3), rect(0.3))

	stats, err := (&Merger{}).Merge(m)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Merged)

	joint := m.Member(b1).Line().End
	assert.Equal(t, joint, m.Member(b2).Line().Start)
	assert.Equal(t, joint, m.Member(b3).Line().Start)
	assert.Equal(t, []graph.MemberID{b1, b2, b3}, m.MembersAt(joint))
	assert.Empty(t, graph.Validate(m))
}

func TestMergeKeepsShortMembers(t *testing.T) {
	m := graph.New(0.001)
	mustLine(t, m, graph.KindMember, "tiny", v(0, 0, 0), v(0.0008, 0, 0), rect(0.1))

	stats, err := (&Merger{}).Merge(m)
	require.NoError(t, err)
	assert.Equal(t, MergeStats{Nodes: 2, Representatives: 2, Skipped: 1}, stats)
}

func TestParseIndexKind(t *testing.T) {
	for in, want := range map[string]IndexKind{"": IndexGrid, "grid": IndexGrid, "rtree": IndexRTree} {
		got, err := ParseIndexKind(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseIndexKind("kdtree")
	assert.Error(t, err)
}

func TestPipelineRun(t *testing.T) {
	m, c1, _, b := twoColumnsAndBeam(t)
	mustSurface(t, m, graph.KindSlab, "roof", 0.2, v(-1, -1, 4.6), v(6, -1, 4.6), v(6, 1, 4.6), v(-1, 1, 4.6))

	rep, err := New(DefaultOptions(), zerolog.Nop()).Run(context.Background(), m)
	require.NoError(t, err)

	require.Len(t, rep.Passes, 4)
	names := []string{rep.Passes[0].Name, rep.Passes[1].Name, rep.Passes[2].Name, rep.Passes[3].Name}
	assert.Equal(t, []string{"frame", "surfaces-to-frame", "walls-to-slabs", "walls-to-walls"}, names)
	assert.Equal(t, 1, rep.Frame.Cycles)
	assert.Equal(t, 2, rep.Passes[1].Moved, "column tops reach the roof")

	assert.Equal(t, m.Member(c1).Line().End, m.Member(b).Line().Start)
	assertVecInDelta(t, v(0, 0, 4.6), m.Point(m.MustLookup("c1.1").Line().End))
	assert.True(t, graph.ValidateAll(m).OK())
	assertNoCoincidentNodes(t, m)
}

func TestPipelineSkipsDisabledPasses(t *testing.T) {
	m, _, _, _ := twoColumnsAndBeam(t)
	opts := DefaultOptions()
	opts.FrameMembers = false
	opts.WallsToWalls = false

	rep, err := New(opts, zerolog.Nop()).Run(context.Background(), m)
	require.NoError(t, err)
	require.Len(t, rep.Passes, 2)
	assert.Equal(t, "surfaces-to-frame", rep.Passes[0].Name)
	assert.Zero(t, rep.Frame.Cycles)
}

func TestPipelinePropagatesFatalErrors(t *testing.T) {
	m, _, _, _ := twoColumnsAndBeam(t)
	mustLine(t, m, graph.KindBeam, "b2", v(2.5, 0.4, 2), v(2.5, 5, 2), rect(0.5))
	opts := DefaultOptions()
	opts.MaxCycles = 1

	_, err := New(opts, zerolog.Nop()).Run(context.Background(), m)
	assert.ErrorIs(t, err, ErrNotConverged)
}
