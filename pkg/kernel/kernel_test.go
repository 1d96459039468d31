package kernel

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/truss/pkg/geom"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float64
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float64{1, 2, 3}, 1},
		{"four vertices", []float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float64{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

// unitSquare returns a 1x1 square in the XY plane made of two triangles.
func unitSquare() *Mesh {
	return &Mesh{
		Vertices: []float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
	}
}

func TestFaceQueries(t *testing.T) {
	m := unitSquare()

	if got := m.FaceArea(0); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("FaceArea(0) = %f, want 0.5", got)
	}
	n, err := m.FaceNormal(1)
	if err != nil {
		t.Fatalf("FaceNormal(1) error = %v", err)
	}
	if math.Abs(n.Z-1) > 1e-12 {
		t.Errorf("FaceNormal(1) = %v, want +Z", n)
	}
	c := m.Centroid()
	if math.Abs(c.X-0.5) > 1e-12 || math.Abs(c.Y-0.5) > 1e-12 {
		t.Errorf("Centroid() = %v, want (0.5, 0.5, 0)", c)
	}
	ok, err := m.Coplanar(0, 1)
	if err != nil || !ok {
		t.Errorf("Coplanar(0, 1) = %v, %v; want true, nil", ok, err)
	}
}

func TestFaceNormalDegenerate(t *testing.T) {
	m := &Mesh{
		Vertices: []float64{0, 0, 0, 1, 0, 0, 2, 0, 0},
		Indices:  []uint32{0, 1, 2},
	}
	_, err := m.FaceNormal(0)
	if !errors.Is(err, geom.ErrDegenerate) {
		t.Errorf("FaceNormal on collinear face: err = %v, want ErrDegenerate", err)
	}
}

func TestBoundaryEdges(t *testing.T) {
	m := unitSquare()
	edges := m.BoundaryEdges(m.AllFaces())
	if len(edges) != 4 {
		t.Fatalf("got %d boundary edges, want 4 (diagonal must cancel)", len(edges))
	}
	for _, e := range edges {
		if math.Abs(e.Length()-1) > 1e-12 {
			t.Errorf("boundary edge %v has length %f, want 1", e, e.Length())
		}
	}

	loop, err := m.BoundaryLoop(m.AllFaces())
	if err != nil {
		t.Fatalf("BoundaryLoop() error = %v", err)
	}
	if len(loop) != 4 {
		t.Errorf("loop has %d points, want 4", len(loop))
	}
}

// grid builds an n x n plate of unit squares, two triangles each.
func grid(n int) *Mesh {
	b := NewMeshBuilder("grid")
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x, y := float64(i), float64(j)
			p00, p10 := geom.Vec{X: x, Y: y}, geom.Vec{X: x + 1, Y: y}
			p11, p01 := geom.Vec{X: x + 1, Y: y + 1}, geom.Vec{X: x, Y: y + 1}
			b.Triangle(p00, p10, p11)
			b.Triangle(p00, p11, p01)
		}
	}
	return b.Mesh()
}

func TestBoundaryEdgesLargePlate(t *testing.T) {
	const n = 60
	m := grid(n)
	if got := m.TriangleCount(); got != 2*n*n {
		t.Fatalf("grid has %d triangles, want %d", got, 2*n*n)
	}

	edges := m.BoundaryEdges(m.AllFaces())
	if len(edges) != 4*n {
		t.Fatalf("got %d boundary edges, want %d", len(edges), 4*n)
	}
	loop, err := m.BoundaryLoop(m.AllFaces())
	if err != nil {
		t.Fatalf("BoundaryLoop() error = %v", err)
	}
	if len(loop) != 4 {
		t.Errorf("loop has %d corners, want 4", len(loop))
	}
}

func TestBoundaryEdgesUnsharedVertices(t *testing.T) {
	// Same square but each triangle owns its corners.
	m := &Mesh{
		Vertices: []float64{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 0, 0, 1, 1, 0, 0, 1, 0},
		Indices:  []uint32{0, 1, 2, 3, 4, 5},
	}
	edges := m.BoundaryEdges(m.AllFaces())
	if len(edges) != 4 {
		t.Errorf("got %d boundary edges, want 4", len(edges))
	}
}

func TestBoundaryLoopDoesNotClose(t *testing.T) {
	// s leads into the cycle a -> b -> c -> a and is never reached again.
	s0, a := geom.Vec{}, geom.Vec{X: 1}
	b, c := geom.Vec{X: 2, Y: 1}, geom.Vec{X: 1, Y: 2}
	edges := []Edge{{A: s0, B: a}, {A: a, B: b}, {A: b, B: c}, {A: c, B: a}}

	_, err := chainLoop(edges)
	if !errors.Is(err, ErrBoundaryNotConverged) {
		t.Errorf("err = %v, want ErrBoundaryNotConverged", err)
	}
}

func TestLongestEdge(t *testing.T) {
	edges := []Edge{
		{A: geom.Vec{}, B: geom.Vec{X: 1}},
		{A: geom.Vec{}, B: geom.Vec{Y: 3}},
		{A: geom.Vec{}, B: geom.Vec{Z: 2}},
	}
	got := LongestEdge(edges)
	if got != edges[1] {
		t.Errorf("LongestEdge = %v, want %v", got, edges[1])
	}
	d, err := got.Direction()
	if err != nil || d != geom.YAxis {
		t.Errorf("Direction() = %v, %v; want +Y", d, err)
	}
}

func TestPrism(t *testing.T) {
	square := [][3]v2.Vec{
		{{X: -0.5, Y: -0.5}, {X: 0.5, Y: -0.5}, {X: 0.5, Y: 0.5}},
		{{X: -0.5, Y: -0.5}, {X: 0.5, Y: 0.5}, {X: -0.5, Y: 0.5}},
	}
	f := Frame{Origin: geom.Vec{}, X: geom.XAxis, Z: geom.ZAxis}
	m, err := Prism("post", square, f, 3)
	if err != nil {
		t.Fatalf("Prism() error = %v", err)
	}
	// 2 caps x 2 triangles + 4 sides x 2 triangles.
	if m.TriangleCount() != 12 {
		t.Errorf("TriangleCount() = %d, want 12", m.TriangleCount())
	}
	if m.VertexCount() != 8 {
		t.Errorf("VertexCount() = %d, want 8", m.VertexCount())
	}
	c := m.Centroid()
	if math.Abs(c.Z-1.5) > 1e-9 {
		t.Errorf("centroid z = %f, want 1.5", c.Z)
	}
	edges := m.BoundaryEdges(m.AllFaces())
	if len(edges) != 0 {
		t.Errorf("closed prism has %d boundary edges, want 0", len(edges))
	}
}

func TestMeshBuilderSharesVertices(t *testing.T) {
	b := NewMeshBuilder("quad")
	a, c := geom.Vec{}, geom.Vec{X: 1}
	d, e := geom.Vec{X: 1, Y: 1}, geom.Vec{Y: 1}
	b.Triangle(a, c, d)
	b.Triangle(a, d, e)
	b.Triangle(a, a, c) // collapsed, dropped

	m := b.Mesh()
	if m.Name != "quad" {
		t.Errorf("Name = %q", m.Name)
	}
	if m.VertexCount() != 4 || m.TriangleCount() != 2 {
		t.Fatalf("got %d vertices, %d triangles; want 4, 2", m.VertexCount(), m.TriangleCount())
	}

	m.ComputeNormals()
	if len(m.Normals) != len(m.Vertices) {
		t.Fatalf("normals length %d, want %d", len(m.Normals), len(m.Vertices))
	}
	for i := 0; i < m.VertexCount(); i++ {
		n := geom.Vec{X: m.Normals[3*i], Y: m.Normals[3*i+1], Z: m.Normals[3*i+2]}
		if geom.Distance(n, geom.ZAxis) > 1e-12 {
			t.Errorf("normal %d = %v, want +Z", i, n)
		}
	}
}

func TestPrismRejectsBadInput(t *testing.T) {
	f := Frame{X: geom.XAxis, Z: geom.ZAxis}
	if _, err := Prism("x", nil, f, 1); err == nil {
		t.Error("Prism with empty section should fail")
	}
	tri := [][3]v2.Vec{{{}, {X: 1}, {Y: 1}}}
	if _, err := Prism("x", tri, f, 0); err == nil {
		t.Error("Prism with zero length should fail")
	}
	if _, err := Prism("x", tri, Frame{Z: geom.ZAxis}, 1); !errors.Is(err, geom.ErrDegenerate) {
		t.Errorf("Prism with zero x axis: err = %v, want ErrDegenerate", err)
	}
}

// --- Compile-time interface check with a stub kernel ---

// stubSolid is a minimal Solid implementation for testing.
type stubSolid struct {
	minBB, maxBB [3]float64
}

func (s *stubSolid) BoundingBox() (min, max [3]float64) {
	return s.minBB, s.maxBB
}

// stubKernel is a minimal Kernel implementation that proves the interface
// is satisfiable. All methods return trivial results.
type stubKernel struct{}

func (k *stubKernel) Box(x, y, z float64) Solid {
	return &stubSolid{
		minBB: [3]float64{0, 0, 0},
		maxBB: [3]float64{x, y, z},
	}
}

func (k *stubKernel) Cylinder(height, radius float64, _ int) Solid {
	return &stubSolid{
		minBB: [3]float64{-radius, -radius, 0},
		maxBB: [3]float64{radius, radius, height},
	}
}

func (k *stubKernel) Union(a, _ Solid) Solid       { return a }
func (k *stubKernel) Difference(a, _ Solid) Solid   { return a }
func (k *stubKernel) Intersection(a, _ Solid) Solid { return a }

func (k *stubKernel) Translate(s Solid, _, _, _ float64) Solid { return s }
func (k *stubKernel) Rotate(s Solid, _, _, _ float64) Solid    { return s }

// Distance treats the solid as its bounding box.
func (k *stubKernel) Distance(s Solid, p [3]float64) float64 {
	min, max := s.BoundingBox()
	outside, inside := 0.0, math.Inf(-1)
	for i := 0; i < 3; i++ {
		d := math.Max(min[i]-p[i], p[i]-max[i])
		if d > 0 {
			outside += d * d
		}
		inside = math.Max(inside, d)
	}
	if outside > 0 {
		return math.Sqrt(outside)
	}
	return inside
}

func (k *stubKernel) ToMesh(_ Solid) (*Mesh, error) {
	return &Mesh{}, nil
}

// Compile-time checks that the stubs implement the interfaces.
var _ Solid = (*stubSolid)(nil)
var _ Kernel = (*stubKernel)(nil)

func TestStubKernelBoxBoundingBox(t *testing.T) {
	var k Kernel = &stubKernel{}
	s := k.Box(10, 20, 30)
	min, max := s.BoundingBox()
	if min != [3]float64{0, 0, 0} {
		t.Errorf("Box min = %v, want [0 0 0]", min)
	}
	if max != [3]float64{10, 20, 30} {
		t.Errorf("Box max = %v, want [10 20 30]", max)
	}
}

func TestStubKernelDistance(t *testing.T) {
	var k Kernel = &stubKernel{}
	s := k.Box(1, 1, 1)
	if d := k.Distance(s, [3]float64{2, 0.5, 0.5}); math.Abs(d-1) > 1e-12 {
		t.Errorf("Distance outside = %f, want 1", d)
	}
	if d := k.Distance(s, [3]float64{0.5, 0.5, 0.5}); d >= 0 {
		t.Errorf("Distance inside = %f, want negative", d)
	}
}
