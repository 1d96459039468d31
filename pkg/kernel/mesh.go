package kernel

import (
	"math"

	"github.com/chazu/truss/pkg/geom"
	"github.com/pkg/errors"
)

// Mesh is a triangle mesh over flat arrays: vertices has 3 floats per
// vertex (x,y,z), normals 3 floats per vertex (may be empty), and indices
// 3 uint32s per triangle.
type Mesh struct {
	Vertices []float64 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float64 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	Name     string    `json:"name"`     // which member this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i uint32) geom.Vec {
	return geom.Vec{X: m.Vertices[3*i], Y: m.Vertices[3*i+1], Z: m.Vertices[3*i+2]}
}

// AddVertex appends a vertex and returns its index.
func (m *Mesh) AddVertex(v geom.Vec) uint32 {
	m.Vertices = append(m.Vertices, v.X, v.Y, v.Z)
	return uint32(m.VertexCount() - 1)
}

// AddTriangle appends a triangle over existing vertex indices.
func (m *Mesh) AddTriangle(a, b, c uint32) {
	m.Indices = append(m.Indices, a, b, c)
}

// ---------------------------------------------------------------------------
// Per-face queries
// ---------------------------------------------------------------------------

// Face returns the three corners of triangle i.
func (m *Mesh) Face(i int) [3]geom.Vec {
	return [3]geom.Vec{
		m.Vertex(m.Indices[3*i]),
		m.Vertex(m.Indices[3*i+1]),
		m.Vertex(m.Indices[3*i+2]),
	}
}

// Faces returns the corners of the given triangles.
func (m *Mesh) Faces(indices []int) [][3]geom.Vec {
	out := make([][3]geom.Vec, len(indices))
	for i, f := range indices {
		out[i] = m.Face(f)
	}
	return out
}

// AllFaces returns the indices 0..TriangleCount-1.
func (m *Mesh) AllFaces() []int {
	out := make([]int, m.TriangleCount())
	for i := range out {
		out[i] = i
	}
	return out
}

// FaceCentroid returns the centroid of triangle i.
func (m *Mesh) FaceCentroid(i int) geom.Vec {
	f := m.Face(i)
	return f[0].Add(f[1]).Add(f[2]).DivScalar(3)
}

// FaceArea returns the area of triangle i.
func (m *Mesh) FaceArea(i int) float64 {
	return TriangleArea(m.Face(i))
}

// FaceNormal returns the unit normal of triangle i. A zero-area face has no
// normal and is reported as geom.ErrDegenerate.
func (m *Mesh) FaceNormal(i int) (geom.Vec, error) {
	f := m.Face(i)
	n, err := geom.Unit(f[1].Sub(f[0]).Cross(f[2].Sub(f[0])))
	if err != nil {
		return geom.Vec{}, errors.Wrapf(err, "normal of face %d", i)
	}
	return n, nil
}

// Coplanar reports whether every corner of face j lies in the plane of face
// i, comparing at 4 decimal places.
func (m *Mesh) Coplanar(i, j int) (bool, error) {
	n, err := m.FaceNormal(i)
	if err != nil {
		return false, err
	}
	origin := m.Face(i)[0]
	for _, v := range m.Face(j) {
		if geom.Round(v.Sub(origin).Dot(n), 4) != 0 {
			return false, nil
		}
	}
	return true, nil
}

// CoplanarGroup returns every face coplanar with seed, seed included.
func (m *Mesh) CoplanarGroup(seed int) ([]int, error) {
	var group []int
	for j := 0; j < m.TriangleCount(); j++ {
		ok, err := m.Coplanar(seed, j)
		if err != nil {
			return nil, err
		}
		if ok {
			group = append(group, j)
		}
	}
	return group, nil
}

// GroupCentroid returns the area-weighted centroid of the given faces.
func (m *Mesh) GroupCentroid(faces []int) geom.Vec {
	return AreaWeightedCentroid(m.Faces(faces))
}

// Centroid returns the area-weighted centroid of the whole mesh.
func (m *Mesh) Centroid() geom.Vec {
	return m.GroupCentroid(m.AllFaces())
}

// LargestFace returns the index of the face with the largest area.
func (m *Mesh) LargestFace() int {
	best, bestArea := 0, -1.0
	for i := 0; i < m.TriangleCount(); i++ {
		if a := m.FaceArea(i); a > bestArea {
			best, bestArea = i, a
		}
	}
	return best
}

// TriangleArea returns the area of a triangle.
func TriangleArea(f [3]geom.Vec) float64 {
	return f[1].Sub(f[0]).Cross(f[2].Sub(f[0])).Length() / 2
}

// AreaWeightedCentroid returns the centroid of a set of triangles weighted
// by their areas. With zero total area the plain vertex mean is returned.
func AreaWeightedCentroid(faces [][3]geom.Vec) geom.Vec {
	var sum geom.Vec
	total := 0.0
	for _, f := range faces {
		a := TriangleArea(f)
		c := f[0].Add(f[1]).Add(f[2]).DivScalar(3)
		sum = sum.Add(c.MulScalar(a))
		total += a
	}
	if total < geom.Epsilon {
		var pts []geom.Vec
		for _, f := range faces {
			pts = append(pts, f[:]...)
		}
		return geom.Centroid(pts)
	}
	return sum.DivScalar(total)
}

// MeshBuilder appends triangles to a mesh, sharing vertices that coincide.
type MeshBuilder struct {
	mesh  *Mesh
	index map[key]uint32
}

func NewMeshBuilder(name string) *MeshBuilder {
	return &MeshBuilder{mesh: &Mesh{Name: name}, index: make(map[key]uint32)}
}

// Vertex returns the index of v, adding it if no coincident vertex exists.
func (b *MeshBuilder) Vertex(v geom.Vec) uint32 {
	k := keyOf(v)
	if i, ok := b.index[k]; ok {
		return i
	}
	i := b.mesh.AddVertex(v)
	b.index[k] = i
	return i
}

// Triangle appends the triangle a, c, d. Triangles whose corners collapse
// onto fewer than three vertices are dropped.
func (b *MeshBuilder) Triangle(a, c, d geom.Vec) {
	i, j, k := b.Vertex(a), b.Vertex(c), b.Vertex(d)
	if i == j || j == k || i == k {
		return
	}
	b.mesh.AddTriangle(i, j, k)
}

func (b *MeshBuilder) Mesh() *Mesh { return b.mesh }

// ComputeNormals sets one normal per vertex: the normalised sum of the
// area-weighted normals of the faces using it.
func (m *Mesh) ComputeNormals() {
	acc := make([]geom.Vec, m.VertexCount())
	for i := 0; i < m.TriangleCount(); i++ {
		f := m.Face(i)
		n := f[1].Sub(f[0]).Cross(f[2].Sub(f[0]))
		for _, idx := range m.Indices[3*i : 3*i+3] {
			acc[idx] = acc[idx].Add(n)
		}
	}
	m.Normals = make([]float64, 0, 3*len(acc))
	for _, n := range acc {
		if l := n.Length(); l > 0 {
			n = n.DivScalar(l)
		}
		m.Normals = append(m.Normals, n.X, n.Y, n.Z)
	}
}

// key quantizes a vertex so that coincident corners of separate triangles
// compare equal.
type key [3]int64

func keyOf(v geom.Vec) key {
	const q = 1e9
	return key{int64(math.Round(v.X * q)), int64(math.Round(v.Y * q)), int64(math.Round(v.Z * q))}
}
