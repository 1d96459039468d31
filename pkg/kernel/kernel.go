// Package kernel defines the abstract solid kernel interface and the
// triangle mesh the shape classifier reads. Implementations (sdfx) provide
// solid modelling, meshing and distance queries behind the interface.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Queries
	Distance(s Solid, p [3]float64) float64 // signed, negative inside

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
