package engine

import (
	"fmt"

	"github.com/chazu/truss/pkg/classify"
	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/graph"
	"github.com/chazu/truss/pkg/kernel"
	"github.com/chazu/truss/pkg/profile"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/samber/lo"
)

// state is the scene under construction. The model is created on first
// use so a leading (precision ...) form can still choose its precision.
type state struct {
	precision float64
	model     *graph.Model
	meshes    []MeshMember
	surfaces  []MeshSurface
	warnings  []EvalWarning
}

func newState(precision float64) *state {
	return &state{precision: precision}
}

func (s *state) ensure() *graph.Model {
	if s.model == nil {
		s.model = graph.New(s.precision)
	}
	return s.model
}

func (s *state) setPrecision(p float64) error {
	if p <= 0 {
		return fmt.Errorf("precision must be positive, got %g", p)
	}
	if s.model != nil && (s.model.NodeCount() > 0 || s.model.MemberCount() > 0) {
		return fmt.Errorf("precision must be set before any member is added")
	}
	s.precision, s.model = p, nil
	return nil
}

func (s *state) warn(name, format string, args ...any) {
	s.warnings = append(s.warnings, EvalWarning{Name: name, Message: fmt.Sprintf(format, args...)})
}

func (s *state) scene() *Scene {
	return &Scene{Model: s.ensure(), Meshes: s.meshes, Surfaces: s.surfaces, Warnings: s.warnings}
}

// defaultYAxis orients a section whose y axis the scene left out: vertical
// members face +Y, everything else has its depth along +Z.
func defaultYAxis(dir geom.Vec) geom.Vec {
	if geom.VectorsParallel(dir, geom.ZAxis, geom.DefaultAngleTolerance) {
		return geom.YAxis
	}
	return geom.ZAxis
}

// addMeshMember extrudes p from a to b into a closed mesh, then recovers
// the member from the mesh alone. A mesh the classifier rejects is recorded
// and left out of the model.
func (s *state) addMeshMember(kind graph.MemberKind, name string, a, b, yAxis geom.Vec, p profile.Profile) (MeshMember, error) {
	m := s.ensure()
	rec := MeshMember{Name: name, Kind: kind, Input: p}

	z, err := geom.Unit(b.Sub(a))
	if err != nil {
		return rec, fmt.Errorf("mesh member %q: %w", name, err)
	}
	if yAxis == (geom.Vec{}) {
		yAxis = defaultYAxis(z)
	}
	section, err := profile.Section(p)
	if err != nil {
		return rec, fmt.Errorf("mesh member %q: %w", name, err)
	}
	mesh, err := kernel.Prism(name, section, kernel.Frame{Origin: a, X: yAxis.Cross(z), Z: z}, geom.Distance(a, b))
	if err != nil {
		return rec, fmt.Errorf("mesh member %q: %w", name, err)
	}

	shape, ok, err := classify.MemberFromMesh(mesh, kind, m.Scale())
	if err != nil {
		return rec, fmt.Errorf("mesh member %q: %w", name, err)
	}
	if ok {
		id, err := m.AddLineAt(kind, name, shape.Start, shape.End, shape.YAxis, shape.Profile)
		if err != nil {
			return rec, err
		}
		rec.OK, rec.Preset, rec.Profile, rec.Member = true, shape.Preset, shape.Profile, id
	} else {
		s.warn(name, "mesh member %q: section not recognised, member skipped", name)
	}
	s.meshes = append(s.meshes, rec)
	return rec, nil
}

// addMeshSurface extrudes the planar outline by t, centred on its plane,
// into a closed mesh and recovers the surface from the mesh alone. A mesh
// the classifier rejects is recorded and left out of the model.
func (s *state) addMeshSurface(kind graph.MemberKind, name string, outline []geom.Vec, t float64) (MeshSurface, error) {
	m := s.ensure()
	rec := MeshSurface{Name: name, Kind: kind, Input: t, Corners: len(outline)}

	pl, err := geom.PlaneFromLoop(outline)
	if err != nil {
		return rec, fmt.Errorf("mesh surface %q: %w", name, err)
	}
	section, err := profile.Polygon(lo.Map(outline, func(p geom.Vec, _ int) v2.Vec { return pl.To2D(p) }))
	if err != nil {
		return rec, fmt.Errorf("mesh surface %q: %w", name, err)
	}
	u, _ := pl.Basis()
	f := kernel.Frame{Origin: pl.Origin.Sub(pl.Normal.MulScalar(t / 2)), X: u, Z: pl.Normal}
	mesh, err := kernel.Prism(name, section, f, t)
	if err != nil {
		return rec, fmt.Errorf("mesh surface %q: %w", name, err)
	}

	shape, err := classify.SurfaceFromMesh(mesh, m.Scale())
	if err != nil {
		s.warn(name, "mesh surface %q: %v, surface skipped", name, err)
		s.surfaces = append(s.surfaces, rec)
		return rec, nil
	}
	id, err := m.AddSurface(kind, name, shape.Outline, shape.Thickness)
	if err != nil {
		return rec, err
	}
	rec.OK, rec.Thickness, rec.Outline, rec.Member = true, shape.Thickness, shape.Outline, id
	s.surfaces = append(s.surfaces, rec)
	return rec, nil
}
