package classify

import (
	"math"
	"sort"

	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/profile"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// AspectRatioLimit separates rectangular from circular sections: extents
// whose ratio exceeds it are always rectangular, and a section whose
// vertices leave the circle of AspectRatioLimit times its inscribed radius
// is rectangular too.
const AspectRatioLimit = 1.1

// section holds the vertices of a projected section, recentred on the
// middle of its bounding box.
type section struct {
	xs, ys       []float64
	xMin, xMax   float64
	yMin, yMax   float64
	dx, dy       float64 // a third of each extent
	tol          float64 // values within tol of a threshold count as on it
	distinctBase int     // decimal places used to tell coordinates apart
}

func newSection(faces [][3]geom.Vec, z, x geom.Vec, scale int) (*section, error) {
	flat := to2D(faces, z, x, geom.Vec{})
	s := &section{tol: math.Pow(10, -float64(scale+2)), distinctBase: scale + 2}
	for _, f := range flat {
		for _, p := range f {
			s.xs = append(s.xs, p.X)
			s.ys = append(s.ys, p.Y)
		}
	}
	if len(s.xs) == 0 {
		return nil, errors.Wrap(geom.ErrDegenerate, "measure: no faces")
	}
	cx := (lo.Min(s.xs) + lo.Max(s.xs)) / 2
	cy := (lo.Min(s.ys) + lo.Max(s.ys)) / 2
	for i := range s.xs {
		s.xs[i] -= cx
		s.ys[i] -= cy
	}
	s.xMin, s.xMax = lo.Min(s.xs), lo.Max(s.xs)
	s.yMin, s.yMax = lo.Min(s.ys), lo.Max(s.ys)
	s.dx, s.dy = (s.xMax-s.xMin)/3, (s.yMax-s.yMin)/3
	if s.dx < geom.Epsilon || s.dy < geom.Epsilon {
		return nil, errors.Wrapf(geom.ErrDegenerate, "measure: section extents %g x %g", 3*s.dx, 3*s.dy)
	}
	return s, nil
}

func (s *section) width() float64 { return s.xMax - s.xMin }
func (s *section) depth() float64 { return s.yMax - s.yMin }

// ys selects the y values of the vertices accepted by keep.
func (s *section) ysWhere(keep func(x, y float64) bool) []float64 {
	var out []float64
	for i := range s.xs {
		if keep(s.xs[i], s.ys[i]) {
			out = append(out, s.ys[i])
		}
	}
	return out
}

func spread(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	return lo.Max(vals) - lo.Min(vals), true
}

// flange is the y extent of the vertices in the top-right cell.
func (s *section) flange() (float64, bool) {
	return spread(s.ysWhere(func(x, y float64) bool {
		return x > s.xMax-s.dx && y > s.yMax-s.dy
	}))
}

func (s *section) distances() []float64 {
	return lo.Map(s.xs, func(x float64, i int) float64 { return math.Hypot(x, s.ys[i]) })
}

// rectangular decides between the rectangular and circular reading of a
// solid or hollow section.
func (s *section) rectangular() bool {
	w, d := s.width(), s.depth()
	if math.Max(w, d) > AspectRatioLimit*math.Min(w, d) {
		return true
	}
	r := math.Min(w, d) / 2
	return lo.SomeBy(s.distances(), func(dist float64) bool { return dist > AspectRatioLimit*r })
}

// Measure computes the profile of a classified section. zAxis and xAxis
// are the definitive local frame returned by Classify. Dimensions are
// rounded to scale decimal places. ok is false when the preset has no
// profile (Z) or the section lacks the features the preset implies.
func Measure(preset Preset, zAxis, xAxis geom.Vec, faces [][3]geom.Vec, scale int) (p profile.Profile, ok bool, err error) {
	z, err := geom.Unit(zAxis)
	if err != nil {
		return p, false, errors.Wrap(err, "measure: extrusion axis")
	}
	x, err := geom.Unit(xAxis.Sub(z.MulScalar(xAxis.Dot(z))))
	if err != nil {
		return p, false, errors.Wrap(err, "measure: x axis")
	}
	s, err := newSection(faces, z, x, scale)
	if err != nil {
		return p, false, err
	}

	var (
		kind profile.Kind
		dims []float64
	)
	switch preset {
	case PresetI:
		kind = profile.IShape
		dims, ok = s.measureI()
	case PresetC:
		kind = profile.UShape
		dims, ok = s.measureU()
	case PresetT:
		kind = profile.TShape
		dims, ok = s.measureT()
	case PresetL:
		kind = profile.LShape
		dims, ok = s.measureL()
	case PresetHollow:
		if s.rectangular() {
			kind = profile.RectangleHollow
			dims, ok = s.measureRectHollow()
		} else {
			kind = profile.CircleHollow
			dims, ok = s.measureCircleHollow()
		}
	case PresetSolid:
		if s.rectangular() {
			kind, dims, ok = profile.Rectangle, []float64{s.width(), s.depth()}, true
		} else {
			kind, dims, ok = profile.Circle, []float64{lo.Max(s.distances())}, true
		}
	default:
		return p, false, nil
	}
	if !ok {
		return p, false, nil
	}

	dims = lo.Map(dims, func(v float64, _ int) float64 { return geom.Round(v, scale) })
	p, err = profile.New(kind, dims...)
	if err != nil {
		return p, false, err
	}
	p.XAxis, p.ZAxis = x, z
	return p, true, nil
}

// measureI returns [width, depth, web, flange].
func (s *section) measureI() ([]float64, bool) {
	right := lo.Filter(s.xs, func(x float64, _ int) bool { return x > s.xMin+1.5*s.dx+s.tol })
	flange, ok := s.flange()
	if len(right) == 0 || !ok {
		return nil, false
	}
	return []float64{s.width(), s.depth(), 2 * lo.Min(right), flange}, true
}

// measureU returns [depth, flange width, web, flange]. The web is the gap
// between the two leftmost distinct x values.
func (s *section) measureU() ([]float64, bool) {
	neg := lo.Filter(s.xs, func(x float64, _ int) bool { return x < -s.tol })
	neg = lo.UniqBy(neg, func(x float64) float64 { return geom.Round(x, s.distinctBase) })
	sort.Float64s(neg)
	flange, ok := s.flange()
	if len(neg) < 2 || !ok {
		return nil, false
	}
	return []float64{s.depth(), s.width(), neg[1] - neg[0], flange}, true
}

// measureT returns [depth, flange width, web, flange].
func (s *section) measureT() ([]float64, bool) {
	pos := lo.Filter(s.xs, func(x float64, _ int) bool { return x > s.tol })
	flange, ok := s.flange()
	if len(pos) == 0 || !ok {
		return nil, false
	}
	return []float64{s.depth(), s.width(), 2 * lo.Min(pos), flange}, true
}

// measureL returns [depth, width, thickness]; the thickness is read off the
// horizontal leg in the right half.
func (s *section) measureL() ([]float64, bool) {
	t, ok := spread(s.ysWhere(func(x, _ float64) bool { return x > s.tol }))
	if !ok {
		return nil, false
	}
	return []float64{s.depth(), s.width(), t}, true
}

// measureRectHollow returns [x, y, wall]; the wall is read off the upper
// half.
func (s *section) measureRectHollow() ([]float64, bool) {
	wall, ok := spread(s.ysWhere(func(_, y float64) bool { return y > s.tol }))
	if !ok {
		return nil, false
	}
	return []float64{s.width(), s.depth(), wall}, true
}

// measureCircleHollow returns [radius, wall].
func (s *section) measureCircleHollow() ([]float64, bool) {
	d := s.distances()
	return []float64{lo.Max(d), lo.Max(d) - lo.Min(d)}, true
}
