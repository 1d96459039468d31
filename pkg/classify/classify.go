// Package classify recognises the cross-section of a triangulated member
// end. Faces are projected into the member's local frame, rasterised onto
// a 3x3 occupancy grid and matched against a fixed set of preset grids in
// each of four quarter-turn orientations. A matched preset is then measured
// into a parameterised profile.
package classify

import (
	"github.com/chazu/truss/pkg/geom"
	"github.com/chazu/truss/pkg/kernel"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/pkg/errors"
)

// Preset is one of the recognised 3x3 occupancy patterns.
type Preset int

const (
	PresetNone Preset = iota
	PresetC
	PresetHollow
	PresetI
	PresetL
	PresetSolid
	PresetT
	PresetZ
)

func (p Preset) String() string {
	switch p {
	case PresetC:
		return "C"
	case PresetHollow:
		return "HOLLOW"
	case PresetI:
		return "I"
	case PresetL:
		return "L"
	case PresetSolid:
		return "SOLID"
	case PresetT:
		return "T"
	case PresetZ:
		return "Z"
	default:
		return "NONE"
	}
}

// Grid is a 3x3 occupancy matrix. Row 0 is the top of the section (largest
// local y), column 0 its left side (smallest local x).
type Grid [3][3]bool

// Rotate returns g turned a quarter turn clockwise.
func (g Grid) Rotate() Grid {
	var r Grid
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = g[2-j][i]
		}
	}
	return r
}

func (g Grid) String() string {
	b := make([]byte, 0, 11)
	for i, row := range g {
		if i > 0 {
			b = append(b, '/')
		}
		for _, on := range row {
			if on {
				b = append(b, '1')
			} else {
				b = append(b, '0')
			}
		}
	}
	return string(b)
}

func gridOf(rows ...string) Grid {
	var g Grid
	for i, row := range rows {
		for j, c := range row {
			g[i][j] = c == '1'
		}
	}
	return g
}

// presets are tried in this order.
var presets = []struct {
	preset Preset
	grid   Grid
}{
	{PresetC, gridOf("111", "100", "111")},
	{PresetHollow, gridOf("111", "101", "111")},
	{PresetI, gridOf("111", "010", "111")},
	{PresetL, gridOf("100", "100", "111")},
	{PresetSolid, gridOf("111", "111", "111")},
	{PresetT, gridOf("111", "010", "010")},
	{PresetZ, gridOf("110", "010", "011")},
}

// PresetGrid returns the occupancy pattern of p in its canonical
// orientation.
func PresetGrid(p Preset) (Grid, bool) {
	for _, e := range presets {
		if e.preset == p {
			return e.grid, true
		}
	}
	return Grid{}, false
}

func match(g Grid) Preset {
	for _, e := range presets {
		if e.grid == g {
			return e.preset
		}
	}
	return PresetNone
}

// Result is a successful classification.
type Result struct {
	Preset Preset
	XAxis  geom.Vec // local x axis in model space for which the grid matches
	Grid   Grid     // occupancy in the assumed frame, before rotation
}

// overlapEps scales the separating-axis tolerance to the cell size, so a
// triangle that only touches a cell boundary does not activate the cell.
const overlapEps = 1e-9

// Classify matches the section formed by faces against the presets. zAxis
// is the extrusion direction, yAxis the assumed local y axis; the assumed x
// axis is yAxis × zAxis. On a miss the grid is turned clockwise and the
// trial x axis advanced to zAxis × x, up to four orientations. ok is false
// when no orientation matches; err is set only for degenerate input.
func Classify(zAxis, yAxis geom.Vec, faces [][3]geom.Vec) (res Result, ok bool, err error) {
	z, x, err := frame(zAxis, yAxis)
	if err != nil {
		return Result{}, false, err
	}
	if len(faces) == 0 {
		return Result{}, false, errors.Wrap(geom.ErrDegenerate, "classify: no faces")
	}

	grid, err := occupancy(faces, z, x)
	if err != nil {
		return Result{}, false, err
	}

	trial, trialX := grid, x
	for attempt := 0; attempt < 4; attempt++ {
		if p := match(trial); p != PresetNone {
			return Result{Preset: p, XAxis: trialX, Grid: grid}, true, nil
		}
		trial = trial.Rotate()
		trialX = z.Cross(trialX)
	}
	return Result{Grid: grid}, false, nil
}

// frame returns the unit extrusion axis and the x axis implied by an
// assumed y axis. yAxis is made orthogonal to zAxis first.
func frame(zAxis, yAxis geom.Vec) (z, x geom.Vec, err error) {
	z, err = geom.Unit(zAxis)
	if err != nil {
		return z, x, errors.Wrap(err, "classify: extrusion axis")
	}
	y, err := geom.Unit(yAxis.Sub(z.MulScalar(yAxis.Dot(z))))
	if err != nil {
		return z, x, errors.Wrap(err, "classify: y axis parallel to extrusion axis")
	}
	return z, y.Cross(z), nil
}

// to2D projects faces into the section plane spanned by x and z × x.
func to2D(faces [][3]geom.Vec, z, x geom.Vec, origin geom.Vec) [][3]v2.Vec {
	y := z.Cross(x)
	out := make([][3]v2.Vec, len(faces))
	for i, f := range faces {
		for j, p := range f {
			d := p.Sub(origin)
			out[i][j] = v2.Vec{X: d.Dot(x), Y: d.Dot(y)}
		}
	}
	return out
}

func occupancy(faces [][3]geom.Vec, z, x geom.Vec) (Grid, error) {
	origin := kernel.AreaWeightedCentroid(faces)
	flat := to2D(faces, z, x, origin)

	var pts []v2.Vec
	for _, f := range flat {
		pts = append(pts, f[:]...)
	}
	bb := geom.Bounds2(pts)
	dx, dy := (bb.Max.X-bb.Min.X)/3, (bb.Max.Y-bb.Min.Y)/3
	if dx < geom.Epsilon || dy < geom.Epsilon {
		return Grid{}, errors.Wrapf(geom.ErrDegenerate, "classify: section extents %g x %g", 3*dx, 3*dy)
	}
	eps := overlapEps * (dx + dy)

	var g Grid
	for row := 0; row < 3; row++ {
		top := bb.Max.Y - float64(row)*dy
		for col := 0; col < 3; col++ {
			left := bb.Min.X + float64(col)*dx
			cell := geom.Rect2{
				Min: v2.Vec{X: left, Y: top - dy},
				Max: v2.Vec{X: left + dx, Y: top},
			}
			for _, f := range flat {
				if geom.TriangleOverlapsRect(f, cell, eps) {
					g[row][col] = true
					break
				}
			}
		}
	}
	return g, nil
}
