package geom

import "math"

// Line is an infinite line through Origin along the unit direction Dir.
type Line struct {
	Origin Vec
	Dir    Vec
}

// Project returns the orthogonal projection of p onto the line.
func (l Line) Project(p Vec) Vec {
	t := p.Sub(l.Origin).Dot(l.Dir)
	return l.Origin.Add(l.Dir.MulScalar(t))
}

// Distance returns the distance from p to the line.
func (l Line) Distance(p Vec) float64 {
	return Distance(p, l.Project(p))
}

// ClosestApproach finds the points of closest approach between the line
// through p1,p2 and the line through q1,q2. When clampP (clampQ) is set the
// parameter along that line is clamped to the segment, each independently.
// ok is false when the lines are parallel (or a segment has no length),
// which callers treat as "no interaction".
func ClosestApproach(p1, p2, q1, q2 Vec, clampP, clampQ bool) (ri, rj Vec, ok bool) {
	pv, qv := p2.Sub(p1), q2.Sub(q1)
	lp, lq := pv.Length(), qv.Length()
	if lp < Epsilon || lq < Epsilon {
		return Vec{}, Vec{}, false
	}
	ph, qh := pv.DivScalar(lp), qv.DivScalar(lq)

	pq := ph.Dot(qh)
	denom := pq*pq - 1
	if Round(denom, 4) == 0 {
		return Vec{}, Vec{}, false
	}

	w := p1.Sub(q1)
	tp := (ph.Dot(w) - pq*qh.Dot(w)) / denom
	tq := (-qh.Dot(w) + pq*ph.Dot(w)) / denom

	if clampP {
		tp = clamp(tp, 0, lp)
	}
	if clampQ {
		tq = clamp(tq, 0, lq)
	}

	ri = p1.Add(ph.MulScalar(tp))
	rj = q1.Add(qh.MulScalar(tq))
	return ri, rj, true
}

// ProjectOnSegment projects p onto the line through a,b. With clamp set the
// result is restricted to the segment. t is the distance from a along the
// line to the projection.
func ProjectOnSegment(p, a, b Vec, clampToSegment bool) (proj Vec, t float64) {
	d := b.Sub(a)
	l := d.Length()
	if l < Epsilon {
		return a, 0
	}
	u := d.DivScalar(l)
	t = p.Sub(a).Dot(u)
	if clampToSegment {
		t = clamp(t, 0, l)
	}
	return a.Add(u.MulScalar(t)), t
}

// SegmentsParallel reports whether segments a1a2 and b1b2 are parallel
// within tolDeg degrees.
func SegmentsParallel(a1, a2, b1, b2 Vec, tolDeg float64) bool {
	return VectorsParallel(a2.Sub(a1), b2.Sub(b1), tolDeg)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
