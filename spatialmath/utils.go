package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// floatEpsilon is the tolerance below which float comparisons are treated as equal.
const floatEpsilon = 1e-6

// Float64AlmostEqual returns whether two float64s are within epsilon of each other.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// R3VectorAlmostEqual returns whether all components of two vectors are within
// epsilon of each other.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) <= epsilon && math.Abs(a.Y-b.Y) <= epsilon && math.Abs(a.Z-b.Z) <= epsilon
}

// PlaneNormal returns the plane normal of the plane defined by three points.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
}

// ClosestPointSegmentPoint takes a line segment defined by pt1 and pt2, and returns
// the point on the segment closest to the query point.
func ClosestPointSegmentPoint(pt1, pt2, query r3.Vector) r3.Vector {
	ab := pt2.Sub(pt1)
	abLen := ab.Norm2()
	if abLen < 1e-20 {
		return pt1
	}
	t := query.Sub(pt1).Dot(ab) / abLen
	if t <= 0 {
		return pt1
	}
	if t >= 1 {
		return pt2
	}
	return pt1.Add(ab.Mul(t))
}

// DistToLineSegment returns the distance from point to the line segment (pt1, pt2).
func DistToLineSegment(pt1, pt2, point r3.Vector) float64 {
	return point.Sub(ClosestPointSegmentPoint(pt1, pt2, point)).Norm()
}

// ClosestPointsSegmentSegment computes the pair of closest points between segments
// (ap1, ap2) and (bp1, bp2).
// Reference: Ericson, "Real-Time Collision Detection", Ch. 5.1.9.
func ClosestPointsSegmentSegment(ap1, ap2, bp1, bp2 r3.Vector) (r3.Vector, r3.Vector) {
	d1 := ap2.Sub(ap1)
	d2 := bp2.Sub(bp1)
	r := ap1.Sub(bp1)
	a := d1.Norm2()
	e := d2.Norm2()
	f := d2.Dot(r)

	var s, t float64
	switch {
	case a < 1e-20 && e < 1e-20:
		// both segments degenerate to points
		return ap1, bp1
	case a < 1e-20:
		t = clamp01(f / e)
	default:
		c := d1.Dot(r)
		if e < 1e-20 {
			s = clamp01(-c / a)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom > 1e-20 {
				s = clamp01((b*f - c*e) / denom)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = clamp01(-c / a)
			} else if t > 1 {
				t = 1
				s = clamp01((b - c) / a)
			}
		}
	}
	return ap1.Add(d1.Mul(s)), bp1.Add(d2.Mul(t))
}

// SegmentDistanceToSegment returns the distance between two line segments.
func SegmentDistanceToSegment(ap1, ap2, bp1, bp2 r3.Vector) float64 {
	bestA, bestB := ClosestPointsSegmentSegment(ap1, ap2, bp1, bp2)
	return bestA.Sub(bestB).Norm()
}

// closestPointsSegmentTriangle returns the closest points between a line segment and
// a triangle. If the segment passes through the triangle's interior the returned
// points are coincident at the crossing.
func closestPointsSegmentTriangle(ap1, ap2 r3.Vector, t *Triangle) (segPt, triPt r3.Vector) {
	// If the segment crosses the triangle's plane within the triangle, that crossing
	// is the closest pair of points.
	d0 := t.normal.Dot(ap1.Sub(t.p0))
	d1 := t.normal.Dot(ap2.Sub(t.p0))
	if d0*d1 < 0 {
		frac := d0 / (d0 - d1)
		crossing := ap1.Add(ap2.Sub(ap1).Mul(frac))
		if onTri := t.ClosestPointToCoplanarPoint(crossing); crossing.Sub(onTri).Norm2() < 1e-18 {
			return crossing, onTri
		}
	}

	// Otherwise the closest pair involves an endpoint of the segment or an edge of
	// the triangle.
	bestSeg := ap1
	bestTri := t.ClosestPointToPoint(ap1)
	bestDist := bestSeg.Sub(bestTri).Norm2()

	if tp := t.ClosestPointToPoint(ap2); ap2.Sub(tp).Norm2() < bestDist {
		bestSeg, bestTri = ap2, tp
		bestDist = bestSeg.Sub(bestTri).Norm2()
	}

	edges := [3][2]r3.Vector{{t.p0, t.p1}, {t.p1, t.p2}, {t.p2, t.p0}}
	for _, edge := range edges {
		sp, ep := ClosestPointsSegmentSegment(ap1, ap2, edge[0], edge[1])
		if d := sp.Sub(ep).Norm2(); d < bestDist {
			bestSeg, bestTri = sp, ep
			bestDist = d
		}
	}
	return bestSeg, bestTri
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
