package spatialmath

import (
	"github.com/golang/geo/r3"
)

// Triangle is three points and a precomputed normal.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector

	normal r3.Vector
}

// NewTriangle creates a Triangle from three points.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// Points returns the three points associated with the triangle.
func (t *Triangle) Points() []r3.Vector {
	return []r3.Vector{t.p0, t.p1, t.p2}
}

// Normal returns the plane normal of the triangle.
func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Area returns the area of the triangle. A zero area indicates a degenerate
// triangle.
func (t *Triangle) Area() float64 {
	return t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm() / 2
}

// Transform returns a new Triangle with all points transformed by the given pose.
func (t *Triangle) Transform(pose Pose) *Triangle {
	return NewTriangle(pose.TransformPoint(t.p0), pose.TransformPoint(t.p1), pose.TransformPoint(t.p2))
}

// AABB returns the axis-aligned bounding box of the triangle.
func (t *Triangle) AABB() AABB {
	return NewAABBFromPoints([]r3.Vector{t.p0, t.p1, t.p2})
}

// ClosestPointToCoplanarPoint takes a point, and returns the closest point on the
// triangle to the given point. The given point *MUST* be coplanar with the triangle.
func (t *Triangle) ClosestPointToCoplanarPoint(pt r3.Vector) r3.Vector {
	// Determine whether point is inside all triangle edges:
	c0 := pt.Sub(t.p0).Cross(t.p1.Sub(t.p0))
	c1 := pt.Sub(t.p1).Cross(t.p2.Sub(t.p1))
	c2 := pt.Sub(t.p2).Cross(t.p0.Sub(t.p2))
	inside := c0.Dot(t.normal) <= 0 && c1.Dot(t.normal) <= 0 && c2.Dot(t.normal) <= 0

	if inside {
		return pt
	}

	// Edge 1:
	refPt := ClosestPointSegmentPoint(t.p0, t.p1, pt)
	bestDist := pt.Sub(refPt).Norm2()

	// Edge 2:
	point2 := ClosestPointSegmentPoint(t.p1, t.p2, pt)
	if distsq := pt.Sub(point2).Norm2(); distsq < bestDist {
		refPt = point2
		bestDist = distsq
	}

	// Edge 3:
	point3 := ClosestPointSegmentPoint(t.p2, t.p0, pt)
	if distsq := pt.Sub(point3).Norm2(); distsq < bestDist {
		return point3
	}
	return refPt
}

// ClosestPointToPoint takes a point, and returns the closest point on the triangle
// to the given point. This is slower than ClosestPointToCoplanarPoint.
func (t *Triangle) ClosestPointToPoint(point r3.Vector) r3.Vector {
	closestPtInside, inside := t.ClosestInsidePoint(point)
	if inside {
		return closestPtInside
	}

	// If the closest point is outside the triangle, it must be on an edge, so we
	// check each triangle edge for a closest point to the point pt.
	closestPt := ClosestPointSegmentPoint(t.p0, t.p1, point)
	bestDist := point.Sub(closestPt).Norm2()

	newPt := ClosestPointSegmentPoint(t.p1, t.p2, point)
	if newDist := point.Sub(newPt).Norm2(); newDist < bestDist {
		closestPt = newPt
		bestDist = newDist
	}

	newPt = ClosestPointSegmentPoint(t.p2, t.p0, point)
	if newDist := point.Sub(newPt).Norm2(); newDist < bestDist {
		return newPt
	}
	return closestPt
}

// ClosestInsidePoint returns the closest point on a triangle IF AND ONLY IF the
// query point's projection overlaps the triangle. Otherwise it will return the query
// point. To visualize this- if one draws a tetrahedron using the triangle and the
// query point, all angles from the triangle to the query point must be <= 90 degrees.
func (t *Triangle) ClosestInsidePoint(point r3.Vector) (r3.Vector, bool) {
	eps := 1e-6

	// Parametrize the triangle s.t. a point inside the triangle is
	// Q = p0 + u * e0 + v * e1, when 0 <= u <= 1, 0 <= v <= 1, and
	// 0 <= u + v <= 1. Let e0 = (p1 - p0) and e1 = (p2 - p0).
	// We analytically minimize the distance between the point pt and Q.
	e0 := t.p1.Sub(t.p0)
	e1 := t.p2.Sub(t.p0)
	a := e0.Norm2()
	b := e0.Dot(e1)
	c := e1.Norm2()
	d := point.Sub(t.p0)
	// The determinant is 0 only if the angle between e1 and e0 is 0
	// (i.e. the triangle has overlapping lines).
	det := (a*c - b*b)
	u := (c*e0.Dot(d) - b*e1.Dot(d)) / det
	v := (-b*e0.Dot(d) + a*e1.Dot(d)) / det
	inside := (0 <= u+eps) && (u <= 1+eps) && (0 <= v+eps) && (v <= 1+eps) && (u+v <= 1+eps)
	return t.p0.Add(e0.Mul(u)).Add(e1.Mul(v)), inside
}
