package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// capsule is a collision geometry that represents a capsule, it has a pose, a radius,
// and a length that fully define it.
//
// ....___________________
// .../                   \
// .x|  |-------O-------|  |x
// ...\___________________/
//
// Length is the distance between the x's, or internal segment length + 2*radius.
type capsule struct {
	// pose is the pose of the center of the capsule. The capsule extends length/2
	// outwards in both directions along the pose's Z axis.
	pose   Pose
	radius float64
	length float64 // total length of the capsule, tip to tip
	label  string

	// These values are generated at geometry creation time and should not be altered
	// by hand. They are stored here because they are useful and expensive to calculate.
	segA   r3.Vector // Proximal endpoint of capsule line segment.
	segB   r3.Vector // Distal endpoint of capsule line segment.
	center r3.Vector // Centerpoint of capsule, cached to prevent recalculation.
	capVec r3.Vector // Vector pointing from center towards segB, cached to prevent recalculation.
}

// NewCapsule instantiates a new capsule Geometry.
func NewCapsule(offset Pose, radius, length float64, label string) (Geometry, error) {
	if radius <= 0 || length <= 0 {
		return nil, newBadGeometryDimensionsError(&capsule{})
	}
	if length < radius*2 {
		return nil, newBadCapsuleLengthError(length, radius)
	}
	if length == radius*2 {
		return NewSphere(offset, radius, label)
	}
	return newCapsuleWithSegPoints(offset, radius, length, label), nil
}

// newCapsuleWithSegPoints precalculates the linear endpoints for a capsule.
func newCapsuleWithSegPoints(offset Pose, radius, length float64, label string) Geometry {
	segA := Compose(offset, NewPoseFromPoint(r3.Vector{Z: -length/2 + radius})).Point()
	segB := Compose(offset, NewPoseFromPoint(r3.Vector{Z: length/2 - radius})).Point()
	center := offset.Point()

	return &capsule{
		pose:   offset,
		radius: radius,
		length: length,
		label:  label,
		segA:   segA,
		segB:   segB,
		center: center,
		capVec: segB.Sub(center),
	}
}

// String returns a human readable string that represents the capsule.
func (c *capsule) String() string {
	return fmt.Sprintf("Type: Capsule, Radius: %.3f, Length: %.3f", c.radius, c.length)
}

// Label returns the label of this capsule.
func (c *capsule) Label() string {
	return c.label
}

// SetLabel sets the label of this capsule.
func (c *capsule) SetLabel(label string) {
	c.label = label
}

// Pose returns the pose of the capsule.
func (c *capsule) Pose() Pose {
	return c.pose
}

// Hash returns a content hash over the capsule's radius and length.
func (c *capsule) Hash() uint64 {
	sh := newShapeHasher("capsule")
	sh.addFloat(c.radius)
	sh.addFloat(c.length)
	return sh.sum()
}

// AlmostEqual compares the capsule with another geometry and checks if they are equivalent.
func (c *capsule) AlmostEqual(g Geometry) bool {
	other, ok := g.(*capsule)
	if !ok {
		return false
	}
	return PoseAlmostEqualEps(c.pose, other.pose, 1e-6) &&
		Float64AlmostEqual(c.radius, other.radius, 1e-8) &&
		Float64AlmostEqual(c.length, other.length, 1e-8)
}

// Transform premultiplies the capsule pose with a transform, allowing the capsule to
// be moved in space.
func (c *capsule) Transform(toPremultiply Pose) Geometry {
	newPose := Compose(toPremultiply, c.pose)
	segB := toPremultiply.TransformPoint(c.segB)
	center := newPose.Point()
	return &capsule{
		pose:   newPose,
		radius: c.radius,
		length: c.length,
		label:  c.label,
		segA:   toPremultiply.TransformPoint(c.segA),
		segB:   segB,
		center: center,
		capVec: segB.Sub(center),
	}
}

// AABB returns the axis-aligned bounding box of the capsule, the bounds of its
// internal segment inflated by its radius.
func (c *capsule) AABB() AABB {
	return NewAABBFromPoints([]r3.Vector{c.segA, c.segB}).Inflate(c.radius)
}

// CollidesWith checks if the given capsule collides with the given geometry and
// returns true if it does.
func (c *capsule) CollidesWith(g Geometry, collisionBuffer float64) (bool, error) {
	dist, err := c.DistanceFrom(g)
	if err != nil {
		return true, err
	}
	return dist <= collisionBuffer, nil
}

// DistanceFrom returns the minimum signed separation between the capsule and the
// given geometry.
func (c *capsule) DistanceFrom(g Geometry) (float64, error) {
	switch other := g.(type) {
	case *Mesh:
		return other.DistanceFrom(c)
	case *box:
		return capsuleVsBoxDistance(c, other), nil
	case *capsule:
		return capsuleVsCapsuleDistance(c, other), nil
	case *sphere:
		return capsuleVsSphereDistance(c, other), nil
	case *point:
		return capsuleVsPointDistance(c, other.position), nil
	default:
		return math.Inf(-1), newCollisionTypeUnsupportedError(c, g)
	}
}

func capsuleVsPointDistance(c *capsule, other r3.Vector) float64 {
	return DistToLineSegment(c.segA, c.segB, other) - c.radius
}

func capsuleVsSphereDistance(c *capsule, other *sphere) float64 {
	return DistToLineSegment(c.segA, c.segB, other.pose.Point()) - (c.radius + other.radius)
}

func capsuleVsCapsuleDistance(c, other *capsule) float64 {
	return SegmentDistanceToSegment(c.segA, c.segB, other.segA, other.segB) - (c.radius + other.radius)
}

// capsuleVsBoxDistance returns the signed separation between a capsule and a box.
// The separating axis theorem provides accurate penetration depth but underestimates
// separation, so when the two are not in collision the box is converted to a mesh
// and triangle-capsule distances give the exact separation.
func capsuleVsBoxDistance(c *capsule, other *box) float64 {
	dist := capsuleBoxSeparatingAxisGap(c, other)
	if dist > 0 {
		return capsuleVsMeshDistance(c, other.toMesh())
	}
	return dist
}

func capsuleVsMeshDistance(c *capsule, other *Mesh) float64 {
	lowDist := math.Inf(1)
	for _, t := range other.worldTriangles() {
		if dist := capsuleVsTriangleDistance(c, t); dist < lowDist {
			lowDist = dist
		}
	}
	return lowDist
}

func capsuleVsTriangleDistance(c *capsule, other *Triangle) float64 {
	capPt, triPt := closestPointsSegmentTriangle(c.segA, c.segB, other)
	return capPt.Sub(triPt).Norm() - c.radius
}

// capsuleBoxSeparatingAxisGap models the capsule as a degenerate 0x0xN box, where
// N = length/2 - radius, and returns the maximum separating-axis gap minus the
// capsule radius.
func capsuleBoxSeparatingAxisGap(c *capsule, b *box) float64 {
	centerDist := b.pose.Point().Sub(c.center)

	// check if there is a distance between bounding spheres to potentially exit early
	if dist := centerDist.Norm() - (c.length/2 + b.boundingSphereR); dist > 0 {
		return dist
	}

	rmA := c.pose.Orientation()
	rmB := b.pose.Orientation()

	maxGap := math.Inf(-1)
	for i := 0; i < 3; i++ {
		if gap := capsuleSeparatingAxisTest1D(centerDist, c.capVec, rmA.Row(i), b.halfSize, rmB); gap > maxGap {
			maxGap = gap
		}
		if gap := capsuleSeparatingAxisTest1D(centerDist, c.capVec, rmB.Row(i), b.halfSize, rmB); gap > maxGap {
			maxGap = gap
		}
		for j := 0; j < 3; j++ {
			crossProductPlane := rmA.Row(i).Cross(rmB.Row(j))

			// if edges are parallel, this check is already accounted for by one of the face projections
			if !Float64AlmostEqual(crossProductPlane.Norm(), 0, floatEpsilon) {
				if gap := capsuleSeparatingAxisTest1D(centerDist, c.capVec, crossProductPlane.Normalize(), b.halfSize, rmB); gap > maxGap {
					maxGap = gap
				}
			}
		}
	}
	return maxGap - c.radius
}

func capsuleSeparatingAxisTest1D(positionDelta, capVec, plane r3.Vector, halfSizeB [3]float64, rmB *RotationMatrix) float64 {
	sum := math.Abs(positionDelta.Dot(plane))
	for i := 0; i < 3; i++ {
		sum -= math.Abs(rmB.Row(i).Mul(halfSizeB[i]).Dot(plane))
	}
	sum -= math.Abs(capVec.Dot(plane))
	return sum
}
