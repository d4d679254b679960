package spatialmath

import (
	"fmt"
	"math"
	"sync"

	"github.com/golang/geo/r3"
)

// Ordered list of box vertices.
var boxVertices = [8]r3.Vector{
	{X: 1, Y: 1, Z: 1},
	{X: 1, Y: 1, Z: -1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: -1},
	{X: -1, Y: 1, Z: 1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: -1, Y: -1, Z: -1},
}

// The sets of indices of the box vertices that tile the box exterior.
var boxTriangles = [12][3]int{
	{0, 1, 3},
	{0, 2, 3},
	{0, 1, 5},
	{0, 4, 5},
	{0, 2, 6},
	{0, 4, 6},
	{7, 1, 3},
	{7, 2, 3},
	{7, 1, 5},
	{7, 4, 5},
	{7, 2, 6},
	{7, 4, 6},
}

// The 12 edges of a box, as pairs of vertex indices (vertices differing in exactly one coordinate).
var boxEdgeIndices = [12][2]int{
	{0, 1}, {0, 2}, {0, 4},
	{1, 3}, {1, 5},
	{2, 3}, {2, 6},
	{3, 7},
	{4, 5}, {4, 6},
	{5, 7},
	{6, 7},
}

// box is a collision geometry that represents a 3D rectangular prism, it has a pose
// and half size that fully define it.
type box struct {
	pose            Pose
	halfSize        [3]float64
	boundingSphereR float64
	label           string
	mesh            *Mesh
	once            sync.Once
}

// NewBox instantiates a new box Geometry.
func NewBox(pose Pose, dims r3.Vector, label string) (Geometry, error) {
	// Negative dimensions not allowed. Zero dimensions are allowed for bounding boxes, etc.
	if dims.X < 0 || dims.Y < 0 || dims.Z < 0 {
		return nil, newBadGeometryDimensionsError(&box{})
	}
	return &box{
		pose:            pose,
		halfSize:        [3]float64{dims.X / 2, dims.Y / 2, dims.Z / 2},
		boundingSphereR: dims.Mul(0.5).Norm(),
		label:           label,
	}, nil
}

// String returns a human readable string that represents the box.
func (b *box) String() string {
	return fmt.Sprintf("Type: Box, Dims: %.3fx%.3fx%.3f", 2*b.halfSize[0], 2*b.halfSize[1], 2*b.halfSize[2])
}

// Label returns the label of this box.
func (b *box) Label() string {
	return b.label
}

// SetLabel sets the label of this box.
func (b *box) SetLabel(label string) {
	b.label = label
}

// Pose returns the pose of the box.
func (b *box) Pose() Pose {
	return b.pose
}

// Hash returns a content hash over the box's dimensions.
func (b *box) Hash() uint64 {
	sh := newShapeHasher("box")
	sh.addFloat(b.halfSize[0])
	sh.addFloat(b.halfSize[1])
	sh.addFloat(b.halfSize[2])
	return sh.sum()
}

// AlmostEqual compares the box with another geometry and checks if they are equivalent.
func (b *box) AlmostEqual(g Geometry) bool {
	other, ok := g.(*box)
	if !ok {
		return false
	}
	for i := 0; i < 3; i++ {
		if !Float64AlmostEqual(b.halfSize[i], other.halfSize[i], 1e-8) {
			return false
		}
	}
	return PoseAlmostEqualEps(b.pose, other.pose, 1e-6)
}

// Transform premultiplies the box pose with a transform, allowing the box to be moved in space.
func (b *box) Transform(toPremultiply Pose) Geometry {
	return &box{
		pose:            Compose(toPremultiply, b.pose),
		halfSize:        b.halfSize,
		boundingSphereR: b.boundingSphereR,
		label:           b.label,
	}
}

// AABB returns the axis-aligned bounding box enclosing all of the box's vertices.
func (b *box) AABB() AABB {
	return NewAABBFromPoints(b.vertices())
}

// CollidesWith checks if the given box collides with the given geometry and returns
// true if it does.
func (b *box) CollidesWith(g Geometry, collisionBuffer float64) (bool, error) {
	if other, ok := g.(*box); ok {
		// SAT gives an early negative verdict without the full distance computation.
		return boxVsBoxSATGap(b, other) <= collisionBuffer, nil
	}
	dist, err := b.DistanceFrom(g)
	if err != nil {
		return true, err
	}
	return dist <= collisionBuffer, nil
}

// DistanceFrom returns the minimum signed separation between the box and the given
// geometry.
func (b *box) DistanceFrom(g Geometry) (float64, error) {
	switch other := g.(type) {
	case *Mesh:
		return other.DistanceFrom(b)
	case *box:
		return boxVsBoxDistance(b, other), nil
	case *sphere:
		return sphereVsBoxDistance(other, b), nil
	case *capsule:
		return capsuleVsBoxDistance(other, b), nil
	case *point:
		return pointVsBoxDistance(other.position, b), nil
	default:
		return math.Inf(-1), newCollisionTypeUnsupportedError(b, g)
	}
}

// closestPoint returns the closest point on the box to the specified point.
// Reference: https://github.com/gszauer/GamePhysicsCookbook/blob/a0b8ee0c39fed6d4b90bb6d2195004dfcf5a1115/Code/Geometry3D.cpp#L165
func (b *box) closestPoint(pt r3.Vector) r3.Vector {
	result := b.pose.Point()
	direction := pt.Sub(result)
	rm := b.pose.Orientation()
	for i := 0; i < 3; i++ {
		axis := rm.Row(i)
		distance := direction.Dot(axis)
		if distance > b.halfSize[i] {
			distance = b.halfSize[i]
		} else if distance < -b.halfSize[i] {
			distance = -b.halfSize[i]
		}
		result = result.Add(axis.Mul(distance))
	}
	return result
}

// pointPenetrationDepth returns the minimum distance needed to move a pt inside the
// box to the edge of the box.
func (b *box) pointPenetrationDepth(pt r3.Vector) float64 {
	direction := pt.Sub(b.pose.Point())
	rm := b.pose.Orientation()
	depth := math.Inf(1)
	for i := 0; i < 3; i++ {
		projection := direction.Dot(rm.Row(i))
		if distance := math.Abs(projection - b.halfSize[i]); distance < depth {
			depth = distance
		}
		if distance := math.Abs(projection + b.halfSize[i]); distance < depth {
			depth = distance
		}
	}
	return depth
}

// vertices returns the vertices defining the box.
func (b *box) vertices() []r3.Vector {
	verts := make([]r3.Vector, 0, 8)
	for _, vert := range boxVertices {
		offset := NewPoseFromPoint(r3.Vector{X: vert.X * b.halfSize[0], Y: vert.Y * b.halfSize[1], Z: vert.Z * b.halfSize[2]})
		verts = append(verts, Compose(b.pose, offset).Point())
	}
	return verts
}

// toMesh returns a 12-triangle mesh representation of the box, 2 right triangles for
// each face.
func (b *box) toMesh() *Mesh {
	b.once.Do(func() {
		triangles := make([]*Triangle, 0, 12)
		verts := b.vertices()
		for _, tri := range boxTriangles {
			triangles = append(triangles, NewTriangle(verts[tri[0]], verts[tri[1]], verts[tri[2]]))
		}
		b.mesh = NewMesh(NewZeroPose(), triangles, b.label)
	})
	return b.mesh
}

// boxVsBoxSATGap returns the maximum separating-axis gap between two boxes. It is
// negative (penetration depth) when the boxes overlap.
func boxVsBoxSATGap(a, b *box) float64 {
	centerDist := b.pose.Point().Sub(a.pose.Point())

	// check if there is a distance between bounding spheres to potentially exit early
	if dist := centerDist.Norm() - (a.boundingSphereR + b.boundingSphereR); dist > 0 {
		return dist
	}
	return obbMaxSeparatingGap(a.pose.Orientation(), b.pose.Orientation(), a.halfSize, b.halfSize, centerDist)
}

// boxVsBoxDistance returns the signed separation between two boxes. A nonpositive
// value is the penetration depth, computed with SAT, which gives the minimum
// translation to separate. A positive value is the exact Euclidean separation,
// computed by enumerating closest vertex-to-box and edge-to-edge feature pairs,
// since the SAT gap underestimates the distance for edge-edge and vertex-vertex
// closest features.
//
// references: https://comp.graphics.algorithms.narkive.com/jRAgjIUh/obb-obb-distance-calculation
//
//	https://dyn4j.org/2010/01/sat/#sat-nointer
func boxVsBoxDistance(a, b *box) float64 {
	gap := boxVsBoxSATGap(a, b)
	if gap <= 0 {
		return gap
	}
	return boxVsBoxSeparationDist(a, b)
}

// boxVsBoxSeparationDist computes the exact Euclidean distance between two
// non-colliding boxes by checking all vertex-to-box and edge-to-edge feature pairs.
func boxVsBoxSeparationDist(a, b *box) float64 {
	vertsA := a.vertices()
	vertsB := b.vertices()

	minDist := math.Inf(1)

	// Check each vertex of A against closest point on B, and vice versa.
	for i := range vertsA {
		if d := vertsA[i].Sub(b.closestPoint(vertsA[i])).Norm(); d < minDist {
			minDist = d
		}
	}
	for i := range vertsB {
		if d := vertsB[i].Sub(a.closestPoint(vertsB[i])).Norm(); d < minDist {
			minDist = d
		}
	}

	// Check all edge-edge pairs for edge-to-edge closest distance.
	for _, ea := range boxEdgeIndices {
		for _, eb := range boxEdgeIndices {
			if d := SegmentDistanceToSegment(vertsA[ea[0]], vertsA[ea[1]], vertsB[eb[0]], vertsB[eb[1]]); d < minDist {
				minDist = d
			}
		}
	}

	return minDist
}

// pointVsBoxDistance returns the signed distance from a point to a box, negative if
// the point is inside the box.
func pointVsBoxDistance(pt r3.Vector, b *box) float64 {
	distance := pt.Sub(b.closestPoint(pt)).Norm()
	if distance > 0 {
		return distance
	}
	return -b.pointPenetrationDepth(pt)
}
