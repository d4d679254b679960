package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// sphere is a collision geometry that represents a sphere, it has a pose and a
// radius that fully define it.
type sphere struct {
	pose   Pose
	radius float64
	label  string
}

// NewSphere instantiates a new sphere Geometry.
func NewSphere(pose Pose, radius float64, label string) (Geometry, error) {
	if radius <= 0 {
		return nil, newBadGeometryDimensionsError(&sphere{})
	}
	return &sphere{pose: pose, radius: radius, label: label}, nil
}

// String returns a human readable string that represents the sphere.
func (s *sphere) String() string {
	return fmt.Sprintf("Type: Sphere, Radius: %.3f", s.radius)
}

// Label returns the label of this sphere.
func (s *sphere) Label() string {
	return s.label
}

// SetLabel sets the label of this sphere.
func (s *sphere) SetLabel(label string) {
	s.label = label
}

// Pose returns the pose of the sphere.
func (s *sphere) Pose() Pose {
	return s.pose
}

// Hash returns a content hash over the sphere's radius.
func (s *sphere) Hash() uint64 {
	sh := newShapeHasher("sphere")
	sh.addFloat(s.radius)
	return sh.sum()
}

// AlmostEqual compares the sphere with another geometry and checks if they are
// equivalent.
func (s *sphere) AlmostEqual(g Geometry) bool {
	other, ok := g.(*sphere)
	if !ok {
		return false
	}
	return PoseAlmostEqualEps(s.pose, other.pose, 1e-6) && Float64AlmostEqual(s.radius, other.radius, 1e-8)
}

// Transform premultiplies the sphere pose with a transform, allowing the sphere to
// be moved in space.
func (s *sphere) Transform(toPremultiply Pose) Geometry {
	return &sphere{pose: Compose(toPremultiply, s.pose), radius: s.radius, label: s.label}
}

// AABB returns the axis-aligned bounding box of the sphere.
func (s *sphere) AABB() AABB {
	c := s.pose.Point()
	r := r3.Vector{X: s.radius, Y: s.radius, Z: s.radius}
	return AABB{Min: c.Sub(r), Max: c.Add(r)}
}

// CollidesWith checks if the given sphere collides with the given geometry and
// returns true if it does.
func (s *sphere) CollidesWith(g Geometry, collisionBuffer float64) (bool, error) {
	dist, err := s.DistanceFrom(g)
	if err != nil {
		return true, err
	}
	return dist <= collisionBuffer, nil
}

// DistanceFrom returns the minimum signed separation between the sphere and the
// given geometry.
func (s *sphere) DistanceFrom(g Geometry) (float64, error) {
	switch other := g.(type) {
	case *Mesh:
		return other.DistanceFrom(s)
	case *box:
		return sphereVsBoxDistance(s, other), nil
	case *sphere:
		return sphereVsSphereDistance(s, other), nil
	case *capsule:
		return capsuleVsSphereDistance(other, s), nil
	case *point:
		return sphereVsPointDistance(s, other.position), nil
	default:
		return 0, newCollisionTypeUnsupportedError(s, g)
	}
}

func sphereVsPointDistance(s *sphere, pt r3.Vector) float64 {
	return s.pose.Point().Sub(pt).Norm() - s.radius
}

func sphereVsSphereDistance(a, b *sphere) float64 {
	return a.pose.Point().Sub(b.pose.Point()).Norm() - (a.radius + b.radius)
}

func sphereVsBoxDistance(s *sphere, b *box) float64 {
	return pointVsBoxDistance(s.pose.Point(), b) - s.radius
}
