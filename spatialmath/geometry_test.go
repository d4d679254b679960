package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func makeSphere(t *testing.T, center r3.Vector, radius float64) Geometry {
	t.Helper()
	s, err := NewSphere(NewPoseFromPoint(center), radius, "")
	test.That(t, err, test.ShouldBeNil)
	return s
}

func makeBox(t *testing.T, center, dims r3.Vector, rotation *RotationMatrix) Geometry {
	t.Helper()
	pose := NewPoseFromPoint(center)
	if rotation != nil {
		pose = NewPose(center, rotation)
	}
	b, err := NewBox(pose, dims, "")
	test.That(t, err, test.ShouldBeNil)
	return b
}

func makeCapsule(t *testing.T, center r3.Vector, radius, length float64) Geometry {
	t.Helper()
	c, err := NewCapsule(NewPoseFromPoint(center), radius, length, "")
	test.That(t, err, test.ShouldBeNil)
	return c
}

func TestNewGeometryErrors(t *testing.T) {
	_, err := NewSphere(NewZeroPose(), -1, "")
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewBox(NewZeroPose(), r3.Vector{X: -1, Y: 1, Z: 1}, "")
	test.That(t, err, test.ShouldNotBeNil)

	// A capsule shorter than its diameter is invalid.
	_, err = NewCapsule(NewZeroPose(), 1, 1, "")
	test.That(t, err, test.ShouldNotBeNil)

	// A capsule exactly as long as its diameter degenerates to a sphere.
	c, err := NewCapsule(NewZeroPose(), 1, 2, "")
	test.That(t, err, test.ShouldBeNil)
	s := makeSphere(t, r3.Vector{X: 3, Y: 0, Z: 0}, 1)
	d, err := c.DistanceFrom(s)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldAlmostEqual, 1, floatEpsilon)
}

func TestSphereDistances(t *testing.T) {
	t.Run("sphere vs sphere", func(t *testing.T) {
		a := makeSphere(t, r3.Vector{}, 1)

		for _, tc := range []struct {
			name     string
			center   r3.Vector
			radius   float64
			expected float64
		}{
			{"separated", r3.Vector{X: 3}, 1, 1},
			{"touching", r3.Vector{X: 2}, 1, 0},
			{"penetrating", r3.Vector{X: 1.5}, 1, -0.5},
			{"concentric", r3.Vector{}, 1, -2},
		} {
			t.Run(tc.name, func(t *testing.T) {
				b := makeSphere(t, tc.center, tc.radius)
				d, err := a.DistanceFrom(b)
				test.That(t, err, test.ShouldBeNil)
				test.That(t, d, test.ShouldAlmostEqual, tc.expected, floatEpsilon)
			})
		}
	})

	t.Run("sphere vs box", func(t *testing.T) {
		b := makeBox(t, r3.Vector{}, r3.Vector{X: 2, Y: 2, Z: 2}, nil)

		s := makeSphere(t, r3.Vector{X: 3}, 0.5)
		d, err := s.DistanceFrom(b)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldAlmostEqual, 1.5, floatEpsilon)

		// Sphere centered inside the box reports penetration.
		inside := makeSphere(t, r3.Vector{}, 0.5)
		d, err = inside.DistanceFrom(b)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldAlmostEqual, -1.5, floatEpsilon)
	})

	t.Run("symmetry", func(t *testing.T) {
		b := makeBox(t, r3.Vector{}, r3.Vector{X: 2, Y: 2, Z: 2}, nil)
		s := makeSphere(t, r3.Vector{X: 3}, 0.5)
		d1, err := s.DistanceFrom(b)
		test.That(t, err, test.ShouldBeNil)
		d2, err := b.DistanceFrom(s)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d1, test.ShouldAlmostEqual, d2, floatEpsilon)
	})
}

func TestBoxDistances(t *testing.T) {
	unitCube := func(center r3.Vector) Geometry {
		return makeBox(t, center, r3.Vector{X: 1, Y: 1, Z: 1}, nil)
	}

	t.Run("axis aligned separation", func(t *testing.T) {
		a := unitCube(r3.Vector{})
		b := unitCube(r3.Vector{X: 2})
		d, err := a.DistanceFrom(b)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldAlmostEqual, 1, floatEpsilon)
	})

	t.Run("axis aligned penetration", func(t *testing.T) {
		a := unitCube(r3.Vector{})
		b := unitCube(r3.Vector{X: 0.5})
		d, err := a.DistanceFrom(b)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldAlmostEqual, -0.5, floatEpsilon)
	})

	t.Run("touching faces", func(t *testing.T) {
		a := unitCube(r3.Vector{})
		b := unitCube(r3.Vector{X: 1})
		d, err := a.DistanceFrom(b)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldAlmostEqual, 0, floatEpsilon)
	})

	t.Run("rotated gap", func(t *testing.T) {
		// A cube rotated 45 degrees about z presents an edge, so the gap along x
		// shrinks by half the face diagonal rather than the half extent.
		rot := NewRotationMatrixFromEuler(0, 0, math.Pi/4)
		a := makeBox(t, r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1}, rot)
		b := unitCube(r3.Vector{X: 3})
		d, err := a.DistanceFrom(b)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldAlmostEqual, 2.5-math.Sqrt2/2, 1e-4)
	})

	t.Run("diagonal corner separation", func(t *testing.T) {
		a := unitCube(r3.Vector{})
		b := unitCube(r3.Vector{X: 2, Y: 2, Z: 2})
		d, err := a.DistanceFrom(b)
		test.That(t, err, test.ShouldBeNil)
		// Closest features are the corners at (0.5,0.5,0.5) and (1.5,1.5,1.5).
		test.That(t, d, test.ShouldAlmostEqual, math.Sqrt(3), 1e-4)
	})
}

func TestCapsuleDistances(t *testing.T) {
	// Capsule of radius 0.5, segment of length 3 along z, total length 4.
	c := makeCapsule(t, r3.Vector{}, 0.5, 4)

	t.Run("vs sphere beside", func(t *testing.T) {
		s := makeSphere(t, r3.Vector{X: 2}, 0.5)
		d, err := c.DistanceFrom(s)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldAlmostEqual, 1, floatEpsilon)
	})

	t.Run("vs sphere beyond cap", func(t *testing.T) {
		s := makeSphere(t, r3.Vector{Z: 4}, 0.5)
		d, err := c.DistanceFrom(s)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldAlmostEqual, 1.5, floatEpsilon)
	})

	t.Run("vs parallel capsule", func(t *testing.T) {
		other := makeCapsule(t, r3.Vector{X: 2}, 0.5, 4)
		d, err := c.DistanceFrom(other)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldAlmostEqual, 1, floatEpsilon)
	})

	t.Run("vs overlapping capsule", func(t *testing.T) {
		other := makeCapsule(t, r3.Vector{X: 0.5}, 0.5, 4)
		d, err := c.DistanceFrom(other)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldAlmostEqual, -0.5, floatEpsilon)
	})

	t.Run("vs box beside", func(t *testing.T) {
		b := makeBox(t, r3.Vector{X: 3}, r3.Vector{X: 2, Y: 2, Z: 2}, nil)
		d, err := c.DistanceFrom(b)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldAlmostEqual, 1.5, 1e-4)
	})

	t.Run("vs penetrating box", func(t *testing.T) {
		b := makeBox(t, r3.Vector{X: 0.5}, r3.Vector{X: 2, Y: 2, Z: 2}, nil)
		d, err := c.DistanceFrom(b)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldBeLessThan, 0)
	})
}

func TestPointDistances(t *testing.T) {
	p := NewPoint(r3.Vector{X: 3}, "")

	s := makeSphere(t, r3.Vector{}, 1)
	d, err := p.DistanceFrom(s)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldAlmostEqual, 2, floatEpsilon)

	b := makeBox(t, r3.Vector{}, r3.Vector{X: 2, Y: 2, Z: 2}, nil)
	d, err = p.DistanceFrom(b)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldAlmostEqual, 2, floatEpsilon)

	inside := NewPoint(r3.Vector{X: 0.5}, "")
	d, err = inside.DistanceFrom(b)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldAlmostEqual, -0.5, floatEpsilon)

	other := NewPoint(r3.Vector{X: 3, Y: 4}, "")
	d, err = p.DistanceFrom(other)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldAlmostEqual, 4, floatEpsilon)
}

func TestMeshDistances(t *testing.T) {
	tri := func(p0, p1, p2 r3.Vector) *Mesh {
		return NewMesh(NewZeroPose(), []*Triangle{NewTriangle(p0, p1, p2)}, "")
	}

	t.Run("vs point", func(t *testing.T) {
		m := tri(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{Y: 1})
		p := NewPoint(r3.Vector{X: 0.25, Y: 0.25, Z: 2}, "")
		d, err := m.DistanceFrom(p)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldAlmostEqual, 2, floatEpsilon)
	})

	t.Run("parallel triangles", func(t *testing.T) {
		a := tri(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{Y: 1})
		b := tri(r3.Vector{Z: 1}, r3.Vector{X: 1, Z: 1}, r3.Vector{Y: 1, Z: 1})
		d, err := a.DistanceFrom(b)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldAlmostEqual, 1, floatEpsilon)
	})

	t.Run("crossing triangles", func(t *testing.T) {
		a := tri(r3.Vector{}, r3.Vector{X: 2}, r3.Vector{Y: 2})
		b := tri(
			r3.Vector{X: 0.5, Y: 0.5, Z: -1},
			r3.Vector{X: 0.5, Y: 0.5, Z: 1},
			r3.Vector{X: 1.5, Y: 0.5, Z: 1},
		)
		d, err := a.DistanceFrom(b)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldAlmostEqual, 0, floatEpsilon)
	})

	t.Run("vs sphere", func(t *testing.T) {
		m := tri(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{Y: 1})
		s := makeSphere(t, r3.Vector{X: 0.25, Y: 0.25, Z: 2}, 0.5)
		d, err := m.DistanceFrom(s)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldAlmostEqual, 1.5, floatEpsilon)
	})

	t.Run("posed mesh", func(t *testing.T) {
		m := NewMesh(
			NewPoseFromPoint(r3.Vector{Z: 3}),
			[]*Triangle{NewTriangle(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{Y: 1})},
			"",
		)
		p := NewPoint(r3.Vector{X: 0.25, Y: 0.25}, "")
		d, err := m.DistanceFrom(p)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, d, test.ShouldAlmostEqual, 3, floatEpsilon)
	})
}

func TestCollidesWith(t *testing.T) {
	a := makeSphere(t, r3.Vector{}, 1)
	b := makeSphere(t, r3.Vector{X: 2.05}, 1)

	hit, err := a.CollidesWith(b, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeFalse)

	// A collision buffer widens what counts as touching.
	hit, err = a.CollidesWith(b, 0.1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeTrue)
}

func TestAABB(t *testing.T) {
	t.Run("sphere", func(t *testing.T) {
		s := makeSphere(t, r3.Vector{X: 1, Y: 2, Z: 3}, 0.5)
		bb := s.AABB()
		test.That(t, R3VectorAlmostEqual(bb.Min, r3.Vector{X: 0.5, Y: 1.5, Z: 2.5}, floatEpsilon), test.ShouldBeTrue)
		test.That(t, R3VectorAlmostEqual(bb.Max, r3.Vector{X: 1.5, Y: 2.5, Z: 3.5}, floatEpsilon), test.ShouldBeTrue)
	})

	t.Run("rotated box", func(t *testing.T) {
		rot := NewRotationMatrixFromEuler(0, 0, math.Pi/4)
		b := makeBox(t, r3.Vector{}, r3.Vector{X: 2, Y: 2, Z: 2}, rot)
		size := b.AABB().Size()
		test.That(t, size.X, test.ShouldAlmostEqual, 2*math.Sqrt2, 1e-6)
		test.That(t, size.Y, test.ShouldAlmostEqual, 2*math.Sqrt2, 1e-6)
		test.That(t, size.Z, test.ShouldAlmostEqual, 2, 1e-6)
	})

	t.Run("capsule", func(t *testing.T) {
		c := makeCapsule(t, r3.Vector{}, 0.5, 4)
		size := c.AABB().Size()
		test.That(t, size.X, test.ShouldAlmostEqual, 1, floatEpsilon)
		test.That(t, size.Y, test.ShouldAlmostEqual, 1, floatEpsilon)
		test.That(t, size.Z, test.ShouldAlmostEqual, 4, floatEpsilon)
	})

	t.Run("aabb helpers", func(t *testing.T) {
		a := AABB{Min: r3.Vector{}, Max: r3.Vector{X: 1, Y: 1, Z: 1}}
		b := AABB{Min: r3.Vector{X: 3}, Max: r3.Vector{X: 4, Y: 1, Z: 1}}
		test.That(t, a.Intersects(b), test.ShouldBeFalse)
		// The gap between the boxes is 2, so inflating one side by 2.5 overlaps.
		test.That(t, a.Inflate(1.5).Intersects(b), test.ShouldBeFalse)
		test.That(t, a.Inflate(2.5).Intersects(b), test.ShouldBeTrue)
		test.That(t, a.DistanceLowerBound(b), test.ShouldAlmostEqual, 2, floatEpsilon)
		test.That(t, a.DistanceLowerBound(a), test.ShouldAlmostEqual, 0, floatEpsilon)
	})
}

func TestContentHash(t *testing.T) {
	t.Run("pose independent", func(t *testing.T) {
		a := makeSphere(t, r3.Vector{}, 1)
		b := makeSphere(t, r3.Vector{X: 5, Y: -2, Z: 7}, 1)
		test.That(t, a.Hash(), test.ShouldEqual, b.Hash())
	})

	t.Run("shape sensitive", func(t *testing.T) {
		a := makeSphere(t, r3.Vector{}, 1)
		b := makeSphere(t, r3.Vector{}, 1.0000001)
		test.That(t, a.Hash(), test.ShouldNotEqual, b.Hash())
	})

	t.Run("kind sensitive", func(t *testing.T) {
		s := makeSphere(t, r3.Vector{}, 1)
		b := makeBox(t, r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1}, nil)
		c := makeCapsule(t, r3.Vector{}, 1, 3)
		test.That(t, s.Hash(), test.ShouldNotEqual, b.Hash())
		test.That(t, s.Hash(), test.ShouldNotEqual, c.Hash())
		test.That(t, b.Hash(), test.ShouldNotEqual, c.Hash())
	})

	t.Run("mesh", func(t *testing.T) {
		tris := []*Triangle{NewTriangle(r3.Vector{}, r3.Vector{X: 1}, r3.Vector{Y: 1})}
		a := NewMesh(NewZeroPose(), tris, "")
		b := NewMesh(NewPoseFromPoint(r3.Vector{X: 9}), tris, "")
		test.That(t, a.Hash(), test.ShouldEqual, b.Hash())
	})
}

func TestAlmostEqual(t *testing.T) {
	a := makeSphere(t, r3.Vector{X: 1}, 1)
	b := makeSphere(t, r3.Vector{X: 1}, 1)
	c := makeSphere(t, r3.Vector{X: 1.5}, 1)
	test.That(t, a.AlmostEqual(b), test.ShouldBeTrue)
	test.That(t, a.AlmostEqual(c), test.ShouldBeFalse)

	box := makeBox(t, r3.Vector{X: 1}, r3.Vector{X: 1, Y: 1, Z: 1}, nil)
	test.That(t, a.AlmostEqual(box), test.ShouldBeFalse)
}

func TestSegmentHelpers(t *testing.T) {
	t.Run("point to segment", func(t *testing.T) {
		d := DistToLineSegment(r3.Vector{}, r3.Vector{X: 2}, r3.Vector{X: 1, Y: 3})
		test.That(t, d, test.ShouldAlmostEqual, 3, floatEpsilon)

		// Beyond the endpoint the closest point clamps.
		d = DistToLineSegment(r3.Vector{}, r3.Vector{X: 2}, r3.Vector{X: 5})
		test.That(t, d, test.ShouldAlmostEqual, 3, floatEpsilon)
	})

	t.Run("segment to segment", func(t *testing.T) {
		// Skew perpendicular segments.
		d := SegmentDistanceToSegment(
			r3.Vector{X: -1}, r3.Vector{X: 1},
			r3.Vector{Y: -1, Z: 2}, r3.Vector{Y: 1, Z: 2},
		)
		test.That(t, d, test.ShouldAlmostEqual, 2, floatEpsilon)

		// Collinear, disjoint.
		d = SegmentDistanceToSegment(
			r3.Vector{}, r3.Vector{X: 1},
			r3.Vector{X: 3}, r3.Vector{X: 4},
		)
		test.That(t, d, test.ShouldAlmostEqual, 2, floatEpsilon)

		// Crossing.
		d = SegmentDistanceToSegment(
			r3.Vector{X: -1}, r3.Vector{X: 1},
			r3.Vector{Y: -1}, r3.Vector{Y: 1},
		)
		test.That(t, d, test.ShouldAlmostEqual, 0, floatEpsilon)
	})
}
