package spatialmath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestPoseMat4RoundTrip(t *testing.T) {
	rot := NewRotationMatrixFromEuler(0.3, -0.7, 1.1)
	pose := NewPose(r3.Vector{X: 1, Y: -2, Z: 3}, rot)

	back := NewPoseFromMat4(pose.Mat4())
	test.That(t, PoseAlmostEqual(pose, back), test.ShouldBeTrue)
}

func TestPoseTransformPoint(t *testing.T) {
	t.Run("translation only", func(t *testing.T) {
		pose := NewPoseFromPoint(r3.Vector{X: 1, Y: 2, Z: 3})
		out := pose.TransformPoint(r3.Vector{X: 1})
		test.That(t, R3VectorAlmostEqual(out, r3.Vector{X: 2, Y: 2, Z: 3}, floatEpsilon), test.ShouldBeTrue)
	})

	t.Run("yaw quarter turn", func(t *testing.T) {
		pose := NewPose(r3.Vector{}, NewRotationMatrixFromEuler(0, 0, math.Pi/2))
		out := pose.TransformPoint(r3.Vector{X: 1})
		test.That(t, R3VectorAlmostEqual(out, r3.Vector{Y: 1}, floatEpsilon), test.ShouldBeTrue)
	})

	t.Run("roll quarter turn", func(t *testing.T) {
		pose := NewPose(r3.Vector{}, NewRotationMatrixFromEuler(math.Pi/2, 0, 0))
		out := pose.TransformPoint(r3.Vector{Y: 1})
		test.That(t, R3VectorAlmostEqual(out, r3.Vector{Z: 1}, floatEpsilon), test.ShouldBeTrue)
	})
}

func TestPoseCompose(t *testing.T) {
	a := NewPose(r3.Vector{X: 1}, NewRotationMatrixFromEuler(0, 0, math.Pi/2))
	b := NewPoseFromPoint(r3.Vector{X: 1})

	// Composing applies b in a's frame: a's rotation turns b's offset onto y.
	composed := Compose(a, b)
	test.That(t, R3VectorAlmostEqual(composed.Point(), r3.Vector{X: 1, Y: 1}, floatEpsilon), test.ShouldBeTrue)

	// Composition against identity is a no-op.
	test.That(t, PoseAlmostEqual(Compose(a, NewZeroPose()), a), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(Compose(NewZeroPose(), a), a), test.ShouldBeTrue)
}

func TestPoseFromMat4Translation(t *testing.T) {
	m := mgl64.Ident4()
	m.SetCol(3, mgl64.Vec4{4, 5, 6, 1})
	pose := NewPoseFromMat4(m)
	test.That(t, R3VectorAlmostEqual(pose.Point(), r3.Vector{X: 4, Y: 5, Z: 6}, floatEpsilon), test.ShouldBeTrue)
}

func TestPoseAlmostEqualEps(t *testing.T) {
	a := NewPoseFromPoint(r3.Vector{X: 1})
	b := NewPoseFromPoint(r3.Vector{X: 1 + 1e-12})
	c := NewPoseFromPoint(r3.Vector{X: 1.001})

	test.That(t, PoseAlmostEqualEps(a, b, 1e-9), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqualEps(a, c, 1e-9), test.ShouldBeFalse)
	test.That(t, PoseAlmostEqualEps(a, c, 0.01), test.ShouldBeTrue)
}

func TestRotationMatrixMulVec(t *testing.T) {
	rm := NewRotationMatrixFromEuler(0, 0, math.Pi/2)
	out := rm.MulVec(r3.Vector{X: 1})
	test.That(t, R3VectorAlmostEqual(out, r3.Vector{Y: 1}, floatEpsilon), test.ShouldBeTrue)

	// Composition of two quarter turns is a half turn.
	half := rm.Mul(rm)
	out = half.MulVec(r3.Vector{X: 1})
	test.That(t, R3VectorAlmostEqual(out, r3.Vector{X: -1}, floatEpsilon), test.ShouldBeTrue)
}

func TestGeometryTransform(t *testing.T) {
	s, err := NewSphere(NewPoseFromPoint(r3.Vector{X: 1}), 1, "ball")
	test.That(t, err, test.ShouldBeNil)

	moved := s.Transform(NewPoseFromPoint(r3.Vector{Y: 2}))
	test.That(t, R3VectorAlmostEqual(moved.Pose().Point(), r3.Vector{X: 1, Y: 2}, floatEpsilon), test.ShouldBeTrue)
	test.That(t, moved.Label(), test.ShouldEqual, "ball")

	// The original geometry is untouched.
	test.That(t, R3VectorAlmostEqual(s.Pose().Point(), r3.Vector{X: 1}, floatEpsilon), test.ShouldBeTrue)
}
