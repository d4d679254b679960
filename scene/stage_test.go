package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func translation(x, y, z float64) mgl64.Mat4 {
	m := mgl64.Ident4()
	m.SetCol(3, mgl64.Vec4{x, y, z, 1})
	return m
}

func TestStageLookup(t *testing.T) {
	stage := NewStage()
	stage.AddObject(Object{
		Path:      "/world/a",
		Payload:   GeometryPayload{Kind: KindSphere, Radius: 1},
		Transform: translation(1, 2, 3),
	})

	payload, transform, err := stage.GetGeometry("/world/a", 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, payload.Kind, test.ShouldEqual, KindSphere)
	test.That(t, payload.Radius, test.ShouldEqual, 1.0)
	test.That(t, transform.At(0, 3), test.ShouldEqual, 1.0)

	_, _, err = stage.GetGeometry("/world/missing", 0)
	test.That(t, errors.Is(err, ErrNotFound), test.ShouldBeTrue)
}

func TestStageDefaultTransform(t *testing.T) {
	stage := NewStage()
	stage.AddObject(Object{Path: "/world/a", Payload: GeometryPayload{Kind: KindPoint}})

	_, transform, err := stage.GetGeometry("/world/a", 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, transform, test.ShouldResemble, mgl64.Ident4())
}

func TestStageCollections(t *testing.T) {
	stage := NewStage()
	stage.SetCollection("/groups/pipes", []string{"/world/p1", "/world/p2"})

	members, err := stage.ListCollectionMembers("/groups/pipes")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, members, test.ShouldResemble, []string{"/world/p1", "/world/p2"})

	_, err = stage.ListCollectionMembers("/world/p1")
	test.That(t, errors.Is(err, ErrNotCollection), test.ShouldBeTrue)
}

func TestStageKeyframes(t *testing.T) {
	stage := NewStage()
	stage.AddObject(Object{
		Path:    "/world/mover",
		Payload: GeometryPayload{Kind: KindSphere, Radius: 1},
		Keyframes: []Keyframe{
			{Time: 0, Transform: translation(0, 0, 0)},
			{Time: 10, Transform: translation(10, 0, 0)},
		},
	})

	xAt := func(atTime float64) float64 {
		_, transform, err := stage.GetGeometry("/world/mover", atTime)
		test.That(t, err, test.ShouldBeNil)
		return transform.At(0, 3)
	}

	t.Run("interpolates between keyframes", func(t *testing.T) {
		test.That(t, xAt(5), test.ShouldAlmostEqual, 5, 1e-9)
		test.That(t, xAt(2.5), test.ShouldAlmostEqual, 2.5, 1e-9)
	})

	t.Run("clamps outside the range", func(t *testing.T) {
		test.That(t, xAt(-1), test.ShouldEqual, 0.0)
		test.That(t, xAt(99), test.ShouldEqual, 10.0)
	})

	t.Run("exact keyframe times", func(t *testing.T) {
		test.That(t, xAt(0), test.ShouldEqual, 0.0)
		test.That(t, xAt(10), test.ShouldEqual, 10.0)
	})
}

func TestStageAddObjectLeavesKeyframesAlone(t *testing.T) {
	stage := NewStage()
	// Out-of-order keyframes are sorted internally without reordering the
	// caller's slice.
	keyframes := []Keyframe{
		{Time: 10, Transform: translation(10, 0, 0)},
		{Time: 0, Transform: translation(0, 0, 0)},
	}
	stage.AddObject(Object{
		Path:      "/world/mover",
		Payload:   GeometryPayload{Kind: KindSphere, Radius: 1},
		Keyframes: keyframes,
	})

	test.That(t, keyframes[0].Time, test.ShouldEqual, 10.0)
	test.That(t, keyframes[1].Time, test.ShouldEqual, 0.0)

	_, transform, err := stage.GetGeometry("/world/mover", 5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, transform.At(0, 3), test.ShouldAlmostEqual, 5, 1e-9)
}

func TestStageKeyframeRotationInterpolation(t *testing.T) {
	rotZ := func(angle float64) mgl64.Mat4 {
		return mgl64.Rotate3DZ(angle).Mat4()
	}

	stage := NewStage()
	stage.AddObject(Object{
		Path:    "/world/spinner",
		Payload: GeometryPayload{Kind: KindBox, Dims: r3.Vector{X: 1, Y: 1, Z: 1}},
		Keyframes: []Keyframe{
			{Time: 0, Transform: rotZ(0)},
			{Time: 1, Transform: rotZ(mgl64.DegToRad(90))},
		},
	})

	_, transform, err := stage.GetGeometry("/world/spinner", 0.5)
	test.That(t, err, test.ShouldBeNil)

	// Slerp at the midpoint of a quarter turn is a 45 degree rotation.
	want := rotZ(mgl64.DegToRad(45))
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			test.That(t, transform.At(i, j), test.ShouldAlmostEqual, want.At(i, j), 1e-9)
		}
	}
}

func TestStageRemoveObject(t *testing.T) {
	stage := NewStage()
	stage.AddObject(Object{Path: "/world/a", Payload: GeometryPayload{Kind: KindPoint}})
	stage.SetCollection("/groups/all", []string{"/world/a"})

	stage.RemoveObject("/world/a")
	_, _, err := stage.GetGeometry("/world/a", 0)
	test.That(t, errors.Is(err, ErrNotFound), test.ShouldBeTrue)

	// The collection still lists the removed member; resolution warns instead.
	members, err := stage.ListCollectionMembers("/groups/all")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, members, test.ShouldResemble, []string{"/world/a"})
}
