// Package spatialmath defines the geometric primitives and distance math used by the
// clash detection core. Geometries are immutable once constructed; Transform returns
// a new Geometry rather than mutating the receiver.
package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
)

// Pose is a rigid transform in 3D space, a rotation followed by a translation.
type Pose struct {
	translation r3.Vector
	rotation    *RotationMatrix
}

// NewZeroPose returns the identity pose.
func NewZeroPose() Pose {
	return Pose{rotation: identityRotationMatrix()}
}

// NewPose returns a pose with the given translation and rotation.
func NewPose(point r3.Vector, rotation *RotationMatrix) Pose {
	if rotation == nil {
		rotation = identityRotationMatrix()
	}
	return Pose{translation: point, rotation: rotation}
}

// NewPoseFromPoint returns a pure translation pose.
func NewPoseFromPoint(point r3.Vector) Pose {
	return Pose{translation: point, rotation: identityRotationMatrix()}
}

// NewPoseFromMat4 builds a pose from a 4x4 affine transform in column-major mgl64
// layout. Any scale or shear present in the upper 3x3 is carried through verbatim;
// callers resolving scene transforms are expected to supply rigid transforms.
func NewPoseFromMat4(m mgl64.Mat4) Pose {
	rm := &RotationMatrix{mat: [9]float64{
		m.At(0, 0), m.At(0, 1), m.At(0, 2),
		m.At(1, 0), m.At(1, 1), m.At(1, 2),
		m.At(2, 0), m.At(2, 1), m.At(2, 2),
	}}
	return Pose{
		translation: r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)},
		rotation:    rm,
	}
}

// Mat4 returns the pose as a 4x4 affine transform.
func (p Pose) Mat4() mgl64.Mat4 {
	rm := p.Orientation()
	return mgl64.Mat4FromRows(
		mgl64.Vec4{rm.mat[0], rm.mat[1], rm.mat[2], p.translation.X},
		mgl64.Vec4{rm.mat[3], rm.mat[4], rm.mat[5], p.translation.Y},
		mgl64.Vec4{rm.mat[6], rm.mat[7], rm.mat[8], p.translation.Z},
		mgl64.Vec4{0, 0, 0, 1},
	)
}

// Point returns the translation component of the pose.
func (p Pose) Point() r3.Vector {
	return p.translation
}

// Orientation returns the rotation component of the pose.
func (p Pose) Orientation() *RotationMatrix {
	if p.rotation == nil {
		return identityRotationMatrix()
	}
	return p.rotation
}

// TransformPoint applies the pose to a point.
func (p Pose) TransformPoint(pt r3.Vector) r3.Vector {
	return p.Orientation().MulVec(pt).Add(p.translation)
}

// Compose returns the pose equivalent to applying b then a.
func Compose(a, b Pose) Pose {
	return Pose{
		translation: a.TransformPoint(b.translation),
		rotation:    a.Orientation().Mul(b.Orientation()),
	}
}

// PoseAlmostEqual checks pose equality to within a default epsilon.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-9)
}

// PoseAlmostEqualEps checks that every translation and rotation component of two
// poses matches to within eps.
func PoseAlmostEqualEps(a, b Pose, eps float64) bool {
	if !R3VectorAlmostEqual(a.translation, b.translation, eps) {
		return false
	}
	ra, rb := a.Orientation(), b.Orientation()
	for i := range ra.mat {
		if math.Abs(ra.mat[i]-rb.mat[i]) > eps {
			return false
		}
	}
	return true
}

// RotationMatrix is a 3x3 rotation matrix stored row-major.
type RotationMatrix struct {
	mat [9]float64
}

func identityRotationMatrix() *RotationMatrix {
	return &RotationMatrix{mat: [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// NewRotationMatrix constructs a rotation matrix from 9 row-major values.
func NewRotationMatrix(mat [9]float64) *RotationMatrix {
	return &RotationMatrix{mat: mat}
}

// NewRotationMatrixFromEuler builds a rotation from extrinsic XYZ euler angles in
// radians, the convention used by the scene YAML loader.
func NewRotationMatrixFromEuler(roll, pitch, yaw float64) *RotationMatrix {
	m := mgl64.Rotate3DZ(yaw).Mul3(mgl64.Rotate3DY(pitch)).Mul3(mgl64.Rotate3DX(roll))
	return &RotationMatrix{mat: [9]float64{
		m.At(0, 0), m.At(0, 1), m.At(0, 2),
		m.At(1, 0), m.At(1, 1), m.At(1, 2),
		m.At(2, 0), m.At(2, 1), m.At(2, 2),
	}}
}

// Row returns the ith row of the matrix as a vector.
func (rm *RotationMatrix) Row(i int) r3.Vector {
	return r3.Vector{X: rm.mat[3*i], Y: rm.mat[3*i+1], Z: rm.mat[3*i+2]}
}

// MulVec rotates a vector by the matrix.
func (rm *RotationMatrix) MulVec(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: rm.mat[0]*v.X + rm.mat[1]*v.Y + rm.mat[2]*v.Z,
		Y: rm.mat[3]*v.X + rm.mat[4]*v.Y + rm.mat[5]*v.Z,
		Z: rm.mat[6]*v.X + rm.mat[7]*v.Y + rm.mat[8]*v.Z,
	}
}

// Mul returns the matrix product rm * other.
func (rm *RotationMatrix) Mul(other *RotationMatrix) *RotationMatrix {
	a, b := rm.mat, other.mat
	return &RotationMatrix{mat: [9]float64{
		a[0]*b[0] + a[1]*b[3] + a[2]*b[6], a[0]*b[1] + a[1]*b[4] + a[2]*b[7], a[0]*b[2] + a[1]*b[5] + a[2]*b[8],
		a[3]*b[0] + a[4]*b[3] + a[5]*b[6], a[3]*b[1] + a[4]*b[4] + a[5]*b[7], a[3]*b[2] + a[4]*b[5] + a[5]*b[8],
		a[6]*b[0] + a[7]*b[3] + a[8]*b[6], a[6]*b[1] + a[7]*b[4] + a[8]*b[7], a[6]*b[2] + a[7]*b[5] + a[8]*b[8],
	}}
}
