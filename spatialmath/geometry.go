package spatialmath

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"math"

	"github.com/golang/geo/r3"
)

// Geometry is an entry point with which to access all types of collision geometries.
// Implementations are immutable; Transform returns a new Geometry.
type Geometry interface {
	// Pose returns the world pose of the geometry.
	Pose() Pose

	// Transform premultiplies the geometry pose with a transform, allowing the
	// geometry to be moved in space.
	Transform(Pose) Geometry

	// CollidesWith returns whether the geometry is within collisionBuffer of the
	// other geometry.
	CollidesWith(g Geometry, collisionBuffer float64) (bool, error)

	// DistanceFrom returns the minimum signed separation distance to the other
	// geometry. A nonpositive value is the penetration depth of two overlapping
	// geometries.
	DistanceFrom(Geometry) (float64, error)

	// AABB returns the world-axis-aligned bounding box of the geometry.
	AABB() AABB

	// Hash returns a content hash over the intrinsic shape of the geometry. The
	// pose is deliberately excluded so that two instances of the same shape hash
	// identically regardless of placement.
	Hash() uint64

	AlmostEqual(Geometry) bool
	Label() string
	SetLabel(string)
	String() string
}

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Min r3.Vector
	Max r3.Vector
}

// NewAABBFromPoints returns the smallest AABB containing all the given points.
func NewAABBFromPoints(pts []r3.Vector) AABB {
	bb := AABB{
		Min: r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	for _, pt := range pts {
		bb.Min.X = math.Min(bb.Min.X, pt.X)
		bb.Min.Y = math.Min(bb.Min.Y, pt.Y)
		bb.Min.Z = math.Min(bb.Min.Z, pt.Z)
		bb.Max.X = math.Max(bb.Max.X, pt.X)
		bb.Max.Y = math.Max(bb.Max.Y, pt.Y)
		bb.Max.Z = math.Max(bb.Max.Z, pt.Z)
	}
	return bb
}

// Inflate returns the AABB expanded by d on every side.
func (bb AABB) Inflate(d float64) AABB {
	off := r3.Vector{X: d, Y: d, Z: d}
	return AABB{Min: bb.Min.Sub(off), Max: bb.Max.Add(off)}
}

// Intersects returns whether two AABBs overlap or touch.
func (bb AABB) Intersects(other AABB) bool {
	return bb.Min.X <= other.Max.X && bb.Max.X >= other.Min.X &&
		bb.Min.Y <= other.Max.Y && bb.Max.Y >= other.Min.Y &&
		bb.Min.Z <= other.Max.Z && bb.Max.Z >= other.Min.Z
}

// DistanceLowerBound returns the distance between two AABBs, zero if they overlap.
// This is a lower bound on the distance between any geometries they contain.
func (bb AABB) DistanceLowerBound(other AABB) float64 {
	dx := math.Max(0, math.Max(other.Min.X-bb.Max.X, bb.Min.X-other.Max.X))
	dy := math.Max(0, math.Max(other.Min.Y-bb.Max.Y, bb.Min.Y-other.Max.Y))
	dz := math.Max(0, math.Max(other.Min.Z-bb.Max.Z, bb.Min.Z-other.Max.Z))
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Center returns the center point of the AABB.
func (bb AABB) Center() r3.Vector {
	return bb.Min.Add(bb.Max).Mul(0.5)
}

// Size returns the extents of the AABB along each axis.
func (bb AABB) Size() r3.Vector {
	return bb.Max.Sub(bb.Min)
}

// shapeHasher accumulates intrinsic shape parameters into a content hash.
type shapeHasher struct {
	buf [8]byte
	h   hash.Hash64
}

func newShapeHasher(kind string) *shapeHasher {
	sh := &shapeHasher{h: fnv.New64a()}
	sh.h.Write([]byte(kind))
	return sh
}

func (sh *shapeHasher) addFloat(f float64) {
	binary.LittleEndian.PutUint64(sh.buf[:], math.Float64bits(f))
	sh.h.Write(sh.buf[:])
}

func (sh *shapeHasher) addVector(v r3.Vector) {
	sh.addFloat(v.X)
	sh.addFloat(v.Y)
	sh.addFloat(v.Z)
}

func (sh *shapeHasher) sum() uint64 {
	return sh.h.Sum64()
}
