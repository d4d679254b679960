// Package scene resolves configured object references into immutable geometric
// proxies that the detection core can evaluate. Access to the underlying scene
// graph goes through the read-only, time-parameterized Source interface; proxies
// copy out everything they need at resolution time so the core never holds a live
// reference into externally-owned state.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// PayloadKind enumerates the closed set of geometry payload variants.
type PayloadKind int

// The supported payload kinds. Primitives are evaluated in closed form by the
// narrow phase; meshes are evaluated per triangle.
const (
	KindSphere PayloadKind = iota
	KindBox
	KindCapsule
	KindPoint
	KindMesh
)

// String returns the payload kind's name.
func (k PayloadKind) String() string {
	switch k {
	case KindSphere:
		return "sphere"
	case KindBox:
		return "box"
	case KindCapsule:
		return "capsule"
	case KindPoint:
		return "point"
	case KindMesh:
		return "mesh"
	default:
		return "unknown"
	}
}

// GeometryPayload is the effective shape of a scene object, a tagged union over the
// supported kinds. Only the fields for the tagged kind are meaningful.
type GeometryPayload struct {
	Kind PayloadKind

	// sphere and capsule
	Radius float64
	// capsule
	Length float64
	// box
	Dims r3.Vector

	// mesh buffers
	Vertices []r3.Vector
	Faces    [][3]int
}

// Source is read-only, time-parameterized access to an externally-owned scene
// graph.
type Source interface {
	// GetGeometry returns the effective shape and world transform of the object at
	// the given path and time.
	GetGeometry(path string, atTime float64) (GeometryPayload, mgl64.Mat4, error)

	// ListCollectionMembers returns the paths of a named collection's members in the
	// collection's declared order.
	ListCollectionMembers(collectionPath string) ([]string, error)
}

// ErrNotFound is returned by a Source when no object exists at the given path.
var ErrNotFound = errors.New("no object at path")

// ErrNotCollection is returned by ListCollectionMembers when the path does not name
// a collection. The resolver then treats the path as a single object reference.
var ErrNotCollection = errors.New("path does not name a collection")
