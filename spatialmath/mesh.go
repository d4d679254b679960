package spatialmath

import (
	"fmt"
	"math"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Mesh is a collision geometry that represents a set of triangles. Triangle points
// are stored in the frame of the mesh, like the corners of a box, and are moved
// through space by the mesh's pose.
//
// IMPORTANT: meshes are not considered solid. A mesh is not guaranteed to represent
// an enclosed volume, so distances are measured to the closest triangle, and two
// intersecting meshes report a distance of zero rather than a penetration depth.
type Mesh struct {
	pose      Pose
	triangles []*Triangle
	label     string

	// World-frame triangles and their bounds are computed lazily and cached; a Mesh
	// is immutable after construction so this is safe to share.
	once       sync.Once
	world      []*Triangle
	worldAABBs []AABB
}

// NewMesh creates a mesh from the given triangles.
func NewMesh(pose Pose, triangles []*Triangle, label string) *Mesh {
	return &Mesh{pose: pose, triangles: triangles, label: label}
}

// NewMeshFromBuffers creates a mesh from a vertex buffer and a triangle index
// buffer, the layout meshes arrive in from scene payloads.
func NewMeshFromBuffers(pose Pose, vertices []r3.Vector, indices [][3]int, label string) (*Mesh, error) {
	triangles := make([]*Triangle, 0, len(indices))
	for _, idx := range indices {
		for _, i := range idx {
			if i < 0 || i >= len(vertices) {
				return nil, errors.Errorf("mesh triangle index %d out of range for %d vertices", i, len(vertices))
			}
		}
		triangles = append(triangles, NewTriangle(vertices[idx[0]], vertices[idx[1]], vertices[idx[2]]))
	}
	return NewMesh(pose, triangles, label), nil
}

// String returns a human readable string that represents the mesh.
func (m *Mesh) String() string {
	return fmt.Sprintf("Type: Mesh, Triangles: %d", len(m.triangles))
}

// Label returns the label of this mesh.
func (m *Mesh) Label() string {
	return m.label
}

// SetLabel sets the label of this mesh.
func (m *Mesh) SetLabel(label string) {
	m.label = label
}

// Pose returns the pose of the mesh.
func (m *Mesh) Pose() Pose {
	return m.pose
}

// Triangles returns the triangles of the mesh in the mesh's own frame.
func (m *Mesh) Triangles() []*Triangle {
	return m.triangles
}

// Hash returns a content hash over the mesh's local-frame triangle data.
func (m *Mesh) Hash() uint64 {
	sh := newShapeHasher("mesh")
	for _, t := range m.triangles {
		sh.addVector(t.p0)
		sh.addVector(t.p1)
		sh.addVector(t.p2)
	}
	return sh.sum()
}

// AlmostEqual compares the mesh with another geometry and checks if they are equivalent.
func (m *Mesh) AlmostEqual(g Geometry) bool {
	other, ok := g.(*Mesh)
	if !ok || len(m.triangles) != len(other.triangles) {
		return false
	}
	if !PoseAlmostEqualEps(m.pose, other.pose, 1e-6) {
		return false
	}
	for i, t := range m.triangles {
		o := other.triangles[i]
		if !R3VectorAlmostEqual(t.p0, o.p0, 1e-8) ||
			!R3VectorAlmostEqual(t.p1, o.p1, 1e-8) ||
			!R3VectorAlmostEqual(t.p2, o.p2, 1e-8) {
			return false
		}
	}
	return true
}

// Transform premultiplies the mesh pose with a transform, allowing the mesh to be
// moved in space. Triangle data is shared with the receiver.
func (m *Mesh) Transform(pose Pose) Geometry {
	return NewMesh(Compose(pose, m.pose), m.triangles, m.label)
}

// AABB returns the axis-aligned bounding box enclosing all of the mesh's triangles
// in world space.
func (m *Mesh) AABB() AABB {
	m.ensureWorld()
	bb := AABB{
		Min: r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		Max: r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	for _, t := range m.world {
		bb = NewAABBFromPoints(append(t.Points(), bb.Min, bb.Max))
	}
	return bb
}

// worldTriangles returns the mesh's triangles transformed into world space.
func (m *Mesh) worldTriangles() []*Triangle {
	m.ensureWorld()
	return m.world
}

func (m *Mesh) ensureWorld() {
	m.once.Do(func() {
		m.world = make([]*Triangle, 0, len(m.triangles))
		m.worldAABBs = make([]AABB, 0, len(m.triangles))
		for _, t := range m.triangles {
			wt := t.Transform(m.pose)
			m.world = append(m.world, wt)
			m.worldAABBs = append(m.worldAABBs, wt.AABB())
		}
	})
}

// CollidesWith checks if the given mesh collides with the given geometry and returns
// true if it does.
func (m *Mesh) CollidesWith(g Geometry, collisionBuffer float64) (bool, error) {
	dist, err := m.DistanceFrom(g)
	if err != nil {
		return true, err
	}
	return dist <= collisionBuffer, nil
}

// DistanceFrom returns the minimum separation between the mesh and the given
// geometry, measured to the mesh's closest triangle.
func (m *Mesh) DistanceFrom(g Geometry) (float64, error) {
	switch other := g.(type) {
	case *Mesh:
		return meshVsMeshDistance(m, other), nil
	case *box:
		return meshVsMeshDistance(m, other.toMesh()), nil
	case *sphere:
		return meshVsPointDistance(m, other.pose.Point()) - other.radius, nil
	case *capsule:
		return capsuleVsMeshDistance(other, m), nil
	case *point:
		return meshVsPointDistance(m, other.position), nil
	default:
		return math.Inf(-1), newCollisionTypeUnsupportedError(m, g)
	}
}

func meshVsPointDistance(m *Mesh, pt r3.Vector) float64 {
	lowDist := math.Inf(1)
	for _, t := range m.worldTriangles() {
		if t.Area() == 0 {
			continue
		}
		if dist := t.ClosestPointToPoint(pt).Sub(pt).Norm(); dist < lowDist {
			lowDist = dist
		}
	}
	return lowDist
}

// meshVsMeshDistance computes the minimum distance over all triangle pairs. Each
// triangle's bounding box acts as a secondary broad phase: a pair is only evaluated
// when its bounds could beat the best distance found so far.
func meshVsMeshDistance(a, b *Mesh) float64 {
	a.ensureWorld()
	b.ensureWorld()

	lowDist := math.Inf(1)
	for i, at := range a.world {
		if at.Area() == 0 {
			continue
		}
		abb := a.worldAABBs[i]
		for j, bt := range b.world {
			if bt.Area() == 0 {
				continue
			}
			if abb.DistanceLowerBound(b.worldAABBs[j]) >= lowDist {
				continue
			}
			if dist := triangleVsTriangleDistance(at, bt); dist < lowDist {
				lowDist = dist
				if lowDist == 0 {
					return 0
				}
			}
		}
	}
	return lowDist
}

// triangleVsTriangleDistance returns the minimum distance between two triangles,
// zero if they touch or intersect. Checking each edge of one triangle against the
// other triangle covers all closest-feature configurations, including an edge
// passing through the other triangle's interior.
func triangleVsTriangleDistance(a, b *Triangle) float64 {
	lowDist := math.Inf(1)
	for _, edge := range [3][2]r3.Vector{{a.p0, a.p1}, {a.p1, a.p2}, {a.p2, a.p0}} {
		sp, tp := closestPointsSegmentTriangle(edge[0], edge[1], b)
		if dist := sp.Sub(tp).Norm(); dist < lowDist {
			lowDist = dist
		}
	}
	for _, edge := range [3][2]r3.Vector{{b.p0, b.p1}, {b.p1, b.p2}, {b.p2, b.p0}} {
		sp, tp := closestPointsSegmentTriangle(edge[0], edge[1], a)
		if dist := sp.Sub(tp).Norm(); dist < lowDist {
			lowDist = dist
		}
	}
	if lowDist < 1e-9 {
		return 0
	}
	return lowDist
}
