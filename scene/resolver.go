package scene

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/spatialsuite/clashcore/spatialmath"
)

// Proxy is an evaluable stand-in for a scene object at a point in time: a stable
// identity key, an immutable geometry in world space, and a content hash over the
// intrinsic shape used for duplicate detection. Proxies are created per detection
// run (per sampled time in dynamic mode) and discarded when the run completes.
type Proxy struct {
	// Key is the identity of the source object, its scene path.
	Key string

	// Geometry is the resolved shape in world space.
	Geometry spatialmath.Geometry

	// Hash is a content hash over the intrinsic shape, excluding the world
	// transform. Two proxies with equal hashes and equal world poses represent the
	// same physical instance.
	Hash uint64
}

// Warning records a non-fatal resolution problem, such as a missing collection
// member or degenerate geometry.
type Warning struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Path, w.Reason)
}

// UnresolvedReferenceError is returned in strict mode when a non-empty reference
// set resolves to zero proxies.
type UnresolvedReferenceError struct {
	Reference string
	Warnings  []Warning
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("reference %q resolved to zero proxies (%d warnings)", e.Reference, len(e.Warnings))
}

// Resolver turns configured references into proxies using a Source.
type Resolver struct {
	source Source

	// Strict makes resolution fail with UnresolvedReferenceError when a non-empty
	// reference yields zero proxies. Otherwise resolution proceeds with a partial
	// set.
	Strict bool
}

// NewResolver returns a resolver reading from the given source.
func NewResolver(source Source, strict bool) *Resolver {
	return &Resolver{source: source, Strict: strict}
}

// Resolve expands a reference, an object path or a collection of paths, into one
// proxy per resolvable member at the given time. Members that no longer exist or
// carry degenerate geometry are skipped and reported as warnings.
func (r *Resolver) Resolve(reference string, atTime float64) ([]Proxy, []Warning, error) {
	members, err := r.source.ListCollectionMembers(reference)
	switch {
	case errors.Is(err, ErrNotCollection):
		members = []string{reference}
	case err != nil:
		return nil, nil, errors.Wrapf(err, "listing members of %q", reference)
	}

	var warnings []Warning
	proxies := make([]Proxy, 0, len(members))
	for _, path := range members {
		payload, transform, err := r.source.GetGeometry(path, atTime)
		if errors.Is(err, ErrNotFound) {
			warnings = append(warnings, Warning{Path: path, Reason: "object no longer exists"})
			continue
		} else if err != nil {
			return nil, warnings, errors.Wrapf(err, "getting geometry for %q", path)
		}

		geom, warn, err := buildGeometry(path, payload, spatialmath.NewPoseFromMat4(transform))
		if err != nil {
			return nil, warnings, err
		}
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		if geom == nil {
			continue
		}
		proxies = append(proxies, Proxy{Key: path, Geometry: geom, Hash: geom.Hash()})
	}

	if r.Strict && len(members) > 0 && len(proxies) == 0 {
		return nil, warnings, &UnresolvedReferenceError{Reference: reference, Warnings: warnings}
	}
	return proxies, warnings, nil
}

// buildGeometry converts a payload into a world-space geometry. Degenerate payloads
// come back as a nil geometry plus a warning instead of an error so that resolution
// can continue with the rest of the set.
func buildGeometry(path string, payload GeometryPayload, pose spatialmath.Pose) (spatialmath.Geometry, *Warning, error) {
	switch payload.Kind {
	case KindSphere:
		g, err := spatialmath.NewSphere(pose, payload.Radius, path)
		if err != nil {
			return nil, &Warning{Path: path, Reason: "degenerate sphere: " + err.Error()}, nil
		}
		return g, nil, nil
	case KindBox:
		if payload.Dims.X <= 0 && payload.Dims.Y <= 0 && payload.Dims.Z <= 0 {
			return nil, &Warning{Path: path, Reason: "degenerate box: zero volume"}, nil
		}
		g, err := spatialmath.NewBox(pose, payload.Dims, path)
		if err != nil {
			return nil, &Warning{Path: path, Reason: "degenerate box: " + err.Error()}, nil
		}
		return g, nil, nil
	case KindCapsule:
		g, err := spatialmath.NewCapsule(pose, payload.Radius, payload.Length, path)
		if err != nil {
			return nil, &Warning{Path: path, Reason: "degenerate capsule: " + err.Error()}, nil
		}
		return g, nil, nil
	case KindPoint:
		return spatialmath.NewPoint(pose.Point(), path), nil, nil
	case KindMesh:
		if len(payload.Faces) == 0 {
			return nil, &Warning{Path: path, Reason: "degenerate mesh: no faces"}, nil
		}
		m, err := spatialmath.NewMeshFromBuffers(pose, payload.Vertices, payload.Faces, path)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "building mesh for %q", path)
		}
		if n := countDegenerateTriangles(m); n > 0 {
			warn := &Warning{Path: path, Reason: fmt.Sprintf("mesh has %d zero-area triangles, skipped", n)}
			if n == len(m.Triangles()) {
				warn.Reason = "degenerate mesh: all triangles have zero area"
				return nil, warn, nil
			}
			return m, warn, nil
		}
		return m, nil, nil
	default:
		return nil, nil, errors.Errorf("unsupported payload kind %v for %q", payload.Kind, path)
	}
}

func countDegenerateTriangles(m *spatialmath.Mesh) int {
	count := 0
	for _, t := range m.Triangles() {
		if t.Area() == 0 {
			count++
		}
	}
	return count
}
