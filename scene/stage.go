package scene

import (
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Keyframe is a world transform at a point in time.
type Keyframe struct {
	Time      float64
	Transform mgl64.Mat4
}

// Object is a single scene object held by a Stage: a geometry payload plus either a
// static transform or a set of keyframes sampled over time.
type Object struct {
	Path    string
	Payload GeometryPayload

	// Transform is the static world transform, used when Keyframes is empty.
	Transform mgl64.Mat4

	// Keyframes, when present, define a transform-animated object. Lookups outside
	// the keyframed range clamp to the first/last keyframe; lookups between
	// keyframes interpolate (lerp translation, slerp rotation).
	Keyframes []Keyframe
}

// Stage is an in-memory Source implementation used by tests and the CLI. It is safe
// for concurrent reads once populated.
type Stage struct {
	mu          sync.RWMutex
	objects     map[string]*Object
	collections map[string][]string
}

// NewStage returns an empty stage.
func NewStage() *Stage {
	return &Stage{
		objects:     map[string]*Object{},
		collections: map[string][]string{},
	}
}

// AddObject adds or replaces an object. Objects with no keyframes and a zero
// transform get the identity transform.
func (s *Stage) AddObject(obj Object) {
	if len(obj.Keyframes) == 0 && obj.Transform == (mgl64.Mat4{}) {
		obj.Transform = mgl64.Ident4()
	}
	// Sort a copy so the caller's slice is left untouched.
	keyframes := append([]Keyframe(nil), obj.Keyframes...)
	sort.SliceStable(keyframes, func(i, j int) bool { return keyframes[i].Time < keyframes[j].Time })
	obj.Keyframes = keyframes
	s.mu.Lock()
	s.objects[obj.Path] = &obj
	s.mu.Unlock()
}

// RemoveObject deletes an object; collection membership lists are left untouched so
// that stale members exercise the resolver's missing-member path.
func (s *Stage) RemoveObject(path string) {
	s.mu.Lock()
	delete(s.objects, path)
	s.mu.Unlock()
}

// SetCollection defines a named, ordered collection of object paths.
func (s *Stage) SetCollection(path string, members []string) {
	s.mu.Lock()
	s.collections[path] = append([]string(nil), members...)
	s.mu.Unlock()
}

// GetGeometry implements Source.
func (s *Stage) GetGeometry(path string, atTime float64) (GeometryPayload, mgl64.Mat4, error) {
	s.mu.RLock()
	obj, ok := s.objects[path]
	s.mu.RUnlock()
	if !ok {
		return GeometryPayload{}, mgl64.Mat4{}, errors.Wrap(ErrNotFound, path)
	}
	return obj.Payload, obj.transformAt(atTime), nil
}

// ListCollectionMembers implements Source.
func (s *Stage) ListCollectionMembers(collectionPath string) ([]string, error) {
	s.mu.RLock()
	members, ok := s.collections[collectionPath]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.Wrap(ErrNotCollection, collectionPath)
	}
	return append([]string(nil), members...), nil
}

func (o *Object) transformAt(atTime float64) mgl64.Mat4 {
	if len(o.Keyframes) == 0 {
		return o.Transform
	}
	frames := o.Keyframes
	if atTime <= frames[0].Time {
		return frames[0].Transform
	}
	if atTime >= frames[len(frames)-1].Time {
		return frames[len(frames)-1].Transform
	}
	hi := sort.Search(len(frames), func(i int) bool { return frames[i].Time >= atTime })
	lo := hi - 1
	span := frames[hi].Time - frames[lo].Time
	if span <= 0 {
		return frames[hi].Transform
	}
	return interpolateTransform(frames[lo].Transform, frames[hi].Transform, (atTime-frames[lo].Time)/span)
}

// interpolateTransform blends two rigid transforms, lerping the translation and
// slerping the rotation.
func interpolateTransform(a, b mgl64.Mat4, amount float64) mgl64.Mat4 {
	ta := a.Col(3).Vec3()
	tb := b.Col(3).Vec3()
	translation := ta.Add(tb.Sub(ta).Mul(amount))

	qa := mgl64.Mat4ToQuat(a)
	qb := mgl64.Mat4ToQuat(b)
	out := mgl64.QuatSlerp(qa, qb, amount).Mat4()
	out.SetCol(3, translation.Vec4(1))
	return out
}
