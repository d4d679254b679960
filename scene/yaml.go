package scene

import (
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/spatialsuite/clashcore/spatialmath"
)

// StageConfig is the YAML description of a stage, the scene format the CLI
// consumes. Exactly one shape block must be set per object.
type StageConfig struct {
	Objects     []ObjectConfig      `yaml:"objects"`
	Collections map[string][]string `yaml:"collections"`
}

// ObjectConfig describes one object: a shape, a base placement, and optional
// transform keyframes.
type ObjectConfig struct {
	Path string `yaml:"path"`

	Sphere  *SphereConfig  `yaml:"sphere,omitempty"`
	Box     *BoxConfig     `yaml:"box,omitempty"`
	Capsule *CapsuleConfig `yaml:"capsule,omitempty"`
	Point   *struct{}      `yaml:"point,omitempty"`
	Mesh    *MeshConfig    `yaml:"mesh,omitempty"`

	Translate []float64        `yaml:"translate,omitempty"` // xyz
	Rotate    []float64        `yaml:"rotate,omitempty"`    // euler xyz, degrees
	Keyframes []KeyframeConfig `yaml:"keyframes,omitempty"`
}

// SphereConfig holds sphere shape parameters.
type SphereConfig struct {
	Radius float64 `yaml:"radius"`
}

// BoxConfig holds box shape parameters.
type BoxConfig struct {
	Dims []float64 `yaml:"dims"` // full extents, xyz
}

// CapsuleConfig holds capsule shape parameters.
type CapsuleConfig struct {
	Radius float64 `yaml:"radius"`
	Length float64 `yaml:"length"`
}

// MeshConfig holds triangle mesh buffers.
type MeshConfig struct {
	Vertices [][]float64 `yaml:"vertices"`
	Faces    [][]int     `yaml:"faces"`
}

// KeyframeConfig is one transform sample of an animated object.
type KeyframeConfig struct {
	Time      float64   `yaml:"time"`
	Translate []float64 `yaml:"translate,omitempty"`
	Rotate    []float64 `yaml:"rotate,omitempty"`
}

// LoadStageConfig reads a StageConfig from YAML.
func LoadStageConfig(r io.Reader) (*StageConfig, error) {
	var cfg StageConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding stage config")
	}
	return &cfg, nil
}

// LoadStageFile builds a Stage from a YAML file.
func LoadStageFile(path string) (*Stage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening stage file %q", path)
	}
	defer f.Close()
	cfg, err := LoadStageConfig(f)
	if err != nil {
		return nil, err
	}
	return cfg.Build()
}

// Build converts the config into a populated Stage.
func (cfg *StageConfig) Build() (*Stage, error) {
	stage := NewStage()
	for _, oc := range cfg.Objects {
		obj, err := oc.build()
		if err != nil {
			return nil, err
		}
		stage.AddObject(*obj)
	}
	for path, members := range cfg.Collections {
		stage.SetCollection(path, members)
	}
	return stage, nil
}

func (oc *ObjectConfig) build() (*Object, error) {
	if oc.Path == "" {
		return nil, errors.New("object config missing path")
	}
	payload, err := oc.payload()
	if err != nil {
		return nil, errors.Wrapf(err, "object %q", oc.Path)
	}

	obj := &Object{
		Path:      oc.Path,
		Payload:   payload,
		Transform: trsMat4(oc.Translate, oc.Rotate),
	}
	for _, kf := range oc.Keyframes {
		obj.Keyframes = append(obj.Keyframes, Keyframe{
			Time:      kf.Time,
			Transform: trsMat4(kf.Translate, kf.Rotate),
		})
	}
	return obj, nil
}

func (oc *ObjectConfig) payload() (GeometryPayload, error) {
	shapes := 0
	var payload GeometryPayload
	if oc.Sphere != nil {
		shapes++
		payload = GeometryPayload{Kind: KindSphere, Radius: oc.Sphere.Radius}
	}
	if oc.Box != nil {
		shapes++
		dims, err := vec3(oc.Box.Dims)
		if err != nil {
			return payload, errors.Wrap(err, "box dims")
		}
		payload = GeometryPayload{Kind: KindBox, Dims: dims}
	}
	if oc.Capsule != nil {
		shapes++
		payload = GeometryPayload{Kind: KindCapsule, Radius: oc.Capsule.Radius, Length: oc.Capsule.Length}
	}
	if oc.Point != nil {
		shapes++
		payload = GeometryPayload{Kind: KindPoint}
	}
	if oc.Mesh != nil {
		shapes++
		verts := make([]r3.Vector, 0, len(oc.Mesh.Vertices))
		for _, v := range oc.Mesh.Vertices {
			vec, err := vec3(v)
			if err != nil {
				return payload, errors.Wrap(err, "mesh vertex")
			}
			verts = append(verts, vec)
		}
		faces := make([][3]int, 0, len(oc.Mesh.Faces))
		for _, f := range oc.Mesh.Faces {
			if len(f) != 3 {
				return payload, errors.Errorf("mesh face must have 3 indices, got %d", len(f))
			}
			faces = append(faces, [3]int{f[0], f[1], f[2]})
		}
		payload = GeometryPayload{Kind: KindMesh, Vertices: verts, Faces: faces}
	}
	if shapes != 1 {
		return payload, errors.Errorf("exactly one shape must be set, got %d", shapes)
	}
	return payload, nil
}

func vec3(v []float64) (r3.Vector, error) {
	if len(v) != 3 {
		return r3.Vector{}, errors.Errorf("expected 3 components, got %d", len(v))
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}, nil
}

// trsMat4 builds a world transform from a translation and euler xyz rotation in
// degrees. Missing components default to identity.
func trsMat4(translate, rotate []float64) mgl64.Mat4 {
	m := mgl64.Ident4()
	if len(rotate) == 3 {
		rm := spatialmath.NewRotationMatrixFromEuler(
			mgl64.DegToRad(rotate[0]), mgl64.DegToRad(rotate[1]), mgl64.DegToRad(rotate[2]))
		m = spatialmath.NewPose(r3.Vector{}, rm).Mat4()
	}
	if len(translate) == 3 {
		m.SetCol(3, mgl64.Vec4{translate[0], translate[1], translate[2], 1})
	}
	return m
}
