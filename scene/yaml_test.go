package scene

import (
	"strings"
	"testing"

	"go.viam.com/test"
)

const sampleStageYAML = `
objects:
  - path: /world/tank
    box:
      dims: [2, 2, 4]
    translate: [0, 0, 2]
  - path: /world/pipe
    capsule:
      radius: 0.2
      length: 3
    rotate: [90, 0, 0]
  - path: /world/valve
    sphere:
      radius: 0.5
    keyframes:
      - time: 0
        translate: [0, 0, 0]
      - time: 5
        translate: [5, 0, 0]
collections:
  equipment:
    - /world/tank
    - /world/valve
`

func TestLoadStageConfig(t *testing.T) {
	cfg, err := LoadStageConfig(strings.NewReader(sampleStageYAML))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(cfg.Objects), test.ShouldEqual, 3)
	test.That(t, cfg.Objects[0].Box, test.ShouldNotBeNil)
	test.That(t, cfg.Objects[1].Capsule.Radius, test.ShouldEqual, 0.2)
	test.That(t, len(cfg.Collections["equipment"]), test.ShouldEqual, 2)

	stage, err := cfg.Build()
	test.That(t, err, test.ShouldBeNil)

	payload, transform, err := stage.GetGeometry("/world/tank", 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, payload.Kind, test.ShouldEqual, KindBox)
	test.That(t, payload.Dims.Z, test.ShouldEqual, 4.0)
	test.That(t, transform.At(2, 3), test.ShouldEqual, 2.0)

	// The keyframed object animates.
	_, transform, err = stage.GetGeometry("/world/valve", 2.5)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, transform.At(0, 3), test.ShouldAlmostEqual, 2.5, 1e-9)

	members, err := stage.ListCollectionMembers("equipment")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, members, test.ShouldResemble, []string{"/world/tank", "/world/valve"})
}

func TestLoadStageConfigRotation(t *testing.T) {
	cfg, err := LoadStageConfig(strings.NewReader(sampleStageYAML))
	test.That(t, err, test.ShouldBeNil)
	stage, err := cfg.Build()
	test.That(t, err, test.ShouldBeNil)

	// A 90 degree roll maps local +y onto +z.
	_, transform, err := stage.GetGeometry("/world/pipe", 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, transform.At(1, 2), test.ShouldAlmostEqual, -1, 1e-9)
	test.That(t, transform.At(2, 1), test.ShouldAlmostEqual, 1, 1e-9)
}

func TestStageConfigErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		yaml string
	}{
		{"missing path", "objects:\n  - sphere:\n      radius: 1\n"},
		{"no shape", "objects:\n  - path: /a\n"},
		{"two shapes", "objects:\n  - path: /a\n    sphere:\n      radius: 1\n    box:\n      dims: [1, 1, 1]\n"},
		{"bad dims", "objects:\n  - path: /a\n    box:\n      dims: [1, 1]\n"},
		{"bad face", "objects:\n  - path: /a\n    mesh:\n      vertices: [[0,0,0],[1,0,0],[0,1,0]]\n      faces: [[0,1]]\n"},
		{"unknown field", "objects:\n  - path: /a\n    cone:\n      radius: 1\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadStageConfig(strings.NewReader(tc.yaml))
			if err != nil {
				return
			}
			_, err = cfg.Build()
			test.That(t, err, test.ShouldNotBeNil)
		})
	}
}
