package spatialmath

import (
	"github.com/pkg/errors"
)

func newBadGeometryDimensionsError(g Geometry) error {
	return errors.Errorf("cannot create %T geometry, dimensions must be positive", g)
}

func newBadCapsuleLengthError(length, radius float64) error {
	return errors.Errorf("cannot create capsule, length %f must be at least 2*radius %f", length, 2*radius)
}

func newCollisionTypeUnsupportedError(g1, g2 Geometry) error {
	return errors.Errorf("collision checking between %T and %T is not supported", g1, g2)
}
