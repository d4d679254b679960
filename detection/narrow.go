package detection

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/spatialsuite/clashcore/report"
	"github.com/spatialsuite/clashcore/scene"
	"github.com/spatialsuite/clashcore/spatialmath"
)

// defaultEpsilonScale sets the default classification epsilon relative to the
// scene's extent, near machine precision for a unit scene.
const defaultEpsilonScale = 1e-9

// evaluator performs tolerance-aware narrow-phase evaluation of candidate pairs.
// It is read-only after construction and shared by all workers of a sample.
type evaluator struct {
	clashTol     float64
	clearanceTol float64
	epsilon      float64
}

// newEvaluator derives an evaluator from the run config and the sample's proxy
// set. When the config leaves the epsilon unset, it defaults to machine precision
// scaled by the extent of the union of all proxy bounds, so classification at
// exact tolerance boundaries does not flicker with floating-point noise.
func newEvaluator(cfg *Config, proxies []scene.Proxy) evaluator {
	eps := cfg.Epsilon
	if eps == 0 {
		eps = defaultEpsilonScale * math.Max(1, sceneExtent(proxies))
	}
	return evaluator{
		clashTol:     cfg.ClashTolerance,
		clearanceTol: cfg.ClearanceTolerance,
		epsilon:      eps,
	}
}

// sceneExtent returns the largest dimension of the axis-aligned box enclosing
// every proxy, zero for an empty set.
func sceneExtent(proxies []scene.Proxy) float64 {
	if len(proxies) == 0 {
		return 0
	}
	bounds := proxies[0].Geometry.AABB()
	for _, p := range proxies[1:] {
		bb := p.Geometry.AABB()
		bounds = spatialmath.NewAABBFromPoints([]r3.Vector{bounds.Min, bounds.Max, bb.Min, bb.Max})
	}
	size := bounds.Size()
	return math.Max(size.X, math.Max(size.Y, size.Z))
}

// evaluate computes the minimum signed separation of a candidate pair and
// classifies it. The bool result is false when the pair is farther apart than the
// clearance tolerance, in which case no record is emitted at all, keeping result
// sets sparse.
func (e evaluator) evaluate(pair candidatePair, atTime float64) (report.Record, bool, error) {
	dist, err := pair.a.Geometry.DistanceFrom(pair.b.Geometry)
	if err != nil {
		return report.Record{}, false, err
	}

	var class report.Classification
	switch {
	case dist <= e.clashTol+e.epsilon:
		class = report.ClassificationClash
	case dist <= e.clearanceTol+e.epsilon:
		class = report.ClassificationClearance
	default:
		return report.Record{}, false, nil
	}
	return report.Record{
		ObjectA:        pair.a.Key,
		ObjectB:        pair.b.Key,
		Classification: class,
		Distance:       dist,
		StartTime:      atTime,
		EndTime:        atTime,
	}, true, nil
}
