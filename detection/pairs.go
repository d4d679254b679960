package detection

import (
	"sort"

	"github.com/spatialsuite/clashcore/report"
	"github.com/spatialsuite/clashcore/scene"
	"github.com/spatialsuite/clashcore/spatialmath"
)

// duplicatePoseEpsilon is the per-component tolerance within which two world
// transforms count as identical for the duplicate-geometry rule. Only exact
// transform equality marks a pair as a duplicate; near-duplicates at offset
// transforms are ordinary candidates.
const duplicatePoseEpsilon = 1e-9

// candidatePair is an unordered pair of proxies destined for the narrow phase.
// The a proxy always carries the lesser identity key.
type candidatePair struct {
	a, b scene.Proxy
}

func newCandidatePair(x, y scene.Proxy) candidatePair {
	if x.Key > y.Key {
		x, y = y, x
	}
	return candidatePair{a: x, b: y}
}

// generatePairs produces the deterministic candidate set for one time sample.
// groupB may be nil for single-group mode, where all unordered pairs within groupA
// are considered. Pairs whose proxies are exact geometric duplicates at this sample
// (identical content hash and world transform) additionally yield an advisory
// record, but remain in the candidate set: two animated objects that only
// transiently coincide are a real clash at that time, so whether the advisory
// stands or the pair's records do is decided over the whole run at finalize.
func generatePairs(
	groupA, groupB []scene.Proxy,
	index *spatialIndex,
	atTime float64,
) ([]candidatePair, []report.DuplicateRecord, error) {
	other := make(map[string]scene.Proxy)
	if groupB == nil {
		for _, p := range groupA {
			other[p.Key] = p
		}
	} else {
		for _, p := range groupB {
			other[p.Key] = p
		}
	}

	seen := make(map[string]bool)
	var pairs []candidatePair
	var duplicates []report.DuplicateRecord

	for _, a := range groupA {
		hits, err := index.query(a)
		if err != nil {
			return nil, nil, err
		}
		for key := range hits {
			// Exclude self-pairs and pairs that resolve to the same underlying object.
			if key == a.Key {
				continue
			}
			b, ok := other[key]
			if !ok {
				continue
			}
			pair := newCandidatePair(a, b)
			pairKey := pair.a.Key + "\x00" + pair.b.Key
			if seen[pairKey] {
				continue
			}
			seen[pairKey] = true

			if isDuplicateGeometry(pair.a, pair.b) {
				duplicates = append(duplicates, report.DuplicateRecord{
					ObjectA: pair.a.Key,
					ObjectB: pair.b.Key,
					Time:    atTime,
				})
			}
			pairs = append(pairs, pair)
		}
	}

	// Deterministic yield order keeps results reproducible across runs.
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].a.Key != pairs[j].a.Key {
			return pairs[i].a.Key < pairs[j].a.Key
		}
		return pairs[i].b.Key < pairs[j].b.Key
	})
	sort.Slice(duplicates, func(i, j int) bool {
		if duplicates[i].ObjectA != duplicates[j].ObjectA {
			return duplicates[i].ObjectA < duplicates[j].ObjectA
		}
		return duplicates[i].ObjectB < duplicates[j].ObjectB
	})
	return pairs, duplicates, nil
}

// isDuplicateGeometry reports whether two proxies represent the same physical
// instance: identical content hash and identical world transform. The hash
// comparison makes this O(1) per candidate pair rather than a geometric
// computation.
func isDuplicateGeometry(a, b scene.Proxy) bool {
	return a.Hash == b.Hash &&
		spatialmath.PoseAlmostEqualEps(a.Geometry.Pose(), b.Geometry.Pose(), duplicatePoseEpsilon)
}
