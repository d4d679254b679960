package detection

import (
	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"

	"github.com/spatialsuite/clashcore/scene"
	"github.com/spatialsuite/clashcore/spatialmath"
)

// rtree node sizing, min/max children per node.
const (
	rtreeMinChildren = 8
	rtreeMaxChildren = 16
)

// indexSlack pads inflated bounds so pairs sitting exactly at the tolerance
// distance, whose rects would only touch, still intersect in the tree.
const indexSlack = 1e-6

// indexEntry adapts a proxy to the rtreego.Spatial interface. The stored rect is
// the proxy's bounds inflated by the active tolerance so that clearance-range pairs
// beyond raw bounding-box contact survive the broad phase.
type indexEntry struct {
	key  string
	rect rtreego.Rect
}

func (e *indexEntry) Bounds() rtreego.Rect {
	return e.rect
}

// spatialIndex is the broad phase: an R-tree over the tolerance-inflated bounds of
// one time sample's full proxy set. It is rebuilt from scratch at each sample and
// read-only once built, so evaluator workers share it freely.
type spatialIndex struct {
	tree      *rtreego.Rtree
	inflation float64
}

// newSpatialIndex builds an index over all proxies, inflating each proxy's bounds
// by the given tolerance.
func newSpatialIndex(proxies []scene.Proxy, inflation float64) (*spatialIndex, error) {
	si := &spatialIndex{
		tree:      rtreego.NewTree(3, rtreeMinChildren, rtreeMaxChildren),
		inflation: inflation,
	}
	for _, p := range proxies {
		rect, err := aabbToRect(p.Geometry.AABB().Inflate(inflation + indexSlack))
		if err != nil {
			return nil, errors.Wrapf(err, "indexing %q", p.Key)
		}
		si.tree.Insert(&indexEntry{key: p.Key, rect: rect})
	}
	return si, nil
}

// query returns the identity keys of all indexed proxies whose inflated bounds
// overlap the given proxy's bounds, including the proxy itself.
func (si *spatialIndex) query(p scene.Proxy) (map[string]bool, error) {
	rect, err := aabbToRect(p.Geometry.AABB())
	if err != nil {
		return nil, errors.Wrapf(err, "querying %q", p.Key)
	}
	hits := si.tree.SearchIntersect(rect)
	keys := make(map[string]bool, len(hits))
	for _, hit := range hits {
		keys[hit.(*indexEntry).key] = true
	}
	return keys, nil
}

func aabbToRect(bb spatialmath.AABB) (rtreego.Rect, error) {
	size := bb.Size()
	// rtreego requires strictly positive extents; degenerate bounds (points, axis
	// aligned triangles) get a sliver.
	const minLength = 1e-9
	lengths := []float64{size.X, size.Y, size.Z}
	for i := range lengths {
		if lengths[i] < minLength {
			lengths[i] = minLength
		}
	}
	return rtreego.NewRect(rtreego.Point{bb.Min.X, bb.Min.Y, bb.Min.Z}, lengths)
}
