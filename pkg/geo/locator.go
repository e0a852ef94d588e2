package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// locatorCandidates is how many nearest centroids Locate inspects before
// falling back to a full scan. Blocks are convex-ish street cells, so the
// containing block is almost always among the first few.
const locatorCandidates = 8

type blockPointer struct {
	centroid orb.Point
	block    *types.Block
}

func (p blockPointer) Point() orb.Point { return p.centroid }

// Locator answers point-in-block queries over a fixed block set using a
// quadtree of block centroids with an exact containment check on top.
// Implements: prd008-geojson-io R4.
type Locator struct {
	tree   *quadtree.Quadtree
	blocks []*types.Block
}

// NewLocator indexes the given blocks. The block set must not change
// while the locator is in use.
func NewLocator(blocks []*types.Block) *Locator {
	loc := &Locator{blocks: blocks}
	if len(blocks) == 0 {
		return loc
	}
	bound := blocks[0].Geometry.Bound()
	for _, b := range blocks[1:] {
		bound = bound.Union(b.Geometry.Bound())
	}
	loc.tree = quadtree.New(bound)
	for _, b := range blocks {
		// Add only fails for points outside the tree bound, which
		// cannot happen for member centroids of the union bound.
		_ = loc.tree.Add(blockPointer{centroid: b.Centroid(), block: b})
	}
	return loc
}

// Locate returns the block containing the point. The nearest centroids
// are checked first; a miss falls back to scanning every block so the
// answer is exact regardless of block shapes.
func (l *Locator) Locate(pt orb.Point) (*types.Block, bool) {
	if l.tree != nil {
		nearest := l.tree.KNearest(nil, pt, locatorCandidates)
		for _, ptr := range nearest {
			b := ptr.(blockPointer).block
			if b.Contains(pt) {
				return b, true
			}
		}
	}
	for _, b := range l.blocks {
		if b.Contains(pt) {
			return b, true
		}
	}
	return nil, false
}

type indexedPoint struct {
	pt orb.Point
	i  int
}

func (p indexedPoint) Point() orb.Point { return p.pt }

// RadiusPairs returns all unordered index pairs of points closer than
// radius, found through a quadtree bound query with an exact distance
// filter. Used for proximity graphs over block centroids.
// Implements: prd004-network-interface R5.1.
func RadiusPairs(points []orb.Point, radius float64) [][2]int {
	if len(points) < 2 || radius <= 0 {
		return nil
	}
	tree := quadtree.New(orb.MultiPoint(points).Bound())
	for i, pt := range points {
		_ = tree.Add(indexedPoint{pt: pt, i: i})
	}
	r2 := radius * radius
	var pairs [][2]int
	for i, pt := range points {
		query := orb.Bound{
			Min: orb.Point{pt[0] - radius, pt[1] - radius},
			Max: orb.Point{pt[0] + radius, pt[1] + radius},
		}
		for _, ptr := range tree.InBound(nil, query) {
			other := ptr.(indexedPoint)
			if other.i <= i {
				continue
			}
			dx, dy := other.pt[0]-pt[0], other.pt[1]-pt[1]
			if dx*dx+dy*dy <= r2 {
				pairs = append(pairs, [2]int{i, other.i})
			}
		}
	}
	return pairs
}
