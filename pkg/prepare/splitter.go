package prepare

import (
	"fmt"
	"sort"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/mesh-intelligence/masterplan/pkg/geo"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// Splitter defaults. A block counts as oversized when its outer ring
// vertex count and its site area both sit above their quantile thresholds
// over the whole block set.
const (
	DefaultVertexQuantile = 0.98
	DefaultAreaQuantile   = 0.95
	DefaultClusters       = 4
)

// SplitOptions tunes the splitter. Zero values select the defaults.
type SplitOptions struct {
	VertexQuantile float64
	AreaQuantile   float64
	// Clusters is the number of sub-blocks an oversized block is cut
	// into, capped by the number of buildings it holds.
	Clusters int
	Logger   *zap.Logger
}

// SplitResult is the reworked block set. Sub-blocks take fresh IDs above
// the highest source ID; Split maps each cut source block to them.
type SplitResult struct {
	Blocks []*types.Block
	Split  map[int][]int
}

// Split cuts oversized blocks into sub-blocks by k-means clustering of
// the buildings inside them. A sub-block is the convex hull of its
// cluster's building footprints, clipped to the source block's bound.
// Blocks that are not oversized, or hold too few buildings to cluster,
// pass through unchanged.
// Implements: prd007-prepare-interface R2.1-R2.4.
func Split(blocks []*types.Block, buildings []*types.Building, opts SplitOptions) (*SplitResult, error) {
	if err := ValidateBlocks(blocks); err != nil {
		return nil, err
	}
	if opts.VertexQuantile == 0 {
		opts.VertexQuantile = DefaultVertexQuantile
	}
	if opts.AreaQuantile == 0 {
		opts.AreaQuantile = DefaultAreaQuantile
	}
	if opts.Clusters == 0 {
		opts.Clusters = DefaultClusters
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	vertexCut, areaCut := thresholds(blocks, opts.VertexQuantile, opts.AreaQuantile)

	// Group buildings into their containing blocks.
	locator := geo.NewLocator(blocks)
	byBlock := make(map[int][]*types.Building)
	for _, bld := range buildings {
		if block, ok := locator.Locate(bld.RepresentativePoint()); ok {
			byBlock[block.BlockID] = append(byBlock[block.BlockID], bld)
		}
	}

	nextID := 0
	for _, b := range blocks {
		if b.BlockID >= nextID {
			nextID = b.BlockID + 1
		}
	}

	result := &SplitResult{Split: make(map[int][]int)}
	for _, b := range blocks {
		members := byBlock[b.BlockID]
		if !oversized(b, vertexCut, areaCut) || len(members) < opts.Clusters {
			result.Blocks = append(result.Blocks, b)
			continue
		}

		parts, err := splitBlock(b, members, opts.Clusters, nextID)
		if err != nil {
			return nil, fmt.Errorf("splitting block %d: %w", b.BlockID, err)
		}
		if len(parts) < 2 {
			// Clustering collapsed; keep the source block.
			result.Blocks = append(result.Blocks, b)
			continue
		}
		for _, part := range parts {
			result.Blocks = append(result.Blocks, part)
			result.Split[b.BlockID] = append(result.Split[b.BlockID], part.BlockID)
			nextID = part.BlockID + 1
		}
		logger.Debug("split block",
			zap.Int("block_id", b.BlockID),
			zap.Int("parts", len(parts)),
			zap.Int("buildings", len(members)))
	}
	return result, nil
}

// thresholds computes the oversized cutoffs over the block set.
func thresholds(blocks []*types.Block, vertexQ, areaQ float64) (vertexCut, areaCut float64) {
	vertices := make([]float64, len(blocks))
	areas := make([]float64, len(blocks))
	for i, b := range blocks {
		vertices[i] = float64(len(b.Geometry[0]))
		areas[i] = b.SiteArea()
	}
	sort.Float64s(vertices)
	sort.Float64s(areas)
	vertexCut = stat.Quantile(vertexQ, stat.LinInterp, vertices, nil)
	areaCut = stat.Quantile(areaQ, stat.LinInterp, areas, nil)
	return vertexCut, areaCut
}

// oversized reports whether both block measures sit strictly above the cuts.
func oversized(b *types.Block, vertexCut, areaCut float64) bool {
	return float64(len(b.Geometry[0])) > vertexCut && b.SiteArea() > areaCut
}

// splitBlock clusters the block's buildings and shapes one sub-block per
// cluster. Sub-block IDs start at nextID.
func splitBlock(b *types.Block, members []*types.Building, k, nextID int) ([]*types.Block, error) {
	var obs clusters.Observations
	for _, bld := range members {
		pt := bld.RepresentativePoint()
		obs = append(obs, clusters.Coordinates{pt[0], pt[1]})
	}

	km := kmeans.New()
	partition, err := km.Partition(obs, k)
	if err != nil {
		return nil, err
	}

	// Rebuild cluster membership from the partition centers, since the
	// library reorders observations.
	assign := make([][]*types.Building, len(partition))
	for _, bld := range members {
		pt := bld.RepresentativePoint()
		best, bestDist := 0, -1.0
		for ci, cluster := range partition {
			d := clusters.Coordinates{pt[0], pt[1]}.Distance(cluster.Center)
			if bestDist < 0 || d < bestDist {
				best, bestDist = ci, d
			}
		}
		assign[best] = append(assign[best], bld)
	}

	var parts []*types.Block
	for _, group := range assign {
		if len(group) == 0 {
			continue
		}
		hull := convexHull(footprintPoints(group))
		if len(hull) < 4 {
			continue
		}
		shape := clip.Polygon(b.Geometry.Bound(), orb.Polygon{hull})
		if len(shape) == 0 || planar.Area(shape) <= 0 {
			continue
		}
		parts = append(parts, &types.Block{
			BlockID:  nextID,
			LandUse:  b.LandUse,
			Geometry: shape,
		})
		nextID++
	}
	return parts, nil
}

// footprintPoints collects every footprint vertex of the buildings.
func footprintPoints(group []*types.Building) []orb.Point {
	var pts []orb.Point
	for _, bld := range group {
		for _, ring := range bld.Geometry {
			pts = append(pts, ring...)
		}
	}
	return pts
}

// convexHull computes the closed hull ring of a point set with the
// monotone chain algorithm.
func convexHull(pts []orb.Point) orb.Ring {
	if len(pts) < 3 {
		return nil
	}
	sorted := append([]orb.Point(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][0] != sorted[j][0] {
			return sorted[i][0] < sorted[j][0]
		}
		return sorted[i][1] < sorted[j][1]
	})

	cross := func(o, a, b orb.Point) float64 {
		return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
	}

	var lower []orb.Point
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	var upper []orb.Point
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	if len(hull) < 3 {
		return nil
	}
	// Close the ring.
	hull = append(hull, hull[0])
	return orb.Ring(hull)
}
