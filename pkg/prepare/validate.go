// Package prepare cleans raw block geometry before it enters the city
// model: validation, oversized block splitting, and land use filtering.
// Implements: prd007-prepare-interface.
package prepare

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/mesh-intelligence/masterplan/pkg/geo"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// ValidateBlocks checks a raw block set: IDs must be unique, every
// geometry a non-empty polygon with closed rings and positive area, and
// the collective bound must look projected. The first offending block is
// reported.
// Implements: prd007-prepare-interface R1.
func ValidateBlocks(blocks []*types.Block) error {
	if len(blocks) == 0 {
		return fmt.Errorf("%w: no blocks", types.ErrInvalidData)
	}
	seen := make(map[int]bool, len(blocks))
	bound := blocks[0].Geometry.Bound()
	for _, b := range blocks {
		if seen[b.BlockID] {
			return fmt.Errorf("%w: block %d", types.ErrDuplicateID, b.BlockID)
		}
		seen[b.BlockID] = true
		if err := validateRings(b.Geometry); err != nil {
			return fmt.Errorf("block %d: %w", b.BlockID, err)
		}
		if planar.Area(b.Geometry) <= 0 {
			return fmt.Errorf("block %d: %w: non-positive area", b.BlockID, types.ErrInvalidGeometry)
		}
		if b.LandUse != "" && !b.LandUse.Valid() {
			return fmt.Errorf("block %d: %w: %s", b.BlockID, types.ErrUnknownLandUse, b.LandUse)
		}
		bound = bound.Union(b.Geometry.Bound())
	}
	if geo.LooksGeographic(bound) {
		return types.ErrGeographicCRS
	}
	return nil
}

// validateRings checks that a polygon has a ring structure usable for
// planar operations: at least one ring, each with at least four points
// and a matching first and last point.
func validateRings(p orb.Polygon) error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty polygon", types.ErrInvalidGeometry)
	}
	for i, ring := range p {
		if len(ring) < 4 {
			return fmt.Errorf("%w: ring %d has %d points", types.ErrInvalidGeometry, i, len(ring))
		}
		if ring[0] != ring[len(ring)-1] {
			return fmt.Errorf("%w: ring %d is not closed", types.ErrInvalidGeometry, i)
		}
	}
	return nil
}
