package optimize

import (
	"math"

	"github.com/paulmach/orb/planar"

	"github.com/mesh-intelligence/masterplan/pkg/city"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// Vacant area defaults.
const (
	// MinVacantArea drops sliver areas below this size in square meters.
	MinVacantArea = 100.0
	// VacantBuffer pads building footprints in meters before subtraction.
	VacantBuffer = 10.0
)

// VacantArea surveys the developable free area per block: the
// developable share of the site minus buffered building footprints.
// Padding uses the dilation area of a convex footprint, area plus
// perimeter times buffer plus pi times buffer squared. Blocks whose
// free area falls below MinVacantArea report zero. A nil block list
// surveys the whole city.
// Implements: prd006-optimize-interface R6.
func VacantArea(c *city.City, blockIDs []int) (map[int]float64, error) {
	if len(blockIDs) == 0 {
		blockIDs = c.BlockIDs()
	}
	out := make(map[int]float64, len(blockIDs))
	for _, id := range blockIDs {
		b, err := c.Block(id)
		if err != nil {
			return nil, err
		}
		free := types.VacantAreaCoef * b.SiteArea()
		for _, bld := range b.Buildings() {
			free -= bld.FootprintArea() +
				planar.Length(bld.Geometry)*VacantBuffer +
				math.Pi*VacantBuffer*VacantBuffer
		}
		if free < MinVacantArea {
			free = 0
		}
		out[id] = free
	}
	return out, nil
}
