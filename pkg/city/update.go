package city

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// UpdateBuildings replaces the building stock of the whole city. Every
// building is validated, given an ID when it has none, and joined to the
// block containing its representative point. Buildings outside every
// block are skipped and counted, not treated as an error; upstream
// datasets always have a few strays.
// Implements: prd003-city-interface R5.3.
func (c *City) UpdateBuildings(buildings []*types.Building) (orphans int, err error) {
	for i, b := range buildings {
		b.Normalize()
		if err := b.Validate(); err != nil {
			return 0, fmt.Errorf("building %d: %w", i, err)
		}
	}
	for _, block := range c.blocks {
		block.DetachBuildings()
	}
	for _, b := range buildings {
		block, ok := c.locator.Locate(b.RepresentativePoint())
		if !ok {
			orphans++
			continue
		}
		if b.BuildingID == "" {
			b.BuildingID = uuid.Must(uuid.NewV7()).String()
		}
		block.AttachBuilding(b)
	}
	return orphans, nil
}

// UpdateFacilities replaces all placements of one service type. The
// service type must be in the catalog. Facilities standing inside a
// building of their block are attached to that building; the rest stand
// on the block itself. Missing capacity or area is defaulted from the
// service type's bricks. Facilities outside every block are skipped and
// counted.
// Implements: prd003-city-interface R6.3.
func (c *City) UpdateFacilities(serviceType string, facilities []*types.Facility) (orphans int, err error) {
	st, err := c.ServiceType(serviceType)
	if err != nil {
		return 0, err
	}
	for _, block := range c.blocks {
		block.DetachFacilities(serviceType)
	}
	for i, f := range facilities {
		f.ServiceType = st.Name
		pt := f.RepresentativePoint()
		block, ok := c.locator.Locate(pt)
		if !ok {
			orphans++
			continue
		}
		f.BuildingID = hostBuilding(block, pt)
		if err := f.FillDefaults(st); err != nil {
			return orphans, fmt.Errorf("facility %d: %w", i, err)
		}
		if err := f.Validate(); err != nil {
			return orphans, fmt.Errorf("facility %d: %w", i, err)
		}
		if f.FacilityID == "" {
			f.FacilityID = uuid.Must(uuid.NewV7()).String()
		}
		block.AttachFacility(f)
	}
	return orphans, nil
}

// hostBuilding returns the ID of the block building containing the point,
// or empty for standalone placements.
func hostBuilding(block *types.Block, pt orb.Point) string {
	for _, b := range block.Buildings() {
		if planar.PolygonContains(b.Geometry, pt) {
			return b.BuildingID
		}
	}
	return ""
}
