package types

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

// square returns a closed square ring polygon with the given origin and side.
func square(x, y, side float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{x, y}, {x + side, y}, {x + side, y + side}, {x, y + side}, {x, y},
	}}
}

func TestBlockIndicators(t *testing.T) {
	block := &Block{BlockID: 1, LandUse: LandUseResidential, Geometry: square(0, 0, 100)}

	// Two buildings: a 5-floor residential slab and a single-floor shop.
	res := &Building{
		BuildingID:     "b1",
		Geometry:       square(10, 10, 20),
		Floors:         5,
		BuildFloorArea: 2000,
		LivingArea:     1600,
		Population:     80,
	}
	shop := &Building{
		BuildingID:     "b2",
		Geometry:       square(50, 50, 10),
		Floors:         1,
		BuildFloorArea: 100,
		BusinessArea:   100,
	}
	block.AttachBuilding(res)
	block.AttachBuilding(shop)

	assert.Equal(t, 1, res.BlockID)
	assert.InDelta(t, 10000.0, block.SiteArea(), 1e-9)
	assert.Equal(t, 80, block.Population())
	assert.InDelta(t, 500.0, block.FootprintArea(), 1e-9)
	assert.InDelta(t, 2100.0, block.BuildFloorArea(), 1e-9)
	assert.InDelta(t, 1600.0, block.LivingArea(), 1e-9)
	assert.InDelta(t, 100.0, block.BusinessArea(), 1e-9)
	assert.True(t, block.IsLiving())

	assert.InDelta(t, 0.21, block.FSI(), 1e-9)
	assert.InDelta(t, 0.05, block.GSI(), 1e-9)
	assert.InDelta(t, 1600.0/2100.0, block.MXI(), 1e-9)
	assert.InDelta(t, 0.21/0.05, block.AvgFloors(), 1e-9)
	assert.InDelta(t, (1-0.05)/0.21, block.OSR(), 1e-9)
	assert.InDelta(t, 100.0/2100.0, block.ShareBusiness(), 1e-9)
	assert.InDelta(t, 20.0, block.LivingDemand(), 1e-9)
	assert.InDelta(t, 0.8*10000-500, block.VacantArea(), 1e-9)
}

func TestBlockEmptyIndicators(t *testing.T) {
	block := &Block{BlockID: 2, Geometry: square(0, 0, 50)}

	assert.Equal(t, 0, block.Population())
	assert.Zero(t, block.FSI())
	assert.Zero(t, block.GSI())
	assert.Zero(t, block.MXI())
	assert.Zero(t, block.AvgFloors())
	assert.Zero(t, block.OSR())
	assert.Zero(t, block.LivingDemand())
	assert.False(t, block.IsLiving())
}

func TestBlockFacilities(t *testing.T) {
	block := &Block{BlockID: 3, Geometry: square(0, 0, 100)}

	school := &Facility{FacilityID: "f1", ServiceType: "school", Geometry: orb.Point{10, 10}, Capacity: 600, Area: 12000}
	pharmacy := &Facility{FacilityID: "f2", ServiceType: "pharmacy", Geometry: orb.Point{20, 20}, Capacity: 30, Area: 90}
	block.AttachFacility(school)
	block.AttachFacility(pharmacy)

	assert.Equal(t, 3, school.BlockID)
	assert.Equal(t, 600, block.CapacityFor("school"))
	assert.Equal(t, 30, block.CapacityFor("pharmacy"))
	assert.Equal(t, 0, block.CapacityFor("hospital"))
	assert.Equal(t, map[string]int{"school": 1, "pharmacy": 1}, block.ServiceCounts())

	block.DetachFacilities("school")
	assert.Equal(t, 0, block.CapacityFor("school"))
	assert.Equal(t, 30, block.CapacityFor("pharmacy"))

	block.DetachFacilities("")
	assert.Empty(t, block.Facilities())
}

func TestBlockValidate(t *testing.T) {
	tests := []struct {
		name    string
		block   Block
		wantErr error
	}{
		{
			name:  "valid",
			block: Block{BlockID: 1, Geometry: square(0, 0, 10)},
		},
		{
			name:    "negative id rejected",
			block:   Block{BlockID: -1, Geometry: square(0, 0, 10)},
			wantErr: ErrInvalidID,
		},
		{
			name:    "empty geometry rejected",
			block:   Block{BlockID: 1},
			wantErr: ErrInvalidGeometry,
		},
		{
			name:    "bad land use rejected",
			block:   Block{BlockID: 1, Geometry: square(0, 0, 10), LandUse: "park"},
			wantErr: ErrUnknownLandUse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.block.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBlockContains(t *testing.T) {
	block := &Block{BlockID: 1, Geometry: square(0, 0, 100)}
	assert.True(t, block.Contains(orb.Point{50, 50}))
	assert.False(t, block.Contains(orb.Point{150, 50}))

	c := block.Centroid()
	assert.InDelta(t, 50.0, c[0], 1e-9)
	assert.InDelta(t, 50.0, c[1], 1e-9)
}
