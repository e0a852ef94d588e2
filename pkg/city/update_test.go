package city

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

func poly(x, y, side float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{x, y}, {x + side, y}, {x + side, y + side}, {x, y + side}, {x, y},
	}}
}

func TestUpdateBuildings(t *testing.T) {
	c := newTestCity(t)

	buildings := []*types.Building{
		{Geometry: poly(10, 10, 20), Floors: 5, LivingArea: 1500, Population: 60},
		{Geometry: poly(120, 20, 10), Floors: 2},
		{Geometry: poly(900, 900, 10), Floors: 1}, // outside the grid
	}
	orphans, err := c.UpdateBuildings(buildings)
	require.NoError(t, err)
	assert.Equal(t, 1, orphans)

	b0, _ := c.Block(0)
	require.Len(t, b0.Buildings(), 1)
	assert.Equal(t, 60, b0.Population())
	assert.NotEmpty(t, b0.Buildings()[0].BuildingID, "IDs are assigned on update")

	b2, _ := c.Block(2)
	assert.Len(t, b2.Buildings(), 1)

	// A second update replaces, never accumulates.
	orphans, err = c.UpdateBuildings(buildings[:1])
	require.NoError(t, err)
	assert.Zero(t, orphans)
	b2, _ = c.Block(2)
	assert.Empty(t, b2.Buildings())
}

func TestUpdateBuildingsValidates(t *testing.T) {
	c := newTestCity(t)
	_, err := c.UpdateBuildings([]*types.Building{{Floors: 1}})
	assert.ErrorIs(t, err, types.ErrInvalidGeometry)
}

func TestUpdateFacilities(t *testing.T) {
	c := newTestCity(t)

	_, err := c.UpdateBuildings([]*types.Building{
		{Geometry: poly(10, 10, 20), Floors: 5, LivingArea: 1500, Population: 60},
	})
	require.NoError(t, err)

	facilities := []*types.Facility{
		{Geometry: orb.Point{15, 15}},   // inside the building: hosted
		{Geometry: orb.Point{150, 50}},  // standalone in block 2
		{Geometry: orb.Point{950, 950}}, // outside the grid
	}
	orphans, err := c.UpdateFacilities("pharmacy", facilities)
	require.NoError(t, err)
	assert.Equal(t, 1, orphans)

	b0, _ := c.Block(0)
	require.Len(t, b0.Facilities(), 1)
	hosted := b0.Facilities()[0]
	assert.True(t, hosted.Hosted())
	assert.Equal(t, b0.Buildings()[0].BuildingID, hosted.BuildingID)
	assert.Positive(t, hosted.Capacity, "capacity defaulted from bricks")
	assert.Positive(t, hosted.Area)
	assert.NotEmpty(t, hosted.FacilityID)

	b2, _ := c.Block(2)
	require.Len(t, b2.Facilities(), 1)
	assert.False(t, b2.Facilities()[0].Hosted())

	// Updating the same service type replaces placements; other types stay.
	_, err = c.UpdateFacilities("school", []*types.Facility{
		{Geometry: orb.Point{50, 150}, Capacity: 600, Area: 12000},
	})
	require.NoError(t, err)
	orphans, err = c.UpdateFacilities("pharmacy", facilities[:1])
	require.NoError(t, err)
	assert.Zero(t, orphans)

	b1, _ := c.Block(1)
	assert.Equal(t, 600, b1.CapacityFor("school"))
	b2, _ = c.Block(2)
	assert.Empty(t, b2.Facilities(), "pharmacy placement in block 2 replaced")
}

func TestUpdateFacilitiesUnknownType(t *testing.T) {
	c := newTestCity(t)
	_, err := c.UpdateFacilities("spaceport", nil)
	assert.ErrorIs(t, err, types.ErrUnknownServiceType)
}

func TestSummary(t *testing.T) {
	c := newTestCity(t)
	_, err := c.UpdateBuildings([]*types.Building{
		{Geometry: poly(10, 10, 20), Floors: 5, BuildFloorArea: 2000, LivingArea: 1600, Population: 80},
	})
	require.NoError(t, err)
	_, err = c.UpdateFacilities("school", []*types.Facility{
		{Geometry: orb.Point{150, 50}, Capacity: 600, Area: 12000},
	})
	require.NoError(t, err)

	rows := c.Summary()
	require.Len(t, rows, 4)

	assert.Equal(t, 0, rows[0].BlockID)
	assert.Equal(t, 80, rows[0].Population)
	assert.InDelta(t, 0.2, rows[0].FSI, 1e-9)
	assert.InDelta(t, 0.04, rows[0].GSI, 1e-9)
	assert.Equal(t, 600, rows[2].Capacity["school"])

	extra := ExtraProperties(rows)
	assert.InDelta(t, 0.2, extra[0]["fsi"].(float64), 1e-9)
	assert.Equal(t, 600, extra[2]["capacity_school"])

	desc := c.Description()
	assert.Contains(t, desc, "blocks: 4")
	assert.Contains(t, desc, "population: 80")
	assert.Contains(t, desc, "EPSG:32636")
}

func TestSummaryLivingIndicators(t *testing.T) {
	c := newTestCity(t)
	_, err := c.UpdateBuildings([]*types.Building{
		{Geometry: poly(10, 10, 20), Floors: 5, BuildFloorArea: 2000, LivingArea: 1600, Population: 80},
	})
	require.NoError(t, err)

	rows := c.Summary()
	require.Len(t, rows, 4)

	assert.True(t, rows[0].IsLiving)
	assert.InDelta(t, 20.0, rows[0].LivingDemand, 1e-9, "1600 m2 over 80 residents")
	assert.False(t, rows[1].IsLiving)
	assert.Zero(t, rows[1].LivingDemand)

	extra := ExtraProperties(rows)
	assert.Equal(t, true, extra[0]["is_living"])
	assert.InDelta(t, 20.0, extra[0]["living_demand"].(float64), 1e-9)
	assert.Equal(t, false, extra[1]["is_living"])
}
