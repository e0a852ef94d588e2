package network

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/masterplan/pkg/city"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// methodsCity is four blocks on a west-east line, a kilometer apart,
// with travel times of five minutes per step.
func methodsCity(t *testing.T) *city.City {
	t.Helper()
	blocks := blocksAt(
		[2]float64{0, 0}, [2]float64{1000, 0}, [2]float64{2000, 0}, [2]float64{3000, 0})
	m, err := types.NewMatrix([]int{0, 1, 2, 3})
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			require.NoError(t, m.Set(i, j, 5*math.Abs(float64(i-j))))
		}
	}
	c, err := city.New(blocks, m, 32636)
	require.NoError(t, err)
	return c
}

func TestConnectivity(t *testing.T) {
	c := methodsCity(t)

	got, err := Connectivity(c)
	require.NoError(t, err)
	want := map[int]float64{0: 7.5, 1: 5, 2: 5, 3: 7.5}
	require.Len(t, got, len(want))
	for id, v := range want {
		assert.InDelta(t, v, got[id], 1e-9, "block %d", id)
	}
}

func TestAccessibilityOf(t *testing.T) {
	c := methodsCity(t)
	require.NoError(t, c.Matrix().Set(1, 0, 7))

	got, err := AccessibilityOf(c, 1)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.InDelta(t, 7, got[0].From, 1e-9)
	assert.InDelta(t, 5, got[0].To, 1e-9)
	assert.InDelta(t, 10, got[3].From, 1e-9)
	assert.InDelta(t, 10, got[3].To, 1e-9)
	assert.Zero(t, got[1].From)
	assert.Zero(t, got[1].To)

	_, err = AccessibilityOf(c, 99)
	assert.ErrorIs(t, err, types.ErrUnknownBlock)
}

func TestDiversityCentrality(t *testing.T) {
	c := methodsCity(t)
	b0, err := c.Block(0)
	require.NoError(t, err)
	b0.AttachFacility(&types.Facility{FacilityID: "f1", ServiceType: "kindergarten", Capacity: 180})
	b0.AttachFacility(&types.Facility{FacilityID: "f2", ServiceType: "school", Capacity: 600})
	b1, err := c.Block(1)
	require.NoError(t, err)
	b1.AttachFacility(&types.Facility{FacilityID: "f3", ServiceType: "kindergarten", Capacity: 180})

	got, err := DiversityCentrality(c)
	require.NoError(t, err)
	require.Len(t, got, 4)

	// Block 0 leads on density and diversity but trails on connectivity;
	// block 1 is the minimum of every component. Blocks without
	// facilities stay at zero.
	assert.InDelta(t, 1.0, got[0], 1e-9)
	assert.InDelta(t, 0.0, got[1], 1e-9)
	assert.Zero(t, got[2])
	assert.Zero(t, got[3])
}

func TestDiversityCentralityNoFacilities(t *testing.T) {
	c := methodsCity(t)

	got, err := DiversityCentrality(c)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for id, v := range got {
		assert.Zero(t, v, "block %d", id)
	}
}

func TestPopulationCentrality(t *testing.T) {
	c := methodsCity(t)
	b0, err := c.Block(0)
	require.NoError(t, err)
	b0.AttachBuilding(&types.Building{BuildingID: "h1", Population: 100})
	b1, err := c.Block(1)
	require.NoError(t, err)
	b1.AttachBuilding(&types.Building{BuildingID: "h2", Population: 200})

	got := PopulationCentrality(c, 1500)
	require.Len(t, got, 4)
	want := map[int]float64{0: 1.67, 1: 10, 2: 3.33, 3: 0}
	for id, v := range want {
		assert.InDelta(t, v, got[id], 1e-9, "block %d", id)
	}
}

func TestPopulationCentralityDefaultRadius(t *testing.T) {
	blocks := blocksAt([2]float64{0, 0}, [2]float64{500, 0})
	m, err := types.NewMatrix([]int{0, 1})
	require.NoError(t, err)
	c, err := city.New(blocks, m, 32636)
	require.NoError(t, err)

	got := PopulationCentrality(c, 0)
	require.Len(t, got, 2)
	assert.Zero(t, got[0])
	assert.Zero(t, got[1])
}

func TestIntegration(t *testing.T) {
	c := methodsCity(t)
	n, err := NewRouteNetwork([]Route{
		{Mode: ModeWalk, Geometry: line([2]float64{0, 0}, [2]float64{1000, 0}, [2]float64{2000, 0})},
	})
	require.NoError(t, err)

	got, err := Integration(c, n, 0)
	require.NoError(t, err)
	require.Len(t, got, 4)
	// Street vertices sit fifteen minutes apart; the easternmost block
	// snaps to the same vertex as its neighbor.
	assert.InDelta(t, 1.0/15+1.0/30, got[0], 1e-9)
	assert.InDelta(t, 2.0/15, got[1], 1e-9)
	assert.InDelta(t, 1.0/15+1.0/30, got[2], 1e-9)
	assert.InDelta(t, got[2], got[3], 1e-9)
}

func TestIntegrationLocal(t *testing.T) {
	c := methodsCity(t)
	n, err := NewRouteNetwork([]Route{
		{Mode: ModeWalk, Geometry: line([2]float64{0, 0}, [2]float64{1000, 0}, [2]float64{2000, 0})},
	})
	require.NoError(t, err)

	got, err := Integration(c, n, 20)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/15, got[0], 1e-9)
	assert.InDelta(t, 2.0/15, got[1], 1e-9)
	assert.InDelta(t, 1.0/15, got[2], 1e-9)
}

func TestIntegrationEmptyNetwork(t *testing.T) {
	c := methodsCity(t)
	n, err := NewRouteNetwork(nil)
	require.NoError(t, err)

	_, err = Integration(c, n, 0)
	assert.ErrorIs(t, err, types.ErrInvalidData)
}
