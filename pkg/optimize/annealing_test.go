package optimize

import (
	"context"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/masterplan/pkg/city"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

func square(cx, cy, side float64) orb.Polygon {
	h := side / 2
	return orb.Polygon{orb.Ring{
		{cx - h, cy - h}, {cx + h, cy - h}, {cx + h, cy + h}, {cx - h, cy + h}, {cx - h, cy - h},
	}}
}

// optimizeCity is a populated residential block five minutes from a
// vacant one, with a compact clinic service type whose bricks fit a
// small development budget.
func optimizeCity(t *testing.T) *city.City {
	t.Helper()
	blocks := []*types.Block{
		{BlockID: 0, LandUse: types.LandUseResidential, Geometry: square(0, 0, 100)},
		{BlockID: 1, Geometry: square(1000, 0, 100)},
	}
	m, err := types.NewMatrix([]int{0, 1})
	require.NoError(t, err)
	require.NoError(t, m.Set(0, 1, 5))
	require.NoError(t, m.Set(1, 0, 5))
	c, err := city.New(blocks, m, 32636)
	require.NoError(t, err)
	require.NoError(t, c.AddServiceType(types.ServiceType{
		Name:          "clinic",
		Demand:        100,
		Accessibility: 10,
		LandUses:      []types.LandUse{types.LandUseResidential},
		Bricks: []types.Brick{
			{Capacity: 50, Area: 300, Integrated: true},
			{Capacity: 100, Area: 1000, Integrated: false},
		},
	}))
	b0, err := c.Block(0)
	require.NoError(t, err)
	b0.AttachBuilding(&types.Building{BuildingID: "h1", Population: 1000})
	return c
}

func TestAnneal(t *testing.T) {
	c := optimizeCity(t)
	candidates := []Candidate{{BlockID: 1, LandUse: types.LandUseResidential, FSI: 1.0, GSI: 0.3}}

	iterations := 0
	sol, err := Anneal(context.Background(), c, candidates, map[string]float64{"clinic": 1}, AnnealingOptions{
		Seed: 1,
		OnIteration: func(iter int, current, best float64) {
			iterations = iter
			assert.GreaterOrEqual(t, best, current-1e-9)
		},
	})
	require.NoError(t, err)
	require.NotNil(t, sol)

	ind := sol.Indicators[1]
	assert.Equal(t, 350, ind.Population)
	assert.InDelta(t, 3000, ind.IntegratedArea, 1e-9)
	assert.InDelta(t, 5000, ind.NonIntegratedArea, 1e-9)

	// Placing any clinic brick beats the empty plan.
	assert.Greater(t, sol.Value, 0.0)
	assert.LessOrEqual(t, sol.Value, 1.0+1e-9)
	assert.GreaterOrEqual(t, iterations, 1)
	assert.LessOrEqual(t, iterations, DefaultMaxIterations)

	usedInt, usedNon := 0.0, 0.0
	for _, v := range sol.Variables {
		assert.GreaterOrEqual(t, v.Count, 0)
		assert.Equal(t, 1, v.BlockID)
		assert.Equal(t, "clinic", v.ServiceType)
		if v.Brick.Integrated {
			usedInt += v.Area()
		} else {
			usedNon += v.Area()
		}
	}
	assert.LessOrEqual(t, usedInt, ind.IntegratedArea+1e-9)
	assert.LessOrEqual(t, usedNon, ind.NonIntegratedArea+1e-9)

	caps := sol.CapacityByService()
	require.Contains(t, caps, "clinic")
	assert.Greater(t, caps["clinic"][1], 0)
}

func TestAnnealDeterministic(t *testing.T) {
	candidates := []Candidate{{BlockID: 1, LandUse: types.LandUseResidential, FSI: 1.0, GSI: 0.3}}
	weights := map[string]float64{"clinic": 1}

	first, err := Anneal(context.Background(), optimizeCity(t), candidates, weights, AnnealingOptions{Seed: 7})
	require.NoError(t, err)
	second, err := Anneal(context.Background(), optimizeCity(t), candidates, weights, AnnealingOptions{Seed: 7})
	require.NoError(t, err)

	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, first.Variables, second.Variables)
}

func TestAnnealRejects(t *testing.T) {
	c := optimizeCity(t)
	good := []Candidate{{BlockID: 1, LandUse: types.LandUseResidential, FSI: 1.0, GSI: 0.3}}
	weights := map[string]float64{"clinic": 1}

	tests := []struct {
		name       string
		candidates []Candidate
		weights    map[string]float64
		wantErr    error
	}{
		{name: "no candidates", candidates: nil, weights: weights, wantErr: types.ErrInvalidData},
		{name: "no weights", candidates: good, weights: nil, wantErr: types.ErrInvalidData},
		{
			name:       "unknown block",
			candidates: []Candidate{{BlockID: 9, LandUse: types.LandUseResidential, FSI: 1, GSI: 0.3}},
			weights:    weights,
			wantErr:    types.ErrUnknownBlock,
		},
		{
			name: "duplicate candidate",
			candidates: []Candidate{
				{BlockID: 1, LandUse: types.LandUseResidential, FSI: 1, GSI: 0.3},
				{BlockID: 1, LandUse: types.LandUseBusiness, FSI: 1, GSI: 0.3},
			},
			weights: weights,
			wantErr: types.ErrDuplicateID,
		},
		{
			name:       "unknown service type",
			candidates: good,
			weights:    map[string]float64{"opera house": 1},
			wantErr:    types.ErrUnknownServiceType,
		},
		{
			name:       "no placeable bricks",
			candidates: []Candidate{{BlockID: 1, LandUse: types.LandUseTransport, FSI: 0.5, GSI: 0.3}},
			weights:    weights,
			wantErr:    types.ErrNoBricks,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Anneal(context.Background(), c, tt.candidates, tt.weights, AnnealingOptions{Seed: 1})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Anneal(ctx, c, good, weights, AnnealingOptions{Seed: 1})
	assert.ErrorIs(t, err, context.Canceled)
}
