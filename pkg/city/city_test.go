package city

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// testBlocks builds a 2x2 grid of 100m blocks with IDs 0..3.
func testBlocks() []*types.Block {
	var blocks []*types.Block
	id := 0
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			x, y := float64(i)*100, float64(j)*100
			blocks = append(blocks, &types.Block{
				BlockID: id,
				Geometry: orb.Polygon{orb.Ring{
					{x, y}, {x + 100, y}, {x + 100, y + 100}, {x, y + 100}, {x, y},
				}},
			})
			id++
		}
	}
	return blocks
}

// testMatrix fills symmetric travel times proportional to ID distance.
func testMatrix(ids []int) *types.Matrix {
	m, _ := types.NewMatrix(ids)
	for _, a := range ids {
		for _, b := range ids {
			if a == b {
				continue
			}
			d := float64(a - b)
			if d < 0 {
				d = -d
			}
			_ = m.Set(a, b, 5*d)
		}
	}
	return m
}

func newTestCity(t *testing.T) *City {
	t.Helper()
	blocks := testBlocks()
	c, err := New(blocks, testMatrix([]int{0, 1, 2, 3}), 32636)
	require.NoError(t, err)
	return c
}

func TestNewValidatesMatrix(t *testing.T) {
	blocks := testBlocks()

	_, err := New(blocks, testMatrix([]int{0, 1, 2}), 32636)
	assert.ErrorIs(t, err, types.ErrMatrixMismatch)

	_, err = New(blocks, testMatrix([]int{0, 1, 2, 9}), 32636)
	assert.ErrorIs(t, err, types.ErrMatrixMismatch)
}

func TestNewRejectsDuplicateBlocks(t *testing.T) {
	blocks := testBlocks()
	blocks[3].BlockID = 0
	_, err := New(blocks, testMatrix([]int{0, 1, 2, 3}), 32636)
	assert.ErrorIs(t, err, types.ErrDuplicateID)
}

func TestNewWithoutMatrix(t *testing.T) {
	c, err := New(testBlocks(), nil, 32636)
	require.NoError(t, err)

	d, err := c.Distance(0, 3)
	assert.NoError(t, err)
	assert.Zero(t, d, "missing matrix defaults to zero travel times")
}

func TestCityQueries(t *testing.T) {
	c := newTestCity(t)

	b, err := c.Block(2)
	require.NoError(t, err)
	assert.Equal(t, 2, b.BlockID)

	_, err = c.Block(99)
	assert.ErrorIs(t, err, types.ErrUnknownBlock)

	d, err := c.Distance(0, 3)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, d, 1e-9)

	out, err := c.OutEdges(1)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, out[0], 1e-9)
	assert.InDelta(t, 10.0, out[3], 1e-9)

	in, err := c.InEdges(1)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, in[2], 1e-9)

	assert.Equal(t, []int{0, 1, 2, 3}, c.BlockIDs())
	assert.Equal(t, 32636, c.CRS())
}

func TestCityServiceCatalog(t *testing.T) {
	c := newTestCity(t)

	st, err := c.ServiceType("school")
	require.NoError(t, err)
	assert.Equal(t, 120, st.Demand)
	assert.Equal(t, 15, st.Accessibility)

	_, err = c.ServiceType("spaceport")
	assert.ErrorIs(t, err, types.ErrUnknownServiceType)

	err = c.AddServiceType(types.ServiceType{Name: "library", Demand: 10, Accessibility: 30,
		Bricks: []types.Brick{{Capacity: 100, Area: 800}}})
	require.NoError(t, err)

	err = c.AddServiceType(types.ServiceType{Name: "library"})
	assert.ErrorIs(t, err, types.ErrDuplicateServiceType)

	forResidential := c.ServiceTypesFor(types.LandUseResidential)
	names := make([]string, 0, len(forResidential))
	for _, st := range forResidential {
		names = append(names, st.Name)
	}
	assert.Contains(t, names, "school")
	assert.Contains(t, names, "kindergarten")
	assert.Contains(t, names, "library", "unbound service types are allowed anywhere")

	forIndustrial := c.ServiceTypesFor(types.LandUseIndustrial)
	industrialNames := make([]string, 0, len(forIndustrial))
	for _, st := range forIndustrial {
		industrialNames = append(industrialNames, st.Name)
	}
	assert.NotContains(t, industrialNames, "school")
}

func TestLocate(t *testing.T) {
	c := newTestCity(t)

	b, ok := c.Locate(orb.Point{150, 50})
	require.True(t, ok)
	assert.Equal(t, 2, b.BlockID)

	_, ok = c.Locate(orb.Point{500, 500})
	assert.False(t, ok)
}
