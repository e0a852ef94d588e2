package prepare

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

func square(cx, cy, side float64) orb.Polygon {
	h := side / 2
	return orb.Polygon{orb.Ring{
		{cx - h, cy - h}, {cx + h, cy - h}, {cx + h, cy + h}, {cx - h, cy + h}, {cx - h, cy - h},
	}}
}

// ngon builds a closed regular n-gon ring around a center, giving the
// polygon n+1 ring points.
func ngon(cx, cy, radius float64, n int) orb.Polygon {
	ring := make(orb.Ring, 0, n+1)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		ring = append(ring, orb.Point{cx + radius*math.Cos(a), cy + radius*math.Sin(a)})
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

func TestValidateBlocks(t *testing.T) {
	tests := []struct {
		name    string
		blocks  []*types.Block
		wantErr error
	}{
		{
			name: "valid set passes",
			blocks: []*types.Block{
				{BlockID: 1, Geometry: square(500, 500, 100), LandUse: types.LandUseResidential},
				{BlockID: 2, Geometry: square(700, 500, 100)},
			},
		},
		{
			name:    "empty set rejected",
			blocks:  nil,
			wantErr: types.ErrInvalidData,
		},
		{
			name: "duplicate block id rejected",
			blocks: []*types.Block{
				{BlockID: 1, Geometry: square(500, 500, 100)},
				{BlockID: 1, Geometry: square(700, 500, 100)},
			},
			wantErr: types.ErrDuplicateID,
		},
		{
			name: "open ring rejected",
			blocks: []*types.Block{
				{BlockID: 1, Geometry: orb.Polygon{orb.Ring{{400, 400}, {600, 400}, {600, 600}, {400, 600}}}},
			},
			wantErr: types.ErrInvalidGeometry,
		},
		{
			name: "degenerate ring rejected",
			blocks: []*types.Block{
				{BlockID: 1, Geometry: orb.Polygon{orb.Ring{{400, 400}, {600, 400}, {400, 400}}}},
			},
			wantErr: types.ErrInvalidGeometry,
		},
		{
			name: "unknown land use rejected",
			blocks: []*types.Block{
				{BlockID: 1, Geometry: square(500, 500, 100), LandUse: "park"},
			},
			wantErr: types.ErrUnknownLandUse,
		},
		{
			name: "geographic coordinates rejected",
			blocks: []*types.Block{
				{BlockID: 1, Geometry: square(30.3, 59.9, 0.01)},
			},
			wantErr: types.ErrGeographicCRS,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBlocks(tt.blocks)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateBlocksZeroArea(t *testing.T) {
	blocks := []*types.Block{
		{BlockID: 1, Geometry: orb.Polygon{orb.Ring{{500, 500}, {500, 500}, {500, 500}, {500, 500}}}},
	}
	err := ValidateBlocks(blocks)
	require.ErrorIs(t, err, types.ErrInvalidGeometry)
}
