package geo

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// blockJSON builds a one-feature collection with a square block at the
// given origin in projected coordinates.
func blockJSON(id int, x, y float64, props string) string {
	return fmt.Sprintf(`{
		"type": "FeatureCollection",
		"features": [{
			"type": "Feature",
			"properties": {"block_id": %d%s},
			"geometry": {"type": "Polygon", "coordinates": [[
				[%f, %f], [%f, %f], [%f, %f], [%f, %f], [%f, %f]
			]]}
		}]
	}`, id, props, x, y, x+100, y, x+100, y+100, x, y+100, x, y)
}

func TestDecodeBlocks(t *testing.T) {
	data := blockJSON(7, 350000, 6648000, `, "land_use": "Mixed-Use"`)
	blocks, err := DecodeBlocks([]byte(data))
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	assert.Equal(t, 7, blocks[0].BlockID)
	assert.Equal(t, types.LandUseMixed, blocks[0].LandUse)
	assert.InDelta(t, 10000.0, blocks[0].SiteArea(), 1e-6)
}

func TestDecodeBlocksRejectsGeographic(t *testing.T) {
	data := blockJSON(1, 30.1, 59.9, "")
	_, err := DecodeBlocks([]byte(data))
	assert.ErrorIs(t, err, types.ErrGeographicCRS)
}

func TestDecodeBlocksRejectsDuplicateIDs(t *testing.T) {
	data := `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "properties": {"block_id": 1},
			 "geometry": {"type": "Polygon", "coordinates": [[[0,0],[100000,0],[100000,100000],[0,100000],[0,0]]]}},
			{"type": "Feature", "properties": {"block_id": 1},
			 "geometry": {"type": "Polygon", "coordinates": [[[200000,0],[300000,0],[300000,100000],[200000,100000],[200000,0]]]}}
		]
	}`
	_, err := DecodeBlocks([]byte(data))
	assert.ErrorIs(t, err, types.ErrDuplicateID)
}

func TestDecodeBlocksRejectsUnknownLandUse(t *testing.T) {
	data := blockJSON(1, 350000, 6648000, `, "land_use": "swamp"`)
	_, err := DecodeBlocks([]byte(data))
	assert.ErrorIs(t, err, types.ErrUnknownLandUse)
}

func TestDecodeBlocksRejectsNonPolygon(t *testing.T) {
	data := `{
		"type": "FeatureCollection",
		"features": [{
			"type": "Feature", "properties": {},
			"geometry": {"type": "Point", "coordinates": [350000, 6648000]}
		}]
	}`
	_, err := DecodeBlocks([]byte(data))
	assert.ErrorIs(t, err, types.ErrInvalidGeometry)
}

func TestDecodeBuildings(t *testing.T) {
	data := `{
		"type": "FeatureCollection",
		"features": [{
			"type": "Feature",
			"properties": {"number_of_floors": 5, "living_area": 1600, "population": 80},
			"geometry": {"type": "Polygon", "coordinates": [[
				[350000, 6648000], [350020, 6648000], [350020, 6648020], [350000, 6648020], [350000, 6648000]
			]]}
		}]
	}`
	buildings, err := DecodeBuildings([]byte(data))
	require.NoError(t, err)
	require.Len(t, buildings, 1)

	b := buildings[0]
	assert.InDelta(t, 5.0, b.Floors, 1e-9)
	assert.InDelta(t, 2000.0, b.BuildFloorArea, 1e-6, "floor area derived from floors")
	assert.InDelta(t, 1600.0, b.LivingArea, 1e-9)
	assert.Equal(t, 80, b.Population)
	assert.True(t, b.IsLiving())
}

func TestDecodeFacilities(t *testing.T) {
	data := `{
		"type": "FeatureCollection",
		"features": [{
			"type": "Feature",
			"properties": {"capacity": 600},
			"geometry": {"type": "Point", "coordinates": [350010, 6648010]}
		}]
	}`
	facilities, err := DecodeFacilities([]byte(data), "school")
	require.NoError(t, err)
	require.Len(t, facilities, 1)
	assert.Equal(t, "school", facilities[0].ServiceType)
	assert.Equal(t, 600, facilities[0].Capacity)

	_, err = DecodeFacilities([]byte(data), "")
	assert.ErrorIs(t, err, types.ErrInvalidName)
}

func TestEncodeBlocksRoundTrip(t *testing.T) {
	blocks, err := DecodeBlocks([]byte(blockJSON(3, 350000, 6648000, `, "land_use": "residential"`)))
	require.NoError(t, err)

	out, err := EncodeBlocks(blocks, map[int]map[string]any{
		3: {"provision_school": 0.75},
	})
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(out, &parsed))
	features := parsed["features"].([]any)
	require.Len(t, features, 1)
	props := features[0].(map[string]any)["properties"].(map[string]any)
	assert.EqualValues(t, 3, props["block_id"])
	assert.Equal(t, "residential", props["land_use"])
	assert.InDelta(t, 0.75, props["provision_school"].(float64), 1e-9)
}
