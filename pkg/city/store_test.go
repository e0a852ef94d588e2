package city

import (
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// memAtlas is an in-memory Atlas for store round-trip tests. It mimics the
// sqlite backend's contract: rows are rehydrated copies without runtime
// attachments, and the matrix lives under the fixed ID "matrix".
type memAtlas struct {
	tables map[string]*memTable
}

func newMemAtlas() *memAtlas {
	a := &memAtlas{tables: make(map[string]*memTable)}
	for _, name := range types.StandardTableNames {
		a.tables[name] = &memTable{name: name, rows: make(map[string]any)}
	}
	return a
}

func (a *memAtlas) GetTable(name string) (types.Table, error) {
	t, ok := a.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return t, nil
}

func (a *memAtlas) Attach(types.Config) error { return nil }
func (a *memAtlas) Detach() error             { return nil }

type memTable struct {
	name string
	rows map[string]any
	seq  int
}

func (t *memTable) Get(id string) (any, error) {
	row, ok := t.rows[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return row, nil
}

func (t *memTable) Set(id string, data any) (string, error) {
	if _, ok := data.(*types.Matrix); ok {
		id = "matrix"
	}
	if id == "" {
		t.seq++
		id = fmt.Sprintf("mem-%d", t.seq)
	}
	t.rows[id] = rehydrate(data)
	return id, nil
}

func (t *memTable) Delete(id string) error {
	if _, ok := t.rows[id]; !ok {
		return types.ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

func (t *memTable) Fetch(types.Filter) ([]any, error) {
	out := []any{}
	for _, row := range t.rows {
		out = append(out, row)
	}
	return out, nil
}

// rehydrate copies entities the way a backend row scan would: exported
// fields only, runtime attachments dropped.
func rehydrate(data any) any {
	switch v := data.(type) {
	case *types.Block:
		return &types.Block{BlockID: v.BlockID, LandUse: v.LandUse, Geometry: v.Geometry}
	case *types.Building:
		clone := *v
		return &clone
	case *types.Facility:
		clone := *v
		return &clone
	case *types.ServiceType:
		clone := *v
		return &clone
	default:
		return data
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := newTestCity(t)
	blocks := c.Blocks()
	blocks[0].LandUse = types.LandUseResidential

	_, err := c.UpdateBuildings([]*types.Building{
		{Geometry: poly(10, 10, 20), Floors: 5, BuildFloorArea: 2000, LivingArea: 1600, Population: 80},
	})
	require.NoError(t, err)
	_, err = c.UpdateFacilities("school", []*types.Facility{
		{Geometry: orb.Point{150, 50}, Capacity: 600, Area: 12000},
	})
	require.NoError(t, err)
	require.NoError(t, c.AddServiceType(types.ServiceType{
		Name: "library", Demand: 10, Accessibility: 30,
		Bricks: []types.Brick{{Capacity: 100, Area: 800}},
	}))

	atlas := newMemAtlas()
	require.NoError(t, c.SaveTo(atlas))

	loaded, err := Load(atlas, 32636)
	require.NoError(t, err)

	assert.Equal(t, c.BlockIDs(), loaded.BlockIDs())
	assert.Equal(t, 80, loaded.Population())

	b0, err := loaded.Block(0)
	require.NoError(t, err)
	assert.Equal(t, types.LandUseResidential, b0.LandUse)
	assert.Len(t, b0.Buildings(), 1)

	b2, err := loaded.Block(2)
	require.NoError(t, err)
	assert.Equal(t, 600, b2.CapacityFor("school"))

	st, err := loaded.ServiceType("library")
	require.NoError(t, err)
	assert.Equal(t, 10, st.Demand)

	d, err := loaded.Distance(0, 3)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, d, 1e-9)
}

func TestSaveDeletesStaleRows(t *testing.T) {
	c := newTestCity(t)
	_, err := c.UpdateBuildings([]*types.Building{
		{Geometry: poly(10, 10, 20), Floors: 2},
		{Geometry: poly(120, 20, 10), Floors: 1},
	})
	require.NoError(t, err)

	atlas := newMemAtlas()
	require.NoError(t, c.SaveTo(atlas))

	table, _ := atlas.GetTable(types.BuildingsTable)
	rows, _ := table.Fetch(nil)
	assert.Len(t, rows, 2)

	_, err = c.UpdateBuildings([]*types.Building{
		{Geometry: poly(10, 10, 20), Floors: 2},
	})
	require.NoError(t, err)
	require.NoError(t, c.SaveTo(atlas))

	rows, _ = table.Fetch(nil)
	assert.Len(t, rows, 1, "second save removes the dropped building")
}
