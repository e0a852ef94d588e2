// Shared in-process helpers for archive integration tests.
package integration

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/mesh-intelligence/masterplan/internal/sqlite"
	"github.com/mesh-intelligence/masterplan/pkg/city"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

const testCRS = 32636

// setupArchive creates a backend attached to an isolated temp directory.
// Each test gets its own archive for isolation.
func setupArchive(t *testing.T) (*sqlite.Backend, string) {
	t.Helper()
	dir := t.TempDir()
	b := sqlite.NewBackend()
	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir, CRS: testCRS}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	t.Cleanup(func() { b.Detach() })
	return b, dir
}

// reattach detaches the backend and attaches a fresh one to the same
// directory, exercising the JSONL reload path.
func reattach(t *testing.T, b *sqlite.Backend, dir string) *sqlite.Backend {
	t.Helper()
	if err := b.Detach(); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	fresh := sqlite.NewBackend()
	if err := fresh.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir, CRS: testCRS}); err != nil {
		t.Fatalf("re-Attach: %v", err)
	}
	t.Cleanup(func() { fresh.Detach() })
	return fresh
}

// reattachFresh attaches a new backend to an existing data directory.
func reattachFresh(t *testing.T, dir string) *sqlite.Backend {
	t.Helper()
	fresh := sqlite.NewBackend()
	if err := fresh.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir, CRS: testCRS}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	t.Cleanup(func() { fresh.Detach() })
	return fresh
}

func squarePoly(cx, cy, side float64) orb.Polygon {
	h := side / 2
	return orb.Polygon{orb.Ring{
		{cx - h, cy - h}, {cx + h, cy - h}, {cx + h, cy + h}, {cx - h, cy + h}, {cx - h, cy - h},
	}}
}

// buildTown assembles the two-block test town: 1000 residents in block 1,
// a school for 200 in block 2, 5 minutes of travel between them.
func buildTown(t *testing.T) *city.City {
	t.Helper()
	blocks := []*types.Block{
		{BlockID: 1, LandUse: types.LandUseResidential, Geometry: squarePoly(1000, 1000, 400)},
		{BlockID: 2, LandUse: types.LandUseResidential, Geometry: squarePoly(2000, 1000, 400)},
	}
	matrix, err := types.NewMatrix([]int{1, 2})
	if err != nil {
		t.Fatalf("NewMatrix: %v", err)
	}
	for _, pair := range [][2]int{{1, 2}, {2, 1}} {
		if err := matrix.Set(pair[0], pair[1], 5); err != nil {
			t.Fatalf("matrix Set: %v", err)
		}
	}

	c, err := city.New(blocks, matrix, testCRS)
	if err != nil {
		t.Fatalf("city.New: %v", err)
	}

	if _, err := c.UpdateBuildings([]*types.Building{
		{Geometry: squarePoly(1000, 1000, 60), Floors: 5, Population: 1000, LivingArea: 15000},
	}); err != nil {
		t.Fatalf("UpdateBuildings: %v", err)
	}
	if _, err := c.UpdateFacilities("school", []*types.Facility{
		{Geometry: orb.Point{2000, 1000}, Capacity: 200},
	}); err != nil {
		t.Fatalf("UpdateFacilities: %v", err)
	}
	return c
}
