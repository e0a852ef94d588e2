package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// square returns a closed square polygon with the given origin and side.
func square(x, y, side float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{x, y}, {x + side, y}, {x + side, y + side}, {x, y + side}, {x, y},
	}}
}

// attachTestBackend creates a backend attached to an isolated temp directory.
func attachTestBackend(t *testing.T) (*Backend, string) {
	t.Helper()
	dir := t.TempDir()
	b := NewBackend()
	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	t.Cleanup(func() { b.Detach() })
	return b, dir
}

func TestAttachCreatesDataDirAndJSONLFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "archive")
	b := NewBackend()
	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer b.Detach()

	for _, name := range jsonlFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, dbFileName)); err != nil {
		t.Errorf("expected %s to exist: %v", dbFileName, err)
	}
}

func TestAttachTwiceReturnsErrAlreadyAttached(t *testing.T) {
	b, dir := attachTestBackend(t)
	err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir})
	if !errors.Is(err, types.ErrAlreadyAttached) {
		t.Fatalf("expected ErrAlreadyAttached, got %v", err)
	}
}

func TestAttachRejectsInvalidConfig(t *testing.T) {
	b := NewBackend()
	if err := b.Attach(types.Config{Backend: "postgres"}); !errors.Is(err, types.ErrBackendUnknown) {
		t.Fatalf("expected ErrBackendUnknown, got %v", err)
	}
	if err := b.Attach(types.Config{}); !errors.Is(err, types.ErrBackendEmpty) {
		t.Fatalf("expected ErrBackendEmpty, got %v", err)
	}
}

func TestDetachIsIdempotent(t *testing.T) {
	b, _ := attachTestBackend(t)
	if err := b.Detach(); err != nil {
		t.Fatalf("first Detach: %v", err)
	}
	if err := b.Detach(); err != nil {
		t.Fatalf("second Detach: %v", err)
	}
}

func TestOperationsAfterDetachReturnErrAtlasDetached(t *testing.T) {
	b, _ := attachTestBackend(t)
	table, err := b.GetTable(types.BlocksTable)
	if err != nil {
		t.Fatalf("GetTable: %v", err)
	}
	if err := b.Detach(); err != nil {
		t.Fatalf("Detach: %v", err)
	}

	if _, err := b.GetTable(types.BlocksTable); !errors.Is(err, types.ErrAtlasDetached) {
		t.Errorf("GetTable after detach: expected ErrAtlasDetached, got %v", err)
	}
	if _, err := table.Get("1"); !errors.Is(err, types.ErrAtlasDetached) {
		t.Errorf("Get after detach: expected ErrAtlasDetached, got %v", err)
	}
	if _, err := table.Set("", &types.Block{}); !errors.Is(err, types.ErrAtlasDetached) {
		t.Errorf("Set after detach: expected ErrAtlasDetached, got %v", err)
	}
	if err := table.Delete("1"); !errors.Is(err, types.ErrAtlasDetached) {
		t.Errorf("Delete after detach: expected ErrAtlasDetached, got %v", err)
	}
	if _, err := table.Fetch(nil); !errors.Is(err, types.ErrAtlasDetached) {
		t.Errorf("Fetch after detach: expected ErrAtlasDetached, got %v", err)
	}
}

func TestGetTableUnknownName(t *testing.T) {
	b, _ := attachTestBackend(t)
	if _, err := b.GetTable("parcels"); !errors.Is(err, types.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}

func TestGetTableReturnsAllStandardTables(t *testing.T) {
	b, _ := attachTestBackend(t)
	for _, name := range types.StandardTableNames {
		if _, err := b.GetTable(name); err != nil {
			t.Errorf("GetTable(%q): %v", name, err)
		}
	}
}

func TestSeedInstallsDefaultCatalog(t *testing.T) {
	b, _ := attachTestBackend(t)
	table, err := b.GetTable(types.ServiceTypesTable)
	if err != nil {
		t.Fatalf("GetTable: %v", err)
	}

	rows, err := table.Fetch(nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	want := len(types.DefaultServiceTypes())
	if len(rows) != want {
		t.Fatalf("expected %d seeded service types, got %d", want, len(rows))
	}

	raw, err := table.Get("school")
	if err != nil {
		t.Fatalf("Get school: %v", err)
	}
	school := raw.(*types.ServiceType)
	if school.Demand != 120 || school.Accessibility != 15 {
		t.Errorf("school seeded as demand=%d accessibility=%d", school.Demand, school.Accessibility)
	}
	if len(school.Bricks) == 0 {
		t.Error("school seeded without bricks")
	}
}

func TestSeedIsIdempotentAcrossAttaches(t *testing.T) {
	b, dir := attachTestBackend(t)
	table, _ := b.GetTable(types.ServiceTypesTable)
	if err := table.Delete("pharmacy"); err != nil {
		t.Fatalf("Delete pharmacy: %v", err)
	}
	if err := b.Detach(); err != nil {
		t.Fatalf("Detach: %v", err)
	}

	// Reattach: a non-empty catalog must not be reseeded.
	b2 := NewBackend()
	if err := b2.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}); err != nil {
		t.Fatalf("reattach: %v", err)
	}
	defer b2.Detach()

	table2, _ := b2.GetTable(types.ServiceTypesTable)
	if _, err := table2.Get("pharmacy"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected deleted pharmacy to stay deleted, got %v", err)
	}
}

func TestJSONLSurvivesReattach(t *testing.T) {
	b, dir := attachTestBackend(t)
	blocks, _ := b.GetTable(types.BlocksTable)

	block := &types.Block{BlockID: 7, LandUse: types.LandUseResidential, Geometry: square(0, 0, 100)}
	if _, err := blocks.Set("", block); err != nil {
		t.Fatalf("Set block: %v", err)
	}
	if err := b.Detach(); err != nil {
		t.Fatalf("Detach: %v", err)
	}

	b2 := NewBackend()
	if err := b2.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}); err != nil {
		t.Fatalf("reattach: %v", err)
	}
	defer b2.Detach()

	blocks2, _ := b2.GetTable(types.BlocksTable)
	raw, err := blocks2.Get("7")
	if err != nil {
		t.Fatalf("Get after reattach: %v", err)
	}
	got := raw.(*types.Block)
	if got.LandUse != types.LandUseResidential {
		t.Errorf("land use lost across reattach: %q", got.LandUse)
	}
	if got.SiteArea() != 10000 {
		t.Errorf("geometry lost across reattach: area %f", got.SiteArea())
	}
}

func TestMalformedJSONLLinesAreSkipped(t *testing.T) {
	dir := t.TempDir()
	content := `{"block_id": 1, "geometry": "{\"type\":\"Polygon\",\"coordinates\":[[[0,0],[100,0],[100,100],[0,100],[0,0]]]}", "created_at": "2026-01-01T00:00:00Z", "updated_at": "2026-01-01T00:00:00Z"}
not json at all
{"block_id": 2, "geometry": "{\"type\":\"Polygon\",\"coordinates\":[[[200,0],[300,0],[300,100],[200,100],[200,0]]]}", "created_at": "2026-01-01T00:00:00Z", "updated_at": "2026-01-01T00:00:00Z"}
`
	if err := os.WriteFile(filepath.Join(dir, "blocks.jsonl"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewBackend()
	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer b.Detach()

	blocks, _ := b.GetTable(types.BlocksTable)
	rows, err := blocks.Fetch(nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 valid blocks, got %d", len(rows))
	}
}

func TestUnknownJSONLFieldsAreIgnored(t *testing.T) {
	dir := t.TempDir()
	content := `{"block_id": 3, "geometry": "{\"type\":\"Polygon\",\"coordinates\":[[[0,0],[50,0],[50,50],[0,50],[0,0]]]}", "created_at": "2026-01-01T00:00:00Z", "updated_at": "2026-01-01T00:00:00Z", "future_field": {"nested": true}}
`
	if err := os.WriteFile(filepath.Join(dir, "blocks.jsonl"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewBackend()
	if err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer b.Detach()

	blocks, _ := b.GetTable(types.BlocksTable)
	if _, err := blocks.Get("3"); err != nil {
		t.Fatalf("Get: %v", err)
	}
}
