// Backend lifecycle for the SQLite archive.
// Implements: prd002-sqlite-backend R4 (attach sequence), R5 (persistence),
// R6 (detach), R11 (Atlas interface);
// prd008-configuration-directories R3, R4, R5.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// dbFileName is the SQLite database file inside DataDir. The database is
// rebuilt from the JSONL files on every Attach; JSONL is the source of truth.
const dbFileName = "atlas.db"

// Compile-time interface check: Backend must implement Atlas.
var _ types.Atlas = (*Backend)(nil)

// Backend implements the Atlas interface using SQLite as the query engine
// and JSONL files as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	tables   map[string]types.Table
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{
		tables: make(map[string]types.Table),
	}
}

// GetTable returns a Table interface for the specified table name.
// Returns ErrTableNotFound if the table name is not recognized.
// Returns ErrAtlasDetached if the backend is not attached.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrAtlasDetached
	}

	table, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return table, nil
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, builds a fresh SQLite database,
// loads the JSONL files transactionally, and seeds the default service
// type catalog when the archive is empty (prd002-sqlite-backend R4).
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	// Remove existing database file to ensure a fresh schema (R4.3).
	dbPath := filepath.Join(dataDir, dbFileName)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating indexes: %w", err)
		}
	}

	// Initialize JSONL files if they don't exist (prd008 R4.3).
	if err := initJSONLFiles(dataDir); err != nil {
		db.Close()
		return err
	}

	// Load JSONL files into SQLite (prd008 R5.1).
	if err := loadAllJSONL(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	// Seed the default service type catalog on first run (R9).
	if err := seedServiceTypes(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("seed service types: %w", err)
	}

	b.db = db
	b.config = config
	b.attached = true

	b.tables[types.BlocksTable] = &blocksTable{backend: b}
	b.tables[types.BuildingsTable] = &buildingsTable{backend: b}
	b.tables[types.FacilitiesTable] = &facilitiesTable{backend: b}
	b.tables[types.ServiceTypesTable] = &serviceTypesTable{backend: b}
	b.tables[types.MatrixTable] = &matrixTable{backend: b}
	b.tables[types.RunsTable] = &runsTable{backend: b}

	return nil
}

// Detach releases all resources held by the backend. Closes the SQLite
// connection. After Detach, all operations return ErrAtlasDetached.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil // idempotent
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.tables = make(map[string]types.Table)

	return nil
}

// DataDir returns the data directory the backend is attached to.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dataDir()
}

// dataDir returns the effective data directory. Callers must hold b.mu.
func (b *Backend) dataDir() string {
	if b.config.DataDir == "" {
		return "."
	}
	return b.config.DataDir
}

// newUUID generates a UUID v7 string for entity IDs.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails.
		return uuid.New().String()
	}
	return id.String()
}
