// Package sqlite implements the SQLite backend for the masterplan archive.
// Implements: prd002-sqlite-backend (R3 SQLite schema, R11 Atlas interface).
package sqlite

// Schema DDL for all tables (prd002-sqlite-backend R3.2).
// Geometry columns hold GeoJSON strings in the archive's projected CRS.
const (
	createBlocks = `CREATE TABLE blocks (
    block_id INTEGER PRIMARY KEY,
    land_use TEXT,
    geometry TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createBuildings = `CREATE TABLE buildings (
    building_id TEXT PRIMARY KEY,
    block_id INTEGER NOT NULL,
    geometry TEXT NOT NULL,
    floors REAL NOT NULL,
    build_floor_area REAL NOT NULL,
    living_area REAL NOT NULL,
    business_area REAL NOT NULL,
    population INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (block_id) REFERENCES blocks(block_id)
);`

	createFacilities = `CREATE TABLE facilities (
    facility_id TEXT PRIMARY KEY,
    service_type TEXT NOT NULL,
    block_id INTEGER NOT NULL,
    building_id TEXT,
    geometry TEXT NOT NULL,
    capacity INTEGER NOT NULL,
    area REAL NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (block_id) REFERENCES blocks(block_id),
    FOREIGN KEY (service_type) REFERENCES service_types(name)
);`

	createServiceTypes = `CREATE TABLE service_types (
    name TEXT PRIMARY KEY,
    demand INTEGER NOT NULL,
    accessibility INTEGER NOT NULL,
    land_uses TEXT NOT NULL,
    bricks TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createMatrix = `CREATE TABLE matrix (
    from_id INTEGER NOT NULL,
    to_id INTEGER NOT NULL,
    minutes REAL NOT NULL,
    PRIMARY KEY (from_id, to_id)
);`

	createRuns = `CREATE TABLE runs (
    run_id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    service_type TEXT,
    params TEXT NOT NULL,
    result TEXT NOT NULL,
    created_at TEXT NOT NULL
);`
)

// Index DDL for common queries (prd002-sqlite-backend R3.3).
const (
	idxBuildingsBlock     = `CREATE INDEX idx_buildings_block ON buildings(block_id);`
	idxFacilitiesBlock    = `CREATE INDEX idx_facilities_block ON facilities(block_id);`
	idxFacilitiesService  = `CREATE INDEX idx_facilities_service ON facilities(service_type);`
	idxFacilitiesBuilding = `CREATE INDEX idx_facilities_building ON facilities(building_id);`
	idxMatrixFrom         = `CREATE INDEX idx_matrix_from ON matrix(from_id);`
	idxRunsKind           = `CREATE INDEX idx_runs_kind ON runs(kind);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createBlocks,
	createServiceTypes,
	createBuildings,
	createFacilities,
	createMatrix,
	createRuns,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxBuildingsBlock,
	idxFacilitiesBlock,
	idxFacilitiesService,
	idxFacilitiesBuilding,
	idxMatrixFrom,
	idxRunsKind,
}
