// JSONL loading for startup.
// Implements: prd002-sqlite-backend R4 (startup sequence), R4.2 (malformed lines),
// R4.4 (transactional loading), R7.2 (unknown field tolerance).
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// jsonlTableMapping maps JSONL filenames to their SQLite tables and column
// lists. The order matters: tables with foreign keys must load after their
// referenced tables.
var jsonlTableMapping = []struct {
	file    string
	table   string
	columns []string
}{
	{"blocks.jsonl", "blocks", []string{"block_id", "land_use", "geometry", "created_at", "updated_at"}},
	{"service_types.jsonl", "service_types", []string{"name", "demand", "accessibility", "land_uses", "bricks", "created_at", "updated_at"}},
	{"buildings.jsonl", "buildings", []string{"building_id", "block_id", "geometry", "floors", "build_floor_area", "living_area", "business_area", "population", "created_at", "updated_at"}},
	{"facilities.jsonl", "facilities", []string{"facility_id", "service_type", "block_id", "building_id", "geometry", "capacity", "area", "created_at", "updated_at"}},
	{"matrix.jsonl", "matrix", []string{"from_id", "to_id", "minutes"}},
	{"runs.jsonl", "runs", []string{"run_id", "kind", "service_type", "params", "result", "created_at"}},
}

// loadAllJSONL reads each JSONL file from DataDir and inserts records into
// the corresponding SQLite tables. Loading is transactional: all succeed or
// the database remains empty (prd002-sqlite-backend R4.4). Malformed lines
// are skipped per R4.2. Unknown fields in JSONL records are silently
// ignored, enabling forward compatibility across generations (R7.2).
func loadAllJSONL(db *sql.DB, dataDir string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	// Disable foreign keys during loading, re-enable after.
	if _, err := tx.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disabling foreign keys for load: %w", err)
	}

	for _, mapping := range jsonlTableMapping {
		path := filepath.Join(dataDir, mapping.file)
		records, err := readJSONL(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", mapping.file, err)
		}

		if len(records) == 0 {
			continue
		}

		if err := insertRecords(tx, mapping.table, mapping.columns, records); err != nil {
			return fmt.Errorf("loading %s into %s: %w", mapping.file, mapping.table, err)
		}
	}

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("re-enabling foreign keys: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}

	return nil
}

// insertRecords inserts parsed JSONL records into a SQLite table. Only
// columns listed in the mapping are extracted; extra fields from future
// generations do not cause errors (prd002-sqlite-backend R7.2). Structured
// values (land_uses, bricks, params, result) are re-serialized into JSON
// strings for their TEXT columns.
func insertRecords(tx *sql.Tx, table string, columns []string, records []json.RawMessage) error {
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.Prepare(insertSQL)
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			// Skip malformed records (prd002-sqlite-backend R4.2).
			continue
		}

		args := make([]any, len(columns))
		for i, col := range columns {
			val, ok := obj[col]
			if !ok {
				args[i] = nil
				continue
			}
			switch v := val.(type) {
			case map[string]any, []any:
				b, err := json.Marshal(v)
				if err != nil {
					args[i] = nil
					continue
				}
				args[i] = string(b)
			default:
				args[i] = val
			}
		}

		if _, err := stmt.Exec(args...); err != nil {
			// Skip records that violate constraints (prd002-sqlite-backend R4.2).
			continue
		}
	}

	return nil
}
