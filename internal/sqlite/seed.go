// Default service type catalog seeding on backend attach.
// Implements: prd002-sqlite-backend R9 (catalog seeding);
// prd003-city-interface R3.4 (default service types).
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// seedServiceTypes inserts the default service type catalog when the
// service_types table is empty (first run). Seeding is idempotent: an
// archive that already carries service types, including one where the
// user deleted or edited defaults, is left alone (prd002-sqlite-backend
// R9.4).
func seedServiceTypes(db *sql.DB, dataDir string) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM service_types").Scan(&count); err != nil {
		return fmt.Errorf("counting service types: %w", err)
	}
	if count > 0 {
		return nil
	}

	nowStr := time.Now().UTC().Format(time.RFC3339)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, st := range types.DefaultServiceTypes() {
		st := st
		landUses, bricks, err := marshalServiceTypeFields(&st)
		if err != nil {
			return err
		}
		_, err = tx.Exec(
			"INSERT INTO service_types ("+serviceTypeColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
			st.Name, st.Demand, st.Accessibility, landUses, bricks, nowStr, nowStr,
		)
		if err != nil {
			return fmt.Errorf("seeding service type %s: %w", st.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed transaction: %w", err)
	}

	return persistSeededJSONL(db, dataDir)
}

// persistSeededJSONL writes the seeded catalog to service_types.jsonl
// after first-run seeding.
func persistSeededJSONL(db *sql.DB, dataDir string) error {
	rows, err := db.Query("SELECT " + serviceTypeColumns + " FROM service_types ORDER BY name")
	if err != nil {
		return fmt.Errorf("querying service types for seed JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var (
			rec              serviceTypeJSON
			landUses, bricks string
		)
		if err := rows.Scan(&rec.Name, &rec.Demand, &rec.Accessibility, &landUses, &bricks,
			&rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return fmt.Errorf("scanning service type for seed JSONL: %w", err)
		}
		if err := json.Unmarshal([]byte(landUses), &rec.LandUses); err != nil {
			return fmt.Errorf("unmarshaling land uses for seed JSONL: %w", err)
		}
		if err := json.Unmarshal([]byte(bricks), &rec.Bricks); err != nil {
			return fmt.Errorf("unmarshaling bricks for seed JSONL: %w", err)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling service type for seed JSONL: %w", err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(dataDir, "service_types.jsonl"), records)
}
