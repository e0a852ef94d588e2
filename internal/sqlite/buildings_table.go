// Buildings table accessor for the SQLite archive.
// Implements: prd002-sqlite-backend R12-R15; prd003-city-interface R5.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// Compile-time interface check: buildingsTable must implement Table.
var _ types.Table = (*buildingsTable)(nil)

// buildingsTable implements the Table interface for buildings.
type buildingsTable struct {
	backend *Backend
}

const buildingColumns = "building_id, block_id, geometry, floors, build_floor_area, living_area, business_area, population, created_at, updated_at"

// Get retrieves a building by ID.
func (t *buildingsTable) Get(id string) (any, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrAtlasDetached
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}

	row := t.backend.db.QueryRow(
		"SELECT "+buildingColumns+" FROM buildings WHERE building_id = ?", id)
	building, err := hydrateBuilding(row.Scan)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting building %s: %w", id, err)
	}
	return building, nil
}

// Set persists a building. An empty id generates a UUID v7. Returns the
// actual ID used.
func (t *buildingsTable) Set(id string, data any) (string, error) {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return "", types.ErrAtlasDetached
	}

	building, ok := data.(*types.Building)
	if !ok {
		return "", types.ErrInvalidData
	}
	if err := building.Validate(); err != nil {
		return "", err
	}
	if id == "" {
		id = newUUID()
	}
	building.BuildingID = id

	geometry, err := encodeGeometry(building.Geometry)
	if err != nil {
		return "", err
	}

	var exists bool
	err = t.backend.db.QueryRow(
		"SELECT 1 FROM buildings WHERE building_id = ?", id).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("checking building existence: %w", err)
	}

	now := time.Now().UTC()
	if !exists && building.CreatedAt.IsZero() {
		building.CreatedAt = now
	}
	building.UpdatedAt = now

	if exists {
		_, err = t.backend.db.Exec(
			`UPDATE buildings SET block_id = ?, geometry = ?, floors = ?, build_floor_area = ?,
			 living_area = ?, business_area = ?, population = ?, created_at = ?, updated_at = ?
			 WHERE building_id = ?`,
			building.BlockID, geometry, building.Floors, building.BuildFloorArea,
			building.LivingArea, building.BusinessArea, building.Population,
			formatTime(building.CreatedAt), formatTime(building.UpdatedAt), id,
		)
	} else {
		_, err = t.backend.db.Exec(
			"INSERT INTO buildings ("+buildingColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			id, building.BlockID, geometry, building.Floors, building.BuildFloorArea,
			building.LivingArea, building.BusinessArea, building.Population,
			formatTime(building.CreatedAt), formatTime(building.UpdatedAt),
		)
	}
	if err != nil {
		return "", fmt.Errorf("persisting building: %w", err)
	}

	if err := persistBuildingsJSONL(t.backend); err != nil {
		return "", fmt.Errorf("persisting buildings.jsonl: %w", err)
	}
	return id, nil
}

// Delete removes a building and any facilities it hosts.
func (t *buildingsTable) Delete(id string) error {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return types.ErrAtlasDetached
	}
	if id == "" {
		return types.ErrInvalidID
	}

	var exists bool
	err := t.backend.db.QueryRow(
		"SELECT 1 FROM buildings WHERE building_id = ?", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking building existence: %w", err)
	}

	tx, err := t.backend.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM facilities WHERE building_id = ?", id); err != nil {
		return fmt.Errorf("deleting hosted facilities: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM buildings WHERE building_id = ?", id); err != nil {
		return fmt.Errorf("deleting building: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing building deletion: %w", err)
	}

	if err := persistBuildingsJSONL(t.backend); err != nil {
		return err
	}
	return persistFacilitiesJSONL(t.backend)
}

// Fetch returns buildings matching the filter. Supported keys: block_id
// (int), limit, offset.
func (t *buildingsTable) Fetch(filter map[string]any) ([]any, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrAtlasDetached
	}

	filter = cloneFilter(filter)
	limit, offset, err := pagination(filter)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + buildingColumns + " FROM buildings"
	var conds []string
	var args []any
	for key, val := range filter {
		switch key {
		case "block_id":
			blockID, err := filterInt(val)
			if err != nil {
				return nil, err
			}
			conds = append(conds, "block_id = ?")
			args = append(args, blockID)
		default:
			return nil, fmt.Errorf("%w: unknown key %q", types.ErrInvalidFilter, key)
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY building_id"
	query, args = paginate(query, args, limit, offset)

	rows, err := t.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching buildings: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		building, err := hydrateBuilding(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning building: %w", err)
		}
		results = append(results, building)
	}
	return results, rows.Err()
}

// hydrateBuilding scans one building row into a *types.Building.
func hydrateBuilding(scan func(...any) error) (*types.Building, error) {
	var (
		b                    types.Building
		geometry             string
		createdAt, updatedAt string
	)
	if err := scan(&b.BuildingID, &b.BlockID, &geometry, &b.Floors, &b.BuildFloorArea,
		&b.LivingArea, &b.BusinessArea, &b.Population, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	polygon, err := decodePolygon(geometry)
	if err != nil {
		return nil, err
	}
	b.Geometry = polygon
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}

// persistBuildingsJSONL writes every building row to buildings.jsonl atomically.
func persistBuildingsJSONL(b *Backend) error {
	rows, err := b.db.Query("SELECT " + buildingColumns + " FROM buildings ORDER BY building_id")
	if err != nil {
		return fmt.Errorf("querying buildings for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var rec buildingJSON
		if err := rows.Scan(&rec.BuildingID, &rec.BlockID, &rec.Geometry, &rec.Floors,
			&rec.BuildFloorArea, &rec.LivingArea, &rec.BusinessArea, &rec.Population,
			&rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return fmt.Errorf("scanning building for JSONL: %w", err)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling building for JSONL: %w", err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(b.dataDir(), "buildings.jsonl"), records)
}
