// Facilities table accessor for the SQLite archive.
// Implements: prd002-sqlite-backend R12-R15; prd003-city-interface R6.
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

// Compile-time interface check: facilitiesTable must implement Table.
var _ types.Table = (*facilitiesTable)(nil)

// facilitiesTable implements the Table interface for facilities. Facility
// geometry may be a point or a polygon, so rows keep the full GeoJSON
// geometry rather than forcing a polygon.
type facilitiesTable struct {
	backend *Backend
}

const facilityColumns = "facility_id, service_type, block_id, building_id, geometry, capacity, area, created_at, updated_at"

// Get retrieves a facility by ID.
func (t *facilitiesTable) Get(id string) (any, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrAtlasDetached
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}

	row := t.backend.db.QueryRow(
		"SELECT "+facilityColumns+" FROM facilities WHERE facility_id = ?", id)
	facility, err := hydrateFacility(row.Scan)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting facility %s: %w", id, err)
	}
	return facility, nil
}

// Set persists a facility. An empty id generates a UUID v7. The service
// type must exist in the catalog. Returns the actual ID used.
func (t *facilitiesTable) Set(id string, data any) (string, error) {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return "", types.ErrAtlasDetached
	}

	facility, ok := data.(*types.Facility)
	if !ok {
		return "", types.ErrInvalidData
	}
	if err := facility.Validate(); err != nil {
		return "", err
	}

	var serviceTypeExists bool
	err := t.backend.db.QueryRow(
		"SELECT 1 FROM service_types WHERE name = ?", facility.ServiceType).Scan(&serviceTypeExists)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", types.ErrUnknownServiceType, facility.ServiceType)
	}
	if err != nil {
		return "", fmt.Errorf("checking service type: %w", err)
	}

	if id == "" {
		id = newUUID()
	}
	facility.FacilityID = id

	geometry, err := encodeGeometry(facility.Geometry)
	if err != nil {
		return "", err
	}

	var exists bool
	err = t.backend.db.QueryRow(
		"SELECT 1 FROM facilities WHERE facility_id = ?", id).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("checking facility existence: %w", err)
	}

	now := time.Now().UTC()
	if !exists && facility.CreatedAt.IsZero() {
		facility.CreatedAt = now
	}
	facility.UpdatedAt = now

	buildingID := sql.NullString{String: facility.BuildingID, Valid: facility.BuildingID != ""}
	if exists {
		_, err = t.backend.db.Exec(
			`UPDATE facilities SET service_type = ?, block_id = ?, building_id = ?, geometry = ?,
			 capacity = ?, area = ?, created_at = ?, updated_at = ? WHERE facility_id = ?`,
			facility.ServiceType, facility.BlockID, buildingID, geometry,
			facility.Capacity, facility.Area,
			formatTime(facility.CreatedAt), formatTime(facility.UpdatedAt), id,
		)
	} else {
		_, err = t.backend.db.Exec(
			"INSERT INTO facilities ("+facilityColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			id, facility.ServiceType, facility.BlockID, buildingID, geometry,
			facility.Capacity, facility.Area,
			formatTime(facility.CreatedAt), formatTime(facility.UpdatedAt),
		)
	}
	if err != nil {
		return "", fmt.Errorf("persisting facility: %w", err)
	}

	if err := persistFacilitiesJSONL(t.backend); err != nil {
		return "", fmt.Errorf("persisting facilities.jsonl: %w", err)
	}
	return id, nil
}

// Delete removes a facility.
func (t *facilitiesTable) Delete(id string) error {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return types.ErrAtlasDetached
	}
	if id == "" {
		return types.ErrInvalidID
	}

	result, err := t.backend.db.Exec("DELETE FROM facilities WHERE facility_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting facility: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deletion: %w", err)
	}
	if affected == 0 {
		return types.ErrNotFound
	}
	return persistFacilitiesJSONL(t.backend)
}

// Fetch returns facilities matching the filter. Supported keys: block_id
// (int), service_type (string), building_id (string), limit, offset.
func (t *facilitiesTable) Fetch(filter map[string]any) ([]any, error) {
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

	query := "SELECT " + facilityColumns + " FROM facilities"
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
		case "service_type":
			st, err := filterString(val)
			if err != nil {
				return nil, err
			}
			conds = append(conds, "service_type = ?")
			args = append(args, st)
		case "building_id":
			bid, err := filterString(val)
			if err != nil {
				return nil, err
			}
			conds = append(conds, "building_id = ?")
			args = append(args, bid)
		default:
			return nil, fmt.Errorf("%w: unknown key %q", types.ErrInvalidFilter, key)
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY facility_id"
	query, args = paginate(query, args, limit, offset)

	rows, err := t.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching facilities: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		facility, err := hydrateFacility(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning facility: %w", err)
		}
		results = append(results, facility)
	}
	return results, rows.Err()
}

// hydrateFacility scans one facility row into a *types.Facility.
func hydrateFacility(scan func(...any) error) (*types.Facility, error) {
	var (
		f                    types.Facility
		buildingID           sql.NullString
		geometry             string
		createdAt, updatedAt string
	)
	if err := scan(&f.FacilityID, &f.ServiceType, &f.BlockID, &buildingID, &geometry,
		&f.Capacity, &f.Area, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	g, err := decodeGeometry(geometry)
	if err != nil {
		return nil, err
	}
	f.BuildingID = buildingID.String
	f.Geometry = g
	f.CreatedAt = parseTime(createdAt)
	f.UpdatedAt = parseTime(updatedAt)
	return &f, nil
}

// persistFacilitiesJSONL writes every facility row to facilities.jsonl atomically.
func persistFacilitiesJSONL(b *Backend) error {
	rows, err := b.db.Query("SELECT " + facilityColumns + " FROM facilities ORDER BY facility_id")
	if err != nil {
		return fmt.Errorf("querying facilities for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var (
			rec        facilityJSON
			buildingID sql.NullString
		)
		if err := rows.Scan(&rec.FacilityID, &rec.ServiceType, &rec.BlockID, &buildingID,
			&rec.Geometry, &rec.Capacity, &rec.Area, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return fmt.Errorf("scanning facility for JSONL: %w", err)
		}
		rec.BuildingID = buildingID.String
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling facility for JSONL: %w", err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(b.dataDir(), "facilities.jsonl"), records)
}
