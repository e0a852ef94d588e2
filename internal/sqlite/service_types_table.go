// Service types table accessor for the SQLite archive.
// Implements: prd002-sqlite-backend R12-R15; prd003-city-interface R3.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// Compile-time interface check: serviceTypesTable must implement Table.
var _ types.Table = (*serviceTypesTable)(nil)

// serviceTypesTable implements the Table interface for the service type
// catalog. Service types are keyed by name; land use bindings and bricks
// are stored as JSON inside their TEXT columns.
type serviceTypesTable struct {
	backend *Backend
}

const serviceTypeColumns = "name, demand, accessibility, land_uses, bricks, created_at, updated_at"

// Get retrieves a service type by name.
func (t *serviceTypesTable) Get(id string) (any, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrAtlasDetached
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}

	row := t.backend.db.QueryRow(
		"SELECT "+serviceTypeColumns+" FROM service_types WHERE name = ?", id)
	st, err := hydrateServiceType(row.Scan)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting service type %s: %w", id, err)
	}
	return st, nil
}

// Set persists a service type. An empty id takes the key from the struct's
// Name. Returns the name used as the ID.
func (t *serviceTypesTable) Set(id string, data any) (string, error) {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return "", types.ErrAtlasDetached
	}

	st, ok := data.(*types.ServiceType)
	if !ok {
		return "", types.ErrInvalidData
	}
	if id != "" {
		st.Name = id
	}
	if err := st.Validate(); err != nil {
		return "", err
	}
	id = st.Name

	landUses, bricks, err := marshalServiceTypeFields(st)
	if err != nil {
		return "", err
	}

	var exists bool
	err = t.backend.db.QueryRow(
		"SELECT 1 FROM service_types WHERE name = ?", id).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("checking service type existence: %w", err)
	}

	now := time.Now().UTC()
	if !exists && st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	st.UpdatedAt = now

	if exists {
		_, err = t.backend.db.Exec(
			`UPDATE service_types SET demand = ?, accessibility = ?, land_uses = ?, bricks = ?,
			 created_at = ?, updated_at = ? WHERE name = ?`,
			st.Demand, st.Accessibility, landUses, bricks,
			formatTime(st.CreatedAt), formatTime(st.UpdatedAt), id,
		)
	} else {
		_, err = t.backend.db.Exec(
			"INSERT INTO service_types ("+serviceTypeColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
			id, st.Demand, st.Accessibility, landUses, bricks,
			formatTime(st.CreatedAt), formatTime(st.UpdatedAt),
		)
	}
	if err != nil {
		return "", fmt.Errorf("persisting service type: %w", err)
	}

	if err := persistServiceTypesJSONL(t.backend); err != nil {
		return "", fmt.Errorf("persisting service_types.jsonl: %w", err)
	}
	return id, nil
}

// Delete removes a service type and the facilities placed under it.
func (t *serviceTypesTable) Delete(id string) error {
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
		"SELECT 1 FROM service_types WHERE name = ?", id).Scan(&exists)
	if err == sql.ErrNoRows {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking service type existence: %w", err)
	}

	tx, err := t.backend.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM facilities WHERE service_type = ?", id); err != nil {
		return fmt.Errorf("deleting service type facilities: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM service_types WHERE name = ?", id); err != nil {
		return fmt.Errorf("deleting service type: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing service type deletion: %w", err)
	}

	if err := persistServiceTypesJSONL(t.backend); err != nil {
		return err
	}
	return persistFacilitiesJSONL(t.backend)
}

// Fetch returns service types matching the filter. Supported keys:
// land_use (string, matches types bound to that land use), limit, offset.
func (t *serviceTypesTable) Fetch(filter map[string]any) ([]any, error) {
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

	var landUse string
	for key, val := range filter {
		switch key {
		case "land_use":
			landUse, err = filterString(val)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: unknown key %q", types.ErrInvalidFilter, key)
		}
	}

	query := "SELECT " + serviceTypeColumns + " FROM service_types ORDER BY name"
	query, args := paginate(query, nil, limit, offset)

	rows, err := t.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching service types: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		st, err := hydrateServiceType(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning service type: %w", err)
		}
		// The land use binding lives inside a JSON column; filter after
		// hydration rather than with SQL string matching.
		if landUse != "" && !st.AllowedOn(types.LandUse(landUse)) {
			continue
		}
		results = append(results, st)
	}
	return results, rows.Err()
}

// marshalServiceTypeFields serializes the land use and brick slices for
// their JSON TEXT columns.
func marshalServiceTypeFields(st *types.ServiceType) (landUses, bricks string, err error) {
	uses := make([]string, len(st.LandUses))
	for i, lu := range st.LandUses {
		uses[i] = string(lu)
	}
	usesData, err := json.Marshal(uses)
	if err != nil {
		return "", "", fmt.Errorf("marshaling land uses: %w", err)
	}
	brickRecs := make([]brickJSON, len(st.Bricks))
	for i, b := range st.Bricks {
		brickRecs[i] = brickJSON{Capacity: b.Capacity, Area: b.Area, Integrated: b.Integrated}
	}
	bricksData, err := json.Marshal(brickRecs)
	if err != nil {
		return "", "", fmt.Errorf("marshaling bricks: %w", err)
	}
	return string(usesData), string(bricksData), nil
}

// hydrateServiceType scans one service type row into a *types.ServiceType.
func hydrateServiceType(scan func(...any) error) (*types.ServiceType, error) {
	var (
		st                   types.ServiceType
		landUses, bricks     string
		createdAt, updatedAt string
	)
	if err := scan(&st.Name, &st.Demand, &st.Accessibility, &landUses, &bricks,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var uses []string
	if err := json.Unmarshal([]byte(landUses), &uses); err != nil {
		return nil, fmt.Errorf("%w: land_uses %q", types.ErrInvalidData, landUses)
	}
	for _, u := range uses {
		st.LandUses = append(st.LandUses, types.LandUse(u))
	}

	var brickRecs []brickJSON
	if err := json.Unmarshal([]byte(bricks), &brickRecs); err != nil {
		return nil, fmt.Errorf("%w: bricks %q", types.ErrInvalidData, bricks)
	}
	for _, b := range brickRecs {
		st.Bricks = append(st.Bricks, types.Brick{Capacity: b.Capacity, Area: b.Area, Integrated: b.Integrated})
	}

	st.CreatedAt = parseTime(createdAt)
	st.UpdatedAt = parseTime(updatedAt)
	return &st, nil
}

// persistServiceTypesJSONL writes every service type row to
// service_types.jsonl atomically.
func persistServiceTypesJSONL(b *Backend) error {
	rows, err := b.db.Query("SELECT " + serviceTypeColumns + " FROM service_types ORDER BY name")
	if err != nil {
		return fmt.Errorf("querying service types for JSONL: %w", err)
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
			return fmt.Errorf("scanning service type for JSONL: %w", err)
		}
		if err := json.Unmarshal([]byte(landUses), &rec.LandUses); err != nil {
			return fmt.Errorf("unmarshaling land uses for JSONL: %w", err)
		}
		if err := json.Unmarshal([]byte(bricks), &rec.Bricks); err != nil {
			return fmt.Errorf("unmarshaling bricks for JSONL: %w", err)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling service type for JSONL: %w", err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(b.dataDir(), "service_types.jsonl"), records)
}
