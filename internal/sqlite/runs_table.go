// Runs table accessor for the SQLite archive.
// Implements: prd002-sqlite-backend R12-R15; prd001-atlas-core R5 (run audit).
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

// Compile-time interface check: runsTable must implement Table.
var _ types.Table = (*runsTable)(nil)

// runsTable implements the Table interface for analysis run records.
// Params and results are stored as JSON in their TEXT columns.
type runsTable struct {
	backend *Backend
}

const runColumns = "run_id, kind, service_type, params, result, created_at"

// Get retrieves a run by ID.
func (t *runsTable) Get(id string) (any, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrAtlasDetached
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}

	row := t.backend.db.QueryRow(
		"SELECT "+runColumns+" FROM runs WHERE run_id = ?", id)
	run, err := hydrateRun(row.Scan)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting run %s: %w", id, err)
	}
	return run, nil
}

// Set persists a run record. An empty id generates a UUID v7. Runs are an
// append-mostly audit trail; updating an existing run replaces it.
func (t *runsTable) Set(id string, data any) (string, error) {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return "", types.ErrAtlasDetached
	}

	run, ok := data.(*types.Run)
	if !ok {
		return "", types.ErrInvalidData
	}
	if err := run.Validate(); err != nil {
		return "", err
	}
	if id == "" {
		id = newUUID()
	}
	run.RunID = id
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	params, err := json.Marshal(run.Params)
	if err != nil {
		return "", fmt.Errorf("marshaling run params: %w", err)
	}
	result, err := json.Marshal(run.Result)
	if err != nil {
		return "", fmt.Errorf("marshaling run result: %w", err)
	}

	serviceType := sql.NullString{String: run.ServiceType, Valid: run.ServiceType != ""}
	_, err = t.backend.db.Exec(
		"INSERT OR REPLACE INTO runs ("+runColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		id, run.Kind, serviceType, string(params), string(result), formatTime(run.CreatedAt),
	)
	if err != nil {
		return "", fmt.Errorf("persisting run: %w", err)
	}

	if err := persistRunsJSONL(t.backend); err != nil {
		return "", fmt.Errorf("persisting runs.jsonl: %w", err)
	}
	return id, nil
}

// Delete removes a run record.
func (t *runsTable) Delete(id string) error {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return types.ErrAtlasDetached
	}
	if id == "" {
		return types.ErrInvalidID
	}

	result, err := t.backend.db.Exec("DELETE FROM runs WHERE run_id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking deletion: %w", err)
	}
	if affected == 0 {
		return types.ErrNotFound
	}
	return persistRunsJSONL(t.backend)
}

// Fetch returns runs matching the filter, newest first. Supported keys:
// kind (string), service_type (string), limit, offset.
func (t *runsTable) Fetch(filter map[string]any) ([]any, error) {
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

	query := "SELECT " + runColumns + " FROM runs"
	var conds []string
	var args []any
	for key, val := range filter {
		switch key {
		case "kind":
			kind, err := filterString(val)
			if err != nil {
				return nil, err
			}
			conds = append(conds, "kind = ?")
			args = append(args, kind)
		case "service_type":
			st, err := filterString(val)
			if err != nil {
				return nil, err
			}
			conds = append(conds, "service_type = ?")
			args = append(args, st)
		default:
			return nil, fmt.Errorf("%w: unknown key %q", types.ErrInvalidFilter, key)
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	// UUID v7 sorts by creation time, so run_id descending is newest first.
	query += " ORDER BY run_id DESC"
	query, args = paginate(query, args, limit, offset)

	rows, err := t.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching runs: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		run, err := hydrateRun(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		results = append(results, run)
	}
	return results, rows.Err()
}

// hydrateRun scans one run row into a *types.Run.
func hydrateRun(scan func(...any) error) (*types.Run, error) {
	var (
		r              types.Run
		serviceType    sql.NullString
		params, result string
		createdAt      string
	)
	if err := scan(&r.RunID, &r.Kind, &serviceType, &params, &result, &createdAt); err != nil {
		return nil, err
	}
	r.ServiceType = serviceType.String
	if err := json.Unmarshal([]byte(params), &r.Params); err != nil {
		return nil, fmt.Errorf("%w: run params", types.ErrInvalidData)
	}
	if err := json.Unmarshal([]byte(result), &r.Result); err != nil {
		return nil, fmt.Errorf("%w: run result", types.ErrInvalidData)
	}
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}

// persistRunsJSONL writes every run row to runs.jsonl atomically.
func persistRunsJSONL(b *Backend) error {
	rows, err := b.db.Query("SELECT " + runColumns + " FROM runs ORDER BY run_id")
	if err != nil {
		return fmt.Errorf("querying runs for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var (
			rec            runJSON
			serviceType    sql.NullString
			params, result string
		)
		if err := rows.Scan(&rec.RunID, &rec.Kind, &serviceType, &params, &result, &rec.CreatedAt); err != nil {
			return fmt.Errorf("scanning run for JSONL: %w", err)
		}
		rec.ServiceType = serviceType.String
		if err := json.Unmarshal([]byte(params), &rec.Params); err != nil {
			return fmt.Errorf("unmarshaling run params for JSONL: %w", err)
		}
		if err := json.Unmarshal([]byte(result), &rec.Result); err != nil {
			return fmt.Errorf("unmarshaling run result for JSONL: %w", err)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling run for JSONL: %w", err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(b.dataDir(), "runs.jsonl"), records)
}
