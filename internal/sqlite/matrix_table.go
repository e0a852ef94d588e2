// Matrix table accessor for the SQLite archive.
// Implements: prd002-sqlite-backend R12-R15; prd003-city-interface R8.
package sqlite

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// matrixID is the fixed ID of the archive's single travel time matrix.
const matrixID = "matrix"

// Compile-time interface check: matrixTable must implement Table.
var _ types.Table = (*matrixTable)(nil)

// matrixTable implements the Table interface for the travel time matrix.
// The archive holds at most one matrix, stored as one row per block pair
// and addressed by the fixed ID "matrix".
type matrixTable struct {
	backend *Backend
}

// Get rebuilds the matrix from its pair rows. Only the fixed matrix ID is
// valid; an empty archive returns ErrNotFound.
func (t *matrixTable) Get(id string) (any, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrAtlasDetached
	}
	if id == "" {
		return nil, types.ErrInvalidID
	}
	if id != matrixID {
		return nil, types.ErrNotFound
	}
	return t.hydrateMatrix()
}

// Set replaces the stored matrix with the given one. Any id other than
// empty or the fixed matrix ID is rejected.
func (t *matrixTable) Set(id string, data any) (string, error) {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return "", types.ErrAtlasDetached
	}
	if id != "" && id != matrixID {
		return "", types.ErrInvalidID
	}

	matrix, ok := data.(*types.Matrix)
	if !ok {
		return "", types.ErrInvalidData
	}

	tx, err := t.backend.db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM matrix"); err != nil {
		return "", fmt.Errorf("clearing matrix: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO matrix (from_id, to_id, minutes) VALUES (?, ?, ?)")
	if err != nil {
		return "", fmt.Errorf("preparing matrix insert: %w", err)
	}
	defer stmt.Close()

	ids := matrix.IDs()
	for _, from := range ids {
		row, err := matrix.Row(from)
		if err != nil {
			return "", err
		}
		for j, minutes := range row {
			if _, err := stmt.Exec(from, ids[j], minutes); err != nil {
				return "", fmt.Errorf("persisting matrix pair: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing matrix: %w", err)
	}

	if err := persistMatrixJSONL(t.backend); err != nil {
		return "", fmt.Errorf("persisting matrix.jsonl: %w", err)
	}
	return matrixID, nil
}

// Delete clears the stored matrix.
func (t *matrixTable) Delete(id string) error {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return types.ErrAtlasDetached
	}
	if id == "" {
		return types.ErrInvalidID
	}
	if id != matrixID {
		return types.ErrNotFound
	}

	var count int
	if err := t.backend.db.QueryRow("SELECT COUNT(*) FROM matrix").Scan(&count); err != nil {
		return fmt.Errorf("counting matrix rows: %w", err)
	}
	if count == 0 {
		return types.ErrNotFound
	}
	if _, err := t.backend.db.Exec("DELETE FROM matrix"); err != nil {
		return fmt.Errorf("clearing matrix: %w", err)
	}
	return persistMatrixJSONL(t.backend)
}

// Fetch returns the matrix as a single-element slice, or an empty slice
// when the archive holds no matrix. Filters are not supported.
func (t *matrixTable) Fetch(filter map[string]any) ([]any, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrAtlasDetached
	}
	if len(filter) > 0 {
		return nil, fmt.Errorf("%w: matrix table takes no filters", types.ErrInvalidFilter)
	}

	var count int
	if err := t.backend.db.QueryRow("SELECT COUNT(*) FROM matrix").Scan(&count); err != nil {
		return nil, fmt.Errorf("counting matrix rows: %w", err)
	}
	if count == 0 {
		return []any{}, nil
	}
	matrix, err := t.hydrateMatrix()
	if err != nil {
		return nil, err
	}
	return []any{matrix}, nil
}

// hydrateMatrix rebuilds a *types.Matrix from the pair rows. Matrix order
// is ascending block ID; the city model sorts its blocks the same way.
func (t *matrixTable) hydrateMatrix() (*types.Matrix, error) {
	rows, err := t.backend.db.Query("SELECT from_id, to_id, minutes FROM matrix")
	if err != nil {
		return nil, fmt.Errorf("querying matrix: %w", err)
	}
	defer rows.Close()

	type pair struct {
		from, to int
		minutes  float64
	}
	var pairs []pair
	idSet := make(map[int]bool)
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.from, &p.to, &p.minutes); err != nil {
			return nil, fmt.Errorf("scanning matrix pair: %w", err)
		}
		pairs = append(pairs, p)
		idSet[p.from] = true
		idSet[p.to] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, types.ErrNotFound
	}

	ids := make([]int, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	matrix, err := types.NewMatrix(ids)
	if err != nil {
		return nil, err
	}
	for _, p := range pairs {
		if err := matrix.Set(p.from, p.to, p.minutes); err != nil {
			return nil, err
		}
	}
	return matrix, nil
}

// persistMatrixJSONL writes every matrix pair to matrix.jsonl atomically.
func persistMatrixJSONL(b *Backend) error {
	rows, err := b.db.Query("SELECT from_id, to_id, minutes FROM matrix ORDER BY from_id, to_id")
	if err != nil {
		return fmt.Errorf("querying matrix for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var rec matrixJSON
		if err := rows.Scan(&rec.FromID, &rec.ToID, &rec.Minutes); err != nil {
			return fmt.Errorf("scanning matrix pair for JSONL: %w", err)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling matrix pair for JSONL: %w", err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(b.dataDir(), "matrix.jsonl"), records)
}
