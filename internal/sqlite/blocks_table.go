// Blocks table accessor for the SQLite archive.
// Implements: prd002-sqlite-backend R12-R15 (routing, interface, hydration,
// persistence); prd003-city-interface R7 (block storage).
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// Compile-time interface check: blocksTable must implement Table.
var _ types.Table = (*blocksTable)(nil)

// blocksTable implements the Table interface for blocks. Blocks are keyed
// by their stable integer ID, passed through the string Table API.
type blocksTable struct {
	backend *Backend
}

const blockColumns = "block_id, land_use, geometry, created_at, updated_at"

// Get retrieves a block by its stringified integer ID.
func (t *blocksTable) Get(id string) (any, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	if !t.backend.attached {
		return nil, types.ErrAtlasDetached
	}

	blockID, err := parseBlockID(id)
	if err != nil {
		return nil, err
	}

	row := t.backend.db.QueryRow(
		"SELECT "+blockColumns+" FROM blocks WHERE block_id = ?", blockID)
	block, err := hydrateBlock(row.Scan)
	if err == sql.ErrNoRows {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting block %d: %w", blockID, err)
	}
	return block, nil
}

// Set persists a block. An empty id takes the key from the struct's
// BlockID; a non-empty id overrides it. Returns the actual ID used.
func (t *blocksTable) Set(id string, data any) (string, error) {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return "", types.ErrAtlasDetached
	}

	block, ok := data.(*types.Block)
	if !ok {
		return "", types.ErrInvalidData
	}
	if id != "" {
		blockID, err := parseBlockID(id)
		if err != nil {
			return "", err
		}
		block.BlockID = blockID
	}
	if err := block.Validate(); err != nil {
		return "", err
	}

	geometry, err := encodeGeometry(block.Geometry)
	if err != nil {
		return "", err
	}

	var exists bool
	err = t.backend.db.QueryRow(
		"SELECT 1 FROM blocks WHERE block_id = ?", block.BlockID).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("checking block existence: %w", err)
	}

	now := time.Now().UTC()
	if !exists && block.CreatedAt.IsZero() {
		block.CreatedAt = now
	}
	block.UpdatedAt = now

	if exists {
		_, err = t.backend.db.Exec(
			"UPDATE blocks SET land_use = ?, geometry = ?, created_at = ?, updated_at = ? WHERE block_id = ?",
			string(block.LandUse), geometry, formatTime(block.CreatedAt), formatTime(block.UpdatedAt), block.BlockID,
		)
	} else {
		_, err = t.backend.db.Exec(
			"INSERT INTO blocks ("+blockColumns+") VALUES (?, ?, ?, ?, ?)",
			block.BlockID, string(block.LandUse), geometry, formatTime(block.CreatedAt), formatTime(block.UpdatedAt),
		)
	}
	if err != nil {
		return "", fmt.Errorf("persisting block: %w", err)
	}

	if err := persistBlocksJSONL(t.backend); err != nil {
		return "", fmt.Errorf("persisting blocks.jsonl: %w", err)
	}
	return strconv.Itoa(block.BlockID), nil
}

// Delete removes a block and cascades to its buildings, facilities, and
// matrix rows (prd002-sqlite-backend R5.5).
func (t *blocksTable) Delete(id string) error {
	t.backend.mu.Lock()
	defer t.backend.mu.Unlock()
	if !t.backend.attached {
		return types.ErrAtlasDetached
	}

	blockID, err := parseBlockID(id)
	if err != nil {
		return err
	}

	var exists bool
	err = t.backend.db.QueryRow(
		"SELECT 1 FROM blocks WHERE block_id = ?", blockID).Scan(&exists)
	if err == sql.ErrNoRows {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking block existence: %w", err)
	}

	tx, err := t.backend.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM facilities WHERE block_id = ?", blockID); err != nil {
		return fmt.Errorf("deleting block facilities: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM buildings WHERE block_id = ?", blockID); err != nil {
		return fmt.Errorf("deleting block buildings: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM matrix WHERE from_id = ? OR to_id = ?", blockID, blockID); err != nil {
		return fmt.Errorf("deleting block matrix rows: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM blocks WHERE block_id = ?", blockID); err != nil {
		return fmt.Errorf("deleting block: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing block deletion: %w", err)
	}

	for _, persist := range []func(*Backend) error{
		persistBlocksJSONL, persistBuildingsJSONL, persistFacilitiesJSONL, persistMatrixJSONL,
	} {
		if err := persist(t.backend); err != nil {
			return err
		}
	}
	return nil
}

// Fetch returns blocks matching the filter. Supported keys: land_use
// (string), ids ([]int), limit, offset.
func (t *blocksTable) Fetch(filter map[string]any) ([]any, error) {
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

	query := "SELECT " + blockColumns + " FROM blocks"
	var conds []string
	var args []any
	for key, val := range filter {
		switch key {
		case "land_use":
			lu, err := filterString(val)
			if err != nil {
				return nil, err
			}
			conds = append(conds, "land_use = ?")
			args = append(args, lu)
		case "ids":
			ids, err := filterIntSlice(val)
			if err != nil {
				return nil, err
			}
			placeholders := make([]string, len(ids))
			for i, bid := range ids {
				placeholders[i] = "?"
				args = append(args, bid)
			}
			conds = append(conds, "block_id IN ("+strings.Join(placeholders, ", ")+")")
		default:
			return nil, fmt.Errorf("%w: unknown key %q", types.ErrInvalidFilter, key)
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY block_id"
	query, args = paginate(query, args, limit, offset)

	rows, err := t.backend.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching blocks: %w", err)
	}
	defer rows.Close()

	results := []any{}
	for rows.Next() {
		block, err := hydrateBlock(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning block: %w", err)
		}
		results = append(results, block)
	}
	return results, rows.Err()
}

// parseBlockID converts a string table ID into the integer block key.
func parseBlockID(id string) (int, error) {
	if id == "" {
		return 0, types.ErrInvalidID
	}
	blockID, err := strconv.Atoi(id)
	if err != nil || blockID < 0 {
		return 0, types.ErrInvalidID
	}
	return blockID, nil
}

// hydrateBlock scans one block row into a *types.Block.
func hydrateBlock(scan func(...any) error) (*types.Block, error) {
	var (
		blockID              int
		landUse              sql.NullString
		geometry             string
		createdAt, updatedAt string
	)
	if err := scan(&blockID, &landUse, &geometry, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	polygon, err := decodePolygon(geometry)
	if err != nil {
		return nil, err
	}
	return &types.Block{
		BlockID:   blockID,
		LandUse:   types.LandUse(landUse.String),
		Geometry:  polygon,
		CreatedAt: parseTime(createdAt),
		UpdatedAt: parseTime(updatedAt),
	}, nil
}

// persistBlocksJSONL writes every block row to blocks.jsonl atomically.
func persistBlocksJSONL(b *Backend) error {
	rows, err := b.db.Query("SELECT " + blockColumns + " FROM blocks ORDER BY block_id")
	if err != nil {
		return fmt.Errorf("querying blocks for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var (
			rec     blockJSON
			landUse sql.NullString
		)
		if err := rows.Scan(&rec.BlockID, &landUse, &rec.Geometry, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return fmt.Errorf("scanning block for JSONL: %w", err)
		}
		rec.LandUse = landUse.String
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshaling block for JSONL: %w", err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(b.dataDir(), "blocks.jsonl"), records)
}
