// Import commands ingest local GeoJSON and CSV datasets into the archive.
// Implements: prd009-atlas-cli R3; prd008-geojson-io R1, R2.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/masterplan/pkg/geo"
	"github.com/mesh-intelligence/masterplan/pkg/prepare"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import blocks, buildings, facilities or a travel matrix",
}

var (
	importExclude        []string
	importDropUnassigned bool
	importSplit          bool
	importClusters       int
	importServiceType    string
)

var importBlocksCmd = &cobra.Command{
	Use:   "blocks <file.geojson>",
	Short: "Import the block set from GeoJSON",
	Long: `Import blocks replaces the archive's block set with the polygons of a
GeoJSON feature collection. Coordinates must be in a projected CRS.

The set can be cleaned on the way in: --exclude drops blocks by land
use, --split cuts oversized blocks around the buildings already in the
archive.

Example:
  atlas import blocks blocks.geojson
  atlas import blocks blocks.geojson --exclude industrial,transport
  atlas import blocks blocks.geojson --split --clusters 4`,
	Args: cobra.ExactArgs(1),
	RunE: runImportBlocks,
}

var importBuildingsCmd = &cobra.Command{
	Use:   "buildings <file.geojson>",
	Short: "Import the building stock from GeoJSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportBuildings,
}

var importFacilitiesCmd = &cobra.Command{
	Use:   "facilities <file.geojson>",
	Short: "Import facilities of one service type from GeoJSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportFacilities,
}

var importMatrixCmd = &cobra.Command{
	Use:   "matrix <file.csv>",
	Short: "Import a precomputed travel time matrix from CSV",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportMatrix,
}

func init() {
	importBlocksCmd.Flags().StringSliceVar(&importExclude, "exclude", nil, "land uses to drop")
	importBlocksCmd.Flags().BoolVar(&importDropUnassigned, "drop-unassigned", false, "drop blocks without a land use")
	importBlocksCmd.Flags().BoolVar(&importSplit, "split", false, "split oversized blocks around archived buildings")
	importBlocksCmd.Flags().IntVar(&importClusters, "clusters", prepare.DefaultClusters, "clusters per split block")
	importFacilitiesCmd.Flags().StringVar(&importServiceType, "service-type", "", "service type of the facilities (required)")
	_ = importFacilitiesCmd.MarkFlagRequired("service-type")

	importCmd.AddCommand(importBlocksCmd)
	importCmd.AddCommand(importBuildingsCmd)
	importCmd.AddCommand(importFacilitiesCmd)
	importCmd.AddCommand(importMatrixCmd)
}

func runImportBlocks(cmd *cobra.Command, args []string) error {
	data, err := readInput(args[0])
	if err != nil {
		return err
	}
	blocks, err := geo.DecodeBlocks(data)
	if err != nil {
		return fmt.Errorf("decode blocks: %w", err)
	}
	if err := prepare.ValidateBlocks(blocks); err != nil {
		return err
	}

	if len(importExclude) > 0 || importDropUnassigned {
		rule := prepare.FilterRule{DropUnassigned: importDropUnassigned}
		for _, raw := range importExclude {
			lu, err := types.ParseLandUse(raw)
			if err != nil {
				return err
			}
			rule.Exclude = append(rule.Exclude, lu)
		}
		before := len(blocks)
		if blocks, err = prepare.FilterLandUse(blocks, rule); err != nil {
			return err
		}
		logger.Debug("filtered blocks", zap.Int("dropped", before-len(blocks)))
	}

	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	if importSplit {
		buildings, err := archivedBuildings(backend)
		if err != nil {
			return err
		}
		res, err := prepare.Split(blocks, buildings, prepare.SplitOptions{
			Clusters: importClusters,
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		blocks = res.Blocks
		logger.Debug("split oversized blocks", zap.Int("split", len(res.Split)))
	}

	table, err := backend.GetTable(types.BlocksTable)
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		id, err := table.Set(strconv.Itoa(b.BlockID), b)
		if err != nil {
			return fmt.Errorf("store block %d: %w", b.BlockID, err)
		}
		keep[id] = true
	}
	if err := deleteStaleBlocks(table, keep); err != nil {
		return err
	}

	// A new block set invalidates any stored matrix.
	if err := dropMatrix(backend); err != nil {
		return err
	}

	fmt.Printf("Imported %d block(s)\n", len(blocks))
	return nil
}

func runImportBuildings(cmd *cobra.Command, args []string) error {
	data, err := readInput(args[0])
	if err != nil {
		return err
	}
	buildings, err := geo.DecodeBuildings(data)
	if err != nil {
		return fmt.Errorf("decode buildings: %w", err)
	}

	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	c, err := loadCity(backend)
	if err != nil {
		return err
	}
	orphans, err := c.UpdateBuildings(buildings)
	if err != nil {
		return err
	}

	table, err := backend.GetTable(types.BuildingsTable)
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(buildings))
	count := 0
	for _, block := range c.Blocks() {
		for _, b := range block.Buildings() {
			id, err := table.Set(b.BuildingID, b)
			if err != nil {
				return fmt.Errorf("store building %s: %w", b.BuildingID, err)
			}
			keep[id] = true
			count++
		}
	}
	stale, err := table.Fetch(nil)
	if err != nil {
		return err
	}
	for _, item := range stale {
		b := item.(*types.Building)
		if keep[b.BuildingID] {
			continue
		}
		if err := table.Delete(b.BuildingID); err != nil && !isEntityNotFound(err) {
			return err
		}
	}

	fmt.Printf("Imported %d building(s), %d outside any block\n", count, orphans)
	return nil
}

func runImportFacilities(cmd *cobra.Command, args []string) error {
	data, err := readInput(args[0])
	if err != nil {
		return err
	}
	facilities, err := geo.DecodeFacilities(data, importServiceType)
	if err != nil {
		return fmt.Errorf("decode facilities: %w", err)
	}

	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	c, err := loadCity(backend)
	if err != nil {
		return err
	}
	orphans, err := c.UpdateFacilities(importServiceType, facilities)
	if err != nil {
		return err
	}

	table, err := backend.GetTable(types.FacilitiesTable)
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(facilities))
	count := 0
	for _, block := range c.Blocks() {
		for _, f := range block.Facilities() {
			if f.ServiceType != importServiceType {
				continue
			}
			id, err := table.Set(f.FacilityID, f)
			if err != nil {
				return fmt.Errorf("store facility %s: %w", f.FacilityID, err)
			}
			keep[id] = true
			count++
		}
	}
	stale, err := table.Fetch(types.Filter{"service_type": importServiceType})
	if err != nil {
		return err
	}
	for _, item := range stale {
		f := item.(*types.Facility)
		if keep[f.FacilityID] {
			continue
		}
		if err := table.Delete(f.FacilityID); err != nil && !isEntityNotFound(err) {
			return err
		}
	}

	fmt.Printf("Imported %d %s facility(ies), %d outside any block\n", count, importServiceType, orphans)
	return nil
}

func runImportMatrix(cmd *cobra.Command, args []string) error {
	data, err := readInput(args[0])
	if err != nil {
		return err
	}
	m, err := types.ReadMatrixCSV(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("read matrix: %w", err)
	}

	backend, err := attachBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	ids, err := archivedBlockIDs(backend)
	if err != nil {
		return err
	}
	if err := m.ValidateAgainst(ids); err != nil {
		return err
	}

	table, err := backend.GetTable(types.MatrixTable)
	if err != nil {
		return err
	}
	if _, err := table.Set("", m); err != nil {
		return fmt.Errorf("store matrix: %w", err)
	}

	fmt.Printf("Imported %dx%d travel matrix\n", m.Len(), m.Len())
	return nil
}

// archivedBuildings fetches every building in the archive.
func archivedBuildings(backend types.Atlas) ([]*types.Building, error) {
	table, err := backend.GetTable(types.BuildingsTable)
	if err != nil {
		return nil, err
	}
	items, err := table.Fetch(nil)
	if err != nil {
		return nil, err
	}
	buildings := make([]*types.Building, len(items))
	for i, item := range items {
		buildings[i] = item.(*types.Building)
	}
	return buildings, nil
}

// archivedBlockIDs fetches the IDs of every block in the archive.
func archivedBlockIDs(backend types.Atlas) ([]int, error) {
	table, err := backend.GetTable(types.BlocksTable)
	if err != nil {
		return nil, err
	}
	items, err := table.Fetch(nil)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.(*types.Block).BlockID
	}
	return ids, nil
}

// deleteStaleBlocks removes archived blocks absent from the imported set.
func deleteStaleBlocks(table types.Table, keep map[string]bool) error {
	items, err := table.Fetch(nil)
	if err != nil {
		return err
	}
	for _, item := range items {
		id := strconv.Itoa(item.(*types.Block).BlockID)
		if keep[id] {
			continue
		}
		if err := table.Delete(id); err != nil && !isEntityNotFound(err) {
			return err
		}
	}
	return nil
}

// dropMatrix removes the stored travel matrix if one exists.
func dropMatrix(backend types.Atlas) error {
	table, err := backend.GetTable(types.MatrixTable)
	if err != nil {
		return err
	}
	if err := table.Delete("matrix"); err != nil && !errors.Is(err, types.ErrNotFound) {
		return err
	}
	return nil
}
