package city

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// SaveTo writes the whole model into the archive: blocks, buildings,
// facilities, the service type catalog, and the travel matrix. Rows that
// no longer exist in the model are deleted so the archive mirrors the
// model exactly.
// Implements: prd003-city-interface R9.1.
func (c *City) SaveTo(atlas types.Atlas) error {
	if err := c.saveBlocks(atlas); err != nil {
		return err
	}
	if err := c.saveBuildings(atlas); err != nil {
		return err
	}
	if err := c.saveFacilities(atlas); err != nil {
		return err
	}
	if err := c.saveServiceTypes(atlas); err != nil {
		return err
	}
	return c.saveMatrix(atlas)
}

func (c *City) saveBlocks(atlas types.Atlas) error {
	table, err := atlas.GetTable(types.BlocksTable)
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(c.blocks))
	for _, b := range c.blocks {
		id := strconv.Itoa(b.BlockID)
		if _, err := table.Set(id, b); err != nil {
			return fmt.Errorf("saving block %d: %w", b.BlockID, err)
		}
		keep[id] = true
	}
	return deleteStale(table, keep, func(item any) string {
		return strconv.Itoa(item.(*types.Block).BlockID)
	})
}

func (c *City) saveBuildings(atlas types.Atlas) error {
	table, err := atlas.GetTable(types.BuildingsTable)
	if err != nil {
		return err
	}
	keep := make(map[string]bool)
	for _, block := range c.blocks {
		for _, b := range block.Buildings() {
			id, err := table.Set(b.BuildingID, b)
			if err != nil {
				return fmt.Errorf("saving building %s: %w", b.BuildingID, err)
			}
			b.BuildingID = id
			keep[id] = true
		}
	}
	return deleteStale(table, keep, func(item any) string {
		return item.(*types.Building).BuildingID
	})
}

func (c *City) saveFacilities(atlas types.Atlas) error {
	table, err := atlas.GetTable(types.FacilitiesTable)
	if err != nil {
		return err
	}
	keep := make(map[string]bool)
	for _, block := range c.blocks {
		for _, f := range block.Facilities() {
			id, err := table.Set(f.FacilityID, f)
			if err != nil {
				return fmt.Errorf("saving facility %s: %w", f.FacilityID, err)
			}
			f.FacilityID = id
			keep[id] = true
		}
	}
	return deleteStale(table, keep, func(item any) string {
		return item.(*types.Facility).FacilityID
	})
}

func (c *City) saveServiceTypes(atlas types.Atlas) error {
	table, err := atlas.GetTable(types.ServiceTypesTable)
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(c.services))
	for _, st := range c.ServiceTypes() {
		st := st
		if _, err := table.Set(st.Name, &st); err != nil {
			return fmt.Errorf("saving service type %s: %w", st.Name, err)
		}
		keep[st.Name] = true
	}
	return deleteStale(table, keep, func(item any) string {
		return item.(*types.ServiceType).Name
	})
}

func (c *City) saveMatrix(atlas types.Atlas) error {
	table, err := atlas.GetTable(types.MatrixTable)
	if err != nil {
		return err
	}
	if _, err := table.Set("", c.matrix); err != nil {
		return fmt.Errorf("saving matrix: %w", err)
	}
	return nil
}

// deleteStale removes table rows not present in the keep set.
func deleteStale(table types.Table, keep map[string]bool, idOf func(any) string) error {
	existing, err := table.Fetch(nil)
	if err != nil {
		return err
	}
	for _, item := range existing {
		id := idOf(item)
		if !keep[id] {
			if err := table.Delete(id); err != nil && !errors.Is(err, types.ErrNotFound) {
				return fmt.Errorf("deleting stale row %s: %w", id, err)
			}
		}
	}
	return nil
}

// Load reads a complete model from the archive. Stored block assignments
// are authoritative; no spatial re-join happens on load. Buildings or
// facilities referencing blocks that no longer exist are skipped.
// Implements: prd003-city-interface R9.2.
func Load(atlas types.Atlas, crs int) (*City, error) {
	blocks, err := loadBlocks(atlas)
	if err != nil {
		return nil, err
	}
	matrix, err := loadMatrix(atlas)
	if err != nil {
		return nil, err
	}
	c, err := assemble(blocks, matrix, crs)
	if err != nil {
		return nil, err
	}
	if err := loadServiceTypes(atlas, c); err != nil {
		return nil, err
	}
	if err := loadBuildings(atlas, c); err != nil {
		return nil, err
	}
	if err := loadFacilities(atlas, c); err != nil {
		return nil, err
	}
	return c, nil
}

func loadBlocks(atlas types.Atlas) ([]*types.Block, error) {
	table, err := atlas.GetTable(types.BlocksTable)
	if err != nil {
		return nil, err
	}
	rows, err := table.Fetch(nil)
	if err != nil {
		return nil, fmt.Errorf("loading blocks: %w", err)
	}
	blocks := make([]*types.Block, 0, len(rows))
	for _, row := range rows {
		block, ok := row.(*types.Block)
		if !ok {
			return nil, types.ErrInvalidData
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func loadMatrix(atlas types.Atlas) (*types.Matrix, error) {
	table, err := atlas.GetTable(types.MatrixTable)
	if err != nil {
		return nil, err
	}
	row, err := table.Get("matrix")
	if errors.Is(err, types.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading matrix: %w", err)
	}
	matrix, ok := row.(*types.Matrix)
	if !ok {
		return nil, types.ErrInvalidData
	}
	return matrix, nil
}

func loadServiceTypes(atlas types.Atlas, c *City) error {
	table, err := atlas.GetTable(types.ServiceTypesTable)
	if err != nil {
		return err
	}
	rows, err := table.Fetch(nil)
	if err != nil {
		return fmt.Errorf("loading service types: %w", err)
	}
	for _, row := range rows {
		st, ok := row.(*types.ServiceType)
		if !ok {
			return types.ErrInvalidData
		}
		c.services[st.Name] = *st
	}
	return nil
}

func loadBuildings(atlas types.Atlas, c *City) error {
	table, err := atlas.GetTable(types.BuildingsTable)
	if err != nil {
		return err
	}
	rows, err := table.Fetch(nil)
	if err != nil {
		return fmt.Errorf("loading buildings: %w", err)
	}
	for _, row := range rows {
		b, ok := row.(*types.Building)
		if !ok {
			return types.ErrInvalidData
		}
		block, err := c.Block(b.BlockID)
		if err != nil {
			continue
		}
		block.AttachBuilding(b)
	}
	return nil
}

func loadFacilities(atlas types.Atlas, c *City) error {
	table, err := atlas.GetTable(types.FacilitiesTable)
	if err != nil {
		return err
	}
	rows, err := table.Fetch(nil)
	if err != nil {
		return fmt.Errorf("loading facilities: %w", err)
	}
	for _, row := range rows {
		f, ok := row.(*types.Facility)
		if !ok {
			return types.ErrInvalidData
		}
		block, err := c.Block(f.BlockID)
		if err != nil {
			continue
		}
		block.AttachFacility(f)
	}
	return nil
}
