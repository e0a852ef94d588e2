// Package city assembles blocks, buildings, facilities, service types and
// the travel time matrix into a single queryable model. The model is the
// working set for every analysis method; the archive is its durable form.
// Implements: prd003-city-interface.
package city

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"

	"github.com/mesh-intelligence/masterplan/pkg/geo"
	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// City is an in-memory city model over a fixed block set. Blocks are held
// in ascending block ID order; the travel matrix covers exactly that set.
// Implements: prd003-city-interface R1.
type City struct {
	crs      int
	blocks   []*types.Block
	byID     map[int]*types.Block
	matrix   *types.Matrix
	services map[string]types.ServiceType
	locator  *geo.Locator
}

// New builds a city model from blocks and their travel matrix. The matrix
// must cover exactly the block IDs. The default service type catalog is
// installed; AddServiceType extends it.
// Implements: prd003-city-interface R1.1.
func New(blocks []*types.Block, matrix *types.Matrix, crs int) (*City, error) {
	c, err := assemble(blocks, matrix, crs)
	if err != nil {
		return nil, err
	}
	for _, st := range types.DefaultServiceTypes() {
		c.services[st.Name] = st
	}
	return c, nil
}

// assemble wires the core model without touching the service catalog.
func assemble(blocks []*types.Block, matrix *types.Matrix, crs int) (*City, error) {
	byID := make(map[int]*types.Block, len(blocks))
	ids := make([]int, 0, len(blocks))
	for _, b := range blocks {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("block %d: %w", b.BlockID, err)
		}
		if _, ok := byID[b.BlockID]; ok {
			return nil, fmt.Errorf("%w: block %d", types.ErrDuplicateID, b.BlockID)
		}
		byID[b.BlockID] = b
		ids = append(ids, b.BlockID)
	}
	if matrix == nil {
		matrix, _ = types.NewMatrix(ids)
	}
	if err := matrix.ValidateAgainst(ids); err != nil {
		return nil, err
	}
	sorted := make([]*types.Block, len(blocks))
	copy(sorted, blocks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].BlockID < sorted[j].BlockID })
	return &City{
		crs:      crs,
		blocks:   sorted,
		byID:     byID,
		matrix:   matrix,
		services: make(map[string]types.ServiceType),
		locator:  geo.NewLocator(sorted),
	}, nil
}

// CRS returns the EPSG code of the projected coordinate system.
func (c *City) CRS() int {
	return c.crs
}

// Blocks returns the blocks in ascending block ID order.
func (c *City) Blocks() []*types.Block {
	return c.blocks
}

// BlockIDs returns the block IDs in ascending order.
func (c *City) BlockIDs() []int {
	ids := make([]int, len(c.blocks))
	for i, b := range c.blocks {
		ids[i] = b.BlockID
	}
	return ids
}

// Block returns the block with the given ID.
// Returns ErrUnknownBlock when the ID is not part of the city.
func (c *City) Block(id int) (*types.Block, error) {
	b, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", types.ErrUnknownBlock, id)
	}
	return b, nil
}

// Matrix returns the travel time matrix.
func (c *City) Matrix() *types.Matrix {
	return c.matrix
}

// Distance returns the travel time in minutes between two blocks.
func (c *City) Distance(from, to int) (float64, error) {
	return c.matrix.At(from, to)
}

// OutEdges returns travel times from the block to every block, keyed by
// destination ID.
func (c *City) OutEdges(id int) (map[int]float64, error) {
	row, err := c.matrix.Row(id)
	if err != nil {
		return nil, err
	}
	out := make(map[int]float64, len(row))
	for i, mid := range c.matrix.IDs() {
		out[mid] = row[i]
	}
	return out, nil
}

// InEdges returns travel times to the block from every block, keyed by
// origin ID.
func (c *City) InEdges(id int) (map[int]float64, error) {
	col, err := c.matrix.Column(id)
	if err != nil {
		return nil, err
	}
	in := make(map[int]float64, len(col))
	for i, mid := range c.matrix.IDs() {
		in[mid] = col[i]
	}
	return in, nil
}

// AddServiceType registers a service type in the catalog.
// Returns ErrDuplicateServiceType when the name is taken.
// Implements: prd003-city-interface R3.3.
func (c *City) AddServiceType(st types.ServiceType) error {
	if err := st.Validate(); err != nil {
		return err
	}
	if _, ok := c.services[st.Name]; ok {
		return fmt.Errorf("%w: %s", types.ErrDuplicateServiceType, st.Name)
	}
	c.services[st.Name] = st
	return nil
}

// ServiceType returns the service type with the given name.
// Returns ErrUnknownServiceType when the name is not in the catalog.
func (c *City) ServiceType(name string) (types.ServiceType, error) {
	st, ok := c.services[name]
	if !ok {
		return types.ServiceType{}, fmt.Errorf("%w: %s", types.ErrUnknownServiceType, name)
	}
	return st, nil
}

// ServiceTypes returns the catalog sorted by name.
func (c *City) ServiceTypes() []types.ServiceType {
	out := make([]types.ServiceType, 0, len(c.services))
	for _, st := range c.services {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ServiceTypesFor returns the service types allowed on the land use,
// sorted by name.
func (c *City) ServiceTypesFor(lu types.LandUse) []types.ServiceType {
	var out []types.ServiceType
	for _, st := range c.services {
		if st.AllowedOn(lu) {
			out = append(out, st)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Population returns the total number of residents over all blocks.
func (c *City) Population() int {
	total := 0
	for _, b := range c.blocks {
		total += b.Population()
	}
	return total
}

// Locate returns the block containing the point.
func (c *City) Locate(pt orb.Point) (*types.Block, bool) {
	return c.locator.Locate(pt)
}
