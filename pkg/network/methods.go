package network

import (
	"sort"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/stat"

	"github.com/mesh-intelligence/masterplan/pkg/city"
	"github.com/mesh-intelligence/masterplan/pkg/geo"
)

// Connectivity returns the median travel time from each block to every
// block. Lower is better connected.
// Implements: prd004-network-interface R3.
func Connectivity(c *city.City) (map[int]float64, error) {
	out := make(map[int]float64, len(c.Blocks()))
	for _, b := range c.Blocks() {
		median, err := c.Matrix().RowMedian(b.BlockID)
		if err != nil {
			return nil, err
		}
		out[b.BlockID] = median
	}
	return out, nil
}

// Accessibility holds travel times between one selected block and
// another block, in both directions.
type Accessibility struct {
	From float64 // Minutes from the selected block.
	To   float64 // Minutes to the selected block.
}

// AccessibilityOf returns travel times between the selected block and
// every block of the city.
// Implements: prd004-network-interface R4.
func AccessibilityOf(c *city.City, blockID int) (map[int]Accessibility, error) {
	if _, err := c.Block(blockID); err != nil {
		return nil, err
	}
	row, err := c.Matrix().Row(blockID)
	if err != nil {
		return nil, err
	}
	col, err := c.Matrix().Column(blockID)
	if err != nil {
		return nil, err
	}
	ids := c.Matrix().IDs()
	out := make(map[int]Accessibility, len(ids))
	for i, id := range ids {
		out[id] = Accessibility{From: row[i], To: col[i]}
	}
	return out, nil
}

// DiversityCentrality scores blocks by facility density, Shannon
// diversity of facility types, and connectivity. Each component is
// min-max normalized over the blocks that have facilities; the score is
// density plus diversity minus connectivity. Blocks without facilities
// score zero.
// Implements: prd004-network-interface R6.
func DiversityCentrality(c *city.City) (map[int]float64, error) {
	type row struct {
		id           int
		density      float64
		diversity    float64
		connectivity float64
	}
	var rows []row
	for _, b := range c.Blocks() {
		counts := b.ServiceCounts()
		if len(counts) == 0 {
			continue
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		p := make([]float64, 0, len(counts))
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p = append(p, float64(counts[name])/float64(total))
		}
		median, err := c.Matrix().RowMedian(b.BlockID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row{
			id:           b.BlockID,
			density:      float64(total) / (b.SiteArea() / 1e6),
			diversity:    stat.Entropy(p),
			connectivity: median,
		})
	}

	out := make(map[int]float64, len(c.Blocks()))
	for _, b := range c.Blocks() {
		out[b.BlockID] = 0
	}
	if len(rows) == 0 {
		return out, nil
	}
	density := make([]float64, len(rows))
	diversity := make([]float64, len(rows))
	connectivity := make([]float64, len(rows))
	for i, r := range rows {
		density[i] = r.density
		diversity[i] = r.diversity
		connectivity[i] = r.connectivity
	}
	density = minMaxScale(density, 0, 1)
	diversity = minMaxScale(diversity, 0, 1)
	connectivity = minMaxScale(connectivity, 0, 1)
	for i, r := range rows {
		out[r.id] = round2(density[i] + diversity[i] - connectivity[i])
	}
	return out, nil
}

// DefaultCentralityRadius is the neighborhood radius in meters for
// population centrality.
const DefaultCentralityRadius = 1000.0

// PopulationCentrality scores blocks by how central and how populated
// they are: degree centrality over the proximity graph of block
// centroids within the radius, multiplied by population, both min-max
// scaled to [1,2], with the product rescaled to [0,10].
// Implements: prd004-network-interface R5.
func PopulationCentrality(c *city.City, radius float64) map[int]float64 {
	if radius <= 0 {
		radius = DefaultCentralityRadius
	}
	blocks := c.Blocks()
	out := make(map[int]float64, len(blocks))
	if len(blocks) == 0 {
		return out
	}

	points := make([]orb.Point, len(blocks))
	for i, b := range blocks {
		points[i] = b.Centroid()
	}
	degree := make([]float64, len(blocks))
	for _, pair := range geo.RadiusPairs(points, radius) {
		degree[pair[0]]++
		degree[pair[1]]++
	}
	if len(blocks) > 1 {
		for i := range degree {
			degree[i] /= float64(len(blocks) - 1)
		}
	}
	population := make([]float64, len(blocks))
	for i, b := range blocks {
		population[i] = float64(b.Population())
	}

	centrality := minMaxScale(degree, 1, 2)
	popScaled := minMaxScale(population, 1, 2)
	product := make([]float64, len(blocks))
	for i := range product {
		product[i] = centrality[i] * popScaled[i]
	}
	product = minMaxScale(product, 0, 10)
	for i, b := range blocks {
		out[b.BlockID] = round2(product[i])
	}
	return out
}
