package city

import (
	"fmt"
	"strings"
)

// BlockSummary is one row of the per-block indicator table.
// Implements: prd003-city-interface R7.3.
type BlockSummary struct {
	BlockID        int
	LandUse        string
	SiteArea       float64
	Population     int
	FootprintArea  float64
	BuildFloorArea float64
	LivingArea     float64
	BusinessArea   float64
	FSI            float64
	GSI            float64
	MXI            float64
	AvgFloors      float64
	OSR            float64
	IsLiving       bool
	LivingDemand   float64
	ShareLiving    float64
	ShareBusiness  float64
	Capacity       map[string]int
}

// Summary computes the indicator table for every block in city order.
func (c *City) Summary() []BlockSummary {
	rows := make([]BlockSummary, 0, len(c.blocks))
	for _, b := range c.blocks {
		row := BlockSummary{
			BlockID:        b.BlockID,
			LandUse:        b.LandUse.String(),
			SiteArea:       b.SiteArea(),
			Population:     b.Population(),
			FootprintArea:  b.FootprintArea(),
			BuildFloorArea: b.BuildFloorArea(),
			LivingArea:     b.LivingArea(),
			BusinessArea:   b.BusinessArea(),
			FSI:            b.FSI(),
			GSI:            b.GSI(),
			MXI:            b.MXI(),
			AvgFloors:      b.AvgFloors(),
			OSR:            b.OSR(),
			IsLiving:       b.IsLiving(),
			LivingDemand:   b.LivingDemand(),
			ShareLiving:    b.ShareLiving(),
			ShareBusiness:  b.ShareBusiness(),
			Capacity:       make(map[string]int),
		}
		for name := range b.ServiceCounts() {
			row.Capacity[name] = b.CapacityFor(name)
		}
		rows = append(rows, row)
	}
	return rows
}

// Description returns a short human-readable account of the model.
func (c *City) Description() string {
	buildings := 0
	facilities := 0
	for _, b := range c.blocks {
		buildings += len(b.Buildings())
		facilities += len(b.Facilities())
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "blocks: %d\n", len(c.blocks))
	fmt.Fprintf(&sb, "population: %d\n", c.Population())
	fmt.Fprintf(&sb, "buildings: %d\n", buildings)
	fmt.Fprintf(&sb, "facilities: %d\n", facilities)
	fmt.Fprintf(&sb, "service types: %d\n", len(c.services))
	fmt.Fprintf(&sb, "crs: EPSG:%d", c.crs)
	return sb.String()
}

// ExtraProperties renders summary rows as per-block property maps for
// GeoJSON export.
func ExtraProperties(rows []BlockSummary) map[int]map[string]any {
	extra := make(map[int]map[string]any, len(rows))
	for _, row := range rows {
		props := map[string]any{
			"site_area":        row.SiteArea,
			"population":       row.Population,
			"footprint_area":   row.FootprintArea,
			"build_floor_area": row.BuildFloorArea,
			"living_area":      row.LivingArea,
			"business_area":    row.BusinessArea,
			"fsi":              row.FSI,
			"gsi":              row.GSI,
			"mxi":              row.MXI,
			"avg_floors":       row.AvgFloors,
			"osr":              row.OSR,
			"is_living":        row.IsLiving,
			"living_demand":    row.LivingDemand,
			"share_living":     row.ShareLiving,
			"share_business":   row.ShareBusiness,
		}
		for name, capacity := range row.Capacity {
			props["capacity_"+name] = capacity
		}
		extra[row.BlockID] = props
	}
	return extra
}
