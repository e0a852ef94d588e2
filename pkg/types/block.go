package types

import (
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Development norms shared by indicators and optimizers.
// Implements: prd003-city-interface R7.4.
const (
	// VacantAreaCoef is the share of a block's site area that can carry
	// development once streets and setbacks are accounted for.
	VacantAreaCoef = 0.8
	// LivingAreaDemand is the normative living area per resident in
	// square meters.
	LivingAreaDemand = 20.0
)

// Block is a unit of urban territory bounded by streets. Buildings and
// facilities are attached at runtime by the city model; only the static
// fields are persisted.
// Implements: prd003-city-interface R7.
type Block struct {
	BlockID   int         // Stable integer key, unique within a city.
	LandUse   LandUse     // Dominant function, empty when not assigned.
	Geometry  orb.Polygon // Block boundary (required, positive area).
	CreatedAt time.Time   // Timestamp of creation.
	UpdatedAt time.Time   // Timestamp of last modification.

	buildings  []*Building
	facilities []*Facility
}

// Validate checks block fields.
// Implements: prd003-city-interface R7.1.
func (b *Block) Validate() error {
	if b.BlockID < 0 {
		return ErrInvalidID
	}
	if len(b.Geometry) == 0 || planar.Area(b.Geometry) <= 0 {
		return ErrInvalidGeometry
	}
	if b.LandUse != "" && !b.LandUse.Valid() {
		return ErrUnknownLandUse
	}
	return nil
}

// SiteArea returns the area of the block boundary.
func (b *Block) SiteArea() float64 {
	return planar.Area(b.Geometry)
}

// Centroid returns the centroid of the block boundary.
func (b *Block) Centroid() orb.Point {
	centroid, _ := planar.CentroidArea(b.Geometry)
	return centroid
}

// Contains reports whether the point falls inside the block boundary.
func (b *Block) Contains(pt orb.Point) bool {
	return planar.PolygonContains(b.Geometry, pt)
}

// AttachBuilding binds a building to this block and records the block ID
// on the building.
func (b *Block) AttachBuilding(bld *Building) {
	bld.BlockID = b.BlockID
	b.buildings = append(b.buildings, bld)
}

// DetachBuildings removes all attached buildings.
func (b *Block) DetachBuildings() {
	b.buildings = nil
}

// Buildings returns the attached buildings.
func (b *Block) Buildings() []*Building {
	return b.buildings
}

// AttachFacility binds a facility to this block and records the block ID
// on the facility.
func (b *Block) AttachFacility(f *Facility) {
	f.BlockID = b.BlockID
	b.facilities = append(b.facilities, f)
}

// DetachFacilities removes attached facilities of the given service type.
// An empty service type removes every facility.
func (b *Block) DetachFacilities(serviceType string) {
	if serviceType == "" {
		b.facilities = nil
		return
	}
	kept := b.facilities[:0]
	for _, f := range b.facilities {
		if f.ServiceType != serviceType {
			kept = append(kept, f)
		}
	}
	b.facilities = kept
}

// Facilities returns the attached facilities.
func (b *Block) Facilities() []*Facility {
	return b.facilities
}

// Population returns the number of residents over all attached buildings.
func (b *Block) Population() int {
	total := 0
	for _, bld := range b.buildings {
		total += bld.Population
	}
	return total
}

// FootprintArea returns the summed footprint area of attached buildings.
func (b *Block) FootprintArea() float64 {
	total := 0.0
	for _, bld := range b.buildings {
		total += bld.FootprintArea()
	}
	return total
}

// BuildFloorArea returns the summed build floor area of attached buildings.
func (b *Block) BuildFloorArea() float64 {
	total := 0.0
	for _, bld := range b.buildings {
		total += bld.BuildFloorArea
	}
	return total
}

// LivingArea returns the summed living area of attached buildings.
func (b *Block) LivingArea() float64 {
	total := 0.0
	for _, bld := range b.buildings {
		total += bld.LivingArea
	}
	return total
}

// BusinessArea returns the summed business area of attached buildings.
func (b *Block) BusinessArea() float64 {
	total := 0.0
	for _, bld := range b.buildings {
		total += bld.BusinessArea
	}
	return total
}

// IsLiving reports whether any attached building houses residents.
func (b *Block) IsLiving() bool {
	for _, bld := range b.buildings {
		if bld.IsLiving() {
			return true
		}
	}
	return false
}

// CapacityFor returns the summed facility capacity of the given service
// type inside the block.
func (b *Block) CapacityFor(serviceType string) int {
	total := 0
	for _, f := range b.facilities {
		if f.ServiceType == serviceType {
			total += f.Capacity
		}
	}
	return total
}

// ServiceCounts returns the number of attached facilities per service type.
func (b *Block) ServiceCounts() map[string]int {
	counts := make(map[string]int)
	for _, f := range b.facilities {
		counts[f.ServiceType]++
	}
	return counts
}

// FSI is the floor space index: build floor area over site area.
// Implements: prd003-city-interface R7.2.
func (b *Block) FSI() float64 {
	site := b.SiteArea()
	if site <= 0 {
		return 0
	}
	return b.BuildFloorArea() / site
}

// GSI is the ground space index: footprint area over site area.
func (b *Block) GSI() float64 {
	site := b.SiteArea()
	if site <= 0 {
		return 0
	}
	return b.FootprintArea() / site
}

// MXI is the mixed use index: the living share of build floor area.
func (b *Block) MXI() float64 {
	bfa := b.BuildFloorArea()
	if bfa <= 0 {
		return 0
	}
	return b.LivingArea() / bfa
}

// AvgFloors is the area-weighted mean number of floors, FSI over GSI.
func (b *Block) AvgFloors() float64 {
	gsi := b.GSI()
	if gsi <= 0 {
		return 0
	}
	return b.FSI() / gsi
}

// OSR is the open space ratio: non-built share of the site per unit of
// build floor area.
func (b *Block) OSR() float64 {
	fsi := b.FSI()
	if fsi <= 0 {
		return 0
	}
	return (1 - b.GSI()) / fsi
}

// ShareLiving is the living share of build floor area, zero when nothing
// is built.
func (b *Block) ShareLiving() float64 {
	return b.MXI()
}

// ShareBusiness is the business share of build floor area.
func (b *Block) ShareBusiness() float64 {
	bfa := b.BuildFloorArea()
	if bfa <= 0 {
		return 0
	}
	return b.BusinessArea() / bfa
}

// LivingDemand is the living area per resident. Zero when the block has
// no residents.
func (b *Block) LivingDemand() float64 {
	pop := b.Population()
	if pop <= 0 {
		return 0
	}
	return b.LivingArea() / float64(pop)
}

// VacantArea estimates the block area still free for development:
// the developable share of the site minus existing footprints, floored
// at zero.
// Implements: prd006-optimize-interface R4.1.
func (b *Block) VacantArea() float64 {
	return math.Max(0, VacantAreaCoef*b.SiteArea()-b.FootprintArea())
}
