package types

import (
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Building represents a single structure inside a block. Areas are square
// meters in the projected CRS of the archive.
// Implements: prd003-city-interface R5.
type Building struct {
	BuildingID     string      // UUID v7, generated on creation.
	BlockID        int         // Containing block; assigned by spatial join.
	Geometry       orb.Polygon // Footprint polygon (required, non-empty).
	Floors         float64     // Number of floors (at least 1).
	BuildFloorArea float64     // Total floor area over all floors.
	LivingArea     float64     // Floor area used as housing.
	BusinessArea   float64     // Floor area used by commerce and offices.
	Population     int         // Residents living in the building.
	CreatedAt      time.Time   // Timestamp of creation.
	UpdatedAt      time.Time   // Timestamp of last modification.
}

// FootprintArea returns the area of the footprint polygon.
func (b Building) FootprintArea() float64 {
	return planar.Area(b.Geometry)
}

// IsLiving reports whether the building houses residents.
func (b Building) IsLiving() bool {
	return b.LivingArea > 0
}

// Normalize fills derivable fields that importers commonly leave empty:
// a zero BuildFloorArea becomes Floors times the footprint area, zero
// Floors becomes BuildFloorArea over footprint rounded up, and LivingArea
// is clamped to BuildFloorArea. Fields already set are left alone.
// Implements: prd003-city-interface R5.2.
func (b *Building) Normalize() {
	footprint := b.FootprintArea()
	if b.Floors < 1 {
		if b.BuildFloorArea > 0 && footprint > 0 {
			b.Floors = math.Ceil(b.BuildFloorArea / footprint)
		} else {
			b.Floors = 1
		}
	}
	if b.BuildFloorArea == 0 && footprint > 0 {
		b.BuildFloorArea = b.Floors * footprint
	}
	if b.LivingArea > b.BuildFloorArea {
		b.LivingArea = b.BuildFloorArea
	}
}

// Validate checks building fields. Geometry must be a non-empty polygon
// with positive area; numeric fields must respect their lower bounds.
// Implements: prd003-city-interface R5.1.
func (b Building) Validate() error {
	if len(b.Geometry) == 0 || b.FootprintArea() <= 0 {
		return ErrInvalidGeometry
	}
	if b.Floors < 1 {
		return ErrInvalidFloors
	}
	if b.BuildFloorArea < 0 || b.LivingArea < 0 || b.BusinessArea < 0 {
		return ErrInvalidArea
	}
	if b.Population < 0 {
		return ErrInvalidPopulation
	}
	return nil
}

// RepresentativePoint returns a point guaranteed to be usable for spatial
// joins: the centroid when it falls inside the footprint, otherwise the
// first ring vertex.
func (b Building) RepresentativePoint() orb.Point {
	centroid, _ := planar.CentroidArea(b.Geometry)
	if planar.PolygonContains(b.Geometry, centroid) {
		return centroid
	}
	if len(b.Geometry) > 0 && len(b.Geometry[0]) > 0 {
		return b.Geometry[0][0]
	}
	return centroid
}
