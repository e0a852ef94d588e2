package types

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Facility is a placed instance of a service type: a school building, a
// pharmacy inside a residential house, a park. A facility either stands on
// its own site or is hosted by a building.
// Implements: prd003-city-interface R6.
type Facility struct {
	FacilityID  string       // UUID v7, generated on creation.
	ServiceType string       // Name of the service type (required).
	BlockID     int          // Containing block; assigned by spatial join.
	BuildingID  string       // Hosting building, empty when standalone.
	Geometry    orb.Geometry // Point or polygon (required).
	Capacity    int          // Serviceable demand units (positive).
	Area        float64      // Occupied area in square meters (positive).
	CreatedAt   time.Time    // Timestamp of creation.
	UpdatedAt   time.Time    // Timestamp of last modification.
}

// Hosted reports whether the facility lives inside a building.
func (f Facility) Hosted() bool {
	return f.BuildingID != ""
}

// Validate checks facility fields.
// Implements: prd003-city-interface R6.1.
func (f Facility) Validate() error {
	if f.ServiceType == "" {
		return ErrInvalidName
	}
	if f.Geometry == nil {
		return ErrInvalidGeometry
	}
	if f.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if f.Area <= 0 {
		return ErrInvalidArea
	}
	return nil
}

// FillDefaults completes missing capacity or area from the service type's
// bricks. A hosted facility prefers integrated bricks; a standalone one
// prefers non-integrated bricks with its polygon area as the hint. When
// neither capacity nor area is known the smallest matching brick is used.
// Returns ErrNoBricks when the service type cannot supply a default.
// Implements: prd003-city-interface R6.2.
func (f *Facility) FillDefaults(st ServiceType) error {
	if f.Capacity > 0 && f.Area > 0 {
		return nil
	}
	integrated := f.Hosted()
	if f.Area == 0 {
		if poly, ok := f.Geometry.(orb.Polygon); ok {
			f.Area = planar.Area(poly)
		}
	}
	switch {
	case f.Capacity > 0 && f.Area == 0:
		brick, ok := st.BrickByCapacity(f.Capacity, integrated)
		if !ok {
			brick, ok = st.BrickByCapacity(f.Capacity, !integrated)
		}
		if !ok {
			return ErrNoBricks
		}
		f.Area = brick.Area
	case f.Capacity == 0 && f.Area > 0:
		brick, ok := st.BrickByArea(f.Area, integrated)
		if !ok {
			brick, ok = st.BrickByArea(f.Area, !integrated)
		}
		if !ok {
			return ErrNoBricks
		}
		f.Capacity = brick.Capacity
	case f.Capacity == 0 && f.Area == 0:
		brick, ok := st.SmallestBrick(integrated)
		if !ok {
			brick, ok = st.SmallestBrick(!integrated)
		}
		if !ok {
			return ErrNoBricks
		}
		f.Capacity = brick.Capacity
		f.Area = brick.Area
	}
	return nil
}

// RepresentativePoint returns the point used for spatial joins: the
// geometry itself for points, the centroid for polygons.
func (f Facility) RepresentativePoint() orb.Point {
	switch g := f.Geometry.(type) {
	case orb.Point:
		return g
	case orb.Polygon:
		centroid, _ := planar.CentroidArea(g)
		return centroid
	case orb.MultiPolygon:
		centroid, _ := planar.CentroidArea(g)
		return centroid
	default:
		return g.Bound().Center()
	}
}
