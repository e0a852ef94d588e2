package types

import (
	"math"
	"time"
)

// Brick is one buildable unit of a service type: a standard project with a
// fixed capacity and floor area. Integrated bricks occupy floor area inside
// residential buildings; non-integrated bricks take their own site.
// Implements: prd003-city-interface R4.
type Brick struct {
	Capacity   int     // Serviceable demand units (required, positive).
	Area       float64 // Floor or site area in square meters (required, positive).
	Integrated bool    // Whether the brick is embedded in a living building.
}

// Validate checks brick fields. Returns a sentinel error on failure.
func (b Brick) Validate() error {
	if b.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if b.Area <= 0 {
		return ErrInvalidArea
	}
	return nil
}

// ServiceType describes a category of urban service, its normative demand
// and accessibility, and the bricks it can be built from.
// Implements: prd003-city-interface R3.
type ServiceType struct {
	Name          string    // Unique key, e.g. "school" (required, non-empty).
	Demand        int       // Demand units per 1000 residents.
	Accessibility int       // Normative accessibility in minutes.
	LandUses      []LandUse // Land uses the service may be placed on.
	Bricks        []Brick   // Standard projects for new placements.
	CreatedAt     time.Time // Timestamp of creation.
	UpdatedAt     time.Time // Timestamp of last modification.
}

// Validate checks service type fields and every brick.
// Implements: prd003-city-interface R3.1.
func (st ServiceType) Validate() error {
	if st.Name == "" {
		return ErrInvalidName
	}
	if st.Demand < 0 {
		return ErrInvalidDemand
	}
	if st.Accessibility < 0 {
		return ErrInvalidAccessibility
	}
	for _, lu := range st.LandUses {
		if !lu.Valid() {
			return ErrUnknownLandUse
		}
	}
	for _, b := range st.Bricks {
		if err := b.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// InNeed returns the demand units a population of the given size generates:
// ceil(population/1000 * Demand).
// Implements: prd003-city-interface R3.2.
func (st ServiceType) InNeed(population int) int {
	if population <= 0 || st.Demand <= 0 {
		return 0
	}
	return int(math.Ceil(float64(population) / 1000.0 * float64(st.Demand)))
}

// AllowedOn reports whether the service type may be placed on the land use.
// A service type with no land use bindings is allowed anywhere.
func (st ServiceType) AllowedOn(lu LandUse) bool {
	if len(st.LandUses) == 0 {
		return true
	}
	for _, allowed := range st.LandUses {
		if allowed == lu {
			return true
		}
	}
	return false
}

// BricksFor returns the bricks matching the integrated flag.
func (st ServiceType) BricksFor(integrated bool) []Brick {
	var out []Brick
	for _, b := range st.Bricks {
		if b.Integrated == integrated {
			out = append(out, b)
		}
	}
	return out
}

// BrickByArea returns the brick whose area is closest to the given area,
// considering only bricks with the matching integrated flag. The second
// return is false when no such brick exists.
// Used to default facility capacity from an observed footprint.
// Implements: prd003-city-interface R4.2.
func (st ServiceType) BrickByArea(area float64, integrated bool) (Brick, bool) {
	return st.closestBrick(integrated, func(b Brick) float64 {
		return math.Abs(b.Area - area)
	})
}

// BrickByCapacity returns the brick whose capacity is closest to the given
// capacity, considering only bricks with the matching integrated flag.
// Used to default facility area from a known capacity.
// Implements: prd003-city-interface R4.3.
func (st ServiceType) BrickByCapacity(capacity int, integrated bool) (Brick, bool) {
	return st.closestBrick(integrated, func(b Brick) float64 {
		return math.Abs(float64(b.Capacity - capacity))
	})
}

// SmallestBrick returns the brick with the smallest area among bricks with
// the matching integrated flag. Used when a facility carries neither
// capacity nor area.
// Implements: prd003-city-interface R4.4.
func (st ServiceType) SmallestBrick(integrated bool) (Brick, bool) {
	return st.closestBrick(integrated, func(b Brick) float64 {
		return b.Area
	})
}

func (st ServiceType) closestBrick(integrated bool, score func(Brick) float64) (Brick, bool) {
	best := Brick{}
	bestScore := math.Inf(1)
	found := false
	for _, b := range st.Bricks {
		if b.Integrated != integrated {
			continue
		}
		if s := score(b); s < bestScore {
			best = b
			bestScore = s
			found = true
		}
	}
	return best, found
}
