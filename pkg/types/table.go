package types

import "errors"

// Filter narrows Fetch results. Keys and accepted value types are
// documented per table.
type Filter = map[string]any

// Table provides uniform CRUD operations for a single entity type.
// Get and Fetch return any; callers type-assert to the concrete entity struct.
// Implements prd001-atlas-core R3.
type Table interface {
	// Get retrieves the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Get(id string) (any, error)

	// Set creates or updates an entity. When id is empty a new UUID v7 is
	// generated. Returns the actual ID used (generated or provided).
	Set(id string, data any) (string, error)

	// Delete removes the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Delete(id string) error

	// Fetch returns all entities matching the filter. An empty filter
	// returns every entity in the table.
	Fetch(filter map[string]any) ([]any, error)
}

// Table operation errors (prd001-atlas-core R7.2).
var (
	ErrNotFound    = errors.New("entity not found")
	ErrInvalidID   = errors.New("invalid entity ID")
	ErrInvalidData = errors.New("invalid entity data")
)

// Entity method errors (prd001-atlas-core R7.3).
var (
	ErrUnknownLandUse       = errors.New("unknown land use")
	ErrUnknownServiceType   = errors.New("unknown service type")
	ErrDuplicateServiceType = errors.New("service type already exists")
	ErrUnknownBlock         = errors.New("unknown block")
	ErrUnknownRunKind       = errors.New("unknown run kind")
	ErrInvalidName          = errors.New("invalid name")
	ErrInvalidDemand        = errors.New("demand must not be negative")
	ErrInvalidAccessibility = errors.New("accessibility must not be negative")
	ErrInvalidCapacity      = errors.New("capacity must be positive")
	ErrInvalidArea          = errors.New("area must be positive")
	ErrInvalidFloors        = errors.New("floors must be at least one")
	ErrInvalidPopulation    = errors.New("population must not be negative")
	ErrNoBricks             = errors.New("service type has no bricks")
	ErrInvalidGeometry      = errors.New("invalid geometry")
	ErrGeographicCRS        = errors.New("coordinates must be projected, not geographic")
	ErrMatrixMismatch       = errors.New("matrix IDs do not match block IDs")
	ErrDuplicateID          = errors.New("duplicate ID")
	ErrNegativeTime         = errors.New("travel time must not be negative")
	ErrInvalidFilter        = errors.New("invalid filter value type")
)
