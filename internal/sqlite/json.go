// JSON record structures for the archive's JSONL files.
// These structures define the one-line-per-entity record format.
// Implements: prd002-sqlite-backend R2; prd008-configuration-directories R3.
package sqlite

// blockJSON represents a block in blocks.jsonl. Geometry is a GeoJSON
// geometry string in the archive's projected CRS.
type blockJSON struct {
	BlockID   int    `json:"block_id"`
	LandUse   string `json:"land_use,omitempty"`
	Geometry  string `json:"geometry"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// buildingJSON represents a building in buildings.jsonl.
type buildingJSON struct {
	BuildingID     string  `json:"building_id"`
	BlockID        int     `json:"block_id"`
	Geometry       string  `json:"geometry"`
	Floors         float64 `json:"floors"`
	BuildFloorArea float64 `json:"build_floor_area"`
	LivingArea     float64 `json:"living_area"`
	BusinessArea   float64 `json:"business_area"`
	Population     int     `json:"population"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// facilityJSON represents a facility in facilities.jsonl.
type facilityJSON struct {
	FacilityID  string  `json:"facility_id"`
	ServiceType string  `json:"service_type"`
	BlockID     int     `json:"block_id"`
	BuildingID  string  `json:"building_id,omitempty"`
	Geometry    string  `json:"geometry"`
	Capacity    int     `json:"capacity"`
	Area        float64 `json:"area"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// brickJSON represents one brick inside a service type record.
type brickJSON struct {
	Capacity   int     `json:"capacity"`
	Area       float64 `json:"area"`
	Integrated bool    `json:"integrated,omitempty"`
}

// serviceTypeJSON represents a service type in service_types.jsonl.
// The land_uses and bricks fields are stored as JSON inside the SQLite row.
type serviceTypeJSON struct {
	Name          string      `json:"name"`
	Demand        int         `json:"demand"`
	Accessibility int         `json:"accessibility"`
	LandUses      []string    `json:"land_uses"`
	Bricks        []brickJSON `json:"bricks"`
	CreatedAt     string      `json:"created_at"`
	UpdatedAt     string      `json:"updated_at"`
}

// matrixJSON represents one travel time pair in matrix.jsonl.
type matrixJSON struct {
	FromID  int     `json:"from_id"`
	ToID    int     `json:"to_id"`
	Minutes float64 `json:"minutes"`
}

// runJSON represents an analysis run in runs.jsonl.
type runJSON struct {
	RunID       string         `json:"run_id"`
	Kind        string         `json:"kind"`
	ServiceType string         `json:"service_type,omitempty"`
	Params      map[string]any `json:"params"`
	Result      map[string]any `json:"result"`
	CreatedAt   string         `json:"created_at"`
}
