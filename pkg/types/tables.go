package types

// Standard table names for Atlas.GetTable (prd001-atlas-core R2.5).
const (
	BlocksTable       = "blocks"
	BuildingsTable    = "buildings"
	FacilitiesTable   = "facilities"
	ServiceTypesTable = "service_types"
	MatrixTable       = "matrix"
	RunsTable         = "runs"
)

// StandardTableNames lists all standard table names for enumeration.
var StandardTableNames = []string{
	BlocksTable,
	BuildingsTable,
	FacilitiesTable,
	ServiceTypesTable,
	MatrixTable,
	RunsTable,
}
