// Package types defines the Atlas and Table interfaces, the city model
// entity types, and standard error types for the masterplan storage system.
// Implements: prd001-atlas-core (Config, Atlas, Table interfaces, error types);
//
//	docs/ARCHITECTURE § Main Interface, § System Components (Atlas API).
package types
