package types

import "time"

// Run kinds. Every analysis invocation is recorded as a run of one of
// these kinds.
// Implements: prd001-atlas-core R5.
const (
	RunKindMatrix               = "matrix"
	RunKindProvision            = "provision"
	RunKindConnectivity         = "connectivity"
	RunKindAccessibility        = "accessibility"
	RunKindCentrality           = "centrality"
	RunKindPopulationCentrality = "population_centrality"
	RunKindAnnealing            = "annealing"
	RunKindLandUse              = "land_use"
)

// validRunKinds is the set of recognized run kind values.
var validRunKinds = map[string]bool{
	RunKindMatrix:               true,
	RunKindProvision:            true,
	RunKindConnectivity:         true,
	RunKindAccessibility:        true,
	RunKindCentrality:           true,
	RunKindPopulationCentrality: true,
	RunKindAnnealing:            true,
	RunKindLandUse:              true,
}

// Run records one analysis invocation: what ran, with which parameters,
// and the headline numbers it produced. Full per-block output stays in
// exported files; runs keep the audit trail.
type Run struct {
	RunID       string         // UUID v7, generated on creation.
	Kind        string         // One of the RunKind constants.
	ServiceType string         // Service type analyzed, empty when not applicable.
	Params      map[string]any // Invocation parameters.
	Result      map[string]any // Headline results.
	CreatedAt   time.Time      // Timestamp of creation.
}

// Validate checks run fields.
func (r Run) Validate() error {
	if !validRunKinds[r.Kind] {
		return ErrUnknownRunKind
	}
	return nil
}
