package prepare

import (
	"fmt"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// FilterRule names the land uses a block set should drop. Unassigned
// blocks (empty land use) are dropped only when DropUnassigned is set.
type FilterRule struct {
	Exclude        []types.LandUse
	DropUnassigned bool
}

// FilterLandUse returns the blocks that survive the rule, preserving
// their order. Unknown land uses in the rule are an error.
// Implements: prd007-prepare-interface R3.1-R3.2.
func FilterLandUse(blocks []*types.Block, rule FilterRule) ([]*types.Block, error) {
	excluded := make(map[types.LandUse]bool, len(rule.Exclude))
	for _, lu := range rule.Exclude {
		if !lu.Valid() {
			return nil, fmt.Errorf("%w: %q", types.ErrUnknownLandUse, lu)
		}
		excluded[lu] = true
	}

	kept := make([]*types.Block, 0, len(blocks))
	for _, b := range blocks {
		if b.LandUse == "" {
			if !rule.DropUnassigned {
				kept = append(kept, b)
			}
			continue
		}
		if excluded[b.LandUse] {
			continue
		}
		kept = append(kept, b)
	}
	return kept, nil
}
