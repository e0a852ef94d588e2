package optimize

import (
	"fmt"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// Profile bounds the development intensity of a land use: floor space
// index (build floor area over site area) and ground space index
// (footprint over site area).
// Implements: prd006-optimize-interface R1.
type Profile struct {
	FSIMin float64
	FSIMax float64
	GSIMin float64
	GSIMax float64
}

// Contains reports whether the intensity pair falls inside the profile.
func (p Profile) Contains(fsi, gsi float64) bool {
	return fsi >= p.FSIMin && fsi <= p.FSIMax && gsi >= p.GSIMin && gsi <= p.GSIMax
}

// profiles carries the normative intensity ranges per land use. Mixed
// use carries no profile and cannot be a development target.
var profiles = map[types.LandUse]Profile{
	types.LandUseResidential: {FSIMin: 0.5, FSIMax: 3.0, GSIMin: 0.2, GSIMax: 0.8},
	types.LandUseBusiness:    {FSIMin: 1.0, FSIMax: 3.0, GSIMin: 0.0, GSIMax: 0.8},
	types.LandUseRecreation:  {FSIMin: 0.05, FSIMax: 0.2, GSIMin: 0.0, GSIMax: 0.3},
	types.LandUseSpecial:     {FSIMin: 0.05, FSIMax: 0.2, GSIMin: 0.05, GSIMax: 0.15},
	types.LandUseIndustrial:  {FSIMin: 0.3, FSIMax: 1.5, GSIMin: 0.2, GSIMax: 0.8},
	types.LandUseAgriculture: {FSIMin: 0.1, FSIMax: 0.2, GSIMin: 0.0, GSIMax: 0.6},
	types.LandUseTransport:   {FSIMin: 0.2, FSIMax: 1.0, GSIMin: 0.0, GSIMax: 0.8},
}

// ProfileFor returns the intensity profile of a land use. The second
// return is false when the land use has no development profile.
func ProfileFor(lu types.LandUse) (Profile, bool) {
	p, ok := profiles[lu]
	return p, ok
}

// profileFor is ProfileFor with an error for callers that require one.
func profileFor(lu types.LandUse) (Profile, error) {
	p, ok := profiles[lu]
	if !ok {
		return Profile{}, fmt.Errorf("%w: no development profile for %s", types.ErrUnknownLandUse, lu)
	}
	return p, nil
}
