package optimize

import (
	"math"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// Indicator derives the development figures of a candidate block from
// its site area, assigned land use and intensity. Integrated area hosts
// embedded service bricks (the ground floor on residential blocks, the
// whole floor area elsewhere); non-integrated area is the developable
// site remainder for standalone bricks.
// Implements: prd006-optimize-interface R2.
type Indicator struct {
	LandUse types.LandUse
	FSI     float64
	GSI     float64

	SiteArea          float64
	FootprintArea     float64
	BuildFloorArea    float64
	IntegratedArea    float64
	NonIntegratedArea float64
	LivingArea        float64
	Population        int
}

// ComputeIndicator evaluates the development figures for a site.
func ComputeIndicator(siteArea float64, lu types.LandUse, fsi, gsi float64) Indicator {
	footprint := siteArea * gsi
	bfa := siteArea * fsi
	integrated := bfa
	living := 0.0
	if lu == types.LandUseResidential {
		integrated = footprint
		living = math.Max(0, bfa-integrated)
	}
	return Indicator{
		LandUse:           lu,
		FSI:               fsi,
		GSI:               gsi,
		SiteArea:          siteArea,
		FootprintArea:     footprint,
		BuildFloorArea:    bfa,
		IntegratedArea:    integrated,
		NonIntegratedArea: math.Max(0, types.VacantAreaCoef*siteArea-footprint),
		LivingArea:        living,
		Population:        int(math.Floor(living / types.LivingAreaDemand)),
	}
}
