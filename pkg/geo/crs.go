package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// LooksGeographic reports whether a bound plausibly holds longitude and
// latitude degrees rather than projected meters. A city footprint in any
// projected CRS comfortably exceeds the degree range.
func LooksGeographic(b orb.Bound) bool {
	return b.Min[0] >= -180 && b.Max[0] <= 180 && b.Min[1] >= -90 && b.Max[1] <= 90
}

// validateProjected rejects feature collections whose coordinates look
// geographic. Reprojection is out of scope; callers must project their
// data before import (prd008-geojson-io R3).
func validateProjected(fc *geojson.FeatureCollection) error {
	var bound orb.Bound
	found := false
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		if !found {
			bound = f.Geometry.Bound()
			found = true
			continue
		}
		bound = bound.Union(f.Geometry.Bound())
	}
	if found && LooksGeographic(bound) {
		return types.ErrGeographicCRS
	}
	return nil
}
