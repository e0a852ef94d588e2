package network

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// RoutesFromGeoJSON parses a feature collection of LineString features
// into routes. The mode comes from the "mode" property (default walk);
// "oneway" marks directed street segments. MultiLineStrings contribute
// one route per member.
// Implements: prd004-network-interface R1.2.
func RoutesFromGeoJSON(data []byte) ([]Route, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	var routes []Route
	for i, f := range fc.Features {
		mode := ModeWalk
		if s, ok := f.Properties["mode"].(string); ok && s != "" {
			mode = Mode(s)
			if _, err := Speed(mode); err != nil {
				return nil, fmt.Errorf("route feature %d: %w", i, err)
			}
		}
		oneway := false
		switch v := f.Properties["oneway"].(type) {
		case bool:
			oneway = v
		case string:
			oneway = v == "yes" || v == "true"
		}
		switch geom := f.Geometry.(type) {
		case orb.LineString:
			routes = append(routes, Route{Mode: mode, Geometry: geom, Oneway: oneway})
		case orb.MultiLineString:
			for _, ls := range geom {
				routes = append(routes, Route{Mode: mode, Geometry: ls, Oneway: oneway})
			}
		default:
			return nil, fmt.Errorf("route feature %d: %w: want LineString, got %T",
				i, types.ErrInvalidGeometry, f.Geometry)
		}
	}
	return routes, nil
}
