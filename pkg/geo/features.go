package geo

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// Property keys recognized on import. Imports are forgiving about naming
// because upstream datasets disagree; exports always use the first name.
const (
	propBlockID        = "block_id"
	propLandUse        = "land_use"
	propFloors         = "floors"
	propFloorsAlt      = "number_of_floors"
	propBuildFloorArea = "build_floor_area"
	propLivingArea     = "living_area"
	propBusinessArea   = "business_area"
	propBusinessAlt    = "non_living_area"
	propPopulation     = "population"
	propCapacity       = "capacity"
	propArea           = "area"
	propServiceType    = "service_type"
)

// DecodeBlocks parses a GeoJSON feature collection into blocks. Every
// feature must carry a polygon; block IDs come from the block_id or id
// property and fall back to the feature position. Land use is optional.
// Implements: prd008-geojson-io R1.1.
func DecodeBlocks(data []byte) ([]*types.Block, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	if err := validateProjected(fc); err != nil {
		return nil, err
	}
	blocks := make([]*types.Block, 0, len(fc.Features))
	seen := make(map[int]bool, len(fc.Features))
	for i, f := range fc.Features {
		poly, err := asPolygon(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("block feature %d: %w", i, err)
		}
		id := i
		if v, ok := intProperty(f, propBlockID); ok {
			id = v
		} else if v, ok := intProperty(f, "id"); ok {
			id = v
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: block %d", types.ErrDuplicateID, id)
		}
		seen[id] = true
		block := &types.Block{BlockID: id, Geometry: poly}
		if raw, ok := f.Properties[propLandUse]; ok && raw != nil {
			if s, ok := raw.(string); ok && s != "" {
				lu, err := types.ParseLandUse(s)
				if err != nil {
					return nil, fmt.Errorf("block %d: %w (%q)", id, err, s)
				}
				block.LandUse = lu
			}
		}
		if err := block.Validate(); err != nil {
			return nil, fmt.Errorf("block %d: %w", id, err)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// DecodeBuildings parses a GeoJSON feature collection into buildings.
// Missing floor counts and floor areas are derived via Normalize.
// Implements: prd008-geojson-io R1.2.
func DecodeBuildings(data []byte) ([]*types.Building, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	if err := validateProjected(fc); err != nil {
		return nil, err
	}
	buildings := make([]*types.Building, 0, len(fc.Features))
	for i, f := range fc.Features {
		poly, err := asPolygon(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("building feature %d: %w", i, err)
		}
		b := &types.Building{
			Geometry:       poly,
			BuildFloorArea: floatProperty(f, propBuildFloorArea),
			LivingArea:     floatProperty(f, propLivingArea),
			Population:     int(floatProperty(f, propPopulation)),
		}
		b.Floors = floatProperty(f, propFloors)
		if b.Floors == 0 {
			b.Floors = floatProperty(f, propFloorsAlt)
		}
		b.BusinessArea = floatProperty(f, propBusinessArea)
		if b.BusinessArea == 0 {
			b.BusinessArea = floatProperty(f, propBusinessAlt)
		}
		b.Normalize()
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("building feature %d: %w", i, err)
		}
		buildings = append(buildings, b)
	}
	return buildings, nil
}

// DecodeFacilities parses a GeoJSON feature collection into facilities of
// the given service type. Geometries may be points or polygons. Capacity
// and area properties are optional; FillDefaults settles them later
// against the service type's bricks.
// Implements: prd008-geojson-io R1.3.
func DecodeFacilities(data []byte, serviceType string) ([]*types.Facility, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	if err := validateProjected(fc); err != nil {
		return nil, err
	}
	facilities := make([]*types.Facility, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f.Geometry == nil {
			return nil, fmt.Errorf("facility feature %d: %w", i, types.ErrInvalidGeometry)
		}
		fac := &types.Facility{
			ServiceType: serviceType,
			Geometry:    f.Geometry,
			Capacity:    int(floatProperty(f, propCapacity)),
			Area:        floatProperty(f, propArea),
		}
		if fac.ServiceType == "" {
			if s, ok := f.Properties[propServiceType].(string); ok {
				fac.ServiceType = s
			}
		}
		if fac.ServiceType == "" {
			return nil, fmt.Errorf("facility feature %d: %w", i, types.ErrInvalidName)
		}
		facilities = append(facilities, fac)
	}
	return facilities, nil
}

// EncodeBlocks renders blocks as a GeoJSON feature collection. The extra
// map contributes additional per-block properties, keyed by block ID;
// nil extra exports the static fields only.
// Implements: prd008-geojson-io R2.1.
func EncodeBlocks(blocks []*types.Block, extra map[int]map[string]any) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, block := range blocks {
		f := geojson.NewFeature(block.Geometry)
		f.Properties[propBlockID] = block.BlockID
		if block.LandUse != "" {
			f.Properties[propLandUse] = block.LandUse.String()
		}
		for k, v := range extra[block.BlockID] {
			f.Properties[k] = v
		}
		fc.Append(f)
	}
	return fc.MarshalJSON()
}

// asPolygon coerces polygon-like geometries. MultiPolygons collapse to
// their largest member; anything else is rejected.
func asPolygon(g orb.Geometry) (orb.Polygon, error) {
	switch geom := g.(type) {
	case orb.Polygon:
		return geom, nil
	case orb.MultiPolygon:
		if len(geom) == 0 {
			return nil, types.ErrInvalidGeometry
		}
		best := geom[0]
		for _, p := range geom[1:] {
			if boundArea(p.Bound()) > boundArea(best.Bound()) {
				best = p
			}
		}
		return best, nil
	default:
		return nil, fmt.Errorf("%w: want polygon, got %T", types.ErrInvalidGeometry, g)
	}
}

func boundArea(b orb.Bound) float64 {
	return (b.Max[0] - b.Min[0]) * (b.Max[1] - b.Min[1])
}

func intProperty(f *geojson.Feature, key string) (int, bool) {
	switch v := f.Properties[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

func floatProperty(f *geojson.Feature, key string) float64 {
	switch v := f.Properties[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
