// Shared hydration helpers: geometry and timestamp codecs, filter value
// coercion, and pagination.
// Implements: prd002-sqlite-backend R13 (hydration), R14 (filters).
package sqlite

import (
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mesh-intelligence/masterplan/pkg/types"
)

// encodeGeometry serializes a geometry to its GeoJSON string form.
func encodeGeometry(g orb.Geometry) (string, error) {
	if g == nil {
		return "", types.ErrInvalidGeometry
	}
	data, err := geojson.NewGeometry(g).MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidGeometry, err)
	}
	return string(data), nil
}

// decodeGeometry parses a GeoJSON geometry string.
func decodeGeometry(s string) (orb.Geometry, error) {
	g, err := geojson.UnmarshalGeometry([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidGeometry, err)
	}
	return g.Geometry(), nil
}

// decodePolygon parses a GeoJSON geometry string that must hold a polygon.
// A multipolygon collapses to its first member.
func decodePolygon(s string) (orb.Polygon, error) {
	g, err := decodeGeometry(s)
	if err != nil {
		return nil, err
	}
	switch p := g.(type) {
	case orb.Polygon:
		return p, nil
	case orb.MultiPolygon:
		if len(p) > 0 {
			return p[0], nil
		}
	}
	return nil, fmt.Errorf("%w: expected polygon, got %s", types.ErrInvalidGeometry, g.GeoJSONType())
}

// formatTime serializes a timestamp for a TEXT column, defaulting zero
// times to now.
func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Format(time.RFC3339)
}

// parseTime deserializes a TEXT column timestamp; unparseable values
// yield the zero time.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// filterInt coerces a filter value to int. JSON decoding hands integers
// over as float64, so both forms are accepted.
func filterInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	}
	return 0, fmt.Errorf("%w: %T", types.ErrInvalidFilter, v)
}

// filterString coerces a filter value to string.
func filterString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %T", types.ErrInvalidFilter, v)
	}
	return s, nil
}

// filterIntSlice coerces a filter value to a slice of ints, accepting
// []int or the []any a JSON decoder produces.
func filterIntSlice(v any) ([]int, error) {
	switch vs := v.(type) {
	case []int:
		return vs, nil
	case []any:
		out := make([]int, 0, len(vs))
		for _, item := range vs {
			n, err := filterInt(item)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %T", types.ErrInvalidFilter, v)
}

// pagination extracts limit and offset from a filter, removing the keys so
// table-specific handling only sees its own columns. A missing limit means
// no limit.
func pagination(filter map[string]any) (limit, offset int, err error) {
	limit = -1
	if v, ok := filter["limit"]; ok {
		limit, err = filterInt(v)
		if err != nil {
			return 0, 0, err
		}
		delete(filter, "limit")
	}
	if v, ok := filter["offset"]; ok {
		offset, err = filterInt(v)
		if err != nil {
			return 0, 0, err
		}
		delete(filter, "offset")
	}
	return limit, offset, nil
}

// paginate appends LIMIT/OFFSET clauses to a query.
func paginate(query string, args []any, limit, offset int) (string, []any) {
	if limit >= 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	} else if offset > 0 {
		// SQLite requires LIMIT before OFFSET; -1 means unlimited.
		query += " LIMIT -1"
	}
	if offset > 0 {
		query += " OFFSET ?"
		args = append(args, offset)
	}
	return query, args
}

// cloneFilter copies a filter map so pagination extraction does not mutate
// the caller's map.
func cloneFilter(filter map[string]any) map[string]any {
	out := make(map[string]any, len(filter))
	for k, v := range filter {
		out[k] = v
	}
	return out
}
