// Package geo moves city entities in and out of GeoJSON and answers the
// point-in-block questions the city model is built on. Coordinates are
// planar; every helper assumes a projected CRS in meters.
// Implements: prd008-geojson-io.
package geo
