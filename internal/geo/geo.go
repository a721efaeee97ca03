// Package geo resolves H3 cell indices to coordinates and computes
// great-circle displacements between consecutive breadcrumbs.
//
// github.com/uber/h3-go/v4 is the only dependency in this repository not
// grounded in the example corpus — no pack repo vendors a geospatial index,
// so this is a necessary out-of-pack addition (see DESIGN.md).
package geo

import (
	"math"

	"github.com/uber/h3-go/v4"
)

// earthRadiusKM is the mean Earth radius used for the haversine formula.
const earthRadiusKM = 6371.0

// minDtSeconds is the floor applied to inter-breadcrumb intervals to avoid
// division by zero downstream.
const minDtSeconds = 0.001

// CellCenter resolves an H3 cell hex string to its center lat/lng in
// degrees. Unparseable cells fail soft: the second return is false and the
// caller should treat distance as 0.0 rather than abort. chain.Validate
// does not check cell syntax, so an unparseable cell reaches here and
// contributes a 0.0 displacement.
func CellCenter(cellHex string) (latDeg, lngDeg float64, ok bool) {
	cell, err := h3.NewCellFromString(cellHex)
	if err != nil || !cell.IsValid() {
		return 0, 0, false
	}
	latLng := cell.LatLng()
	return latLng.Lat, latLng.Lng, true
}

// HaversineKM returns the great-circle distance in kilometers between two
// lat/lng points given in degrees.
func HaversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// CellDistanceKM resolves both cells to centers and returns their
// haversine distance, failing soft (0.0) when either cell is unparseable.
func CellDistanceKM(fromCellHex, toCellHex string) float64 {
	lat1, lng1, ok1 := CellCenter(fromCellHex)
	lat2, lng2, ok2 := CellCenter(toCellHex)
	if !ok1 || !ok2 {
		return 0.0
	}
	return HaversineKM(lat1, lng1, lat2, lng2)
}

// ClampDt applies the minimum-interval floor to avoid division by zero
// in downstream velocity calculations.
func ClampDt(dtSeconds float64) float64 {
	if dtSeconds < minDtSeconds {
		return minDtSeconds
	}
	return dtSeconds
}
