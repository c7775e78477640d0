/*
geofence.go - Authorized-zone validation for clock events

PURPOSE:
  Pure great-circle distance check: is the employee's current coordinate
  within the tolerance radius of their authorized zone center?

ALGORITHM:
  Haversine formula on WGS-84-style lat/lng pairs with a mean Earth radius
  of 6371km. Accurate to well under a meter at geofence scales (tens of
  meters), which is far finer than consumer GPS noise anyway.

POLICY:
  Out-of-range inputs (|lat|>90, |lng|>180) are rejected with
  InvalidCoordinateError before any distance math runs. The caller blocks
  state-changing events on invalid coordinates rather than marking them
  unvalidated.

SEE ALSO:
  - machine.go: Consumes validation results as transition guards
  - service.go: Runs validation before the state machine
*/
package journey

import "math"

const earthRadiusMeters = 6371000.0

// ValidGeoBounds reports whether a coordinate is a well-formed lat/lng pair.
func ValidGeoBounds(c Coordinate) bool {
	return math.Abs(c.Lat) <= 90 && math.Abs(c.Lng) <= 180
}

// HaversineMeters returns the great-circle distance between two coordinates.
func HaversineMeters(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ValidateLocation reports whether current is within toleranceMeters of
// center. Returns InvalidCoordinateError for out-of-range input. No side
// effects.
func ValidateLocation(current, center Coordinate, toleranceMeters float64) (bool, error) {
	if !ValidGeoBounds(current) {
		return false, &InvalidCoordinateError{Coordinate: current}
	}
	if !ValidGeoBounds(center) {
		return false, &InvalidCoordinateError{Coordinate: center}
	}
	return HaversineMeters(current, center) <= toleranceMeters, nil
}
