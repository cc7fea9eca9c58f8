package adsb

import (
	"github.com/golang/geo/s2"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance from the receiver at
// (lat, lon) to the resolved position. ok is false when the position has no
// lat/lon yet.
func (p *Position) DistanceKm(lat, lon float64) (dist float64, ok bool) {
	if p == nil || !p.HasLatLon() {
		return 0, false
	}

	from := s2.LatLngFromDegrees(lat, lon)
	to := s2.LatLngFromDegrees(*p.Latitude, *p.Longitude)
	return from.Distance(to).Radians() * earthRadiusKm, true
}
