// Package geo implements the great-circle distance test and the bounding-box
// pre-filter used by geo-radius search.
package geo

import (
	"math"

	"github.com/propfind/searchcore/internal/domain/property"
)

// EarthRadiusKm is the mean radius of Earth used for Haversine distance.
const EarthRadiusKm = 6371.0

// kmPerDegreeLat is the approximate north-south span of one degree of latitude.
const kmPerDegreeLat = 111.0

// DistanceKm returns the great-circle distance in kilometers between two
// points specified by latitude and longitude in degrees.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// BoundingBox is a rectangular latitude/longitude window. It is a cheap
// superset of a geo-radius: candidates inside the box must still pass the
// exact distance test; the box never decides membership on its own.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// NewBoundingBox computes the bounding box enclosing the radius (km) around
// a point. Longitude span widens with latitude; near the poles it degenerates
// to the full longitude range.
func NewBoundingBox(lat, lon, radiusKm float64) BoundingBox {
	dLat := radiusKm / kmPerDegreeLat

	box := BoundingBox{
		MinLat: math.Max(lat-dLat, -90),
		MaxLat: math.Min(lat+dLat, 90),
		MinLon: -180,
		MaxLon: 180,
	}

	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat > 1e-6 {
		dLon := radiusKm / (kmPerDegreeLat * cosLat)
		if dLon < 180 {
			box.MinLon = lon - dLon
			box.MaxLon = lon + dLon
		}
	}
	return box
}

// Contains reports whether the point lies inside the box (inclusive).
func (b BoundingBox) Contains(lat, lon float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	if b.MinLon >= -180 && b.MaxLon <= 180 {
		return lon >= b.MinLon && lon <= b.MaxLon
	}
	// Box crosses the antimeridian: accept the wrapped window.
	return lon >= b.MinLon+360 || lon <= b.MaxLon-360 ||
		(lon >= b.MinLon && lon <= b.MaxLon)
}

// WithinRadius reports whether the property lies within radiusKm of the
// center, boundary inclusive. Properties without coordinates fail closed.
func WithinRadius(p *property.Property, lat, lon, radiusKm float64) bool {
	if !p.HasCoordinates() {
		return false
	}
	return DistanceKm(lat, lon, *p.Latitude, *p.Longitude) <= radiusKm
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
