package geo

import (
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
)

// EarthRadiusMeters is the mean radius of Earth used for Haversine distance.
const EarthRadiusMeters = 6_371_000.0

// Location is a WGS84 point in degrees.
type Location struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Valid reports whether the point lies within latitude/longitude ranges.
func (l Location) Valid() bool {
	return ValidateCoordinates(l.Lat, l.Lng)
}

func (l Location) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Lat, l.Lng)
}

// Bounds is the rectangular lat/lng viewport of a map.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Valid reports whether the bounds are a usable viewport.
// East may be smaller than West when the viewport crosses the antimeridian.
func (b Bounds) Valid() bool {
	for _, v := range []float64{b.North, b.South, b.East, b.West} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.South <= b.North &&
		ValidateCoordinates(b.North, b.East) &&
		ValidateCoordinates(b.South, b.West)
}

// Center returns the midpoint of the viewport.
func (b Bounds) Center() Location {
	east := b.East
	if east < b.West {
		east += 360
	}
	lng := (b.West + east) / 2
	if lng > 180 {
		lng -= 360
	}
	return Location{Lat: (b.North + b.South) / 2, Lng: lng}
}

// Contains reports whether the point lies inside the viewport.
func (b Bounds) Contains(l Location) bool {
	if l.Lat < b.South || l.Lat > b.North {
		return false
	}
	if b.West <= b.East {
		return l.Lng >= b.West && l.Lng <= b.East
	}
	return l.Lng >= b.West || l.Lng <= b.East
}

// Extender accumulates points into the smallest enclosing Bounds.
// The zero value is empty.
type Extender struct {
	b *geom.Bounds
}

// Extend grows the bounds to include l.
func (e *Extender) Extend(l Location) {
	if e.b == nil {
		e.b = geom.NewBounds(geom.XY)
	}
	e.b.Extend(geom.NewPointFlat(geom.XY, []float64{l.Lng, l.Lat}))
}

// IsEmpty reports whether no point was added.
func (e *Extender) IsEmpty() bool { return e.b == nil || e.b.IsEmpty() }

// Bounds returns the accumulated bounds.
func (e *Extender) Bounds() Bounds {
	if e.IsEmpty() {
		return Bounds{}
	}
	return Bounds{
		North: e.b.Max(1),
		South: e.b.Min(1),
		East:  e.b.Max(0),
		West:  e.b.Min(0),
	}
}

// Haversine returns the great-circle distance in meters between two points
// specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// DistanceKm returns the great-circle distance between two locations in kilometers.
func DistanceKm(a, b Location) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng) / 1000
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
