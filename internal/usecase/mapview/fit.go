package mapview

import (
	"math"

	"github.com/swapcycle/swapcycle/internal/domain/geo"
)

const tileSize = 256

// FitZoom returns the largest zoom at which b fits into a width x height pixel
// viewport, capped at maxZoom.
func FitZoom(b geo.Bounds, width, height, maxZoom int) int {
	latFraction := (mercatorLat(b.North) - mercatorLat(b.South)) / math.Pi

	lngDiff := b.East - b.West
	if lngDiff < 0 {
		lngDiff += 360
	}
	lngFraction := lngDiff / 360

	zoom := min(
		zoomFor(height, latFraction, maxZoom),
		zoomFor(width, lngFraction, maxZoom),
	)
	return max(zoom, 0)
}

func zoomFor(px int, fraction float64, maxZoom int) int {
	if fraction <= 0 || px <= 0 {
		return maxZoom
	}
	z := math.Floor(math.Log2(float64(px) / tileSize / fraction))
	if z > float64(maxZoom) {
		return maxZoom
	}
	return int(z)
}

// mercatorLat projects a latitude to Web-Mercator y in radians/2.
func mercatorLat(lat float64) float64 {
	sin := math.Sin(lat * math.Pi / 180)
	y := math.Log((1+sin)/(1-sin)) / 2
	return math.Max(math.Min(y, math.Pi), -math.Pi) / 2
}
