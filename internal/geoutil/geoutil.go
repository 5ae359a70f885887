// Package geoutil has the few Web Mercator conversions the map UI needs:
// ground resolution per pixel and the camera that fits a box.
package geoutil

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// EarthCircumference is the equatorial circumference in meters.
const EarthCircumference = 40_075_016.686

// TileSize is the pixel size of one tile at integer zoom levels.
const TileSize = 512

// MaxZoom caps FitBound for degenerate (point-sized) boxes.
const MaxZoom = 22

// MetersPerPixel is the ground distance one screen pixel covers at a
// latitude and zoom level.
func MetersPerPixel(latitude, zoom float64) float64 {
	rad := latitude * math.Pi / 180
	return EarthCircumference * math.Cos(rad) / math.Pow(2, zoom+8)
}

// MeterToPixel converts a ground distance to screen pixels.
func MeterToPixel(latitude, meters, zoom float64) float64 {
	return meters / MetersPerPixel(latitude, zoom)
}

// FitBound returns the center and the largest zoom at which b fits a
// width×height viewport with padding pixels on every side.
func FitBound(b orb.Bound, width, height, padding float64) (orb.Point, float64) {
	min := project.Point(b.Min, project.WGS84.ToMercator)
	max := project.Point(b.Max, project.WGS84.ToMercator)
	center := project.Point(orb.Point{(min[0] + max[0]) / 2, (min[1] + max[1]) / 2}, project.Mercator.ToWGS84)

	dx := math.Abs(max[0] - min[0])
	dy := math.Abs(max[1] - min[1])
	w := math.Max(width-2*padding, 1)
	h := math.Max(height-2*padding, 1)
	if dx == 0 && dy == 0 {
		return center, MaxZoom
	}

	// world width in mercator meters spans TileSize*2^z pixels
	world := 2 * math.Pi * 6378137.0
	zx, zy := math.Inf(1), math.Inf(1)
	if dx > 0 {
		zx = math.Log2(w * world / (dx * TileSize))
	}
	if dy > 0 {
		zy = math.Log2(h * world / (dy * TileSize))
	}
	zoom := math.Min(zx, zy)
	zoom = math.Max(0, math.Min(zoom, MaxZoom))
	return center, zoom
}
