package geoutil

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestMetersPerPixel(t *testing.T) {
	assert.InDelta(t, 156543.03, MetersPerPixel(0, 0), 0.01)
	assert.InDelta(t, 156543.03/2, MetersPerPixel(0, 1), 0.01)
	assert.InDelta(t, 156543.03/2, MetersPerPixel(60, 0), 0.01, "cos(60°) halves the ground resolution")
}

func TestMeterToPixel(t *testing.T) {
	mpp := MetersPerPixel(-7.8, 12)
	assert.InDelta(t, 100, MeterToPixel(-7.8, 100*mpp, 12), 1e-9)
	assert.InDelta(t, 200, MeterToPixel(-7.8, 100*mpp, 13), 1e-9)
}

func TestFitBound(t *testing.T) {
	b := orb.Bound{Min: orb.Point{-10, -10}, Max: orb.Point{10, 10}}
	center, zoom := FitBound(b, 1024, 1024, 0)
	assert.InDelta(t, 0, center.Lon(), 1e-9)
	assert.InDelta(t, 0, center.Lat(), 1e-9)
	// 20° of 360° across 1024px of a 512px world
	assert.InDelta(t, 5.16, zoom, 0.01)

	_, padded := FitBound(b, 1024, 1024, 256)
	assert.InDelta(t, zoom-1, padded, 1e-9)

	center, zoom = FitBound(orb.Bound{Min: orb.Point{3, 4}, Max: orb.Point{3, 4}}, 800, 600, 10)
	assert.Equal(t, float64(MaxZoom), zoom)
	assert.InDelta(t, 3, center.Lon(), 1e-9)
	assert.InDelta(t, 4, center.Lat(), 1e-9)

	_, zoom = FitBound(orb.Bound{Min: orb.Point{-180, -85}, Max: orb.Point{180, 85}}, 256, 256, 0)
	assert.Equal(t, 0.0, zoom, "zoom is clamped at 0")
}
