// Package style models the declarative style document a map engine renders:
// named tile sources and an ordered list of drawable layers.
package style

import (
	"encoding/json"

	"github.com/paulmach/orb"
)

// SourceType is the kind of tile endpoint a source describes.
type SourceType string

const (
	SourceRaster    SourceType = "raster"
	SourceVector    SourceType = "vector"
	SourceRasterDEM SourceType = "raster-dem"
	SourceGeoJSON   SourceType = "geojson"
	SourceImage     SourceType = "image"
)

func (t SourceType) valid() bool {
	switch t {
	case SourceRaster, SourceVector, SourceRasterDEM, SourceGeoJSON, SourceImage:
		return true
	}
	return false
}

// LayerType tags a layer with the kind of drawing it performs.
type LayerType string

const (
	LayerRaster        LayerType = "raster"
	LayerFill          LayerType = "fill"
	LayerLine          LayerType = "line"
	LayerSymbol        LayerType = "symbol"
	LayerCircle        LayerType = "circle"
	LayerFillExtrusion LayerType = "fill-extrusion"
	LayerHeatmap       LayerType = "heatmap"
	LayerHillshade     LayerType = "hillshade"
	LayerBackground    LayerType = "background"
)

func (t LayerType) valid() bool {
	switch t {
	case LayerRaster, LayerFill, LayerLine, LayerSymbol, LayerCircle,
		LayerFillExtrusion, LayerHeatmap, LayerHillshade, LayerBackground:
		return true
	}
	return false
}

// needsSource is false only for layers that draw without data.
func (t LayerType) needsSource() bool {
	return t != LayerBackground
}

// Visibility is the value of a layer's "visibility" layout property.
type Visibility string

const (
	Visible Visibility = "visible"
	None    Visibility = "none"
)

// VisibilityOf maps a checkbox state to a layout value.
func VisibilityOf(checked bool) Visibility {
	if checked {
		return Visible
	}
	return None
}

// PropertyVisibility is the layout property controls toggle.
const PropertyVisibility = "visibility"

// Document is a complete style: what the engine draws and from where.
type Document struct {
	Version    int               `json:"version" yaml:"version"`
	Name       string            `json:"name,omitempty" yaml:"name,omitempty"`
	Projection map[string]any    `json:"projection,omitempty" yaml:"projection,omitempty"`
	Glyphs     string            `json:"glyphs,omitempty" yaml:"glyphs,omitempty"`
	Sprite     string            `json:"sprite,omitempty" yaml:"sprite,omitempty"`
	Sources    map[string]Source `json:"sources" yaml:"sources"`
	Layers     []Layer           `json:"layers" yaml:"layers"`
}

// Source is a tile endpoint declaration.
type Source struct {
	Type        SourceType `json:"type" yaml:"type"`
	Tiles       []string   `json:"tiles,omitempty" yaml:"tiles,omitempty"`
	URL         string     `json:"url,omitempty" yaml:"url,omitempty"`
	TileSize    int        `json:"tileSize,omitempty" yaml:"tileSize,omitempty"`
	MinZoom     float64    `json:"minzoom,omitempty" yaml:"minzoom,omitempty"`
	MaxZoom     float64    `json:"maxzoom,omitempty" yaml:"maxzoom,omitempty"`
	Bounds      []float64  `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	Attribution string     `json:"attribution,omitempty" yaml:"attribution,omitempty"`
}

// Bound returns the source bounds as a box, ok is false when the source
// declares none.
func (s Source) Bound() (orb.Bound, bool) {
	if len(s.Bounds) != 4 {
		return orb.Bound{}, false
	}
	return orb.Bound{
		Min: orb.Point{s.Bounds[0], s.Bounds[1]},
		Max: orb.Point{s.Bounds[2], s.Bounds[3]},
	}, true
}

// Layer is one drawable unit.
type Layer struct {
	ID          string         `json:"id" yaml:"id"`
	Type        LayerType      `json:"type" yaml:"type"`
	Source      string         `json:"source,omitempty" yaml:"source,omitempty"`
	SourceLayer string         `json:"source-layer,omitempty" yaml:"source-layer,omitempty"`
	Filter      []any          `json:"filter,omitempty" yaml:"filter,omitempty"`
	Layout      map[string]any `json:"layout,omitempty" yaml:"layout,omitempty"`
	Paint       map[string]any `json:"paint,omitempty" yaml:"paint,omitempty"`
	Metadata    *Metadata      `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Visibility reads the layout property; layers without one are visible.
func (l Layer) Visibility() Visibility {
	if v, ok := l.Layout[PropertyVisibility].(string); ok && Visibility(v) == None {
		return None
	}
	return Visible
}

// Visible reports whether the layer is drawn.
func (l Layer) Visible() bool {
	return l.Visibility() == Visible
}

// Group is the legend group the layer declares, or "".
func (l Layer) Group() string {
	if l.Metadata == nil {
		return ""
	}
	return l.Metadata.Group
}

// Title is the metadata title, falling back to the layer id.
func (l Layer) Title() string {
	if l.Metadata != nil && l.Metadata.Title != "" {
		return l.Metadata.Title
	}
	return l.ID
}

// Metadata is the subset of a layer's free-form metadata the legend reads.
type Metadata struct {
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	Group string `json:"group,omitempty" yaml:"group,omitempty"`
}

// UnmarshalJSON accepts any metadata bag and keeps the string fields it
// knows. Anything else is ignored.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var bag map[string]any
	if err := json.Unmarshal(data, &bag); err != nil {
		// not an object: treat as no metadata
		*m = Metadata{}
		return nil
	}
	title, _ := bag["title"].(string)
	group, _ := bag["group"].(string)
	*m = Metadata{Title: title, Group: group}
	return nil
}
