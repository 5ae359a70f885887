// Package basemap resolves named basemap presets to style documents and
// swaps them onto a map while keeping its controls alive.
package basemap

import (
	"embed"
	"errors"
	"path"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"

	"github.com/joeblew999/plat-mapview/internal/style"
)

//go:embed assets/*.json
var assets embed.FS

// BaseStyleAsset is the shared multi-source document single-source presets
// are cut from.
const BaseStyleAsset = "basemap"

var ErrUnknownPreset = errors.New("unknown basemap preset")

// Preset is one selectable basemap.
type Preset struct {
	ID            string `json:"id" yaml:"id" doc:"Preset identifier" example:"google-terrain"`
	Title         string `json:"title,omitempty" yaml:"title,omitempty" doc:"Display title"`
	Source        string `json:"source,omitempty" yaml:"source,omitempty" doc:"Base style source to show, defaults to the id"`
	Style         string `json:"style,omitempty" yaml:"style,omitempty" doc:"Composite style asset, used instead of a base source"`
	LabelBySource bool   `json:"labelBySource,omitempty" yaml:"labelBySource,omitempty" doc:"Rename the remaining layer after its source"`
}

// Label is the title shown on the preset button.
func (p Preset) Label() string {
	if p.Title != "" {
		return p.Title
	}
	return strings.ReplaceAll(p.ID, "-", " ")
}

func (p Preset) source() string {
	if p.Source != "" {
		return p.Source
	}
	return p.ID
}

// DefaultPresets is the preset bar of the original map, in order.
func DefaultPresets() []Preset {
	return []Preset{
		{ID: "esri-hybrid", Style: "esri-hybrid"},
		{ID: "esri-satellite"},
		{ID: "google-hybrid", Style: "google-hybrid"},
		{ID: "google-satellite"},
		{ID: "google-roads"},
		{ID: "google-terrain"},
	}
}

// Catalog is the read-only set of presets and the documents they resolve
// against.
type Catalog struct {
	presets    []Preset
	base       *style.Document
	composites map[string]*style.Document
}

// NewCatalog checks that every preset can be resolved.
func NewCatalog(presets []Preset, base *style.Document, composites map[string]*style.Document) (*Catalog, error) {
	if len(presets) == 0 {
		return nil, errorsx.Errorf("no basemap presets")
	}
	seen := make(map[string]struct{}, len(presets))
	for _, p := range presets {
		if p.ID == "" {
			return nil, errorsx.Errorf("basemap preset with empty id")
		}
		if _, dup := seen[p.ID]; dup {
			return nil, errorsx.Errorf("duplicate basemap preset %q", p.ID)
		}
		seen[p.ID] = struct{}{}

		if p.Style != "" {
			if _, ok := composites[p.Style]; !ok {
				return nil, errorsx.Errorf("preset %q: style %q not found", p.ID, p.Style)
			}
			continue
		}
		if base == nil {
			return nil, errorsx.Errorf("preset %q: no base style", p.ID)
		}
		if _, ok := base.Sources[p.source()]; !ok {
			return nil, errorsx.Errorf("preset %q: source %q not in base style", p.ID, p.source())
		}
	}
	return &Catalog{
		presets:    append([]Preset(nil), presets...),
		base:       base,
		composites: composites,
	}, nil
}

// LoadAssets parses the embedded style documents. The base document is
// returned separately from the composites.
func LoadAssets() (*style.Document, map[string]*style.Document, error) {
	entries, err := assets.ReadDir("assets")
	if err != nil {
		return nil, nil, errorsx.Wrap(err)
	}
	var base *style.Document
	composites := make(map[string]*style.Document)
	for _, entry := range entries {
		data, err := assets.ReadFile(path.Join("assets", entry.Name()))
		if err != nil {
			return nil, nil, errorsx.Wrap(err)
		}
		doc, err := style.Parse(data)
		if err != nil {
			return nil, nil, errorsx.Wrap(err, "asset", entry.Name())
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		if name == BaseStyleAsset {
			base = doc
			continue
		}
		composites[name] = doc
	}
	if base == nil {
		return nil, nil, errorsx.Errorf("base style asset %q missing", BaseStyleAsset)
	}
	return base, composites, nil
}

// NewDefaultCatalog builds a catalog over the embedded assets.
func NewDefaultCatalog(presets []Preset) (*Catalog, error) {
	if len(presets) == 0 {
		presets = DefaultPresets()
	}
	base, composites, err := LoadAssets()
	if err != nil {
		return nil, err
	}
	return NewCatalog(presets, base, composites)
}

// Presets returns the presets in declared order.
func (c *Catalog) Presets() []Preset {
	return append([]Preset(nil), c.presets...)
}

// First is the preset selected at start.
func (c *Catalog) First() Preset {
	return c.presets[0]
}

// Lookup finds a preset by id.
func (c *Catalog) Lookup(id string) (Preset, bool) {
	for _, p := range c.presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

// Resolve returns a fresh document for the preset. The catalog's own
// documents are never handed out.
func (c *Catalog) Resolve(id string) (*style.Document, error) {
	p, ok := c.Lookup(id)
	if !ok {
		return nil, errorsx.Wrap(ErrUnknownPreset, "preset", id)
	}
	if p.Style != "" {
		return c.composites[p.Style].Clone(), nil
	}
	doc, err := BuildSourceStyle(c.base, p.source(), p.LabelBySource)
	if err != nil {
		return nil, err
	}
	doc.Name = p.Label()
	return doc, nil
}

// BuildSourceStyle builds a document that draws only one source of base.
// The single layer is the base layer drawing that source, or the first base
// layer retargeted to it. base is not modified.
func BuildSourceStyle(base *style.Document, source string, labelBySource bool) (*style.Document, error) {
	src, ok := base.Sources[source]
	if !ok {
		return nil, errorsx.Errorf("source %q not in base style", source)
	}

	var template *style.Layer
	for i := range base.Layers {
		if base.Layers[i].Source == source {
			template = &base.Layers[i]
			break
		}
	}
	if template == nil {
		for i := range base.Layers {
			if base.Layers[i].Source != "" {
				template = &base.Layers[i]
				break
			}
		}
	}

	var layer style.Layer
	if template != nil {
		layer = template.Clone()
	} else {
		layer = style.Layer{ID: source, Type: style.LayerRaster}
	}
	if layer.Source != source {
		// retargeted: the template's label belongs to another source
		layer.ID = source
		if layer.Metadata != nil {
			layer.Metadata.Title = ""
		}
	}
	layer.Source = source
	if labelBySource {
		layer.ID = source
	}
	if layer.Layout == nil {
		layer.Layout = make(map[string]any)
	}
	layer.Layout[style.PropertyVisibility] = string(style.Visible)

	doc := base.Header()
	doc.Sources = map[string]style.Source{source: src.Clone()}
	doc.Layers = []style.Layer{layer}
	return doc, nil
}
