package control

import (
	"github.com/jamesrr39/goutil/errorsx"

	"github.com/joeblew999/plat-mapview/internal/dom"
	"github.com/joeblew999/plat-mapview/internal/engine"
	"github.com/joeblew999/plat-mapview/internal/style"
)

// DefaultLegendTitle heads a legend with no configured title.
const DefaultLegendTitle = "Legend"

// Group is a legend-level set of layers sharing a metadata group key.
// Layers are layer ids in the order they were first seen.
type Group struct {
	ID                string   `json:"id" yaml:"id" doc:"Group key, matches layer metadata.group"`
	Title             string   `json:"title" yaml:"title,omitempty" doc:"Display title"`
	Layers            []string `json:"layers" yaml:"layers,omitempty" doc:"Member layer ids"`
	Visible           bool     `json:"visible" yaml:"visible" doc:"Group checkbox state"`
	MutuallyExclusive bool     `json:"mutuallyExclusive" yaml:"mutuallyExclusive,omitempty" doc:"Only one member visible at a time"`
}

func (g *Group) has(layerID string) bool {
	for _, id := range g.Layers {
		if id == layerID {
			return true
		}
	}
	return false
}

// LegendOptions configures a Legend.
type LegendOptions struct {
	Title  string
	Class  string
	Groups []Group // declared up front, before any layer reports them
}

// LegendView is what a legend surface holds.
type LegendView struct {
	Title  string
	Groups []GroupView
}

// GroupView is one rendered group row and its member rows.
type GroupView struct {
	ID        string
	Title     string
	Checked   bool
	Exclusive bool
	Layers    []LayerView
}

// LayerView is one rendered member row.
type LayerView struct {
	ID      string
	Title   string
	Checked bool
	Raster  bool
}

// Legend lists grouped layers with a checkbox per group and per layer.
type Legend struct {
	opts    LegendOptions
	groups  []*Group
	engine  engine.Engine
	surface *dom.Surface
	offs    []engine.Disposer
}

// NewLegend creates a detached legend.
func NewLegend(opts LegendOptions) *Legend {
	if opts.Title == "" {
		opts.Title = DefaultLegendTitle
	}
	if opts.Class == "" {
		opts.Class = "maplibregl-ctrl maplibregl-ctrl-legend"
	}
	l := &Legend{opts: opts}
	for _, g := range opts.Groups {
		g.Layers = append([]string(nil), g.Layers...)
		if g.Title == "" {
			g.Title = g.ID
		}
		l.groups = append(l.groups, &g)
	}
	return l
}

// DefaultPosition implements engine.Control.
func (l *Legend) DefaultPosition() engine.Position {
	return engine.BottomLeft
}

// Attach implements engine.Control.
func (l *Legend) Attach(e engine.Engine) (*dom.Surface, error) {
	if l.engine != nil {
		return nil, errorsx.Wrap(engine.ErrAlreadyAttached, "control", "legend")
	}
	l.engine = e
	l.surface = dom.NewSurface("legend", l.opts.Class, "legend")
	l.Rebuild()
	l.offs = append(l.offs, e.On(engine.EventStyleData, func(engine.Event) {
		l.Rebuild()
	}))
	return l.surface, nil
}

// Detach implements engine.Control.
func (l *Legend) Detach() {
	for _, off := range l.offs {
		off()
	}
	l.offs = nil
	if l.surface != nil {
		l.surface.Remove()
	}
	l.surface = nil
	l.engine = nil
}

// Attached reports whether the legend is docked on an engine.
func (l *Legend) Attached() bool {
	return l.engine != nil
}

// Surface is the legend's render surface, nil while detached.
func (l *Legend) Surface() *dom.Surface {
	return l.surface
}

// Rebuild derives the groups from the engine's current layers and redraws.
// It is cheap and safe to call any number of times.
func (l *Legend) Rebuild() {
	if l.engine == nil {
		return
	}
	order := l.engine.LayersOrder()
	live := make(map[string]style.Layer, len(order))
	for _, id := range order {
		if layer, ok := l.engine.Layer(id); ok {
			live[id] = layer
		}
	}

	byID := make(map[string]*Group, len(l.groups))
	for _, g := range l.groups {
		kept := g.Layers[:0]
		for _, id := range g.Layers {
			if _, ok := live[id]; ok {
				kept = append(kept, id)
			}
		}
		g.Layers = kept
		byID[g.ID] = g
	}

	for _, id := range order {
		layer, ok := live[id]
		if !ok {
			continue
		}
		key := layer.Group()
		if key == "" {
			continue
		}
		g, ok := byID[key]
		if !ok {
			g = &Group{ID: key, Title: key, Visible: true}
			byID[key] = g
			l.groups = append(l.groups, g)
		}
		if !g.has(id) {
			g.Layers = append(g.Layers, id)
		}
	}

	l.surface.Set(l.view(live))
}

func (l *Legend) view(live map[string]style.Layer) LegendView {
	v := LegendView{Title: l.opts.Title}
	for _, g := range l.groups {
		if len(g.Layers) == 0 {
			continue
		}
		gv := GroupView{
			ID:        g.ID,
			Title:     g.Title,
			Checked:   g.Visible,
			Exclusive: g.MutuallyExclusive,
		}
		for _, id := range g.Layers {
			layer := live[id]
			gv.Layers = append(gv.Layers, LayerView{
				ID:      id,
				Title:   layer.Title(),
				Checked: layer.Visible(),
				Raster:  layer.Type == style.LayerRaster,
			})
		}
		v.Groups = append(v.Groups, gv)
	}
	return v
}

// Groups returns a copy of the known groups, including ones that currently
// have no live members.
func (l *Legend) Groups() []Group {
	out := make([]Group, len(l.groups))
	for i, g := range l.groups {
		out[i] = *g
		out[i].Layers = append([]string(nil), g.Layers...)
	}
	return out
}

// Group returns a copy of one group.
func (l *Legend) Group(id string) (Group, bool) {
	g := l.group(id)
	if g == nil {
		return Group{}, false
	}
	out := *g
	out.Layers = append([]string(nil), g.Layers...)
	return out, true
}

func (l *Legend) group(id string) *Group {
	for _, g := range l.groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// SetGroupVisible sets the group flag and writes the matching visibility to
// every member. The legend redraws on the engine's next style-data
// notification, not here.
func (l *Legend) SetGroupVisible(id string, visible bool) error {
	if l.engine == nil {
		return errorsx.Wrap(ErrNotAttached, "control", "legend")
	}
	g := l.group(id)
	if g == nil {
		return errorsx.Wrap(ErrGroupNotFound, "group", id)
	}
	g.Visible = visible
	for _, layerID := range g.Layers {
		err := l.engine.SetLayoutProperty(layerID, style.PropertyVisibility, style.VisibilityOf(visible))
		if err != nil && errorsx.Cause(err) != engine.ErrLayerNotFound {
			return err
		}
	}
	return nil
}

// SetLayerVisible writes one layer's visibility. The parent group's own flag
// is left as it is. In a mutually exclusive group, showing a layer hides its
// siblings.
func (l *Legend) SetLayerVisible(layerID string, visible bool) error {
	if l.engine == nil {
		return errorsx.Wrap(ErrNotAttached, "control", "legend")
	}
	if err := l.engine.SetLayoutProperty(layerID, style.PropertyVisibility, style.VisibilityOf(visible)); err != nil {
		return err
	}
	if !visible {
		return nil
	}
	for _, g := range l.groups {
		if !g.MutuallyExclusive || !g.has(layerID) {
			continue
		}
		for _, sibling := range g.Layers {
			if sibling == layerID {
				continue
			}
			err := l.engine.SetLayoutProperty(sibling, style.PropertyVisibility, style.None)
			if err != nil && errorsx.Cause(err) != engine.ErrLayerNotFound {
				return err
			}
		}
	}
	return nil
}
