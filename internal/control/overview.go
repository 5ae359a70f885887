package control

import (
	"github.com/jamesrr39/goutil/errorsx"

	"github.com/joeblew999/plat-mapview/internal/dom"
	"github.com/joeblew999/plat-mapview/internal/engine"
	"github.com/joeblew999/plat-mapview/internal/style"
)

// DefaultZoomOffset is how far the overview zooms out from its parent.
const DefaultZoomOffset = -5.0

// OverviewOptions configures an Overview. Zero values take the defaults of
// the original minimap control. A nil ZoomOffset means DefaultZoomOffset;
// an explicit zero keeps the parent's zoom.
type OverviewOptions struct {
	ID         string          `yaml:"id"`
	Width      string          `yaml:"width"`
	Height     string          `yaml:"height"`
	ZoomOffset *float64        `yaml:"zoomOffset"`
	Position   engine.Position `yaml:"position"`
}

// Offset returns a ZoomOffset value for OverviewOptions.
func Offset(v float64) *float64 {
	return &v
}

func (o OverviewOptions) withDefaults() OverviewOptions {
	if o.ID == "" {
		o.ID = "minimap"
	}
	if o.Width == "" {
		o.Width = "300px"
	}
	if o.Height == "" {
		o.Height = "200px"
	}
	if o.ZoomOffset == nil {
		o.ZoomOffset = Offset(DefaultZoomOffset)
	} else {
		o.ZoomOffset = Offset(*o.ZoomOffset)
	}
	if o.Position == "" {
		o.Position = engine.BottomLeft
	}
	return o
}

// OverviewView is what an overview surface holds.
type OverviewView struct {
	ID        string
	Width     string
	Height    string
	StyleName string
	Lng       float64
	Lat       float64
	Zoom      float64
	Layers    []string // visible layer ids of the mini map
}

// Overview is a small second map that shows the same imagery as its parent
// at a lower zoom. It is bound to one style document; a style swap on the
// parent needs a fresh Overview.
type Overview struct {
	opts    OverviewOptions
	doc     *style.Document
	parent  engine.Engine
	mini    *engine.Map
	surface *dom.Surface
	offs    []engine.Disposer
}

// NewOverview creates a detached overview bound to doc.
func NewOverview(doc *style.Document, opts OverviewOptions) *Overview {
	return &Overview{opts: opts.withDefaults(), doc: doc.Clone()}
}

// DefaultPosition implements engine.Control.
func (o *Overview) DefaultPosition() engine.Position {
	return o.opts.Position
}

// Attach implements engine.Control.
func (o *Overview) Attach(e engine.Engine) (*dom.Surface, error) {
	if o.parent != nil {
		return nil, errorsx.Wrap(engine.ErrAlreadyAttached, "control", "overview")
	}
	o.parent = e
	mini, err := engine.NewMap(o.doc, engine.WithView(o.miniView(e.View())))
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	o.mini = mini
	o.mirrorVisibility()
	o.mini.Flush()

	o.surface = dom.NewSurface(o.opts.ID, "maplibregl-ctrl maplibregl-ctrl-minimap", "overview")
	o.render()
	o.offs = append(o.offs,
		e.On(engine.EventInteractionEnd, func(engine.Event) { o.follow() }),
		e.On(engine.EventStyleData, func(engine.Event) {
			o.mirrorVisibility()
			o.mini.Flush()
			o.render()
		}),
	)
	return o.surface, nil
}

// Detach implements engine.Control.
func (o *Overview) Detach() {
	for _, off := range o.offs {
		off()
	}
	o.offs = nil
	if o.surface != nil {
		o.surface.Remove()
		o.surface = nil
	}
	o.mini = nil
	o.parent = nil
}

// StyleName is the name of the document the overview is bound to.
func (o *Overview) StyleName() string {
	return o.doc.Name
}

// Mini is the overview's own engine, nil while detached.
func (o *Overview) Mini() *engine.Map {
	return o.mini
}

// Surface is the overview's render surface, nil while detached.
func (o *Overview) Surface() *dom.Surface {
	return o.surface
}

func (o *Overview) miniView(v engine.View) engine.View {
	zoom := v.Zoom + *o.opts.ZoomOffset
	if zoom < 0 {
		zoom = 0
	}
	return engine.View{Center: v.Center, Zoom: zoom}
}

func (o *Overview) follow() {
	if o.parent == nil || o.mini == nil {
		return
	}
	o.mini.JumpTo(o.miniView(o.parent.View()))
	o.mini.Flush()
	o.render()
}

// mirrorVisibility copies the parent's visibility onto layers the mini map
// shares with it.
func (o *Overview) mirrorVisibility() {
	if o.parent == nil || o.mini == nil {
		return
	}
	for _, id := range o.mini.LayersOrder() {
		pl, ok := o.parent.Layer(id)
		if !ok {
			continue
		}
		ml, _ := o.mini.Layer(id)
		if ml.Visibility() == pl.Visibility() {
			continue
		}
		// the layer exists, so this cannot fail
		_ = o.mini.SetLayoutProperty(id, style.PropertyVisibility, pl.Visibility())
	}
}

func (o *Overview) render() {
	if o.surface == nil || o.mini == nil {
		return
	}
	v := o.mini.View()
	view := OverviewView{
		ID:        o.opts.ID,
		Width:     o.opts.Width,
		Height:    o.opts.Height,
		StyleName: o.doc.Name,
		Lng:       v.Center.Lon(),
		Lat:       v.Center.Lat(),
		Zoom:      v.Zoom,
	}
	for _, id := range o.mini.LayersOrder() {
		if l, ok := o.mini.Layer(id); ok && l.Visible() {
			view.Layers = append(view.Layers, id)
		}
	}
	o.surface.Set(view)
}
