package control

import (
	"strconv"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-mapview/internal/dom"
	"github.com/joeblew999/plat-mapview/internal/engine"
)

// DefaultPrecision is the number of decimals the readout prints.
const DefaultPrecision = 8

// PointerReadout shows the coordinate under the pointer.
type PointerReadout struct {
	precision int
	class     string
	surface   *dom.Surface
	off       engine.Disposer
}

// PointerOption configures a PointerReadout.
type PointerOption func(*PointerReadout)

// WithPrecision sets the number of decimals. Negative values are ignored.
func WithPrecision(n int) PointerOption {
	return func(p *PointerReadout) {
		if n >= 0 {
			p.precision = n
		}
	}
}

// WithPointerClass overrides the container classes.
func WithPointerClass(class string) PointerOption {
	return func(p *PointerReadout) { p.class = class }
}

// NewPointerReadout creates a detached readout.
func NewPointerReadout(opts ...PointerOption) *PointerReadout {
	p := &PointerReadout{
		precision: DefaultPrecision,
		class:     "maplibregl-ctrl maplibregl-ctrl-mouse-position",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DefaultPosition implements engine.Control.
func (p *PointerReadout) DefaultPosition() engine.Position {
	return engine.BottomRight
}

// Attach implements engine.Control.
func (p *PointerReadout) Attach(e engine.Engine) (*dom.Surface, error) {
	if p.surface != nil {
		return nil, errorsx.Wrap(engine.ErrAlreadyAttached, "control", "pointer")
	}
	p.surface = dom.NewSurface("pointer", p.class, "pointer")
	if pt, ok := e.Pointer(); ok {
		p.surface.Set(FormatLatLng(pt, p.precision))
	} else {
		p.surface.Set("")
	}
	p.off = e.On(engine.EventPointerMove, p.update)
	return p.surface, nil
}

// Detach implements engine.Control.
func (p *PointerReadout) Detach() {
	if p.off != nil {
		p.off()
		p.off = nil
	}
	if p.surface != nil {
		p.surface.Remove()
		p.surface = nil
	}
}

// Surface is the readout's render surface, nil while detached.
func (p *PointerReadout) Surface() *dom.Surface {
	return p.surface
}

func (p *PointerReadout) update(ev engine.Event) {
	if p.surface == nil {
		return
	}
	p.surface.Set(FormatLatLng(ev.LngLat, p.precision))
}

// FormatLatLng prints a point as "lat, lng" with a fixed number of decimals.
func FormatLatLng(pt orb.Point, precision int) string {
	return strconv.FormatFloat(pt.Lat(), 'f', precision, 64) + ", " +
		strconv.FormatFloat(pt.Lon(), 'f', precision, 64)
}
