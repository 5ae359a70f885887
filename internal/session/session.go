// Package session owns one live map and its controls. Every input from the
// outside world goes through a Session, which holds a single lock while the
// engine applies the change and drains its notification queue.
package session

import (
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-mapview/internal/basemap"
	"github.com/joeblew999/plat-mapview/internal/config"
	"github.com/joeblew999/plat-mapview/internal/control"
	"github.com/joeblew999/plat-mapview/internal/dom"
	"github.com/joeblew999/plat-mapview/internal/engine"
	"github.com/joeblew999/plat-mapview/internal/geoutil"
	"github.com/joeblew999/plat-mapview/internal/style"
)

var ErrInvalidView = errors.New("invalid view")

// Option configures a Session.
type Option func(*options)

type options struct {
	logger  *logpkg.Logger
	bus     *EventBus
	engine  []engine.Option
	catalog *basemap.Catalog
}

// WithLogger sets the session logger.
func WithLogger(l *logpkg.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBus publishes session changes on b instead of a private bus.
func WithBus(b *EventBus) Option {
	return func(o *options) { o.bus = b }
}

// WithEngineOptions passes options to the underlying map.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *options) { o.engine = append(o.engine, opts...) }
}

// WithCatalog uses c instead of the embedded preset catalog.
func WithCatalog(c *basemap.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// Session is one user's map.
type Session struct {
	id      string
	mu      sync.Mutex
	cfg     *config.Config
	logger  *logpkg.Logger
	bus     *EventBus
	engine  *engine.Map
	manager *basemap.Manager
	legend  *control.Legend
	pointer *control.PointerReadout

	// layers drawn over every basemap, in draw order
	overlaySources map[string]style.Source
	overlayLayers  []style.Layer
}

// New builds the map for cfg, docks the controls and applies the overlays.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logpkg.NewLogger(io.Discard, logpkg.LogLevelError)
	}
	if o.bus == nil {
		o.bus = NewEventBus()
	}
	catalog := o.catalog
	if catalog == nil {
		var err error
		catalog, err = basemap.NewDefaultCatalog(cfg.Presets)
		if err != nil {
			return nil, err
		}
	}

	doc, err := catalog.Resolve(catalog.First().ID)
	if err != nil {
		return nil, err
	}
	view := engine.View{Center: orb.Point(cfg.View.Center), Zoom: cfg.View.Zoom}
	m, err := engine.NewMap(doc, append([]engine.Option{engine.WithView(view)}, o.engine...)...)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	s := &Session{
		id:             id.String(),
		cfg:            cfg,
		logger:         o.logger,
		bus:            o.bus,
		engine:         m,
		overlaySources: make(map[string]style.Source),
	}
	for _, ov := range cfg.Overlays {
		for name, src := range ov.Sources {
			s.overlaySources[name] = src.Clone()
		}
		for _, l := range ov.Layers {
			s.overlayLayers = append(s.overlayLayers, l.Clone())
		}
	}
	if err := s.applyOverlays(); err != nil {
		return nil, err
	}
	if cfg.View.FitOverlays {
		s.fitOverlays()
	}

	s.legend = control.NewLegend(control.LegendOptions{
		Title:  cfg.Legend.Title,
		Groups: cfg.Legend.Groups,
	})
	if err := s.dock(s.legend, cfg.Legend.Position); err != nil {
		return nil, err
	}
	s.pointer = control.NewPointerReadout(control.WithPrecision(cfg.Pointer.Precision))
	if err := s.dock(s.pointer, cfg.Pointer.Position); err != nil {
		return nil, err
	}

	s.manager = basemap.NewManager(m, catalog, cfg.Overview, s.logger)
	s.manager.Keep(s.legend)
	s.manager.Keep(s.pointer)
	s.manager.AfterSwap(func(engine.Engine, basemap.Preset) error {
		return s.applyOverlays()
	})
	s.manager.Subscribe(func(p basemap.Preset) {
		s.bus.Publish(Event{Resource: ResourceBasemap, Action: ActionSelected, ID: p.ID})
	})
	if err := s.manager.Start(); err != nil {
		return nil, s.fail("start", err)
	}

	s.engine.Flush()
	s.logger.Info("session %s: started on %q with %d overlay layers", s.id, catalog.First().ID, len(s.overlayLayers))
	return s, nil
}

func (s *Session) dock(c engine.Control, pos engine.Position) error {
	if err := s.engine.AddControl(c, pos); err != nil {
		return s.fail("dock", err)
	}
	return nil
}

// fail logs err and returns it. A double attach is a programming error and
// is logged at error level.
func (s *Session) fail(op string, err error) error {
	if errorsx.Cause(err) == engine.ErrAlreadyAttached {
		s.logger.Error("session: %s: %s", op, err)
	} else {
		s.logger.Debug("session: %s: %s", op, err)
	}
	return err
}

// applyOverlays adds every overlay source and layer the live style lacks.
// Layers whose source is gone are skipped.
func (s *Session) applyOverlays() error {
	for name, src := range s.overlaySources {
		if s.engine.HasSource(name) {
			continue
		}
		if err := s.engine.AddSource(name, src); err != nil {
			return err
		}
	}
	for _, l := range s.overlayLayers {
		if _, ok := s.engine.Layer(l.ID); ok {
			continue
		}
		if l.Type != style.LayerBackground && !s.engine.HasSource(l.Source) {
			s.logger.Warn("session: overlay %q skipped, source %q not in style", l.ID, l.Source)
			continue
		}
		if err := s.engine.AddLayer(l, ""); err != nil {
			return err
		}
	}
	return nil
}

// rememberOverlays copies the live visibility of overlay layers so a swap
// brings them back as the user left them.
func (s *Session) rememberOverlays() {
	for i, l := range s.overlayLayers {
		live, ok := s.engine.Layer(l.ID)
		if !ok {
			continue
		}
		if s.overlayLayers[i].Layout == nil {
			s.overlayLayers[i].Layout = make(map[string]any)
		}
		s.overlayLayers[i].Layout[style.PropertyVisibility] = string(live.Visibility())
	}
}

func (s *Session) fitOverlays() {
	for _, l := range s.overlayLayers {
		src, ok := s.overlaySources[l.Source]
		if !ok {
			continue
		}
		b, ok := src.Bound()
		if !ok {
			continue
		}
		center, zoom := geoutil.FitBound(b, s.cfg.View.Width, s.cfg.View.Height, s.cfg.View.Padding)
		s.engine.JumpTo(engine.View{Center: center, Zoom: zoom})
		return
	}
}

// ID identifies the session in logs and API responses.
func (s *Session) ID() string {
	return s.id
}

// Bus is where the session publishes its changes.
func (s *Session) Bus() *EventBus {
	return s.bus
}

// Presets returns the presets in order and the selected id.
func (s *Session) Presets() ([]basemap.Preset, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.Presets(), s.manager.Selected().ID
}

// SelectBasemap swaps to preset id. Selecting the active preset reports
// changed=false and does nothing.
func (s *Session) SelectBasemap(id string) (changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rememberOverlays()
	changed, err = s.manager.Select(id)
	s.engine.Flush()
	if err != nil {
		return changed, s.fail("select basemap", err)
	}
	return changed, nil
}

// Replacements counts style swaps since the session started.
func (s *Session) Replacements() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manager.Replacements()
}

// Style returns a copy of the live style document.
func (s *Session) Style() *style.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Style()
}

// Layers returns the live layers in draw order.
func (s *Session) Layers() []style.Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []style.Layer
	for _, id := range s.engine.LayersOrder() {
		if l, ok := s.engine.Layer(id); ok {
			out = append(out, l)
		}
	}
	return out
}

// Layer returns one live layer.
func (s *Session) Layer(id string) (style.Layer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Layer(id)
}

// AddOverlay adds sources and a layer to the live style. They are kept as
// overlays, so they survive basemap swaps. Sources already in the style are
// left alone.
func (s *Session) AddOverlay(sources map[string]style.Source, l style.Layer, beforeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []string
	for name, src := range sources {
		if s.engine.HasSource(name) {
			continue
		}
		if err := s.engine.AddSource(name, src); err != nil {
			s.dropSources(added)
			return s.fail("add source", err)
		}
		added = append(added, name)
	}
	if err := s.engine.AddLayer(l, beforeID); err != nil {
		s.dropSources(added)
		return s.fail("add layer", err)
	}
	for _, name := range added {
		s.overlaySources[name] = sources[name].Clone()
	}
	s.overlayLayers = append(s.overlayLayers, l.Clone())
	s.engine.Flush()
	s.bus.Publish(Event{Resource: ResourceLayers, Action: ActionCreated, ID: l.ID})
	return nil
}

// dropSources removes sources added by a failed AddOverlay.
func (s *Session) dropSources(names []string) {
	for _, name := range names {
		if err := s.engine.RemoveSource(name); err != nil {
			s.logger.Warn("session: rolling back source %q: %s", name, err)
		}
	}
	s.engine.Flush()
}

// RemoveLayer drops a layer from the live style and from the overlays.
func (s *Session) RemoveLayer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.engine.RemoveLayer(id); err != nil {
		return s.fail("remove layer", err)
	}
	for i, l := range s.overlayLayers {
		if l.ID == id {
			s.overlayLayers = append(s.overlayLayers[:i], s.overlayLayers[i+1:]...)
			break
		}
	}
	s.engine.Flush()
	s.bus.Publish(Event{Resource: ResourceLayers, Action: ActionDeleted, ID: id})
	return nil
}

// SetLayerVisible toggles one layer from its legend row.
func (s *Session) SetLayerVisible(id string, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.legend.SetLayerVisible(id, visible); err != nil {
		return s.fail("set layer visible", err)
	}
	s.engine.Flush()
	s.bus.Publish(Event{Resource: ResourceLegend, Action: ActionUpdated, ID: id})
	return nil
}

// SetGroupVisible toggles a whole legend group.
func (s *Session) SetGroupVisible(id string, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.legend.SetGroupVisible(id, visible); err != nil {
		return s.fail("set group visible", err)
	}
	s.engine.Flush()
	s.bus.Publish(Event{Resource: ResourceLegend, Action: ActionUpdated, ID: id})
	return nil
}

// Groups returns the legend groups, including ones without live members.
func (s *Session) Groups() []control.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.legend.Groups()
}

// MovePointer feeds a pointer position and returns the readout text.
func (s *Session) MovePointer(p orb.Point) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.MovePointer(p)
	s.engine.Flush()
	s.bus.Publish(Event{Resource: ResourcePointer, Action: ActionMoved})
	return control.FormatLatLng(p, s.cfg.Pointer.Precision)
}

// JumpTo moves the camera. The overview follows.
func (s *Session) JumpTo(v engine.View) (engine.View, error) {
	if v.Zoom < 0 || v.Zoom > geoutil.MaxZoom || v.Center.Lat() < -90 || v.Center.Lat() > 90 {
		return engine.View{}, errorsx.Wrap(ErrInvalidView, "zoom", v.Zoom, "lat", v.Center.Lat())
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.JumpTo(v)
	s.engine.Flush()
	s.bus.Publish(Event{Resource: ResourceView, Action: ActionMoved})
	return s.engine.View(), nil
}

// View returns the camera.
func (s *Session) View() engine.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.View()
}

// Frame is a consistent read of everything the viewer draws.
type Frame struct {
	Selected string
	Presets  []basemap.Preset
	Docks    map[engine.Position][]*dom.Surface
}

// Frame copies the docked surfaces and preset state under the lock.
func (s *Session) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := Frame{
		Selected: s.manager.Selected().ID,
		Presets:  s.manager.Presets(),
		Docks:    make(map[engine.Position][]*dom.Surface, len(engine.Positions)),
	}
	for _, pos := range engine.Positions {
		for _, sf := range s.engine.Surfaces(pos) {
			f.Docks[pos] = append(f.Docks[pos], sf.Copy())
		}
	}
	return f
}

// Overview returns the docked overview's style name and view.
func (s *Session) Overview() (name string, v engine.View, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ov := s.manager.Overview()
	if ov == nil || ov.Mini() == nil {
		return "", engine.View{}, false
	}
	return ov.StyleName(), ov.Mini().View(), true
}

// OverviewCount counts docked overview controls, for checking that swaps
// leave exactly one behind.
func (s *Session) OverviewCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, pos := range engine.Positions {
		for _, c := range s.engine.Controls(pos) {
			if _, ok := c.(*control.Overview); ok {
				n++
			}
		}
	}
	return n
}
