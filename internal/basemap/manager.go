package basemap

import (
	"io"
	"sort"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"

	"github.com/joeblew999/plat-mapview/internal/control"
	"github.com/joeblew999/plat-mapview/internal/engine"
)

// Rebuilder is a control that can redraw itself from the engine on demand.
type Rebuilder interface {
	Rebuild()
}

// SwapHook runs after a style swap, once the controls are back in place.
type SwapHook func(e engine.Engine, p Preset) error

// Manager owns the selected preset of one map and performs style swaps.
type Manager struct {
	engine       engine.Engine
	catalog      *Catalog
	logger       *logpkg.Logger
	selected     string
	overview     *control.Overview
	overviewOpts control.OverviewOptions
	kept         []engine.Control
	hooks        []SwapHook
	nextSub      uint64
	subs         map[uint64]func(Preset)
	replacements int
}

// NewManager creates a manager for a map already showing the catalog's
// first preset.
func NewManager(e engine.Engine, catalog *Catalog, overviewOpts control.OverviewOptions, logger *logpkg.Logger) *Manager {
	if logger == nil {
		logger = logpkg.NewLogger(io.Discard, logpkg.LogLevelError)
	}
	return &Manager{
		engine:       e,
		catalog:      catalog,
		logger:       logger,
		selected:     catalog.First().ID,
		overviewOpts: overviewOpts,
		subs:         make(map[uint64]func(Preset)),
	}
}

// Keep registers a control that must survive style swaps. Controls that
// implement Rebuilder are redrawn once the new style has loaded.
func (m *Manager) Keep(c engine.Control) {
	m.kept = append(m.kept, c)
}

// AfterSwap registers a hook run after every style swap.
func (m *Manager) AfterSwap(h SwapHook) {
	m.hooks = append(m.hooks, h)
}

// Start docks the overview for the current style.
func (m *Manager) Start() error {
	if m.overview != nil {
		return nil
	}
	ov := control.NewOverview(m.engine.Style(), m.overviewOpts)
	if err := m.engine.AddControl(ov, ""); err != nil {
		return err
	}
	m.overview = ov
	return nil
}

// Selected is the active preset.
func (m *Manager) Selected() Preset {
	p, _ := m.catalog.Lookup(m.selected)
	return p
}

// Presets lists the selectable presets in order.
func (m *Manager) Presets() []Preset {
	return m.catalog.Presets()
}

// Overview is the currently docked overview control.
func (m *Manager) Overview() *control.Overview {
	return m.overview
}

// Replacements counts style swaps performed.
func (m *Manager) Replacements() int {
	return m.replacements
}

// Subscribe calls fn with the new preset after every swap.
func (m *Manager) Subscribe(fn func(Preset)) engine.Disposer {
	m.nextSub++
	id := m.nextSub
	m.subs[id] = fn
	return func() { delete(m.subs, id) }
}

type slot struct {
	control engine.Control
	pos     engine.Position
	index   int
}

// Select swaps the map to preset id. Selecting the active preset does
// nothing and reports changed=false.
func (m *Manager) Select(id string) (changed bool, err error) {
	if id == m.selected {
		return false, nil
	}
	p, ok := m.catalog.Lookup(id)
	if !ok {
		return false, errorsx.Wrap(ErrUnknownPreset, "preset", id)
	}
	doc, err := m.catalog.Resolve(id)
	if err != nil {
		return false, err
	}

	// remember where things were docked so they come back in the same order
	var kept []slot
	for _, c := range m.kept {
		if pos, i, ok := m.engine.ControlSlot(c); ok {
			kept = append(kept, slot{control: c, pos: pos, index: i})
		}
	}
	ovPos, ovIndex, ovDocked := engine.Position(""), 0, false
	if m.overview != nil {
		ovPos, ovIndex, ovDocked = m.engine.ControlSlot(m.overview)
	}

	if err := m.engine.SetStyle(doc); err != nil {
		return false, err
	}
	m.replacements++
	m.selected = p.ID
	m.logger.Info("basemap: swapped to %q (%d layers)", p.ID, len(doc.Layers))

	var readd []slot
	for _, s := range kept {
		if !m.engine.HasControl(s.control) {
			readd = append(readd, s)
		}
	}

	if m.overview != nil {
		m.engine.RemoveControl(m.overview)
	}
	ov := control.NewOverview(doc, m.overviewOpts)
	if ovDocked {
		readd = append(readd, slot{control: ov, pos: ovPos, index: ovIndex})
	} else {
		readd = append(readd, slot{control: ov, pos: ov.DefaultPosition(), index: -1})
	}
	m.overview = ov

	sort.SliceStable(readd, func(i, j int) bool { return readd[i].index < readd[j].index })
	for _, s := range readd {
		var err error
		if s.index < 0 {
			err = m.engine.AddControl(s.control, s.pos)
		} else {
			err = m.engine.AddControlAt(s.control, s.pos, s.index)
		}
		if err != nil {
			return true, err
		}
		if r, ok := s.control.(Rebuilder); ok {
			m.rebuildOnLoad(r)
		}
	}

	for _, h := range m.hooks {
		if err := h(m.engine, p); err != nil {
			return true, err
		}
	}
	for _, fn := range m.subs {
		fn(p)
	}
	return true, nil
}

// rebuildOnLoad forces one redraw on the next style-data notification.
func (m *Manager) rebuildOnLoad(r Rebuilder) {
	var off engine.Disposer
	off = m.engine.On(engine.EventStyleData, func(engine.Event) {
		off()
		r.Rebuild()
	})
}
