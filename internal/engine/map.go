package engine

import (
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-mapview/internal/dom"
	"github.com/joeblew999/plat-mapview/internal/style"
)

// maxDispatch bounds one Flush so a listener that keeps mutating the style
// cannot spin forever.
const maxDispatch = 1024

type listener struct {
	id uint64
	fn Listener
}

type docked struct {
	control Control
	surface *dom.Surface
}

// Map is an in-process engine. It is not safe for concurrent use: the owner
// serializes calls, which gives every listener the single-threaded model
// controls are written for.
type Map struct {
	style    *style.Document
	view     View
	pointer  orb.Point
	pointed  bool
	nextID   uint64
	subs     map[EventKind][]listener
	queue    []Event
	flushing bool

	controls        map[Position][]docked
	discardControls bool
}

// Option configures a Map.
type Option func(*Map)

// WithView sets the initial camera.
func WithView(v View) Option {
	return func(m *Map) { m.view = v }
}

// WithControlsDiscardedOnSetStyle makes SetStyle detach every docked
// control, like engines that rebuild their container on style change.
func WithControlsDiscardedOnSetStyle() Option {
	return func(m *Map) { m.discardControls = true }
}

// NewMap creates a map showing a copy of doc. A style-data notification is
// queued for the initial load.
func NewMap(doc *style.Document, opts ...Option) (*Map, error) {
	if doc == nil {
		return nil, errorsx.Errorf("nil style document")
	}
	if err := doc.Validate(); err != nil {
		return nil, errorsx.Wrap(err)
	}
	m := &Map{
		style:    doc.Clone(),
		subs:     make(map[EventKind][]listener),
		controls: make(map[Position][]docked),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.emit(Event{Kind: EventStyleData})
	return m, nil
}

// LayersOrder returns layer ids in draw order.
func (m *Map) LayersOrder() []string {
	ids := make([]string, len(m.style.Layers))
	for i, l := range m.style.Layers {
		ids[i] = l.ID
	}
	return ids
}

// Layer returns a copy of the named layer.
func (m *Map) Layer(id string) (style.Layer, bool) {
	i := m.style.LayerIndex(id)
	if i < 0 {
		return style.Layer{}, false
	}
	return m.style.Layers[i].Clone(), true
}

// SetLayoutProperty writes a layout property. The write is visible at once;
// the style-data notification it causes is queued.
func (m *Map) SetLayoutProperty(layerID, name string, value any) error {
	i := m.style.LayerIndex(layerID)
	if i < 0 {
		return errorsx.Wrap(ErrLayerNotFound, "layer", layerID)
	}
	if v, ok := value.(style.Visibility); ok {
		value = string(v)
	}
	l := &m.style.Layers[i]
	if l.Layout == nil {
		l.Layout = make(map[string]any)
	}
	l.Layout[name] = value
	m.emit(Event{Kind: EventStyleData})
	return nil
}

// Style returns a copy of the live document.
func (m *Map) Style() *style.Document {
	return m.style.Clone()
}

// SetStyle replaces the whole document.
func (m *Map) SetStyle(doc *style.Document) error {
	if doc == nil {
		return errorsx.Errorf("nil style document")
	}
	if err := doc.Validate(); err != nil {
		return errorsx.Wrap(err)
	}
	m.style = doc.Clone()
	if m.discardControls {
		for _, pos := range Positions {
			entries := m.controls[pos]
			delete(m.controls, pos)
			for _, d := range entries {
				d.control.Detach()
			}
		}
	}
	m.emit(Event{Kind: EventStyleData})
	return nil
}

// AddSource declares a new source in the live style.
func (m *Map) AddSource(name string, src style.Source) error {
	if _, ok := m.style.Sources[name]; ok {
		return errorsx.Wrap(ErrSourceExists, "source", name)
	}
	if m.style.Sources == nil {
		m.style.Sources = make(map[string]style.Source)
	}
	m.style.Sources[name] = src.Clone()
	if err := m.style.Validate(); err != nil {
		delete(m.style.Sources, name)
		return err
	}
	m.emit(Event{Kind: EventStyleData})
	return nil
}

// RemoveSource drops a source no layer refers to.
func (m *Map) RemoveSource(name string) error {
	if _, ok := m.style.Sources[name]; !ok {
		return errorsx.Wrap(ErrSourceNotFound, "source", name)
	}
	for _, l := range m.style.Layers {
		if l.Source == name {
			return errorsx.Wrap(ErrSourceInUse, "source", name, "layer", l.ID)
		}
	}
	delete(m.style.Sources, name)
	m.emit(Event{Kind: EventStyleData})
	return nil
}

// HasSource reports whether the live style declares name.
func (m *Map) HasSource(name string) bool {
	_, ok := m.style.Sources[name]
	return ok
}

// AddLayer inserts a layer before beforeID, or on top when beforeID is "".
func (m *Map) AddLayer(l style.Layer, beforeID string) error {
	if m.style.LayerIndex(l.ID) >= 0 {
		return errorsx.Wrap(ErrLayerExists, "layer", l.ID)
	}
	if err := m.style.ValidateLayer(l); err != nil {
		return err
	}
	at := len(m.style.Layers)
	if beforeID != "" {
		at = m.style.LayerIndex(beforeID)
		if at < 0 {
			return errorsx.Wrap(ErrLayerNotFound, "before", beforeID)
		}
	}
	m.style.Layers = append(m.style.Layers, style.Layer{})
	copy(m.style.Layers[at+1:], m.style.Layers[at:])
	m.style.Layers[at] = l.Clone()
	m.emit(Event{Kind: EventStyleData})
	return nil
}

// RemoveLayer drops a layer from the live style.
func (m *Map) RemoveLayer(id string) error {
	i := m.style.LayerIndex(id)
	if i < 0 {
		return errorsx.Wrap(ErrLayerNotFound, "layer", id)
	}
	m.style.Layers = append(m.style.Layers[:i], m.style.Layers[i+1:]...)
	m.emit(Event{Kind: EventStyleData})
	return nil
}

// View returns the camera.
func (m *Map) View() View {
	return m.view
}

// JumpTo moves the camera, bracketed by interaction notifications.
func (m *Map) JumpTo(v View) {
	m.emit(Event{Kind: EventInteractionStart})
	m.view = v
	m.emit(Event{Kind: EventInteractionEnd})
}

// MovePointer records a pointer position and queues a pointer-move
// notification.
func (m *Map) MovePointer(p orb.Point) {
	m.pointer = p
	m.pointed = true
	m.emit(Event{Kind: EventPointerMove, LngLat: p})
}

// Pointer is the last pointer position. ok is false until the first move.
func (m *Map) Pointer() (p orb.Point, ok bool) {
	return m.pointer, m.pointed
}

// On subscribes fn to kind.
func (m *Map) On(kind EventKind, fn Listener) Disposer {
	m.nextID++
	id := m.nextID
	m.subs[kind] = append(m.subs[kind], listener{id: id, fn: fn})
	return func() {
		ls := m.subs[kind]
		for i, l := range ls {
			if l.id == id {
				m.subs[kind] = append(ls[:i:i], ls[i+1:]...)
				return
			}
		}
	}
}

// Listeners counts subscriptions to kind.
func (m *Map) Listeners(kind EventKind) int {
	return len(m.subs[kind])
}

// Pending counts queued notifications.
func (m *Map) Pending() int {
	return len(m.queue)
}

// Flush dispatches queued notifications in order until the queue is empty,
// including any queued by the listeners themselves. It returns the number
// dispatched. A Flush from inside a listener is a no-op; the outer Flush
// drains the queue.
func (m *Map) Flush() int {
	if m.flushing {
		return 0
	}
	m.flushing = true
	defer func() { m.flushing = false }()

	n := 0
	for len(m.queue) > 0 && n < maxDispatch {
		ev := m.queue[0]
		m.queue = m.queue[1:]
		m.dispatch(ev)
		n++
	}
	return n
}

func (m *Map) emit(ev Event) {
	ev.Target = m
	if ev.Kind == EventStyleData {
		// batched: one pending style-data notification covers every change
		for _, q := range m.queue {
			if q.Kind == EventStyleData {
				return
			}
		}
	}
	m.queue = append(m.queue, ev)
}

func (m *Map) dispatch(ev Event) {
	// snapshot so listeners may subscribe or dispose while we iterate
	ls := append([]listener(nil), m.subs[ev.Kind]...)
	for _, l := range ls {
		if !m.subscribed(ev.Kind, l.id) {
			continue
		}
		l.fn(ev)
	}
}

func (m *Map) subscribed(kind EventKind, id uint64) bool {
	for _, l := range m.subs[kind] {
		if l.id == id {
			return true
		}
	}
	return false
}

// AddControl docks c at pos, or at its default position when pos is "".
func (m *Map) AddControl(c Control, pos Position) error {
	if pos == "" {
		pos = c.DefaultPosition()
	}
	return m.AddControlAt(c, pos, len(m.controls[pos]))
}

// AddControlAt docks c at index within pos. The index is clamped.
func (m *Map) AddControlAt(c Control, pos Position, index int) error {
	if pos == "" {
		pos = c.DefaultPosition()
	}
	if !pos.Valid() {
		return errorsx.Errorf("unknown control position %q", pos)
	}
	if m.HasControl(c) {
		return errorsx.Wrap(ErrAlreadyAttached)
	}
	surface, err := c.Attach(m)
	if err != nil {
		// a control attached elsewhere keeps its live attachment
		if errorsx.Cause(err) != ErrAlreadyAttached {
			c.Detach()
		}
		return errorsx.Wrap(err)
	}
	entries := m.controls[pos]
	if index < 0 {
		index = 0
	}
	if index > len(entries) {
		index = len(entries)
	}
	entries = append(entries, docked{})
	copy(entries[index+1:], entries[index:])
	entries[index] = docked{control: c, surface: surface}
	m.controls[pos] = entries
	return nil
}

// RemoveControl undocks and detaches c. Unknown controls are ignored.
func (m *Map) RemoveControl(c Control) {
	pos, i, ok := m.ControlSlot(c)
	if !ok {
		return
	}
	entries := m.controls[pos]
	m.controls[pos] = append(entries[:i:i], entries[i+1:]...)
	c.Detach()
}

// HasControl reports whether c is docked.
func (m *Map) HasControl(c Control) bool {
	_, _, ok := m.ControlSlot(c)
	return ok
}

// ControlSlot returns where c is docked.
func (m *Map) ControlSlot(c Control) (Position, int, bool) {
	for _, pos := range Positions {
		for i, d := range m.controls[pos] {
			if d.control == c {
				return pos, i, true
			}
		}
	}
	return "", 0, false
}

// Controls returns the controls docked at pos in order.
func (m *Map) Controls(pos Position) []Control {
	entries := m.controls[pos]
	out := make([]Control, len(entries))
	for i, d := range entries {
		out[i] = d.control
	}
	return out
}

// Surfaces returns the surfaces docked at pos in order.
func (m *Map) Surfaces(pos Position) []*dom.Surface {
	entries := m.controls[pos]
	out := make([]*dom.Surface, len(entries))
	for i, d := range entries {
		out[i] = d.surface
	}
	return out
}
