package engine

import (
	"errors"
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-mapview/internal/dom"
	"github.com/joeblew999/plat-mapview/internal/style"
)

func testDoc() *style.Document {
	return &style.Document{
		Version: style.SpecVersion,
		Name:    "test",
		Sources: map[string]style.Source{
			"sat":   {Type: style.SourceRaster, Tiles: []string{"https://example.com/{z}/{x}/{y}.png"}},
			"zones": {Type: style.SourceVector, Tiles: []string{"https://example.com/{z}/{x}/{y}.pbf"}},
		},
		Layers: []style.Layer{
			{ID: "sat", Type: style.LayerRaster, Source: "sat"},
			{ID: "low", Type: style.LayerFill, Source: "zones", Metadata: &style.Metadata{Group: "zones"}},
			{ID: "high", Type: style.LayerFill, Source: "zones", Metadata: &style.Metadata{Group: "zones"}},
		},
	}
}

func newTestMap(t *testing.T, opts ...Option) *Map {
	t.Helper()
	m, err := NewMap(testDoc(), opts...)
	require.NoError(t, err)
	m.Flush()
	return m
}

type stubControl struct {
	name     string
	pos      Position
	attaches int
	detaches int
	fail     error
	surface  *dom.Surface
}

func (c *stubControl) Attach(e Engine) (*dom.Surface, error) {
	c.attaches++
	if c.fail != nil {
		return nil, c.fail
	}
	c.surface = dom.NewSurface(c.name, "", "stub")
	return c.surface, nil
}

func (c *stubControl) Detach() {
	c.detaches++
	if c.surface != nil {
		c.surface.Remove()
		c.surface = nil
	}
}

func (c *stubControl) DefaultPosition() Position {
	if c.pos == "" {
		return TopRight
	}
	return c.pos
}

func TestNewMap_queuesInitialStyleData(t *testing.T) {
	m, err := NewMap(testDoc())
	require.NoError(t, err)

	var got []EventKind
	m.On(EventStyleData, func(ev Event) { got = append(got, ev.Kind) })
	assert.Equal(t, 1, m.Pending())
	assert.Equal(t, 1, m.Flush())
	assert.Equal(t, []EventKind{EventStyleData}, got)
}

func TestNewMap_invalid(t *testing.T) {
	_, err := NewMap(nil)
	assert.Error(t, err)

	doc := testDoc()
	doc.Version = 7
	_, err = NewMap(doc)
	assert.Error(t, err)
}

func TestMap_copiesDocuments(t *testing.T) {
	doc := testDoc()
	m, err := NewMap(doc)
	require.NoError(t, err)

	doc.Layers[0].ID = "renamed"
	assert.Equal(t, []string{"sat", "low", "high"}, m.LayersOrder())

	l, ok := m.Layer("low")
	require.True(t, ok)
	l.Metadata.Group = "changed"
	again, _ := m.Layer("low")
	assert.Equal(t, "zones", again.Group())

	out := m.Style()
	out.Layers = nil
	assert.Len(t, m.Style().Layers, 3)
}

func TestMap_SetLayoutProperty(t *testing.T) {
	m := newTestMap(t)

	calls := 0
	m.On(EventStyleData, func(Event) { calls++ })

	require.NoError(t, m.SetLayoutProperty("low", style.PropertyVisibility, style.None))
	require.NoError(t, m.SetLayoutProperty("high", style.PropertyVisibility, style.None))

	l, _ := m.Layer("low")
	assert.False(t, l.Visible(), "write is visible before the flush")
	assert.Equal(t, "none", l.Layout[style.PropertyVisibility], "visibility is stored as a plain string")
	assert.Equal(t, 0, calls)
	assert.Equal(t, 1, m.Pending(), "style-data notifications coalesce")

	m.Flush()
	assert.Equal(t, 1, calls)

	err := m.SetLayoutProperty("missing", style.PropertyVisibility, style.None)
	assert.Equal(t, ErrLayerNotFound, errorsx.Cause(err))
}

func TestMap_Flush_order(t *testing.T) {
	m := newTestMap(t)

	var got []EventKind
	record := func(ev Event) { got = append(got, ev.Kind) }
	for _, k := range []EventKind{EventStyleData, EventPointerMove, EventInteractionStart, EventInteractionEnd} {
		m.On(k, record)
	}

	m.JumpTo(View{Center: orb.Point{1, 2}, Zoom: 3})
	m.MovePointer(orb.Point{4, 5})
	require.NoError(t, m.SetLayoutProperty("sat", style.PropertyVisibility, style.None))
	require.NoError(t, m.SetLayoutProperty("low", style.PropertyVisibility, style.None))

	assert.Equal(t, 4, m.Flush())
	assert.Equal(t, []EventKind{EventInteractionStart, EventInteractionEnd, EventPointerMove, EventStyleData}, got)
	pt, ok := m.Pointer()
	assert.True(t, ok)
	assert.Equal(t, orb.Point{4, 5}, pt)
	assert.Equal(t, 3.0, m.View().Zoom)
}

func TestMap_Flush_listenerEmits(t *testing.T) {
	m := newTestMap(t)

	var got []EventKind
	m.On(EventInteractionEnd, func(Event) {
		got = append(got, EventInteractionEnd)
		// nested flush is a no-op, the outer loop picks this up
		_ = m.SetLayoutProperty("sat", style.PropertyVisibility, style.None)
		assert.Equal(t, 0, m.Flush())
	})
	m.On(EventStyleData, func(Event) { got = append(got, EventStyleData) })

	m.JumpTo(View{Zoom: 1})
	m.Flush()
	assert.Equal(t, []EventKind{EventInteractionEnd, EventStyleData}, got)
	assert.Equal(t, 0, m.Pending())
}

func TestMap_On_disposer(t *testing.T) {
	m := newTestMap(t)
	base := m.Listeners(EventPointerMove)

	calls := 0
	off := m.On(EventPointerMove, func(Event) { calls++ })
	assert.Equal(t, base+1, m.Listeners(EventPointerMove))

	m.MovePointer(orb.Point{1, 1})
	m.Flush()
	assert.Equal(t, 1, calls)

	off()
	off()
	assert.Equal(t, base, m.Listeners(EventPointerMove))

	m.MovePointer(orb.Point{2, 2})
	m.Flush()
	assert.Equal(t, 1, calls)
}

func TestMap_On_disposeDuringDispatch(t *testing.T) {
	m := newTestMap(t)

	var second Disposer
	secondCalls := 0
	m.On(EventPointerMove, func(Event) { second() })
	second = m.On(EventPointerMove, func(Event) { secondCalls++ })

	m.MovePointer(orb.Point{1, 1})
	m.Flush()
	assert.Equal(t, 0, secondCalls, "a listener disposed earlier in the same dispatch is skipped")
}

func TestMap_AddLayer_RemoveLayer(t *testing.T) {
	m := newTestMap(t)

	require.NoError(t, m.AddLayer(style.Layer{ID: "mid", Type: style.LayerLine, Source: "zones"}, "high"))
	assert.Equal(t, []string{"sat", "low", "mid", "high"}, m.LayersOrder())

	require.NoError(t, m.AddLayer(style.Layer{ID: "top", Type: style.LayerBackground}, ""))
	assert.Equal(t, "top", m.LayersOrder()[4])

	err := m.AddLayer(style.Layer{ID: "low", Type: style.LayerFill, Source: "zones"}, "")
	assert.Equal(t, ErrLayerExists, errorsx.Cause(err))

	err = m.AddLayer(style.Layer{ID: "x", Type: style.LayerFill, Source: "nope"}, "")
	assert.Error(t, err)

	err = m.AddLayer(style.Layer{ID: "y", Type: style.LayerFill, Source: "zones"}, "nope")
	assert.Equal(t, ErrLayerNotFound, errorsx.Cause(err))

	require.NoError(t, m.RemoveLayer("mid"))
	assert.Equal(t, []string{"sat", "low", "high", "top"}, m.LayersOrder())

	err = m.RemoveLayer("mid")
	assert.Equal(t, ErrLayerNotFound, errorsx.Cause(err))
}

func TestMap_AddSource(t *testing.T) {
	m := newTestMap(t)

	require.NoError(t, m.AddSource("dem", style.Source{Type: style.SourceRasterDEM}))
	assert.True(t, m.HasSource("dem"))

	err := m.AddSource("dem", style.Source{Type: style.SourceRasterDEM})
	assert.Equal(t, ErrSourceExists, errorsx.Cause(err))

	err = m.AddSource("bad", style.Source{Type: "video"})
	assert.Error(t, err)
	assert.False(t, m.HasSource("bad"))
}

func TestMap_RemoveSource(t *testing.T) {
	m := newTestMap(t)
	require.NoError(t, m.AddSource("dem", style.Source{Type: style.SourceRasterDEM}))
	m.Flush()

	require.NoError(t, m.RemoveSource("dem"))
	assert.False(t, m.HasSource("dem"))
	assert.Equal(t, 1, m.Pending())

	assert.Equal(t, ErrSourceNotFound, errorsx.Cause(m.RemoveSource("dem")))
	assert.Equal(t, ErrSourceInUse, errorsx.Cause(m.RemoveSource("sat")))
	assert.True(t, m.HasSource("sat"))
}

func TestMap_AddControl(t *testing.T) {
	m := newTestMap(t)

	a := &stubControl{name: "a"}
	b := &stubControl{name: "b"}
	c := &stubControl{name: "c"}
	require.NoError(t, m.AddControl(a, ""))
	require.NoError(t, m.AddControl(b, TopRight))
	require.NoError(t, m.AddControlAt(c, TopRight, 0))

	assert.Equal(t, []Control{c, a, b}, m.Controls(TopRight))
	pos, i, ok := m.ControlSlot(a)
	assert.True(t, ok)
	assert.Equal(t, TopRight, pos)
	assert.Equal(t, 1, i)

	err := m.AddControl(a, BottomLeft)
	assert.Equal(t, ErrAlreadyAttached, errorsx.Cause(err))
	assert.Equal(t, 1, a.attaches)

	m.RemoveControl(a)
	assert.False(t, m.HasControl(a))
	assert.Equal(t, 1, a.detaches)
	m.RemoveControl(a)
	assert.Equal(t, 1, a.detaches, "removing an unknown control is a no-op")

	assert.Error(t, m.AddControl(&stubControl{}, Position("middle")))
}

func TestMap_AddControlAt_clamps(t *testing.T) {
	m := newTestMap(t)

	a := &stubControl{name: "a"}
	b := &stubControl{name: "b"}
	require.NoError(t, m.AddControlAt(a, BottomLeft, 10))
	require.NoError(t, m.AddControlAt(b, BottomLeft, -3))
	assert.Equal(t, []Control{b, a}, m.Controls(BottomLeft))
}

func TestMap_AddControl_attachFails(t *testing.T) {
	m := newTestMap(t)

	boom := errors.New("boom")
	c := &stubControl{name: "c", fail: boom}
	err := m.AddControl(c, "")
	assert.Equal(t, boom, errorsx.Cause(err))
	assert.Equal(t, 1, c.detaches, "a failed attach is cleaned up with detach")
	assert.False(t, m.HasControl(c))
}

func TestMap_AddControl_alreadyAttachedElsewhere(t *testing.T) {
	m := newTestMap(t)

	c := &stubControl{name: "c", fail: errorsx.Wrap(ErrAlreadyAttached)}
	err := m.AddControl(c, "")
	assert.Equal(t, ErrAlreadyAttached, errorsx.Cause(err))
	assert.Equal(t, 0, c.detaches, "the existing attachment is left alone")
	assert.False(t, m.HasControl(c))
}

func TestMap_SetStyle_preservesControls(t *testing.T) {
	m := newTestMap(t)
	c := &stubControl{name: "c"}
	require.NoError(t, m.AddControl(c, ""))

	doc := testDoc()
	doc.Layers = doc.Layers[:1]
	require.NoError(t, m.SetStyle(doc))

	assert.True(t, m.HasControl(c))
	assert.Equal(t, 0, c.detaches)
	assert.Equal(t, []string{"sat"}, m.LayersOrder())
	assert.Equal(t, 1, m.Pending())
}

func TestMap_SetStyle_discardsControls(t *testing.T) {
	m := newTestMap(t, WithControlsDiscardedOnSetStyle())
	c := &stubControl{name: "c"}
	require.NoError(t, m.AddControl(c, ""))

	require.NoError(t, m.SetStyle(testDoc()))
	assert.False(t, m.HasControl(c))
	assert.Equal(t, 1, c.detaches)

	require.NoError(t, m.AddControl(c, ""), "a discarded control can be attached again")
}

func TestMap_SetStyle_invalid(t *testing.T) {
	m := newTestMap(t)
	assert.Error(t, m.SetStyle(nil))

	doc := testDoc()
	doc.Layers = append(doc.Layers, doc.Layers[0])
	assert.Error(t, m.SetStyle(doc))
	assert.Len(t, m.LayersOrder(), 3)
}

func TestMap_Surfaces(t *testing.T) {
	m := newTestMap(t)
	c := &stubControl{name: "c", pos: BottomRight}
	require.NoError(t, m.AddControl(c, ""))

	surfaces := m.Surfaces(BottomRight)
	require.Len(t, surfaces, 1)
	assert.Equal(t, "c", surfaces[0].ID)
	assert.Empty(t, m.Surfaces(TopLeft))
}

func TestPosition_Valid(t *testing.T) {
	for _, p := range Positions {
		assert.True(t, p.Valid(), p)
	}
	assert.False(t, Position("center").Valid())
	assert.False(t, Position("").Valid())
}
