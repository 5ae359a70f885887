package control

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-mapview/internal/engine"
	"github.com/joeblew999/plat-mapview/internal/style"
)

func overviewView(t *testing.T, o *Overview) OverviewView {
	t.Helper()
	v, ok := o.Surface().Data().(OverviewView)
	require.True(t, ok)
	return v
}

func TestOverview_defaults(t *testing.T) {
	o := NewOverview(testDoc(), OverviewOptions{})
	assert.Equal(t, engine.BottomLeft, o.DefaultPosition())
	assert.Equal(t, "test", o.StyleName())
	assert.Nil(t, o.Mini())
}

func TestOverview_Attach(t *testing.T) {
	m := newTestMap(t, engine.WithView(engine.View{Center: orb.Point{110, -7}, Zoom: 9}))

	o := NewOverview(testDoc(), OverviewOptions{Width: "150px"})
	require.NoError(t, m.AddControl(o, ""))
	require.NotNil(t, o.Mini())

	assert.Equal(t, 4.0, o.Mini().View().Zoom)
	v := overviewView(t, o)
	assert.Equal(t, "minimap", v.ID)
	assert.Equal(t, "150px", v.Width)
	assert.Equal(t, "200px", v.Height)
	assert.Equal(t, 110.0, v.Lng)
	assert.Equal(t, []string{"sat", "roads", "low", "high"}, v.Layers)
}

func TestOverview_followsView(t *testing.T) {
	m := newTestMap(t)
	o := NewOverview(testDoc(), OverviewOptions{ZoomOffset: Offset(-3)})
	require.NoError(t, m.AddControl(o, ""))

	m.JumpTo(engine.View{Center: orb.Point{10, 20}, Zoom: 12})
	m.Flush()
	assert.Equal(t, engine.View{Center: orb.Point{10, 20}, Zoom: 9}, o.Mini().View())
	assert.Equal(t, 9.0, overviewView(t, o).Zoom)

	m.JumpTo(engine.View{Center: orb.Point{10, 20}, Zoom: 1})
	m.Flush()
	assert.Equal(t, 0.0, o.Mini().View().Zoom, "zoom never goes below 0")
}

func TestOverview_zeroZoomOffset(t *testing.T) {
	m := newTestMap(t, engine.WithView(engine.View{Center: orb.Point{110, -7}, Zoom: 9}))
	o := NewOverview(testDoc(), OverviewOptions{ZoomOffset: Offset(0)})
	require.NoError(t, m.AddControl(o, ""))

	assert.Equal(t, 9.0, o.Mini().View().Zoom, "an explicit zero offset follows the parent zoom")
}

func TestOverview_mirrorsVisibility(t *testing.T) {
	m := newTestMap(t)
	o := NewOverview(testDoc(), OverviewOptions{})
	require.NoError(t, m.AddControl(o, ""))

	require.NoError(t, m.SetLayoutProperty("low", style.PropertyVisibility, style.None))
	m.Flush()

	low, _ := o.Mini().Layer("low")
	assert.False(t, low.Visible())
	assert.Equal(t, []string{"sat", "roads", "high"}, overviewView(t, o).Layers)
}

func TestOverview_Detach(t *testing.T) {
	m := newTestMap(t)
	baseStyle := m.Listeners(engine.EventStyleData)
	baseMove := m.Listeners(engine.EventInteractionEnd)

	o := NewOverview(testDoc(), OverviewOptions{})
	require.NoError(t, m.AddControl(o, engine.TopLeft))
	surface := o.Surface()

	m.RemoveControl(o)
	assert.Equal(t, baseStyle, m.Listeners(engine.EventStyleData))
	assert.Equal(t, baseMove, m.Listeners(engine.EventInteractionEnd))
	assert.True(t, surface.Removed())
	assert.Nil(t, o.Mini())
}
