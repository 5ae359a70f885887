package basemap

import (
	"testing"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-mapview/internal/style"
)

func twoSourceDoc() *style.Document {
	return &style.Document{
		Version: style.SpecVersion,
		Name:    "two",
		Sources: map[string]style.Source{
			"a": {Type: style.SourceRaster, Tiles: []string{"https://a.example.com/{z}/{x}/{y}.png"}},
			"b": {Type: style.SourceRaster, Tiles: []string{"https://b.example.com/{z}/{x}/{y}.png"}},
		},
		Layers: []style.Layer{
			{ID: "A", Type: style.LayerRaster, Source: "a", Metadata: &style.Metadata{Group: "basemap", Title: "Layer A"}},
		},
	}
}

func TestPreset_Label(t *testing.T) {
	assert.Equal(t, "google terrain", Preset{ID: "google-terrain"}.Label())
	assert.Equal(t, "Terrain", Preset{ID: "google-terrain", Title: "Terrain"}.Label())
}

func TestCatalog_Resolve_source(t *testing.T) {
	catalog, err := NewDefaultCatalog(nil)
	require.NoError(t, err)

	doc, err := catalog.Resolve("google-terrain")
	require.NoError(t, err)

	assert.Equal(t, "google terrain", doc.Name)
	require.Len(t, doc.Sources, 1)
	assert.Contains(t, doc.Sources, "google-terrain")
	require.Len(t, doc.Layers, 1)
	assert.Equal(t, "Google Terrain", doc.Layers[0].ID)
	assert.Equal(t, "Google Terrain", doc.Layers[0].Title())
	assert.True(t, doc.Layers[0].Visible())
	assert.Equal(t, "globe", doc.Projection["type"], "header is carried over")
}

func TestCatalog_Resolve_composite(t *testing.T) {
	catalog, err := NewDefaultCatalog(nil)
	require.NoError(t, err)

	first, err := catalog.Resolve("esri-hybrid")
	require.NoError(t, err)
	assert.Equal(t, "ESRI Hybrid", first.Name)
	assert.Equal(t, []string{"ESRI Satellite", "Google Label"}, []string{first.Layers[0].ID, first.Layers[1].ID})

	first.Layers[0].ID = "changed"
	delete(first.Sources, "google-label")

	second, err := catalog.Resolve("esri-hybrid")
	require.NoError(t, err)
	assert.Equal(t, "ESRI Satellite", second.Layers[0].ID)
	assert.Contains(t, second.Sources, "google-label")
}

func TestCatalog_Resolve_unknown(t *testing.T) {
	catalog, err := NewDefaultCatalog(nil)
	require.NoError(t, err)

	_, err = catalog.Resolve("bing")
	assert.Equal(t, ErrUnknownPreset, errorsx.Cause(err))
}

func TestCatalog_Presets(t *testing.T) {
	catalog, err := NewDefaultCatalog(nil)
	require.NoError(t, err)

	var ids []string
	for _, p := range catalog.Presets() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"esri-hybrid", "esri-satellite", "google-hybrid", "google-satellite", "google-roads", "google-terrain"}, ids)
	assert.Equal(t, "esri-hybrid", catalog.First().ID)

	_, ok := catalog.Lookup("google-roads")
	assert.True(t, ok)
	_, ok = catalog.Lookup("nope")
	assert.False(t, ok)
}

func TestNewCatalog_invalid(t *testing.T) {
	composites := map[string]*style.Document{"hybrid": twoSourceDoc()}

	tests := []struct {
		name    string
		presets []Preset
		base    *style.Document
	}{
		{
			name: "no presets",
			base: twoSourceDoc(),
		}, {
			name:    "empty id",
			presets: []Preset{{ID: ""}},
			base:    twoSourceDoc(),
		}, {
			name:    "duplicate id",
			presets: []Preset{{ID: "a"}, {ID: "a"}},
			base:    twoSourceDoc(),
		}, {
			name:    "missing composite",
			presets: []Preset{{ID: "x", Style: "nope"}},
			base:    twoSourceDoc(),
		}, {
			name:    "missing source",
			presets: []Preset{{ID: "c"}},
			base:    twoSourceDoc(),
		}, {
			name:    "no base style",
			presets: []Preset{{ID: "a"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.presets, tt.base, composites)
			assert.Error(t, err)
		})
	}

	_, err := NewCatalog([]Preset{{ID: "a"}, {ID: "other", Source: "b"}, {ID: "h", Style: "hybrid"}}, twoSourceDoc(), composites)
	assert.NoError(t, err)
}

func TestBuildSourceStyle(t *testing.T) {
	base, _, err := LoadAssets()
	require.NoError(t, err)

	doc, err := BuildSourceStyle(base, "google-roads", false)
	require.NoError(t, err)
	require.Len(t, doc.Layers, 1)
	assert.True(t, doc.Layers[0].Visible())

	i := base.LayerIndex("Google Roads")
	require.GreaterOrEqual(t, i, 0)
	assert.False(t, base.Layers[i].Visible(), "base is not modified")
	assert.Len(t, base.Sources, 5)

	_, err = BuildSourceStyle(base, "nope", false)
	assert.Error(t, err)
}

func TestBuildSourceStyle_retarget(t *testing.T) {
	base := twoSourceDoc()

	doc, err := BuildSourceStyle(base, "b", false)
	require.NoError(t, err)
	require.Len(t, doc.Layers, 1)
	l := doc.Layers[0]
	assert.Equal(t, "b", l.ID)
	assert.Equal(t, "b", l.Source)
	assert.Equal(t, "b", l.Title(), "the template's title is dropped")
	assert.Equal(t, "basemap", l.Group())
	assert.Equal(t, "a", base.Layers[0].Source)

	doc, err = BuildSourceStyle(base, "a", true)
	require.NoError(t, err)
	assert.Equal(t, "a", doc.Layers[0].ID)
	assert.Equal(t, "Layer A", doc.Layers[0].Title())
}
