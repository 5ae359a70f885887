package style

import (
	"encoding/json"

	"github.com/jamesrr39/goutil/errorsx"
)

// SpecVersion is the only style document version the engine accepts.
const SpecVersion = 8

// Parse decodes and validates a style document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errorsx.Wrap(err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the document is something the engine can hold.
func (d *Document) Validate() error {
	if d.Version != SpecVersion {
		return errorsx.Errorf("unsupported style version %d", d.Version)
	}
	for name, src := range d.Sources {
		if name == "" {
			return errorsx.Errorf("source with empty name")
		}
		if !src.Type.valid() {
			return errorsx.Errorf("source %q: unknown type %q", name, src.Type)
		}
	}
	seen := make(map[string]struct{}, len(d.Layers))
	for _, l := range d.Layers {
		if err := d.ValidateLayer(l); err != nil {
			return err
		}
		if _, dup := seen[l.ID]; dup {
			return errorsx.Errorf("duplicate layer id %q", l.ID)
		}
		seen[l.ID] = struct{}{}
	}
	return nil
}

// ValidateLayer checks a single layer against the document's sources.
func (d *Document) ValidateLayer(l Layer) error {
	if l.ID == "" {
		return errorsx.Errorf("layer with empty id")
	}
	if !l.Type.valid() {
		return errorsx.Errorf("layer %q: unknown type %q", l.ID, l.Type)
	}
	if !l.Type.needsSource() {
		return nil
	}
	if _, ok := d.Sources[l.Source]; !ok {
		return errorsx.Errorf("layer %q: source %q not declared", l.ID, l.Source)
	}
	return nil
}

// LayerIndex returns the position of a layer in draw order, or -1.
func (d *Document) LayerIndex(id string) int {
	for i, l := range d.Layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy; the copy shares no maps or slices with d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Version:    d.Version,
		Name:       d.Name,
		Glyphs:     d.Glyphs,
		Sprite:     d.Sprite,
		Projection: cloneMap(d.Projection),
		Sources:    make(map[string]Source, len(d.Sources)),
		Layers:     make([]Layer, len(d.Layers)),
	}
	for name, src := range d.Sources {
		out.Sources[name] = src.Clone()
	}
	for i, l := range d.Layers {
		out.Layers[i] = l.Clone()
	}
	return out
}

// Header returns a copy of the document's top-level fields with no sources
// and no layers.
func (d *Document) Header() *Document {
	return &Document{
		Version:    d.Version,
		Name:       d.Name,
		Glyphs:     d.Glyphs,
		Sprite:     d.Sprite,
		Projection: cloneMap(d.Projection),
	}
}

// Clone returns a deep copy of the source.
func (s Source) Clone() Source {
	s.Tiles = append([]string(nil), s.Tiles...)
	s.Bounds = append([]float64(nil), s.Bounds...)
	return s
}

// Clone returns a deep copy of the layer.
func (l Layer) Clone() Layer {
	l.Layout = cloneMap(l.Layout)
	l.Paint = cloneMap(l.Paint)
	if l.Filter != nil {
		l.Filter = cloneSlice(l.Filter)
	}
	if l.Metadata != nil {
		md := *l.Metadata
		l.Metadata = &md
	}
	return l
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		return cloneSlice(t)
	default:
		return v
	}
}
