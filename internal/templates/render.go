// Package templates renders control surfaces and the viewer page to HTML for
// Datastar SSE responses.
package templates

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"

	"github.com/joeblew999/plat-mapview/internal/dom"
	"github.com/joeblew999/plat-mapview/internal/engine"
)

//go:embed fragments/*.html pages/*.html
var embedded embed.FS

// funcMap provides common template functions.
var funcMap = template.FuncMap{
	// dict creates a map from key-value pairs, useful for passing multiple values to nested templates
	"dict": func(values ...any) map[string]any {
		if len(values)%2 != 0 {
			return nil
		}
		m := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			m[key] = values[i+1]
		}
		return m
	},
}

// Renderer manages HTML fragment templates.
type Renderer struct {
	templates *template.Template
	mu        sync.RWMutex
}

// New creates a renderer over the embedded fragments and pages.
func New() (*Renderer, error) {
	tmpl, err := parse(embedded)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

// Must is New for callers that cannot continue without templates.
func Must() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

func parse(fsys fs.FS) (*template.Template, error) {
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(fsys, "fragments/*.html", "pages/*.html")
	if err != nil {
		return nil, errorsx.Wrap(err)
	}
	return tmpl, nil
}

// Reload re-parses templates from a directory laid out like the embedded
// one (fragments/ and pages/). Used for hot-reload during development.
func (r *Renderer) Reload(fsys fs.FS) error {
	tmpl, err := parse(fsys)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	return nil
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", errorsx.Wrap(err, "template", name)
	}
	return buf.String(), nil
}

// RenderSurface renders a control surface with the template it names.
// A removed surface renders as an empty string.
func (r *Renderer) RenderSurface(s *dom.Surface) (template.HTML, error) {
	if s == nil || s.Removed() {
		return "", nil
	}
	out, err := r.Render(s.Template, s)
	if err != nil {
		return "", err
	}
	return template.HTML(out), nil
}

// Dock is one corner of the map with its rendered controls, top to bottom.
type Dock struct {
	Position  engine.Position
	Fragments []template.HTML
}

// RenderDock renders the surfaces docked at one corner.
func (r *Renderer) RenderDock(pos engine.Position, surfaces []*dom.Surface) (template.HTML, error) {
	d := Dock{Position: pos}
	for _, s := range surfaces {
		html, err := r.RenderSurface(s)
		if err != nil {
			return "", err
		}
		if html != "" {
			d.Fragments = append(d.Fragments, html)
		}
	}
	out, err := r.Render("dock", d)
	if err != nil {
		return "", err
	}
	return template.HTML(out), nil
}

// PresetBar is the data behind the basemap buttons.
type PresetBar struct {
	Selected string
	Presets  []PresetButton
}

// PresetButton is one basemap button.
type PresetButton struct {
	ID    string
	Label string
}

// RenderPresets renders the basemap buttons.
func (r *Renderer) RenderPresets(bar PresetBar) (template.HTML, error) {
	out, err := r.Render("presets", bar)
	if err != nil {
		return "", err
	}
	return template.HTML(out), nil
}

// ViewerPage is the data behind the full viewer page.
type ViewerPage struct {
	Title   string
	Presets template.HTML
	Docks   []template.HTML
}

// RenderViewer renders the full viewer page.
func (r *Renderer) RenderViewer(page ViewerPage) (string, error) {
	return r.Render("viewer", page)
}
