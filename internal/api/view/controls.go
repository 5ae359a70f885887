// Package view contains Datastar SSE handlers for the map viewer: they patch
// the rendered control surfaces into the page and feed user input back into
// the session.
package view

import (
	"context"
	"html/template"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-mapview/internal/engine"
	"github.com/joeblew999/plat-mapview/internal/humastar"
	"github.com/joeblew999/plat-mapview/internal/session"
	"github.com/joeblew999/plat-mapview/internal/templates"
)

// Handler serves the viewer's control surfaces.
type Handler struct {
	humastar.Handler
	sess *session.Session
}

// NewHandler creates the viewer handler.
func NewHandler(sess *session.Session, renderer *templates.Renderer) *Handler {
	return &Handler{
		Handler: humastar.Handler{Renderer: renderer},
		sess:    sess,
	}
}

func (h *Handler) RegisterControls(api huma.API) {
	huma.Get(api, "/api/v1/view/controls", h.Controls, huma.OperationTags("view"))
}

// Controls patches every dock corner and the preset bar once.
func (h *Handler) Controls(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		h.patchAll(sse)
	}), nil
}

// Rendered is one frame of the viewer as HTML.
type Rendered struct {
	Presets template.HTML
	Docks   map[engine.Position]template.HTML
}

// Render renders the session's current frame.
func (h *Handler) Render() (Rendered, error) {
	f := h.sess.Frame()
	out := Rendered{Docks: make(map[engine.Position]template.HTML, len(engine.Positions))}

	bar := templates.PresetBar{Selected: f.Selected}
	for _, p := range f.Presets {
		bar.Presets = append(bar.Presets, templates.PresetButton{ID: p.ID, Label: p.Label()})
	}
	presets, err := h.Renderer.RenderPresets(bar)
	if err != nil {
		return Rendered{}, err
	}
	out.Presets = presets

	for _, pos := range engine.Positions {
		dock, err := h.Renderer.RenderDock(pos, f.Docks[pos])
		if err != nil {
			return Rendered{}, err
		}
		out.Docks[pos] = dock
	}
	return out, nil
}

func (h *Handler) patchAll(sse humastar.SSE) {
	r, err := h.Render()
	if err != nil {
		sse.Error(err.Error())
		return
	}
	sse.Replace(string(r.Presets), "#basemap-presets")
	for _, pos := range engine.Positions {
		sse.Replace(string(r.Docks[pos]), "#dock-"+string(pos))
	}
}
