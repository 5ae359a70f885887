package view

import (
	"context"
	"html/template"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-mapview/internal/api"
	"github.com/joeblew999/plat-mapview/internal/humastar"
)

func (h *Handler) RegisterActions(a huma.API) {
	huma.Post(a, "/api/v1/view/basemap/{id}", h.SelectBasemap, huma.OperationTags("view"))
	huma.Post(a, "/api/v1/view/legend/groups/{id}", h.ToggleGroup, huma.OperationTags("view"))
	huma.Post(a, "/api/v1/view/legend/layers/{id}", h.ToggleLayer, huma.OperationTags("view"))
	huma.Post(a, "/api/v1/view/pointer", h.MovePointer, huma.OperationTags("view"))
}

type PresetInput struct {
	ID string `path:"id" doc:"Preset ID" example:"google-terrain"`
}

// SelectBasemap swaps the basemap and patches the controls. A real swap is
// confirmed with a success signal.
func (h *Handler) SelectBasemap(ctx context.Context, input *PresetInput) (*huma.StreamResponse, error) {
	changed, err := h.sess.SelectBasemap(input.ID)
	if err != nil {
		return nil, api.Error(err)
	}
	return h.Stream(func(sse humastar.SSE) {
		h.patchAll(sse)
		if changed {
			sse.Success("Basemap: " + input.ID)
		}
	}), nil
}

type ToggleInput struct {
	ID      string `path:"id" doc:"Group or layer ID"`
	RawBody []byte
}

func (i *ToggleInput) checked() (bool, error) {
	signals, err := humastar.ParseSignals(i.RawBody)
	if err != nil {
		return false, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	if !signals.Has("checked") {
		return false, huma.Error400BadRequest("checked signal is required")
	}
	return signals.Bool("checked"), nil
}

// ToggleGroup applies a group checkbox.
func (h *Handler) ToggleGroup(ctx context.Context, input *ToggleInput) (*huma.StreamResponse, error) {
	checked, err := input.checked()
	if err != nil {
		return nil, err
	}
	if err := h.sess.SetGroupVisible(input.ID, checked); err != nil {
		return nil, api.Error(err)
	}
	return h.Stream(h.patchAll), nil
}

// ToggleLayer applies a member checkbox.
func (h *Handler) ToggleLayer(ctx context.Context, input *ToggleInput) (*huma.StreamResponse, error) {
	checked, err := input.checked()
	if err != nil {
		return nil, err
	}
	if err := h.sess.SetLayerVisible(input.ID, checked); err != nil {
		return nil, api.Error(err)
	}
	return h.Stream(h.patchAll), nil
}

// MovePointer feeds the pointer position from the lng and lat signals. The
// readout text is patched into the pointer control and sent as a signal.
func (h *Handler) MovePointer(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	if !signals.Has("lng") || !signals.Has("lat") {
		return nil, huma.Error400BadRequest("lng and lat signals are required")
	}
	text := h.sess.MovePointer(orb.Point{signals.Float("lng"), signals.Float("lat")})
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(template.HTMLEscapeString(text), "#pointer")
		sse.Signals(map[string]any{"readout": text})
	}), nil
}
