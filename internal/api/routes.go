// Package api defines the Huma API routes and handlers.
package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-mapview/internal/basemap"
	"github.com/joeblew999/plat-mapview/internal/control"
	"github.com/joeblew999/plat-mapview/internal/engine"
	"github.com/joeblew999/plat-mapview/internal/humastar"
	"github.com/joeblew999/plat-mapview/internal/session"
	"github.com/joeblew999/plat-mapview/internal/style"
)

// Types

type IDInput struct {
	ID string `path:"id" doc:"Layer ID" example:"smca-getas-rendah"`
}

type GroupIDInput struct {
	ID string `path:"id" doc:"Legend group ID" example:"SMCA Getas"`
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

type PresetsBody struct {
	Selected string           `json:"selected" doc:"Active preset ID" example:"esri-hybrid"`
	Presets  []basemap.Preset `json:"presets" doc:"Selectable presets in order"`
}

type SelectBasemapBody struct {
	Preset string `json:"preset" minLength:"1" doc:"Preset to show" example:"google-terrain"`
}

type SelectedBasemapBody struct {
	Selected     string `json:"selected" doc:"Active preset ID"`
	Changed      bool   `json:"changed" doc:"False when the preset was already active"`
	Replacements int    `json:"replacements" doc:"Style swaps since start"`
}

// LayerBody is a live layer plus its effective visibility.
type LayerBody struct {
	style.Layer
	Visible bool   `json:"visible" doc:"Whether the layer is drawn"`
	Group   string `json:"group,omitempty" doc:"Legend group from metadata"`
}

var layerActions = []humastar.ActionDef{
	{Rel: "delete", Pattern: "/api/v1/layers/%s", Method: "DELETE", Title: "Remove layer"},
}

// Actions links the visibility toggle that changes the current state.
func (b LayerBody) Actions() []humastar.Action {
	toggle := humastar.ActionDef{Rel: "hide", Pattern: "/api/v1/layers/%s/visibility", Method: "PUT", Title: "Hide layer"}
	if !b.Visible {
		toggle.Rel, toggle.Title = "show", "Show layer"
	}
	return humastar.ActionsFor(b.ID, append([]humastar.ActionDef{toggle}, layerActions...)...)
}

func newLayerBody(l style.Layer) LayerBody {
	return LayerBody{Layer: l, Visible: l.Visible(), Group: l.Group()}
}

type LayerOutput struct {
	Body LayerBody
}

type LayersOutput struct {
	Body []LayerBody
}

type CreateLayerBody struct {
	Layer   style.Layer             `json:"layer" doc:"Layer to add"`
	Sources map[string]style.Source `json:"sources,omitempty" doc:"Sources the layer needs that the style lacks"`
	Before  string                  `json:"before,omitempty" doc:"Insert below this layer, default on top"`
}

type VisibilityBody struct {
	Visible bool `json:"visible" doc:"Desired visibility"`
}

type ViewBody struct {
	Lng  float64 `json:"lng" minimum:"-180" maximum:"180" doc:"Center longitude" example:"110.3644"`
	Lat  float64 `json:"lat" minimum:"-90" maximum:"90" doc:"Center latitude" example:"-7.8041"`
	Zoom float64 `json:"zoom" minimum:"0" maximum:"22" doc:"Zoom level" example:"9"`
}

type PointerBody struct {
	Lng float64 `json:"lng" doc:"Pointer longitude" example:"110.3644"`
	Lat float64 `json:"lat" doc:"Pointer latitude" example:"-7.8041"`
}

type ReadoutBody struct {
	Text string `json:"text" doc:"Readout as shown, latitude first" example:"-7.80410000, 110.36440000"`
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	sess    *session.Session
	version string
}

func NewAPIHandler(sess *session.Session, version string) *APIHandler {
	return &APIHandler{sess: sess, version: version}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterBasemap registers preset listing and selection.
func (h *APIHandler) RegisterBasemap(api huma.API) {
	huma.Get(api, "/api/v1/presets", h.GetPresets, huma.OperationTags("basemap"))
	huma.Put(api, "/api/v1/basemap", h.PutBasemap, huma.OperationTags("basemap"))
}

// RegisterStyle registers read-only style routes.
func (h *APIHandler) RegisterStyle(api huma.API) {
	huma.Get(api, "/api/v1/style", h.GetStyle, huma.OperationTags("style"))
	huma.Get(api, "/api/v1/sources", h.GetSources, huma.OperationTags("style"))
}

// RegisterLayers registers layer routes.
func (h *APIHandler) RegisterLayers(api huma.API) {
	huma.Get(api, "/api/v1/layers", h.GetLayers, huma.OperationTags("layers"))
	huma.Post(api, "/api/v1/layers", h.CreateLayer, huma.OperationTags("layers"))
	huma.Get(api, "/api/v1/layers/{id}", h.GetLayer, huma.OperationTags("layers"))
	huma.Delete(api, "/api/v1/layers/{id}", h.DeleteLayer, huma.OperationTags("layers"))
	huma.Put(api, "/api/v1/layers/{id}/visibility", h.PutLayerVisibility, huma.OperationTags("layers"))
}

// RegisterLegend registers legend group routes.
func (h *APIHandler) RegisterLegend(api huma.API) {
	huma.Get(api, "/api/v1/legend", h.GetLegend, huma.OperationTags("legend"))
	huma.Put(api, "/api/v1/legend/groups/{id}", h.PutGroupVisibility, huma.OperationTags("legend"))
}

// RegisterView registers camera and pointer routes.
func (h *APIHandler) RegisterView(api huma.API) {
	huma.Put(api, "/api/v1/view", h.PutView, huma.OperationTags("camera"))
	huma.Post(api, "/api/v1/pointer", h.PostPointer, huma.OperationTags("camera"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: h.version}}, nil
}

func (h *APIHandler) GetPresets(ctx context.Context, input *struct{}) (*struct{ Body PresetsBody }, error) {
	presets, selected := h.sess.Presets()
	return &struct{ Body PresetsBody }{Body: PresetsBody{Selected: selected, Presets: presets}}, nil
}

func (h *APIHandler) PutBasemap(ctx context.Context, input *struct{ Body SelectBasemapBody }) (*struct{ Body SelectedBasemapBody }, error) {
	changed, err := h.sess.SelectBasemap(input.Body.Preset)
	if err != nil {
		return nil, Error(err)
	}
	_, selected := h.sess.Presets()
	return &struct{ Body SelectedBasemapBody }{Body: SelectedBasemapBody{
		Selected:     selected,
		Changed:      changed,
		Replacements: h.sess.Replacements(),
	}}, nil
}

func (h *APIHandler) GetStyle(ctx context.Context, input *struct{}) (*struct{ Body *style.Document }, error) {
	return &struct{ Body *style.Document }{Body: h.sess.Style()}, nil
}

func (h *APIHandler) GetSources(ctx context.Context, input *struct{}) (*struct{ Body map[string]style.Source }, error) {
	return &struct{ Body map[string]style.Source }{Body: h.sess.Style().Sources}, nil
}

func (h *APIHandler) GetLayers(ctx context.Context, input *struct{}) (*LayersOutput, error) {
	layers := h.sess.Layers()
	out := make([]LayerBody, len(layers))
	for i, l := range layers {
		out[i] = newLayerBody(l)
	}
	return &LayersOutput{Body: out}, nil
}

func (h *APIHandler) GetLayer(ctx context.Context, input *IDInput) (*LayerOutput, error) {
	l, ok := h.sess.Layer(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("layer not found")
	}
	return &LayerOutput{Body: newLayerBody(l)}, nil
}

func (h *APIHandler) CreateLayer(ctx context.Context, input *struct{ Body CreateLayerBody }) (*LayerOutput, error) {
	b := input.Body
	if err := h.sess.AddOverlay(b.Sources, b.Layer, b.Before); err != nil {
		return nil, Error(err)
	}
	l, _ := h.sess.Layer(b.Layer.ID)
	return &LayerOutput{Body: newLayerBody(l)}, nil
}

func (h *APIHandler) DeleteLayer(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	if err := h.sess.RemoveLayer(input.ID); err != nil {
		return nil, Error(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Layer removed"}}, nil
}

func (h *APIHandler) PutLayerVisibility(ctx context.Context, input *struct {
	IDInput
	Body VisibilityBody
}) (*LayerOutput, error) {
	if err := h.sess.SetLayerVisible(input.ID, input.Body.Visible); err != nil {
		return nil, Error(err)
	}
	l, _ := h.sess.Layer(input.ID)
	return &LayerOutput{Body: newLayerBody(l)}, nil
}

func (h *APIHandler) GetLegend(ctx context.Context, input *struct{}) (*struct{ Body []control.Group }, error) {
	return &struct{ Body []control.Group }{Body: h.sess.Groups()}, nil
}

func (h *APIHandler) PutGroupVisibility(ctx context.Context, input *struct {
	GroupIDInput
	Body VisibilityBody
}) (*struct{ Body control.Group }, error) {
	if err := h.sess.SetGroupVisible(input.ID, input.Body.Visible); err != nil {
		return nil, Error(err)
	}
	for _, g := range h.sess.Groups() {
		if g.ID == input.ID {
			return &struct{ Body control.Group }{Body: g}, nil
		}
	}
	return nil, huma.Error404NotFound("legend group not found")
}

func (h *APIHandler) PutView(ctx context.Context, input *struct{ Body ViewBody }) (*struct{ Body ViewBody }, error) {
	v, err := h.sess.JumpTo(engine.View{
		Center: orb.Point{input.Body.Lng, input.Body.Lat},
		Zoom:   input.Body.Zoom,
	})
	if err != nil {
		return nil, Error(err)
	}
	return &struct{ Body ViewBody }{Body: ViewBody{Lng: v.Center.Lon(), Lat: v.Center.Lat(), Zoom: v.Zoom}}, nil
}

func (h *APIHandler) PostPointer(ctx context.Context, input *struct{ Body PointerBody }) (*struct{ Body ReadoutBody }, error) {
	text := h.sess.MovePointer(orb.Point{input.Body.Lng, input.Body.Lat})
	return &struct{ Body ReadoutBody }{Body: ReadoutBody{Text: text}}, nil
}

// Error maps session errors onto HTTP status codes.
func Error(err error) error {
	switch errorsx.Cause(err) {
	case basemap.ErrUnknownPreset:
		return huma.Error404NotFound("unknown basemap preset", err)
	case engine.ErrLayerNotFound:
		return huma.Error404NotFound("layer not found", err)
	case control.ErrGroupNotFound:
		return huma.Error404NotFound("legend group not found", err)
	case engine.ErrLayerExists, engine.ErrSourceExists:
		return huma.Error409Conflict(err.Error())
	}
	return huma.Error400BadRequest(err.Error())
}
