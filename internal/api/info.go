package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-mapview/internal/geoutil"
	"github.com/joeblew999/plat-mapview/internal/session"
)

type InfoHandler struct {
	sess    *session.Session
	version string
}

func NewInfoHandler(sess *session.Session, version string) *InfoHandler {
	return &InfoHandler{sess: sess, version: version}
}

func (h *InfoHandler) RegisterInfo(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
	huma.Get(api, "/api/v1/scale", h.GetScale, huma.OperationTags("camera"))
}

type InfoBody struct {
	Name         string   `json:"name" doc:"Service name"`
	Version      string   `json:"version" doc:"Service version"`
	Session      string   `json:"session" doc:"Map session ID"`
	Basemap      string   `json:"basemap" doc:"Active basemap preset"`
	Replacements int      `json:"replacements" doc:"Style swaps since start"`
	Overview     string   `json:"overview,omitempty" doc:"Style the overview map is bound to"`
	Features     []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	_, selected := h.sess.Presets()
	overview, _, _ := h.sess.Overview()
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:         "plat-mapview",
		Version:      h.version,
		Session:      h.sess.ID(),
		Basemap:      selected,
		Replacements: h.sess.Replacements(),
		Overview:     overview,
		Features:     []string{"legend", "pointer", "basemap", "overview"},
	}}, nil
}

type ScaleInput struct {
	Lat    float64 `query:"lat" minimum:"-85" maximum:"85" doc:"Latitude" example:"-7.8"`
	Zoom   float64 `query:"zoom" minimum:"0" maximum:"22" doc:"Zoom level" example:"9"`
	Meters float64 `query:"meters" minimum:"0" doc:"Distance to convert to pixels" example:"1000"`
}

type ScaleBody struct {
	MetersPerPixel float64 `json:"metersPerPixel" doc:"Ground distance of one pixel"`
	Pixels         float64 `json:"pixels,omitempty" doc:"Pixels covering the requested meters"`
}

func (h *InfoHandler) GetScale(ctx context.Context, input *ScaleInput) (*struct{ Body ScaleBody }, error) {
	body := ScaleBody{MetersPerPixel: geoutil.MetersPerPixel(input.Lat, input.Zoom)}
	if input.Meters > 0 {
		body.Pixels = geoutil.MeterToPixel(input.Lat, input.Meters, input.Zoom)
	}
	return &struct{ Body ScaleBody }{Body: body}, nil
}
