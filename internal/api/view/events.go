package view

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-mapview/internal/humastar"
)

func (h *Handler) RegisterEvents(api huma.API) {
	huma.Get(api, "/api/v1/view/events", h.Events, huma.OperationTags("view"))
}

// Events streams session changes to the page. Every change re-patches the
// controls and is echoed as a "map-changed" DOM event.
func (h *Handler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		bus := h.sess.Bus()
		ch := bus.Subscribe()
		defer bus.Unsubscribe(ch)

		h.patchAll(sse)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				h.patchAll(sse)
				sse.DispatchCustomEvent("map-changed", map[string]any{
					"resource": ev.Resource,
					"action":   ev.Action,
					"id":       ev.ID,
				})
			}
		}
	}), nil
}
