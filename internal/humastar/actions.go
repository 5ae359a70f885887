package humastar

import (
	"fmt"
	"net/url"
)

// Action is a state-dependent hypermedia action link. Response bodies
// implement Actor to emit conditional RFC 8288 Link headers with method and
// title extension parameters:
//
//	</api/v1/layers/roads/visibility>; rel="hide"; method="PUT"; title="Hide layer"
type Action struct {
	Rel    string // IANA rel or custom (e.g., "hide", "delete")
	Href   string // target URL
	Method string // HTTP method: POST, PUT, DELETE, etc.
	Title  string // optional human-readable label
}

// Actor is implemented by response bodies that provide state-dependent actions.
type Actor interface {
	Actions() []Action
}

// LinkHeader formats the action as an RFC 8288 Link header value.
func (a Action) LinkHeader() string {
	h := fmt.Sprintf(`<%s>; rel="%s"`, a.Href, a.Rel)
	if a.Method != "" {
		h += fmt.Sprintf(`; method="%s"`, a.Method)
	}
	if a.Title != "" {
		h += fmt.Sprintf(`; title="%s"`, a.Title)
	}
	return h
}

// ActionDef is a reusable action template. Pattern uses a single %s verb
// for the resource id.
type ActionDef struct {
	Rel     string
	Pattern string // e.g. "/api/v1/layers/%s"
	Method  string
	Title   string
}

// ActionsFor generates concrete actions from defs for one resource id. The
// id is path-escaped.
func ActionsFor(id string, defs ...ActionDef) []Action {
	escaped := url.PathEscape(id)
	actions := make([]Action, len(defs))
	for i, d := range defs {
		actions[i] = Action{
			Rel:    d.Rel,
			Href:   fmt.Sprintf(d.Pattern, escaped),
			Method: d.Method,
			Title:  d.Title,
		}
	}
	return actions
}
