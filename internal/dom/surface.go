// Package dom holds the render surface a map control draws into.
//
// A Surface is the server-side stand-in for a control's container element:
// the control writes a view model into it and the templates package turns
// it into an HTML fragment for the browser.
package dom

// Surface is a control's container. It is owned by exactly one control.
type Surface struct {
	ID       string // element id in the page
	Class    string // CSS classes of the container
	Template string // fragment template that renders Data

	data    any
	version uint64
	removed bool
}

// NewSurface creates an empty surface rendered with the named template.
func NewSurface(id, class, tmpl string) *Surface {
	return &Surface{ID: id, Class: class, Template: tmpl}
}

// Set replaces the surface content.
func (s *Surface) Set(data any) {
	if s.removed {
		return
	}
	s.data = data
	s.version++
}

// Data returns the current content, nil once removed.
func (s *Surface) Data() any {
	return s.data
}

// Version increments on every Set. Useful to tell whether a redraw happened.
func (s *Surface) Version() uint64 {
	return s.version
}

// Remove detaches the surface from the page. Further writes are ignored.
func (s *Surface) Remove() {
	s.removed = true
	s.data = nil
}

// Removed reports whether Remove was called.
func (s *Surface) Removed() bool {
	return s.removed
}

// Copy returns a detached snapshot of the surface. Content is shared, so
// controls must replace their data with Set rather than mutate it.
func (s *Surface) Copy() *Surface {
	c := *s
	return &c
}
