// Package engine defines the capability surface map controls are written
// against, and provides Map, an in-process engine that holds the live style
// document, the docked controls and a single-threaded notification queue.
package engine

import (
	"errors"

	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-mapview/internal/dom"
	"github.com/joeblew999/plat-mapview/internal/style"
)

var (
	// ErrAlreadyAttached is returned when a control is attached twice
	// without a detach in between.
	ErrAlreadyAttached = errors.New("control already attached")
	ErrLayerNotFound   = errors.New("layer not found")
	ErrLayerExists     = errors.New("layer already exists")
	ErrSourceNotFound  = errors.New("source not found")
	ErrSourceExists    = errors.New("source already exists")
	ErrSourceInUse     = errors.New("source used by a layer")
)

// Position is a dock corner for controls.
type Position string

const (
	TopLeft     Position = "top-left"
	TopRight    Position = "top-right"
	BottomLeft  Position = "bottom-left"
	BottomRight Position = "bottom-right"
)

// Positions lists every dock corner in page order.
var Positions = []Position{TopLeft, TopRight, BottomLeft, BottomRight}

// Valid reports whether p is a known corner.
func (p Position) Valid() bool {
	for _, known := range Positions {
		if p == known {
			return true
		}
	}
	return false
}

// EventKind names a notification stream.
type EventKind string

const (
	EventStyleData        EventKind = "styledata"
	EventPointerMove      EventKind = "mousemove"
	EventInteractionStart EventKind = "movestart"
	EventInteractionEnd   EventKind = "moveend"
)

// Event is one notification. LngLat is set for pointer moves.
type Event struct {
	Kind   EventKind
	Target Engine
	LngLat orb.Point
}

// Listener handles a notification. It runs to completion before the next
// notification is dispatched.
type Listener func(Event)

// Disposer releases a subscription. Calling it more than once is a no-op.
type Disposer func()

// View is the camera of a map.
type View struct {
	Center orb.Point `json:"center"`
	Zoom   float64   `json:"zoom"`
}

// Control is anything that docks onto a map and draws into a surface.
type Control interface {
	// Attach creates the surface, renders it from the current engine state
	// and subscribes to notifications.
	Attach(e Engine) (*dom.Surface, error)
	// Detach releases every subscription made in Attach and removes the
	// surface. It must tolerate a partially failed Attach.
	Detach()
	// DefaultPosition is where the control docks when no position is given.
	DefaultPosition() Position
}

// Engine is what controls and managers may do to a map.
type Engine interface {
	LayersOrder() []string
	Layer(id string) (style.Layer, bool)
	SetLayoutProperty(layerID, name string, value any) error

	Style() *style.Document
	SetStyle(doc *style.Document) error

	View() View
	Pointer() (orb.Point, bool)

	AddControl(c Control, pos Position) error
	AddControlAt(c Control, pos Position, index int) error
	RemoveControl(c Control)
	HasControl(c Control) bool
	ControlSlot(c Control) (Position, int, bool)

	On(kind EventKind, fn Listener) Disposer
}
