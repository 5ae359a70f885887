// Package control implements the map controls: the grouped layer legend,
// the pointer coordinate readout and the overview map. Each one docks onto
// an engine.Engine through the engine.Control contract.
package control

import "errors"

var (
	ErrNotAttached   = errors.New("control not attached")
	ErrGroupNotFound = errors.New("legend group not found")
)
