// Package surface describes the editable text field a composition session
// writes into, and provides an in-memory implementation for headless hosts
// and tests.
//
// All offsets are UTF-16 code units, as in the DOM.
package surface

import (
	"errors"

	"kimeweb/internal/keycode"
)

// ErrNoSelection is returned when the surface cannot report or accept a
// selection, for example because it is not focused.
var ErrNoSelection = errors.New("surface: selection unavailable")

// TextSurface is an editable text field.
type TextSurface interface {
	Value() string
	SetValue(v string)
	// SelectionRange reports the selection, or ok=false when the surface
	// has none.
	SelectionRange() (start, end int, ok bool)
	// SetSelectionRange may fail without affecting the content.
	SetSelectionRange(start, end int) error
}

// Event is a dispatched host event.
type Event interface {
	PreventDefault()
}

// KeyboardEvent is a key-down event.
type KeyboardEvent interface {
	Event
	keycode.KeyboardEvent
}

// ListenerHandle is a registered listener. Release stops delivery and is
// idempotent.
type ListenerHandle interface {
	Release()
}

// EventTarget registers listeners and receives notifications.
type EventTarget interface {
	AddEventListener(typ string, fn func(Event)) ListenerHandle
	DispatchCustomEvent(typ, detail string)
}

// TextInput is a text surface that is also an event target, such as an
// <input> or <textarea> element.
type TextInput interface {
	TextSurface
	EventTarget
}

// Editability is implemented by inputs that can refuse edits.
type Editability interface {
	ReadOnly() bool
	Disabled() bool
}

// Editable reports whether edits to in are allowed. Inputs that do not
// implement Editability are always editable.
func Editable(in TextInput) bool {
	if e, ok := in.(Editability); ok {
		return !e.ReadOnly() && !e.Disabled()
	}
	return true
}
