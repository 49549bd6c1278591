//go:build js && wasm

// Package web adapts DOM text controls to the surface interfaces.
package web

import (
	"errors"
	"sync"
	"syscall/js"

	"kimeweb/internal/surface"
)

var (
	_ surface.TextInput   = (*Element)(nil)
	_ surface.Editability = (*Element)(nil)
)

// Element is an <input> or <textarea> element.
type Element struct {
	v js.Value
}

// NewElement wraps v. It fails for values that are not text controls.
func NewElement(v js.Value) (*Element, error) {
	if v.Type() != js.TypeObject {
		return nil, errors.New("web: target is not an element")
	}
	if v.Get("setSelectionRange").Type() != js.TypeFunction {
		return nil, errors.New("web: target is not a text input")
	}
	return &Element{v: v}, nil
}

// Value implements surface.TextSurface.
func (e *Element) Value() string {
	return e.v.Get("value").String()
}

// SetValue implements surface.TextSurface.
func (e *Element) SetValue(s string) {
	e.v.Set("value", s)
}

// SelectionRange implements surface.TextSurface. Controls without a
// selection, such as type=email inputs, report null offsets.
func (e *Element) SelectionRange() (int, int, bool) {
	start, end := e.v.Get("selectionStart"), e.v.Get("selectionEnd")
	if start.Type() != js.TypeNumber || end.Type() != js.TypeNumber {
		return 0, 0, false
	}
	return start.Int(), end.Int(), true
}

// SetSelectionRange implements surface.TextSurface. The DOM throws for
// controls that do not support selection; the exception becomes an error.
func (e *Element) SetSelectionRange(start, end int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if jsErr, ok := r.(js.Error); ok {
				err = jsErr
				return
			}
			panic(r)
		}
	}()
	e.v.Call("setSelectionRange", start, end)
	return nil
}

// ReadOnly implements surface.Editability.
func (e *Element) ReadOnly() bool {
	return e.v.Get("readOnly").Truthy()
}

// Disabled implements surface.Editability.
func (e *Element) Disabled() bool {
	return e.v.Get("disabled").Truthy()
}

// AddEventListener implements surface.EventTarget.
func (e *Element) AddEventListener(typ string, fn func(surface.Event)) surface.ListenerHandle {
	cb := js.FuncOf(func(this js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		ev := args[0]
		if typ == surface.EventKeyDown {
			fn(keyboardEvent{event{ev}})
		} else {
			fn(event{ev})
		}
		return nil
	})
	e.v.Call("addEventListener", typ, cb)
	return &listener{target: e.v, typ: typ, cb: cb}
}

// DispatchCustomEvent implements surface.EventTarget.
func (e *Element) DispatchCustomEvent(typ, detail string) {
	init := js.Global().Get("Object").New()
	init.Set("detail", detail)
	ev := js.Global().Get("CustomEvent").New(typ, init)
	e.v.Call("dispatchEvent", ev)
}

type listener struct {
	target js.Value
	typ    string
	cb     js.Func
	once   sync.Once
}

// Release removes the DOM listener and frees the Go callback.
func (l *listener) Release() {
	l.once.Do(func() {
		l.target.Call("removeEventListener", l.typ, l.cb)
		l.cb.Release()
	})
}

type event struct {
	v js.Value
}

func (e event) PreventDefault() {
	e.v.Call("preventDefault")
}

type keyboardEvent struct {
	event
}

func (e keyboardEvent) Key() string { return e.v.Get("key").String() }
func (e keyboardEvent) Code() string { return e.v.Get("code").String() }
func (e keyboardEvent) KeyCode() int { return e.v.Get("keyCode").Int() }
func (e keyboardEvent) ShiftKey() bool { return e.v.Get("shiftKey").Bool() }
func (e keyboardEvent) CtrlKey() bool { return e.v.Get("ctrlKey").Bool() }
func (e keyboardEvent) AltKey() bool { return e.v.Get("altKey").Bool() }
func (e keyboardEvent) MetaKey() bool { return e.v.Get("metaKey").Bool() }
