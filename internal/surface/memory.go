package surface

import (
	"slices"
	"sync"
	"unicode/utf16"
)

// Event types used by sessions.
const (
	EventKeyDown   = "keydown"
	EventMouseDown = "mousedown"
)

// KeyEvent is an in-memory KeyboardEvent.
type KeyEvent struct {
	KeyValue  string
	CodeValue string
	Legacy    int
	Shift     bool
	Ctrl      bool
	Alt       bool
	Meta      bool

	prevented bool
}

func (e *KeyEvent) Key() string { return e.KeyValue }
func (e *KeyEvent) Code() string { return e.CodeValue }
func (e *KeyEvent) KeyCode() int { return e.Legacy }
func (e *KeyEvent) ShiftKey() bool { return e.Shift }
func (e *KeyEvent) CtrlKey() bool { return e.Ctrl }
func (e *KeyEvent) AltKey() bool { return e.Alt }
func (e *KeyEvent) MetaKey() bool { return e.Meta }
func (e *KeyEvent) PreventDefault() { e.prevented = true }
func (e *KeyEvent) Prevented() bool { return e.prevented }

// PointerEvent is an in-memory mousedown.
type PointerEvent struct{}

func (PointerEvent) PreventDefault() {}

// CustomEvent records a notification dispatched on an Input.
type CustomEvent struct {
	Type   string
	Detail string
}

func (CustomEvent) PreventDefault() {}

type listener struct {
	id  uint64
	typ string
	fn  func(Event)
}

// Input is an in-memory TextInput. It behaves like a DOM text control:
// setting the value moves the caret to the end.
type Input struct {
	mu        sync.Mutex
	value     []uint16
	start     int
	end       int
	unfocused bool
	readOnly  bool
	disabled  bool

	nextID    uint64
	listeners []listener
	events    []CustomEvent
}

// NewInput returns a focused input holding value with the caret at its end.
func NewInput(value string) *Input {
	in := &Input{}
	in.SetValue(value)
	return in
}

// Value implements TextSurface.
func (in *Input) Value() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return string(utf16.Decode(in.value))
}

// SetValue implements TextSurface.
func (in *Input) SetValue(v string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.value = utf16.Encode([]rune(v))
	in.start, in.end = len(in.value), len(in.value)
}

// SelectionRange implements TextSurface.
func (in *Input) SelectionRange() (int, int, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.unfocused {
		return 0, 0, false
	}
	return in.start, in.end, true
}

// SetSelectionRange implements TextSurface. Offsets are clamped to the
// value and a reversed range collapses to its end, as in the DOM.
func (in *Input) SetSelectionRange(start, end int) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.unfocused {
		return ErrNoSelection
	}
	n := len(in.value)
	end = min(max(end, 0), n)
	start = min(max(start, 0), end)
	in.start, in.end = start, end
	return nil
}

// SetFocused controls whether selection access succeeds.
func (in *Input) SetFocused(focused bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.unfocused = !focused
}

// SetReadOnly marks the input read-only.
func (in *Input) SetReadOnly(v bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.readOnly = v
}

// SetDisabled marks the input disabled.
func (in *Input) SetDisabled(v bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.disabled = v
}

// ReadOnly implements Editability.
func (in *Input) ReadOnly() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.readOnly
}

// Disabled implements Editability.
func (in *Input) Disabled() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.disabled
}

// AddEventListener implements EventTarget.
func (in *Input) AddEventListener(typ string, fn func(Event)) ListenerHandle {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.nextID++
	in.listeners = append(in.listeners, listener{id: in.nextID, typ: typ, fn: fn})
	return &handle{in: in, id: in.nextID}
}

// DispatchCustomEvent implements EventTarget. The event is recorded and
// delivered to listeners of typ.
func (in *Input) DispatchCustomEvent(typ, detail string) {
	ev := CustomEvent{Type: typ, Detail: detail}
	in.mu.Lock()
	in.events = append(in.events, ev)
	in.mu.Unlock()
	in.dispatch(typ, ev)
}

// Events returns the custom events dispatched so far.
func (in *Input) Events() []CustomEvent {
	in.mu.Lock()
	defer in.mu.Unlock()
	return slices.Clone(in.events)
}

// ListenerCount returns the number of registered listeners.
func (in *Input) ListenerCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.listeners)
}

// KeyDown delivers ev to keydown listeners and reports whether the default
// action was prevented. Like a browser, the input then applies the default
// action for printable keys: ev.KeyValue replaces the selection.
func (in *Input) KeyDown(ev *KeyEvent) bool {
	in.dispatch(EventKeyDown, ev)
	if ev.prevented {
		return true
	}
	if len([]rune(ev.KeyValue)) == 1 && !ev.Ctrl && !ev.Meta && !in.ReadOnly() && !in.Disabled() {
		in.insert(ev.KeyValue)
	}
	return false
}

// MouseDown delivers a mousedown to its listeners.
func (in *Input) MouseDown() {
	in.dispatch(EventMouseDown, PointerEvent{})
}

func (in *Input) insert(text string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	ins := utf16.Encode([]rune(text))
	value := slices.Concat(in.value[:in.start], ins, in.value[in.end:])
	in.value = value
	in.start += len(ins)
	in.end = in.start
}

func (in *Input) dispatch(typ string, ev Event) {
	in.mu.Lock()
	var ids []uint64
	for _, l := range in.listeners {
		if l.typ == typ {
			ids = append(ids, l.id)
		}
	}
	in.mu.Unlock()

	// A listener released by an earlier one is skipped.
	for _, id := range ids {
		if fn := in.lookup(id); fn != nil {
			fn(ev)
		}
	}
}

func (in *Input) lookup(id uint64) func(Event) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, l := range in.listeners {
		if l.id == id {
			return l.fn
		}
	}
	return nil
}

func (in *Input) remove(id uint64) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.listeners = slices.DeleteFunc(in.listeners, func(l listener) bool {
		return l.id == id
	})
}

type handle struct {
	in   *Input
	id   uint64
	once sync.Once
}

func (h *handle) Release() {
	h.once.Do(func() { h.in.remove(h.id) })
}
