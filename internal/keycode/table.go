package keycode

import (
	"sort"
)

// keyCodeProcess is the legacy KeyboardEvent.keyCode reported while the
// host platform's own IME is composing.
const keyCodeProcess = 229

type tableEntry struct {
	id   string
	code Code
}

// physicalTable maps KeyboardEvent.code identifiers to codes. It must stay
// sorted by id; Lookup relies on it and the tests check it.
var physicalTable = [...]tableEntry{
	{"AltLeft", AltL},
	{"AltRight", AltR},
	{"ArrowDown", Down},
	{"ArrowLeft", Left},
	{"ArrowRight", Right},
	{"ArrowUp", Up},
	{"Backquote", Grave},
	{"Backslash", Backslash},
	{"Backspace", Backspace},
	{"BracketLeft", OpenBracket},
	{"BracketRight", CloseBracket},
	{"Comma", Comma},
	{"ControlLeft", ControlL},
	{"ControlRight", ControlR},
	{"Convert", Henkan},
	{"Delete", Delete},
	{"Digit0", Zero},
	{"Digit1", One},
	{"Digit2", Two},
	{"Digit3", Three},
	{"Digit4", Four},
	{"Digit5", Five},
	{"Digit6", Six},
	{"Digit7", Seven},
	{"Digit8", Eight},
	{"Digit9", Nine},
	{"End", End},
	{"Enter", Enter},
	{"Equal", Equal},
	{"Escape", Esc},
	{"F1", F1},
	{"F10", F10},
	{"F11", F11},
	{"F12", F12},
	{"F2", F2},
	{"F3", F3},
	{"F4", F4},
	{"F5", F5},
	{"F6", F6},
	{"F7", F7},
	{"F8", F8},
	{"F9", F9},
	{"Home", Home},
	{"Insert", Insert},
	{"KeyA", A},
	{"KeyB", B},
	{"KeyC", C},
	{"KeyD", D},
	{"KeyE", E},
	{"KeyF", F},
	{"KeyG", G},
	{"KeyH", H},
	{"KeyI", I},
	{"KeyJ", J},
	{"KeyK", K},
	{"KeyL", L},
	{"KeyM", M},
	{"KeyN", N},
	{"KeyO", O},
	{"KeyP", P},
	{"KeyQ", Q},
	{"KeyR", R},
	{"KeyS", S},
	{"KeyT", T},
	{"KeyU", U},
	{"KeyV", V},
	{"KeyW", W},
	{"KeyX", X},
	{"KeyY", Y},
	{"KeyZ", Z},
	{"Lang1", Hangul},
	{"Lang2", HangulHanja},
	{"Minus", Minus},
	{"NonConvert", Muhenkan},
	{"Numpad0", NumZero},
	{"Numpad1", NumOne},
	{"Numpad2", NumTwo},
	{"Numpad3", NumThree},
	{"Numpad4", NumFour},
	{"Numpad5", NumFive},
	{"Numpad6", NumSix},
	{"Numpad7", NumSeven},
	{"Numpad8", NumEight},
	{"Numpad9", NumNine},
	{"PageDown", PageDown},
	{"PageUp", PageUp},
	{"Period", Period},
	{"Quote", Quote},
	{"Semicolon", SemiColon},
	{"ShiftLeft", Shift},
	{"ShiftRight", Shift},
	{"Slash", Slash},
	{"Space", Space},
	{"Tab", Tab},
}

// Lookup resolves a physical key identifier. Unknown identifiers, including
// the empty string, report false.
func Lookup(id string) (Code, bool) {
	i := sort.Search(len(physicalTable), func(i int) bool {
		return physicalTable[i].id >= id
	})
	if i < len(physicalTable) && physicalTable[i].id == id {
		return physicalTable[i].code, true
	}
	return None, false
}

// PhysicalIDs returns every identifier known to Lookup, in table order.
func PhysicalIDs() []string {
	ids := make([]string, len(physicalTable))
	for i, e := range physicalTable {
		ids[i] = e.id
	}
	return ids
}

// KeyboardEvent is the subset of a DOM KeyboardEvent the table reads.
type KeyboardEvent interface {
	// Key is the logical key value ("a", "Enter", "Process").
	Key() string
	// Code is the physical key identifier ("KeyA").
	Code() string
	// KeyCode is the deprecated numeric code; 229 while a host IME composes.
	KeyCode() int
	ShiftKey() bool
	CtrlKey() bool
	AltKey() bool
	MetaKey() bool
}

// IsHostComposition reports whether ev was produced while the host
// platform's IME owned the keystroke.
func IsHostComposition(ev KeyboardEvent) bool {
	return isProcessKey(ev.Key()) || ev.KeyCode() == keyCodeProcess
}

// isProcessKey matches "Process" ignoring ASCII case only.
func isProcessKey(key string) bool {
	const want = "process"
	if len(key) != len(want) {
		return false
	}
	for i := range len(want) {
		c := key[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != want[i] {
			return false
		}
	}
	return true
}

// FromEvent translates a live keyboard event. Events belonging to a host
// composition and events whose physical key is unknown produce no key.
func FromEvent(ev KeyboardEvent) (Key, bool) {
	if IsHostComposition(ev) {
		return Key{}, false
	}
	mods := ModifiersFromState(ev.ShiftKey(), ev.CtrlKey(), ev.AltKey(), ev.MetaKey())
	return FromCode(ev.Code(), mods)
}

// FromCode translates a physical identifier with already packed modifiers.
func FromCode(id string, mods Modifiers) (Key, bool) {
	code, ok := Lookup(id)
	if !ok {
		return Key{}, false
	}
	return Key{Code: code, Modifiers: mods}, true
}

// FromMask translates a physical identifier with an embedder mask.
func FromMask(id string, mask Mask) (Key, bool) {
	return FromCode(id, ModifiersFromMask(mask))
}
