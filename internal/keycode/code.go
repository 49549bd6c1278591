// Package keycode translates host key identifiers into the abstract keys
// consumed by the composition engine.
//
// Physical identifiers are the layout-independent names browsers report in
// KeyboardEvent.code ("KeyA", "ShiftLeft", "Lang1"). They are resolved
// through a static table sorted by identifier, so lookup is a binary
// search whose result does not depend on declaration order.
//
// Two identifiers may resolve to the same Code: the engine does not
// distinguish left and right Shift.
package keycode

// Code is a logical key understood by the composition engine.
type Code uint8

const (
	// None is the zero Code; it is never produced by a lookup.
	None Code = iota

	A
	B
	C
	D
	E
	F
	G
	H
	I
	J
	K
	L
	M
	N
	O
	P
	Q
	R
	S
	T
	U
	V
	W
	X
	Y
	Z

	Zero
	One
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine

	NumZero
	NumOne
	NumTwo
	NumThree
	NumFour
	NumFive
	NumSix
	NumSeven
	NumEight
	NumNine

	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12

	Grave
	Minus
	Equal
	OpenBracket
	CloseBracket
	Backslash
	SemiColon
	Quote
	Comma
	Period
	Slash

	Space
	Tab
	Enter
	Backspace
	Delete
	Insert
	Esc
	Home
	End
	PageUp
	PageDown
	Up
	Down
	Left
	Right

	Shift
	ControlL
	ControlR
	AltL
	AltR

	// IME toggles reported by Korean and Japanese keyboards.
	Hangul
	HangulHanja
	Henkan
	Muhenkan

	codeCount
)

var codeNames = [codeCount]string{
	None: "None",
	A: "A", B: "B", C: "C", D: "D", E: "E", F: "F", G: "G", H: "H", I: "I",
	J: "J", K: "K", L: "L", M: "M", N: "N", O: "O", P: "P", Q: "Q", R: "R",
	S: "S", T: "T", U: "U", V: "V", W: "W", X: "X", Y: "Y", Z: "Z",

	Zero: "Zero", One: "One", Two: "Two", Three: "Three", Four: "Four",
	Five: "Five", Six: "Six", Seven: "Seven", Eight: "Eight", Nine: "Nine",

	NumZero: "NumZero", NumOne: "NumOne", NumTwo: "NumTwo", NumThree: "NumThree",
	NumFour: "NumFour", NumFive: "NumFive", NumSix: "NumSix", NumSeven: "NumSeven",
	NumEight: "NumEight", NumNine: "NumNine",

	F1: "F1", F2: "F2", F3: "F3", F4: "F4", F5: "F5", F6: "F6",
	F7: "F7", F8: "F8", F9: "F9", F10: "F10", F11: "F11", F12: "F12",

	Grave:        "Grave",
	Minus:        "Minus",
	Equal:        "Equal",
	OpenBracket:  "OpenBracket",
	CloseBracket: "CloseBracket",
	Backslash:    "Backslash",
	SemiColon:    "SemiColon",
	Quote:        "Quote",
	Comma:        "Comma",
	Period:       "Period",
	Slash:        "Slash",

	Space:     "Space",
	Tab:       "Tab",
	Enter:     "Enter",
	Backspace: "Backspace",
	Delete:    "Delete",
	Insert:    "Insert",
	Esc:       "Esc",
	Home:      "Home",
	End:       "End",
	PageUp:    "PageUp",
	PageDown:  "PageDown",
	Up:        "Up",
	Down:      "Down",
	Left:      "Left",
	Right:     "Right",

	Shift:    "Shift",
	ControlL: "ControlL",
	ControlR: "ControlR",
	AltL:     "AltL",
	AltR:     "AltR",

	Hangul:      "Hangul",
	HangulHanja: "HangulHanja",
	Henkan:      "Henkan",
	Muhenkan:    "Muhenkan",
}

// codeByName is the inverse of codeNames, used when parsing key specs
// from configuration.
var codeByName = func() map[string]Code {
	m := make(map[string]Code, codeCount)
	for c := None + 1; c < codeCount; c++ {
		m[codeNames[c]] = c
	}
	return m
}()

// String returns the canonical name of the code, as used in layouts and
// hotkey specifications.
func (c Code) String() string {
	if c >= codeCount {
		return "Unknown"
	}
	return codeNames[c]
}

// Valid reports whether c is a member of the enumeration other than None.
func (c Code) Valid() bool {
	return c > None && c < codeCount
}

// IsLetter reports whether c is one of A through Z.
func (c Code) IsLetter() bool {
	return c >= A && c <= Z
}

// CodeFromName returns the Code with the given canonical name.
func CodeFromName(name string) (Code, bool) {
	c, ok := codeByName[name]
	return c, ok
}
