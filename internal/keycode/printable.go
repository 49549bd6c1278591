package keycode

// usLayout maps physical identifiers of printable keys to the characters
// a US QWERTY layout produces, unshifted and shifted.
var usLayout = map[string][2]rune{
	"Backquote":    {'`', '~'},
	"Digit1":       {'1', '!'},
	"Digit2":       {'2', '@'},
	"Digit3":       {'3', '#'},
	"Digit4":       {'4', '$'},
	"Digit5":       {'5', '%'},
	"Digit6":       {'6', '^'},
	"Digit7":       {'7', '&'},
	"Digit8":       {'8', '*'},
	"Digit9":       {'9', '('},
	"Digit0":       {'0', ')'},
	"Minus":        {'-', '_'},
	"Equal":        {'=', '+'},
	"BracketLeft":  {'[', '{'},
	"BracketRight": {']', '}'},
	"Backslash":    {'\\', '|'},
	"Semicolon":    {';', ':'},
	"Quote":        {'\'', '"'},
	"Comma":        {',', '<'},
	"Period":       {'.', '>'},
	"Slash":        {'/', '?'},
	"Space":        {' ', ' '},
}

// PrintableKey returns the KeyboardEvent.key value a US QWERTY keyboard
// reports for a printable physical key, or ok=false for keys that do not
// produce text.
func PrintableKey(id string, shift bool) (string, bool) {
	if len(id) == 4 && id[:3] == "Key" && id[3] >= 'A' && id[3] <= 'Z' {
		c := id[3]
		if !shift {
			c += 'a' - 'A'
		}
		return string(c), true
	}
	pair, ok := usLayout[id]
	if !ok {
		return "", false
	}
	if shift {
		return string(pair[1]), true
	}
	return string(pair[0]), true
}
