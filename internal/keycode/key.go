package keycode

import (
	"fmt"
	"strings"
)

// Key is the abstract key submitted to the composition engine.
type Key struct {
	Code      Code
	Modifiers Modifiers
}

// NewKey creates a Key.
func NewKey(code Code, mods Modifiers) Key {
	return Key{Code: code, Modifiers: mods}
}

// String returns the spec form of the key, e.g. "C-Space" or "S-Q".
func (k Key) String() string {
	return k.Modifiers.String() + k.Code.String()
}

// ParseKey parses a key spec as written in configuration: zero or more
// modifier prefixes ("C-", "S-", "A-", "M-" or "Super-") followed by a
// canonical code name.
func ParseKey(spec string) (Key, error) {
	if spec == "" {
		return Key{}, fmt.Errorf("empty key spec")
	}

	var mods Modifiers
	rest := spec
	for {
		i := strings.IndexByte(rest, '-')
		if i <= 0 || i == len(rest)-1 {
			break
		}
		mod, ok := modifierPrefixes[rest[:i]]
		if !ok {
			break
		}
		mods |= mod
		rest = rest[i+1:]
	}

	code, ok := CodeFromName(rest)
	if !ok {
		return Key{}, fmt.Errorf("unknown key %q in spec %q", rest, spec)
	}
	return Key{Code: code, Modifiers: mods}, nil
}

// MustParseKey is like ParseKey but panics on error. Intended for tables
// of builtin keys.
func MustParseKey(spec string) Key {
	k, err := ParseKey(spec)
	if err != nil {
		panic(err)
	}
	return k
}
