package hangul

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"unicode/utf8"

	"kimeweb/internal/keycode"
)

// ErrUnknownLayout is returned when a layout name is neither builtin nor
// defined by the configuration.
var ErrUnknownLayout = errors.New("unknown layout")

// Layout maps abstract keys to the compatibility jamo they type.
type Layout map[keycode.Key]rune

var builtinLayouts = map[string]map[string]string{
	"dubeolsik": {
		"Q": "ㅂ", "S-Q": "ㅃ",
		"W": "ㅈ", "S-W": "ㅉ",
		"E": "ㄷ", "S-E": "ㄸ",
		"R": "ㄱ", "S-R": "ㄲ",
		"T": "ㅅ", "S-T": "ㅆ",
		"Y": "ㅛ",
		"U": "ㅕ",
		"I": "ㅑ",
		"O": "ㅐ", "S-O": "ㅒ",
		"P": "ㅔ", "S-P": "ㅖ",
		"A": "ㅁ",
		"S": "ㄴ",
		"D": "ㅇ",
		"F": "ㄹ",
		"G": "ㅎ",
		"H": "ㅗ",
		"J": "ㅓ",
		"K": "ㅏ",
		"L": "ㅣ",
		"Z": "ㅋ",
		"X": "ㅌ",
		"C": "ㅊ",
		"V": "ㅍ",
		"B": "ㅠ",
		"N": "ㅜ",
		"M": "ㅡ",
	},
}

// BuiltinLayouts returns the names of the layouts compiled in.
func BuiltinLayouts() []string {
	return slices.Sorted(maps.Keys(builtinLayouts))
}

// LoadLayout resolves name against the builtin layouts and custom. Entries
// in custom[name] are merged over a builtin layout of the same name, so a
// configuration may patch single keys.
func LoadLayout(name string, custom map[string]map[string]string) (Layout, error) {
	base, builtin := builtinLayouts[name]
	extra, configured := custom[name]
	if !builtin && !configured {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, name)
	}

	layout := make(Layout, len(base)+len(extra))
	for _, entries := range []map[string]string{base, extra} {
		for spec, jamo := range entries {
			key, err := keycode.ParseKey(spec)
			if err != nil {
				return nil, fmt.Errorf("layout %q: %w", name, err)
			}
			r, size := utf8.DecodeRuneInString(jamo)
			if size != len(jamo) || !(isConsonant(r) || isVowel(r)) {
				return nil, fmt.Errorf("layout %q: key %s: %q is not a compatibility jamo", name, spec, jamo)
			}
			layout[key] = r
		}
	}
	return layout, nil
}

// Lookup returns the jamo for key. A shifted key without its own entry
// falls back to the unshifted one.
func (l Layout) Lookup(key keycode.Key) (rune, bool) {
	if r, ok := l[key]; ok {
		return r, true
	}
	if key.Modifiers == keycode.ModShift {
		r, ok := l[keycode.Key{Code: key.Code}]
		return r, ok
	}
	return 0, false
}
