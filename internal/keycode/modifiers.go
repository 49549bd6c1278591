package keycode

import "strings"

// Modifiers represents modifier key state as seen by the engine.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModAlt
	ModSuper // Meta in browsers: Command on macOS, Windows key on Windows
)

// Mask is the compact modifier encoding accepted from embedders that do not
// deliver browser keyboard events. Its bit order differs from Modifiers and
// is part of the external interface.
type Mask uint8

const (
	MaskShift   Mask = 1 << 0
	MaskControl Mask = 1 << 1
	MaskSuper   Mask = 1 << 2
	MaskAlt     Mask = 1 << 3
)

// Has returns true if m contains every bit of mod.
func (m Modifiers) Has(mod Modifiers) bool {
	return m&mod == mod
}

// IsEmpty returns true if no modifiers are set.
func (m Modifiers) IsEmpty() bool {
	return m == 0
}

// String returns the key prefix form, e.g. "C-S-".
func (m Modifiers) String() string {
	var b strings.Builder
	if m.Has(ModControl) {
		b.WriteString("C-")
	}
	if m.Has(ModAlt) {
		b.WriteString("A-")
	}
	if m.Has(ModShift) {
		b.WriteString("S-")
	}
	if m.Has(ModSuper) {
		b.WriteString("M-")
	}
	return b.String()
}

// ModifiersFromState packs the four boolean modifier states of a keyboard
// event. meta is reported to the engine as Super.
func ModifiersFromState(shift, control, alt, meta bool) Modifiers {
	var m Modifiers
	if shift {
		m |= ModShift
	}
	if control {
		m |= ModControl
	}
	if alt {
		m |= ModAlt
	}
	if meta {
		m |= ModSuper
	}
	return m
}

// ModifiersFromMask converts an embedder mask. Bits above MaskAlt are
// ignored.
func ModifiersFromMask(mask Mask) Modifiers {
	var m Modifiers
	if mask&MaskShift != 0 {
		m |= ModShift
	}
	if mask&MaskControl != 0 {
		m |= ModControl
	}
	if mask&MaskSuper != 0 {
		m |= ModSuper
	}
	if mask&MaskAlt != 0 {
		m |= ModAlt
	}
	return m
}

// Mask converts m back into the embedder encoding.
func (m Modifiers) Mask() Mask {
	var mask Mask
	if m.Has(ModShift) {
		mask |= MaskShift
	}
	if m.Has(ModControl) {
		mask |= MaskControl
	}
	if m.Has(ModSuper) {
		mask |= MaskSuper
	}
	if m.Has(ModAlt) {
		mask |= MaskAlt
	}
	return mask
}

var modifierPrefixes = map[string]Modifiers{
	"C":     ModControl,
	"S":     ModShift,
	"A":     ModAlt,
	"M":     ModSuper,
	"Super": ModSuper,
}
