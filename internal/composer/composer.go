// Package composer defines the contract between the synchronization core and
// a composition engine.
//
// The core only submits keys, reads and clears the commit and preedit
// buffers, resets, and branches on Result flags. How an engine composes
// syllables is its own business.
package composer

import (
	"strings"

	"kimeweb/internal/config"
	"kimeweb/internal/keycode"
)

// Result is the set of flags an engine reports for one submitted key.
type Result uint8

const (
	// Consumed means the engine absorbed the key; the host must not
	// apply its default action.
	Consumed Result = 1 << iota
	// HasCommit means finalized text is waiting in the commit buffer.
	HasCommit
	// HasPreedit means provisional text is being composed.
	HasPreedit
	// LanguageChanged means the input category switched.
	LanguageChanged
	// NotReady means the engine needs EndReady before its buffers are
	// meaningful.
	NotReady
)

// IsConsumed reports whether the key was absorbed.
func (r Result) IsConsumed() bool { return r&Consumed != 0 }

// HasCommit reports whether committed text is pending.
func (r Result) HasCommit() bool { return r&HasCommit != 0 }

// HasPreedit reports whether a composition is in progress.
func (r Result) HasPreedit() bool { return r&HasPreedit != 0 }

// LanguageChanged reports whether the category switched.
func (r Result) LanguageChanged() bool { return r&LanguageChanged != 0 }

// NotReady reports whether the engine deferred its answer.
func (r Result) NotReady() bool { return r&NotReady != 0 }

// TouchesSurface reports whether the result alone requires the text
// surface to be rewritten: the key was consumed, or something was
// committed or is being composed.
func (r Result) TouchesSurface() bool {
	return r&(Consumed|HasCommit|HasPreedit) != 0
}

// String lists the set flags, e.g. "consumed|preedit".
func (r Result) String() string {
	if r == 0 {
		return "none"
	}
	var parts []string
	for _, f := range []struct {
		flag Result
		name string
	}{
		{Consumed, "consumed"},
		{HasCommit, "commit"},
		{HasPreedit, "preedit"},
		{LanguageChanged, "language"},
		{NotReady, "not-ready"},
	} {
		if r&f.flag != 0 {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "|")
}

// Category is the current input mode.
type Category uint8

const (
	Latin Category = iota
	Hangul
)

// String returns the notification detail for the category.
func (c Category) String() string {
	switch c {
	case Hangul:
		return "hangul"
	default:
		return "latin"
	}
}

// ParseCategory parses "hangul" or "latin", case-insensitively.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(s) {
	case "hangul":
		return Hangul, true
	case "latin":
		return Latin, true
	default:
		return Latin, false
	}
}

// Engine is a composition engine.
type Engine interface {
	// PressKey submits one key and reports what changed.
	PressKey(key keycode.Key) Result

	// CommitStr returns finalized text not yet consumed, or "".
	CommitStr() string
	// ClearCommit empties the commit buffer.
	ClearCommit()

	// PreeditStr returns the text being composed, or "".
	PreeditStr() string
	// ClearPreedit abandons the composition without committing it.
	ClearPreedit()

	// Reset abandons all buffers.
	Reset()

	// Category returns the current input category.
	Category() Category
}

// CategorySetter is implemented by engines whose category can be switched
// by the host.
type CategorySetter interface {
	SetCategory(c Category)
}

// ReadyChecker is implemented by engines that may answer NotReady.
type ReadyChecker interface {
	CheckReady() bool
	EndReady() Result
}

// Factory builds an engine from a validated configuration.
type Factory func(cfg *config.Config) (Engine, error)
