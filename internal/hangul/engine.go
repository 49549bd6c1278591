// Package hangul is a dubeolsik composition engine behind the
// composer.Engine contract.
package hangul

import (
	"fmt"
	"strings"

	"kimeweb/internal/composer"
	"kimeweb/internal/config"
	"kimeweb/internal/keycode"
)

type hotkey struct {
	action  string
	consume bool
}

// Engine composes hangul syllables from abstract keys. It is not safe for
// concurrent use; callers serialize access.
type Engine struct {
	layout   Layout
	hotkeys  map[keycode.Key]hotkey
	category composer.Category

	cur syllable
	// history holds the states cur passed through, for backspace.
	history []syllable
	commit  strings.Builder
}

// New builds an engine from a validated configuration.
func New(cfg *config.Config) (*Engine, error) {
	layout, err := LoadLayout(cfg.Engine.Hangul.Layout, cfg.Layouts)
	if err != nil {
		return nil, err
	}

	category, ok := composer.ParseCategory(cfg.Engine.DefaultCategory)
	if !ok {
		return nil, fmt.Errorf("unknown category %q", cfg.Engine.DefaultCategory)
	}

	hotkeys := make(map[keycode.Key]hotkey, len(cfg.Engine.Hotkeys))
	for _, hk := range cfg.Engine.Hotkeys {
		key, err := keycode.ParseKey(hk.Key)
		if err != nil {
			return nil, fmt.Errorf("hotkey: %w", err)
		}
		hotkeys[key] = hotkey{action: hk.Action, consume: hk.ConsumesHotkey()}
	}

	return &Engine{
		layout:   layout,
		hotkeys:  hotkeys,
		category: category,
	}, nil
}

// Factory adapts New to composer.Factory.
func Factory(cfg *config.Config) (composer.Engine, error) {
	return New(cfg)
}

// PressKey implements composer.Engine.
func (e *Engine) PressKey(key keycode.Key) composer.Result {
	if hk, ok := e.hotkeys[key]; ok {
		return e.pressHotkey(hk)
	}

	if e.category != composer.Hangul {
		return e.flags(false)
	}

	if key.Code == keycode.Backspace && key.Modifiers.IsEmpty() && !e.cur.empty() {
		e.backspace()
		return e.flags(true)
	}

	if key.Modifiers&^keycode.ModShift == 0 {
		if jamo, ok := e.layout.Lookup(key); ok {
			e.feed(jamo)
			return e.flags(true)
		}
	}

	// Anything else ends the composition and reaches the host.
	e.flush()
	return e.flags(false)
}

func (e *Engine) pressHotkey(hk hotkey) composer.Result {
	prev := e.category
	switch hk.action {
	case config.ActionToggle:
		if e.category == composer.Hangul {
			e.category = composer.Latin
		} else {
			e.category = composer.Hangul
		}
	case config.ActionHangul:
		e.category = composer.Hangul
	case config.ActionLatin:
		e.category = composer.Latin
	}

	e.flush()
	r := e.flags(hk.consume)
	if e.category != prev {
		r |= composer.LanguageChanged
	}
	return r
}

func (e *Engine) flags(consumed bool) composer.Result {
	var r composer.Result
	if consumed {
		r |= composer.Consumed
	}
	if e.commit.Len() > 0 {
		r |= composer.HasCommit
	}
	if !e.cur.empty() {
		r |= composer.HasPreedit
	}
	return r
}

// feed advances the automaton by one jamo.
func (e *Engine) feed(j rune) {
	s := e.cur
	switch {
	case isConsonant(j):
		switch {
		case s.jong != 0:
			if c, ok := compoundJong[pair{s.jong, j}]; ok {
				s.jong = c
				e.push(s)
				return
			}
		case s.cho != 0 && s.jung != 0:
			if canBeJong(j) {
				s.jong = j
				e.push(s)
				return
			}
		}
		e.flush()
		e.start(syllable{cho: j})

	case isVowel(j):
		switch {
		case s.jong != 0:
			// The final consonant moves to the next block.
			next := s.jong
			if p, ok := splitJong[s.jong]; ok {
				s.jong, next = p.a, p.b
			} else {
				s.jong = 0
			}
			e.cur = s
			e.flush()
			e.start(syllable{cho: next})
			e.push(syllable{cho: next, jung: j})
			return
		case s.jung != 0:
			if c, ok := compoundJung[pair{s.jung, j}]; ok {
				s.jung = c
				e.push(s)
				return
			}
		case s.cho != 0:
			s.jung = j
			e.push(s)
			return
		}
		e.flush()
		e.start(syllable{jung: j})
	}
}

func (e *Engine) start(s syllable) {
	if s.cho != 0 {
		if _, ok := choIndex[s.cho]; !ok {
			// Clusters like ㄳ cannot open a block.
			e.commit.WriteRune(s.cho)
			return
		}
	}
	e.cur = s
	e.history = append(e.history[:0], s)
}

func (e *Engine) push(s syllable) {
	e.cur = s
	e.history = append(e.history, s)
}

func (e *Engine) backspace() {
	if len(e.history) > 0 {
		e.history = e.history[:len(e.history)-1]
	}
	if len(e.history) == 0 {
		e.cur = syllable{}
		return
	}
	e.cur = e.history[len(e.history)-1]
}

// flush moves the block under composition to the commit buffer.
func (e *Engine) flush() {
	e.commit.WriteString(e.cur.String())
	e.ClearPreedit()
}

// CommitStr implements composer.Engine.
func (e *Engine) CommitStr() string { return e.commit.String() }

// ClearCommit implements composer.Engine.
func (e *Engine) ClearCommit() { e.commit.Reset() }

// PreeditStr implements composer.Engine.
func (e *Engine) PreeditStr() string { return e.cur.String() }

// ClearPreedit implements composer.Engine.
func (e *Engine) ClearPreedit() {
	e.cur = syllable{}
	e.history = e.history[:0]
}

// Reset implements composer.Engine.
func (e *Engine) Reset() {
	e.ClearPreedit()
	e.ClearCommit()
}

// Category implements composer.Engine.
func (e *Engine) Category() composer.Category { return e.category }

// SetCategory implements composer.CategorySetter. Any composition in
// progress is committed.
func (e *Engine) SetCategory(c composer.Category) {
	if c != e.category {
		e.flush()
		e.category = c
	}
}
