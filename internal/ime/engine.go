package ime

import (
	"fmt"
	"log/slog"
	"runtime"

	"kimeweb/internal/composer"
	"kimeweb/internal/config"
	"kimeweb/internal/handle"
	"kimeweb/internal/hangul"
	"kimeweb/internal/keycode"
	"kimeweb/internal/surface"
)

// CategoryChangeEvent is the custom event dispatched on the input when the
// category changes.
const CategoryChangeEvent = "kimeinputcategorychange"

// Option configures Install.
type Option func(*options)

type options struct {
	factory composer.Factory
	log     *slog.Logger
}

// WithFactory replaces the engine constructor. The default builds the
// hangul engine.
func WithFactory(f composer.Factory) Option {
	return func(o *options) { o.factory = f }
}

// WithLogger sets the logger for session diagnostics. Sessions log at
// debug level only; the default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// state is everything a session owns. It is reached only through the
// handle, under its lock.
type state struct {
	engine    composer.Engine
	last      composer.Result
	target    surface.TextInput
	listeners []surface.ListenerHandle
	log       *slog.Logger
}

// Session is one engine mounted on one text input.
type Session struct {
	owner   *handle.Owner[state]
	ref     handle.Ref[state]
	cleanup runtime.Cleanup
}

// Install parses cfgText (TOML, JSON or YAML) and mounts a session on
// target. Errors are *ConfigError and leave target untouched.
func Install(cfgText string, target surface.TextInput, opts ...Option) (*Session, error) {
	cfg, err := config.ParseString(cfgText)
	if err != nil {
		return nil, &ConfigError{Stage: "parse", Err: err}
	}
	return InstallConfig(cfg, target, opts...)
}

// InstallConfig mounts a session built from an already parsed
// configuration.
func InstallConfig(cfg *config.Config, target surface.TextInput, opts ...Option) (*Session, error) {
	o := options{factory: hangul.Factory}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.New(slog.DiscardHandler)
	}

	engine, err := o.factory(cfg)
	if err != nil {
		return nil, &ConfigError{Stage: "engine", Err: err}
	}

	s := &Session{owner: handle.New(&state{
		engine: engine,
		target: target,
		log:    o.log,
	})}
	s.ref = s.owner.Borrow()

	ref := s.ref
	listeners := []surface.ListenerHandle{
		target.AddEventListener(surface.EventMouseDown, func(surface.Event) {
			ref.Do((*state).stopComposite)
		}),
		target.AddEventListener(surface.EventKeyDown, func(ev surface.Event) {
			kev, ok := ev.(surface.KeyboardEvent)
			if !ok {
				return
			}
			onKeyDown(ref, kev)
		}),
	}
	s.ref.Do(func(st *state) { st.listeners = listeners })

	// A session dropped without Close still unregisters its listeners.
	s.cleanup = runtime.AddCleanup(s, releaseAll, listeners)

	o.log.Debug("session installed", "category", engine.Category())
	s.notify()
	return s, nil
}

func releaseAll(listeners []surface.ListenerHandle) {
	for _, l := range listeners {
		l.Release()
	}
}

// onKeyDown runs the key protocol for a live event.
func onKeyDown(ref handle.Ref[state], ev surface.KeyboardEvent) {
	var changed bool
	var target surface.TextInput
	var category composer.Category
	ref.Do(func(st *state) {
		key, ok := keycode.FromEvent(ev)
		_, changed = st.press(key, ok, ev.PreventDefault)
		target, category = st.target, st.engine.Category()
	})
	if changed {
		dispatchCategory(target, category)
	}
}

// press submits one translated key. ok is false when the event produced no
// key. It reports whether the engine consumed the key and whether the
// category changed.
func (st *state) press(key keycode.Key, ok bool, preventDefault func()) (consumed, changed bool) {
	if !surface.Editable(st.target) {
		return false, false
	}

	wasPreedit := st.last.HasPreedit()

	if !ok {
		if wasPreedit {
			// An unclassifiable key interrupted the composition.
			st.log.Debug("composition interrupted")
			st.engine.ClearPreedit()
			st.splice()
			st.stopComposite()
		}
		return false, false
	}

	r := st.engine.PressKey(key)
	if r.NotReady() {
		if rc, ok := st.engine.(composer.ReadyChecker); ok && rc.CheckReady() {
			r = rc.EndReady()
		}
	}
	st.last = r
	st.log.Debug("key", "code", key.String(), "result", r.String(), "was_preedit", wasPreedit)

	if r.IsConsumed() && preventDefault != nil {
		preventDefault()
	}
	if r.TouchesSurface() || wasPreedit {
		st.splice()
	}
	return r.IsConsumed(), r.LanguageChanged()
}

// stopComposite abandons any composition and forgets the last result.
func (st *state) stopComposite() {
	st.engine.Reset()
	st.last = 0
}

// StopComposite resets the engine without committing the preedit. The
// preedit text already written to the input is left as is.
func (s *Session) StopComposite() error {
	if !s.ref.Do((*state).stopComposite) {
		return ErrClosed
	}
	return nil
}

// InjectKey drives the session with a physical key identifier and an
// embedder modifier mask (bit 0 Shift, 1 Control, 2 Super, 3 Alt) instead
// of a live event. It reports whether the engine consumed the key; a
// closed session consumes nothing.
func (s *Session) InjectKey(code string, mask keycode.Mask) bool {
	var consumed, changed bool
	var target surface.TextInput
	var category composer.Category
	s.ref.Do(func(st *state) {
		key, ok := keycode.FromMask(code, mask)
		consumed, changed = st.press(key, ok, nil)
		target, category = st.target, st.engine.Category()
	})
	if changed {
		dispatchCategory(target, category)
	}
	return consumed
}

// Category returns the current input category.
func (s *Session) Category() (composer.Category, error) {
	c, ok := handle.Map(s.ref, func(st *state) composer.Category {
		return st.engine.Category()
	})
	if !ok {
		return composer.Latin, ErrClosed
	}
	return c, nil
}

// SetCategory switches the input category. Engines that cannot switch on
// request report an error. Text committed by the switch is written to the
// input and observers are notified if the category changed.
func (s *Session) SetCategory(c composer.Category) error {
	var err error
	var changed bool
	var target surface.TextInput
	live := s.ref.Do(func(st *state) {
		setter, ok := st.engine.(composer.CategorySetter)
		if !ok {
			err = fmt.Errorf("ime: engine %T cannot switch category", st.engine)
			return
		}
		prev := st.engine.Category()
		wasPreedit := st.last.HasPreedit()
		setter.SetCategory(c)
		st.last = 0
		if wasPreedit || st.engine.CommitStr() != "" {
			st.splice()
		}
		changed = st.engine.Category() != prev
		target = st.target
	})
	if !live {
		return ErrClosed
	}
	if err != nil {
		return err
	}
	if changed {
		dispatchCategory(target, c)
	}
	return nil
}

// Preedit returns the text currently being composed.
func (s *Session) Preedit() string {
	p, _ := handle.Map(s.ref, func(st *state) string {
		return st.engine.PreeditStr()
	})
	return p
}

// Alive reports whether the session has not been closed.
func (s *Session) Alive() bool {
	return s.owner.Alive()
}

// Close unregisters the listeners and drops the engine. Events already
// queued for the session are ignored. Close is idempotent.
func (s *Session) Close() error {
	st := s.owner.Release()
	if st == nil {
		return nil
	}
	s.cleanup.Stop()
	releaseAll(st.listeners)
	st.log.Debug("session closed")
	return nil
}

// notify announces the current category.
func (s *Session) notify() {
	var target surface.TextInput
	var category composer.Category
	if s.ref.Do(func(st *state) { target, category = st.target, st.engine.Category() }) {
		dispatchCategory(target, category)
	}
}

func dispatchCategory(target surface.TextInput, c composer.Category) {
	target.DispatchCustomEvent(CategoryChangeEvent, c.String())
}
