package ime

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kimeweb/internal/composer"
	"kimeweb/internal/config"
	"kimeweb/internal/hangul"
	"kimeweb/internal/keycode"
	"kimeweb/internal/surface"
)

const hangulConfig = "engine:\n  default_category: hangul\n"

// step is one scripted answer of fakeEngine.
type step struct {
	result  composer.Result
	commit  string
	preedit string
}

type fakeEngine struct {
	steps    []step
	commit   string
	preedit  string
	category composer.Category
	pressed  []keycode.Key
	resets   int

	endReady step
}

func (e *fakeEngine) PressKey(key keycode.Key) composer.Result {
	e.pressed = append(e.pressed, key)
	if len(e.steps) == 0 {
		return 0
	}
	s := e.steps[0]
	e.steps = e.steps[1:]
	e.commit += s.commit
	e.preedit = s.preedit
	return s.result
}

func (e *fakeEngine) CommitStr() string { return e.commit }
func (e *fakeEngine) ClearCommit() { e.commit = "" }
func (e *fakeEngine) PreeditStr() string { return e.preedit }
func (e *fakeEngine) ClearPreedit() { e.preedit = "" }
func (e *fakeEngine) Category() composer.Category { return e.category }

func (e *fakeEngine) Reset() {
	e.commit, e.preedit = "", ""
	e.resets++
}

// readyEngine answers NotReady and completes in EndReady.
type readyEngine struct {
	*fakeEngine
}

func (e readyEngine) CheckReady() bool { return true }

func (e readyEngine) EndReady() composer.Result {
	e.commit += e.endReady.commit
	e.preedit = e.endReady.preedit
	return e.endReady.result
}

func withEngine(e composer.Engine) Option {
	return WithFactory(func(*config.Config) (composer.Engine, error) { return e, nil })
}

func keyEvent(code string) *surface.KeyEvent {
	return &surface.KeyEvent{KeyValue: code, CodeValue: code}
}

func selection(t *testing.T, in *surface.Input) [2]int {
	t.Helper()
	start, end, ok := in.SelectionRange()
	require.True(t, ok)
	return [2]int{start, end}
}

func typeCodes(in *surface.Input, codes ...string) {
	for _, c := range codes {
		in.KeyDown(keyEvent(c))
	}
}

func TestSpliceCommitAndPreedit(t *testing.T) {
	in := surface.NewInput("abcd")
	require.NoError(t, in.SetSelectionRange(2, 2))

	fe := &fakeEngine{steps: []step{{
		result:  composer.Consumed | composer.HasCommit | composer.HasPreedit,
		commit:  "X",
		preedit: "Y",
	}}}
	s, err := Install("", in, withEngine(fe))
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, in.KeyDown(keyEvent("KeyA")), "consumed key prevents default")
	assert.Equal(t, "abXYcd", in.Value())
	assert.Equal(t, [2]int{3, 4}, selection(t, in))
	assert.Empty(t, fe.commit, "commit is consumed once")
	assert.Equal(t, "Y", fe.preedit, "preedit is kept")
}

func TestSpliceReplacesSelection(t *testing.T) {
	in := surface.NewInput("a😀b")
	require.NoError(t, in.SetSelectionRange(1, 3))

	fe := &fakeEngine{steps: []step{{
		result:  composer.Consumed | composer.HasCommit | composer.HasPreedit,
		commit:  "😀",
		preedit: "한",
	}}}
	s, err := Install("", in, withEngine(fe))
	require.NoError(t, err)
	defer s.Close()

	in.KeyDown(keyEvent("KeyA"))
	assert.Equal(t, "a😀한b", in.Value())
	assert.Equal(t, [2]int{3, 4}, selection(t, in), "offsets count UTF-16 units")
}

func TestSpliceSnapsSelectionInsidePair(t *testing.T) {
	in := surface.NewInput("a😀b")
	require.NoError(t, in.SetSelectionRange(2, 2))

	fe := &fakeEngine{steps: []step{{
		result: composer.Consumed | composer.HasCommit,
		commit: "X",
	}}}
	s, err := Install("", in, withEngine(fe))
	require.NoError(t, err)
	defer s.Close()

	in.KeyDown(keyEvent("KeyA"))
	assert.Equal(t, "aX😀b", in.Value())
	assert.NotContains(t, in.Value(), "\uFFFD")
	assert.Equal(t, [2]int{2, 2}, selection(t, in))
}

func TestSpliceWidensRangeOverPair(t *testing.T) {
	in := surface.NewInput("a😀b")
	require.NoError(t, in.SetSelectionRange(1, 2))

	fe := &fakeEngine{steps: []step{{
		result: composer.Consumed | composer.HasCommit,
		commit: "X",
	}}}
	s, err := Install("", in, withEngine(fe))
	require.NoError(t, err)
	defer s.Close()

	in.KeyDown(keyEvent("KeyA"))
	assert.Equal(t, "aXb", in.Value(), "selection end inside the pair covers it")
}

func TestSpliceWithoutSelection(t *testing.T) {
	in := surface.NewInput("ab")
	in.SetFocused(false)

	s, err := Install(hangulConfig, in)
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, in.KeyDown(keyEvent("KeyG")))
	assert.Equal(t, "ㅎab", in.Value(), "missing selection splices at 0")
}

func TestHangulTyping(t *testing.T) {
	in := surface.NewInput("")
	s, err := Install(hangulConfig, in)
	require.NoError(t, err)
	defer s.Close()

	typeCodes(in, "KeyG", "KeyK", "KeyS")
	assert.Equal(t, "한", in.Value())
	assert.Equal(t, [2]int{0, 1}, selection(t, in))
	assert.Equal(t, "한", s.Preedit())

	typeCodes(in, "KeyR", "KeyN", "KeyR")
	assert.Equal(t, "한국", in.Value())
	assert.Equal(t, [2]int{1, 2}, selection(t, in))

	prevented := in.KeyDown(&surface.KeyEvent{KeyValue: " ", CodeValue: "Space"})
	assert.False(t, prevented, "space reaches the input")
	assert.Equal(t, "한국 ", in.Value())
	assert.Equal(t, [2]int{3, 3}, selection(t, in))
}

func TestPreeditClearedWithoutCommit(t *testing.T) {
	in := surface.NewInput("ab")
	fe := &fakeEngine{steps: []step{
		{result: composer.Consumed | composer.HasPreedit, preedit: "Y"},
		{result: 0},
	}}
	s, err := Install("", in, withEngine(fe))
	require.NoError(t, err)
	defer s.Close()

	in.KeyDown(keyEvent("KeyA"))
	assert.Equal(t, "abY", in.Value())

	assert.False(t, in.KeyDown(keyEvent("Escape")))
	assert.Equal(t, "ab", in.Value(), "stale preedit is flushed")
	assert.Equal(t, [2]int{2, 2}, selection(t, in))
}

func TestUntouchedResultLeavesInput(t *testing.T) {
	in := surface.NewInput("ab")
	require.NoError(t, in.SetSelectionRange(0, 1))
	fe := &fakeEngine{}
	s, err := Install("", in, withEngine(fe))
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, in.KeyDown(keyEvent("KeyA")))
	assert.Equal(t, "ab", in.Value())
	assert.Equal(t, [2]int{0, 1}, selection(t, in))
	assert.Len(t, fe.pressed, 1)
}

func TestPreeditInterruption(t *testing.T) {
	for name, ev := range map[string]*surface.KeyEvent{
		"unknown key":      keyEvent("F13"),
		"host composition": {KeyValue: "Process", CodeValue: "KeyA"},
		"legacy 229":       {KeyValue: "Unidentified", CodeValue: "KeyA", Legacy: 229},
	} {
		t.Run(name, func(t *testing.T) {
			in := surface.NewInput("")
			s, err := Install(hangulConfig, in)
			require.NoError(t, err)
			defer s.Close()

			typeCodes(in, "KeyG")
			require.Equal(t, "ㅎ", in.Value())

			assert.False(t, in.KeyDown(ev))
			assert.Empty(t, in.Value())
			assert.Empty(t, s.Preedit())

			typeCodes(in, "KeyK")
			assert.Equal(t, "ㅏ", in.Value(), "engine restarted from scratch")
		})
	}
}

func TestUnknownKeyWithoutPreeditPassesThrough(t *testing.T) {
	in := surface.NewInput("ab")
	fe := &fakeEngine{}
	s, err := Install("", in, withEngine(fe))
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, in.KeyDown(keyEvent("F13")))
	assert.Equal(t, "ab", in.Value())
	assert.Empty(t, fe.pressed)
	assert.Zero(t, fe.resets)
}

func TestStopCompositeOnMouseDown(t *testing.T) {
	in := surface.NewInput("")
	s, err := Install(hangulConfig, in)
	require.NoError(t, err)
	defer s.Close()

	typeCodes(in, "KeyG")
	in.MouseDown()
	assert.Empty(t, s.Preedit())
	assert.Equal(t, "ㅎ", in.Value(), "preedit text stays in place")

	require.NoError(t, in.SetSelectionRange(1, 1))
	typeCodes(in, "KeyK")
	assert.Equal(t, "ㅎㅏ", in.Value())

	require.NoError(t, s.StopComposite())
	assert.Empty(t, s.Preedit())
}

func TestCategoryNotifiedOnInstall(t *testing.T) {
	in := surface.NewInput("")
	s, err := Install("", in)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, []surface.CustomEvent{
		{Type: CategoryChangeEvent, Detail: "latin"},
	}, in.Events())
}

func TestLanguageChangeNotifies(t *testing.T) {
	in := surface.NewInput("")
	s, err := Install("", in)
	require.NoError(t, err)
	defer s.Close()

	var seen []composer.Category
	var values []string
	in.AddEventListener(CategoryChangeEvent, func(surface.Event) {
		// Observers may call back into the session.
		c, err := s.Category()
		require.NoError(t, err)
		seen = append(seen, c)
		values = append(values, in.Value())
	})

	assert.True(t, in.KeyDown(keyEvent("Lang1")))
	typeCodes(in, "KeyG", "KeyK")
	assert.True(t, in.KeyDown(keyEvent("Lang1")))

	assert.Equal(t, "하", in.Value())
	assert.Equal(t, [2]int{1, 1}, selection(t, in))
	assert.Equal(t, []composer.Category{composer.Hangul, composer.Latin}, seen)
	assert.Equal(t, []string{"", "하"}, values, "toggle notifies after the flush is spliced")

	details := make([]string, 0, 3)
	for _, ev := range in.Events() {
		details = append(details, ev.Detail)
	}
	assert.Equal(t, []string{"latin", "hangul", "latin"}, details)
}

func TestInjectKey(t *testing.T) {
	in := surface.NewInput("")
	s, err := Install(hangulConfig, in)
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, s.InjectKey("KeyR", keycode.MaskShift))
	assert.True(t, s.InjectKey("KeyK", 0))
	assert.Equal(t, "까", in.Value())

	assert.False(t, s.InjectKey("NoSuchKey", 0))
	assert.Empty(t, in.Value(), "unknown key interrupts the composition")

	assert.True(t, s.InjectKey("Lang1", 0))
	c, err := s.Category()
	require.NoError(t, err)
	assert.Equal(t, composer.Latin, c)
	assert.Equal(t, "latin", in.Events()[len(in.Events())-1].Detail)
}

func TestSetCategory(t *testing.T) {
	in := surface.NewInput("")
	s, err := Install("", in)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SetCategory(composer.Hangul))
	typeCodes(in, "KeyG")
	assert.Equal(t, [2]int{0, 1}, selection(t, in))

	require.NoError(t, s.SetCategory(composer.Latin))
	assert.Equal(t, "ㅎ", in.Value())
	assert.Equal(t, [2]int{1, 1}, selection(t, in), "switch commits the preedit")

	require.NoError(t, s.SetCategory(composer.Latin))
	assert.Len(t, in.Events(), 3)

	fe := &fakeEngine{}
	other, err := Install("", surface.NewInput(""), withEngine(fe))
	require.NoError(t, err)
	defer other.Close()
	assert.Error(t, other.SetCategory(composer.Hangul))
}

func TestNotReadyEndsReady(t *testing.T) {
	in := surface.NewInput("")
	fe := &fakeEngine{
		steps:    []step{{result: composer.NotReady}},
		endReady: step{result: composer.Consumed | composer.HasCommit, commit: "Z"},
	}
	s, err := Install("", in, withEngine(readyEngine{fe}))
	require.NoError(t, err)
	defer s.Close()

	assert.True(t, in.KeyDown(keyEvent("KeyA")))
	assert.Equal(t, "Z", in.Value())
}

func TestReadOnlyPassesThrough(t *testing.T) {
	in := surface.NewInput("ab")
	in.SetReadOnly(true)
	fe := &fakeEngine{steps: []step{{result: composer.Consumed | composer.HasPreedit, preedit: "Y"}}}
	s, err := Install("", in, withEngine(fe))
	require.NoError(t, err)
	defer s.Close()

	assert.False(t, in.KeyDown(keyEvent("KeyA")))
	assert.Equal(t, "ab", in.Value())
	assert.Empty(t, fe.pressed)
}

func TestInstallConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		stage  string
		target error
	}{
		{"malformed", "engine: [", "parse", nil},
		{"unknown field", "engine:\n  bogus: 1\n", "parse", nil},
		{"unknown layout", "engine:\n  hangul:\n    layout: qwerty-ko\n", "engine", hangul.ErrUnknownLayout},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := surface.NewInput("")
			s, err := Install(tc.doc, in)
			require.Error(t, err)
			assert.Nil(t, s)

			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.Equal(t, tc.stage, cerr.Stage)
			if tc.target != nil {
				assert.ErrorIs(t, err, tc.target)
			}

			assert.Zero(t, in.ListenerCount(), "no listener left behind")
			assert.Empty(t, in.Events())
		})
	}
}

// capturingInput keeps every registered callback so tests can invoke them
// after the input itself has dropped them.
type capturingInput struct {
	*surface.Input
	callbacks map[string]func(surface.Event)
}

func (c *capturingInput) AddEventListener(typ string, fn func(surface.Event)) surface.ListenerHandle {
	c.callbacks[typ] = fn
	return c.Input.AddEventListener(typ, fn)
}

func TestCloseMakesCallbacksInert(t *testing.T) {
	in := &capturingInput{Input: surface.NewInput("ab"), callbacks: map[string]func(surface.Event){}}
	fe := &fakeEngine{steps: []step{{result: composer.Consumed | composer.HasCommit, commit: "X"}}}
	s, err := Install("", in, withEngine(fe))
	require.NoError(t, err)
	require.Equal(t, 2, in.ListenerCount())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.False(t, s.Alive())
	assert.Zero(t, in.ListenerCount())

	ev := keyEvent("KeyA")
	in.callbacks[surface.EventKeyDown](ev)
	in.callbacks[surface.EventMouseDown](surface.PointerEvent{})

	assert.False(t, ev.Prevented())
	assert.Empty(t, fe.pressed)
	assert.Zero(t, fe.resets)
	assert.Equal(t, "ab", in.Value())

	assert.False(t, s.InjectKey("KeyA", 0))
	assert.ErrorIs(t, s.StopComposite(), ErrClosed)
	assert.ErrorIs(t, s.SetCategory(composer.Hangul), ErrClosed)
	_, err = s.Category()
	assert.ErrorIs(t, err, ErrClosed)
	assert.Empty(t, s.Preedit())
}

func TestDroppedSessionReleasesListeners(t *testing.T) {
	in := surface.NewInput("")
	func() {
		_, err := Install("", in)
		require.NoError(t, err)
	}()
	require.Equal(t, 2, in.ListenerCount())

	require.Eventually(t, func() bool {
		runtime.GC()
		return in.ListenerCount() == 0
	}, 5*time.Second, 10*time.Millisecond)

	assert.False(t, in.KeyDown(keyEvent("KeyA")))
}
