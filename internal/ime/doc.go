// Package ime keeps a text input in sync with a composition engine.
//
// A Session is installed on a surface.TextInput. It listens for key-down
// and mouse-down events, translates key-down events through the keycode
// table, submits the resulting keys to a composer.Engine and rewrites the
// input after every key that touched the composition:
//
//	value     = before + commit + preedit + after
//	selection = [start+len(commit), start+len(commit)+len(preedit))
//
// Lengths and offsets are UTF-16 code units. The preedit stays selected so
// the next key replaces it.
//
// # Lifetime
//
// Listeners never hold the session state. They observe it through a
// handle.Ref, so once a session is closed (or dropped and collected) any
// event still queued for it is ignored.
//
// # Category notification
//
// Whenever the input category changes, and once right after Install, the
// session dispatches a "kimeinputcategorychange" custom event on the input
// with detail "hangul" or "latin". Notifications are dispatched after the
// session lock is released, so observers may call back into the session.
// For a key that both toggles the category and flushes the composition,
// observers therefore see the input already rewritten with the commit.
package ime
