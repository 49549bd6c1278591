package ime

import (
	"slices"
	"unicode/utf16"
)

// splice writes the engine's pending commit and preedit over the input's
// selection. The commit buffer is consumed; the preedit is left selected.
func (st *state) splice() {
	start, end, ok := st.target.SelectionRange()
	if !ok {
		start, end = 0, 0
	}

	text := utf16.Encode([]rune(st.target.Value()))
	end = min(max(end, 0), len(text))
	start = min(max(start, 0), end)
	// A selection edge inside a surrogate pair widens to the whole
	// character.
	if splitsPair(text, start) {
		start--
	}
	if splitsPair(text, end) {
		end++
	}
	before, after := text[:start], text[end:]

	commit := st.engine.CommitStr()
	st.engine.ClearCommit()
	preedit := st.engine.PreeditStr()

	commitUnits := utf16.Encode([]rune(commit))
	preeditUnits := utf16.Encode([]rune(preedit))

	value := slices.Concat(before, commitUnits, preeditUnits, after)
	st.target.SetValue(string(utf16.Decode(value)))

	newStart := start + len(commitUnits)
	newEnd := newStart + len(preeditUnits)
	if err := st.target.SetSelectionRange(newStart, newEnd); err != nil {
		st.log.Debug("selection not updated", "start", newStart, "end", newEnd, "error", err)
	}
}

// splitsPair reports whether offset i falls between the halves of a
// surrogate pair.
func splitsPair(text []uint16, i int) bool {
	return i > 0 && i < len(text) &&
		utf16.IsSurrogate(rune(text[i-1])) && text[i-1] < 0xDC00 &&
		utf16.IsSurrogate(rune(text[i])) && text[i] >= 0xDC00
}
