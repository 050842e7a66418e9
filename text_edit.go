package gocrdt

import "strings"

// TextEdit represents one pending local text change: delete Len runes
// starting at Idx, then insert Text. It lets a caller (typically a UI
// text-input loop) summarise a burst of keystrokes as one change. It
// has no bearing on convergence — Text.ExecuteOp and Text.Merge never
// see a TextEdit, and nothing converts one into ops: the replicated
// ops are the per-rune TextOps that InsertAt/RemoveAt return. Ported from
// original_source/ditto/src/text2/text_edit.rs.
type TextEdit struct {
	Idx  int
	Len  int
	Text string
}

// TryMerge attempts to fold a new edit (idx, len, text) into e in
// place, returning whether it succeeded. It succeeds only when the new
// edit overlaps e's span and e's accumulated text doesn't already end
// in a newline (a paragraph break is treated as a natural batch
// boundary).
func (e *TextEdit) TryMerge(idx, length int, text string) bool {
	if !e.shouldMerge(idx, length) {
		return false
	}

	deletesBefore := saturatingSub(e.Idx, idx)
	insertIdx := saturatingSub(idx, e.Idx)

	textRunes := []rune(e.Text)
	textLen := len(textRunes)

	deletesAfter := length - deletesBefore
	textDeleteLen := deletesAfter
	if max := textLen - insertIdx; textDeleteLen > max {
		textDeleteLen = max
	}
	if textDeleteLen < 0 {
		textDeleteLen = 0
	}
	deletesAfter = saturatingSub(deletesAfter, textDeleteLen)

	if idx < e.Idx {
		e.Idx = idx
	}
	e.Len += deletesBefore + deletesAfter

	spliced := append([]rune(nil), textRunes[:insertIdx]...)
	spliced = append(spliced, []rune(text)...)
	spliced = append(spliced, textRunes[insertIdx+textDeleteLen:]...)
	e.Text = string(spliced)
	return true
}

// ShiftOrDestroy adjusts e's Idx for a remote edit (idx, len, text)
// that lands entirely before or after e's span, returning the
// adjusted edit. It returns false if the remote edit overlaps e's
// span — at that point e's premise (a clean, disjoint local edit) no
// longer holds and the caller should discard it rather than guess.
func (e TextEdit) ShiftOrDestroy(idx, length int, text string) (TextEdit, bool) {
	textLen := len([]rune(text))
	switch {
	case idx+length <= e.Idx:
		e.Idx = e.Idx - length + textLen
		return e, true
	case idx >= e.Idx+len([]rune(e.Text)):
		return e, true
	default:
		return TextEdit{}, false
	}
}

func (e *TextEdit) shouldMerge(idx, length int) bool {
	return e.overlapsWith(idx, length) && !strings.HasSuffix(e.Text, "\n")
}

func (e *TextEdit) overlapsWith(idx, length int) bool {
	textLen := len([]rune(e.Text))
	return idx+length >= e.Idx && idx <= e.Idx+textLen
}

// CompactTextEdits reduces a sequence of pending edits to the minimal
// sequence with the same effect, by folding every edit into its
// predecessor wherever TryMerge succeeds. O(N).
func CompactTextEdits(edits []TextEdit) []TextEdit {
	if len(edits) < 2 {
		return edits
	}
	compactIdx := 0
	for i := 1; i < len(edits); i++ {
		edit := edits[i]
		if !edits[compactIdx].TryMerge(edit.Idx, edit.Len, edit.Text) {
			compactIdx++
			edits[compactIdx] = edit
		}
	}
	return edits[:compactIdx+1]
}

func saturatingSub(a, b int) int {
	if a < b {
		return 0
	}
	return a - b
}
