package gocrdt

import "testing"

func TestTextEdit_TryMergeOverlapping(t *testing.T) {
	e := TextEdit{Idx: 0, Len: 0, Text: "h"}
	if !e.TryMerge(1, 0, "i") {
		t.Fatal("expected adjacent edit to merge")
	}
	if e.Text != "hi" {
		t.Fatalf("expected merged text 'hi', got %q", e.Text)
	}
}

func TestTextEdit_TryMergeRejectsDisjoint(t *testing.T) {
	e := TextEdit{Idx: 0, Len: 0, Text: "h"}
	if e.TryMerge(10, 0, "z") {
		t.Fatal("expected far-apart edit to not merge")
	}
}

func TestTextEdit_TryMergeRejectsAfterNewline(t *testing.T) {
	e := TextEdit{Idx: 0, Len: 0, Text: "line\n"}
	if e.TryMerge(5, 0, "next") {
		t.Fatal("expected edit ending in newline to refuse further merges")
	}
}

func TestTextEdit_ShiftOrDestroy(t *testing.T) {
	e := TextEdit{Idx: 10, Len: 0, Text: "abc"}

	shifted, ok := e.ShiftOrDestroy(0, 2, "")
	if !ok {
		t.Fatal("expected shift to succeed for a remote edit entirely before e")
	}
	if shifted.Idx != 8 {
		t.Fatalf("expected idx shifted to 8, got %d", shifted.Idx)
	}

	after, ok := e.ShiftOrDestroy(20, 1, "")
	if !ok {
		t.Fatal("expected shift to succeed for a remote edit entirely after e")
	}
	if after.Idx != e.Idx {
		t.Fatalf("expected idx unchanged for a later edit, got %d", after.Idx)
	}

	_, ok = e.ShiftOrDestroy(10, 1, "")
	if ok {
		t.Fatal("expected overlapping remote edit to destroy e")
	}
}

func TestCompactTextEdits(t *testing.T) {
	edits := []TextEdit{
		{Idx: 0, Len: 0, Text: "h"},
		{Idx: 1, Len: 0, Text: "i"},
		{Idx: 100, Len: 0, Text: "z"},
	}
	compacted := CompactTextEdits(edits)
	if len(compacted) != 2 {
		t.Fatalf("expected 2 edits after compaction, got %d: %+v", len(compacted), compacted)
	}
	if compacted[0].Text != "hi" {
		t.Fatalf("expected first compacted edit 'hi', got %q", compacted[0].Text)
	}
}

func TestSaturatingSub(t *testing.T) {
	if saturatingSub(5, 3) != 2 {
		t.Error("expected 5-3=2")
	}
	if saturatingSub(3, 5) != 0 {
		t.Error("expected floor at 0")
	}
}
