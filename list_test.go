package gocrdt

import (
	"reflect"
	"testing"
)

func TestList_PushAndValue(t *testing.T) {
	l := NewList[string](1)
	l.Push("a")
	l.Push("b")
	l.Push("c")

	if !reflect.DeepEqual(l.Value(), []string{"a", "b", "c"}) {
		t.Fatalf("unexpected order: %v", l.Value())
	}
	if l.Len() != 3 {
		t.Fatalf("expected len 3, got %d", l.Len())
	}
}

func TestList_InsertAtIndex(t *testing.T) {
	l := NewList[string](1)
	l.Push("a")
	l.Push("c")
	if _, err := l.Insert(1, "b"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if !reflect.DeepEqual(l.Value(), []string{"a", "b", "c"}) {
		t.Fatalf("unexpected order: %v", l.Value())
	}
}

func TestList_RemoveAndPop(t *testing.T) {
	l := NewList[string](1)
	l.Push("a")
	l.Push("b")
	l.Push("c")

	val, _, err := l.Remove(1)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if val != "b" {
		t.Fatalf("expected removed value b, got %s", val)
	}
	if !reflect.DeepEqual(l.Value(), []string{"a", "c"}) {
		t.Fatalf("unexpected order after remove: %v", l.Value())
	}

	val, _, err = l.Pop()
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if val != "c" {
		t.Fatalf("expected popped value c, got %s", val)
	}
}

func TestList_PopEmptyErrors(t *testing.T) {
	l := NewList[string](1)
	if _, _, err := l.Pop(); err != ErrOutOfBounds {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
}

func TestList_ConcurrentInsertConverges(t *testing.T) {
	a := NewList[string](1)
	a.Push("a")
	a.Push("c")
	b := FromListState(a.State(), 2)

	opA, err := a.Insert(1, "from-a")
	if err != nil {
		t.Fatalf("a insert: %v", err)
	}
	opB, err := b.Insert(1, "from-b")
	if err != nil {
		t.Fatalf("b insert: %v", err)
	}

	a.ExecuteOp(opB)
	b.ExecuteOp(opA)

	if !reflect.DeepEqual(a.Value(), b.Value()) {
		t.Fatalf("expected convergence, got a=%v b=%v", a.Value(), b.Value())
	}
	if len(a.Value()) != 4 {
		t.Fatalf("expected 4 elements, got %v", a.Value())
	}
}

func TestList_MergeConverges(t *testing.T) {
	a := NewList[string](1)
	a.Push("x")
	b := FromListState(a.State(), 2)

	a.Push("from-a")
	b.Push("from-b")

	a.Merge(b)
	b.Merge(a)

	if !reflect.DeepEqual(a.Value(), b.Value()) {
		t.Fatalf("expected convergence, got a=%v b=%v", a.Value(), b.Value())
	}

	a.Merge(b)
	if len(a.Value()) != 3 {
		t.Fatalf("expected idempotent merge with 3 elements, got %v", a.Value())
	}
}

func TestList_RemoveBeforeInsertObservedIsNoop(t *testing.T) {
	a := NewList[string](1)
	a.Push("only")
	b := NewList[string](2)

	op := ListOp[string]{Remove: &a.tree.Elements()[0].UID}
	if local := b.ExecuteOp(op); local != nil {
		t.Fatalf("expected nil local op for unknown remove target, got %+v", local)
	}
}

func TestList_ValidateAndExecuteOpRejectsSiteMismatch(t *testing.T) {
	a := NewList[string](1)
	op, err := a.Push("v")
	if err != nil {
		t.Fatalf("Push: %v", err)
	}

	b := NewList[string](2)
	if _, err := b.ValidateAndExecuteOp(op, 99); err != ErrInvalidOp {
		t.Fatalf("expected ErrInvalidOp for a site mismatch, got %v", err)
	}
	if len(b.Value()) != 0 {
		t.Fatalf("expected rejected op to leave list untouched, got %v", b.Value())
	}

	local, err := b.ValidateAndExecuteOp(op, 1)
	if err != nil {
		t.Fatalf("ValidateAndExecuteOp: %v", err)
	}
	if local == nil {
		t.Fatal("expected non-nil local op for accepted insert")
	}
	if !reflect.DeepEqual(b.Value(), []string{"v"}) {
		t.Fatalf("expected accepted op applied, got %v", b.Value())
	}
}

func TestList_AddSiteIDRewritesUIDs(t *testing.T) {
	l := NewList[string](0)
	op, err := l.Push("v")
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if op.Insert.UID.SiteID != 0 {
		t.Fatalf("expected uid minted under site 0, got %d", op.Insert.UID.SiteID)
	}

	rewritten, err := l.AddSiteID(6)
	if err != nil {
		t.Fatalf("AddSiteID: %v", err)
	}
	if len(rewritten) != 1 || rewritten[0].Insert.UID.SiteID != 6 {
		t.Fatalf("expected cached op rewritten to site 6, got %+v", rewritten)
	}
	if !reflect.DeepEqual(l.Value(), []string{"v"}) {
		t.Fatalf("expected value preserved, got %v", l.Value())
	}
}
