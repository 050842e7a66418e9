package gocrdt

import "testing"

func setContains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func TestSet_InsertAndContains(t *testing.T) {
	s := NewSet[string](1)
	s.Insert("a")
	s.Insert("b")

	if !s.Contains("a") || !s.Contains("b") {
		t.Fatal("expected both inserted values present")
	}
	if s.Contains("c") {
		t.Fatal("did not expect absent value present")
	}
}

func TestSet_RemoveAbsentErrors(t *testing.T) {
	s := NewSet[string](1)
	if _, err := s.Remove("missing"); err != ErrDoesNotExist {
		t.Fatalf("expected ErrDoesNotExist, got %v", err)
	}
}

func TestSet_RemoveThenInsertWins(t *testing.T) {
	a := NewSet[string](1)
	a.Insert("x")
	b := FromSetState(a.State(), 2)

	removeOp, err := a.Remove("x")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	insertOp := b.Insert("x")

	a.ExecuteOp(insertOp)
	b.ExecuteOp(removeOp)

	if !a.Contains("x") {
		t.Error("expected insert-wins on concurrent add/remove (a)")
	}
	if !b.Contains("x") {
		t.Error("expected insert-wins on concurrent add/remove (b)")
	}
}

func TestSet_MergeConverges(t *testing.T) {
	a := NewSet[string](1)
	b := NewSet[string](2)

	a.Insert("a-only")
	b.Insert("b-only")

	a.Merge(b)
	b.Merge(a)

	av := a.Value()
	bv := b.Value()
	if !setContains(av, "a-only") || !setContains(av, "b-only") {
		t.Fatalf("expected both values in a, got %v", av)
	}
	if !setContains(bv, "a-only") || !setContains(bv, "b-only") {
		t.Fatalf("expected both values in b, got %v", bv)
	}

	a.Merge(b)
	if len(a.Value()) != 2 {
		t.Fatalf("expected idempotent merge, got %v", a.Value())
	}
}

func TestSet_ValidateAndExecuteOpRejectsSiteMismatch(t *testing.T) {
	a := NewSet[string](1)
	op := a.Insert("v")

	b := NewSet[string](2)
	if err := b.ValidateAndExecuteOp(op, 99); err != ErrInvalidOp {
		t.Fatalf("expected ErrInvalidOp for a site mismatch, got %v", err)
	}
	if b.Contains("v") {
		t.Fatal("expected rejected op to leave set untouched")
	}

	if err := b.ValidateAndExecuteOp(op, 1); err != nil {
		t.Fatalf("ValidateAndExecuteOp: %v", err)
	}
	if !b.Contains("v") {
		t.Fatal("expected accepted op applied")
	}
}

func TestSet_AddSiteIDRewritesTags(t *testing.T) {
	s := NewSet[string](0)
	op := s.Insert("v")
	if op.Insert.SiteID != 0 {
		t.Fatalf("expected op minted under site 0, got %d", op.Insert.SiteID)
	}

	rewritten, err := s.AddSiteID(4)
	if err != nil {
		t.Fatalf("AddSiteID: %v", err)
	}
	if len(rewritten) != 1 || rewritten[0].Insert.SiteID != 4 {
		t.Fatalf("expected cached op rewritten to site 4, got %+v", rewritten)
	}
	if !s.Contains("v") {
		t.Fatal("expected value still present after site assignment")
	}
}
