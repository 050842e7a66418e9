package gocrdt

import "testing"

func TestCounter_LocalIncrement(t *testing.T) {
	c := NewCounter(1)
	c.Increment(5)
	c.Increment(-2)

	if c.Value() != 3 {
		t.Fatalf("expected 3, got %d", c.Value())
	}
}

func TestCounter_ExecuteOpRequiresSequence(t *testing.T) {
	c := NewCounter(1)
	if err := c.ExecuteOp(CounterOp{Site: 2, Amount: 5, Counter: 1}); err != nil {
		t.Fatalf("first op should apply: %v", err)
	}
	if err := c.ExecuteOp(CounterOp{Site: 2, Amount: 1, Counter: 3}); err != ErrInvalidOp {
		t.Fatalf("expected ErrInvalidOp for a gap, got %v", err)
	}
	if err := c.ExecuteOp(CounterOp{Site: 2, Amount: 3, Counter: 2}); err != nil {
		t.Fatalf("expected contiguous op to apply, got %v", err)
	}
	if c.Value() != 8 {
		t.Fatalf("expected 8, got %d", c.Value())
	}
}

func TestCounter_ValidateAndExecuteOpIsIdempotent(t *testing.T) {
	c := NewCounter(1)
	op := CounterOp{Site: 2, Amount: 4, Counter: 1}
	if err := c.ValidateAndExecuteOp(op, 2); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := c.ValidateAndExecuteOp(op, 2); err != nil {
		t.Fatalf("replay should be a no-op, got error: %v", err)
	}
	if c.Value() != 4 {
		t.Fatalf("expected 4 after replay, got %d", c.Value())
	}
}

func TestCounter_ValidateAndExecuteOpRejectsSiteMismatch(t *testing.T) {
	c := NewCounter(1)
	op := CounterOp{Site: 2, Amount: 4, Counter: 1}
	if err := c.ValidateAndExecuteOp(op, 3); err != ErrInvalidOp {
		t.Fatalf("expected ErrInvalidOp for a site mismatch, got %v", err)
	}
	if c.Value() != 0 {
		t.Fatalf("expected rejected op to leave value untouched, got %d", c.Value())
	}
}

func TestCounter_MergeConverges(t *testing.T) {
	a := NewCounter(1)
	b := NewCounter(2)

	a.Increment(3)
	b.Increment(7)

	a.Merge(b)
	b.Merge(a)

	if a.Value() != b.Value() || a.Value() != 10 {
		t.Fatalf("expected convergence at 10, got a=%d b=%d", a.Value(), b.Value())
	}

	a.Merge(b)
	if a.Value() != 10 {
		t.Fatalf("expected idempotent merge, got %d", a.Value())
	}
}

func TestCounter_AddSiteIDRewritesCache(t *testing.T) {
	c := NewCounter(0)
	op := c.Increment(4)
	if op.Site != 0 {
		t.Fatalf("expected op minted under site 0, got %d", op.Site)
	}

	rewritten, err := c.AddSiteID(9)
	if err != nil {
		t.Fatalf("AddSiteID: %v", err)
	}
	if len(rewritten) != 1 || rewritten[0].Site != 9 {
		t.Fatalf("expected cached op rewritten to site 9, got %+v", rewritten)
	}
	if c.Value() != 4 {
		t.Fatalf("expected value preserved across site assignment, got %d", c.Value())
	}

	if _, err := c.AddSiteID(10); err != ErrAlreadyHasSiteID {
		t.Fatalf("expected ErrAlreadyHasSiteID, got %v", err)
	}
}

func TestCounter_StateRoundtrip(t *testing.T) {
	c := NewCounter(1)
	c.Increment(5)

	restored := FromCounterState(c.State(), 1)
	if restored.Value() != c.Value() {
		t.Fatalf("expected restored value %d, got %d", c.Value(), restored.Value())
	}
}
