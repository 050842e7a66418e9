package gocrdt

import "testing"

func TestDot_Compare(t *testing.T) {
	a := Dot{SiteID: 1, Counter: 5}
	b := Dot{SiteID: 1, Counter: 6}
	c := Dot{SiteID: 2, Counter: 1}

	if !a.Less(b) {
		t.Error("expected a < b on counter")
	}
	if !b.Less(c) {
		t.Error("expected b < c on site id")
	}
	if a.Compare(a) != 0 {
		t.Error("expected a == a")
	}
	if c.Compare(a) != 1 {
		t.Error("expected c > a")
	}
}

func TestCausalSummary_WitnessAndContains(t *testing.T) {
	s := NewCausalSummary()
	dot := s.GetDot(1)
	if dot.Counter != 1 {
		t.Fatalf("expected counter 1, got %d", dot.Counter)
	}
	if !s.Contains(dot) {
		t.Error("expected summary to contain its own minted dot")
	}
	if s.Contains(Dot{SiteID: 1, Counter: 2}) {
		t.Error("did not expect summary to contain an unminted dot")
	}

	s.Witness(Dot{SiteID: 2, Counter: 10})
	if s.Get(2) != 10 {
		t.Errorf("expected site 2 mark 10, got %d", s.Get(2))
	}
}

func TestCausalSummary_MergeIsMax(t *testing.T) {
	a := NewCausalSummary()
	b := NewCausalSummary()
	a.Witness(Dot{SiteID: 1, Counter: 3})
	b.Witness(Dot{SiteID: 1, Counter: 7})
	b.Witness(Dot{SiteID: 2, Counter: 2})

	a.Merge(b)
	if a.Get(1) != 7 {
		t.Errorf("expected max(3,7)=7, got %d", a.Get(1))
	}
	if a.Get(2) != 2 {
		t.Errorf("expected site 2 mark 2, got %d", a.Get(2))
	}
}

func TestCausalSummary_Rewrite(t *testing.T) {
	s := NewCausalSummary()
	s.Witness(Dot{SiteID: 0, Counter: 5})
	s.Witness(Dot{SiteID: 3, Counter: 2})

	s.Rewrite(3)
	if s.Get(0) != 0 {
		t.Error("expected site 0 mark cleared after rewrite")
	}
	if s.Get(3) != 5 {
		t.Errorf("expected site 3 mark to absorb max(2,5)=5, got %d", s.Get(3))
	}
}

func TestCausalSummary_JSONRoundtrip(t *testing.T) {
	s := NewCausalSummary()
	s.Witness(Dot{SiteID: 1, Counter: 4})

	data, err := s.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	restored := NewCausalSummary()
	if err := restored.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.Get(1) != 4 {
		t.Errorf("expected restored mark 4, got %d", restored.Get(1))
	}
}

func TestTombstones_InsertContainsMerge(t *testing.T) {
	a := NewTombstones()
	b := NewTombstones()
	dot1 := Dot{SiteID: 1, Counter: 1}
	dot2 := Dot{SiteID: 2, Counter: 1}

	a.Insert(dot1)
	b.Insert(dot2)
	a.Merge(b)

	if !a.Contains(dot1) || !a.Contains(dot2) {
		t.Error("expected union of both tombstone sets")
	}
}
