package gocrdt

import "testing"

func TestPositionId_MinMaxOrdering(t *testing.T) {
	if !MinPositionId.Less(MaxPositionId) {
		t.Fatal("expected MinPositionId < MaxPositionId")
	}
}

func TestBetween_ProducesValueInRange(t *testing.T) {
	dot := Dot{SiteID: 1, Counter: 1}
	mid := Between(MinPositionId, MaxPositionId, dot)

	if !MinPositionId.Less(mid) {
		t.Error("expected MinPositionId < mid")
	}
	if !mid.Less(MaxPositionId) {
		t.Error("expected mid < MaxPositionId")
	}
}

func TestBetween_RepeatedInsertionStaysOrdered(t *testing.T) {
	lo := MinPositionId
	hi := MaxPositionId
	prev := lo
	for i := uint32(1); i <= 20; i++ {
		dot := Dot{SiteID: 1, Counter: i}
		mid := Between(prev, hi, dot)
		if !prev.Less(mid) || !mid.Less(hi) {
			t.Fatalf("iteration %d: expected %v < %v < %v", i, prev, mid, hi)
		}
		prev = mid
	}
}

func TestBetween_ConcurrentInsertsAtDifferentSitesDiverge(t *testing.T) {
	dotA := Dot{SiteID: 1, Counter: 1}
	dotB := Dot{SiteID: 2, Counter: 1}

	a := BetweenPositions(MinPositionId, MaxPositionId, dotA, func(lo, hi int) int { return lo })
	b := BetweenPositions(MinPositionId, MaxPositionId, dotB, func(lo, hi int) int { return hi })

	if a.Equal(b) {
		t.Error("expected distinct positions for distinct deterministic pick strategies")
	}
}

func TestPositionId_CompareTotalOrder(t *testing.T) {
	dot1 := Dot{SiteID: 1, Counter: 1}
	dot2 := Dot{SiteID: 1, Counter: 2}

	p1 := Between(MinPositionId, MaxPositionId, dot1)
	p2 := Between(p1, MaxPositionId, dot2)

	if p1.Compare(p2) != -1 {
		t.Errorf("expected p1 < p2, got compare=%d", p1.Compare(p2))
	}
	if p2.Compare(p1) != 1 {
		t.Errorf("expected p2 > p1, got compare=%d", p2.Compare(p1))
	}
	if p1.Compare(p1) != 0 {
		t.Error("expected p1 == p1")
	}
}
