package gocrdt

import "testing"

func TestReplica_AwaitingSiteIDLifecycle(t *testing.T) {
	r := newReplica(0)
	if !r.AwaitingSiteID() {
		t.Fatal("expected a site-0 replica to be awaiting a site id")
	}
	if err := r.assignSite(5); err != nil {
		t.Fatalf("assignSite: %v", err)
	}
	if r.AwaitingSiteID() {
		t.Fatal("expected replica to no longer be awaiting a site id")
	}
	if r.Site() != 5 {
		t.Fatalf("expected site 5, got %d", r.Site())
	}
	if err := r.assignSite(6); err != ErrAlreadyHasSiteID {
		t.Fatalf("expected ErrAlreadyHasSiteID, got %v", err)
	}
}

func TestReplica_AssignSiteRejectsZero(t *testing.T) {
	r := newReplica(0)
	if err := r.assignSite(0); err != ErrInvalidSiteID {
		t.Fatalf("expected ErrInvalidSiteID, got %v", err)
	}
}

func TestReplica_NextDotAndWitness(t *testing.T) {
	r := newReplica(1)
	dot := r.nextDot()
	if dot.SiteID != 1 || dot.Counter != 1 {
		t.Fatalf("expected {1,1}, got %+v", dot)
	}
	r.witness(Dot{SiteID: 2, Counter: 9})
	if !r.summary.Contains(Dot{SiteID: 2, Counter: 9}) {
		t.Fatal("expected witnessed dot to be observed")
	}
}

func TestCachedOps_PushAndDrain(t *testing.T) {
	var c cachedOps[int]
	c.push(1)
	c.push(2)

	drained := c.drain(func(v int) int { return v * 10 })
	if len(drained) != 2 || drained[0] != 10 || drained[1] != 20 {
		t.Fatalf("unexpected drain result: %v", drained)
	}

	if again := c.drain(func(v int) int { return v }); len(again) != 0 {
		t.Fatalf("expected empty cache after drain, got %v", again)
	}
}
