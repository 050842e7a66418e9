package gocrdt

import "testing"

func rgaText(r *RGA[rune]) string {
	return string(r.Value().([]rune))
}

func TestRGA_FullLifeCycle(t *testing.T) {
	alice := NewRGA[rune](1)
	bob := NewRGA[rune](2)
	root := alice.RootDot()

	// 1. Basic Sequential Insert
	dotH := alice.Insert('H', root)
	dotE := alice.Insert('E', dotH)

	// Sync Bob
	bob.Merge(alice.Nodes())
	if rgaText(bob) != "HE" {
		t.Fatalf("Bob sync failed, got: %s", rgaText(bob))
	}

	// 2. Concurrent Sibling Insert
	// Alice types 'L' after 'E' -> HEL
	alice.Insert('L', dotE)
	// Bob types 'Y' after 'E' -> HEY
	bob.Insert('Y', dotE)

	// Cross Merge
	aliceState := alice.Nodes()
	bobState := bob.Nodes()

	alice.Merge(bobState)
	bob.Merge(aliceState)

	if rgaText(alice) != rgaText(bob) {
		t.Errorf("Divergence! Alice: %s, Bob: %s", rgaText(alice), rgaText(bob))
	}

	// Deterministic order: 'Y' (bob, site 2) > 'L' (alice, site 1) because
	// they share a counter and site 2 > site 1.
	if rgaText(alice) != "HEYL" {
		t.Errorf("Expected HEYL, got %s", rgaText(alice))
	}
}

func TestRGA_CausalOrderFixed(t *testing.T) {
	r := NewRGA[rune](3)
	root := r.RootDot()

	parentDot := Dot{SiteID: 9, Counter: 10}
	childDot := Dot{SiteID: 9, Counter: 11}

	parent := RGANode[rune]{Dot: parentDot, ParentDot: root, Value: 'P'}
	child := RGANode[rune]{Dot: childDot, ParentDot: parentDot, Value: 'C'}

	// Merge Child FIRST (Parent is missing)
	r.Merge([]RGANode[rune]{child})
	if rgaText(r) != "" {
		t.Errorf("Should be empty, waiting for parent. Got: %s", rgaText(r))
	}

	// Merge Parent SECOND
	r.Merge([]RGANode[rune]{parent})

	if rgaText(r) != "PC" {
		t.Errorf("Causal resolution failed. Expected PC, got: %s", rgaText(r))
	}
}

func TestRGA_CounterPriority(t *testing.T) {
	alice := NewRGA[rune](1)
	bob := NewRGA[rune](2)
	root := alice.RootDot()

	// 1. Setup: Both have "H"
	dotH := alice.Insert('H', root)
	bob.Merge(alice.Nodes())

	// 2. Alice performs TWO operations to push her local clock forward
	// Alice: H -> X -> A (counter for 'A' will be higher)
	_ = alice.Insert('X', dotH)
	dotA := alice.Insert('A', dotH)

	// 3. Bob performs ONE operation after 'H'
	dotB := bob.Insert('B', dotH)

	if dotA.Counter <= dotB.Counter {
		t.Errorf("Setup failed: Alice's counter (%d) should be > Bob's (%d)", dotA.Counter, dotB.Counter)
	}

	// 4. Merge
	alice.Merge(bob.Nodes())
	bob.Merge(alice.Nodes())

	// 5. 'A', 'X', and 'B' all share parent 'H'; siblings sort by counter
	// descending, so 'A' (the highest counter) must precede 'B'.
	text := rgaText(alice)

	foundA := false
	for _, char := range text {
		if char == 'A' {
			foundA = true
		}
		if char == 'B' && !foundA {
			t.Errorf("Counter sorting failed: 'B' appeared before 'A'. Text: %s", text)
		}
	}
}

func TestRGA_Tombstones(t *testing.T) {
	r := NewRGA[rune](1)
	dot1 := r.Insert('A', r.RootDot())
	r.Delete(dot1)

	if rgaText(r) != "" {
		t.Errorf("Expected empty string, got %s", rgaText(r))
	}
	if len(r.registry) != 2 { // root + A
		t.Errorf("Registry should keep tombstones")
	}
}

func TestRGA_RemoteDeletionPropagation(t *testing.T) {
	alice := NewRGA[rune](1)
	bob := NewRGA[rune](2)
	root := alice.RootDot()

	// 1. Setup: Alice types "Hi" and syncs with Bob
	dotH := alice.Insert('H', root)
	dotI := alice.Insert('i', dotH)

	bob.Merge(alice.Nodes())
	if rgaText(bob) != "Hi" {
		t.Fatalf("Setup failed: Bob should have 'Hi', got %s", rgaText(bob))
	}

	// 2. Action: Alice deletes 'i' locally
	alice.Delete(dotI)
	if rgaText(alice) != "H" {
		t.Errorf("Alice local delete failed: expected 'H', got %s", rgaText(alice))
	}

	// 3. Merge: Bob merges Alice's state again, observing the tombstone
	bob.Merge(alice.Nodes())

	if rgaText(bob) != "H" {
		t.Errorf("Remote deletion failed to propagate: Bob still has %s", rgaText(bob))
	}

	if node, exists := bob.registry[dotI]; !exists || !node.Deleted {
		t.Error("Bob's registry entry for 'i' should exist and be marked as Deleted")
	}
}
