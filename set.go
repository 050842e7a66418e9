package gocrdt

import "sync"

// Set is an observed-remove set: a value is present iff at least one
// "add" tag for it survives merging. Concurrent add and remove of the
// same value resolve in favor of the add (insert-wins), because a
// remove can only erase tags it has actually observed. Grounded on
// original_source/ditto/src/map2.rs's newer per-key element-list
// pattern, specialized to a set where the value itself is the key and
// each surviving dot is just a witness tag rather than carrying a
// payload.
type Set[T comparable] struct {
	replica
	mu       sync.RWMutex
	elements map[T][]Dot
	cached   cachedOps[SetOp[T]]
}

// SetOp is the wire op for one Insert or Remove. Insert is non-nil for
// an add (carrying the new witness dot); Removed lists the dots this
// replica observed for Value at the time of a remove.
type SetOp[T comparable] struct {
	Value   T     `json:"value"`
	Insert  *Dot  `json:"insert,omitempty"`
	Removed []Dot `json:"removed,omitempty"`
}

// SetState is the full snapshot form of a Set.
type SetState[T comparable] struct {
	Elements map[T][]Dot    `json:"elements"`
	Summary  *CausalSummary `json:"summary"`
}

// NewSet returns an empty set for siteID.
func NewSet[T comparable](siteID uint32) *Set[T] {
	return &Set[T]{replica: newReplica(siteID), elements: make(map[T][]Dot)}
}

// FromSetState rebuilds a Set from a captured state.
func FromSetState[T comparable](state SetState[T], siteID uint32) *Set[T] {
	s := NewSet[T](siteID)
	for value, dots := range state.Elements {
		s.elements[value] = append([]Dot(nil), dots...)
	}
	if state.Summary != nil {
		s.summary.Merge(state.Summary)
	}
	for _, dots := range s.elements {
		for _, d := range dots {
			s.summary.Witness(d)
		}
	}
	return s
}

// Contains reports whether value is currently a member.
func (s *Set[T]) Contains(value T) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.elements[value]) > 0
}

// Value returns every value currently a member, in no particular order.
func (s *Set[T]) Value() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.elements))
	for v, dots := range s.elements {
		if len(dots) > 0 {
			out = append(out, v)
		}
	}
	return out
}

// State returns a snapshot safe to serialize or hand to FromSetState.
func (s *Set[T]) State() SetState[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[T][]Dot, len(s.elements))
	for v, dots := range s.elements {
		out[v] = append([]Dot(nil), dots...)
	}
	return SetState[T]{Elements: out, Summary: s.summary.Clone()}
}

// CloneState is an alias for State.
func (s *Set[T]) CloneState() SetState[T] { return s.State() }

// Insert adds value, replacing whatever this replica could already
// see for it, and returns the op to broadcast. A concurrent remove
// that hasn't observed the new tag still loses to this insert: the
// remove can only erase dots it actually saw.
func (s *Set[T]) Insert(value T) SetOp[T] {
	dot := s.nextDot()

	s.mu.Lock()
	removed := s.elements[value]
	s.elements[value] = []Dot{dot}
	s.mu.Unlock()

	op := SetOp[T]{Value: value, Insert: &dot, Removed: removed}
	if s.AwaitingSiteID() {
		s.cached.push(op)
	}
	return op
}

// Remove deletes value, returning the op to broadcast, or
// ErrDoesNotExist if value is not currently a member.
func (s *Set[T]) Remove(value T) (SetOp[T], error) {
	s.mu.Lock()
	dots, ok := s.elements[value]
	if !ok || len(dots) == 0 {
		s.mu.Unlock()
		return SetOp[T]{}, ErrDoesNotExist
	}
	delete(s.elements, value)
	s.mu.Unlock()

	op := SetOp[T]{Value: value, Removed: dots}
	if s.AwaitingSiteID() {
		s.cached.push(op)
	}
	return op, nil
}

// ExecuteOp applies a remote Insert or Remove.
func (s *Set[T]) ExecuteOp(op SetOp[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if op.Insert != nil && !s.summary.Contains(*op.Insert) {
		s.elements[op.Value] = append(s.elements[op.Value], *op.Insert)
		s.witness(*op.Insert)
	}
	if len(op.Removed) > 0 {
		removedSet := make(map[Dot]struct{}, len(op.Removed))
		for _, d := range op.Removed {
			removedSet[d] = struct{}{}
		}
		kept := s.elements[op.Value][:0]
		for _, d := range s.elements[op.Value] {
			if _, gone := removedSet[d]; !gone {
				kept = append(kept, d)
			}
		}
		if len(kept) == 0 {
			delete(s.elements, op.Value)
		} else {
			s.elements[op.Value] = kept
		}
	}
}

// ValidateAndExecuteOp is ExecuteOp guarded by an expected-site check:
// an Insert whose new tag claims a site other than expectedSite is
// rejected with ErrInvalidOp. A Remove-only op carries no inserted
// element, so it is never subject to this check.
func (s *Set[T]) ValidateAndExecuteOp(op SetOp[T], expectedSite uint32) error {
	if op.Insert != nil && op.Insert.SiteID != expectedSite {
		return ErrInvalidOp
	}
	s.ExecuteOp(op)
	return nil
}

// Merge absorbs other's full state: a (value, dot) tag survives iff it
// is present on both sides, or present on this side but not yet
// observed by the peer's summary (the peer simply hasn't heard of it,
// as opposed to having deliberately removed it).
func (s *Set[T]) Merge(other *Set[T]) {
	otherState := other.State()

	s.mu.Lock()
	defer s.mu.Unlock()

	values := make(map[T]struct{}, len(s.elements)+len(otherState.Elements))
	for v := range s.elements {
		values[v] = struct{}{}
	}
	for v := range otherState.Elements {
		values[v] = struct{}{}
	}

	for v := range values {
		mine := s.elements[v]
		theirs := otherState.Elements[v]
		theirSet := make(map[Dot]struct{}, len(theirs))
		for _, d := range theirs {
			theirSet[d] = struct{}{}
		}

		merged := make([]Dot, 0, len(mine)+len(theirs))
		seen := make(map[Dot]struct{})
		for _, d := range mine {
			if _, inTheirs := theirSet[d]; inTheirs || !otherState.Summary.Contains(d) {
				merged = append(merged, d)
				seen[d] = struct{}{}
			}
		}
		for _, d := range theirs {
			if _, already := seen[d]; already {
				continue
			}
			if s.summary.Contains(d) {
				continue
			}
			merged = append(merged, d)
		}

		if len(merged) == 0 {
			delete(s.elements, v)
		} else {
			s.elements[v] = merged
		}
	}

	s.summary.Merge(otherState.Summary)
}

// AddSiteID assigns this replica's network site id exactly once and
// rewrites any tags and cached ops still stamped under the placeholder
// site 0.
func (s *Set[T]) AddSiteID(site uint32) ([]SetOp[T], error) {
	if err := s.assignSite(site); err != nil {
		return nil, err
	}

	s.mu.Lock()
	for _, dots := range s.elements {
		for i, d := range dots {
			if d.SiteID == 0 {
				dots[i].SiteID = site
			}
		}
	}
	s.mu.Unlock()

	rewriteDot := func(d Dot) Dot {
		if d.SiteID == 0 {
			d.SiteID = site
		}
		return d
	}
	return s.cached.drain(func(op SetOp[T]) SetOp[T] {
		if op.Insert != nil {
			rewritten := rewriteDot(*op.Insert)
			op.Insert = &rewritten
		}
		for i, d := range op.Removed {
			op.Removed[i] = rewriteDot(d)
		}
		return op
	}), nil
}
