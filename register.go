package gocrdt

import "sync"

// Register is a multi-value register: a single logical slot that,
// absent concurrent writes, holds exactly one value, but preserves
// every value written concurrently rather than picking an arbitrary
// winner (the caller decides how to reconcile). Grounded on
// original_source/ditto/src/register.rs, adapted to the newer
// derived-tombstone family (original_source/ditto/src/map2.rs's merge
// rule) rather than register.rs's own explicit-tombstone variant, per
// the Open Question decision recorded in DESIGN.md.
type Register[T any] struct {
	replica
	mu       sync.RWMutex
	elements []registerElement[T]
	cached   cachedOps[RegisterOp[T]]
}

type registerElement[T any] struct {
	Dot   Dot `json:"dot"`
	Value T   `json:"value"`
}

// RegisterOp is the wire op for a single Update: it replaces every
// element present on the writer's side at the time of the write with
// one new element.
type RegisterOp[T any] struct {
	Inserted registerElement[T] `json:"inserted"`
	Removed  []Dot              `json:"removed"`
}

// RegisterState is the full snapshot form of a Register.
type RegisterState[T any] struct {
	Elements []registerElement[T] `json:"elements"`
	Summary  *CausalSummary       `json:"summary"`
}

// NewRegister creates a register already holding value, written by
// siteID. Unlike Counter/Set/Map, a Register can never be legitimately
// empty — it must always resolve to at least one value — so
// construction takes the initial value directly.
func NewRegister[T any](siteID uint32, value T) *Register[T] {
	r := &Register[T]{replica: newReplica(siteID)}
	dot := r.nextDot()
	r.elements = []registerElement[T]{{Dot: dot, Value: value}}
	return r
}

// FromRegisterState rebuilds a Register from a captured state.
func FromRegisterState[T any](state RegisterState[T], siteID uint32) *Register[T] {
	r := &Register[T]{replica: newReplica(siteID), elements: append([]registerElement[T](nil), state.Elements...)}
	if state.Summary != nil {
		r.summary.Merge(state.Summary)
	}
	for _, e := range r.elements {
		r.summary.Witness(e.Dot)
	}
	return r
}

// Value returns every value currently held by the register. Its
// length is 1 in the common case and greater than 1 only while
// concurrent writes from different sites remain unreconciled —
// the next Update from any site collapses it back to one element.
func (r *Register[T]) Value() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, len(r.elements))
	for i, e := range r.elements {
		out[i] = e.Value
	}
	return out
}

// State returns a snapshot safe to serialize or hand to
// FromRegisterState.
func (r *Register[T]) State() RegisterState[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RegisterState[T]{
		Elements: append([]registerElement[T](nil), r.elements...),
		Summary:  r.summary.Clone(),
	}
}

// CloneState is an alias for State.
func (r *Register[T]) CloneState() RegisterState[T] { return r.State() }

// Update replaces every value currently visible to this replica with
// value, returning the op to broadcast. Concurrent Updates on other
// replicas are not lost: merge keeps any element neither side has
// locally removed.
func (r *Register[T]) Update(value T) RegisterOp[T] {
	dot := r.nextDot()

	r.mu.Lock()
	removed := make([]Dot, len(r.elements))
	for i, e := range r.elements {
		removed[i] = e.Dot
	}
	inserted := registerElement[T]{Dot: dot, Value: value}
	r.elements = []registerElement[T]{inserted}
	r.mu.Unlock()

	op := RegisterOp[T]{Inserted: inserted, Removed: removed}
	if r.AwaitingSiteID() {
		r.cached.push(op)
	}
	return op
}

// RegisterLocalOp describes how a remote op changed the locally
// visible value set, for callers projecting CRDT ops to UI updates.
type RegisterLocalOp[T any] struct {
	Values []T
}

// ExecuteOp applies a remote Update. Any currently-held element whose
// dot appears in Removed is dropped, and the new element is added
// unless this replica has already observed its dot (so a repeated
// delivery changes nothing). Returns the resulting value set.
func (r *Register[T]) ExecuteOp(op RegisterOp[T]) RegisterLocalOp[T] {
	r.mu.Lock()
	defer r.mu.Unlock()

	removedSet := make(map[Dot]struct{}, len(op.Removed))
	for _, d := range op.Removed {
		removedSet[d] = struct{}{}
	}

	kept := r.elements[:0]
	for _, e := range r.elements {
		if _, gone := removedSet[e.Dot]; !gone {
			kept = append(kept, e)
		}
	}
	if !r.summary.Contains(op.Inserted.Dot) {
		kept = append(kept, op.Inserted)
		r.witness(op.Inserted.Dot)
	}
	r.elements = kept

	values := make([]T, len(r.elements))
	for i, e := range r.elements {
		values[i] = e.Value
	}
	return RegisterLocalOp[T]{Values: values}
}

// ValidateAndExecuteOp is ExecuteOp guarded by an expected-site check:
// an op whose inserted element claims a site other than expectedSite
// is rejected with ErrInvalidOp before it ever touches r.elements,
// since only the owning site may mint an element under its own id.
func (r *Register[T]) ValidateAndExecuteOp(op RegisterOp[T], expectedSite uint32) (RegisterLocalOp[T], error) {
	if op.Inserted.Dot.SiteID != expectedSite {
		return RegisterLocalOp[T]{}, ErrInvalidOp
	}
	return r.ExecuteOp(op), nil
}

// Merge absorbs other's full state using the keep-iff rule shared with
// Set and Map: an element survives if it is present on both sides, or
// if it is present on this side but the peer's summary has not yet
// observed its dot (meaning the peer simply hasn't heard about it yet,
// not that the peer deleted it).
func (r *Register[T]) Merge(other *Register[T]) {
	otherState := other.State()

	r.mu.Lock()
	defer r.mu.Unlock()

	otherByDot := make(map[Dot]registerElement[T], len(otherState.Elements))
	for _, e := range otherState.Elements {
		otherByDot[e.Dot] = e
	}

	merged := make([]registerElement[T], 0, len(r.elements)+len(otherState.Elements))
	seen := make(map[Dot]struct{})

	for _, e := range r.elements {
		if _, inOther := otherByDot[e.Dot]; inOther || !otherState.Summary.Contains(e.Dot) {
			merged = append(merged, e)
			seen[e.Dot] = struct{}{}
		}
	}
	for _, e := range otherState.Elements {
		if _, already := seen[e.Dot]; already {
			continue
		}
		if r.summary.Contains(e.Dot) {
			continue
		}
		merged = append(merged, e)
		seen[e.Dot] = struct{}{}
	}

	r.elements = merged
	r.summary.Merge(otherState.Summary)
}

// AddSiteID assigns this replica's network site id exactly once and
// rewrites any elements and cached ops still stamped under the
// placeholder site 0.
func (r *Register[T]) AddSiteID(site uint32) ([]RegisterOp[T], error) {
	if err := r.assignSite(site); err != nil {
		return nil, err
	}

	r.mu.Lock()
	for i, e := range r.elements {
		if e.Dot.SiteID == 0 {
			r.elements[i].Dot.SiteID = site
		}
	}
	r.mu.Unlock()

	rewriteDot := func(d Dot) Dot {
		if d.SiteID == 0 {
			d.SiteID = site
		}
		return d
	}
	return r.cached.drain(func(op RegisterOp[T]) RegisterOp[T] {
		op.Inserted.Dot = rewriteDot(op.Inserted.Dot)
		for i, d := range op.Removed {
			op.Removed[i] = rewriteDot(d)
		}
		return op
	}), nil
}
