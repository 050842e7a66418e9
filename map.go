package gocrdt

import "sync"

// Map is an observed-remove map: each key holds a small list of
// concurrently-written elements rather than a single value, so that
// concurrent writes to the same key are preserved as a multi-value
// slot instead of one silently clobbering the other. Ported directly
// from original_source/ditto/src/map2.rs, the newer family that tracks
// liveness via (CausalSummary, live elements) instead of an explicit
// tombstone set.
type Map[K comparable, V any] struct {
	replica
	mu       sync.RWMutex
	elements map[K][]mapElement[V]
	cached   cachedOps[MapOp[K, V]]
}

type mapElement[V any] struct {
	Dot   Dot `json:"dot"`
	Value V   `json:"value"`
}

// MapOp is the wire op for one Insert, Update, or Remove. Insert is
// non-nil for a write (a fresh element replacing whatever this replica
// could see at Key); Removed lists the dots this replica observed at
// Key at the time of the write or an explicit Remove.
type MapOp[K comparable, V any] struct {
	Key     K               `json:"key"`
	Insert  *mapElement[V]  `json:"insert,omitempty"`
	Removed []Dot           `json:"removed,omitempty"`
}

// MapState is the full snapshot form of a Map.
type MapState[K comparable, V any] struct {
	Elements map[K][]mapElement[V] `json:"elements"`
	Summary  *CausalSummary        `json:"summary"`
}

// NewMap returns an empty map for siteID.
func NewMap[K comparable, V any](siteID uint32) *Map[K, V] {
	return &Map[K, V]{replica: newReplica(siteID), elements: make(map[K][]mapElement[V])}
}

// FromMapState rebuilds a Map from a captured state.
func FromMapState[K comparable, V any](state MapState[K, V], siteID uint32) *Map[K, V] {
	m := NewMap[K, V](siteID)
	for key, elts := range state.Elements {
		m.elements[key] = append([]mapElement[V](nil), elts...)
	}
	if state.Summary != nil {
		m.summary.Merge(state.Summary)
	}
	for _, elts := range m.elements {
		for _, e := range elts {
			m.summary.Witness(e.Dot)
		}
	}
	return m
}

// Get returns every concurrently-written value currently at key. Its
// length is 0 if key is absent, 1 in the common uncontested case, and
// greater than 1 only while concurrent writes remain unreconciled.
func (m *Map[K, V]) Get(key K) []V {
	m.mu.RLock()
	defer m.mu.RUnlock()
	elts := m.elements[key]
	out := make([]V, len(elts))
	for i, e := range elts {
		out[i] = e.Value
	}
	return out
}

// Keys returns every key currently present.
func (m *Map[K, V]) Keys() []K {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]K, 0, len(m.elements))
	for k, elts := range m.elements {
		if len(elts) > 0 {
			out = append(out, k)
		}
	}
	return out
}

// State returns a snapshot safe to serialize or hand to FromMapState.
func (m *Map[K, V]) State() MapState[K, V] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[K][]mapElement[V], len(m.elements))
	for k, elts := range m.elements {
		out[k] = append([]mapElement[V](nil), elts...)
	}
	return MapState[K, V]{Elements: out, Summary: m.summary.Clone()}
}

// CloneState is an alias for State.
func (m *Map[K, V]) CloneState() MapState[K, V] { return m.State() }

// Insert writes value at key, replacing whatever this replica could
// see there, and returns the op to broadcast.
func (m *Map[K, V]) Insert(key K, value V) MapOp[K, V] {
	dot := m.nextDot()

	m.mu.Lock()
	removed := make([]Dot, len(m.elements[key]))
	for i, e := range m.elements[key] {
		removed[i] = e.Dot
	}
	inserted := mapElement[V]{Dot: dot, Value: value}
	m.elements[key] = []mapElement[V]{inserted}
	m.mu.Unlock()

	op := MapOp[K, V]{Key: key, Insert: &inserted, Removed: removed}
	if m.AwaitingSiteID() {
		m.cached.push(op)
	}
	return op
}

// Remove deletes key, returning the op to broadcast, or
// ErrDoesNotExist if key is not currently present.
func (m *Map[K, V]) Remove(key K) (MapOp[K, V], error) {
	m.mu.Lock()
	elts, ok := m.elements[key]
	if !ok || len(elts) == 0 {
		m.mu.Unlock()
		return MapOp[K, V]{}, ErrDoesNotExist
	}
	removed := make([]Dot, len(elts))
	for i, e := range elts {
		removed[i] = e.Dot
	}
	delete(m.elements, key)
	m.mu.Unlock()

	op := MapOp[K, V]{Key: key, Removed: removed}
	if m.AwaitingSiteID() {
		m.cached.push(op)
	}
	return op, nil
}

// MapLocalOp describes how a remote op changed the locally visible
// value set at a key.
type MapLocalOp[K comparable, V any] struct {
	Key    K
	Values []V
}

// ExecuteOp applies a remote Insert/Update/Remove.
func (m *Map[K, V]) ExecuteOp(op MapOp[K, V]) MapLocalOp[K, V] {
	m.mu.Lock()
	defer m.mu.Unlock()

	removedSet := make(map[Dot]struct{}, len(op.Removed))
	for _, d := range op.Removed {
		removedSet[d] = struct{}{}
	}

	kept := m.elements[op.Key][:0]
	for _, e := range m.elements[op.Key] {
		if _, gone := removedSet[e.Dot]; !gone {
			kept = append(kept, e)
		}
	}
	if op.Insert != nil && !m.summary.Contains(op.Insert.Dot) {
		kept = append(kept, *op.Insert)
		m.witness(op.Insert.Dot)
	}

	if len(kept) == 0 {
		delete(m.elements, op.Key)
	} else {
		m.elements[op.Key] = kept
	}

	values := make([]V, len(kept))
	for i, e := range kept {
		values[i] = e.Value
	}
	return MapLocalOp[K, V]{Key: op.Key, Values: values}
}

// ValidateAndExecuteOp is ExecuteOp guarded by an expected-site check:
// an Insert whose new element claims a site other than expectedSite is
// rejected with ErrInvalidOp before it ever touches m.elements. A
// Remove-only op carries no inserted element and is never subject to
// this check.
func (m *Map[K, V]) ValidateAndExecuteOp(op MapOp[K, V], expectedSite uint32) (MapLocalOp[K, V], error) {
	if op.Insert != nil && op.Insert.Dot.SiteID != expectedSite {
		return MapLocalOp[K, V]{}, ErrInvalidOp
	}
	return m.ExecuteOp(op), nil
}

// Merge absorbs other's full state using the same keep-iff rule as
// Set and Register: an element survives if it is present on both
// sides, or present on this side but not yet observed by the peer's
// summary.
func (m *Map[K, V]) Merge(other *Map[K, V]) {
	otherState := other.State()

	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make(map[K]struct{}, len(m.elements)+len(otherState.Elements))
	for k := range m.elements {
		keys[k] = struct{}{}
	}
	for k := range otherState.Elements {
		keys[k] = struct{}{}
	}

	for k := range keys {
		mine := m.elements[k]
		theirs := otherState.Elements[k]
		theirByDot := make(map[Dot]mapElement[V], len(theirs))
		for _, e := range theirs {
			theirByDot[e.Dot] = e
		}

		merged := make([]mapElement[V], 0, len(mine)+len(theirs))
		seen := make(map[Dot]struct{})
		for _, e := range mine {
			if _, inTheirs := theirByDot[e.Dot]; inTheirs || !otherState.Summary.Contains(e.Dot) {
				merged = append(merged, e)
				seen[e.Dot] = struct{}{}
			}
		}
		for _, e := range theirs {
			if _, already := seen[e.Dot]; already {
				continue
			}
			if m.summary.Contains(e.Dot) {
				continue
			}
			merged = append(merged, e)
		}

		if len(merged) == 0 {
			delete(m.elements, k)
		} else {
			m.elements[k] = merged
		}
	}

	m.summary.Merge(otherState.Summary)
}

// AddSiteID assigns this replica's network site id exactly once and
// rewrites any elements and cached ops still stamped under the
// placeholder site 0.
func (m *Map[K, V]) AddSiteID(site uint32) ([]MapOp[K, V], error) {
	if err := m.assignSite(site); err != nil {
		return nil, err
	}

	m.mu.Lock()
	for _, elts := range m.elements {
		for i, e := range elts {
			if e.Dot.SiteID == 0 {
				elts[i].Dot.SiteID = site
			}
		}
	}
	m.mu.Unlock()

	rewriteDot := func(d Dot) Dot {
		if d.SiteID == 0 {
			d.SiteID = site
		}
		return d
	}
	return m.cached.drain(func(op MapOp[K, V]) MapOp[K, V] {
		if op.Insert != nil {
			rewritten := *op.Insert
			rewritten.Dot = rewriteDot(rewritten.Dot)
			op.Insert = &rewritten
		}
		for i, d := range op.Removed {
			op.Removed[i] = rewriteDot(d)
		}
		return op
	}), nil
}
