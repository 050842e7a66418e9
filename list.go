package gocrdt

import "sync"

// List is an ordered, LSEQ-addressed sequence CRDT: each element
// carries a PositionId that never changes once assigned, so inserts
// never renumber their neighbors. Backed by SequenceTree for O(log N)
// indexed access, insert, and remove. Grounded on
// original_source/ditto/src/list2.rs for the operation and merge
// semantics, generalized from its plain sorted Vec (O(N) shifting
// insert) to the order-statistic SequenceTree from
// original_source/ditto_tree/src/tree.rs, for O(log N) indexed behavior
// at scale.
type List[T any] struct {
	replica
	mu     sync.RWMutex
	tree   *SequenceTree[PositionId, listElement[T]]
	cached cachedOps[ListOp[T]]
}

type listElement[T any] struct {
	UID   PositionId `json:"uid"`
	Value T          `json:"value"`
}

func (e listElement[T]) ElementID() PositionId { return e.UID }
func (e listElement[T]) ElementLen() int        { return 1 }

// ListOp is the wire op for one Insert or Remove.
type ListOp[T any] struct {
	Insert *listElement[T] `json:"insert,omitempty"`
	Remove *PositionId     `json:"remove,omitempty"`
}

// ListLocalOp describes how a remote op changed the list's visible
// index order, for callers projecting ops onto a UI list.
type ListLocalOp[T any] struct {
	InsertIdx   int
	InsertValue T
	IsInsert    bool
	RemoveIdx   int
	IsRemove    bool
}

// ListState is the full snapshot form of a List.
type ListState[T any] struct {
	Elements []listElement[T] `json:"elements"`
	Summary  *CausalSummary   `json:"summary"`
}

// NewList returns an empty list for siteID.
func NewList[T any](siteID uint32) *List[T] {
	return &List[T]{replica: newReplica(siteID), tree: NewSequenceTree[PositionId, listElement[T]]()}
}

// FromListState rebuilds a List from a captured state.
func FromListState[T any](state ListState[T], siteID uint32) *List[T] {
	l := NewList[T](siteID)
	for _, e := range state.Elements {
		_ = l.tree.Insert(e)
	}
	if state.Summary != nil {
		l.summary.Merge(state.Summary)
	}
	for _, e := range state.Elements {
		l.summary.Witness(e.UID.Dot())
	}
	return l
}

// Len returns the number of elements in the list.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tree.Len()
}

// Get returns the value at idx, or ErrOutOfBounds.
func (l *List[T]) Get(idx int) (T, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	e, _, err := l.tree.GetByIndex(idx)
	return e.Value, err
}

// Value returns every element's value in list order.
func (l *List[T]) Value() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	elts := l.tree.Elements()
	out := make([]T, len(elts))
	for i, e := range elts {
		out[i] = e.Value
	}
	return out
}

// State returns a snapshot safe to serialize or hand to FromListState.
func (l *List[T]) State() ListState[T] {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return ListState[T]{Elements: l.tree.Elements(), Summary: l.summary.Clone()}
}

// CloneState is an alias for State.
func (l *List[T]) CloneState() ListState[T] { return l.State() }

func (l *List[T]) boundingUIDs(idx int) (PositionId, PositionId, error) {
	n := l.tree.Len()
	if idx < 0 || idx > n {
		return PositionId{}, PositionId{}, ErrOutOfBounds
	}
	lo := MinPositionId
	if idx > 0 {
		e, _, err := l.tree.GetByIndex(idx - 1)
		if err != nil {
			return PositionId{}, PositionId{}, err
		}
		lo = e.UID
	}
	hi := MaxPositionId
	if idx < n {
		e, _, err := l.tree.GetByIndex(idx)
		if err != nil {
			return PositionId{}, PositionId{}, err
		}
		hi = e.UID
	}
	return lo, hi, nil
}

// Push appends value to the end of the list.
func (l *List[T]) Push(value T) (ListOp[T], error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.insertLocked(l.tree.Len(), value)
}

// Insert places value at idx, shifting every later element one to the
// right. idx == Len() appends.
func (l *List[T]) Insert(idx int, value T) (ListOp[T], error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.insertLocked(idx, value)
}

func (l *List[T]) insertLocked(idx int, value T) (ListOp[T], error) {
	lo, hi, err := l.boundingUIDs(idx)
	if err != nil {
		return ListOp[T]{}, err
	}
	dot := l.nextDot()
	uid := Between(lo, hi, dot)
	elt := listElement[T]{UID: uid, Value: value}
	if err := l.tree.Insert(elt); err != nil {
		return ListOp[T]{}, err
	}

	op := ListOp[T]{Insert: &elt}
	if l.AwaitingSiteID() {
		l.cached.push(op)
	}
	return op, nil
}

// Pop removes and returns the last element, or ErrOutOfBounds if empty.
func (l *List[T]) Pop() (T, ListOp[T], error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tree.Len() == 0 {
		var zero T
		return zero, ListOp[T]{}, ErrOutOfBounds
	}
	return l.removeLocked(l.tree.Len() - 1)
}

// Remove deletes the element at idx, shifting every later element one
// to the left.
func (l *List[T]) Remove(idx int) (T, ListOp[T], error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removeLocked(idx)
}

func (l *List[T]) removeLocked(idx int) (T, ListOp[T], error) {
	var zero T
	e, _, err := l.tree.GetByIndex(idx)
	if err != nil {
		return zero, ListOp[T]{}, err
	}
	l.tree.Remove(e.UID)

	uid := e.UID
	op := ListOp[T]{Remove: &uid}
	if l.AwaitingSiteID() {
		l.cached.push(op)
	}
	return e.Value, op, nil
}

// ExecuteOp applies a remote Insert or Remove. Delivery must be
// causally ordered per originating site — a Remove for a uid this
// replica has not yet inserted is a no-op, matching list2.rs's
// option-returning execute_op, since the corresponding Insert is
// assumed to be in flight or already applied.
func (l *List[T]) ExecuteOp(op ListOp[T]) *ListLocalOp[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	if op.Insert != nil {
		if l.summary.Contains(op.Insert.UID.Dot()) {
			return nil
		}
		if err := l.tree.Insert(*op.Insert); err != nil {
			return nil
		}
		l.witness(op.Insert.UID.Dot())
		idx, _ := l.tree.IndexOf(op.Insert.UID)
		return &ListLocalOp[T]{IsInsert: true, InsertIdx: idx, InsertValue: op.Insert.Value}
	}
	if op.Remove != nil {
		idx, ok := l.tree.IndexOf(*op.Remove)
		if !ok {
			return nil
		}
		l.tree.Remove(*op.Remove)
		return &ListLocalOp[T]{IsRemove: true, RemoveIdx: idx}
	}
	return nil
}

// ValidateAndExecuteOp is ExecuteOp guarded by an expected-site check:
// an Insert whose uid claims a site other than expectedSite is
// rejected with ErrInvalidOp. A Remove carries no new uid of its own
// and is never subject to this check.
func (l *List[T]) ValidateAndExecuteOp(op ListOp[T], expectedSite uint32) (*ListLocalOp[T], error) {
	if op.Insert != nil && op.Insert.UID.SiteID != expectedSite {
		return nil, ErrInvalidOp
	}
	return l.ExecuteOp(op), nil
}

// Merge absorbs other's full state, walking both element lists in uid
// order exactly as list2.rs's Inner::merge does: an element present on
// only one side survives unless the other side's summary proves it
// was already observed and therefore must have been deliberately
// removed.
func (l *List[T]) Merge(other *List[T]) {
	otherState := other.State()

	l.mu.Lock()
	defer l.mu.Unlock()

	mine := l.tree.Elements()
	merged := make([]listElement[T], 0, len(mine)+len(otherState.Elements))

	i, j := 0, 0
	for i < len(mine) || j < len(otherState.Elements) {
		switch {
		case j >= len(otherState.Elements):
			e := mine[i]
			if !otherState.Summary.Contains(e.UID.Dot()) {
				merged = append(merged, e)
			}
			i++
		case i >= len(mine):
			e := otherState.Elements[j]
			if !l.summary.Contains(e.UID.Dot()) {
				merged = append(merged, e)
			}
			j++
		default:
			cmp := mine[i].UID.Compare(otherState.Elements[j].UID)
			switch {
			case cmp < 0:
				e := mine[i]
				if !otherState.Summary.Contains(e.UID.Dot()) {
					merged = append(merged, e)
				}
				i++
			case cmp == 0:
				merged = append(merged, mine[i])
				i++
				j++
			default:
				e := otherState.Elements[j]
				if !l.summary.Contains(e.UID.Dot()) {
					merged = append(merged, e)
				}
				j++
			}
		}
	}

	l.tree = NewSequenceTree[PositionId, listElement[T]]()
	for _, e := range merged {
		_ = l.tree.Insert(e)
	}
	l.summary.Merge(otherState.Summary)
}

// AddSiteID assigns this replica's network site id exactly once and
// rewrites any element uids and cached ops still stamped under the
// placeholder site 0.
func (l *List[T]) AddSiteID(site uint32) ([]ListOp[T], error) {
	if err := l.assignSite(site); err != nil {
		return nil, err
	}

	l.mu.Lock()
	elements := l.tree.Elements()
	rewritten := NewSequenceTree[PositionId, listElement[T]]()
	for _, e := range elements {
		if e.UID.SiteID == 0 {
			e.UID.SiteID = site
		}
		_ = rewritten.Insert(e)
	}
	l.tree = rewritten
	l.mu.Unlock()

	rewriteUID := func(u PositionId) PositionId {
		if u.SiteID == 0 {
			u.SiteID = site
		}
		return u
	}
	return l.cached.drain(func(op ListOp[T]) ListOp[T] {
		if op.Insert != nil {
			rewritten := *op.Insert
			rewritten.UID = rewriteUID(rewritten.UID)
			op.Insert = &rewritten
		}
		if op.Remove != nil {
			rewrittenUID := rewriteUID(*op.Remove)
			op.Remove = &rewrittenUID
		}
		return op
	}), nil
}
