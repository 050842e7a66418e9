package gocrdt

import "sync"

// Text is a collaborative plain-text CRDT: a sequence of individually
// addressed runes, each carrying its own PositionId, backed by the
// same SequenceTree used by List. Grounded on the rune-level structure
// implied by original_source/ditto/src/text/value.rs and
// original_source/ditto/src/list2.rs (Text is, at the replication
// layer, a List[rune] with a local-only edit-coalescing cache layered
// on top — see text_edit.go, ported from
// original_source/ditto/src/text2/text_edit.rs).
type Text struct {
	replica
	mu      sync.RWMutex
	tree    *SequenceTree[PositionId, runeElement]
	pending []TextEdit
	cached  cachedOps[TextOp]
}

type runeElement struct {
	UID PositionId `json:"uid"`
	Ch  rune       `json:"ch"`
}

func (e runeElement) ElementID() PositionId { return e.UID }
func (e runeElement) ElementLen() int        { return 1 }

// TextOp is the wire op for inserting or removing a single rune. A
// multi-rune edit (InsertAt/RemoveAt) expands into one TextOp per
// rune. A TextEdit (see text_edit.go) summarises local edits for
// display only; it is not an op, so every rune still travels as its
// own TextOp.
type TextOp struct {
	Insert *runeElement `json:"insert,omitempty"`
	Remove *PositionId  `json:"remove,omitempty"`
}

// TextLocalOp mirrors ListLocalOp for rune-granular edits.
type TextLocalOp struct {
	InsertIdx int
	InsertCh  rune
	IsInsert  bool
	RemoveIdx int
	IsRemove  bool
}

// TextState is the full snapshot form of a Text.
type TextState struct {
	Elements []runeElement  `json:"elements"`
	Summary  *CausalSummary `json:"summary"`
}

// NewText returns an empty text for siteID.
func NewText(siteID uint32) *Text {
	return &Text{replica: newReplica(siteID), tree: NewSequenceTree[PositionId, runeElement]()}
}

// FromTextState rebuilds a Text from a captured state.
func FromTextState(state TextState, siteID uint32) *Text {
	t := NewText(siteID)
	for _, e := range state.Elements {
		_ = t.tree.Insert(e)
	}
	if state.Summary != nil {
		t.summary.Merge(state.Summary)
	}
	for _, e := range state.Elements {
		t.summary.Witness(e.UID.Dot())
	}
	return t
}

// Len returns the text's length in runes.
func (t *Text) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tree.Len()
}

// Value returns the text's current contents as a string.
func (t *Text) Value() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	elts := t.tree.Elements()
	runes := make([]rune, len(elts))
	for i, e := range elts {
		runes[i] = e.Ch
	}
	return string(runes)
}

// State returns a snapshot safe to serialize or hand to FromTextState.
func (t *Text) State() TextState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return TextState{Elements: t.tree.Elements(), Summary: t.summary.Clone()}
}

// CloneState is an alias for State.
func (t *Text) CloneState() TextState { return t.State() }

func (t *Text) boundingUIDs(idx int) (PositionId, PositionId, error) {
	n := t.tree.Len()
	if idx < 0 || idx > n {
		return PositionId{}, PositionId{}, ErrOutOfBounds
	}
	lo := MinPositionId
	if idx > 0 {
		e, _, err := t.tree.GetByIndex(idx - 1)
		if err != nil {
			return PositionId{}, PositionId{}, err
		}
		lo = e.UID
	}
	hi := MaxPositionId
	if idx < n {
		e, _, err := t.tree.GetByIndex(idx)
		if err != nil {
			return PositionId{}, PositionId{}, err
		}
		hi = e.UID
	}
	return lo, hi, nil
}

// InsertAt inserts text at rune index idx, returning one op per rune
// in insertion order.
func (t *Text) InsertAt(idx int, text string) ([]TextOp, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	runes := []rune(text)
	ops := make([]TextOp, 0, len(runes))

	for i, r := range runes {
		lo, hi, err := t.boundingUIDs(idx + i)
		if err != nil {
			return ops, err
		}
		dot := t.nextDot()
		uid := Between(lo, hi, dot)
		elt := runeElement{UID: uid, Ch: r}
		if err := t.tree.Insert(elt); err != nil {
			return ops, err
		}
		op := TextOp{Insert: &elt}
		ops = append(ops, op)
		if t.AwaitingSiteID() {
			t.cached.push(op)
		}
	}
	return ops, nil
}

// RemoveAt deletes length runes starting at idx, returning one op per
// removed rune.
func (t *Text) RemoveAt(idx, length int) ([]TextOp, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if idx < 0 || length < 0 || idx+length > t.tree.Len() {
		return nil, ErrOutOfBounds
	}

	ops := make([]TextOp, 0, length)
	for i := 0; i < length; i++ {
		e, _, err := t.tree.GetByIndex(idx)
		if err != nil {
			return ops, err
		}
		t.tree.Remove(e.UID)
		uid := e.UID
		op := TextOp{Remove: &uid}
		ops = append(ops, op)
		if t.AwaitingSiteID() {
			t.cached.push(op)
		}
	}
	return ops, nil
}

// RecordLocalEdit folds a local (idx, len, text) edit into the pending
// edit batch, coalescing it with the previous pending edit when
// possible. This is purely a local UI convenience — it never touches
// the tree or the causal summary — callers still follow up with
// InsertAt/RemoveAt (or the expanded equivalent) to actually mutate
// the CRDT; FlushPendingEdits exists so a caller can inspect what a
// burst of keystrokes compacted down to before deciding how to batch
// its network sends.
func (t *Text) RecordLocalEdit(idx, length int, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.pending) > 0 {
		last := &t.pending[len(t.pending)-1]
		if last.TryMerge(idx, length, text) {
			return
		}
	}
	t.pending = append(t.pending, TextEdit{Idx: idx, Len: length, Text: text})
}

// FlushPendingEdits returns the compacted pending edit batch and
// clears it.
func (t *Text) FlushPendingEdits() []TextEdit {
	t.mu.Lock()
	defer t.mu.Unlock()
	compacted := CompactTextEdits(t.pending)
	out := append([]TextEdit(nil), compacted...)
	t.pending = nil
	return out
}

// ExecuteOp applies a remote rune Insert or Remove.
func (t *Text) ExecuteOp(op TextOp) *TextLocalOp {
	t.mu.Lock()
	defer t.mu.Unlock()

	if op.Insert != nil {
		if t.summary.Contains(op.Insert.UID.Dot()) {
			return nil
		}
		if err := t.tree.Insert(*op.Insert); err != nil {
			return nil
		}
		t.witness(op.Insert.UID.Dot())
		idx, _ := t.tree.IndexOf(op.Insert.UID)
		return &TextLocalOp{IsInsert: true, InsertIdx: idx, InsertCh: op.Insert.Ch}
	}
	if op.Remove != nil {
		idx, ok := t.tree.IndexOf(*op.Remove)
		if !ok {
			return nil
		}
		t.tree.Remove(*op.Remove)
		return &TextLocalOp{IsRemove: true, RemoveIdx: idx}
	}
	return nil
}

// ValidateAndExecuteOp is ExecuteOp guarded by an expected-site check:
// an Insert whose uid claims a site other than expectedSite is
// rejected with ErrInvalidOp. A Remove carries no new uid of its own
// and is never subject to this check.
func (t *Text) ValidateAndExecuteOp(op TextOp, expectedSite uint32) (*TextLocalOp, error) {
	if op.Insert != nil && op.Insert.UID.SiteID != expectedSite {
		return nil, ErrInvalidOp
	}
	return t.ExecuteOp(op), nil
}

// Merge absorbs other's full state, using the same uid-ordered walk as
// List.Merge.
func (t *Text) Merge(other *Text) {
	otherState := other.State()

	t.mu.Lock()
	defer t.mu.Unlock()

	mine := t.tree.Elements()
	merged := make([]runeElement, 0, len(mine)+len(otherState.Elements))

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
			if !t.summary.Contains(e.UID.Dot()) {
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
				if !t.summary.Contains(e.UID.Dot()) {
					merged = append(merged, e)
				}
				j++
			}
		}
	}

	t.tree = NewSequenceTree[PositionId, runeElement]()
	for _, e := range merged {
		_ = t.tree.Insert(e)
	}
	t.summary.Merge(otherState.Summary)
}

// AddSiteID assigns this replica's network site id exactly once and
// rewrites any rune uids and cached ops still stamped under the
// placeholder site 0.
func (t *Text) AddSiteID(site uint32) ([]TextOp, error) {
	if err := t.assignSite(site); err != nil {
		return nil, err
	}

	t.mu.Lock()
	elements := t.tree.Elements()
	rewritten := NewSequenceTree[PositionId, runeElement]()
	for _, e := range elements {
		if e.UID.SiteID == 0 {
			e.UID.SiteID = site
		}
		_ = rewritten.Insert(e)
	}
	t.tree = rewritten
	t.mu.Unlock()

	rewriteUID := func(u PositionId) PositionId {
		if u.SiteID == 0 {
			u.SiteID = site
		}
		return u
	}
	return t.cached.drain(func(op TextOp) TextOp {
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
