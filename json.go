package gocrdt

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// jsonKind tags which of JsonValue's fields is meaningful.
type jsonKind int

const (
	JsonNull jsonKind = iota
	JsonScalar
	JsonObject
	JsonArray
)

// JsonValue is both the live in-memory representation of one node of
// a Json document and the wire payload embedded in ops and state
// snapshots: object fields and array elements each carry their own
// Dot, so structural merges can apply the same observed-remove
// keep-rule used throughout this package (Map, Set, List) at every
// level of nesting. Grounded on the recursive sum-type structure of
// original_source/ditto/src/json.rs, simplified per the Open Question
// decision in DESIGN.md: the document root itself is not separately
// dot-tagged, so a concurrent whole-document type replacement is not
// OR-preserving — only nested field/element writes are, which covers
// the collaborative-editing case this type targets.
type JsonValue struct {
	Kind   jsonKind                  `json:"kind"`
	Scalar any                       `json:"scalar,omitempty"`
	Object map[string][]jsonField    `json:"object,omitempty"`
	Array  []jsonArrayElement        `json:"array,omitempty"`
}

type jsonField struct {
	Dot   Dot       `json:"dot"`
	Value JsonValue `json:"value"`
}

type jsonArrayElement struct {
	UID   PositionId `json:"uid"`
	Value JsonValue  `json:"value"`
}

// NullValue, ScalarValue, ObjectValue, and ArrayValue build leaf
// JsonValues not yet attached to any document (no dots assigned to
// their children); Json.InsertObjectField and Json.InsertArrayElement
// mint the dots as they attach a value to the live tree.
func NullValue() JsonValue { return JsonValue{Kind: JsonNull} }

func ScalarValue(v any) JsonValue { return JsonValue{Kind: JsonScalar, Scalar: v} }

func ObjectValue() JsonValue {
	return JsonValue{Kind: JsonObject, Object: make(map[string][]jsonField)}
}

func ArrayValue() JsonValue { return JsonValue{Kind: JsonArray} }

// LocalValue projects v to a plain Go value: map[string]any for
// objects, []any for arrays, the stored scalar, or nil.
func (v JsonValue) LocalValue() any {
	switch v.Kind {
	case JsonObject:
		out := make(map[string]any, len(v.Object))
		for key, fields := range v.Object {
			if len(fields) == 0 {
				continue
			}
			out[key] = fields[0].Value.LocalValue()
		}
		return out
	case JsonArray:
		out := make([]any, len(v.Array))
		for i, e := range v.Array {
			out[i] = e.Value.LocalValue()
		}
		return out
	case JsonScalar:
		return v.Scalar
	default:
		return nil
	}
}

// Json is a composite document CRDT: a recursively nested tree of
// objects, arrays, and scalars, addressed and mutated by RFC 6901
// JSON Pointer (see pointer.go). It shares one replica (site id,
// causal summary) across the whole tree, so dots minted for a deeply
// nested field and a sibling array element are still drawn from the
// same per-site sequence — matching how
// original_source/ditto/src/json.rs's single Replica is threaded
// through every nested CrdtValue.
type Json struct {
	replica
	mu     sync.RWMutex
	root   JsonValue
	cached cachedOps[JsonOp]
}

// JsonPathStep is one hop of navigation from the document root to the
// container a JsonOp mutates: either an object field key or the
// PositionId of an array element — never a numeric array index, since
// indices shift under concurrent edits but PositionIds don't.
type JsonPathStep struct {
	Key     string     `json:"key,omitempty"`
	UID     PositionId `json:"uid,omitempty"`
	IsArray bool       `json:"is_array,omitempty"`
}

// JsonOp is the wire op for one structural mutation: navigate Path
// from the root, then apply exactly one of the four mutation variants.
type JsonOp struct {
	Path          []JsonPathStep        `json:"path"`
	ObjectInsert  *jsonObjectInsertOp   `json:"object_insert,omitempty"`
	ObjectRemove  *jsonObjectRemoveOp   `json:"object_remove,omitempty"`
	ArrayInsert   *jsonArrayInsertOp    `json:"array_insert,omitempty"`
	ArrayRemove   *jsonArrayRemoveOp    `json:"array_remove,omitempty"`
}

type jsonObjectInsertOp struct {
	Key     string    `json:"key"`
	Field   jsonField `json:"field"`
	Removed []Dot     `json:"removed"`
}

type jsonObjectRemoveOp struct {
	Key     string `json:"key"`
	Removed []Dot  `json:"removed"`
}

type jsonArrayInsertOp struct {
	Element jsonArrayElement `json:"element"`
}

type jsonArrayRemoveOp struct {
	UID PositionId `json:"uid"`
}

// JsonState is the full snapshot form of a Json document.
type JsonState struct {
	Root    JsonValue      `json:"root"`
	Summary *CausalSummary `json:"summary"`
}

// NewJson returns a document rooted at an empty object.
func NewJson(siteID uint32) *Json {
	return &Json{replica: newReplica(siteID), root: ObjectValue()}
}

// FromJsonState rebuilds a Json document from a captured state.
func FromJsonState(state JsonState, siteID uint32) *Json {
	j := &Json{replica: newReplica(siteID), root: state.Root}
	if state.Summary != nil {
		j.summary.Merge(state.Summary)
	}
	witnessJsonValue(j.summary, state.Root)
	return j
}

func witnessJsonValue(s *CausalSummary, v JsonValue) {
	switch v.Kind {
	case JsonObject:
		for _, fields := range v.Object {
			for _, f := range fields {
				s.Witness(f.Dot)
				witnessJsonValue(s, f.Value)
			}
		}
	case JsonArray:
		for _, e := range v.Array {
			s.Witness(e.UID.Dot())
			witnessJsonValue(s, e.Value)
		}
	}
}

// State returns a snapshot safe to serialize or hand to FromJsonState.
// Merging the root with itself rebuilds every object map and array
// slice, so the snapshot shares no storage with j.
func (j *Json) State() JsonState {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return JsonState{Root: mergeJsonValue(j.root, j.root, j.summary, j.summary), Summary: j.summary.Clone()}
}

// CloneState is an alias for State.
func (j *Json) CloneState() JsonState { return j.State() }

// LocalValue projects the whole document to a plain Go value.
func (j *Json) LocalValue() any {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.root.LocalValue()
}

// resolveContainer walks path from the root and returns the container it
// addresses (always Object or Array kind).
func resolveContainer(root *JsonValue, path []JsonPathStep) (*JsonValue, error) {
	node := root
	for _, step := range path {
		switch {
		case step.IsArray:
			if node.Kind != JsonArray {
				return nil, ErrWrongJSONType
			}
			found := false
			for i := range node.Array {
				if node.Array[i].UID.Equal(step.UID) {
					node = &node.Array[i].Value
					found = true
					break
				}
			}
			if !found {
				return nil, ErrDoesNotExist
			}
		default:
			if node.Kind != JsonObject {
				return nil, ErrWrongJSONType
			}
			fields, ok := node.Object[step.Key]
			if !ok || len(fields) == 0 {
				return nil, ErrDoesNotExist
			}
			node = &fields[0].Value
		}
	}
	return node, nil
}

// Get resolves pointer and returns the addressed value projected to a
// plain Go value.
func (j *Json) Get(pointer string) (any, error) {
	p, err := ParseJsonPointer(pointer)
	if err != nil {
		return nil, err
	}
	j.mu.RLock()
	defer j.mu.RUnlock()

	if p.IsRoot() {
		return j.root.LocalValue(), nil
	}
	parentPath, lastTok, _ := p.Parent()
	steps, err := toSteps(&j.root, parentPath)
	if err != nil {
		return nil, err
	}
	container, err := resolveContainer(&j.root, steps)
	if err != nil {
		return nil, err
	}
	return getFromContainer(container, lastTok)
}

func getFromContainer(container *JsonValue, token string) (any, error) {
	switch container.Kind {
	case JsonObject:
		fields, ok := container.Object[token]
		if !ok || len(fields) == 0 {
			return nil, ErrDoesNotExist
		}
		return fields[0].Value.LocalValue(), nil
	case JsonArray:
		idx, err := arrayIndex(token)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(container.Array) {
			return nil, ErrOutOfBounds
		}
		return container.Array[idx].Value.LocalValue(), nil
	default:
		return nil, ErrWrongJSONType
	}
}

// toSteps converts a JsonPointer's object/array tokens into the
// stable JsonPathStep form (resolving array tokens to the PositionId
// they currently name), walking the live tree as it goes.
func toSteps(root *JsonValue, p JsonPointer) ([]JsonPathStep, error) {
	steps := make([]JsonPathStep, 0, len(p.Tokens))
	node := root
	for _, tok := range p.Tokens {
		switch node.Kind {
		case JsonObject:
			fields, ok := node.Object[tok]
			if !ok || len(fields) == 0 {
				return nil, ErrDoesNotExist
			}
			steps = append(steps, JsonPathStep{Key: tok})
			node = &fields[0].Value
		case JsonArray:
			idx, err := arrayIndex(tok)
			if err != nil {
				return nil, err
			}
			if idx < 0 || idx >= len(node.Array) {
				return nil, ErrOutOfBounds
			}
			steps = append(steps, JsonPathStep{UID: node.Array[idx].UID, IsArray: true})
			node = &node.Array[idx].Value
		default:
			return nil, ErrWrongJSONType
		}
	}
	return steps, nil
}

// mintDots recursively stamps a freshly-built JsonValue subtree with
// dots from this replica's causal summary, so every field and element
// in the subtree has a unique, ordered identity before it is ever
// attached to the live tree or shipped in an op.
func (j *Json) mintDots(v JsonValue) JsonValue {
	switch v.Kind {
	case JsonObject:
		out := ObjectValue()
		for key, fields := range v.Object {
			if len(fields) == 0 {
				continue
			}
			dot := j.nextDot()
			out.Object[key] = []jsonField{{Dot: dot, Value: j.mintDots(fields[0].Value)}}
		}
		return out
	case JsonArray:
		out := ArrayValue()
		lo := MinPositionId
		for _, e := range v.Array {
			dot := j.nextDot()
			uid := Between(lo, MaxPositionId, dot)
			out.Array = append(out.Array, jsonArrayElement{UID: uid, Value: j.mintDots(e.Value)})
			lo = uid
		}
		return out
	default:
		return v
	}
}

// InsertObjectField sets key to value within the object addressed by
// pointer, replacing whatever this replica could see at key. value's
// own nested structure is freshly dotted by this call.
func (j *Json) InsertObjectField(pointer, key string, value JsonValue) (JsonOp, error) {
	p, err := ParseJsonPointer(pointer)
	if err != nil {
		return JsonOp{}, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	steps, err := toSteps(&j.root, p)
	if err != nil {
		return JsonOp{}, err
	}
	container, err := resolveContainer(&j.root, steps)
	if err != nil {
		return JsonOp{}, err
	}
	if container.Kind != JsonObject {
		return JsonOp{}, ErrWrongJSONType
	}

	dotted := j.mintDots(value)
	fieldDot := j.nextDot()
	field := jsonField{Dot: fieldDot, Value: dotted}

	removed := make([]Dot, len(container.Object[key]))
	for i, f := range container.Object[key] {
		removed[i] = f.Dot
	}
	container.Object[key] = []jsonField{field}

	op := JsonOp{Path: steps, ObjectInsert: &jsonObjectInsertOp{Key: key, Field: field, Removed: removed}}
	if j.AwaitingSiteID() {
		j.cached.push(op)
	}
	return op, nil
}

// RemoveObjectField deletes key from the object addressed by pointer.
func (j *Json) RemoveObjectField(pointer, key string) (JsonOp, error) {
	p, err := ParseJsonPointer(pointer)
	if err != nil {
		return JsonOp{}, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	steps, err := toSteps(&j.root, p)
	if err != nil {
		return JsonOp{}, err
	}
	container, err := resolveContainer(&j.root, steps)
	if err != nil {
		return JsonOp{}, err
	}
	if container.Kind != JsonObject {
		return JsonOp{}, ErrWrongJSONType
	}
	fields, ok := container.Object[key]
	if !ok || len(fields) == 0 {
		return JsonOp{}, ErrDoesNotExist
	}
	removed := make([]Dot, len(fields))
	for i, f := range fields {
		removed[i] = f.Dot
	}
	delete(container.Object, key)

	op := JsonOp{Path: steps, ObjectRemove: &jsonObjectRemoveOp{Key: key, Removed: removed}}
	if j.AwaitingSiteID() {
		j.cached.push(op)
	}
	return op, nil
}

// InsertArrayElement inserts value at idx within the array addressed
// by pointer, shifting later elements right.
func (j *Json) InsertArrayElement(pointer string, idx int, value JsonValue) (JsonOp, error) {
	p, err := ParseJsonPointer(pointer)
	if err != nil {
		return JsonOp{}, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	steps, err := toSteps(&j.root, p)
	if err != nil {
		return JsonOp{}, err
	}
	container, err := resolveContainer(&j.root, steps)
	if err != nil {
		return JsonOp{}, err
	}
	if container.Kind != JsonArray {
		return JsonOp{}, ErrWrongJSONType
	}
	if idx < 0 || idx > len(container.Array) {
		return JsonOp{}, ErrOutOfBounds
	}

	lo := MinPositionId
	if idx > 0 {
		lo = container.Array[idx-1].UID
	}
	hi := MaxPositionId
	if idx < len(container.Array) {
		hi = container.Array[idx].UID
	}

	dot := j.nextDot()
	uid := Between(lo, hi, dot)
	dotted := j.mintDots(value)
	element := jsonArrayElement{UID: uid, Value: dotted}

	container.Array = append(container.Array, jsonArrayElement{})
	copy(container.Array[idx+1:], container.Array[idx:])
	container.Array[idx] = element

	op := JsonOp{Path: steps, ArrayInsert: &jsonArrayInsertOp{Element: element}}
	if j.AwaitingSiteID() {
		j.cached.push(op)
	}
	return op, nil
}

// RemoveArrayElement deletes the element at idx within the array
// addressed by pointer, shifting later elements left.
func (j *Json) RemoveArrayElement(pointer string, idx int) (JsonOp, error) {
	p, err := ParseJsonPointer(pointer)
	if err != nil {
		return JsonOp{}, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	steps, err := toSteps(&j.root, p)
	if err != nil {
		return JsonOp{}, err
	}
	container, err := resolveContainer(&j.root, steps)
	if err != nil {
		return JsonOp{}, err
	}
	if container.Kind != JsonArray {
		return JsonOp{}, ErrWrongJSONType
	}
	if idx < 0 || idx >= len(container.Array) {
		return JsonOp{}, ErrOutOfBounds
	}

	uid := container.Array[idx].UID
	container.Array = append(container.Array[:idx], container.Array[idx+1:]...)

	op := JsonOp{Path: steps, ArrayRemove: &jsonArrayRemoveOp{UID: uid}}
	if j.AwaitingSiteID() {
		j.cached.push(op)
	}
	return op, nil
}

// ExecuteOp applies a remote structural mutation. If Path no longer
// resolves, or resolves to a node of the wrong type — which happens
// when the op arrives after a concurrent remove of one of its
// ancestors — the mutation has nothing left to apply to: it is
// dropped, logged at Debug level, and ExecuteOp returns nil. An insert
// whose dot this replica has already observed is also dropped.
func (j *Json) ExecuteOp(op JsonOp) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	container, err := resolveContainer(&j.root, op.Path)
	if err != nil {
		Logger.Debug("dropped json op: ancestor no longer resolves",
			zap.Int("path_len", len(op.Path)),
		)
		return nil
	}

	switch {
	case op.ObjectInsert != nil:
		if container.Kind != JsonObject {
			Logger.Debug("dropped json op: type mismatch",
				zap.String("op", "object_insert"),
				zap.String("key", op.ObjectInsert.Key),
			)
			return nil
		}
		removedSet := make(map[Dot]struct{}, len(op.ObjectInsert.Removed))
		for _, d := range op.ObjectInsert.Removed {
			removedSet[d] = struct{}{}
		}
		kept := container.Object[op.ObjectInsert.Key][:0]
		for _, f := range container.Object[op.ObjectInsert.Key] {
			if _, gone := removedSet[f.Dot]; !gone {
				kept = append(kept, f)
			}
		}
		if !j.summary.Contains(op.ObjectInsert.Field.Dot) {
			// Fields stay in dot order, so fields[0] — the value every
			// reader shows — is the lowest-dot writer's.
			at := len(kept)
			for at > 0 && op.ObjectInsert.Field.Dot.Less(kept[at-1].Dot) {
				at--
			}
			kept = append(kept, jsonField{})
			copy(kept[at+1:], kept[at:])
			kept[at] = op.ObjectInsert.Field
		}
		container.Object[op.ObjectInsert.Key] = kept
		j.witness(op.ObjectInsert.Field.Dot)
		witnessJsonValue(j.summary, op.ObjectInsert.Field.Value)

	case op.ObjectRemove != nil:
		if container.Kind != JsonObject {
			Logger.Debug("dropped json op: type mismatch",
				zap.String("op", "object_remove"),
				zap.String("key", op.ObjectRemove.Key),
			)
			return nil
		}
		removedSet := make(map[Dot]struct{}, len(op.ObjectRemove.Removed))
		for _, d := range op.ObjectRemove.Removed {
			removedSet[d] = struct{}{}
		}
		kept := container.Object[op.ObjectRemove.Key][:0]
		for _, f := range container.Object[op.ObjectRemove.Key] {
			if _, gone := removedSet[f.Dot]; !gone {
				kept = append(kept, f)
			}
		}
		if len(kept) == 0 {
			delete(container.Object, op.ObjectRemove.Key)
		} else {
			container.Object[op.ObjectRemove.Key] = kept
		}

	case op.ArrayInsert != nil:
		if container.Kind != JsonArray {
			Logger.Debug("dropped json op: type mismatch",
				zap.String("op", "array_insert"),
			)
			return nil
		}
		if j.summary.Contains(op.ArrayInsert.Element.UID.Dot()) {
			return nil
		}
		idx := 0
		for idx < len(container.Array) && container.Array[idx].UID.Less(op.ArrayInsert.Element.UID) {
			idx++
		}
		if idx < len(container.Array) && container.Array[idx].UID.Equal(op.ArrayInsert.Element.UID) {
			return nil
		}
		container.Array = append(container.Array, jsonArrayElement{})
		copy(container.Array[idx+1:], container.Array[idx:])
		container.Array[idx] = op.ArrayInsert.Element
		j.witness(op.ArrayInsert.Element.UID.Dot())
		witnessJsonValue(j.summary, op.ArrayInsert.Element.Value)

	case op.ArrayRemove != nil:
		if container.Kind != JsonArray {
			Logger.Debug("dropped json op: type mismatch",
				zap.String("op", "array_remove"),
			)
			return nil
		}
		for i, e := range container.Array {
			if e.UID.Equal(op.ArrayRemove.UID) {
				container.Array = append(container.Array[:i], container.Array[i+1:]...)
				break
			}
		}

	default:
		return errors.New("gocrdt: json op carries no mutation")
	}
	return nil
}

// ValidateAndExecuteOp is ExecuteOp guarded by an expected-site check:
// an ObjectInsert or ArrayInsert whose new element claims a site other
// than expectedSite is rejected with ErrInvalidOp before it ever
// touches j.root. ObjectRemove and ArrayRemove carry no inserted
// element and are never subject to this check.
func (j *Json) ValidateAndExecuteOp(op JsonOp, expectedSite uint32) error {
	switch {
	case op.ObjectInsert != nil && op.ObjectInsert.Field.Dot.SiteID != expectedSite:
		return ErrInvalidOp
	case op.ArrayInsert != nil && op.ArrayInsert.Element.UID.SiteID != expectedSite:
		return ErrInvalidOp
	}
	return j.ExecuteOp(op)
}

// Merge absorbs other's full state via a structural recursive merge:
// at every level, an object field or array element survives if it is
// present on both sides, or present on this side but not yet observed
// by the peer's summary — the same keep-iff rule Map, Set, List, and
// Register use, applied node by node.
func (j *Json) Merge(other *Json) {
	otherState := other.State()

	j.mu.Lock()
	defer j.mu.Unlock()

	j.root = mergeJsonValue(j.root, otherState.Root, j.summary, otherState.Summary)
	j.summary.Merge(otherState.Summary)
}

func mergeJsonValue(mine, theirs JsonValue, mySummary, theirSummary *CausalSummary) JsonValue {
	if mine.Kind != theirs.Kind {
		return mine
	}

	switch mine.Kind {
	case JsonObject:
		merged := ObjectValue()
		keys := make(map[string]struct{}, len(mine.Object)+len(theirs.Object))
		for k := range mine.Object {
			keys[k] = struct{}{}
		}
		for k := range theirs.Object {
			keys[k] = struct{}{}
		}
		for k := range keys {
			mine := mine.Object[k]
			theirs := theirs.Object[k]
			theirByDot := make(map[Dot]jsonField, len(theirs))
			for _, f := range theirs {
				theirByDot[f.Dot] = f
			}
			var fields []jsonField
			seen := make(map[Dot]struct{})
			for _, f := range mine {
				if other, inTheirs := theirByDot[f.Dot]; inTheirs {
					f.Value = mergeJsonValue(f.Value, other.Value, mySummary, theirSummary)
					fields = append(fields, f)
					seen[f.Dot] = struct{}{}
				} else if !theirSummary.Contains(f.Dot) {
					fields = append(fields, f)
					seen[f.Dot] = struct{}{}
				}
			}
			for _, f := range theirs {
				if _, already := seen[f.Dot]; already {
					continue
				}
				if mySummary.Contains(f.Dot) {
					continue
				}
				fields = append(fields, f)
			}
			sort.Slice(fields, func(a, b int) bool { return fields[a].Dot.Less(fields[b].Dot) })
			if len(fields) > 0 {
				merged.Object[k] = fields
			}
		}
		return merged

	case JsonArray:
		merged := ArrayValue()
		i, k := 0, 0
		for i < len(mine.Array) || k < len(theirs.Array) {
			switch {
			case k >= len(theirs.Array):
				e := mine.Array[i]
				if !theirSummary.Contains(e.UID.Dot()) {
					merged.Array = append(merged.Array, e)
				}
				i++
			case i >= len(mine.Array):
				e := theirs.Array[k]
				if !mySummary.Contains(e.UID.Dot()) {
					merged.Array = append(merged.Array, e)
				}
				k++
			default:
				cmp := mine.Array[i].UID.Compare(theirs.Array[k].UID)
				switch {
				case cmp < 0:
					e := mine.Array[i]
					if !theirSummary.Contains(e.UID.Dot()) {
						merged.Array = append(merged.Array, e)
					}
					i++
				case cmp == 0:
					e := mine.Array[i]
					e.Value = mergeJsonValue(e.Value, theirs.Array[k].Value, mySummary, theirSummary)
					merged.Array = append(merged.Array, e)
					i++
					k++
				default:
					e := theirs.Array[k]
					if !mySummary.Contains(e.UID.Dot()) {
						merged.Array = append(merged.Array, e)
					}
					k++
				}
			}
		}
		return merged

	default:
		return mine
	}
}

// AddSiteID assigns this replica's network site id exactly once and
// rewrites every dot still stamped under the placeholder site 0,
// throughout the tree and in any cached ops.
func (j *Json) AddSiteID(site uint32) ([]JsonOp, error) {
	if err := j.assignSite(site); err != nil {
		return nil, err
	}

	j.mu.Lock()
	j.root = rewriteJsonSite(j.root, site)
	j.mu.Unlock()

	rewriteDot := func(d Dot) Dot {
		if d.SiteID == 0 {
			d.SiteID = site
		}
		return d
	}
	rewriteUID := func(u PositionId) PositionId {
		if u.SiteID == 0 {
			u.SiteID = site
		}
		return u
	}
	return j.cached.drain(func(op JsonOp) JsonOp {
		for i, step := range op.Path {
			if step.IsArray {
				op.Path[i].UID = rewriteUID(step.UID)
			}
		}
		if op.ObjectInsert != nil {
			op.ObjectInsert.Field.Dot = rewriteDot(op.ObjectInsert.Field.Dot)
			op.ObjectInsert.Field.Value = rewriteJsonSite(op.ObjectInsert.Field.Value, site)
			for i, d := range op.ObjectInsert.Removed {
				op.ObjectInsert.Removed[i] = rewriteDot(d)
			}
		}
		if op.ObjectRemove != nil {
			for i, d := range op.ObjectRemove.Removed {
				op.ObjectRemove.Removed[i] = rewriteDot(d)
			}
		}
		if op.ArrayInsert != nil {
			op.ArrayInsert.Element.UID = rewriteUID(op.ArrayInsert.Element.UID)
			op.ArrayInsert.Element.Value = rewriteJsonSite(op.ArrayInsert.Element.Value, site)
		}
		if op.ArrayRemove != nil {
			op.ArrayRemove.UID = rewriteUID(op.ArrayRemove.UID)
		}
		return op
	}), nil
}

func rewriteJsonSite(v JsonValue, site uint32) JsonValue {
	switch v.Kind {
	case JsonObject:
		for key, fields := range v.Object {
			for i := range fields {
				if fields[i].Dot.SiteID == 0 {
					fields[i].Dot.SiteID = site
				}
				fields[i].Value = rewriteJsonSite(fields[i].Value, site)
			}
			v.Object[key] = fields
		}
	case JsonArray:
		for i := range v.Array {
			if v.Array[i].UID.SiteID == 0 {
				v.Array[i].UID.SiteID = site
			}
			v.Array[i].Value = rewriteJsonSite(v.Array[i].Value, site)
		}
	}
	return v
}
