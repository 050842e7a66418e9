package gocrdt

import "github.com/pkg/errors"

// Sentinel errors surfaced to callers. Some call sites wrap them with
// context (JSON Pointer parsing wraps ErrInvalidPointer): use errors.Is,
// not == or string comparison, to test for a particular failure.
var (
	// ErrOutOfBounds is returned when an index falls outside a
	// sequence's current length.
	ErrOutOfBounds = errors.New("gocrdt: index out of bounds")

	// ErrDoesNotExist is returned when a remove or lookup targets a
	// key, value, or element that is not present.
	ErrDoesNotExist = errors.New("gocrdt: does not exist")

	// ErrAlreadyExists names an insert refused because its entry
	// already exists. Every insert in this package overwrites instead,
	// so no function here returns it.
	ErrAlreadyExists = errors.New("gocrdt: already exists")

	// ErrWrongJSONType is returned when a Json operation targets a
	// node of an incompatible type (e.g. object_insert on an array).
	ErrWrongJSONType = errors.New("gocrdt: wrong json type")

	// ErrInvalidJSON names a value the Json CRDT cannot represent
	// (e.g. a non-finite float). Json does not check the scalar values
	// it is given, and no function in this package returns it.
	ErrInvalidJSON = errors.New("gocrdt: invalid json value")

	// ErrInvalidPointer is returned when a JSON Pointer string is
	// malformed per RFC 6901.
	ErrInvalidPointer = errors.New("gocrdt: invalid json pointer")

	// ErrInvalidOp is returned when a remote op cannot be applied: either
	// it claims a site other than the one ValidateAndExecuteOp was told
	// to expect, or (for Counter) it arrives out of per-site sequence.
	ErrInvalidOp = errors.New("gocrdt: invalid remote op")

	// ErrInvalidSiteID is returned when a caller attempts to assign
	// site id 0. Assigning to a CRDT that already has a site id returns
	// ErrAlreadyHasSiteID instead.
	ErrInvalidSiteID = errors.New("gocrdt: invalid site id")

	// ErrAlreadyHasSiteID is returned by AddSiteID when the CRDT
	// already has a nonzero site id.
	ErrAlreadyHasSiteID = errors.New("gocrdt: already has site id")

	// ErrAwaitingSiteID names the state of a CRDT that has no site id
	// yet. No mutator returns it: a replica without a site id returns
	// the op it minted (stamped with site 0) and also caches it for
	// AddSiteID to rewrite.
	ErrAwaitingSiteID = errors.New("gocrdt: awaiting site id")

	// ErrDuplicateID is an internal SequenceTree invariant violation:
	// an insert targeted a PositionId already present in the tree.
	ErrDuplicateID = errors.New("gocrdt: duplicate position id")

	// ErrNoop names a requested mutation that would not change
	// observable state. No function in this package returns it; Text
	// has no single replace call, only InsertAt and RemoveAt.
	ErrNoop = errors.New("gocrdt: no-op mutation")
)
