// Package gocrdt provides a suite of Conflict-free Replicated Data Types (CRDTs).
//
// CRDTs are distributed data structures that guarantee convergence: if multiple
// replicas receive the same set of updates, they will eventually reach the
// same state regardless of the order in which updates were processed.
//
// The package has two layers. GCounter, PNCounter, and RGA are simple,
// self-contained state-based CRDTs (CvRDTs) — merge a full snapshot,
// done. They follow the merge laws of the CRDT interface below through
// their own typed Value and Merge methods, so none of them satisfies
// that interface as declared. Counter, Register,
// Set, Map, List, Text, and Json are the richer, dot-addressed family:
// each tracks a per-site CausalSummary, supports both op-based
// replication (ExecuteOp, for low-latency delivery over an ordered
// channel) and state-based replication (Merge, which tolerates
// out-of-order or repeated delivery), and can be constructed without a
// network-assigned site id and have one attached later via AddSiteID.
// See protocol.go for the shared replica bookkeeping those types embed.
package gocrdt

// CRDT states the contract of a state-based CRDT with an untyped Value
// and Merge. GCounter, PNCounter, and RGA keep its merge laws through
// typed methods (GCounter.Merge(*GCounter), RGA.Merge([]RGANode[T]),
// ...) and therefore do not satisfy this interface.
//
// Implementing types must ensure that their internal state can be merged
// commutatively, associatively, and idempotently to satisfy the mathematical
// properties of a Join-Semilattice.
type CRDT interface {
	// Value returns the current consolidated state of the CRDT.
	//
	// For counters, this typically returns a numeric type (int).
	// For sequences like RGA, this returns the linearized view of the
	// data (usually a string or a slice).
	//
	// Note: Because this returns 'any' (interface{}), callers may need
	// to perform a type assertion to use the underlying data.
	Value() any

	// Merge combines the state of a remote CRDT into the local instance.
	//
	// To guarantee convergence across all distributed replicas, the
	// implementation of Merge MUST be:
	//
	// 1. Commutative: The order of merging doesn't matter.
	//    A.Merge(B) results in the same state as B.Merge(A).
	//
	// 2. Associative: The grouping of merges doesn't matter.
	//    (A.Merge(B)).Merge(C) == A.Merge((B.Merge(C))).
	//
	// 3. Idempotent: Merging the same state multiple times has no effect
	//    beyond the first merge. A.Merge(A) == A.
	//
	// Implementations should perform type-assertion on the 'other' parameter
	// and return an error if the types are incompatible (e.g., attempting
	// to merge a GCounter into an RGA).
	Merge(other CRDT) error
}
