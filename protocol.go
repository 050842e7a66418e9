package gocrdt

import "sync"

// Crdt is the site-id part of the uniform replica surface, modeled on
// original_source/ditto/src/traits.rs's crdt_impl! macro. Every type
// that embeds replica (Counter, Register[T], Set[T], Map[K,V],
// List[T], Text, Json) satisfies it through the embedded Site and
// AwaitingSiteID methods.
//
// The rest of that surface — producing or absorbing a full state
// snapshot, executing a remote op (a repeated delivery of an op leaves
// the replica unchanged), merging against another replica's full
// state, and projecting to a plain Go value — is provided by each
// concrete type with its own State, Op, and LocalOp types and is not
// part of this interface, because Go methods can't introduce type
// parameters beyond the receiver's own. GCounter, PNCounter, and RGA
// do not embed replica and do not satisfy Crdt.
type Crdt interface {
	Site() uint32
	AwaitingSiteID() bool
}

// replica is the embeddable bookkeeping every CRDT type in this
// package shares: a site id that may start at 0 ("unassigned") and a
// causal summary used to mint and validate dots. Concrete types embed
// this and add their own value storage and cached-ops queue.
type replica struct {
	mu      sync.RWMutex
	siteID  uint32
	summary *CausalSummary
}

func newReplica(siteID uint32) replica {
	return replica{siteID: siteID, summary: NewCausalSummary()}
}

// Site returns the replica's site id, or 0 if it is still awaiting
// one (see AwaitingSiteID).
func (r *replica) Site() uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.siteID
}

// AwaitingSiteID reports whether this replica was constructed without
// a site id and has not yet had one assigned via AddSiteID. While
// true, every dot this replica mints is stamped under site 0;
// ExecuteOp/ValidateAndExecuteOp still work against such a replica
// (state CRDTs still need to be usable locally before the network
// assigns an id). Merge does not check it: a replica still awaiting a
// site id merges with its elements stamped under site 0.
func (r *replica) AwaitingSiteID() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.siteID == 0
}

// nextDot mints the next local dot for this replica's current site
// (0 if still unassigned).
func (r *replica) nextDot() Dot {
	r.mu.RLock()
	site := r.siteID
	r.mu.RUnlock()
	return r.summary.GetDot(site)
}

// witness records an externally-minted dot as observed, so later
// local mutations and ExecuteOp calls correctly order against it.
func (r *replica) witness(dot Dot) {
	r.summary.Witness(dot)
}

// assignSite sets the replica's site id the first time a network layer
// allocates one. It returns ErrAlreadyHasSiteID if the replica already
// has a non-zero site id — a site id is assigned exactly once and is
// then immutable.
func (r *replica) assignSite(site uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.siteID != 0 {
		return ErrAlreadyHasSiteID
	}
	if site == 0 {
		return ErrInvalidSiteID
	}
	r.siteID = site
	r.summary.Rewrite(site)
	return nil
}

// cachedOps holds ops minted locally while a replica is awaiting a
// site id, so AddSiteID can rewrite their dots from site 0 to the
// newly assigned site before the caller broadcasts them — the
// deferred-replication path for replicas created without a network
// identity yet. It is generic over the concrete op type each CRDT
// defines.
type cachedOps[Op any] struct {
	mu   sync.Mutex
	ops  []Op
}

func (c *cachedOps[Op]) push(op Op) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, op)
}

// drain returns every cached op and empties the cache. rewrite is
// applied to each op in place before it is returned, giving callers a
// hook to relocate any embedded site-0 dots to the newly assigned site.
func (c *cachedOps[Op]) drain(rewrite func(Op) Op) []Op {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Op, len(c.ops))
	for i, op := range c.ops {
		out[i] = rewrite(op)
	}
	c.ops = nil
	return out
}
