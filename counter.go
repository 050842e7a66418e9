package gocrdt

import (
	"sync"

	"go.uber.org/zap"
)

// Counter is a grow-or-shrink CRDT: each site owns exactly one running
// total, and the overall value is the sum across sites. Grounded on
// original_source/ditto/src/counter.rs: each site's contribution is
// tracked as {inc, counter}, where counter is a strictly-increasing
// per-site sequence number used to validate ordered remote delivery
// and to pick a merge winner (the side with the larger counter always
// carries the authoritative inc for that site — no separate
// conflict rule is needed because only that site ever writes its own
// slot).
type Counter struct {
	replica
	mu     sync.RWMutex
	value  map[uint32]counterSlot
	cached cachedOps[CounterOp]
}

type counterSlot struct {
	Inc     int64  `json:"inc"`
	Counter uint32 `json:"counter"`
}

// CounterOp is the wire op for a single site's increment.
type CounterOp struct {
	Site    uint32 `json:"site"`
	Amount  int64  `json:"amount"`
	Counter uint32 `json:"counter"`
}

// CounterState is the full snapshot form of a Counter.
type CounterState struct {
	Value map[uint32]counterSlot `json:"value"`
}

// NewCounter returns an empty counter for siteID. Pass 0 if the
// replica does not yet have a network-assigned site id (see AddSiteID).
func NewCounter(siteID uint32) *Counter {
	return &Counter{replica: newReplica(siteID), value: make(map[uint32]counterSlot)}
}

// FromCounterState rebuilds a Counter from a previously captured state.
func FromCounterState(state CounterState, siteID uint32) *Counter {
	c := NewCounter(siteID)
	for site, slot := range state.Value {
		c.value[site] = slot
		c.summary.Witness(Dot{SiteID: site, Counter: slot.Counter})
	}
	return c
}

// Value returns the counter's current total: the sum of every site's
// contribution.
func (c *Counter) Value() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total int64
	for _, slot := range c.value {
		total += slot.Inc
	}
	return total
}

// State returns a snapshot safe to serialize or hand to FromCounterState.
func (c *Counter) State() CounterState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[uint32]counterSlot, len(c.value))
	for k, v := range c.value {
		out[k] = v
	}
	return CounterState{Value: out}
}

// CloneState is an alias for State, as it is on the other CRDT types.
func (c *Counter) CloneState() CounterState { return c.State() }

// Increment adds amount (negative to decrement) to this replica's own
// slot and returns the op to broadcast. If the replica is still
// awaiting a site id, the op is cached instead of being immediately
// usable by peers; AddSiteID later drains and rewrites the cache.
func (c *Counter) Increment(amount int64) CounterOp {
	dot := c.nextDot()

	c.mu.Lock()
	slot := c.value[dot.SiteID]
	slot.Inc += amount
	slot.Counter = dot.Counter
	c.value[dot.SiteID] = slot
	c.mu.Unlock()

	op := CounterOp{Site: dot.SiteID, Amount: amount, Counter: dot.Counter}
	if c.AwaitingSiteID() {
		c.cached.push(op)
	}
	return op
}

// ExecuteOp applies a remote increment. Mirroring counter.rs's
// execute_remote, an op is only admissible if it is the next op in
// sequence for its site: either the site has no slot yet and
// op.Counter == 1, or the site's current counter is exactly
// op.Counter-1. Any other op is rejected with ErrInvalidOp rather than
// silently reordered, since counters have no way to represent a gap.
func (c *Counter) ExecuteOp(op CounterOp) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	slot, exists := c.value[op.Site]
	switch {
	case !exists && op.Counter == 1:
	case exists && slot.Counter+1 == op.Counter:
	default:
		reason := "premature"
		if exists && op.Counter <= slot.Counter {
			reason = "duplicate"
		}
		Logger.Debug("rejected remote counter op",
			zap.String("reason", reason),
			zap.Uint32("site", op.Site),
			zap.Uint32("op_counter", op.Counter),
			zap.Uint32("expected_counter", slot.Counter+1),
		)
		return ErrInvalidOp
	}

	slot.Inc += op.Amount
	slot.Counter = op.Counter
	c.value[op.Site] = slot
	c.witness(Dot{SiteID: op.Site, Counter: op.Counter})
	return nil
}

// ValidateAndExecuteOp is ExecuteOp with two guards folded in: the op
// is rejected with ErrInvalidOp outright if it claims a site other
// than expectedSite (a spoofed or stale site id), and otherwise an op
// whose counter has already been observed for its site is treated as
// a successful no-op rather than an error, since at-least-once
// delivery must not fail a Counter that's already caught up.
func (c *Counter) ValidateAndExecuteOp(op CounterOp, expectedSite uint32) error {
	if op.Site != expectedSite {
		Logger.Debug("rejected remote counter op",
			zap.String("reason", "site mismatch"),
			zap.Uint32("site", op.Site),
			zap.Uint32("expected_site", expectedSite),
		)
		return ErrInvalidOp
	}
	if c.summary.ContainsPair(op.Site, op.Counter) {
		return nil
	}
	return c.ExecuteOp(op)
}

// Merge absorbs other's state. Per site, the slot with the larger
// counter wins outright — there is never a need to combine two slots
// for the same site, because only that site ever writes to it.
func (c *Counter) Merge(other *Counter) {
	otherState := other.State()

	c.mu.Lock()
	defer c.mu.Unlock()
	for site, slot := range otherState.Value {
		existing, ok := c.value[site]
		if !ok || slot.Counter > existing.Counter {
			c.value[site] = slot
			c.summary.Witness(Dot{SiteID: site, Counter: slot.Counter})
		}
	}
}

// AddSiteID assigns this replica's network site id exactly once. Any
// contribution already recorded under the placeholder site 0 is moved
// to the new site id (summed into it, since both represent the same
// logical replica), and every cached op minted before the id was known
// is rewritten and returned for broadcast.
func (c *Counter) AddSiteID(site uint32) ([]CounterOp, error) {
	if err := c.assignSite(site); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if slot, ok := c.value[0]; ok {
		delete(c.value, 0)
		moved := c.value[site]
		moved.Inc += slot.Inc
		if slot.Counter > moved.Counter {
			moved.Counter = slot.Counter
		}
		c.value[site] = moved
	}
	c.mu.Unlock()

	return c.cached.drain(func(op CounterOp) CounterOp {
		if op.Site == 0 {
			op.Site = site
		}
		return op
	}), nil
}
