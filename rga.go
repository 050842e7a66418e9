package gocrdt

import "sync"

// RGA is a Replicated Growable Array CRDT designed for collaborative
// sequence editing, generic over its element type T and identified by
// the package-wide Dot type (SiteID, Counter) rather than a bespoke
// per-type identifier — the ordering rule is the classic RGA one:
// newest counter wins, site id breaks ties.
//
// RGA uses a Linked-List structure to represent the document and a
// Hash Map (registry) to provide O(1) random access to any node by its
// Dot. This hybrid approach allows for high-performance insertions and
// deletions in large documents. It is kept alongside List/Text
// (list.go, text.go) as a lighter-weight alternative: op-free,
// snapshot-only replication (Merge takes a full node slice, not an
// incremental op) for callers who don't need List's dense,
// renumbering-free PositionId addressing.
type RGA[T any] struct {
	mu             sync.RWMutex
	siteID         uint32
	clock          uint32
	registry       map[Dot]*rgaNode[T]
	root           *rgaNode[T]
	pendingOrphans map[Dot][]RGANode[T] // Buffer for causal consistency
}

// rootDot is the sentinel identifying RGA's anchor node.
var rootDot = Dot{SiteID: 0, Counter: 0}

type rgaNode[T any] struct {
	Dot       Dot
	ParentDot Dot
	Value     T
	Deleted   bool
	Next      *rgaNode[T]
}

// RGANode is the externally visible, pointer-free form of one element,
// used for Merge and for reading back a site's full state to ship to
// a peer.
type RGANode[T any] struct {
	Dot       Dot
	ParentDot Dot
	Value     T
	Deleted   bool
}

// NewRGA initializes a new RGA instance for a given site.
// It creates a sentinel root node which serves as the anchor
// for the beginning of the sequence.
func NewRGA[T any](siteID uint32) *RGA[T] {
	rootNode := &rgaNode[T]{Dot: rootDot}
	return &RGA[T]{
		siteID:         siteID,
		registry:       map[Dot]*rgaNode[T]{rootDot: rootNode},
		root:           rootNode,
		pendingOrphans: make(map[Dot][]RGANode[T]),
	}
}

// RootDot returns the sentinel Dot identifying the start of the
// sequence — the parentDot to pass when inserting the first element.
func (r *RGA[T]) RootDot() Dot { return rootDot }

// Insert creates a new element in the sequence after the specified
// parentDot. It increments the local logical clock and integrates
// the new node into the local state.
func (r *RGA[T]) Insert(val T, parentDot Dot) Dot {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clock++
	newDot := Dot{SiteID: r.siteID, Counter: r.clock}
	newNode := &rgaNode[T]{
		Dot:       newDot,
		ParentDot: parentDot,
		Value:     val,
	}

	r.integrate(newNode)
	return newDot
}

// Delete marks a node as logically deleted (a "Tombstone").
// Nodes are not physically removed from the registry or linked-list
// to ensure that concurrent operations referencing this node can
// still be resolved correctly.
func (r *RGA[T]) Delete(dot Dot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if node, exists := r.registry[dot]; exists {
		node.Deleted = true
	}
}

// Merge incorporates remote state into the local RGA.
//
// It handles deduplication of nodes and ensures Causal Consistency
// by buffering "orphan" nodes whose parents have not yet arrived
// from the network. Once a missing parent is integrated, its
// buffered children are automatically processed.
func (r *RGA[T]) Merge(remoteNodes []RGANode[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range remoteNodes {
		if _, exists := r.registry[n.Dot]; exists {
			if n.Deleted {
				r.registry[n.Dot].Deleted = true
			}
			continue
		}
		r.processNode(n)
	}
}

// processNode handles the causal dependency logic during a merge.
// If a node's parent is missing, the node is moved to the pendingOrphans buffer.
func (r *RGA[T]) processNode(n RGANode[T]) {
	if _, parentExists := r.registry[n.ParentDot]; parentExists {
		newNode := &rgaNode[T]{
			Dot:       n.Dot,
			ParentDot: n.ParentDot,
			Value:     n.Value,
			Deleted:   n.Deleted,
		}
		r.integrate(newNode)

		if orphans, ok := r.pendingOrphans[n.Dot]; ok {
			for _, child := range orphans {
				r.processNode(child)
			}
			delete(r.pendingOrphans, n.Dot)
		}
	} else {
		r.pendingOrphans[n.ParentDot] = append(r.pendingOrphans[n.ParentDot], n)
	}
}

// integrate executes the deterministic pointer-linking math.
// It ensures that siblings (nodes sharing the same parent) are
// ordered by their Dots (newest counter first, site id as tie-break),
// guaranteeing that all replicas converge to the same linear sequence.
func (r *RGA[T]) integrate(newNode *rgaNode[T]) {
	parent := r.registry[newNode.ParentDot]

	prev := parent
	current := parent.Next
	for current != nil && current.ParentDot == newNode.ParentDot {
		if dotGreater(newNode.Dot, current.Dot) {
			break
		}
		prev = current
		current = current.Next
	}

	newNode.Next = current
	prev.Next = newNode
	r.registry[newNode.Dot] = newNode

	if newNode.Dot.Counter > r.clock {
		r.clock = newNode.Dot.Counter
	}
}

// dotGreater reports whether a sorts before b in sibling order: higher
// counter first, site id breaking ties.
func dotGreater(a, b Dot) bool {
	if a.Counter != b.Counter {
		return a.Counter > b.Counter
	}
	return a.SiteID > b.SiteID
}

// Value returns the linearized, visible sequence of values.
// It traverses the internal linked-list and filters out nodes
// marked as deleted (tombstones). Its signature matches CRDT.Value, but
// RGA.Merge takes []RGANode[T], so RGA does not satisfy the CRDT
// interface.
func (r *RGA[T]) Value() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var values []T
	curr := r.root.Next
	for curr != nil {
		if !curr.Deleted {
			values = append(values, curr.Value)
		}
		curr = curr.Next
	}
	return values
}

// Nodes returns every node this replica knows about (including
// tombstones), for shipping to a peer's Merge.
func (r *RGA[T]) Nodes() []RGANode[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nodes := make([]RGANode[T], 0, len(r.registry))
	for dot, n := range r.registry {
		if dot == rootDot {
			continue
		}
		nodes = append(nodes, RGANode[T]{Dot: n.Dot, ParentDot: n.ParentDot, Value: n.Value, Deleted: n.Deleted})
	}
	return nodes
}
