package gocrdt

import "sync"

// Dot uniquely identifies one locally-generated operation. SiteID 0 is
// reserved for "unassigned" — a CRDT created without a site still
// accepts mutations and stamps its ops with site 0 until AddSiteID is
// called. Dots are totally ordered, site first, then counter.
type Dot struct {
	SiteID  uint32 `json:"site_id"`
	Counter uint32 `json:"counter"`
}

// Less reports whether d sorts before other.
func (d Dot) Less(other Dot) bool {
	if d.SiteID != other.SiteID {
		return d.SiteID < other.SiteID
	}
	return d.Counter < other.Counter
}

// Compare returns -1, 0, or 1 as d is less than, equal to, or greater
// than other.
func (d Dot) Compare(other Dot) int {
	switch {
	case d.SiteID < other.SiteID:
		return -1
	case d.SiteID > other.SiteID:
		return 1
	case d.Counter < other.Counter:
		return -1
	case d.Counter > other.Counter:
		return 1
	default:
		return 0
	}
}

// CausalSummary is a contiguous per-site high-water mark: it records,
// for each site, the highest counter value that has been generated or
// observed. It requires ops from a single site to arrive in emission
// order — gaps are inadmissible and must be buffered by the transport.
type CausalSummary struct {
	mu     sync.RWMutex
	marks  map[uint32]uint32
}

// NewCausalSummary returns an empty summary.
func NewCausalSummary() *CausalSummary {
	return &CausalSummary{marks: make(map[uint32]uint32)}
}

// Increment advances site's high-water mark by one and returns the new
// counter value. This is the only way a CRDT mints a new Dot for a
// local mutation.
func (s *CausalSummary) Increment(site uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks[site]++
	return s.marks[site]
}

// GetDot mints the next Dot for site: it advances the summary via
// Increment and returns the Dot carrying the new counter.
func (s *CausalSummary) GetDot(site uint32) Dot {
	return Dot{SiteID: site, Counter: s.Increment(site)}
}

// Witness records that a remote dot has been observed, advancing the
// site's mark if the dot's counter is higher. Used when accepting
// elements whose dot wasn't minted locally (e.g. during ExecuteOp).
func (s *CausalSummary) Witness(dot Dot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dot.Counter > s.marks[dot.SiteID] {
		s.marks[dot.SiteID] = dot.Counter
	}
}

// Contains reports whether dot has been observed: its counter is at or
// below the site's high-water mark.
func (s *CausalSummary) Contains(dot Dot) bool {
	return s.ContainsPair(dot.SiteID, dot.Counter)
}

// ContainsPair is the (site, counter) form of Contains.
func (s *CausalSummary) ContainsPair(site, counter uint32) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return counter <= s.marks[site]
}

// Get returns the current high-water mark for site (0 if never seen).
func (s *CausalSummary) Get(site uint32) uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.marks[site]
}

// Merge pointwise-maxes other into s.
func (s *CausalSummary) Merge(other *CausalSummary) {
	other.mu.RLock()
	snapshot := make(map[uint32]uint32, len(other.marks))
	for site, mark := range other.marks {
		snapshot[site] = mark
	}
	other.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	for site, mark := range snapshot {
		if mark > s.marks[site] {
			s.marks[site] = mark
		}
	}
}

// Clone deep-copies the summary.
func (s *CausalSummary) Clone() *CausalSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := make(map[uint32]uint32, len(s.marks))
	for site, mark := range s.marks {
		clone[site] = mark
	}
	return &CausalSummary{marks: clone}
}

// Rewrite replaces every mark recorded under site 0 with newSite. Used
// by AddSiteID to retroactively relocate a deferred replica's
// contribution — the record must move, not merely be renamed, since its
// key changes and a peer may already have contributed marks under
// newSite that must be kept via counter-max.
func (s *CausalSummary) Rewrite(newSite uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mark, ok := s.marks[0]
	if !ok {
		return
	}
	delete(s.marks, 0)
	if mark > s.marks[newSite] {
		s.marks[newSite] = mark
	}
}

// MarshalJSON gives CausalSummary a stable, self-describing wire form:
// a plain {site_id: counter} map, matching how the rest of the package
// encodes via jsoniter.
func (s *CausalSummary) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return jsonAPI.Marshal(s.marks)
}

// UnmarshalJSON restores a summary from its wire form.
func (s *CausalSummary) UnmarshalJSON(data []byte) error {
	marks := make(map[uint32]uint32)
	if err := jsonAPI.Unmarshal(data, &marks); err != nil {
		return err
	}
	s.mu.Lock()
	s.marks = marks
	s.mu.Unlock()
	return nil
}

// GobEncode gives CausalSummary a binary form for EncodeBinary (its
// fields are unexported, so gob cannot encode it field by field); it
// carries the same {site_id: counter} map as MarshalJSON.
func (s *CausalSummary) GobEncode() ([]byte, error) { return s.MarshalJSON() }

// GobDecode restores a summary written by GobEncode.
func (s *CausalSummary) GobDecode(data []byte) error { return s.UnmarshalJSON(data) }

// Tombstones is the legacy representation of removed dots: an explicit
// set merged by union. The newer CRDT family (Register, Set, Map, List,
// Text, Json in this package) derives the same information from
// (CausalSummary, live element set) and does not use Tombstones — no
// other code in the package references it (only its own tests do); it
// documents the alternative design recorded as an Open Question
// decision in DESIGN.md.
type Tombstones struct {
	mu   sync.RWMutex
	dots map[Dot]struct{}
}

// NewTombstones returns an empty tombstone set.
func NewTombstones() *Tombstones {
	return &Tombstones{dots: make(map[Dot]struct{})}
}

// Insert records dot as removed.
func (t *Tombstones) Insert(dot Dot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dots[dot] = struct{}{}
}

// Contains reports whether dot has been recorded as removed.
func (t *Tombstones) Contains(dot Dot) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.dots[dot]
	return ok
}

// Merge unions other into t.
func (t *Tombstones) Merge(other *Tombstones) {
	other.mu.RLock()
	defer other.mu.RUnlock()
	t.mu.Lock()
	defer t.mu.Unlock()
	for dot := range other.dots {
		t.dots[dot] = struct{}{}
	}
}
