package gocrdt

import (
	"fmt"
	"math/big"
	"math/rand"
)

// Position allocation constants. L0 is the branching factor exponent
// of the top level of the conceptual position tree;
// each subsequent level k has 2^(L0+k) slots, up to MAX_LEVEL. BOUNDARY
// bounds how many slots a single insert may claim at a level, which in
// turn bounds per-insert bit growth to O(log BOUNDARY) at steady state.
const (
	baseLevel  = 20
	maxLevel   = 64
	boundary   = 40
)

// PositionId is a dense, totally-ordered identifier for one element of
// a sequence. New ids can always be generated between any two existing
// ids without renumbering (the LSEQ allocator, Between). Position is
// conceptually a path down an infinite variable-branching-factor tree;
// it is stored as an arbitrary-precision integer with a leading
// sentinel "1" bit so that leading zero digits are preserved across
// comparisons and VLQ round-trips.
type PositionId struct {
	Position *big.Int
	SiteID   uint32
	Counter  uint32
}

var (
	// MinPositionId brackets every generated PositionId from below.
	MinPositionId = PositionId{Position: minPositionValue(), SiteID: 0, Counter: 0}

	// MaxPositionId brackets every generated PositionId from above.
	MaxPositionId = PositionId{Position: maxPositionValue(), SiteID: ^uint32(0), Counter: ^uint32(0)}
)

func minPositionValue() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), baseLevel)
}

func maxPositionValue() *big.Int {
	v := new(big.Int).Lsh(big.NewInt(1), baseLevel+1)
	return v.Sub(v, big.NewInt(1))
}

// Dot returns the (site, counter) pair tie-breaking this position.
func (p PositionId) Dot() Dot {
	return Dot{SiteID: p.SiteID, Counter: p.Counter}
}

// Compare returns -1, 0, or 1 per the total order: compare the
// position bit-strings left-aligned (the shorter is treated as a
// prefix at that depth, padded with zero digits), then break ties by
// site id, then by counter.
func (p PositionId) Compare(other PositionId) int {
	selfBits := p.Position.BitLen()
	otherBits := other.Position.BitLen()

	selfPos := p.Position
	otherPos := other.Position
	if selfBits > otherBits {
		selfPos = new(big.Int).Rsh(selfPos, uint(selfBits-otherBits))
	} else if otherBits > selfBits {
		otherPos = new(big.Int).Rsh(otherPos, uint(otherBits-selfBits))
	}

	if c := selfPos.Cmp(otherPos); c != 0 {
		return c
	}
	if selfBits != otherBits {
		if selfBits < otherBits {
			return -1
		}
		return 1
	}
	if p.SiteID != other.SiteID {
		if p.SiteID < other.SiteID {
			return -1
		}
		return 1
	}
	switch {
	case p.Counter < other.Counter:
		return -1
	case p.Counter > other.Counter:
		return 1
	default:
		return 0
	}
}

// Less reports whether p sorts strictly before other.
func (p PositionId) Less(other PositionId) bool { return p.Compare(other) < 0 }

// Equal reports whether p and other are identical.
func (p PositionId) Equal(other PositionId) bool {
	return p.SiteID == other.SiteID && p.Counter == other.Counter && p.Position.Cmp(other.Position) == 0
}

// getDigit extracts the digit of position at the given level, given
// that the position's bit-string has `significantBits` bits accounted
// for by all levels up to and including this one (mirroring the
// "significant_bits" running total in the reference allocator). ok is
// false when position is too short to have a digit at this depth, in
// which case callers substitute a default.
func getDigit(position *big.Int, level, significantBits int) (digit int, ok bool) {
	bits := position.BitLen()
	if bits < significantBits {
		return 0, false
	}
	insignificant := bits - significantBits
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(level)), big.NewInt(1))
	shifted := new(big.Int).Rsh(position, uint(insignificant))
	shifted.And(shifted, mask)
	return int(shifted.Int64()), true
}

// BetweenPositions generates a new PositionId d such that lo < d < hi,
// via the deterministic boundary+ LSEQ allocation strategy. pick is the
// source of randomness for the digit chosen within a level's admissible
// range; production callers should pass a *rand.Rand (or similar)
// seeded per-process, not a fixed seed, so that concurrent inserts at
// different sites diverge.
func BetweenPositions(lo, hi PositionId, dot Dot, pick func(loInclusive, hiInclusive int) int) PositionId {
	position := big.NewInt(1)
	significantBits := 1

	for level := baseLevel; level <= maxLevel; level++ {
		significantBits += level
		p1, ok1 := getDigit(lo.Position, level, significantBits)
		if !ok1 {
			p1 = 0
		}
		p2, ok2 := getDigit(hi.Position, level, significantBits)
		if !ok2 {
			p2 = (1 << uint(level)) - 1
		}

		if p2-p1 >= 2 {
			hiBound := p1 + boundary
			if hiBound > p2-1 {
				hiBound = p2 - 1
			}
			digit := pick(p1+1, hiBound)
			position = new(big.Int).Lsh(position, uint(level))
			position.Add(position, big.NewInt(int64(digit)))
			return PositionId{Position: position, SiteID: dot.SiteID, Counter: dot.Counter}
		}

		position = new(big.Int).Lsh(position, uint(level))
		position.Add(position, big.NewInt(int64(p1)))
	}

	panic(fmt.Sprintf("gocrdt: position id cannot have more than %d levels", maxLevel))
}

// Between generates a new PositionId strictly between lo and hi for
// dot, using the package's default randomness source. This is the
// allocator entry point List and Text use; BetweenPositions is exposed
// directly for tests that need deterministic digit selection.
func Between(lo, hi PositionId, dot Dot) PositionId {
	return BetweenPositions(lo, hi, dot, func(loInclusive, hiInclusive int) int {
		if hiInclusive <= loInclusive {
			return loInclusive
		}
		return loInclusive + rand.Intn(hiInclusive-loInclusive+1)
	})
}
