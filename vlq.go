package gocrdt

import (
	"encoding/base64"
	"math/big"

	"github.com/pkg/errors"
)

// VLQ encoding: base-128 groups, least-significant group first, with
// the high bit of each byte set on every group except the last. This
// is the canonical wire shape for PositionId: VLQ(position-bignum) ‖
// VLQ(site) ‖ VLQ(counter). No ecosystem library produces this shape
// (see DESIGN.md), so it is hand-rolled here, grounded directly on
// original_source/src/vlq.rs and original_source/ditto/src/sequence/uid.rs.

func encodeVLQUint(n uint64) []byte {
	if n == 0 {
		return []byte{0}
	}
	var out []byte
	for n > 0 {
		b := byte(n & 0x7f)
		n >>= 7
		if n > 0 {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

func decodeVLQUint(data []byte) (uint64, []byte, error) {
	var result uint64
	var shift uint
	for i, b := range data {
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, data[i+1:], nil
		}
		shift += 7
		if shift > 63 {
			return 0, nil, errors.New("gocrdt: vlq uint overflow")
		}
	}
	return 0, nil, errors.New("gocrdt: truncated vlq uint")
}

func encodeVLQBigInt(v *big.Int) []byte {
	if v.Sign() == 0 {
		return []byte{0}
	}
	// Encode 7 bits at a time, LSB group first, matching encodeVLQUint's
	// framing so the two can share a decoder.
	var out []byte
	remaining := new(big.Int).Set(v)
	mask := big.NewInt(0x7f)
	for remaining.Sign() > 0 {
		group := new(big.Int).And(remaining, mask)
		b := byte(group.Uint64())
		remaining.Rsh(remaining, 7)
		if remaining.Sign() > 0 {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

func decodeVLQBigInt(data []byte) (*big.Int, []byte, error) {
	result := new(big.Int)
	shift := uint(0)
	for i, b := range data {
		group := new(big.Int).Lsh(big.NewInt(int64(b&0x7f)), shift)
		result.Or(result, group)
		if b&0x80 == 0 {
			return result, data[i+1:], nil
		}
		shift += 7
	}
	return nil, nil, errors.New("gocrdt: truncated vlq bignum")
}

// ToVLQ serializes p as VLQ(position) ‖ VLQ(site) ‖ VLQ(counter).
func (p PositionId) ToVLQ() []byte {
	out := encodeVLQBigInt(p.Position)
	out = append(out, encodeVLQUint(uint64(p.SiteID))...)
	out = append(out, encodeVLQUint(uint64(p.Counter))...)
	return out
}

// PositionIdFromVLQ parses the wire form produced by ToVLQ.
func PositionIdFromVLQ(data []byte) (PositionId, error) {
	position, rest, err := decodeVLQBigInt(data)
	if err != nil {
		return PositionId{}, errors.Wrap(err, "gocrdt: decode position id")
	}
	site, rest, err := decodeVLQUint(rest)
	if err != nil {
		return PositionId{}, errors.Wrap(err, "gocrdt: decode position id site")
	}
	counter, _, err := decodeVLQUint(rest)
	if err != nil {
		return PositionId{}, errors.Wrap(err, "gocrdt: decode position id counter")
	}
	return PositionId{Position: position, SiteID: uint32(site), Counter: uint32(counter)}, nil
}

// String renders p as URL-safe, unpadded base64 of its VLQ encoding —
// a compact text form suitable for channels that can't carry raw bytes.
func (p PositionId) String() string {
	return base64.RawURLEncoding.EncodeToString(p.ToVLQ())
}

// ParsePositionId is the inverse of String.
func ParsePositionId(s string) (PositionId, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return PositionId{}, errors.Wrap(err, "gocrdt: invalid position id encoding")
	}
	return PositionIdFromVLQ(data)
}

// MarshalJSON encodes p as its base64 VLQ string, so the text and
// binary encodings (see encoding.go) agree on the same underlying
// bytes — only the framing differs.
func (p PositionId) MarshalJSON() ([]byte, error) {
	return jsonAPI.Marshal(p.String())
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (p *PositionId) UnmarshalJSON(data []byte) error {
	var s string
	if err := jsonAPI.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParsePositionId(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// GobEncode implements gob.GobEncoder with the raw VLQ bytes, so that
// EncodeBinary (encoding.go) preserves the exact canonical bit pattern
// rather than gob's default reflective struct encoding.
func (p PositionId) GobEncode() ([]byte, error) {
	return p.ToVLQ(), nil
}

// GobDecode implements gob.GobDecoder, the inverse of GobEncode.
func (p *PositionId) GobDecode(data []byte) error {
	parsed, err := PositionIdFromVLQ(data)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
