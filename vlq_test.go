package gocrdt

import (
	"math/big"
	"testing"
)

func TestVLQUint_Roundtrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 1 << 20, ^uint64(0) >> 1}
	for _, n := range cases {
		encoded := encodeVLQUint(n)
		decoded, rest, err := decodeVLQUint(encoded)
		if err != nil {
			t.Fatalf("decode(%d): %v", n, err)
		}
		if decoded != n {
			t.Errorf("roundtrip mismatch: want %d got %d", n, decoded)
		}
		if len(rest) != 0 {
			t.Errorf("expected no trailing bytes, got %d", len(rest))
		}
	}
}

func TestVLQBigInt_Roundtrip(t *testing.T) {
	cases := []*big.Int{
		big.NewInt(0),
		big.NewInt(1),
		big.NewInt(127),
		big.NewInt(128),
		new(big.Int).Lsh(big.NewInt(1), 100),
	}
	for _, v := range cases {
		encoded := encodeVLQBigInt(v)
		decoded, rest, err := decodeVLQBigInt(encoded)
		if err != nil {
			t.Fatalf("decode(%s): %v", v.String(), err)
		}
		if decoded.Cmp(v) != 0 {
			t.Errorf("roundtrip mismatch: want %s got %s", v.String(), decoded.String())
		}
		if len(rest) != 0 {
			t.Errorf("expected no trailing bytes, got %d", len(rest))
		}
	}
}

func TestPositionId_VLQAndStringRoundtrip(t *testing.T) {
	pos := PositionId{Position: new(big.Int).Lsh(big.NewInt(1), 25), SiteID: 7, Counter: 42}

	data := pos.ToVLQ()
	restored, err := PositionIdFromVLQ(data)
	if err != nil {
		t.Fatalf("PositionIdFromVLQ: %v", err)
	}
	if !restored.Equal(pos) {
		t.Errorf("vlq roundtrip mismatch: want %+v got %+v", pos, restored)
	}

	s := pos.String()
	restored2, err := ParsePositionId(s)
	if err != nil {
		t.Fatalf("ParsePositionId: %v", err)
	}
	if !restored2.Equal(pos) {
		t.Errorf("string roundtrip mismatch: want %+v got %+v", pos, restored2)
	}
}

func TestPositionId_JSONRoundtrip(t *testing.T) {
	pos := PositionId{Position: new(big.Int).Lsh(big.NewInt(1), 21), SiteID: 3, Counter: 9}
	data, err := pos.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored PositionId
	if err := restored.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !restored.Equal(pos) {
		t.Errorf("json roundtrip mismatch: want %+v got %+v", pos, restored)
	}
}

func TestPositionId_GobRoundtrip(t *testing.T) {
	pos := PositionId{Position: new(big.Int).Lsh(big.NewInt(1), 30), SiteID: 5, Counter: 11}
	data, err := pos.GobEncode()
	if err != nil {
		t.Fatalf("gob encode: %v", err)
	}
	var restored PositionId
	if err := restored.GobDecode(data); err != nil {
		t.Fatalf("gob decode: %v", err)
	}
	if !restored.Equal(pos) {
		t.Errorf("gob roundtrip mismatch: want %+v got %+v", pos, restored)
	}
}
