package gocrdt

import (
	"bytes"
	"encoding/gob"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// jsonAPI is the self-describing text encoding this package standardizes
// on. jsoniter's ConfigCompatibleWithStandardLibrary is a drop-in, faster
// replacement for encoding/json with an identical json.Marshaler-compatible
// API.
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// EncodeText serializes any CRDT state, op, or local op to the
// self-describing text encoding: nested JSON objects/arrays of
// primitives.
func EncodeText[T any](v T) ([]byte, error) {
	data, err := jsonAPI.Marshal(v)
	return data, errors.Wrap(err, "gocrdt: encode text")
}

// DecodeText is the inverse of EncodeText.
func DecodeText[T any](data []byte) (T, error) {
	var v T
	if err := jsonAPI.Unmarshal(data, &v); err != nil {
		return v, errors.Wrap(err, "gocrdt: decode text")
	}
	return v, nil
}

// EncodeBinary serializes any CRDT state, op, or local op to a compact
// binary encoding. It is built on encoding/gob; PositionId supplies its
// own GobEncode/GobDecode (see vlq.go) so the binary encoding preserves
// the exact VLQ bit pattern the text encoding's base64 string wraps
// around the same bytes — the two encodings agree by construction, not
// by coincidence.
func EncodeBinary[T any](v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, errors.Wrap(err, "gocrdt: encode binary")
	}
	return buf.Bytes(), nil
}

// DecodeBinary is the inverse of EncodeBinary.
func DecodeBinary[T any](data []byte) (T, error) {
	var v T
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return v, errors.Wrap(err, "gocrdt: decode binary")
	}
	return v, nil
}
