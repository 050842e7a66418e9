package gocrdt

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// JSON Pointer (RFC 6901) addressing for Json. No pack repo or
// ecosystem library in the retrieval set implements RFC 6901 parsing
// against a custom CRDT tree rather than encoding/json's native
// tree — see DESIGN.md for why this stays on strings.Split plus a
// hand-rolled unescape rather than adopting a general-purpose pointer
// library.

// JsonPointer is a parsed RFC 6901 pointer: a sequence of reference
// tokens, each either an object key or an array index. The root
// pointer ("") has zero tokens.
type JsonPointer struct {
	Tokens []string
}

// ParseJsonPointer parses s. The empty string is the pointer to the
// document root. A non-empty pointer must start with "/"; "~1" and
// "~0" are unescaped to "/" and "~" per RFC 6901 §3.
func ParseJsonPointer(s string) (JsonPointer, error) {
	if s == "" {
		return JsonPointer{}, nil
	}
	if !strings.HasPrefix(s, "/") {
		return JsonPointer{}, errors.Wrap(ErrInvalidPointer, "must start with '/'")
	}
	parts := strings.Split(s[1:], "/")
	tokens := make([]string, len(parts))
	for i, p := range parts {
		tokens[i] = unescapeToken(p)
	}
	return JsonPointer{Tokens: tokens}, nil
}

func unescapeToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~1", "/")
	tok = strings.ReplaceAll(tok, "~0", "~")
	return tok
}

func escapeToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~", "~0")
	tok = strings.ReplaceAll(tok, "/", "~1")
	return tok
}

// String renders the pointer back to its RFC 6901 text form.
func (p JsonPointer) String() string {
	if len(p.Tokens) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range p.Tokens {
		b.WriteByte('/')
		b.WriteString(escapeToken(t))
	}
	return b.String()
}

// IsRoot reports whether p addresses the document root.
func (p JsonPointer) IsRoot() bool { return len(p.Tokens) == 0 }

// Parent returns every token but the last, and the last token itself —
// the decomposition a container mutation needs (resolve to the parent,
// then act using the final token as the key or index).
func (p JsonPointer) Parent() (JsonPointer, string, bool) {
	if len(p.Tokens) == 0 {
		return JsonPointer{}, "", false
	}
	return JsonPointer{Tokens: p.Tokens[:len(p.Tokens)-1]}, p.Tokens[len(p.Tokens)-1], true
}

// arrayIndex validates and parses a reference token as an array index
// per RFC 6901 §4: digits only, no leading zero unless the token is
// exactly "0", and the special append-token "-" is rejected since this
// package has no notion of append-through-pointer (callers use Json's
// explicit array-insert operations instead).
func arrayIndex(tok string) (int, error) {
	if tok == "-" {
		return 0, errors.Wrap(ErrInvalidPointer, "'-' append token is not supported")
	}
	if tok == "" || (len(tok) > 1 && tok[0] == '0') {
		return 0, errors.Wrap(ErrInvalidPointer, "invalid array index token")
	}
	for _, c := range tok {
		if c < '0' || c > '9' {
			return 0, errors.Wrap(ErrInvalidPointer, "invalid array index token")
		}
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, errors.Wrap(ErrInvalidPointer, "invalid array index token")
	}
	return n, nil
}
