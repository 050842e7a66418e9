package gocrdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_InsertAndValue(t *testing.T) {
	txt := NewText(1)
	_, err := txt.InsertAt(0, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", txt.Value())
	assert.Equal(t, 5, txt.Len())
}

func TestText_InsertAtMiddle(t *testing.T) {
	txt := NewText(1)
	txt.InsertAt(0, "helo")
	txt.InsertAt(3, "l")
	assert.Equal(t, "hello", txt.Value())
}

func TestText_RemoveAt(t *testing.T) {
	txt := NewText(1)
	txt.InsertAt(0, "hello world")
	_, err := txt.RemoveAt(5, 6)
	require.NoError(t, err)
	assert.Equal(t, "hello", txt.Value())
}

func TestText_RemoveOutOfBounds(t *testing.T) {
	txt := NewText(1)
	txt.InsertAt(0, "hi")
	_, err := txt.RemoveAt(1, 5)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestText_ConcurrentInsertConverges(t *testing.T) {
	a := NewText(1)
	a.InsertAt(0, "ac")
	b := FromTextState(a.State(), 2)

	opsA, err := a.InsertAt(1, "x")
	require.NoError(t, err)
	opsB, err := b.InsertAt(1, "y")
	require.NoError(t, err)

	for _, op := range opsB {
		a.ExecuteOp(op)
	}
	for _, op := range opsA {
		b.ExecuteOp(op)
	}

	assert.Equal(t, a.Value(), b.Value())
	assert.Len(t, a.Value(), 4)
}

func TestText_MergeConverges(t *testing.T) {
	a := NewText(1)
	a.InsertAt(0, "base")
	b := FromTextState(a.State(), 2)

	a.InsertAt(4, "-a")
	b.InsertAt(4, "-b")

	a.Merge(b)
	b.Merge(a)
	assert.Equal(t, a.Value(), b.Value())

	a.Merge(b)
	assert.Len(t, a.Value(), len("base-a-b"))
}

func TestText_RecordAndFlushPendingEdits(t *testing.T) {
	txt := NewText(1)
	txt.RecordLocalEdit(0, 0, "h")
	txt.RecordLocalEdit(1, 0, "i")

	flushed := txt.FlushPendingEdits()
	require.Len(t, flushed, 1)
	assert.Equal(t, "hi", flushed[0].Text)

	assert.Empty(t, txt.FlushPendingEdits())
}

func TestText_AddSiteIDRewritesUIDs(t *testing.T) {
	txt := NewText(0)
	ops, err := txt.InsertAt(0, "v")
	require.NoError(t, err)
	assert.EqualValues(t, 0, ops[0].Insert.UID.SiteID)

	rewritten, err := txt.AddSiteID(8)
	require.NoError(t, err)
	require.Len(t, rewritten, 1)
	assert.EqualValues(t, 8, rewritten[0].Insert.UID.SiteID)
	assert.Equal(t, "v", txt.Value())
}

func TestText_ValidateAndExecuteOpRejectsSiteMismatch(t *testing.T) {
	a := NewText(1)
	ops, err := a.InsertAt(0, "x")
	require.NoError(t, err)

	b := NewText(2)
	_, err = b.ValidateAndExecuteOp(ops[0], 99)
	assert.ErrorIs(t, err, ErrInvalidOp)

	local, err := b.ValidateAndExecuteOp(ops[0], 1)
	require.NoError(t, err)
	require.NotNil(t, local)
	assert.Equal(t, "x", b.Value())
}
