package token_test

import (
	"testing"

	"github.com/nml-lang/nml/source"
	"github.com/nml-lang/nml/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_AdvanceAndPeek(t *testing.T) {
	src := source.NewFile("doc.nml", []byte("ab"))
	c := token.NewCursor(src)

	r, width, ok := c.PeekRune()
	require.True(t, ok)
	assert.Equal(t, 'a', r)
	assert.Equal(t, 1, width)

	r, ok = c.AdvanceRune()
	require.True(t, ok)
	assert.Equal(t, 'a', r)
	assert.Equal(t, 1, c.Offset())

	r, ok = c.AdvanceRune()
	require.True(t, ok)
	assert.Equal(t, 'b', r)
	assert.True(t, c.AtEnd())

	_, ok = c.AdvanceRune()
	assert.False(t, ok)
}

func TestCursor_PushFallsBackWhenExhausted(t *testing.T) {
	root := source.NewFile("doc.nml", []byte("AB"))
	c := token.NewCursor(root)

	c.AdvanceRune() // consume 'A', now pointing at 'B'

	derived := source.NewDerived("var", []byte("xy"), root, source.IdentityMap)
	c.Push(derived)
	assert.Equal(t, 2, c.Depth())

	r, ok := c.AdvanceRune()
	require.True(t, ok)
	assert.Equal(t, 'x', r)

	r, ok = c.AdvanceRune()
	require.True(t, ok)
	assert.Equal(t, 'y', r)

	// derived is now exhausted; the next peek must transparently fall
	// back to the root layer at the offset it had before the push.
	r, _, ok = c.PeekRune()
	require.True(t, ok)
	assert.Equal(t, 'B', r)
	assert.Equal(t, 1, c.Depth())
}

func TestCursor_Identifier(t *testing.T) {
	c := token.NewCursor(source.NewFile("doc.nml", []byte("hello_2 world")))

	id, ok := c.Identifier()
	require.True(t, ok)
	assert.Equal(t, "hello_2", id)

	c.SkipWhitespace()

	id, ok = c.Identifier()
	require.True(t, ok)
	assert.Equal(t, "world", id)
}

func TestCursor_Integer(t *testing.T) {
	c := token.NewCursor(source.NewFile("doc.nml", []byte("42abc")))

	n, ok := c.Integer()
	require.True(t, ok)
	assert.Equal(t, "42", n)

	_, ok = c.Integer()
	assert.False(t, ok)
}

func TestCursor_BalancedSpan(t *testing.T) {
	c := token.NewCursor(source.NewFile("doc.nml", []byte("[a[b]c]rest")))

	span, ok := c.BalancedSpan('[', ']')
	require.True(t, ok)
	assert.Equal(t, "a[b]c", span.Text())
	assert.Equal(t, byte('r'), mustPeek(t, c))
}

func mustPeek(t *testing.T, c *token.Cursor) byte {
	t.Helper()

	b, ok := c.PeekByte(0)
	require.True(t, ok)

	return b
}

func TestCursor_PropertyList(t *testing.T) {
	c := token.NewCursor(source.NewFile("doc.nml", []byte(`[offset=1,kind="block"]`)))

	props, ok := c.PropertyList()
	require.True(t, ok)
	assert.Equal(t, "1", props["offset"])
	assert.Equal(t, "block", props["kind"])
}
