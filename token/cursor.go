// Package token implements the position-tracking read head the parser
// driver and rule builders use to walk a source.Stack. It owns no
// grammar of its own beyond a handful of small utility tokenizers
// (identifier, integer, property list, balanced-delimiter span); the
// syntax of NML documents lives entirely in the rule package.
package token

import (
	"unicode/utf8"

	"github.com/nml-lang/nml/source"
)

// Cursor reads through a source.Stack, tracking the byte offset within
// whichever layer is currently on top. Pushing a derived source (for a
// variable expansion or script eval-to-parse output) makes
// the cursor transparently read from it until it is exhausted, at
// which point it falls back to the layer beneath.
type Cursor struct {
	stack   *source.Stack
	offsets []int
}

// NewCursor creates a cursor positioned at the start of root.
func NewCursor(root source.Source) *Cursor {
	return &Cursor{stack: source.NewStack(root), offsets: []int{0}}
}

func (c *Cursor) top() source.Source { return c.stack.Top() }

// Offset returns the byte offset within the current top layer.
func (c *Cursor) Offset() int { return c.offsets[len(c.offsets)-1] }

func (c *Cursor) setOffset(o int) { c.offsets[len(c.offsets)-1] = o }

// Pos returns the cursor's current position, relative to whichever
// layer it is reading.
func (c *Cursor) Pos() source.Position {
	return source.Position{Src: c.top(), Offset: c.Offset()}
}

// Depth returns the current number of layered sources, root included.
func (c *Cursor) Depth() int { return len(c.offsets) }

// AtEnd reports whether the current top layer is fully consumed.
func (c *Cursor) AtEnd() bool {
	return c.Offset() >= len(c.top().Content())
}

// PopExhausted pops layers whose content has been fully consumed,
// returning true if at least one layer was popped. The root layer is
// never popped. Callers (the parser driver) should call this after
// every advance so that reads transparently fall back to the parent
// once a derived source runs dry.
func (c *Cursor) PopExhausted() bool {
	popped := false

	for len(c.offsets) > 1 && c.AtEnd() {
		c.stack.Pop()
		c.offsets = c.offsets[:len(c.offsets)-1]
		popped = true
	}

	return popped
}

// Push layers src on top of the stack; the cursor starts reading it
// from offset 0. Used for variable substitution and script
// eval-to-parse output (§4.4, §9 "layered sources").
func (c *Cursor) Push(src source.Source) {
	c.stack.Push(src)
	c.offsets = append(c.offsets, 0)
}

// PeekByte looks ahead bytesAhead bytes from the current offset
// without consuming. It does not cross a layer boundary.
func (c *Cursor) PeekByte(bytesAhead int) (byte, bool) {
	content := c.top().Content()
	i := c.Offset() + bytesAhead

	if i < 0 || i >= len(content) {
		return 0, false
	}

	return content[i], true
}

// PeekRune decodes the rune at the current offset without consuming
// it, returning its width in bytes.
func (c *Cursor) PeekRune() (r rune, width int, ok bool) {
	content := c.top().Content()
	off := c.Offset()

	if off >= len(content) {
		return 0, 0, false
	}

	r, width = utf8.DecodeRune(content[off:])

	return r, width, true
}

// Advance moves the cursor forward n bytes within the current layer
// and pops any layer this exhausts.
func (c *Cursor) Advance(n int) {
	c.setOffset(c.Offset() + n)
	c.PopExhausted()
}

// AdvanceRune consumes and returns the rune at the current offset.
func (c *Cursor) AdvanceRune() (rune, bool) {
	r, width, ok := c.PeekRune()
	if !ok {
		return 0, false
	}

	c.Advance(width)

	return r, true
}

// Remaining returns the unconsumed bytes of the current top layer.
// It never spans a layer boundary.
func (c *Cursor) Remaining() []byte {
	return c.top().Content()[c.Offset():]
}

// SpanFrom builds a source.Span on the current top layer, from
// startOffset to the cursor's current offset.
func (c *Cursor) SpanFrom(startOffset int) source.Span {
	return source.Span{Src: c.top(), Start: startOffset, End: c.Offset()}
}
