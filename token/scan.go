package token

import "github.com/nml-lang/nml/source"

// Identifier consumes a [A-Za-z_][A-Za-z0-9_]* run starting at the
// current offset. It returns ok=false and does not advance if the
// current rune cannot start an identifier.
func (c *Cursor) Identifier() (string, bool) {
	start := c.Offset()

	r, width, ok := c.PeekRune()
	if !ok || !isIdentStart(r) {
		return "", false
	}

	c.Advance(width)

	for {
		r, width, ok = c.PeekRune()
		if !ok || !isIdentChar(r) {
			break
		}

		c.Advance(width)
	}

	return string(c.SpanFrom(start).Bytes()), true
}

// Integer consumes a run of ASCII digits. Returns ok=false and does
// not advance if the current byte is not a digit.
func (c *Cursor) Integer() (string, bool) {
	start := c.Offset()

	for {
		b, ok := c.PeekByte(0)
		if !ok || b < '0' || b > '9' {
			break
		}

		c.Advance(1)
	}

	if c.Offset() == start {
		return "", false
	}

	return string(c.SpanFrom(start).Bytes()), true
}

// SkipWhitespace advances past runs of space and tab characters,
// stopping at (and not consuming) any rune in dontSkip.
func (c *Cursor) SkipWhitespace(dontSkip ...rune) {
	for {
		r, width, ok := c.PeekRune()
		if !ok {
			return
		}

		if containsRune(dontSkip, r) {
			return
		}

		if r != ' ' && r != '\t' {
			return
		}

		c.Advance(width)
	}
}

// BalancedSpan assumes the current rune is open and consumes up to and
// including the matching close, honoring nesting. It returns the span
// of the content strictly between the delimiters (not including
// either delimiter) and advances the cursor past the closing
// delimiter. ok is false if the current rune is not open, or EOF is
// reached before the match closes.
func (c *Cursor) BalancedSpan(open, close byte) (span source.Span, ok bool) {
	b, peeked := c.PeekByte(0)
	if !peeked || b != open {
		return source.Span{}, false
	}

	c.Advance(1)

	innerStart := c.Offset()
	depth := 1

	for {
		b, peeked = c.PeekByte(0)
		if !peeked {
			return source.Span{}, false
		}

		if b == open && open != close {
			depth++
		} else if b == close {
			depth--
			if depth == 0 {
				inner := c.SpanFrom(innerStart)
				c.Advance(1)

				return inner, true
			}
		}

		c.Advance(1)
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentChar(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func containsRune(rs []rune, r rune) bool {
	for _, x := range rs {
		if x == r {
			return true
		}
	}

	return false
}
