package rule

import (
	"bytes"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/token"
)

// isInlineHost reports whether top is a container that can directly
// host inline content: either an already-open paragraph/styled run,
// or a block container whose first inline token implicitly opens a
// paragraph (§4.2 "A paragraph is auto-opened on the first inline
// content in a block container"). Every inline rule (styles, inline
// code, math, media, references, script eval, substitution) shares
// this Context predicate.
func isInlineHost(top ast.ContainerKind) bool {
	switch top {
	case ast.ContainerParagraph, ast.ContainerStyledRun, ast.ContainerDocument,
		ast.ContainerLayoutPane, ast.ContainerListItem, ast.ContainerTableCell, ast.ContainerBlockquote:
		return true
	default:
		return false
	}
}

// findLiteral returns the offset of the first occurrence of lit in
// cur's remaining bytes, relative to the start of the current source
// (i.e. directly comparable to other Search results), or ok=false if
// absent.
func findLiteral(cur *token.Cursor, lit string) (int, bool) {
	idx := bytes.Index(cur.Remaining(), []byte(lit))
	if idx < 0 {
		return 0, false
	}

	return cur.Offset() + idx, true
}

// findAnyLiteral returns the earliest occurrence among lits.
func findAnyLiteral(cur *token.Cursor, lits ...string) (int, bool) {
	best := -1

	for _, lit := range lits {
		if off, ok := findLiteral(cur, lit); ok {
			if best < 0 || off < best {
				best = off
			}
		}
	}

	if best < 0 {
		return 0, false
	}

	return best, true
}

// atLineStart reports whether offset (within cur's current top
// source) is the first byte of a line: offset 0, or the byte before
// it is '\n'.
func atLineStart(cur *token.Cursor, offset int) bool {
	content := cur.Remaining()
	base := cur.Offset()

	if offset == 0 {
		return true
	}

	i := offset - base - 1
	if i < 0 || i >= len(content) {
		// offset precedes the cursor or is the start of remaining
		// content itself; re-derive from the full line using the
		// byte directly before offset in the source content instead.
		return offset > 0 && linePrecededByNewline(cur, offset)
	}

	return content[i] == '\n'
}

func linePrecededByNewline(cur *token.Cursor, offset int) bool {
	full := cur.Pos().Src.Content()
	if offset <= 0 || offset > len(full) {
		return offset == 0
	}

	return full[offset-1] == '\n'
}

// findLineStartLiteral returns the earliest offset at which lit begins
// a line, scanning forward from the cursor.
func findLineStartLiteral(cur *token.Cursor, lit string) (int, bool) {
	content := cur.Remaining()
	base := cur.Offset()
	search := []byte(lit)

	start := 0
	for start <= len(content) {
		idx := bytes.Index(content[start:], search)
		if idx < 0 {
			return 0, false
		}

		abs := start + idx
		if atLineStart(cur, base+abs) {
			return base + abs, true
		}

		start = abs + 1
	}

	return 0, false
}

// findLineStartMatching scans forward for the earliest line-start
// occurrence of trigger whose following bytes satisfy match, used by
// the variable/import/style/script rules to disambiguate their shared
// '@' prefix without backtracking in the driver.
func findLineStartMatching(cur *token.Cursor, trigger byte, match func(rest []byte) bool) (int, bool) {
	content := cur.Remaining()
	base := cur.Offset()

	for i := 0; i < len(content); i++ {
		if content[i] != trigger {
			continue
		}

		abs := base + i
		if !atLineStart(cur, abs) {
			continue
		}

		if match(content[i:]) {
			return abs, true
		}
	}

	return 0, false
}

// readDottedIdentifier reads a "."-joined identifier chain, the form
// used by every dotted variable/style name in the corpus (nav.title,
// html.page_title, tex.<env>.fontsize, style.section, ...): plain
// identifier segments joined by single dots, consumed greedily.
func readDottedIdentifier(cur *token.Cursor) string {
	start := cur.Offset()

	for {
		if _, ok := cur.Identifier(); !ok {
			break
		}

		if b, ok := cur.PeekByte(0); ok && b == '.' {
			cur.Advance(1)
			continue
		}

		break
	}

	return cur.SpanFrom(start).Text()
}

// lineEnd returns the offset (within the current top source) of the
// next '\n' at or after offset, or the content length if none.
func lineEnd(cur *token.Cursor, offset int) int {
	content := cur.Pos().Src.Content()

	idx := bytes.IndexByte(content[offset:], '\n')
	if idx < 0 {
		return len(content)
	}

	return offset + idx
}
