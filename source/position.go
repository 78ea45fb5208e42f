package source

import (
	"bytes"
	"strconv"
)

// Position is a byte offset within a single Source. It does not by
// itself say anything about the original file; call RealPosition to
// walk derivations back to the deepest original file position.
type Position struct {
	Src    Source
	Offset int
}

// RealPosition walks p's chain of parents through their offset maps,
// returning the deepest original file position. If any derivation in
// the chain cannot map the offset (ToParent returns ok=false), the
// walk stops there and that position is returned instead.
func RealPosition(p Position) Position {
	cur := p

	for {
		parent := cur.Src.Parent()
		if parent == nil {
			return cur
		}

		parentOffset, ok := cur.Src.ToParent(cur.Offset)
		if !ok {
			return cur
		}

		cur = Position{Src: parent, Offset: parentOffset}
	}
}

// LineCol computes the one-based line and column for an offset within
// src's own content, independent of any derivation chain.
func LineCol(src Source, offset int) (line, col int) {
	content := src.Content()
	if offset > len(content) {
		offset = len(content)
	}

	head := content[:offset]
	line = bytes.Count(head, []byte("\n")) + 1

	if idx := bytes.LastIndexByte(head, '\n'); idx >= 0 {
		col = offset - idx
	} else {
		col = offset + 1
	}

	return line, col
}

// String renders p as "name:line:col" using p's own source, without
// walking to the real (original file) position. Callers that want
// diagnostics to point at the originating .nml byte range should call
// RealPosition first.
func (p Position) String() string {
	line, col := LineCol(p.Src, p.Offset)
	return p.Src.Name() + ":" + strconv.Itoa(line) + ":" + strconv.Itoa(col)
}

// Span is a half-open byte range within a single source.
type Span struct {
	Src   Source
	Start int
	End   int
}

// Begin returns the Position of the span's start offset.
func (s Span) Begin() Position { return Position{Src: s.Src, Offset: s.Start} }

// Finish returns the Position of the span's end offset.
func (s Span) Finish() Position { return Position{Src: s.Src, Offset: s.End} }

// Bytes returns the raw bytes covered by the span.
func (s Span) Bytes() []byte {
	content := s.Src.Content()
	if s.Start < 0 || s.End > len(content) || s.Start > s.End {
		return nil
	}

	return content[s.Start:s.End]
}

// Text is a convenience wrapper around Bytes.
func (s Span) Text() string { return string(s.Bytes()) }
