// Package ast implements the typed document tree of §3/§4.3: an
// append-only, append-only-during-parse tree of Elements with a
// registry-driven open set of kind tags, each carrying a stable
// numeric id used as the target of References.
package ast

import "github.com/nml-lang/nml/source"

// Kind is an element's kind tag. The set is open: the script kernel
// host can introduce custom styled-run kinds at runtime via
// define_toggled/define_paired (§4.4, §9).
type Kind string

const (
	KindDocument    Kind = "document"
	KindParagraph   Kind = "paragraph"
	KindSection     Kind = "section"
	KindStyledRun   Kind = "styled_run"
	KindList        Kind = "list"
	KindListItem    Kind = "list_item"
	KindTable       Kind = "table"
	KindTableCell   Kind = "table_cell"
	KindCodeBlock   Kind = "code_block"
	KindInlineCode  Kind = "inline_code"
	KindMath        Kind = "math"
	KindGraph       Kind = "graph"
	KindMedia       Kind = "media"
	KindReference   Kind = "reference"
	KindMediaRef    Kind = "media_reference"
	KindRaw         Kind = "raw"
	KindLayout      Kind = "layout"
	KindBlockquote  Kind = "blockquote"
	KindText        Kind = "text"
)

// Element is a node in the document tree. Every concrete element type
// in this package embeds Base and satisfies Element.
type Element interface {
	ID() int
	Kind() Kind
	Location() source.Span
	Children() []Element
}

// Base is embedded by every concrete element kind. It carries the
// identity and location every element needs regardless of its typed
// attributes.
type Base struct {
	IDValue  int
	KindTag  Kind
	Loc      source.Span
	Nodes    []Element
}

func (b *Base) ID() int               { return b.IDValue }
func (b *Base) Kind() Kind            { return b.KindTag }
func (b *Base) Location() source.Span { return b.Loc }
func (b *Base) Children() []Element   { return b.Nodes }

// AddChildren appends to this element's children and can be used
// builder-style, mirroring the teacher's TreeNode.AddChildren.
func (b *Base) AddChildren(children ...Element) *Base {
	b.Nodes = append(b.Nodes, children...)
	return b
}

// IDSequence assigns the stable, monotonically increasing numeric ids
// used as reference targets. One IDSequence exists per document.
type IDSequence struct {
	next int
}

// Next returns the next unused id, starting at 1.
func (s *IDSequence) Next() int {
	s.next++
	return s.next
}
