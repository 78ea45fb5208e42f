package ast

import (
	"github.com/nml-lang/nml/diag"
	"github.com/nml-lang/nml/source"
)

// frame is one entry of the Builder's containment stack (§3 "Scope
// rule": "document -> (optional layout) -> (optional paragraph) ->
// (optional styled run)", generalized to the full container set used
// by lists/tables/blockquotes/layouts).
type frame struct {
	kind ContainerKind
	elem Element
	base *Base
}

// Builder maintains the containment stack the parser driver pushes
// and pops as rules are built (§4.2 step 4: "it may push/pop
// containment"). It is owned by one document's parse pass; per-
// document state never leaks into the (stateless) rule registry.
type Builder struct {
	stack []*frame
}

// NewBuilder creates a Builder with only the document root container
// on its stack.
func NewBuilder() *Builder {
	root := &Container{Base{KindTag: KindDocument}}

	return &Builder{stack: []*frame{{kind: ContainerDocument, elem: root, base: &root.Base}}}
}

// Root returns the document root element. Valid at any time, though
// its children are only final once the stack has unwound back to
// depth 1.
func (b *Builder) Root() Element {
	return b.stack[0].elem
}

// Top returns the kind of the innermost open container.
func (b *Builder) Top() ContainerKind {
	return b.stack[len(b.stack)-1].kind
}

// TopElement returns the innermost open container's element.
func (b *Builder) TopElement() Element {
	return b.stack[len(b.stack)-1].elem
}

// Depth returns the number of open containers, document root
// included.
func (b *Builder) Depth() int {
	return len(b.stack)
}

// Push opens a new container of kind, wrapping elem/base, and makes it
// the new innermost container.
func (b *Builder) Push(kind ContainerKind, elem Element, base *Base) {
	b.stack = append(b.stack, &frame{kind: kind, elem: elem, base: base})
}

// Pop closes the innermost container, attaching it as a child of the
// new innermost container, and returns the closed element. Popping
// the document root is a no-op that returns the root unchanged.
func (b *Builder) Pop() Element {
	if len(b.stack) <= 1 {
		return b.stack[0].elem
	}

	closed := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]

	parent := b.stack[len(b.stack)-1]
	parent.base.AddChildren(closed.elem)

	return closed.elem
}

// AppendChild adds elem as a child of the innermost open container
// without changing the stack, used for leaf elements (Text, inline
// code, media, ...).
func (b *Builder) AppendChild(elem Element) {
	top := b.stack[len(b.stack)-1]
	top.base.AddChildren(elem)
}

// EnsureParagraphOpen auto-opens a paragraph if the innermost
// container cannot itself hold inline content directly (§4.2 "A
// paragraph is auto-opened on the first inline content").
func (b *Builder) EnsureParagraphOpen(at source.Span) *Paragraph {
	top := b.stack[len(b.stack)-1]
	if top.kind == ContainerParagraph {
		return top.elem.(*Paragraph)
	}

	if top.kind == ContainerStyledRun {
		// Walk outward to find the owning paragraph; styled runs
		// always nest inside one.
		for i := len(b.stack) - 1; i >= 0; i-- {
			if b.stack[i].kind == ContainerParagraph {
				return b.stack[i].elem.(*Paragraph)
			}
		}
	}

	p := &Paragraph{Base{KindTag: KindParagraph, Loc: at}}
	b.Push(ContainerParagraph, p, &p.Base)

	return p
}

// CloseParagraphIfOpen auto-closes the innermost paragraph, as
// required on a blank line or before any block-level element (§4.2).
func (b *Builder) CloseParagraphIfOpen() {
	if b.Top() == ContainerParagraph {
		b.Pop()
	}
}

// FindOpenStyledRun reports whether a StyledRun named styleName is
// currently open on the containment stack, returning its depth (stack
// index) if so. Used by toggled inline-style rules (bold/italic/
// underline/custom define_toggled styles) to decide whether a
// delimiter occurrence opens or closes a run (§4.2 "Inline style").
func (b *Builder) FindOpenStyledRun(styleName string) (depth int, found bool) {
	for i := len(b.stack) - 1; i >= 0; i-- {
		if b.stack[i].kind != ContainerStyledRun {
			continue
		}

		if run, ok := b.stack[i].elem.(*StyledRun); ok && run.StyleName == styleName {
			return i, true
		}
	}

	return 0, false
}

// CloseStyledRunAt pops every frame from the top of the stack down to
// and including depth, closing the styled run (and anything nested
// inside it that was still open) in one step.
func (b *Builder) CloseStyledRunAt(depth int) {
	for len(b.stack)-1 >= depth {
		b.Pop()
	}
}

// OpenListDepth counts how many nested List containers are currently
// open at the tail of the stack (§4.2 "Lists track (marker, depth) and
// rebuild nesting when indentation changes").
func (b *Builder) OpenListDepth() int {
	depth := 0

	for i := len(b.stack) - 1; i >= 0; i-- {
		switch b.stack[i].kind {
		case ContainerList, ContainerListItem:
			if b.stack[i].kind == ContainerList {
				depth++
			}
		default:
			return depth
		}
	}

	return depth
}

// PopListLevels closes n nested (List, ListItem) pairs from the tail
// of the stack.
func (b *Builder) PopListLevels(n int) {
	for i := 0; i < n; i++ {
		if b.Top() == ContainerListItem {
			b.Pop()
		}

		if b.Top() == ContainerList {
			b.Pop()
		}
	}
}

// PopCurrentListItem closes the innermost open ListItem, leaving its
// owning List open for a sibling item.
func (b *Builder) PopCurrentListItem() {
	if b.Top() == ContainerListItem {
		b.Pop()
	}
}

// OpenBlockquoteDepth counts nested Blockquote containers currently
// open at the tail of the stack.
func (b *Builder) OpenBlockquoteDepth() int {
	depth := 0

	for i := len(b.stack) - 1; i >= 0; i-- {
		switch b.stack[i].kind {
		case ContainerParagraph, ContainerStyledRun:
			continue
		case ContainerBlockquote:
			depth++
		default:
			return depth
		}
	}

	return depth
}

// CloseBlockquoteLevels closes n nested blockquote levels (and any
// open paragraph/styled-run frames nested within them) from the tail
// of the stack.
func (b *Builder) CloseBlockquoteLevels(n int) {
	for i := 0; i < n; i++ {
		for b.Top() == ContainerParagraph || b.Top() == ContainerStyledRun {
			b.Pop()
		}

		if b.Top() == ContainerBlockquote {
			b.Pop()
		}
	}
}

// CloseTableIfOpen closes an innermost open Table (and any dangling
// TableCell/paragraph frame within it), used by every other block-level
// rule to auto-close a table the way a blank line auto-closes a
// paragraph (§3 "Scope rule": "auto-closed... by any block-level
// element").
func (b *Builder) CloseTableIfOpen() {
	hasTable := false

	for i := len(b.stack) - 1; i >= 0; i-- {
		switch b.stack[i].kind {
		case ContainerParagraph, ContainerTableCell:
			continue
		case ContainerTable:
			hasTable = true
		}

		break
	}

	if !hasTable {
		return
	}

	for b.Top() == ContainerParagraph || b.Top() == ContainerTableCell {
		b.Pop()
	}

	if b.Top() == ContainerTable {
		b.Pop()
	}
}

// CloseThrough pops containers until kind is no longer on the stack
// (inclusive), used by local error recovery to unwind back to the
// nearest legal scope after an unrecoverable syntactic fault (§4.2
// "Failure semantics").
func (b *Builder) CloseThrough(kind ContainerKind) {
	for i := len(b.stack) - 1; i > 0; i-- {
		closedKind := b.stack[i].kind
		b.Pop()

		if closedKind == kind {
			return
		}
	}
}

// Finalize pops any containers left open at document end (§8 "Scope
// balance": "the parser never leaves the containment stack non-empty
// at document end (implicit closers finalize)"). A trailing paragraph
// or styled run left open at EOF is routine — almost every document
// ends that way — and so is a trailing table, whose rows have no
// closing syntax; the other block-scoped containers (layout, list,
// blockquote, ...) raise a diagnostic.
func (b *Builder) Finalize(bag *diag.Bag) {
	for len(b.stack) > 1 {
		top := b.stack[len(b.stack)-1]

		if top.kind != ContainerParagraph && top.kind != ContainerStyledRun && top.kind != ContainerTable {
			bag.Errorf(diag.Lexical, top.elem.Location(),
				"unterminated %v implicitly closed at end of document", top.kind)
		}

		b.Pop()
	}
}
