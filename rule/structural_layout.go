package rule

import (
	"strings"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/diag"
	"github.com/nml-lang/nml/token"
)

// LayoutRule recognizes "#+LAYOUT_BEGIN name", "#+LAYOUT_NEXT", and
// "#+LAYOUT_END" (§4.2 "Structural": "Layout blocks form a stack;
// LAYOUT_NEXT is only valid with a non-empty stack whose top is a
// multi-pane layout; LAYOUT_END pops").
type LayoutRule struct{}

func (LayoutRule) Name() string  { return "layout" }
func (LayoutRule) Priority() int { return 5 } // wins ties against SectionRule (§4.2)

func (LayoutRule) Context(top ast.ContainerKind) bool {
	return top == ast.ContainerDocument || top == ast.ContainerLayout || top == ast.ContainerLayoutPane ||
		top == ast.ContainerTable
}

func (LayoutRule) Search(cur *token.Cursor) (int, bool) {
	return findAnyLiteral(cur, "#+LAYOUT_BEGIN", "#+LAYOUT_NEXT", "#+LAYOUT_END")
}

func (LayoutRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()

	switch {
	case hasPrefixAt(cur, "#+LAYOUT_BEGIN"):
		cur.Advance(len("#+LAYOUT_BEGIN"))
		cur.SkipWhitespace()

		nameStart := cur.Offset()
		nameEnd := lineEnd(cur, nameStart)
		cur.Advance(nameEnd - nameStart)
		name := strings.TrimRight(cur.SpanFrom(nameStart).Text(), "\r")

		st.Builder.CloseTableIfOpen()
		st.Builder.CloseParagraphIfOpen()

		layout := &ast.Layout{Base: ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindLayout, Loc: cur.SpanFrom(start)}, Name: name}
		st.Builder.Push(ast.ContainerLayout, layout, &layout.Base)

		pane := &ast.LayoutPane{Base: ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindLayout, Loc: cur.SpanFrom(start)}}
		st.Builder.Push(ast.ContainerLayoutPane, pane, &pane.Base)

	case hasPrefixAt(cur, "#+LAYOUT_NEXT"):
		cur.Advance(len("#+LAYOUT_NEXT"))
		consumeRestOfLine(cur)

		if st.Builder.Top() != ast.ContainerLayoutPane {
			st.Doc.Diagnostics.Errorf(diag.Lexical, cur.SpanFrom(start), "LAYOUT_NEXT outside an open layout")
			return nil
		}

		st.Builder.CloseParagraphIfOpen()
		st.Builder.Pop() // close current pane

		pane := &ast.LayoutPane{Base: ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindLayout, Loc: cur.SpanFrom(start)}}
		st.Builder.Push(ast.ContainerLayoutPane, pane, &pane.Base)

	case hasPrefixAt(cur, "#+LAYOUT_END"):
		cur.Advance(len("#+LAYOUT_END"))
		consumeRestOfLine(cur)

		if st.Builder.Top() != ast.ContainerLayoutPane {
			st.Doc.Diagnostics.Errorf(diag.Lexical, cur.SpanFrom(start), "LAYOUT_END outside an open layout")
			return nil
		}

		st.Builder.CloseParagraphIfOpen()
		st.Builder.Pop() // close current pane
		st.Builder.Pop() // close layout
	}

	return nil
}

func hasPrefixAt(cur *token.Cursor, lit string) bool {
	content := cur.Pos().Src.Content()
	off := cur.Offset()

	return off+len(lit) <= len(content) && string(content[off:off+len(lit)]) == lit
}

func consumeRestOfLine(cur *token.Cursor) {
	end := lineEnd(cur, cur.Offset())
	cur.Advance(end - cur.Offset())

	if b, ok := cur.PeekByte(0); ok && b == '\n' {
		cur.Advance(1)
	}
}
