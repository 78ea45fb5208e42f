package rule

import (
	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/diag"
	"github.com/nml-lang/nml/token"
)

// GraphRule recognizes "[graph][props] dot-source [/graph]" (§4.2
// "Graphs"). The dot source is rendered to SVG by the cache-fronted
// DotRenderer; this rule only builds the ast.Graph node.
type GraphRule struct{}

func (GraphRule) Name() string  { return "graph" }
func (GraphRule) Priority() int { return 12 }

func (GraphRule) Context(top ast.ContainerKind) bool {
	return top == ast.ContainerDocument || top == ast.ContainerLayoutPane || top == ast.ContainerParagraph
}

func (GraphRule) Search(cur *token.Cursor) (int, bool) {
	return findLiteral(cur, "[graph]")
}

func (GraphRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()
	cur.Advance(len("[graph]"))

	layout, width := "", ""
	if props, ok := cur.PropertyList(); ok {
		layout, width = props["layout"], props["width"]
	}

	closeOffset, found := findLiteral(cur, "[/graph]")
	if !found {
		st.Doc.Diagnostics.Errorf(diag.Lexical, cur.SpanFrom(start), "unterminated [graph] block")
		return nil
	}

	body := string(cur.Pos().Src.Content()[cur.Offset():closeOffset])
	cur.Advance(closeOffset - cur.Offset())
	cur.Advance(len("[/graph]"))

	st.Builder.CloseParagraphIfOpen()

	elem := &ast.Graph{
		Base:      ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindGraph, Loc: cur.SpanFrom(start)},
		Layout:    layout,
		Width:     width,
		DotSource: body,
	}
	st.Builder.AppendChild(elem)

	return nil
}
