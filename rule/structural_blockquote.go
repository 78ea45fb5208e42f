package rule

import (
	"strings"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/token"
)

// BlockquoteRule recognizes '>'-nested quotation blocks, with nesting
// depth given by the leading '>' count and an optional property block
// on the first '>' (§4.2 "Structural").
type BlockquoteRule struct{}

func (BlockquoteRule) Name() string  { return "blockquote" }
func (BlockquoteRule) Priority() int { return 10 }

func (BlockquoteRule) Context(top ast.ContainerKind) bool {
	return top == ast.ContainerDocument || top == ast.ContainerLayoutPane ||
		top == ast.ContainerBlockquote || top == ast.ContainerListItem || top == ast.ContainerTable
}

func (BlockquoteRule) Search(cur *token.Cursor) (int, bool) {
	return findLineStartLiteral(cur, ">")
}

func (BlockquoteRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()

	st.Builder.CloseTableIfOpen()

	depth := 0
	for {
		b, ok := cur.PeekByte(0)
		if !ok || b != '>' {
			break
		}

		depth++
		cur.Advance(1)
	}

	cur.SkipWhitespace()

	var author, cite, url string
	if props, ok := cur.PropertyList(); ok {
		author, cite, url = props["author"], props["cite"], props["url"]
		cur.SkipWhitespace()
	}

	textStart := cur.Offset()
	textEnd := lineEnd(cur, textStart)
	cur.Advance(textEnd - textStart)
	text := strings.TrimRight(cur.SpanFrom(textStart).Text(), "\r")

	current := st.Builder.OpenBlockquoteDepth()

	switch {
	case depth > current:
		for lvl := current + 1; lvl <= depth; lvl++ {
			bq := &ast.Blockquote{Base: ast.Base{KindTag: ast.KindBlockquote, Loc: cur.SpanFrom(start)}, Depth: lvl}
			if lvl == depth {
				bq.Author, bq.Cite, bq.URL = author, cite, url
			}

			st.Builder.Push(ast.ContainerBlockquote, bq, &bq.Base)
		}
	case depth < current:
		st.Builder.CloseBlockquoteLevels(current - depth)
	}

	st.Builder.EnsureParagraphOpen(cur.SpanFrom(textStart))
	st.Builder.AppendChild(&ast.Text{Base: ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindText, Loc: cur.SpanFrom(textStart)}, Value: text})

	return nil
}
