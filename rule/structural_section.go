package rule

import (
	"strings"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/token"
)

// SectionRule recognizes "#{ref}+* Title" headings (§4.2 "Structural").
type SectionRule struct{}

func (SectionRule) Name() string { return "section" }

// Priority sits above LayoutRule's so a literal "#+LAYOUT_BEGIN ..."
// line is claimed by the layout rule instead (§4.2 "ties broken by
// priority").
func (SectionRule) Priority() int { return 10 }

func (SectionRule) Context(top ast.ContainerKind) bool {
	return top == ast.ContainerDocument || top == ast.ContainerLayoutPane ||
		top == ast.ContainerTable || top == ast.ContainerTableCell
}

func (SectionRule) Search(cur *token.Cursor) (int, bool) {
	return findLineStartLiteral(cur, "#")
}

func (SectionRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()

	for {
		b, ok := cur.PeekByte(0)
		if !ok || b != '#' {
			break
		}

		cur.Advance(1)
	}

	depth := cur.Offset() - start

	ref := ""
	if b, ok := cur.PeekByte(0); ok && b == '{' {
		span, ok := cur.BalancedSpan('{', '}')
		if ok {
			ref = span.Text()
		}
	}

	numbered := true
	inToC := true

loop:
	for {
		b, ok := cur.PeekByte(0)
		if !ok {
			break loop
		}

		switch b {
		case '*':
			numbered = false
			cur.Advance(1)
		case '+':
			inToC = false
			cur.Advance(1)
		default:
			break loop
		}
	}

	cur.SkipWhitespace()

	titleStart := cur.Offset()
	titleEnd := lineEnd(cur, titleStart)
	cur.Advance(titleEnd - titleStart)
	title := strings.TrimRight(cur.SpanFrom(titleStart).Text(), "\r")

	st.Builder.CloseTableIfOpen()
	st.Builder.CloseParagraphIfOpen()

	id := st.Doc.NextID()
	loc := cur.SpanFrom(start)

	sec := &ast.Section{
		Base:     ast.Base{IDValue: id, KindTag: ast.KindSection, Loc: loc},
		Depth:    depth,
		Title:    title,
		Numbered: numbered,
		InToC:    inToC,
		Ref:      ref,
	}

	if numbered {
		sec.Number = st.Doc.NextSectionNumber(depth)
	}

	st.Builder.AppendChild(sec)

	if ref != "" {
		st.Doc.DefineReference(ref, ast.KindSection, id, loc)
	}

	return nil
}
