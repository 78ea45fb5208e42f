package rule

import (
	"strings"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/diag"
	"github.com/nml-lang/nml/token"
)

// CodeFenceRule recognizes fenced code blocks delimited by "```", with
// an optional "[line_offset=n]" property block and an optional
// "Lang, Title" header on the opening line (§4.2 "Inline style").
type CodeFenceRule struct{}

func (CodeFenceRule) Name() string  { return "code-fence" }
func (CodeFenceRule) Priority() int { return 5 }

func (CodeFenceRule) Context(top ast.ContainerKind) bool {
	return top != ast.ContainerTableCell
}

func (CodeFenceRule) Search(cur *token.Cursor) (int, bool) {
	return findLiteral(cur, "```")
}

func (CodeFenceRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()
	cur.Advance(3)

	lineOffset := 0
	if props, ok := cur.PropertyList(); ok {
		if v, ok := props["line_offset"]; ok {
			lineOffset = atoiSafe(v)
		}
	}

	cur.SkipWhitespace()

	headerStart := cur.Offset()
	headerEnd := lineEnd(cur, headerStart)
	cur.Advance(headerEnd - headerStart)

	lang, title := splitLangTitle(strings.TrimRight(cur.SpanFrom(headerStart).Text(), "\r"))

	if b, ok := cur.PeekByte(0); ok && b == '\n' {
		cur.Advance(1)
	}

	bodyStart := cur.Offset()

	closeOffset, found := findLiteral(cur, "```")
	bodyEnd := closeOffset

	if !found {
		bodyEnd = len(cur.Pos().Src.Content())
		st.Doc.Diagnostics.Errorf(diag.Lexical, cur.SpanFrom(start), "unterminated code fence, implicitly closed at end of document")
	}

	body := string(cur.Pos().Src.Content()[bodyStart:bodyEnd])
	body = strings.TrimSuffix(body, "\n")

	cur.Advance(bodyEnd - cur.Offset())

	if found {
		cur.Advance(3)
	}

	st.Builder.CloseParagraphIfOpen()

	elem := &ast.CodeBlock{
		Base:       ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindCodeBlock, Loc: cur.SpanFrom(start)},
		Lang:       lang,
		Title:      title,
		LineOffset: lineOffset,
		Body:       body,
	}
	st.Builder.AppendChild(elem)

	return nil
}

// MiniCodeRule recognizes the "between double backticks" multi-line
// code form (§4.2 "mini code spanning multiple lines between double
// backticks").
type MiniCodeRule struct{}

func (MiniCodeRule) Name() string  { return "mini-code" }
func (MiniCodeRule) Priority() int { return 6 }

func (MiniCodeRule) Context(top ast.ContainerKind) bool {
	return isInlineHost(top)
}

func (MiniCodeRule) Search(cur *token.Cursor) (int, bool) {
	return findLiteral(cur, "``")
}

func (MiniCodeRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()
	st.Builder.EnsureParagraphOpen(cur.SpanFrom(start))
	cur.Advance(2)

	bodyStart := cur.Offset()
	closeOffset, found := findLiteral(cur, "``")
	bodyEnd := closeOffset

	if !found {
		bodyEnd = len(cur.Pos().Src.Content())
		st.Doc.Diagnostics.Errorf(diag.Lexical, cur.SpanFrom(start), "unterminated mini code span, implicitly closed at end of document")
	}

	body := string(cur.Pos().Src.Content()[bodyStart:bodyEnd])
	cur.Advance(bodyEnd - cur.Offset())

	if found {
		cur.Advance(2)
	}

	lang, bodyRest := "", body
	if l, b, ok := splitInlineCode(body); ok {
		lang, bodyRest = l, b
	}

	elem := &ast.InlineCode{Base: ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindInlineCode, Loc: cur.SpanFrom(start)}, Lang: lang, Body: bodyRest}
	st.Builder.AppendChild(elem)

	return nil
}

func splitLangTitle(header string) (lang, title string) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ""
	}

	idx := strings.IndexByte(header, ',')
	if idx < 0 {
		return header, ""
	}

	return strings.TrimSpace(header[:idx]), strings.TrimSpace(header[idx+1:])
}

func atoiSafe(s string) int {
	n := 0

	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}

		n = n*10 + int(r-'0')
	}

	return n
}
