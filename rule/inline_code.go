package rule

import (
	"strings"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/diag"
	"github.com/nml-lang/nml/token"
)

// BacktickRule resolves the single-backtick ambiguity of §4.2: the
// same "`...`" delimiter pair introduces either an inline code span
// ("`Lang, code`") or the "emphasis" styled run ("`text`"), decided by
// whether the content before its first comma, trimmed, is a plain
// identifier (see splitInlineCode).
type BacktickRule struct{}

func (BacktickRule) Name() string  { return "backtick" }
func (BacktickRule) Priority() int { return 15 }

func (BacktickRule) Context(top ast.ContainerKind) bool {
	return isInlineHost(top)
}

func (BacktickRule) Search(cur *token.Cursor) (int, bool) {
	return findLiteral(cur, "`")
}

func (BacktickRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()

	inner, ok := cur.BalancedSpan('`', '`')
	if !ok {
		st.Doc.Diagnostics.Errorf(diag.Lexical, cur.SpanFrom(cur.Offset()), "unterminated inline code/emphasis span")
		cur.Advance(1)

		return nil
	}

	st.Builder.EnsureParagraphOpen(cur.SpanFrom(start))

	text := inner.Text()

	if lang, body, isCode := splitInlineCode(text); isCode {
		elem := &ast.InlineCode{Base: ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindInlineCode, Loc: inner}, Lang: lang, Body: body}
		st.Builder.AppendChild(elem)

		return nil
	}

	run := &ast.StyledRun{Base: ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindStyledRun, Loc: inner}, StyleName: "emphasis"}
	run.AddChildren(&ast.Text{Base: ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindText, Loc: inner}, Value: text})
	st.Builder.AppendChild(run)

	return nil
}

// splitInlineCode reports whether text has the "Lang, code" shape: a
// leading identifier-like language tag, a comma, then the body.
func splitInlineCode(text string) (lang, body string, ok bool) {
	idx := strings.IndexByte(text, ',')
	if idx < 0 {
		return "", "", false
	}

	candidate := strings.TrimSpace(text[:idx])
	if candidate == "" || !isPlainIdentifier(candidate) {
		return "", "", false
	}

	return candidate, strings.TrimPrefix(text[idx+1:], " "), true
}

func isPlainIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}

	return true
}
