package rule

import (
	"strings"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/diag"
	"github.com/nml-lang/nml/token"
)

// MathRule recognizes "$ … $" (inline math, default), "$[kind=block]
// …$", and "$| … |$" (non-math, block default) (§4.2 "Math / non-math
// LaTeX"). The render package's cache-fronted TexRenderer turns the
// captured body into SVG; this rule only builds the ast.Math node.
type MathRule struct{}

func (MathRule) Name() string  { return "math" }
func (MathRule) Priority() int { return 18 }

func (MathRule) Context(top ast.ContainerKind) bool {
	return isInlineHost(top)
}

func (MathRule) Search(cur *token.Cursor) (int, bool) {
	return findAnyLiteral(cur, "$|", "$")
}

func (MathRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()

	isMath := true
	closeDelim := "$"

	if hasPrefixAt(cur, "$|") {
		isMath = false
		cur.Advance(2)
		closeDelim = "|$"
	} else {
		cur.Advance(1)
	}

	kind := ast.MathInline
	if !isMath {
		kind = ast.MathBlock
	}

	env, caption := "", ""
	if props, ok := cur.PropertyList(); ok {
		if v, ok := props["kind"]; ok && v == "block" {
			kind = ast.MathBlock
		}

		env = props["env"]
		caption = props["caption"]
	}

	closeOffset, found := findLiteral(cur, closeDelim)
	if !found {
		st.Doc.Diagnostics.Errorf(diag.Lexical, cur.SpanFrom(start), "unterminated math/latex span")
		return nil
	}

	body := strings.TrimSpace(string(cur.Pos().Src.Content()[cur.Offset():closeOffset]))
	cur.Advance(closeOffset - cur.Offset())
	cur.Advance(len(closeDelim))

	if kind == ast.MathBlock {
		st.Builder.CloseParagraphIfOpen()
	}

	elem := &ast.Math{
		Base:    ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindMath, Loc: cur.SpanFrom(start)},
		Mode:    kind,
		IsMath:  isMath,
		Env:     env,
		Caption: caption,
		Body:    body,
	}

	if kind == ast.MathBlock {
		st.Builder.AppendChild(elem)
	} else {
		st.Builder.EnsureParagraphOpen(cur.SpanFrom(start))
		st.Builder.AppendChild(elem)
	}

	return nil
}
