package rule

import (
	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/token"
)

// BlankLineRule auto-closes the innermost open paragraph on a blank
// line (§3 "Scope rule": "auto-closed by a blank line or by any
// block-level element"). Block-level rules auto-close their own
// paragraph directly; this rule exists for the plain "two newlines in
// a row" case.
type BlankLineRule struct{}

func (BlankLineRule) Name() string  { return "blank-line" }
func (BlankLineRule) Priority() int { return 90 }

func (BlankLineRule) Context(top ast.ContainerKind) bool {
	return top == ast.ContainerParagraph || top == ast.ContainerTable || top == ast.ContainerTableCell
}

func (BlankLineRule) Search(cur *token.Cursor) (int, bool) {
	return findLiteral(cur, "\n\n")
}

func (BlankLineRule) Build(cur *token.Cursor, st *State) error {
	cur.Advance(1) // consume the first newline; it terminates the paragraph/row text
	st.Builder.CloseTableIfOpen()
	st.Builder.CloseParagraphIfOpen()
	cur.Advance(1) // consume the blank line's own newline

	for {
		b, ok := cur.PeekByte(0)
		if !ok || b != '\n' {
			break
		}

		cur.Advance(1)
	}

	return nil
}
