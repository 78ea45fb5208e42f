package rule

import (
	"encoding/json"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/diag"
	"github.com/nml-lang/nml/token"
)

// StyleRule recognizes "@@style.key = { ...json... }" style overrides
// (§4.2 "Styles"). The JSON value is validated against whatever
// schema the owning element kind registered, via env.Styles.Set.
type StyleRule struct{}

func (StyleRule) Name() string  { return "style" }
func (StyleRule) Priority() int { return 10 }

func (StyleRule) Context(top ast.ContainerKind) bool {
	return top == ast.ContainerDocument || top == ast.ContainerLayoutPane
}

func (StyleRule) Search(cur *token.Cursor) (int, bool) {
	return findLineStartLiteral(cur, "@@")
}

func (StyleRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()
	cur.Advance(2) // "@@"

	key := readStyleKey(cur)
	cur.SkipWhitespace()

	if b, ok := cur.PeekByte(0); !ok || b != '=' {
		st.Doc.Diagnostics.Errorf(diag.Lexical, cur.SpanFrom(start), "expected '=' in style override for %q", key)
		return nil
	}
	cur.Advance(1)
	cur.SkipWhitespace()

	body, ok := cur.BalancedSpan('{', '}')
	if !ok {
		st.Doc.Diagnostics.Errorf(diag.Lexical, cur.SpanFrom(start), "expected '{ ... }' JSON value for style key %q", key)
		return nil
	}

	// body excludes the braces; put them back so raw is the JSON object.
	raw := json.RawMessage("{" + body.Text() + "}")
	rng := cur.SpanFrom(start)

	if err := st.Doc.Styles.Set(key, raw, rng, &st.Doc.Diagnostics); err != nil {
		st.Doc.Diagnostics.Errorf(diag.Lexical, rng, "invalid JSON for style key %q: %v", key, err)
	}

	return nil
}

// readStyleKey reads the dotted "style.key" path following "@@".
func readStyleKey(cur *token.Cursor) string {
	return readDottedIdentifier(cur)
}
