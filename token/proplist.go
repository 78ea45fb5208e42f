package token

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Property is a single "key=value" pair from a property block, such
// as the offset/title/export_as properties attached to lists, tables,
// math and graph blocks (§4.2).
type Property struct {
	Key   string `@Ident "="`
	Value string `@(Ident|String|Number)`
}

// PropertyListGrammar is the closed grammar of "[k=v,k2=v2,...]"
// property blocks. Unlike the top-level rule set, this sub-grammar
// never changes at runtime, so it is parsed with participle instead of
// hand-rolled scanning.
type PropertyListGrammar struct {
	Properties []*Property `"[" (@@ ("," @@)*)? "]"`
}

var propertyListParser = participle.MustBuild[PropertyListGrammar](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "String", Pattern: `"(\\"|[^"])*"`},
		{Name: "Number", Pattern: `[0-9]+(\.[0-9]+)?`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Punct", Pattern: `[\[\]=,]`},
		{Name: "whitespace", Pattern: `\s+`},
	})),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// PropertyList parses a "[k=v,...]" block starting at the current
// rune ('['). It is used for per-item property blocks
// (list/blockquote/table/graph/math) named throughout §4.2.
func (c *Cursor) PropertyList() (map[string]string, bool) {
	b, ok := c.PeekByte(0)
	if !ok || b != '[' {
		return nil, false
	}

	span, ok := c.BalancedSpan('[', ']')
	if !ok {
		return nil, false
	}

	text := "[" + span.Text() + "]"

	grammar, err := propertyListParser.ParseString("", text)
	if err != nil {
		return nil, false
	}

	props := make(map[string]string, len(grammar.Properties))
	for _, p := range grammar.Properties {
		props[p.Key] = p.Value
	}

	return props, true
}
