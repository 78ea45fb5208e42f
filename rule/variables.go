package rule

import (
	"strings"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/diag"
	"github.com/nml-lang/nml/source"
	"github.com/nml-lang/nml/token"
)

// VariableTextRule recognizes "@name = value" text variable
// definitions, with trailing-backslash line continuation ("\\"
// preserves the newline instead of joining lines) (§4.2 "Variables").
type VariableTextRule struct{}

func (VariableTextRule) Name() string  { return "var-text" }
func (VariableTextRule) Priority() int { return 10 }

func (VariableTextRule) Context(top ast.ContainerKind) bool {
	return top == ast.ContainerDocument || top == ast.ContainerLayoutPane
}

func (VariableTextRule) Search(cur *token.Cursor) (int, bool) {
	return findLineStartMatching(cur, '@', looksLikeTextVarAssignment)
}

func looksLikeTextVarAssignment(rest []byte) bool {
	if len(rest) < 2 || !isIdentByte(rest[1]) || rest[1] == '\'' {
		return false
	}

	i := 1
	for i < len(rest) && (isIdentByte(rest[i]) || rest[i] == '.') {
		i++
	}

	for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t') {
		i++
	}

	return i < len(rest) && rest[i] == '='
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func (VariableTextRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()
	cur.Advance(1) // '@'

	name := readDottedIdentifier(cur)
	cur.SkipWhitespace()
	cur.Advance(1) // '='
	cur.SkipWhitespace()

	value := readContinuedLine(cur)

	st.Doc.Vars.SetText(name, value, cur.SpanFrom(start))

	return nil
}

// VariablePathRule recognizes "@'name = path" path variable
// definitions, resolved and validated relative to the defining
// source's directory (§4.2 "Variables", §3 "Variable").
type VariablePathRule struct{}

func (VariablePathRule) Name() string  { return "var-path" }
func (VariablePathRule) Priority() int { return 9 }

func (VariablePathRule) Context(top ast.ContainerKind) bool {
	return top == ast.ContainerDocument || top == ast.ContainerLayoutPane
}

func (VariablePathRule) Search(cur *token.Cursor) (int, bool) {
	return findLineStartMatching(cur, '@', func(rest []byte) bool {
		return len(rest) > 1 && rest[1] == '\''
	})
}

func (VariablePathRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()
	cur.Advance(2) // "@'"

	name, _ := cur.Identifier()
	cur.SkipWhitespace()
	cur.Advance(1) // '='
	cur.SkipWhitespace()

	raw := readContinuedLine(cur)

	if _, err := st.Doc.Vars.SetPath(name, raw, cur.SpanFrom(start)); err != nil {
		st.Doc.Diagnostics.Errorf(diag.Semantic, cur.SpanFrom(start), "invalid path variable %q: %v", name, err)
	}

	return nil
}

// readContinuedLine reads a variable's value, joining a trailing
// "\"-continued line onto the next (consuming the newline), while a
// trailing "\\" preserves the newline as a literal character instead
// (§4.2 "Variables").
func readContinuedLine(cur *token.Cursor) string {
	var sb strings.Builder

	for {
		lineStart := cur.Offset()
		end := lineEnd(cur, lineStart)
		text := string(cur.Pos().Src.Content()[lineStart:end])

		switch {
		case strings.HasSuffix(text, `\\`):
			sb.WriteString(strings.TrimSuffix(text, `\\`))
			sb.WriteByte('\n')
			cur.Advance(end - lineStart)

			if b, ok := cur.PeekByte(0); ok && b == '\n' {
				cur.Advance(1)
			}
		case strings.HasSuffix(text, `\`):
			sb.WriteString(strings.TrimSuffix(text, `\`))
			cur.Advance(end - lineStart)

			if b, ok := cur.PeekByte(0); ok && b == '\n' {
				cur.Advance(1)
			}
		default:
			sb.WriteString(text)
			cur.Advance(end - lineStart)

			if b, ok := cur.PeekByte(0); ok && b == '\n' {
				cur.Advance(1)
			}

			return sb.String()
		}
	}
}

// SubstitutionRule recognizes "%name%" variable substitution: the
// variable's value is pushed as a new derived source and re-parsed
// (§4.2 "Variables"; §9 "Layered sources").
type SubstitutionRule struct{}

func (SubstitutionRule) Name() string  { return "var-substitution" }
func (SubstitutionRule) Priority() int { return 30 }

func (SubstitutionRule) Context(top ast.ContainerKind) bool {
	return isInlineHost(top)
}

func (SubstitutionRule) Search(cur *token.Cursor) (int, bool) {
	content := cur.Remaining()
	base := cur.Offset()

	start := 0
	for start < len(content) {
		idx := indexByte(content[start:], '%')
		if idx < 0 {
			return 0, false
		}

		open := start + idx
		end := matchingPercent(content, open)

		if end >= 0 {
			return base + open, true
		}

		start = open + 1
	}

	return 0, false
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}

	return -1
}

// matchingPercent returns the index of the closing '%' for the
// identifier run starting right after content[open], or -1 if the
// bytes between the two '%' do not form a bare identifier.
func matchingPercent(content []byte, open int) int {
	i := open + 1

	for i < len(content) && (isIdentByte(content[i]) || content[i] == '.') {
		i++
	}

	if i == open+1 || i >= len(content) || content[i] != '%' {
		return -1
	}

	return i
}

func (SubstitutionRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()
	cur.Advance(1) // opening '%'

	name := readDottedIdentifier(cur)
	cur.Advance(1) // closing '%'

	v, ok := st.Doc.Vars.Get(name)
	if !ok {
		st.Doc.Diagnostics.Errorf(diag.Semantic, cur.SpanFrom(start), "unknown variable %q", name)
		return nil
	}

	defSite := cur.SpanFrom(start)
	derived := source.NewDerived("var:"+name+"@"+cur.Pos().Src.Name(), []byte(v.Value), cur.Pos().Src, source.SpliceMap(defSite.Start))
	cur.Push(derived)

	return nil
}
