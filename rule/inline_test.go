package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/rule"
)

func TestBacktickRule_CommaFormIsInlineCode(t *testing.T) {
	doc := run(t, "see `go, fmt.Println()` here\n", rule.BacktickRule{})

	p := doc.Root.Children()[0].(*ast.Paragraph)
	require.Len(t, p.Children(), 3)

	code := p.Children()[1].(*ast.InlineCode)
	assert.Equal(t, "go", code.Lang)
	assert.Equal(t, "fmt.Println()", code.Body)
}

func TestBacktickRule_NoCommaFallsBackToEmphasis(t *testing.T) {
	doc := run(t, "a `word` b\n", rule.BacktickRule{})

	p := doc.Root.Children()[0].(*ast.Paragraph)
	styledRun := p.Children()[1].(*ast.StyledRun)
	assert.Equal(t, "emphasis", styledRun.StyleName)
	assert.Equal(t, "word", styledRun.Children()[0].(*ast.Text).Value)
}

func TestCodeFenceRule_LangTitleAndLineOffset(t *testing.T) {
	doc := run(t, "```[line_offset=5]go, Example\nfmt.Println(1)\n```\n", rule.CodeFenceRule{})

	block := doc.Root.Children()[0].(*ast.CodeBlock)
	assert.Equal(t, "go", block.Lang)
	assert.Equal(t, "Example", block.Title)
	assert.Equal(t, 5, block.LineOffset)
	assert.Equal(t, "fmt.Println(1)", block.Body)
}

func TestCodeFenceRule_Unterminated_EmitsDiagnosticAndClosesAtEOF(t *testing.T) {
	doc := run(t, "```go\nfmt.Println(1)\n", rule.CodeFenceRule{})

	require.Len(t, doc.Diagnostics.Items(), 1)
	block := doc.Root.Children()[0].(*ast.CodeBlock)
	assert.Equal(t, "go", block.Lang)
}

func TestMiniCodeRule_LangBody(t *testing.T) {
	doc := run(t, "run ``go, x := 1`` now\n", rule.MiniCodeRule{})

	p := doc.Root.Children()[0].(*ast.Paragraph)
	code := p.Children()[1].(*ast.InlineCode)
	assert.Equal(t, "go", code.Lang)
	assert.Equal(t, "x := 1", code.Body)
}

func TestMathRule_InlineDefault(t *testing.T) {
	doc := run(t, "energy $E = mc^2$ equation\n", rule.MathRule{})

	p := doc.Root.Children()[0].(*ast.Paragraph)
	m := p.Children()[1].(*ast.Math)
	assert.Equal(t, ast.MathInline, m.Mode)
	assert.True(t, m.IsMath)
	assert.Equal(t, "E = mc^2", m.Body)
}

func TestMathRule_NonMathBlockPipeDelimited(t *testing.T) {
	doc := run(t, "$|[env=align,caption=Eq1] \\begin{align}x\\end{align} |$\n", rule.MathRule{})

	block := doc.Root.Children()[0].(*ast.Math)
	assert.Equal(t, ast.MathBlock, block.Mode)
	assert.False(t, block.IsMath)
	assert.Equal(t, "align", block.Env)
	assert.Equal(t, "Eq1", block.Caption)
}

func TestMathRule_KindPropertyForcesBlock(t *testing.T) {
	doc := run(t, "$[kind=block] x^2 $\n", rule.MathRule{})

	block := doc.Root.Children()[0].(*ast.Math)
	assert.Equal(t, ast.MathBlock, block.Mode)
	assert.True(t, block.IsMath)
}

func TestGraphRule_CapturesDotSourceAndProps(t *testing.T) {
	doc := run(t, "[graph][layout=dot,width=50] digraph { a -> b } [/graph]\n", rule.GraphRule{})

	graph := doc.Root.Children()[0].(*ast.Graph)
	assert.Equal(t, "dot", graph.Layout)
	assert.Equal(t, "50", graph.Width)
	assert.Contains(t, graph.DotSource, "a -> b")
}

func TestGraphRule_Unterminated_EmitsDiagnostic(t *testing.T) {
	doc := run(t, "[graph] digraph { a -> b }\n", rule.GraphRule{})
	require.Len(t, doc.Diagnostics.Items(), 1)
}

func TestVariableTextRule_DottedNameRoundTrips(t *testing.T) {
	doc := run(t, "@compiler.output = out.html\n", rule.VariableTextRule{})

	v, ok := doc.Vars.Get("compiler.output")
	require.True(t, ok)
	assert.Equal(t, "out.html", v.Value)
}

func TestVariableTextRule_LineContinuation(t *testing.T) {
	doc := run(t, "@msg = first\\\nsecond\n", rule.VariableTextRule{})

	v, ok := doc.Vars.Get("msg")
	require.True(t, ok)
	assert.Equal(t, "firstsecond", v.Value)
}

func TestVariablePathRule_ResolvesRelativeToSourceDir(t *testing.T) {
	doc := run(t, "@'logo = assets/logo.png\n", rule.VariablePathRule{})

	v, ok := doc.Vars.Get("logo")
	require.True(t, ok)
	assert.Equal(t, "assets/logo.png", v.Value)
}

func TestSubstitutionRule_DottedNameSubstitutesValue(t *testing.T) {
	doc := run(t, "@html.page_title = My Page\nTitle: %html.page_title%\n",
		rule.VariableTextRule{}, rule.SubstitutionRule{})

	require.Len(t, doc.Diagnostics.Items(), 0)

	p := doc.Root.Children()[0].(*ast.Paragraph)

	var text string
	for _, c := range p.Children() {
		if txt, ok := c.(*ast.Text); ok {
			text += txt.Value
		}
	}
	assert.Contains(t, text, "My Page")
}

func TestSubstitutionRule_UnknownVariable_EmitsDiagnostic(t *testing.T) {
	doc := run(t, "value is %missing.name%\n", rule.SubstitutionRule{})
	require.Len(t, doc.Diagnostics.Items(), 1)
}

func TestStyleRule_DottedKeyStoresRawJSON(t *testing.T) {
	doc := run(t, "@@toc.title = {\"text\": \"Contents\"}\n", rule.StyleRule{})

	raw, ok := doc.Styles.Get("toc.title")
	require.True(t, ok)
	assert.JSONEq(t, `{"text": "Contents"}`, string(raw))
}
