package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/rule"
)

func TestScriptDefineAndEvalToText(t *testing.T) {
	src := "@<\nfunction greet(name) return \"hi \" .. name end\n>@\n" +
		"result: %<\"return greet('world')>%\n"

	doc := run(t, src, rule.ScriptDefineRule{}, rule.ScriptEvalRule{})
	require.Empty(t, doc.Diagnostics.Items())

	p := doc.Root.Children()[0].(*ast.Paragraph)

	var text string
	for _, c := range p.Children() {
		if txt, ok := c.(*ast.Text); ok {
			text += txt.Value
		}
	}
	assert.Contains(t, text, "hi world")
}

func TestScriptEvalDiscard_SetsVariableViaFacade(t *testing.T) {
	src := "%<nml.set_variable(\"x\", \"42\")>%\n"
	doc := run(t, src, rule.ScriptEvalRule{})
	require.Empty(t, doc.Diagnostics.Items())

	v, ok := doc.Vars.Get("x")
	require.True(t, ok)
	assert.Equal(t, "42", v.Value)
}

func TestScriptEvalToParse_ReparsesReturnedText(t *testing.T) {
	src := "%<!return \"**bold**\">%\n"
	doc := run(t, src, rule.ScriptEvalRule{}, rule.BuiltinToggledStyles()[0])

	p := doc.Root.Children()[0].(*ast.Paragraph)
	found := false
	for _, c := range p.Children() {
		if sr, ok := c.(*ast.StyledRun); ok {
			found = true
			assert.Equal(t, "bold", sr.StyleName)
		}
	}
	assert.True(t, found)
}

func TestScriptDefineRule_EscapedCloseSequenceStaysLiteral(t *testing.T) {
	src := "@<\nx = 1 -- \\>@ inside body\n>@\n"
	doc := run(t, src, rule.ScriptDefineRule{})
	require.Empty(t, doc.Diagnostics.Items())
}

func TestScriptDefineRule_Unterminated_EmitsDiagnostic(t *testing.T) {
	doc := run(t, "@<\nx = 1\n", rule.ScriptDefineRule{})
	require.Len(t, doc.Diagnostics.Items(), 1)
}
