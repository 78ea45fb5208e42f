package rule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/rule"
)

func TestPairedStyleRule_OpenCloseDelimitersNestInStyledRun(t *testing.T) {
	quote := rule.PairedStyleRule{StyleName: "quote", Open: "<<", Close: ">>", Pri: 22}
	doc := run(t, "<<hello>> world\n", quote)

	p := doc.Root.Children()[0].(*ast.Paragraph)
	require.Len(t, p.Children(), 2)

	styled := p.Children()[0].(*ast.StyledRun)
	assert.Equal(t, "quote", styled.StyleName)
	assert.Equal(t, "hello", styled.Children()[0].(*ast.Text).Value)

	assert.Contains(t, p.Children()[1].(*ast.Text).Value, "world")
}

func TestBlankLineRule_SplitsAdjacentParagraphs(t *testing.T) {
	bold := rule.ToggledStyleRule{StyleName: "bold", Delim: "**", Pri: 20}
	doc := run(t, "**x**\n\nsecond\n", bold, rule.BlankLineRule{})

	require.Len(t, doc.Root.Children(), 2)
	_, ok := doc.Root.Children()[0].(*ast.Paragraph)
	assert.True(t, ok)
	second := doc.Root.Children()[1].(*ast.Paragraph)
	assert.Contains(t, second.Children()[0].(*ast.Text).Value, "second")
}

func TestMediaRule_AltDoublesAsReferenceName(t *testing.T) {
	doc := run(t, "![Diagram](diagram.png)[width=80]\n", rule.MediaRule{})

	p := doc.Root.Children()[0].(*ast.Paragraph)
	media := p.Children()[0].(*ast.Media)
	assert.Equal(t, "Diagram", media.Alt)
	assert.Equal(t, "diagram.png", media.URL)
	assert.Equal(t, "80", media.Properties["width"])

	_, ok := doc.References["Diagram"]
	assert.True(t, ok)
}

func TestMediaReferenceRule_CapturesNameAndCaption(t *testing.T) {
	doc := run(t, "see &{Diagram}[caption=See above]\n", rule.MediaReferenceRule{})

	p := doc.Root.Children()[0].(*ast.Paragraph)
	ref := p.Children()[1].(*ast.Reference)
	assert.Equal(t, ast.RefMedia, ref.RefKind)
	assert.Equal(t, "Diagram", ref.Name)
	assert.Equal(t, "See above", ref.Caption)
}

func TestSectionReferenceRule_AnyFormSetsAnyFlag(t *testing.T) {
	doc := run(t, "see §{#intro}\n", rule.SectionReferenceRule{})

	p := doc.Root.Children()[0].(*ast.Paragraph)
	ref := p.Children()[1].(*ast.Reference)
	assert.Equal(t, ast.RefSection, ref.RefKind)
	assert.True(t, ref.Any)
	assert.Equal(t, "intro", ref.Name)
	assert.Empty(t, ref.Doc)
}

func TestSectionReferenceRule_QualifiedFormSetsDoc(t *testing.T) {
	doc := run(t, "see §{other#intro}\n", rule.SectionReferenceRule{})

	p := doc.Root.Children()[0].(*ast.Paragraph)
	ref := p.Children()[1].(*ast.Reference)
	assert.Equal(t, "other", ref.Doc)
	assert.Equal(t, "intro", ref.Name)
	assert.False(t, ref.Any)
}

func TestRawRule_CapturesKindAndBody(t *testing.T) {
	doc := run(t, "{?[kind=html] <b>hi</b> ?}\n", rule.RawRule{})

	raw := doc.Root.Children()[0].(*ast.Raw)
	assert.Equal(t, "html", raw.RawKind)
	assert.Equal(t, "<b>hi</b>", raw.Body)
}
