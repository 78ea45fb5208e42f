package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/kernel"
	"github.com/nml-lang/nml/parser"
	"github.com/nml-lang/nml/rule"
	"github.com/nml-lang/nml/source"
)

func newDriver(t *testing.T, regs ...rule.Rule) (*parser.Driver, *ast.Document, *ast.Builder, *kernel.Host) {
	t.Helper()

	reg := rule.NewRegistry()
	reg.Register(regs...)

	doc := ast.NewDocument(nil)
	builder := ast.NewBuilder()
	facade := kernel.NewDocFacade(doc, builder)
	host := kernel.NewHost(facade)

	d := parser.New(reg, nil, nil, nil, nil, nil)

	return d, doc, builder, host
}

func TestDriver_PlainTextBecomesParagraph(t *testing.T) {
	d, doc, builder, host := newDriver(t)
	doc.Source = source.NewFile("doc.nml", []byte("hello world"))

	require.NoError(t, d.Run(doc, builder, host, doc.Source, nil))

	root := doc.Root
	require.Len(t, root.Children(), 1)

	p, ok := root.Children()[0].(*ast.Paragraph)
	require.True(t, ok)
	require.Len(t, p.Children(), 1)

	text, ok := p.Children()[0].(*ast.Text)
	require.True(t, ok)
	assert.Equal(t, "hello world", text.Value)
}

func TestDriver_SectionThenText(t *testing.T) {
	src := source.NewFile("doc.nml", []byte("# Title\nbody text\n"))
	d, doc, builder, host := newDriver(t, rule.SectionRule{})
	doc.Source = src

	require.NoError(t, d.Run(doc, builder, host, src, nil))

	root := doc.Root
	require.Len(t, root.Children(), 2)

	sec, ok := root.Children()[0].(*ast.Section)
	require.True(t, ok)
	assert.Equal(t, "Title", sec.Title)
	assert.Equal(t, 1, sec.Depth)
	assert.Equal(t, "1", sec.Number)

	p, ok := root.Children()[1].(*ast.Paragraph)
	require.True(t, ok)
	require.Len(t, p.Children(), 1)

	text := p.Children()[0].(*ast.Text)
	assert.Equal(t, "body text\n", text.Value)
}

func TestDriver_BoldToggle(t *testing.T) {
	src := source.NewFile("doc.nml", []byte("a **bold** b"))
	styles := rule.BuiltinToggledStyles()
	d, doc, builder, host := newDriver(t, styles...)
	doc.Source = src

	require.NoError(t, d.Run(doc, builder, host, src, nil))

	root := doc.Root
	require.Len(t, root.Children(), 1)

	p := root.Children()[0].(*ast.Paragraph)
	require.Len(t, p.Children(), 3)

	assert.Equal(t, "a ", p.Children()[0].(*ast.Text).Value)

	run, ok := p.Children()[1].(*ast.StyledRun)
	require.True(t, ok)
	assert.Equal(t, "bold", run.StyleName)
	require.Len(t, run.Children(), 1)
	assert.Equal(t, "bold", run.Children()[0].(*ast.Text).Value)

	assert.Equal(t, " b", p.Children()[2].(*ast.Text).Value)
}

func TestDriver_EmptyDocument(t *testing.T) {
	src := source.NewFile("doc.nml", []byte(""))
	d, doc, builder, host := newDriver(t)
	doc.Source = src

	require.NoError(t, d.Run(doc, builder, host, src, nil))
	assert.Empty(t, doc.Root.Children())
}

func TestDriver_UnterminatedFenceRecovers(t *testing.T) {
	src := source.NewFile("doc.nml", []byte("```go\nfmt.Println(1)\n"))
	d, doc, builder, host := newDriver(t, rule.CodeFenceRule{})
	doc.Source = src

	require.NoError(t, d.Run(doc, builder, host, src, nil))
	require.Len(t, doc.Diagnostics.Items(), 1)

	require.Len(t, doc.Root.Children(), 1)
	block, ok := doc.Root.Children()[0].(*ast.CodeBlock)
	require.True(t, ok)
	assert.Equal(t, "go", block.Lang)
}
