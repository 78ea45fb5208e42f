package rule_test

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

func run(t *testing.T, content string, regs ...rule.Rule) *ast.Document {
	t.Helper()

	reg := rule.NewRegistry()
	reg.Register(regs...)

	src := source.NewFile("doc.nml", []byte(content))
	doc := ast.NewDocument(src)
	builder := ast.NewBuilder()
	facade := kernel.NewDocFacade(doc, builder)
	host := kernel.NewHost(facade)
	defer host.Close()

	d := parser.New(reg, nil, nil, nil, nil, nil)
	require.NoError(t, d.Run(doc, builder, host, src, nil))

	return doc
}

func TestListRule_NestedBulletsWithCheckbox(t *testing.T) {
	doc := run(t, "* top\n** [x] done\n", rule.ListRule{})

	require.Len(t, doc.Root.Children(), 1)
	top := doc.Root.Children()[0].(*ast.List)
	assert.False(t, top.Ordered)
	assert.Equal(t, 1, top.Depth)
	require.Len(t, top.Children(), 1)

	item := top.Children()[0].(*ast.ListItem)
	assert.Equal(t, "top", item.Children()[0].(*ast.Text).Value)

	require.Len(t, item.Children(), 2)
	nestedList := item.Children()[1].(*ast.List)
	assert.Equal(t, 2, nestedList.Depth)
	nestedItem := nestedList.Children()[0].(*ast.ListItem)
	assert.Equal(t, ast.CheckboxChecked, nestedItem.Checkbox)
	assert.Equal(t, "done", nestedItem.Children()[0].(*ast.Text).Value)
}

func TestListRule_OrderedMarkerAndOffsetProperty(t *testing.T) {
	doc := run(t, "-[offset=3] third\n", rule.ListRule{})

	list := doc.Root.Children()[0].(*ast.List)
	assert.True(t, list.Ordered)
	item := list.Children()[0].(*ast.ListItem)
	assert.Equal(t, 3, item.Offset)
}

func TestBlockquoteRule_NestedWithAuthorOnInnermost(t *testing.T) {
	doc := run(t, ">> [author=Ada,cite=Letters] deeply nested\n", rule.BlockquoteRule{})

	require.Len(t, doc.Root.Children(), 1)
	outer := doc.Root.Children()[0].(*ast.Blockquote)
	assert.Equal(t, 1, outer.Depth)
	assert.Empty(t, outer.Author)

	inner := outer.Children()[0].(*ast.Blockquote)
	assert.Equal(t, 2, inner.Depth)
	assert.Equal(t, "Ada", inner.Author)
	assert.Equal(t, "Letters", inner.Cite)

	p := inner.Children()[0].(*ast.Paragraph)
	assert.Equal(t, "deeply nested", p.Children()[0].(*ast.Text).Value)
}

func TestLayoutRule_BeginNextEnd(t *testing.T) {
	doc := run(t, "#+LAYOUT_BEGIN split\n#+LAYOUT_NEXT\n#+LAYOUT_END\n", rule.LayoutRule{})

	require.Len(t, doc.Root.Children(), 1)
	layout := doc.Root.Children()[0].(*ast.Layout)
	assert.Equal(t, "split", layout.Name)
	require.Len(t, layout.Children(), 2)

	_, ok := layout.Children()[0].(*ast.LayoutPane)
	assert.True(t, ok)
	_, ok = layout.Children()[1].(*ast.LayoutPane)
	assert.True(t, ok)
}

func TestLayoutRule_NextOutsideLayout_EmitsDiagnostic(t *testing.T) {
	doc := run(t, "#+LAYOUT_NEXT\n", rule.LayoutRule{})
	require.Len(t, doc.Diagnostics.Items(), 1)
}

func TestTableHeaderAndRowRule_GroupsCellsIntoRows(t *testing.T) {
	doc := run(t,
		":TABLE {stats} Summary\n|a|b\n|c|d\n",
		rule.TableHeaderRule{}, rule.TableRowRule{},
	)

	require.Len(t, doc.Root.Children(), 1)
	table := doc.Root.Children()[0].(*ast.Table)
	assert.Equal(t, "stats", table.Ref)
	assert.Equal(t, "Summary", table.Caption)
	require.Len(t, table.Children(), 4)

	assert.True(t, table.Children()[0].(*ast.TableCell).NewRow)
	assert.False(t, table.Children()[1].(*ast.TableCell).NewRow)
	assert.True(t, table.Children()[2].(*ast.TableCell).NewRow)

	_, ok := doc.References["stats"]
	assert.True(t, ok)
}

func TestTableRowRule_HSpanProperty(t *testing.T) {
	doc := run(t, "|a|b\n|:hspan=2: wide cell\n", rule.TableRowRule{})
	require.Empty(t, doc.Diagnostics.Items())

	table := doc.Root.Children()[0].(*ast.Table)
	wide := table.Children()[2].(*ast.TableCell)
	assert.Equal(t, 2, wide.HSpan)
	assert.Equal(t, "wide cell", wide.Children()[0].(*ast.Text).Value)
}

func TestTableRowRule_HSpanExceedingColumns_EmitsDiagnostic(t *testing.T) {
	doc := run(t, "|:hspan=2: wide cell\n|next\n", rule.TableRowRule{})

	table := doc.Root.Children()[0].(*ast.Table)
	assert.Equal(t, 1, table.Columns)
	require.Len(t, doc.Diagnostics.Items(), 1)
}

func TestSectionRule_Numbering(t *testing.T) {
	doc := run(t, "# One\n## Two\n# Three\n", rule.SectionRule{})

	require.Len(t, doc.Root.Children(), 3)
	one := doc.Root.Children()[0].(*ast.Section)
	assert.Equal(t, "1", one.Number)

	two := doc.Root.Children()[1].(*ast.Section)
	assert.Equal(t, "1.1", two.Number)

	three := doc.Root.Children()[2].(*ast.Section)
	assert.Equal(t, "2", three.Number)
}
