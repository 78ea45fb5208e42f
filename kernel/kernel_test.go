package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/kernel"
	"github.com/nml-lang/nml/source"
)

func newFacade(t *testing.T) *kernel.DocFacade {
	t.Helper()

	src := source.NewFile("k.nml", []byte("content"))
	doc := ast.NewDocument(src)
	doc.Root = &ast.Container{Base: ast.Base{KindTag: ast.KindDocument}}
	builder := ast.NewBuilder()

	return kernel.NewDocFacade(doc, builder)
}

func TestKernel_DefineThenEvalToText(t *testing.T) {
	facade := newFacade(t)
	host := kernel.NewHost(facade)
	k := host.Kernel("")

	require.NoError(t, k.Define(`function greet(name) return "hi " .. name end`))

	out, err := k.EvalToText(`return greet("world")`)
	require.NoError(t, err)
	assert.Equal(t, "hi world", out)
}

func TestKernel_EvalDiscard_SetsVariableViaFacade(t *testing.T) {
	facade := newFacade(t)
	host := kernel.NewHost(facade)
	k := host.Kernel("")

	require.NoError(t, k.EvalDiscard(`nml.set_variable("x", "42")`))

	v, ok := facade.GetVariable("x")
	require.True(t, ok)
	assert.Equal(t, "42", v)
}

func TestKernel_NamedKernelsAreIndependent(t *testing.T) {
	facade := newFacade(t)
	host := kernel.NewHost(facade)

	a := host.Kernel("a")
	b := host.Kernel("b")

	require.NoError(t, a.Define(`x = 1`))
	require.NoError(t, b.Define(`x = 2`))

	outA, err := a.EvalToText(`return tostring(x)`)
	require.NoError(t, err)
	outB, err := b.EvalToText(`return tostring(x)`)
	require.NoError(t, err)

	assert.Equal(t, "1", outA)
	assert.Equal(t, "2", outB)
}

func TestKernel_SameNameReturnsSameKernel(t *testing.T) {
	facade := newFacade(t)
	host := kernel.NewHost(facade)

	k1 := host.Kernel("main")
	require.NoError(t, k1.Define(`y = 7`))

	k2 := host.Kernel("main")
	out, err := k2.EvalToText(`return tostring(y)`)
	require.NoError(t, err)
	assert.Equal(t, "7", out)
}

func TestDocFacade_PushElementAppendsRawChild(t *testing.T) {
	facade := newFacade(t)
	host := kernel.NewHost(facade)
	k := host.Kernel("")

	require.NoError(t, k.EvalDiscard(`nml.push_element("note", "hello")`))

	children := facade.Builder.Root().Children()
	require.Len(t, children, 1)

	raw, ok := children[0].(*ast.Raw)
	require.True(t, ok)
	assert.Equal(t, "note", raw.RawKind)
	assert.Equal(t, "hello", raw.Body)
}

func TestDocFacade_ExportAndReadTable(t *testing.T) {
	facade := newFacade(t)
	host := kernel.NewHost(facade)
	k := host.Kernel("")

	require.NoError(t, k.EvalDiscard(`nml.export_table("colors", {red="#f00", blue="#00f"})`))

	out, err := k.EvalToText(`return nml.tables.colors.red`)
	require.NoError(t, err)
	assert.Equal(t, "#f00", out)
}

func TestDocFacade_DefineToggled_RegistersCustomRule(t *testing.T) {
	facade := newFacade(t)
	host := kernel.NewHost(facade)
	k := host.Kernel("main")

	require.NoError(t, k.EvalDiscard(`
		nml.define_toggled("spoiler", "~", function() end, function() end)
	`))

	rules := host.TakeCustomRules()
	require.Len(t, rules, 1)
	assert.Equal(t, kernel.RuleToggled, rules[0].Kind)
	assert.Equal(t, "spoiler", rules[0].Name)
	assert.Equal(t, "~", rules[0].Delim)
	assert.Equal(t, "main", rules[0].KernelName)

	assert.Empty(t, host.TakeCustomRules())
}

func TestHost_Close(t *testing.T) {
	facade := newFacade(t)
	host := kernel.NewHost(facade)
	host.Kernel("main")
	host.Kernel("other")

	assert.NotPanics(t, func() { host.Close() })
}
