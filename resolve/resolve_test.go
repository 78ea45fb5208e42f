package resolve_test

import (
	"testing"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/diag"
	"github.com/nml-lang/nml/resolve"
	"github.com/nml-lang/nml/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocWithRef(t *testing.T, name, output string, refName string, sectionID int, refKind ast.ReferenceKind, refTarget string, any bool, doc string) (*ast.Document, *ast.Reference) {
	t.Helper()

	src := source.NewFile(name, []byte("content"))
	d := ast.NewDocument(src)
	d.OutputName = output

	if sectionID > 0 {
		d.DefineReference(refName, ast.KindSection, sectionID, source.Span{Src: src})
	}

	ref := &ast.Reference{
		Base:    ast.Base{IDValue: 99, KindTag: ast.KindReference, Loc: source.Span{Src: src}},
		RefKind: refKind,
		Name:    refTarget,
		Any:     any,
		Doc:     doc,
	}

	root := &ast.Container{Base: ast.Base{KindTag: ast.KindDocument}}
	root.AddChildren(ref)
	d.Root = root

	return d, ref
}

func TestResolve_LocalReference(t *testing.T) {
	doc, ref := newDocWithRef(t, "a.nml", "a.html", "x", 1, ast.RefSection, "x", false, "")

	res := resolve.Resolve([]*ast.Document{doc})

	b, ok := res.Bindings[resolve.RefKey{Doc: "a.html", ElementID: ref.ID()}]
	require.True(t, ok)
	assert.Equal(t, 1, b.ElementID)
	assert.Empty(t, res.Diagnostics["a.html"].Items())
}

func TestResolve_LocalReference_NoGlobalFallback(t *testing.T) {
	a, _ := newDocWithRef(t, "a.nml", "a.html", "shared", 1, 0, "", false, "")

	src := source.NewFile("b.nml", []byte("content"))
	b := ast.NewDocument(src)
	b.OutputName = "b.html"

	ref := &ast.Reference{
		Base: ast.Base{IDValue: 7, KindTag: ast.KindReference, Loc: source.Span{Src: src}},
		Name: "shared", // defined only in a.html; §{ref} must not fall back globally
	}

	root := &ast.Container{Base: ast.Base{KindTag: ast.KindDocument}}
	root.AddChildren(ref)
	b.Root = root

	res := resolve.Resolve([]*ast.Document{a, b})

	_, ok := res.Bindings[resolve.RefKey{Doc: "b.html", ElementID: ref.ID()}]
	assert.False(t, ok)

	items := res.Diagnostics["b.html"].Items()
	require.Len(t, items, 1)
	assert.Equal(t, diag.Semantic, items[0].Severity)
}

func TestResolve_AnyDocumentReference_Unique(t *testing.T) {
	doc, ref := newDocWithRef(t, "a.nml", "a.html", "k", 1, ast.RefSection, "k", true, "")

	res := resolve.Resolve([]*ast.Document{doc})

	b, ok := res.Bindings[resolve.RefKey{Doc: "a.html", ElementID: ref.ID()}]
	require.True(t, ok)
	assert.Equal(t, "a.html", b.Doc)
}

func TestResolve_AnyDocumentReference_AmbiguousFails(t *testing.T) {
	srcA := source.NewFile("a.nml", []byte("x"))
	a := ast.NewDocument(srcA)
	a.OutputName = "a.html"
	a.DefineReference("dup", ast.KindSection, 1, source.Span{Src: srcA})
	a.Root = &ast.Container{Base: ast.Base{KindTag: ast.KindDocument}}

	srcB := source.NewFile("b.nml", []byte("y"))
	b := ast.NewDocument(srcB)
	b.OutputName = "b.html"
	b.DefineReference("dup", ast.KindSection, 2, source.Span{Src: srcB})

	ref := &ast.Reference{Base: ast.Base{IDValue: 5, KindTag: ast.KindReference, Loc: source.Span{Src: srcB}}, Any: true, Name: "dup"}
	root := &ast.Container{Base: ast.Base{KindTag: ast.KindDocument}}
	root.AddChildren(ref)
	b.Root = root

	res := resolve.Resolve([]*ast.Document{a, b})

	_, ok := res.Bindings[resolve.RefKey{Doc: "b.html", ElementID: ref.ID()}]
	assert.False(t, ok)
	require.Len(t, res.Diagnostics["b.html"].Items(), 1)
}

func TestResolve_CrossDocumentReference(t *testing.T) {
	srcA := source.NewFile("a.nml", []byte("x"))
	a := ast.NewDocument(srcA)
	a.OutputName = "a.html"
	a.DefineReference("k", ast.KindSection, 11, source.Span{Src: srcA})
	a.Root = &ast.Container{Base: ast.Base{KindTag: ast.KindDocument}}

	srcB := source.NewFile("b.nml", []byte("y"))
	b := ast.NewDocument(srcB)
	b.OutputName = "b.html"

	ref := &ast.Reference{Base: ast.Base{IDValue: 3, KindTag: ast.KindReference, Loc: source.Span{Src: srcB}}, Doc: "a.html", Name: "k"}
	root := &ast.Container{Base: ast.Base{KindTag: ast.KindDocument}}
	root.AddChildren(ref)
	b.Root = root

	res := resolve.Resolve([]*ast.Document{a, b})

	binding, ok := res.Bindings[resolve.RefKey{Doc: "b.html", ElementID: ref.ID()}]
	require.True(t, ok)
	assert.Equal(t, "a.html", binding.Doc)
	assert.Equal(t, 11, binding.ElementID)
}
