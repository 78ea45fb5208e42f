package nml_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/nml"
)

func TestCompiler_CompileFile_SetsOutputNameAndNavFromDottedVars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intro.nml")

	src := "@compiler.output = a.html\n" +
		"@nav.title = Introduction\n" +
		"@nav.category = Guide\n\n" +
		"#{intro} Introduction\n" +
		"Hello **world**.\n"
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	c, err := nml.New(nml.Options{})
	require.NoError(t, err)
	defer c.Close()

	doc, err := c.CompileFile(path)
	require.NoError(t, err)

	assert.Equal(t, "a", doc.OutputName)
	assert.Equal(t, "Introduction", doc.Nav.Title)
	assert.Equal(t, "Guide", doc.Nav.Category)

	require.Len(t, doc.Root.Children(), 2)
	sec, ok := doc.Root.Children()[0].(*ast.Section)
	require.True(t, ok)
	assert.Equal(t, "Introduction", sec.Title)
}

func TestCompiler_CompileFile_WithoutOutputVar_FallsBackToSourceName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.nml")
	require.NoError(t, os.WriteFile(path, []byte("just text\n"), 0o644))

	c, err := nml.New(nml.Options{})
	require.NoError(t, err)
	defer c.Close()

	doc, err := c.CompileFile(path)
	require.NoError(t, err)

	assert.Equal(t, "plain", doc.OutputName)
}

func TestCompiler_CompileFile_MissingFile_ReturnsPosError(t *testing.T) {
	c, err := nml.New(nml.Options{})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.CompileFile(filepath.Join(t.TempDir(), "missing.nml"))
	require.Error(t, err)
}

func TestCompiler_CompileDirectory_ResolvesCrossDocumentReference(t *testing.T) {
	dir := t.TempDir()

	introPath := filepath.Join(dir, "intro.nml")
	otherPath := filepath.Join(dir, "other.nml")

	require.NoError(t, os.WriteFile(introPath, []byte(
		"@compiler.output = intro.html\n\n"+
			"#{intro} Introduction\n"+
			"body\n",
	), 0o644))
	require.NoError(t, os.WriteFile(otherPath, []byte(
		"@compiler.output = other.html\n\n"+
			"see §{intro#intro}\n",
	), 0o644))

	c, err := nml.New(nml.Options{})
	require.NoError(t, err)
	defer c.Close()

	docs, errs, res := c.CompileDirectory([]string{introPath, otherPath}, nil)
	require.Empty(t, errs)
	require.Len(t, docs, 2)
	require.NotNil(t, res)
	assert.Zero(t, res.Diagnostics["other"].Len())
}

func TestCompiler_Render_UsesDefaultHTMLRenderer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.nml")
	require.NoError(t, os.WriteFile(path, []byte(
		"@compiler.output = a.html\n\n"+
			"#{intro} Introduction\n"+
			"Hello **world**.\n",
	), 0o644))

	c, err := nml.New(nml.Options{})
	require.NoError(t, err)
	defer c.Close()

	docs, errs, res := c.CompileDirectory([]string{path}, nil)
	require.Empty(t, errs)
	require.Len(t, docs, 1)

	out, err := c.Render(docs[0], res)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Introduction")
	assert.Contains(t, string(out), "world")
}

func TestCompiler_CompileFile_ImportMergesEnvironmentViaSameCompileHook(t *testing.T) {
	dir := t.TempDir()

	sharedPath := filepath.Join(dir, "shared.nml")
	mainPath := filepath.Join(dir, "main.nml")

	require.NoError(t, os.WriteFile(sharedPath, []byte(
		"@brand.name = Acme\n",
	), 0o644))
	require.NoError(t, os.WriteFile(mainPath, []byte(
		"@import shared.nml\n\n"+
			"hello %brand.name%\n",
	), 0o644))

	c, err := nml.New(nml.Options{})
	require.NoError(t, err)
	defer c.Close()

	doc, err := c.CompileFile(mainPath)
	require.NoError(t, err)
	require.Empty(t, doc.Diagnostics.Items())

	require.Len(t, doc.Root.Children(), 1)
	p, ok := doc.Root.Children()[0].(*ast.Paragraph)
	require.True(t, ok)

	var text string
	for _, child := range p.Children() {
		if txt, ok := child.(*ast.Text); ok {
			text += txt.Value
		}
	}
	assert.Contains(t, text, "Acme")
}

func TestCompiler_CompileFile_CyclicImport_DoesNotRecurseForever(t *testing.T) {
	dir := t.TempDir()

	aPath := filepath.Join(dir, "a.nml")
	bPath := filepath.Join(dir, "b.nml")

	require.NoError(t, os.WriteFile(aPath, []byte("@import b.nml\n"), 0o644))
	require.NoError(t, os.WriteFile(bPath, []byte("@import a.nml\n"), 0o644))

	c, err := nml.New(nml.Options{})
	require.NoError(t, err)
	defer c.Close()

	done := make(chan struct{})
	var doc *ast.Document
	var compileErr error

	go func() {
		doc, compileErr = c.CompileFile(aPath)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("CompileFile did not return: import cycle likely recursed without bound")
	}

	require.NoError(t, compileErr)
	require.NotNil(t, doc)
}
