// Package parser implements the driver loop of §4.2: scan for the
// earliest rule match, emit the plain text between matches, invoke the
// winning rule's builder, repeat until the source stack is exhausted.
package parser

import (
	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/cache"
	"github.com/nml-lang/nml/kernel"
	"github.com/nml-lang/nml/render"
	"github.com/nml-lang/nml/rule"
	"github.com/nml-lang/nml/source"
	"github.com/nml-lang/nml/token"
)

// Driver owns the collaborators a parse pass needs (the rule registry,
// cache, renderers) plus the per-document Import hook. The registry is
// not document-independent: scripts can register rules into it during
// a parse, so the nml facade builds a fresh one per document. A fresh
// kernel.Host is likewise supplied per document since kernels are
// never shared across documents (§5).
type Driver struct {
	Registry *rule.Registry
	Cache    *cache.Store
	Tex      render.TexRenderer
	Dot      render.DotRenderer
	Hi       render.CodeHighlighter
	Import   func(path string, visiting map[string]bool) (*ast.Document, error)
}

// New creates a Driver. importFn may be nil for standalone single-
// document parses where @import is not expected to resolve anything.
func New(reg *rule.Registry, c *cache.Store, tex render.TexRenderer, dot render.DotRenderer, hi render.CodeHighlighter, importFn func(string, map[string]bool) (*ast.Document, error)) *Driver {
	return &Driver{Registry: reg, Cache: c, Tex: tex, Dot: dot, Hi: hi, Import: importFn}
}

// Run parses src into doc via builder, the document's containment
// stack (§4.2 steps 1-5). kernels is the document's own script kernel
// host, created fresh by the caller. visiting is the import-cycle
// visiting set shared across the whole import chain; pass nil for a
// standalone top-level parse (a fresh set is created).
func (d *Driver) Run(doc *ast.Document, builder *ast.Builder, kernels *kernel.Host, src source.Source, visiting map[string]bool) error {
	cur := token.NewCursor(src)

	if visiting == nil {
		visiting = make(map[string]bool)
	}

	st := &rule.State{
		Doc:       doc,
		Builder:   builder,
		Registry:  d.Registry,
		Kernels:   kernels,
		Cache:     d.Cache,
		Tex:       d.Tex,
		Dot:       d.Dot,
		Hi:        d.Hi,
		Import:    d.Import,
		Importing: visiting,
	}

	for {
		cur.PopExhausted()

		if cur.Depth() == 1 && cur.AtEnd() {
			break
		}

		top := builder.Top()
		eligible := d.Registry.Eligible(top)
		match, matched := rule.Best(eligible, cur)

		layerEnd := len(cur.Pos().Src.Content())
		textEnd := layerEnd
		if matched {
			textEnd = match.Offset
		}

		if textEnd > cur.Offset() {
			d.emitText(doc, builder, cur, textEnd)
		}

		if !matched {
			continue
		}

		if err := match.Rule.Build(cur, st); err != nil {
			return err
		}
	}

	builder.Finalize(&doc.Diagnostics)
	doc.Root = builder.Root()

	return nil
}

// emitText appends the bytes in [cursor, textEnd) as a Text leaf,
// auto-opening a paragraph if the innermost container can't hold
// inline content directly. A single newline immediately following a
// block-level construct (anything other than an already-open
// paragraph or styled run) is swallowed rather than surfacing as a
// leading blank line inside the new paragraph's text, mirroring how
// every structural rule leaves its own trailing line terminator
// unconsumed.
func (d *Driver) emitText(doc *ast.Document, builder *ast.Builder, cur *token.Cursor, textEnd int) {
	start := cur.Offset()
	textStart := start

	top := builder.Top()
	if top != ast.ContainerParagraph && top != ast.ContainerStyledRun {
		if b, ok := cur.PeekByte(0); ok && b == '\n' {
			textStart++
		}
	}

	if textEnd > textStart {
		content := string(cur.Pos().Src.Content()[textStart:textEnd])
		loc := source.Span{Src: cur.Pos().Src, Start: textStart, End: textEnd}

		builder.EnsureParagraphOpen(loc)
		builder.AppendChild(&ast.Text{
			Base:  ast.Base{IDValue: doc.NextID(), KindTag: ast.KindText, Loc: loc},
			Value: content,
		})
	}

	cur.Advance(textEnd - start)
}
