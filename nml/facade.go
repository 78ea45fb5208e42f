// Package nml is the single entry point named in §2's component table:
// it wires source loading, the parser driver, the cross-document
// resolver, and a render.Renderer together for either a single
// document or a directory set, supplying the per-document kernel host
// and rule registry each compile needs (§5: "kernels are not shared
// across documents").
package nml

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/cache"
	"github.com/nml-lang/nml/diag"
	"github.com/nml-lang/nml/kernel"
	"github.com/nml-lang/nml/parser"
	"github.com/nml-lang/nml/render"
	"github.com/nml-lang/nml/resolve"
	"github.com/nml-lang/nml/rule"
	"github.com/nml-lang/nml/source"
)

// Options configures a Compiler (§4.8 "Configuration": passed
// explicitly into the facade, no config-file/env-var library, since
// CLI flag parsing is out of scope).
type Options struct {
	// CachePath opens (creating if needed) a sqlite cache at this path.
	// Empty means no cache: LaTeX/Graphviz/code-highlight output is
	// never cached or reused, and directory mode has no staleness
	// tracking across runs.
	CachePath string
	// ForceRebuild skips directory-mode staleness checks entirely.
	ForceRebuild bool
	// Workers bounds directory-mode compile concurrency; 0 means one
	// goroutine per document.
	Workers int

	// SubprocessTimeout bounds each LaTeX/Graphviz subprocess call
	// (§4.8 "configurable subprocess timeout"). Zero means no deadline.
	SubprocessTimeout time.Duration

	Tex render.TexRenderer
	Dot render.DotRenderer
	Hi  render.CodeHighlighter

	// Renderer defaults to a render.HTMLRenderer wired to the cache and
	// the three subprocess collaborators above.
	Renderer render.Renderer
}

// Compiler holds the collaborators a compile pass needs once, built
// fresh per document otherwise (rule registry, kernel host) per §5.
type Compiler struct {
	opts     Options
	cache    *cache.Store
	renderer render.Renderer
}

// New creates a Compiler, opening the cache if Options.CachePath is
// set. A cache-open failure is Fatal per §7 ("an input or cache-open
// failure that aborts the affected document").
func New(opts Options) (*Compiler, error) {
	var store *cache.Store

	if opts.CachePath != "" {
		s, err := cache.Open(opts.CachePath)
		if err != nil {
			return nil, fmt.Errorf("open cache at %q: %w", opts.CachePath, err)
		}

		store = s
	}

	renderer := opts.Renderer
	if renderer == nil {
		renderer = &render.HTMLRenderer{Cache: store, Tex: opts.Tex, Dot: opts.Dot, Hi: opts.Hi, Timeout: opts.SubprocessTimeout}
	}

	return &Compiler{opts: opts, cache: store, renderer: renderer}, nil
}

// Close releases the cache handle, if one is open.
func (c *Compiler) Close() error {
	if c.cache == nil {
		return nil
	}

	return c.cache.Close()
}

// CompileFile loads path from disk and compiles it into a Document.
func (c *Compiler) CompileFile(path string) (*ast.Document, error) {
	return c.compileFile(path, make(map[string]bool))
}

// compileFile is CompileFile plus the shared import-cycle visiting
// set. It also serves as the parser's @import hook (§4.2 "Imports"):
// ImportRule calls back into this method, passing its own Importing
// set along, so that nested compiles across document boundaries share
// one path-keyed visiting set instead of each starting a fresh, blind
// one (§8 "Import acyclicity").
func (c *Compiler) compileFile(path string, visiting map[string]bool) (*ast.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.NewPosError(source.Span{}, fmt.Sprintf("read %q", path)).SetCause(err)
	}

	return c.compile(source.NewFile(path, content), visiting)
}

// Compile runs one document's full parse pass over src: a fresh rule
// registry (so script-registered define_toggled/define_paired rules
// never leak into another document's parse) and a fresh kernel.Host,
// torn down once parsing completes.
func (c *Compiler) Compile(src source.Source) (*ast.Document, error) {
	return c.compile(src, make(map[string]bool))
}

func (c *Compiler) compile(src source.Source, visiting map[string]bool) (*ast.Document, error) {
	doc := ast.NewDocument(src)
	builder := ast.NewBuilder()

	facade := kernel.NewDocFacade(doc, builder)
	host := kernel.NewHost(facade)
	defer host.Close()

	reg := newRegistry()
	driver := parser.New(reg, c.cache, c.opts.Tex, c.opts.Dot, c.opts.Hi, c.compileFile)

	if err := driver.Run(doc, builder, host, src, visiting); err != nil {
		return nil, err
	}

	finalize(doc)

	return doc, nil
}

// newRegistry builds the full rule set of §4.2, one instance per
// document compile.
func newRegistry() *rule.Registry {
	reg := rule.NewRegistry()

	reg.Register(
		rule.ImportRule{},
		rule.StyleRule{},
		rule.VariablePathRule{},
		rule.VariableTextRule{},
		rule.SubstitutionRule{},
		rule.SectionRule{},
		rule.BlankLineRule{},
		rule.ListRule{},
		rule.BlockquoteRule{},
		rule.LayoutRule{},
		rule.TableHeaderRule{},
		rule.TableRowRule{},
		rule.BacktickRule{},
		rule.CodeFenceRule{},
		rule.MiniCodeRule{},
		rule.MathRule{},
		rule.GraphRule{},
		rule.MediaRule{},
		rule.SectionReferenceRule{},
		rule.MediaReferenceRule{},
		rule.RawRule{},
		rule.ScriptDefineRule{},
		rule.ScriptEvalRule{},
	)
	reg.Register(rule.BuiltinToggledStyles()...)

	return reg
}

// finalize reads the variables the resolver and renderer need after
// the parse pass has populated doc.Vars: compiler.output (§3
// "compiler.output: per-document output filename, extension stripped
// to form document identity") and the nav.* linkage variables (§4.6
// step 3).
func finalize(doc *ast.Document) {
	out := doc.Source.Name()
	if v, ok := doc.Vars.Get("compiler.output"); ok {
		out = v.Value
	}

	doc.OutputName = strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))

	doc.Nav = ast.NavigationHints{}
	if v, ok := doc.Vars.Get("nav.title"); ok {
		doc.Nav.Title = v.Value
	}
	if v, ok := doc.Vars.Get("nav.previous"); ok {
		doc.Nav.Previous = v.Value
	}
	if v, ok := doc.Vars.Get("nav.category"); ok {
		doc.Nav.Category = v.Value
	}
	if v, ok := doc.Vars.Get("nav.subcategory"); ok {
		doc.Nav.Subcategory = v.Value
	}
}

// CompileDirectory compiles every path in paths and runs the cross-
// document resolver over the result (§4.6, §5 "Directory mode may
// compile documents in parallel at a worker-pool granularity of one
// document per task"). previouslyCompiled carries forward documents
// from an earlier CompileDirectory call that this run's staleness
// check decided not to recompile.
func (c *Compiler) CompileDirectory(paths []string, previouslyCompiled map[string]*ast.Document) ([]*ast.Document, map[string]error, *resolve.Result) {
	mtimes := make(map[string]time.Time, len(paths))
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil {
			mtimes[p] = info.ModTime()
		}
	}

	var staleness resolve.Staleness
	if c.cache != nil {
		staleness = &cacheStaleness{cache: c.cache}
	}

	dir := &resolve.Directory{
		Compile: resolve.Compile{
			Fn:           c.CompileFile,
			ForceRebuild: c.opts.ForceRebuild,
			Staleness:    staleness,
		},
		Workers: c.opts.Workers,
	}

	docs, errs := dir.CompileAll(paths, mtimes, previouslyCompiled)
	res := resolve.Resolve(docs)

	return docs, errs, res
}

// Render runs the Compiler's renderer over doc against res.
func (c *Compiler) Render(doc *ast.Document, res *resolve.Result) ([]byte, error) {
	return c.renderer.Render(doc, res)
}

// cacheStaleness backs resolve.Staleness with the same sqlite cache
// used for LaTeX/Graphviz/code-highlight output, so a document's
// compiled-mtime bookkeeping survives across CLI invocations the way
// the cached render artifacts already do (§9 "Directory mode import
// tracking": only the document's own mtime is tracked, not its import
// closure, per the known limitation recorded in resolve/directory.go).
type cacheStaleness struct {
	cache *cache.Store
}

func (s *cacheStaleness) NeedsRebuild(path string, mtime time.Time) bool {
	recorded, ok, err := s.cache.MTime(path)
	if err != nil || !ok {
		return true
	}

	return mtime.After(recorded)
}

func (s *cacheStaleness) Record(path string, mtime time.Time) {
	_ = s.cache.SetMTime(path, mtime)
}
