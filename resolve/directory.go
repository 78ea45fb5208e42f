package resolve

import (
	"sync"
	"time"

	"github.com/nml-lang/nml/ast"
)

// CompileFunc compiles one source path into a Document. It is
// supplied by the caller (the nml facade) rather than imported here,
// so that this package stays free of a dependency on the parser/rule
// packages.
type CompileFunc func(path string) (*ast.Document, error)

// Staleness reports whether path needs recompilation. Implementations
// back this with whatever mtime/cache-entry bookkeeping directory mode
// keeps; see DESIGN.md for why this is mtime-only today.
type Staleness interface {
	// NeedsRebuild reports whether path must be recompiled.
	NeedsRebuild(path string, mtime time.Time) bool
	// Record stores the mtime this path was last compiled at.
	Record(path string, mtime time.Time)
}

// Directory runs the per-document compile step of §5 ("Directory mode
// may compile documents in parallel at a worker-pool granularity of
// one document per task") followed by the resolver barrier.
type Directory struct {
	Compile Compile
	// Workers bounds concurrency; 0 means unbounded (one goroutine per
	// document).
	Workers int
}

// Compile is the unit of work one worker task performs.
type Compile struct {
	Fn          CompileFunc
	ForceRebuild bool
	Staleness   Staleness
}

type docResult struct {
	path string
	doc  *ast.Document
	err  error
}

// CompileAll compiles every path in paths, skipping ones the
// Staleness policy says don't need a rebuild (unless ForceRebuild is
// set), and returns everything that did compile (including ones
// skipped this run but still known from a prior run, via
// alreadyCompiled) for the caller to pass to the cross-document
// resolver; CompileAll does not call resolve.Resolve itself.
//
// TODO: import-closure invalidation (§9 "Directory mode import
// tracking") is not implemented; only the document's own mtime is
// checked, so editing an imported file without --force-rebuild will
// not trigger a recompile of its importers. This is a deliberate,
// acknowledged limitation carried over from the system this was
// modeled on, not an oversight.
func (d *Directory) CompileAll(paths []string, mtimes map[string]time.Time, alreadyCompiled map[string]*ast.Document) ([]*ast.Document, map[string]error) {
	workers := d.Workers
	if workers <= 0 {
		workers = len(paths)
		if workers == 0 {
			workers = 1
		}
	}

	jobs := make(chan string)
	results := make(chan docResult)

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for path := range jobs {
				doc, err := d.Compile.Fn(path)
				results <- docResult{path: path, doc: doc, err: err}
			}
		}()
	}

	go func() {
		for _, p := range paths {
			mtime := mtimes[p]

			if !d.Compile.ForceRebuild && d.Compile.Staleness != nil && !d.Compile.Staleness.NeedsRebuild(p, mtime) {
				continue
			}

			jobs <- p
		}

		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	docs := make([]*ast.Document, 0, len(paths))
	errs := make(map[string]error)
	compiledPaths := make(map[string]bool)

	for r := range results {
		compiledPaths[r.path] = true

		if r.err != nil {
			errs[r.path] = r.err
			continue
		}

		docs = append(docs, r.doc)

		if d.Compile.Staleness != nil {
			d.Compile.Staleness.Record(r.path, mtimes[r.path])
		}
	}

	// Barrier: the resolver only runs after every worker completes.
	// Documents skipped this run (not stale) still participate using
	// their previously compiled tree, per §9's "skip only if
	// unchanged" contract.
	for p, doc := range alreadyCompiled {
		if !compiledPaths[p] {
			docs = append(docs, doc)
		}
	}

	return docs, errs
}
