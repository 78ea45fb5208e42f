package rule

import (
	"fmt"
	"path/filepath"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/diag"
	"github.com/nml-lang/nml/token"
)

// ImportRule recognizes "@import path.nml" and "@import[as=alias]
// path.nml" (§4.2 "Imports"). The imported document is compiled
// independently and only its variable/style environment is merged
// into the current document, under the optional alias prefix; no
// content is inlined, since every .nml file is its own cross-
// referenceable output document (§4.6), unlike a plain textual
// include.
type ImportRule struct{}

func (ImportRule) Name() string  { return "import" }
func (ImportRule) Priority() int { return 10 }

func (ImportRule) Context(top ast.ContainerKind) bool {
	return top == ast.ContainerDocument || top == ast.ContainerLayoutPane
}

func (ImportRule) Search(cur *token.Cursor) (int, bool) {
	return findLineStartLiteral(cur, "@import")
}

func (ImportRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()
	cur.Advance(len("@import"))
	cur.SkipWhitespace()

	alias := ""
	if props, ok := cur.PropertyList(); ok {
		alias = props["as"]
		cur.SkipWhitespace()
	}

	rawPath := readContinuedLine(cur)
	rng := cur.SpanFrom(start)

	if st.Import == nil {
		st.Doc.Diagnostics.Errorf(diag.External, rng, "imports are not supported in this context")
		return nil
	}

	baseDir := filepath.Dir(st.Doc.Source.Name())
	path := rawPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	path = filepath.Clean(path)

	if st.Importing == nil {
		st.Importing = make(map[string]bool)
	}

	if st.Importing[path] {
		st.Doc.Diagnostics.Errorf(diag.Semantic, rng, "cyclic import of %q", path)
		return nil
	}

	st.Importing[path] = true
	defer delete(st.Importing, path)

	imported, err := st.Import(path, st.Importing)
	if err != nil {
		if pe, ok := err.(*diag.PosError); ok {
			pe.AddDetail(rng, fmt.Sprintf("imported from %q", st.Doc.Source.Name()))
		}

		st.Doc.Diagnostics.Errorf(diag.External, rng, "failed to import %q: %v", path, err)
		return nil
	}

	st.Doc.Vars.Import(imported.Vars, alias)
	st.Doc.Styles.Import(imported.Styles, alias)

	return nil
}
