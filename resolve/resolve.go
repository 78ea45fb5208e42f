// Package resolve implements the cross-document resolver of §4.6: a
// two-phase pipeline (per-document compile, run elsewhere, then a
// global reference & navigation resolve) that joins a fixed input set
// of compiled documents.
package resolve

import (
	"fmt"
	"sort"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/diag"
)

// Binding is one resolved reference: which document/element a
// Reference's name resolved to.
type Binding struct {
	Doc         string
	ElementID   int
	ElementKind ast.Kind
}

// Result is the side table §9 describes ("the resolver produces a
// side table (doc, element_id) -> resolution, consumed by the
// renderer") plus the navigation order computed from nav.* variables.
type Result struct {
	// Bindings maps (doc output name, reference element id) to the
	// binding it resolved to.
	Bindings map[RefKey]Binding
	// Diagnostics accumulates one bag of resolver-level diagnostics
	// per originating document.
	Diagnostics map[string]*diag.Bag
	// Nav is the computed previous/next/category linkage.
	Nav []NavEntry
}

// RefKey identifies one reference site: the document it appears in,
// plus the element id of the ast.Reference node itself (stable within
// that document).
type RefKey struct {
	Doc       string
	ElementID int
}

// NavEntry is one document's place in the navigation order built from
// nav.previous/nav.title/nav.category/nav.subcategory (§4.6 step 3).
type NavEntry struct {
	Doc         string
	Title       string
	Category    string
	Subcategory string
	Previous    string
}

type globalEntry struct {
	doc  string
	id   int
	kind ast.Kind
}

// Resolve runs the four-step algorithm of §4.6 over a fixed set of
// compiled documents. It always terminates: every failure is a
// per-reference diagnostic, never an abort.
func Resolve(docs []*ast.Document) *Result {
	res := &Result{
		Bindings:    make(map[RefKey]Binding),
		Diagnostics: make(map[string]*diag.Bag),
	}

	// Step 1: build the global name -> [(doc, id)] map.
	global := make(map[string][]globalEntry)
	byName := make(map[string]*ast.Document)

	for _, d := range docs {
		byName[d.OutputName] = d
		res.Diagnostics[d.OutputName] = &diag.Bag{}

		for name, def := range d.References {
			global[name] = append(global[name], globalEntry{doc: d.OutputName, id: def.ElementID, kind: def.ElementKind})
		}
	}

	// Step 2: resolve every reference element found while walking
	// each document's tree.
	for _, d := range docs {
		bag := res.Diagnostics[d.OutputName]

		walkReferences(d.Root, func(ref *ast.Reference) {
			resolveOne(d, ref, global, byName, res, bag)
		})
	}

	// Step 3: navigation linkage.
	res.Nav = buildNav(docs)

	return res
}

func resolveOne(
	doc *ast.Document,
	ref *ast.Reference,
	global map[string][]globalEntry,
	byName map[string]*ast.Document,
	res *Result,
	bag *diag.Bag,
) {
	key := RefKey{Doc: doc.OutputName, ElementID: ref.ID()}

	switch {
	case ref.Doc != "": // §{doc#ref}
		target, ok := byName[ref.Doc]
		if !ok {
			bag.Errorf(diag.Semantic, ref.Location(), "reference to unknown document %q", ref.Doc)
			return
		}

		def, ok := target.References[ref.Name]
		if !ok {
			bag.Errorf(diag.Semantic, ref.Location(), "unresolved reference %q in document %q", ref.Name, ref.Doc)
			return
		}

		res.Bindings[key] = Binding{Doc: ref.Doc, ElementID: def.ElementID, ElementKind: def.ElementKind}

	case ref.Any: // §{#ref}
		matches := global[ref.Name]
		switch len(matches) {
		case 0:
			bag.Errorf(diag.Semantic, ref.Location(), "unresolved reference %q", ref.Name)
		case 1:
			m := matches[0]
			res.Bindings[key] = Binding{Doc: m.doc, ElementID: m.id, ElementKind: m.kind}
		default:
			bag.Errorf(diag.Semantic, ref.Location(), "ambiguous reference %q: defined in %d documents", ref.Name, len(matches))
		}

	default: // §{ref}, document-local only; no fallback to global.
		def, ok := doc.References[ref.Name]
		if !ok {
			bag.Errorf(diag.Semantic, ref.Location(), "unresolved reference %q", ref.Name)
			return
		}

		res.Bindings[key] = Binding{Doc: doc.OutputName, ElementID: def.ElementID, ElementKind: def.ElementKind}
	}
}

func walkReferences(e ast.Element, visit func(*ast.Reference)) {
	if ref, ok := e.(*ast.Reference); ok {
		visit(ref)
	}

	for _, c := range e.Children() {
		walkReferences(c, visit)
	}
}

func buildNav(docs []*ast.Document) []NavEntry {
	byName := make(map[string]*ast.Document, len(docs))
	entries := make([]NavEntry, 0, len(docs))

	for _, d := range docs {
		byName[d.OutputName] = d
		entries = append(entries, NavEntry{
			Doc:         d.OutputName,
			Title:       d.Nav.Title,
			Category:    d.Nav.Category,
			Subcategory: d.Nav.Subcategory,
			Previous:    d.Nav.Previous,
		})
	}

	// Order by the previous-edge chain: a document with no
	// predecessor among the set sorts first within its category,
	// followed by whatever names it as nav.previous, and so on. Ties
	// (no chain information at all) fall back to document name.
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Category != entries[j].Category {
			return entries[i].Category < entries[j].Category
		}

		return chainDepth(entries[i], byName) < chainDepth(entries[j], byName)
	})

	return entries
}

func chainDepth(e NavEntry, byName map[string]*ast.Document) int {
	depth := 0
	seen := map[string]bool{e.Doc: true}
	cur := e

	for cur.Previous != "" {
		if seen[cur.Previous] {
			break // cyclic nav.previous chain; stop rather than loop forever
		}

		prevDoc, ok := byName[cur.Previous]
		if !ok {
			break
		}

		seen[cur.Previous] = true
		depth++
		cur = NavEntry{Doc: prevDoc.OutputName, Previous: prevDoc.Nav.Previous}
	}

	return depth
}

// String implements fmt.Stringer for diagnostics/debug output.
func (b Binding) String() string {
	return fmt.Sprintf("%s#%d", b.Doc, b.ElementID)
}
