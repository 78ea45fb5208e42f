package ast

import (
	"strconv"
	"strings"

	"github.com/nml-lang/nml/diag"
	"github.com/nml-lang/nml/env"
	"github.com/nml-lang/nml/source"
)

// RefDef is one named, resolvable anchor defined in a document (§3
// "Reference"). Name is unique within the owning document (§8
// "Reference uniqueness").
type RefDef struct {
	Name       string
	ElementKind Kind
	ElementID  int
	Defined    source.Span
}

// NavigationHints carries the nav.* variables (§6) used by the
// cross-document resolver to build the previous/next linkage and
// category grouping (§4.6 step 3).
type NavigationHints struct {
	Title       string
	Previous    string
	Category    string
	Subcategory string
}

// Document is one compiled .nml document: its own source, the output
// identity derived from compiler.output, its tree, and everything the
// resolver needs to join it with the rest of the set (§3 "Document").
type Document struct {
	Source     source.Source
	OutputName string // compiler.output with its extension stripped; cross-doc ref identity
	Root       Element

	Vars   *env.Vars
	Styles *env.Styles

	References map[string]RefDef // name -> definition, this document only
	Nav        NavigationHints

	Diagnostics diag.Bag

	ids      IDSequence
	secNums  []int
}

// NewDocument creates an empty document rooted at src, ready for the
// parser driver to populate.
func NewDocument(src source.Source) *Document {
	return &Document{
		Source:     src,
		Vars:       env.NewVars(),
		Styles:     env.NewStyles(),
		References: make(map[string]RefDef),
	}
}

// NextID returns the next stable element id for this document.
func (d *Document) NextID() int {
	return d.ids.Next()
}

// NextSectionNumber advances the numbering stack kept for section
// depth (§4.2 "A section rule maintains an implicit numbering stack
// keyed by depth") and returns the displayed numeral, e.g. "2.3".
// Deeper counters reset to zero whenever a shallower one advances.
func (d *Document) NextSectionNumber(depth int) string {
	for len(d.secNums) < depth {
		d.secNums = append(d.secNums, 0)
	}

	d.secNums[depth-1]++

	for i := depth; i < len(d.secNums); i++ {
		d.secNums[i] = 0
	}

	d.secNums = d.secNums[:depth]

	parts := make([]string, depth)
	for i, n := range d.secNums {
		parts[i] = strconv.Itoa(n)
	}

	return strings.Join(parts, ".")
}

// DefineReference records a named anchor, emitting a Semantic
// diagnostic instead of overwriting on a duplicate name (§8 "Reference
// uniqueness": "no two definitions share the same name").
func (d *Document) DefineReference(name string, kind Kind, id int, rng source.Span) {
	if existing, dup := d.References[name]; dup {
		d.Diagnostics.Errorf(diag.Semantic, rng,
			"duplicate reference name %q (already defined at %s)", name, existing.Defined.Begin())

		return
	}

	d.References[name] = RefDef{Name: name, ElementKind: kind, ElementID: id, Defined: rng}
}
