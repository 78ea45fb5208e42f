// Package source implements the layered, position-preserving text
// buffers the parser reads through. A Source is either an original
// file or a derivation (variable expansion, script output) that
// carries an offset map back to its parent.
package source

// OffsetMap translates a byte offset in a derived Source back to the
// equivalent byte offset in its parent. It must be monotone and total
// over the derived content's length.
type OffsetMap func(derivedOffset int) (parentOffset int, ok bool)

// IdentityMap is the trivial 1:1 map; NewDerived uses it when given a
// nil map.
func IdentityMap(derivedOffset int) (int, bool) {
	return derivedOffset, true
}

// LineShiftMap returns an OffsetMap for derived text that starts at
// parentStart in the parent and preserves byte-for-byte structure from
// there on. (Script eval-to-parse output uses SpliceMap instead.)
func LineShiftMap(parentStart int) OffsetMap {
	return func(derivedOffset int) (int, bool) {
		return parentStart + derivedOffset, true
	}
}

// SpliceMap returns an OffsetMap for derived text that entirely
// replaced a single parent span, such as a %name% variable
// substitution: every offset within the derived text maps back to the
// defining site, since there is no finer-grained correspondence.
func SpliceMap(definitionOffset int) OffsetMap {
	return func(derivedOffset int) (int, bool) {
		return definitionOffset, true
	}
}

// Source is a named byte buffer that may be derived from a parent.
type Source interface {
	// Name is the origin path for a file, or a synthetic identity for
	// a derived source (e.g. "var:name@file.nml").
	Name() string
	// Content returns the full byte content of this source.
	Content() []byte
	// Parent returns the source this one was derived from, or nil for
	// an original file.
	Parent() Source
	// ToParent maps an offset in this source back to an offset in
	// Parent(). Only meaningful when Parent() is non-nil.
	ToParent(offset int) (int, bool)
}

// File is an original, non-derived source: a loaded .nml document or
// synthetic top-level buffer (e.g. an in-memory string passed by the
// LSP layer).
type File struct {
	name    string
	content []byte
}

// NewFile creates an original source with no parent.
func NewFile(name string, content []byte) *File {
	return &File{name: name, content: content}
}

func (f *File) Name() string                { return f.name }
func (f *File) Content() []byte             { return f.content }
func (f *File) Parent() Source               { return nil }
func (f *File) ToParent(int) (int, bool) { return 0, false }

// Derived is a source produced while parsing another: a variable
// expansion, or the text pushed by an %<! ... >% eval-to-parse script
// invocation.
type Derived struct {
	name    string
	content []byte
	parent  Source
	toParent OffsetMap
}

// NewDerived creates a source layered on top of parent. name should be
// a synthetic identity useful for diagnostics, e.g. "var:name@doc.nml".
func NewDerived(name string, content []byte, parent Source, toParent OffsetMap) *Derived {
	if toParent == nil {
		toParent = IdentityMap
	}

	return &Derived{name: name, content: content, parent: parent, toParent: toParent}
}

func (d *Derived) Name() string    { return d.name }
func (d *Derived) Content() []byte { return d.content }
func (d *Derived) Parent() Source  { return d.parent }

func (d *Derived) ToParent(offset int) (int, bool) {
	return d.toParent(offset)
}
