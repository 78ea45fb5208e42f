package ast

// Text is a leaf run of plain text. Two adjacent Text children of a
// non-inline container must never belong to different logical
// paragraphs (§8 "Paragraph discipline") — the rule/parser driver, not
// this type, is responsible for keeping that invariant.
type Text struct {
	Base
	Value string
}

// Paragraph auto-opens on the first inline content in a block
// container and auto-closes on a blank line or any block-level
// element (§4.2 "Structural").
type Paragraph struct {
	Base
}

// Section is a numbered or unnumbered heading. Depth is the count of
// leading '#'. Numbered is false when the '*' modifier was present;
// InToC is false when '+' was present.
type Section struct {
	Base
	Depth    int
	Title    string
	Numbered bool
	InToC    bool
	Ref      string // optional {ref}, empty if none was given
	Number   string // computed display numeral, empty if Numbered is false
}

// StyledRun is an inline style span: bold/italic/underline/emphasis,
// or a custom style registered at runtime via define_toggled/
// define_paired (§4.4). StyleName identifies which.
type StyledRun struct {
	Base
	StyleName string
}

// List is a bulleted ('*') or numbered ('-') list; nesting is
// expressed by List elements containing ListItem elements whose
// children may themselves contain a nested List.
type List struct {
	Base
	Ordered bool
	Depth   int
}

// CheckboxState is the optional checkbox prefix on a list item.
type CheckboxState int

const (
	CheckboxNone CheckboxState = iota
	CheckboxUnchecked
	CheckboxInProgress
	CheckboxChecked
)

// ListItem is one entry of a List, with an optional per-item property
// block (e.g. "[offset=2]") and optional checkbox prefix.
type ListItem struct {
	Base
	Offset   int
	Checkbox CheckboxState
}

// Table is introduced by rows of '|'-delimited cells, with an optional
// preceding ":TABLE {ref} Caption" line carrying its own properties.
type Table struct {
	Base
	Ref      string
	Caption  string
	ExportAs string

	// Columns is the table's column width, established from the cell
	// count of its first row and used to validate later rows'
	// cumulative hspan (§8 "table with hspan that exceeds remaining
	// columns"). Zero until the first row has been parsed.
	Columns int
}

// TableCell is one cell of a Table row, with optional
// "|:k=v,...: content" cell properties. NewRow marks the first cell of
// each "|"-delimited row, since cells are appended flat onto their
// owning Table with no separate row container.
type TableCell struct {
	Base
	HSpan      int
	Properties map[string]string
	NewRow     bool
}

// CodeBlock is a fenced (```) or mini (``) code block.
type CodeBlock struct {
	Base
	Lang       string
	Title      string
	LineOffset int
	Body       string
}

// InlineCode is a `` `Lang, code` `` or `` `emphasis` `` inline code
// span.
type InlineCode struct {
	Base
	Lang string
	Body string
}

// MathKind distinguishes the inline/block default for '$' vs '$|'
// delimiters (§4.2 "Math / non-math LaTeX").
type MathKind int

const (
	MathInline MathKind = iota
	MathBlock
)

// Math is a LaTeX math or non-math span.
type Math struct {
	Base
	Mode    MathKind
	IsMath  bool // true for '$ ... $', false for '$| ... |$'
	Env     string
	Caption string
	Body    string
}

// Graph is a "[graph][props] dot-source [/graph]" element.
type Graph struct {
	Base
	Layout    string
	Width     string
	DotSource string
}

// Media is a "![alt](url)[props]" element.
type Media struct {
	Base
	Alt        string
	URL        string
	Properties map[string]string
}

// ReferenceKind distinguishes the reference syntaxes of §4.2 "Media &
// references".
type ReferenceKind int

const (
	RefSection ReferenceKind = iota // §{ref}, §{doc#ref}, §{#ref}
	RefMedia                         // &{ref}
)

// Reference is an unresolved (pre-resolve pass) or resolved (post-
// resolve pass, see resolve.Result) reference site.
type Reference struct {
	Base
	RefKind ReferenceKind
	Doc     string // set for §{doc#ref}; empty otherwise
	Any     bool   // true for §{#ref}
	Name    string
	Caption string
}

// Raw is a "{?[kind=...] raw ?}" passthrough element.
type Raw struct {
	Base
	RawKind string
	Body    string
}

// Layout is a "#+LAYOUT_BEGIN name ... #+LAYOUT_END" multi-pane block.
// Each pane's children are stored as one child Element per pane,
// itself a synthetic container (see NewLayoutPane).
type Layout struct {
	Base
	Name string
}

// LayoutPane is one pane of a Layout, introduced by LAYOUT_BEGIN or a
// following LAYOUT_NEXT.
type LayoutPane struct {
	Base
}

// Blockquote is a '>'-nested quotation block, with nesting depth given
// by the leading '>' count and an optional property block on the
// first '>'.
type Blockquote struct {
	Base
	Depth  int
	Author string
	Cite   string
	URL    string
}
