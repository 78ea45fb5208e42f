package ast

// ContainerKind identifies what a frame on the containment stack
// represents, for the scope-rule context predicates described in §3
// ("Scope rule") and §4.2 (each rule's Context predicate).
type ContainerKind int

const (
	ContainerDocument ContainerKind = iota
	ContainerLayout
	ContainerLayoutPane
	ContainerParagraph
	ContainerStyledRun
	ContainerList
	ContainerListItem
	ContainerBlockquote
	ContainerTable
	ContainerTableCell
)

func (k ContainerKind) String() string {
	switch k {
	case ContainerDocument:
		return "document"
	case ContainerLayout:
		return "layout"
	case ContainerLayoutPane:
		return "layout pane"
	case ContainerParagraph:
		return "paragraph"
	case ContainerStyledRun:
		return "styled run"
	case ContainerList:
		return "list"
	case ContainerListItem:
		return "list item"
	case ContainerBlockquote:
		return "blockquote"
	case ContainerTable:
		return "table"
	case ContainerTableCell:
		return "table cell"
	default:
		return "container"
	}
}

// Container is a synthetic, childless-by-default element used for
// structural wrappers that have no typed attributes of their own: the
// document root and layout panes.
type Container struct {
	Base
}
