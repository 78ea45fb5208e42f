package rule

import (
	"strings"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/token"
)

// ListRule recognizes bulleted ('*') and numbered ('-') list items,
// nested by repeating the marker, with an optional per-item property
// block "[offset=…]" and an optional checkbox prefix "[ ] [-] [x]"
// (§4.2 "Structural").
type ListRule struct{}

func (ListRule) Name() string  { return "list" }
func (ListRule) Priority() int { return 10 }

func (ListRule) Context(top ast.ContainerKind) bool {
	return top == ast.ContainerDocument || top == ast.ContainerLayoutPane ||
		top == ast.ContainerListItem || top == ast.ContainerBlockquote ||
		top == ast.ContainerTableCell || top == ast.ContainerTable
}

func (ListRule) Search(cur *token.Cursor) (int, bool) {
	if off, ok := findLineStartLiteral(cur, "*"); ok {
		if off2, ok2 := findLineStartLiteral(cur, "-"); ok2 && off2 < off {
			return off2, true
		}

		return off, true
	}

	return findLineStartLiteral(cur, "-")
}

func (ListRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()

	if st.Builder.Top() == ast.ContainerTable {
		st.Builder.CloseTableIfOpen()
	}

	marker, _ := cur.PeekByte(0)

	depth := 0
	for {
		b, ok := cur.PeekByte(0)
		if !ok || b != marker {
			break
		}

		depth++
		cur.Advance(1)
	}

	cur.SkipWhitespace()

	checkbox := ast.CheckboxNone
	if probeCheckbox(cur) {
		checkbox = readCheckbox(cur)
		cur.SkipWhitespace()
	}

	offset := 0
	if props, ok := cur.PropertyList(); ok {
		if v, ok := props["offset"]; ok {
			offset = atoiSafe(v)
		}

		cur.SkipWhitespace()
	}

	textStart := cur.Offset()
	textEnd := lineEnd(cur, textStart)
	cur.Advance(textEnd - textStart)
	text := strings.TrimRight(cur.SpanFrom(textStart).Text(), "\r")

	ordered := marker == '-'

	current := st.Builder.OpenListDepth()

	switch {
	case depth > current:
		for lvl := current + 1; lvl <= depth; lvl++ {
			list := &ast.List{Base: ast.Base{KindTag: ast.KindList, Loc: cur.SpanFrom(start)}, Ordered: ordered, Depth: lvl}
			st.Builder.Push(ast.ContainerList, list, &list.Base)
		}
	case depth < current:
		st.Builder.PopListLevels(current - depth)
		st.Builder.PopCurrentListItem()
	default:
		st.Builder.PopCurrentListItem()
	}

	item := &ast.ListItem{Base: ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindListItem, Loc: cur.SpanFrom(start)}, Offset: offset, Checkbox: checkbox}
	item.AddChildren(&ast.Text{Base: ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindText, Loc: cur.SpanFrom(textStart)}, Value: text})

	st.Builder.Push(ast.ContainerListItem, item, &item.Base)

	return nil
}

func probeCheckbox(cur *token.Cursor) bool {
	b, ok := cur.PeekByte(0)
	if !ok || b != '[' {
		return false
	}

	c, ok := cur.PeekByte(1)
	if !ok {
		return false
	}

	d, ok := cur.PeekByte(2)

	return ok && d == ']' && (c == ' ' || c == '-' || c == 'x')
}

func readCheckbox(cur *token.Cursor) ast.CheckboxState {
	c, _ := cur.PeekByte(1)
	cur.Advance(3)

	switch c {
	case ' ':
		return ast.CheckboxUnchecked
	case '-':
		return ast.CheckboxInProgress
	case 'x':
		return ast.CheckboxChecked
	default:
		return ast.CheckboxNone
	}
}
