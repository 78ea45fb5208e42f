package rule

import (
	"strings"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/diag"
	"github.com/nml-lang/nml/token"
)

// TableHeaderRule recognizes the optional ":TABLE {ref} Caption" line
// preceding a table's rows, carrying its own property block
// ("export_as") (§4.2 "Structural").
type TableHeaderRule struct{}

func (TableHeaderRule) Name() string  { return "table-header" }
func (TableHeaderRule) Priority() int { return 8 }

func (TableHeaderRule) Context(top ast.ContainerKind) bool {
	return top == ast.ContainerDocument || top == ast.ContainerLayoutPane || top == ast.ContainerTableCell
}

func (TableHeaderRule) Search(cur *token.Cursor) (int, bool) {
	return findLineStartLiteral(cur, ":TABLE")
}

func (TableHeaderRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()
	cur.Advance(len(":TABLE"))
	cur.SkipWhitespace()

	ref := ""
	if b, ok := cur.PeekByte(0); ok && b == '{' {
		if span, ok := cur.BalancedSpan('{', '}'); ok {
			ref = span.Text()
		}

		cur.SkipWhitespace()
	}

	exportAs := ""
	if props, ok := cur.PropertyList(); ok {
		exportAs = props["export_as"]
		cur.SkipWhitespace()
	}

	captionStart := cur.Offset()
	captionEnd := lineEnd(cur, captionStart)
	cur.Advance(captionEnd - captionStart)
	caption := strings.TrimRight(cur.SpanFrom(captionStart).Text(), "\r")

	if b, ok := cur.PeekByte(0); ok && b == '\n' {
		cur.Advance(1)
	}

	st.Builder.CloseParagraphIfOpen()

	id := st.Doc.NextID()
	table := &ast.Table{Base: ast.Base{IDValue: id, KindTag: ast.KindTable, Loc: cur.SpanFrom(start)}, Ref: ref, Caption: caption, ExportAs: exportAs}
	st.Builder.Push(ast.ContainerTable, table, &table.Base)

	if ref != "" {
		st.Doc.DefineReference(ref, ast.KindTable, id, cur.SpanFrom(start))
	}

	return nil
}

// TableRowRule recognizes '|'-delimited table rows, auto-opening a
// Table if one is not already open, with per-cell property syntax
// "|:k=v,…: content" (§4.2 "Structural").
type TableRowRule struct{}

func (TableRowRule) Name() string  { return "table-row" }
func (TableRowRule) Priority() int { return 10 }

func (TableRowRule) Context(top ast.ContainerKind) bool {
	return top == ast.ContainerDocument || top == ast.ContainerLayoutPane || top == ast.ContainerTable
}

func (TableRowRule) Search(cur *token.Cursor) (int, bool) {
	return findLineStartLiteral(cur, "|")
}

func (TableRowRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()

	var table *ast.Table
	if st.Builder.Top() != ast.ContainerTable {
		table = &ast.Table{Base: ast.Base{KindTag: ast.KindTable, Loc: cur.SpanFrom(start)}}
		st.Builder.Push(ast.ContainerTable, table, &table.Base)
	} else {
		table, _ = st.Builder.TopElement().(*ast.Table)
	}

	rowEnd := lineEnd(cur, start)
	cur.Advance(rowEnd - start)

	raw := string(cur.Pos().Src.Content()[start:rowEnd])
	cells := strings.Split(strings.TrimPrefix(raw, "|"), "|")

	if table != nil && table.Columns == 0 {
		table.Columns = len(cells)
	}

	rowSpan := cur.SpanFrom(start)
	cumulative := 0
	overflowed := false

	for i, raw := range cells {
		hspan := 1
		props := map[string]string{}
		content := raw

		if strings.HasPrefix(strings.TrimLeft(raw, " "), ":") {
			trimmed := strings.TrimLeft(raw, " ")
			end := strings.Index(trimmed[1:], ":")
			if end >= 0 {
				propBody := trimmed[1 : end+1]
				content = trimmed[end+2:]

				for _, kv := range strings.Split(propBody, ",") {
					parts := strings.SplitN(kv, "=", 2)
					if len(parts) == 2 {
						props[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
					}
				}

				if v, ok := props["hspan"]; ok {
					hspan = atoiSafe(v)
					if hspan < 1 {
						hspan = 1
					}
				}
			}
		}

		cumulative += hspan
		if table != nil && table.Columns > 0 && cumulative > table.Columns && !overflowed {
			overflowed = true
			st.Doc.Diagnostics.Errorf(diag.Semantic, rowSpan, "table row hspan totals %d, exceeding the table's %d-column width", cumulative, table.Columns)
		}

		cell := &ast.TableCell{
			Base:       ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindTableCell, Loc: cur.SpanFrom(start)},
			HSpan:      hspan,
			Properties: props,
			NewRow:     i == 0,
		}
		cell.AddChildren(&ast.Text{Base: ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindText, Loc: cur.SpanFrom(start)}, Value: strings.TrimSpace(content)})

		st.Builder.AppendChild(cell)
	}

	if b, ok := cur.PeekByte(0); ok && b == '\n' {
		cur.Advance(1)
	}

	return nil
}
