package rule

import (
	"strings"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/token"
)

// MediaRule recognizes "![alt](url)[props]" (§4.2 "Media & references").
type MediaRule struct{}

func (MediaRule) Name() string  { return "media" }
func (MediaRule) Priority() int { return 20 }

func (MediaRule) Context(top ast.ContainerKind) bool {
	return isInlineHost(top)
}

func (MediaRule) Search(cur *token.Cursor) (int, bool) {
	return findLiteral(cur, "![")
}

func (MediaRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()
	st.Builder.EnsureParagraphOpen(cur.SpanFrom(start))
	cur.Advance(1) // '!'

	alt, ok := cur.BalancedSpan('[', ']')
	if !ok {
		cur.Advance(1)
		return nil
	}

	url := ""
	if b, ok := cur.PeekByte(0); ok && b == '(' {
		if span, ok := cur.BalancedSpan('(', ')'); ok {
			url = span.Text()
		}
	}

	props, _ := cur.PropertyList()

	id := st.Doc.NextID()
	loc := cur.SpanFrom(start)
	altText := alt.Text()

	elem := &ast.Media{
		Base:       ast.Base{IDValue: id, KindTag: ast.KindMedia, Loc: loc},
		Alt:        altText,
		URL:        url,
		Properties: props,
	}
	st.Builder.AppendChild(elem)

	// The alt text doubles as the medium's reference name, so
	// "&{ref}" can address it (§4.2 "Media & references").
	if altText != "" {
		st.Doc.DefineReference(altText, ast.KindMedia, id, loc)
	}

	return nil
}

// SectionReferenceRule recognizes "§{ref}[caption=…]", "§{doc#ref}",
// and "§{#ref}" (§4.2 "Media & references").
type SectionReferenceRule struct{}

func (SectionReferenceRule) Name() string  { return "section-reference" }
func (SectionReferenceRule) Priority() int { return 20 }

func (SectionReferenceRule) Context(top ast.ContainerKind) bool {
	return isInlineHost(top)
}

func (SectionReferenceRule) Search(cur *token.Cursor) (int, bool) {
	return findLiteral(cur, "§{")
}

func (SectionReferenceRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()
	st.Builder.EnsureParagraphOpen(cur.SpanFrom(start))
	cur.Advance(len("§"))

	span, ok := cur.BalancedSpan('{', '}')
	if !ok {
		return nil
	}

	inner := span.Text()

	var doc, name string
	any := false

	switch {
	case strings.HasPrefix(inner, "#"):
		any = true
		name = strings.TrimPrefix(inner, "#")
	case strings.Contains(inner, "#"):
		parts := strings.SplitN(inner, "#", 2)
		doc, name = parts[0], parts[1]
	default:
		name = inner
	}

	caption := ""
	if props, ok := cur.PropertyList(); ok {
		caption = props["caption"]
	}

	ref := &ast.Reference{
		Base:    ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindReference, Loc: cur.SpanFrom(start)},
		RefKind: ast.RefSection,
		Doc:     doc,
		Any:     any,
		Name:    name,
		Caption: caption,
	}
	st.Builder.AppendChild(ref)

	return nil
}

// MediaReferenceRule recognizes "&{ref}[caption=…]" (§4.2 "Media &
// references").
type MediaReferenceRule struct{}

func (MediaReferenceRule) Name() string  { return "media-reference" }
func (MediaReferenceRule) Priority() int { return 20 }

func (MediaReferenceRule) Context(top ast.ContainerKind) bool {
	return isInlineHost(top)
}

func (MediaReferenceRule) Search(cur *token.Cursor) (int, bool) {
	return findLiteral(cur, "&{")
}

func (MediaReferenceRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()
	st.Builder.EnsureParagraphOpen(cur.SpanFrom(start))
	cur.Advance(1) // '&'

	span, ok := cur.BalancedSpan('{', '}')
	if !ok {
		return nil
	}

	caption := ""
	if props, ok := cur.PropertyList(); ok {
		caption = props["caption"]
	}

	ref := &ast.Reference{
		Base:    ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindReference, Loc: cur.SpanFrom(start)},
		RefKind: ast.RefMedia,
		Name:    span.Text(),
		Caption: caption,
	}
	st.Builder.AppendChild(ref)

	return nil
}

// RawRule recognizes "{?[kind=…] raw ?}" raw passthrough (§4.2 "Media
// & references").
type RawRule struct{}

func (RawRule) Name() string  { return "raw" }
func (RawRule) Priority() int { return 20 }

func (RawRule) Context(ast.ContainerKind) bool { return true }

func (RawRule) Search(cur *token.Cursor) (int, bool) {
	return findLiteral(cur, "{?")
}

func (RawRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()
	cur.Advance(len("{?"))

	kind := ""
	if props, ok := cur.PropertyList(); ok {
		kind = props["kind"]
	}

	closeOffset, found := findLiteral(cur, "?}")
	if !found {
		return nil
	}

	body := string(cur.Pos().Src.Content()[cur.Offset():closeOffset])
	cur.Advance(closeOffset - cur.Offset())
	cur.Advance(len("?}"))

	elem := &ast.Raw{
		Base:    ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindRaw, Loc: cur.SpanFrom(start)},
		RawKind: kind,
		Body:    strings.TrimSpace(body),
	}
	st.Builder.AppendChild(elem)

	return nil
}
