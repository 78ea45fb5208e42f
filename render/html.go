package render

import (
	"context"
	"fmt"
	htmlesc "html"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/cache"
	"github.com/nml-lang/nml/diag"
	"github.com/nml-lang/nml/resolve"
	"github.com/nml-lang/nml/source"
)

// Renderer consumes a resolved document tree and emits output bytes
// (§4.7). HTML/CSS formatting proper is an external collaborator; this
// package only ships enough of one to drive the end-to-end scenarios.
type Renderer interface {
	Render(doc *ast.Document, res *resolve.Result) ([]byte, error)
}

// SectionLinkPos mirrors style.section's link_pos enum (§6 "Style
// keys").
type SectionLinkPos string

const (
	LinkBefore SectionLinkPos = "before"
	LinkAfter  SectionLinkPos = "after"
	LinkNone   SectionLinkPos = "none"
)

// SectionStyle is the decoded shape of the "style.section" style key.
type SectionStyle struct {
	LinkPos SectionLinkPos `json:"link_pos"`
	Link    [3]string      `json:"link"`
}

func defaultSectionStyle() SectionStyle {
	return SectionStyle{LinkPos: LinkBefore, Link: [3]string{"", "🔗", " "}}
}

// QuoteAuthorPos mirrors style.block.quote's author_pos enum.
type QuoteAuthorPos string

const (
	AuthorBefore QuoteAuthorPos = "before"
	AuthorAfter  QuoteAuthorPos = "after"
	AuthorNone   QuoteAuthorPos = "none"
)

// QuoteStyle is the decoded shape of "style.block.quote", also
// accepted under the "style.blockquote" key name (§6: "(same)"). Format
// selects by which of author/cite are set: [0] both, [1] author only,
// [2] cite only.
type QuoteStyle struct {
	AuthorPos QuoteAuthorPos `json:"author_pos"`
	Format    [3]string      `json:"format"`
}

func defaultQuoteStyle() QuoteStyle {
	return QuoteStyle{AuthorPos: AuthorAfter, Format: [3]string{"{author}, {cite}", "{author}", "{cite}"}}
}

// HTMLRenderer is the reference render.Renderer of §4.7. Cache/Tex/
// Dot/Hi are all optional: a nil collaborator degrades its element
// kind to an escaped-source fallback rather than failing the render.
type HTMLRenderer struct {
	Cache *cache.Store
	Tex   TexRenderer
	Dot   DotRenderer
	Hi    CodeHighlighter

	// Timeout bounds each LaTeX/Graphviz subprocess call (§4.8
	// "configurable subprocess timeout"). Zero means no deadline.
	Timeout time.Duration
}

// subprocessContext returns a context bounded by h.Timeout, and a
// cancel func the caller must defer, freeing the timer even when no
// deadline is configured.
func (h *HTMLRenderer) subprocessContext() (context.Context, context.CancelFunc) {
	if h.Timeout <= 0 {
		return context.Background(), func() {}
	}

	return context.WithTimeout(context.Background(), h.Timeout)
}

// Render implements Renderer.
func (h *HTMLRenderer) Render(doc *ast.Document, res *resolve.Result) ([]byte, error) {
	c := &htmlCtx{doc: doc, res: res, r: h, sec: defaultSectionStyle(), quote: defaultQuoteStyle()}

	docSpan := source.Span{Src: doc.Source}
	if doc.Root != nil {
		docSpan = doc.Root.Location()
	}

	if _, err := doc.Styles.Decode("style.section", &c.sec); err != nil {
		doc.Diagnostics.Errorf(diag.Semantic, docSpan, "invalid style.section: %v", err)
	}

	decoded, err := doc.Styles.Decode("style.block.quote", &c.quote)
	if err != nil {
		doc.Diagnostics.Errorf(diag.Semantic, docSpan, "invalid style.block.quote: %v", err)
	}

	if !decoded {
		if _, err := doc.Styles.Decode("style.blockquote", &c.quote); err != nil {
			doc.Diagnostics.Errorf(diag.Semantic, docSpan, "invalid style.blockquote: %v", err)
		}
	}

	var body strings.Builder
	if doc.Root != nil {
		for _, child := range doc.Root.Children() {
			body.WriteString(c.renderNode(child))
		}
	}

	return []byte(c.wrapPage(body.String())), nil
}

// htmlCtx carries the per-render state the teacher's own compile
// passes thread as a receiver: the document/resolver inputs, the
// owning renderer's subprocess collaborators, and the decoded style
// overrides.
type htmlCtx struct {
	doc   *ast.Document
	res   *resolve.Result
	r     *HTMLRenderer
	sec   SectionStyle
	quote QuoteStyle
}

func varOr(doc *ast.Document, name, fallback string) string {
	if v, ok := doc.Vars.Get(name); ok {
		return v.Value
	}

	return fallback
}

// refname mirrors the original compiler's Compiler::refname: sanitize
// for HTML, then collapse spaces so the result is a bare id token.
func refname(title string) string {
	return strings.ReplaceAll(htmlesc.EscapeString(title), " ", "_")
}

func (c *htmlCtx) wrapPage(body string) string {
	pageTitle := varOr(c.doc, "html.page_title", "")
	title := varOr(c.doc, "html.title", "")
	css := varOr(c.doc, "html.css", "")

	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")

	if pageTitle != "" {
		fmt.Fprintf(&b, "<title>%s</title>\n", htmlesc.EscapeString(pageTitle))
	}

	if css != "" {
		fmt.Fprintf(&b, "<link rel=\"stylesheet\" href=\"%s\">\n", htmlesc.EscapeString(css))
	}

	b.WriteString("</head>\n<body>\n")

	if title != "" {
		fmt.Fprintf(&b, "<h1 class=\"page-title\">%s</h1>\n", htmlesc.EscapeString(title))
	}

	b.WriteString(c.renderTOC())
	b.WriteString(body)
	b.WriteString("</body>\n</html>\n")

	return b.String()
}

func (c *htmlCtx) renderTOC() string {
	if c.doc.Root == nil {
		return ""
	}

	var secs []*ast.Section
	collectSections(c.doc.Root, &secs)

	entries := make([]*ast.Section, 0, len(secs))
	for _, s := range secs {
		if s.InToC {
			entries = append(entries, s)
		}
	}

	if len(entries) == 0 {
		return ""
	}

	title := varOr(c.doc, "toc.title", "Contents")

	var b strings.Builder
	fmt.Fprintf(&b, "<nav class=\"toc\">\n<h2>%s</h2>\n<ul>\n", htmlesc.EscapeString(title))

	for _, s := range entries {
		label := s.Title
		if s.Numbered {
			label = s.Number + ". " + label
		}

		fmt.Fprintf(&b, "<li class=\"toc-depth-%d\"><a href=\"#%s\">%s</a></li>\n",
			s.Depth, refname(s.Title), htmlesc.EscapeString(label))
	}

	b.WriteString("</ul>\n</nav>\n")

	return b.String()
}

func collectSections(e ast.Element, out *[]*ast.Section) {
	if s, ok := e.(*ast.Section); ok {
		*out = append(*out, s)
	}

	for _, child := range e.Children() {
		collectSections(child, out)
	}
}

var styleTags = map[string][2]string{
	"bold":      {"<strong>", "</strong>"},
	"italic":    {"<i>", "</i>"},
	"underline": {"<u>", "</u>"},
	"emphasis":  {"<em>", "</em>"},
}

// refAnchor is the stable, id()-addressable target every &{ref} or
// §{ref} resolves to, regardless of the referenced element's own
// display id (a section's visible id is its slugified title, which
// only the originating document can compute).
func (c *htmlCtx) refAnchor(id int) string {
	return fmt.Sprintf(`<a id="ref-%d"></a>`, id)
}

// renderNode dispatches on concrete element kind, mirroring the
// teacher's switch-on-node-kind tree walk (mexdown's gen()), adapted
// to a properly nested tree instead of a flat offset list.
func (c *htmlCtx) renderNode(e ast.Element) string {
	switch el := e.(type) {
	case *ast.Text:
		return htmlesc.EscapeString(el.Value)
	case *ast.Paragraph:
		return "<p>" + c.renderChildren(el) + "</p>\n"
	case *ast.StyledRun:
		return c.renderStyledRun(el)
	case *ast.Section:
		return c.renderSection(el)
	case *ast.List:
		return c.renderList(el)
	case *ast.ListItem:
		return c.renderListItem(el)
	case *ast.Table:
		return c.renderTable(el)
	case *ast.CodeBlock:
		return c.renderCodeBlock(el)
	case *ast.InlineCode:
		return c.renderInlineCode(el)
	case *ast.Math:
		return c.renderMath(el)
	case *ast.Graph:
		return c.renderGraph(el)
	case *ast.Media:
		return c.renderMedia(el)
	case *ast.Reference:
		return c.renderReference(el)
	case *ast.Raw:
		return el.Body
	case *ast.Layout:
		return c.renderLayout(el)
	case *ast.Blockquote:
		return c.renderBlockquote(el)
	default:
		// LayoutPane and the synthetic document-root Container have no
		// attributes of their own: just walk their children.
		return c.renderChildren(el)
	}
}

func (c *htmlCtx) renderChildren(e ast.Element) string {
	var b strings.Builder
	for _, child := range e.Children() {
		b.WriteString(c.renderNode(child))
	}

	return b.String()
}

func (c *htmlCtx) renderStyledRun(r *ast.StyledRun) string {
	open, closeTag := fmt.Sprintf(`<span class="style-%s">`, htmlesc.EscapeString(r.StyleName)), "</span>"
	if tags, ok := styleTags[r.StyleName]; ok {
		open, closeTag = tags[0], tags[1]
	}

	return open + c.renderChildren(r) + closeTag
}

// renderSection implements the heading-anchor algorithm of the
// original compiler's Section::compile: the id attribute is the
// slugified title, not the element's numeric id, and the numbering
// prefix is omitted entirely for an unnumbered section.
func (c *htmlCtx) renderSection(s *ast.Section) string {
	number := ""
	if s.Numbered {
		number = s.Number + " "
	}

	slug := refname(s.Title)
	title := htmlesc.EscapeString(s.Title)

	anchor := ""
	if s.Ref != "" {
		anchor = c.refAnchor(s.ID())
	}

	if c.sec.LinkPos == LinkNone {
		return fmt.Sprintf(`%s<h%d id="%s">%s%s</h%d>`+"\n", anchor, s.Depth, slug, number, title, s.Depth)
	}

	link := fmt.Sprintf(`%s<a class="section-link" href="#%s">%s</a>%s`,
		htmlesc.EscapeString(c.sec.Link[0]), slug, htmlesc.EscapeString(c.sec.Link[1]), htmlesc.EscapeString(c.sec.Link[2]))

	if c.sec.LinkPos == LinkAfter {
		return fmt.Sprintf(`%s<h%d id="%s">%s%s%s</h%d>`+"\n", anchor, s.Depth, slug, number, title, link, s.Depth)
	}

	return fmt.Sprintf(`%s<h%d id="%s">%s%s%s</h%d>`+"\n", anchor, s.Depth, slug, link, number, title, s.Depth)
}

func (c *htmlCtx) renderList(l *ast.List) string {
	tag := "ul"
	if l.Ordered {
		tag = "ol"
	}

	return fmt.Sprintf("<%s>\n%s</%s>\n", tag, c.renderChildren(l), tag)
}

func (c *htmlCtx) renderListItem(it *ast.ListItem) string {
	checkbox := ""

	switch it.Checkbox {
	case ast.CheckboxUnchecked:
		checkbox = `<input type="checkbox" disabled> `
	case ast.CheckboxInProgress:
		checkbox = `<input type="checkbox" disabled data-state="in-progress"> `
	case ast.CheckboxChecked:
		checkbox = `<input type="checkbox" disabled checked> `
	}

	return fmt.Sprintf("<li>%s%s</li>\n", checkbox, c.renderChildren(it))
}

// renderTable groups the Table's flat TableCell children into <tr>
// rows using ast.TableCell.NewRow, the boundary the parser records
// since cells are appended flat onto the owning Table.
func (c *htmlCtx) renderTable(t *ast.Table) string {
	var b strings.Builder

	if t.Ref != "" {
		b.WriteString(c.refAnchor(t.ID()))
	}

	b.WriteString("<table>\n")

	if t.Caption != "" {
		fmt.Fprintf(&b, "<caption>%s</caption>\n", htmlesc.EscapeString(t.Caption))
	}

	inRow := false
	for _, child := range t.Children() {
		cell, ok := child.(*ast.TableCell)
		if !ok {
			continue
		}

		if cell.NewRow {
			if inRow {
				b.WriteString("</tr>\n")
			}

			b.WriteString("<tr>\n")
			inRow = true
		}

		colspan := ""
		if cell.HSpan > 1 {
			colspan = fmt.Sprintf(` colspan="%d"`, cell.HSpan)
		}

		fmt.Fprintf(&b, "<td%s>%s</td>\n", colspan, c.renderChildren(cell))
	}

	if inRow {
		b.WriteString("</tr>\n")
	}

	b.WriteString("</table>\n")

	return b.String()
}

func (c *htmlCtx) renderCodeBlock(cb *ast.CodeBlock) string {
	var b strings.Builder
	b.WriteString(`<div class="code-block">`)

	if cb.Title != "" {
		fmt.Fprintf(&b, `<div class="code-title">%s</div>`, htmlesc.EscapeString(cb.Title))
	}

	if highlighted, ok := c.highlight(cb.Lang, cb.Body, cb.LineOffset, cb.Location()); ok {
		b.WriteString(highlighted)
	} else {
		fmt.Fprintf(&b, "<pre><code>%s</code></pre>", htmlesc.EscapeString(cb.Body))
	}

	b.WriteString("</div>\n")

	return b.String()
}

func (c *htmlCtx) renderInlineCode(ic *ast.InlineCode) string {
	if ic.Lang != "" {
		if highlighted, ok := c.highlight(ic.Lang, ic.Body, 0, ic.Location()); ok {
			return fmt.Sprintf(`<span class="inline-code">%s</span>`, highlighted)
		}
	}

	return fmt.Sprintf("<code>%s</code>", htmlesc.EscapeString(ic.Body))
}

func (c *htmlCtx) highlight(lang, body string, lineOffset int, loc source.Span) (string, bool) {
	if c.r.Hi == nil || lang == "" {
		return "", false
	}

	theme := varOr(c.doc, "code.theme", "default")

	params := cache.Params{"language": lang, "theme": theme, "line_offset": strconv.Itoa(lineOffset)}
	fp := cache.Fingerprint("code", body, params)

	if out, ok := c.cacheGet(cache.TableCode, fp); ok {
		return string(out), true
	}

	out, err := c.r.Hi.HighlightCode(lang, theme, body, lineOffset)
	if err != nil {
		c.doc.Diagnostics.Errorf(diag.External, loc, "highlight %q: %v", lang, err)
		return "", false
	}

	c.cachePut(cache.TableCode, fp, out)

	return string(out), true
}

func (c *htmlCtx) cacheGet(table cache.Table, fp string) ([]byte, bool) {
	if c.r.Cache == nil {
		return nil, false
	}

	data, ok, err := c.r.Cache.Get(table, fp)
	if err != nil || !ok {
		return nil, false
	}

	return data, true
}

func (c *htmlCtx) cachePut(table cache.Table, fp string, data []byte) {
	if c.r.Cache == nil {
		return
	}

	_ = c.r.Cache.Put(table, fp, data)
}

// renderMath renders a Math element's LaTeX/non-math body through the
// tex.<env>.* environment named by the element, falling back to the
// escaped source when no TexRenderer is wired or the subprocess fails.
func (c *htmlCtx) renderMath(m *ast.Math) string {
	env := m.Env
	if env == "" {
		env = "default"
	}

	opts := TexOptions{
		Env:          env,
		FontSize:     varOr(c.doc, "tex."+env+".fontsize", ""),
		Preamble:     varOr(c.doc, "tex."+env+".preamble", ""),
		BlockPrepend: varOr(c.doc, "tex."+env+".block_prepend", ""),
		ExecPath:     varOr(c.doc, "tex."+env+".exec", ""),
	}

	body := m.Body
	if opts.BlockPrepend != "" && m.Mode == ast.MathBlock {
		body = opts.BlockPrepend + "\n" + body
	}

	tag := "span"
	if m.Mode == ast.MathBlock {
		tag = "div"
	}

	class := "math"
	if !m.IsMath {
		class = "latex"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<%s class="%s">`, tag, class)

	if svg, ok := c.renderTex(body, opts, m.Location()); ok {
		b.WriteString(svg)
	} else {
		fmt.Fprintf(&b, "<code>%s</code>", htmlesc.EscapeString(m.Body))
	}

	if m.Caption != "" {
		fmt.Fprintf(&b, `<span class="caption">%s</span>`, htmlesc.EscapeString(m.Caption))
	}

	fmt.Fprintf(&b, "</%s>", tag)

	return b.String()
}

func (c *htmlCtx) renderTex(body string, opts TexOptions, loc source.Span) (string, bool) {
	if c.r.Tex == nil {
		return "", false
	}

	params := cache.Params{
		"env_fontsize":      opts.FontSize,
		"env_preamble":      opts.Preamble,
		"env_block_prepend": opts.BlockPrepend,
		"env_exec":          opts.ExecPath,
	}
	fp := cache.Fingerprint("tex", body, params)

	if out, ok := c.cacheGet(cache.TableTex, fp); ok {
		return string(out), true
	}

	ctx, cancel := c.r.subprocessContext()
	defer cancel()

	out, err := c.r.Tex.RenderTex(ctx, body, opts)
	if err != nil {
		c.doc.Diagnostics.Errorf(diag.External, loc, "render latex: %v", err)
		return "", false
	}

	c.cachePut(cache.TableTex, fp, out)

	return string(out), true
}

func (c *htmlCtx) renderGraph(g *ast.Graph) string {
	opts := DotOptions{Layout: g.Layout, Width: g.Width}

	var b strings.Builder
	b.WriteString(`<div class="graph">`)

	if svg, ok := c.renderDot(g.DotSource, opts, g.Location()); ok {
		b.WriteString(svg)
	} else {
		fmt.Fprintf(&b, "<pre>%s</pre>", htmlesc.EscapeString(g.DotSource))
	}

	b.WriteString("</div>\n")

	return b.String()
}

func (c *htmlCtx) renderDot(body string, opts DotOptions, loc source.Span) (string, bool) {
	if c.r.Dot == nil {
		return "", false
	}

	params := cache.Params{"layout": opts.Layout, "width": opts.Width}
	fp := cache.Fingerprint("dot", body, params)

	if out, ok := c.cacheGet(cache.TableDot, fp); ok {
		return string(out), true
	}

	ctx, cancel := c.r.subprocessContext()
	defer cancel()

	out, err := c.r.Dot.RenderDot(ctx, body, opts)
	if err != nil {
		c.doc.Diagnostics.Errorf(diag.External, loc, "render graph: %v", err)
		return "", false
	}

	c.cachePut(cache.TableDot, fp, out)

	return string(out), true
}

func (c *htmlCtx) renderMedia(m *ast.Media) string {
	anchor := ""
	if m.Alt != "" {
		anchor = c.refAnchor(m.ID())
	}

	tag := mediaTag(m.URL)

	var attrs strings.Builder
	for _, kv := range sortedProps(m.Properties) {
		fmt.Fprintf(&attrs, ` %s="%s"`, kv[0], htmlesc.EscapeString(kv[1]))
	}

	url := htmlesc.EscapeString(m.URL)
	alt := htmlesc.EscapeString(m.Alt)

	if tag == "img" {
		return fmt.Sprintf(`%s<img src="%s" alt="%s"%s>`+"\n", anchor, url, alt, attrs.String())
	}

	return fmt.Sprintf(`%s<%s src="%s" controls%s></%s>`+"\n", anchor, tag, url, attrs.String(), tag)
}

func mediaTag(url string) string {
	lower := strings.ToLower(url)

	switch {
	case strings.HasSuffix(lower, ".mp4"), strings.HasSuffix(lower, ".webm"):
		return "video"
	case strings.HasSuffix(lower, ".mp3"), strings.HasSuffix(lower, ".wav"), strings.HasSuffix(lower, ".ogg"):
		return "audio"
	default:
		return "img"
	}
}

func sortedProps(m map[string]string) [][2]string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	out := make([][2]string, len(keys))
	for i, k := range keys {
		out[i] = [2]string{k, m[k]}
	}

	return out
}

// renderReference resolves a §{...}/&{...} site against the resolver's
// side table, keyed by (this document, the reference element's own
// id) per resolve.RefKey, rather than by the resolved target's id.
func (c *htmlCtx) renderReference(ref *ast.Reference) string {
	label := ref.Caption
	if label == "" {
		label = ref.Name
	}

	key := resolve.RefKey{Doc: c.doc.OutputName, ElementID: ref.ID()}

	binding, ok := c.res.Bindings[key]
	if !ok {
		return fmt.Sprintf(`<span class="broken-ref">%s</span>`, htmlesc.EscapeString(label))
	}

	href := fmt.Sprintf("#ref-%d", binding.ElementID)
	if binding.Doc != c.doc.OutputName {
		href = fmt.Sprintf("%s.html#ref-%d", binding.Doc, binding.ElementID)
	}

	return fmt.Sprintf(`<a class="reference" href="%s">%s</a>`, href, htmlesc.EscapeString(label))
}

func (c *htmlCtx) renderLayout(l *ast.Layout) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="layout layout-%s">`+"\n", htmlesc.EscapeString(l.Name))

	for _, pane := range l.Children() {
		b.WriteString(`<div class="layout-pane">`)
		b.WriteString(c.renderChildren(pane))
		b.WriteString("</div>\n")
	}

	b.WriteString("</div>\n")

	return b.String()
}

// renderBlockquote implements the original compiler's block/custom.rs
// quote compile: the formatted author/cite line sits either before or
// after the <blockquote> body depending on author_pos, and is omitted
// entirely when neither author nor cite is set.
func (c *htmlCtx) renderBlockquote(bq *ast.Blockquote) string {
	var b strings.Builder
	b.WriteString(`<div class="blockquote-content">`)

	author := c.formatQuoteAuthor(bq)

	if c.quote.AuthorPos == AuthorBefore {
		b.WriteString(author)
	}

	if bq.URL != "" {
		fmt.Fprintf(&b, `<blockquote cite="%s">`, htmlesc.EscapeString(bq.URL))
	} else {
		b.WriteString("<blockquote>")
	}

	b.WriteString(c.renderChildren(bq))
	b.WriteString("</blockquote>")

	if c.quote.AuthorPos == AuthorAfter {
		b.WriteString(author)
	}

	b.WriteString("</div>\n")

	return b.String()
}

func (c *htmlCtx) formatQuoteAuthor(bq *ast.Blockquote) string {
	if bq.Author == "" && bq.Cite == "" {
		return ""
	}

	var format string

	switch {
	case bq.Author != "" && bq.Cite != "":
		format = c.quote.Format[0]
	case bq.Author != "":
		format = c.quote.Format[1]
	default:
		format = c.quote.Format[2]
	}

	replaced := strings.NewReplacer(
		"{author}", htmlesc.EscapeString(bq.Author),
		"{cite}", htmlesc.EscapeString(bq.Cite),
		"{url}", htmlesc.EscapeString(bq.URL),
	).Replace(format)

	return fmt.Sprintf(`<p class="blockquote-author">%s</p>`, replaced)
}
