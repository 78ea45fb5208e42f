package rule

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/token"
)

// ToggledStyleRule implements a delimiter-toggled inline style span
// (§4.2 "Inline style": "**bold**", "*italic*", "__underline__"), and
// doubles as the live rule.Rule a define_toggled custom style becomes
// once registered (§4.4, §9 "Dynamic rule extension via scripts"): for
// a script-registered style, StartFn/EndFn are called for side effects
// as the run opens/closes; both are nil for the four built-ins.
type ToggledStyleRule struct {
	StyleName  string
	Delim      string
	Pri        int
	StartFn    *lua.LFunction
	EndFn      *lua.LFunction
	KernelName string
}

func (r ToggledStyleRule) Name() string  { return "style:" + r.StyleName }
func (r ToggledStyleRule) Priority() int { return r.Pri }

func (r ToggledStyleRule) Context(top ast.ContainerKind) bool {
	return isInlineHost(top)
}

func (r ToggledStyleRule) Search(cur *token.Cursor) (int, bool) {
	return findLiteral(cur, r.Delim)
}

func (r ToggledStyleRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()
	cur.Advance(len(r.Delim))

	if depth, open := st.Builder.FindOpenStyledRun(r.StyleName); open {
		if r.EndFn != nil && st.Kernels != nil {
			_ = st.Kernels.CallFunc(r.KernelName, r.EndFn)
		}

		st.Builder.CloseStyledRunAt(depth)
		return nil
	}

	st.Builder.EnsureParagraphOpen(cur.SpanFrom(start))

	if r.StartFn != nil && st.Kernels != nil {
		_ = st.Kernels.CallFunc(r.KernelName, r.StartFn)
	}

	loc := cur.SpanFrom(cur.Offset())
	run := &ast.StyledRun{Base: ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindStyledRun, Loc: loc}, StyleName: r.StyleName}
	st.Builder.Push(ast.ContainerStyledRun, run, &run.Base)

	return nil
}

// PairedStyleRule implements the live rule.Rule a define_paired custom
// style becomes: distinct open/close delimiters, matched to the
// nearest open run of the same name rather than toggled (§4.4).
type PairedStyleRule struct {
	StyleName  string
	Open       string
	Close      string
	Pri        int
	StartFn    *lua.LFunction
	EndFn      *lua.LFunction
	KernelName string
}

func (r PairedStyleRule) Name() string  { return "style-paired:" + r.StyleName }
func (r PairedStyleRule) Priority() int { return r.Pri }

func (r PairedStyleRule) Context(top ast.ContainerKind) bool {
	return isInlineHost(top)
}

func (r PairedStyleRule) Search(cur *token.Cursor) (int, bool) {
	return findAnyLiteral(cur, r.Open, r.Close)
}

func (r PairedStyleRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()

	if hasPrefixAt(cur, r.Close) {
		cur.Advance(len(r.Close))

		if depth, open := st.Builder.FindOpenStyledRun(r.StyleName); open {
			if r.EndFn != nil && st.Kernels != nil {
				_ = st.Kernels.CallFunc(r.KernelName, r.EndFn)
			}

			st.Builder.CloseStyledRunAt(depth)
		}

		return nil
	}

	st.Builder.EnsureParagraphOpen(cur.SpanFrom(start))
	cur.Advance(len(r.Open))

	if r.StartFn != nil && st.Kernels != nil {
		_ = st.Kernels.CallFunc(r.KernelName, r.StartFn)
	}

	loc := cur.SpanFrom(cur.Offset())
	run := &ast.StyledRun{Base: ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindStyledRun, Loc: loc}, StyleName: r.StyleName}
	st.Builder.Push(ast.ContainerStyledRun, run, &run.Base)

	return nil
}

// BuiltinToggledStyles returns the three toggled styles named in §4.2
// ("**bold**", "*italic*", "__underline__"). The backtick-delimited
// "emphasis" form is not among them: BacktickRule handles it, together
// with the inline code form that shares its delimiter.
func BuiltinToggledStyles() []Rule {
	return []Rule{
		ToggledStyleRule{StyleName: "bold", Delim: "**", Pri: 20},
		ToggledStyleRule{StyleName: "underline", Delim: "__", Pri: 20},
		ToggledStyleRule{StyleName: "italic", Delim: "*", Pri: 25},
	}
}
