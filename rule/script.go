package rule

import (
	"strings"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/diag"
	"github.com/nml-lang/nml/kernel"
	"github.com/nml-lang/nml/source"
	"github.com/nml-lang/nml/token"
)

// ScriptDefineRule recognizes "@<kernel-name\n code >@" definition
// blocks: the first line names the target kernel (default "main"
// when blank), the remainder is appended to it with no textual output
// (§4.4 "Definition block").
type ScriptDefineRule struct{}

func (ScriptDefineRule) Name() string  { return "script-define" }
func (ScriptDefineRule) Priority() int { return 10 }

func (ScriptDefineRule) Context(top ast.ContainerKind) bool {
	return top == ast.ContainerDocument || top == ast.ContainerLayoutPane
}

func (ScriptDefineRule) Search(cur *token.Cursor) (int, bool) {
	return findLineStartLiteral(cur, "@<")
}

func (ScriptDefineRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()
	cur.Advance(2) // "@<"

	nameEnd := lineEnd(cur, cur.Offset())
	kernelName := strings.TrimSpace(string(cur.Pos().Src.Content()[cur.Offset():nameEnd]))
	cur.Advance(nameEnd - cur.Offset())

	if b, ok := cur.PeekByte(0); ok && b == '\n' {
		cur.Advance(1)
	}

	closeOffset, found := findClosingEscaped(cur, ">@")
	if !found {
		st.Doc.Diagnostics.Errorf(diag.Lexical, cur.SpanFrom(start), "unterminated script definition block")
		return nil
	}

	body := unescapeClose(string(cur.Pos().Src.Content()[cur.Offset():closeOffset]), ">@")
	cur.Advance(closeOffset - cur.Offset())
	cur.Advance(len(">@"))

	if strings.TrimSpace(body) == "" {
		return nil
	}

	k := st.Kernels.Kernel(kernelName)
	if err := k.Define(body); err != nil {
		st.Doc.Diagnostics.Errorf(diag.External, cur.SpanFrom(start), "script definition error in kernel %q: %v", kernelName, err)
	}

	applyCustomRules(st)

	return nil
}

// evalKind distinguishes the three "%< ... >%" forms (§4.4).
type evalKind int

const (
	evalDiscard evalKind = iota
	evalToText
	evalToParse
)

// ScriptEvalRule recognizes "%<[name]?kind? code >%": an optional
// "[name]" kernel selector, an optional one-character kind marker
// ('"' for eval-to-text, '!' for eval-to-parse, absent for discard),
// then the code up to the closing ">%" (§4.4).
type ScriptEvalRule struct{}

func (ScriptEvalRule) Name() string  { return "script-eval" }
func (ScriptEvalRule) Priority() int { return 14 }

func (ScriptEvalRule) Context(top ast.ContainerKind) bool {
	return isInlineHost(top)
}

func (ScriptEvalRule) Search(cur *token.Cursor) (int, bool) {
	return findLiteral(cur, "%<")
}

func (ScriptEvalRule) Build(cur *token.Cursor, st *State) error {
	start := cur.Offset()
	cur.Advance(2) // "%<"

	kernelName := ""
	if b, ok := cur.PeekByte(0); ok && b == '[' {
		if span, ok := cur.BalancedSpan('[', ']'); ok {
			kernelName = span.Text()
		}
	}

	kind := evalDiscard
	if b, ok := cur.PeekByte(0); ok {
		switch b {
		case '"':
			kind = evalToText
			cur.Advance(1)
		case '!':
			kind = evalToParse
			cur.Advance(1)
		}
	}

	closeOffset, found := findClosingEscaped(cur, ">%")
	if !found {
		st.Doc.Diagnostics.Errorf(diag.Lexical, cur.SpanFrom(start), "unterminated script eval block")
		return nil
	}

	code := unescapeClose(string(cur.Pos().Src.Content()[cur.Offset():closeOffset]), ">%")
	cur.Advance(closeOffset - cur.Offset())
	cur.Advance(len(">%"))

	rng := cur.SpanFrom(start)
	k := st.Kernels.Kernel(kernelName)

	switch kind {
	case evalDiscard:
		if err := k.EvalDiscard(code); err != nil {
			st.Doc.Diagnostics.Errorf(diag.External, rng, "script eval error in kernel %q: %v", kernelName, err)
		}

	case evalToText:
		text, err := k.EvalToText(code)
		if err != nil {
			st.Doc.Diagnostics.Errorf(diag.External, rng, "script eval-to-text error in kernel %q: %v", kernelName, err)
			break
		}

		st.Builder.EnsureParagraphOpen(rng)
		st.Builder.AppendChild(&ast.Text{Base: ast.Base{IDValue: st.Doc.NextID(), KindTag: ast.KindText, Loc: rng}, Value: text})

	case evalToParse:
		text, err := k.EvalToParse(code)
		if err != nil {
			st.Doc.Diagnostics.Errorf(diag.External, rng, "script eval-to-parse error in kernel %q: %v", kernelName, err)
			break
		}

		derived := source.NewDerived("script:"+kernelName+"@"+cur.Pos().Src.Name(), []byte(text), cur.Pos().Src, source.SpliceMap(start))
		cur.Push(derived)
	}

	applyCustomRules(st)

	return nil
}

// applyCustomRules drains any define_toggled/define_paired
// registrations a script call just made and turns them into live
// rule.Rule values, effective immediately for the rest of the parse
// (§4.2 "new rules... take effect immediately").
func applyCustomRules(st *State) {
	for _, cr := range st.Kernels.TakeCustomRules() {
		switch cr.Kind {
		case kernel.RuleToggled:
			st.Registry.Register(ToggledStyleRule{
				StyleName: cr.Name, Delim: cr.Delim, Pri: 22,
				StartFn: cr.StartFn, EndFn: cr.EndFn, KernelName: cr.KernelName,
			})
		case kernel.RulePaired:
			st.Registry.Register(PairedStyleRule{
				StyleName: cr.Name, Open: cr.Open, Close: cr.Close, Pri: 22,
				StartFn: cr.StartFn, EndFn: cr.EndFn, KernelName: cr.KernelName,
			})
		}
	}
}

// findClosingEscaped finds the first occurrence of closeLit not
// preceded by an unescaped backslash ("\>@"/"\>%" is a literal close
// sequence in the body rather than the block's terminator).
func findClosingEscaped(cur *token.Cursor, closeLit string) (int, bool) {
	content := cur.Remaining()
	base := cur.Offset()
	search := []byte(closeLit)

	for i := 0; i+len(search) <= len(content); i++ {
		if content[i] == '\\' {
			i++
			continue
		}

		if string(content[i:i+len(search)]) == closeLit {
			return base + i, true
		}
	}

	return 0, false
}

// unescapeClose removes the escaping backslash from any "\<closeLit>"
// occurrence within body.
func unescapeClose(body, closeLit string) string {
	return strings.ReplaceAll(body, `\`+closeLit, closeLit)
}
