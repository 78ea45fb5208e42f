// Package render implements the renderer interface of §6/§4.7: it
// consumes a resolved document tree and emits output bytes. The
// subprocess contracts for LaTeX and Graphviz (§6) are modeled as
// narrow interfaces here so the cache layer can sit in front of either
// a real os/exec shell-out (owned by the CLI layer, out of scope per
// §1) or a fake used in tests.
package render

import (
	"context"
)

// TexOptions mirrors the tex.<env>.* variables of §6. The subprocess
// deadline is carried on the ctx passed to RenderTex, not here.
type TexOptions struct {
	Env          string
	FontSize     string
	Preamble     string
	BlockPrepend string
	ExecPath     string
}

// TexRenderer renders a LaTeX body to SVG bytes, per §6's "LaTeX
// renderer" subprocess contract: stdin receives TeX, stdout returns
// SVG, stderr carries diagnostics on nonzero exit.
type TexRenderer interface {
	RenderTex(ctx context.Context, body string, opts TexOptions) ([]byte, error)
}

// DotOptions mirrors the Graphviz "-T<layout>" invocation parameters.
type DotOptions struct {
	Layout string
	Width  string
}

// DotRenderer renders a Graphviz DOT body to SVG bytes, per §6's
// "dot -T<layout>" subprocess contract.
type DotRenderer interface {
	RenderDot(ctx context.Context, body string, opts DotOptions) ([]byte, error)
}

// CodeHighlighter renders a code body to highlighted HTML. Theme
// loading itself is out of scope per §1 ("syntax-highlighter theme
// loading"); this interface is the contract the cache layer needs from
// whatever highlighter the CLI layer wires in.
type CodeHighlighter interface {
	HighlightCode(language, theme, body string, lineOffset int) ([]byte, error)
}
