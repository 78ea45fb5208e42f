// Package rule implements the extensible rule registry of §4.2: an
// ordered collection of syntactic rules, each owning a matcher and a
// builder, plus the "scripted rule" variant a document's script kernel
// host can register at runtime (§9 "Dynamic rule extension via
// scripts").
package rule

import (
	"sort"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/cache"
	"github.com/nml-lang/nml/kernel"
	"github.com/nml-lang/nml/render"
	"github.com/nml-lang/nml/token"
)

// State threads everything a rule's Build step may need through one
// call, generalizing the teacher's Parser-held fields into an explicit
// argument so rules stay stateless w.r.t. the driver (§4.2 "All rules
// are stateless w.r.t. the parser driver").
type State struct {
	Doc      *ast.Document
	Builder  *ast.Builder
	Registry *Registry
	Kernels  *kernel.Host
	Cache    *cache.Store

	Tex render.TexRenderer
	Dot render.DotRenderer
	Hi  render.CodeHighlighter

	// Import compiles path as an independent document, used by
	// ImportRule to harvest its variable/style environment. visiting is
	// the same map as Importing below, threaded through so the nested
	// compile's own Driver.Run shares one path-keyed visiting set with
	// every document already on the import stack — without this, each
	// nested compile would start from an empty set and a cycle would
	// recurse forever instead of being detected. Cyclic imports are
	// rejected via Importing before this is called.
	Import func(path string, visiting map[string]bool) (*ast.Document, error)

	// Importing is the visiting set used to detect import cycles
	// before the parse of the cycle's closing edge (§8 "Import
	// acyclicity"). Keyed by the cleaned import path joined onto the importing
	// source's directory (absolute only when that source's name is),
	// shared by
	// reference across every document in the current import chain.
	Importing map[string]bool
}

// Match is the position a Rule reports for Search: where it would
// start consuming input if chosen.
type Match struct {
	Offset int
	Rule   Rule
}

// Rule is one syntactic recognizer (§4.2: "A rule exposes four
// capabilities").
type Rule interface {
	// Name identifies the rule for diagnostics and tie-break logging.
	Name() string
	// Priority orders deterministic ties when two rules match at the
	// same offset (e.g. "code fence beats inline emphasis"). Lower
	// values win.
	Priority() int
	// Context reports whether this rule is eligible given the
	// currently open container.
	Context(top ast.ContainerKind) bool
	// Search returns the next match offset (within the cursor's
	// current top source) at or after the cursor's current position,
	// or ok=false if this rule does not match anywhere in the
	// remainder.
	Search(cur *token.Cursor) (offset int, ok bool)
	// Build consumes the matched span (cur is positioned at the match
	// offset Search reported) and mutates st accordingly.
	Build(cur *token.Cursor, st *State) error
}

// Registry is the ordered collection of Rules, queried by the parser
// driver once per loop iteration (§4.2 "Rule registry").
type Registry struct {
	rules []Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds r to the registry. New rules may be registered during
// parsing (scripted rules) and take effect immediately for subsequent
// positions; removal is not supported (§4.2).
func (r *Registry) Register(rules ...Rule) {
	r.rules = append(r.rules, rules...)
}

// Eligible returns every registered rule whose Context predicate
// accepts top, in registry order.
func (r *Registry) Eligible(top ast.ContainerKind) []Rule {
	out := make([]Rule, 0, len(r.rules))

	for _, rl := range r.rules {
		if rl.Context(top) {
			out = append(out, rl)
		}
	}

	return out
}

// Best asks every eligible rule for its next match and returns the one
// with the smallest offset, breaking ties by Priority (lower wins),
// then by registration order for full determinism.
func Best(rules []Rule, cur *token.Cursor) (Match, bool) {
	var candidates []Match

	for _, rl := range rules {
		offset, ok := rl.Search(cur)
		if !ok {
			continue
		}

		candidates = append(candidates, Match{Offset: offset, Rule: rl})
	}

	if len(candidates) == 0 {
		return Match{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Offset != candidates[j].Offset {
			return candidates[i].Offset < candidates[j].Offset
		}

		return candidates[i].Rule.Priority() < candidates[j].Rule.Priority()
	})

	return candidates[0], true
}
