// Package diag implements the diagnostic taxonomy of §7: every rule,
// script, and pass failure reduces to a Diagnostic rather than a
// panic; only I/O and cache-open failures are allowed to abort a
// compilation (see Severity Fatal).
package diag

import (
	"fmt"
	"sort"

	"github.com/nml-lang/nml/source"
)

// Severity classifies a Diagnostic per §7's taxonomy.
type Severity int

const (
	// Lexical marks a malformed construct recovered locally.
	Lexical Severity = iota
	// Semantic marks an unknown variable/style key, duplicate
	// reference, or missing cross-document reference.
	Semantic
	// External marks a subprocess or cache I/O failure.
	External
	// Fatal marks an input or cache-open failure that aborts the
	// affected document.
	Fatal
)

func (s Severity) String() string {
	switch s {
	case Lexical:
		return "lexical"
	case Semantic:
		return "semantic"
	case External:
		return "external"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Diagnostic is a single structured finding with a source range,
// severity, and message. The renderer and the LSP layer both consume
// this same structure (§7).
type Diagnostic struct {
	Severity Severity
	Message  string
	Range    source.Span
	Cause    error
}

func (d Diagnostic) Error() string {
	if d.Cause == nil {
		return fmt.Sprintf("%s: %s", d.Range.Begin(), d.Message)
	}

	return fmt.Sprintf("%s: %s: %v", d.Range.Begin(), d.Message, d.Cause)
}

func (d Diagnostic) Unwrap() error { return d.Cause }

// Bag accumulates diagnostics for one document. Compilation never
// aborts on a Diagnostic added to a Bag; only a returned error from an
// I/O call can abort a document's compilation.
type Bag struct {
	items []Diagnostic
}

// Add appends a diagnostic to the bag.
func (b *Bag) Add(d Diagnostic) {
	b.items = append(b.items, d)
}

// Errorf is a convenience wrapper that builds and adds a Diagnostic.
func (b *Bag) Errorf(sev Severity, rng source.Span, format string, args ...any) {
	b.Add(Diagnostic{Severity: sev, Message: fmt.Sprintf(format, args...), Range: rng})
}

// HasFatal reports whether any accumulated diagnostic is Fatal.
func (b *Bag) HasFatal() bool {
	for _, d := range b.items {
		if d.Severity == Fatal {
			return true
		}
	}

	return false
}

// Items returns the accumulated diagnostics sorted in ascending
// (source, offset) order, per document, as required by §5's ordering
// guarantees.
func (b *Bag) Items() []Diagnostic {
	out := make([]Diagnostic, len(b.items))
	copy(out, b.items)

	sort.SliceStable(out, func(i, j int) bool {
		a, c := out[i].Range.Begin(), out[j].Range.Begin()
		if a.Src.Name() != c.Src.Name() {
			return a.Src.Name() < c.Src.Name()
		}

		return a.Offset < c.Offset
	})

	return out
}

// Len returns the number of accumulated diagnostics.
func (b *Bag) Len() int { return len(b.items) }
