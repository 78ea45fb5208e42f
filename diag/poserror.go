package diag

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nml-lang/nml/source"
)

// Detail is one entry in a PosError's explanation chain.
type Detail struct {
	Range   source.Span
	Message string
}

// PosError is a rich positional error for the Fatal-severity failures
// named in §7 (unreadable input, cache required but unavailable in
// directory mode): several details chained together with an optional
// cause and hint, explainable for console output.
type PosError struct {
	Details []Detail
	Cause   error
	Hint    string
}

// NewPosError creates a PosError with one initial detail.
func NewPosError(rng source.Span, msg string) *PosError {
	return &PosError{Details: []Detail{{Range: rng, Message: msg}}}
}

// AddDetail appends another explanation step, e.g. to show the import
// chain that led to a cyclic-import error.
func (p *PosError) AddDetail(rng source.Span, msg string) *PosError {
	p.Details = append(p.Details, Detail{Range: rng, Message: msg})
	return p
}

func (p *PosError) SetCause(err error) *PosError {
	p.Cause = err
	return p
}

func (p *PosError) SetHint(hint string) *PosError {
	p.Hint = hint
	return p
}

func (p *PosError) Unwrap() error { return p.Cause }

func (p *PosError) Error() string {
	first := p.firstDetail()
	if p.Cause == nil {
		return first.Message
	}

	return first.Message + ": " + p.Cause.Error()
}

func (p *PosError) firstDetail() Detail {
	if len(p.Details) > 0 {
		return p.Details[0]
	}

	return Detail{}
}

// Explain renders a multi-line, console-friendly explanation with a
// source excerpt and a caret under each detail's range.
func (p *PosError) Explain() string {
	indent := 0

	for _, d := range p.Details {
		_, line := 0, lineOf(d.Range)
		if l := len(strconv.Itoa(line)); l > indent {
			indent = l
		}
	}

	sb := &strings.Builder{}

	for i, d := range p.Details {
		line := lineOf(d.Range)
		text := lineText(d.Range)

		if i == 0 || d.Range.Src.Name() != p.Details[i-1].Range.Src.Name() {
			fmt.Fprintf(sb, "%s\n", d.Range.Begin())
		}

		fmt.Fprintf(sb, "%"+strconv.Itoa(indent)+"s |\n", "")
		fmt.Fprintf(sb, "%"+strconv.Itoa(indent)+"d |%s\n", line, text)
		fmt.Fprintf(sb, "%"+strconv.Itoa(indent)+"s |", "")

		_, col := source.LineCol(d.Range.Src, d.Range.Start)
		width := d.Range.End - d.Range.Start
		if width < 1 {
			width = 1
		}

		fmt.Fprintf(sb, "%"+strconv.Itoa(col-1)+"s", "")
		sb.WriteString(strings.Repeat("^", width))
		sb.WriteString(" ")
		sb.WriteString(d.Message)
		sb.WriteString("\n")

		if i < len(p.Details)-1 {
			fmt.Fprintf(sb, "%"+strconv.Itoa(indent)+"s...\n", "")
		}
	}

	if p.Hint != "" {
		fmt.Fprintf(sb, "%"+strconv.Itoa(indent)+"s= hint: %s\n", "", p.Hint)
	}

	return sb.String()
}

func lineOf(rng source.Span) int {
	line, _ := source.LineCol(rng.Src, rng.Start)
	return line
}

func lineText(rng source.Span) string {
	content := rng.Src.Content()
	line, _ := source.LineCol(rng.Src, rng.Start)

	count := 1
	start := 0

	for i, b := range content {
		if count == line {
			start = i
			break
		}

		if b == '\n' {
			count++
		}
	}

	end := start
	for end < len(content) && content[end] != '\n' {
		end++
	}

	return string(content[start:end])
}
