// Package env implements the variable and style environment of §4.3:
// named values and style overrides, scoped per document with prefixed
// import.
package env

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nml-lang/nml/source"
)

// VarKind distinguishes a text variable from a path variable (§3
// "Variable").
type VarKind int

const (
	VarText VarKind = iota
	VarPath
)

// Var is one defined variable: its kind, value, and the source of its
// definition (used for relative path resolution and for diagnostics
// that point back to the @name = ... site).
type Var struct {
	Kind   VarKind
	Value  string
	Defined source.Span
}

// Vars is the mapping name -> Var for one document, plus whatever was
// merged in via @import (optionally under an alias prefix).
type Vars struct {
	byName map[string]Var
}

// NewVars creates an empty variable environment.
func NewVars() *Vars {
	return &Vars{byName: make(map[string]Var)}
}

// SetText defines or overwrites a text variable (§4.2 "Variables").
func (v *Vars) SetText(name, value string, defined source.Span) {
	v.byName[name] = Var{Kind: VarText, Value: value, Defined: defined}
}

// SetPath defines a path variable, resolving it relative to the
// defining source's directory and checking that the resolved path
// exists (§3 "Variable"). The variable is defined even when the check
// fails; the returned error reports the failed check.
func (v *Vars) SetPath(name, rawPath string, defined source.Span) (string, error) {
	baseDir := filepath.Dir(defined.Src.Name())
	resolved := rawPath

	if !filepath.IsAbs(rawPath) {
		resolved = filepath.Join(baseDir, rawPath)
	}

	v.byName[name] = Var{Kind: VarPath, Value: resolved, Defined: defined}

	if _, err := os.Stat(resolved); err != nil {
		return resolved, err
	}

	return resolved, nil
}

// Get returns the variable by name, if defined.
func (v *Vars) Get(name string) (Var, bool) {
	val, ok := v.byName[name]
	return val, ok
}

// Names returns all defined variable names, for diagnostics and
// completion.
func (v *Vars) Names() []string {
	names := make([]string, 0, len(v.byName))
	for n := range v.byName {
		names = append(names, n)
	}

	return names
}

// Import merges other into v. If prefix is non-empty, every imported
// name is exposed as "prefix.name" (§4.3 "@import merges another
// document's environment into the current one under an optional
// prefix").
func (v *Vars) Import(other *Vars, prefix string) {
	for name, val := range other.byName {
		target := name
		if prefix != "" {
			target = fmt.Sprintf("%s.%s", prefix, name)
		}

		v.byName[target] = val
	}
}
