// Package kernel implements the embedded script kernel host of §4.4:
// named, persistent Lua evaluation contexts whose output is re-fed
// through the parser. original_source/src/elements/lua/* confirms the
// embedded language is Lua; gopher-lua is the pure-Go VM the ecosystem
// reaches for when a cgo-free embedded Lua is needed.
package kernel

import (
	lua "github.com/yuin/gopher-lua"
)

// DefaultKernelName is the kernel used when no "%<[name]!" selector is
// given.
const DefaultKernelName = "main"

// CustomRuleKind distinguishes define_toggled from define_paired
// (§4.4).
type CustomRuleKind int

const (
	RuleToggled CustomRuleKind = iota
	RulePaired
)

// CustomRule is a style rule a script registered at runtime via
// define_toggled/define_paired. The rule package turns these into a
// rule.Rule (the "scripted rule" variant of §9's "Dynamic rule
// extension via scripts") once the invoking kernel call returns.
type CustomRule struct {
	Kind       CustomRuleKind
	Name       string
	Delim      string // RuleToggled: the single delimiter, e.g. "~"
	Open       string // RulePaired: opening delimiter
	Close      string // RulePaired: closing delimiter
	StartFn    *lua.LFunction
	EndFn      *lua.LFunction
	KernelName string
}

// Host owns one document's kernels (§5: "Script kernels are not shared
// across documents — each document gets its own fresh kernel set").
type Host struct {
	kernels     map[string]*Kernel
	facade      *DocFacade
	customRules []CustomRule
}

// NewHost creates a Host whose kernels all share facade as their
// document-mutation channel (§9 "Script -> parser callbacks": "a weak
// back-reference (relation + lookup, not ownership) to the current
// document under compilation").
func NewHost(facade *DocFacade) *Host {
	h := &Host{kernels: make(map[string]*Kernel), facade: facade}
	facade.onCustomRule = h.addCustomRule

	return h
}

// Kernel returns the named kernel, creating and initializing it (with
// a fresh *lua.LState and the document facade installed) on first use.
func (h *Host) Kernel(name string) *Kernel {
	if name == "" {
		name = DefaultKernelName
	}

	if k, ok := h.kernels[name]; ok {
		return k
	}

	k := newKernel(name, h)
	h.kernels[name] = k

	return k
}

// TakeCustomRules returns and clears any CustomRule values registered
// since the last call, for the rule package to turn into live rule.Rule
// values (§4.2: "new rules... may be added during parsing and take
// effect immediately").
func (h *Host) TakeCustomRules() []CustomRule {
	rules := h.customRules
	h.customRules = nil

	return rules
}

func (h *Host) addCustomRule(r CustomRule) {
	h.customRules = append(h.customRules, r)
}

// CallFunc invokes a start/end closure captured by a define_toggled/
// define_paired registration, in the kernel it was defined in, for
// side effects only (the rule package never inspects a return value).
func (h *Host) CallFunc(kernelName string, fn *lua.LFunction) error {
	if fn == nil {
		return nil
	}

	k := h.Kernel(kernelName)
	k.L.Push(fn)

	return k.L.PCall(0, 0, nil)
}

// Close tears down every kernel's Lua state. Call once the document's
// parse pass has finished.
func (h *Host) Close() {
	for _, k := range h.kernels {
		k.L.Close()
	}
}
