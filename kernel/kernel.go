package kernel

import (
	lua "github.com/yuin/gopher-lua"
)

// Kernel is one named, persistent Lua evaluation context (§4.4). Its
// global state (variables, functions defined by a prior "@<...>@"
// block) survives across calls for the lifetime of the owning
// document's parse pass.
type Kernel struct {
	name string
	L    *lua.LState
	host *Host
}

// newKernel creates and initializes a fresh Lua state for name,
// installing the document facade as its "nml" global table.
func newKernel(name string, host *Host) *Kernel {
	L := lua.NewState()
	host.facade.Install(L, name)

	return &Kernel{name: name, L: L, host: host}
}

// Define runs a definition block ("@<name\n...>@"): no textual output
// is captured, only the side effect of defining globals/functions in
// this kernel's state (§4.4 "Definition").
func (k *Kernel) Define(code string) error {
	return k.L.DoString(code)
}

// EvalDiscard runs an expression block whose result is thrown away
// ("%<[name]...>%"), used purely for side effects via the nml facade.
func (k *Kernel) EvalDiscard(code string) error {
	return k.L.DoString(code)
}

// EvalToText runs an expression block and returns its single return
// value coerced to text, spliced back into the surrounding document as
// plain text (`%<[name]"...>%`).
func (k *Kernel) EvalToText(code string) (string, error) {
	return k.evalReturnString(code)
}

// EvalToParse runs an expression block and returns its single return
// value, which the caller re-feeds through the parser as though it had
// appeared literally at the call site (`%<[name]!...>%`).
func (k *Kernel) EvalToParse(code string) (string, error) {
	return k.evalReturnString(code)
}

func (k *Kernel) evalReturnString(code string) (string, error) {
	fn, err := k.L.LoadString(code)
	if err != nil {
		return "", err
	}

	k.L.Push(fn)

	if err := k.L.PCall(0, 1, nil); err != nil {
		return "", err
	}

	ret := k.L.Get(-1)
	k.L.Pop(1)

	if ret == lua.LNil {
		return "", nil
	}

	return lua.LVAsString(ret), nil
}
