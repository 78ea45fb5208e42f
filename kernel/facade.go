package kernel

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/nml-lang/nml/ast"
	"github.com/nml-lang/nml/env"
)

// DocFacade is the narrow mutation channel a script is allowed to use
// to affect the document under construction (§9 "Script -> parser
// callbacks"): a fixed set of methods, not raw tree mutability. It
// holds a weak back-reference to the document — relation and lookup,
// not ownership, since the document outlives any one script call.
type DocFacade struct {
	Vars    *env.Vars
	Builder *ast.Builder
	Doc     *ast.Document

	tables map[string]map[string]string

	// onCustomRule is set by Host after construction; it threads a
	// define_toggled/define_paired call back into the owning Host.
	onCustomRule func(CustomRule)
}

// NewDocFacade creates a facade bound to one document's builder,
// variables, and document record.
func NewDocFacade(doc *ast.Document, builder *ast.Builder) *DocFacade {
	return &DocFacade{Vars: doc.Vars, Builder: builder, Doc: doc, tables: make(map[string]map[string]string)}
}

// PushElement appends a raw passthrough element of kind to the
// document under construction, for kernels that push_element(kind,
// body) (§4.4: "push element-of-kind X (section, raw, graphviz, tex,
// ...)"). Built-in kinds beyond raw passthrough are pushed by name;
// the rule package owns the typed construction for anything richer.
func (f *DocFacade) PushElement(kind, body string) {
	loc := f.Builder.TopElement().Location()
	elem := &ast.Raw{
		Base:    ast.Base{IDValue: f.Doc.NextID(), KindTag: ast.KindRaw, Loc: loc},
		RawKind: kind,
		Body:    body,
	}
	f.Builder.AppendChild(elem)
}

// GetVariable reads a document variable.
func (f *DocFacade) GetVariable(name string) (string, bool) {
	v, ok := f.Vars.Get(name)
	if !ok {
		return "", false
	}

	return v.Value, true
}

// SetVariable defines or overwrites a text variable from script.
func (f *DocFacade) SetVariable(name, value string) {
	loc := f.Builder.TopElement().Location()
	f.Vars.SetText(name, value, loc)
}

// DefineToggled registers a define_toggled custom style rule (§4.4).
func (f *DocFacade) DefineToggled(name, delim string, start, end *lua.LFunction, kernelName string) {
	if f.onCustomRule != nil {
		f.onCustomRule(CustomRule{Kind: RuleToggled, Name: name, Delim: delim, StartFn: start, EndFn: end, KernelName: kernelName})
	}
}

// DefinePaired registers a define_paired custom style rule (§4.4).
func (f *DocFacade) DefinePaired(name, open, close string, start, end *lua.LFunction, kernelName string) {
	if f.onCustomRule != nil {
		f.onCustomRule(CustomRule{Kind: RulePaired, Name: name, Open: open, Close: close, StartFn: start, EndFn: end, KernelName: kernelName})
	}
}

// ExportTable stores a table under nml.tables.<name>, populated by a
// ":TABLE[export_as=name]" row (§4.4).
func (f *DocFacade) ExportTable(name string, values map[string]string) {
	f.tables[name] = values
}

// ReadTable reads back a previously exported table.
func (f *DocFacade) ReadTable(name string) (map[string]string, bool) {
	t, ok := f.tables[name]
	return t, ok
}

// Install registers the "nml" global table into L, bound to this
// facade and the kernel named kernelName (used to tag define_toggled/
// define_paired registrations with their owning kernel).
func (f *DocFacade) Install(L *lua.LState, kernelName string) {
	mod := L.NewTable()

	L.SetField(mod, "push_element", L.NewFunction(func(L *lua.LState) int {
		kind := L.CheckString(1)
		body := L.OptString(2, "")
		f.PushElement(kind, body)

		return 0
	}))

	L.SetField(mod, "get_variable", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)

		val, ok := f.GetVariable(name)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}

		L.Push(lua.LString(val))

		return 1
	}))

	L.SetField(mod, "set_variable", L.NewFunction(func(L *lua.LState) int {
		f.SetVariable(L.CheckString(1), L.CheckString(2))
		return 0
	}))

	L.SetField(mod, "define_toggled", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		delim := L.CheckString(2)
		start := L.CheckFunction(3)
		end := L.CheckFunction(4)
		f.DefineToggled(name, delim, start, end, kernelName)

		return 0
	}))

	L.SetField(mod, "define_paired", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		open := L.CheckString(2)
		closeDelim := L.CheckString(3)
		start := L.CheckFunction(4)
		end := L.CheckFunction(5)
		f.DefinePaired(name, open, closeDelim, start, end, kernelName)

		return 0
	}))

	L.SetField(mod, "export_table", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		tbl := L.CheckTable(2)

		m := make(map[string]string)
		tbl.ForEach(func(k, v lua.LValue) {
			m[k.String()] = v.String()
		})

		f.ExportTable(name, m)

		return 0
	}))

	tables := L.NewTable()
	mt := L.NewTable()
	L.SetField(mt, "__index", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)

		values, ok := f.ReadTable(name)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}

		t := L.NewTable()
		for k, v := range values {
			L.SetField(t, k, lua.LString(v))
		}

		L.Push(t)

		return 1
	}))
	L.SetMetatable(tables, mt)
	L.SetField(mod, "tables", tables)

	L.SetGlobal("nml", mod)
}
