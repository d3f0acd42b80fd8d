// Package pyruntime adapts go.starlark.net — the pure-Go Python-dialect
// interpreter referenced in the corpus's canonical-lxd go.mod — into the
// shell's runtime.Adapter contract. CPython embedding was rejected: it
// is not a Go library, so it cannot be wired as a module dependency the
// way this project wires every other domain concern; starlark is the
// idiomatic Go answer to "a Python-like language inside a Go binary".
package pyruntime

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/zhukovaskychina/xmysql-shell/internal/bridge"
	"github.com/zhukovaskychina/xmysql-shell/internal/runtime"
	"github.com/zhukovaskychina/xmysql-shell/internal/value"
)

// Adapter keeps one starlark.StringDict of globals alive across
// Eval calls, the same "persistent scope across statements" rule
// jsruntime follows for goja.
type Adapter struct {
	thread  *starlark.Thread
	globals starlark.StringDict
}

func New() *Adapter {
	return &Adapter{
		thread:  &starlark.Thread{Name: "xmysql-shell"},
		globals: make(starlark.StringDict),
	}
}

func (a *Adapter) Name() string { return "python" }

func (a *Adapter) Install(modules []runtime.Module) error {
	for _, mod := range modules {
		members := starlark.StringDict{}
		for name, v := range mod.Globals {
			sv, err := a.toStarlark(v)
			if err != nil {
				return err
			}
			members[name] = sv
		}
		a.globals[mod.Name] = &moduleValue{name: mod.Name, members: members}
	}
	return nil
}

// Eval runs one chunk of source. It first tries to evaluate it as a
// single expression (so `session.uri` at the prompt prints a value);
// on failure it falls back to executing the chunk as a sequence of
// statements that mutate the persistent globals, mirroring starlark's
// own REPL helper (go.starlark.net/repl).
func (a *Adapter) Eval(source string) (value.Value, error) {
	if result, err := starlark.Eval(a.thread, "<input>", source, a.globals); err == nil {
		return a.fromStarlark(result)
	}
	newGlobals, err := starlark.ExecFile(a.thread, "<input>", source, a.globals)
	if err != nil {
		return value.Value{}, err
	}
	for k, v := range newGlobals {
		a.globals[k] = v
	}
	return value.Undefined(), nil
}

func (a *Adapter) Close() {}

func (a *Adapter) toStarlark(v value.Value) (starlark.Value, error) {
	switch v.Kind() {
	case value.KindUndefined, value.KindNull:
		return starlark.None, nil
	case value.KindBool:
		b, _ := v.AsBool()
		return starlark.Bool(b), nil
	case value.KindInteger:
		i, _ := v.AsInt()
		return starlark.MakeInt64(i), nil
	case value.KindUInteger:
		u, _ := v.AsUint()
		return starlark.MakeUint64(u), nil
	case value.KindFloat:
		f, _ := v.AsFloat()
		return starlark.Float(f), nil
	case value.KindString:
		s, _ := v.AsString()
		return starlark.String(s), nil
	case value.KindArray:
		arr, _ := v.AsArray()
		items := make([]starlark.Value, arr.Len())
		for i, it := range arr.Items {
			sv, err := a.toStarlark(it)
			if err != nil {
				return nil, err
			}
			items[i] = sv
		}
		return starlark.NewList(items), nil
	case value.KindMap:
		m, _ := v.AsMap()
		return a.mapToDict(m)
	case value.KindMapRef:
		ref, _ := v.AsMapRef()
		target, ok := ref.Resolve()
		if !ok {
			return starlark.None, nil
		}
		return a.mapToDict(target)
	case value.KindObject:
		obj, _ := v.AsObject()
		b, ok := obj.(bridge.Bridge)
		if !ok {
			return starlark.None, nil
		}
		return &bridgeValue{bridge: b, adapter: a}, nil
	case value.KindFunction:
		fn, _ := v.AsFunction()
		return starlark.NewBuiltin("<function>", func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			vargs := make([]value.Value, len(args))
			for i, a2 := range args {
				fv, err := a.fromStarlark(a2)
				if err != nil {
					return nil, err
				}
				vargs[i] = fv
			}
			result, err := fn.Invoke(vargs)
			if err != nil {
				return nil, err
			}
			return a.toStarlark(result)
		}), nil
	default:
		return starlark.None, nil
	}
}

func (a *Adapter) mapToDict(m *value.Map) (starlark.Value, error) {
	dict := starlark.NewDict(m.Len())
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		sv, err := a.toStarlark(v)
		if err != nil {
			return nil, err
		}
		if err := dict.SetKey(starlark.String(k), sv); err != nil {
			return nil, err
		}
	}
	return dict, nil
}

func (a *Adapter) fromStarlark(sv starlark.Value) (value.Value, error) {
	switch x := sv.(type) {
	case starlark.NoneType:
		return value.Null(), nil
	case starlark.Bool:
		return value.FromBool(bool(x)), nil
	case starlark.Int:
		if i, ok := x.Int64(); ok {
			return value.FromInt(i), nil
		}
		u, _ := x.Uint64()
		return value.FromUint(u), nil
	case starlark.Float:
		return value.FromFloat(float64(x)), nil
	case starlark.String:
		return value.FromString(string(x)), nil
	case *starlark.List:
		arr := value.NewArray()
		for i := 0; i < x.Len(); i++ {
			iv, err := a.fromStarlark(x.Index(i))
			if err != nil {
				return value.Value{}, err
			}
			arr.Append(iv)
		}
		return value.FromArray(arr), nil
	case *starlark.Dict:
		m := value.NewMap()
		for _, item := range x.Items() {
			k, ok := starlark.AsString(item[0])
			if !ok {
				k = item[0].String()
			}
			iv, err := a.fromStarlark(item[1])
			if err != nil {
				return value.Value{}, err
			}
			m.Set(k, iv)
		}
		return value.FromMap(m), nil
	case *bridgeValue:
		return value.FromObject(x.bridge), nil
	default:
		return value.FromString(fmt.Sprintf("%v", sv)), nil
	}
}

var _ runtime.Adapter = (*Adapter)(nil)
