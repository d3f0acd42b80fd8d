// Package jsruntime adapts github.com/dop251/goja, a pure-Go ECMAScript
// interpreter, into the shell's runtime.Adapter contract — the
// idiomatic embeddable-JS choice shown across the retrieved corpus
// (rakunlabs-at, r5-labs-r5-core, qbloq-graphjin-agentico all carry
// dop251/goja in their go.mod).
package jsruntime

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/zhukovaskychina/xmysql-shell/internal/bridge"
	"github.com/zhukovaskychina/xmysql-shell/internal/runtime"
	"github.com/zhukovaskychina/xmysql-shell/internal/value"
)

// Adapter embeds a single persistent goja.Runtime: the shell keeps one
// VM alive across interactive statements so session handles and
// user-defined globals survive between evaluations, per spec.md §4.2's
// "preserves session handles across mode switches" rule.
type Adapter struct {
	vm *goja.Runtime
}

func New() *Adapter {
	return &Adapter{vm: goja.New()}
}

func (a *Adapter) Name() string { return "javascript" }

func (a *Adapter) Install(modules []runtime.Module) error {
	for _, mod := range modules {
		obj := a.vm.NewObject()
		for name, v := range mod.Globals {
			if err := obj.Set(name, a.toGoja(v)); err != nil {
				return err
			}
		}
		if err := a.vm.Set(mod.Name, obj); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) Eval(source string) (value.Value, error) {
	result, err := a.vm.RunString(source)
	if err != nil {
		return value.Value{}, err
	}
	return a.fromGoja(result)
}

func (a *Adapter) Close() {}

// toGoja marshals a tagged Value into the runtime's native
// representation: scalars map directly, Array/Map recurse (a Map is
// copied into a plain JS object), and Object bridges become bridgeObject
// dynamic objects whose data and method members are read live from the
// bridge on every access.
func (a *Adapter) toGoja(v value.Value) goja.Value {
	switch v.Kind() {
	case value.KindUndefined:
		return goja.Undefined()
	case value.KindNull:
		return goja.Null()
	case value.KindBool:
		b, _ := v.AsBool()
		return a.vm.ToValue(b)
	case value.KindInteger:
		i, _ := v.AsInt()
		return a.vm.ToValue(i)
	case value.KindUInteger:
		u, _ := v.AsUint()
		return a.vm.ToValue(u)
	case value.KindFloat:
		f, _ := v.AsFloat()
		return a.vm.ToValue(f)
	case value.KindString:
		s, _ := v.AsString()
		return a.vm.ToValue(s)
	case value.KindArray:
		arr, _ := v.AsArray()
		out := make([]interface{}, arr.Len())
		for i, item := range arr.Items {
			out[i] = a.toGoja(item)
		}
		return a.vm.ToValue(out)
	case value.KindMap:
		m, _ := v.AsMap()
		return a.bridgeOrMapObject(nil, m)
	case value.KindMapRef:
		ref, _ := v.AsMapRef()
		target, ok := ref.Resolve()
		if !ok {
			return goja.Undefined()
		}
		return a.bridgeOrMapObject(nil, target)
	case value.KindObject:
		obj, _ := v.AsObject()
		b, ok := obj.(bridge.Bridge)
		if !ok {
			return goja.Undefined()
		}
		return a.bridgeOrMapObject(b, nil)
	case value.KindFunction:
		fn, _ := v.AsFunction()
		return a.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			args := make([]value.Value, len(call.Arguments))
			for i, arg := range call.Arguments {
				fv, err := a.fromGoja(arg)
				if err != nil {
					panic(a.vm.NewGoError(err))
				}
				args[i] = fv
			}
			result, err := fn.Invoke(args)
			if err != nil {
				panic(a.vm.NewGoError(err))
			}
			return a.toGoja(result)
		})
	default:
		return goja.Undefined()
	}
}

func (a *Adapter) bridgeOrMapObject(b bridge.Bridge, m *value.Map) *goja.Object {
	if m != nil {
		obj := a.vm.NewObject()
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			obj.Set(k, a.toGoja(v))
		}
		return obj
	}
	return a.vm.NewDynamicObject(&bridgeObject{bridge: b, adapter: a})
}

// bridgeObject backs an Object Bridge as a goja DynamicObject instead of
// a plain snapshotted object, so that reading a property JS never heard
// of routes through bridge.GetMember and surfaces its real UnknownMember
// error (testable property 3) rather than JS's normal `undefined` for a
// missing property. Method members stay fully live, forwarded through
// bridge.Call on every invocation; data members are still read fresh on
// every Get rather than snapshotted once.
type bridgeObject struct {
	bridge  bridge.Bridge
	adapter *Adapter
}

func (o *bridgeObject) Get(key string) goja.Value {
	member, err := o.bridge.GetMember(key)
	if err != nil {
		panic(o.adapter.vm.NewGoError(err))
	}
	if member.Kind() == value.KindFunction {
		methodName := key
		return o.adapter.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			args := make([]value.Value, len(call.Arguments))
			for i, arg := range call.Arguments {
				fv, err := o.adapter.fromGoja(arg)
				if err != nil {
					panic(o.adapter.vm.NewGoError(err))
				}
				args[i] = fv
			}
			result, err := o.bridge.Call(methodName, args)
			if err != nil {
				panic(o.adapter.vm.NewGoError(err))
			}
			return o.adapter.toGoja(result)
		})
	}
	return o.adapter.toGoja(member)
}

func (o *bridgeObject) Set(key string, val goja.Value) bool { return false }

func (o *bridgeObject) Has(key string) bool {
	for _, name := range o.bridge.Members() {
		if name == key {
			return true
		}
	}
	return false
}

func (o *bridgeObject) Delete(key string) bool { return false }

func (o *bridgeObject) Keys() []string { return o.bridge.Members() }

// fromGoja marshals a JS-native value back into a tagged Value.
func (a *Adapter) fromGoja(gv goja.Value) (value.Value, error) {
	if goja.IsUndefined(gv) {
		return value.Undefined(), nil
	}
	if goja.IsNull(gv) {
		return value.Null(), nil
	}
	exported := gv.Export()
	switch x := exported.(type) {
	case bool:
		return value.FromBool(x), nil
	case int64:
		return value.FromInt(x), nil
	case int:
		return value.FromInt(int64(x)), nil
	case float64:
		return value.FromFloat(x), nil
	case string:
		return value.FromString(x), nil
	case []interface{}:
		arr := value.NewArray()
		for _, item := range x {
			iv, err := a.fromGoja(a.vm.ToValue(item))
			if err != nil {
				return value.Value{}, err
			}
			arr.Append(iv)
		}
		return value.FromArray(arr), nil
	case map[string]interface{}:
		m := value.NewMap()
		for k, item := range x {
			iv, err := a.fromGoja(a.vm.ToValue(item))
			if err != nil {
				return value.Value{}, err
			}
			m.Set(k, iv)
		}
		return value.FromMap(m), nil
	default:
		return value.FromString(fmt.Sprintf("%v", exported)), nil
	}
}

var _ runtime.Adapter = (*Adapter)(nil)
