package pyruntime

import (
	"fmt"

	"go.starlark.net/starlark"

	"github.com/zhukovaskychina/xmysql-shell/internal/bridge"
	"github.com/zhukovaskychina/xmysql-shell/internal/value"
)

// bridgeValue adapts an Object Bridge into starlark's HasAttrs contract
// so script code can read data members and call methods with ordinary
// attribute and call syntax (session.uri, session.sql("...")).
type bridgeValue struct {
	bridge  bridge.Bridge
	adapter *Adapter
}

func (b *bridgeValue) String() string        { return "<" + b.bridge.ClassName() + ">" }
func (b *bridgeValue) Type() string          { return "Bridge" }
func (b *bridgeValue) Freeze()               {}
func (b *bridgeValue) Truth() starlark.Bool  { return starlark.True }
func (b *bridgeValue) Hash() (uint32, error) { return 0, fmt.Errorf("Bridge values are not hashable") }

func (b *bridgeValue) Attr(name string) (starlark.Value, error) {
	member, err := b.bridge.GetMember(name)
	if err != nil {
		// Propagate the error as-is rather than starlark's "no such
		// attribute" (nil, nil) convention, so the shellerr.Kind tag
		// (UnknownMember) survives the attribute read and test code can
		// still match on it, per spec.md §7.
		return nil, err
	}
	if member.Kind() == value.KindFunction {
		methodName := name
		return starlark.NewBuiltin(methodName, func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			vargs := make([]value.Value, len(args))
			for i, a := range args {
				fv, err := b.adapter.fromStarlark(a)
				if err != nil {
					return nil, err
				}
				vargs[i] = fv
			}
			result, err := b.bridge.Call(methodName, vargs)
			if err != nil {
				return nil, err
			}
			return b.adapter.toStarlark(result)
		}), nil
	}
	return b.adapter.toStarlark(member)
}

func (b *bridgeValue) AttrNames() []string { return b.bridge.Members() }

// moduleValue is the starlark object backing an installed module (e.g.
// "dba", "mysqlx"): a fixed, frozen set of attributes with no call
// members of its own beyond what the installer populated.
type moduleValue struct {
	name    string
	members starlark.StringDict
}

func (m *moduleValue) String() string        { return "<module '" + m.name + "'>" }
func (m *moduleValue) Type() string          { return "module" }
func (m *moduleValue) Freeze()               {}
func (m *moduleValue) Truth() starlark.Bool  { return starlark.True }
func (m *moduleValue) Hash() (uint32, error) { return 0, fmt.Errorf("module values are not hashable") }

func (m *moduleValue) Attr(name string) (starlark.Value, error) {
	v, ok := m.members[name]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (m *moduleValue) AttrNames() []string {
	names := make([]string, 0, len(m.members))
	for k := range m.members {
		names = append(names, k)
	}
	return names
}
