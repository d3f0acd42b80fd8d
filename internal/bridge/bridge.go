// Package bridge implements the polymorphic Object Bridge protocol
// (spec.md §4.2): a single capability set {class_name, members, get_member,
// call} exposed to every script runtime, without a class hierarchy. Each
// concrete bridge (session, resultset, collection builder, cluster,
// expression...) embeds *Base, which holds the member table and
// implements the interface; there is no deeper inheritance, following the
// teacher's object model (server/session.go's MySQLServerSession) — a
// flat capability interface.
package bridge

import (
	"github.com/zhukovaskychina/xmysql-shell/internal/shellerr"
	"github.com/zhukovaskychina/xmysql-shell/internal/value"
)

// Bridge is the contract every Object Bridge exposes to a script runtime.
type Bridge interface {
	// ClassName drives the type's printed representation, e.g.
	// "<ClassicSession:user@host:port>".
	ClassName() string

	// Members returns the insertion-ordered list of names usable as
	// property and method names.
	Members() []string

	// GetMember reads a named member. Its returned Value is either a data
	// Value or a Function Value bound to this object.
	GetMember(name string) (value.Value, error)

	// Call invokes a callable member by name.
	Call(name string, args []value.Value) (value.Value, error)
}

// Base provides the bookkeeping every concrete bridge needs — an ordered
// member-name list plus the UnknownMember check — so implementations only
// supply the per-member behavior via accessor/method maps.
type Base struct {
	className string
	memberSeq []string
	accessors map[string]func() (value.Value, error)
	methods   map[string]func([]value.Value) (value.Value, error)
}

// NewBase constructs a Base with the given class name.
func NewBase(className string) *Base {
	return &Base{
		className: className,
		accessors: make(map[string]func() (value.Value, error)),
		methods:   make(map[string]func([]value.Value) (value.Value, error)),
	}
}

// Data registers a read-only data member.
func (b *Base) Data(name string, get func() (value.Value, error)) {
	if _, exists := b.accessors[name]; !exists {
		if _, exists := b.methods[name]; !exists {
			b.memberSeq = append(b.memberSeq, name)
		}
	}
	b.accessors[name] = get
}

// Method registers a callable member.
func (b *Base) Method(name string, call func([]value.Value) (value.Value, error)) {
	if _, exists := b.methods[name]; !exists {
		if _, exists := b.accessors[name]; !exists {
			b.memberSeq = append(b.memberSeq, name)
		}
	}
	b.methods[name] = call
}

func (b *Base) ClassName() string { return b.className }

func (b *Base) Members() []string {
	out := make([]string, len(b.memberSeq))
	copy(out, b.memberSeq)
	return out
}

func (b *Base) GetMember(name string) (value.Value, error) {
	if get, ok := b.accessors[name]; ok {
		return get()
	}
	if _, ok := b.methods[name]; ok {
		return value.FromFunction(boundMethod{base: b, name: name}), nil
	}
	return value.Value{}, shellerr.New(shellerr.UnknownMember, b.className, "Unknown member: %s", name)
}

func (b *Base) Call(name string, args []value.Value) (value.Value, error) {
	call, ok := b.methods[name]
	if !ok {
		if _, isData := b.accessors[name]; isData {
			return value.Value{}, shellerr.New(shellerr.ArgumentError, b.className, "%s is not a function", name)
		}
		return value.Value{}, shellerr.New(shellerr.UnknownMember, b.className, "Unknown member: %s", name)
	}
	return call(args)
}

// boundMethod adapts a Base method into a value.Function so GetMember can
// hand out callables for property-style access in script runtimes that
// treat methods as first-class values.
type boundMethod struct {
	base *Base
	name string
}

func (m boundMethod) Invoke(args []value.Value) (value.Value, error) {
	return m.base.Call(m.name, args)
}
