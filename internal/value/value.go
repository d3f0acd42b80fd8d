// Package value implements the tagged dynamic value that flows across the
// SQL, JavaScript and Python surfaces of the shell: every bridge method
// argument and return is a Value, never a raw Go interface{}.
package value

import (
	"sync"

	"github.com/juju/errors"
)

// Kind discriminates the variant currently held by a Value.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindInteger
	KindUInteger
	KindFloat
	KindString
	KindObject
	KindArray
	KindMap
	KindMapRef
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "Undefined"
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInteger:
		return "Integer"
	case KindUInteger:
		return "UInteger"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindObject:
		return "Object"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	case KindMapRef:
		return "MapRef"
	case KindFunction:
		return "Function"
	default:
		return "Unknown"
	}
}

// Bridge is the minimal surface a Value needs from an Object Bridge; the
// full contract lives in package bridge to avoid an import cycle.
type Bridge interface {
	ClassName() string
}

// Function is a callable bound to a Value of kind Function.
type Function interface {
	Invoke(args []Value) (Value, error)
}

// Array is the shared, ordered, mutable backing store for KindArray.
type Array struct {
	mu    sync.Mutex
	Items []Value
}

func NewArray(items ...Value) *Array {
	return &Array{Items: append([]Value(nil), items...)}
}

func (a *Array) Append(v Value) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Items = append(a.Items, v)
}

func (a *Array) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.Items)
}

// Map is the shared, insertion-ordered, mutable backing store for KindMap.
// A MapRef to it holds an ordinary pointer (see MapRef).
type Map struct {
	mu     sync.Mutex
	keys   []string
	values map[string]Value
}

func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

func (m *Map) Set(key string, v Value) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func (m *Map) Get(key string) (Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *Map) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns keys in insertion order.
func (m *Map) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

// MapRef refers to a Map through an ordinary Go pointer, so a reachable
// MapRef keeps its Map alive; it is not a weak reference. Resolve reports
// false only for a MapRef with no target (the zero MapRef), which the
// runtime adapters render as Undefined/None.
type MapRef struct {
	target *Map
}

func NewMapRef(m *Map) MapRef {
	return MapRef{target: m}
}

func (r MapRef) Resolve() (*Map, bool) {
	return r.target, r.target != nil
}

// Value is the universal discriminated value. Exactly one field is
// meaningful for a given Kind; zero-value Value{} is Undefined.
type Value struct {
	kind Kind

	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	obj  Bridge
	arr  *Array
	m    *Map
	ref  MapRef
	fn   Function
}

func Undefined() Value { return Value{kind: KindUndefined} }
func Null() Value      { return Value{kind: KindNull} }

func FromBool(b bool) Value     { return Value{kind: KindBool, b: b} }
func FromInt(i int64) Value     { return Value{kind: KindInteger, i: i} }
func FromUint(u uint64) Value   { return Value{kind: KindUInteger, u: u} }
func FromFloat(f float64) Value { return Value{kind: KindFloat, f: f} }
func FromString(s string) Value { return Value{kind: KindString, s: s} }
func FromObject(o Bridge) Value { return Value{kind: KindObject, obj: o} }
func FromArray(a *Array) Value  { return Value{kind: KindArray, arr: a} }
func FromMap(m *Map) Value      { return Value{kind: KindMap, m: m} }
func FromMapRef(r MapRef) Value { return Value{kind: KindMapRef, ref: r} }
func FromFunction(f Function) Value {
	return Value{kind: KindFunction, fn: f}
}

func (v Value) Kind() Kind { return v.kind }

// TypeMismatch is returned by the As* accessors when the variant does not
// match the requested type.
func typeMismatch(want Kind, v Value) error {
	return errors.NewNotValid(nil, "TypeMismatch: expected "+want.String()+" got "+v.kind.String())
}

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, typeMismatch(KindBool, v)
	}
	return v.b, nil
}

func (v Value) AsInt() (int64, error) {
	if v.kind != KindInteger {
		return 0, typeMismatch(KindInteger, v)
	}
	return v.i, nil
}

func (v Value) AsUint() (uint64, error) {
	if v.kind != KindUInteger {
		return 0, typeMismatch(KindUInteger, v)
	}
	return v.u, nil
}

func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, typeMismatch(KindFloat, v)
	}
	return v.f, nil
}

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", typeMismatch(KindString, v)
	}
	return v.s, nil
}

func (v Value) AsObject() (Bridge, error) {
	if v.kind != KindObject {
		return nil, typeMismatch(KindObject, v)
	}
	return v.obj, nil
}

func (v Value) AsArray() (*Array, error) {
	if v.kind != KindArray {
		return nil, typeMismatch(KindArray, v)
	}
	return v.arr, nil
}

func (v Value) AsMap() (*Map, error) {
	if v.kind != KindMap {
		return nil, typeMismatch(KindMap, v)
	}
	return v.m, nil
}

func (v Value) AsMapRef() (MapRef, error) {
	if v.kind != KindMapRef {
		return MapRef{}, typeMismatch(KindMapRef, v)
	}
	return v.ref, nil
}

func (v Value) AsFunction() (Function, error) {
	if v.kind != KindFunction {
		return nil, typeMismatch(KindFunction, v)
	}
	return v.fn, nil
}

// IsUndefined reports whether v holds the Undefined variant, distinct from Null.
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNull() bool      { return v.kind == KindNull }

// Equal compares two Values: scalars by value, shared containers by
// reference identity (same backing pointer), per spec.md §4.1.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindUndefined, KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInteger:
		return a.i == b.i
	case KindUInteger:
		return a.u == b.u
	case KindFloat:
		return a.f == b.f
	case KindString:
		return a.s == b.s
	case KindObject:
		return a.obj == b.obj
	case KindArray:
		return a.arr == b.arr
	case KindMap:
		return a.m == b.m
	case KindMapRef:
		return a.ref.target == b.ref.target
	case KindFunction:
		return false
	default:
		return false
	}
}
