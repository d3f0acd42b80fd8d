// Package tablevalue implements the Value→TableValue mapper (spec.md
// §4.7): narrowing a tagged Value down to the scalar/Expression shape a
// table CRUD operation accepts, grounded on the same narrow-then-reject
// pattern the teacher's server/mysql column codec uses when encoding a
// Go value onto the wire.
package tablevalue

import (
	"github.com/zhukovaskychina/xmysql-shell/internal/bridge"
	"github.com/zhukovaskychina/xmysql-shell/internal/shellerr"
	"github.com/zhukovaskychina/xmysql-shell/internal/value"
)

// Kind is the narrowed table-value variant.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindSInt64
	KindUInt64
	KindDouble
	KindString
	KindExpression
)

// TableValue is the narrowed result of Map.
type TableValue struct {
	Kind       Kind
	Bool       bool
	SInt64     int64
	UInt64     uint64
	Double     float64
	String     string
	Expression string
}

// Map narrows v per spec.md §4.7's table. api names the caller for
// error messages (e.g. "Table.insert").
func Map(v value.Value, api string) (TableValue, error) {
	switch v.Kind() {
	case value.KindNull:
		return TableValue{Kind: KindNull}, nil
	case value.KindBool:
		b, _ := v.AsBool()
		return TableValue{Kind: KindBool, Bool: b}, nil
	case value.KindString:
		s, _ := v.AsString()
		return TableValue{Kind: KindString, String: s}, nil
	case value.KindInteger:
		i, _ := v.AsInt()
		return TableValue{Kind: KindSInt64, SInt64: i}, nil
	case value.KindUInteger:
		u, _ := v.AsUint()
		return TableValue{Kind: KindUInt64, UInt64: u}, nil
	case value.KindFloat:
		f, _ := v.AsFloat()
		return TableValue{Kind: KindDouble, Double: f}, nil
	case value.KindObject:
		obj, _ := v.AsObject()
		expr, ok := obj.(*bridge.Expression)
		if !ok {
			return TableValue{}, shellerr.New(shellerr.ArgumentError, api, "Unsupported value received: %s", value.Descr(v))
		}
		if expr.Text == "" {
			return TableValue{}, shellerr.New(shellerr.ArgumentError, api, "Expressions can not be empty.")
		}
		return TableValue{Kind: KindExpression, Expression: expr.Text}, nil
	default:
		return TableValue{}, shellerr.New(shellerr.ArgumentError, api, "Unsupported value received: %s", value.Descr(v))
	}
}
