package bridge

import "github.com/zhukovaskychina/xmysql-shell/internal/value"

// Expression is the bridge returned by mysqlx.expr(text): a payload
// string distinguishable from a literal String, consumed by CRUD
// builders and narrowed by internal/tablevalue.
type Expression struct {
	*Base
	Text string
}

// NewExpression wraps text as an Expression bridge. Emptiness is not
// rejected here — spec.md §4.7 rejects empty expressions only at the
// Value→TableValue narrowing step, not at construction.
func NewExpression(text string) *Expression {
	e := &Expression{Base: NewBase("Expression"), Text: text}
	e.Data("text", func() (value.Value, error) { return value.FromString(e.Text), nil })
	return e
}
