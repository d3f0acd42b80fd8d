package crud

import (
	"fmt"
	"strings"

	"github.com/zhukovaskychina/xmysql-shell/internal/shellerr"
	"github.com/zhukovaskychina/xmysql-shell/internal/value"
)

// Table is the Object Bridge for a relational table handle
// (schema.getTable(name)), mirroring Collection but for row-shaped CRUD.
type Table struct {
	store  DocStore
	schema string
	name   string
}

func NewTable(store DocStore, schema, name string) *Table {
	return &Table{store: store, schema: schema, name: name}
}

func (t *Table) qualified() string {
	return fmt.Sprintf("`%s`.`%s`", t.schema, t.name)
}

var selectMachine = &machine{
	api:     "Table.select",
	initial: "bound",
	states: map[string]stateSpec{
		"bound": {
			transitions: map[string]string{
				"where": "bound", "groupBy": "bound", "having": "bound",
				"orderBy": "bound", "limit": "bound", "offset": "bound",
				"bind": "bound", "execute": "terminal",
			},
			requires: map[string]string{"having": "groupBy", "offset": "limit"},
		},
	},
}

// Select begins a Table.select chain over the given projection columns.
func (t *Table) Select(columns value.Value) *Chain {
	ch := newChain(selectMachine, "TableSelect")
	ch.clauses["columns"] = columns
	for _, m := range []string{"where", "groupBy", "having", "orderBy", "limit", "offset"} {
		ch.Method(m, ch.setClauseMethod(m))
	}
	ch.Method("bind", ch.bindMethod)
	ch.Method("execute", func(args []value.Value) (value.Value, error) { return ch.executeMethod(args) })
	ch.executor = func(ch *Chain) (value.Value, error) { return t.execSelect(ch) }
	return ch
}

func (t *Table) execSelect(ch *Chain) (value.Value, error) {
	cols := "*"
	if arr, err := ch.Clause("columns").AsArray(); err == nil && arr.Len() > 0 {
		names := make([]string, arr.Len())
		for i, v := range arr.Items {
			names[i], _ = v.AsString()
		}
		cols = strings.Join(names, ", ")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "select %s from %s", cols, t.qualified())
	if w, err := ch.Clause("where").AsString(); err == nil && w != "" {
		fmt.Fprintf(&sb, " where %s", w)
	}
	if g, err := ch.Clause("groupBy").AsString(); err == nil && g != "" {
		fmt.Fprintf(&sb, " group by %s", g)
	}
	if h, err := ch.Clause("having").AsString(); err == nil && h != "" {
		fmt.Fprintf(&sb, " having %s", h)
	}
	if o, err := ch.Clause("orderBy").AsString(); err == nil && o != "" {
		fmt.Fprintf(&sb, " order by %s", o)
	}
	if l, err := ch.Clause("limit").AsInt(); err == nil {
		fmt.Fprintf(&sb, " limit %d", l)
		if off, err := ch.Clause("offset").AsInt(); err == nil {
			fmt.Fprintf(&sb, " offset %d", off)
		}
	}
	return t.store.SQL(sb.String(), value.FromMap(ch.Binds()))
}

var insertMachine = &machine{
	api:     "Table.insert",
	initial: "bound",
	states: map[string]stateSpec{
		"bound": {transitions: map[string]string{"values": "bound", "bind": "bound", "execute": "terminal"}},
	},
}

// Insert begins a Table.insert chain with the target column list.
func (t *Table) Insert(columns value.Value) *Chain {
	ch := newChain(insertMachine, "TableInsert")
	ch.clauses["columns"] = columns
	ch.clauses["rows"] = value.FromArray(value.NewArray())
	ch.Method("values", func(args []value.Value) (value.Value, error) {
		if err := ch.transitionRepeatable("values"); err != nil {
			return value.Value{}, err
		}
		rows, _ := ch.Clause("rows").AsArray()
		rows.Append(value.FromArray(value.NewArray(args...)))
		return value.FromObject(ch), nil
	})
	ch.Method("bind", ch.bindMethod)
	ch.Method("execute", func(args []value.Value) (value.Value, error) { return ch.executeMethod(args) })
	ch.executor = func(ch *Chain) (value.Value, error) { return t.execInsert(ch) }
	return ch
}

func (t *Table) execInsert(ch *Chain) (value.Value, error) {
	colsArr, _ := ch.Clause("columns").AsArray()
	cols := make([]string, colsArr.Len())
	for i, v := range colsArr.Items {
		cols[i], _ = v.AsString()
	}
	rows, _ := ch.Clause("rows").AsArray()
	placeholders := make([]string, rows.Len())
	var params []value.Value
	for i, r := range rows.Items {
		row, _ := r.AsArray()
		ph := make([]string, row.Len())
		for j := range ph {
			ph[j] = "?"
		}
		placeholders[i] = "(" + strings.Join(ph, ", ") + ")"
		params = append(params, row.Items...)
	}
	stmt := fmt.Sprintf("insert into %s (%s) values %s", t.qualified(), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	return t.store.SQL(stmt, value.FromArray(value.NewArray(params...)))
}

var updateMachine = &machine{
	api:     "Table.update",
	initial: "setPhase",
	states: map[string]stateSpec{
		"setPhase": {transitions: map[string]string{"set": "setPhase", "where": "bound"}},
		"bound": {
			transitions: map[string]string{"orderBy": "bound", "limit": "bound", "bind": "bound", "execute": "terminal"},
		},
	},
}

// Update begins a Table.update chain.
func (t *Table) Update() *Chain {
	ch := newChain(updateMachine, "TableUpdate")
	ch.clauses["assignments"] = value.FromArray(value.NewArray())
	ch.Method("set", func(args []value.Value) (value.Value, error) {
		if err := ch.transitionRepeatable("set"); err != nil {
			return value.Value{}, err
		}
		if len(args) != 2 {
			return value.Value{}, shellerr.ArityError(ch.m.api+".set", 2, 2, len(args))
		}
		assignments, _ := ch.Clause("assignments").AsArray()
		assignments.Append(value.FromArray(value.NewArray(args...)))
		ch.state = "setPhase"
		return value.FromObject(ch), nil
	})
	ch.Method("where", ch.setClauseMethod("where"))
	ch.Method("orderBy", ch.setClauseMethod("orderBy"))
	ch.Method("limit", ch.setClauseMethod("limit"))
	ch.Method("bind", ch.bindMethod)
	ch.Method("execute", func(args []value.Value) (value.Value, error) { return ch.executeMethod(args) })
	ch.executor = func(ch *Chain) (value.Value, error) { return t.execUpdate(ch) }
	return ch
}

func (t *Table) execUpdate(ch *Chain) (value.Value, error) {
	assignments, _ := ch.Clause("assignments").AsArray()
	parts := make([]string, assignments.Len())
	for i, a := range assignments.Items {
		pair, _ := a.AsArray()
		col, _ := pair.Items[0].AsString()
		expr, _ := pair.Items[1].AsString()
		parts[i] = fmt.Sprintf("%s = %s", col, expr)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "update %s set %s", t.qualified(), strings.Join(parts, ", "))
	if w, err := ch.Clause("where").AsString(); err == nil && w != "" {
		fmt.Fprintf(&sb, " where %s", w)
	}
	if o, err := ch.Clause("orderBy").AsString(); err == nil && o != "" {
		fmt.Fprintf(&sb, " order by %s", o)
	}
	if l, err := ch.Clause("limit").AsInt(); err == nil {
		fmt.Fprintf(&sb, " limit %d", l)
	}
	return t.store.SQL(sb.String(), value.FromMap(ch.Binds()))
}

var deleteMachine = &machine{
	api:     "Table.delete",
	initial: "bound",
	states: map[string]stateSpec{
		"bound": {transitions: map[string]string{"where": "bound", "orderBy": "bound", "limit": "bound", "bind": "bound", "execute": "terminal"}},
	},
}

// Delete begins a Table.delete chain.
func (t *Table) Delete() *Chain {
	ch := newChain(deleteMachine, "TableDelete")
	ch.Method("where", ch.setClauseMethod("where"))
	ch.Method("orderBy", ch.setClauseMethod("orderBy"))
	ch.Method("limit", ch.setClauseMethod("limit"))
	ch.Method("bind", ch.bindMethod)
	ch.Method("execute", func(args []value.Value) (value.Value, error) { return ch.executeMethod(args) })
	ch.executor = func(ch *Chain) (value.Value, error) { return t.execDelete(ch) }
	return ch
}

func (t *Table) execDelete(ch *Chain) (value.Value, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "delete from %s", t.qualified())
	if w, err := ch.Clause("where").AsString(); err == nil && w != "" {
		fmt.Fprintf(&sb, " where %s", w)
	}
	if o, err := ch.Clause("orderBy").AsString(); err == nil && o != "" {
		fmt.Fprintf(&sb, " order by %s", o)
	}
	if l, err := ch.Clause("limit").AsInt(); err == nil {
		fmt.Fprintf(&sb, " limit %d", l)
	}
	return t.store.SQL(sb.String(), value.FromMap(ch.Binds()))
}
