package crud

import (
	"fmt"
	"strings"

	"github.com/zhukovaskychina/xmysql-shell/internal/value"
)

// DocStore is the narrow slice of Session a Collection chain's executor
// needs: run a statement and get back a Result-shaped Value, exactly
// the shape of Session's own "sql" bridge method, so a Collection never
// needs to import package session directly.
type DocStore interface {
	SQL(stmt string, params value.Value) (value.Value, error)
}

// Collection is the Object Bridge for mysqlx's document-store handle
// (schema.getCollection(name)); it only constructs CRUD chains, it
// never itself enters the state machine.
type Collection struct {
	store  DocStore
	schema string
	name   string
}

func NewCollection(store DocStore, schema, name string) *Collection {
	return &Collection{store: store, schema: schema, name: name}
}

func (c *Collection) table() string {
	return fmt.Sprintf("`%s`.`%s`", c.schema, c.name)
}

var findMachine = &machine{
	api:     "Collection.find",
	initial: "bound",
	states: map[string]stateSpec{
		"bound": {
			transitions: map[string]string{
				"fields":  "bound",
				"groupBy": "bound",
				"having":  "bound",
				"sort":    "bound",
				"limit":   "bound",
				"offset":  "bound",
				"bind":    "bound",
				"execute": "terminal",
			},
			requires: map[string]string{
				"having": "groupBy",
				"offset": "limit",
			},
		},
	},
}

// Find begins a Collection.find chain. filter is Undefined when find()
// was called with no arguments.
func (c *Collection) Find(filter value.Value) *Chain {
	ch := newChain(findMachine, "Find")
	ch.clauses["filter"] = filter
	if s, err := filter.AsString(); err == nil {
		ch.scanPlaceholders(s)
	}
	for _, m := range []string{"fields", "groupBy", "having", "sort", "limit"} {
		ch.Method(m, ch.setClauseMethod(m))
	}
	ch.Method("offset", ch.setClauseMethod("offset"))
	ch.Method("skip", func(args []value.Value) (value.Value, error) {
		if err := ch.transition("offset"); err != nil {
			return value.Value{}, err
		}
		if len(args) >= 1 {
			ch.clauses["offset"] = args[0]
		}
		return value.FromObject(ch), nil
	})
	ch.Method("bind", ch.bindMethod)
	ch.Method("execute", func(args []value.Value) (value.Value, error) {
		return ch.executeMethod(args)
	})
	ch.executor = func(ch *Chain) (value.Value, error) {
		return c.execFind(ch)
	}
	return ch
}

func (c *Collection) execFind(ch *Chain) (value.Value, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "select doc from %s", c.table())
	if f, err := ch.Clause("filter").AsString(); err == nil && f != "" {
		fmt.Fprintf(&sb, " where %s", f)
	}
	if g, err := ch.Clause("groupBy").AsString(); err == nil && g != "" {
		fmt.Fprintf(&sb, " group by %s", g)
	}
	if h, err := ch.Clause("having").AsString(); err == nil && h != "" {
		fmt.Fprintf(&sb, " having %s", h)
	}
	if s, err := ch.Clause("sort").AsString(); err == nil && s != "" {
		fmt.Fprintf(&sb, " order by %s", s)
	}
	if l, err := ch.Clause("limit").AsInt(); err == nil {
		fmt.Fprintf(&sb, " limit %d", l)
		if o, err := ch.Clause("offset").AsInt(); err == nil {
			fmt.Fprintf(&sb, " offset %d", o)
		}
	}
	return c.store.SQL(sb.String(), value.FromMap(ch.Binds()))
}

var modifyMachine = &machine{
	api:     "Collection.modify",
	initial: "operationPre",
	states: map[string]stateSpec{
		"operationPre": {transitions: map[string]string{
			"set": "operationPost", "unset": "operationPost", "merge": "operationPost",
			"arrayInsert": "operationPost", "arrayAppend": "operationPost", "arrayDelete": "operationPost",
		}},
		"operationPost": {
			transitions: map[string]string{
				"set": "operationPost", "unset": "operationPost", "merge": "operationPost",
				"arrayInsert": "operationPost", "arrayAppend": "operationPost", "arrayDelete": "operationPost",
				"sort": "operationPost", "limit": "operationPost", "bind": "operationPost", "execute": "terminal",
			},
		},
	},
}

// Modify begins a Collection.modify chain.
func (c *Collection) Modify(filter value.Value) *Chain {
	ch := newChain(modifyMachine, "CollectionModify")
	ch.clauses["filter"] = filter
	if s, err := filter.AsString(); err == nil {
		ch.scanPlaceholders(s)
	}
	for _, m := range []string{"set", "unset", "merge", "arrayInsert", "arrayAppend", "arrayDelete"} {
		ch.Method(m, ch.appendClauseMethod(m))
	}
	ch.Method("sort", ch.setClauseMethod("sort"))
	ch.Method("limit", ch.setClauseMethod("limit"))
	ch.Method("bind", ch.bindMethod)
	ch.Method("execute", func(args []value.Value) (value.Value, error) { return ch.executeMethod(args) })
	ch.executor = func(ch *Chain) (value.Value, error) {
		return c.execModify(ch)
	}
	return ch
}

func (c *Collection) execModify(ch *Chain) (value.Value, error) {
	var ops []string
	for _, method := range []string{"set", "unset", "merge", "arrayInsert", "arrayAppend", "arrayDelete"} {
		arr, err := ch.Clause(method).AsArray()
		if err != nil {
			continue
		}
		for _, call := range arr.Items {
			tuple, _ := call.AsArray()
			parts := make([]string, 0, tuple.Len())
			for _, a := range tuple.Items {
				if s, err := a.AsString(); err == nil {
					parts = append(parts, s)
				} else {
					parts = append(parts, fmt.Sprintf("%v", a.Kind()))
				}
			}
			ops = append(ops, fmt.Sprintf("%s(%s)", method, strings.Join(parts, ", ")))
		}
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "update %s set doc = JSON_MODIFY(doc, %s)", c.table(), strings.Join(ops, ", "))
	if f, err := ch.Clause("filter").AsString(); err == nil && f != "" {
		fmt.Fprintf(&sb, " where %s", f)
	}
	if s, err := ch.Clause("sort").AsString(); err == nil && s != "" {
		fmt.Fprintf(&sb, " order by %s", s)
	}
	if l, err := ch.Clause("limit").AsInt(); err == nil {
		fmt.Fprintf(&sb, " limit %d", l)
	}
	return c.store.SQL(sb.String(), value.FromMap(ch.Binds()))
}

var addMachine = &machine{
	api:     "Collection.add",
	initial: "bound",
	states: map[string]stateSpec{
		"bound": {transitions: map[string]string{"add": "bound", "bind": "bound", "execute": "terminal"}},
	},
}

// Add begins a Collection.add chain with its first document(s).
func (c *Collection) Add(docs value.Value) *Chain {
	ch := newChain(addMachine, "CollectionAdd")
	ch.clauses["docs"] = value.FromArray(value.NewArray(docs))
	ch.Method("add", func(args []value.Value) (value.Value, error) {
		if err := ch.transitionRepeatable("add"); err != nil {
			return value.Value{}, err
		}
		arr, _ := ch.Clause("docs").AsArray()
		if len(args) >= 1 {
			arr.Append(args[0])
		}
		return value.FromObject(ch), nil
	})
	ch.Method("bind", ch.bindMethod)
	ch.Method("execute", func(args []value.Value) (value.Value, error) { return ch.executeMethod(args) })
	ch.executor = func(ch *Chain) (value.Value, error) {
		return c.execAdd(ch)
	}
	return ch
}

func (c *Collection) execAdd(ch *Chain) (value.Value, error) {
	arr, _ := ch.Clause("docs").AsArray()
	var sb strings.Builder
	fmt.Fprintf(&sb, "insert into %s (doc) values ", c.table())
	rows := make([]string, arr.Len())
	for i := range rows {
		rows[i] = "(?)"
	}
	sb.WriteString(strings.Join(rows, ", "))
	params := value.NewArray(arr.Items...)
	return c.store.SQL(sb.String(), value.FromArray(params))
}

var removeMachine = &machine{
	api:     "Collection.remove",
	initial: "bound",
	states: map[string]stateSpec{
		"bound": {transitions: map[string]string{"sort": "bound", "limit": "bound", "bind": "bound", "execute": "terminal"}},
	},
}

// Remove begins a Collection.remove chain.
func (c *Collection) Remove(filter value.Value) *Chain {
	ch := newChain(removeMachine, "CollectionRemove")
	ch.clauses["filter"] = filter
	if s, err := filter.AsString(); err == nil {
		ch.scanPlaceholders(s)
	}
	ch.Method("sort", ch.setClauseMethod("sort"))
	ch.Method("limit", ch.setClauseMethod("limit"))
	ch.Method("bind", ch.bindMethod)
	ch.Method("execute", func(args []value.Value) (value.Value, error) { return ch.executeMethod(args) })
	ch.executor = func(ch *Chain) (value.Value, error) {
		return c.execRemove(ch)
	}
	return ch
}

func (c *Collection) execRemove(ch *Chain) (value.Value, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "delete from %s", c.table())
	if f, err := ch.Clause("filter").AsString(); err == nil && f != "" {
		fmt.Fprintf(&sb, " where %s", f)
	}
	if s, err := ch.Clause("sort").AsString(); err == nil && s != "" {
		fmt.Fprintf(&sb, " order by %s", s)
	}
	if l, err := ch.Clause("limit").AsInt(); err == nil {
		fmt.Fprintf(&sb, " limit %d", l)
	}
	return c.store.SQL(sb.String(), value.FromMap(ch.Binds()))
}
