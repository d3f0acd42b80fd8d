// Package crud implements the CRUD fluent-builder state machine
// (spec.md §4.4): Collection.find/modify/add/remove and
// Table.select/insert/update/delete each reduce to the same generic
// "state admits these methods, each callable once" engine, grounded on
// the teacher's server/dispatcher/query_dispatcher.go router pattern —
// a name keyed into a small static table rather than a deep type
// hierarchy per operation.
package crud

import (
	"sort"
	"strings"

	"github.com/zhukovaskychina/xmysql-shell/internal/bridge"
	"github.com/zhukovaskychina/xmysql-shell/internal/shellerr"
	"github.com/zhukovaskychina/xmysql-shell/internal/value"
)

// stateSpec describes one state of a chain: the methods legal in it, the
// state each method transitions to, and methods that are only legal once
// some other method has already been called in this chain (e.g. "having"
// needs "groupBy" first; "offset" needs "limit" first).
type stateSpec struct {
	transitions map[string]string
	requires    map[string]string
}

// machine is the static description of one operation's state machine
// (e.g. "Collection.find"), shared by every Chain built for that
// operation.
type machine struct {
	api     string
	initial string
	states  map[string]stateSpec
}

// Chain is one in-flight CRUD builder instance: the generic engine plus
// the accumulated clause values and parameter binds. Concrete
// constructors (NewFind, NewInsert, ...) wire an executor and expose the
// clause-setting methods through bridge.Base.
type Chain struct {
	*bridge.Base

	m       *machine
	state   string
	called  map[string]bool
	clauses map[string]value.Value
	binds   *value.Map
	needed  map[string]bool
	executor func(c *Chain) (value.Value, error)
}

func newChain(m *machine, className string) *Chain {
	c := &Chain{
		m:       m,
		state:   m.initial,
		called:  make(map[string]bool),
		clauses: make(map[string]value.Value),
		binds:   value.NewMap(),
		needed:  make(map[string]bool),
	}
	c.Base = bridge.NewBase(className)
	return c
}

// transition validates and applies calling method name on the chain,
// enforcing every invariant from spec.md §4.4: at-most-once per chain,
// legality in the current state, and "requires" preconditions.
func (c *Chain) transition(method string) error {
	if c.called[method] {
		return shellerr.New(shellerr.InvalidCallOrder, c.m.api, "%s has already been called on this chain", method)
	}
	spec, ok := c.m.states[c.state]
	if !ok {
		return shellerr.New(shellerr.InvalidCallOrder, c.m.api, "chain is in a terminal state")
	}
	next, legal := spec.transitions[method]
	if !legal {
		return shellerr.New(shellerr.UnknownMember, c.m.api, "Unknown member: %s", method)
	}
	if req, ok := spec.requires[method]; ok && !c.called[req] {
		return shellerr.New(shellerr.InvalidCallOrder, c.m.api, "%s is only legal after %s", method, req)
	}
	c.called[method] = true
	c.state = next
	return nil
}

// scanPlaceholders records every ":name" token found in a filter/expr
// string as a required bind, per spec.md §4.4's bind(name,value) rule.
func (c *Chain) scanPlaceholders(text string) {
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool { return !isIdentRune(r) && r != ':' }) {
		if strings.HasPrefix(tok, ":") && len(tok) > 1 {
			c.needed[tok[1:]] = true
		}
	}
}

func isIdentRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func (c *Chain) bindMethod(args []value.Value) (value.Value, error) {
	if err := c.transitionRepeatable("bind"); err != nil {
		return value.Value{}, err
	}
	if len(args) != 2 {
		return value.Value{}, shellerr.ArityError(c.m.api+".bind", 2, 2, len(args))
	}
	name, err := args[0].AsString()
	if err != nil {
		return value.Value{}, shellerr.ArgumentKindError(c.m.api+".bind", 1, "string")
	}
	c.binds.Set(name, args[1])
	return value.FromObject(c), nil
}

// transitionRepeatable is used for members like "bind" that, per spec,
// may be called any number of times: it still enforces state legality
// but skips the at-most-once bookkeeping.
func (c *Chain) transitionRepeatable(method string) error {
	spec, ok := c.m.states[c.state]
	if !ok {
		return shellerr.New(shellerr.InvalidCallOrder, c.m.api, "chain is in a terminal state")
	}
	if _, legal := spec.transitions[method]; !legal {
		return shellerr.New(shellerr.UnknownMember, c.m.api, "Unknown member: %s", method)
	}
	return nil
}

func (c *Chain) executeMethod(args []value.Value) (value.Value, error) {
	if err := c.transition("execute"); err != nil {
		return value.Value{}, err
	}
	var missing []string
	for name := range c.needed {
		if _, ok := c.binds.Get(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return value.Value{}, shellerr.New(shellerr.UnboundParameter, c.m.api, "UnboundParameter(%s)", missing[0])
	}
	return c.executor(c)
}

// setClauseMethod is the shared implementation behind every single-argument
// clause setter (fields, groupBy, sort, limit, offset/skip, where,
// orderBy...): transition, then remember the raw argument for the
// executor to consult.
func (c *Chain) setClauseMethod(method string) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		if err := c.transition(method); err != nil {
			return value.Value{}, err
		}
		if len(args) >= 1 {
			c.clauses[method] = args[0]
			if s, err := args[0].AsString(); err == nil {
				c.scanPlaceholders(s)
			}
		} else {
			c.clauses[method] = value.Undefined()
		}
		return value.FromObject(c), nil
	}
}

// appendClauseMethod is for variadic-accumulating members like "set",
// "add", "arrayInsert": each call is legal repeatedly in its state (the
// underlying machine models that by each call re-entering the same
// state under a distinct per-call name is unnecessary — Modify/Insert
// model repetition by allowing the same transition without marking it
// "called").
func (c *Chain) appendClauseMethod(method string) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		if err := c.transitionRepeatable(method); err != nil {
			return value.Value{}, err
		}
		arr, ok := c.clauses[method]
		var list *value.Array
		if ok {
			list, _ = arr.AsArray()
		} else {
			list = value.NewArray()
			c.clauses[method] = value.FromArray(list)
		}
		tuple := value.NewArray(args...)
		list.Append(value.FromArray(tuple))
		for _, a := range args {
			if s, err := a.AsString(); err == nil {
				c.scanPlaceholders(s)
			}
		}
		// the first call to an operation-method family also legalizes
		// sort/limit/bind/execute alongside further operation methods,
		// per spec.md §4.4's Collection.modify description.
		c.state = c.m.states[c.state].transitions[method]
		return value.FromObject(c), nil
	}
}

// Clause returns the raw value previously recorded for a clause name, or
// Undefined if it was never set. Executors use this to build the actual
// SQL/JSON-document operation.
func (c *Chain) Clause(name string) value.Value {
	if v, ok := c.clauses[name]; ok {
		return v
	}
	return value.Undefined()
}

// Binds exposes the accumulated bind map to an executor.
func (c *Chain) Binds() *value.Map { return c.binds }
