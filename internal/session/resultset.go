package session

import (
	"database/sql"
	"sync"

	"github.com/zhukovaskychina/xmysql-shell/internal/bridge"
	"github.com/zhukovaskychina/xmysql-shell/internal/shellerr"
	"github.com/zhukovaskychina/xmysql-shell/internal/value"
)

// resultsetState tracks the Resultset state machine from spec.md §4.3:
// not_started -> reading_result_k -> between_results -> closed.
type resultsetState int

const (
	stateNotStarted resultsetState = iota
	stateReading
	stateBetweenResults
	stateClosed
)

// Resultset wraps a *sql.Rows cursor, eagerly resolving column metadata
// for the active result and driving NextResultSet() for multi-statement
// batches, mirroring the teacher's own one-rows-at-a-time iteration style
// in server/innodb's cursor code generalized to database/sql's cursor.
//
// rows is nil when the current result block came from a statement with
// no result set (an OK-packet statement run through ExecContext, e.g.
// CREATE SCHEMA or an UPDATE): affectedRows/warningCount are still
// meaningful, fetched_row_count stays zero, and the block is considered
// exhausted from the start.
type Resultset struct {
	*bridge.Base

	mu      sync.Mutex
	session *Session
	rows    *sql.Rows
	state   resultsetState
	columns []columnMeta
	scan    []interface{}
	exhausted bool

	affectedRows    int64
	warningCount    int64
	fetchedRowCount int64
}

type columnMeta struct {
	name     string
	wireType byte
	flags    uint32
	length   int64
	decimal  int64
}

func newResultset(s *Session, rows *sql.Rows, affectedRows, warningCount int64) *Resultset {
	rs := &Resultset{session: s, rows: rows, affectedRows: affectedRows, warningCount: warningCount}
	rs.Base = bridge.NewBase("Resultset")
	if rows == nil {
		rs.state = stateBetweenResults
		rs.exhausted = true
	} else {
		rs.state = stateNotStarted
		rs.loadColumns()
	}
	rs.installMembers()
	return rs
}

func (rs *Resultset) loadColumns() {
	if rs.rows == nil {
		rs.columns = nil
		return
	}
	types, err := rs.rows.ColumnTypes()
	if err != nil {
		rs.columns = nil
		return
	}
	cols := make([]columnMeta, len(types))
	for i, t := range types {
		flags := uint32(0)
		if nullable, ok := t.Nullable(); ok && !nullable {
			flags |= NotNullFlag
		}
		var length int64
		if l, ok := t.Length(); ok {
			length = l
		}
		var decimal int64
		if _, scale, ok := t.DecimalSize(); ok {
			decimal = scale
		}
		cols[i] = columnMeta{
			name:     t.Name(),
			wireType: colTypeFromDatabaseTypeName(t.DatabaseTypeName()),
			flags:    flags,
			length:   length,
			decimal:  decimal,
		}
	}
	rs.columns = cols
	rs.scan = make([]interface{}, len(cols))
}

func (rs *Resultset) installMembers() {
	rs.Data("affected_rows", func() (value.Value, error) { return value.FromInt(rs.affectedRowsSnapshot()), nil })
	rs.Data("warning_count", func() (value.Value, error) { return value.FromInt(rs.warningCount), nil })
	rs.Data("fetched_row_count", func() (value.Value, error) { return value.FromInt(rs.fetchedRowCountSnapshot()), nil })
	rs.Method("getColumnMetadata", rs.methodColumnMetadata)
	rs.Method("next", rs.methodNext)
	rs.Method("all", rs.methodAll)
	rs.Method("nextResult", rs.methodNextResult)
	rs.Method("close", func(args []value.Value) (value.Value, error) { rs.close(); return value.Undefined(), nil })
}

func (rs *Resultset) affectedRowsSnapshot() int64 {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.affectedRows
}

func (rs *Resultset) fetchedRowCountSnapshot() int64 {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.fetchedRowCount
}

// methodColumnMetadata reports the 11 keys spec.md §4.3 mandates exactly.
// database/sql's driver.ColumnType does not expose MySQL's wire-level
// catalog/table/org_table/org_name/charset fields, so those are
// best-effort: catalog follows the MySQL protocol convention of always
// being "def", db is the session's active schema, table/org_table are
// left empty, org_name mirrors name, and charset is reported as 0
// (binary/unknown) since database/sql never surfaces a collation id.
func (rs *Resultset) methodColumnMetadata(args []value.Value) (value.Value, error) {
	schema := ""
	if rs.session != nil && rs.session.info != nil {
		schema = rs.session.info.Schema
	}
	arr := value.NewArray()
	for _, c := range rs.columns {
		m := value.NewMap()
		m.Set("catalog", value.FromString("def"))
		m.Set("db", value.FromString(schema))
		m.Set("table", value.FromString(""))
		m.Set("org_table", value.FromString(""))
		m.Set("name", value.FromString(c.name))
		m.Set("org_name", value.FromString(c.name))
		m.Set("charset", value.FromUint(uint64(0)))
		m.Set("length", value.FromInt(c.length))
		m.Set("type", value.FromUint(uint64(c.wireType)))
		m.Set("flags", value.FromUint(uint64(c.flags)))
		m.Set("decimal", value.FromInt(c.decimal))
		arr.Append(value.FromMap(m))
	}
	return value.FromArray(arr), nil
}

func (rs *Resultset) methodNext(args []value.Value) (value.Value, error) {
	raw, err := parseOptionalBool(args, "Resultset.next")
	if err != nil {
		return value.Value{}, err
	}
	return rs.next(true, raw)
}

func (rs *Resultset) methodAll(args []value.Value) (value.Value, error) {
	raw, err := parseOptionalBool(args, "Resultset.all")
	if err != nil {
		return value.Value{}, err
	}
	arr := value.NewArray()
	for {
		row, err := rs.next(true, raw)
		if err != nil {
			return value.Value{}, err
		}
		if row.IsNull() {
			break
		}
		arr.Append(row)
	}
	return value.FromArray(arr), nil
}

func parseOptionalBool(args []value.Value, api string) (bool, error) {
	if len(args) == 0 {
		return false, nil
	}
	if len(args) > 1 {
		return false, shellerr.ArityError(api, 0, 1, len(args))
	}
	b, err := args[0].AsBool()
	if err != nil {
		return false, shellerr.ArgumentKindError(api, 1, "bool")
	}
	return b, nil
}

// next advances the cursor by one row, transitioning not_started or
// between_results into reading_result_k and back once rows run out.
// requireOpen enforces InvalidCallOrder on a closed cursor; raw selects
// an Array-in-column-order row instead of a column-name Map.
func (rs *Resultset) next(requireOpen, raw bool) (value.Value, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.state == stateClosed {
		if requireOpen {
			return value.Value{}, shellerr.New(shellerr.InvalidCallOrder, "Resultset.next", "result set is closed")
		}
		return value.Null(), nil
	}
	if rs.rows == nil || rs.exhausted {
		rs.exhausted = true
		rs.state = stateBetweenResults
		return value.Null(), nil
	}
	if !rs.rows.Next() {
		rs.exhausted = true
		rs.state = stateBetweenResults
		if err := rs.rows.Err(); err != nil {
			return value.Value{}, wrapSQLError("Resultset.next", err)
		}
		return value.Null(), nil
	}
	rs.state = stateReading
	row, err := rs.scanRow(raw)
	if err != nil {
		return value.Value{}, err
	}
	rs.fetchedRowCount++
	return row, nil
}

func (rs *Resultset) scanRow(raw bool) (value.Value, error) {
	ptrs := make([]interface{}, len(rs.columns))
	for i := range rs.scan {
		ptrs[i] = &rs.scan[i]
	}
	if err := rs.rows.Scan(ptrs...); err != nil {
		return value.Value{}, wrapSQLError("Resultset.next", err)
	}
	if raw {
		arr := value.NewArray()
		for i := range rs.columns {
			arr.Append(goValueToValue(rs.scan[i]))
		}
		return value.FromArray(arr), nil
	}
	m := value.NewMap()
	for i, c := range rs.columns {
		m.Set(c.name, goValueToValue(rs.scan[i]))
	}
	return value.FromMap(m), nil
}

func (rs *Resultset) methodNextResult(args []value.Value) (value.Value, error) {
	ok, err := rs.nextResult()
	if err != nil {
		return value.Value{}, err
	}
	return value.FromBool(ok), nil
}

// nextResult advances to the following statement's result set within a
// multi-statement batch, per spec.md §4.3's next_result() member.
func (rs *Resultset) nextResult() (bool, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.state == stateClosed {
		return false, shellerr.New(shellerr.InvalidCallOrder, "Resultset.nextResult", "result set is closed")
	}
	if rs.rows == nil || !rs.rows.NextResultSet() {
		if rs.rows != nil {
			if err := rs.rows.Err(); err != nil {
				return false, wrapSQLError("Resultset.nextResult", err)
			}
		}
		rs.closeLocked()
		return false, nil
	}
	rs.exhausted = false
	rs.state = stateNotStarted
	rs.fetchedRowCount = 0
	rs.affectedRows = 0
	rs.warningCount = 0
	rs.loadColumns()
	return true, nil
}

func (rs *Resultset) close() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.closeLocked()
}

func (rs *Resultset) closeLocked() {
	if rs.state == stateClosed {
		return
	}
	rs.state = stateClosed
	if rs.rows != nil {
		rs.rows.Close()
	}
}

func (rs *Resultset) discard() { rs.close() }

func (rs *Resultset) isClosed() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.state == stateClosed
}

func (rs *Resultset) isExhausted() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.exhausted
}

func goValueToValue(v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.FromBool(t)
	case int64:
		return value.FromInt(t)
	case float64:
		return value.FromFloat(t)
	case []byte:
		return value.FromString(string(t))
	case string:
		return value.FromString(t)
	default:
		return value.FromString("")
	}
}
