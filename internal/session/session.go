// Package session implements the Session and Resultset object bridges
// (spec.md §4.3), wrapping database/sql + go-sql-driver/mysql as the
// external protocol library the spec's non-goals assume is available —
// the same way the teacher's own client/main.go opens a connection via
// sql.Open("mysql", dsn) instead of hand-rolling wire framing.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/zhukovaskychina/xmysql-shell/internal/bridge"
	"github.com/zhukovaskychina/xmysql-shell/internal/dsn"
	"github.com/zhukovaskychina/xmysql-shell/internal/shellerr"
	"github.com/zhukovaskychina/xmysql-shell/internal/value"
)

// Kind distinguishes the three printed session class names spec.md §6
// requires: <XSession:…>, <NodeSession:…>, <ClassicSession:…>.
type Kind int

const (
	Classic Kind = iota
	XSession
	NodeSession
)

func (k Kind) className() string {
	switch k {
	case XSession:
		return "XSession"
	case NodeSession:
		return "NodeSession"
	default:
		return "ClassicSession"
	}
}

// Session is a live connection bridge. It owns the *sql.DB, the
// password-stripped display URI, and the set of currently open result
// handles (so an unclosed Resultset can be force-discarded on Close).
type Session struct {
	*bridge.Base

	kind Kind
	info *dsn.Info
	db   *sql.DB
	// conn pins a single physical connection out of db's pool: a Session
	// models one MySQL connection, not a pool, so that the
	// @@session.warning_count query issued right after a statement
	// observes that statement's own server-side session state.
	conn *sql.Conn

	mu         sync.Mutex
	closed     bool
	openResult *Resultset

	// StrictResultHandling makes a new sql() call fail with ResultLeak
	// when the previous Resultset still has unread rows, per spec.md §5.
	StrictResultHandling bool

	connectTimeout time.Duration
	socketTimeout  time.Duration
}

// Open dials a session of the given kind using the parsed connection
// info and an explicit password (the spec separates URI parsing from
// password supply: mysql.getClassicSession(uri[, password])).
func Open(kind Kind, info *dsn.Info, password string, connectTimeout, socketTimeout time.Duration) (*Session, error) {
	pwd := info.Password
	if password != "" {
		pwd = password
	}
	var dsnStr string
	if info.UnixSocket != "" {
		dsnStr = fmt.Sprintf("%s:%s@unix(%s)/%s?timeout=%s&readTimeout=%s",
			info.User, pwd, info.UnixSocket, info.Schema, connectTimeout, socketTimeout)
	} else {
		dsnStr = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?timeout=%s&readTimeout=%s",
			info.User, pwd, info.Host, info.Port, info.Schema, connectTimeout, socketTimeout)
	}

	db, err := sql.Open("mysql", dsnStr)
	if err != nil {
		return nil, shellerr.New(shellerr.ProtocolError, "Session.open", "%s", err.Error())
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, wrapSQLError("Session.open", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		db.Close()
		return nil, wrapSQLError("Session.open", err)
	}

	s := &Session{
		kind:           kind,
		info:           info,
		db:             db,
		conn:           conn,
		connectTimeout: connectTimeout,
		socketTimeout:  socketTimeout,
	}
	s.Base = bridge.NewBase(kind.className() + ":" + info.Display())
	s.installMembers()
	return s, nil
}

func (s *Session) installMembers() {
	s.Data("uri", func() (value.Value, error) { return value.FromString(s.info.Display()), nil })
	s.Method("sql", s.methodSQL)
	s.Method("sql_one", s.methodSQLOne)
	s.Method("close", s.methodClose)
	s.Method("nextResult", s.methodNextResult)
}

func (s *Session) api(name string) string { return "Session." + name }

func (s *Session) ensureOpen(api string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return shellerr.New(shellerr.SessionClosed, api, "session is closed")
	}
	return nil
}

// discardOpenResult implicitly discards the previous result's remaining
// rows when a new sql() call begins, per spec.md §5; in strict mode it
// fails with ResultLeak instead.
func (s *Session) discardOpenResult(api string) error {
	s.mu.Lock()
	rs := s.openResult
	strict := s.StrictResultHandling
	s.mu.Unlock()
	if rs == nil || rs.isClosed() {
		return nil
	}
	if strict && !rs.isExhausted() {
		return shellerr.New(shellerr.ResultLeak, api, "a previous result set still has unread rows")
	}
	rs.discard()
	return nil
}

// SQL runs stmt with the given params (Array, Map, or Undefined) and
// returns the resulting Resultset bridge. It satisfies package crud's
// DocStore interface so CRUD chains can execute through a Session
// without that package importing this one.
func (s *Session) SQL(stmt string, params value.Value) (value.Value, error) {
	args := []value.Value{value.FromString(stmt)}
	if !params.IsUndefined() {
		args = append(args, params)
	}
	return s.methodSQL(args)
}

func (s *Session) methodSQL(args []value.Value) (value.Value, error) {
	api := s.api("sql")
	if err := s.ensureOpen(api); err != nil {
		return value.Value{}, err
	}
	if len(args) < 1 || len(args) > 2 {
		return value.Value{}, shellerr.ArityError(api, 1, 2, len(args))
	}
	stmt, err := args[0].AsString()
	if err != nil {
		return value.Value{}, shellerr.ArgumentKindError(api, 1, "string")
	}
	var params value.Value
	if len(args) == 2 {
		params = args[1]
	}
	query, bound, err := bindParams(stmt, params, api)
	if err != nil {
		return value.Value{}, err
	}
	if err := s.discardOpenResult(api); err != nil {
		return value.Value{}, err
	}

	rows, affected, warnings, err := s.runStatement(api, query, bound)
	if err != nil {
		return value.Value{}, err
	}
	rs := newResultset(s, rows, affected, warnings)
	s.mu.Lock()
	s.openResult = rs
	s.mu.Unlock()
	return value.FromObject(rs), nil
}

// resultSetKeywords are the statement-leading keywords that produce a
// result set on the wire rather than an OK packet; everything else is
// run via ExecContext so its RowsAffected is observable.
var resultSetKeywords = []string{"SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "WITH", "CALL", "HANDLER"}

func isResultSetStatement(stmt string) bool {
	trimmed := strings.TrimLeft(stmt, " \t\r\n")
	for _, kw := range resultSetKeywords {
		if len(trimmed) >= len(kw) && strings.EqualFold(trimmed[:len(kw)], kw) {
			return true
		}
	}
	return false
}

// runStatement executes query on the session's pinned connection,
// dispatching to QueryContext (result-set statements) or ExecContext
// (everything else) so affected_rows is the server's real DML row
// count rather than always zero. warning_count is read back from the
// same connection right after, per spec.md §4.3.
func (s *Session) runStatement(api, query string, bound []interface{}) (*sql.Rows, int64, int64, error) {
	ctx := context.Background()
	if s.socketTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.socketTimeout)
		defer cancel()
	}
	if isResultSetStatement(query) {
		rows, err := s.conn.QueryContext(ctx, query, bound...)
		if err != nil {
			return nil, 0, 0, wrapSQLError(api, err)
		}
		return rows, 0, s.warningCount(ctx), nil
	}
	result, err := s.conn.ExecContext(ctx, query, bound...)
	if err != nil {
		return nil, 0, 0, wrapSQLError(api, err)
	}
	affected, _ := result.RowsAffected()
	return nil, affected, s.warningCount(ctx), nil
}

// warningCount best-effort reads the server's warning counter for the
// statement just run; a driver/connection that can't answer reports 0
// rather than failing the whole sql() call over a diagnostics query.
func (s *Session) warningCount(ctx context.Context) int64 {
	var n int64
	if err := s.conn.QueryRowContext(ctx, "SELECT @@session.warning_count").Scan(&n); err != nil {
		return 0
	}
	return n
}

func (s *Session) methodSQLOne(args []value.Value) (value.Value, error) {
	api := s.api("sql_one")
	result, err := s.methodSQL(args)
	if err != nil {
		return value.Value{}, err
	}
	obj, _ := result.AsObject()
	rs := obj.(*Resultset)
	row, err := rs.next(false, false)
	if err != nil {
		return value.Value{}, err
	}
	if row.IsNull() {
		rs.close()
		return value.Null(), nil
	}
	second, err := rs.next(false, false)
	if err != nil {
		return value.Value{}, err
	}
	if !second.IsNull() {
		rs.close()
		return value.Value{}, shellerr.New(shellerr.ResultShapeError, api, "statement returned more than one row")
	}
	rs.close()
	return row, nil
}

func (s *Session) methodClose(args []value.Value) (value.Value, error) {
	s.Close()
	return value.Undefined(), nil
}

// Close is idempotent: a second call succeeds silently, per spec.md §8
// property 6.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.openResult != nil {
		s.openResult.discard()
	}
	if s.conn != nil {
		s.conn.Close()
	}
	return s.db.Close()
}

func (s *Session) methodNextResult(args []value.Value) (value.Value, error) {
	api := s.api("nextResult")
	if len(args) != 1 {
		return value.Value{}, shellerr.ArityError(api, 1, 1, len(args))
	}
	obj, err := args[0].AsObject()
	if err != nil {
		return value.Value{}, shellerr.ArgumentKindError(api, 1, "Resultset")
	}
	rs, ok := obj.(*Resultset)
	if !ok {
		return value.Value{}, shellerr.ArgumentKindError(api, 1, "Resultset")
	}
	ok2, err := rs.nextResult()
	if err != nil {
		return value.Value{}, err
	}
	return value.FromBool(ok2), nil
}

var namedParamRe = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)

// bindParams rewrites "?"/":name" placeholders into database/sql's
// positional "?" form, returning the bound argument slice in order.
func bindParams(stmt string, params value.Value, api string) (string, []interface{}, error) {
	if params.IsUndefined() || params.IsNull() {
		return stmt, nil, nil
	}
	if arr, err := params.AsArray(); err == nil {
		out := make([]interface{}, arr.Len())
		for i, v := range arr.Items {
			out[i] = toDriverValue(v)
		}
		return stmt, out, nil
	}
	m, err := params.AsMap()
	if err != nil {
		return "", nil, shellerr.ArgumentKindError(api, 2, "Map or Array")
	}
	var missing string
	rewritten := namedParamRe.ReplaceAllString(stmt, "?")
	names := namedParamRe.FindAllStringSubmatch(stmt, -1)
	out := make([]interface{}, 0, len(names))
	for _, match := range names {
		v, ok := m.Get(match[1])
		if !ok {
			missing = match[1]
			break
		}
		out = append(out, toDriverValue(v))
	}
	if missing != "" {
		return "", nil, shellerr.New(shellerr.UnboundParameter, api, "UnboundParameter(%s)", missing)
	}
	return rewritten, out, nil
}

func toDriverValue(v value.Value) interface{} {
	switch v.Kind() {
	case value.KindNull, value.KindUndefined:
		return nil
	case value.KindBool:
		b, _ := v.AsBool()
		return b
	case value.KindInteger:
		i, _ := v.AsInt()
		return i
	case value.KindUInteger:
		u, _ := v.AsUint()
		return u
	case value.KindFloat:
		f, _ := v.AsFloat()
		return f
	case value.KindString:
		s, _ := v.AsString()
		return s
	default:
		return fmt.Sprintf("%v", v)
	}
}

// wrapSQLError converts a database/sql error into a shellerr SqlError. A
// *mysql.MySQLError from go-sql-driver/mysql carries a real server code;
// anything else (context deadline, driver-level failure) falls back to
// the generic HY000 SQLSTATE.
func wrapSQLError(api string, err error) error {
	if merr, ok := err.(*mysql.MySQLError); ok {
		state := "HY000"
		if merr.SQLState != [5]byte{} {
			state = string(merr.SQLState[:])
		}
		return shellerr.NewSQL(api, int(merr.Number), state, merr.Message)
	}
	return shellerr.NewSQL(api, 0, "HY000", err.Error())
}
