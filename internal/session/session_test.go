package session

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xmysql-shell/internal/bridge"
	"github.com/zhukovaskychina/xmysql-shell/internal/dsn"
	"github.com/zhukovaskychina/xmysql-shell/internal/shellerr"
	"github.com/zhukovaskychina/xmysql-shell/internal/value"
)

// newSessionForDB builds a Session around a sqlmock-backed *sql.DB,
// bypassing Open's real dialing, mirroring the teacher's own sqlmock
// usage for server/dispatcher tests. It pins a single *sql.Conn, just
// as Open does, since runStatement relies on its warning_count query
// landing on the same connection as the statement it follows.
func newSessionForDB(db *sql.DB) *Session {
	conn, err := db.Conn(context.Background())
	if err != nil {
		panic(err)
	}
	s := &Session{
		kind: Classic,
		db:   db,
		conn: conn,
		info: &dsn.Info{User: "root", Host: "127.0.0.1", Port: 3306},
	}
	s.Base = bridge.NewBase(s.kind.className() + ":" + s.info.Display())
	s.installMembers()
	return s
}

func expectWarningCount(mock sqlmock.Sqlmock, n int64) {
	mock.ExpectQuery("SELECT @@session.warning_count").
		WillReturnRows(sqlmock.NewRows([]string{"warning_count"}).AddRow(n))
}

func TestSessionSQLAndFetchAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow(int64(1), "alice").
		AddRow(int64(2), "bob")
	mock.ExpectQuery("select id, name from t").WillReturnRows(rows)
	expectWarningCount(mock, 0)

	s := newSessionForDB(db)
	result, err := s.methodSQL([]value.Value{value.FromString("select id, name from t")})
	require.NoError(t, err)
	obj, err := result.AsObject()
	require.NoError(t, err)
	rs := obj.(*Resultset)

	all, err := rs.methodAll(nil)
	require.NoError(t, err)
	arr, err := all.AsArray()
	require.NoError(t, err)
	assert.Equal(t, 2, arr.Len())

	row0, err := arr.Items[0].AsMap()
	require.NoError(t, err)
	name, ok := row0.Get("name")
	require.True(t, ok)
	s0, _ := name.AsString()
	assert.Equal(t, "alice", s0)

	fetched, err := rs.GetMember("fetched_row_count")
	require.NoError(t, err)
	n, _ := fetched.AsInt()
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionSQLAllRaw(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"idalpha", "alphacol"}).AddRow(int64(3), "third")
	mock.ExpectQuery("select idalpha, alphacol from t").WillReturnRows(rows)
	expectWarningCount(mock, 0)

	s := newSessionForDB(db)
	result, err := s.methodSQL([]value.Value{value.FromString("select idalpha, alphacol from t")})
	require.NoError(t, err)
	obj, err := result.AsObject()
	require.NoError(t, err)
	rs := obj.(*Resultset)

	row, err := rs.methodNext([]value.Value{value.FromBool(true)})
	require.NoError(t, err)
	arr, err := row.AsArray()
	require.NoError(t, err)
	require.Equal(t, 2, arr.Len())
	id, _ := arr.Items[0].AsInt()
	assert.Equal(t, int64(3), id)
	name, _ := arr.Items[1].AsString()
	assert.Equal(t, "third", name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionSQLExecReportsAffectedRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("create schema shell_tests").WillReturnResult(sqlmock.NewResult(0, 1))
	expectWarningCount(mock, 0)

	s := newSessionForDB(db)
	result, err := s.methodSQL([]value.Value{value.FromString("create schema shell_tests")})
	require.NoError(t, err)
	obj, err := result.AsObject()
	require.NoError(t, err)
	rs := obj.(*Resultset)

	affected, err := rs.GetMember("affected_rows")
	require.NoError(t, err)
	n, _ := affected.AsInt()
	assert.Equal(t, int64(1), n)

	row, err := rs.methodNext(nil)
	require.NoError(t, err)
	assert.True(t, row.IsNull())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionColumnMetadataHasExactlyElevenKeys(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"a", "b"}).AddRow(int64(1), "x")
	mock.ExpectQuery("select a, b from t").WillReturnRows(rows)
	expectWarningCount(mock, 0)

	s := newSessionForDB(db)
	result, err := s.methodSQL([]value.Value{value.FromString("select a, b from t")})
	require.NoError(t, err)
	obj, err := result.AsObject()
	require.NoError(t, err)
	rs := obj.(*Resultset)

	meta, err := rs.methodColumnMetadata(nil)
	require.NoError(t, err)
	arr, err := meta.AsArray()
	require.NoError(t, err)
	require.Equal(t, 2, arr.Len())

	m, err := arr.Items[0].AsMap()
	require.NoError(t, err)
	wantKeys := []string{"catalog", "db", "table", "org_table", "name", "org_name", "charset", "length", "type", "flags", "decimal"}
	assert.Equal(t, len(wantKeys), m.Len())
	for _, k := range wantKeys {
		_, ok := m.Get(k)
		assert.True(t, ok, "missing key %s", k)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionSQLOneRejectsMultipleRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2))
	mock.ExpectQuery("select id from t").WillReturnRows(rows)
	expectWarningCount(mock, 0)

	s := newSessionForDB(db)
	_, err = s.methodSQLOne([]value.Value{value.FromString("select id from t")})
	require.Error(t, err)
	assert.True(t, shellerr.Is(err, shellerr.ResultShapeError))
}

func TestSessionSQLOneReturnsNullWhenEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id"})
	mock.ExpectQuery("select id from t where 1=0").WillReturnRows(rows)
	expectWarningCount(mock, 0)

	s := newSessionForDB(db)
	v, err := s.methodSQLOne([]value.Value{value.FromString("select id from t where 1=0")})
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()
	s := newSessionForDB(db)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestSessionRejectsCallsAfterClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()
	s := newSessionForDB(db)
	require.NoError(t, s.Close())
	_, err = s.methodSQL([]value.Value{value.FromString("select 1")})
	require.Error(t, err)
	assert.True(t, shellerr.Is(err, shellerr.SessionClosed))
}

func TestBindParamsPositional(t *testing.T) {
	arr := value.NewArray(value.FromInt(7), value.FromString("x"))
	query, bound, err := bindParams("select * from t where a=? and b=?", value.FromArray(arr), "Session.sql")
	require.NoError(t, err)
	assert.Equal(t, "select * from t where a=? and b=?", query)
	require.Len(t, bound, 2)
}

func TestBindParamsNamedMissing(t *testing.T) {
	m := value.NewMap()
	m.Set("a", value.FromInt(1))
	_, _, err := bindParams("select * from t where a=:a and b=:b", value.FromMap(m), "Session.sql")
	require.Error(t, err)
	assert.True(t, shellerr.Is(err, shellerr.UnboundParameter))
}

func TestIsResultSetStatement(t *testing.T) {
	assert.True(t, isResultSetStatement("  select 1"))
	assert.True(t, isResultSetStatement("SHOW DATABASES"))
	assert.False(t, isResultSetStatement("insert into t values (1)"))
	assert.False(t, isResultSetStatement("create schema shell_tests"))
}
