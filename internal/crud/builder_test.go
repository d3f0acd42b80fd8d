package crud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xmysql-shell/internal/shellerr"
	"github.com/zhukovaskychina/xmysql-shell/internal/value"
)

type fakeStore struct {
	lastStmt   string
	lastParams value.Value
}

func (f *fakeStore) SQL(stmt string, params value.Value) (value.Value, error) {
	f.lastStmt = stmt
	f.lastParams = params
	return value.FromMap(value.NewMap()), nil
}

func TestCollectionFindLegalChain(t *testing.T) {
	store := &fakeStore{}
	col := NewCollection(store, "mydb", "docs")
	ch := col.Find(value.FromString("age > :min"))

	v, err := ch.Call("limit", []value.Value{value.FromInt(10)})
	require.NoError(t, err)
	_, err = v.AsObject()
	require.NoError(t, err)

	_, err = ch.Call("offset", []value.Value{value.FromInt(5)})
	require.NoError(t, err)

	_, err = ch.Call("bind", []value.Value{value.FromString("min"), value.FromInt(18)})
	require.NoError(t, err)

	_, err = ch.Call("execute", nil)
	require.NoError(t, err)
	assert.Contains(t, store.lastStmt, "limit 10 offset 5")
}

func TestCollectionFindRepeatedLimitFails(t *testing.T) {
	store := &fakeStore{}
	col := NewCollection(store, "mydb", "docs")
	ch := col.Find(value.Undefined())
	_, err := ch.Call("limit", []value.Value{value.FromInt(1)})
	require.NoError(t, err)
	_, err = ch.Call("limit", []value.Value{value.FromInt(2)})
	require.Error(t, err)
	assert.True(t, shellerr.Is(err, shellerr.InvalidCallOrder))
}

func TestCollectionFindOffsetBeforeLimitFails(t *testing.T) {
	store := &fakeStore{}
	col := NewCollection(store, "mydb", "docs")
	ch := col.Find(value.Undefined())
	_, err := ch.Call("offset", []value.Value{value.FromInt(1)})
	require.Error(t, err)
	assert.True(t, shellerr.Is(err, shellerr.InvalidCallOrder))
}

func TestCollectionFindHavingRequiresGroupBy(t *testing.T) {
	store := &fakeStore{}
	col := NewCollection(store, "mydb", "docs")
	ch := col.Find(value.Undefined())
	_, err := ch.Call("having", []value.Value{value.FromString("1=1")})
	require.Error(t, err)
	assert.True(t, shellerr.Is(err, shellerr.InvalidCallOrder))
}

func TestCollectionFindUnboundParameterFailsExecute(t *testing.T) {
	store := &fakeStore{}
	col := NewCollection(store, "mydb", "docs")
	ch := col.Find(value.FromString("age > :min"))
	_, err := ch.Call("execute", nil)
	require.Error(t, err)
	assert.True(t, shellerr.Is(err, shellerr.UnboundParameter))
}

func TestCollectionFindCallAfterExecuteFails(t *testing.T) {
	store := &fakeStore{}
	col := NewCollection(store, "mydb", "docs")
	ch := col.Find(value.Undefined())
	_, err := ch.Call("execute", nil)
	require.NoError(t, err)
	_, err = ch.Call("limit", []value.Value{value.FromInt(1)})
	require.Error(t, err)
}

func TestCollectionModifyRequiresOperationFirst(t *testing.T) {
	store := &fakeStore{}
	col := NewCollection(store, "mydb", "docs")
	ch := col.Modify(value.FromString("_id = 1"))
	_, err := ch.Call("limit", []value.Value{value.FromInt(1)})
	require.Error(t, err)
	assert.True(t, shellerr.Is(err, shellerr.UnknownMember))

	_, err = ch.Call("set", []value.Value{value.FromString("status"), value.FromString("'done'")})
	require.NoError(t, err)
	_, err = ch.Call("limit", []value.Value{value.FromInt(1)})
	require.NoError(t, err)
}

func TestTableUpdateSetNotLegalAfterWhere(t *testing.T) {
	store := &fakeStore{}
	tbl := NewTable(store, "mydb", "accounts")
	ch := tbl.Update()
	_, err := ch.Call("set", []value.Value{value.FromString("balance"), value.FromString("balance+1")})
	require.NoError(t, err)
	_, err = ch.Call("where", []value.Value{value.FromString("id = 1")})
	require.NoError(t, err)
	_, err = ch.Call("set", []value.Value{value.FromString("balance"), value.FromString("0")})
	require.Error(t, err)
	assert.True(t, shellerr.Is(err, shellerr.UnknownMember))
}

func TestTableInsertBuildsPlaceholders(t *testing.T) {
	store := &fakeStore{}
	tbl := NewTable(store, "mydb", "accounts")
	cols := value.NewArray(value.FromString("id"), value.FromString("name"))
	ch := tbl.Insert(value.FromArray(cols))
	_, err := ch.Call("values", []value.Value{value.FromInt(1), value.FromString("alice")})
	require.NoError(t, err)
	_, err = ch.Call("execute", nil)
	require.NoError(t, err)
	assert.Contains(t, store.lastStmt, "values (?, ?)")
}
