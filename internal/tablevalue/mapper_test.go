package tablevalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xmysql-shell/internal/bridge"
	"github.com/zhukovaskychina/xmysql-shell/internal/shellerr"
	"github.com/zhukovaskychina/xmysql-shell/internal/value"
)

func TestMapScalars(t *testing.T) {
	cases := []struct {
		in   value.Value
		want Kind
	}{
		{value.Null(), KindNull},
		{value.FromBool(true), KindBool},
		{value.FromString("x"), KindString},
		{value.FromInt(-5), KindSInt64},
		{value.FromUint(5), KindUInt64},
		{value.FromFloat(1.5), KindDouble},
	}
	for _, c := range cases {
		tv, err := Map(c.in, "Table.insert")
		require.NoError(t, err)
		assert.Equal(t, c.want, tv.Kind)
	}
}

func TestMapNonEmptyExpression(t *testing.T) {
	expr := bridge.NewExpression("now()")
	tv, err := Map(value.FromObject(expr), "Table.insert")
	require.NoError(t, err)
	assert.Equal(t, KindExpression, tv.Kind)
	assert.Equal(t, "now()", tv.Expression)
}

func TestMapEmptyExpressionFails(t *testing.T) {
	expr := bridge.NewExpression("")
	_, err := Map(value.FromObject(expr), "Table.insert")
	require.Error(t, err)
	assert.True(t, shellerr.Is(err, shellerr.ArgumentError))
	assert.Contains(t, err.Error(), "Expressions can not be empty.")
}

func TestMapUnsupportedObjectFails(t *testing.T) {
	other := bridge.NewBase("SomethingElse")
	_, err := Map(value.FromObject(other), "Table.insert")
	require.Error(t, err)
	assert.True(t, shellerr.Is(err, shellerr.ArgumentError))
}

func TestMapArrayMapUndefinedFail(t *testing.T) {
	vals := []value.Value{
		value.Undefined(),
		value.FromArray(value.NewArray()),
		value.FromMap(value.NewMap()),
	}
	for _, v := range vals {
		_, err := Map(v, "Table.insert")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unsupported value received:")
	}
}
