package pyruntime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xmysql-shell/internal/bridge"
	"github.com/zhukovaskychina/xmysql-shell/internal/runtime"
	"github.com/zhukovaskychina/xmysql-shell/internal/shellerr"
	"github.com/zhukovaskychina/xmysql-shell/internal/value"
)

func newWidgetBridge() *bridge.Base {
	b := bridge.NewBase("Widget")
	b.Data("name", func() (value.Value, error) { return value.FromString("w1"), nil })
	b.Method("greet", func(args []value.Value) (value.Value, error) {
		n, _ := args[0].AsString()
		return value.FromString("hi " + n), nil
	})
	return b
}

func TestEvalExpression(t *testing.T) {
	a := New()
	result, err := a.Eval("1 + 2")
	require.NoError(t, err)
	i, err := result.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(3), i)
}

func TestEvalStatementFallbackPersistsGlobals(t *testing.T) {
	a := New()
	_, err := a.Eval("x = 41")
	require.NoError(t, err)
	result, err := a.Eval("x + 1")
	require.NoError(t, err)
	i, _ := result.AsInt()
	assert.Equal(t, int64(42), i)
}

func TestInstallExposesModuleMembers(t *testing.T) {
	a := New()
	err := a.Install([]runtime.Module{{
		Name:    "mysql",
		Globals: map[string]value.Value{"help": value.FromString("mysql: classic sessions")},
	}})
	require.NoError(t, err)
	result, err := a.Eval("mysql.help")
	require.NoError(t, err)
	s, _ := result.AsString()
	assert.Equal(t, "mysql: classic sessions", s)
}

func TestBridgeDataAndMethodAccess(t *testing.T) {
	a := New()
	err := a.Install([]runtime.Module{{
		Name:    "widget",
		Globals: map[string]value.Value{"instance": value.FromObject(newWidgetBridge())},
	}})
	require.NoError(t, err)

	name, err := a.Eval("widget.instance.name")
	require.NoError(t, err)
	s, _ := name.AsString()
	assert.Equal(t, "w1", s)

	greeted, err := a.Eval(`widget.instance.greet("there")`)
	require.NoError(t, err)
	s2, _ := greeted.AsString()
	assert.Equal(t, "hi there", s2)
}

// TestUnknownMemberSurfacesAtScriptBoundary is testable property 3 from
// spec.md §8 exercised at the starlark script surface: bridgeValue.Attr
// must propagate the bridge's UnknownMember error rather than converting
// it into starlark's "no such attribute" (nil, nil) convention.
func TestUnknownMemberSurfacesAtScriptBoundary(t *testing.T) {
	a := New()
	err := a.Install([]runtime.Module{{
		Name:    "widget",
		Globals: map[string]value.Value{"instance": value.FromObject(newWidgetBridge())},
	}})
	require.NoError(t, err)

	_, err = a.Eval("widget.instance.bogus")
	require.Error(t, err)
	assert.True(t, shellerr.Is(err, shellerr.UnknownMember))
}

func TestListRoundTrip(t *testing.T) {
	a := New()
	result, err := a.Eval("[1, 2, 3]")
	require.NoError(t, err)
	arr, err := result.AsArray()
	require.NoError(t, err)
	assert.Equal(t, 3, arr.Len())
}

func TestDictRoundTrip(t *testing.T) {
	a := New()
	result, err := a.Eval(`{"a": 1, "b": 2}`)
	require.NoError(t, err)
	m, err := result.AsMap()
	require.NoError(t, err)
	v, ok := m.Get("a")
	require.True(t, ok)
	i, _ := v.AsInt()
	assert.Equal(t, int64(1), i)
}

func TestModuleAttrOfUnknownNameReturnsNilNil(t *testing.T) {
	m := &moduleValue{name: "dba", members: nil}
	v, err := m.Attr("bogus")
	require.NoError(t, err)
	assert.Nil(t, v)
}
