package jsruntime

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

func TestEvalScalarRoundTrip(t *testing.T) {
	a := New()
	result, err := a.Eval("1 + 2")
	require.NoError(t, err)
	i, err := result.AsInt()
	require.NoError(t, err)
	assert.Equal(t, int64(3), i)
}

func TestEvalPersistsGlobalsAcrossCalls(t *testing.T) {
	a := New()
	_, err := a.Eval("var x = 41;")
	require.NoError(t, err)
	result, err := a.Eval("x + 1")
	require.NoError(t, err)
	i, _ := result.AsInt()
	assert.Equal(t, int64(42), i)
}

func TestInstallExposesModuleGlobals(t *testing.T) {
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

// TestUnknownMemberSurfacesAtScriptBoundary is testable property 3 at the
// actual script-visible surface: reading a JS property that isn't one of
// the bridge's members must fail with UnknownMember, not return
// `undefined`, even though the object is backed by a live goja
// DynamicObject rather than a plain snapshotted one.
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

func TestArrayRoundTrip(t *testing.T) {
	a := New()
	result, err := a.Eval("[1, 2, 3]")
	require.NoError(t, err)
	arr, err := result.AsArray()
	require.NoError(t, err)
	assert.Equal(t, 3, arr.Len())
}
