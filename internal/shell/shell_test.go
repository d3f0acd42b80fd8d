package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhukovaskychina/xmysql-shell/internal/conf"
	"github.com/zhukovaskychina/xmysql-shell/internal/shellerr"
)

func newTestShell() *Shell {
	return New(conf.Defaults())
}

func TestNewDefaultsToConfiguredMode(t *testing.T) {
	s := newTestShell()
	assert.Equal(t, conf.ModeSQL, s.Mode())
}

func TestSetModeAcceptsKnownModes(t *testing.T) {
	s := newTestShell()
	for _, m := range []conf.Mode{conf.ModeJS, conf.ModePython, conf.ModeSQL} {
		require.NoError(t, s.SetMode(m))
		assert.Equal(t, m, s.Mode())
	}
}

func TestSetModeRejectsUnknownMode(t *testing.T) {
	s := newTestShell()
	err := s.SetMode(conf.Mode("ruby"))
	require.Error(t, err)
	assert.True(t, shellerr.Is(err, shellerr.ArgumentError))
	assert.Equal(t, conf.ModeSQL, s.Mode())
}

func TestEvalSQLWithoutSessionFailsSessionClosed(t *testing.T) {
	s := newTestShell()
	_, err := s.Eval("select 1")
	require.Error(t, err)
	assert.True(t, shellerr.Is(err, shellerr.SessionClosed))
}

func TestEvalJSSeesInstalledModules(t *testing.T) {
	s := newTestShell()
	require.NoError(t, s.SetMode(conf.ModeJS))

	result, err := s.Eval("mysql.help()")
	require.NoError(t, err)
	text, _ := result.AsString()
	assert.Contains(t, text, "classic MySQL protocol sessions")

	result, err = s.Eval("mysqlx.help()")
	require.NoError(t, err)
	text, _ = result.AsString()
	assert.Contains(t, text, "X DevAPI")
}

func TestEvalPythonSeesInstalledModules(t *testing.T) {
	s := newTestShell()
	require.NoError(t, s.SetMode(conf.ModePython))

	result, err := s.Eval("mysql.help()")
	require.NoError(t, err)
	text, _ := result.AsString()
	assert.Contains(t, text, "classic MySQL protocol sessions")
}

func TestMysqlxExprBuildsExpressionBridgeInJS(t *testing.T) {
	s := newTestShell()
	require.NoError(t, s.SetMode(conf.ModeJS))

	result, err := s.Eval(`mysqlx.expr("id > 5").text`)
	require.NoError(t, err)
	text, _ := result.AsString()
	assert.Equal(t, "id > 5", text)
}

func TestCloseWithNoCurrentSessionIsNoop(t *testing.T) {
	s := newTestShell()
	require.NoError(t, s.Close())
	assert.Equal(t, 0, s.OpenSessionCount())
}

func TestShutdownWithNoSessionsDoesNotPanic(t *testing.T) {
	s := newTestShell()
	assert.NotPanics(t, func() { s.Shutdown() })
}

func TestEvalUnknownModeFails(t *testing.T) {
	s := newTestShell()
	s.mode = conf.Mode("bogus")
	_, err := s.Eval("1")
	require.Error(t, err)
	assert.True(t, shellerr.Is(err, shellerr.Internal))
}
