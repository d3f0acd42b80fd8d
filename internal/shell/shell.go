// Package shell wires the object bridges, script runtime adapters and
// session registry into the shell's three interchangeable front ends
// (SQL, JavaScript, Python), following spec.md §4.2's "only one runtime
// active at a time, switching preserves session handles" rule.
package shell

import (
	"github.com/zhukovaskychina/xmysql-shell/internal/bridge"
	"github.com/zhukovaskychina/xmysql-shell/internal/conf"
	"github.com/zhukovaskychina/xmysql-shell/internal/dba"
	"github.com/zhukovaskychina/xmysql-shell/internal/dsn"
	"github.com/zhukovaskychina/xmysql-shell/internal/runtime"
	"github.com/zhukovaskychina/xmysql-shell/internal/runtime/jsruntime"
	"github.com/zhukovaskychina/xmysql-shell/internal/runtime/pyruntime"
	"github.com/zhukovaskychina/xmysql-shell/internal/session"
	"github.com/zhukovaskychina/xmysql-shell/internal/shellerr"
	"github.com/zhukovaskychina/xmysql-shell/internal/value"
)

// funcValue adapts a plain Go closure to value.Function, for the
// installed-module factory functions (getClassicSession, expr, ...).
type funcValue func([]value.Value) (value.Value, error)

func (f funcValue) Invoke(args []value.Value) (value.Value, error) { return f(args) }

// Shell owns the one live session registry and both script runtime
// adapters; exactly one adapter is "current" at a time per spec.md §4.2.
type Shell struct {
	cfg      *conf.Cfg
	registry *session.Registry
	dba      *dba.Dba

	mode conf.Mode
	js   *jsruntime.Adapter
	py   *pyruntime.Adapter

	current *session.Session
}

func New(cfg *conf.Cfg) *Shell {
	s := &Shell{
		cfg:      cfg,
		registry: session.NewRegistry(),
		dba:      dba.New(),
		mode:     cfg.Mode,
		js:       jsruntime.New(),
		py:       pyruntime.New(),
	}
	s.installModules()
	return s
}

// Mode reports the shell's current scripting surface.
func (s *Shell) Mode() conf.Mode { return s.mode }

// SetMode switches the active runtime. Per spec.md §4.2 this resets
// nothing about session handles — only subsequent Eval calls are
// routed to the new runtime.
func (s *Shell) SetMode(m conf.Mode) error {
	switch m {
	case conf.ModeSQL, conf.ModeJS, conf.ModePython:
		s.mode = m
		return nil
	default:
		return shellerr.New(shellerr.ArgumentError, "Shell.setMode", "unknown mode: %s", m)
	}
}

// Connect opens a new session of the given kind and tracks it in the
// registry; it also becomes the shell's "current" session for SQL-mode
// statements and for the `session` global installed into both runtimes.
func (s *Shell) Connect(raw, password string, kind session.Kind) (*session.Session, error) {
	info, err := dsn.Parse(raw, kind != session.Classic)
	if err != nil {
		return nil, err
	}
	sess, err := session.Open(kind, info, password, s.cfg.ConnectTimeout, s.cfg.SocketTimeout)
	if err != nil {
		return nil, err
	}
	sess.StrictResultHandling = s.cfg.StrictResultHandling
	s.registry.Track(sess)
	s.current = sess
	s.refreshSessionGlobal()
	return sess, nil
}

// Close closes the current session, per Session.close()'s idempotent
// contract, and stops tracking it.
func (s *Shell) Close() error {
	if s.current == nil {
		return nil
	}
	err := s.current.Close()
	s.registry.Untrack(s.current)
	s.current = nil
	s.refreshSessionGlobal()
	return err
}

// Shutdown force-closes every session still tracked by the registry, so
// an abandoned handle never leaks a live TCP connection at process
// exit, per spec.md §5.
func (s *Shell) Shutdown() {
	s.registry.CloseAll()
	s.js.Close()
	s.py.Close()
}

// OpenSessionCount reports how many sessions are still tracked.
func (s *Shell) OpenSessionCount() int { return s.registry.Count() }

// Eval runs source in whichever runtime SQL/JS/Python is currently
// active. SQL mode treats source as a single statement run against the
// current session.
func (s *Shell) Eval(source string) (value.Value, error) {
	switch s.mode {
	case conf.ModeSQL:
		return s.evalSQL(source)
	case conf.ModeJS:
		return s.js.Eval(source)
	case conf.ModePython:
		return s.py.Eval(source)
	default:
		return value.Value{}, shellerr.New(shellerr.Internal, "Shell.eval", "unknown mode: %s", s.mode)
	}
}

func (s *Shell) evalSQL(source string) (value.Value, error) {
	if s.current == nil {
		return value.Value{}, shellerr.New(shellerr.SessionClosed, "Shell.eval", "no active session; connect first")
	}
	return s.current.SQL(source, value.Undefined())
}

// installModules builds the mysql/mysqlx/dba module surfaces spec.md
// §4.2 requires and installs them into both script runtimes.
func (s *Shell) installModules() {
	mysqlModule := runtime.Module{
		Name: "mysql",
		Globals: map[string]value.Value{
			"getClassicSession": value.FromFunction(funcValue(s.factoryGetSession(session.Classic))),
			"help":              value.FromFunction(funcValue(helpFunc("mysql: classic MySQL protocol sessions"))),
		},
	}
	mysqlxModule := runtime.Module{
		Name: "mysqlx",
		Globals: map[string]value.Value{
			"getSession":     value.FromFunction(funcValue(s.factoryGetSession(session.XSession))),
			"getNodeSession": value.FromFunction(funcValue(s.factoryGetSession(session.NodeSession))),
			"expr":           value.FromFunction(funcValue(exprFunc)),
			"help":           value.FromFunction(funcValue(helpFunc("mysqlx: X DevAPI document/relational sessions"))),
		},
	}
	dbaModule := runtime.Module{
		Name:    "dba",
		Globals: map[string]value.Value{},
	}
	for _, name := range s.dba.Members() {
		member, err := s.dba.GetMember(name)
		if err == nil {
			dbaModule.Globals[name] = member
		}
	}

	for _, adapter := range []runtime.Adapter{s.js, s.py} {
		adapter.Install([]runtime.Module{mysqlModule, mysqlxModule, dbaModule})
	}
}

func (s *Shell) refreshSessionGlobal() {
	mod := runtime.Module{Name: "session", Globals: map[string]value.Value{}}
	if s.current != nil {
		mod.Globals["current"] = value.FromObject(s.current)
	}
	s.js.Install([]runtime.Module{mod})
	s.py.Install([]runtime.Module{mod})
}

func (s *Shell) factoryGetSession(kind session.Kind) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		if len(args) < 1 || len(args) > 2 {
			return value.Value{}, shellerr.ArityError("mysql.getSession", 1, 2, len(args))
		}
		uri, err := args[0].AsString()
		if err != nil {
			return value.Value{}, shellerr.ArgumentKindError("mysql.getSession", 1, "string")
		}
		password := ""
		if len(args) == 2 {
			password, err = args[1].AsString()
			if err != nil {
				return value.Value{}, shellerr.ArgumentKindError("mysql.getSession", 2, "string")
			}
		}
		sess, err := s.Connect(uri, password, kind)
		if err != nil {
			return value.Value{}, err
		}
		return value.FromObject(sess), nil
	}
}

func exprFunc(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, shellerr.ArityError("mysqlx.expr", 1, 1, len(args))
	}
	text, err := args[0].AsString()
	if err != nil {
		return value.Value{}, shellerr.ArgumentKindError("mysqlx.expr", 1, "string")
	}
	return value.FromObject(bridge.NewExpression(text)), nil
}

func helpFunc(text string) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) { return value.FromString(text), nil }
}
