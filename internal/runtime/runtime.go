// Package runtime defines the shared contract both script-runtime
// adapters (jsruntime, pyruntime) implement: install a set of named
// module globals built from Object Bridges, then evaluate one
// interactive chunk of source and report its printed result.
package runtime

import "github.com/zhukovaskychina/xmysql-shell/internal/value"

// Module is a named collection of bridge-backed globals to install into
// a runtime before the interactive loop starts — e.g. "mysql", "mysqlx",
// "dba" per spec.md §4.2's module surface.
type Module struct {
	Name    string
	Globals map[string]value.Value
}

// Adapter is the contract a script runtime exposes to the shell's
// mode-switch glue (internal/shell). Eval runs one chunk of source in
// the runtime's persistent global scope and returns its result as a
// tagged Value, or an error if the chunk failed to parse/run.
type Adapter interface {
	Name() string
	Install(modules []Module) error
	Eval(source string) (value.Value, error)
	Close()
}
