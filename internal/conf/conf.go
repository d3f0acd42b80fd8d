// Package conf loads the shell's own configuration file, adapted from
// the teacher's server/conf/config.go: same gopkg.in/ini.v1-backed
// Cfg-struct-plus-Load() shape, re-themed from server listener tuning
// (bind address, session pool sizing) to shell client tuning (default
// connection URI, interactive mode, timeouts, history file).
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/ini.v1"
)

// Mode is the shell's current scripting surface.
type Mode string

const (
	ModeSQL    Mode = "sql"
	ModeJS     Mode = "js"
	ModePython Mode = "py"
)

// Cfg is the shell's resolved configuration.
type Cfg struct {
	Raw *ini.File

	DefaultURI     string
	Mode           Mode
	HistoryFile    string
	ConnectTimeout time.Duration
	SocketTimeout  time.Duration

	StrictResultHandling bool

	LogLevel     string
	InfoLogPath  string
	ErrorLogPath string
}

// Defaults mirrors the teacher's NewCfg(): a Cfg usable without any
// config file present, reasonable for a first `xmysql-shell` run.
func Defaults() *Cfg {
	home, _ := os.UserHomeDir()
	return &Cfg{
		Raw:                  ini.Empty(),
		Mode:                 ModeSQL,
		HistoryFile:          filepath.Join(home, ".xmysql_shell_history"),
		ConnectTimeout:       10 * time.Second,
		SocketTimeout:        30 * time.Second,
		StrictResultHandling: false,
		LogLevel:             "info",
	}
}

// Load reads configPath (an ini file) over the defaults. A missing file
// is not an error: the shell runs fine unconfigured, unlike the
// teacher's server which refuses to start without one.
func Load(configPath string) (*Cfg, error) {
	cfg := Defaults()
	if configPath == "" {
		return cfg, nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}
	raw, err := ini.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("conf: failed to parse %s: %w", configPath, err)
	}
	cfg.Raw = raw

	shell := raw.Section("shell")
	cfg.DefaultURI = shell.Key("default_uri").MustString(cfg.DefaultURI)
	cfg.Mode = Mode(shell.Key("mode").MustString(string(cfg.Mode)))
	cfg.HistoryFile = shell.Key("history_file").MustString(cfg.HistoryFile)
	cfg.StrictResultHandling = shell.Key("strict_result_handling").MustBool(cfg.StrictResultHandling)

	connectTimeout := shell.Key("connect_timeout").MustString(cfg.ConnectTimeout.String())
	if d, err := time.ParseDuration(connectTimeout); err == nil {
		cfg.ConnectTimeout = d
	}
	socketTimeout := shell.Key("socket_timeout").MustString(cfg.SocketTimeout.String())
	if d, err := time.ParseDuration(socketTimeout); err == nil {
		cfg.SocketTimeout = d
	}

	logging := raw.Section("logging")
	cfg.LogLevel = logging.Key("level").MustString(cfg.LogLevel)
	cfg.InfoLogPath = logging.Key("info_log_path").MustString(cfg.InfoLogPath)
	cfg.ErrorLogPath = logging.Key("error_log_path").MustString(cfg.ErrorLogPath)

	return cfg, nil
}
