package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/zhukovaskychina/xmysql-shell/internal/conf"
	"github.com/zhukovaskychina/xmysql-shell/internal/session"
	"github.com/zhukovaskychina/xmysql-shell/internal/shell"
	"github.com/zhukovaskychina/xmysql-shell/internal/value"
	"github.com/zhukovaskychina/xmysql-shell/logger"
)

const banner = `
******************************************************************************************

 __   ____  __        _____  ____  _          _____ ______ _______      ________ _____
 \ \ / /  \/  |      / ____|/ __ \| |        / ____|  ____|  __ \ \    / /  ____|  __ \
  \ V /| \  / |_   _| (___ | |  | | |  _____| (___ | |__  | |__) \ \  / /| |__  | |__) |
   > < | |\/| | | | |\___ \| |  | | | |______\___ \|  __| |  _  / \ \/ / |  __| |  _  /
  / . \| |  | | |_| |____) | |__| | |____    ____) | |____| | \ \  \  /  | |____| | \ \
 /_/ \_\_|  |_|\__, |_____/ \___\_\______|  |_____/|______|_|  \_\  \/   |______|_|  \_\
                __/ |
               |___/
******************************************************************************************
*help:
*1. --configPath    shell.ini config file
*2. --uri           connect immediately, e.g. root@127.0.0.1:3306/test
*3. --js / --py      start in JavaScript / Python mode (default: sql)
******************************************************************************************
`

func main() {
	var configPath, uri, password string
	var jsMode, pyMode bool
	flag.StringVar(&configPath, "configPath", "", "shell.ini config file path")
	flag.StringVar(&uri, "uri", "", "connection string to open at startup")
	flag.StringVar(&password, "password", "", "password for -uri, if not embedded in it")
	flag.BoolVar(&jsMode, "js", false, "start in JavaScript mode")
	flag.BoolVar(&pyMode, "py", false, "start in Python mode")
	flag.Parse()

	fmt.Print(banner)

	cfg, err := conf.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}
	if jsMode {
		cfg.Mode = conf.ModeJS
	} else if pyMode {
		cfg.Mode = conf.ModePython
	}

	if err := logger.InitLogger(logger.LogConfig{
		ErrorLogPath: cfg.ErrorLogPath,
		InfoLogPath:  cfg.InfoLogPath,
		LogLevel:     cfg.LogLevel,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}

	sh := shell.New(cfg)
	defer sh.Shutdown()

	if uri != "" {
		if _, err := sh.Connect(uri, password, session.Classic); err != nil {
			logger.Errorf("connect failed: %s", err.Error())
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		logger.Infof("connected to %s", uri)
	}

	runREPL(sh)
}

func runREPL(sh *shell.Shell) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Printf("xmysql-shell (%s)> ", sh.Mode())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "\\sql":
			sh.SetMode(conf.ModeSQL)
		case line == "\\js":
			sh.SetMode(conf.ModeJS)
		case line == "\\py":
			sh.SetMode(conf.ModePython)
		case line == "\\q" || line == "\\quit" || line == "\\exit":
			return
		default:
			result, err := sh.Eval(line)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
			} else if !result.IsUndefined() {
				fmt.Println(value.Descr(result))
			}
		}
		fmt.Printf("xmysql-shell (%s)> ", sh.Mode())
	}
}
