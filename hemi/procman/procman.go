// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Procman package parses the command line and runs a server process.

package procman

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hexinfra/httpd/hemi"
)

// Opts are options of a program.
type Opts struct {
	ProgramName  string
	ProgramTitle string
	DebugLevel   int
	Setup        func(server *hemi.Server) error // registers handlers of the program, if any
}

const usage = `
%s (%s)
================================================================================

  %s [ACTION] [OPTIONS]

ACTION
------

  serve        # start as server (default)
  check        # dry run to check config
  version      # show version info
  help         # show this message

OPTIONS
-------

  -debug  <level>   # debug level (default: %d. min: 0, max: 3)
  -config <config>  # path to config file (default: conf/%s.conf)
  -host   <host>    # host to listen on, overrides config
  -port   <port>    # port to listen on, overrides config
  -base   <path>    # base directory of the program
  -logs   <path>    # logs directory to use

  "-debug" applies for all actions.
  "-config", "-host", "-port", "-base", and "-logs" apply for "serve" and "check".

`

var ( // flags
	debugLevel int
	configFile string
	hostFlag   string
	portFlag   int
	baseDir    string
	logsDir    string
)

func Main(opts *Opts) {
	flag.Usage = func() {
		fmt.Printf(usage, opts.ProgramTitle, hemi.Version, opts.ProgramName, opts.DebugLevel, opts.ProgramName)
	}
	flag.IntVar(&debugLevel, "debug", opts.DebugLevel, "")
	flag.StringVar(&configFile, "config", "", "")
	flag.StringVar(&hostFlag, "host", "", "")
	flag.IntVar(&portFlag, "port", -1, "")
	flag.StringVar(&baseDir, "base", "", "")
	flag.StringVar(&logsDir, "logs", "", "")
	action := "serve"
	if len(os.Args) > 1 && os.Args[1][0] != '-' {
		action = os.Args[1]
		flag.CommandLine.Parse(os.Args[2:])
	} else {
		flag.Parse()
	}

	hemi.SetDebugLevel(int32(debugLevel))
	switch action {
	case "help":
		flag.Usage()
	case "version":
		fmt.Println(hemi.Version)
	case "serve", "check":
		setDirs()
		config, err := loadConfig(opts.ProgramName)
		if err != nil {
			hemi.UseExitln(err.Error())
		}
		if action == "check" { // dry run
			fmt.Println("PASS")
			return
		}
		serve(opts, config)
	default:
		hemi.UseExitf("unknown action: %s\n", action)
	}
}

func setDirs() {
	if baseDir == "" {
		exePath, err := os.Executable()
		if err != nil {
			hemi.EnvExitln(err.Error())
		}
		baseDir = filepath.Dir(exePath)
	} else { // baseDir is specified.
		dir, err := filepath.Abs(baseDir)
		if err != nil {
			hemi.EnvExitln(err.Error())
		}
		baseDir = dir
	}
	baseDir = filepath.ToSlash(baseDir)
	hemi.SetBaseDir(baseDir)
	if logsDir == "" {
		logsDir = baseDir + "/logs"
	} else if !filepath.IsAbs(logsDir) {
		logsDir = baseDir + "/" + logsDir
	}
	hemi.SetLogsDir(filepath.ToSlash(logsDir))
}

// loadConfig loads the config file if one is given or exists at the default path, and applies flags over it.
func loadConfig(programName string) (*hemi.Config, error) {
	var config *hemi.Config
	file := configFile
	if file == "" {
		file = "conf/" + programName + ".conf"
		if _, err := os.Stat(filepath.Join(baseDir, file)); err != nil {
			file = ""
		}
	}
	if file == "" {
		config = hemi.NewConfig()
	} else {
		if filepath.IsAbs(file) {
			file = filepath.ToSlash(file)
		} else {
			file = baseDir + "/" + file
		}
		var err error
		if config, err = hemi.ConfigFromFile(baseDir, file); err != nil {
			return nil, err
		}
	}
	if hostFlag != "" {
		config.Host = hostFlag
	}
	if portFlag >= 0 {
		if portFlag > 65535 {
			return nil, fmt.Errorf("bad port: %d", portFlag)
		}
		config.Port = portFlag
	}
	return config, nil
}

func serve(opts *Opts, config *hemi.Config) {
	server, err := hemi.NewServer(config)
	if err != nil {
		hemi.UseExitln(err.Error())
	}
	if opts.Setup != nil {
		if err := opts.Setup(server); err != nil {
			hemi.UseExitln(err.Error())
		}
	}
	if err := server.Start(); err != nil {
		hemi.EnvExitln(err.Error())
	}
	fmt.Printf("%s %s serving on %s\n", opts.ProgramTitle, hemi.Version, server.Addr())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-signals:
		if hemi.DebugLevel() >= 1 {
			hemi.Printf("received signal: %v\n", sig)
		}
	case <-server.Done(): // server quits on its own
	}
	server.Close()
}
