// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Basic elements of the httpd engine.

package hemi

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

const Version = "0.3.0"

var ( // basic variables
	_baseOnce sync.Once // protects _baseDir
	_logsOnce sync.Once // protects _logsDir

	_baseDir atomic.Value // directory of the program
	_logsDir atomic.Value // directory of the log files

	_debugLevel atomic.Int32
	_printMutex sync.Mutex
)

func SetBaseDir(dir string) { // only once!
	_baseOnce.Do(func() {
		_baseDir.Store(dir)
	})
}
func SetLogsDir(dir string) { // only once!
	_logsOnce.Do(func() {
		_logsDir.Store(dir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			EnvExitln(err.Error())
		}
	})
}

// BaseDir returns the base directory, or "" if it is not set.
func BaseDir() string {
	if dir, ok := _baseDir.Load().(string); ok {
		return dir
	}
	return ""
}

// LogsDir returns the logs directory, or "" if it is not set.
func LogsDir() string {
	if dir, ok := _logsDir.Load().(string); ok {
		return dir
	}
	return ""
}

func DebugLevel() int32         { return _debugLevel.Load() }
func SetDebugLevel(level int32) { _debugLevel.Store(level) }

func Println(v ...any) {
	_printMutex.Lock()
	fmt.Fprintln(os.Stdout, v...)
	_printMutex.Unlock()
}
func Printf(f string, v ...any) {
	_printMutex.Lock()
	fmt.Fprintf(os.Stdout, f, v...)
	_printMutex.Unlock()
}

const ( // exit codes
	CodeBug = 20
	CodeUse = 21
	CodeEnv = 22
)

func BugExitln(v ...any)          { _exitln(CodeBug, "[BUG] ", v...) }
func BugExitf(f string, v ...any) { _exitf(CodeBug, "[BUG] ", f, v...) }

func UseExitln(v ...any)          { _exitln(CodeUse, "[USE] ", v...) }
func UseExitf(f string, v ...any) { _exitf(CodeUse, "[USE] ", f, v...) }

func EnvExitln(v ...any)          { _exitln(CodeEnv, "[ENV] ", v...) }
func EnvExitf(f string, v ...any) { _exitf(CodeEnv, "[ENV] ", f, v...) }

func _exitln(exitCode int, prefix string, v ...any) {
	fmt.Fprint(os.Stderr, prefix)
	fmt.Fprintln(os.Stderr, v...)
	os.Exit(exitCode)
}
func _exitf(exitCode int, prefix, f string, v ...any) {
	fmt.Fprintf(os.Stderr, prefix+f, v...)
	os.Exit(exitCode)
}
