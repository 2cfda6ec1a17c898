// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Loggers log events.

package hemi

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hexinfra/httpd/hemi/libraries/logger"
)

// Logger
type Logger interface {
	Logf(f string, v ...any)
	Close()
}

// LogConfig is passed to the server at construction.
type LogConfig struct {
	Kind       string    // "noop", "console", "file", ...
	Target     string    // "/path/to/file.log" for file loggers
	Rotate     string    // "day", "hour", or "" for file loggers
	Sink       io.Writer // output of console loggers. os.Stderr if nil
	DumpInput  bool      // log raw request heads?
	DumpOutput bool      // log raw response heads?
}

var (
	loggersLock    sync.RWMutex
	loggerCreators = make(map[string]func(config *LogConfig) (Logger, error)) // indexed by loggerSign
)

func RegisterLogger(loggerSign string, create func(config *LogConfig) (Logger, error)) {
	loggersLock.Lock()
	defer loggersLock.Unlock()

	if _, ok := loggerCreators[loggerSign]; ok {
		BugExitln("logger conflicts")
	}
	loggerCreators[loggerSign] = create
}
func loggerRegistered(loggerSign string) bool {
	loggersLock.RLock()
	_, ok := loggerCreators[loggerSign]
	loggersLock.RUnlock()
	return ok
}
func createLogger(config *LogConfig) (Logger, error) {
	loggerSign := config.Kind
	if loggerSign == "" {
		loggerSign = "noop"
	}
	loggersLock.RLock()
	create := loggerCreators[loggerSign]
	loggersLock.RUnlock()

	if create == nil {
		return nil, fmt.Errorf("unknown logger: %s", loggerSign)
	}
	return create(config)
}

func init() {
	RegisterLogger("noop", func(config *LogConfig) (Logger, error) {
		return noopLogger{}, nil
	})
	RegisterLogger("console", func(config *LogConfig) (Logger, error) {
		l := new(consoleLogger)
		l.sink = config.Sink
		if l.sink == nil {
			l.sink = os.Stderr
		}
		return l, nil
	})
	RegisterLogger("file", func(config *LogConfig) (Logger, error) {
		if config.Target == "" {
			return nil, fmt.Errorf("file logger needs a target")
		}
		return fileLogger{logger.New(config.Target, config.Rotate)}, nil
	})
}

// noopLogger
type noopLogger struct{}

func (noopLogger) Logf(f string, v ...any) {}
func (noopLogger) Close()                  {}

// consoleLogger writes logs to a sink, one line per log.
type consoleLogger struct {
	mutex sync.Mutex
	sink  io.Writer
}

func (l *consoleLogger) Logf(f string, v ...any) {
	s := fmt.Sprintf(f, v...)
	if len(s) == 0 || s[len(s)-1] != '\n' {
		s += "\n"
	}
	l.mutex.Lock()
	io.WriteString(l.sink, s)
	l.mutex.Unlock()
}
func (l *consoleLogger) Close() {}

// fileLogger
type fileLogger struct {
	*logger.Logger
}
