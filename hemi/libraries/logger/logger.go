// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Logger writes logs to files, rotated by day or by hour.

package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hexinfra/httpd/hemi/common/risky"
)

const loggerTimeFormat = "[2006-01-02 15:04:05.000] "

const (
	saveInterval = 97 * time.Millisecond
	tickInterval = 47 * time.Millisecond
	maxQueueSize = 64 << 20 // logs beyond this are dropped until next save
)

// Logger
type Logger struct {
	// States
	filePath string   // file prefix indeed
	rotate   string   // "day", "hour", or "" for no rotation
	cantOpen bool     // failed to open/create the file?
	absPath  string   // absolute file path (with suffix)
	osFile   *os.File // opened file cache for absPath

	mutex    sync.Mutex // protects following queues
	queueOne *logQueue
	queueTwo *logQueue
	qCurrent *logQueue // nil after close
	final    *logQueue // the final queue on close

	nowRWMutex sync.RWMutex
	now        []byte

	quit chan struct{} // closed on close
	done chan struct{} // closed when saver exits
	once sync.Once
}

// New creates a logger writing to filePath with a rotation suffix.
func New(filePath string, rotate string) *Logger {
	l := new(Logger)
	l.filePath = filePath
	l.rotate = rotate
	l.queueOne = new(logQueue)
	l.queueTwo = new(logQueue)
	l.qCurrent = l.queueOne
	l.now = make([]byte, 0, len(loggerTimeFormat))
	l.quit = make(chan struct{})
	l.done = make(chan struct{})
	l.setTime()
	go l.ticker()
	go l.saver()
	return l
}

func (l *Logger) setTime() {
	t := time.Now()
	l.nowRWMutex.Lock()
	l.now = t.AppendFormat(l.now[:0], loggerTimeFormat)
	l.nowRWMutex.Unlock()
}
func (l *Logger) ticker() { // runner
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-l.quit:
			return
		case <-ticker.C:
			l.setTime()
		}
	}
}

func (l *Logger) Log(s string)   { l.log(s, false) }
func (l *Logger) Logln(s string) { l.log(s, true) }
func (l *Logger) Logf(f string, v ...any) {
	s := fmt.Sprintf(f, v...)
	l.log(s, len(s) == 0 || s[len(s)-1] != '\n')
}

// Write implements io.Writer. p is logged as is, without time prefix.
func (l *Logger) Write(p []byte) (int, error) {
	l.mutex.Lock()
	if l.qCurrent != nil {
		l.qCurrent.log(risky.WeakString(p))
	}
	l.mutex.Unlock()
	return len(p), nil
}

func (l *Logger) log(s string, newline bool) {
	l.mutex.Lock()
	if q := l.qCurrent; q != nil {
		l.nowRWMutex.RLock()
		q.log(risky.WeakString(l.now))
		l.nowRWMutex.RUnlock()
		q.log(s)
		if newline {
			q.log("\n")
		}
	}
	l.mutex.Unlock()
}

func (l *Logger) saver() { // runner
	defer close(l.done)
	ticker := time.NewTicker(saveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
		case <-l.quit:
		}

		// Switch current queue between queue one and queue two
		var dirty *logQueue
		l.mutex.Lock()
		switch l.qCurrent {
		case l.queueOne:
			l.qCurrent, dirty = l.queueTwo, l.queueOne
		case l.queueTwo:
			l.qCurrent, dirty = l.queueOne, l.queueTwo
		}
		final := l.final
		l.mutex.Unlock()

		if dirty == nil { // closed
			l.save(final)
			if l.osFile != nil {
				l.osFile.Close()
				l.osFile, l.absPath = nil, ""
			}
			return
		}
		if !dirty.isEmpty() {
			l.save(dirty)
		}
	}
}

func (l *Logger) save(queue *logQueue) {
	if l.cantOpen || queue == nil {
		return
	}
	absPath := l.filePath
	switch l.rotate {
	case "day":
		absPath += "." + time.Now().Format("2006-01-02")
	case "hour":
		absPath += "." + time.Now().Format("2006-01-02.15")
	}
	if l.absPath != absPath {
		if l.osFile != nil {
			l.osFile.Close()
		}
		file, err := os.OpenFile(absPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			l.cantOpen = true
			return
		}
		l.absPath = absPath
		l.osFile = file
	}
	queue.saveTo(l.osFile)
}

// Close flushes pending logs and closes the file. Logs after close are dropped.
func (l *Logger) Close() {
	l.once.Do(func() {
		l.mutex.Lock()
		l.final = l.qCurrent
		l.qCurrent = nil
		l.mutex.Unlock()
		close(l.quit)
		<-l.done
	})
}

// logQueue
type logQueue struct {
	logs []byte
}

func (q *logQueue) isEmpty() bool { return len(q.logs) == 0 }
func (q *logQueue) log(s string) {
	if len(q.logs)+len(s) > maxQueueSize {
		return
	}
	q.logs = append(q.logs, s...)
}
func (q *logQueue) saveTo(file *os.File) {
	if len(q.logs) == 0 {
		return
	}
	file.Write(q.logs)
	file.Sync()
	if cap(q.logs) > 1<<20 { // shrink after a burst
		q.logs = nil
	} else {
		q.logs = q.logs[:0]
	}
}
