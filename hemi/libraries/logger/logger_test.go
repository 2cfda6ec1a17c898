// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerFlushOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "access.log")
	l := New(path, "")
	l.Logf("GET %s %d", "/a", 200)
	l.Logln("second")
	l.Write([]byte("raw\n"))
	l.Close()
	l.Logln("dropped")
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"GET /a 200\n", "second\n", "raw\n"} {
		if !strings.Contains(text, want) {
			t.Errorf("log=%q, missing %q", text, want)
		}
	}
	if strings.Contains(text, "dropped") {
		t.Errorf("log=%q, logged after close", text)
	}
	if !strings.HasPrefix(text, "[") {
		t.Errorf("log=%q, missing time prefix", text)
	}
}

func TestLoggerRotateByDay(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "error.log")
	l := New(prefix, "day")
	l.Logln("hello")
	l.Close()

	path := prefix + "." + time.Now().Format("2006-01-02")
	if _, err := os.Stat(path); err != nil {
		// The day may have just changed.
		matches, _ := filepath.Glob(prefix + ".*")
		if len(matches) != 1 {
			t.Errorf("rotated files=%v, expect one", matches)
		}
	}
}
