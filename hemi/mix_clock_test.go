// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package hemi

import (
	"testing"
	"time"
)

func TestClockParseHTTPDate(t *testing.T) {
	tests := []struct {
		date   string
		unix   int64
		expect bool
	}{
		{"Sun, 06 Nov 1994 08:49:37 GMT", 784111777, true},
		{"Sunday, 06-Nov-94 08:49:37 GMT", 784111777, true},
		{"Sun Nov  6 08:49:37 1994", 784111777, true},
		{"Sun, 06 Nov 1994 08:49:37", 0, false},
		{"Sun, 31 Feb 1994 08:49:37 GMT", 0, false},
		{"", 0, false},
	}
	for i, test := range tests {
		unix, ok := clockParseHTTPDate(test.date)
		if ok != test.expect || unix != test.unix {
			t.Errorf("#%d: recv=(%d,%v), expect=(%d,%v)", i, unix, ok, test.unix, test.expect)
		}
	}
}

func TestClockDate(t *testing.T) {
	var c clock
	if date := c.Date(); len(date) != len(clockHTTPDate) {
		t.Errorf("date=%q before start", date)
	}
	c.start(10 * time.Millisecond)
	defer c.stop()
	date := c.Date()
	if _, ok := clockParseHTTPDate(date); !ok {
		t.Errorf("date=%q is not an http date", date)
	}
	if got := clockFormatHTTPDate(time.Unix(784111777, 0)); got != "Sun, 06 Nov 1994 08:49:37 GMT" {
		t.Errorf("format=%q", got)
	}
}
