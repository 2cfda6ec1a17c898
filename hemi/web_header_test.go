// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package hemi

import (
	"testing"
)

func TestHeaderMerge(t *testing.T) {
	var h Header
	h.Set("Accept", "text/html", true)
	h.Set("ACCEPT", "text/plain", true)
	h.Set("Set-Cookie", "a=1", true)
	h.Set("set-cookie", "b=2", true)
	h.Set("X-Once", "1", false)
	h.Set("x-once", "2", false)
	tests := []struct {
		name   string
		expect string
	}{
		{"accept", "text/html,text/plain"},
		{"Set-Cookie", "a=1\nb=2"},
		{"X-ONCE", "2"},
	}
	for i, test := range tests {
		if value, ok := h.Get(test.name); !ok || value != test.expect {
			t.Errorf("#%d: recv=(%q,%v), expect=%q", i, value, ok, test.expect)
		}
	}
	if values := h.Values("set-cookie"); len(values) != 2 {
		t.Errorf("set-cookie values=%v", values)
	}
	if h.Len() != 3 {
		t.Errorf("len=%d", h.Len())
	}
	var names []string
	h.Range(func(name string, values []string) bool {
		names = append(names, name)
		return true
	})
	if len(names) != 3 || names[0] != "accept" || names[1] != "set-cookie" || names[2] != "x-once" {
		t.Errorf("names=%v", names)
	}
	h.Del("ACCEPT")
	if h.Has("accept") || h.Len() != 2 {
		t.Error("del failed")
	}
	h.reset()
	if h.Len() != 0 || h.Has("x-once") {
		t.Error("reset failed")
	}
}

func TestNormalizeFieldValue(t *testing.T) {
	tests := []struct {
		value  string
		expect string
		bad    bool
	}{
		{"  text/html  ", "text/html", false},
		{"a \t b", "a b", false},
		{"a\r\n b", "a b", false},
		{"", "", false},
		{" \t ", "", false},
		{"a\x01b", "", true},
		{"a\x7fb", "", true},
		{"a\nb", "", true},
	}
	for i, test := range tests {
		value, err := normalizeFieldValue(test.value)
		if (err != nil) != test.bad || value != test.expect {
			t.Errorf("#%d: recv=(%q,%v), expect=%q", i, value, err, test.expect)
		}
	}
}

func TestNormalizeFieldName(t *testing.T) {
	tests := []struct {
		name   string
		expect string
		bad    bool
	}{
		{"Content-Length", "content-length", false},
		{"x_y", "x_y", false},
		{"", "", true},
		{"bad name", "", true},
		{"bad:name", "", true},
		{"bad\x00", "", true},
	}
	for i, test := range tests {
		name, err := normalizeFieldName(test.name)
		if (err != nil) != test.bad || name != test.expect {
			t.Errorf("#%d: recv=(%q,%v), expect=%q", i, name, err, test.expect)
		}
	}
	var h Header
	if err := h.Set("bad name", "x", true); err == nil {
		t.Error("bad name accepted")
	}
}
