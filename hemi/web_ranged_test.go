// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package hemi

import (
	"bytes"
	"testing"
	"time"
)

func newTestFile(size int) *memFile {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte('a' + i%26)
	}
	return &memFile{Reader: bytes.NewReader(data), modTime: time.Unix(1700000000, 0)}
}

func TestSliceFile(t *testing.T) {
	tests := []struct {
		header string
		start  int64
		end    int64
		ranged bool
		bad    bool
	}{
		{"", 0, 99, false, false},
		{"bytes=10-19", 10, 19, true, false},
		{"bytes=-10", 90, 99, true, false},
		{"bytes=-200", 0, 99, true, false},
		{"bytes=50-", 50, 99, true, false},
		{"bytes=90-200", 90, 99, true, false},
		{"bytes=-", 0, 99, true, false},
		{"bytes=0-0", 0, 0, true, false},
		{"items=1-2", 0, 99, true, false},     // malformed, whole file
		{"bytes=1-2,5-6", 0, 99, true, false}, // multiple ranges are not supported
		{"bytes=100-", 0, 0, true, true},
		{"bytes=20-10", 0, 0, true, true},
		{"bytes=-0", 0, 0, true, true},
	}
	for i, test := range tests {
		f, err := sliceFile(test.header, newTestFile(100))
		if test.bad {
			if err != ErrRangeNotSatisfiable {
				t.Errorf("#%d: err=%v, expect=%v", i, err, ErrRangeNotSatisfiable)
			}
			continue
		}
		if err != nil {
			t.Errorf("#%d: err=%v", i, err)
			continue
		}
		if f.Start() != test.start || f.End() != test.end || f.Ranged() != test.ranged || f.Size() != 100 {
			t.Errorf("#%d: recv=(%d,%d,%v), expect=(%d,%d,%v)", i, f.Start(), f.End(), f.Ranged(), test.start, test.end, test.ranged)
		}
	}
}

func TestSliceFileContent(t *testing.T) {
	f, err := sliceFile("bytes=10-19", newTestFile(100))
	if err != nil {
		t.Fatal(err)
	}
	data, err := f.ReadAll()
	if err != nil || string(data) != "klmnopqrst" {
		t.Errorf("data=%q err=%v", data, err)
	}
	if f.Len() != 10 || f.ContentRange() != "bytes 10-19/100" {
		t.Errorf("len=%d contentRange=%q", f.Len(), f.ContentRange())
	}
}

func TestSliceEmptyFile(t *testing.T) {
	f, err := sliceFile("", newTestFile(0))
	if err != nil || f.Len() != 0 {
		t.Errorf("empty file: len=%v err=%v", f, err)
	}
	if _, err := sliceFile("bytes=0-", newTestFile(0)); err != ErrRangeNotSatisfiable {
		t.Errorf("ranged empty file: err=%v", err)
	}
}

func TestContentTypeOf(t *testing.T) {
	tests := []struct {
		path   string
		expect string
	}{
		{"index.html", "text/html"},
		{"a/b/c.HTM", "text/html"},
		{"style.css", "text/css"},
		{"app.js", "text/javascript"},
		{"movie.3gp", "video/3gpp"},
		{"movie.3g2", "video/3gpp2"},
		{"clip.ogv", "video/ogg"},
		{"photo.JPG", "image/jpeg"},
		{"readme.txt", "text/plain"},
		{"archive.tar.gz", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}
	for i, test := range tests {
		if contentType := contentTypeOf(test.path); contentType != test.expect {
			t.Errorf("#%d: recv=%q, expect=%q", i, contentType, test.expect)
		}
	}
}
