// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package hemi

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestDir(t *testing.T) string {
	dir := t.TempDir()
	files := map[string]string{
		"small.txt":     "small",
		"large.bin":     strings.Repeat("L", 300),
		"sub/page.html": "<p>page</p>",
	}
	for name, text := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func readTestFile(t *testing.T, file File) string {
	data := make([]byte, file.Size())
	if _, err := file.ReadAt(data, 0); err != nil && err != io.EOF {
		t.Fatal(err)
	}
	return string(data)
}

func TestDirStore(t *testing.T) {
	dir := newTestDir(t)
	for _, smallFileSize := range []int64{0, 100} {
		store := NewDirStore(dir, smallFileSize, time.Minute)
		tests := []struct {
			path   string
			expect string
			status int16
		}{
			{"small.txt", "small", 0},
			{"/small.txt", "small", 0},
			{"large.bin", strings.Repeat("L", 300), 0},
			{"sub/page.html", "<p>page</p>", 0},
			{"sub/../small.txt", "small", 0},
			{"sub", "", StatusNotFound},
			{"none.txt", "", StatusNotFound},
			{"", "", StatusNotFound},
			{"../etc/passwd", "", StatusForbidden},
			{"sub/../../etc/passwd", "", StatusForbidden},
		}
		for i, test := range tests {
			for round := 0; round < 2; round++ { // the second round hits the cache
				file, err := store.Open(test.path)
				if test.status != 0 {
					if httpErr, ok := asHTTPError(err); !ok || httpErr.Status != test.status {
						t.Errorf("size=%d #%d: err=%v, expect status=%d", smallFileSize, i, err, test.status)
					}
					continue
				}
				if err != nil {
					t.Errorf("size=%d #%d: err=%v", smallFileSize, i, err)
					continue
				}
				if text := readTestFile(t, file); text != test.expect {
					t.Errorf("size=%d #%d: recv=%q, expect=%q", smallFileSize, i, text, test.expect)
				}
				file.Close()
			}
		}
	}
}

func TestDirStoreLargeRefs(t *testing.T) {
	dir := newTestDir(t)
	store := NewDirStore(dir, 100, time.Minute)
	f1, err := store.Open("large.bin")
	if err != nil {
		t.Fatal(err)
	}
	f2, err := store.Open("large.bin")
	if err != nil {
		t.Fatal(err)
	}
	entry := f1.(*entryFile).entry
	if entry != f2.(*entryFile).entry {
		t.Fatal("large file is not shared")
	}
	if n := entry.nRef.Load(); n != 3 {
		t.Errorf("nRef=%d, expect=3", n)
	}
	f1.Close()
	f1.Close() // closing twice is harmless
	store.Clear()
	if n := entry.nRef.Load(); n != 1 {
		t.Errorf("nRef=%d, expect=1", n)
	}
	// Still readable until the last user closes it
	if text := readTestFile(t, f2); len(text) != 300 {
		t.Errorf("len=%d", len(text))
	}
	f2.Close()
	if n := entry.nRef.Load(); n != 0 {
		t.Errorf("nRef=%d, expect=0", n)
	}
}

func TestDirStoreExpire(t *testing.T) {
	dir := newTestDir(t)
	store := NewDirStore(dir, 100, time.Millisecond)
	file, err := store.Open("small.txt")
	if err != nil {
		t.Fatal(err)
	}
	file.Close()
	if err := os.WriteFile(filepath.Join(dir, "small.txt"), []byte("changed"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	file, err = store.Open("small.txt")
	if err != nil {
		t.Fatal(err)
	}
	if text := readTestFile(t, file); text != "changed" {
		t.Errorf("recv=%q, expect=%q", text, "changed")
	}
}

func TestFSStore(t *testing.T) {
	store := NewFSStore(os.DirFS(newTestDir(t)), testModTime)
	file, err := store.Open("sub/page.html")
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if !file.ModTime().Equal(testModTime) {
		t.Errorf("modTime=%v, expect=%v", file.ModTime(), testModTime)
	}
	if text := readTestFile(t, file); text != "<p>page</p>" {
		t.Errorf("recv=%q", text)
	}
	if _, err := store.Open("../x"); err != ErrForbidden {
		t.Errorf("err=%v, expect=%v", err, ErrForbidden)
	}
}
