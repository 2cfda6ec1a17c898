// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package hemi

import (
	"errors"
	"testing"
)

func namedHandler(name string, calls *[]string) Handler {
	return func(req *Request, resp *Response, done func(err error)) {
		*calls = append(*calls, name)
		done(nil)
	}
}

func TestRegistryLookup(t *testing.T) {
	var r handlerRegistry
	r.onCreate("index.html", 1<<20)
	var calls []string
	r.RegisterPathHandler("/api/heartbeat", namedHandler("heartbeat", &calls))
	r.RegisterPrefixHandler("/", namedHandler("root", &calls))
	r.RegisterPrefixHandler("/a/", namedHandler("a", &calls))
	r.RegisterPrefixHandler("/a/b/", namedHandler("ab", &calls))
	tests := []struct {
		path   string
		expect string // "" means forbidden
	}{
		{"/api/heartbeat", "heartbeat"},
		{"/api/heartbeat/", "root"},
		{"/a/b/c", "ab"},
		{"/a/b/", "ab"},
		{"/a/b", "a"},
		{"/a/", "a"},
		{"/a", "root"},
		{"/", "root"},
	}
	for i, test := range tests {
		calls = calls[:0]
		handler := r.lookup(test.path)
		if handler == nil {
			t.Errorf("#%d: no handler for %s", i, test.path)
			continue
		}
		handler(nil, nil, func(error) {})
		if len(calls) != 1 || calls[0] != test.expect {
			t.Errorf("#%d: recv=%v, expect=%s", i, calls, test.expect)
		}
	}

	r.RegisterPrefixHandler("/", nil)
	if r.lookup("/x") != nil {
		t.Error("removed prefix handler still matches")
	}
	r.RegisterPathHandler("/api/heartbeat", nil)
	if r.lookup("/api/heartbeat") != nil {
		t.Error("removed path handler still matches")
	}
}

func TestRegistryValidate(t *testing.T) {
	var r handlerRegistry
	r.onCreate("index.html", 1<<20)
	h := func(req *Request, resp *Response, done func(err error)) { done(nil) }
	tests := []struct {
		err    error
		expect error
	}{
		{r.RegisterPathHandler("api", h), errBadPath},
		{r.RegisterPathHandler("", h), errBadPath},
		{r.RegisterPrefixHandler("/a", h), errBadPrefix},
		{r.RegisterPrefixHandler("a/", h), errBadPrefix},
		{r.RegisterErrorHandler(1000, nil), errBadStatus},
		{r.Get("/x", Target{}), errBadTarget},
		{r.Get("/x", Dir(newTestStore())), errBadPrefix},
		{r.Get("/x/", Dir(newTestStore())), nil},
		{r.Get("/x", Func(h)), nil},
	}
	for i, test := range tests {
		if test.err != test.expect {
			t.Errorf("#%d: recv=%v, expect=%v", i, test.err, test.expect)
		}
	}
}

func TestRegistryErrorHandler(t *testing.T) {
	var r handlerRegistry
	r.onCreate("index.html", 1<<20)
	if r.errorHandler(StatusNotFound) == nil || r.errorHandler(418) != nil {
		t.Fatal("default error handlers")
	}
	custom := func(req *Request, resp *Response) error { return errors.New("custom") }
	r.RegisterErrorHandler(418, custom)
	if handler := r.errorHandler(418); handler == nil || handler(nil, nil) == nil {
		t.Error("override is not used")
	}
	r.RegisterErrorHandler(418, nil)
	if r.errorHandler(418) != nil {
		t.Error("override is not removed")
	}
}

func TestErrorChain(t *testing.T) {
	tests := []struct {
		status int16
		expect []int16
	}{
		{404, []int16{404, 400, 500}},
		{400, []int16{400, 500}},
		{416, []int16{416, 400, 500}},
		{500, []int16{500}},
		{505, []int16{505, 500}},
		{302, []int16{302, 300, 500}},
	}
	for i, test := range tests {
		chain := errorChain(test.status)
		if len(chain) != len(test.expect) {
			t.Errorf("#%d: recv=%v, expect=%v", i, chain, test.expect)
			continue
		}
		for j := range chain {
			if chain[j] != test.expect[j] {
				t.Errorf("#%d: recv=%v, expect=%v", i, chain, test.expect)
				break
			}
		}
	}
}

func TestCallHandlerPanic(t *testing.T) {
	panicking := func(req *Request, resp *Response, done func(err error)) { panic("boom") }
	if err := callHandler(panicking, nil, nil, func(error) {}); err == nil {
		t.Error("panic is not recovered")
	}
	panickingError := func(req *Request, resp *Response) error { panic("boom") }
	if err := callErrorHandler(panickingError, nil, nil); err == nil {
		t.Error("panic is not recovered")
	}
}
