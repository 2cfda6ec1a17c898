// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package hemi

import (
	"testing"
)

func TestIdentityInitialize(t *testing.T) {
	i := NewIdentity()
	if _, _, port := i.Primary(); port != -1 {
		t.Fatalf("primary port=%d before initialize", port)
	}
	i.Initialize(3000, "localhost", true)
	if scheme, host, port := i.Primary(); scheme != "http" || host != "localhost" || port != 3000 {
		t.Errorf("primary=%s://%s:%d", scheme, host, port)
	}
	tests := []struct {
		host   string
		port   int
		expect string
	}{
		{"localhost", 3000, "http"},
		{"127.0.0.1", 3000, "http"},
		{"LocalHost", 3000, "http"},
		{"localhost", 80, ""},
		{"example.com", 3000, ""},
		{"bad_host", 3000, ""},
	}
	for n, test := range tests {
		if scheme := i.Scheme(test.host, test.port); scheme != test.expect {
			t.Errorf("#%d: recv=%q, expect=%q", n, scheme, test.expect)
		}
	}

	i.Teardown()
	if _, _, port := i.Primary(); port != -1 {
		t.Errorf("primary port=%d after teardown", port)
	}
	if i.Has("http", "localhost", 3000) || i.Has("http", "127.0.0.1", 3000) {
		t.Error("locations left after teardown")
	}
}

func TestIdentityReelect(t *testing.T) {
	i := NewIdentity()
	i.Initialize(3000, "localhost", true)
	if err := i.SetPrimary("https", "example.com", 443); err != nil {
		t.Fatal(err)
	}
	if scheme, host, port := i.Primary(); scheme != "https" || host != "example.com" || port != 443 {
		t.Fatalf("primary=%s://%s:%d", scheme, host, port)
	}
	if ok, err := i.Remove("http", "example.com", 443); ok || err != nil {
		t.Errorf("removed a location of another scheme: ok=%v err=%v", ok, err)
	}
	if ok, err := i.Remove("https", "example.com", 443); !ok || err != nil {
		t.Fatalf("remove primary: ok=%v err=%v", ok, err)
	}
	// A new primary is elected at the default port
	scheme, host, port := i.Primary()
	if port != 3000 || scheme != "http" || host != "localhost" {
		t.Errorf("reelected primary=%s://%s:%d", scheme, host, port)
	}
	if ok, _ := i.Remove("http", "nowhere.com", 1); ok {
		t.Error("removed an absent location")
	}
}

func TestIdentityValidate(t *testing.T) {
	i := NewIdentity()
	tests := []struct {
		scheme string
		host   string
		port   int
		ok     bool
	}{
		{"http", "example.com", 80, true},
		{"https", "a-b.example.com", 443, true},
		{"http", "10.0.0.1", 8080, true},
		{"HTTP", "Example.COM", 0, false},
		{"ftp", "example.com", 21, false},
		{"http", "example.com", 65536, false},
		{"http", "example.com", -1, false},
		{"http", "-example.com", 80, false},
		{"http", "example-.com", 80, false},
		{"http", "1example", 80, false},
		{"http", "", 80, false},
	}
	for n, test := range tests {
		err := i.Add(test.scheme, test.host, test.port)
		if (err == nil) != test.ok {
			t.Errorf("#%d: recv=%v, expect ok=%v", n, err, test.ok)
		}
		if test.ok && !i.Has(test.scheme, test.host, test.port) {
			t.Errorf("#%d: added location is missing", n)
		}
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		text   string
		expect Location
		ok     bool
	}{
		{"http://example.local:3000", Location{"http", "example.local", 3000}, true},
		{"https://Example.Local", Location{"https", "example.local", 443}, true},
		{"http://example.local", Location{"http", "example.local", 80}, true},
		{"example.local:3000", Location{}, false},
		{"http://example.local:x", Location{}, false},
		{"gopher://example.local", Location{}, false},
	}
	for i, test := range tests {
		location, err := ParseLocation(test.text)
		if (err == nil) != test.ok || location != test.expect {
			t.Errorf("#%d: recv=(%v,%v), expect=%v", i, location, err, test.expect)
		}
	}
	if s := (Location{"http", "a.b", 80}).String(); s != "http://a.b:80" {
		t.Errorf("string=%q", s)
	}
}
