// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// HTTP versions and incoming requests.

package hemi

import (
	"net"
	"strconv"
)

// HTTPVersion is an HTTP version like 1.1.
type HTTPVersion struct {
	Major int
	Minor int
}

var (
	Version1_0 = HTTPVersion{1, 0}
	Version1_1 = HTTPVersion{1, 1}
)

// parseVersion parses "1.1" like text.
func parseVersion(text string) (HTTPVersion, bool) {
	dot := -1
	for i := 0; i < len(text); i++ {
		if b := text[i]; b == '.' {
			if dot != -1 {
				return HTTPVersion{}, false
			}
			dot = i
		} else if b < '0' || b > '9' {
			return HTTPVersion{}, false
		}
	}
	if dot <= 0 || dot == len(text)-1 {
		return HTTPVersion{}, false
	}
	major, err1 := strconv.Atoi(text[:dot])
	minor, err2 := strconv.Atoi(text[dot+1:])
	if err1 != nil || err2 != nil {
		return HTTPVersion{}, false
	}
	return HTTPVersion{major, minor}, true
}

func (v HTTPVersion) AtLeast(other HTTPVersion) bool {
	return v.Major > other.Major || v.Major == other.Major && v.Minor >= other.Minor
}
func (v HTTPVersion) String() string { return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) }

// Request is an incoming request. It is owned by its connection and is valid until the exchange ends.
type Request struct {
	// Assocs
	conn *serverConn
	// Stream states (zeros)
	method      string
	target      string      // raw request-target
	path        string      // never empty
	queryString string      // without '?'
	version     HTTPVersion // 1.1 until the request line is parsed
	scheme      string      // resolved after validation
	host        string      // resolved after validation
	port        int         // resolved after validation
	header      Header
	body        []byte
	bodyLeft    int64 // bytes of body still expected
}

func (r *Request) onUse() {
	r.version = Version1_1
}
func (r *Request) onEnd() {
	r.method, r.target, r.path, r.queryString = "", "", "", ""
	r.scheme, r.host, r.port = "", "", 0
	r.header.reset()
	r.body = r.body[:0]
	r.bodyLeft = 0
}

func (r *Request) Method() string       { return r.method }
func (r *Request) Target() string       { return r.target }
func (r *Request) Path() string         { return r.path }
func (r *Request) QueryString() string  { return r.queryString }
func (r *Request) Version() HTTPVersion { return r.version }
func (r *Request) Scheme() string       { return r.scheme }
func (r *Request) Host() string         { return r.host }
func (r *Request) Port() int            { return r.port }
func (r *Request) Body() []byte         { return r.body }
func (r *Request) Header() *Header      { return &r.header }
func (r *Request) IsHEAD() bool         { return r.method == "HEAD" }

// RemoteAddr returns the address of the client, or nil if the request is detached.
func (r *Request) RemoteAddr() net.Addr {
	if r.conn == nil || r.conn.netConn == nil {
		return nil
	}
	return r.conn.remoteAddr()
}

// HasHeader reports whether the request has a header.
func (r *Request) HasHeader(name string) bool { return r.header.Has(name) }

// GetHeader returns a header value. Multiple values are joined with "\n".
func (r *Request) GetHeader(name string) (string, bool) { return r.header.Get(name) }
