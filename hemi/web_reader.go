// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Incremental request reader.

package hemi

import (
	"strconv"
	"strings"
)

const ( // reader states
	readerRequestLine = iota // waiting for the request line
	readerHeaders            // reading header lines
	readerBody               // reading content
	readerFinished           // request is complete and validated
	readerFailed             // request is malformed
)

// requestReader parses a request from bytes delivered in arbitrary pieces.
type requestReader struct {
	// Assocs
	request  *Request
	identity *Identity
	// States
	maxHeadSize    int   // max bytes of request line and headers
	maxContentSize int64 // max bytes of content
	// Stream states (zeros)
	state     int8
	lines     lineBuffer
	headSize  int    // bytes of head consumed so far
	lastName  string // header being accumulated
	lastValue string // header being accumulated
	absolute  bool   // request-target was in absolute-form
}

func (r *requestReader) onUse(req *Request, identity *Identity, maxHeadSize int, maxContentSize int64) {
	r.request = req
	r.identity = identity
	r.maxHeadSize = maxHeadSize
	r.maxContentSize = maxContentSize
}
func (r *requestReader) onEnd() {
	r.request = nil
	r.identity = nil
	r.state = readerRequestLine
	r.lines.reset()
	r.headSize = 0
	r.lastName, r.lastValue = "", ""
	r.absolute = false
}

// onData consumes p. It returns done = true once the request is complete and validated. A non-nil err is an *HTTPError and the reader stops.
func (r *requestReader) onData(p []byte) (done bool, err error) {
	if r.state == readerFinished || r.state == readerFailed {
		return r.state == readerFinished, nil
	}
	r.lines.append(p)
	for {
		switch r.state {
		case readerRequestLine:
			done, err = r.readRequestLine()
		case readerHeaders:
			done, err = r.readHeaders()
		case readerBody:
			done, err = r.readBody()
		default:
			return r.state == readerFinished, nil
		}
		if err != nil {
			r.state = readerFailed
			return false, err
		}
		if !done { // need more data
			if r.state != readerBody && r.headSize+r.lines.buffered() > r.maxHeadSize {
				r.state = readerFailed
				return false, NewHTTPError(StatusBadRequest, "head too large")
			}
			return false, nil
		}
		if r.state == readerFinished {
			return true, nil
		}
	}
}

// nextLine returns the next complete head line.
func (r *requestReader) nextLine() (string, bool) {
	line, ok := r.lines.readLine()
	if !ok {
		return "", false
	}
	r.headSize += len(line) + 2
	return string(line), true
}

func (r *requestReader) readRequestLine() (bool, error) {
	var line string
	for { // blank lines before request line are ignored
		text, ok := r.nextLine()
		if !ok {
			return false, nil
		}
		if text != "" {
			line = text
			break
		}
	}
	if r.headSize > r.maxHeadSize {
		return false, NewHTTPError(StatusBadRequest, "request line too long")
	}
	if err := r.parseRequestLine(line); err != nil {
		return false, err
	}
	r.state = readerHeaders
	return true, nil
}
func (r *requestReader) parseRequestLine(line string) error {
	req := r.request
	if line[0] == ' ' || line[0] == '\t' || line[len(line)-1] == ' ' || line[len(line)-1] == '\t' {
		return NewHTTPError(StatusBadRequest, "bad request line")
	}
	tokens := strings.FieldsFunc(line, func(c rune) bool { return c == ' ' || c == '\t' })
	if len(tokens) != 3 {
		return NewHTTPError(StatusBadRequest, "bad request line")
	}
	req.method = tokens[0]

	versionText, ok := strings.CutPrefix(tokens[2], "HTTP/")
	if !ok {
		return NewHTTPError(StatusBadRequest, "no http version")
	}
	version, ok := parseVersion(versionText)
	if !ok {
		return NewHTTPError(StatusBadRequest, "bad http version")
	}
	if !version.AtLeast(Version1_0) {
		return NewHTTPError(StatusNotImplemented, "http version too old")
	}
	if version.Major >= 2 {
		return NewHTTPError(StatusHTTPVersionNotSupported, "http version too new")
	}
	req.version = version // error pages of unsupported versions are sent in 1.1

	target := tokens[1]
	req.target = target
	if target[0] != '/' {
		// No absolute-form in the request line prior to HTTP/1.1
		if !version.AtLeast(Version1_1) {
			return NewHTTPError(StatusBadRequest, "absolute-form in http/1.0")
		}
		path, err := r.parseAbsoluteTarget(target)
		if err != nil {
			return err
		}
		target = path
		r.absolute = true
	}
	if path, query, found := strings.Cut(target, "?"); found {
		req.path, req.queryString = path, query
	} else {
		req.path = target
	}
	if req.path == "" {
		req.path = "/"
	}
	return nil
}

// parseAbsoluteTarget parses "scheme://host[:port][/path]", sets scheme, host and port, and returns the rest.
func (r *requestReader) parseAbsoluteTarget(target string) (string, error) {
	req := r.request
	scheme, rest, ok := strings.Cut(target, "://")
	if !ok {
		return "", NewHTTPError(StatusBadRequest, "bad request-target")
	}
	scheme = strings.ToLower(scheme)
	authority, path := rest, ""
	if i := strings.IndexAny(rest, "/?"); i != -1 {
		authority, path = rest[:i], rest[i:]
	}
	host, portText, hasPort := strings.Cut(authority, ":")
	port := 0
	if hasPort && portText != "" {
		n, err := strconv.Atoi(portText)
		if err != nil || !isDigits(portText) {
			return "", NewHTTPError(StatusBadRequest, "bad port in request-target")
		}
		port = n
	} else {
		switch scheme {
		case "http":
			port = 80
		case "https":
			port = 443
		default:
			return "", NewHTTPError(StatusBadRequest, "unknown scheme")
		}
	}
	if !identityHostRegexp.MatchString(host) || !r.identity.Has(scheme, host, port) {
		return "", NewHTTPError(StatusBadRequest, "unknown location in request-target")
	}
	req.scheme, req.host, req.port = scheme, host, port
	return path, nil
}

func (r *requestReader) readHeaders() (bool, error) {
	for {
		line, ok := r.nextLine()
		if !ok {
			return false, nil
		}
		if r.headSize > r.maxHeadSize {
			return false, NewHTTPError(StatusBadRequest, "head too large")
		}
		if line == "" { // end of headers
			if err := r.commitHeader(); err != nil {
				return false, err
			}
			if err := r.checkContentLength(); err != nil {
				return false, err
			}
			r.state = readerBody
			return true, nil
		}
		if first := line[0]; first == ' ' || first == '\t' { // continuation of last value
			if r.lastName == "" {
				return false, NewHTTPError(StatusBadRequest, "continuation without a header")
			}
			r.lastValue += line // line starts with the required whitespace
			continue
		}
		if err := r.commitHeader(); err != nil {
			return false, err
		}
		colon := strings.IndexByte(line, ':')
		if colon < 1 {
			return false, NewHTTPError(StatusBadRequest, "bad header line")
		}
		r.lastName, r.lastValue = line[:colon], line[colon+1:]
	}
}
func (r *requestReader) commitHeader() error {
	if r.lastName == "" {
		return nil
	}
	name, value := r.lastName, r.lastValue
	r.lastName, r.lastValue = "", ""
	if err := r.request.header.Set(name, value, true); err != nil {
		return NewHTTPError(StatusBadRequest, err.Error())
	}
	return nil
}
func (r *requestReader) checkContentLength() error {
	req := r.request
	value, ok := req.header.Get("content-length")
	if !ok {
		return nil
	}
	if !isDigits(value) {
		return NewHTTPError(StatusBadRequest, "bad content-length")
	}
	size, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return NewHTTPError(StatusBadRequest, "bad content-length")
	}
	if size > r.maxContentSize {
		return NewHTTPError(StatusContentTooLarge, "content too large")
	}
	req.bodyLeft = size
	return nil
}

func (r *requestReader) readBody() (bool, error) {
	req := r.request
	if req.bodyLeft > 0 {
		data := r.lines.purge()
		count := int64(len(data))
		if count > req.bodyLeft { // excess bytes are dropped
			count = req.bodyLeft
		}
		req.body = append(req.body, data[:count]...)
		req.bodyLeft -= count
	}
	if req.bodyLeft > 0 {
		return false, nil
	}
	if err := r.validate(); err != nil {
		return false, err
	}
	r.state = readerFinished
	return true, nil
}

// validate resolves scheme, host and port of the request against the server identity.
func (r *requestReader) validate() error {
	req, identity := r.request, r.identity
	if !req.version.AtLeast(Version1_1) {
		req.scheme, req.host, req.port = identity.Primary()
		return nil
	}
	hostPort, ok := req.header.Get("host")
	if !ok {
		return NewHTTPError(StatusBadRequest, "missing host")
	}
	if r.absolute { // already resolved
		return nil
	}
	host, portText, _ := strings.Cut(hostPort, ":")
	if !identityHostRegexp.MatchString(host) || (portText != "" && !isDigits(portText)) {
		return NewHTTPError(StatusBadRequest, "bad host")
	}
	port := 80
	if portText != "" {
		n, err := strconv.Atoi(portText)
		if err != nil {
			return NewHTTPError(StatusBadRequest, "bad port")
		}
		if n != 0 {
			port = n
		}
	}
	scheme := identity.Scheme(host, port)
	if scheme == "" {
		scheme = identity.Scheme("localhost", port)
	}
	if scheme == "" {
		return NewHTTPError(StatusBadRequest, "unrecognized host")
	}
	req.scheme, req.host, req.port = scheme, host, port
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
