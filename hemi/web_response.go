// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Outgoing responses.

package hemi

import (
	"errors"
	"strconv"
)

const ( // response states
	responsePending = iota // status line and headers are mutable
	responseSent           // head is sent, body is being sent
	responseEnded          // nothing can be done any more
)

var (
	errResponseSent  = errors.New("response is already sent")
	errResponseEnded = errors.New("response is already ended")
	errBadStatus     = errors.New("status must be in [0, 999]")
	errBadReason     = errors.New("description contains control characters")
)

// Response is an outgoing response. It is owned by its connection and is valid until the exchange ends.
type Response struct {
	// Stream states (zeros)
	version     HTTPVersion
	status      int16
	description string
	header      Header
	body        []byte      // body in memory
	file        *RangedFile // body in file, used if not nil
	state       int8        // see response states
}

func (r *Response) onUse() {
	r.version = Version1_1
	r.status = StatusOK
	r.description = "OK"
}
func (r *Response) onEnd() {
	r.header.reset()
	r.body = r.body[:0]
	r.releaseFile()
	r.state = responsePending
}

func (r *Response) Version() HTTPVersion { return r.version }
func (r *Response) Status() int16        { return r.status }
func (r *Response) Description() string  { return r.description }
func (r *Response) Sent() bool           { return r.state >= responseSent }
func (r *Response) Ended() bool          { return r.state == responseEnded }

func (r *Response) checkMutable() error {
	switch r.state {
	case responseSent:
		return errResponseSent
	case responseEnded:
		return errResponseEnded
	}
	return nil
}

// SetStatusLine sets version, status and description atomically.
func (r *Response) SetStatusLine(version HTTPVersion, status int16, description string) error {
	if err := r.checkMutable(); err != nil {
		return err
	}
	if status < 0 || status > 999 {
		return errBadStatus
	}
	for i := 0; i < len(description); i++ {
		if b := description[i]; (b < 0x20 && b != '\t') || b == 0x7f {
			return errBadReason
		}
	}
	r.version, r.status, r.description = version, status, description
	return nil
}

// SetStatus sets status with its standard description, keeping the version.
func (r *Response) SetStatus(status int16) error {
	return r.SetStatusLine(r.version, status, StatusText(status))
}

// SetHeader sets a header. With merge, the value is appended to existing values, otherwise it replaces them.
func (r *Response) SetHeader(name string, value string, merge bool) error {
	if err := r.checkMutable(); err != nil {
		return err
	}
	return r.header.Set(name, value, merge)
}
func (r *Response) DelHeader(name string) error {
	if err := r.checkMutable(); err != nil {
		return err
	}
	r.header.Del(name)
	return nil
}
func (r *Response) HasHeader(name string) bool           { return r.header.Has(name) }
func (r *Response) GetHeader(name string) (string, bool) { return r.header.Get(name) }
func (r *Response) HeaderValues(name string) []string    { return r.header.Values(name) }

// Write appends p to the body in memory.
func (r *Response) Write(p []byte) (int, error) {
	if r.state == responseEnded {
		return 0, errResponseEnded
	}
	if r.file != nil {
		return 0, errors.New("response body is a file")
	}
	r.body = append(r.body, p...)
	return len(p), nil
}
func (r *Response) WriteString(s string) (int, error) {
	if r.state == responseEnded {
		return 0, errResponseEnded
	}
	if r.file != nil {
		return 0, errors.New("response body is a file")
	}
	r.body = append(r.body, s...)
	return len(s), nil
}

// Body returns the body in memory.
func (r *Response) Body() []byte { return r.body }

// setFile makes file the body. The response owns file from now on.
func (r *Response) setFile(file *RangedFile) {
	r.releaseFile()
	r.body = r.body[:0]
	r.file = file
}
func (r *Response) releaseFile() {
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}
}

// contentSize returns the number of body bytes.
func (r *Response) contentSize() int64 {
	if r.file != nil {
		return r.file.Len()
	}
	return int64(len(r.body))
}

// head serializes the status line and headers. Server and Date are added if absent.
func (r *Response) head(server string, date string) []byte {
	if !r.header.Has("server") {
		r.header.set("server", server, false)
	}
	if !r.header.Has("date") {
		r.header.set("date", date, false)
	}
	r.header.set("content-length", strconv.FormatInt(r.contentSize(), 10), false)

	head := make([]byte, 0, 256)
	head = append(head, "HTTP/"...)
	head = append(head, r.version.String()...)
	head = append(head, ' ')
	if r.status < 100 {
		head = append(head, '0')
		if r.status < 10 {
			head = append(head, '0')
		}
	}
	head = strconv.AppendInt(head, int64(r.status), 10)
	head = append(head, ' ')
	head = append(head, r.description...)
	head = append(head, bytesCRLF...)
	r.header.Range(func(name string, values []string) bool {
		for _, value := range values {
			head = append(head, name...)
			head = append(head, ": "...)
			head = append(head, value...)
			head = append(head, bytesCRLF...)
		}
		return true
	})
	head = append(head, bytesCRLF...)
	return head
}
