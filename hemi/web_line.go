// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Line buffer for incoming request heads.

package hemi

import (
	"bytes"
)

// lineBuffer accumulates raw bytes and yields CRLF terminated lines.
type lineBuffer struct {
	// States
	data []byte // buffered bytes, data[start:] are not consumed yet
	from int    // start of unconsumed bytes
}

func (b *lineBuffer) append(p []byte) {
	if b.from > 0 && b.from == len(b.data) { // all consumed, reuse
		b.data, b.from = b.data[:0], 0
	} else if b.from > 4096 && b.from > len(b.data)/2 { // compact
		n := copy(b.data, b.data[b.from:])
		b.data, b.from = b.data[:n], 0
	}
	b.data = append(b.data, p...)
}

// readLine returns the next line without its CRLF. ok is false if no complete line is buffered, in which case nothing is consumed.
func (b *lineBuffer) readLine() (line []byte, ok bool) {
	rest := b.data[b.from:]
	i := bytes.Index(rest, bytesCRLF)
	if i == -1 { // a trailing lone CR may be followed by LF in next append
		return nil, false
	}
	line = rest[:i]
	b.from += i + 2
	return line, true
}

// purge returns and consumes all remaining bytes.
func (b *lineBuffer) purge() []byte {
	rest := b.data[b.from:]
	b.data, b.from = nil, 0
	return rest
}

func (b *lineBuffer) buffered() int { return len(b.data) - b.from }

func (b *lineBuffer) reset() {
	b.data, b.from = b.data[:0], 0
}

var bytesCRLF = []byte("\r\n")
