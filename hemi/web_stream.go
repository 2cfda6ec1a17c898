// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// File streams send large files chunk by chunk.

package hemi

import (
	"context"
	"io"
)

// fileStream iterates over the chunks of a ranged file. It is finite and not restartable. The file is released when the stream ends in any way.
type fileStream struct {
	// Assocs
	file *RangedFile
	// States
	buffer []byte
	offset int64 // next offset to read
	left   int64 // bytes left to read
}

func newFileStream(file *RangedFile, chunkSize int) *fileStream {
	s := new(fileStream)
	s.file = file
	s.offset = file.start
	s.left = file.Len()
	size := int64(chunkSize)
	if s.left < size {
		size = s.left
	}
	s.buffer = make([]byte, size)
	return s
}

// Next returns the next chunk, which is valid until the next call. io.EOF is returned after the last chunk.
func (s *fileStream) Next(ctx context.Context) ([]byte, error) {
	if s.file == nil {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		s.Close()
		return nil, err
	}
	if s.left == 0 {
		s.Close()
		return nil, io.EOF
	}
	size := int64(len(s.buffer))
	if s.left < size {
		size = s.left
	}
	n, err := s.file.file.ReadAt(s.buffer[:size], s.offset)
	if int64(n) < size {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		s.Close()
		return nil, err
	}
	s.offset += size
	s.left -= size
	return s.buffer[:size], nil
}

// Close releases the file. It is safe to call Close more than once.
func (s *fileStream) Close() {
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}
}
