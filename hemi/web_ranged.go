// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Ranged files and content types.

package hemi

import (
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// RangedFile is a view of a file restricted to [start, end].
type RangedFile struct {
	file   File
	start  int64 // inclusive
	end    int64 // inclusive
	size   int64 // size of the whole file
	ranged bool  // was a range requested?
}

func (f *RangedFile) Start() int64 { return f.start }
func (f *RangedFile) End() int64   { return f.end }
func (f *RangedFile) Size() int64  { return f.size }
func (f *RangedFile) Ranged() bool { return f.ranged }

// Len returns the number of bytes in the range.
func (f *RangedFile) Len() int64 {
	if f.end < f.start {
		return 0
	}
	return f.end - f.start + 1
}

// ContentRange returns the value of content-range header.
func (f *RangedFile) ContentRange() string {
	return "bytes " + strconv.FormatInt(f.start, 10) + "-" + strconv.FormatInt(f.end, 10) + "/" + strconv.FormatInt(f.size, 10)
}

// ReadAll reads the whole range into memory.
func (f *RangedFile) ReadAll() ([]byte, error) {
	data := make([]byte, f.Len())
	if _, err := f.file.ReadAt(data, f.start); err != nil && err != io.EOF {
		return nil, err
	}
	return data, nil
}

// Close releases the underlying file.
func (f *RangedFile) Close() error { return f.file.Close() }

var rangedBytesRegexp = regexp.MustCompile(`^bytes=(\d+)?-(\d+)?$`)

// sliceFile restricts file to the range in rangeHeader. A non-empty rangeHeader makes the result ranged even if it is malformed, in which case the whole file is used. Unsatisfiable ranges result in ErrRangeNotSatisfiable.
func sliceFile(rangeHeader string, file File) (*RangedFile, error) {
	size := file.Size()
	f := &RangedFile{file: file, start: 0, end: size - 1, size: size}
	if rangeHeader == "" {
		return f, nil
	}
	f.ranged = true
	if size == 0 {
		return nil, ErrRangeNotSatisfiable
	}
	match := rangedBytesRegexp.FindStringSubmatch(rangeHeader)
	if match == nil {
		return f, nil
	}
	first, last := match[1], match[2]
	switch {
	case first == "" && last == "": // bytes=-
	case first == "": // bytes=-n, the last n bytes
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n == 0 {
			return nil, ErrRangeNotSatisfiable
		}
		if n < size {
			f.start = size - n
		}
	default: // bytes=s- or bytes=s-e
		start, err := strconv.ParseInt(first, 10, 64)
		if err != nil || start >= size {
			return nil, ErrRangeNotSatisfiable
		}
		f.start = start
		if last != "" {
			end, err := strconv.ParseInt(last, 10, 64)
			if err == nil && end < size {
				f.end = end
			}
		}
		if f.start > f.end {
			return nil, ErrRangeNotSatisfiable
		}
	}
	return f, nil
}

var webContentTypes = map[string]string{ // extension -> content type
	"3gp":  "video/3gpp",
	"3g2":  "video/3gpp2",
	"css":  "text/css",
	"gif":  "image/gif",
	"htm":  "text/html",
	"html": "text/html",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"js":   "text/javascript",
	"mp4":  "video/mp4",
	"ogg":  "video/ogg",
	"ogv":  "video/ogg",
	"png":  "image/png",
	"webm": "video/webm",
	"txt":  "text/plain",
	"bmp":  "image/bmp",
}

const webDefaultContentType = "application/octet-stream"

// contentTypeOf returns the content type of a file by its extension.
func contentTypeOf(filePath string) string {
	ext := strings.TrimPrefix(path.Ext(filePath), ".")
	if contentType, ok := webContentTypes[strings.ToLower(ext)]; ok {
		return contentType
	}
	return webDefaultContentType
}
