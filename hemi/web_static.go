// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Static handlers serve files in file stores.

package hemi

import (
	"net/url"
	"strconv"
	"strings"
)

// dirHandler maps request paths under prefix to files in store.
type dirHandler struct {
	// Assocs
	store FileStore
	// States
	prefix        string
	indexFile     string // appended to paths ending with '/'
	largeFileSize int64  // files larger than this are streamed
}

func (h *dirHandler) handle(req *Request, resp *Response, done func(err error)) {
	localPath, err := url.PathUnescape(strings.TrimPrefix(req.Path(), h.prefix))
	if err != nil {
		done(NewHTTPError(StatusBadRequest, "bad escape in path"))
		return
	}
	if localPath == "" || localPath[len(localPath)-1] == '/' {
		localPath += h.indexFile
	}
	file, err := h.store.Open(localPath)
	if err != nil {
		done(storeError(err))
		return
	}
	done(writeFileResponse(req, resp, file, localPath, h.largeFileSize))
}

// writeFileResponse makes file the body of resp, honoring conditional and range requests. It takes ownership of file. Files larger than largeFileSize are left in resp for streaming, others are read into memory.
func writeFileResponse(req *Request, resp *Response, file File, filePath string, largeFileSize int64) error {
	resp.SetHeader("Content-Type", contentTypeOf(filePath), false)

	modTime := file.ModTime()
	modMillis := modTime.UnixMilli()
	if value, ok := req.GetHeader("if-modified-since"); ok {
		// Only an exact match means not modified.
		if since, ok := clockParseHTTPDate(value); ok && since*1000 == modMillis {
			file.Close()
			writeNotModified(req, resp)
			return nil
		}
	}
	resp.SetHeader("Last-Modified", clockFormatHTTPDate(modTime), false)

	etag := strconv.FormatInt(modMillis, 10)
	if value, ok := req.GetHeader("if-none-match"); ok && value == etag {
		file.Close()
		writeNotModified(req, resp)
		return nil
	}
	resp.SetHeader("ETag", etag, false)

	rangeHeader, _ := req.GetHeader("range")
	ranged, err := sliceFile(rangeHeader, file)
	if err != nil {
		size := file.Size()
		file.Close()
		return &HTTPError{
			Status: StatusRangeNotSatisfiable,
			Reason: "range not satisfiable: " + rangeHeader,
			Header: map[string]string{"content-range": "bytes */" + strconv.FormatInt(size, 10)},
		}
	}
	if ranged.ranged {
		resp.SetStatusLine(req.Version(), StatusPartialContent, "Partial Content")
		resp.SetHeader("Content-Range", ranged.ContentRange(), false)
	}
	resp.SetHeader("Accept-Ranges", "bytes", false)

	if ranged.size > largeFileSize {
		resp.setFile(ranged)
		return nil
	}
	data, err := ranged.ReadAll()
	ranged.Close()
	if err != nil {
		return NewHTTPError(StatusNotFound, "read file: "+err.Error())
	}
	resp.Write(data)
	return nil
}

func writeNotModified(req *Request, resp *Response) {
	resp.SetStatusLine(req.Version(), StatusNotModified, "Not Modified")
	resp.SetHeader("Content-Type", "text/plain", false)
}
