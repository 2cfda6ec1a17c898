// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// HTTP statuses, status-carrying errors, and default error pages.

package hemi

import (
	"errors"
	"strconv"
	"strings"
)

const ( // status codes
	StatusOK                      = 200
	StatusPartialContent          = 206
	StatusNotModified             = 304
	StatusBadRequest              = 400
	StatusForbidden               = 403
	StatusNotFound                = 404
	StatusContentTooLarge         = 413
	StatusRangeNotSatisfiable     = 416
	StatusInternalServerError     = 500
	StatusNotImplemented          = 501
	StatusHTTPVersionNotSupported = 505
)

var statusTexts = map[int16]string{
	100: "Continue",
	101: "Switching Protocols",
	200: "OK",
	201: "Created",
	202: "Accepted",
	203: "Non-Authoritative Information",
	204: "No Content",
	205: "Reset Content",
	206: "Partial Content",
	300: "Multiple Choices",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	305: "Use Proxy",
	307: "Temporary Redirect",
	400: "Bad Request",
	401: "Unauthorized",
	402: "Payment Required",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	406: "Not Acceptable",
	407: "Proxy Authentication Required",
	408: "Request Timeout",
	409: "Conflict",
	410: "Gone",
	411: "Length Required",
	412: "Precondition Failed",
	413: "Request Entity Too Large",
	414: "Request-URI Too Long",
	415: "Unsupported Media Type",
	416: "Requested Range Not Satisfiable",
	417: "Expectation Failed",
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
}

// StatusText returns the reason phrase of status, or "" if unknown.
func StatusText(status int16) string { return statusTexts[status] }

// HTTPError is an error carrying an HTTP status. Reason is for logs only and is never sent.
type HTTPError struct {
	Status int16
	Reason string
	Header map[string]string // fields added to the error response, if any
}

func NewHTTPError(status int16, reason string) *HTTPError {
	return &HTTPError{Status: status, Reason: reason}
}

func (e *HTTPError) Error() string {
	if e.Reason == "" {
		return strconv.Itoa(int(e.Status)) + " " + StatusText(e.Status)
	}
	return strconv.Itoa(int(e.Status)) + " " + e.Reason
}

// asHTTPError reports whether err is, or wraps, an *HTTPError.
func asHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

var ( // common errors
	ErrBadRequest          = NewHTTPError(StatusBadRequest, "")
	ErrForbidden           = NewHTTPError(StatusForbidden, "")
	ErrNotFound            = NewHTTPError(StatusNotFound, "")
	ErrRangeNotSatisfiable = NewHTTPError(StatusRangeNotSatisfiable, "")
	ErrInternal            = NewHTTPError(StatusInternalServerError, "")

	errBadFieldName  = NewHTTPError(StatusBadRequest, "bad header field name")
	errBadFieldValue = NewHTTPError(StatusBadRequest, "bad header field value")
)

// ErrorHandler writes an error page for a status into resp. A returned error, or a panic, makes the dispatcher fall back to the next handler.
type ErrorHandler func(req *Request, resp *Response) error

var defaultErrorHandlers = map[int16]ErrorHandler{
	StatusBadRequest: func(req *Request, resp *Response) error {
		// None of the request data is reliable here.
		if err := resp.SetStatusLine(Version1_1, StatusBadRequest, "Bad Request"); err != nil {
			return err
		}
		if err := resp.SetHeader("Content-Type", "text/plain", false); err != nil {
			return err
		}
		_, err := resp.WriteString("Bad request\n")
		return err
	},
	StatusForbidden: func(req *Request, resp *Response) error {
		return writeErrorPage(req.Version(), resp, StatusForbidden, "")
	},
	StatusNotFound: func(req *Request, resp *Response) error {
		return writeErrorPage(req.Version(), resp, StatusNotFound, `<p><span style="font-family: monospace;">`+htmlEscape(req.Path())+`</span> was not found.</p>`)
	},
	StatusRangeNotSatisfiable: func(req *Request, resp *Response) error {
		return writeErrorPage(req.Version(), resp, StatusRangeNotSatisfiable, "<p>The byte range was not valid for the requested resource.</p>")
	},
	StatusInternalServerError: func(req *Request, resp *Response) error {
		return writeErrorPage(req.Version(), resp, StatusInternalServerError, "<p>Something's broken in this server and needs to be fixed.</p>")
	},
	StatusNotImplemented: func(req *Request, resp *Response) error {
		return writeErrorPage(req.Version(), resp, StatusNotImplemented, "<p>This server is not (yet) Apache.</p>")
	},
	StatusHTTPVersionNotSupported: func(req *Request, resp *Response) error {
		return writeErrorPage(Version1_1, resp, StatusHTTPVersionNotSupported, "<p>This server only supports HTTP/1.0 and HTTP/1.1 connections.</p>")
	},
}

func writeErrorPage(version HTTPVersion, resp *Response, status int16, detail string) error {
	phrase := StatusText(status)
	if err := resp.SetStatusLine(version, status, phrase); err != nil {
		return err
	}
	if err := resp.SetHeader("Content-Type", "text/html", false); err != nil {
		return err
	}
	title := strconv.Itoa(int(status)) + " " + phrase
	_, err := resp.WriteString("<html><head><title>" + title + "</title></head><body><h1>" + title + "</h1>" + detail + "</body></html>")
	return err
}

// htmlEscape escapes every character of s as a numeric character reference.
func htmlEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		b.WriteString("&#")
		b.WriteString(strconv.Itoa(int(r)))
		b.WriteByte(';')
	}
	return b.String()
}
