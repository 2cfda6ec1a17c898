// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Handlers and the handler registry.

package hemi

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Handler handles a request by filling resp and then calling done exactly once, either in the handler or later from any goroutine. A non-nil *HTTPError given to done discards resp and sends an error response instead.
type Handler func(req *Request, resp *Response, done func(err error))

// Target is what Get maps a path to: a function or a directory.
type Target struct {
	handler Handler
	store   FileStore
}

// Func makes a target that handles exactly one path.
func Func(handler Handler) Target { return Target{handler: handler} }

// Dir makes a target that serves files under a path prefix.
func Dir(store FileStore) Target { return Target{store: store} }

var (
	errBadPath   = errors.New("path must start with '/'")
	errBadPrefix = errors.New("prefix must start and end with '/'")
	errBadTarget = errors.New("target has neither a handler nor a store")
)

// handlerRegistry maps paths to handlers and statuses to error handlers.
type handlerRegistry struct {
	// States
	indexFile     string       // for directories
	largeFileSize int64        // for directories
	rwMutex       sync.RWMutex // protects fields below
	paths         map[string]Handler
	prefixes      map[string]Handler
	overrides     map[int16]ErrorHandler
}

func (r *handlerRegistry) onCreate(indexFile string, largeFileSize int64) {
	r.indexFile = indexFile
	r.largeFileSize = largeFileSize
	r.paths = make(map[string]Handler)
	r.prefixes = make(map[string]Handler)
	r.overrides = make(map[int16]ErrorHandler)
}

// RegisterPathHandler registers handler for exactly path. A nil handler removes the registration.
func (r *handlerRegistry) RegisterPathHandler(path string, handler Handler) error {
	if path == "" || path[0] != '/' {
		return errBadPath
	}
	r.rwMutex.Lock()
	defer r.rwMutex.Unlock()
	if handler == nil {
		delete(r.paths, path)
	} else {
		r.paths[path] = handler
	}
	return nil
}

// RegisterPrefixHandler registers handler for paths starting with prefix. A nil handler removes the registration.
func (r *handlerRegistry) RegisterPrefixHandler(prefix string, handler Handler) error {
	if prefix == "" || prefix[0] != '/' || prefix[len(prefix)-1] != '/' {
		return errBadPrefix
	}
	r.rwMutex.Lock()
	defer r.rwMutex.Unlock()
	if handler == nil {
		delete(r.prefixes, prefix)
	} else {
		r.prefixes[prefix] = handler
	}
	return nil
}

// RegisterErrorHandler overrides the error handler of status. A nil handler removes the override.
func (r *handlerRegistry) RegisterErrorHandler(status int16, handler ErrorHandler) error {
	if status < 0 || status > 999 {
		return errBadStatus
	}
	r.rwMutex.Lock()
	defer r.rwMutex.Unlock()
	if handler == nil {
		delete(r.overrides, status)
	} else {
		r.overrides[status] = handler
	}
	return nil
}

// RegisterDirectory serves files in store for paths starting with prefix. A nil store removes the registration.
func (r *handlerRegistry) RegisterDirectory(prefix string, store FileStore) error {
	if store == nil {
		return r.RegisterPrefixHandler(prefix, nil)
	}
	dir := &dirHandler{
		store:         store,
		prefix:        prefix,
		indexFile:     r.indexFile,
		largeFileSize: r.largeFileSize,
	}
	return r.RegisterPrefixHandler(prefix, dir.handle)
}

// Get maps path to target. A function target handles exactly path, a directory target serves files under path.
func (r *handlerRegistry) Get(path string, target Target) error {
	switch {
	case target.handler != nil:
		return r.RegisterPathHandler(path, target.handler)
	case target.store != nil:
		return r.RegisterDirectory(path, target.store)
	default:
		return errBadTarget
	}
}

// lookup finds the handler of path: an exact match, or else the longest matching prefix. nil means forbidden.
func (r *handlerRegistry) lookup(path string) Handler {
	r.rwMutex.RLock()
	defer r.rwMutex.RUnlock()

	if handler, ok := r.paths[path]; ok {
		return handler
	}
	var (
		longest string
		handler Handler
	)
	for prefix, prefixHandler := range r.prefixes {
		if len(prefix) > len(longest) && strings.HasPrefix(path, prefix) {
			longest, handler = prefix, prefixHandler
		}
	}
	return handler
}

// errorHandler returns the override of status if any, or the default one. nil means there is none.
func (r *handlerRegistry) errorHandler(status int16) ErrorHandler {
	r.rwMutex.RLock()
	handler, ok := r.overrides[status]
	r.rwMutex.RUnlock()
	if ok {
		return handler
	}
	return defaultErrorHandlers[status]
}

// errorChain returns statuses to try in order when handling status: itself, its class, and 500.
func errorChain(status int16) []int16 {
	chain := []int16{status}
	if class := status - status%100; class != status {
		chain = append(chain, class)
	}
	if chain[len(chain)-1] != StatusInternalServerError {
		chain = append(chain, StatusInternalServerError)
	}
	return chain
}

// callHandler calls handler, converting a panic into an error.
func callHandler(handler Handler, req *Request, resp *Response, done func(err error)) (err error) {
	defer func() {
		if x := recover(); x != nil {
			err = fmt.Errorf("handler panic: %v", x)
		}
	}()
	handler(req, resp, done)
	return nil
}

// callErrorHandler calls handler, converting a panic into an error.
func callErrorHandler(handler ErrorHandler, req *Request, resp *Response) (err error) {
	defer func() {
		if x := recover(); x != nil {
			err = fmt.Errorf("error handler panic: %v", x)
		}
	}()
	return handler(req, resp)
}
