// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Server connections. Each connection serves one exchange and is then closed.

package hemi

import (
	"context"
	"io"
	"net"
	"sync"
	"time"
)

var poolServerConn sync.Pool

func getServerConn(id int64, server *Server, ctx context.Context, netConn net.Conn) *serverConn {
	var servConn *serverConn
	if x := poolServerConn.Get(); x == nil {
		servConn = new(serverConn)
		servConn.request.conn = servConn
		servConn.input = make([]byte, 4096)
	} else {
		servConn = x.(*serverConn)
	}
	servConn.onGet(id, server, ctx, netConn)
	return servConn
}
func putServerConn(servConn *serverConn) {
	servConn.onPut()
	poolServerConn.Put(servConn)
}

// serverConn
type serverConn struct {
	// Assocs
	server  *Server
	netConn net.Conn
	// Conn states (stocks)
	input []byte // read buffer
	// Conn states (controlled)
	request  Request
	response Response
	reader   requestReader
	// Conn states (non-zeros)
	id  int64
	ctx context.Context // canceled when server stops
	// Conn states (zeros)
	aborted  bool  // closed without a complete response
	parked   bool  // handler never called done, don't reuse
	sentSize int64 // bytes of body sent
}

func (c *serverConn) onGet(id int64, server *Server, ctx context.Context, netConn net.Conn) {
	c.id = id
	c.server = server
	c.ctx = ctx
	c.netConn = netConn
	c.request.onUse()
	c.response.onUse()
	c.reader.onUse(&c.request, server.identity, server.config.MaxHeadSize, server.config.MaxContentSize)
}
func (c *serverConn) onPut() {
	c.reader.onEnd()
	c.response.onEnd()
	c.request.onEnd()
	c.server = nil
	c.netConn = nil
	c.ctx = nil
	c.aborted = false
	c.parked = false
	c.sentSize = 0
}

func (c *serverConn) remoteAddr() net.Addr { return c.netConn.RemoteAddr() }

func (c *serverConn) serve() { // runner
	server := c.server
	// Server shutdown unblocks any pending read or write.
	stop := context.AfterFunc(c.ctx, func() { c.netConn.Close() })
	c.readRequest()
	stop()
	c.netConn.Close()
	server.onConnClosed(c.ctx)
	if !c.parked {
		putServerConn(c)
	}
}

func (c *serverConn) readRequest() {
	config := &c.server.config
	for {
		n, err := c.netConn.Read(c.input)
		if n > 0 {
			if config.Log.DumpInput {
				c.server.logger.Logf("conn=%d input: %s\n", c.id, c.input[:n])
			}
			done, readErr := c.reader.onData(c.input[:n])
			if readErr != nil {
				if DebugLevel() >= 1 {
					Printf("conn=%d bad request: %v\n", c.id, readErr)
				}
				httpErr, ok := asHTTPError(readErr)
				if !ok { // unclassified
					c.server.logger.Logf("conn=%d read request: %v\n", c.id, readErr)
					httpErr = NewHTTPError(StatusInternalServerError, readErr.Error())
					c.server.requestQuit()
				}
				c.handleError(httpErr)
				return
			}
			if done {
				c.exchange()
				return
			}
		}
		if err != nil { // connection closed before the request completes
			if DebugLevel() >= 2 && err != io.EOF {
				Printf("conn=%d read error: %v\n", c.id, err)
			}
			return
		}
	}
}

// exchange dispatches a complete request and sends the response.
func (c *serverConn) exchange() {
	req, resp := &c.request, &c.response
	handler := c.server.lookup(req.Path())
	if handler == nil {
		c.handleError(ErrForbidden)
		return
	}

	doneChan := make(chan error, 1)
	var once sync.Once
	done := func(err error) {
		once.Do(func() { doneChan <- err })
	}
	if err := callHandler(handler, req, resp, done); err != nil {
		c.server.logger.Logf("conn=%d %s %s: %v\n", c.id, req.Method(), req.Path(), err)
		done(NewHTTPError(StatusInternalServerError, err.Error()))
	}

	var err error
	select {
	case err = <-doneChan:
	case <-c.ctx.Done():
		// The handler may still hold the request and the response.
		c.parked = true
		c.aborted = true
		return
	}
	if err != nil {
		if httpErr, ok := asHTTPError(err); ok {
			c.handleError(httpErr)
			return
		}
		c.server.logger.Logf("conn=%d %s %s: %v\n", c.id, req.Method(), req.Path(), err)
	}
	c.finish()
}

// handleError sends an error response for httpErr, trying the handlers of its status, its class, and 500 in turn. The connection is aborted and the server quits if all of them fail.
func (c *serverConn) handleError(httpErr *HTTPError) {
	req, resp := &c.request, &c.response
	for i, status := range errorChain(httpErr.Status) {
		resp.onEnd() // each try starts from a fresh response
		resp.onUse()
		handler := c.server.errorHandler(status)
		if handler == nil {
			continue
		}
		if err := callErrorHandler(handler, req, resp); err != nil {
			c.server.logger.Logf("conn=%d error handler of %d failed: %v\n", c.id, status, err)
			continue
		}
		if i == 0 {
			for name, value := range httpErr.Header {
				if !resp.HasHeader(name) {
					resp.SetHeader(name, value, false)
				}
			}
		}
		c.finish()
		return
	}
	c.server.logger.Logf("conn=%d all error handlers failed for %d, aborting\n", c.id, httpErr.Status)
	c.aborted = true
	c.server.requestQuit()
}

// finish sends the response and ends it.
func (c *serverConn) finish() {
	req, resp := &c.request, &c.response
	server := c.server
	defer func() {
		resp.releaseFile()
		resp.state = responseEnded
	}()

	head := resp.head(server.serverName, server.clock.Date())
	resp.state = responseSent
	if server.config.Log.DumpOutput {
		server.logger.Logf("conn=%d output: %s\n", c.id, head)
	}
	var err error
	switch {
	case req.IsHEAD():
		_, err = c.netConn.Write(head)
	case resp.file != nil:
		if _, err = c.netConn.Write(head); err == nil {
			err = c.sendFile()
		}
	default:
		buffers := net.Buffers{head, resp.body}
		_, err = buffers.WriteTo(c.netConn)
		if err == nil {
			c.sentSize = int64(len(resp.body))
		}
	}
	if err != nil {
		c.aborted = true
		if DebugLevel() >= 1 {
			Printf("conn=%d write error: %v\n", c.id, err)
		}
	}
	server.logger.Logf("%s \"%s %s HTTP/%s\" %d %d\n", c.netConn.RemoteAddr(), req.Method(), req.Target(), req.Version(), resp.Status(), c.sentSize)
}

// sendFile streams the file body in chunks. Each chunk must be accepted by the peer within sendTimeout.
func (c *serverConn) sendFile() error {
	config := &c.server.config
	stream := newFileStream(c.response.file, config.ChunkSize)
	c.response.file = nil // owned by stream
	defer stream.Close()
	for {
		chunk, err := stream.Next(c.ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := c.netConn.SetWriteDeadline(time.Now().Add(config.SendTimeout)); err != nil {
			return err
		}
		n, err := c.netConn.Write(chunk)
		c.sentSize += int64(n)
		if err != nil {
			return err
		}
	}
}
