// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// HTTP/1.0 and HTTP/1.1 server.

package hemi

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var (
	errServerStarted    = errors.New("server is already started")
	errServerNotStarted = errors.New("server is not started")
)

// Server serves HTTP/1.0 and HTTP/1.1 requests on a TCP port. A server can be started again after it is stopped.
type Server struct {
	// Mixins
	handlerRegistry
	// Assocs
	logger   Logger
	identity *Identity
	// States
	config     Config
	serverName string     // value of the server header
	clock      clock      // cached date header
	mutex      sync.Mutex // protects fields below
	listener   net.Listener
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{} // closed when the current run stops
	subs       sync.WaitGroup
	doQuit     atomic.Bool // stop the server when the current connection closes?
	connID     atomic.Int64
}

// NewServer creates a server. Directories in config are registered as DirStores.
func NewServer(config *Config) (*Server, error) {
	logger, err := createLogger(&config.Log)
	if err != nil {
		return nil, err
	}
	s := new(Server)
	s.config = *config
	s.logger = logger
	s.identity = NewIdentity()
	s.serverName = "httpd.go/" + Version
	s.handlerRegistry.onCreate(config.IndexFile, config.LargeFileSize)
	for prefix, dir := range config.Directories {
		store := NewDirStore(dir, config.SmallFileSize, config.CacheTimeout)
		if err := s.RegisterDirectory(prefix, store); err != nil {
			logger.Close()
			return nil, err
		}
	}
	s.done = make(chan struct{})
	close(s.done) // not running
	return s, nil
}

func (s *Server) Config() *Config         { return &s.config }
func (s *Server) Identity() *Identity     { return s.identity }
func (s *Server) Logger() Logger          { return s.logger }
func (s *Server) Logf(f string, v ...any) { s.logger.Logf(f, v...) }

// Addr returns the listening address, or nil if the server is not started.
func (s *Server) Addr() net.Addr {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Done returns a channel that is closed when the server stops.
func (s *Server) Done() <-chan struct{} {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.done
}

// Start listens on the configured host and port and serves connections in the background.
func (s *Server) Start() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.listener != nil {
		return errServerStarted
	}
	listener, err := net.Listen("tcp", net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port)))
	if err != nil {
		return err
	}
	port := listener.Addr().(*net.TCPAddr).Port
	s.identity.Initialize(port, s.config.Host, s.config.SecondaryDefault)
	for _, text := range s.config.Locations {
		location, err := ParseLocation(text)
		if err == nil {
			err = s.identity.Add(location.Scheme, location.Host, location.Port)
		}
		if err != nil {
			listener.Close()
			s.identity.Teardown()
			return err
		}
	}

	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.done = make(chan struct{})
	s.doQuit.Store(false)
	s.clock.start(time.Second)
	if DebugLevel() >= 1 {
		Printf("server=%s listening on %s\n", s.config.Name, listener.Addr())
	}
	s.subs.Add(1) // gate
	go s.serve(s.ctx, listener)
	return nil
}

func (s *Server) serve(ctx context.Context, listener net.Listener) { // runner
	defer s.subs.Done() // gate
	for {
		netConn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Logf("server=%s accept error: %v\n", s.config.Name, err)
			continue
		}
		s.subs.Add(1) // conn
		servConn := getServerConn(s.connID.Add(1), s, ctx, netConn)
		go servConn.serve() // servConn is put to pool in serve()
	}
	if DebugLevel() >= 2 {
		Printf("server=%s gate done\n", s.config.Name)
	}
}

// Stop stops listening, closes all connections, and waits for them to finish. Handlers that never called done are abandoned.
func (s *Server) Stop() error {
	return s.stop(nil)
}
func (s *Server) stop(ctx context.Context) error { // ctx is nil or the run to stop
	s.mutex.Lock()
	if s.listener == nil || (ctx != nil && ctx != s.ctx) {
		s.mutex.Unlock()
		return errServerNotStarted
	}
	listener, cancel, done := s.listener, s.cancel, s.done
	s.listener = nil
	cancel()
	listener.Close()
	s.identity.Teardown()
	s.doQuit.Store(false)
	s.mutex.Unlock()

	s.subs.Wait()
	s.clock.stop()
	if DebugLevel() >= 1 {
		Printf("server=%s stopped\n", s.config.Name)
	}
	close(done)
	return nil
}

// Close stops the server if it is running and closes its logger.
func (s *Server) Close() error {
	if err := s.Stop(); err != nil && err != errServerNotStarted {
		return err
	}
	s.logger.Close()
	return nil
}

// requestQuit makes the server stop after the current connection closes.
func (s *Server) requestQuit() { s.doQuit.Store(true) }

func (s *Server) onConnClosed(ctx context.Context) {
	if s.doQuit.Load() && ctx.Err() == nil {
		s.logger.Logf("server=%s quits on request\n", s.config.Name)
		go s.stop(ctx)
	}
	s.subs.Done() // conn
}
