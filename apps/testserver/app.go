// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// This is a test server app showing how to register handlers and directories.

package testserver

import (
	"embed"
	"io/fs"
	"os"
	"time"

	. "github.com/hexinfra/httpd/hemi"
)

//go:embed public
var publicFiles embed.FS

// SdcardDir is where files of the "/sd/" prefix live.
var SdcardDir = "/sdcard/testserver"

// Setup registers handlers of the app to server.
func Setup(server *Server) error {
	public, err := fs.Sub(publicFiles, "public")
	if err != nil {
		return err
	}
	if err := server.Get("/api/heartbeat", Func(heartbeat)); err != nil {
		return err
	}
	if err := server.Get("/xhr", Func(echoRequestLine)); err != nil {
		return err
	}
	if err := server.Get("/", Dir(NewFSStore(public, installTime()))); err != nil {
		return err
	}
	config := server.Config()
	sdcard := NewDirStore(SdcardDir, config.SmallFileSize, config.CacheTimeout)
	return server.Get("/sd/", Dir(sdcard))
}

// installTime is when the program was installed, approximated by the modification time of the executable.
func installTime() time.Time {
	if exePath, err := os.Executable(); err == nil {
		if info, err := os.Stat(exePath); err == nil {
			return info.ModTime().Truncate(time.Second)
		}
	}
	return time.Now().Truncate(time.Second)
}

func heartbeat(req *Request, resp *Response, done func(err error)) {
	resp.SetHeader("Content-Type", "text/plain", false)
	resp.WriteString("ok")
	done(nil)
}

func echoRequestLine(req *Request, resp *Response, done func(err error)) {
	resp.SetHeader("Content-Type", "text/plain", false)
	line := req.Method() + " " + req.Target() + " HTTP/" + req.Version().String()
	resp.WriteString(line)
	done(nil)
}
