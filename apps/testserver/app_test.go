// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package testserver

import (
	"io"
	"net"
	"strings"
	"testing"
	"time"

	. "github.com/hexinfra/httpd/hemi"
)

func TestSetup(t *testing.T) {
	SdcardDir = t.TempDir()
	config := NewConfig()
	config.Host = "127.0.0.1"
	config.Port = 0
	config.Log = LogConfig{Kind: "noop"}
	server, err := NewServer(config)
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()
	if err := Setup(server); err != nil {
		t.Fatal(err)
	}
	if err := server.Start(); err != nil {
		t.Fatal(err)
	}
	addr := server.Addr().String()

	tests := []struct {
		target     string
		statusLine string
		suffix     string
	}{
		{"/api/heartbeat", "HTTP/1.1 200 OK", "\r\n\r\nok"},
		{"/xhr?a=1", "HTTP/1.1 200 OK", "\r\n\r\nGET /xhr?a=1 HTTP/1.1"},
		{"/", "HTTP/1.1 200 OK", "</html>\n"},
		{"/index.html", "HTTP/1.1 200 OK", "</html>\n"},
		{"/sd/none.txt", "HTTP/1.1 404 Not Found", "</html>"},
	}
	for i, test := range tests {
		conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
		if err != nil {
			t.Fatal(err)
		}
		conn.SetDeadline(time.Now().Add(10 * time.Second))
		conn.Write([]byte("GET " + test.target + " HTTP/1.1\r\nHost: " + addr + "\r\n\r\n"))
		output, _ := io.ReadAll(conn)
		conn.Close()
		text := string(output)
		if !strings.HasPrefix(text, test.statusLine+"\r\n") || !strings.HasSuffix(text, test.suffix) {
			t.Errorf("#%d: recv=%q, expect status %q and suffix %q", i, text, test.statusLine, test.suffix)
		}
	}
}
