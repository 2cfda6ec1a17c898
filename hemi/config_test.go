// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package hemi

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfigFromText(t *testing.T) {
	config, err := ConfigFromText(`
# test server
httpServer "test" {
    host = "example.local"
    port = 8080
    secondaryDefault = false
    locations = ("http://a.local", "https://b.local:8443")
    directories = [
        "/static/" : "/srv/static",
    ]
    largeFileSize = 2M
    chunkSize = 16K
    sendTimeout = 5s
    cacheTimeout = 2m
    logger = "noop"
    dumpInput = true
}`)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		recv any
		want any
	}{
		{"name", config.Name, "test"},
		{"host", config.Host, "example.local"},
		{"port", config.Port, 8080},
		{"secondaryDefault", config.SecondaryDefault, false},
		{"locations", len(config.Locations), 2},
		{"directories", config.Directories["/static/"], "/srv/static"},
		{"indexFile", config.IndexFile, "index.html"},
		{"largeFileSize", config.LargeFileSize, int64(2 << 20)},
		{"chunkSize", config.ChunkSize, 16 << 10},
		{"sendTimeout", config.SendTimeout, 5 * time.Second},
		{"maxHeadSize", config.MaxHeadSize, 16 << 10},
		{"cacheTimeout", config.CacheTimeout, 2 * time.Minute},
		{"logger", config.Log.Kind, "noop"},
		{"dumpInput", config.Log.DumpInput, true},
		{"dumpOutput", config.Log.DumpOutput, false},
	}
	for i, test := range tests {
		if test.recv != test.want {
			t.Errorf("#%d %s: recv=%v, expect=%v", i, test.name, test.recv, test.want)
		}
	}
}

func TestConfigErrors(t *testing.T) {
	tests := []string{
		``,
		`httpServer {`,
		`httpsServer "x" {}`,
		`httpServer "x" { colour = "red" }`,
		`httpServer "x" { port = 70000 }`,
		`httpServer "x" { port = "80" }`,
		`httpServer "x" { host = "bad host" }`,
		`httpServer "x" { port = 80 port = 81 }`,
		`httpServer "x" { locations = ("ftp://a.local") }`,
		`httpServer "x" { directories = ["static" : "/srv"] }`,
		`httpServer "x" { logger = "carrier-pigeon" }`,
		`httpServer "x" { logRotate = "week" }`,
		`httpServer "x" {} httpServer "y" {}`,
	}
	for i, text := range tests {
		if config, err := ConfigFromText(text); err == nil {
			t.Errorf("#%d: expect error, got %+v", i, config)
		}
	}
}

func TestConfigFromFile(t *testing.T) {
	base := t.TempDir()
	text := `httpServer {
    directories = ["/sd/" : "sdcard"]
    logger = "file"
    logFile = "logs/httpd.log"
}`
	if err := os.WriteFile(filepath.Join(base, "httpd.conf"), []byte(text), 0644); err != nil {
		t.Fatal(err)
	}
	config, err := ConfigFromFile(base, "httpd.conf")
	if err != nil {
		t.Fatal(err)
	}
	if config.Name != "1" {
		t.Errorf("name=%s, expect=1", config.Name)
	}
	if dir := config.Directories["/sd/"]; dir != filepath.Join(base, "sdcard") {
		t.Errorf("dir=%s", dir)
	}
	if config.Log.Kind != "file" || config.Log.Target != filepath.Join(base, "logs/httpd.log") {
		t.Errorf("log=%+v", config.Log)
	}
}
