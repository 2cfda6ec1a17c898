// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Clock caches the current HTTP date and parses HTTP dates.

package hemi

import (
	"sync/atomic"
	"time"
)

const (
	clockHTTPDate    = "Mon, 02 Jan 2006 15:04:05 GMT"  // RFC 1123, IMF-fixdate
	clockRFC850Date  = "Monday, 02-Jan-06 15:04:05 GMT" // obsolete RFC 850
	clockASCTimeDate = "Mon Jan _2 15:04:05 2006"       // ANSI C's asctime()
)

// clock
type clock struct {
	// States
	resolution time.Duration
	date       atomic.Pointer[string] // current date in clockHTTPDate format
	quit       chan struct{}
	done       chan struct{}
}

func (c *clock) start(resolution time.Duration) {
	c.resolution = resolution
	c.quit = make(chan struct{})
	c.done = make(chan struct{})
	c.tick(time.Now())
	go c.run()
}
func (c *clock) stop() {
	close(c.quit)
	<-c.done
}

func (c *clock) run() { // runner
	defer close(c.done)
	ticker := time.NewTicker(c.resolution)
	defer ticker.Stop()
	for {
		select {
		case <-c.quit:
			if DebugLevel() >= 2 {
				Println("clock done")
			}
			return
		case now := <-ticker.C:
			c.tick(now)
		}
	}
}
func (c *clock) tick(now time.Time) {
	date := now.UTC().Format(clockHTTPDate)
	c.date.Store(&date)
}

// Date returns the cached current date, or formats a fresh one if the clock is not running.
func (c *clock) Date() string {
	if date := c.date.Load(); date != nil {
		return *date
	}
	return time.Now().UTC().Format(clockHTTPDate)
}

func clockFormatHTTPDate(t time.Time) string { return t.UTC().Format(clockHTTPDate) }

// clockParseHTTPDate parses date in any of the three formats allowed by RFC 7231 and returns unix time in seconds.
func clockParseHTTPDate(date string) (int64, bool) {
	for _, layout := range [...]string{clockHTTPDate, clockRFC850Date, clockASCTimeDate} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Unix(), true
		}
	}
	return 0, false
}
