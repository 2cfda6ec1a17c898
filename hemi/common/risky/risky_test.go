// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

package risky

import (
	"testing"
)

func TestRisky(t *testing.T) {
	if s := WeakString([]byte("abc")); s != "abc" {
		t.Errorf("s=%q", s)
	}
	if p := ConstBytes("abc"); string(p) != "abc" {
		t.Errorf("p=%q", p)
	}
	if WeakString(nil) != "" || ConstBytes("") != nil {
		t.Error("empty conversions")
	}
}
