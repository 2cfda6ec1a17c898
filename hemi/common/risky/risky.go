// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Zero-copy conversions between string and []byte. Use with care.

package risky

import (
	"unsafe"
)

// ConstBytes views s as a byte slice. *DO NOT* mutate s through p!
func ConstBytes(s string) (p []byte) {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// WeakString views p as a string. *DO NOT* mutate p while s is in use!
func WeakString(p []byte) (s string) {
	if len(p) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(p), len(p))
}
