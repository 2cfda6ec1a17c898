// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Header table with case-insensitive names and merge semantics.

package hemi

import (
	"strings"
)

// Header maps lower-cased field names to their values. Only set-cookie, www-authenticate and proxy-authenticate keep multiple values, others are comma-joined on merge.
type Header struct {
	// States
	fields map[string][]string
	names  []string // in insertion order
}

// Set sets a field. If merge is true and the field exists, value is merged into it, otherwise it replaces the field.
func (h *Header) Set(name string, value string, merge bool) error {
	name, err := normalizeFieldName(name)
	if err != nil {
		return err
	}
	value, err = normalizeFieldValue(value)
	if err != nil {
		return err
	}
	h.set(name, value, merge)
	return nil
}
func (h *Header) set(name string, value string, merge bool) { // name and value are normalized
	if h.fields == nil {
		h.fields = make(map[string][]string)
	}
	values, ok := h.fields[name]
	if !ok {
		h.names = append(h.names, name)
		h.fields[name] = []string{value}
		return
	}
	if !merge {
		h.fields[name] = append(values[:0], value)
		return
	}
	switch name {
	case "set-cookie", "www-authenticate", "proxy-authenticate":
		h.fields[name] = append(values, value)
	default:
		values[0] += "," + value
	}
}

// Get returns the field value. Multiple values are joined with "\n".
func (h *Header) Get(name string) (value string, ok bool) {
	values, ok := h.fields[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	if len(values) == 1 {
		return values[0], true
	}
	return strings.Join(values, "\n"), true
}
func (h *Header) Values(name string) []string { return h.fields[strings.ToLower(name)] }
func (h *Header) Has(name string) bool {
	_, ok := h.fields[strings.ToLower(name)]
	return ok
}
func (h *Header) Del(name string) {
	name = strings.ToLower(name)
	if _, ok := h.fields[name]; !ok {
		return
	}
	delete(h.fields, name)
	for i, n := range h.names {
		if n == name {
			h.names = append(h.names[:i], h.names[i+1:]...)
			break
		}
	}
}
func (h *Header) Len() int { return len(h.names) }

// Range calls fn for each field in insertion order until fn returns false.
func (h *Header) Range(fn func(name string, values []string) bool) {
	for _, name := range h.names {
		if !fn(name, h.fields[name]) {
			return
		}
	}
}

func (h *Header) reset() {
	for name := range h.fields {
		delete(h.fields, name)
	}
	h.names = h.names[:0]
}

// normalizeFieldName lowercases name after checking it is a token.
func normalizeFieldName(name string) (string, error) {
	if name == "" {
		return "", errBadFieldName
	}
	lower := true
	for i := 0; i < len(name); i++ {
		b := name[i]
		if !httpTchar[b] {
			return "", errBadFieldName
		}
		if b >= 'A' && b <= 'Z' {
			lower = false
		}
	}
	if lower {
		return name, nil
	}
	return strings.ToLower(name), nil
}

// normalizeFieldValue collapses linear whitespace into one SP, trims it, and rejects control characters.
func normalizeFieldValue(value string) (string, error) {
	var b strings.Builder
	inLWS := false
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c == '\r' && i+2 < len(value) && value[i+1] == '\n' && (value[i+2] == ' ' || value[i+2] == '\t') { // obs-fold
			inLWS = true
			i++
			continue
		}
		if c == ' ' || c == '\t' {
			inLWS = true
			continue
		}
		if c < 0x20 || c == 0x7f {
			return "", errBadFieldValue
		}
		if inLWS {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			inLWS = false
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}

var httpTchar = [256]bool{ // tchar = "!" / "#" / "$" / "%" / "&" / "'" / "*" / "+" / "-" / "." / "^" / "_" / "`" / "|" / "~" / DIGIT / ALPHA
	'!': true, '#': true, '$': true, '%': true, '&': true, '\'': true, '*': true, '+': true, '-': true, '.': true, '^': true, '_': true, '`': true, '|': true, '~': true,
	'0': true, '1': true, '2': true, '3': true, '4': true, '5': true, '6': true, '7': true, '8': true, '9': true,
	'A': true, 'B': true, 'C': true, 'D': true, 'E': true, 'F': true, 'G': true, 'H': true, 'I': true, 'J': true, 'K': true, 'L': true, 'M': true,
	'N': true, 'O': true, 'P': true, 'Q': true, 'R': true, 'S': true, 'T': true, 'U': true, 'V': true, 'W': true, 'X': true, 'Y': true, 'Z': true,
	'a': true, 'b': true, 'c': true, 'd': true, 'e': true, 'f': true, 'g': true, 'h': true, 'i': true, 'j': true, 'k': true, 'l': true, 'm': true,
	'n': true, 'o': true, 'p': true, 'q': true, 'r': true, 's': true, 't': true, 'u': true, 'v': true, 'w': true, 'x': true, 'y': true, 'z': true,
}
