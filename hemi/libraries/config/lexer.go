// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Config lexer.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// lexer
type lexer struct {
	config string // the config text
	index  int
	limit  int
	base   string
	file   string
}

func (l *lexer) scanText(text string) []Token {
	l.config = text
	return l.scan()
}
func (l *lexer) scanFile(base string, file string) []Token {
	l.base = base
	l.file = file
	return l.scan()
}

func (l *lexer) scan() []Token {
	if l.file != "" {
		l.config = l.load(l.base, l.file)
	}
	l.index = 0
	l.limit = len(l.config)
	var tokens []Token
	line := int32(1)
	for l.index < l.limit {
		from := l.index
		switch b := l.config[l.index]; b {
		case ' ', '\r', '\t': // blank, ignore
			l.index++
		case '\n': // new line
			line++
			l.index++
		case '#': // shell comment
			l.nextUntil('\n')
		case '/': // line comment or stream comment
			if c := l.mustNext(); c == '/' { // line comment
				l.nextUntil('\n')
			} else if c == '*' { // stream comment
				l.index++
				for l.index < l.limit {
					if d := l.config[l.index]; d == '/' && l.config[l.index-1] == '*' {
						break
					} else {
						if d == '\n' {
							line++
						}
						l.index++
					}
				}
				l.checkEOF()
				l.index++
			} else {
				panic(fmt.Errorf("lexer: unknown character %c (ascii %v) in line %d (%s)", b, b, line, l.file))
			}
		case '"', '`': // "string" or `string`
			s := l.config[l.index] // " or `
			l.index++
			l.nextUntil(s)
			l.checkEOF()
			text := l.config[from+1 : l.index]
			tokens = append(tokens, Token{TokenString, 0, line, l.file, text})
			line += int32(strings.Count(text, "\n"))
			l.index++
		case '<': // <includedFile>
			if l.base == "" {
				panic(errors.New("lexer: include is not allowed in text mode"))
			}
			l.index++
			l.nextUntil('>')
			l.checkEOF()
			file := l.config[from+1 : l.index]
			l.index++
			var ll lexer
			tokens = append(tokens, ll.scanFile(l.base, file)...)
		case '@': // @constant
			l.nextAlnums()
			tokens = append(tokens, Token{TokenConstant, 0, line, l.file, l.config[from+1 : l.index]})
		default:
			if kind := soloKinds[b]; kind != 0 { // kind starts from 1
				tokens = append(tokens, Token{kind, 0, line, l.file, soloTexts[b]})
				l.index++
			} else if isAlpha(b) {
				l.nextAlnums()
				if word := l.config[from:l.index]; word == "true" || word == "false" {
					tokens = append(tokens, Token{TokenBool, 0, line, l.file, word})
				} else {
					tokens = append(tokens, Token{TokenWord, 0, line, l.file, word})
				}
			} else if isDigit(b) {
				l.nextDigits()
				kind := int16(TokenInteger)
				if l.index < l.limit {
					switch l.config[l.index] {
					case 's', 'm', 'h', 'd':
						kind = TokenDuration
						l.index++
					case 'K', 'M', 'G', 'T':
						l.index++
					}
				}
				tokens = append(tokens, Token{kind, 0, line, l.file, l.config[from:l.index]})
			} else {
				panic(fmt.Errorf("lexer: unknown character %c (ascii %v) in line %d (%s)", b, b, line, l.file))
			}
		}
	}
	return tokens
}

func (l *lexer) nextUntil(b byte) {
	if i := strings.IndexByte(l.config[l.index:], b); i == -1 {
		l.index = l.limit
	} else {
		l.index += i
	}
}
func (l *lexer) mustNext() byte {
	l.index++
	l.checkEOF()
	return l.config[l.index]
}
func (l *lexer) checkEOF() {
	if l.index == l.limit {
		panic(errors.New("lexer: unexpected eof"))
	}
}
func (l *lexer) nextAlnums() {
	for l.index++; l.index < l.limit && isAlnum(l.config[l.index]); l.index++ {
	}
}
func (l *lexer) nextDigits() {
	for l.index++; l.index < l.limit && isDigit(l.config[l.index]); l.index++ {
	}
}

func (l *lexer) load(base string, file string) string {
	path := file
	if !filepath.IsAbs(file) && base != "" {
		path = filepath.Join(base, file)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	return string(data)
}
