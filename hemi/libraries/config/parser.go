// Copyright (c) 2020-2025 Zhang Jingcheng <diogin@gmail.com>.
// Copyright (c) 2022-2024 HexInfra Co., Ltd.
// All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Config parser.

package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

const ( // units
	K = 1 << 10
	M = 1 << 20
	G = 1 << 30
	T = 1 << 40
)

// Parser_ is the mixin for config parsers. Methods panic on errors, callers recover them.
type Parser_ struct {
	constants   map[string]string // defined constants
	signedComps map[string]int16  // defined signed comps
	tokens      []Token           // the token list
	index       int               // token index
	limit       int               // limit of token index
	counter     int               // the name for components without a name
}

func (p *Parser_) Init(constants map[string]string, signedComps map[string]int16) {
	p.constants = constants
	p.signedComps = signedComps
}

func (p *Parser_) ScanText(text string) {
	var l lexer
	p.tokens = l.scanText(text)
	p.process()
}
func (p *Parser_) ScanFile(base string, file string) {
	var l lexer
	p.tokens = l.scanFile(base, file)
	p.process()
}
func (p *Parser_) Show() {
	for _, token := range p.tokens {
		fmt.Println(token.String())
	}
}
func (p *Parser_) process() {
	for i := 0; i < len(p.tokens); i++ {
		token := &p.tokens[i]
		switch token.Kind {
		case TokenWord: // some words are component signs
			if comp, ok := p.signedComps[token.Text]; ok {
				token.Info = comp
			}
		case TokenConstant: // evaluate constants
			text, ok := p.constants[token.Text]
			if !ok {
				panic(fmt.Errorf("parser: unknown constant @%s (in line %d)", token.Text, token.Line))
			}
			token.Kind = TokenString
			token.Text = text
		}
	}
	p.index = 0
	p.limit = len(p.tokens)
	if p.limit == 0 {
		panic(errors.New("parser: empty config"))
	}
}

func (p *Parser_) Current() Token            { return p.tokens[p.index] }
func (p *Parser_) CurrentIs(kind int16) bool { return p.tokens[p.index].Kind == kind }
func (p *Parser_) NextIs(kind int16) bool {
	if p.index+1 >= p.limit {
		return false
	}
	return p.tokens[p.index+1].Kind == kind
}
func (p *Parser_) AtLast() bool { return p.index == p.limit-1 }
func (p *Parser_) Expect(kind int16) Token {
	current := p.tokens[p.index]
	if current.Kind != kind {
		panic(fmt.Errorf("parser: expect %s, but get %s=%s (in line %d)", tokenNames[kind], tokenNames[current.Kind], current.Text, current.Line))
	}
	return current
}
func (p *Parser_) ForwardExpect(kind int16) Token {
	p.forwardCheckEOF()
	return p.Expect(kind)
}
func (p *Parser_) Forward() Token {
	p.forwardCheckEOF()
	return p.tokens[p.index]
}
func (p *Parser_) forwardCheckEOF() {
	if p.index++; p.index == p.limit {
		panic(errors.New("parser: unexpected EOF"))
	}
}
func (p *Parser_) NewName() string {
	p.counter++
	return strconv.Itoa(p.counter)
}

// ParseValue parses the value starting at current token. Current token is the last token of the value after return.
func (p *Parser_) ParseValue(value *Value) {
	current := p.Current()
	switch current.Kind {
	case TokenBool:
		value.Kind, value.Data = TokenBool, current.Text == "true"
	case TokenInteger:
		value.Kind, value.Data = TokenInteger, p.parseInteger(current)
	case TokenString:
		value.Kind, value.Data = TokenString, current.Text
	case TokenDuration:
		value.Kind, value.Data = TokenDuration, p.parseDuration(current)
	case TokenLeftParen: // (...)
		p.parseList(value)
	case TokenLeftBracket: // [...]
		p.parseDict(value)
	default:
		panic(fmt.Errorf("parser: expect a value, but get token %s=%s (in line %d)", current.Name(), current.Text, current.Line))
	}

	if value.Kind != TokenString {
		// Currently only strings can be concatenated
		return
	}
	for p.NextIs(TokenPlus) { // any concatenations?
		p.Forward()                          // +
		next := p.ForwardExpect(TokenString) // "..."
		value.Data = value.Data.(string) + next.Text
	}
}
func (p *Parser_) parseInteger(current Token) int64 {
	text := current.Text
	unit := int64(1)
	switch text[len(text)-1] {
	case 'K':
		unit = K
	case 'M':
		unit = M
	case 'G':
		unit = G
	case 'T':
		unit = T
	}
	if unit != 1 {
		text = text[:len(text)-1]
	}
	n64, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		panic(fmt.Errorf("parser: bad integer %s (in line %d)", current.Text, current.Line))
	}
	return n64 * unit
}
func (p *Parser_) parseDuration(current Token) time.Duration {
	last := len(current.Text) - 1
	n, err := strconv.ParseInt(current.Text[:last], 10, 64)
	if err != nil {
		panic(fmt.Errorf("parser: bad duration %s (in line %d)", current.Text, current.Line))
	}
	var d time.Duration
	switch current.Text[last] {
	case 's':
		d = time.Duration(n) * time.Second
	case 'm':
		d = time.Duration(n) * time.Minute
	case 'h':
		d = time.Duration(n) * time.Hour
	case 'd':
		d = time.Duration(n) * 24 * time.Hour
	}
	return d
}
func (p *Parser_) parseList(value *Value) {
	list := []Value{}
	p.Expect(TokenLeftParen) // (
	for {
		current := p.Forward()
		if current.Kind == TokenRightParen { // )
			break
		}
		var elem Value
		p.ParseValue(&elem)
		list = append(list, elem)
		current = p.Forward()
		if current.Kind == TokenRightParen { // )
			break
		} else if current.Kind != TokenComma { // ,
			panic(fmt.Errorf("parser: bad list in line %d", current.Line))
		}
	}
	value.Kind, value.Data = TokenList, list
}
func (p *Parser_) parseDict(value *Value) {
	dict := make(map[string]Value)
	p.Expect(TokenLeftBracket) // [
	for {
		current := p.Forward()
		if current.Kind == TokenRightBracket { // ]
			break
		}
		k := p.Expect(TokenString)  // k
		p.ForwardExpect(TokenColon) // :
		p.Forward()                 // v
		var v Value
		p.ParseValue(&v)
		dict[k.Text] = v
		current = p.Forward()
		if current.Kind == TokenRightBracket { // ]
			break
		} else if current.Kind != TokenComma { // ,
			panic(fmt.Errorf("parser: bad dict in line %d", current.Line))
		}
	}
	value.Kind, value.Data = TokenDict, dict
}
