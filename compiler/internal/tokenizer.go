package internal

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/xiaobogaga/jackc/util"
)

// A simple Tokenizer for jack.

// Jack language has those elements:
// * KeyWord: class, constructor, function, method, field, static, var, int, char, boolean, void, true,
// 			false, null, this, let, do, if, else, while, return.
// * Symbol: {, }, (, ), [, ], ., ,, ;, +, -, *, /, &, |, <, >, =, ~.
// * Constant: integer (0 - 32767), string ("xxx")
// * Identifier: letters, digits, underscore, not starting with a digit.
// * Comment: /**/, /***/, //.

const maxIntConstant = 32767

type Tokenizer struct {
	currentPos  int
	currentLine int
	lineStart   int
	tokens      []*Token
}

// Tokenize accepts a source `rd` and tokenizes its content according to jack language rules.
func (tokenizer *Tokenizer) Tokenize(rd io.Reader) ([]*Token, error) {
	src, err := io.ReadAll(rd)
	if err != nil {
		return nil, makeCompileError(ErrResource, nil, -1, "cannot read source: %v", err)
	}
	tokenizer.Reset()
	for {
		token, err := tokenizer.getNextToken(src)
		if err != nil {
			return nil, err
		}
		if token == nil {
			return tokenizer.tokens, nil
		}
		tokenizer.tokens = append(tokenizer.tokens, token)
	}
}

// getNextToken returns the next token of src, or nil when src is exhausted.
func (tokenizer *Tokenizer) getNextToken(src []byte) (*Token, error) {
	for {
		tokenizer.trimSpace(src)
		if !tokenizer.hasRemainCharacters(src) {
			return nil, nil
		}
		skipped, err := tokenizer.skipComment(src)
		if err != nil {
			return nil, err
		}
		if !skipped {
			break
		}
	}
	c := src[tokenizer.currentPos]
	switch {
	case c == '"':
		return tokenizer.tokenString(src)
	case util.IsNumber(c):
		return tokenizer.tokenNumber(src)
	case util.IsSymbol(c):
		return tokenizer.tokenSimpleSymbol(src)
	case util.IsLetterOrUnderscore(c):
		return tokenizer.toKeywordOrIdentifier(src)
	}
	return nil, tokenizer.makeError(string(c), "unexpected character")
}

// trimSpace steps forward through src and skips all continuous space.
func (tokenizer *Tokenizer) trimSpace(src []byte) {
	for tokenizer.hasRemainCharacters(src) && util.IsSpace(src[tokenizer.currentPos]) {
		tokenizer.consumeByte(src)
	}
}

func (tokenizer *Tokenizer) hasRemainCharacters(src []byte) bool {
	return tokenizer.currentPos < len(src)
}

func (tokenizer *Tokenizer) consumeByte(src []byte) {
	if src[tokenizer.currentPos] == '\n' {
		tokenizer.currentLine++
		tokenizer.lineStart = tokenizer.currentPos + 1
	}
	tokenizer.currentPos++
}

func (tokenizer *Tokenizer) column() int {
	return tokenizer.currentPos - tokenizer.lineStart
}

// skipComment skips one // or /* */ comment starting at the current position.
// A single / that doesn't open a comment is left for the divide symbol.
func (tokenizer *Tokenizer) skipComment(src []byte) (bool, error) {
	rest := src[tokenizer.currentPos:]
	if len(rest) < 2 || rest[0] != '/' {
		return false, nil
	}
	switch rest[1] {
	case '/':
		end := bytes.IndexByte(rest, '\n')
		if end < 0 {
			end = len(rest)
		}
		tokenizer.currentPos += end
		return true, nil
	case '*':
		startLine := tokenizer.currentLine
		end := bytes.Index(rest[2:], []byte("*/"))
		if end < 0 {
			tokenizer.currentPos = len(src)
			return false, makeCompileError(ErrScan, nil, -1, "unterminated comment starting at line %d", startLine)
		}
		for i := 0; i < end+4; i++ {
			tokenizer.consumeByte(src)
		}
		return true, nil
	}
	return false, nil
}

func (tokenizer *Tokenizer) newToken(content string, kind TokenKind, startPos int) *Token {
	return &Token{
		content:  content,
		line:     tokenizer.currentLine,
		startPos: startPos,
		endPos:   tokenizer.column(),
		kind:     kind,
	}
}

func (tokenizer *Tokenizer) tokenSimpleSymbol(src []byte) (*Token, error) {
	startPos := tokenizer.column()
	tokenizer.currentPos++
	return tokenizer.newToken(string(src[tokenizer.currentPos-1]), SymbolToken, startPos), nil
}

func (tokenizer *Tokenizer) tokenString(src []byte) (*Token, error) {
	// Looking forward through the current line to find a closing quote.
	start := tokenizer.currentPos
	startPos := tokenizer.column()
	tokenizer.currentPos++
	for tokenizer.hasRemainCharacters(src) {
		switch src[tokenizer.currentPos] {
		case '"':
			tokenizer.currentPos++
			content := string(src[start+1 : tokenizer.currentPos-1])
			if err := tokenizer.checkStringChars(content); err != nil {
				return nil, err
			}
			return tokenizer.newToken(content, StringConstToken, startPos), nil
		case '\n':
			return nil, tokenizer.makeError(string(src[start:tokenizer.currentPos]), "incorrect string format")
		}
		tokenizer.currentPos++
	}
	return nil, tokenizer.makeError(string(src[start:tokenizer.currentPos]), "incorrect string format")
}

// checkStringChars rejects characters whose code doesn't fit a vm constant.
func (tokenizer *Tokenizer) checkStringChars(content string) error {
	for i := 0; i < len(content); {
		r, size := utf8.DecodeRuneInString(content[i:])
		if r == utf8.RuneError && size <= 1 {
			return tokenizer.makeError(content, "invalid utf-8 in string constant")
		}
		if r > maxIntConstant {
			return tokenizer.makeError(content, fmt.Sprintf("character %U out of range 0..32767", r))
		}
		i += size
	}
	return nil
}

func (tokenizer *Tokenizer) tokenNumber(src []byte) (*Token, error) {
	// Look forward to find a continuous number.
	start := tokenizer.currentPos
	startPos := tokenizer.column()
	for tokenizer.hasRemainCharacters(src) && util.IsNumber(src[tokenizer.currentPos]) {
		tokenizer.currentPos++
	}
	content := string(src[start:tokenizer.currentPos])
	value, err := strconv.Atoi(content)
	if err != nil || value > maxIntConstant {
		return nil, tokenizer.makeError(content, "integer constant out of range 0..32767")
	}
	token := tokenizer.newToken(content, IntConstToken, startPos)
	token.intValue = value
	return token, nil
}

func (tokenizer *Tokenizer) toKeywordOrIdentifier(src []byte) (*Token, error) {
	// Look forward to find continuous characters.
	start := tokenizer.currentPos
	startPos := tokenizer.column()
	for tokenizer.hasRemainCharacters(src) && util.IsLetterOrUnderscoreOrNumber(src[tokenizer.currentPos]) {
		tokenizer.currentPos++
	}
	content := string(src[start:tokenizer.currentPos])
	if kw, isKeyWord := keyWordMap[content]; isKeyWord {
		token := tokenizer.newToken(content, KeywordToken, startPos)
		token.keyword = kw
		return token, nil
	}
	return tokenizer.newToken(content, IdentifierToken, startPos), nil
}

func (tokenizer *Tokenizer) makeError(near string, msg string) error {
	return makeCompileError(ErrScan, nil, -1, "tokenizer error near %q at line %d: %s", near, tokenizer.currentLine, msg)
}

func (tokenizer *Tokenizer) Reset() {
	tokenizer.currentPos, tokenizer.currentLine, tokenizer.lineStart = 0, 1, 0
	tokenizer.tokens = nil
}
