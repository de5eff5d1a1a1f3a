package internal

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizer_TrimSpace(t *testing.T) {
	testData := []struct {
		content      string
		expectedPos  int
		expectedLine int
	}{
		{content: "   \thello", expectedPos: 4, expectedLine: 1},
		{content: "   \n\t\thello \nhihi", expectedPos: 6, expectedLine: 2},
		{content: "hello", expectedPos: 0, expectedLine: 1},
	}
	tokenizer := &Tokenizer{}
	for _, data := range testData {
		tokenizer.Reset()
		tokenizer.trimSpace([]byte(data.content))
		assert.Equal(t, data.expectedPos, tokenizer.currentPos, data.content)
		assert.Equal(t, data.expectedLine, tokenizer.currentLine, data.content)
	}
}

func TestTokenizer_hasRemainCharacters(t *testing.T) {
	tokenizer := &Tokenizer{}
	tokenizer.currentPos = 0
	assert.True(t, tokenizer.hasRemainCharacters([]byte("b")))
	tokenizer.currentPos = 1
	assert.False(t, tokenizer.hasRemainCharacters([]byte("b")))
}

func TestTokenizer_TokenSimpleSymbol(t *testing.T) {
	testData := []struct {
		symbol        []byte
		expectedToken *Token
	}{
		{symbol: []byte("{"), expectedToken: &Token{content: "{", line: 1, endPos: 1, kind: SymbolToken}},
		{symbol: []byte("}"), expectedToken: &Token{content: "}", line: 1, endPos: 1, kind: SymbolToken}},
		{symbol: []byte("*"), expectedToken: &Token{content: "*", line: 1, endPos: 1, kind: SymbolToken}},
		{symbol: []byte(">"), expectedToken: &Token{content: ">", line: 1, endPos: 1, kind: SymbolToken}},
		{symbol: []byte(";"), expectedToken: &Token{content: ";", line: 1, endPos: 1, kind: SymbolToken}},
		{symbol: []byte("&"), expectedToken: &Token{content: "&", line: 1, endPos: 1, kind: SymbolToken}},
	}
	tokenizer := &Tokenizer{}
	for _, data := range testData {
		tokenizer.Reset()
		token, err := tokenizer.tokenSimpleSymbol(data.symbol)
		assert.Nil(t, err)
		assert.Equal(t, data.expectedToken, token)
		assert.Equal(t, 1, tokenizer.currentPos)
	}
}

func TestTokenizer_Tokenize(t *testing.T) {
	testData := []struct {
		content       string
		expectedKinds []TokenKind
		expectedText  []string
	}{
		{
			content:       `class Main { field int x; }`,
			expectedKinds: []TokenKind{KeywordToken, IdentifierToken, SymbolToken, KeywordToken, KeywordToken, IdentifierToken, SymbolToken, SymbolToken},
			expectedText:  []string{"class", "Main", "{", "field", "int", "x", ";", "}"},
		},
		{
			content:       `let s = "hello world";`,
			expectedKinds: []TokenKind{KeywordToken, IdentifierToken, SymbolToken, StringConstToken, SymbolToken},
			expectedText:  []string{"let", "s", "=", "hello world", ";"},
		},
		{
			content:       "a/b-~c[12]",
			expectedKinds: []TokenKind{IdentifierToken, SymbolToken, IdentifierToken, SymbolToken, SymbolToken, IdentifierToken, SymbolToken, IntConstToken, SymbolToken},
			expectedText:  []string{"a", "/", "b", "-", "~", "c", "[", "12", "]"},
		},
		{
			content:       "// line comment\n/* block\n comment */ /** doc */ do_it1 // tail",
			expectedKinds: []TokenKind{IdentifierToken},
			expectedText:  []string{"do_it1"},
		},
		{
			content:       "",
			expectedKinds: nil,
			expectedText:  nil,
		},
	}
	tokenizer := &Tokenizer{}
	for _, data := range testData {
		tokens, err := tokenizer.Tokenize(strings.NewReader(data.content))
		require.Nil(t, err, data.content)
		var kinds []TokenKind
		var text []string
		for _, token := range tokens {
			kinds = append(kinds, token.Kind())
			text = append(text, token.Lexeme())
		}
		assert.Equal(t, data.expectedKinds, kinds, data.content)
		assert.Equal(t, data.expectedText, text, data.content)
	}
}

func TestTokenizer_TokenPositions(t *testing.T) {
	tokenizer := &Tokenizer{}
	tokens, err := tokenizer.Tokenize(strings.NewReader("/* a\n b */\n  let x;\nreturn"))
	require.Nil(t, err)
	require.Len(t, tokens, 4)
	assert.Equal(t, 3, tokens[0].Line())
	assert.Equal(t, 2, tokens[0].startPos)
	assert.Equal(t, 5, tokens[0].endPos)
	assert.Equal(t, 4, tokens[3].Line())
	assert.Equal(t, 0, tokens[3].startPos)
}

func TestTokenizer_KeywordsAndIntegers(t *testing.T) {
	tokenizer := &Tokenizer{}
	tokens, err := tokenizer.Tokenize(strings.NewReader("while 32767 whilex 0"))
	require.Nil(t, err)
	require.Len(t, tokens, 4)
	kw, err := tokens[0].AsKeyword()
	assert.Nil(t, err)
	assert.Equal(t, WhileKW, kw)
	v, err := tokens[1].AsInt()
	assert.Nil(t, err)
	assert.Equal(t, 32767, v)
	name, err := tokens[2].AsIdentifier()
	assert.Nil(t, err)
	assert.Equal(t, "whilex", name)
	v, err = tokens[3].AsInt()
	assert.Nil(t, err)
	assert.Equal(t, 0, v)
}

func TestTokenizer_Errors(t *testing.T) {
	testData := []string{
		`let s = "unterminated;`,
		"let s = \"broken\nstring\";",
		"/* never closed",
		"let x = 32768;",
		"let x = 1 % 2;",
		"let #x = 1;",
		"let s = \"smile \U0001F600\";",
		"let s = \"bad \xff byte\";",
	}
	tokenizer := &Tokenizer{}
	for _, data := range testData {
		tokens, err := tokenizer.Tokenize(strings.NewReader(data))
		assert.Nil(t, tokens, data)
		assert.True(t, errors.Is(err, ErrScan), data)
	}
}

func TestTokenizer_StringCharacterRange(t *testing.T) {
	tokenizer := &Tokenizer{}
	tokens, err := tokenizer.Tokenize(strings.NewReader("\"caf\u00e9 \u7fff\""))
	require.Nil(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "caf\u00e9 \u7fff", tokens[0].Lexeme())

	_, err = tokenizer.Tokenize(strings.NewReader("\"\u8000\""))
	assert.True(t, errors.Is(err, ErrScan))
	assert.Contains(t, err.Error(), "U+8000 out of range 0..32767")
}
