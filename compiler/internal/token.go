package internal

import (
	"encoding/xml"
	"strings"
)

// TokenKind is the lexical class of a token.
type TokenKind int

const (
	KeywordToken TokenKind = iota
	IdentifierToken
	SymbolToken
	StringConstToken
	IntConstToken
)

// String returns the element name used for the kind in token and parse traces.
func (kind TokenKind) String() string {
	switch kind {
	case KeywordToken:
		return "keyword"
	case IdentifierToken:
		return "identifier"
	case SymbolToken:
		return "symbol"
	case StringConstToken:
		return "stringConstant"
	case IntConstToken:
		return "integerConstant"
	}
	return "unknown"
}

type Keyword int

const (
	ClassKW       Keyword = iota // class
	ConstructorKW                // constructor
	FunctionKW                   // function
	MethodKW                     // method
	FieldKW                      // field
	StaticKW                     // static
	VarKW                        // var
	IntKW                        // int
	CharKW                       // char
	BooleanKW                    // boolean
	VoidKW                       // void
	TrueKW                       // true
	FalseKW                      // false
	NullKW                       // null
	ThisKW                       // this
	LetKW                        // let
	DoKW                         // do
	IfKW                         // if
	ElseKW                       // else
	WhileKW                      // while
	ReturnKW                     // return
)

// keyWordMap is the mapping from a reserved word to its Keyword.
var keyWordMap = map[string]Keyword{
	"class":       ClassKW,
	"constructor": ConstructorKW,
	"function":    FunctionKW,
	"method":      MethodKW,
	"field":       FieldKW,
	"static":      StaticKW,
	"var":         VarKW,
	"int":         IntKW,
	"char":        CharKW,
	"boolean":     BooleanKW,
	"void":        VoidKW,
	"true":        TrueKW,
	"false":       FalseKW,
	"null":        NullKW,
	"this":        ThisKW,
	"let":         LetKW,
	"do":          DoKW,
	"if":          IfKW,
	"else":        ElseKW,
	"while":       WhileKW,
	"return":      ReturnKW,
}

var keywordNames = func() map[Keyword]string {
	names := make(map[Keyword]string, len(keyWordMap))
	for name, kw := range keyWordMap {
		names[kw] = name
	}
	return names
}()

func (kw Keyword) String() string {
	return keywordNames[kw]
}

// Token is one classified lexeme. Tokens are immutable once the scanner produced them.
type Token struct {
	content  string
	line     int
	startPos int
	endPos   int
	kind     TokenKind
	keyword  Keyword
	intValue int
}

func (t *Token) Kind() TokenKind {
	return t.kind
}

// Lexeme returns the raw text of the token. For string constants the quotes are excluded.
func (t *Token) Lexeme() string {
	return t.content
}

func (t *Token) Line() int {
	return t.line
}

func (t *Token) mismatch(want TokenKind) error {
	return makeCompileError(ErrLexicalMismatch, t, -1, "cannot read %s token as %s", t.kind, want)
}

func (t *Token) AsKeyword() (Keyword, error) {
	if t.kind != KeywordToken {
		return 0, t.mismatch(KeywordToken)
	}
	return t.keyword, nil
}

func (t *Token) AsSymbol() (byte, error) {
	if t.kind != SymbolToken {
		return 0, t.mismatch(SymbolToken)
	}
	return t.content[0], nil
}

func (t *Token) AsIdentifier() (string, error) {
	if t.kind != IdentifierToken {
		return "", t.mismatch(IdentifierToken)
	}
	return t.content, nil
}

func (t *Token) AsString() (string, error) {
	if t.kind != StringConstToken {
		return "", t.mismatch(StringConstToken)
	}
	return t.content, nil
}

func (t *Token) AsInt() (int, error) {
	if t.kind != IntConstToken {
		return 0, t.mismatch(IntConstToken)
	}
	return t.intValue, nil
}

func (t *Token) isKeyword(kws ...Keyword) bool {
	if t.kind != KeywordToken {
		return false
	}
	for _, kw := range kws {
		if t.keyword == kw {
			return true
		}
	}
	return false
}

func (t *Token) isSymbol(symbols ...byte) bool {
	if t.kind != SymbolToken {
		return false
	}
	for _, s := range symbols {
		if t.content[0] == s {
			return true
		}
	}
	return false
}

// writeXML writes the token as a leaf element, e.g. <symbol>&lt;</symbol>.
func (t *Token) writeXML(builder *strings.Builder, category string) {
	builder.WriteString("<")
	builder.WriteString(t.kind.String())
	if category != "" {
		builder.WriteString(` category="`)
		builder.WriteString(category)
		builder.WriteString(`"`)
	}
	builder.WriteString(">")
	_ = xml.EscapeText(builder, []byte(t.content))
	builder.WriteString("</")
	builder.WriteString(t.kind.String())
	builder.WriteString(">\n")
}

// TokensXML renders the token trace of one compilation unit.
func TokensXML(tokens []*Token) string {
	builder := &strings.Builder{}
	builder.WriteString("<tokens>\n")
	for _, token := range tokens {
		token.writeXML(builder, "")
	}
	builder.WriteString("</tokens>\n")
	return builder.String()
}

// TokenStream is the ordered, non-restartable token sequence of one source unit.
type TokenStream interface {
	HasNext() bool
	Advance() (*Token, error)
}

type sliceTokenStream struct {
	tokens []*Token
	pos    int
}

func NewTokenStream(tokens []*Token) TokenStream {
	return &sliceTokenStream{tokens: tokens}
}

func (stream *sliceTokenStream) HasNext() bool {
	return stream.pos < len(stream.tokens)
}

func (stream *sliceTokenStream) Advance() (*Token, error) {
	if !stream.HasNext() {
		return nil, makeCompileError(ErrSyntax, nil, stream.pos, "no more tokens available")
	}
	token := stream.tokens[stream.pos]
	stream.pos++
	return token, nil
}
