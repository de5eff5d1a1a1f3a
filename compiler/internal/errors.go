package internal

import "fmt"

// ErrorKind classifies every failure the compiler reports. It implements error so
// that callers can match a *CompileError with errors.Is(err, ErrName).
type ErrorKind int

const (
	ErrScan            ErrorKind = iota // malformed source text
	ErrLexicalMismatch                  // typed accessor used on a token of another kind
	ErrSyntax                           // expected keyword, symbol, type or identifier not found
	ErrName                             // undeclared name or duplicate declaration
	ErrResource                         // source or output file not usable
)

func (kind ErrorKind) Error() string {
	switch kind {
	case ErrScan:
		return "scan error"
	case ErrLexicalMismatch:
		return "lexical mismatch"
	case ErrSyntax:
		return "syntax error"
	case ErrName:
		return "name error"
	case ErrResource:
		return "resource error"
	}
	return "unknown error"
}

type CompileError struct {
	Kind  ErrorKind
	Msg   string
	Token *Token
	// Pos is the cursor index of Token, -1 when the error is not tied to a token position.
	Pos int
}

func (err *CompileError) Error() string {
	if err.Token == nil {
		return fmt.Sprintf("%s: %s", err.Kind, err.Msg)
	}
	if err.Pos < 0 {
		return fmt.Sprintf("%s: %s (line %d: '%s')", err.Kind, err.Msg, err.Token.line, err.Token.content)
	}
	return fmt.Sprintf("%s: %s (token %d: '%s')", err.Kind, err.Msg, err.Pos, err.Token.content)
}

func (err *CompileError) Unwrap() error {
	return err.Kind
}

func makeCompileError(kind ErrorKind, token *Token, pos int, format string, args ...interface{}) *CompileError {
	return &CompileError{
		Kind:  kind,
		Msg:   fmt.Sprintf(format, args...),
		Token: token,
		Pos:   pos,
	}
}
