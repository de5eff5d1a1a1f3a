package internal

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// SinkOpener opens the vm output of the class named className.
type SinkOpener func(className string) (io.WriteCloser, error)

// SubroutineKind selects the prologue emitted after a function header.
type SubroutineKind int

const (
	ConstructorSubroutine SubroutineKind = iota
	FunctionSubroutine
	MethodSubroutine
)

var subroutineKinds = map[Keyword]SubroutineKind{
	ConstructorKW: ConstructorSubroutine,
	FunctionKW:    FunctionSubroutine,
	MethodKW:      MethodSubroutine,
}

// prologues binds the receiver pointer (pointer 0) for each subroutine kind.
var prologues = map[SubroutineKind]func(engine *CompilationEngine){
	// Allocate one word per field and bind the block as this.
	ConstructorSubroutine: func(engine *CompilationEngine) {
		engine.writer.WritePush(ConstSegment, engine.symbolTable.VarCount(FieldKind))
		engine.writer.WriteCall("Memory.alloc", 1)
		engine.writer.WritePop(PointerSegment, 0)
	},
	// The receiver is the implicit argument 0.
	MethodSubroutine: func(engine *CompilationEngine) {
		engine.writer.WritePush(ArgSegment, 0)
		engine.writer.WritePop(PointerSegment, 0)
	},
	FunctionSubroutine: func(engine *CompilationEngine) {},
}

var kindSegments = map[Kind]Segment{
	StaticKind: StaticSegment,
	FieldKind:  ThisSegment,
	ArgKind:    ArgSegment,
	VarKind:    LocalSegment,
}

// CompilationEngine translates the tokens of one class into vm code in a single
// pass. There is no ast: each grammar rule is one method that consumes its tokens
// and writes code as it goes.
type CompilationEngine struct {
	stream      TokenStream
	cursor      *cursor
	openSink    SinkOpener
	writer      *VMWriter
	symbolTable *SymbolTable
	trace       *parseTrace
	log         logrus.FieldLogger

	className   string
	ifLabels    int
	whileLabels int
}

type EngineOption func(engine *CompilationEngine)

// WithTrace records an xml parse trace, optionally annotating identifiers with
// their storage kind.
func WithTrace(annotate bool) EngineOption {
	return func(engine *CompilationEngine) {
		engine.trace = &parseTrace{annotate: annotate}
	}
}

func WithLogger(log logrus.FieldLogger) EngineOption {
	return func(engine *CompilationEngine) {
		engine.log = log
	}
}

func NewCompilationEngine(stream TokenStream, openSink SinkOpener, options ...EngineOption) *CompilationEngine {
	engine := &CompilationEngine{
		stream:   stream,
		openSink: openSink,
		log:      logrus.StandardLogger(),
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

// ClassName returns the name of the class being compiled, empty before it is read.
func (engine *CompilationEngine) ClassName() string {
	return engine.className
}

// Trace returns the xml parse trace, empty unless WithTrace was given.
func (engine *CompilationEngine) Trace() string {
	return engine.trace.String()
}

// CompileClass consumes the whole token stream. It is the only place compile errors
// are caught: the error is logged and returned, and the output written so far is
// left in the sink and must not be used.
func (engine *CompilationEngine) CompileClass() (err error) {
	defer func() {
		if engine.writer != nil {
			if closeErr := engine.writer.Close(); err == nil {
				err = closeErr
			}
		}
		if err != nil {
			engine.logError(err)
		}
	}()
	engine.cursor, err = newCursor(engine.stream)
	if err != nil {
		return err
	}
	return engine.compileClass()
}

func (engine *CompilationEngine) logError(err error) {
	fields := logrus.Fields{}
	if engine.className != "" {
		fields["class"] = engine.className
	}
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		fields["kind"] = compileErr.Kind.Error()
		fields["token_index"] = compileErr.Pos
		if compileErr.Token != nil {
			fields["token"] = compileErr.Token.content
		}
	} else if engine.cursor != nil {
		fields["token_index"] = engine.cursor.pos
	}
	engine.log.WithFields(fields).Error(err)
}

// 'class' className '{' classVarDec* subroutineDec* '}'
func (engine *CompilationEngine) compileClass() error {
	engine.symbolTable = NewSymbolTable()
	engine.trace.open(classRule)
	if _, err := engine.expectKeyword(ClassKW); err != nil {
		return err
	}
	className, err := engine.expectIdentifier()
	if err != nil {
		return err
	}
	engine.className = className
	sink, err := engine.openSink(className)
	if err != nil {
		return makeCompileError(ErrResource, nil, -1, "cannot open output of class %s: %v", className, err)
	}
	engine.writer = NewVMWriter(sink)
	if _, err := engine.expectSymbol('{'); err != nil {
		return err
	}
	for engine.peekKeyword(StaticKW, FieldKW) {
		if err := engine.compileClassVarDec(); err != nil {
			return err
		}
	}
	for engine.peekKeyword(ConstructorKW, FunctionKW, MethodKW) {
		if err := engine.compileSubroutineDec(); err != nil {
			return err
		}
	}
	if _, err := engine.expectSymbol('}'); err != nil {
		return err
	}
	if !engine.cursor.done() {
		return engine.makeError(ErrSyntax, "expected end of input but found '%s'", engine.cursor.current().content)
	}
	engine.trace.close(classRule)
	return nil
}

// ('static' | 'field') type varName (',' varName)* ';'
func (engine *CompilationEngine) compileClassVarDec() error {
	engine.trace.open(classVarDecRule)
	kindToken, err := engine.expectKeyword(StaticKW, FieldKW)
	if err != nil {
		return err
	}
	kind := FieldKind
	if kindToken.keyword == StaticKW {
		kind = StaticKind
	}
	if err := engine.compileVarNames(kind); err != nil {
		return err
	}
	engine.trace.close(classVarDecRule)
	return nil
}

// type varName (',' varName)* ';' shared by class and local variable declarations.
func (engine *CompilationEngine) compileVarNames(kind Kind) error {
	varType, err := engine.expectType(false)
	if err != nil {
		return err
	}
	for {
		if err := engine.defineNext(varType, kind); err != nil {
			return err
		}
		if !engine.peekSymbol(',') {
			break
		}
		engine.advance()
	}
	_, err = engine.expectSymbol(';')
	return err
}

func (engine *CompilationEngine) defineNext(varType string, kind Kind) error {
	pos := engine.cursor.pos
	name, err := engine.expectIdentifier()
	if err != nil {
		return err
	}
	if err := engine.symbolTable.Define(name, varType, kind); err != nil {
		return engine.withToken(err, pos)
	}
	return nil
}

// ('constructor' | 'function' | 'method') ('void' | type) subroutineName '(' parameterList ')' subroutineBody
func (engine *CompilationEngine) compileSubroutineDec() error {
	engine.trace.open(subroutineDecRule)
	kindToken, err := engine.expectKeyword(ConstructorKW, FunctionKW, MethodKW)
	if err != nil {
		return err
	}
	subroutineKind := subroutineKinds[kindToken.keyword]
	if _, err := engine.expectType(true); err != nil {
		return err
	}
	name, err := engine.expectIdentifier()
	if err != nil {
		return err
	}
	engine.symbolTable.StartSubroutine()
	if subroutineKind == MethodSubroutine {
		// Reserve argument 0 for the receiver.
		if err := engine.symbolTable.Define("this", engine.className, ArgKind); err != nil {
			return err
		}
	}
	if _, err := engine.expectSymbol('('); err != nil {
		return err
	}
	if err := engine.compileParameterList(); err != nil {
		return err
	}
	if _, err := engine.expectSymbol(')'); err != nil {
		return err
	}
	if err := engine.compileSubroutineBody(name, subroutineKind); err != nil {
		return err
	}
	engine.trace.close(subroutineDecRule)
	return nil
}

// ((type varName) (',' type varName)*)?
func (engine *CompilationEngine) compileParameterList() error {
	engine.trace.open(parameterListRule)
	if engine.peekType(false) {
		for {
			paramType, err := engine.expectType(false)
			if err != nil {
				return err
			}
			if err := engine.defineNext(paramType, ArgKind); err != nil {
				return err
			}
			if !engine.peekSymbol(',') {
				break
			}
			engine.advance()
		}
	}
	engine.trace.close(parameterListRule)
	return nil
}

// '{' varDec* statements '}'
func (engine *CompilationEngine) compileSubroutineBody(name string, subroutineKind SubroutineKind) error {
	engine.trace.open(subroutineBodyRule)
	if _, err := engine.expectSymbol('{'); err != nil {
		return err
	}
	for engine.peekKeyword(VarKW) {
		if err := engine.compileVarDec(); err != nil {
			return err
		}
	}
	engine.writer.WriteFunction(engine.className+"."+name, engine.symbolTable.VarCount(VarKind))
	prologues[subroutineKind](engine)
	if err := engine.compileStatements(); err != nil {
		return err
	}
	if _, err := engine.expectSymbol('}'); err != nil {
		return err
	}
	engine.trace.close(subroutineBodyRule)
	return nil
}

// 'var' type varName (',' varName)* ';'
func (engine *CompilationEngine) compileVarDec() error {
	engine.trace.open(varDecRule)
	if _, err := engine.expectKeyword(VarKW); err != nil {
		return err
	}
	if err := engine.compileVarNames(VarKind); err != nil {
		return err
	}
	engine.trace.close(varDecRule)
	return nil
}

// advance consumes the current token and records it in the trace. Callers peek first.
func (engine *CompilationEngine) advance() *Token {
	token := engine.cursor.next()
	category := ""
	if token.kind == IdentifierToken {
		if desc, ok := engine.symbolTable.lookUp(token.content); ok {
			category = desc.kind.String()
		}
	}
	engine.trace.leaf(token, category)
	return token
}

func (engine *CompilationEngine) peekKeyword(kws ...Keyword) bool {
	token, ok := engine.cursor.peek(0)
	return ok && token.isKeyword(kws...)
}

func (engine *CompilationEngine) peekSymbol(symbols ...byte) bool {
	token, ok := engine.cursor.peek(0)
	return ok && token.isSymbol(symbols...)
}

// peekType reports whether the current token is int, char, boolean, a class name,
// or void when acceptVoid is set.
func (engine *CompilationEngine) peekType(acceptVoid bool) bool {
	token, ok := engine.cursor.peek(0)
	if !ok {
		return false
	}
	if token.kind == IdentifierToken || token.isKeyword(IntKW, CharKW, BooleanKW) {
		return true
	}
	return acceptVoid && token.isKeyword(VoidKW)
}

func (engine *CompilationEngine) expectKeyword(kws ...Keyword) (*Token, error) {
	if !engine.peekKeyword(kws...) {
		names := make([]string, 0, len(kws))
		for _, kw := range kws {
			names = append(names, "'"+kw.String()+"'")
		}
		return nil, engine.unexpected("keyword " + strings.Join(names, " or "))
	}
	return engine.advance(), nil
}

func (engine *CompilationEngine) expectSymbol(symbols ...byte) (*Token, error) {
	if !engine.peekSymbol(symbols...) {
		names := make([]string, 0, len(symbols))
		for _, s := range symbols {
			names = append(names, fmt.Sprintf("'%c'", s))
		}
		return nil, engine.unexpected("symbol " + strings.Join(names, " or "))
	}
	return engine.advance(), nil
}

func (engine *CompilationEngine) expectIdentifier() (string, error) {
	token, ok := engine.cursor.peek(0)
	if !ok || token.kind != IdentifierToken {
		return "", engine.unexpected("identifier")
	}
	return engine.advance().content, nil
}

func (engine *CompilationEngine) expectType(acceptVoid bool) (string, error) {
	if !engine.peekType(acceptVoid) {
		return "", engine.unexpected("a type")
	}
	return engine.advance().content, nil
}

func (engine *CompilationEngine) unexpected(expected string) error {
	if engine.cursor.done() {
		return engine.makeError(ErrSyntax, "expected %s but reached end of input", expected)
	}
	return engine.makeError(ErrSyntax, "expected %s but found '%s'", expected, engine.cursor.current().content)
}

// makeError reports a failure at the current cursor position.
func (engine *CompilationEngine) makeError(kind ErrorKind, format string, args ...interface{}) error {
	var token *Token
	if !engine.cursor.done() {
		token = engine.cursor.current()
	}
	return makeCompileError(kind, token, engine.cursor.pos, format, args...)
}

// withToken attaches the token at pos to an error raised outside the engine.
func (engine *CompilationEngine) withToken(err error, pos int) error {
	if compileErr, ok := err.(*CompileError); ok && compileErr.Token == nil {
		compileErr.Token, compileErr.Pos = engine.cursor.tokens[pos], pos
	}
	return err
}

// cursor owns the tokens of one unit and a position that only moves forward.
type cursor struct {
	tokens []*Token
	pos    int
}

func newCursor(stream TokenStream) (*cursor, error) {
	c := &cursor{}
	for stream.HasNext() {
		token, err := stream.Advance()
		if err != nil {
			return nil, err
		}
		c.tokens = append(c.tokens, token)
	}
	return c, nil
}

func (c *cursor) peek(offset int) (*Token, bool) {
	if c.pos+offset >= len(c.tokens) {
		return nil, false
	}
	return c.tokens[c.pos+offset], true
}

func (c *cursor) current() *Token {
	return c.tokens[c.pos]
}

func (c *cursor) next() *Token {
	token := c.tokens[c.pos]
	c.pos++
	return token
}

func (c *cursor) done() bool {
	return c.pos >= len(c.tokens)
}
