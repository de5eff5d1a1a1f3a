package internal

// Binary operators. There is no precedence: `a + b * c` is `(a + b) * c`.
var opSymbols = []byte{'+', '-', '*', '/', '&', '|', '<', '>', '='}

// expression: term (op term)*
// Each op is written right after its right operand, so evaluation is strictly left to right.
func (engine *CompilationEngine) compileExpression() error {
	engine.trace.open(expressionRule)
	if err := engine.compileTerm(); err != nil {
		return err
	}
	for engine.peekSymbol(opSymbols...) {
		op := engine.advance()
		if err := engine.compileTerm(); err != nil {
			return err
		}
		engine.generateOpCode(op.content[0])
	}
	engine.trace.close(expressionRule)
	return nil
}

func (engine *CompilationEngine) generateOpCode(op byte) {
	switch op {
	case '+':
		engine.writer.WriteArithmetic(AddCommand)
	case '-':
		engine.writer.WriteArithmetic(SubCommand)
	case '*':
		engine.writer.WriteCall("Math.multiply", 2)
	case '/':
		engine.writer.WriteCall("Math.divide", 2)
	case '&':
		engine.writer.WriteArithmetic(AndCommand)
	case '|':
		engine.writer.WriteArithmetic(OrCommand)
	case '<':
		engine.writer.WriteArithmetic(LtCommand)
	case '>':
		engine.writer.WriteArithmetic(GtCommand)
	case '=':
		engine.writer.WriteArithmetic(EqCommand)
	}
}

// term: integerConstant | stringConstant | keywordConstant | varName | varName '[' expression ']' |
// subroutineCall | '(' expression ')' | unaryOp term
func (engine *CompilationEngine) compileTerm() error {
	engine.trace.open(termRule)
	token, ok := engine.cursor.peek(0)
	if !ok {
		return engine.unexpected("a term")
	}
	var err error
	switch token.kind {
	case IntConstToken:
		engine.advance()
		engine.writer.WritePush(ConstSegment, token.intValue)
	case StringConstToken:
		engine.advance()
		engine.generateConstantStringCode(token.content)
	case KeywordToken:
		err = engine.compileKeywordConstant()
	case IdentifierToken:
		next, _ := engine.cursor.peek(1)
		switch {
		case next != nil && next.isSymbol('['):
			err = engine.compileArrayElement()
		case next != nil && next.isSymbol('(', '.'):
			err = engine.compileSubroutineCall()
		default:
			err = engine.compileVarName()
		}
	case SymbolToken:
		err = engine.compileSymbolTerm()
	}
	if err != nil {
		return err
	}
	engine.trace.close(termRule)
	return nil
}

// true is all ones, false and null are 0, this is the receiver pointer.
func (engine *CompilationEngine) compileKeywordConstant() error {
	token, err := engine.expectKeyword(TrueKW, FalseKW, NullKW, ThisKW)
	if err != nil {
		return err
	}
	switch token.keyword {
	case TrueKW:
		engine.writer.WritePush(ConstSegment, 1)
		engine.writer.WriteArithmetic(NegCommand)
	case FalseKW, NullKW:
		engine.writer.WritePush(ConstSegment, 0)
	case ThisKW:
		engine.writer.WritePush(PointerSegment, 0)
	}
	return nil
}

// '(' expression ')' | ('-' | '~') term
func (engine *CompilationEngine) compileSymbolTerm() error {
	token, err := engine.expectSymbol('(', '-', '~')
	if err != nil {
		return err
	}
	switch token.content[0] {
	case '(':
		if err := engine.compileExpression(); err != nil {
			return err
		}
		_, err = engine.expectSymbol(')')
		return err
	case '-':
		if err := engine.compileTerm(); err != nil {
			return err
		}
		engine.writer.WriteArithmetic(NegCommand)
	case '~':
		if err := engine.compileTerm(); err != nil {
			return err
		}
		engine.writer.WriteArithmetic(NotCommand)
	}
	return nil
}

func (engine *CompilationEngine) compileVarName() error {
	pos := engine.cursor.pos
	name, err := engine.expectIdentifier()
	if err != nil {
		return err
	}
	segment, index, err := engine.resolve(name, pos)
	if err != nil {
		return err
	}
	engine.writer.WritePush(segment, index)
	return nil
}

// varName '[' expression ']', read through that 0.
func (engine *CompilationEngine) compileArrayElement() error {
	pos := engine.cursor.pos
	name, err := engine.expectIdentifier()
	if err != nil {
		return err
	}
	segment, index, err := engine.resolve(name, pos)
	if err != nil {
		return err
	}
	engine.writer.WritePush(segment, index)
	if _, err := engine.expectSymbol('['); err != nil {
		return err
	}
	if err := engine.compileExpression(); err != nil {
		return err
	}
	if _, err := engine.expectSymbol(']'); err != nil {
		return err
	}
	engine.writer.WriteArithmetic(AddCommand)
	engine.writer.WritePop(PointerSegment, 1)
	engine.writer.WritePush(ThatSegment, 0)
	return nil
}

// subroutineCall: subroutineName '(' expressionList ')' | (className | varName) '.' subroutineName '(' expressionList ')'
//
// name(args)          push pointer 0, args, call CurrentClass.name nArgs+1
// Class.name(args)    args, call Class.name nArgs             (Class is not a declared variable)
// obj.name(args)      push obj, args, call TypeOfObj.name nArgs+1
func (engine *CompilationEngine) compileSubroutineCall() error {
	name, err := engine.expectIdentifier()
	if err != nil {
		return err
	}
	if engine.peekSymbol('(') {
		engine.writer.WritePush(PointerSegment, 0)
		nArgs, err := engine.compileArguments()
		if err != nil {
			return err
		}
		engine.writer.WriteCall(engine.className+"."+name, nArgs+1)
		return nil
	}
	if _, err := engine.expectSymbol('.'); err != nil {
		return err
	}
	qualifier := name
	name, err = engine.expectIdentifier()
	if err != nil {
		return err
	}
	receivers := 0
	callee := qualifier + "." + name
	if engine.symbolTable.IndexOf(qualifier) != -1 {
		kind, _ := engine.symbolTable.KindOf(qualifier)
		engine.writer.WritePush(kindSegments[kind], engine.symbolTable.IndexOf(qualifier))
		callee = engine.symbolTable.TypeOf(qualifier) + "." + name
		receivers = 1
	}
	nArgs, err := engine.compileArguments()
	if err != nil {
		return err
	}
	engine.writer.WriteCall(callee, nArgs+receivers)
	return nil
}

// '(' expressionList ')' returning the number of expressions.
func (engine *CompilationEngine) compileArguments() (int, error) {
	if _, err := engine.expectSymbol('('); err != nil {
		return 0, err
	}
	nArgs, err := engine.compileExpressionList()
	if err != nil {
		return 0, err
	}
	_, err = engine.expectSymbol(')')
	return nArgs, err
}

// (expression (',' expression)*)?
func (engine *CompilationEngine) compileExpressionList() (int, error) {
	engine.trace.open(expressionListRule)
	nArgs := 0
	if !engine.peekSymbol(')') {
		for {
			if err := engine.compileExpression(); err != nil {
				return 0, err
			}
			nArgs++
			if !engine.peekSymbol(',') {
				break
			}
			engine.advance()
		}
	}
	engine.trace.close(expressionListRule)
	return nArgs, nil
}

// generateConstantStringCode builds the string in place: String.new, then one
// appendChar per character. appendChar returns the string, so the net effect is one
// reference on the stack.
func (engine *CompilationEngine) generateConstantStringCode(str string) {
	chars := []rune(str)
	engine.writer.WritePush(ConstSegment, len(chars))
	engine.writer.WriteCall("String.new", 1)
	for _, c := range chars {
		engine.writer.WritePush(ConstSegment, int(c))
		engine.writer.WriteCall("String.appendChar", 2)
	}
}

// resolve maps a declared name to its segment and index. pos is the cursor index
// of the name token for diagnostics.
func (engine *CompilationEngine) resolve(name string, pos int) (Segment, int, error) {
	kind, err := engine.symbolTable.KindOf(name)
	if err != nil {
		return "", 0, engine.withToken(err, pos)
	}
	return kindSegments[kind], engine.symbolTable.IndexOf(name), nil
}
