package internal

import "fmt"

// statements: (letStatement | ifStatement | whileStatement | doStatement | returnStatement)*
func (engine *CompilationEngine) compileStatements() error {
	engine.trace.open(statementsRule)
	for engine.peekKeyword(LetKW, IfKW, WhileKW, DoKW, ReturnKW) {
		var err error
		switch engine.cursor.current().keyword {
		case LetKW:
			err = engine.compileLetStatement()
		case IfKW:
			err = engine.compileIfStatement()
		case WhileKW:
			err = engine.compileWhileStatement()
		case DoKW:
			err = engine.compileDoStatement()
		case ReturnKW:
			err = engine.compileReturnStatement()
		}
		if err != nil {
			return err
		}
	}
	engine.trace.close(statementsRule)
	return nil
}

// 'let' varName ('[' expression ']')? '=' expression ';'
func (engine *CompilationEngine) compileLetStatement() error {
	engine.trace.open(letRule)
	if _, err := engine.expectKeyword(LetKW); err != nil {
		return err
	}
	pos := engine.cursor.pos
	varName, err := engine.expectIdentifier()
	if err != nil {
		return err
	}
	segment, index, err := engine.resolve(varName, pos)
	if err != nil {
		return err
	}
	isArray := engine.peekSymbol('[')
	if isArray {
		// Element address: index + base.
		engine.advance()
		if err := engine.compileExpression(); err != nil {
			return err
		}
		if _, err := engine.expectSymbol(']'); err != nil {
			return err
		}
		engine.writer.WritePush(segment, index)
		engine.writer.WriteArithmetic(AddCommand)
	}
	if _, err := engine.expectSymbol('='); err != nil {
		return err
	}
	if err := engine.compileExpression(); err != nil {
		return err
	}
	if _, err := engine.expectSymbol(';'); err != nil {
		return err
	}
	if isArray {
		// The right hand side may use that itself, so pointer 1 is rebound only now.
		engine.writer.WritePop(TempSegment, 0)
		engine.writer.WritePop(PointerSegment, 1)
		engine.writer.WritePush(TempSegment, 0)
		engine.writer.WritePop(ThatSegment, 0)
	} else {
		engine.writer.WritePop(segment, index)
	}
	engine.trace.close(letRule)
	return nil
}

// 'if' '(' expression ')' '{' statements '}' ('else' '{' statements '}')?
//
// vm codes:
// condition
// if-goto IF_TRUEn
// goto IF_FALSEn
// label IF_TRUEn
// statements
// goto IF_ENDn        (only with else)
// label IF_FALSEn
// else statements     (only with else)
// label IF_ENDn       (only with else)
func (engine *CompilationEngine) compileIfStatement() error {
	engine.trace.open(ifRule)
	id := engine.ifLabels
	engine.ifLabels++
	trueLabel, falseLabel, endLabel := fmt.Sprintf("IF_TRUE%d", id), fmt.Sprintf("IF_FALSE%d", id), fmt.Sprintf("IF_END%d", id)
	if _, err := engine.expectKeyword(IfKW); err != nil {
		return err
	}
	if err := engine.compileCondition(); err != nil {
		return err
	}
	engine.writer.WriteIf(trueLabel)
	engine.writer.WriteGoto(falseLabel)
	engine.writer.WriteLabel(trueLabel)
	if err := engine.compileBlock(); err != nil {
		return err
	}
	if engine.peekKeyword(ElseKW) {
		engine.advance()
		engine.writer.WriteGoto(endLabel)
		engine.writer.WriteLabel(falseLabel)
		if err := engine.compileBlock(); err != nil {
			return err
		}
		engine.writer.WriteLabel(endLabel)
	} else {
		engine.writer.WriteLabel(falseLabel)
	}
	engine.trace.close(ifRule)
	return nil
}

// 'while' '(' expression ')' '{' statements '}'
//
// vm codes:
// label WHILE_EXPn
// condition
// not
// if-goto WHILE_ENDn
// statements
// goto WHILE_EXPn
// label WHILE_ENDn
func (engine *CompilationEngine) compileWhileStatement() error {
	engine.trace.open(whileRule)
	id := engine.whileLabels
	engine.whileLabels++
	expLabel, endLabel := fmt.Sprintf("WHILE_EXP%d", id), fmt.Sprintf("WHILE_END%d", id)
	if _, err := engine.expectKeyword(WhileKW); err != nil {
		return err
	}
	engine.writer.WriteLabel(expLabel)
	if err := engine.compileCondition(); err != nil {
		return err
	}
	engine.writer.WriteArithmetic(NotCommand)
	engine.writer.WriteIf(endLabel)
	if err := engine.compileBlock(); err != nil {
		return err
	}
	engine.writer.WriteGoto(expLabel)
	engine.writer.WriteLabel(endLabel)
	engine.trace.close(whileRule)
	return nil
}

// '(' expression ')'
func (engine *CompilationEngine) compileCondition() error {
	if _, err := engine.expectSymbol('('); err != nil {
		return err
	}
	if err := engine.compileExpression(); err != nil {
		return err
	}
	_, err := engine.expectSymbol(')')
	return err
}

// '{' statements '}'
func (engine *CompilationEngine) compileBlock() error {
	if _, err := engine.expectSymbol('{'); err != nil {
		return err
	}
	if err := engine.compileStatements(); err != nil {
		return err
	}
	_, err := engine.expectSymbol('}')
	return err
}

// 'do' subroutineCall ';'
func (engine *CompilationEngine) compileDoStatement() error {
	engine.trace.open(doRule)
	if _, err := engine.expectKeyword(DoKW); err != nil {
		return err
	}
	if err := engine.compileSubroutineCall(); err != nil {
		return err
	}
	if _, err := engine.expectSymbol(';'); err != nil {
		return err
	}
	// Every call leaves one value on the stack, void ones included.
	engine.writer.WritePop(TempSegment, 0)
	engine.trace.close(doRule)
	return nil
}

// 'return' expression? ';'
func (engine *CompilationEngine) compileReturnStatement() error {
	engine.trace.open(returnRule)
	if _, err := engine.expectKeyword(ReturnKW); err != nil {
		return err
	}
	if engine.peekSymbol(';') {
		engine.writer.WritePush(ConstSegment, 0)
	} else if err := engine.compileExpression(); err != nil {
		return err
	}
	if _, err := engine.expectSymbol(';'); err != nil {
		return err
	}
	engine.writer.WriteReturn()
	engine.trace.close(returnRule)
	return nil
}
