package internal

import (
	"bufio"
	"fmt"
	"io"
)

// Segment is one addressable storage region of the stack machine. Index ranges are
// checked by the machine, not here.
type Segment string

const (
	ConstSegment   Segment = "constant"
	ArgSegment     Segment = "argument"
	LocalSegment   Segment = "local"
	StaticSegment  Segment = "static"
	ThisSegment    Segment = "this"
	ThatSegment    Segment = "that"
	PointerSegment Segment = "pointer"
	TempSegment    Segment = "temp"
)

type Command string

const (
	AddCommand Command = "add"
	SubCommand Command = "sub"
	NegCommand Command = "neg"
	EqCommand  Command = "eq"
	GtCommand  Command = "gt"
	LtCommand  Command = "lt"
	AndCommand Command = "and"
	OrCommand  Command = "or"
	NotCommand Command = "not"
)

// VMWriter writes one textual vm instruction per call to the output sink of one
// compilation unit.
type VMWriter struct {
	sink   io.Writer
	output *bufio.Writer
	closed bool
}

func NewVMWriter(sink io.Writer) *VMWriter {
	return &VMWriter{sink: sink, output: bufio.NewWriter(sink)}
}

// writeCommand ignores write errors, bufio keeps the first one and Close reports it.
func (writer *VMWriter) writeCommand(command string) {
	writer.output.WriteString(command)
	writer.output.WriteByte('\n')
}

func (writer *VMWriter) WritePush(segment Segment, index int) {
	writer.writeCommand(fmt.Sprintf("push %s %d", segment, index))
}

func (writer *VMWriter) WritePop(segment Segment, index int) {
	writer.writeCommand(fmt.Sprintf("pop %s %d", segment, index))
}

func (writer *VMWriter) WriteArithmetic(command Command) {
	writer.writeCommand(string(command))
}

func (writer *VMWriter) WriteLabel(label string) {
	writer.writeCommand("label " + label)
}

func (writer *VMWriter) WriteGoto(label string) {
	writer.writeCommand("goto " + label)
}

func (writer *VMWriter) WriteIf(label string) {
	writer.writeCommand("if-goto " + label)
}

func (writer *VMWriter) WriteCall(name string, nArgs int) {
	writer.writeCommand(fmt.Sprintf("call %s %d", name, nArgs))
}

func (writer *VMWriter) WriteFunction(name string, nLocals int) {
	writer.writeCommand(fmt.Sprintf("function %s %d", name, nLocals))
}

func (writer *VMWriter) WriteReturn() {
	writer.writeCommand("return")
}

// Close flushes the buffered instructions and closes the sink if it is an io.Closer.
// Only the first call has an effect.
func (writer *VMWriter) Close() error {
	if writer.closed {
		return nil
	}
	writer.closed = true
	err := writer.output.Flush()
	if closer, ok := writer.sink.(io.Closer); ok {
		if closeErr := closer.Close(); err == nil {
			err = closeErr
		}
	}
	if err != nil {
		return makeCompileError(ErrResource, nil, -1, "cannot write vm output: %v", err)
	}
	return nil
}
