package internal

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// Grammar rules that open an element in the parse trace.
const (
	classRule          = "class"
	classVarDecRule    = "classVarDec"
	subroutineDecRule  = "subroutineDec"
	parameterListRule  = "parameterList"
	subroutineBodyRule = "subroutineBody"
	varDecRule         = "varDec"
	statementsRule     = "statements"
	letRule            = "letStatement"
	ifRule             = "ifStatement"
	whileRule          = "whileStatement"
	doRule             = "doStatement"
	returnRule         = "returnStatement"
	expressionRule     = "expression"
	termRule           = "term"
	expressionListRule = "expressionList"
)

// parseTrace accumulates the xml parse trace of one compilation unit. A nil
// *parseTrace records nothing.
type parseTrace struct {
	builder  strings.Builder
	annotate bool
}

func (trace *parseTrace) open(rule string) {
	if trace == nil {
		return
	}
	trace.builder.WriteString("<" + rule + ">\n")
}

func (trace *parseTrace) close(rule string) {
	if trace == nil {
		return
	}
	trace.builder.WriteString("</" + rule + ">\n")
}

// leaf records a consumed token. category is the storage kind of a resolved
// identifier and is only written when annotation is on.
func (trace *parseTrace) leaf(token *Token, category string) {
	if trace == nil {
		return
	}
	if !trace.annotate {
		category = ""
	}
	token.writeXML(&trace.builder, category)
}

func (trace *parseTrace) String() string {
	if trace == nil {
		return ""
	}
	return trace.builder.String()
}

// PrettyXML re-indents an xml document with two spaces per level, dropping
// whitespace-only text. Malformed input is returned unchanged.
func PrettyXML(document string) string {
	decoder := xml.NewDecoder(strings.NewReader(document))
	buf := &bytes.Buffer{}
	encoder := xml.NewEncoder(buf)
	encoder.Indent("", "  ")
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return document
		}
		if data, ok := token.(xml.CharData); ok && len(bytes.TrimSpace(data)) == 0 {
			continue
		}
		if err := encoder.EncodeToken(xml.CopyToken(token)); err != nil {
			return document
		}
	}
	if err := encoder.Flush(); err != nil {
		return document
	}
	buf.WriteByte('\n')
	return buf.String()
}
