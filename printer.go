package main

import (
	"bufio"
	"io"
	"strings"
)

const indentUnit = "    "

// PrintProgram writes p in the language's surface syntax. Declarations are
// listed in symbol table order.
func PrintProgram(w io.Writer, p *Program, st *SymbolTable) error {
	buf := bufio.NewWriter(w)
	buf.WriteString("program " + p.Name + "\n")
	for _, symbol := range st.Symbols() {
		buf.WriteString(indentUnit + symbol.Type.String() + " " + symbol.Name + "\n")
	}
	buf.WriteString("begin\n")
	printInstructions(buf, 1, p.Instructions)
	buf.WriteString("end\n")
	return buf.Flush()
}

// RenderInstructions returns the pretty printed form of list at indentation
// level zero.
func RenderInstructions(list []*Instruction) string {
	var sb strings.Builder
	buf := bufio.NewWriter(&sb)
	printInstructions(buf, 0, list)
	buf.Flush()
	return sb.String()
}

func printInstructions(buf *bufio.Writer, level int, list []*Instruction) {
	for _, in := range list {
		printInstruction(buf, level, in)
	}
}

func printInstruction(buf *bufio.Writer, level int, in *Instruction) {
	indent := strings.Repeat(indentUnit, level)
	switch in.Kind {
	case InstrAssign:
		buf.WriteString(indent + in.Target + " := " + in.Expr.String() + "\n")
	case InstrRead:
		buf.WriteString(indent + "read(" + in.Target + ")\n")
	case InstrWrite:
		buf.WriteString(indent + "write(" + in.Expr.String() + ")\n")
	case InstrIf:
		buf.WriteString(indent + "if " + in.Expr.String() + " then\n")
		printInstructions(buf, level+1, in.Body)
		if in.Else != nil {
			buf.WriteString(indent + "else\n")
			printInstructions(buf, level+1, in.Else)
		}
		buf.WriteString(indent + "endif\n")
	case InstrWhile:
		buf.WriteString(indent + "while " + in.Expr.String() + " do\n")
		printInstructions(buf, level+1, in.Body)
		buf.WriteString(indent + "done\n")
	case InstrRepeat:
		buf.WriteString(indent + "repeat " + in.Expr.String() + " do\n")
		printInstructions(buf, level+1, in.Body)
		buf.WriteString(indent + "done\n")
	}
}
