package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Stack machine mnemonics
const (
	OpPush  = "push"
	OpLoad  = "load"
	OpStore = "store"
	OpRead  = "read"
	OpWrite = "write"
	OpJmp   = "jmp"
	OpJz    = "jz"
	OpDup   = "dup"
	OpDec   = "dec"
	OpPop   = "pop"
	OpNot   = "not"
	OpHalt  = "halt"
)

var binaryOpcodes = map[string]string{
	"+":   "add",
	"-":   "sub",
	"*":   "mul",
	"/":   "div",
	"%":   "mod",
	"<":   "lt",
	">":   "gt",
	"<=":  "le",
	">=":  "ge",
	"=":   "eq",
	"and": "and",
	"or":  "or",
}

// getBinaryOpcode returns the machine instruction for a binary operator
func getBinaryOpcode(op string) string {
	opcode, ok := binaryOpcodes[op]
	if !ok {
		panic("Unsupported binary operator: " + op)
	}
	return opcode
}

// CodeGenerator lowers a checked program to stack machine text in one pass.
// Branch targets are minted from the symbol table's label allocator.
type CodeGenerator struct {
	symbols *SymbolTable
	types   *TypeChecker
	buf     *bufio.Writer
}

func NewCodeGenerator(st *SymbolTable, w io.Writer) *CodeGenerator {
	return &CodeGenerator{
		symbols: st,
		types:   NewTypeChecker(st),
		buf:     bufio.NewWriter(w),
	}
}

// GenerateCode writes the whole program for p to w.
func GenerateCode(w io.Writer, p *Program, st *SymbolTable) error {
	g := NewCodeGenerator(st, w)
	g.EmitHeader(p.Name)
	if err := g.EmitInstructions(p.Instructions); err != nil {
		return err
	}
	g.emit(OpHalt)
	return g.buf.Flush()
}

// CompileToStackCode is GenerateCode into a string.
func CompileToStackCode(p *Program, st *SymbolTable) (string, error) {
	var sb strings.Builder
	if err := GenerateCode(&sb, p, st); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// EmitHeader writes the program banner and one storage slot per variable.
func (g *CodeGenerator) EmitHeader(name string) {
	fmt.Fprintf(g.buf, "; program %s\n", name)
	g.buf.WriteString(".data\n")
	for _, symbol := range g.symbols.Symbols() {
		fmt.Fprintf(g.buf, "%s %s ; %s\n", symbol.Label, symbol.Type, symbol.Name)
	}
	g.buf.WriteString(".code\n")
}

func (g *CodeGenerator) emit(opcode string, operands ...string) {
	g.buf.WriteString("    ")
	g.buf.WriteString(opcode)
	for _, operand := range operands {
		g.buf.WriteString(" ")
		g.buf.WriteString(operand)
	}
	g.buf.WriteString("\n")
}

func (g *CodeGenerator) emitLabel(label string) {
	g.buf.WriteString(label)
	g.buf.WriteString(":\n")
}

// EmitInstructions generates code for a sequence. Every instruction leaves
// the operand stack as it found it.
func (g *CodeGenerator) EmitInstructions(list []*Instruction) error {
	for _, in := range list {
		if err := g.EmitInstruction(in); err != nil {
			return err
		}
	}
	return nil
}

// EmitInstruction generates code for one instruction
func (g *CodeGenerator) EmitInstruction(in *Instruction) error {
	switch in.Kind {
	case InstrAssign:
		symbol, err := g.symbols.ResolveVariable(in.Line, in.Target)
		if err != nil {
			return err
		}
		if err := g.EmitExpression(in.Expr); err != nil {
			return err
		}
		g.emit(OpStore, symbol.Label)

	case InstrRead:
		symbol, err := g.symbols.ResolveVariable(in.Line, in.Target)
		if err != nil {
			return err
		}
		g.emit(OpRead, symbol.Type.String())
		g.emit(OpStore, symbol.Label)

	case InstrWrite:
		typ, err := g.types.TypeOf(in.Expr)
		if err != nil {
			return err
		}
		if err := g.EmitExpression(in.Expr); err != nil {
			return err
		}
		g.emit(OpWrite, typ.String())

	case InstrIf:
		var elseLabel string
		if in.Else != nil {
			elseLabel = g.symbols.Labels.Next()
		}
		endLabel := g.symbols.Labels.Next()
		if err := g.EmitExpression(in.Expr); err != nil {
			return err
		}
		if in.Else == nil {
			g.emit(OpJz, endLabel)
			if err := g.EmitInstructions(in.Body); err != nil {
				return err
			}
		} else {
			g.emit(OpJz, elseLabel)
			if err := g.EmitInstructions(in.Body); err != nil {
				return err
			}
			g.emit(OpJmp, endLabel)
			g.emitLabel(elseLabel)
			if err := g.EmitInstructions(in.Else); err != nil {
				return err
			}
		}
		g.emitLabel(endLabel)

	case InstrWhile:
		startLabel := g.symbols.Labels.Next()
		endLabel := g.symbols.Labels.Next()
		g.emitLabel(startLabel)
		if err := g.EmitExpression(in.Expr); err != nil {
			return err
		}
		g.emit(OpJz, endLabel)
		if err := g.EmitInstructions(in.Body); err != nil {
			return err
		}
		g.emit(OpJmp, startLabel)
		g.emitLabel(endLabel)

	case InstrRepeat:
		// The remaining count stays on top of the stack while the body runs.
		startLabel := g.symbols.Labels.Next()
		endLabel := g.symbols.Labels.Next()
		if err := g.EmitExpression(in.Expr); err != nil {
			return err
		}
		g.emitLabel(startLabel)
		g.emit(OpDup)
		g.emit(OpJz, endLabel)
		if err := g.EmitInstructions(in.Body); err != nil {
			return err
		}
		g.emit(OpDec)
		g.emit(OpJmp, startLabel)
		g.emitLabel(endLabel)
		g.emit(OpPop)

	default:
		panic("unknown instruction kind: " + string(in.Kind))
	}
	return nil
}

// EmitExpression generates code that pushes the value of e
func (g *CodeGenerator) EmitExpression(e *Expression) error {
	switch e.Kind {
	case ExprNumber:
		g.emit(OpPush, fmt.Sprint(e.Number))

	case ExprBoolean:
		g.emit(OpPush, fmt.Sprint(boolToValue(e.Boolean)))

	case ExprIdent:
		symbol, err := g.symbols.ResolveVariable(e.Line, e.Name)
		if err != nil {
			return err
		}
		g.emit(OpLoad, symbol.Label)

	case ExprBinary:
		if err := g.EmitExpression(e.Children[0]); err != nil {
			return err
		}
		if err := g.EmitExpression(e.Children[1]); err != nil {
			return err
		}
		g.emit(getBinaryOpcode(e.Op))

	case ExprNot:
		if err := g.EmitExpression(e.Children[0]); err != nil {
			return err
		}
		g.emit(OpNot)

	case ExprTernary:
		elseLabel := g.symbols.Labels.Next()
		endLabel := g.symbols.Labels.Next()
		if err := g.EmitExpression(e.Children[0]); err != nil {
			return err
		}
		g.emit(OpJz, elseLabel)
		if err := g.EmitExpression(e.Children[1]); err != nil {
			return err
		}
		g.emit(OpJmp, endLabel)
		g.emitLabel(elseLabel)
		if err := g.EmitExpression(e.Children[2]); err != nil {
			return err
		}
		g.emitLabel(endLabel)

	default:
		panic("unknown expression kind: " + string(e.Kind))
	}
	return nil
}
