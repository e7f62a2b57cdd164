package main

import (
	"strconv"
	"strings"
)

// Type is one of the two scalar types of the language.
type Type int

const (
	TypeBoolean Type = iota
	TypeNatural
)

func (t Type) String() string {
	switch t {
	case TypeBoolean:
		return "boolean"
	case TypeNatural:
		return "natural"
	default:
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
}

// ParseType maps a type keyword to its Type.
func ParseType(name string) (Type, bool) {
	switch name {
	case "boolean":
		return TypeBoolean, true
	case "natural":
		return TypeNatural, true
	default:
		return 0, false
	}
}

// ExprKind represents the different kinds of expression nodes
type ExprKind string

const (
	ExprNumber  ExprKind = "ExprNumber"
	ExprBoolean ExprKind = "ExprBoolean"
	ExprIdent   ExprKind = "ExprIdent"
	ExprBinary  ExprKind = "ExprBinary"
	ExprNot     ExprKind = "ExprNot"
	ExprTernary ExprKind = "ExprTernary"
)

// Expression is a node of an expression tree. Each node exclusively owns its
// Children.
type Expression struct {
	Kind ExprKind
	Line int
	// ExprNumber:
	Number uint32
	// ExprBoolean:
	Boolean bool
	// ExprIdent:
	Name string
	// ExprBinary, ExprNot:
	Op string
	// ExprBinary: left, right
	// ExprNot: operand
	// ExprTernary: condition, true branch, false branch
	Children []*Expression
}

// InstrKind represents the different kinds of instruction nodes
type InstrKind string

const (
	InstrAssign InstrKind = "InstrAssign"
	InstrRead   InstrKind = "InstrRead"
	InstrWrite  InstrKind = "InstrWrite"
	InstrIf     InstrKind = "InstrIf"
	InstrWhile  InstrKind = "InstrWhile"
	InstrRepeat InstrKind = "InstrRepeat"
)

// Instruction is a node of an instruction sequence.
type Instruction struct {
	Kind InstrKind
	Line int
	// InstrAssign, InstrRead:
	Target string
	// InstrAssign: right hand side
	// InstrWrite: printed value
	// InstrIf, InstrWhile: condition
	// InstrRepeat: count
	Expr *Expression
	// InstrIf: true branch
	// InstrWhile, InstrRepeat: loop body
	Body []*Instruction
	// InstrIf: false branch, nil when absent
	Else []*Instruction
}

// Declaration introduces one variable of the program.
type Declaration struct {
	Line int
	Name string
	Type Type
}

// Program is a fully parsed program handed to the semantic pipeline.
type Program struct {
	Name         string
	Declarations []Declaration
	Instructions []*Instruction
}

func NewNumber(line int, value uint32) *Expression {
	return &Expression{Kind: ExprNumber, Line: line, Number: value}
}

func NewBoolean(line int, value bool) *Expression {
	return &Expression{Kind: ExprBoolean, Line: line, Boolean: value}
}

func NewIdent(line int, name string) *Expression {
	return &Expression{Kind: ExprIdent, Line: line, Name: name}
}

func NewBinary(line int, op string, left, right *Expression) *Expression {
	return &Expression{Kind: ExprBinary, Line: line, Op: op, Children: []*Expression{left, right}}
}

func NewNot(line int, operand *Expression) *Expression {
	return &Expression{Kind: ExprNot, Line: line, Op: "not", Children: []*Expression{operand}}
}

func NewTernary(line int, cond, ifTrue, ifFalse *Expression) *Expression {
	return &Expression{Kind: ExprTernary, Line: line, Children: []*Expression{cond, ifTrue, ifFalse}}
}

func NewAssign(line int, target string, value *Expression) *Instruction {
	return &Instruction{Kind: InstrAssign, Line: line, Target: target, Expr: value}
}

func NewRead(line int, target string) *Instruction {
	return &Instruction{Kind: InstrRead, Line: line, Target: target}
}

func NewWrite(line int, value *Expression) *Instruction {
	return &Instruction{Kind: InstrWrite, Line: line, Expr: value}
}

// NewIf builds a conditional. Pass a nil elseBranch for an if without else.
func NewIf(line int, cond *Expression, thenBranch, elseBranch []*Instruction) *Instruction {
	return &Instruction{Kind: InstrIf, Line: line, Expr: cond, Body: thenBranch, Else: elseBranch}
}

func NewWhile(line int, cond *Expression, body []*Instruction) *Instruction {
	return &Instruction{Kind: InstrWhile, Line: line, Expr: cond, Body: body}
}

func NewRepeat(line int, count *Expression, body []*Instruction) *Instruction {
	return &Instruction{Kind: InstrRepeat, Line: line, Expr: count, Body: body}
}

// Binary operator tables. "=" is handled separately by the type checker
// since it accepts either operand type.
var arithmeticOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true}

var relationalOps = map[string]bool{"<": true, ">": true, "<=": true, ">=": true}

var logicalOps = map[string]bool{"and": true, "or": true}

// IsBinaryOp reports whether op is a binary operator of the language.
func IsBinaryOp(op string) bool {
	return op == "=" || arithmeticOps[op] || relationalOps[op] || logicalOps[op]
}

// operandType returns the type both operands of op must have.
func operandType(op string) Type {
	if arithmeticOps[op] || relationalOps[op] {
		return TypeNatural
	}
	return TypeBoolean
}

// resultType returns the type op produces.
func resultType(op string) Type {
	if arithmeticOps[op] {
		return TypeNatural
	}
	return TypeBoolean
}

// String renders the expression the way the pretty printer shows it.
func (e *Expression) String() string {
	switch e.Kind {
	case ExprNumber:
		return strconv.FormatUint(uint64(e.Number), 10)
	case ExprBoolean:
		return formatBoolean(e.Boolean)
	case ExprIdent:
		return e.Name
	case ExprBinary:
		return "(" + e.Children[0].String() + ") " + e.Op + " (" + e.Children[1].String() + ")"
	case ExprNot:
		return "not (" + e.Children[0].String() + ")"
	case ExprTernary:
		return "(" + e.Children[0].String() + " ? " + e.Children[1].String() + " : " + e.Children[2].String() + ")"
	default:
		return ""
	}
}

func formatBoolean(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// ToSExpr converts an expression to the s-expression form read by LoadProgram
func ToSExpr(e *Expression) string {
	switch e.Kind {
	case ExprNumber:
		return strconv.FormatUint(uint64(e.Number), 10)
	case ExprBoolean:
		return formatBoolean(e.Boolean)
	case ExprIdent:
		return e.Name
	case ExprBinary:
		return "(" + e.Op + " " + ToSExpr(e.Children[0]) + " " + ToSExpr(e.Children[1]) + ")"
	case ExprNot:
		return "(not " + ToSExpr(e.Children[0]) + ")"
	case ExprTernary:
		return "(? " + ToSExpr(e.Children[0]) + " " + ToSExpr(e.Children[1]) + " " + ToSExpr(e.Children[2]) + ")"
	default:
		return ""
	}
}

// InstructionToSExpr converts an instruction to s-expression form
func InstructionToSExpr(in *Instruction) string {
	switch in.Kind {
	case InstrAssign:
		return "(:= " + in.Target + " " + ToSExpr(in.Expr) + ")"
	case InstrRead:
		return "(read " + in.Target + ")"
	case InstrWrite:
		return "(write " + ToSExpr(in.Expr) + ")"
	case InstrIf:
		result := "(if " + ToSExpr(in.Expr) + " " + sequenceToSExpr("then", in.Body)
		if in.Else != nil {
			result += " " + sequenceToSExpr("else", in.Else)
		}
		return result + ")"
	case InstrWhile:
		return "(while " + ToSExpr(in.Expr) + instructionsToSExpr(in.Body) + ")"
	case InstrRepeat:
		return "(repeat " + ToSExpr(in.Expr) + instructionsToSExpr(in.Body) + ")"
	default:
		return ""
	}
}

func sequenceToSExpr(head string, list []*Instruction) string {
	return "(" + head + instructionsToSExpr(list) + ")"
}

func instructionsToSExpr(list []*Instruction) string {
	var sb strings.Builder
	for _, in := range list {
		sb.WriteString(" ")
		sb.WriteString(InstructionToSExpr(in))
	}
	return sb.String()
}

// ProgramToSExpr converts a whole program to s-expression form
func ProgramToSExpr(p *Program) string {
	var sb strings.Builder
	sb.WriteString("(program ")
	sb.WriteString(p.Name)
	for _, decl := range p.Declarations {
		sb.WriteString(" (" + decl.Type.String() + " " + decl.Name + ")")
	}
	sb.WriteString(" " + sequenceToSExpr("begin", p.Instructions))
	sb.WriteString(")")
	return sb.String()
}
