package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Interpreter executes checked instructions against a runtime value store
// keyed by symbol label. Booleans are stored as 0 and 1.
type Interpreter struct {
	symbols *SymbolTable
	types   *TypeChecker
	values  map[string]uint32
	in      *bufio.Scanner
	out     io.Writer
}

// NewInterpreter creates an interpreter reading values for read instructions
// from in (one whitespace separated token each) and writing one line per
// write instruction to out.
func NewInterpreter(st *SymbolTable, in io.Reader, out io.Writer) *Interpreter {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)
	return &Interpreter{
		symbols: st,
		types:   NewTypeChecker(st),
		values:  make(map[string]uint32),
		in:      scanner,
		out:     out,
	}
}

// Value returns the current value of a variable and whether it has been
// written yet.
func (it *Interpreter) Value(name string) (uint32, bool) {
	symbol := it.symbols.LookupVariable(name)
	if symbol == nil {
		return 0, false
	}
	value, ok := it.values[symbol.Label]
	return value, ok
}

// Execute runs list depth-first, left to right. It stops at the first
// runtime error.
func (it *Interpreter) Execute(list []*Instruction) error {
	for _, in := range list {
		if err := it.execute(in); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interpreter) execute(in *Instruction) error {
	switch in.Kind {
	case InstrAssign:
		symbol, err := it.symbols.ResolveVariable(in.Line, in.Target)
		if err != nil {
			return err
		}
		value, err := it.Evaluate(in.Expr)
		if err != nil {
			return err
		}
		it.values[symbol.Label] = value
		return nil

	case InstrRead:
		symbol, err := it.symbols.ResolveVariable(in.Line, in.Target)
		if err != nil {
			return err
		}
		value, err := it.readValue(in.Line, symbol.Type)
		if err != nil {
			return err
		}
		it.values[symbol.Label] = value
		return nil

	case InstrWrite:
		typ, err := it.types.TypeOf(in.Expr)
		if err != nil {
			return err
		}
		value, err := it.Evaluate(in.Expr)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(it.out, FormatValue(typ, value))
		return err

	case InstrIf:
		cond, err := it.Evaluate(in.Expr)
		if err != nil {
			return err
		}
		if cond != 0 {
			return it.Execute(in.Body)
		}
		return it.Execute(in.Else)

	case InstrWhile:
		for {
			cond, err := it.Evaluate(in.Expr)
			if err != nil {
				return err
			}
			if cond == 0 {
				return nil
			}
			if err := it.Execute(in.Body); err != nil {
				return err
			}
		}

	case InstrRepeat:
		// The count is evaluated once; assignments in the body do not change
		// the number of iterations.
		count, err := it.Evaluate(in.Expr)
		if err != nil {
			return err
		}
		for i := uint32(0); i < count; i++ {
			if err := it.Execute(in.Body); err != nil {
				return err
			}
		}
		return nil

	default:
		panic("unknown instruction kind: " + string(in.Kind))
	}
}

// Evaluate computes the value of e.
func (it *Interpreter) Evaluate(e *Expression) (uint32, error) {
	switch e.Kind {
	case ExprNumber:
		return e.Number, nil

	case ExprBoolean:
		return boolToValue(e.Boolean), nil

	case ExprIdent:
		symbol, err := it.symbols.ResolveVariable(e.Line, e.Name)
		if err != nil {
			return 0, err
		}
		value, ok := it.values[symbol.Label]
		if !ok {
			return 0, runtimeError(e.Line, "Variable read before initialization: %s", e.Name)
		}
		return value, nil

	case ExprBinary:
		left, err := it.Evaluate(e.Children[0])
		if err != nil {
			return 0, err
		}
		right, err := it.Evaluate(e.Children[1])
		if err != nil {
			return 0, err
		}
		value, ok := ApplyBinary(e.Op, left, right)
		if !ok {
			return 0, runtimeError(e.Line, "Division by zero.")
		}
		return value, nil

	case ExprNot:
		operand, err := it.Evaluate(e.Children[0])
		if err != nil {
			return 0, err
		}
		return boolToValue(operand == 0), nil

	case ExprTernary:
		cond, err := it.Evaluate(e.Children[0])
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return it.Evaluate(e.Children[1])
		}
		return it.Evaluate(e.Children[2])

	default:
		panic("unknown expression kind: " + string(e.Kind))
	}
}

func (it *Interpreter) readValue(line int, typ Type) (uint32, error) {
	if !it.in.Scan() {
		if err := it.in.Err(); err != nil {
			return 0, runtimeError(line, "%s", err)
		}
		return 0, runtimeError(line, "Unexpected end of input.")
	}
	value, err := ParseValue(typ, it.in.Text())
	if err != nil {
		return 0, runtimeError(line, "%s", err.Error())
	}
	return value, nil
}

// ApplyBinary computes op over the 32-bit value domain. Natural arithmetic
// wraps around. The boolean result is false only for division or modulo by
// zero.
func ApplyBinary(op string, left, right uint32) (uint32, bool) {
	switch op {
	case "+":
		return left + right, true
	case "-":
		return left - right, true
	case "*":
		return left * right, true
	case "/":
		if right == 0 {
			return 0, false
		}
		return left / right, true
	case "%":
		if right == 0 {
			return 0, false
		}
		return left % right, true
	case "<":
		return boolToValue(left < right), true
	case ">":
		return boolToValue(left > right), true
	case "<=":
		return boolToValue(left <= right), true
	case ">=":
		return boolToValue(left >= right), true
	case "=":
		return boolToValue(left == right), true
	case "and":
		return boolToValue(left != 0 && right != 0), true
	case "or":
		return boolToValue(left != 0 || right != 0), true
	default:
		panic("unknown binary operator: " + op)
	}
}

func boolToValue(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// FormatValue renders a value of type typ as written by write instructions.
func FormatValue(typ Type, value uint32) string {
	if typ == TypeBoolean {
		return formatBoolean(value != 0)
	}
	return strconv.FormatUint(uint64(value), 10)
}

// ParseValue converts one input token to a value of type typ.
func ParseValue(typ Type, text string) (uint32, error) {
	if typ == TypeBoolean {
		switch text {
		case "true":
			return 1, nil
		case "false":
			return 0, nil
		}
		return 0, fmt.Errorf("Invalid boolean input: %s", text)
	}
	n, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("Invalid natural input: %s", text)
	}
	return uint32(n), nil
}
