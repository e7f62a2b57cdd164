// Package stackvm runs the textual stack machine programs produced by
// whilec's code generator. It exists so that generated code can be checked
// against the interpreter.
package stackvm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/stacks/arraystack"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrUninitialized  = errors.New("load of uninitialized storage")
	ErrStackUnderflow = errors.New("operand stack underflow")
	ErrInput          = errors.New("invalid input")
)

type instruction struct {
	op      string
	operand string
	value   uint32 // push
	target  int    // jmp, jz
	line    int    // source line in the assembly text
}

// Program is an assembled stack machine program.
type Program struct {
	Name    string
	Storage map[string]string // label -> type
	code    []instruction
}

var operandCount = map[string]int{
	"push": 1, "load": 1, "store": 1, "read": 1, "write": 1, "jmp": 1, "jz": 1,
	"add": 0, "sub": 0, "mul": 0, "div": 0, "mod": 0,
	"lt": 0, "gt": 0, "le": 0, "ge": 0, "eq": 0, "and": 0, "or": 0, "not": 0,
	"dup": 0, "dec": 0, "pop": 0, "halt": 0,
}

// Assemble parses program text. Labels may be used before they are defined.
func Assemble(src string) (*Program, error) {
	p := &Program{Storage: make(map[string]string)}
	labels := make(map[string]int)
	section := ""

	for i, raw := range strings.Split(src, "\n") {
		lineNum := i + 1
		text := raw
		if strings.HasPrefix(strings.TrimSpace(text), "; program ") && p.Name == "" {
			p.Name = strings.TrimPrefix(strings.TrimSpace(text), "; program ")
		}
		if idx := strings.Index(text, ";"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		switch text {
		case ".data", ".code":
			section = text
			continue
		}

		fields := strings.Fields(text)
		switch section {
		case ".data":
			if len(fields) != 2 || (fields[1] != "natural" && fields[1] != "boolean") {
				return nil, fmt.Errorf("line %d: malformed storage declaration %q", lineNum, text)
			}
			p.Storage[fields[0]] = fields[1]

		case ".code":
			if len(fields) == 1 && strings.HasSuffix(fields[0], ":") {
				label := strings.TrimSuffix(fields[0], ":")
				if _, dup := labels[label]; dup {
					return nil, fmt.Errorf("line %d: label %s defined twice", lineNum, label)
				}
				labels[label] = len(p.code)
				continue
			}
			want, ok := operandCount[fields[0]]
			if !ok {
				return nil, fmt.Errorf("line %d: unknown instruction %q", lineNum, fields[0])
			}
			if len(fields)-1 != want {
				return nil, fmt.Errorf("line %d: %s takes %d operand(s)", lineNum, fields[0], want)
			}
			in := instruction{op: fields[0], line: lineNum}
			if want == 1 {
				in.operand = fields[1]
			}
			if in.op == "push" {
				n, err := strconv.ParseUint(in.operand, 10, 32)
				if err != nil {
					return nil, fmt.Errorf("line %d: bad constant %q", lineNum, in.operand)
				}
				in.value = uint32(n)
			}
			p.code = append(p.code, in)

		default:
			return nil, fmt.Errorf("line %d: text outside of .data or .code", lineNum)
		}
	}

	for i := range p.code {
		in := &p.code[i]
		switch in.op {
		case "jmp", "jz":
			target, ok := labels[in.operand]
			if !ok {
				return nil, fmt.Errorf("line %d: undefined label %s", in.line, in.operand)
			}
			in.target = target
		case "load", "store":
			if _, ok := p.Storage[in.operand]; !ok {
				return nil, fmt.Errorf("line %d: undeclared storage %s", in.line, in.operand)
			}
		case "read", "write":
			if in.operand != "natural" && in.operand != "boolean" {
				return nil, fmt.Errorf("line %d: unknown type %s", in.line, in.operand)
			}
		}
	}
	return p, nil
}

// Machine executes one Program.
type Machine struct {
	program *Program
	stack   *arraystack.Stack
	memory  map[string]uint32
	in      *bufio.Scanner
	out     io.Writer
}

func NewMachine(p *Program, in io.Reader, out io.Writer) *Machine {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)
	return &Machine{
		program: p,
		stack:   arraystack.New(),
		memory:  make(map[string]uint32),
		in:      scanner,
		out:     out,
	}
}

// Run executes the program from the first instruction until halt or the
// end of the code.
func (m *Machine) Run() error {
	code := m.program.code
	for pc := 0; pc < len(code); {
		in := code[pc]
		next, err := m.step(in, pc)
		if err != nil {
			return fmt.Errorf("line %d: %s: %w", in.line, in.op, err)
		}
		if next < 0 {
			return nil
		}
		pc = next
	}
	return nil
}

// Memory returns the value stored under label.
func (m *Machine) Memory(label string) (uint32, bool) {
	v, ok := m.memory[label]
	return v, ok
}

// StackDepth returns the number of values on the operand stack.
func (m *Machine) StackDepth() int {
	return m.stack.Size()
}

func (m *Machine) push(v uint32) {
	m.stack.Push(v)
}

func (m *Machine) pop() (uint32, error) {
	v, ok := m.stack.Pop()
	if !ok {
		return 0, ErrStackUnderflow
	}
	return v.(uint32), nil
}

func (m *Machine) step(in instruction, pc int) (int, error) {
	switch in.op {
	case "push":
		m.push(in.value)
	case "load":
		v, ok := m.memory[in.operand]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUninitialized, in.operand)
		}
		m.push(v)
	case "store":
		v, err := m.pop()
		if err != nil {
			return 0, err
		}
		m.memory[in.operand] = v
	case "read":
		v, err := m.read(in.operand)
		if err != nil {
			return 0, err
		}
		m.push(v)
	case "write":
		v, err := m.pop()
		if err != nil {
			return 0, err
		}
		if _, err := fmt.Fprintln(m.out, format(in.operand, v)); err != nil {
			return 0, err
		}
	case "jmp":
		return in.target, nil
	case "jz":
		v, err := m.pop()
		if err != nil {
			return 0, err
		}
		if v == 0 {
			return in.target, nil
		}
	case "dup":
		v, ok := m.stack.Peek()
		if !ok {
			return 0, ErrStackUnderflow
		}
		m.push(v.(uint32))
	case "dec":
		v, err := m.pop()
		if err != nil {
			return 0, err
		}
		m.push(v - 1)
	case "pop":
		if _, err := m.pop(); err != nil {
			return 0, err
		}
	case "not":
		v, err := m.pop()
		if err != nil {
			return 0, err
		}
		m.push(boolValue(v == 0))
	case "halt":
		return -1, nil
	default:
		right, err := m.pop()
		if err != nil {
			return 0, err
		}
		left, err := m.pop()
		if err != nil {
			return 0, err
		}
		v, err := binary(in.op, left, right)
		if err != nil {
			return 0, err
		}
		m.push(v)
	}
	return pc + 1, nil
}

func binary(op string, left, right uint32) (uint32, error) {
	switch op {
	case "add":
		return left + right, nil
	case "sub":
		return left - right, nil
	case "mul":
		return left * right, nil
	case "div":
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		return left / right, nil
	case "mod":
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		return left % right, nil
	case "lt":
		return boolValue(left < right), nil
	case "gt":
		return boolValue(left > right), nil
	case "le":
		return boolValue(left <= right), nil
	case "ge":
		return boolValue(left >= right), nil
	case "eq":
		return boolValue(left == right), nil
	case "and":
		return boolValue(left != 0 && right != 0), nil
	case "or":
		return boolValue(left != 0 || right != 0), nil
	default:
		return 0, fmt.Errorf("unknown instruction %q", op)
	}
}

func (m *Machine) read(typ string) (uint32, error) {
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInput, err)
		}
		return 0, fmt.Errorf("%w: unexpected end of input", ErrInput)
	}
	text := m.in.Text()
	if typ == "boolean" {
		switch text {
		case "true":
			return 1, nil
		case "false":
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %q is not a boolean", ErrInput, text)
	}
	n, err := strconv.ParseUint(text, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a natural", ErrInput, text)
	}
	return uint32(n), nil
}

func boolValue(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func format(typ string, v uint32) string {
	if typ == "boolean" {
		if v != 0 {
			return "true"
		}
		return "false"
	}
	return strconv.FormatUint(uint64(v), 10)
}

// Run assembles src and executes it.
func Run(src string, in io.Reader, out io.Writer) error {
	p, err := Assemble(src)
	if err != nil {
		return err
	}
	return NewMachine(p, in, out).Run()
}
