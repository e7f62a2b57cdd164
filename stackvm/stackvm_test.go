package stackvm

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func run(t *testing.T, src, input string) (string, error) {
	t.Helper()
	var out strings.Builder
	err := Run(src, strings.NewReader(input), &out)
	return out.String(), err
}

func TestAssemble(t *testing.T) {
	p, err := Assemble(`; program demo
.data
L0 natural ; x
L1 boolean ; b
.code
    push 1
L2:
    jmp L2
    halt
`)
	be.Err(t, err, nil)
	be.Equal(t, p.Name, "demo")
	be.Equal(t, p.Storage, map[string]string{"L0": "natural", "L1": "boolean"})
	be.Equal(t, len(p.code), 3)
	be.Equal(t, p.code[1].target, 1)
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  string
	}{
		{"outside section", "push 1", "line 1: text outside of .data or .code"},
		{"bad storage", ".data\nL0", "line 2: malformed storage declaration"},
		{"bad storage type", ".data\nL0 integer", "line 2: malformed storage declaration"},
		{"unknown opcode", ".code\n  frob", `line 2: unknown instruction "frob"`},
		{"missing operand", ".code\n  push", "line 2: push takes 1 operand(s)"},
		{"extra operand", ".code\n  add 1", "line 2: add takes 0 operand(s)"},
		{"bad constant", ".code\n  push -1", `line 2: bad constant "-1"`},
		{"undefined label", ".code\n  jz L9", "line 2: undefined label L9"},
		{"duplicate label", ".code\nL0:\nL0:", "line 3: label L0 defined twice"},
		{"undeclared storage", ".code\n  load L0", "line 2: undeclared storage L0"},
		{"unknown type", ".code\n  read integer", "line 2: unknown type integer"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Assemble(test.src)
			be.Err(t, err, test.err)
		})
	}
}

func TestRunArithmetic(t *testing.T) {
	out, err := run(t, `.code
    push 6
    push 7
    mul
    write natural
    push 0
    push 1
    sub
    write natural
    push 17
    push 5
    mod
    write natural
    halt
`, "")
	be.Err(t, err, nil)
	be.Equal(t, out, "42\n4294967295\n2\n")
}

func TestRunComparisonsAndLogic(t *testing.T) {
	out, err := run(t, `.code
    push 1
    push 2
    lt
    write boolean
    push 2
    push 2
    ge
    push 0
    and
    write boolean
    push 0
    push 1
    or
    not
    write boolean
`, "")
	be.Err(t, err, nil)
	be.Equal(t, out, "true\nfalse\nfalse\n")
}

func TestRunMemoryAndInput(t *testing.T) {
	src := `.data
L0 natural
L1 boolean
.code
    read natural
    store L0
    read boolean
    store L1
    load L0
    push 1
    add
    write natural
    load L1
    write boolean
    halt
`
	p, err := Assemble(src)
	be.Err(t, err, nil)

	var out strings.Builder
	m := NewMachine(p, strings.NewReader("41 true"), &out)
	be.Err(t, m.Run(), nil)
	be.Equal(t, out.String(), "42\ntrue\n")

	value, ok := m.Memory("L0")
	be.True(t, ok)
	be.Equal(t, value, uint32(41))
	be.Equal(t, m.StackDepth(), 0)
}

func TestRunCountedLoop(t *testing.T) {
	out, err := run(t, `.code
    push 3
L0:
    dup
    jz L1
    dup
    write natural
    dec
    jmp L0
L1:
    pop
    halt
`, "")
	be.Err(t, err, nil)
	be.Equal(t, out, "3\n2\n1\n")
}

func TestRunStopsAtHalt(t *testing.T) {
	out, err := run(t, ".code\n  push 1\n  write natural\n  halt\n  push 2\n  write natural\n", "")
	be.Err(t, err, nil)
	be.Equal(t, out, "1\n")
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		input string
		err   error
		msg   string
	}{
		{"division by zero", ".code\n  push 1\n  push 0\n  div", "", ErrDivisionByZero, "line 4: div: division by zero"},
		{"modulo by zero", ".code\n  push 1\n  push 0\n  mod", "", ErrDivisionByZero, "line 4: mod"},
		{"uninitialized", ".data\nL0 natural\n.code\n  load L0", "", ErrUninitialized, "line 4: load: load of uninitialized storage: L0"},
		{"underflow", ".code\n  add", "", ErrStackUnderflow, "line 2: add"},
		{"dup on empty", ".code\n  dup", "", ErrStackUnderflow, "line 2: dup"},
		{"end of input", ".code\n  read natural", "", ErrInput, "unexpected end of input"},
		{"bad natural", ".code\n  read natural", "x", ErrInput, `"x" is not a natural`},
		{"bad boolean", ".code\n  read boolean", "1", ErrInput, `"1" is not a boolean`},
		{"oversized token", ".code\n  read natural", strings.Repeat("9", 70000), ErrInput, "line 2: read: invalid input: bufio.Scanner: token too long"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := run(t, test.src, test.input)
			be.Err(t, err, test.err)
			be.Err(t, err, test.msg)
		})
	}
}
