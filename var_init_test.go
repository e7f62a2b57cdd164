package main

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestReadBeforeInitialization(t *testing.T) {
	src := `
(program p (natural x) (natural y)
  (begin
    (:= y 1)
    (write (+ y x))))`
	output, err := interpret(t, src, "")
	be.Err(t, err, ErrRuntime)
	be.Equal(t, err.Error(), "Line 5: Error: Variable read before initialization: x")
	be.Equal(t, output, "")
}

func TestAssignInitializes(t *testing.T) {
	src := `(program p (natural x) (begin (:= x 3) (:= x (* x x)) (write x)))`
	output, err := interpret(t, src, "")
	be.Err(t, err, nil)
	be.Equal(t, output, "9\n")
}

func TestReadInitializes(t *testing.T) {
	src := `(program p (natural a) (boolean b) (begin (read a) (read b) (write a) (write b)))`
	output, err := interpret(t, src, "  17\n\ttrue ")
	be.Err(t, err, nil)
	be.Equal(t, output, "17\ntrue\n")
}

func TestOnlyTheTakenBranchInitializes(t *testing.T) {
	src := `
(program p (natural x)
  (begin
    (if false (then (:= x 1)))
    (write x)))`
	_, err := interpret(t, src, "")
	be.Err(t, err, "Variable read before initialization: x")
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		decl  string
		input string
		err   string
	}{
		{"end of input", "natural", "", "Line 1: Error: Unexpected end of input."},
		{"bad natural", "natural", "abc", "Line 1: Error: Invalid natural input: abc"},
		{"negative natural", "natural", "-1", "Line 1: Error: Invalid natural input: -1"},
		{"natural out of range", "natural", "4294967296", "Line 1: Error: Invalid natural input: 4294967296"},
		{"bad boolean", "boolean", "yes", "Line 1: Error: Invalid boolean input: yes"},
		{"boolean as number", "boolean", "1", "Line 1: Error: Invalid boolean input: 1"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			src := "(program p (" + test.decl + " v) (begin (read v)))"
			_, err := interpret(t, src, test.input)
			be.Err(t, err, ErrRuntime)
			be.Equal(t, err.Error(), test.err)
		})
	}
}

func TestReadOversizedToken(t *testing.T) {
	src := "(program p (natural v)\n  (begin\n    (read v)))"
	_, err := interpret(t, src, strings.Repeat("9", 70000))
	be.Err(t, err, ErrRuntime)
	be.Equal(t, err.Error(), "Line 3: Error: bufio.Scanner: token too long")
}

func TestReadLargestNatural(t *testing.T) {
	output, err := interpret(t, `(program p (natural v) (begin (read v) (write (+ v 1)) (write v)))`, "4294967295")
	be.Err(t, err, nil)
	be.Equal(t, output, "0\n4294967295\n")
}

func TestDivisionAndModulo(t *testing.T) {
	output, err := interpret(t, `(program p (begin (write (/ 17 5)) (write (% 17 5)) (write (/ 4 8))))`, "")
	be.Err(t, err, nil)
	be.Equal(t, output, "3\n2\n0\n")

	_, err = interpret(t, "(program p (begin\n (write (% 1 0))))", "")
	be.Err(t, err, "Line 2: Error: Division by zero.")
}

func TestParseAndFormatValue(t *testing.T) {
	value, err := ParseValue(TypeNatural, "123")
	be.Err(t, err, nil)
	be.Equal(t, value, uint32(123))
	be.Equal(t, FormatValue(TypeNatural, value), "123")

	value, err = ParseValue(TypeBoolean, "false")
	be.Err(t, err, nil)
	be.Equal(t, value, uint32(0))
	be.Equal(t, FormatValue(TypeBoolean, value), "false")
	be.Equal(t, FormatValue(TypeBoolean, 1), "true")
}

func TestApplyBinary(t *testing.T) {
	tests := []struct {
		op          string
		left, right uint32
		want        uint32
	}{
		{"+", 4294967295, 1, 0},
		{"-", 0, 1, 4294967295},
		{"*", 3, 4, 12},
		{"/", 7, 2, 3},
		{"%", 7, 2, 1},
		{"<", 1, 2, 1},
		{">", 1, 2, 0},
		{"<=", 2, 2, 1},
		{">=", 1, 2, 0},
		{"=", 5, 5, 1},
		{"and", 1, 0, 0},
		{"or", 1, 0, 1},
	}
	for _, test := range tests {
		t.Run(test.op, func(t *testing.T) {
			got, ok := ApplyBinary(test.op, test.left, test.right)
			be.True(t, ok)
			be.Equal(t, got, test.want)
		})
	}

	_, ok := ApplyBinary("/", 1, 0)
	be.Equal(t, ok, false)
	_, ok = ApplyBinary("%", 1, 0)
	be.Equal(t, ok, false)
}
