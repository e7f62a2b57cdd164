package sexy

import (
	"testing"

	"github.com/nalgeon/be"
)

func TestParseSymbol(t *testing.T) {
	tests := []string{"hello", "test_var", "x", "+", "<=", ":=", "?", "and"}

	for _, input := range tests {
		result, err := Parse(input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeSymbol)
		be.Equal(t, result.Text, input)
		be.Equal(t, result.String(), input)
	}
}

func TestParseString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		output   string
	}{
		{`"hello"`, "hello", `"hello"`},
		{`""`, "", `""`},
		{`"test\"quote"`, `test"quote`, `"test\"quote"`},
		{`"test\\backslash"`, `test\backslash`, `"test\\backslash"`},
	}

	for _, test := range tests {
		result, err := Parse(test.input)
		be.Err(t, err, nil)

		be.Equal(t, result.Type, NodeString)
		be.Equal(t, result.Text, test.expected)
		be.Equal(t, result.String(), test.output)
	}
}

func TestParseInteger(t *testing.T) {
	for _, input := range []string{"0", "42", "4294967296"} {
		result, err := Parse(input)
		be.Err(t, err, nil)
		be.Equal(t, result.Type, NodeInteger)
		be.Equal(t, result.Text, input)
	}
}

func TestParseList(t *testing.T) {
	result, err := Parse("(:= x (+ x 1))")
	be.Err(t, err, nil)

	be.Equal(t, result.Type, NodeList)
	be.Equal(t, len(result.Items), 3)
	be.Equal(t, result.Head(), ":=")
	be.True(t, result.Items[1].IsSymbol("x"))
	be.Equal(t, result.Items[2].Head(), "+")
	be.Equal(t, result.Items[2].Items[2].Type, NodeInteger)
	be.Equal(t, result.String(), "(:= x (+ x 1))")
}

func TestParseEmptyList(t *testing.T) {
	result, err := Parse("()")
	be.Err(t, err, nil)
	be.Equal(t, result.Type, NodeList)
	be.Equal(t, len(result.Items), 0)
	be.Equal(t, result.Head(), "")
}

func TestParseTracksLines(t *testing.T) {
	input := `(program p
  (natural x)
  (begin
    (:= x
        1)))`
	result, err := Parse(input)
	be.Err(t, err, nil)

	be.Equal(t, result.Line, 1)
	be.Equal(t, result.Items[1].Line, 1)
	be.Equal(t, result.Items[2].Line, 2)
	begin := result.Items[3]
	be.Equal(t, begin.Line, 3)
	assign := begin.Items[1]
	be.Equal(t, assign.Line, 4)
	be.Equal(t, assign.Items[2].Line, 5)
}

func TestParseComments(t *testing.T) {
	input := `; leading comment
(write ; trailing
  x)`
	result, err := Parse(input)
	be.Err(t, err, nil)
	be.Equal(t, result.String(), "(write x)")
	be.Equal(t, result.Line, 2)
	be.Equal(t, result.Items[1].Line, 3)
}

func TestParseMetadata(t *testing.T) {
	result, err := Parse("(write ^{line: 7, note: \"hi\"} x)")
	be.Err(t, err, nil)

	be.Equal(t, len(result.Items), 2)
	line, ok := result.Meta("line")
	be.True(t, ok)
	be.Equal(t, line.Type, NodeInteger)
	be.Equal(t, line.Text, "7")

	note, ok := result.Meta("note")
	be.True(t, ok)
	be.Equal(t, note.Text, "hi")

	_, ok = result.Meta("missing")
	be.Equal(t, ok, false)

	be.Equal(t, result.String(), `(^{line: 7, note: "hi"} write x)`)
}

func TestParseMetadataLaterValueWins(t *testing.T) {
	result, err := Parse("(x ^{line: 1} ^{line: 2})")
	be.Err(t, err, nil)
	be.Equal(t, len(result.MetaKeys), 1)
	line, _ := result.Meta("line")
	be.Equal(t, line.Text, "2")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		err   string
	}{
		{"(a b", "line 1: expected ')' but got EOF"},
		{"a b", "line 1: expected EOF but got symbol"},
		{")", "line 1: unexpected token: ')'"},
		{"\n\"open", "line 2: unterminated string"},
		{"(a #b)", "line 1: unexpected character '#'"},
		{"(a ^line)", "line 1: expected '{' after '^' but got symbol"},
		{"(a ^{line 1})", "line 1: expected ':' after metadata key but got integer"},
		{"(a ^{line: 1 x: 2})", "line 1: expected ',' or '}' in metadata but got symbol"},
	}

	for _, test := range tests {
		_, err := Parse(test.input)
		be.Err(t, err, test.err)
	}
}

func TestEqualIgnoresLines(t *testing.T) {
	a, err := Parse("(+ 1\n 2)")
	be.Err(t, err, nil)
	b := NewList(NewSymbol("+"), NewInteger("1"), NewInteger("2"))
	be.True(t, Equal(a, b))
	be.Equal(t, Equal(a, NewList(NewSymbol("+"), NewInteger("2"), NewInteger("1"))), false)
}

func TestNodeTypeString(t *testing.T) {
	be.Equal(t, NodeSymbol.String(), "symbol")
	be.Equal(t, NodeList.String(), "list")
	be.Equal(t, NodeType(42).String(), "NodeType(42)")
}
