package main

import (
	"fmt"
	"strconv"

	"github.com/strager/whilec/sexy"
)

// LoadProgram builds a Program from its s-expression form:
//
//	(program NAME (natural x) (boolean b) ... (begin INSTRUCTION...))
//
// Every node takes the source line of its opening parenthesis unless it
// carries ^{line: N} metadata.
func LoadProgram(src string) (*Program, error) {
	root, err := sexy.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}
	return programFromSexy(root)
}

// LoadExpression builds a single expression from its s-expression form.
func LoadExpression(src string) (*Expression, error) {
	root, err := sexy.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("reading expression: %w", err)
	}
	return expressionFromSexy(root)
}

func loadError(n *sexy.Node, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", n.Line, fmt.Sprintf(format, args...))
}

func nodeLine(n *sexy.Node) (int, error) {
	meta, ok := n.Meta("line")
	if !ok {
		return n.Line, nil
	}
	if meta.Type != sexy.NodeInteger {
		return 0, loadError(n, "line metadata must be an integer, got %s", meta)
	}
	line, err := strconv.Atoi(meta.Text)
	if err != nil {
		return 0, loadError(n, "invalid line metadata %s", meta.Text)
	}
	return line, nil
}

func programFromSexy(root *sexy.Node) (*Program, error) {
	if root.Head() != "program" {
		return nil, loadError(root, "expected (program ...), got %s", root)
	}
	if len(root.Items) < 3 {
		return nil, loadError(root, "program needs a name and a (begin ...) block")
	}
	name := root.Items[1]
	if name.Type != sexy.NodeSymbol || !isIdentifier(name.Text) {
		return nil, loadError(name, "invalid program name %s", name)
	}

	program := &Program{Name: name.Text}
	last := len(root.Items) - 1
	for _, item := range root.Items[2:last] {
		decl, err := declarationFromSexy(item)
		if err != nil {
			return nil, err
		}
		program.Declarations = append(program.Declarations, decl)
	}

	body := root.Items[last]
	if body.Head() != "begin" {
		return nil, loadError(body, "expected (begin ...) as the last element of program, got %s", body)
	}
	instructions, err := instructionsFromSexy(body.Items[1:])
	if err != nil {
		return nil, err
	}
	program.Instructions = instructions
	return program, nil
}

func declarationFromSexy(n *sexy.Node) (Declaration, error) {
	typ, ok := ParseType(n.Head())
	if !ok || len(n.Items) != 2 {
		return Declaration{}, loadError(n, "expected (boolean NAME) or (natural NAME), got %s", n)
	}
	name, err := identifierFromSexy(n.Items[1])
	if err != nil {
		return Declaration{}, err
	}
	line, err := nodeLine(n)
	if err != nil {
		return Declaration{}, err
	}
	return Declaration{Line: line, Name: name, Type: typ}, nil
}

func instructionsFromSexy(items []*sexy.Node) ([]*Instruction, error) {
	list := make([]*Instruction, 0, len(items))
	for _, item := range items {
		in, err := instructionFromSexy(item)
		if err != nil {
			return nil, err
		}
		list = append(list, in)
	}
	return list, nil
}

func instructionFromSexy(n *sexy.Node) (*Instruction, error) {
	if n.Type != sexy.NodeList {
		return nil, loadError(n, "expected an instruction, got %s", n)
	}
	line, err := nodeLine(n)
	if err != nil {
		return nil, err
	}

	switch head := n.Head(); head {
	case ":=":
		if len(n.Items) != 3 {
			return nil, loadError(n, "expected (:= NAME EXPRESSION), got %s", n)
		}
		target, err := identifierFromSexy(n.Items[1])
		if err != nil {
			return nil, err
		}
		value, err := expressionFromSexy(n.Items[2])
		if err != nil {
			return nil, err
		}
		return NewAssign(line, target, value), nil

	case "read":
		if len(n.Items) != 2 {
			return nil, loadError(n, "expected (read NAME), got %s", n)
		}
		target, err := identifierFromSexy(n.Items[1])
		if err != nil {
			return nil, err
		}
		return NewRead(line, target), nil

	case "write":
		if len(n.Items) != 2 {
			return nil, loadError(n, "expected (write EXPRESSION), got %s", n)
		}
		value, err := expressionFromSexy(n.Items[1])
		if err != nil {
			return nil, err
		}
		return NewWrite(line, value), nil

	case "if":
		if len(n.Items) != 3 && len(n.Items) != 4 {
			return nil, loadError(n, "expected (if CONDITION (then ...) [(else ...)]), got %s", n)
		}
		cond, err := expressionFromSexy(n.Items[1])
		if err != nil {
			return nil, err
		}
		thenBranch, err := branchFromSexy(n.Items[2], "then")
		if err != nil {
			return nil, err
		}
		var elseBranch []*Instruction
		if len(n.Items) == 4 {
			elseBranch, err = branchFromSexy(n.Items[3], "else")
			if err != nil {
				return nil, err
			}
		}
		return NewIf(line, cond, thenBranch, elseBranch), nil

	case "while", "repeat":
		if len(n.Items) < 2 {
			return nil, loadError(n, "expected (%s EXPRESSION INSTRUCTION...), got %s", head, n)
		}
		expr, err := expressionFromSexy(n.Items[1])
		if err != nil {
			return nil, err
		}
		body, err := instructionsFromSexy(n.Items[2:])
		if err != nil {
			return nil, err
		}
		if head == "while" {
			return NewWhile(line, expr, body), nil
		}
		return NewRepeat(line, expr, body), nil

	default:
		return nil, loadError(n, "unknown instruction %s", n)
	}
}

// branchFromSexy reads (then ...) or (else ...). An empty (else) still counts
// as a present, empty false branch.
func branchFromSexy(n *sexy.Node, head string) ([]*Instruction, error) {
	if n.Head() != head {
		return nil, loadError(n, "expected (%s ...), got %s", head, n)
	}
	return instructionsFromSexy(n.Items[1:])
}

// expressionFromSexy reads an expression. Atoms carry the line of their own
// token; lists honor ^{line: N} metadata.
func expressionFromSexy(n *sexy.Node) (*Expression, error) {
	switch n.Type {
	case sexy.NodeInteger:
		value, err := strconv.ParseUint(n.Text, 10, 32)
		if err != nil {
			return nil, loadError(n, "natural literal %s out of range", n.Text)
		}
		return NewNumber(n.Line, uint32(value)), nil

	case sexy.NodeSymbol:
		switch n.Text {
		case "true":
			return NewBoolean(n.Line, true), nil
		case "false":
			return NewBoolean(n.Line, false), nil
		}
		name, err := identifierFromSexy(n)
		if err != nil {
			return nil, err
		}
		return NewIdent(n.Line, name), nil

	case sexy.NodeList:
		line, err := nodeLine(n)
		if err != nil {
			return nil, err
		}
		if len(n.Items) == 0 {
			return nil, loadError(n, "empty expression")
		}
		head := n.Head()
		args := n.Items[1:]
		children := make([]*Expression, 0, len(args))
		for _, arg := range args {
			child, err := expressionFromSexy(arg)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}

		switch {
		case head == "not" && len(children) == 1:
			return NewNot(line, children[0]), nil
		case head == "?" && len(children) == 3:
			return NewTernary(line, children[0], children[1], children[2]), nil
		case IsBinaryOp(head) && len(children) == 2:
			return NewBinary(line, head, children[0], children[1]), nil
		}
		return nil, loadError(n, "invalid expression %s", n)

	default:
		return nil, loadError(n, "invalid expression %s", n)
	}
}

var keywords = map[string]bool{
	"program": true, "begin": true, "end": true,
	"boolean": true, "natural": true,
	"read": true, "write": true,
	"if": true, "then": true, "else": true, "endif": true,
	"while": true, "repeat": true, "do": true, "done": true,
	"true": true, "false": true,
	"and": true, "or": true, "not": true,
}

func identifierFromSexy(n *sexy.Node) (string, error) {
	if n.Type != sexy.NodeSymbol || !isIdentifier(n.Text) || keywords[n.Text] {
		return "", loadError(n, "invalid identifier %s", n)
	}
	return n.Text, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		letter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !letter && (i == 0 || c < '0' || c > '9') {
			return false
		}
	}
	return true
}
