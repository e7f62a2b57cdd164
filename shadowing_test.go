package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func TestRedeclarationEndToEnd(t *testing.T) {
	src := `
(program p
  (natural x)
  (boolean y)
  (boolean x)
  (begin
    (write 1)))`
	output, err := interpret(t, src, "")
	be.Err(t, err, ErrRedeclaredVariable)
	be.Equal(t, err.Error(), "Line 5: Error: Re-declared variable: x")
	be.Equal(t, output, "")
}

func TestRedeclarationSameType(t *testing.T) {
	_, err := checkSource(t, "(program p (natural x)\n (natural x) (begin))")
	be.Err(t, err, "Line 2: Error: Re-declared variable: x")
}

func TestRedeclarationWinsOverBodyErrors(t *testing.T) {
	// Declarations are processed before any instruction is checked.
	src := `
(program p
  (natural a)
  (natural a)
  (begin
    (write missing)))`
	_, err := checkSource(t, src)
	be.Err(t, err, ErrRedeclaredVariable)
}

func TestVariablesAreGlobalToTheProgram(t *testing.T) {
	// Nested blocks see and update the same variable.
	src := `
(program p (natural x)
  (begin
    (:= x 1)
    (if true (then (:= x (+ x 1))))
    (while (< x 5) (:= x (* x 2)))
    (write x)))`
	output := assertSameBehavior(t, src, "")
	be.Equal(t, output, "8\n")
}

func TestUndefinedVariableInNestedBlock(t *testing.T) {
	src := `
(program p (natural x)
  (begin
    (:= x 0)
    (while (< x 1)
      (if true
        (then (:= x (+ x z)))))))`
	_, err := checkSource(t, src)

	var diag *Diagnostic
	be.True(t, errors.As(err, &diag))
	be.Equal(t, diag.Kind, ErrUndefinedVariable)
	be.Equal(t, diag.Line, 7)
	be.True(t, strings.HasSuffix(diag.Message, ": z"))
}
