package main

// TypeChecker infers expression types and verifies instructions against a
// fully populated symbol table. It never modifies the AST or the table, so
// checking the same program twice gives the same answer.
type TypeChecker struct {
	symbols *SymbolTable
}

func NewTypeChecker(st *SymbolTable) *TypeChecker {
	return &TypeChecker{symbols: st}
}

// TypeOf returns the type of e or the first diagnostic found in it.
func (tc *TypeChecker) TypeOf(e *Expression) (Type, error) {
	switch e.Kind {
	case ExprNumber:
		return TypeNatural, nil

	case ExprBoolean:
		return TypeBoolean, nil

	case ExprIdent:
		symbol, err := tc.symbols.ResolveVariable(e.Line, e.Name)
		if err != nil {
			return 0, err
		}
		return symbol.Type, nil

	case ExprBinary:
		left, err := tc.TypeOf(e.Children[0])
		if err != nil {
			return 0, err
		}
		if e.Op == "=" {
			right, err := tc.TypeOf(e.Children[1])
			if err != nil {
				return 0, err
			}
			if left != right {
				return 0, typeMismatch(e.Line, "Left and right operands of '=' have different types.")
			}
			return TypeBoolean, nil
		}
		want := operandType(e.Op)
		if left != want {
			return 0, typeMismatch(e.Line, "Left operand of '%s' has unexpected type.", e.Op)
		}
		right, err := tc.TypeOf(e.Children[1])
		if err != nil {
			return 0, err
		}
		if right != want {
			return 0, typeMismatch(e.Line, "Right operand of '%s' has unexpected type.", e.Op)
		}
		return resultType(e.Op), nil

	case ExprNot:
		operand, err := tc.TypeOf(e.Children[0])
		if err != nil {
			return 0, err
		}
		if operand != TypeBoolean {
			return 0, typeMismatch(e.Line, "Operand of 'not' is not boolean.")
		}
		return TypeBoolean, nil

	case ExprTernary:
		cond, err := tc.TypeOf(e.Children[0])
		if err != nil {
			return 0, err
		}
		if cond != TypeBoolean {
			return 0, typeMismatch(e.Line, "Condition of '?:' expression is not boolean.")
		}
		ifTrue, err := tc.TypeOf(e.Children[1])
		if err != nil {
			return 0, err
		}
		ifFalse, err := tc.TypeOf(e.Children[2])
		if err != nil {
			return 0, err
		}
		if ifTrue != ifFalse {
			return 0, typeMismatch(e.Line, "The sides of '?:' expression are not of the same type.")
		}
		return ifTrue, nil

	default:
		panic("unknown expression kind: " + string(e.Kind))
	}
}

// CheckInstruction verifies one instruction, recursing into nested
// sequences.
func (tc *TypeChecker) CheckInstruction(in *Instruction) error {
	switch in.Kind {
	case InstrAssign:
		symbol, err := tc.symbols.ResolveVariable(in.Line, in.Target)
		if err != nil {
			return err
		}
		value, err := tc.TypeOf(in.Expr)
		if err != nil {
			return err
		}
		if symbol.Type != value {
			return typeMismatch(in.Line, "Left and right hand sides of assignment are of different types.")
		}
		return nil

	case InstrRead:
		_, err := tc.symbols.ResolveVariable(in.Line, in.Target)
		return err

	case InstrWrite:
		// Any type can be written.
		_, err := tc.TypeOf(in.Expr)
		return err

	case InstrIf:
		if err := tc.expectCondition(in, "if"); err != nil {
			return err
		}
		if err := tc.CheckInstructions(in.Body); err != nil {
			return err
		}
		return tc.CheckInstructions(in.Else)

	case InstrWhile:
		if err := tc.expectCondition(in, "while"); err != nil {
			return err
		}
		return tc.CheckInstructions(in.Body)

	case InstrRepeat:
		count, err := tc.TypeOf(in.Expr)
		if err != nil {
			return err
		}
		if count != TypeNatural {
			return typeMismatch(in.Line, "Count of 'repeat' instruction is not natural.")
		}
		return tc.CheckInstructions(in.Body)

	default:
		panic("unknown instruction kind: " + string(in.Kind))
	}
}

func (tc *TypeChecker) expectCondition(in *Instruction, keyword string) error {
	cond, err := tc.TypeOf(in.Expr)
	if err != nil {
		return err
	}
	if cond != TypeBoolean {
		return typeMismatch(in.Line, "Condition of '%s' instruction is not boolean.", keyword)
	}
	return nil
}

// CheckInstructions checks a sequence left to right and stops at the first
// failure. A nil sequence is valid.
func (tc *TypeChecker) CheckInstructions(list []*Instruction) error {
	for _, in := range list {
		if err := tc.CheckInstruction(in); err != nil {
			return err
		}
	}
	return nil
}

// CheckProgram runs the whole-program check. st must already hold every
// declaration of p (see BuildSymbolTable).
func CheckProgram(p *Program, st *SymbolTable) error {
	return NewTypeChecker(st).CheckInstructions(p.Instructions)
}
