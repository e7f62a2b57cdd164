package main

import (
	"strconv"

	"github.com/emirpasic/gods/maps/treemap"
)

// DefaultLabelPrefix is prepended to every generated label.
const DefaultLabelPrefix = "L"

// LabelAllocator mints unique labels from a counter seeded at 0. The same
// allocator names variable storage slots and branch targets, so a fresh
// allocator per run reproduces identical labels.
type LabelAllocator struct {
	prefix string
	next   int
}

func NewLabelAllocator(prefix string) *LabelAllocator {
	return &LabelAllocator{prefix: prefix}
}

// Next returns a label that was never returned before.
func (a *LabelAllocator) Next() string {
	label := a.prefix + strconv.Itoa(a.next)
	a.next++
	return label
}

// Issued returns how many labels have been handed out.
func (a *LabelAllocator) Issued() int {
	return a.next
}

// Symbol represents a declared variable. It is immutable once created.
type Symbol struct {
	Line  int
	Name  string
	Type  Type
	Label string
}

// SymbolTable maps variable names to their symbols for one run.
type SymbolTable struct {
	variables *treemap.Map // name -> *Symbol, ordered by name
	Labels    *LabelAllocator
}

// NewSymbolTable creates an empty table whose labels use prefix.
func NewSymbolTable(prefix string) *SymbolTable {
	return &SymbolTable{
		variables: treemap.NewWithStringComparator(),
		Labels:    NewLabelAllocator(prefix),
	}
}

// DeclareVariable adds a new variable and assigns its storage label.
func (st *SymbolTable) DeclareVariable(line int, name string, typ Type) (*Symbol, error) {
	if _, found := st.variables.Get(name); found {
		return nil, newDiagnostic(ErrRedeclaredVariable, line, "Re-declared variable: %s", name)
	}
	symbol := &Symbol{
		Line:  line,
		Name:  name,
		Type:  typ,
		Label: st.Labels.Next(),
	}
	st.variables.Put(name, symbol)
	return symbol, nil
}

// LookupVariable finds a variable by name. Returns nil if not found.
func (st *SymbolTable) LookupVariable(name string) *Symbol {
	value, found := st.variables.Get(name)
	if !found {
		return nil
	}
	return value.(*Symbol)
}

// ResolveVariable is LookupVariable reporting a missing name as an
// UndefinedVariable diagnostic at line.
func (st *SymbolTable) ResolveVariable(line int, name string) (*Symbol, error) {
	symbol := st.LookupVariable(name)
	if symbol == nil {
		return nil, newDiagnostic(ErrUndefinedVariable, line, "Undefined variable: %s", name)
	}
	return symbol, nil
}

// Symbols returns every declared variable ordered by name.
func (st *SymbolTable) Symbols() []*Symbol {
	symbols := make([]*Symbol, 0, st.variables.Size())
	it := st.variables.Iterator()
	for it.Next() {
		symbols = append(symbols, it.Value().(*Symbol))
	}
	return symbols
}

func (st *SymbolTable) Len() int {
	return st.variables.Size()
}

// BuildSymbolTable declares every variable of p before any instruction is
// checked.
func BuildSymbolTable(p *Program, st *SymbolTable) error {
	for _, decl := range p.Declarations {
		if _, err := st.DeclareVariable(decl.Line, decl.Name, decl.Type); err != nil {
			return err
		}
	}
	return nil
}
