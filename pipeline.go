package main

import (
	"fmt"
	"io"
	"os"
)

// Session is one run of the pipeline: a fresh symbol table, the declaration
// phase, the whole-program check and then a single backend.
type Session struct {
	Config  Config
	Symbols *SymbolTable
	In      io.Reader
	Out     io.Writer
	// Trace receives verbose progress messages. Nil disables tracing.
	Trace io.Writer
}

func NewSession(cfg Config, in io.Reader, out io.Writer) *Session {
	s := &Session{
		Config:  cfg,
		Symbols: NewSymbolTable(cfg.LabelPrefix),
		In:      in,
		Out:     out,
	}
	if cfg.Verbose {
		s.Trace = os.Stderr
	}
	return s
}

func (s *Session) tracef(format string, args ...any) {
	if s.Trace != nil {
		fmt.Fprintf(s.Trace, format+"\n", args...)
	}
}

// Check declares every variable of p and type checks all instructions.
func (s *Session) Check(p *Program) error {
	if err := BuildSymbolTable(p, s.Symbols); err != nil {
		return err
	}
	s.tracef("declared %d variables", s.Symbols.Len())
	if err := CheckProgram(p, s.Symbols); err != nil {
		return err
	}
	s.tracef("type check of %s passed", p.Name)
	return nil
}

// Run checks p and dispatches it to the backend named by the session mode.
func (s *Session) Run(p *Program) error {
	if err := s.Check(p); err != nil {
		return err
	}
	s.tracef("mode: %s", s.Config.Mode)
	switch s.Config.Mode {
	case ModeInterpreter:
		return NewInterpreter(s.Symbols, s.In, s.Out).Execute(p.Instructions)
	case ModeCompiler:
		if err := GenerateCode(s.Out, p, s.Symbols); err != nil {
			return err
		}
		s.tracef("generated code using %d labels", s.Symbols.Labels.Issued())
		return nil
	default:
		return fmt.Errorf("unknown mode %q", s.Config.Mode)
	}
}

// RunProgram runs p once with cfg.
func RunProgram(p *Program, cfg Config, in io.Reader, out io.Writer) error {
	return NewSession(cfg, in, out).Run(p)
}
