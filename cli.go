package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/strager/whilec/stackvm"
)

func showUsage() {
	fmt.Fprintf(os.Stderr, `whilec - checker, interpreter and stack machine compiler for while programs

Usage:
    whilec <command> [arguments]

Commands:
    run <file>      Check a program and run it in the configured mode
    build <file>    Check a program and write stack machine code
    check <file>    Check a program without running it
    print <file>    Pretty print a checked program
    eval <sexpr>    Evaluate a closed expression
    exec <file>     Run stack machine code
    help            Show this help message

Programs are read in their s-expression form:
    (program NAME (natural x) (boolean b) (begin INSTRUCTION...))

Examples:
    whilec run -input numbers.txt sum.sexp
    whilec build -o sum.sm sum.sexp
    whilec eval '(+ 1 (* 2 3))'
    whilec exec sum.sm < numbers.txt

Use "whilec <command> -h" for more information about a command.
`)
}

// commonFlags are shared by every command that loads a program.
type commonFlags struct {
	verbose    *bool
	configPath *string
	prefix     *string
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		verbose:    fs.Bool("v", false, "Show verbose pipeline details"),
		configPath: fs.String("config", "", "Config file (default: "+DefaultConfigFile+" if present)"),
		prefix:     fs.String("label-prefix", "", "Prefix of generated labels"),
	}
}

// config loads the config file and applies the flags that were set on top
// of it.
func (c commonFlags) config(fs *flag.FlagSet) (Config, error) {
	path := *c.configPath
	cfg, err := LoadConfig(orDefault(path, DefaultConfigFile), path != "")
	if err != nil {
		return Config{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			cfg.Verbose = *c.verbose
		case "label-prefix":
			cfg.LabelPrefix = *c.prefix
		}
	})
	return cfg, cfg.Validate()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func parseArgs(fs *flag.FlagSet, args []string, what string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expected exactly one %s argument\n", what)
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func setUsage(fs *flag.FlagSet, usage, summary string) {
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: whilec %s\n", usage)
		fmt.Fprintf(os.Stderr, "%s\n\n", summary)
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}
}

func loadProgramFile(filename string) (*Program, error) {
	source, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	program, err := LoadProgram(string(source))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return program, nil
}

// fail prints err and exits. Diagnostics are printed as they are, other
// errors get a prefix.
func fail(err error) {
	var diag *Diagnostic
	if errors.As(err, &diag) {
		fmt.Fprintln(os.Stderr, diag)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

func runCommand(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	common := addCommonFlags(fs)
	mode := fs.String("mode", "", "compiler or interpreter (default: from config, else interpreter)")
	inputFile := fs.String("input", "", "Read program input from this file instead of stdin")
	output := fs.String("o", "", "Write compiler output to this file instead of stdout")
	setUsage(fs, "run [-v] [-mode m] [-config file] [-input file] [-o file] <file>",
		"Check a program and run it in the configured mode")

	filename := parseArgs(fs, args, "file")
	cfg, err := common.config(fs)
	if err != nil {
		fail(err)
	}
	if *mode != "" {
		m, err := ParseMode(*mode)
		if err != nil {
			fail(err)
		}
		cfg.Mode = m
	}
	if *output != "" {
		cfg.Output = *output
	}
	if err := runFile(filename, cfg, *inputFile); err != nil {
		fail(err)
	}
}

func buildCommand(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	common := addCommonFlags(fs)
	output := fs.String("o", "", "Output file path (default: <filename>.sm)")
	setUsage(fs, "build [-o output] [-v] <file>", "Check a program and write stack machine code")

	filename := parseArgs(fs, args, "file")
	cfg, err := common.config(fs)
	if err != nil {
		fail(err)
	}
	cfg.Mode = ModeCompiler
	cfg.Output = orDefault(*output, orDefault(cfg.Output, strings.TrimSuffix(filename, ".sexp")+".sm"))
	if err := runFile(filename, cfg, ""); err != nil {
		fail(err)
	}
	fmt.Printf("Generated %s\n", cfg.Output)
}

func runFile(filename string, cfg Config, inputFile string) error {
	program, err := loadProgramFile(filename)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if inputFile != "" {
		f, err := os.Open(inputFile)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	toFile := cfg.Mode == ModeCompiler && cfg.Output != ""
	var code bytes.Buffer
	var out io.Writer = os.Stdout
	if toFile {
		out = &code
	}

	session := NewSession(cfg, in, out)
	session.tracef("loaded %s: program %s, %d declarations", filename, program.Name, len(program.Declarations))
	if err := session.Run(program); err != nil {
		return err
	}
	if toFile {
		// The file is only touched once the program checked and compiled.
		return os.WriteFile(cfg.Output, code.Bytes(), 0o644)
	}
	return nil
}

func checkCommand(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	common := addCommonFlags(fs)
	setUsage(fs, "check [-v] <file>", "Check a program without running it")

	filename := parseArgs(fs, args, "file")
	cfg, err := common.config(fs)
	if err != nil {
		fail(err)
	}
	program, err := loadProgramFile(filename)
	if err != nil {
		fail(err)
	}
	session := NewSession(cfg, os.Stdin, os.Stdout)
	if err := session.Check(program); err != nil {
		fail(err)
	}
	fmt.Printf("%s: no errors found\n", filename)
	session.tracef("AST: %s", ProgramToSExpr(program))
}

func printCommand(args []string) {
	fs := flag.NewFlagSet("print", flag.ExitOnError)
	common := addCommonFlags(fs)
	setUsage(fs, "print <file>", "Pretty print a checked program")

	filename := parseArgs(fs, args, "file")
	cfg, err := common.config(fs)
	if err != nil {
		fail(err)
	}
	program, err := loadProgramFile(filename)
	if err != nil {
		fail(err)
	}
	session := NewSession(cfg, os.Stdin, os.Stdout)
	if err := session.Check(program); err != nil {
		fail(err)
	}
	if err := PrintProgram(os.Stdout, program, session.Symbols); err != nil {
		fail(err)
	}
}

func evalCommand(args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Show the parsed expression")
	setUsage(fs, "eval [-v] <sexpr>", "Evaluate a closed expression")

	code := parseArgs(fs, args, "expression")
	expr, err := LoadExpression(code)
	if err != nil {
		fail(err)
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "Evaluating: %s\n", expr)
	}
	text, err := EvaluateClosed(expr)
	if err != nil {
		fail(err)
	}
	fmt.Println(text)
}

// EvaluateClosed type checks and evaluates an expression that mentions no
// variables, returning its printed form.
func EvaluateClosed(e *Expression) (string, error) {
	st := NewSymbolTable(DefaultLabelPrefix)
	typ, err := NewTypeChecker(st).TypeOf(e)
	if err != nil {
		return "", err
	}
	value, err := NewInterpreter(st, strings.NewReader(""), io.Discard).Evaluate(e)
	if err != nil {
		return "", err
	}
	return FormatValue(typ, value), nil
}

func execCommand(args []string) {
	fs := flag.NewFlagSet("exec", flag.ExitOnError)
	inputFile := fs.String("input", "", "Read program input from this file instead of stdin")
	setUsage(fs, "exec [-input file] <file>", "Run stack machine code")

	filename := parseArgs(fs, args, "file")
	source, err := os.ReadFile(filename)
	if err != nil {
		fail(err)
	}
	var in io.Reader = os.Stdin
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fail(err)
		}
		defer f.Close()
		in = f
	}
	if err := stackvm.Run(string(source), in, os.Stdout); err != nil {
		fail(fmt.Errorf("%s: %w", filename, err))
	}
}

func main() {
	if len(os.Args) < 2 {
		showUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "run":
		runCommand(args)
	case "build":
		buildCommand(args)
	case "check":
		checkCommand(args)
	case "print":
		printCommand(args)
	case "eval":
		evalCommand(args)
	case "exec":
		execCommand(args)
	case "help", "-h", "--help":
		showUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		showUsage()
		os.Exit(1)
	}
}
