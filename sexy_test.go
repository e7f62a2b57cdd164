package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/strager/whilec/sexy"
	"github.com/strager/whilec/stackvm"
)

func TestSexyAllTests(t *testing.T) {
	testFiles, err := filepath.Glob("test/*_test.md")
	be.Err(t, err, nil)
	be.True(t, len(testFiles) > 0)

	for _, testFile := range testFiles {
		testName := strings.TrimSuffix(filepath.Base(testFile), ".md")

		t.Run(testName, func(t *testing.T) {
			content, err := os.ReadFile(testFile)
			be.Err(t, err, nil)

			testCases, err := sexy.ExtractTestCases(string(content))
			be.Err(t, err, nil)

			for _, tc := range testCases {
				t.Run(tc.Name, func(t *testing.T) {
					runSexyTestCase(t, tc)
				})
			}
		})
	}
}

func runSexyTestCase(t *testing.T, tc sexy.TestCase) {
	program, err := LoadProgram(tc.Input)
	if err != nil {
		t.Fatalf("line %d: %v", tc.InputLine, err)
	}

	_, expectRuntimeError := tc.Assertion(sexy.AssertionTypeRuntimeError)

	for _, assertion := range tc.Assertions {
		t.Run(string(assertion.Type), func(t *testing.T) {
			switch assertion.Type {
			case sexy.AssertionTypeSexpr:
				got, err := sexy.Parse(ProgramToSExpr(program))
				be.Err(t, err, nil)
				if !sexy.Equal(got, assertion.ParsedSexy) {
					t.Errorf("sexpr mismatch\nwant: %s\ngot:  %s", assertion.ParsedSexy, got)
				}

			case sexy.AssertionTypeRender:
				s := NewSession(DefaultConfig(), strings.NewReader(""), &strings.Builder{})
				be.Err(t, s.Check(program), nil)
				var out strings.Builder
				be.Err(t, PrintProgram(&out, program, s.Symbols), nil)
				be.Equal(t, strings.TrimRight(out.String(), "\n"), assertion.Content)

			case sexy.AssertionTypeCheckError:
				s := NewSession(DefaultConfig(), strings.NewReader(""), &strings.Builder{})
				err := s.Check(program)
				be.True(t, err != nil)
				be.Equal(t, err.Error(), assertion.Content)

			case sexy.AssertionTypeCode:
				cfg := DefaultConfig()
				cfg.Mode = ModeCompiler
				var out strings.Builder
				be.Err(t, RunProgram(program, cfg, strings.NewReader(""), &out), nil)
				be.Equal(t, strings.TrimRight(out.String(), "\n"), assertion.Content)

			case sexy.AssertionTypeOutput:
				var out strings.Builder
				err := RunProgram(program, DefaultConfig(), strings.NewReader(tc.InputData), &out)
				if !expectRuntimeError {
					be.Err(t, err, nil)
				}
				be.Equal(t, strings.TrimRight(out.String(), "\n"), assertion.Content)

				if !tc.HasData && !expectRuntimeError {
					// The compiled program must write the same values.
					cfg := DefaultConfig()
					cfg.Mode = ModeCompiler
					var code, vmOut strings.Builder
					be.Err(t, RunProgram(program, cfg, strings.NewReader(""), &code), nil)
					be.Err(t, stackvm.Run(code.String(), strings.NewReader(""), &vmOut), nil)
					be.Equal(t, vmOut.String(), out.String())
				}

			case sexy.AssertionTypeRuntimeError:
				err := RunProgram(program, DefaultConfig(), strings.NewReader(tc.InputData), &strings.Builder{})
				be.Err(t, err, ErrRuntime)
				be.Equal(t, err.Error(), assertion.Content)

			default:
				t.Fatalf("unknown assertion type: %s", assertion.Type)
			}
		})
	}
}
