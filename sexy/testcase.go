package sexy

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// InputType is the language of the fence holding the program under test.
type InputType string

const (
	InputTypeProgram InputType = "while-program"
)

// AssertionType is the language of a fence holding an expected result.
type AssertionType string

const (
	AssertionTypeOutput       AssertionType = "output"
	AssertionTypeCode         AssertionType = "code"
	AssertionTypeCheckError   AssertionType = "check-error"
	AssertionTypeRuntimeError AssertionType = "runtime-error"
	AssertionTypeRender       AssertionType = "render"
	AssertionTypeSexpr        AssertionType = "sexpr"
)

// DataFence holds stdin for the program. It is not an assertion.
const DataFence = "input"

var assertionTypes = map[string]AssertionType{
	string(AssertionTypeOutput):       AssertionTypeOutput,
	string(AssertionTypeCode):         AssertionTypeCode,
	string(AssertionTypeCheckError):   AssertionTypeCheckError,
	string(AssertionTypeRuntimeError): AssertionTypeRuntimeError,
	string(AssertionTypeRender):       AssertionTypeRender,
	string(AssertionTypeSexpr):        AssertionTypeSexpr,
}

// Assertion is one expected result of a test case.
type Assertion struct {
	Type    AssertionType
	Content string
	// ParsedSexy is set for sexpr assertions only.
	ParsedSexy *Node
	Line       int
}

// TestCase is one "Test: ..." section of a markdown suite.
type TestCase struct {
	Name       string
	Input      string
	InputType  InputType
	InputLine  int
	InputData  string
	HasData    bool
	Assertions []Assertion
}

// Assertion returns the first assertion of type t.
func (tc *TestCase) Assertion(t AssertionType) (Assertion, bool) {
	for _, a := range tc.Assertions {
		if a.Type == t {
			return a, true
		}
	}
	return Assertion{}, false
}

// ExtractTestCases reads every test case out of a markdown document. Each
// case starts at a heading "Test: NAME" and owns the fences up to the next
// such heading.
func ExtractTestCases(markdownContent string) ([]TestCase, error) {
	source := []byte(markdownContent)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var testCases []TestCase
	var current *TestCase
	flush := func() error {
		if current == nil {
			return nil
		}
		if err := validateTestCase(current); err != nil {
			return err
		}
		testCases = append(testCases, *current)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n := node.(type) {
		case *ast.Heading:
			heading := extractTextFromNode(n, source)
			name, ok := strings.CutPrefix(heading, "Test: ")
			if !ok {
				return ast.WalkContinue, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			current = &TestCase{Name: name}

		case *ast.FencedCodeBlock:
			language := string(n.Language(source))
			lineNum := getLineNumber(n, source)
			if language == "" {
				// Untagged blocks are prose.
				return ast.WalkContinue, nil
			}
			if !isKnownFence(language) {
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s'", lineNum, language)
			}
			if current == nil {
				return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", lineNum, language)
			}
			if err := current.addFence(language, extractCodeBlockContent(n, source), lineNum); err != nil {
				return ast.WalkStop, err
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return testCases, nil
}

func (tc *TestCase) addFence(language, content string, lineNum int) error {
	switch {
	case language == string(InputTypeProgram):
		if tc.Input != "" {
			return fmt.Errorf("line %d: multiple program fences found in test '%s'", lineNum, tc.Name)
		}
		tc.Input = strings.TrimRight(content, "\n")
		tc.InputType = InputType(language)
		tc.InputLine = lineNum

	case language == DataFence:
		if tc.HasData {
			return fmt.Errorf("line %d: multiple input fences found in test '%s'", lineNum, tc.Name)
		}
		tc.InputData = content
		tc.HasData = true

	default:
		assertion := Assertion{
			Type:    assertionTypes[language],
			Content: strings.TrimRight(content, "\n"),
			Line:    lineNum,
		}
		if assertion.Type == AssertionTypeSexpr {
			parsed, err := Parse(assertion.Content)
			if err != nil {
				return fmt.Errorf("line %d: failed to parse sexpr assertion in test '%s': %w", lineNum, tc.Name, err)
			}
			assertion.ParsedSexy = parsed
		}
		if _, dup := tc.Assertion(assertion.Type); dup {
			return fmt.Errorf("line %d: multiple %s fences found in test '%s'", lineNum, language, tc.Name)
		}
		tc.Assertions = append(tc.Assertions, assertion)
	}
	return nil
}

func extractTextFromNode(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func extractCodeBlockContent(codeBlock *ast.FencedCodeBlock, source []byte) string {
	var buf bytes.Buffer
	for i := 0; i < codeBlock.Lines().Len(); i++ {
		line := codeBlock.Lines().At(i)
		buf.Write(line.Value(source))
	}
	return buf.String()
}

func isKnownFence(language string) bool {
	_, isAssertion := assertionTypes[language]
	return isAssertion || language == string(InputTypeProgram) || language == DataFence
}

func validateTestCase(tc *TestCase) error {
	if tc.Input == "" {
		return fmt.Errorf("test '%s' has no program fence", tc.Name)
	}
	if len(tc.Assertions) == 0 {
		return fmt.Errorf("test '%s' has no assertion fences", tc.Name)
	}
	_, checkErr := tc.Assertion(AssertionTypeCheckError)
	_, output := tc.Assertion(AssertionTypeOutput)
	_, runtimeErr := tc.Assertion(AssertionTypeRuntimeError)
	if checkErr && (output || runtimeErr) {
		return fmt.Errorf("test '%s' expects a check error and also execution results", tc.Name)
	}
	return nil
}

// getLineNumber returns the 1-based line of the first content line of node.
func getLineNumber(node ast.Node, source []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	return bytes.Count(source[:node.Lines().At(0).Start], []byte("\n")) + 1
}
