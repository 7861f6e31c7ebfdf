package script

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func runScript(t *testing.T, src string, opts ...Option) (string, error) {
	t.Helper()
	prog, err := Parse("test.js", src)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	opts = append([]Option{WithStdout(&out)}, opts...)
	err = NewInterpreter(opts...).Run(context.Background(), prog)
	return out.String(), err
}

func TestEvaluation(t *testing.T) {
	tests := []struct {
		name   string
		script string
		stdout string
	}{
		{
			name:   "set then print",
			script: "let x = (5 + 2);\nconsole.log(x);",
			stdout: "7",
		},
		{
			name:   "division by zero",
			script: "console.log((1 / 0));",
			stdout: "Infinity",
		},
		{
			name:   "string concatenation",
			script: "console.log('a' + 1, 1 + 2 + '3');",
			stdout: "a1 33",
		},
		{
			name:   "floating point",
			script: "console.log(0.1 + 0.2);",
			stdout: "0.30000000000000004",
		},
		{
			name:   "equality",
			script: "console.log(1 == '1', 1 === '1', null == undefined, null == 0, NaN == NaN);",
			stdout: "true false true false false",
		},
		{
			name:   "relational",
			script: "console.log('10' < '9', 10 < 9, '10' < 9, 'b' >= 'a');",
			stdout: "true false false true",
		},
		{
			name:   "logical operators yield operands",
			script: "console.log(0 || 'fallback', 1 && 'yes', null && 'never');",
			stdout: "fallback yes null",
		},
		{
			name:   "remainder and negative zero",
			script: "console.log(-0, 5 % 3, -5 % 3);",
			stdout: "-0 2 -2",
		},
		{
			name:   "math builtins",
			script: "console.log(Math.pow(2, 10), Math.max(), Math.round(2.5), Math.round(-2.5), Math.min(3, 1, 2));",
			stdout: "1024 -Infinity 3 -2 1",
		},
		{
			name:   "string length counts code units",
			script: "console.log('héllo'.length, '😀'.length);",
			stdout: "5 2",
		},
		{
			name:   "globals",
			script: "console.log(undefined, NaN, Infinity, true);",
			stdout: "undefined NaN Infinity true",
		},
		{
			name:   "else if chain",
			script: "if (false) {\n  console.log('a');\n} else if (1) {\n  console.log('b');\n} else {\n  console.log('c');\n}",
			stdout: "b",
		},
		{
			name:   "block scoping",
			script: "let x = 1;\n{\n  let x = 2;\n  console.log(x);\n}\nconsole.log(x);",
			stdout: "2\n1",
		},
		{
			name:   "inspecting host values",
			script: "console.log(Math, console.log);",
			stdout: "Object [Math] {} [Function: log]",
		},
		{
			name:   "number formatting",
			script: "console.log(1e21, 1.5e-7, 123456789012345680000, 0.000001);",
			stdout: "1e+21 1.5e-7 123456789012345680000 0.000001",
		},
		{
			name:   "unary operators",
			script: "console.log(!0, -'3', +true, !'');",
			stdout: "true -3 1 true",
		},
		{
			name:   "let without initialiser",
			script: "let y;\nconsole.log(y);",
			stdout: "undefined",
		},
		{
			name:   "no output",
			script: "((1 + 2) * 3);",
			stdout: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runScript(t, tt.script)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := strings.TrimSuffix(out, "\n"); got != tt.stdout {
				t.Errorf("stdout mismatch:\nexpected: %q\nactual:   %q", tt.stdout, got)
			}
		})
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		kind    string
		message string
		stdout  string
	}{
		{
			name:    "undeclared variable",
			script:  "console.log(y);",
			kind:    ReferenceError,
			message: "y is not defined",
		},
		{
			name:    "temporal dead zone",
			script:  "console.log('before');\nconsole.log(x);\nlet x = 1;",
			kind:    ReferenceError,
			message: "Cannot access 'x' before initialization",
			stdout:  "before\n",
		},
		{
			name:    "calling a number",
			script:  "let a = 1;\na();",
			kind:    TypeError,
			message: "a is not a function",
		},
		{
			name:    "missing method",
			script:  "Math.nope(1);",
			kind:    TypeError,
			message: "Math.nope is not a function",
		},
		{
			name:    "property of undefined",
			script:  "undefined.x;",
			kind:    TypeError,
			message: "Cannot read properties of undefined (reading 'x')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runScript(t, tt.script)
			var se *ScriptError
			if !errors.As(err, &se) {
				t.Fatalf("expected *ScriptError, got %v", err)
			}
			if se.Kind != tt.kind || se.Message != tt.message {
				t.Errorf("expected %s: %s, got %s: %s", tt.kind, tt.message, se.Kind, se.Message)
			}
			if se.Location.Line == 0 {
				t.Error("expected a source location")
			}
			if out != tt.stdout {
				t.Errorf("expected stdout %q, got %q", tt.stdout, out)
			}
		})
	}
}

func TestStepLimit(t *testing.T) {
	src := strings.Repeat("console.log(1);\n", 10)
	out, err := runScript(t, src, WithMaxSteps(5))
	var se *ScriptError
	if !errors.As(err, &se) || se.Kind != RangeError {
		t.Fatalf("expected RangeError, got %v", err)
	}
	if out != "1\n1\n" {
		t.Errorf("expected two lines before the limit, got %q", out)
	}
}

func TestOutputLimit(t *testing.T) {
	src := strings.Repeat("console.log('x');\n", 3)
	out, err := runScript(t, src, WithMaxOutputLines(2))
	var se *ScriptError
	if !errors.As(err, &se) || se.Kind != RangeError {
		t.Fatalf("expected RangeError, got %v", err)
	}
	if se.Location.Line != 3 {
		t.Errorf("expected the error on line 3, got %d", se.Location.Line)
	}
	if out != "x\nx\n" {
		t.Errorf("expected two lines, got %q", out)
	}
}

func TestCancelledContext(t *testing.T) {
	prog, err := Parse("test.js", "console.log(1);")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	err = NewInterpreter(WithStdout(&out)).Run(ctx, prog)
	var se *ScriptError
	if !errors.As(err, &se) || se.Kind != RangeError {
		t.Fatalf("expected RangeError, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

func TestConsoleStreams(t *testing.T) {
	prog, err := Parse("test.js", "console.log('out');\nconsole.error('err');\nconsole.warn('warn');")
	if err != nil {
		t.Fatal(err)
	}
	var stdout, stderr bytes.Buffer
	if err := NewInterpreter(WithStdout(&stdout), WithStderr(&stderr)).Run(context.Background(), prog); err != nil {
		t.Fatal(err)
	}
	if stdout.String() != "out\n" {
		t.Errorf("unexpected stdout %q", stdout.String())
	}
	if stderr.String() != "err\nwarn\n" {
		t.Errorf("unexpected stderr %q", stderr.String())
	}
}
