package shell

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tliron/commonlog"

	"kidblocks/internal/blocks"
)

type recordingLogger struct {
	commonlog.MockLogger
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Errorf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Criticalf(format string, args ...any) {
	l.Errorf(format, args...)
}

func (l *recordingLogger) logged() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.errors, "\n")
}

func mustField(t *testing.T, b *blocks.Block, name, value string) {
	t.Helper()
	if err := b.SetField(name, value); err != nil {
		t.Fatal(err)
	}
}

func number(t *testing.T, w *blocks.Workspace, n string) *blocks.Block {
	t.Helper()
	b := w.NewBlock(blocks.MathNumber)
	mustField(t, b, "NUM", n)
	return b
}

func text(t *testing.T, w *blocks.Workspace, s string) *blocks.Block {
	t.Helper()
	b := w.NewBlock(blocks.Text)
	mustField(t, b, "TEXT", s)
	return b
}

func printOf(t *testing.T, w *blocks.Workspace, value *blocks.Block) *blocks.Block {
	t.Helper()
	p := w.NewBlock(blocks.Print)
	if err := w.Connect(p, "TEXT", value); err != nil {
		t.Fatal(err)
	}
	return p
}

func variable(t *testing.T, w *blocks.Workspace, name string) *blocks.Block {
	t.Helper()
	b := w.NewBlock(blocks.GetVariable)
	mustField(t, b, "VAR", name)
	return b
}

// setAndPrint builds "set x to (5 + 2)" followed by "print x".
func setAndPrint(t *testing.T) *blocks.Workspace {
	t.Helper()
	w := blocks.NewWorkspace()
	set := w.NewBlock(blocks.SetVariable)
	mustField(t, set, "VAR", "x")
	arith := w.NewBlock(blocks.Arithmetic)
	if err := w.Connect(arith, "A", number(t, w, "5")); err != nil {
		t.Fatal(err)
	}
	if err := w.Connect(arith, "B", number(t, w, "2")); err != nil {
		t.Fatal(err)
	}
	if err := w.Connect(set, "VALUE", arith); err != nil {
		t.Fatal(err)
	}
	if err := w.SetNext(set, printOf(t, w, variable(t, w, "x"))); err != nil {
		t.Fatal(err)
	}
	return w
}

func TestRunSetAndPrint(t *testing.T) {
	log := &recordingLogger{}
	sh := New(WithWorkspace(setAndPrint(t)), WithLogger(log))

	run := sh.RunCode(context.Background())

	if run.Code != "let x = (5 + 2);\nconsole.log(x);\n" {
		t.Errorf("unexpected code %q", run.Code)
	}
	if len(run.Output) != 1 || run.Output[0] != "7" {
		t.Errorf("expected output [7], got %q", run.Output)
	}
	if run.Steps == 0 {
		t.Error("expected the run to record its steps")
	}
	if log.logged() != "" {
		t.Errorf("unexpected errors: %s", log.logged())
	}
	if sh.State() != Editing {
		t.Errorf("expected editing state after run, got %s", sh.State())
	}
}

func TestResetWorkspace(t *testing.T) {
	sh := New(WithWorkspace(setAndPrint(t)), WithLogger(&recordingLogger{}))
	if sh.Workspace().Count() == 0 {
		t.Fatal("expected blocks before reset")
	}

	sh.ResetWorkspace()

	if n := sh.Workspace().Count(); n != 0 {
		t.Errorf("expected 0 blocks after reset, got %d", n)
	}
	run := sh.RunCode(context.Background())
	if run.Code != "" || len(run.Output) != 0 {
		t.Errorf("expected an empty run, got %+v", run)
	}
}

func TestRuntimeErrorIsLoggedNotReturned(t *testing.T) {
	w := blocks.NewWorkspace()
	printOf(t, w, variable(t, w, "y"))
	log := &recordingLogger{}
	sh := New(WithWorkspace(w), WithLogger(log))

	run := sh.RunCode(context.Background())

	if len(run.Output) != 0 {
		t.Errorf("expected no output, got %q", run.Output)
	}
	if !strings.Contains(log.logged(), "ReferenceError: y is not defined") {
		t.Errorf("expected a logged ReferenceError, got %q", log.logged())
	}
}

func TestUnconnectedConditionRunsElse(t *testing.T) {
	w := blocks.NewWorkspace()
	ifElse := w.NewBlock(blocks.IfElse)
	if err := w.Connect(ifElse, "DO", printOf(t, w, text(t, w, "yes"))); err != nil {
		t.Fatal(err)
	}
	if err := w.Connect(ifElse, "ELSE", printOf(t, w, text(t, w, "no"))); err != nil {
		t.Fatal(err)
	}
	sh := New(WithWorkspace(w), WithLogger(&recordingLogger{}))

	run := sh.RunCode(context.Background())

	want := "if (false) {\n  console.log('yes');\n} else {\n  console.log('no');\n}\n"
	if run.Code != want {
		t.Errorf("code mismatch:\nexpected: %q\nactual:   %q", want, run.Code)
	}
	if len(run.Output) != 1 || run.Output[0] != "no" {
		t.Errorf("expected output [no], got %q", run.Output)
	}
}

func TestDuplicateLetIsLogged(t *testing.T) {
	w := blocks.NewWorkspace()
	first := w.NewBlock(blocks.SetVariable)
	second := w.NewBlock(blocks.SetVariable)
	if err := w.SetNext(first, second); err != nil {
		t.Fatal(err)
	}
	if err := w.SetNext(second, printOf(t, w, number(t, w, "1"))); err != nil {
		t.Fatal(err)
	}
	log := &recordingLogger{}
	sh := New(WithWorkspace(w), WithLogger(log))

	run := sh.RunCode(context.Background())

	if len(run.Output) != 0 {
		t.Errorf("expected no output, got %q", run.Output)
	}
	if !strings.Contains(log.logged(), "Identifier 'variable' has already been declared") {
		t.Errorf("expected a logged SyntaxError, got %q", log.logged())
	}
}

func TestLimitsStopRunawayScripts(t *testing.T) {
	w := blocks.NewWorkspace()
	prev := printOf(t, w, number(t, w, "1"))
	for i := 0; i < 5; i++ {
		next := printOf(t, w, number(t, w, "1"))
		if err := w.SetNext(prev, next); err != nil {
			t.Fatal(err)
		}
		prev = next
	}

	tests := []struct {
		name   string
		limits Limits
		lines  int
	}{
		{"steps", Limits{MaxSteps: 4, Timeout: time.Second}, 2},
		{"output", Limits{MaxSteps: 1000, MaxOutputLines: 3, Timeout: time.Second}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordingLogger{}
			sh := New(WithWorkspace(w), WithLogger(log), WithLimits(tt.limits))

			run := sh.RunCode(context.Background())

			if len(run.Output) != tt.lines {
				t.Errorf("expected %d lines, got %d", tt.lines, len(run.Output))
			}
			if !strings.Contains(log.logged(), "RangeError") {
				t.Errorf("expected a logged RangeError, got %q", log.logged())
			}
		})
	}
}

func TestCancelledRunIsLogged(t *testing.T) {
	log := &recordingLogger{}
	sh := New(WithWorkspace(setAndPrint(t)), WithLogger(log))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := sh.RunCode(ctx)

	if len(run.Output) != 0 {
		t.Errorf("expected no output, got %q", run.Output)
	}
	if !strings.Contains(log.logged(), "execution stopped") {
		t.Errorf("expected a logged stop, got %q", log.logged())
	}
}

func TestStrictGenerationIsLogged(t *testing.T) {
	w := blocks.NewWorkspace()
	w.NewBlock(blocks.Print)
	log := &recordingLogger{}
	sh := New(
		WithWorkspace(w),
		WithLogger(log),
		WithGenerator(blocks.NewGenerator(blocks.WithLeniency(blocks.Strict))),
	)

	run := sh.RunCode(context.Background())

	if run.Code != "" {
		t.Errorf("expected no code, got %q", run.Code)
	}
	if !strings.Contains(log.logged(), "input TEXT is not connected") {
		t.Errorf("expected a logged generation error, got %q", log.logged())
	}
}

func TestShareRoundTrip(t *testing.T) {
	sh := New(WithWorkspace(setAndPrint(t)), WithLogger(&recordingLogger{}))
	want, err := sh.Code()
	if err != nil {
		t.Fatal(err)
	}
	code, err := sh.Share()
	if err != nil {
		t.Fatal(err)
	}

	other := New(WithLogger(&recordingLogger{}))
	if err := other.Open(code); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	got, err := other.Code()
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestLoadAndSave(t *testing.T) {
	sh := New(WithWorkspace(setAndPrint(t)), WithLogger(&recordingLogger{}))
	data, err := sh.Save()
	if err != nil {
		t.Fatal(err)
	}

	other := New(WithLogger(&recordingLogger{}))
	if err := other.Load(data); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if other.Workspace().Count() != sh.Workspace().Count() {
		t.Errorf("expected %d blocks, got %d", sh.Workspace().Count(), other.Workspace().Count())
	}
	if err := other.Load([]byte(`{"blocks":{"blocks":[{"type":"rocket"}]}}`)); err == nil {
		t.Error("expected an unknown block type to fail")
	}
}

func TestRunArithmeticOperators(t *testing.T) {
	tests := []struct {
		op     string
		code   string
		output string
	}{
		{"ADD", "console.log((8 + 2));\n", "10"},
		{"SUBTRACT", "console.log((8 - 2));\n", "6"},
		{"MULTIPLY", "console.log((8 * 2));\n", "16"},
		{"DIVIDE", "console.log((8 / 2));\n", "4"},
	}

	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			w := blocks.NewWorkspace()
			arith := w.NewBlock(blocks.Arithmetic)
			mustField(t, arith, "OP", tt.op)
			if err := w.Connect(arith, "A", number(t, w, "8")); err != nil {
				t.Fatal(err)
			}
			if err := w.Connect(arith, "B", number(t, w, "2")); err != nil {
				t.Fatal(err)
			}
			printOf(t, w, arith)

			log := &recordingLogger{}
			run := New(WithWorkspace(w), WithLogger(log)).RunCode(context.Background())

			if run.Code != tt.code {
				t.Errorf("unexpected code %q", run.Code)
			}
			if len(run.Output) != 1 || run.Output[0] != tt.output {
				t.Errorf("expected output [%s], got %q", tt.output, run.Output)
			}
			if log.logged() != "" {
				t.Errorf("unexpected errors: %s", log.logged())
			}
		})
	}
}
