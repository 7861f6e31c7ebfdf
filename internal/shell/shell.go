// Package shell runs and resets the block workspace behind the editor's
// Run and Reset buttons.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tliron/commonlog"

	"kidblocks/internal/blocks"
	"kidblocks/internal/config"
	"kidblocks/internal/script"
)

type State int32

const (
	Editing State = iota
	Executing
)

func (s State) String() string {
	if s == Executing {
		return "executing"
	}
	return "editing"
}

// Run records one press of the Run button.
type Run struct {
	Code     string
	Output   []string
	Duration time.Duration
	// Steps is the interpreter work the run consumed.
	Steps int
}

type Limits struct {
	MaxSteps       int
	MaxOutputLines int
	// Timeout of zero leaves only the caller's context deadline.
	Timeout time.Duration
}

// Shell owns the single workspace. Run and reset are serialised.
type Shell struct {
	mu        sync.Mutex
	workspace *blocks.Workspace
	state     atomic.Int32
	generator *blocks.Generator
	limits    Limits
	log       commonlog.Logger
}

type Option func(*Shell)

func WithGenerator(g *blocks.Generator) Option {
	return func(s *Shell) { s.generator = g }
}

func WithLimits(l Limits) Option {
	return func(s *Shell) { s.limits = l }
}

func WithLogger(l commonlog.Logger) Option {
	return func(s *Shell) { s.log = l }
}

func WithWorkspace(w *blocks.Workspace) Option {
	return func(s *Shell) { s.workspace = w }
}

// WithConfig applies the [generator] and [sandbox] settings.
func WithConfig(c *config.Config) Option {
	return func(s *Shell) {
		leniency := blocks.Lenient
		if c.Generator.Strict {
			leniency = blocks.Strict
		}
		s.generator = blocks.NewGenerator(blocks.WithLeniency(leniency), blocks.WithIndent(c.Generator.Indent))
		s.limits = Limits{
			MaxSteps:       c.Sandbox.MaxSteps,
			MaxOutputLines: c.Sandbox.MaxOutputLines,
			Timeout:        c.Sandbox.Timeout.Duration,
		}
	}
}

func New(opts ...Option) *Shell {
	s := &Shell{
		workspace: blocks.NewWorkspace(),
		generator: blocks.NewGenerator(),
		limits: Limits{
			MaxSteps:       script.DefaultMaxSteps,
			MaxOutputLines: script.DefaultMaxOutputLines,
			Timeout:        2 * time.Second,
		},
		log: commonlog.GetLogger("kidblocks.shell"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Shell) State() State {
	return State(s.state.Load())
}

// Workspace returns the live workspace. Edits must not overlap RunCode or
// ResetWorkspace.
func (s *Shell) Workspace() *blocks.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workspace
}

// Load replaces the workspace with one read from the editor's JSON.
func (s *Shell) Load(data []byte) error {
	w, err := blocks.Load(data)
	if err != nil {
		return err
	}
	s.Replace(w)
	return nil
}

// Replace swaps in w as the current workspace.
func (s *Shell) Replace(w *blocks.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspace = w
	s.log.Infof("workspace loaded with %d blocks", w.Count())
}

// Code generates the script without running it.
func (s *Shell) Code() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generator.WorkspaceToCode(s.workspace)
}

// RunCode generates the whole workspace and executes it. Failures at any
// stage are logged and never returned; the record holds whatever was
// produced before the failure.
func (s *Shell) RunCode(ctx context.Context) (run Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Store(int32(Executing))
	defer s.state.Store(int32(Editing))

	start := time.Now()
	var out lineBuffer
	defer func() {
		if r := recover(); r != nil {
			s.log.Criticalf("run aborted: %v", r)
		}
		run.Output = out.Lines()
		run.Duration = time.Since(start)
		s.log.Infof("run finished in %s after %d steps with %d output lines", run.Duration, run.Steps, len(run.Output))
	}()

	code, err := s.generator.WorkspaceToCode(s.workspace)
	if err != nil {
		s.report(err, "")
		return run
	}
	run.Code = code
	s.log.Debugf("generated script:\n%s", code)

	if err := s.execute(ctx, code, &out, &run); err != nil {
		s.report(err, code)
	}
	return run
}

func (s *Shell) execute(ctx context.Context, code string, out *lineBuffer, run *Run) error {
	prog, err := script.Parse(script.DefaultFilename, code)
	if err != nil {
		return err
	}
	if s.limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.limits.Timeout)
		defer cancel()
	}
	it := script.NewInterpreter(
		script.WithStdout(out),
		script.WithMaxSteps(s.limits.MaxSteps),
		script.WithMaxOutputLines(s.limits.MaxOutputLines),
	)
	err = it.Run(ctx, prog)
	run.Steps = it.Steps()
	return err
}

func (s *Shell) report(err error, code string) {
	var se *script.ScriptError
	if errors.As(err, &se) {
		s.log.Errorf("script failed:\n%s", script.FormatError(se, code))
		return
	}
	var gen blocks.GenerationErrors
	if errors.As(err, &gen) {
		for _, e := range gen {
			s.log.Errorf("generation failed: %s", e)
		}
		return
	}
	s.log.Errorf("run failed: %s", err)
}

// ResetWorkspace discards every block. There is no undo.
func (s *Shell) ResetWorkspace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.workspace.Count()
	s.workspace.Clear()
	s.log.Infof("workspace reset, %d blocks removed", n)
}

// Share encodes the workspace as a share code.
func (s *Shell) Share() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return blocks.EncodeShare(s.workspace)
}

// Open replaces the workspace with the one in a share code.
func (s *Shell) Open(code string) error {
	w, err := blocks.DecodeShare(code)
	if err != nil {
		return fmt.Errorf("open share code: %w", err)
	}
	s.Replace(w)
	return nil
}

// Save serialises the workspace in the editor's JSON format.
func (s *Shell) Save() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return blocks.Save(s.workspace)
}

// lineBuffer collects console output as lines.
type lineBuffer struct {
	buf bytes.Buffer
}

func (l *lineBuffer) Write(p []byte) (int, error) {
	return l.buf.Write(p)
}

func (l *lineBuffer) Lines() []string {
	text := strings.TrimSuffix(l.buf.String(), "\n")
	if text == "" && l.buf.Len() == 0 {
		return nil
	}
	return strings.Split(text, "\n")
}
