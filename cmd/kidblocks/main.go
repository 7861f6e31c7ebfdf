package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"kidblocks/internal/blocks"
	"kidblocks/internal/config"
	"kidblocks/internal/script"
	"kidblocks/internal/shell"
)

const usage = `Usage:
  kidblocks [-config file] [-v level] <command> [args...]

Commands:
  run <ws.json>            - Generate and run a workspace
  code <ws.json>           - Print the generated script
  lex <ws.json>            - Debug lexer output for the generated script
  ast <ws.json>            - Debug parser AST for the generated script
  tree <ws.json>           - Show the block tree
  blocks                   - Print custom block definitions as editor JSON
  toolbox                  - Print the toolbox as editor JSON
  share <ws.json>          - Print a share code for a workspace
  open <code> [out.json]   - Turn a share code back into workspace JSON
  repl [ws.json]           - Interactive workspace shell
`

var log = commonlog.GetLogger("kidblocks.cli")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// env carries what every command needs.
type env struct {
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("kidblocks", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "path to kidblocks.toml")
	verbosity := fs.Int("v", 0, "log verbosity, overrides [log] verbosity when set")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprint(stderr, usage)
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Config error: %v\n", err)
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "v" {
			cfg.Log.Verbosity = *verbosity
		}
	})
	configureLogging(cfg)

	e := &env{cfg: cfg, stdout: stdout, stderr: stderr}
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	log.Debugf("command %s %v", cmd, rest)

	switch cmd {
	case "run":
		return e.cmdRun(rest)
	case "code":
		return e.cmdCode(rest)
	case "lex":
		return e.withScript("lex", rest, e.lexDebug)
	case "ast":
		return e.withScript("ast", rest, e.astDebug)
	case "tree":
		return e.cmdTree(rest)
	case "blocks":
		return e.printJSON(blocks.DefinitionsJSON())
	case "toolbox":
		return e.printJSON(blocks.DefaultToolbox().JSON())
	case "share":
		return e.cmdShare(rest)
	case "open":
		return e.cmdOpen(rest)
	case "repl":
		return e.cmdRepl(rest)
	case "help":
		fmt.Fprint(stdout, usage)
		return 0
	}
	fmt.Fprintf(stderr, "Unknown command %q\n\n%s", cmd, usage)
	return 1
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.FindAndLoad(".")
}

func configureLogging(cfg *config.Config) {
	var path *string
	if cfg.Log.File != "" {
		path = &cfg.Log.File
	}
	commonlog.Configure(cfg.Log.Verbosity, path)
}

func (e *env) newShell(strict bool) *shell.Shell {
	cfg := *e.cfg
	if strict {
		cfg.Generator.Strict = true
	}
	return shell.New(shell.WithConfig(&cfg))
}

// loadShell builds a shell holding the workspace in path.
func (e *env) loadShell(path string, strict bool) (*shell.Shell, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(e.stderr, "Error reading file: %v\n", err)
		return nil, false
	}
	sh := e.newShell(strict)
	if err := sh.Load(data); err != nil {
		fmt.Fprintf(e.stderr, "Error loading %s: %v\n", path, err)
		return nil, false
	}
	return sh, true
}

// parseCommand parses the flags shared by run and code.
func (e *env) parseCommand(name string, args []string) (path string, strict bool, ok bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	s := fs.Bool("strict", false, "fail on disconnected sockets")
	if err := fs.Parse(args); err != nil {
		return "", false, false
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(e.stderr, "Usage: kidblocks %s [-strict] <ws.json>\n", name)
		return "", false, false
	}
	return fs.Arg(0), *s, true
}

func (e *env) cmdRun(args []string) int {
	path, strict, ok := e.parseCommand("run", args)
	if !ok {
		return 1
	}
	sh, ok := e.loadShell(path, strict)
	if !ok {
		return 1
	}
	if strict {
		if _, err := sh.Code(); err != nil {
			e.printGenerationError(err)
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result := sh.RunCode(ctx)
	for _, line := range result.Output {
		fmt.Fprintln(e.stdout, line)
	}
	return 0
}

func (e *env) cmdCode(args []string) int {
	path, strict, ok := e.parseCommand("code", args)
	if !ok {
		return 1
	}
	sh, ok := e.loadShell(path, strict)
	if !ok {
		return 1
	}
	code, err := sh.Code()
	if err != nil {
		e.printGenerationError(err)
		return 1
	}
	fmt.Fprint(e.stdout, code)
	return 0
}

func (e *env) printGenerationError(err error) {
	var gen blocks.GenerationErrors
	if errors.As(err, &gen) {
		for _, m := range gen {
			fmt.Fprintf(e.stderr, "✗ %v\n", m)
		}
		return
	}
	fmt.Fprintf(e.stderr, "Generation error: %v\n", err)
}

// withScript generates the script of a workspace file and hands it to fn.
func (e *env) withScript(name string, args []string, fn func(code string) int) int {
	if len(args) != 1 {
		fmt.Fprintf(e.stderr, "Usage: kidblocks %s <ws.json>\n", name)
		return 1
	}
	sh, ok := e.loadShell(args[0], false)
	if !ok {
		return 1
	}
	code, err := sh.Code()
	if err != nil {
		e.printGenerationError(err)
		return 1
	}
	return fn(code)
}

func (e *env) cmdTree(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(e.stderr, "Usage: kidblocks tree <ws.json>")
		return 1
	}
	sh, ok := e.loadShell(args[0], false)
	if !ok {
		return 1
	}
	printTree(e.stdout, sh.Workspace())
	return 0
}

func (e *env) printJSON(data []byte, err error) int {
	if err != nil {
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(e.stdout, string(data))
	return 0
}

func (e *env) cmdShare(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(e.stderr, "Usage: kidblocks share <ws.json>")
		return 1
	}
	sh, ok := e.loadShell(args[0], false)
	if !ok {
		return 1
	}
	code, err := sh.Share()
	if err != nil {
		fmt.Fprintf(e.stderr, "Share error: %v\n", err)
		return 1
	}
	fmt.Fprintln(e.stdout, code)
	return 0
}

func (e *env) cmdOpen(args []string) int {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(e.stderr, "Usage: kidblocks open <code> [out.json]")
		return 1
	}
	sh := e.newShell(false)
	if err := sh.Open(args[0]); err != nil {
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return 1
	}
	data, err := sh.Save()
	if err != nil {
		fmt.Fprintf(e.stderr, "Error: %v\n", err)
		return 1
	}
	if len(args) == 1 {
		fmt.Fprintln(e.stdout, string(data))
		return 0
	}
	if err := os.WriteFile(args[1], append(data, '\n'), 0644); err != nil {
		fmt.Fprintf(e.stderr, "Error writing file: %v\n", err)
		return 1
	}
	fmt.Fprintf(e.stdout, "✅ Wrote %s\n", args[1])
	return 0
}

// reportScriptError prints a positioned diagnostic when err carries one.
func reportScriptError(w io.Writer, err error, source string) {
	var se *script.ScriptError
	if errors.As(err, &se) {
		fmt.Fprint(w, script.FormatError(se, source))
		return
	}
	fmt.Fprintf(w, "Parse error: %v\n", err)
}
