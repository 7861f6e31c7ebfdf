package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/peterh/liner"

	"kidblocks/internal/blocks"
	"kidblocks/internal/shell"
)

const banner = "kidblocks workspace shell. Type :help for commands."

const replHelp = `Commands:
  :run            generate and run the workspace
  :reset          remove every block
  :code           show the generated script
  :load <file>    load a workspace JSON file
  :save <file>    save the workspace as JSON
  :share          print a share code
  :open <code>    load a workspace from a share code
  :tree           show the block tree
  :toolbox        list the toolbox categories
  :quit           leave the shell
`

type repl struct {
	env *env
	sh  *shell.Shell
}

var replCommands = []string{":run", ":reset", ":code", ":load", ":save", ":share", ":open", ":tree", ":toolbox", ":help", ":quit"}

func (e *env) cmdRepl(args []string) int {
	if len(args) > 1 {
		fmt.Fprintln(e.stderr, "Usage: kidblocks repl [ws.json]")
		return 1
	}
	r := &repl{env: e, sh: e.newShell(false)}
	if len(args) == 1 {
		sh, ok := e.loadShell(args[0], false)
		if !ok {
			return 1
		}
		r.sh = sh
	}

	fmt.Fprintln(e.stdout, banner)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(completeCommand)

	if histPath := e.cfg.HistoryPath(); histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	for {
		line, err := ln.Prompt("blocks> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(e.stdout)
			break
		}
		if err != nil {
			fmt.Fprintf(e.stderr, "Error reading line: %v\n", err)
			return 1
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)
		if r.exec(context.Background(), line) {
			break
		}
	}
	return 0
}

func completeCommand(line string) []string {
	var out []string
	for _, c := range replCommands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// exec runs one REPL command and reports whether the shell should exit.
func (r *repl) exec(ctx context.Context, line string) bool {
	out, errOut := r.env.stdout, r.env.stderr
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprint(out, replHelp)
	case ":run":
		result := r.sh.RunCode(ctx)
		for _, l := range result.Output {
			fmt.Fprintln(out, l)
		}
		fmt.Fprintf(out, "(%d lines in %s)\n", len(result.Output), result.Duration.Round(time.Microsecond))
	case ":reset":
		r.sh.ResetWorkspace()
		fmt.Fprintln(out, "workspace cleared")
	case ":code":
		code, err := r.sh.Code()
		if err != nil {
			r.env.printGenerationError(err)
			break
		}
		fmt.Fprint(out, code)
	case ":load":
		if arg == "" {
			fmt.Fprintln(errOut, "Usage: :load <file>")
			break
		}
		data, err := os.ReadFile(arg)
		if err != nil {
			fmt.Fprintf(errOut, "Error reading file: %v\n", err)
			break
		}
		if err := r.sh.Load(data); err != nil {
			fmt.Fprintf(errOut, "Error loading %s: %v\n", arg, err)
			break
		}
		fmt.Fprintf(out, "loaded %d blocks\n", r.sh.Workspace().Count())
	case ":save":
		if arg == "" {
			fmt.Fprintln(errOut, "Usage: :save <file>")
			break
		}
		data, err := r.sh.Save()
		if err == nil {
			err = os.WriteFile(arg, append(data, '\n'), 0644)
		}
		if err != nil {
			fmt.Fprintf(errOut, "Error saving: %v\n", err)
			break
		}
		fmt.Fprintf(out, "saved %s\n", arg)
	case ":share":
		code, err := r.sh.Share()
		if err != nil {
			fmt.Fprintf(errOut, "Share error: %v\n", err)
			break
		}
		fmt.Fprintln(out, code)
	case ":open":
		if err := r.sh.Open(arg); err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			break
		}
		fmt.Fprintf(out, "loaded %d blocks\n", r.sh.Workspace().Count())
	case ":tree":
		printTree(out, r.sh.Workspace())
	case ":toolbox":
		printToolbox(out, blocks.DefaultToolbox())
	default:
		fmt.Fprintf(errOut, "unknown command %q. Type :help for commands.\n", cmd)
	}
	return false
}
