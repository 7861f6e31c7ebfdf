package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
)

// Error kinds, named after the runtime errors a JavaScript host raises.
const (
	SyntaxError    = "SyntaxError"
	ReferenceError = "ReferenceError"
	TypeError      = "TypeError"
	RangeError     = "RangeError"
)

type Location struct {
	Filename string
	Line     int
	Column   int
}

type ScriptError struct {
	Kind     string
	Message  string
	Location Location
	Help     string
}

func (e *ScriptError) Error() string {
	if e.Location.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Location.Filename, e.Location.Line, e.Location.Column, e.Kind, e.Message)
	}
	return e.Kind + ": " + e.Message
}

func errorAt(kind string, loc Location, format string, args ...any) *ScriptError {
	return &ScriptError{Kind: kind, Message: fmt.Sprintf(format, args...), Location: loc}
}

// syntaxErrorFrom converts a participle failure into a positioned SyntaxError.
func syntaxErrorFrom(err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		return &ScriptError{
			Kind:     SyntaxError,
			Message:  perr.Message(),
			Location: Location{Filename: pos.Filename, Line: pos.Line, Column: pos.Column},
		}
	}
	return &ScriptError{Kind: SyntaxError, Message: err.Error()}
}

// FormatError renders err with a caret pointing into source.
func FormatError(err *ScriptError, source string) string {
	var b strings.Builder

	b.WriteString("✗ ")
	b.WriteString(err.Kind)
	b.WriteString(": ")
	b.WriteString(err.Message)
	b.WriteString("\n")

	if err.Location.Line == 0 {
		return b.String()
	}
	b.WriteString(fmt.Sprintf("  ╭─[%s:%d:%d]\n", err.Location.Filename, err.Location.Line, err.Location.Column))

	lines, start := sourceContext(source, err.Location.Line)
	if len(lines) > 0 {
		b.WriteString("  │\n")
		for i, line := range lines {
			lineNum := start + i
			b.WriteString(fmt.Sprintf("%3d│ %s\n", lineNum, line))
			if lineNum != err.Location.Line {
				continue
			}
			pad := caretPadding(line, err.Location.Column)
			b.WriteString("  │ " + pad + "─┬─ here\n")
			b.WriteString("  │ " + pad + " ╰─ " + err.Message + "\n")
		}
	}

	b.WriteString("  │\n")
	if err.Help != "" {
		b.WriteString("  │ 💡 Help: ")
		b.WriteString(err.Help)
		b.WriteString("\n")
		b.WriteString("  │\n")
	}
	return b.String()
}

// sourceContext returns up to two lines either side of target and the
// 1-based number of the first returned line.
func sourceContext(source string, target int) ([]string, int) {
	lines := strings.Split(source, "\n")
	if target < 1 || target > len(lines) {
		return nil, 0
	}
	start := target - 3
	if start < 0 {
		start = 0
	}
	end := target + 2
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start:end], start + 1
}

func caretPadding(line string, column int) string {
	var pad strings.Builder
	for j := 0; j < column-1; j++ {
		if j < len(line) && line[j] == '\t' {
			pad.WriteByte('\t')
		} else {
			pad.WriteByte(' ')
		}
	}
	return pad.String()
}
