package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	content := `
[generator]
strict = true
indent = "\t"

[sandbox]
max_steps = 500
timeout = "250ms"

[log]
verbosity = 2
file = "kidblocks.log"

[repl]
history = "/tmp/kb_history"
`
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !c.Generator.Strict {
		t.Error("generator.strict = false, want true")
	}
	if c.Generator.Indent != "\t" {
		t.Errorf("generator.indent = %q, want tab", c.Generator.Indent)
	}
	if c.Sandbox.MaxSteps != 500 {
		t.Errorf("sandbox.max_steps = %d, want 500", c.Sandbox.MaxSteps)
	}
	if c.Sandbox.MaxOutputLines != 1000 {
		t.Errorf("sandbox.max_output_lines = %d, want default 1000", c.Sandbox.MaxOutputLines)
	}
	if c.Sandbox.Timeout.Duration != 250*time.Millisecond {
		t.Errorf("sandbox.timeout = %v, want 250ms", c.Sandbox.Timeout)
	}
	if c.Log.Verbosity != 2 || c.Log.File != "kidblocks.log" {
		t.Errorf("log = %+v", c.Log)
	}
	if c.HistoryPath() != "/tmp/kb_history" {
		t.Errorf("history path = %q", c.HistoryPath())
	}
	if c.Path != path {
		t.Errorf("path = %q, want %q", c.Path, path)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad duration", "[sandbox]\ntimeout = \"soon\"", "parse error"},
		{"unknown key", "[sandbox]\nmax_stepz = 1", "unknown key sandbox.max_stepz"},
		{"negative steps", "[sandbox]\nmax_steps = -1", "max_steps"},
		{"bad indent", "[generator]\nindent = \"--\"", "indent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestFindAndLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, FileName), []byte("[sandbox]\nmax_steps = 7\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c.Sandbox.MaxSteps != 7 {
		t.Errorf("max_steps = %d, want 7", c.Sandbox.MaxSteps)
	}
}

func TestFindAndLoadDefaults(t *testing.T) {
	c, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	// A kidblocks.toml above the temp dir would change this; none is expected.
	if c.Path == "" && c.Sandbox.Timeout.Duration != 2*time.Second {
		t.Errorf("default timeout = %v, want 2s", c.Sandbox.Timeout)
	}
}
