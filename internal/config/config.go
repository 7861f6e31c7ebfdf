// Package config handles kidblocks.toml settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const FileName = "kidblocks.toml"

type Config struct {
	Generator Generator `toml:"generator"`
	Sandbox   Sandbox   `toml:"sandbox"`
	Log       Log       `toml:"log"`
	Repl      Repl      `toml:"repl"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

type Generator struct {
	// Strict reports disconnected sockets instead of substituting defaults.
	Strict bool   `toml:"strict"`
	Indent string `toml:"indent"`
}

type Sandbox struct {
	MaxSteps       int      `toml:"max_steps"`
	MaxOutputLines int      `toml:"max_output_lines"`
	Timeout        Duration `toml:"timeout"`
}

type Log struct {
	// Verbosity follows commonlog: 0 is notice, 1 info, 2 debug, negative
	// values are quieter.
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

type Repl struct {
	History string `toml:"history"`
}

// Duration reads a Go duration string such as "2s" or "500ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	if v < 0 {
		return fmt.Errorf("negative duration %q", text)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Default() *Config {
	return &Config{
		Generator: Generator{Indent: "  "},
		Sandbox: Sandbox{
			MaxSteps:       100000,
			MaxOutputLines: 1000,
			Timeout:        Duration{2 * time.Second},
		},
		Repl: Repl{History: ".kidblocks_history"},
	}
}

// Load parses the file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	c.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir looking for kidblocks.toml. Defaults
// are returned when no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

func (c *Config) validate() error {
	if c.Sandbox.MaxSteps < 0 {
		return fmt.Errorf("sandbox.max_steps must not be negative")
	}
	if c.Sandbox.MaxOutputLines < 0 {
		return fmt.Errorf("sandbox.max_output_lines must not be negative")
	}
	for _, r := range c.Generator.Indent {
		if r != ' ' && r != '\t' {
			return fmt.Errorf("generator.indent may only contain spaces and tabs")
		}
	}
	return nil
}

// HistoryPath resolves the REPL history file; relative names live in the
// user's home directory.
func (c *Config) HistoryPath() string {
	if c.Repl.History == "" || filepath.IsAbs(c.Repl.History) {
		return c.Repl.History
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, c.Repl.History)
}
