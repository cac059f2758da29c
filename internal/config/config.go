// Package config handles command-line argument parsing and validation.
package config

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/sadopc/dtree/internal/logger"
	"github.com/sadopc/dtree/internal/walker"
)

// Version is overridden at build time with -ldflags "-X".
var Version = "dev"

var (
	// ErrHelp is returned after --help was printed.
	ErrHelp = errors.New("help requested")
	// ErrVersion is returned after --version was printed.
	ErrVersion = errors.New("version requested")
)

// UsageError reports a malformed command line. Nothing has been traversed
// when it is returned.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// ColorMode selects when output is colorized.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// DepthLimit is the -d value. It parses as a plain base-10 integer, so
// "010" is ten and prefixed forms like "0x10" are rejected.
type DepthLimit int

// UnmarshalText implements encoding.TextUnmarshaler for go-arg.
func (d *DepthLimit) UnmarshalText(text []byte) error {
	n, err := strconv.Atoi(string(text))
	if err != nil {
		return fmt.Errorf("invalid depth %q: must be a base-10 integer", text)
	}
	*d = DepthLimit(n)
	return nil
}

// Config holds the parsed command line.
type Config struct {
	All     bool        `arg:"-a,--all" help:"show hidden entries (names starting with .)"`
	Depth   *DepthLimit `arg:"-d,--depth" placeholder:"N" help:"descend at most N levels below the root; 0 prints only the root, a negative value means unlimited"`
	Long    bool        `arg:"-l,--long" help:"long format: permission bits and symlink targets"`
	Natural bool        `arg:"-v,--natural" help:"order names naturally (file2 before file10) instead of byte-wise"`

	Colorize bool      `arg:"-C,--colorize" help:"always colorize output (same as --color=always)"`
	Color    ColorMode `arg:"--color,env:DTREE_COLOR" default:"auto" placeholder:"WHEN" help:"colorize output: auto|always|never"`
	JSON     bool      `arg:"-J,--json" help:"print the tree as JSON"`
	Report   bool      `arg:"--report" help:"print a directory and file count after the tree"`
	Pager    bool      `arg:"--pager" help:"browse the tree in a full-screen pager"`

	SSHPort    int  `arg:"--ssh-port" default:"22" help:"SSH port for remote trees"`
	SSHBatch   bool `arg:"--ssh-batch" help:"never prompt for passwords or host keys (agent and key auth only)"`
	SSHTimeout int  `arg:"--ssh-timeout" default:"15" placeholder:"SECONDS" help:"SSH connection timeout"`

	LogLevel  string `arg:"--log-level,env:DTREE_LOG_LEVEL" default:"off" help:"diagnostic log level: debug|info|warn|error|off"`
	LogFormat string `arg:"--log-format,env:DTREE_LOG_FORMAT" default:"text" help:"diagnostic log format: text|json"`
	LogFile   string `arg:"--log-file,env:DTREE_LOG_FILE" help:"write diagnostics to a rotating log file instead of stderr"`

	Paths []string `arg:"positional" placeholder:"PATH" help:"root directory (default .) or user@host [remote-path]"`
}

// Description returns the program description for go-arg.
func (Config) Description() string {
	return "dtree - print a directory hierarchy"
}

// Version returns the version string for go-arg.
func (Config) Version() string {
	return "dtree " + Version
}

// UnmarshalText implements encoding.TextUnmarshaler for go-arg.
func (m *ColorMode) UnmarshalText(text []byte) error {
	switch mode := ColorMode(strings.ToLower(string(text))); mode {
	case ColorAuto, ColorAlways, ColorNever:
		*m = mode
		return nil
	default:
		return fmt.Errorf("invalid color mode %q (valid: auto, always, never)", text)
	}
}

// Parse parses args (without the program name). Help and version output go
// to stdout and return ErrHelp/ErrVersion; usage problems print the usage
// line to stderr and return a *UsageError.
func Parse(program string, args []string, stdout, stderr io.Writer) (*Config, error) {
	cfg := &Config{}
	p, err := arg.NewParser(arg.Config{Program: program}, cfg)
	if err != nil {
		return nil, err
	}

	err = p.Parse(args)
	switch {
	case errors.Is(err, arg.ErrHelp):
		p.WriteHelp(stdout)
		return nil, ErrHelp
	case errors.Is(err, arg.ErrVersion):
		fmt.Fprintln(stdout, cfg.Version())
		return nil, ErrVersion
	case err != nil:
		p.WriteUsage(stderr)
		return nil, &UsageError{Err: err}
	}

	if err := cfg.Validate(); err != nil {
		p.WriteUsage(stderr)
		return nil, &UsageError{Err: err}
	}
	return cfg, nil
}

// Validate checks cross-flag constraints.
func (c *Config) Validate() error {
	if c.JSON && c.Pager {
		return fmt.Errorf("--json and --pager cannot be used together")
	}
	if c.SSHPort < 1 || c.SSHPort > 65535 {
		return fmt.Errorf("--ssh-port must be between 1 and 65535")
	}
	if c.SSHTimeout < 0 {
		return fmt.Errorf("--ssh-timeout must be >= 0")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (valid: text, json)", c.LogFormat)
	}
	return nil
}

// WalkOptions returns the traversal options selected on the command line.
func (c *Config) WalkOptions() walker.Options {
	opts := walker.DefaultOptions()
	opts.ShowHidden = c.All
	opts.ShowDetails = c.Long
	opts.NaturalSort = c.Natural
	if c.Depth != nil && *c.Depth >= 0 {
		opts.MaxDepth = int(*c.Depth)
	}
	return opts
}

// UseColor decides whether to colorize, given whether stdout is a terminal.
// JSON output is never colorized.
func (c *Config) UseColor(stdoutIsTerminal bool) bool {
	if c.JSON {
		return false
	}
	if c.Colorize {
		return true
	}
	switch c.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return stdoutIsTerminal
	}
}

// SSHTimeoutDuration returns the connection timeout.
func (c *Config) SSHTimeoutDuration() time.Duration {
	return time.Duration(c.SSHTimeout) * time.Second
}

// LoggerConfig returns the diagnostic logger settings.
func (c *Config) LoggerConfig(stderr io.Writer) logger.Config {
	level, _ := logger.ParseLevel(c.LogLevel)
	cfg := logger.Config{
		Level:  level,
		JSON:   strings.EqualFold(c.LogFormat, "json"),
		Writer: stderr,
	}
	if c.LogFile != "" {
		cfg.File = logger.FileConfig{Path: c.LogFile, MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28}
		if level == logger.LevelOff {
			cfg.Level = logger.LevelInfo
		}
	}
	return cfg
}
