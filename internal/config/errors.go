package config

import (
	"fmt"
	"strings"
)

// PermissionOp is the file operation a PermissionError was raised for.
type PermissionOp string

const (
	OpRead  PermissionOp = "read"
	OpWrite PermissionOp = "write"
)

// PermissionError is returned when the config file or its directory
// cannot be read or written.
type PermissionError struct {
	Path    string
	Op      PermissionOp
	Fix     string // shell command or steps that grant access
	Details string
}

func (e *PermissionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot %s forkfeat config %s: permission denied", e.Op, e.Path)
	if e.Details != "" {
		b.WriteString("\n" + e.Details)
	}
	if e.Fix != "" {
		b.WriteString("\nFix: " + e.Fix)
	}
	return b.String()
}

// ConfigNotFoundError is returned when --config names a missing file.
type ConfigNotFoundError struct {
	Path string
	Hint string
}

func (e *ConfigNotFoundError) Error() string {
	msg := "forkfeat config not found: " + e.Path
	if e.Hint != "" {
		msg += "\n" + e.Hint
	}
	return msg
}

// Setting is one rejected configuration value.
type Setting struct {
	Key string // dotted key as written in the file, e.g. "windows.fork_end"
	Err error
}

func (s *Setting) Error() string { return s.Key + ": " + s.Err.Error() }

func (s *Setting) Unwrap() error { return s.Err }

// InvalidConfigError is returned when the configuration cannot be parsed
// or holds rejected values. Settings lists every rejected value; Message
// covers failures that precede validation, such as YAML syntax errors.
type InvalidConfigError struct {
	Path     string // config file; empty when only defaults, env, and flags applied
	Source   string // what the values were last overridden by, e.g. "flags"
	Message  string
	Settings []*Setting
	Hint     string
}

// Keys returns the dotted keys of the rejected settings, in report order.
func (e *InvalidConfigError) Keys() []string {
	keys := make([]string, len(e.Settings))
	for i, s := range e.Settings {
		keys[i] = s.Key
	}
	return keys
}

func (e *InvalidConfigError) Error() string {
	var b strings.Builder
	b.WriteString("invalid forkfeat config")
	if e.Path != "" {
		b.WriteString(" " + e.Path)
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " (after %s)", e.Source)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	for _, s := range e.Settings {
		b.WriteString("\n  " + s.Error())
	}
	if e.Hint != "" {
		b.WriteString("\n" + e.Hint)
	}
	return b.String()
}

func (e *InvalidConfigError) Unwrap() []error {
	errs := make([]error, len(e.Settings))
	for i, s := range e.Settings {
		errs[i] = s
	}
	return errs
}

// located sets the file and override source of an InvalidConfigError
// returned by Validate, leaving other errors untouched.
func located(err error, path, source, hint string) error {
	invalid, ok := err.(*InvalidConfigError)
	if !ok {
		return err
	}
	invalid.Path = path
	invalid.Source = source
	if hint != "" {
		invalid.Hint = hint
	}
	return invalid
}

// CheckOverrides validates cfg after command-line overrides were applied
// on top of the file at path.
func CheckOverrides(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return located(err, path, "flags", "Check the command-line flags")
	}
	return nil
}
