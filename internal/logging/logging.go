// Package logging configures the recorder's logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// Options describe how to configure a logger instance.
type Options struct {
	Level string
	// File is appended to when set.
	File string
	// Stderr also writes to stderr when it is a terminal.
	Stderr bool
	// Output overrides every sink; used by tests.
	Output io.Writer
}

// New returns a logger and a func that closes its file sink.
func New(opts Options) (*logrus.Logger, func() error, error) {
	levelStr := strings.TrimSpace(opts.Level)
	if levelStr == "" {
		levelStr = "info"
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q", opts.Level)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&LineFormatter{})

	closeFn := func() error { return nil }
	if opts.Output != nil {
		logger.SetOutput(opts.Output)
		return logger, closeFn, nil
	}

	var writers []io.Writer
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, file)
		closeFn = file.Close
	}
	if opts.Stderr && (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) {
		writers = append(writers, os.Stderr)
	}

	switch len(writers) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(writers[0])
	default:
		logger.SetOutput(io.MultiWriter(writers...))
	}
	return logger, closeFn, nil
}

// LineFormatter renders "[2006-01-02 15:04:05] INFO: message key=value".
type LineFormatter struct{}

// Format renders a single log entry.
func (f *LineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
	b.WriteString("] ")

	level := entry.Level.String()
	if level == "warning" {
		level = "warn"
	}
	b.WriteString(strings.ToUpper(level))
	b.WriteString(": ")
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteString("\n")
	return []byte(b.String()), nil
}
