// Package log configures the process-wide structured logger.
package log

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

var std = logrus.New()

// Configure sets the level and output format of the shared logger.
// Level is one of debug, info, warn, error. Format is text or json.
func Configure(level, format string) error {
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	std.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		std.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	return nil
}

// SetOutput redirects the shared logger output.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// Base returns the shared logger.
func Base() *logrus.Logger {
	return std
}

// WithComponent returns an entry tagged with the named component.
func WithComponent(name string) *logrus.Entry {
	return std.WithField("component", name)
}
