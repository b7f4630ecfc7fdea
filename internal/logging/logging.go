// Package logging configures the process-wide logrus logger.
// Diagnostics go to stderr so stdout carries only the probe report.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

// New creates a logger writing to out at the given level.
// An unknown level falls back to warn.
func New(level string, out io.Writer) *logrus.Logger {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.WarnLevel
	}
	l.SetLevel(lvl)

	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetOutput(out)

	return l
}

// Init initializes the global logger on stderr.
func Init(level string) *logrus.Logger {
	log = New(level, os.Stderr)
	return log
}

// Get returns the logger instance
func Get() *logrus.Logger {
	if log == nil {
		log = New("warn", os.Stderr)
	}
	return log
}
