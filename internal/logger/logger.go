// Package logger builds the structured logger shared by every component.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a JSON logger writing to stderr. Stdout is left alone because
// the stdio transport owns it. verbose forces the debug level.
func New(level string, verbose bool) *logrus.Logger {
	return newLogger(os.Stderr, level, verbose)
}

func newLogger(out io.Writer, level string, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	switch strings.ToLower(level) {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return log
}
