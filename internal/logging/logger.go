// Package logging provides the structured logger passed explicitly into
// every component; there is no ambient package-level logger.
package logging

import (
	"github.com/sirupsen/logrus"
)

// Logger is a structured logger instance.
type Logger = *logrus.Logger

// Fields is a set of structured logging fields.
type Fields = logrus.Fields

// Level is a log level.
type Level = logrus.Level

// Log levels re-exported for callers that don't want to import logrus directly.
const (
	DebugLevel = logrus.DebugLevel
	InfoLevel  = logrus.InfoLevel
	WarnLevel  = logrus.WarnLevel
	ErrorLevel = logrus.ErrorLevel
)

// New creates a configured logger at the given level with JSON output.
func New(level Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(level)
	return logger
}

// NewWithComponent creates a logger that tags every entry with a component name.
func NewWithComponent(level Level, component string) *logrus.Logger {
	logger := New(level)
	logger.AddHook(componentHook{component: component})
	return logger
}

// componentHook adds the component field to every entry a logger emits.
type componentHook struct {
	component string
}

func (h componentHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h componentHook) Fire(entry *logrus.Entry) error {
	entry.Data["component"] = h.component
	return nil
}
