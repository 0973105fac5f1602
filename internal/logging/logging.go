// Package logging configures the application logger and carries
// request-scoped loggers through a context.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Standardized field names for structured logging.
const (
	FieldTripID     = "trip_id"
	FieldExpenseID  = "expense_id"
	FieldTitle      = "title"
	FieldCategory   = "category_id"
	FieldReason     = "reason"
	FieldSuggestion = "suggestion"
	FieldDryRun     = "dry_run"
	FieldCount      = "count"
	FieldActivities = "activities"
	FieldCategories = "categories"
	FieldExpenses   = "expenses"
	FieldFixed      = "fixed"
	FieldTotal      = "total"
	FieldSkipped    = "skipped"
	FieldFailed     = "failed"
	FieldDuration   = "duration_ms"
	FieldRequestID  = "request_id"
	FieldDriver     = "driver"
	FieldFile       = "file_path"
)

// New creates a logger writing to stderr with the given level and format
// ("text" or "json"). An invalid level falls back to info.
func New(level, format string) *logrus.Logger {
	return NewWithOutput(os.Stderr, level, format)
}

// NewWithOutput is New with an explicit writer.
func NewWithOutput(out io.Writer, level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	logLevel, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// Discard returns a logger that drops everything.
func Discard() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
