package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	// stdout is reserved for the exported XML document
	l.SetOutput(os.Stderr)
	return l
}

// Init initializes the logger with the specified level and format ("text" or "json")
func Init(level string, format ...string) error {
	if len(format) > 0 && format[0] == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)

	return nil
}

// SetOutput redirects log output
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Debug logs a debug message
func Debug(msg string, fields ...map[string]interface{}) {
	entry(fields).Debug(msg)
}

// Info logs an info message
func Info(msg string, fields ...map[string]interface{}) {
	entry(fields).Info(msg)
}

// Warn logs a warning message
func Warn(msg string, fields ...map[string]interface{}) {
	entry(fields).Warn(msg)
}

// Error logs an error message
func Error(msg string, err error, fields ...map[string]interface{}) {
	entry(fields).WithError(err).Error(msg)
}

func entry(fields []map[string]interface{}) *logrus.Entry {
	if len(fields) > 0 {
		return log.WithFields(fields[0])
	}
	return logrus.NewEntry(log)
}
