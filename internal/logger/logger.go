package logger

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Logger struct {
	*logrus.Entry
}

func New() *Logger {
	base := logrus.New()

	// Local env = pretty console; others = JSON
	env := os.Getenv("ENVIRONMENT")
	if env == "" || env == "local" {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
			ForceColors:     true,
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}

	// Optional rotating file sink alongside stdout
	if logFile := os.Getenv("LOG_FILE"); logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    20, // megabytes
			MaxBackups: 3,
			MaxAge:     30,
		}
		base.SetOutput(io.MultiWriter(os.Stdout, rotator))
	} else {
		base.SetOutput(os.Stdout)
	}

	// Log level
	level := os.Getenv("LOG_LEVEL")
	switch level {
	case "debug":
		base.SetLevel(logrus.DebugLevel)
	case "warn":
		base.SetLevel(logrus.WarnLevel)
	case "error":
		base.SetLevel(logrus.ErrorLevel)
	default:
		base.SetLevel(logrus.InfoLevel)
	}

	return &Logger{Entry: logrus.NewEntry(base)}
}

// WithRun tags every entry belonging to one transcription run with a fresh run id
func (l *Logger) WithRun() *logrus.Entry {
	return l.WithField("run_id", uuid.New().String())
}

// WithError standardizes error logging
func (l *Logger) WithError(err error) *logrus.Entry {
	if err == nil {
		return l.Entry
	}
	return l.Entry.WithField("error", err.Error())
}
