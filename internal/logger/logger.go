// internal/logger/logger.go
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/javajoker/storefront/internal/config"
)

// Setup configures the standard logrus logger. When a log file is configured
// output goes to both stdout and a size-rotated file.
func Setup(cfg config.LoggerConfig, production bool) io.Closer {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	format := cfg.Format
	if format == "" {
		format = "text"
		if production {
			format = "json"
		}
	}
	if format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.File == "" {
		logrus.SetOutput(os.Stdout)
		return nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   false,
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, rotator))

	return rotator
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
