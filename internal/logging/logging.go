// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"tickcom/portal/internal/config"
)

// Setup applies level, format and output to the standard logrus logger.
// Output is "stdout", "stderr" or a file path, which is rotated by lumberjack.
// The returned closer releases the file, if any.
func Setup(cfg config.LoggingConfig) (io.Closer, error) {
	return Configure(logrus.StandardLogger(), cfg)
}

func Configure(l *logrus.Logger, cfg config.LoggingConfig) (io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("error parsing log level: %w", err)
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	var closer io.Closer = nopCloser{}
	switch out := strings.TrimSpace(cfg.Output); strings.ToLower(out) {
	case "", "stdout":
		l.SetOutput(os.Stdout)
	case "stderr":
		l.SetOutput(os.Stderr)
	default:
		lj := &lumberjack.Logger{
			Filename:   out,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		l.SetOutput(lj)
		closer = lj
	}
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
