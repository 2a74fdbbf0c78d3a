// Package logging builds the structured logger shared by the server, the
// CLI and the pipeline.
//
// Logs always go to stderr because stdout carries the MCP protocol. A
// rotating log file can be added with Config.File.
package logging

import (
	"fmt"
	"io"
	"path"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation limits for the log file.
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Config configures the logger.
type Config struct {
	// Level is a logrus level name: trace, debug, info, warn, error.
	Level string `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`

	// File is an optional log file path, rotated by size.
	File string `yaml:"log_file,omitempty" json:"log_file,omitempty"`

	// MaxSizeMB, MaxBackups and MaxAgeDays control rotation of File.
	MaxSizeMB  int `yaml:"log_max_size_mb,omitempty" json:"log_max_size_mb,omitempty" validate:"gte=0"`
	MaxBackups int `yaml:"log_max_backups,omitempty" json:"log_max_backups,omitempty" validate:"gte=0"`
	MaxAgeDays int `yaml:"log_max_age_days,omitempty" json:"log_max_age_days,omitempty" validate:"gte=0"`

	// Color enables ANSI colors on stderr.
	Color bool `yaml:"log_color,omitempty" json:"log_color,omitempty"`
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New creates a logger writing to stderr (and to Config.File when set).
//
// The returned closer flushes and closes the log file; it is always non-nil.
// Caller information is included at debug and trace levels.
//
// # Errors
//
//   - Returns an error if Level is not a valid logrus level
func New(cfg Config, stderr io.Writer) (*logrus.Logger, io.Closer, error) {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(cfg.Level); err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&formatter.Formatter{
		NoColors:        !cfg.Color,
		TimestampFormat: "2006-01-02 15:04:05.000",
		HideKeys:        false,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
		},
	})
	logger.SetReportCaller(level >= logrus.DebugLevel)

	var closer io.Closer = nopCloser{}
	writers := []io.Writer{stderr}
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    orDefault(cfg.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: orDefault(cfg.MaxBackups, DefaultMaxBackups),
			MaxAge:     orDefault(cfg.MaxAgeDays, DefaultMaxAgeDays),
		}
		writers = append(writers, file)
		closer = file
	}
	logger.SetOutput(io.MultiWriter(writers...))

	return logger, closer, nil
}

// Discard returns a logger that drops everything, for tests and quiet runs.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
