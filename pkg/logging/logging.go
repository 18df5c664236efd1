// Package logging provides structured logging for mdstream using zerolog.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *zerolog.Logger
	pretty bool
)

func init() {
	// Default to JSON logging at info level
	l := zerolog.New(os.Stderr).With().Timestamp().Logger()
	logger = &l
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Options configures the global logger.
type Options struct {
	// Debug lowers the level to debug.
	Debug bool
	// Human switches stderr output to a console writer.
	Human bool
	// File additionally writes JSON logs to a rotated file when set.
	File string
	// MaxSizeMB is the size at which the log file is rotated.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept.
	MaxBackups int
}

// Init configures the global logger. The returned closer releases the log
// file, if any, and is never nil.
func Init(opts Options) io.Closer {
	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	pretty = opts.Human

	var console io.Writer = os.Stderr
	if opts.Human {
		console = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}
	}

	var closer io.Closer = nopCloser{}
	output := zerolog.LevelWriter(zerolog.LevelWriterAdapter{Writer: console})
	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		output = zerolog.MultiLevelWriter(console, rotated)
		closer = rotated
	}

	SetLogger(zerolog.New(output).With().Timestamp().Logger())
	return closer
}

// L returns the base logger.
func L() *zerolog.Logger {
	return logger
}

// WithComponent returns a logger with the component field set.
func WithComponent(component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}

// SetLogger replaces the global logger.
func SetLogger(l zerolog.Logger) {
	logger = &l
}

// IsPrettyMode reports whether human readable companion fields are added.
func IsPrettyMode() bool {
	return pretty
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
