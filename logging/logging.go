// Package logging adapts zerolog to the downloader Logger interface.
package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Environment overrides applied by New.
const (
	// EnvLogLevel overrides Config.Level when it names a known level
	EnvLogLevel = "BHLOG_LOG_LEVEL"

	// EnvLogPretty overrides Config.Pretty when it parses as a boolean
	EnvLogPretty = "BHLOG_LOG_PRETTY"
)

// Config selects the level and output of a Logger.
type Config struct {
	// Level is one of trace, debug, info, warn, error or disabled
	Level string

	// Pretty selects human readable console output instead of JSON lines
	Pretty bool

	// NoColor disables ANSI colors in pretty output
	NoColor bool

	// Output defaults to os.Stderr
	Output io.Writer
}

// Logger writes structured events through zerolog. It satisfies
// downloader.Logger and riff.Logger.
type Logger struct {
	zl zerolog.Logger
}

// New returns a Logger for cfg. The BHLOG_LOG_LEVEL and BHLOG_LOG_PRETTY
// environment variables override the configured values.
func New(cfg Config) (*Logger, error) {
	applyEnvOverrides(&cfg)

	level, ok := ParseLevel(cfg.Level)
	if !ok {
		return nil, fmt.Errorf("unknown log level %q", cfg.Level)
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: cfg.NoColor}
	}

	zl := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &Logger{zl: zl}, nil
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Zerolog returns the underlying zerolog logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zl
}

// Debug logs msg at debug level with alternating keys and values.
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Debug(), msg, keysAndValues)
}

// Info logs msg at info level.
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Info(), msg, keysAndValues)
}

// Warn logs msg at warn level.
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Warn(), msg, keysAndValues)
}

// Error logs msg at error level.
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Error(), msg, keysAndValues)
}

func emit(ev *zerolog.Event, msg string, kv []interface{}) {
	if ev == nil {
		return
	}
	if len(kv)%2 != 0 {
		kv = append(kv, "(MISSING)")
	}
	ev.Fields(kv).Msg(msg)
}

// ParseLevel maps a level name to a zerolog level. An empty name is info.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return zerolog.InfoLevel, true
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func applyEnvOverrides(cfg *Config) {
	if raw := strings.TrimSpace(os.Getenv(EnvLogLevel)); raw != "" {
		if _, ok := ParseLevel(raw); ok {
			cfg.Level = raw
		}
	}
	if v, ok := parseBool(os.Getenv(EnvLogPretty)); ok {
		cfg.Pretty = v
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
