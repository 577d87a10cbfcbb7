// Package logging is the process-wide log facade. Backed by zerolog with a
// console writer plus an optional file writer; packages call the printf-style
// helpers so call sites stay flat.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	logger  = zerolog.Nop()
	prefix  string
	logFile *os.File
)

// InitLogger configures the global logger. level is one of debug, info,
// warn, error. If filePath is empty the default platform location is used;
// "-" disables file logging entirely (console only). console toggles the
// human-readable stderr writer, which the TUI turns off so log lines do not
// tear the alternate screen.
func InitLogger(level, filePath string, console bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var writers []io.Writer
	if console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	if filePath == "" {
		filePath = DefaultLogPath()
	}
	if filePath != "-" {
		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			return fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		writers = append(writers, f)

		mu.Lock()
		logFile = f
		mu.Unlock()
	}

	var out io.Writer = io.Discard
	if len(writers) > 0 {
		out = zerolog.MultiLevelWriter(writers...)
	}

	mu.Lock()
	logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	mu.Unlock()
	return nil
}

// Close flushes and closes the log file, if one is open.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	logger = zerolog.Nop()
}

// SetPrefix prepends a fixed tag to every subsequent line, e.g. "PID:1234".
func SetPrefix(p string) {
	mu.Lock()
	prefix = p
	mu.Unlock()
}

// DefaultLogPath returns the platform log location for the bot.
func DefaultLogPath() string {
	var base string
	switch runtime.GOOS {
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Logs")
	case "windows":
		base = os.Getenv("LOCALAPPDATA")
	default:
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			base = xdg
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".local", "state")
		}
	}
	return filepath.Join(base, "standupbot", "standupbot.log")
}

func Debug(format string, args ...interface{}) {
	emit(zerolog.DebugLevel, format, args...)
}

func Info(format string, args ...interface{}) {
	emit(zerolog.InfoLevel, format, args...)
}

func Warn(format string, args ...interface{}) {
	emit(zerolog.WarnLevel, format, args...)
}

func Error(format string, args ...interface{}) {
	emit(zerolog.ErrorLevel, format, args...)
}

func emit(lvl zerolog.Level, format string, args ...interface{}) {
	mu.RLock()
	l := logger
	p := prefix
	mu.RUnlock()

	msg := fmt.Sprintf(format, args...)
	if p != "" {
		msg = p + " " + msg
	}
	l.WithLevel(lvl).Msg(msg)
}
