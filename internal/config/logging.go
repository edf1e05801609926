package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/mrz1836/polywallet/internal/chain"
)

// LogLevel represents logging verbosity levels.
type LogLevel int

// Log level constants.
const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelDebug
)

// Compile-time interface checks
var (
	_ chain.LogWriter = (*Logger)(nil)
	_ chain.LogWriter = (*namedLogger)(nil)
)

// ParseLogLevel parses a log level string. Unknown values mean error.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return LogLevelOff
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelError
	}
}

// String returns the string representation of a log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelOff:
		return "off"
	case LogLevelDebug:
		return "debug"
	case LogLevelError:
		return "error"
	default:
		return "error"
	}
}

// Logger appends leveled lines to a file.
type Logger struct {
	mu       sync.Mutex
	level    LogLevel
	file     *os.File
	filePath string
}

// NewLogger opens filePath for appending. Level off or an empty path
// yields a logger that writes nothing.
func NewLogger(level LogLevel, filePath string) (*Logger, error) {
	logger := &Logger{level: level, filePath: filePath}
	if level == LogLevelOff || filePath == "" {
		return logger, nil
	}

	filePath = ExpandHome(filePath)
	if err := os.MkdirAll(filepath.Dir(filePath), 0o750); err != nil {
		return nil, err
	}

	// #nosec G304 -- log file path is from validated config
	f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	logger.file = f
	logger.filePath = filePath
	return logger, nil
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// SetLevel changes the log level.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Path returns the log file path.
func (l *Logger) Path() string {
	return l.filePath
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LogLevelDebug, "", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LogLevelError, "", format, args...)
}

// Named returns a LogWriter that tags every line with component.
func (l *Logger) Named(component string) chain.LogWriter {
	return &namedLogger{logger: l, name: component}
}

// Writer returns an io.Writer that writes to the logger at the specified level.
func (l *Logger) Writer(level LogLevel) io.Writer {
	return &logWriter{logger: l, level: level}
}

func (l *Logger) log(level LogLevel, component, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.level == LogLevelOff || level > l.level || l.file == nil {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	levelStr := strings.ToUpper(level.String())
	msg := fmt.Sprintf(format, args...)
	if component != "" {
		msg = component + ": " + msg
	}
	_, _ = fmt.Fprintf(l.file, "%s [%s] %s\n", timestamp, levelStr, msg)
}

type namedLogger struct {
	logger *Logger
	name   string
}

func (n *namedLogger) Debug(format string, args ...any) {
	n.logger.log(LogLevelDebug, n.name, format, args...)
}

func (n *namedLogger) Error(format string, args ...any) {
	n.logger.log(LogLevelError, n.name, format, args...)
}

// logWriter implements io.Writer for the logger.
type logWriter struct {
	logger *Logger
	level  LogLevel
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.logger.log(w.level, "", "%s", strings.TrimSpace(string(p)))
	return len(p), nil
}

// NullLogger returns a logger that discards all output.
func NullLogger() *Logger {
	return &Logger{level: LogLevelOff}
}

// ConfigureSubsystemLogs maps level onto the go-log subsystems (the
// history DAL) and points them at path.
func ConfigureSubsystemLogs(level LogLevel, path string) {
	cfg := logging.Config{
		Format: logging.PlaintextOutput,
		Level:  logging.LevelError,
	}
	switch level {
	case LogLevelOff:
		cfg.Level = logging.LevelFatal
	case LogLevelDebug:
		cfg.Level = logging.LevelDebug
	case LogLevelError:
	}
	if path != "" && level != LogLevelOff {
		cfg.File = ExpandHome(path)
	} else {
		cfg.Stderr = level != LogLevelOff
	}
	logging.SetupLogging(cfg)
}
