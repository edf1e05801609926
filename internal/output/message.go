package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

//nolint:gochecknoglobals // shared painters, toggled by SetColor
var (
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.Bold)
)

// Messages go to stdout, warnings to stderr. Tests swap these.
//
//nolint:gochecknoglobals // overridable sinks
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// Info prints an informational message to stdout.
func Info(msg string) {
	_, _ = fmt.Fprintln(Stdout, infoColor.Sprint("info:")+" "+msg)
}

// Infof prints a formatted informational message to stdout.
func Infof(format string, args ...any) {
	Info(fmt.Sprintf(format, args...))
}

// Warn prints a warning message to stderr.
func Warn(msg string) {
	_, _ = fmt.Fprintln(Stderr, warnColor.Sprint("warning:")+" "+msg)
}

// Warnf prints a formatted warning message to stderr.
func Warnf(format string, args ...any) {
	Warn(fmt.Sprintf(format, args...))
}

// Success prints a success message to stdout.
func Success(msg string) {
	_, _ = fmt.Fprintln(Stdout, successColor.Sprint("ok:")+" "+msg)
}

// Successf prints a formatted success message to stdout.
func Successf(format string, args ...any) {
	Success(fmt.Sprintf(format, args...))
}

// Status colors a connection or transaction status word.
func Status(s string) string {
	switch s {
	case "connected", "confirmed", "sent", "ok":
		return successColor.Sprint(s)
	case "failed", "error":
		return errorColor.Sprint(s)
	case "pending", "stale", "cached":
		return warnColor.Sprint(s)
	default:
		return s
	}
}
