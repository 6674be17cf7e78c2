// Package logger provides levelled logging for the cvescope CLI.
// Debug and Info messages are printed only in verbose mode (--verbose);
// warnings and errors are always printed to stderr so storage and
// network problems stay visible while the command continues.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logVerbose("[DEBUG] ", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logVerbose("[INFO] ", format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	logAlways("[WARN] ", format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	logAlways("[ERROR] ", format, args...)
}

func logVerbose(prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, prefix+format+"\n", args...)
	}
}

func logAlways(prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	fmt.Fprintf(output, prefix+format+"\n", args...)
}
