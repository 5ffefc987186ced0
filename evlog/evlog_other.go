//go:build !windows
// +build !windows

package evlog

import (
	"os"
)

// Open returns an EventLog writing to stderr.
func Open(source string) (*EventLog, error) {
	return NewWriterSink(source, os.Stderr), nil
}

// Console returns an EventLog writing to stderr.
func Console(source string) *EventLog {
	return NewWriterSink(source, os.Stderr)
}

// Install is a no-op outside of Windows.
func Install(source string) error {
	return nil
}

// Remove is a no-op outside of Windows.
func Remove(source string) error {
	return nil
}
