// Package evlog writes service status messages to the operating system's
// event log.
//
// On Windows messages go to the Windows event log under the service's event
// source. Elsewhere they are written to stderr, which is collected by
// journald and launchd.
package evlog

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// EventID is the event identifier of every message written by this package.
// It must be valid for the EventCreate message file that Install registers,
// which only covers identifiers 1 through 1000.
const EventID uint32 = 1

// Sink receives human readable status messages. Log is best effort: it does
// not buffer and write failures are not reported.
type Sink interface {
	Log(message string)
}

// Discard is a Sink that drops every message.
var Discard Sink = discard{}

type discard struct{}

func (discard) Log(string) {}

// native is implemented by golang.org/x/sys/windows/svc/debug.Log.
type native interface {
	Info(eid uint32, msg string) error
	Warning(eid uint32, msg string) error
	Error(eid uint32, msg string) error
	Close() error
}

// EventLog is a Sink backed by a native log.
type EventLog struct {
	source string
	native native
}

// Source returns the event source name.
func (o *EventLog) Source() string {
	return o.source
}

// Log writes an informational message.
func (o *EventLog) Log(message string) {
	_ = o.native.Info(EventID, message)
}

// Warning writes a warning message.
func (o *EventLog) Warning(message string) {
	_ = o.native.Warning(EventID, message)
}

// Error writes an error message.
func (o *EventLog) Error(message string) {
	_ = o.native.Error(EventID, message)
}

func (o *EventLog) Close() error {
	return o.native.Close()
}

// NewWriterSink returns an EventLog that writes one line per message to w.
func NewWriterSink(source string, w io.Writer) *EventLog {
	return &EventLog{
		source: source,
		native: &writerLog{
			source: source,
			w:      w,
		},
	}
}

// Log opens the event log for source, writes message and closes it again.
// Failures are ignored.
func Log(source string, message string) {
	l, err := Open(source)
	if err != nil {
		return
	}
	defer l.Close()

	l.Log(message)
}

type writerLog struct {
	source string
	mu     sync.Mutex
	w      io.Writer
}

func (o *writerLog) Info(eid uint32, msg string) error {
	return o.write("info", eid, msg)
}

func (o *writerLog) Warning(eid uint32, msg string) error {
	return o.write("warning", eid, msg)
}

func (o *writerLog) Error(eid uint32, msg string) error {
	return o.write("error", eid, msg)
}

func (o *writerLog) Close() error {
	return nil
}

func (o *writerLog) write(severity string, eid uint32, msg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	_, err := fmt.Fprintf(o.w, "%s [%s] (%d) %s\n", o.source, severity, eid, msg)
	return err
}

// Hook is a logrus hook that copies log entries to an EventLog, mapping the
// entry's level onto the event log's severities.
type Hook struct {
	log       *EventLog
	formatter logrus.Formatter
}

// NewHook returns a Hook writing to l. Timestamps are left out because the
// event log records its own.
func NewHook(l *EventLog) *Hook {
	return &Hook{
		log: l,
		formatter: &logrus.TextFormatter{
			DisableColors:    true,
			DisableTimestamp: true,
		},
	}
}

func (o *Hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (o *Hook) Fire(entry *logrus.Entry) error {
	raw, err := o.formatter.Format(entry)
	if err != nil {
		return err
	}

	msg := strings.TrimSpace(string(raw))

	switch entry.Level {
	case logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel:
		return o.log.native.Error(EventID, msg)
	case logrus.WarnLevel:
		return o.log.native.Warning(EventID, msg)
	default:
		return o.log.native.Info(EventID, msg)
	}
}
