package evlog

import (
	"golang.org/x/sys/windows/svc/debug"
	"golang.org/x/sys/windows/svc/eventlog"
)

// Open opens the Windows event log for source. The source should have been
// registered with Install.
func Open(source string) (*EventLog, error) {
	l, err := eventlog.Open(source)
	if err != nil {
		return nil, err
	}

	return &EventLog{
		source: source,
		native: l,
	}, nil
}

// Console returns an EventLog that prints to the console, for use when the
// service runs in debug mode.
func Console(source string) *EventLog {
	return &EventLog{
		source: source,
		native: debug.New(source),
	}
}

// Install registers source as an event source backed by the EventCreate
// message file.
func Install(source string) error {
	return eventlog.InstallAsEventCreate(source, eventlog.Error|eventlog.Warning|eventlog.Info)
}

// Remove deletes the event source registration.
func Remove(source string) error {
	return eventlog.Remove(source)
}
