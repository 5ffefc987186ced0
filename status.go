package cyberservice

import (
	"sync"
)

const (
	Unknown Status = iota
	StartPending
	Running
	StopPending
	Stopped
)

// Status is the state of a service instance as reported to the service
// manager. Statuses are ordered: an instance only ever moves to a later one.
type Status int

func (o Status) String() string {
	switch o {
	case StartPending:
		return "start_pending"
	case Running:
		return "running"
	case StopPending:
		return "stop_pending"
	case Stopped:
		return "stopped"
	}

	return "unknown"
}

const (
	Interrogate Request = iota
	StopRequest
	ShutdownRequest
)

// Request is a control request delivered to a running instance by the
// service manager.
type Request int

func (o Request) String() string {
	switch o {
	case Interrogate:
		return "interrogate"
	case StopRequest:
		return "stop"
	case ShutdownRequest:
		return "shutdown"
	}

	return "unknown"
}

// statusTracker holds an instance's status and reports every change.
// Attempts to move back to an earlier status are ignored.
type statusTracker struct {
	mu      sync.Mutex
	current Status
	report  func(Status)
}

func (o *statusTracker) get() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.current
}

func (o *statusTracker) setReporter(report func(Status)) {
	o.mu.Lock()
	o.report = report
	o.mu.Unlock()
}

func (o *statusTracker) advance(to Status) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if to <= o.current {
		return false
	}

	o.current = to
	if o.report != nil {
		o.report(to)
	}

	return true
}

// interrogate reports the current status again.
func (o *statusTracker) interrogate() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.report != nil {
		o.report(o.current)
	}
}
