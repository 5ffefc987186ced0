package cyberservice

import (
	"errors"
	"syscall"
)

const (
	StartHook Hook = "start"
	MainHook  Hook = "main"
	StopHook  Hook = "stop"

	usageExitCode = 2
)

// ErrNotLaunchedByManager is returned when the process was not started by
// the operating system's service manager, and therefore cannot register
// with it.
var ErrNotLaunchedByManager = errors.New("process was not launched by the service manager")

// Hook names a Service lifecycle method.
type Hook string

// LifecycleError is returned when a Service's Start, Main or Stop method
// fails.
type LifecycleError struct {
	Hook Hook
	Err  error
}

func (o *LifecycleError) Error() string {
	return "service " + string(o.Hook) + " failed - " + o.Err.Error()
}

func (o *LifecycleError) Unwrap() error {
	return o.Err
}

// exitCode is the service specific exit code reported to the service
// manager.
func (o *LifecycleError) exitCode() uint32 {
	switch o.Hook {
	case StartHook:
		return 1
	case StopHook:
		return 2
	}

	return 3
}

// CommandError is returned when a command line cannot be executed because
// it is malformed or names an unknown command.
type CommandError struct {
	reason    string
	command   string
	isUnknown bool
}

func (o *CommandError) Error() string {
	if o.isUnknown {
		return "Unknown command - '" + o.command + "'"
	}

	return o.reason
}

func (o *CommandError) IsUnknownCommand() bool {
	return o.isUnknown
}

// ExitCode returns the process exit code for an error returned by
// ParseCommandLine. It is 0 for nil, the operating system's error number
// for system errors (for example, access denied), 2 for command line
// mistakes, and 1 for everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var commandErr *CommandError
	if errors.As(err, &commandErr) {
		return usageExitCode
	}

	var errno syscall.Errno
	if errors.As(err, &errno) && errno != 0 {
		return int(errno)
	}

	return 1
}
