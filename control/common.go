package control

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	Unknown      Status = "unknown"
	Running      Status = "running"
	Stopped      Status = "stopped"
	StoppedDead  Status = "stopped_dead"
	Starting     Status = "starting"
	Stopping     Status = "stopping"
	Resuming     Status = "resuming"
	Pausing      Status = "pausing"
	Paused       Status = "paused"
	NotInstalled Status = "not_installed"

	GetStatus Command = "status"
	Install   Command = "install"
	Update    Command = "update"
	Remove    Command = "remove"
	Start     Command = "start"
	Stop      Command = "stop"
	Restart   Command = "restart"

	// StartImmediately means that the service will start immediately
	// after it is installed, and will be started whenever the
	// operating system loads the service (i.e., the behavior of the
	// 'StartOnLoad' option).
	StartImmediately StartType = "immediate"

	// StartOnLoad means that the service will not start after its
	// installation completes (with the exception of macOS). It will,
	// however, start each subsequent time the operating system loads
	// the service.
	//
	// On Linux, a system-owned systemd service will start when the
	// operating system boots. A user-owned service will only start
	// when that user logs in.
	//
	// On macOS, this means the service will start when either the
	// system boots (a system daemon), or when a user logs in (a user
	// agent). Due to the way launchd works, the service will be started
	// after installation finishes if this option is specified.
	//
	// On Windows, the service will start when the operating system
	// boots.
	StartOnLoad StartType = "auto"

	// ManualStart means that the service must be started manually
	// after its installation completes. In addition, the operating
	// system will not start the service when it loads it.
	ManualStart StartType = "manual"

	uninstallAlias = "uninstall"
)

// ErrUnknownCommand is returned by Execute and ParseCommand when a command
// is not supported.
var ErrUnknownCommand = errors.New("unknown service command")

// Status represents the status of a service as seen by its manager.
type Status string

func (o Status) String() string {
	return string(o)
}

// Command represents a command that can be issued to a Controller.
type Command string

func (o Command) string() string {
	return string(o)
}

// StartType represents how the service will start once its installation
// is finished.
type StartType string

func (o StartType) string() string {
	return string(o)
}

// ParseStartType converts a user supplied string into a StartType. The empty
// string means ManualStart.
func ParseStartType(s string) (StartType, error) {
	switch StartType(strings.ToLower(s)) {
	case "", ManualStart:
		return ManualStart, nil
	case StartOnLoad:
		return StartOnLoad, nil
	case StartImmediately:
		return StartImmediately, nil
	}

	return "", fmt.Errorf("unknown start type '%s' - must be one of '%s', '%s', '%s'",
		s, ManualStart.string(), StartOnLoad.string(), StartImmediately.string())
}

// SystemSpecificOption specifies the name of an operating system
// specific option.
type SystemSpecificOption string

// Controller is an interface for controlling the state of a service.
//
// Be advised: Changing the state of a service requires super user
// privileges in the following scenarios:
// 	- System services on all operating systems
// 	- Any Windows service
type Controller interface {
	// Status returns the current status of the service.
	Status() (Status, error)

	// Install installs the service.
	Install() error

	// Update rewrites an installed service's configuration.
	Update() error

	// Uninstall stops and removes the service.
	Uninstall() error

	// Start starts the service.
	Start() error

	// Stop stops the service and waits for it to exit.
	Stop() error
}

// ControllerConfig configures a service Controller.
type ControllerConfig struct {
	// ServiceName is the string used to identify a service (for example,
	// "MyApp"). The string must follow these rules:
	// 	- Contain no spaces or special characters
	// 	- On macOS, must be in reverse DNS format (e.g.,
	// 	com.github.thedude.myapp)
	ServiceName string

	// DisplayName is shown by the service manager's user interface.
	// ServiceName is used when it is empty.
	DisplayName string

	// Description is a short blurb describing your application.
	Description string

	// ExePath is the path to the service's host executable.
	ExePath string

	// Arguments are the command line arguments to pass to the
	// service's host executable on startup.
	Arguments []string

	// RunAs is the user to run the service as.
	//
	// If left unset, the service will run as the following:
	// 	- root on unix systems
	// 	- LocalSystem on Windows systems
	RunAs string

	// StartType specifies the service's start up behavior.
	//
	// If left unset, the service must be started manually.
	StartType StartType

	// StopTimeout bounds how long Stop waits for the service to stop.
	// The operating system's default is used if it is zero.
	StopTimeout time.Duration

	// SystemSpecificOptions is a map of operating system specific
	// settings keys to values.
	SystemSpecificOptions map[SystemSpecificOption]interface{}
}

func (o ControllerConfig) Validate() error {
	if len(o.ServiceName) == 0 {
		return fmt.Errorf("service name must be provided to controller config")
	}

	if len(o.ExePath) == 0 {
		return fmt.Errorf("executable path must be provided to controller config")
	}

	return nil
}

func (o ControllerConfig) displayName() string {
	if len(o.DisplayName) == 0 {
		return o.ServiceName
	}

	return o.DisplayName
}

// commandLine returns the executable and arguments as a single command line,
// quoting any element that contains white space.
func (o ControllerConfig) commandLine() string {
	parts := make([]string, 0, len(o.Arguments)+1)
	for _, part := range append([]string{o.ExePath}, o.Arguments...) {
		if strings.ContainsAny(part, " \t\"") {
			part = strconv.Quote(part)
		}
		parts = append(parts, part)
	}

	return strings.Join(parts, " ")
}

// SupportedCommandsString returns a printable string that represents a list
// of supported service control commands.
func SupportedCommandsString() string {
	return fmt.Sprintf("'%s'", strings.Join(SupportedCommands(), "', '"))
}

// SupportedCommands returns a slice of supported service control commands.
func SupportedCommands() []string {
	return []string{
		GetStatus.string(),
		Install.string(),
		Update.string(),
		Remove.string(),
		Start.string(),
		Stop.string(),
		Restart.string(),
	}
}

// ParseCommand converts raw user input into a Command. 'uninstall' is
// accepted as an alias of 'remove'.
func ParseCommand(s string) (Command, error) {
	if s == uninstallAlias {
		return Remove, nil
	}

	for _, supported := range SupportedCommands() {
		if s == supported {
			return Command(s), nil
		}
	}

	return "", fmt.Errorf("%w '%s'", ErrUnknownCommand, s)
}

// Execute executes a control command using the provided controller.
// This helper function is used to turn raw user input (a command line
// argument, for example) into a Controller execution. The function returns
// any information that is associated with the Controller execution (e.g.,
// the status of the service).
//
// Please review the Controller documentation for more information.
func Execute(command Command, controller Controller) (output string, err error) {
	switch command {
	case GetStatus:
		status, err := controller.Status()
		if err != nil {
			return "", fmt.Errorf("failed to get service status - %w", err)
		}

		return status.String(), nil
	case Install:
		err := controller.Install()
		if err != nil {
			return "", fmt.Errorf("failed to install service - %w", err)
		}

		return "", nil
	case Update:
		err := controller.Update()
		if err != nil {
			return "", fmt.Errorf("failed to update service - %w", err)
		}

		return "", nil
	case Remove:
		err := controller.Uninstall()
		if err != nil {
			return "", fmt.Errorf("failed to remove service - %w", err)
		}

		return "", nil
	case Start:
		err := controller.Start()
		if err != nil {
			return "", fmt.Errorf("failed to start service - %w", err)
		}

		return "", nil
	case Stop:
		err := controller.Stop()
		if err != nil {
			return "", fmt.Errorf("failed to stop service - %w", err)
		}

		return "", nil
	case Restart:
		status, err := controller.Status()
		if err != nil {
			return "", fmt.Errorf("failed to get service status - %w", err)
		}

		switch status {
		case Running, Starting, Resuming, Paused, Pausing:
			err := controller.Stop()
			if err != nil {
				return "", fmt.Errorf("failed to stop service - %w", err)
			}
		}

		err = controller.Start()
		if err != nil {
			return "", fmt.Errorf("failed to start service - %w", err)
		}

		return "", nil
	}

	return "", fmt.Errorf("%w '%s'", ErrUnknownCommand, command.string())
}
