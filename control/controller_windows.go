package control

import (
	"errors"
	"fmt"
	"strconv"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stephen-fox/cyberservice/evlog"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"
)

const (
	defaultStopTimeout = 20 * time.Second
	stopPollInterval   = 50 * time.Millisecond
)

type windowsController struct {
	config       ControllerConfig
	winStartType uint32
}

func (o *windowsController) Status() (Status, error) {
	m, err := mgr.Connect()
	if err != nil {
		return "", err
	}
	defer m.Disconnect()

	s, err := m.OpenService(o.config.ServiceName)
	if err != nil {
		if errors.Is(err, windows.ERROR_SERVICE_DOES_NOT_EXIST) {
			return NotInstalled, nil
		}

		return "", err
	}
	defer s.Close()

	winStatus, err := s.Query()
	if err != nil {
		return "", err
	}

	switch winStatus.State {
	case svc.StopPending:
		return Stopping, nil
	case svc.Stopped:
		return Stopped, nil
	case svc.StartPending:
		return Starting, nil
	case svc.Running:
		return Running, nil
	case svc.ContinuePending:
		return Resuming, nil
	case svc.PausePending:
		return Pausing, nil
	case svc.Paused:
		return Paused, nil
	}

	return Unknown, nil
}

func (o *windowsController) Install() error {
	password, err := o.password()
	if err != nil {
		return err
	}

	m, err := mgr.Connect()
	if err != nil {
		return err
	}
	defer m.Disconnect()

	c := mgr.Config{
		DisplayName:      o.config.displayName(),
		Description:      o.config.Description,
		StartType:        o.winStartType,
		ServiceStartName: o.config.RunAs,
		Password:         password,
	}

	s, err := m.CreateService(o.config.ServiceName, o.config.ExePath, c, o.config.Arguments...)
	if err != nil {
		return err
	}
	defer s.Close()

	err = evlog.Install(o.config.ServiceName)
	if err != nil {
		s.Delete()
		return fmt.Errorf("failed to register event log source - %w", err)
	}

	if o.config.StartType == StartImmediately {
		err := s.Start()
		if err != nil {
			s.Delete()
			evlog.Remove(o.config.ServiceName)
			return err
		}
	}

	return nil
}

func (o *windowsController) Update() error {
	password, err := o.password()
	if err != nil {
		return err
	}

	m, err := mgr.Connect()
	if err != nil {
		return err
	}
	defer m.Disconnect()

	s, err := m.OpenService(o.config.ServiceName)
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := s.Config()
	if err != nil {
		return err
	}

	c.DisplayName = o.config.displayName()
	c.Description = o.config.Description
	c.StartType = o.winStartType
	c.BinaryPathName = binaryPathName(o.config.ExePath, o.config.Arguments)
	if len(o.config.RunAs) > 0 {
		c.ServiceStartName = o.config.RunAs
		c.Password = password
	}

	return s.UpdateConfig(c)
}

func (o *windowsController) Uninstall() error {
	m, err := mgr.Connect()
	if err != nil {
		return err
	}
	defer m.Disconnect()

	s, err := m.OpenService(o.config.ServiceName)
	if err != nil {
		return err
	}
	defer s.Close()

	// Attempt to stop the service before removing it.
	// Windows does not stop the service's process when
	// the service is deleted. Do not bother checking
	// the error because there is nothing to do if the
	// stop fails.
	stopAndWait(s, o.stopTimeout())

	var result *multierror.Error

	err = s.Delete()
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to delete service - %w", err))
	}

	err = evlog.Remove(o.config.ServiceName)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to remove event log source - %w", err))
	}

	return result.ErrorOrNil()
}

func (o *windowsController) Start() error {
	m, err := mgr.Connect()
	if err != nil {
		return err
	}
	defer m.Disconnect()

	s, err := m.OpenService(o.config.ServiceName)
	if err != nil {
		return err
	}
	defer s.Close()

	return s.Start()
}

func (o *windowsController) Stop() error {
	m, err := mgr.Connect()
	if err != nil {
		return err
	}
	defer m.Disconnect()

	s, err := m.OpenService(o.config.ServiceName)
	if err != nil {
		return err
	}
	defer s.Close()

	return stopAndWait(s, o.stopTimeout())
}

func (o *windowsController) password() (string, error) {
	if len(o.config.RunAs) == 0 {
		return "", nil
	}

	v, ok := o.config.SystemSpecificOptions[PasswordOption]
	if !ok {
		return "", fmt.Errorf("the '%s' operating system specific option must be specified to run a windows service as a normal user", PasswordOption)
	}

	getPassFn, ok := v.(GetPassword)
	if !ok {
		return "", fmt.Errorf("the '%s' option must be a GetPassword function (type assertion failure)", PasswordOption)
	}

	password, err := getPassFn()
	if err != nil {
		return "", fmt.Errorf("failed to get password when installing service - %w", err)
	}

	return password, nil
}

func (o *windowsController) stopTimeout() time.Duration {
	if o.config.StopTimeout > 0 {
		return o.config.StopTimeout
	}

	timeout := defaultServiceStopTimeout()
	if timeout == 0 {
		return defaultStopTimeout
	}

	return timeout
}

func NewController(controllerConfig ControllerConfig) (Controller, error) {
	err := controllerConfig.Validate()
	if err != nil {
		return nil, err
	}

	var winStartType uint32
	switch controllerConfig.StartType {
	case StartImmediately, StartOnLoad:
		winStartType = mgr.StartAutomatic
	default:
		winStartType = mgr.StartManual
	}

	return &windowsController{
		config:       controllerConfig,
		winStartType: winStartType,
	}, nil
}

// binaryPathName builds the command line the same way mgr.CreateService does.
func binaryPathName(exePath string, args []string) string {
	s := syscall.EscapeArg(exePath)
	for _, v := range args {
		s += " " + syscall.EscapeArg(v)
	}

	return s
}

// stopAndWait based on stopAndWait by takama et al:
//
//  github.com/takama/daemon in daemon_windows.go
//  commit: 7b0f9893e24934bbedef065a1768c33779951e7d
func stopAndWait(s *mgr.Service, timeout time.Duration) error {
	status, err := s.Control(svc.Stop)
	if err != nil {
		return err
	}

	onTimeout := time.After(timeout + (stopPollInterval * 2))
	tick := time.NewTicker(stopPollInterval)
	defer tick.Stop()

	for status.State != svc.Stopped {
		select {
		case <-tick.C:
			status, err = s.Query()
			if err != nil {
				return err
			}
		case <-onTimeout:
			return fmt.Errorf("service failed to stop after %s", timeout.String())
		}
	}

	return nil
}

// defaultServiceStopTimeout based on getStopTimeout by takama et al:
//
//  github.com/takama/daemon in daemon_windows.go
//  commit: 7b0f9893e24934bbedef065a1768c33779951e7d
func defaultServiceStopTimeout() time.Duration {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, `SYSTEM\CurrentControlSet\Control`, registry.READ)
	if err != nil {
		return 0
	}
	defer key.Close()

	sv, _, err := key.GetStringValue("WaitToKillServiceTimeout")
	if err != nil {
		return 0
	}

	v, err := strconv.Atoi(sv)
	if err != nil {
		return 0
	}

	return time.Millisecond * time.Duration(v)
}
