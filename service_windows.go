package cyberservice

import (
	"errors"
	"io/ioutil"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/stephen-fox/cyberservice/control"
	"github.com/stephen-fox/cyberservice/evlog"
	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/debug"
)

// serviceHandler adapts an Instance to the Windows service control
// dispatcher.
type serviceHandler struct {
	instance *Instance
	errMutex sync.Mutex
	lastErr  error
}

func (o *serviceHandler) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	requests := make(chan Request)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case c := <-r:
				var req Request
				switch c.Cmd {
				case svc.Interrogate:
					req = Interrogate
				case svc.Stop:
					req = StopRequest
				case svc.Shutdown:
					req = ShutdownRequest
				default:
					continue
				}

				select {
				case requests <- req:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	// The dispatcher reports Stopped, with the exit code, once
	// Execute returns.
	err := o.instance.Execute(requests, func(status Status) {
		if status == Stopped {
			return
		}
		changes <- toServiceStatus(status)
	})
	if err != nil {
		o.setError(err)

		var le *LifecycleError
		if errors.As(err, &le) {
			return true, le.exitCode()
		}
		return true, 1
	}

	return false, 0
}

func (o *serviceHandler) setError(err error) {
	o.errMutex.Lock()
	o.lastErr = err
	o.errMutex.Unlock()
}

func (o *serviceHandler) err() error {
	o.errMutex.Lock()
	defer o.errMutex.Unlock()

	return o.lastErr
}

func toServiceStatus(status Status) svc.Status {
	switch status {
	case StartPending:
		return svc.Status{State: svc.StartPending}
	case Running:
		return svc.Status{
			State:   svc.Running,
			Accepts: svc.AcceptStop | svc.AcceptShutdown,
		}
	case StopPending:
		return svc.Status{State: svc.StopPending}
	case Stopped:
		return svc.Status{State: svc.Stopped}
	}

	return svc.Status{}
}

// runAsService connects to the service control manager and runs the service
// until it stops. Log entries and messages go to the Windows event log.
func runAsService(descriptor Descriptor, service Service) error {
	events, err := evlog.Open(descriptor.Name)
	if err != nil {
		return err
	}
	defer events.Close()

	logger := logrus.New()
	logger.SetOutput(ioutil.Discard)
	logger.AddHook(evlog.NewHook(events))

	handler := &serviceHandler{
		instance: NewInstance(descriptor, service, logger, events),
	}

	runErr := svc.Run(descriptor.Name, handler)
	if errors.Is(runErr, windows.ERROR_FAILED_SERVICE_CONTROLLER_CONNECT) {
		return ErrNotLaunchedByManager
	}

	err = handler.err()
	if err != nil {
		return err
	}

	return runErr
}

// runConsole runs the service in the current console. Ctrl+C and Ctrl+Break
// request a stop.
func runConsole(descriptor Descriptor, service Service) error {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.DebugLevel)

	handler := &serviceHandler{
		instance: NewInstance(descriptor, service, logger, evlog.Console(descriptor.Name)),
	}

	runErr := debug.Run(descriptor.Name, handler)

	err := handler.err()
	if err != nil {
		return err
	}

	return runErr
}

func systemSpecificOptions(d Descriptor) map[control.SystemSpecificOption]interface{} {
	if d.Password == nil {
		return nil
	}

	return map[control.SystemSpecificOption]interface{}{
		control.PasswordOption: control.GetPassword(d.Password),
	}
}
