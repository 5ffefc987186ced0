//go:build !windows
// +build !windows

package cyberservice

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/stephen-fox/cyberservice/control"
	"github.com/stephen-fox/cyberservice/evlog"
)

// runWithSignals executes instance, turning SIGINT and SIGTERM into stop
// requests.
func runWithSignals(instance *Instance, report func(Status)) error {
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	requests := make(chan Request)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-interrupts:
				select {
				case requests <- StopRequest:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	return instance.Execute(requests, report)
}

// runConsole runs the service in the foreground. Ctrl+C requests a stop.
func runConsole(descriptor Descriptor, service Service) error {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.DebugLevel)

	instance := NewInstance(descriptor, service, logger, evlog.Console(descriptor.Name))

	return runWithSignals(instance, func(status Status) {
		logger.WithField("service", descriptor.Name).Debugf("status is now %s", status)
	})
}

func systemSpecificOptions(Descriptor) map[control.SystemSpecificOption]interface{} {
	return nil
}

// managedLogger returns the logger used when running under a service
// manager, which collects stderr.
func managedLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		DisableTimestamp: true,
	})
	return logger
}
