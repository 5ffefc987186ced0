package cyberservice

import (
	"os"

	"github.com/stephen-fox/cyberservice/evlog"
)

const launchdServiceEnv = "XPC_SERVICE_NAME"

// runAsService runs the service under launchd. launchd has no status
// protocol, so status changes are only logged.
func runAsService(descriptor Descriptor, service Service) error {
	if os.Getenv(launchdServiceEnv) != descriptor.Name {
		return ErrNotLaunchedByManager
	}

	events, err := evlog.Open(descriptor.Name)
	if err != nil {
		return err
	}
	defer events.Close()

	logger := managedLogger()
	instance := NewInstance(descriptor, service, logger, events)

	return runWithSignals(instance, func(status Status) {
		instance.Logger().Debugf("status is now %s", status)
	})
}
