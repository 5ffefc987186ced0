package cyberservice

import (
	"os"

	"github.com/coreos/go-systemd/daemon"
	"github.com/stephen-fox/cyberservice/evlog"
)

const notifySocketEnv = "NOTIFY_SOCKET"

// runAsService runs the service under systemd, which must start the
// process from a unit with 'Type=notify'. Status changes are sent using
// the sd_notify protocol.
func runAsService(descriptor Descriptor, service Service) error {
	if len(os.Getenv(notifySocketEnv)) == 0 {
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
		_, err := daemon.SdNotify(false, notifyState(status))
		if err != nil {
			logger.WithError(err).Warn("failed to notify systemd of status change")
		}
	})
}

// notifyState returns the sd_notify message for status.
func notifyState(status Status) string {
	state := "STATUS=" + status.String()

	switch status {
	case Running:
		state = daemon.SdNotifyReady + "\n" + state
	case StopPending:
		state = daemon.SdNotifyStopping + "\n" + state
	}

	return state
}
